// mirvm CLI - loads a compiled MIR module and runs its entry function
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/mirvm/manifest"
	"github.com/chazu/mirvm/mir"
	"github.com/chazu/mirvm/vm"
)

var log = commonlog.GetLogger("mirvm")

func main() {
	entry := flag.String("m", "", "Entry function (default from mirvm.toml, or 'main')")
	disassemble := flag.Bool("dis", false, "Print the module disassembly and exit")
	verbosity := flag.Int("v", -1, "Log verbosity (0 = errors only, 4 = debug)")
	strict := flag.Bool("strict", false, "Treat permissive fallbacks as errors")
	trace := flag.Bool("trace", false, "Log every block transition")
	configDir := flag.String("config", "", "Directory containing mirvm.toml (default: search upward from cwd)")
	initConfig := flag.Bool("init", false, "Write a default mirvm.toml to the current directory and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mirvm [options] [module%s]\n\n", mir.FileExtension)
		fmt.Fprintf(os.Stderr, "Runs a compiled MIR module.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  mirvm app.mirb             # Run main\n")
		fmt.Fprintf(os.Stderr, "  mirvm -m start app.mirb    # Run start\n")
		fmt.Fprintf(os.Stderr, "  mirvm -dis app.mirb        # Disassemble\n")
		fmt.Fprintf(os.Stderr, "  mirvm -v 4 -trace app.mirb # Debug logging with block trace\n")
	}
	flag.Parse()

	if *initConfig {
		if err := manifest.Default().Write("."); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", manifest.FileName)
		return
	}

	cfg, err := loadConfig(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Command-line flags override the manifest
	if *verbosity >= 0 {
		cfg.Log.Verbosity = *verbosity
	}
	if *strict {
		cfg.VM.Strict = true
	}
	if *trace {
		cfg.VM.Trace = true
	}
	if *entry != "" {
		cfg.VM.Entry = *entry
	}
	configureLogging(cfg)

	path := flag.Arg(0)
	if path == "" {
		path = cfg.Path(cfg.VM.Module)
	}
	if path == "" {
		flag.Usage()
		os.Exit(2)
	}

	module, err := loadModule(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *disassemble {
		fmt.Print(mir.Format(module))
		return
	}

	code, err := run(cfg, module)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

// loadConfig reads mirvm.toml from dir, or searches upward from the working
// directory when dir is empty. Without a manifest the defaults apply.
func loadConfig(dir string) (*manifest.Manifest, error) {
	if dir != "" {
		return manifest.Load(dir)
	}
	m, err := manifest.FindAndLoad(".")
	if err != nil {
		return nil, err
	}
	if m == nil {
		return manifest.Default(), nil
	}
	return m, nil
}

func configureLogging(cfg *manifest.Manifest) {
	var path *string
	if cfg.Log.File != "" {
		p := cfg.Path(cfg.Log.File)
		path = &p
	}
	commonlog.Configure(cfg.Log.Verbosity, path)
}

// loadModule decodes and validates a compiled module.
func loadModule(path string) (*mir.Module, error) {
	module, err := mir.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := mir.Validate(module); err != nil {
		return nil, fmt.Errorf("invalid module %s: %w", filepath.Base(path), err)
	}
	log.Infof("loaded module %q from %s (%d functions)", module.Name, path, len(module.Functions))
	return module, nil
}

// run executes the configured entry function and prints its result. If the
// entry returns an integer in 0..255 it becomes the process exit code; any
// other integer is printed and the exit code is 1.
func run(cfg *manifest.Manifest, module *mir.Module) (int, error) {
	stub, closeHost, err := cfg.OpenHost(os.Stdout)
	if err != nil {
		return 1, err
	}
	defer func() {
		if err := closeHost(); err != nil {
			log.Warningf("closing recorder: %s", err)
		}
	}()

	opts := append(cfg.VMOptions(), vm.WithStdout(os.Stdout), vm.WithHost(stub))
	machine := vm.NewVM(module, opts...)
	log.Debugf("vm %s running %s", machine.ID(), cfg.VM.Entry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := machine.Run(ctx, cfg.VM.Entry, nil)
	if err != nil {
		var vmErr *vm.Error
		if errors.As(err, &vmErr) {
			if thrown, ok := vmErr.Thrown(); ok {
				log.Errorf("uncaught: %s", machine.Display(thrown))
			}
		}
		return 1, err
	}

	if n, ok := result.AsInt(); ok {
		code, exact := exitCode(n)
		if !exact {
			fmt.Println(machine.Display(result))
		}
		return code, nil
	}
	if !result.IsVoid() {
		fmt.Println(machine.Display(result))
	}
	return 0, nil
}

// exitCode maps an integer result to a process exit code. Exit statuses are
// truncated to a byte, so values outside 0..255 map to 1.
func exitCode(n int64) (int, bool) {
	if n < 0 || n > 255 {
		return 1, false
	}
	return int(n), true
}
