// Package manifest handles mirvm.toml configuration.
package manifest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/mirvm/host"
	"github.com/chazu/mirvm/mir"
	"github.com/chazu/mirvm/vm"
)

// FileName is the name of the configuration file.
const FileName = "mirvm.toml"

// Record backends accepted in [host] record.
const (
	RecordNone   = ""
	RecordMemory = "memory"
	RecordSQLite = "sqlite"
)

// Manifest represents a mirvm.toml configuration.
type Manifest struct {
	VM   VMConfig   `toml:"vm"`
	Host HostConfig `toml:"host"`
	Log  LogConfig  `toml:"log"`

	// Dir is the directory containing the mirvm.toml file (set at load time).
	Dir string `toml:"-"`
}

// VMConfig configures execution.
type VMConfig struct {
	// Module is the default .mirb file to run, relative to Dir.
	Module               string `toml:"module,omitempty"`
	Entry                string `toml:"entry"`
	Strict               bool   `toml:"strict"`
	MaxFrameDepth        int    `toml:"max-frame-depth"`
	Trace                bool   `toml:"trace"`
	ContextCheckInterval int    `toml:"context-check-interval"`
}

// HostConfig configures the host call boundary.
type HostConfig struct {
	Console  bool   `toml:"console"`
	Record   string `toml:"record"`
	RecordDB string `toml:"record-db"`
}

// LogConfig configures commonlog.
type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file,omitempty"`
}

// Default returns the configuration used when no mirvm.toml exists.
func Default() *Manifest {
	return &Manifest{
		VM: VMConfig{
			Entry:                mir.MainFunction,
			MaxFrameDepth:        vm.DefaultMaxFrameDepth,
			ContextCheckInterval: vm.DefaultContextCheckInterval,
		},
		Host: HostConfig{
			Console:  true,
			RecordDB: "calls.db",
		},
	}
}

// Load parses a mirvm.toml file from the given directory. Keys missing from
// the file keep their Default values.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := Default()
	if _, err := toml.Decode(string(data), m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// FindAndLoad walks up from startDir to find a mirvm.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// Write stores m as mirvm.toml in dir.
func (m *Manifest) Write(dir string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}

func (m *Manifest) validate() error {
	switch m.Host.Record {
	case RecordNone, RecordMemory, RecordSQLite:
	default:
		return fmt.Errorf("unknown record backend %q", m.Host.Record)
	}
	if m.VM.MaxFrameDepth < 0 {
		return fmt.Errorf("max-frame-depth must not be negative, got %d", m.VM.MaxFrameDepth)
	}
	if m.VM.ContextCheckInterval < 0 {
		return fmt.Errorf("context-check-interval must not be negative, got %d", m.VM.ContextCheckInterval)
	}
	return nil
}

// Path resolves p against the manifest directory.
func (m *Manifest) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || m.Dir == "" {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// VMOptions returns the VM options described by the [vm] section.
func (m *Manifest) VMOptions() []vm.Option {
	return []vm.Option{
		vm.WithStrict(m.VM.Strict),
		vm.WithMaxFrameDepth(m.VM.MaxFrameDepth),
		vm.WithContextCheckInterval(m.VM.ContextCheckInterval),
		vm.WithTrace(m.VM.Trace),
	}
}

// OpenHost builds the host stub described by the [host] section. Console
// output goes to out. The returned close function releases the recorder and
// must be called when the run is over.
func (m *Manifest) OpenHost(out io.Writer) (host.Stub, func() error, error) {
	var stub host.Stub = host.NewMux().Handle(host.CanvasInterface, host.Canvas{})
	if m.Host.Console {
		stub = host.NewEnv(out)
	}

	noop := func() error { return nil }
	switch m.Host.Record {
	case RecordMemory:
		return &host.Recording{Stub: stub, Recorder: host.NewMemoryRecorder()}, noop, nil
	case RecordSQLite:
		rec, err := host.NewSQLiteRecorder(m.Path(m.Host.RecordDB))
		if err != nil {
			return nil, nil, err
		}
		return &host.Recording{Stub: stub, Recorder: rec}, rec.Close, nil
	}
	return stub, noop, nil
}
