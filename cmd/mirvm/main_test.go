package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/mirvm/manifest"
	"github.com/chazu/mirvm/mir"
)

func writeModule(t *testing.T, m *mir.Module) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app"+mir.FileExtension)
	if err := mir.WriteFile(path, m); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAndRun(t *testing.T) {
	b := mir.NewFunctionBuilder("main", 0)
	b.Emit(mir.Return(b.Int(42)))
	path := writeModule(t, mir.NewModule("app").Add(b.Build()))

	module, err := loadModule(path)
	if err != nil {
		t.Fatalf("loadModule: %v", err)
	}
	code, err := run(manifest.Default(), module)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if code != 42 {
		t.Errorf("exit code = %d, want 42", code)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		n     int64
		code  int
		exact bool
	}{
		{0, 0, true},
		{42, 42, true},
		{255, 255, true},
		{256, 1, false},
		{-1, 1, false},
	}
	for _, tt := range tests {
		code, exact := exitCode(tt.n)
		if code != tt.code || exact != tt.exact {
			t.Errorf("exitCode(%d) = %d, %v, want %d, %v", tt.n, code, exact, tt.code, tt.exact)
		}
	}
}

func TestRunLargeResultIsNotSuccess(t *testing.T) {
	b := mir.NewFunctionBuilder("main", 0)
	b.Emit(mir.Return(b.Int(256)))
	path := writeModule(t, mir.NewModule("app").Add(b.Build()))

	module, err := loadModule(path)
	if err != nil {
		t.Fatal(err)
	}
	code, err := run(manifest.Default(), module)
	if err != nil {
		t.Fatal(err)
	}
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestLoadRejectsInvalidModule(t *testing.T) {
	b := mir.NewFunctionBuilder("main", 0)
	b.Emit(mir.Jump(7))
	path := writeModule(t, mir.NewModule("broken").Add(b.Build()))

	_, err := loadModule(path)
	if err == nil || !strings.Contains(err.Error(), "invalid module") {
		t.Errorf("loadModule error = %v, want invalid module", err)
	}
}

func TestRunReportsErrors(t *testing.T) {
	b := mir.NewFunctionBuilder("main", 0)
	b.Emit(mir.Throw(b.String("bad input")))
	path := writeModule(t, mir.NewModule("app").Add(b.Build()))

	module, err := loadModule(path)
	if err != nil {
		t.Fatal(err)
	}
	code, err := run(manifest.Default(), module)
	if err == nil || code != 1 {
		t.Errorf("run = %d, %v, want 1 and an error", code, err)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, manifest.FileName), []byte("[vm]\nentry = \"start\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.VM.Entry != "start" {
		t.Errorf("entry = %q, want start", cfg.VM.Entry)
	}
}
