package host

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestEnvConsoleLog(t *testing.T) {
	var out bytes.Buffer
	env := NewEnv(&out)

	res, err := env.Call(context.Background(), Call{
		Interface: ConsoleInterface,
		Method:    "log",
		Display:   []string{"hello", "42"},
	})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if res != nil {
		t.Errorf("Call() = %v, want nil", res)
	}
	if got := out.String(); got != "hello 42\n" {
		t.Errorf("output = %q, want %q", got, "hello 42\n")
	}
}

func TestEnvConsoleWarn(t *testing.T) {
	var out bytes.Buffer
	env := NewEnv(&out)
	if _, err := env.Call(context.Background(), Call{Interface: ConsoleInterface, Method: "warn", Display: []string{"careful"}}); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "[warn] careful\n" {
		t.Errorf("output = %q", got)
	}
}

func TestEnvCanvasProducesNoOutput(t *testing.T) {
	var out bytes.Buffer
	env := NewEnv(&out)
	res, err := env.Call(context.Background(), Call{Interface: CanvasInterface, Method: "fillRect", Display: []string{"0", "0"}})
	if err != nil || res != nil {
		t.Errorf("Call() = %v, %v; want nil, nil", res, err)
	}
	if out.Len() != 0 {
		t.Errorf("canvas wrote %q to console", out.String())
	}
}

func TestMuxUnknownInterface(t *testing.T) {
	res, err := NewMux().Call(context.Background(), Call{Interface: "env.nowhere", Method: "x"})
	if res != nil || err != nil {
		t.Errorf("Call() = %v, %v; want nil, nil", res, err)
	}
}

func TestMuxRoutesToHandler(t *testing.T) {
	m := NewMux().HandleFunc("math", func(_ context.Context, call Call) (any, error) {
		return int64(len(call.Args)), nil
	})
	res, err := m.Call(context.Background(), Call{Interface: "math", Method: "count", Args: []any{1, 2, 3}})
	if err != nil {
		t.Fatal(err)
	}
	if res != int64(3) {
		t.Errorf("Call() = %v, want 3", res)
	}
	if names := m.Interfaces(); len(names) != 1 || names[0] != "math" {
		t.Errorf("Interfaces() = %v", names)
	}
}

func TestRecordingRecordsBeforeDelegating(t *testing.T) {
	rec := NewMemoryRecorder()
	boom := errors.New("boom")
	r := &Recording{
		Stub: StubFunc(func(context.Context, Call) (any, error) {
			return nil, boom
		}),
		Recorder: rec,
	}

	_, err := r.Call(context.Background(), Call{Interface: "env.console", Method: "log"})
	if !errors.Is(err, boom) {
		t.Errorf("Call() error = %v, want boom", err)
	}
	calls := rec.Calls()
	if len(calls) != 1 || calls[0].Name() != "env.console.log" {
		t.Errorf("Calls() = %v, want one env.console.log", calls)
	}

	rec.Reset()
	if len(rec.Calls()) != 0 {
		t.Error("Reset() did not clear calls")
	}
}

func TestSQLiteRecorder(t *testing.T) {
	ctx := context.Background()
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "calls.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRecorder() error = %v", err)
	}
	defer rec.Close()

	for _, method := range []string{"log", "warn"} {
		if err := rec.Record(ctx, Call{RunID: "run-1", Interface: ConsoleInterface, Method: method, Display: []string{method, "1"}}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	if err := rec.Record(ctx, Call{RunID: "run-2", Interface: CanvasInterface, Method: "clear"}); err != nil {
		t.Fatal(err)
	}

	calls, err := rec.Calls(ctx, "run-1")
	if err != nil {
		t.Fatalf("Calls() error = %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("len(Calls()) = %d, want 2", len(calls))
	}
	if calls[0].Method != "log" || calls[1].Method != "warn" {
		t.Errorf("methods = %s, %s; want log, warn", calls[0].Method, calls[1].Method)
	}
	if calls[1].Text() != "warn 1" {
		t.Errorf("Text() = %q, want %q", calls[1].Text(), "warn 1")
	}
	if calls[0].Time.IsZero() {
		t.Error("recorded time is zero")
	}
}
