package host

import (
	"context"
	"sync"
)

// Recorder stores calls that crossed the boundary.
type Recorder interface {
	Record(ctx context.Context, call Call) error
}

// Recording wraps a stub and records every call before delegating to it.
// A failed record is logged and does not stop the call.
type Recording struct {
	Stub     Stub
	Recorder Recorder
}

func (r *Recording) Call(ctx context.Context, call Call) (any, error) {
	if err := r.Recorder.Record(ctx, call); err != nil {
		log.Warningf("recording %s: %s", call.Name(), err)
	}
	if r.Stub == nil {
		return nil, nil
	}
	return r.Stub.Call(ctx, call)
}

// MemoryRecorder keeps calls in memory.
type MemoryRecorder struct {
	mu    sync.Mutex
	calls []Call
}

// NewMemoryRecorder creates an empty recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (r *MemoryRecorder) Record(_ context.Context, call Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	return nil
}

// Calls returns a copy of the recorded calls in order.
func (r *MemoryRecorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Reset discards recorded calls.
func (r *MemoryRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
