package vm

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Future: write-once value shared between goroutines
// ---------------------------------------------------------------------------

// Future is a thread-safe, write-once cell. It is the only VM state meant to
// be shared across goroutines: one side resolves it with Set, any number of
// others block in Wait.
type Future struct {
	id    uuid.UUID
	done  chan struct{}
	once  sync.Once
	mu    sync.RWMutex
	value Value
}

// NewFuture creates an unresolved future.
func NewFuture() *Future {
	return &Future{
		id:   uuid.New(),
		done: make(chan struct{}),
	}
}

// NewResolvedFuture creates a future already holding v.
func NewResolvedFuture(v Value) *Future {
	f := NewFuture()
	f.Set(v)
	return f
}

// ID returns the future's unique identifier.
func (f *Future) ID() uuid.UUID {
	return f.id
}

// Set resolves the future. Only the first call has an effect; it reports
// whether this call resolved the future.
func (f *Future) Set(v Value) bool {
	resolved := false
	f.once.Do(func() {
		f.mu.Lock()
		f.value = v
		f.mu.Unlock()
		close(f.done)
		resolved = true
	})
	return resolved
}

// Ready returns true once the future has been resolved.
func (f *Future) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Value returns the resolved value without blocking.
func (f *Future) Value() (Value, bool) {
	if !f.Ready() {
		return Void, false
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.value, true
}

// Done returns a channel closed when the future resolves.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future resolves or ctx is done.
func (f *Future) Wait(ctx context.Context) (Value, error) {
	select {
	case <-f.done:
		v, _ := f.Value()
		return v, nil
	case <-ctx.Done():
		return Void, ctx.Err()
	}
}

func (f *Future) String() string {
	if v, ok := f.Value(); ok {
		return "<future " + f.id.String()[:8] + " = " + v.String() + ">"
	}
	return "<future " + f.id.String()[:8] + " pending>"
}
