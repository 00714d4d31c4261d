package vm

import (
	"github.com/chazu/mirvm/mir"
)

// Observer receives execution events. Methods are called synchronously on
// the executing goroutine; implementations should be fast.
type Observer interface {
	// OnEnter is called when an activation of fn starts.
	OnEnter(fn string, depth int)

	// OnBlock is called each time a block starts executing. from is the
	// predecessor, or the block itself for the entry block.
	OnBlock(fn string, from, to mir.BlockID)

	// OnReturn is called when an activation of fn completes normally.
	OnReturn(fn string, result Value)
}

// NoOpObserver can be embedded to implement only some Observer methods.
type NoOpObserver struct{}

func (NoOpObserver) OnEnter(string, int) {}

func (NoOpObserver) OnBlock(string, mir.BlockID, mir.BlockID) {}

func (NoOpObserver) OnReturn(string, Value) {}

// traceObserver logs execution events and forwards them to next.
type traceObserver struct {
	next Observer
}

func (t *traceObserver) OnEnter(fn string, depth int) {
	log.Debugf("enter %s (depth %d)", fn, depth)
	if t.next != nil {
		t.next.OnEnter(fn, depth)
	}
}

func (t *traceObserver) OnBlock(fn string, from, to mir.BlockID) {
	log.Debugf("%s: %s -> %s", fn, from, to)
	if t.next != nil {
		t.next.OnBlock(fn, from, to)
	}
}

func (t *traceObserver) OnReturn(fn string, result Value) {
	log.Debugf("return %s = %s", fn, result)
	if t.next != nil {
		t.next.OnReturn(fn, result)
	}
}
