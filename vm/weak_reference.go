package vm

import (
	"sync"
)

// ---------------------------------------------------------------------------
// WeakReference: A reference that doesn't keep its target alive
// ---------------------------------------------------------------------------

// WeakReference holds a weak reference to an arena object. When the host
// releases the target, the arena clears the reference and WeakLoad yields
// Void.
type WeakReference struct {
	target Handle // 0 once cleared
	mu     sync.RWMutex
}

// NewWeakReference creates a weak reference to target. Register it with an
// arena through Arena.NewWeak so that releasing the target clears it.
func NewWeakReference(target Handle) *WeakReference {
	return &WeakReference{target: target}
}

// Get returns the target handle, or false if the target has been released.
func (wr *WeakReference) Get() (Handle, bool) {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	return wr.target, wr.target != 0
}

// IsAlive returns true if the target has not been released.
func (wr *WeakReference) IsAlive() bool {
	_, ok := wr.Get()
	return ok
}

// Clear clears the weak reference and returns the old target.
func (wr *WeakReference) Clear() Handle {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	old := wr.target
	wr.target = 0
	return old
}

// deref resolves a weak reference cell to its referent. Values that are not
// weak cells are returned unchanged; a cleared cell yields Void.
func (vm *VM) deref(v Value) Value {
	h, ok := v.AsRef()
	if !ok {
		return v
	}
	obj, ok := vm.arena.Get(h)
	if !ok || obj.Kind != ObjectWeak {
		return v
	}
	target, alive := obj.Weak.Get()
	if !alive || !vm.arena.Alive(target) {
		return Void
	}
	return Ref(target)
}
