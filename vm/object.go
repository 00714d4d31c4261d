package vm

import (
	"fmt"
	"sync"
)

// Handle is the stable index of an object in an Arena. Handles start at 1
// and are never reused, so a stale handle can always be detected.
type Handle uint32

// ObjectKind identifies what an arena object holds.
type ObjectKind uint8

const (
	// ObjectInstance is a box constructed by NewBox for a kind the VM has no
	// built-in representation for. Its state lives in the FieldStore.
	ObjectInstance ObjectKind = iota
	ObjectArray
	ObjectWeak
	ObjectOpaque
)

var objectKindNames = [...]string{
	ObjectInstance: "instance",
	ObjectArray:    "array",
	ObjectWeak:     "weak",
	ObjectOpaque:   "opaque",
}

func (k ObjectKind) String() string {
	if int(k) < len(objectKindNames) {
		return objectKindNames[k]
	}
	return fmt.Sprintf("ObjectKind(%d)", k)
}

// Object is an entry in the arena.
type Object struct {
	Kind ObjectKind

	// Class is the kind name an instance was constructed with.
	Class string

	// Elements backs ObjectArray.
	Elements []Value

	// Weak backs ObjectWeak.
	Weak *WeakReference

	// Payload backs ObjectOpaque: a host value the VM does not understand.
	Payload any
}

// TypeName returns the name used by TypeCheck and method dispatch.
func (o *Object) TypeName() string {
	switch o.Kind {
	case ObjectInstance:
		return o.Class
	case ObjectOpaque:
		return fmt.Sprintf("%T", o.Payload)
	}
	return o.Kind.String()
}

// ---------------------------------------------------------------------------
// Arena: handle-indexed object storage
// ---------------------------------------------------------------------------

// Arena owns every object created during execution. Object lifetime is
// managed by the host through Release; the VM never frees objects itself.
type Arena struct {
	mu      sync.RWMutex
	objects []*Object // index = handle-1, nil once released

	// weakRefs tracks the weak references pointing at each live object so
	// that Release can clear them.
	weakRefs map[Handle][]*WeakReference
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{weakRefs: make(map[Handle][]*WeakReference)}
}

// Alloc stores obj and returns its handle.
func (a *Arena) Alloc(obj *Object) Handle {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects = append(a.objects, obj)
	return Handle(len(a.objects))
}

// Get returns the live object for h.
func (a *Arena) Get(h Handle) (*Object, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.getLocked(h)
}

func (a *Arena) getLocked(h Handle) (*Object, bool) {
	if h == 0 || int(h) > len(a.objects) {
		return nil, false
	}
	obj := a.objects[h-1]
	return obj, obj != nil
}

// Alive returns true if h names an object that has not been released.
func (a *Arena) Alive(h Handle) bool {
	_, ok := a.Get(h)
	return ok
}

// Release drops the object for h and clears every weak reference to it.
// Returns false if h was not live.
func (a *Arena) Release(h Handle) bool {
	a.mu.Lock()
	if _, ok := a.getLocked(h); !ok {
		a.mu.Unlock()
		return false
	}
	a.objects[h-1] = nil
	refs := a.weakRefs[h]
	delete(a.weakRefs, h)
	a.mu.Unlock()

	for _, wr := range refs {
		wr.Clear()
	}
	return true
}

// Live returns the number of objects that have not been released.
func (a *Arena) Live() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	n := 0
	for _, obj := range a.objects {
		if obj != nil {
			n++
		}
	}
	return n
}

// NewWeak allocates a weak reference cell pointing at target and returns
// the cell's handle.
func (a *Arena) NewWeak(target Handle) Handle {
	wr := NewWeakReference(target)
	h := a.Alloc(&Object{Kind: ObjectWeak, Weak: wr})

	a.mu.Lock()
	if _, ok := a.getLocked(target); ok {
		a.weakRefs[target] = append(a.weakRefs[target], wr)
	} else {
		wr.Clear()
	}
	a.mu.Unlock()
	return h
}

// WeakCount returns the number of weak references registered against live
// objects.
func (a *Arena) WeakCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	n := 0
	for _, refs := range a.weakRefs {
		n += len(refs)
	}
	return n
}
