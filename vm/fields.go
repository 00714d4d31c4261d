package vm

import (
	"github.com/chazu/mirvm/mir"
)

// ---------------------------------------------------------------------------
// FieldStore: named mutable fields for reference-like values
// ---------------------------------------------------------------------------

// FieldOwner identifies the object a field belongs to. Arena objects are
// keyed by handle; any other value is keyed by the register that holds it.
type FieldOwner struct {
	handle Handle
	reg    mir.ValueID
	byReg  bool
}

// OwnerOf returns the owner key for the value held in register reg.
func OwnerOf(v Value, reg mir.ValueID) FieldOwner {
	if h, ok := v.AsRef(); ok {
		return FieldOwner{handle: h}
	}
	return FieldOwner{reg: reg, byReg: true}
}

// HandleOwner returns the owner key for an arena object.
func HandleOwner(h Handle) FieldOwner {
	return FieldOwner{handle: h}
}

// FieldStore maps an owner to its field-name→value table. Tables are created
// on first write and live as long as the store. It is owned by a single VM
// and is not safe for concurrent use.
type FieldStore struct {
	fields map[FieldOwner]map[string]Value
}

// NewFieldStore creates an empty store.
func NewFieldStore() *FieldStore {
	return &FieldStore{fields: make(map[FieldOwner]map[string]Value)}
}

// Get returns the stored value, or Int(0) for a field never written.
func (s *FieldStore) Get(owner FieldOwner, field string) Value {
	if v, ok := s.fields[owner][field]; ok {
		return v
	}
	return Int(0)
}

// Set stores value under field, creating the owner's table if needed.
func (s *FieldStore) Set(owner FieldOwner, field string, value Value) {
	m, ok := s.fields[owner]
	if !ok {
		m = make(map[string]Value)
		s.fields[owner] = m
	}
	m[field] = value
}

// drop forgets every field of owner. Used when the arena releases an object.
func (s *FieldStore) drop(owner FieldOwner) {
	delete(s.fields, owner)
}
