// Package host implements the boundary between the VM and the program that
// embeds it. ExternCall instructions leave the VM as a Call and are routed
// to a Stub by interface name.
package host

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("mirvm.host")

// Call is one crossing of the VM/host boundary.
type Call struct {
	RunID     string
	Interface string
	Method    string

	// Args are the arguments converted to the host's generic representation.
	Args []any

	// Display holds the textual form of each argument as the VM prints it.
	Display []string

	Time time.Time
}

// Name returns "interface.method".
func (c Call) Name() string {
	return c.Interface + "." + c.Method
}

// Text joins the display forms of the arguments with spaces.
func (c Call) Text() string {
	return strings.Join(c.Display, " ")
}

// Stub handles calls that cross into the host. A nil result is delivered to
// the VM as void.
type Stub interface {
	Call(ctx context.Context, call Call) (any, error)
}

// StubFunc adapts a function to the Stub interface.
type StubFunc func(ctx context.Context, call Call) (any, error)

func (f StubFunc) Call(ctx context.Context, call Call) (any, error) {
	return f(ctx, call)
}

// ---------------------------------------------------------------------------
// Mux: routes calls by interface name
// ---------------------------------------------------------------------------

// Mux dispatches calls to the stub registered for their interface. Calls for
// an unknown interface are logged and yield void.
type Mux struct {
	mu    sync.RWMutex
	stubs map[string]Stub
}

// NewMux creates an empty mux.
func NewMux() *Mux {
	return &Mux{stubs: make(map[string]Stub)}
}

// Handle registers stub for iface, replacing any previous registration.
func (m *Mux) Handle(iface string, stub Stub) *Mux {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs[iface] = stub
	return m
}

// HandleFunc registers fn for iface.
func (m *Mux) HandleFunc(iface string, fn func(ctx context.Context, call Call) (any, error)) *Mux {
	return m.Handle(iface, StubFunc(fn))
}

// Interfaces returns the registered interface names, sorted.
func (m *Mux) Interfaces() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.stubs))
	for name := range m.stubs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Mux) Call(ctx context.Context, call Call) (any, error) {
	m.mu.RLock()
	stub, ok := m.stubs[call.Interface]
	m.mu.RUnlock()
	if !ok {
		log.Debugf("no stub for %s", call.Name())
		return nil, nil
	}
	return stub.Call(ctx, call)
}
