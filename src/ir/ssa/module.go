package ssa

import (
	"fmt"
	"strings"
	"sync"
)

// Module holds every function linearize produced for a compilation unit,
// plus the diagnostic sink simplification routes its warnings through
// (see diag.go; "warnings as effects" in the design notes).
type Module struct {
	Name      string
	functions map[string]*Function
	order     []string // preserves insertion order for String()
	Diag      DiagSink

	// Debug gates the -vdead/-ventry/-vpostorder developer flags: the
	// driver host sets these before running a pass, the core routes the
	// resulting trace through Diag like any other diagnostic rather than
	// importing a logging package itself.
	DebugDead      bool
	DebugEntry     bool
	DebugPostorder bool

	mu sync.Mutex
}

// CreateModule creates an empty module. A nil sink is replaced with a
// DiscardSink; callers that want diagnostics should pass one explicitly
// (util.NewZapSink in non-test code, a recording sink in tests).
func CreateModule(name string, sink DiagSink) *Module {
	if sink == nil {
		sink = DiscardSink{}
	}
	return &Module{
		Name:      name,
		functions: make(map[string]*Function, 8),
		Diag:      sink,
	}
}

func (m *Module) addFunction(f *Function) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.functions[f.Name] = f
	m.order = append(m.order, f.Name)
}

// Functions returns every function in the module, in creation order.
func (m *Module) Functions() []*Function {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := make([]*Function, 0, len(m.order))
	for _, name := range m.order {
		res = append(res, m.functions[name])
	}
	return res
}

// GetFunction returns a named function, or nil if the module has none by
// that name.
func (m *Module) GetFunction(name string) *Function {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.functions[name]
}

func (m *Module) String() string {
	sb := strings.Builder{}
	fmt.Fprintf(&sb, "module %s\n\n", m.Name)
	for _, f := range m.Functions() {
		sb.WriteString(f.String())
		sb.WriteRune('\n')
	}
	return sb.String()
}
