package jack

import (
	"fmt"

	"its-hmny.dev/jackc/pkg/vm"
)

// ----------------------------------------------------------------------------
// General information

// SymbolTable tracks every variable visible while compiling one class: the class
// scope (STATIC and FIELD, alive for the whole class) and the subroutine scope
// (ARG and VAR, reset at the start of every constructor/function/method). Each
// kind keeps its own monotonically increasing index, assigned in declaration
// order — this is what becomes the VM segment offset for that variable.
//
// Grounded on the teacher's own pkg/jack/scopes.go (ScopeTable/PushClassScope/
// PushSubRoutineScope shape) generalized to the flat Kind-indexed layout
// libklein-jackcompiler/symbol_table.go uses, since the teacher's own scopes.go
// had drifted out of sync with the rest of its package (see DESIGN.md).

// Kind identifies which of the four variable categories a Symbol belongs to,
// which in turn determines which VM segment it lives in once compiled.
type Kind int

const (
	NoKind Kind = iota
	Static
	Field
	Arg
	Var
)

// Segment returns the VM memory segment a variable of this Kind is stored in.
// Only meaningful for Arg, Var, Static and Field; NoKind has none.
func (k Kind) Segment() vm.SegmentType {
	switch k {
	case Static:
		return vm.Static
	case Field:
		return vm.This
	case Arg:
		return vm.Argument
	case Var:
		return vm.Local
	default:
		return ""
	}
}

// symbol is one declared name: its Jack type (e.g. "int", "Array", a class name),
// its Kind, and its index within that Kind's counter.
type symbol struct {
	dataType string
	kind     Kind
	index    int
}

// SymbolTable holds the class scope and the current subroutine scope. A new
// subroutine scope is started with StartSubroutine, discarding the previous one
// entirely: Jack has no block scoping below the subroutine level.
type SymbolTable struct {
	class      map[string]symbol
	subroutine map[string]symbol

	counts map[Kind]int // per-Kind counter, shared across both scopes since Kind determines which map counts
}

// NewSymbolTable returns an empty SymbolTable, ready to have class-scope
// variables defined into it.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		class:      make(map[string]symbol),
		subroutine: make(map[string]symbol),
		counts:     make(map[Kind]int),
	}
}

// StartSubroutine discards the current subroutine scope (ARG/VAR) and resets
// their counters, leaving the class scope (STATIC/FIELD) untouched. Must be
// called once per subroutine, before any VAR/ARG is Defined for it.
func (st *SymbolTable) StartSubroutine() {
	st.subroutine = make(map[string]symbol)
	st.counts[Arg] = 0
	st.counts[Var] = 0
}

// Define declares 'name' of 'dataType' and 'kind' in the appropriate scope
// (STATIC/FIELD go to class scope, ARG/VAR to subroutine scope), assigning it
// the next available index for its Kind. Fails if 'name' is already defined in
// that same scope: the counter is only advanced once the name is confirmed free.
func (st *SymbolTable) Define(name, dataType string, kind Kind) error {
	var scope map[string]symbol
	switch kind {
	case Static, Field:
		scope = st.class
	case Arg, Var:
		scope = st.subroutine
	}

	if _, exists := scope[name]; exists {
		return fmt.Errorf("%q already defined in this scope", name)
	}

	index := st.counts[kind]
	st.counts[kind] = index + 1
	scope[name] = symbol{dataType: dataType, kind: kind, index: index}
	return nil
}

// VarCount returns how many variables of 'kind' have been defined in the scope
// that owns it (class scope for STATIC/FIELD, subroutine scope for ARG/VAR).
func (st *SymbolTable) VarCount(kind Kind) int { return st.counts[kind] }

// lookup resolves 'name', preferring the subroutine scope over the class scope
// per Jack's shadowing rule: a VAR or ARG named the same as a FIELD/STATIC wins.
func (st *SymbolTable) lookup(name string) (symbol, bool) {
	if sym, ok := st.subroutine[name]; ok {
		return sym, true
	}
	sym, ok := st.class[name]
	return sym, ok
}

// KindOf returns the Kind of 'name', or NoKind if it was never declared.
func (st *SymbolTable) KindOf(name string) Kind {
	sym, ok := st.lookup(name)
	if !ok {
		return NoKind
	}
	return sym.kind
}

// TypeOf returns the declared Jack type of 'name'. Only meaningful if
// KindOf(name) != NoKind.
func (st *SymbolTable) TypeOf(name string) string {
	sym, _ := st.lookup(name)
	return sym.dataType
}

// IndexOf returns the per-Kind index assigned to 'name' at Define time, which
// doubles as its VM segment offset.
func (st *SymbolTable) IndexOf(name string) int {
	sym, _ := st.lookup(name)
	return sym.index
}

// Resolve is the one call sites actually need: it reports whether 'name' is a
// known variable and, if so, its Kind, type and index together.
func (st *SymbolTable) Resolve(name string) (kind Kind, dataType string, index int, ok bool) {
	sym, found := st.lookup(name)
	if !found {
		return NoKind, "", 0, false
	}
	return sym.kind, sym.dataType, sym.index, true
}
