package jack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"its-hmny.dev/jackc/pkg/vm"
)

func TestSymbolTableClassScope(t *testing.T) {
	st := NewSymbolTable()

	require.NoError(t, st.Define("x", "int", Field))
	require.NoError(t, st.Define("y", "int", Field))
	require.NoError(t, st.Define("counter", "int", Static))

	assert.Equal(t, 2, st.VarCount(Field))
	assert.Equal(t, 1, st.VarCount(Static))

	kind, dataType, index, ok := st.Resolve("y")
	assert.True(t, ok)
	assert.Equal(t, Field, kind)
	assert.Equal(t, "int", dataType)
	assert.Equal(t, 1, index)
	assert.Equal(t, vm.This, kind.Segment())

	_, _, _, ok = st.Resolve("nonexistent")
	assert.False(t, ok)
}

func TestSymbolTableSubroutineScopeResetsBetweenSubroutines(t *testing.T) {
	st := NewSymbolTable()
	require.NoError(t, st.Define("field1", "int", Field))

	st.StartSubroutine()
	require.NoError(t, st.Define("this", "Foo", Arg))
	require.NoError(t, st.Define("n", "int", Arg))
	require.NoError(t, st.Define("sum", "int", Var))

	assert.Equal(t, 2, st.VarCount(Arg))
	assert.Equal(t, 1, st.VarCount(Var))

	kind, _, index, ok := st.Resolve("sum")
	assert.True(t, ok)
	assert.Equal(t, Var, kind)
	assert.Equal(t, 0, index)
	assert.Equal(t, vm.Local, kind.Segment())

	// field1 is still visible through the class scope while inside a subroutine
	kind, _, _, ok = st.Resolve("field1")
	assert.True(t, ok)
	assert.Equal(t, Field, kind)

	st.StartSubroutine()
	_, _, _, ok = st.Resolve("sum")
	assert.False(t, ok, "subroutine scope must not leak across StartSubroutine calls")
	assert.Equal(t, 0, st.VarCount(Var))

	kind, _, _, ok = st.Resolve("field1")
	assert.True(t, ok, "class scope must survive StartSubroutine")
	assert.Equal(t, Field, kind)
}

func TestSymbolTableSubroutineShadowsClassScope(t *testing.T) {
	st := NewSymbolTable()
	require.NoError(t, st.Define("size", "int", Field))

	st.StartSubroutine()
	require.NoError(t, st.Define("size", "int", Var))

	kind, _, index, ok := st.Resolve("size")
	assert.True(t, ok)
	assert.Equal(t, Var, kind, "subroutine scope must shadow a same-named class field")
	assert.Equal(t, 0, index)
}

func TestSymbolTableUndeclaredNameHasNoKind(t *testing.T) {
	st := NewSymbolTable()
	assert.Equal(t, NoKind, st.KindOf("ghost"))
}

func TestSymbolTableDefineRejectsDuplicateInSameScope(t *testing.T) {
	st := NewSymbolTable()
	require.NoError(t, st.Define("x", "int", Field))
	assert.Error(t, st.Define("x", "int", Field), "redefining 'x' as a field twice must fail")
	assert.Equal(t, 1, st.VarCount(Field), "a rejected duplicate must not advance the Field counter")

	st.StartSubroutine()
	require.NoError(t, st.Define("n", "int", Arg))
	assert.Error(t, st.Define("n", "int", Var), "redefining 'n' as a var in the same subroutine scope must fail")
	assert.Equal(t, 1, st.VarCount(Var), "a rejected duplicate must not advance the Var counter")
}

func TestSymbolTableDefineAllowsSameNameAcrossScopes(t *testing.T) {
	st := NewSymbolTable()
	require.NoError(t, st.Define("size", "int", Field))

	st.StartSubroutine()
	// Shadowing a class-scope name from the subroutine scope is legal Jack, only
	// a same-scope collision is an error.
	assert.NoError(t, st.Define("size", "int", Var))
}
