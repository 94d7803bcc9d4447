package jack

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// compile is a small test helper: tokenizes 'source', runs it through a fresh
// CompilationEngine and returns the emitted VM text as a slice of lines.
func compile(t *testing.T, source string) []string {
	t.Helper()
	stream, err := NewTokenizer().Tokenize([]byte(source))
	require.NoError(t, err)

	var out strings.Builder
	engine := NewCompilationEngine(stream, &out)
	require.NoError(t, engine.Compile())

	text := strings.TrimRight(out.String(), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func TestConstructorEmitsAllocAndPointerBinding(t *testing.T) {
	lines := compile(t, `
		class Point {
			field int x, y;
			constructor Point new(int ax, int ay) {
				let x = ax;
				let y = ay;
				return this;
			}
		}`)

	assert.Contains(t, lines, "function Point.new 0")
	assert.Contains(t, lines, "push constant 2")
	assert.Contains(t, lines, "call Memory.alloc 1")
	assert.Contains(t, lines, "pop pointer 0")
	assert.Contains(t, lines, "push pointer 0") // 'return this'
}

func TestMethodBindsReceiverFromArgument0(t *testing.T) {
	lines := compile(t, `
		class Point {
			field int x;
			method int getX() {
				return x;
			}
		}`)

	assert.Equal(t, []string{
		"function Point.getX 0",
		"push argument 0",
		"pop pointer 0",
		"push this 0",
		"return",
	}, lines)
}

func TestOperatorsEvaluateLeftToRight(t *testing.T) {
	lines := compile(t, `
		class Math2 {
			function int calc() {
				return 1 + 2 * 3;
			}
		}`)

	// No precedence: '1 + 2' binds first, '* 3' is then applied to that sum.
	assert.Equal(t, []string{
		"function Math2.calc 0",
		"push constant 1",
		"push constant 2",
		"add",
		"push constant 3",
		"call Math.multiply 2",
		"return",
	}, lines)
}

func TestArrayAssignmentPushesTargetBeforeRHS(t *testing.T) {
	lines := compile(t, `
		class Main {
			function void run() {
				var Array a, b;
				let a[0] = b[1];
				return;
			}
		}`)

	assert.Equal(t, []string{
		"function Main.run 2",
		// target address computed first and left on the stack; only after the RHS runs
		// is the RHS parked in temp 0 and the target moved into pointer 1
		"push local 0",
		"push constant 0",
		"add",
		"push local 1",
		"push constant 1",
		"add",
		"pop pointer 1",
		"push that 0",
		"pop temp 0",
		"pop pointer 1",
		"push temp 0",
		"pop that 0",
		"push constant 0",
		"return",
	}, lines)
}

func TestIfElseLabelsAreUniquePerOccurrence(t *testing.T) {
	lines := compile(t, `
		class Main {
			function void run() {
				if (true) {
					do Output.printString("a");
				} else {
					do Output.printString("b");
				}
				if (false) {
					do Output.printString("c");
				}
				return;
			}
		}`)

	var labels []string
	for _, line := range lines {
		if strings.HasPrefix(line, "label ") {
			labels = append(labels, strings.TrimPrefix(line, "label "))
		}
	}

	assert.Len(t, labels, 3, "two if-statements: one has both branches (2 labels), one has none (1 label)")
	seen := map[string]bool{}
	for _, l := range labels {
		assert.False(t, seen[l], "label %q reused", l)
		seen[l] = true
	}
}

func TestDoStatementDiscardsReturnValue(t *testing.T) {
	lines := compile(t, `
		class Main {
			function void run() {
				do Output.println();
				return;
			}
		}`)

	assert.Equal(t, []string{
		"function Main.run 0",
		"call Output.println 0",
		"pop temp 0",
		"push constant 0",
		"return",
	}, lines)
}

func TestBareCallPassesThisImplicitly(t *testing.T) {
	lines := compile(t, `
		class Foo {
			method void helper() {
				return;
			}
			method void caller() {
				do helper();
				return;
			}
		}`)

	assert.Contains(t, lines, "call Foo.helper 1")
}

func TestStringConstantEmitsNewAndAppendCharSequence(t *testing.T) {
	lines := compile(t, `
		class Main {
			function void run() {
				do Output.printString("hi");
				return;
			}
		}`)

	assert.Contains(t, lines, "push constant 2")
	assert.Contains(t, lines, "call String.new 1")
	assert.Contains(t, lines, "push constant 104") // 'h'
	assert.Contains(t, lines, "push constant 105") // 'i'
	callIdx, appendCount := -1, 0
	for i, l := range lines {
		if l == "call String.new 1" {
			callIdx = i
		}
		if l == "call String.appendChar 2" {
			appendCount++
		}
	}
	assert.GreaterOrEqual(t, callIdx, 0)
	assert.Equal(t, 2, appendCount)
}

func TestUndeclaredIdentifierIsSemanticError(t *testing.T) {
	stream, err := NewTokenizer().Tokenize([]byte(`
		class Main {
			function void run() {
				let ghost = 1;
				return;
			}
		}`))
	require.NoError(t, err)

	var out strings.Builder
	engine := NewCompilationEngine(stream, &out)
	err = engine.Compile()
	require.Error(t, err)

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, SemanticError, compileErr.Kind)
}

func TestDuplicateFieldDefinitionIsSemanticError(t *testing.T) {
	stream, err := NewTokenizer().Tokenize([]byte(`
		class Main {
			field int x;
			field int x;
		}`))
	require.NoError(t, err)

	var out strings.Builder
	engine := NewCompilationEngine(stream, &out)
	err = engine.Compile()
	require.Error(t, err, "redeclaring 'x' as a field twice in the same class must fail to compile")

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, SemanticError, compileErr.Kind)
}

func TestDuplicateVarDefinitionIsSemanticError(t *testing.T) {
	stream, err := NewTokenizer().Tokenize([]byte(`
		class Main {
			function void run() {
				var int n;
				var int n;
				return;
			}
		}`))
	require.NoError(t, err)

	var out strings.Builder
	engine := NewCompilationEngine(stream, &out)
	err = engine.Compile()
	require.Error(t, err, "redeclaring 'n' as a var twice in the same subroutine must fail to compile")

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, SemanticError, compileErr.Kind)
}
