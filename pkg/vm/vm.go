package vm

// ----------------------------------------------------------------------------
// General information

// This section contains the vocabulary of the Hack VM language the Jack compiler
// targets. Unlike a general purpose assembler/IR, this package only names the wire
// grammar (segments, arithmetic mnemonics, jump kinds) — the CompilationEngine is
// the only thing that decides which instructions to emit and in what order, see
// pkg/jack/engine.go. VMEmitter (in this package) just formats them as text.

// ----------------------------------------------------------------------------
// Memory segments

// SegmentType names one of the eight memory segments addressable by (segment, index)
// in the VM language. For variables the CompilationEngine goes through the
// SymbolTable's Kind, which Kind.Segment() in pkg/jack translates at the push/pop
// call (VAR→local, FIELD→this, ARG→argument, STATIC→static); constant, pointer,
// temp and that are passed to VMEmitter directly.
type SegmentType string // Enum to manage the segment accessible for a push/pop

const (
	Constant SegmentType = "constant" // Virtual segment used to access a numeric constant
	Argument SegmentType = "argument" // Real segment used to store a function's arguments
	Local    SegmentType = "local"    // Real segment used to store a function's local variables
	Static   SegmentType = "static"   // Real segment used to store shared/static variables
	This     SegmentType = "this"     // Virtual segment, points at the current object instance
	That     SegmentType = "that"     // Virtual segment, points at the currently indexed array/object
	Pointer  SegmentType = "pointer"  // Real segment (2 slots) used to set the 'this'/'that' pointers
	Temp     SegmentType = "temp"     // Real segment (8 slots) used for intermediate computations
)

// MemoryOpType distinguishes a stack push from a stack pop.
type MemoryOpType string // Enum to manage the operation allowed for a push/pop

const (
	Push MemoryOpType = "push"
	Pop  MemoryOpType = "pop"
)

// ----------------------------------------------------------------------------
// Arithmetic / logic mnemonics

// ArithOpType names one of the nine arithmetic/logic operations the VM performs
// directly on the top of the stack (unary: neg, not; binary: the rest).
type ArithOpType string // Enum to manage the operation allowed for an arithmetic command

const (
	Add ArithOpType = "add" // Arithmetic operations
	Sub ArithOpType = "sub"
	Neg ArithOpType = "neg"

	Eq ArithOpType = "eq" // Comparison operations
	Gt ArithOpType = "gt"
	Lt ArithOpType = "lt"

	And ArithOpType = "and" // Bitwise operations
	Or  ArithOpType = "or"
	Not ArithOpType = "not"
)

// ----------------------------------------------------------------------------
// Control flow

// JumpType distinguishes a conditional ('if-goto') jump from an unconditional ('goto') one.
type JumpType string // Enum to manage the jump kind allowed for a control flow op

const (
	Unconditional JumpType = "goto"
	Conditional   JumpType = "if-goto"
)
