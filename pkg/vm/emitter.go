package vm

import (
	"fmt"
	"io"
)

// ----------------------------------------------------------------------------
// VM Emitter

// Formats primitive VM operations as text lines, one instruction per line, in the
// exact order it is asked to. VMEmitter does no buffering of its own decisions —
// it trusts the CompilationEngine for instruction ordering and only validates the
// small set of bound constraints the Hack VM itself imposes (pointer has 2 slots,
// temp has 8). Output is written straight through to the underlying io.Writer;
// Close() flushes it if it can be flushed but does not close it: releasing the
// underlying file handle is left to whoever opened it.
type VMEmitter struct {
	output io.Writer
	err    error // First write error encountered, if any; subsequent calls become no-ops.
}

// Initializes and returns to the caller a brand new VMEmitter.
// Requires the argument io.Writer 'w' to be valid and usable.
func NewVMEmitter(w io.Writer) VMEmitter {
	return VMEmitter{output: w}
}

// Returns the first error encountered while writing, if any.
func (e *VMEmitter) Err() error { return e.err }

func (e *VMEmitter) writeLine(line string) {
	if e.err != nil {
		return
	}
	_, e.err = io.WriteString(e.output, line+"\n")
}

// Specialized function to emit a 'push <segment> <index>' instruction.
func (e *VMEmitter) WritePush(segment SegmentType, index uint16) error {
	if err := e.checkOffset(segment, index); err != nil {
		return err
	}
	e.writeLine(fmt.Sprintf("push %s %d", segment, index))
	return e.err
}

// Specialized function to emit a 'pop <segment> <index>' instruction.
func (e *VMEmitter) WritePop(segment SegmentType, index uint16) error {
	if err := e.checkOffset(segment, index); err != nil {
		return err
	}
	e.writeLine(fmt.Sprintf("pop %s %d", segment, index))
	return e.err
}

// Bound-checks the offsets of the segments that the Hack VM gives a fixed size
// (pointer has exactly 2 slots, temp has exactly 8): every other segment is only
// bound by the platform's addressable memory, which is outside this package's concern.
func (e *VMEmitter) checkOffset(segment SegmentType, index uint16) error {
	if segment == Pointer && index > 1 {
		return fmt.Errorf("invalid 'pointer' offset, got %d", index)
	}
	if segment == Temp && index > 7 {
		return fmt.Errorf("invalid 'temp' offset, got %d", index)
	}
	return nil
}

// Specialized function to emit one of the nine arithmetic/logic mnemonics.
func (e *VMEmitter) WriteArithmetic(op ArithOpType) { e.writeLine(string(op)) }

// Specialized function to emit a 'label <name>' declaration.
func (e *VMEmitter) WriteLabel(name string) { e.writeLine("label " + name) }

// Specialized function to emit an unconditional or conditional jump.
func (e *VMEmitter) WriteGoto(jump JumpType, label string) { e.writeLine(string(jump) + " " + label) }

// Specialized function to emit a 'call <name> <nArgs>' instruction.
func (e *VMEmitter) WriteCall(name string, nArgs int) {
	e.writeLine(fmt.Sprintf("call %s %d", name, nArgs))
}

// Specialized function to emit a 'function <name> <nLocals>' declaration.
func (e *VMEmitter) WriteFunction(name string, nLocals int) {
	e.writeLine(fmt.Sprintf("function %s %d", name, nLocals))
}

// Specialized function to emit a 'return' instruction.
func (e *VMEmitter) WriteReturn() { e.writeLine("return") }

// Emits the canonical VM sequence for a Jack string literal: allocate via
// String.new, then one push/appendChar pair per character, in order. See
// spec invariant: the sequence begins with 'push constant <len>',
// 'call String.new 1', followed by exactly len(s) (push constant K;
// call String.appendChar 2) pairs — the stack naturally carries the
// returned string reference across the chained calls.
func (e *VMEmitter) WriteStringConstant(value string) {
	e.WritePush(Constant, uint16(len(value)))
	e.WriteCall("String.new", 1)
	for _, r := range value {
		e.WritePush(Constant, uint16(r))
		e.WriteCall("String.appendChar", 2)
	}
}

// Flushes the underlying writer if it supports flushing and reports the first
// write error encountered, if any. Scoped acquisition of the output handle is
// the caller's responsibility (see cmd/jackc); Close only guarantees this
// emitter will not buffer anything of its own past this point.
func (e *VMEmitter) Close() error {
	if flusher, ok := e.output.(interface{ Flush() error }); ok {
		if err := flusher.Flush(); err != nil && e.err == nil {
			e.err = err
		}
	}
	return e.err
}
