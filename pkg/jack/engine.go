package jack

import (
	"fmt"
	"io"
	"strconv"

	"its-hmny.dev/jackc/pkg/vm"
)

// ----------------------------------------------------------------------------
// General information

// CompilationEngine is a single-pass, recursive-descent parser that IS the code
// generator: there is no intermediate AST. Each compileX method consumes exactly
// the tokens its grammar rule owns and, along the way, asks the embedded VMEmitter
// to write the VM instructions that rule implies, in the order the Hack VM expects
// them. Besides the emitter it carries the SymbolTable (what segment/index does
// this name live at), the current class name and a label counter (what label comes
// next): together these answer every question a grammar rule needs without ever
// building a tree.
//
// Grounded on libklein-jackcompiler/recursive_decent_parser.go, the only repo in
// the retrieved pack built around this same fused parse-and-emit shape; restyled
// into the teacher's naming and error conventions and backed by this package's own
// Tokenizer/SymbolTable/VMEmitter rather than that repo's.
type CompilationEngine struct {
	tokens  *TokenStream
	symbols *SymbolTable
	emit    *vm.VMEmitter

	className string
	labelSeq  int
}

// NewCompilationEngine returns an engine ready to compile a single class read from
// 'tokens', writing VM instructions to 'out'.
func NewCompilationEngine(tokens *TokenStream, out io.Writer) *CompilationEngine {
	emitter := vm.NewVMEmitter(out)
	return &CompilationEngine{tokens: tokens, symbols: NewSymbolTable(), emit: &emitter}
}

// Compile compiles exactly one Jack class, start to finish.
func (ce *CompilationEngine) Compile() error {
	return ce.compileClass()
}

// ----------------------------------------------------------------------------
// Token-stream helpers

func (ce *CompilationEngine) advance() error {
	if !ce.tokens.Advance() {
		return newSyntaxError(Token{}, "unexpected end of input")
	}
	return nil
}

func (ce *CompilationEngine) cur() Token { return ce.tokens.Current() }

func (ce *CompilationEngine) expectSymbol(sym string) error {
	if ce.cur().Kind != Symbol || ce.cur().Payload != sym {
		return newSyntaxError(ce.cur(), "expected %q, got %q", sym, ce.cur().Payload)
	}
	return ce.advance()
}

func (ce *CompilationEngine) expectKeyword(words ...string) (string, error) {
	if ce.cur().Kind != Keyword || !containsStr(words, ce.cur().Payload) {
		return "", newSyntaxError(ce.cur(), "expected one of %v, got %q", words, ce.cur().Payload)
	}
	word := ce.cur().Payload
	return word, ce.advance()
}

func (ce *CompilationEngine) expectIdentifier() (string, error) {
	if ce.cur().Kind != Identifier {
		return "", newSyntaxError(ce.cur(), "expected an identifier, got %q", ce.cur().Payload)
	}
	name := ce.cur().Payload
	return name, ce.advance()
}

// parseType accepts one of the three primitive type keywords or a class name.
func (ce *CompilationEngine) parseType() (string, error) {
	if ce.cur().Kind == Keyword && containsStr([]string{"int", "char", "boolean"}, ce.cur().Payload) {
		t := ce.cur().Payload
		return t, ce.advance()
	}
	if ce.cur().Kind == Identifier {
		t := ce.cur().Payload
		return t, ce.advance()
	}
	return "", newSyntaxError(ce.cur(), "expected a type, got %q", ce.cur().Payload)
}

func containsStr(words []string, word string) bool {
	for _, w := range words {
		if w == word {
			return true
		}
	}
	return false
}

// newLabel mints a label unique within the class currently being compiled: the
// prefix names the construct, the suffix is a per-class monotonic counter.
func (ce *CompilationEngine) newLabel(prefix string) string {
	ce.labelSeq++
	return fmt.Sprintf("%s.%s.%d", ce.className, prefix, ce.labelSeq)
}

// ----------------------------------------------------------------------------
// Class-level grammar

func (ce *CompilationEngine) compileClass() error {
	if err := ce.advance(); err != nil { // position the cursor on the first token
		return err
	}
	if _, err := ce.expectKeyword("class"); err != nil {
		return err
	}
	name, err := ce.expectIdentifier()
	if err != nil {
		return err
	}
	ce.className = name

	if err := ce.expectSymbol("{"); err != nil {
		return err
	}

	for ce.cur().Kind == Keyword && (ce.cur().Payload == "static" || ce.cur().Payload == "field") {
		if err := ce.compileClassVarDec(); err != nil {
			return err
		}
	}
	for ce.cur().Kind == Keyword && containsStr([]string{"constructor", "function", "method"}, ce.cur().Payload) {
		if err := ce.compileSubroutineDec(); err != nil {
			return err
		}
	}

	if err := ce.expectSymbol("}"); err != nil {
		return err
	}
	return ce.emit.Close()
}

func (ce *CompilationEngine) compileClassVarDec() error {
	keyword, err := ce.expectKeyword("static", "field")
	if err != nil {
		return err
	}
	kind := Static
	if keyword == "field" {
		kind = Field
	}

	dataType, err := ce.parseType()
	if err != nil {
		return err
	}

	for {
		nameTok := ce.cur()
		name, err := ce.expectIdentifier()
		if err != nil {
			return err
		}
		if err := ce.symbols.Define(name, dataType, kind); err != nil {
			return newSemanticError(nameTok, "duplicate definition: %s", err)
		}

		if ce.cur().Kind == Symbol && ce.cur().Payload == "," {
			if err := ce.advance(); err != nil {
				return err
			}
			continue
		}
		break
	}
	return ce.expectSymbol(";")
}

func (ce *CompilationEngine) compileSubroutineDec() error {
	subKind, err := ce.expectKeyword("constructor", "function", "method")
	if err != nil {
		return err
	}

	if ce.cur().Kind == Keyword && ce.cur().Payload == "void" {
		if err := ce.advance(); err != nil {
			return err
		}
	} else if _, err := ce.parseType(); err != nil {
		return err
	}

	subNameTok := ce.cur()
	subName, err := ce.expectIdentifier()
	if err != nil {
		return err
	}

	ce.symbols.StartSubroutine()
	if subKind == "method" {
		// The receiver occupies argument slot 0, pushed by every caller; the
		// subroutine body never declares it itself.
		if err := ce.symbols.Define("this", ce.className, Arg); err != nil {
			return newSemanticError(subNameTok, "duplicate definition: %s", err)
		}
	}

	if err := ce.expectSymbol("("); err != nil {
		return err
	}
	if err := ce.compileParameterList(); err != nil {
		return err
	}
	if err := ce.expectSymbol(")"); err != nil {
		return err
	}

	if err := ce.expectSymbol("{"); err != nil {
		return err
	}
	for ce.cur().Kind == Keyword && ce.cur().Payload == "var" {
		if err := ce.compileVarDec(); err != nil {
			return err
		}
	}

	ce.emit.WriteFunction(ce.className+"."+subName, ce.symbols.VarCount(Var))

	switch subKind {
	case "constructor":
		ce.emit.WritePush(vm.Constant, uint16(ce.symbols.VarCount(Field)))
		ce.emit.WriteCall("Memory.alloc", 1)
		ce.emit.WritePop(vm.Pointer, 0)
	case "method":
		ce.emit.WritePush(vm.Argument, 0)
		ce.emit.WritePop(vm.Pointer, 0)
	}

	if err := ce.compileStatements(); err != nil {
		return err
	}
	return ce.expectSymbol("}")
}

func (ce *CompilationEngine) compileParameterList() error {
	if ce.cur().Kind == Symbol && ce.cur().Payload == ")" {
		return nil
	}
	for {
		dataType, err := ce.parseType()
		if err != nil {
			return err
		}
		nameTok := ce.cur()
		name, err := ce.expectIdentifier()
		if err != nil {
			return err
		}
		if err := ce.symbols.Define(name, dataType, Arg); err != nil {
			return newSemanticError(nameTok, "duplicate definition: %s", err)
		}

		if ce.cur().Kind == Symbol && ce.cur().Payload == "," {
			if err := ce.advance(); err != nil {
				return err
			}
			continue
		}
		break
	}
	return nil
}

func (ce *CompilationEngine) compileVarDec() error {
	if err := ce.advance(); err != nil { // consume 'var'
		return err
	}
	dataType, err := ce.parseType()
	if err != nil {
		return err
	}
	for {
		nameTok := ce.cur()
		name, err := ce.expectIdentifier()
		if err != nil {
			return err
		}
		if err := ce.symbols.Define(name, dataType, Var); err != nil {
			return newSemanticError(nameTok, "duplicate definition: %s", err)
		}

		if ce.cur().Kind == Symbol && ce.cur().Payload == "," {
			if err := ce.advance(); err != nil {
				return err
			}
			continue
		}
		break
	}
	return ce.expectSymbol(";")
}

// ----------------------------------------------------------------------------
// Statement grammar

func (ce *CompilationEngine) compileStatements() error {
	for ce.cur().Kind == Keyword {
		var err error
		switch ce.cur().Payload {
		case "let":
			err = ce.compileLet()
		case "if":
			err = ce.compileIf()
		case "while":
			err = ce.compileWhile()
		case "do":
			err = ce.compileDo()
		case "return":
			err = ce.compileReturn()
		default:
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (ce *CompilationEngine) compileLet() error {
	if err := ce.advance(); err != nil { // consume 'let'
		return err
	}
	nameTok := ce.cur()
	name, err := ce.expectIdentifier()
	if err != nil {
		return err
	}
	kind, _, index, ok := ce.symbols.Resolve(name)
	if !ok {
		return newSemanticError(nameTok, "undeclared identifier %q", name)
	}

	isArray := ce.cur().Kind == Symbol && ce.cur().Payload == "["
	if isArray {
		if err := ce.advance(); err != nil { // consume '['
			return err
		}
		// Push the target's base address and index before the RHS is compiled: if the
		// RHS itself dereferences an array (via 'that'), compiling it first would
		// overwrite the pointer this assignment still needs.
		ce.emit.WritePush(kind.Segment(), uint16(index))
		if err := ce.compileExpression(); err != nil {
			return err
		}
		if err := ce.expectSymbol("]"); err != nil {
			return err
		}
		ce.emit.WriteArithmetic(vm.Add)
	}

	if err := ce.expectSymbol("="); err != nil {
		return err
	}
	if err := ce.compileExpression(); err != nil {
		return err
	}
	if err := ce.expectSymbol(";"); err != nil {
		return err
	}

	if isArray {
		ce.emit.WritePop(vm.Temp, 0)
		ce.emit.WritePop(vm.Pointer, 1)
		ce.emit.WritePush(vm.Temp, 0)
		ce.emit.WritePop(vm.That, 0)
	} else {
		ce.emit.WritePop(kind.Segment(), uint16(index))
	}
	return nil
}

func (ce *CompilationEngine) compileWhile() error {
	if err := ce.advance(); err != nil { // consume 'while'
		return err
	}
	top := ce.newLabel("WHILE_TOP")
	end := ce.newLabel("WHILE_END")

	ce.emit.WriteLabel(top)
	if err := ce.expectSymbol("("); err != nil {
		return err
	}
	if err := ce.compileExpression(); err != nil {
		return err
	}
	if err := ce.expectSymbol(")"); err != nil {
		return err
	}
	ce.emit.WriteArithmetic(vm.Not)
	ce.emit.WriteGoto(vm.Conditional, end)

	if err := ce.expectSymbol("{"); err != nil {
		return err
	}
	if err := ce.compileStatements(); err != nil {
		return err
	}
	if err := ce.expectSymbol("}"); err != nil {
		return err
	}

	ce.emit.WriteGoto(vm.Unconditional, top)
	ce.emit.WriteLabel(end)
	return nil
}

func (ce *CompilationEngine) compileIf() error {
	if err := ce.advance(); err != nil { // consume 'if'
		return err
	}
	elseLabel := ce.newLabel("IF_ELSE")
	endLabel := ce.newLabel("IF_END")

	if err := ce.expectSymbol("("); err != nil {
		return err
	}
	if err := ce.compileExpression(); err != nil {
		return err
	}
	if err := ce.expectSymbol(")"); err != nil {
		return err
	}
	ce.emit.WriteArithmetic(vm.Not)
	ce.emit.WriteGoto(vm.Conditional, elseLabel)

	if err := ce.expectSymbol("{"); err != nil {
		return err
	}
	if err := ce.compileStatements(); err != nil {
		return err
	}
	if err := ce.expectSymbol("}"); err != nil {
		return err
	}

	hasElse := ce.cur().Kind == Keyword && ce.cur().Payload == "else"
	if hasElse {
		ce.emit.WriteGoto(vm.Unconditional, endLabel)
	}
	ce.emit.WriteLabel(elseLabel)

	if !hasElse {
		return nil
	}

	if err := ce.advance(); err != nil { // consume 'else'
		return err
	}
	if err := ce.expectSymbol("{"); err != nil {
		return err
	}
	if err := ce.compileStatements(); err != nil {
		return err
	}
	if err := ce.expectSymbol("}"); err != nil {
		return err
	}
	ce.emit.WriteLabel(endLabel)
	return nil
}

func (ce *CompilationEngine) compileDo() error {
	if err := ce.advance(); err != nil { // consume 'do'
		return err
	}
	nameTok := ce.cur()
	name, err := ce.expectIdentifier()
	if err != nil {
		return err
	}
	if err := ce.compileSubroutineCallFrom(nameTok, name); err != nil {
		return err
	}
	if err := ce.expectSymbol(";"); err != nil {
		return err
	}
	ce.emit.WritePop(vm.Temp, 0) // every call returns a value; 'do' always discards it
	return nil
}

func (ce *CompilationEngine) compileReturn() error {
	if err := ce.advance(); err != nil { // consume 'return'
		return err
	}
	if ce.cur().Kind == Symbol && ce.cur().Payload == ";" {
		ce.emit.WritePush(vm.Constant, 0) // a void function still returns a dummy value
	} else if err := ce.compileExpression(); err != nil {
		return err
	}
	if err := ce.expectSymbol(";"); err != nil {
		return err
	}
	ce.emit.WriteReturn()
	return nil
}

// ----------------------------------------------------------------------------
// Expression grammar

// compileExpression compiles a term, then any (op term) pairs strictly left to
// right: Jack has no operator precedence, parentheses are the only way to group.
func (ce *CompilationEngine) compileExpression() error {
	if err := ce.compileTerm(); err != nil {
		return err
	}
	for ce.cur().Kind == Symbol && isBinaryOpSymbol(ce.cur().Payload) {
		op := ce.cur().Payload
		if err := ce.advance(); err != nil {
			return err
		}
		if err := ce.compileTerm(); err != nil {
			return err
		}
		ce.emitBinaryOp(op)
	}
	return nil
}

func isBinaryOpSymbol(s string) bool {
	return containsStr([]string{"+", "-", "*", "/", "&", "|", "<", ">", "="}, s)
}

// emitBinaryOp emits the VM instruction(s) for one binary operator. '*' and '/'
// have no native Hack VM opcode and are routed through the Math library instead.
func (ce *CompilationEngine) emitBinaryOp(op string) {
	switch op {
	case "+":
		ce.emit.WriteArithmetic(vm.Add)
	case "-":
		ce.emit.WriteArithmetic(vm.Sub)
	case "*":
		ce.emit.WriteCall("Math.multiply", 2)
	case "/":
		ce.emit.WriteCall("Math.divide", 2)
	case "&":
		ce.emit.WriteArithmetic(vm.And)
	case "|":
		ce.emit.WriteArithmetic(vm.Or)
	case "<":
		ce.emit.WriteArithmetic(vm.Lt)
	case ">":
		ce.emit.WriteArithmetic(vm.Gt)
	case "=":
		ce.emit.WriteArithmetic(vm.Eq)
	}
}

func (ce *CompilationEngine) compileExpressionList() (int, error) {
	if ce.cur().Kind == Symbol && ce.cur().Payload == ")" {
		return 0, nil
	}
	count := 0
	for {
		if err := ce.compileExpression(); err != nil {
			return 0, err
		}
		count++
		if ce.cur().Kind == Symbol && ce.cur().Payload == "," {
			if err := ce.advance(); err != nil {
				return 0, err
			}
			continue
		}
		break
	}
	return count, nil
}

func (ce *CompilationEngine) compileTerm() error {
	tok := ce.cur()

	switch {
	case tok.Kind == IntConst:
		n, err := strconv.Atoi(tok.Payload)
		if err != nil {
			return newSyntaxError(tok, "invalid integer constant %q", tok.Payload)
		}
		ce.emit.WritePush(vm.Constant, uint16(n))
		return ce.advance()

	case tok.Kind == StringConst:
		ce.emit.WriteStringConstant(tok.Payload)
		return ce.advance()

	case tok.Kind == Keyword && containsStr([]string{"true", "false", "null", "this"}, tok.Payload):
		if err := ce.advance(); err != nil {
			return err
		}
		return ce.emitKeywordConstant(tok.Payload)

	case tok.Kind == Symbol && tok.Payload == "(":
		if err := ce.advance(); err != nil {
			return err
		}
		if err := ce.compileExpression(); err != nil {
			return err
		}
		return ce.expectSymbol(")")

	case tok.Kind == Symbol && (tok.Payload == "-" || tok.Payload == "~"):
		if err := ce.advance(); err != nil {
			return err
		}
		if err := ce.compileTerm(); err != nil {
			return err
		}
		if tok.Payload == "-" {
			ce.emit.WriteArithmetic(vm.Neg)
		} else {
			ce.emit.WriteArithmetic(vm.Not)
		}
		return nil

	case tok.Kind == Identifier:
		if err := ce.advance(); err != nil {
			return err
		}
		return ce.compileIdentifierTerm(tok, tok.Payload)

	default:
		return newSyntaxError(tok, "unexpected token %q while parsing an expression", tok.Payload)
	}
}

func (ce *CompilationEngine) emitKeywordConstant(word string) error {
	switch word {
	case "true":
		ce.emit.WritePush(vm.Constant, 0)
		ce.emit.WriteArithmetic(vm.Not) // 0 bitwise-negated is -1, all bits set
	case "false", "null":
		ce.emit.WritePush(vm.Constant, 0)
	case "this":
		ce.emit.WritePush(vm.Pointer, 0)
	}
	return nil
}

// compileIdentifierTerm disambiguates what 'name' (already consumed) denotes by
// looking one token further: '[' means array indexing, '(' or '.' means a
// subroutine call, anything else means a plain variable reference.
func (ce *CompilationEngine) compileIdentifierTerm(nameTok Token, name string) error {
	switch {
	case ce.cur().Kind == Symbol && ce.cur().Payload == "[":
		kind, _, index, ok := ce.symbols.Resolve(name)
		if !ok {
			return newSemanticError(nameTok, "undeclared identifier %q", name)
		}
		if err := ce.advance(); err != nil { // consume '['
			return err
		}
		ce.emit.WritePush(kind.Segment(), uint16(index))
		if err := ce.compileExpression(); err != nil {
			return err
		}
		if err := ce.expectSymbol("]"); err != nil {
			return err
		}
		ce.emit.WriteArithmetic(vm.Add)
		ce.emit.WritePop(vm.Pointer, 1)
		ce.emit.WritePush(vm.That, 0)
		return nil

	case ce.cur().Kind == Symbol && (ce.cur().Payload == "(" || ce.cur().Payload == "."):
		return ce.compileSubroutineCallFrom(nameTok, name)

	default:
		kind, _, index, ok := ce.symbols.Resolve(name)
		if !ok {
			return newSemanticError(nameTok, "undeclared identifier %q", name)
		}
		ce.emit.WritePush(kind.Segment(), uint16(index))
		return nil
	}
}

// compileSubroutineCallFrom compiles a subroutine call given that its leading
// identifier ('name', at 'nameTok') has already been consumed and the current
// token is '(' or '.'. It resolves one of three shapes:
//
//   - name(...)        bare call: an instance method of the current class, 'this'
//                       is passed implicitly as argument 0
//   - name.member(...) where 'name' is a declared variable: an instance method
//                       call on that object, pushed as argument 0
//   - name.member(...) where 'name' is not a declared variable: a function or
//                       constructor call on class 'name', no implicit argument
func (ce *CompilationEngine) compileSubroutineCallFrom(nameTok Token, name string) error {
	calleeClass := ce.className
	subroutineName := name
	nArgs := 0
	bareCall := true

	if ce.cur().Kind == Symbol && ce.cur().Payload == "." {
		if err := ce.advance(); err != nil {
			return err
		}
		member, err := ce.expectIdentifier()
		if err != nil {
			return err
		}
		bareCall = false
		subroutineName = member

		if kind, varType, index, ok := ce.symbols.Resolve(name); ok {
			ce.emit.WritePush(kind.Segment(), uint16(index))
			calleeClass = varType
			nArgs++
		} else {
			calleeClass = name
		}
	}

	if bareCall {
		ce.emit.WritePush(vm.Pointer, 0)
		nArgs++
	}

	if err := ce.expectSymbol("("); err != nil {
		return err
	}
	n, err := ce.compileExpressionList()
	if err != nil {
		return err
	}
	nArgs += n
	if err := ce.expectSymbol(")"); err != nil {
		return err
	}

	ce.emit.WriteCall(calleeClass+"."+subroutineName, nArgs)
	return nil
}
