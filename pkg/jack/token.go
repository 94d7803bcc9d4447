package jack

// ----------------------------------------------------------------------------
// General information

// This section contains the lexical vocabulary of the Jack language: every token
// the Tokenizer can produce is one of five kinds, each carrying a textual payload
// (quotes already stripped for string constants, the literal digits for integer
// constants, and so on). There is no separate value type per kind — TokenKind
// discriminates what Payload means, matching the tagged-variant shape the language
// spec favors (Keyword | Symbol | IntConst | StrConst | Ident) without needing a
// sum type Go doesn't have natively.
type TokenKind string // Enum to manage the lexical kind of a Token

const (
	Keyword     TokenKind = "KEYWORD"
	Symbol      TokenKind = "SYMBOL"
	IntConst    TokenKind = "INT_CONST"
	StringConst TokenKind = "STRING_CONST"
	Identifier  TokenKind = "IDENTIFIER"
)

// Token is a single lexical unit produced by the Tokenizer. Payload excludes the
// surrounding quotes for a StringConst and is the exact matched text otherwise.
type Token struct {
	Kind    TokenKind
	Payload string

	Line, Col int // 1-based source position of the first character, for error reporting
}

