package asm

import "fmt"

// TokenKind enumerates the lexer's token categories (spec.md §4.1).
type TokenKind int

const (
	EOF TokenKind = iota
	Label
	Opcode
	Target
	Number
	CharLiteral
	String
	Comment
	Punct
	Operator
)

func (k TokenKind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Label:
		return "LABEL"
	case Opcode:
		return "OPCODE"
	case Target:
		return "TARGET"
	case Number:
		return "NUMBER"
	case CharLiteral:
		return "CHAR_LITERAL"
	case String:
		return "STRING"
	case Comment:
		return "COMMENT"
	case Punct:
		return "PUNCT"
	case Operator:
		return "OPERATOR"
	default:
		return fmt.Sprintf("?tokenkind(%d)?", int(k))
	}
}

// maxTokenBytes bounds a single token's text; longer tokens are
// truncated with a warning (spec.md §4.1).
const maxTokenBytes = 255

// Token is a single lexed unit together with the line it started on.
type Token struct {
	Kind TokenKind
	Line int

	// Text carries the raw identifier/opcode/target/punctuation/operator
	// spelling, and the decoded contents of a STRING token.
	Text string
	// Number holds the decoded value of a NUMBER token.
	Number uint64
	// Char holds the decoded byte value of a CHAR_LITERAL token.
	Char byte
}

func (t Token) String() string {
	switch t.Kind {
	case Number:
		return fmt.Sprintf("%s(%d)@%d", t.Kind, t.Number, t.Line)
	case CharLiteral:
		return fmt.Sprintf("%s(%q)@%d", t.Kind, t.Char, t.Line)
	case EOF:
		return fmt.Sprintf("%s@%d", t.Kind, t.Line)
	default:
		return fmt.Sprintf("%s(%q)@%d", t.Kind, t.Text, t.Line)
	}
}
