package asm

import (
	"fmt"
	"regexp"
)

type Position struct {
	Line   int
	Column int
	Offset int
}

// Returns a string representation of the Position
func (p Position) String() string {
	return fmt.Sprintf("%d, %d", p.Line, p.Column)
}

type TokenType int

type Token struct {
	Type    TokenType // Type of the token
	Lexeme  string    // Actual string from source code
	Literal string    // Lexeme without decoration: '#' or '.' stripped
	Pos     Position  // Position in source code
}

// NewToken creates a new Token instance
func NewToken(tokenType TokenType, lexeme string, literal string, pos Position) Token {
	return Token{
		Type:    tokenType,
		Lexeme:  lexeme,
		Literal: literal,
		Pos:     pos,
	}
}

const (
	EOF TokenType = iota

	NEWLINE   // statement separator
	IDENT     // mnemonic, label or class name, array descriptor
	NUM       // optionally signed decimal integer
	POOLREF   // #N constant pool index
	DIRECTIVE // .name
	COLON     // :
	STAR      // *

	ILLEGAL // illegal token
)

type tokenRegex struct {
	Pattern *regexp.Regexp
	Raw     string
}

// Token regex patterns. A '#' directly followed by a digit is a pool
// reference; any other '#' opens a comment running to the end of the line.
var tokenRegexes = map[TokenType]tokenRegex{
	POOLREF:   {regexp.MustCompile(`^#\d+`), `^#\d+`},
	DIRECTIVE: {regexp.MustCompile(`^\.[a-z]+`), `^\.[a-z]+`},
	NUM:       {regexp.MustCompile(`^-?\d+`), `^-?\d+`},
	IDENT:     {regexp.MustCompile(`^[A-Za-z_\[][A-Za-z0-9_/$;\[]*`), `^[A-Za-z_\[][A-Za-z0-9_/$;\[]*`},
	COLON:     {regexp.MustCompile(`^:`), `^:`},
	STAR:      {regexp.MustCompile(`^\*`), `^\*`},
}

var (
	spaceRegex   = regexp.MustCompile(`^[ \t\r]+`)
	commentRegex = regexp.MustCompile(`^#[^\n]*`)
)

// Token precedence order for matching (pool references before comments)
var tokenPrecedenceOrder = []TokenType{
	POOLREF, DIRECTIVE, NUM, IDENT, COLON, STAR,
}

// Get the regex pattern for a token type
func (t TokenType) Regex() *regexp.Regexp {
	if regex, ok := tokenRegexes[t]; ok {
		return regex.Pattern
	}

	return nil
}

// Match the first token at the start of the string. Whitespace and comments
// match as EOF with a non-empty lexeme, telling the scanner to skip and retry.
func MatchToken(s string) (TokenType, string, bool) {
	if s == "" {
		return EOF, "", false
	} else if match := spaceRegex.FindString(s); match != "" {
		return EOF, match, true
	}

	for _, tokenType := range tokenPrecedenceOrder {
		if regex, ok := tokenRegexes[tokenType]; ok {
			if match := regex.Pattern.FindString(s); match != "" {
				return tokenType, match, true
			}
		}
	}

	if match := commentRegex.FindString(s); match != "" {
		return EOF, match, true
	}

	return ILLEGAL, string(s[0]), false
}

var tokenNames = map[TokenType]string{
	EOF:       "eof",
	NEWLINE:   "newline",
	IDENT:     "identifier",
	NUM:       "number",
	POOLREF:   "pool reference",
	DIRECTIVE: "directive",
	COLON:     ":",
	STAR:      "*",
	ILLEGAL:   "illegal",
}

// String returns a string representation of the TokenType
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}

	return fmt.Sprintf("UNKNOWN(%d)", int(t))
}

// String returns a string representation of the Token
func (t Token) String() string {
	if t.Literal == "" {
		return fmt.Sprintf("T_{%s, %v, nil, %s}", t.Type, t.Lexeme, t.Pos.String())
	}

	return fmt.Sprintf("T_{%s, %v, %q, %s}", t.Type, t.Lexeme, t.Literal, t.Pos.String())
}
