// Package asm assembles line-oriented JVM mnemonic source into raw method
// bytecode with an exception table.
package asm

// Scanner tokenizes mnemonic source. Newlines are significant and come back
// as NEWLINE tokens, everything else follows the regex table in token.go.
type Scanner struct {
	input    string // input string to be tokenized
	length   int    // length of the input string
	position int    // current position in the input string
	line     int    // current line number for error reporting
	column   int    // current column number for error reporting
}

// Create a new scanner instance
func NewScanner(s string) *Scanner {
	return &Scanner{
		input:    s,
		length:   len(s),
		position: 0,
		line:     1,
		column:   1,
	}
}

// Get the next token from the input
func (s *Scanner) NextToken() Token {
	if s.position >= s.length {
		return NewToken(EOF, "", "", s.currentPosition())
	}

	if s.input[s.position] == '\n' {
		tok := NewToken(NEWLINE, "\n", "", s.currentPosition())
		s.advance(1)
		return tok
	}

	// Regex match the first token from the remaining input
	remaining := s.input[s.position:]
	tokenType, lexeme, matched := MatchToken(remaining)

	if !matched {
		tok := NewToken(ILLEGAL, string(s.input[s.position]), "", s.currentPosition())
		s.advance(1)
		return tok
	}
	if tokenType == EOF {
		// whitespace or comment
		s.advance(len(lexeme))
		return s.NextToken()
	}

	literal := lexeme
	switch tokenType {
	case POOLREF, DIRECTIVE:
		literal = lexeme[1:]
	}

	tok := NewToken(tokenType, lexeme, literal, s.currentPosition())
	s.advance(len(lexeme))

	return tok
}

// View next token without advancing the position
func (s *Scanner) Peek() Token {
	// save state
	cpos := s.position
	cline := s.line
	ccol := s.column

	token := s.NextToken()

	// restore state
	s.position = cpos
	s.line = cline
	s.column = ccol

	return token
}

// Check if there are more characters to read
func (s *Scanner) HasMore() bool {
	return s.position < s.length
}

// Advance the scanner position by n characters
func (s *Scanner) advance(n int) {
	for i := 0; i < n; i++ {
		if s.position >= s.length {
			break
		}

		if s.input[s.position] == '\n' {
			s.line++
			s.column = 1
		} else {
			s.column++
		}

		s.position++
	}
}

// Get the current position of the scanner
func (s *Scanner) currentPosition() Position {
	return Position{
		Line:   s.line,
		Column: s.column,
		Offset: s.position,
	}
}
