package asm_test

import (
	"testing"

	"classfile/pkg/asm"
)

func TestTokens(t *testing.T) {
	input := "start:  iload_0 # comment\n" +
		"        ifeq end\n" +
		"        ldc #5\n" +
		"        iinc 1 -1\n" +
		".catch start end end *\n" +
		"end:    return"
	sc := asm.NewScanner(input)

	expectedTokens := []asm.TokenType{
		asm.IDENT, asm.COLON, asm.IDENT, asm.NEWLINE,
		asm.IDENT, asm.IDENT, asm.NEWLINE,
		asm.IDENT, asm.POOLREF, asm.NEWLINE,
		asm.IDENT, asm.NUM, asm.NUM, asm.NEWLINE,
		asm.DIRECTIVE, asm.IDENT, asm.IDENT, asm.IDENT, asm.STAR, asm.NEWLINE,
		asm.IDENT, asm.COLON, asm.IDENT,
		asm.EOF,
	}

	for i, expected := range expectedTokens {
		token := sc.NextToken()
		if token.Type != expected {
			t.Errorf("Token %d: expected %s, got %s", i, expected, token.Type)
		}
	}
}

func TestTokenPositions(t *testing.T) {
	sc := asm.NewScanner("nop\n  ldc #5")

	tok := sc.NextToken()
	if tok.Pos.Line != 1 || tok.Pos.Column != 1 {
		t.Errorf("nop: expected 1:1, got %d:%d", tok.Pos.Line, tok.Pos.Column)
	}

	sc.NextToken() // newline

	tok = sc.NextToken()
	if tok.Lexeme != "ldc" || tok.Pos.Line != 2 || tok.Pos.Column != 3 {
		t.Errorf("ldc: expected 2:3, got %d:%d (%s)", tok.Pos.Line, tok.Pos.Column, tok.Lexeme)
	}

	tok = sc.NextToken()
	if tok.Type != asm.POOLREF || tok.Literal != "5" {
		t.Errorf("expected pool reference 5, got %s (%q)", tok.Type, tok.Literal)
	}
}

func TestPeekDoesNotAdvance(t *testing.T) {
	sc := asm.NewScanner("loop: nop")

	peeked := sc.Peek()
	next := sc.NextToken()
	if peeked.Type != next.Type || peeked.Lexeme != next.Lexeme {
		t.Errorf("peek returned %s, next returned %s", peeked, next)
	}
	if tok := sc.NextToken(); tok.Type != asm.COLON {
		t.Errorf("expected colon after peeked identifier, got %s", tok.Type)
	}
}
