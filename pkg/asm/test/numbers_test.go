package asm_test

import (
	"testing"

	"classfile/pkg/asm"
)

func TestMatchToken(t *testing.T) {
	tests := []struct {
		input       string
		expected    asm.TokenType
		description string
	}{
		{"42", asm.NUM, "integer"},
		{"0", asm.NUM, "zero"},
		{"-1", asm.NUM, "negative"},
		{"-32768", asm.NUM, "negative short"},

		{"#3", asm.POOLREF, "pool reference"},
		{"#100", asm.POOLREF, "multi-digit pool reference"},

		{".catch", asm.DIRECTIVE, "directive"},

		{"nop", asm.IDENT, "plain mnemonic"},
		{"iconst_0", asm.IDENT, "mnemonic with digit"},
		{"goto_w", asm.IDENT, "wide goto mnemonic"},
		{"loop", asm.IDENT, "label name"},
		{"java/lang/String", asm.IDENT, "class name"},
		{"com/example/Outer$Inner", asm.IDENT, "inner class name"},
		{"[Ljava/lang/String;", asm.IDENT, "array descriptor"},
		{"[[I", asm.IDENT, "primitive array descriptor"},

		{":", asm.COLON, "colon"},
		{"*", asm.STAR, "star"},
	}

	for _, test := range tests {
		tokenType, lexeme, matched := asm.MatchToken(test.input)
		if !matched {
			t.Errorf("Failed to match %s (%s)", test.input, test.description)
		}
		if tokenType != test.expected {
			t.Errorf("Input %s (%s): expected %s, got %s", test.input, test.description, test.expected, tokenType)
		}
		if lexeme != test.input {
			t.Errorf("Input %s (%s): expected lexeme %s, got %s", test.input, test.description, test.input, lexeme)
		}
	}
}

func TestMatchTokenIllegal(t *testing.T) {
	tokenType, _, matched := asm.MatchToken("!")
	if matched {
		t.Error("expected no match for '!'")
	}
	if tokenType != asm.ILLEGAL {
		t.Errorf("expected illegal token, got %s", tokenType)
	}
}
