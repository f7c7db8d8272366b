package asm_test

import (
	"testing"

	"classfile/pkg/asm"
)

func TestComments(t *testing.T) {
	input := `# leading comment
iconst_0 # trailing comment
# another comment
return`

	sc := asm.NewScanner(input)
	expectedTokens := []asm.TokenType{
		asm.NEWLINE,
		asm.IDENT, asm.NEWLINE,
		asm.NEWLINE,
		asm.IDENT,
		asm.EOF,
	}

	for i, expected := range expectedTokens {
		token := sc.NextToken()
		if token.Type != expected {
			t.Errorf("Token %d: expected %s, got %s", i, expected, token.Type)
		}
	}
}

func TestPoolRefIsNotComment(t *testing.T) {
	tok := asm.NewScanner("#42").NextToken()
	if tok.Type != asm.POOLREF {
		t.Errorf("expected pool reference, got %s", tok.Type)
	}
	if tok.Literal != "42" {
		t.Errorf("expected literal 42, got %q", tok.Literal)
	}

	// '#' not followed by a digit opens a comment
	tok = asm.NewScanner("#x 1 2").NextToken()
	if tok.Type != asm.EOF {
		t.Errorf("expected comment to swallow the line, got %s", tok.Type)
	}
}
