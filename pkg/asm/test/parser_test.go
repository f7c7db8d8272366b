package asm_test

import (
	"bytes"
	"strings"
	"testing"

	"classfile/pkg/asm"
	"classfile/pkg/bytecode"
	"classfile/pkg/constpool"
)

func assemble(t *testing.T, src string) []byte {
	t.Helper()
	code, _, err := asm.Assemble(src, constpool.NewBuilder())
	if err != nil {
		t.Fatalf("assemble %q: %v", src, err)
	}
	return code
}

func TestAssembleInstructions(t *testing.T) {
	tests := []struct {
		src  string
		want []byte
	}{
		{"nop", []byte{0x00}},
		{"bipush -1", []byte{0x10, 0xff}},
		{"sipush -2", []byte{0x11, 0xff, 0xfe}},
		{"ldc #7", []byte{0x12, 7}},
		{"ldc2_w #3", []byte{0x14, 0, 3}},
		{"iload 2", []byte{0x15, 2}},
		{"iload 300", []byte{0xc4, 0x15, 1, 44}},
		{"astore 255", []byte{0x3a, 255}},
		{"ret 5", []byte{0xa9, 5}},
		{"iinc 1 -1", []byte{0x84, 1, 0xff}},
		{"iinc 300 5", []byte{0xc4, 0x84, 1, 44, 0, 5}},
		{"iinc 1 200", []byte{0xc4, 0x84, 0, 1, 0, 200}},
		{"newarray long", []byte{0xbc, 11}},
		{"newarray 4", []byte{0xbc, 4}},
		{"getstatic #9", []byte{0xb2, 0, 9}},
		{"invokevirtual #6", []byte{0xb6, 0, 6}},
		{"invokeinterface #5 1", []byte{0xb9, 0, 5, 1, 0}},
		{"invokedynamic #8", []byte{0xba, 0, 8, 0, 0}},
		{"multianewarray #4 2", []byte{0xc5, 0, 4, 2}},
	}

	for _, test := range tests {
		code := assemble(t, test.src)
		if !bytes.Equal(code, test.want) {
			t.Errorf("%q: expected % x, got % x", test.src, test.want, code)
		}
	}
}

func TestAssembleBranches(t *testing.T) {
	src := `
loop:   iload 1
        ifeq done
        iinc 1 -1
        goto loop
done:   return
`
	code := assemble(t, src)
	want := []byte{
		byte(bytecode.ILOAD), 1,
		byte(bytecode.IFEQ), 0, 9,
		byte(bytecode.IINC), 1, 0xff,
		byte(bytecode.GOTO), 0xff, 0xf8,
		byte(bytecode.RETURN),
	}
	if !bytes.Equal(code, want) {
		t.Errorf("expected % x, got % x", want, code)
	}
}

func TestAssembleClassOperand(t *testing.T) {
	pool := constpool.NewBuilder()
	code, _, err := asm.Assemble("anewarray java/lang/String\npop\nreturn", pool)
	if err != nil {
		t.Fatal(err)
	}

	idx := pool.Class("java/lang/String")
	want := []byte{byte(bytecode.ANEWARRAY), 0, byte(idx), 0x57, 0xb1}
	if !bytes.Equal(code, want) {
		t.Errorf("expected % x, got % x", want, code)
	}
}

func TestAssembleCatch(t *testing.T) {
	pool := constpool.NewBuilder()
	src := `
start:  iconst_0
        pop
end:    return
handler: athrow
.catch start end handler java/lang/Exception
`
	code, handlers, err := asm.Assemble(src, pool)
	if err != nil {
		t.Fatal(err)
	}
	if len(code) != 4 {
		t.Fatalf("expected 4 bytes of code, got %d", len(code))
	}

	entries := handlers.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected one handler, got %d", len(entries))
	}
	h := entries[0]
	if h.StartPC != 0 || h.EndPC != 2 || h.HandlerPC != 3 {
		t.Errorf("expected handler [0,2)->3, got [%d,%d)->%d", h.StartPC, h.EndPC, h.HandlerPC)
	}
	if h.CatchType != pool.Class("java/lang/Exception") {
		t.Errorf("expected interned catch type, got %d", h.CatchType)
	}
}

func TestAssembleCatchAll(t *testing.T) {
	src := "start: nop\nend: return\n.catch start end start *"
	_, handlers, err := asm.Assemble(src, constpool.NewBuilder())
	if err != nil {
		t.Fatal(err)
	}
	if ct := handlers.Entries()[0].CatchType; ct != 0 {
		t.Errorf("expected catch-all type 0, got %d", ct)
	}
}

func TestAssembleTableSwitch(t *testing.T) {
	code := assemble(t, "iload 0\ntableswitch 0 def a b\na: nop\nb: nop\ndef: return")
	want := []byte{
		byte(bytecode.ILOAD), 0,
		byte(bytecode.TABLESWITCH), 0, // one pad byte
		0, 0, 0, 24, // default -> 26
		0, 0, 0, 0, // low
		0, 0, 0, 1, // high
		0, 0, 0, 22, // -> 24
		0, 0, 0, 23, // -> 25
		byte(bytecode.NOP),
		byte(bytecode.NOP),
		byte(bytecode.RETURN),
	}
	if !bytes.Equal(code, want) {
		t.Errorf("expected % x, got % x", want, code)
	}
}

func TestAssembleLookupSwitch(t *testing.T) {
	code := assemble(t, "iload 0\nlookupswitch def -5:neg 9:pos\nneg: nop\npos: nop\ndef: return")
	want := []byte{
		byte(bytecode.ILOAD), 0,
		byte(bytecode.LOOKUPSWITCH), 0,
		0, 0, 0, 28, // default -> 30
		0, 0, 0, 2, // npairs
		0xff, 0xff, 0xff, 0xfb, 0, 0, 0, 26, // -5 -> 28
		0, 0, 0, 9, 0, 0, 0, 27, // 9 -> 29
		byte(bytecode.NOP),
		byte(bytecode.NOP),
		byte(bytecode.RETURN),
	}
	if !bytes.Equal(code, want) {
		t.Errorf("expected % x, got % x", want, code)
	}
}

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		src      string
		expected string
	}{
		{"bogus 1", `unknown mnemonic "bogus"`},
		{"goto nowhere", `undefined label "nowhere"`},
		{"x: nop\nx: nop", `label "x" defined twice`},
		{"iload foo", "expected number"},
		{"ldc 5", "expected pool reference"},
		{".frob 1 2", `unknown directive ".frob"`},
		{"newarray string", `unknown array type "string"`},
		{"tableswitch 0 def\ndef: return", "tableswitch needs at least one target"},
		{"nop extra", `unexpected "extra" after instruction`},
	}

	for _, test := range tests {
		_, _, err := asm.Assemble(test.src, constpool.NewBuilder())
		if err == nil {
			t.Errorf("%q: expected error", test.src)
			continue
		}
		if !strings.Contains(err.Error(), test.expected) {
			t.Errorf("%q: expected %q in error, got %q", test.src, test.expected, err.Error())
		}
	}
}

func TestAssembleCollectsAllErrors(t *testing.T) {
	sc := asm.NewScanner("bogus\nldc 5\nreturn")
	p := asm.NewParser(sc, constpool.NewBuilder())
	p.Parse()

	errs := p.Errors()
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), errs)
	}
	if !strings.Contains(errs[0], "line 1") {
		t.Errorf("first error should name line 1: %s", errs[0])
	}
	if !strings.Contains(errs[1], "line 2") {
		t.Errorf("second error should name line 2: %s", errs[1])
	}
}
