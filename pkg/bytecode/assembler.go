package bytecode

import (
	"errors"
	"fmt"
	"math"
)

// Label identifies a code position that may be referenced before it is bound.
type Label int

type fixup struct {
	at   int // buffer offset of the operand to patch
	from int // instruction offset the branch is relative to
	l    Label
	wide bool // four-byte operand
}

type catchEntry struct {
	start, end, handler Label
	catchType           int
}

// Assembler builds raw method bytecode with symbolic branch targets and an
// exception table. Label references are patched when Finish is called.
type Assembler struct {
	w       Writer
	labels  []int // Label -> bound offset, -1 while unbound
	fixups  []fixup
	catches []catchEntry
	err     error
}

// NewAssembler creates an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// PC returns the offset the next instruction will be emitted at.
func (a *Assembler) PC() int {
	return a.w.Len()
}

// Label creates a new unbound label.
func (a *Assembler) Label() Label {
	a.labels = append(a.labels, -1)
	return Label(len(a.labels) - 1)
}

// Mark binds the label to the current position.
func (a *Assembler) Mark(l Label) {
	if a.labels[l] != -1 {
		a.setErr(fmt.Errorf("label %d bound twice", l))
		return
	}

	a.labels[l] = a.PC()
}

// Here creates a label bound to the current position.
func (a *Assembler) Here() Label {
	l := a.Label()
	a.Mark(l)
	return l
}

// Op emits an instruction without operands.
func (a *Assembler) Op(op Opcode) {
	a.w.U1(int(op))
}

// OpU1 emits an instruction with one unsigned byte operand.
func (a *Assembler) OpU1(op Opcode, v int) {
	a.w.U1(int(op))
	a.w.U1(v)
}

// OpU2 emits an instruction with an unsigned two-byte operand.
func (a *Assembler) OpU2(op Opcode, v int) {
	a.w.U1(int(op))
	a.w.U2(v)
}

// Iinc emits an iinc instruction.
func (a *Assembler) Iinc(index, delta int) {
	a.w.U1(int(IINC))
	a.w.U1(index)
	a.w.U1(delta)
}

// WideLocal emits a wide-prefixed load, store or ret with a two-byte index.
func (a *Assembler) WideLocal(op Opcode, index int) {
	a.w.U1(int(WIDE))
	a.w.U1(int(op))
	a.w.U2(index)
}

// WideIinc emits a wide-prefixed iinc with two-byte index and increment.
func (a *Assembler) WideIinc(index, delta int) {
	a.w.U1(int(WIDE))
	a.w.U1(int(IINC))
	a.w.U2(index)
	a.w.U2(delta)
}

// InvokeInterface emits an invokeinterface with its count operand.
func (a *Assembler) InvokeInterface(index, count int) {
	a.w.U1(int(INVOKEINTERFACE))
	a.w.U2(index)
	a.w.U1(count)
	a.w.U1(0)
}

// InvokeDynamic emits an invokedynamic instruction.
func (a *Assembler) InvokeDynamic(index int) {
	a.w.U1(int(INVOKEDYNAMIC))
	a.w.U2(index)
	a.w.U2(0)
}

// MultiANewArray emits a multianewarray with its dimension operand.
func (a *Assembler) MultiANewArray(index, dims int) {
	a.w.U1(int(MULTIANEWARRAY))
	a.w.U2(index)
	a.w.U1(dims)
}

// Branch emits a branch to a label; goto_w and jsr_w take four-byte offsets.
func (a *Assembler) Branch(op Opcode, l Label) {
	from := a.PC()
	a.w.U1(int(op))
	if op == GOTO_W || op == JSR_W {
		a.fixup4(from, l)
		return
	}

	a.fixups = append(a.fixups, fixup{at: a.PC(), from: from, l: l})
	a.w.U2(0)
}

// TableSwitch emits a tableswitch covering keys low..low+len(targets)-1.
func (a *Assembler) TableSwitch(def Label, low int, targets ...Label) {
	if len(targets) == 0 {
		a.setErr(errors.New("tableswitch needs at least one target"))
		return
	}

	from := a.PC()
	a.w.U1(int(TABLESWITCH))
	a.pad4()
	a.fixup4(from, def)
	a.w.S4(low)
	a.w.S4(low + len(targets) - 1)
	for _, t := range targets {
		a.fixup4(from, t)
	}
}

// LookupSwitch emits a lookupswitch with match/offset pairs in the given order.
func (a *Assembler) LookupSwitch(def Label, keys []int, targets []Label) {
	if len(keys) != len(targets) {
		a.setErr(errors.New("lookupswitch keys and targets differ in length"))
		return
	}

	from := a.PC()
	a.w.U1(int(LOOKUPSWITCH))
	a.pad4()
	a.fixup4(from, def)
	a.w.S4(len(keys))
	for i, k := range keys {
		a.w.S4(k)
		a.fixup4(from, targets[i])
	}
}

// Catch registers an exception-table entry for try range [start, end).
func (a *Assembler) Catch(start, end, handler Label, catchType int) {
	a.catches = append(a.catches, catchEntry{start: start, end: end, handler: handler, catchType: catchType})
}

// Raw appends bytes verbatim.
func (a *Assembler) Raw(b ...byte) {
	a.w.Raw(b)
}

// Finish patches all label references and returns the bytecode with its
// exception table.
func (a *Assembler) Finish() ([]byte, *HandlerTable, error) {
	if a.err != nil {
		return nil, nil, a.err
	}

	buf := a.w.Bytes()
	for _, f := range a.fixups {
		target, err := a.resolve(f.l)
		if err != nil {
			return nil, nil, err
		}

		rel := target - f.from
		if f.wide {
			buf[f.at] = byte(rel >> 24)
			buf[f.at+1] = byte(rel >> 16)
			buf[f.at+2] = byte(rel >> 8)
			buf[f.at+3] = byte(rel)
			continue
		}

		if rel > math.MaxInt16 || rel < math.MinInt16 {
			return nil, nil, fmt.Errorf("%w: %d", ErrBranchRange, rel)
		}
		buf[f.at] = byte(rel >> 8)
		buf[f.at+1] = byte(rel)
	}

	table := NewHandlerTable()
	for _, c := range a.catches {
		start, err := a.resolve(c.start)
		if err != nil {
			return nil, nil, err
		}
		end, err := a.resolve(c.end)
		if err != nil {
			return nil, nil, err
		}
		handler, err := a.resolve(c.handler)
		if err != nil {
			return nil, nil, err
		}

		table.Add(ExceptionHandler{StartPC: start, EndPC: end, HandlerPC: handler, CatchType: c.catchType})
	}

	return buf, table, nil
}

func (a *Assembler) resolve(l Label) (int, error) {
	if int(l) >= len(a.labels) || a.labels[l] < 0 {
		return 0, fmt.Errorf("%w: %d", ErrUnboundLabel, l)
	}

	return a.labels[l], nil
}

func (a *Assembler) fixup4(from int, l Label) {
	a.fixups = append(a.fixups, fixup{at: a.PC(), from: from, l: l, wide: true})
	a.w.S4(0)
}

func (a *Assembler) pad4() {
	for a.PC()%4 != 0 {
		a.w.U1(0)
	}
}

func (a *Assembler) setErr(err error) {
	if a.err == nil {
		a.err = err
	}
}

var (
	ErrUnboundLabel = errors.New("unbound label")
	ErrBranchRange  = errors.New("branch offset out of range")
)
