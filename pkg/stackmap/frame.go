package stackmap

import (
	"errors"

	"classfile/pkg/bytecode"
	"classfile/pkg/constpool"
	"classfile/pkg/descriptor"
	"classfile/pkg/hierarchy"
)

const (
	// flagThisUninit marks frames where slot 0 still holds the receiver of an
	// unfinished <init> call.
	flagThisUninit = 0x01

	frameDefaultCapacity = 10
)

// Frame is one execution state: typed locals and operand stack at a bytecode
// offset. Branch-target frames also carry merge bookkeeping: flags -1 means
// no execution path has reached the frame yet, dirty means it changed since
// the generator last replayed from it.
type Frame struct {
	offset     int
	localsSize int
	stackSize  int
	flags      int
	dirty      bool

	frameMaxLocals int
	frameMaxStack  int

	locals []Type
	stack  []Type

	err error
}

func newFrame(offset int) *Frame {
	return &Frame{offset: offset, flags: -1}
}

// Offset returns the bytecode offset the frame describes.
func (f *Frame) Offset() int {
	return f.offset
}

// Locals returns the local slots, exact halves of longs and doubles included
// until the frame is finalized.
func (f *Frame) Locals() []Type {
	return f.locals[:f.localsSize]
}

// Stack returns the operand stack, bottom first.
func (f *Frame) Stack() []Type {
	return f.stack[:f.stackSize]
}

func (f *Frame) fail(msg string) {
	if f.err == nil {
		f.err = errors.New(msg)
	}
}

// checkStack records the max-stack watermark for slot index and grows the
// stack array to hold it. The zero Type is TOP, so fresh slots need no fill.
func (f *Frame) checkStack(index int) {
	if index >= f.frameMaxStack {
		f.frameMaxStack = index + 1
	}
	if index >= len(f.stack) {
		grown := make([]Type, index+frameDefaultCapacity)
		copy(grown, f.stack)
		f.stack = grown
	}
}

// checkLocal records the max-locals watermark for slot index and grows the
// locals array to hold it.
func (f *Frame) checkLocal(index int) {
	if index >= f.frameMaxLocals {
		f.frameMaxLocals = index + 1
	}
	if index >= len(f.locals) {
		grown := make([]Type, index+frameDefaultCapacity)
		copy(grown, f.locals)
		f.locals = grown
	}
}

func (f *Frame) push(t Type) {
	f.checkStack(f.stackSize)
	f.stack[f.stackSize] = t
	f.stackSize++
}

func (f *Frame) push2(t1, t2 Type) {
	f.push(t1)
	f.push(t2)
}

// pushField pushes the verification type(s) for a field descriptor. Longs
// and doubles take two slots, void takes none.
func (f *Frame) pushField(desc descriptor.Field) {
	switch desc {
	case "J":
		f.push2(longType, long2Type)
	case "D":
		f.push2(doubleType, double2Type)
	case "I", "Z", "B", "C", "S":
		f.push(intType)
	case "F":
		f.push(floatType)
	case "V":
	default:
		f.push(referenceType(desc))
	}
}

func (f *Frame) pop() Type {
	if f.stackSize < 1 {
		f.fail("operand stack underflow")
		return topType
	}
	f.stackSize--

	return f.stack[f.stackSize]
}

func (f *Frame) dec(n int) {
	f.stackSize -= n
	if f.stackSize < 0 {
		f.fail("operand stack underflow")
		f.stackSize = 0
	}
}

// local reads a slot, extending localsSize over it the way the JVM treats
// reads beyond the last written slot as TOP.
func (f *Frame) local(index int) Type {
	f.checkLocal(index)
	if index >= f.localsSize {
		f.localsSize = index + 1
	}

	return f.locals[index]
}

func (f *Frame) setLocalRaw(index int, t Type) {
	f.checkLocal(index)
	f.locals[index] = t
}

// setLocal writes one slot, turning a category-2 value it overwrites half of
// into TOP on the surviving half.
func (f *Frame) setLocal(index int, t Type) {
	f.checkLocal(index)
	old := f.locals[index]
	if old.tag == tagDouble || old.tag == tagLong {
		f.setLocalRaw(index+1, topType)
	}
	if index > 0 && (old.tag == tagDouble2 || old.tag == tagLong2) {
		f.setLocalRaw(index-1, topType)
	}
	f.setLocalRaw(index, t)
	if index >= f.localsSize {
		f.localsSize = index + 1
	}
}

// setLocal2 writes a category-2 pair.
func (f *Frame) setLocal2(index int, t1, t2 Type) {
	f.checkLocal(index + 1)
	old := f.locals[index+1]
	if old.tag == tagDouble || old.tag == tagLong {
		f.setLocalRaw(index+2, topType)
	}
	old = f.locals[index]
	if index > 0 && (old.tag == tagDouble2 || old.tag == tagLong2) {
		f.setLocalRaw(index-1, topType)
	}
	f.setLocalRaw(index, t1)
	f.setLocalRaw(index+1, t2)
	if index >= f.localsSize-1 {
		f.localsSize = index + 2
	}
}

// initLocalsFromArgs lays out the implicit receiver and the parameters.
// Inside <init> of any class but Object the receiver starts as
// uninitializedThis.
func (f *Frame) initLocalsFromArgs(methodName string, params []descriptor.Field, static bool, thisType Type) {
	f.localsSize = 0
	if !static {
		f.localsSize++
		if methodName == "<init>" && thisType.sym != descriptor.Object {
			f.setLocal(0, uninitThisType)
			f.flags |= flagThisUninit
		} else {
			f.setLocalRaw(0, thisType)
		}
	}
	for _, p := range params {
		if p.IsClassOrInterface() || p.IsArray() {
			f.setLocalRaw(f.localsSize, referenceType(p))
			f.localsSize++
			continue
		}
		switch p[0] {
		case 'J':
			f.setLocalRaw(f.localsSize, longType)
			f.setLocalRaw(f.localsSize+1, long2Type)
			f.localsSize += 2
		case 'D':
			f.setLocalRaw(f.localsSize, doubleType)
			f.setLocalRaw(f.localsSize+1, double2Type)
			f.localsSize += 2
		case 'F':
			f.setLocalRaw(f.localsSize, floatType)
			f.localsSize++
		default: // I, Z, B, C, S
			f.setLocalRaw(f.localsSize, intType)
			f.localsSize++
		}
	}
}

// copyFrom makes f a copy of src, keeping f's own capacity and watermarks.
func (f *Frame) copyFrom(src *Frame) {
	for i := src.localsSize; i < f.localsSize && i < len(f.locals); i++ {
		f.locals[i] = topType
	}
	f.localsSize = src.localsSize
	if src.localsSize > 0 {
		f.checkLocal(src.localsSize - 1)
		copy(f.locals, src.locals[:src.localsSize])
	}
	for i := src.stackSize; i < f.stackSize && i < len(f.stack); i++ {
		f.stack[i] = topType
	}
	f.stackSize = src.stackSize
	if src.stackSize > 0 {
		f.checkStack(src.stackSize - 1)
		copy(f.stack, src.stack[:src.stackSize])
	}
	f.flags = src.flags
}

// checkAssignableTo merges f into a branch-target frame. A frame no path has
// reached yet becomes a copy of f; otherwise locals beyond f's size are cut
// and the surviving slots widen element-wise. Any change marks the target
// dirty so the generator replays from it.
func (f *Frame) checkAssignableTo(target *Frame, oracle *hierarchy.Oracle) {
	if target.flags == -1 {
		target.locals = append(target.locals[:0], f.locals[:f.localsSize]...)
		target.localsSize = f.localsSize
		target.stack = append(target.stack[:0], f.stack[:f.stackSize]...)
		target.stackSize = f.stackSize
		target.flags = f.flags
		target.dirty = true
		return
	}
	if target.localsSize > f.localsSize {
		target.localsSize = f.localsSize
		target.dirty = true
	}
	for i := 0; i < target.localsSize; i++ {
		merged := target.locals[i].mergeFrom(f.locals[i], oracle)
		if merged != target.locals[i] {
			target.locals[i] = merged
			target.dirty = true
		}
	}
	for i := 0; i < target.stackSize; i++ {
		incoming := topType
		if i < f.stackSize {
			incoming = f.stack[i]
		}
		merged := target.stack[i].mergeFrom(incoming, oracle)
		if merged != target.stack[i] {
			target.stack[i] = merged
			target.dirty = true
		}
	}
}

// exceptionStartFrame derives the entry state of a handler reached from f:
// same locals, a one-slot stack holding the caught type. The locals array is
// shared because the result is only ever merged, never mutated.
func (f *Frame) exceptionStartFrame(flags int, catchType Type) *Frame {
	return &Frame{
		offset:     f.offset,
		flags:      flags,
		localsSize: f.localsSize,
		locals:     f.locals,
		stackSize:  1,
		stack:      []Type{catchType},
	}
}

// initializeObject rewrites every occurrence of an uninitialized placeholder
// to the constructed type once its <init> runs.
func (f *Frame) initializeObject(old, initialized Type) {
	for i := 0; i < f.localsSize; i++ {
		if f.locals[i] == old {
			f.locals[i] = initialized
		}
	}
	for i := 0; i < f.stackSize; i++ {
		if f.stack[i] == old {
			f.stack[i] = initialized
		}
	}
	if old.tag == tagUninitThis {
		f.flags = 0
	}
}

// trimAndCompress drops trailing TOP locals and squeezes out the second
// halves of category-2 values, converting the frame to its serialized shape.
func (f *Frame) trimAndCompress() {
	for f.localsSize > 0 && f.locals[f.localsSize-1] == topType {
		f.localsSize--
	}
	n := 0
	for i := 0; i < f.localsSize; i++ {
		if !f.locals[i].isCategory2Second() {
			f.locals[n] = f.locals[i]
			n++
		}
	}
	f.localsSize = n
	n = 0
	for i := 0; i < f.stackSize; i++ {
		if !f.stack[i].isCategory2Second() {
			f.stack[n] = f.stack[i]
			n++
		}
	}
	f.stackSize = n
}

func typesEqual(a, b []Type, n int) bool {
	if n > len(a) || n > len(b) {
		return false
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// writeTo emits the frame against prev, picking the shortest delta encoding:
// same / same extended, chop, append, same-locals-one-stack, or full.
func (f *Frame) writeTo(w *bytecode.Writer, prev *Frame, pool *constpool.Builder) {
	delta := f.offset - prev.offset - 1
	if f.stackSize == 0 {
		common := f.localsSize
		if prev.localsSize < common {
			common = prev.localsSize
		}
		diff := f.localsSize - prev.localsSize
		if -3 <= diff && diff <= 3 && typesEqual(f.locals, prev.locals, common) {
			if diff == 0 && delta < 64 {
				w.U1(delta)
			} else {
				w.U1(251 + diff)
				w.U2(delta)
				for i := common; i < f.localsSize; i++ {
					f.locals[i].writeTo(w, pool)
				}
			}
			return
		}
	} else if f.stackSize == 1 && f.localsSize == prev.localsSize &&
		typesEqual(f.locals, prev.locals, f.localsSize) {
		if delta < 64 {
			w.U1(64 + delta)
		} else {
			w.U1(247)
			w.U2(delta)
		}
		f.stack[0].writeTo(w, pool)
		return
	}

	w.U1(255)
	w.U2(delta)
	w.U2(f.localsSize)
	for i := 0; i < f.localsSize; i++ {
		f.locals[i].writeTo(w, pool)
	}
	w.U2(f.stackSize)
	for i := 0; i < f.stackSize; i++ {
		f.stack[i].writeTo(w, pool)
	}
}
