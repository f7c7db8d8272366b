package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// CodeReader walks raw method bytecode one instruction at a time. It resolves
// wide prefixes, aligned switch payloads and variable instruction sizes, so a
// consumer only ever sees whole instructions.
type CodeReader struct {
	code []byte
	pc   int    // offset of the current instruction
	next int    // offset of the following instruction
	op   Opcode // current opcode, unwrapped from a wide prefix
	wide bool   // current instruction carried a wide prefix
	err  error
}

// NewCodeReader creates a reader positioned before the first instruction.
func NewCodeReader(code []byte) *CodeReader {
	return &CodeReader{code: code, pc: -1}
}

// Next advances to the following instruction. It returns false at the end of
// the code or when the encoding is broken, in which case Err reports why.
func (r *CodeReader) Next() bool {
	if r.err != nil || r.next >= len(r.code) {
		return false
	}

	r.pc = r.next
	r.wide = false
	r.op = Opcode(r.code[r.pc])

	var size int
	switch r.op {
	case WIDE:
		if r.pc+1 >= len(r.code) {
			return r.fail(ErrTruncated)
		}
		r.op = Opcode(r.code[r.pc+1])
		r.wide = true
		switch r.op {
		case IINC:
			size = 6
		case ILOAD, LLOAD, FLOAD, DLOAD, ALOAD, ISTORE, LSTORE, FSTORE, DSTORE, ASTORE, RET:
			size = 4
		default:
			return r.fail(ErrBadWide)
		}

	case TABLESWITCH:
		aligned := Align4(r.pc + 1)
		if aligned+12 > len(r.code) {
			return r.fail(ErrTruncated)
		}
		low := r.S4At(aligned + 4)
		high := r.S4At(aligned + 8)
		keys := high - low + 1
		if keys < 0 {
			// shape errors surface when the instruction is interpreted
			keys = 0
		}
		size = aligned - r.pc + (3+keys)*4

	case LOOKUPSWITCH:
		aligned := Align4(r.pc + 1)
		if aligned+8 > len(r.code) {
			return r.fail(ErrTruncated)
		}
		npairs := r.S4At(aligned + 4)
		if npairs < 0 {
			npairs = 0
		}
		size = aligned - r.pc + (2+2*npairs)*4

	default:
		size = opLengths[r.op]
		if size == 0 {
			// undefined opcode: consume one byte, the consumer reports it
			size = 1
		}
	}

	if size < 0 || r.pc+size > len(r.code) {
		return r.fail(ErrTruncated)
	}

	r.next = r.pc + size
	return true
}

// SeekNext resumes decoding at the given offset on the following Next call.
func (r *CodeReader) SeekNext(off int) {
	r.next = off
}

// Opcode returns the current opcode, with any wide prefix stripped.
func (r *CodeReader) Opcode() Opcode { return r.op }

// Wide reports whether the current instruction carried a wide prefix.
func (r *CodeReader) Wide() bool { return r.wide }

// PC returns the offset of the current instruction.
func (r *CodeReader) PC() int { return r.pc }

// NextPC returns the offset of the instruction that follows the current one.
func (r *CodeReader) NextPC() int { return r.next }

// Err returns the encoding error that stopped the reader, if any.
func (r *CodeReader) Err() error { return r.err }

// Index returns the local-variable operand of the current load, store, iinc or ret.
func (r *CodeReader) Index() int {
	if r.wide {
		return r.U2At(r.pc + 2)
	}

	return r.U1At(r.pc + 1)
}

// IncConst returns the increment operand of the current iinc.
func (r *CodeReader) IncConst() int {
	if r.wide {
		return int(int16(r.U2At(r.pc + 4)))
	}

	return int(int8(r.U1At(r.pc + 2)))
}

// IndexU1 returns the unsigned single-byte operand of the current instruction.
func (r *CodeReader) IndexU1() int { return r.U1At(r.pc + 1) }

// IndexU2 returns the unsigned two-byte operand of the current instruction.
func (r *CodeReader) IndexU2() int { return r.U2At(r.pc + 1) }

// Dest returns the target offset of the current two-byte branch.
func (r *CodeReader) Dest() int {
	return r.pc + int(int16(r.U2At(r.pc+1)))
}

// DestW returns the target offset of the current four-byte branch.
func (r *CodeReader) DestW() int {
	return r.pc + r.S4At(r.pc+1)
}

// U1At reads an unsigned byte at an absolute offset.
func (r *CodeReader) U1At(off int) int {
	return int(r.code[off])
}

// U2At reads a big-endian unsigned two-byte value at an absolute offset.
func (r *CodeReader) U2At(off int) int {
	return int(binary.BigEndian.Uint16(r.code[off:]))
}

// S4At reads a big-endian signed four-byte value at an absolute offset.
func (r *CodeReader) S4At(off int) int {
	return int(int32(binary.BigEndian.Uint32(r.code[off:])))
}

// Align4 rounds an offset up to the next four-byte boundary.
func Align4(off int) int {
	return (off + 3) &^ 3
}

func (r *CodeReader) fail(err error) bool {
	r.err = fmt.Errorf("%w at offset %d", err, r.pc)
	return false
}

var (
	ErrTruncated = errors.New("bytecode truncated")
	ErrBadWide   = errors.New("invalid wide instruction")
)
