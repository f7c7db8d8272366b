package stackmap

import (
	"encoding/binary"
	"errors"
	"fmt"

	"classfile/pkg/bytecode"
	"classfile/pkg/constpool"
	"classfile/pkg/descriptor"
)

// AttributeBody serializes the frames as the body of a StackMapTable
// attribute, interning referenced class entries in pool. Valid after
// Generate.
func (g *Generator) AttributeBody(pool *constpool.Builder) []byte {
	w := &bytecode.Writer{}
	w.U2(len(g.frames))
	prev := newFrame(-1)
	prev.initLocalsFromArgs(g.methodName, g.params, g.static, g.thisType)
	prev.trimAndCompress()
	for _, fr := range g.frames {
		fr.writeTo(w, prev, pool)
		prev = fr
	}

	return w.Bytes()
}

// WriteAttribute writes the complete attribute structure: name index,
// length, body. Callers usually omit the attribute when Frames is empty.
func (g *Generator) WriteAttribute(w *bytecode.Writer, pool *constpool.Builder) {
	body := g.AttributeBody(pool)
	w.U2(pool.Utf8("StackMapTable"))
	w.U4(uint32(len(body)))
	w.Raw(body)
}

var errTableTruncated = errors.New("stack map table truncated")

// ReadTable decodes a StackMapTable attribute body back into frames with
// absolute offsets. cfg supplies the implicit initial frame and the
// constant pool that class entries point into; Code, Handlers and Oracle
// are not used. Locals and stacks come back in their serialized form, with
// category-2 types as single entries.
func ReadTable(body []byte, cfg Config) ([]*Frame, error) {
	params, err := cfg.MethodDesc.Params()
	if err != nil {
		return nil, fmt.Errorf("bad method descriptor: %s", cfg.MethodDesc)
	}
	pool := cfg.Pool
	if pool == nil {
		pool = constpool.NewBuilder()
	}
	prev := newFrame(-1)
	prev.initLocalsFromArgs(cfg.MethodName, params, cfg.Static, referenceType(cfg.ThisClass))
	prev.trimAndCompress()

	c := &tableCursor{data: body}
	count, err := c.u2()
	if err != nil {
		return nil, err
	}
	frames := make([]*Frame, 0, count)
	for i := 0; i < count; i++ {
		ft, err := c.u1()
		if err != nil {
			return nil, err
		}
		fr := newFrame(0)
		fr.flags = 0
		switch {
		case ft < 64: // same
			fr.offset = prev.offset + ft + 1
			copyLocals(fr, prev)
		case ft < 128: // same_locals_1_stack_item
			fr.offset = prev.offset + (ft - 64) + 1
			copyLocals(fr, prev)
			if err := c.readStack(fr, 1, pool); err != nil {
				return nil, err
			}
		case ft < 247:
			return nil, fmt.Errorf("bad frame type %d", ft)
		case ft == 247: // same_locals_1_stack_item_extended
			if err := c.readDelta(fr, prev); err != nil {
				return nil, err
			}
			copyLocals(fr, prev)
			if err := c.readStack(fr, 1, pool); err != nil {
				return nil, err
			}
		case ft <= 250: // chop
			if err := c.readDelta(fr, prev); err != nil {
				return nil, err
			}
			k := 251 - ft
			if k > prev.localsSize {
				return nil, fmt.Errorf("chop frame removes %d of %d locals", k, prev.localsSize)
			}
			copyLocals(fr, prev)
			fr.localsSize -= k
		case ft == 251: // same_frame_extended
			if err := c.readDelta(fr, prev); err != nil {
				return nil, err
			}
			copyLocals(fr, prev)
		case ft <= 254: // append
			if err := c.readDelta(fr, prev); err != nil {
				return nil, err
			}
			copyLocals(fr, prev)
			for j := 0; j < ft-251; j++ {
				t, err := c.verificationType(pool)
				if err != nil {
					return nil, err
				}
				fr.locals = append(fr.locals[:fr.localsSize], t)
				fr.localsSize++
			}
		default: // full_frame
			if err := c.readDelta(fr, prev); err != nil {
				return nil, err
			}
			nlocals, err := c.u2()
			if err != nil {
				return nil, err
			}
			for j := 0; j < nlocals; j++ {
				t, err := c.verificationType(pool)
				if err != nil {
					return nil, err
				}
				fr.locals = append(fr.locals, t)
			}
			fr.localsSize = nlocals
			nstack, err := c.u2()
			if err != nil {
				return nil, err
			}
			if err := c.readStack(fr, nstack, pool); err != nil {
				return nil, err
			}
		}
		frames = append(frames, fr)
		prev = fr
	}
	if c.off != len(c.data) {
		return nil, errors.New("trailing bytes in stack map table")
	}

	return frames, nil
}

func copyLocals(dst, src *Frame) {
	dst.locals = append(dst.locals[:0], src.locals[:src.localsSize]...)
	dst.localsSize = src.localsSize
}

type tableCursor struct {
	data []byte
	off  int
}

func (c *tableCursor) u1() (int, error) {
	if c.off+1 > len(c.data) {
		return 0, errTableTruncated
	}
	v := int(c.data[c.off])
	c.off++

	return v, nil
}

func (c *tableCursor) u2() (int, error) {
	if c.off+2 > len(c.data) {
		return 0, errTableTruncated
	}
	v := int(binary.BigEndian.Uint16(c.data[c.off:]))
	c.off += 2

	return v, nil
}

func (c *tableCursor) readDelta(fr, prev *Frame) error {
	delta, err := c.u2()
	if err != nil {
		return err
	}
	fr.offset = prev.offset + delta + 1

	return nil
}

func (c *tableCursor) readStack(fr *Frame, n int, pool constpool.Reader) error {
	for j := 0; j < n; j++ {
		t, err := c.verificationType(pool)
		if err != nil {
			return err
		}
		fr.stack = append(fr.stack, t)
	}
	fr.stackSize = n

	return nil
}

func (c *tableCursor) verificationType(pool constpool.Reader) (Type, error) {
	tag, err := c.u1()
	if err != nil {
		return topType, err
	}
	switch uint8(tag) {
	case tagTop:
		return topType, nil
	case tagInteger:
		return intType, nil
	case tagFloat:
		return floatType, nil
	case tagDouble:
		return doubleType, nil
	case tagLong:
		return longType, nil
	case tagNull:
		return nullType, nil
	case tagUninitThis:
		return uninitThisType, nil
	case tagObject:
		index, err := c.u2()
		if err != nil {
			return topType, err
		}
		name, ok := pool.ClassName(index)
		if !ok {
			return topType, fmt.Errorf("bad class index %d in stack map table", index)
		}
		return referenceType(descriptor.FieldOfInternal(name)), nil
	case tagUninit:
		off, err := c.u2()
		if err != nil {
			return topType, err
		}
		return uninitializedType(off), nil
	default:
		return topType, fmt.Errorf("bad verification type tag %d", tag)
	}
}
