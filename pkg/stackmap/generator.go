package stackmap

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/log"
	mapset "github.com/deckarep/golang-set/v2"

	"classfile/pkg/bytecode"
	"classfile/pkg/constpool"
	"classfile/pkg/descriptor"
	"classfile/pkg/hierarchy"
)

const defaultMaxPasses = 10

// Config describes the method a Generator works on.
type Config struct {
	ThisClass  descriptor.Field
	MethodName string
	MethodDesc descriptor.Method
	Static     bool

	// Code is mutated in place when dead code is patched.
	Code []byte
	// Handlers is rewritten in place when patched-out ranges overlap try
	// blocks. Nil means no exception handlers.
	Handlers *bytecode.HandlerTable

	Pool   constpool.Reader
	Oracle *hierarchy.Oracle
}

// Option configures a Generator.
type Option func(*Generator)

// WithPatchDeadCode controls whether unreachable blocks are replaced with
// nop/athrow filler. When disabled, dead code fails generation instead.
func WithPatchDeadCode(enabled bool) Option {
	return func(g *Generator) { g.patchDead = enabled }
}

// WithMaxPasses bounds the fixed-point iteration. The default of 10 is far
// above what real code needs; hitting it means a merge defect.
func WithMaxPasses(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxPasses = n
		}
	}
}

// Generator computes the StackMapTable frames, max stack and max locals of
// one method body.
type Generator struct {
	thisClass  descriptor.Field
	methodName string
	methodDesc descriptor.Method
	static     bool
	code       []byte
	pool       constpool.Reader
	handlers   *bytecode.HandlerTable
	oracle     *hierarchy.Oracle

	patchDead bool
	maxPasses int

	params   []descriptor.Field
	thisType Type

	current      *Frame
	frames       []*Frame
	exMin, exMax int

	maxStack  int
	maxLocals int
}

// New builds a generator for one method. Validation of the inputs happens in
// Generate.
func New(cfg Config, options ...Option) *Generator {
	g := &Generator{
		thisClass:  cfg.ThisClass,
		methodName: cfg.MethodName,
		methodDesc: cfg.MethodDesc,
		static:     cfg.Static,
		code:       cfg.Code,
		pool:       cfg.Pool,
		handlers:   cfg.Handlers,
		oracle:     cfg.Oracle,
		patchDead:  true,
		maxPasses:  defaultMaxPasses,
	}
	for _, option := range options {
		option(g)
	}
	if g.pool == nil {
		g.pool = constpool.NewBuilder()
	}
	if g.handlers == nil {
		g.handlers = bytecode.NewHandlerTable()
	}
	if g.oracle == nil {
		g.oracle = hierarchy.NewOracle(hierarchy.NewStatic())
	}

	return g
}

// MaxStack returns the operand stack watermark. Valid after Generate.
func (g *Generator) MaxStack() int {
	return g.maxStack
}

// MaxLocals returns the locals watermark. Valid after Generate.
func (g *Generator) MaxLocals() int {
	return g.maxLocals
}

// Frames returns the branch-target frames in offset order, finalized for
// serialization. Valid after Generate.
func (g *Generator) Frames() []*Frame {
	return g.frames
}

func (g *Generator) methodID() string {
	return g.thisClass.Internal() + "." + g.methodName + string(g.methodDesc)
}

func (g *Generator) fail(msg string) error {
	return &VerifyError{Method: g.methodID(), Msg: msg}
}

func (g *Generator) failf(format string, args ...any) error {
	return g.fail(fmt.Sprintf(format, args...))
}

// Generate runs the abstract interpretation to a fixed point, patches dead
// code, and finalizes the frames.
func (g *Generator) Generate() error {
	params, err := g.methodDesc.Params()
	if err != nil {
		return g.failf("bad method descriptor: %s", g.methodDesc)
	}
	g.params = params
	g.thisType = referenceType(g.thisClass)

	g.exMin = len(g.code)
	g.exMax = -1
	for _, h := range g.handlers.Entries() {
		if h.StartPC < g.exMin {
			g.exMin = h.StartPC
		}
		if h.EndPC > g.exMax {
			g.exMax = h.EndPC
		}
	}

	if err := g.detectFrameOffsets(); err != nil {
		return err
	}

	g.current = newFrame(-1)
	passes := 0
	for {
		passes++
		if passes > g.maxPasses {
			return &VerifyError{
				Method: g.methodID(),
				Msg:    fmt.Sprintf("no fixed point after %d passes", g.maxPasses),
				err:    ErrTooManyPasses,
			}
		}
		if err := g.processPass(); err != nil {
			return err
		}
		if !g.anyFrameDirty() {
			break
		}
	}

	g.maxStack = g.current.frameMaxStack
	g.maxLocals = g.current.frameMaxLocals

	if err := g.patchDeadBlocks(); err != nil {
		return err
	}
	for _, fr := range g.frames {
		fr.trimAndCompress()
	}
	log.Debug("stack map generated",
		"method", g.methodID(), "frames", len(g.frames), "passes", passes)

	return nil
}

// detectFrameOffsets collects every offset that needs a frame: branch and
// switch targets, instructions following an unconditional control transfer,
// and exception handler entry points.
func (g *Generator) detectFrameOffsets() error {
	targets := mapset.NewThreadUnsafeSet[int]()
	add := func(off int) error {
		if off < 0 || off >= len(g.code) {
			return g.failf("frame offset %d out of bytecode range", off)
		}
		targets.Add(off)
		return nil
	}

	r := bytecode.NewCodeReader(g.code)
	ncf := false
	for r.Next() {
		bci := r.PC()
		if ncf {
			if err := add(bci); err != nil {
				return err
			}
		}
		ncf = false
		switch op := r.Opcode(); op {
		case bytecode.GOTO:
			if err := add(r.Dest()); err != nil {
				return err
			}
			ncf = true
		case bytecode.GOTO_W:
			if err := add(r.DestW()); err != nil {
				return err
			}
			ncf = true
		case bytecode.IFEQ, bytecode.IFNE, bytecode.IFLT, bytecode.IFGE,
			bytecode.IFGT, bytecode.IFLE,
			bytecode.IF_ICMPEQ, bytecode.IF_ICMPNE, bytecode.IF_ICMPLT,
			bytecode.IF_ICMPGE, bytecode.IF_ICMPGT, bytecode.IF_ICMPLE,
			bytecode.IF_ACMPEQ, bytecode.IF_ACMPNE,
			bytecode.IFNULL, bytecode.IFNONNULL:
			if err := add(r.Dest()); err != nil {
				return err
			}
		case bytecode.TABLESWITCH, bytecode.LOOKUPSWITCH:
			aligned := bytecode.Align4(bci + 1)
			if err := add(bci + r.S4At(aligned)); err != nil {
				return err
			}
			keys, delta := switchShape(r, aligned)
			for i := 0; i < keys; i++ {
				if err := add(bci + r.S4At(aligned+(3+i*delta)*4)); err != nil {
					return err
				}
			}
			ncf = true
		case bytecode.IRETURN, bytecode.LRETURN, bytecode.FRETURN,
			bytecode.DRETURN, bytecode.ARETURN, bytecode.RETURN,
			bytecode.ATHROW:
			ncf = true
		}
	}
	if r.Err() != nil {
		return g.failf("%v", r.Err())
	}
	for _, h := range g.handlers.Entries() {
		if err := add(h.HandlerPC); err != nil {
			return err
		}
	}

	offsets := targets.ToSlice()
	sort.Ints(offsets)
	g.frames = make([]*Frame, len(offsets))
	for i, off := range offsets {
		g.frames[i] = newFrame(off)
	}

	return nil
}

// switchShape returns the jump-table entry count and the table stride in u4
// words, clamping malformed counts to zero; the shape errors surface when
// the switch is interpreted.
func switchShape(r *bytecode.CodeReader, aligned int) (keys, delta int) {
	if r.Opcode() == bytecode.TABLESWITCH {
		low := r.S4At(aligned + 4)
		high := r.S4At(aligned + 8)
		keys = high - low + 1
		delta = 1
	} else {
		keys = r.S4At(aligned + 4)
		delta = 2
	}
	if keys < 0 {
		keys = 0
	}

	return keys, delta
}

func (g *Generator) anyFrameDirty() bool {
	for _, fr := range g.frames {
		if fr.dirty {
			return true
		}
	}

	return false
}

// processPass replays the whole method linearly once. At each frame offset
// the running state merges into the stored frame; blocks whose frames are
// clean are skipped by seeking to the next dirty one.
func (g *Generator) processPass() error {
	f := g.current
	f.initLocalsFromArgs(g.methodName, g.params, g.static, g.thisType)
	f.stackSize = 0
	f.flags = 0
	f.offset = -1

	frameIndex := 0
	ncf := false
	r := bytecode.NewCodeReader(g.code)
	for r.Next() {
		bci := r.PC()
		f.offset = bci
		if frameIndex < len(g.frames) {
			thisOffset := g.frames[frameIndex].offset
			if ncf && thisOffset > bci {
				return g.fail("expecting a stack map frame")
			}
			if thisOffset == bci {
				if !ncf {
					f.checkAssignableTo(g.frames[frameIndex], g.oracle)
				}
				next := g.frames[frameIndex]
				frameIndex++
				for !next.dirty {
					if frameIndex == len(g.frames) {
						return nil
					}
					next = g.frames[frameIndex]
					frameIndex++
				}
				r.SeekNext(next.offset)
				if !r.Next() {
					break
				}
				f.offset = r.PC()
				f.copyFrom(next)
				next.dirty = false
			} else if thisOffset < bci {
				return g.failf("bad stack map offset %d", thisOffset)
			}
		} else if ncf {
			return g.fail("expecting a stack map frame")
		}
		var err error
		ncf, err = g.processBlock(r)
		if err != nil {
			return err
		}
		if f.err != nil {
			return g.fail(f.err.Error())
		}
	}
	if r.Err() != nil {
		return g.failf("%v", r.Err())
	}

	return nil
}

// processBlock interprets one instruction against the running frame and
// reports whether control cannot fall through to the next instruction.
func (g *Generator) processBlock(r *bytecode.CodeReader) (bool, error) {
	f := g.current
	bci := r.PC()
	op := r.Opcode()
	ncf := false
	thisUninit := false
	inTry := bci >= g.exMin && bci < g.exMax
	verifiedExc := false

	// A store may overwrite the slot a handler depends on, so handlers see
	// the state from before the store.
	if inTry && op.IsStoreIntoLocal() {
		if err := g.processHandlerTargets(bci, false); err != nil {
			return false, err
		}
		verifiedExc = true
	}

	if e, ok := effects[op]; ok {
		f.dec(e.pop)
		for _, t := range e.push {
			f.push(t)
		}
	} else {
		var err error
		thisUninit, ncf, err = g.processSpecial(r, f, inTry)
		if err != nil {
			return false, err
		}
	}

	if !verifiedExc && inTry {
		if err := g.processHandlerTargets(bci, thisUninit); err != nil {
			return false, err
		}
	}

	return ncf, nil
}

// processSpecial handles the opcodes whose effect depends on operands,
// locals, or the constant pool.
func (g *Generator) processSpecial(r *bytecode.CodeReader, f *Frame, inTry bool) (thisUninit, ncf bool, err error) {
	op := r.Opcode()
	switch op {
	case bytecode.ILOAD:
		f.checkLocal(r.Index())
		f.push(intType)
	case bytecode.ILOAD_0, bytecode.ILOAD_1, bytecode.ILOAD_2, bytecode.ILOAD_3:
		f.checkLocal(int(op - bytecode.ILOAD_0))
		f.push(intType)
	case bytecode.LLOAD:
		f.checkLocal(r.Index() + 1)
		f.push2(longType, long2Type)
	case bytecode.LLOAD_0, bytecode.LLOAD_1, bytecode.LLOAD_2, bytecode.LLOAD_3:
		f.checkLocal(int(op-bytecode.LLOAD_0) + 1)
		f.push2(longType, long2Type)
	case bytecode.FLOAD:
		f.checkLocal(r.Index())
		f.push(floatType)
	case bytecode.FLOAD_0, bytecode.FLOAD_1, bytecode.FLOAD_2, bytecode.FLOAD_3:
		f.checkLocal(int(op - bytecode.FLOAD_0))
		f.push(floatType)
	case bytecode.DLOAD:
		f.checkLocal(r.Index() + 1)
		f.push2(doubleType, double2Type)
	case bytecode.DLOAD_0, bytecode.DLOAD_1, bytecode.DLOAD_2, bytecode.DLOAD_3:
		f.checkLocal(int(op-bytecode.DLOAD_0) + 1)
		f.push2(doubleType, double2Type)
	case bytecode.ALOAD:
		f.push(f.local(r.Index()))
	case bytecode.ALOAD_0, bytecode.ALOAD_1, bytecode.ALOAD_2, bytecode.ALOAD_3:
		f.push(f.local(int(op - bytecode.ALOAD_0)))

	case bytecode.AALOAD:
		f.dec(1)
		arr := f.pop()
		if arr == nullType {
			f.push(nullType)
		} else {
			f.push(arr.component())
		}

	case bytecode.ISTORE:
		f.dec(1)
		f.setLocal(r.Index(), intType)
	case bytecode.ISTORE_0, bytecode.ISTORE_1, bytecode.ISTORE_2, bytecode.ISTORE_3:
		f.dec(1)
		f.setLocal(int(op-bytecode.ISTORE_0), intType)
	case bytecode.LSTORE:
		f.dec(2)
		f.setLocal2(r.Index(), longType, long2Type)
	case bytecode.LSTORE_0, bytecode.LSTORE_1, bytecode.LSTORE_2, bytecode.LSTORE_3:
		f.dec(2)
		f.setLocal2(int(op-bytecode.LSTORE_0), longType, long2Type)
	case bytecode.FSTORE:
		f.dec(1)
		f.setLocal(r.Index(), floatType)
	case bytecode.FSTORE_0, bytecode.FSTORE_1, bytecode.FSTORE_2, bytecode.FSTORE_3:
		f.dec(1)
		f.setLocal(int(op-bytecode.FSTORE_0), floatType)
	case bytecode.DSTORE:
		f.dec(2)
		f.setLocal2(r.Index(), doubleType, double2Type)
	case bytecode.DSTORE_0, bytecode.DSTORE_1, bytecode.DSTORE_2, bytecode.DSTORE_3:
		f.dec(2)
		f.setLocal2(int(op-bytecode.DSTORE_0), doubleType, double2Type)
	case bytecode.ASTORE:
		f.setLocal(r.Index(), f.pop())
	case bytecode.ASTORE_0, bytecode.ASTORE_1, bytecode.ASTORE_2, bytecode.ASTORE_3:
		f.setLocal(int(op-bytecode.ASTORE_0), f.pop())

	case bytecode.DUP:
		t1 := f.pop()
		f.push2(t1, t1)
	case bytecode.DUP_X1:
		t1 := f.pop()
		t2 := f.pop()
		f.push(t1)
		f.push2(t2, t1)
	case bytecode.DUP_X2:
		t1 := f.pop()
		t2 := f.pop()
		t3 := f.pop()
		f.push2(t1, t3)
		f.push2(t2, t1)
	case bytecode.DUP2:
		t1 := f.pop()
		t2 := f.pop()
		f.push2(t2, t1)
		f.push2(t2, t1)
	case bytecode.DUP2_X1:
		t1 := f.pop()
		t2 := f.pop()
		t3 := f.pop()
		f.push2(t2, t1)
		f.push(t3)
		f.push2(t2, t1)
	case bytecode.DUP2_X2:
		t1 := f.pop()
		t2 := f.pop()
		t3 := f.pop()
		t4 := f.pop()
		f.push2(t2, t1)
		f.push2(t4, t3)
		f.push2(t2, t1)
	case bytecode.SWAP:
		t1 := f.pop()
		t2 := f.pop()
		f.push2(t1, t2)

	case bytecode.LDC:
		if err := g.processLdc(r.IndexU1()); err != nil {
			return false, false, err
		}
	case bytecode.LDC_W, bytecode.LDC2_W:
		if err := g.processLdc(r.IndexU2()); err != nil {
			return false, false, err
		}

	case bytecode.IINC:
		f.checkLocal(r.Index())

	case bytecode.IF_ICMPEQ, bytecode.IF_ICMPNE, bytecode.IF_ICMPLT,
		bytecode.IF_ICMPGE, bytecode.IF_ICMPGT, bytecode.IF_ICMPLE,
		bytecode.IF_ACMPEQ, bytecode.IF_ACMPNE:
		f.dec(2)
		if err := g.checkJumpTarget(f, r.Dest()); err != nil {
			return false, false, err
		}
	case bytecode.IFEQ, bytecode.IFNE, bytecode.IFLT, bytecode.IFGE,
		bytecode.IFGT, bytecode.IFLE, bytecode.IFNULL, bytecode.IFNONNULL:
		f.dec(1)
		if err := g.checkJumpTarget(f, r.Dest()); err != nil {
			return false, false, err
		}
	case bytecode.GOTO:
		if err := g.checkJumpTarget(f, r.Dest()); err != nil {
			return false, false, err
		}
		ncf = true
	case bytecode.GOTO_W:
		if err := g.checkJumpTarget(f, r.DestW()); err != nil {
			return false, false, err
		}
		ncf = true

	case bytecode.TABLESWITCH, bytecode.LOOKUPSWITCH:
		if err := g.processSwitch(r); err != nil {
			return false, false, err
		}
		ncf = true

	case bytecode.LRETURN, bytecode.DRETURN:
		f.dec(2)
		ncf = true
	case bytecode.IRETURN, bytecode.FRETURN, bytecode.ARETURN, bytecode.ATHROW:
		f.dec(1)
		ncf = true
	case bytecode.RETURN:
		ncf = true

	case bytecode.GETSTATIC, bytecode.PUTSTATIC, bytecode.GETFIELD, bytecode.PUTFIELD:
		if err := g.processFieldAccess(r); err != nil {
			return false, false, err
		}

	case bytecode.INVOKEVIRTUAL, bytecode.INVOKESPECIAL, bytecode.INVOKESTATIC,
		bytecode.INVOKEINTERFACE, bytecode.INVOKEDYNAMIC:
		var err error
		thisUninit, err = g.processInvoke(r, inTry)
		if err != nil {
			return false, false, err
		}

	case bytecode.NEW:
		f.push(uninitializedType(r.PC()))
	case bytecode.NEWARRAY:
		atype := r.IndexU1()
		if atype < bytecode.TBoolean || atype > bytecode.TLong {
			return false, false, g.fail("illegal newarray instruction")
		}
		f.dec(1)
		f.push(primitiveArrayType(atype))
	case bytecode.ANEWARRAY:
		t, err := g.cpType(r.IndexU2())
		if err != nil {
			return false, false, err
		}
		f.pop()
		f.push(t.toArray())
	case bytecode.CHECKCAST:
		t, err := g.cpType(r.IndexU2())
		if err != nil {
			return false, false, err
		}
		f.dec(1)
		f.push(t)
	case bytecode.MULTIANEWARRAY:
		t, err := g.cpType(r.IndexU2())
		if err != nil {
			return false, false, err
		}
		dims := r.U1At(r.PC() + 3)
		f.dec(dims)
		f.push(t)

	default:
		return false, false, g.failf("bad instruction: 0x%02x", byte(op))
	}

	return thisUninit, ncf, nil
}

// primitiveArrayType maps a newarray atype operand to its array type.
func primitiveArrayType(atype int) Type {
	switch atype {
	case bytecode.TBoolean:
		return referenceType("[Z")
	case bytecode.TChar:
		return referenceType("[C")
	case bytecode.TFloat:
		return referenceType("[F")
	case bytecode.TDouble:
		return referenceType("[D")
	case bytecode.TByte:
		return referenceType("[B")
	case bytecode.TShort:
		return referenceType("[S")
	case bytecode.TInt:
		return referenceType("[I")
	default:
		return referenceType("[J")
	}
}

// cpType resolves a constant-pool class entry to its reference type.
func (g *Generator) cpType(index int) (Type, error) {
	name, ok := g.pool.ClassName(index)
	if !ok {
		return topType, g.failf("bad class index %d", index)
	}

	return referenceType(descriptor.FieldOfInternal(name)), nil
}

// checkJumpTarget merges the frame into the stored frame at target.
func (g *Generator) checkJumpTarget(f *Frame, target int) error {
	for _, stored := range g.frames {
		if stored.offset == target {
			f.checkAssignableTo(stored, g.oracle)
			return nil
		}
	}

	return g.failf("no frame at jump target %d", target)
}

// processHandlerTargets merges the would-be handler entry state into every
// handler covering bci.
func (g *Generator) processHandlerTargets(bci int, thisUninit bool) error {
	f := g.current
	for _, h := range g.handlers.Entries() {
		if !h.Covers(bci) {
			continue
		}
		flags := f.flags
		if thisUninit {
			flags |= flagThisUninit
		}
		catchType := throwableType
		if h.CatchType != 0 {
			t, err := g.cpType(h.CatchType)
			if err != nil {
				return err
			}
			catchType = t
		}
		if err := g.checkJumpTarget(f.exceptionStartFrame(flags, catchType), h.HandlerPC); err != nil {
			return err
		}
	}

	return nil
}

func (g *Generator) processLdc(index int) error {
	f := g.current
	tag, ok := g.pool.Tag(index)
	if !ok {
		return g.failf("invalid index in ldc: %d", index)
	}
	switch tag {
	case constpool.TagUtf8:
		f.push(objectType)
	case constpool.TagString:
		f.push(stringType)
	case constpool.TagClass:
		f.push(classType)
	case constpool.TagInteger:
		f.push(intType)
	case constpool.TagFloat:
		f.push(floatType)
	case constpool.TagLong:
		f.push2(longType, long2Type)
	case constpool.TagDouble:
		f.push2(doubleType, double2Type)
	case constpool.TagMethodHandle:
		f.push(methodHandleType)
	case constpool.TagMethodType:
		f.push(methodTypeType)
	case constpool.TagDynamic:
		desc, ok := g.pool.ConstantType(index)
		if !ok {
			return g.failf("invalid index in ldc: %d", index)
		}
		f.pushField(descriptor.Field(desc))
	default:
		return g.failf("invalid index in ldc: %d", index)
	}

	return nil
}

func (g *Generator) processFieldAccess(r *bytecode.CodeReader) error {
	f := g.current
	index := r.IndexU2()
	desc, ok := g.pool.MemberDescriptor(index)
	if !ok {
		return g.failf("bad field index %d", index)
	}
	field := descriptor.Field(desc)
	wide := field == "J" || field == "D"
	switch r.Opcode() {
	case bytecode.GETSTATIC:
		f.pushField(field)
	case bytecode.PUTSTATIC:
		f.pop()
		if wide {
			f.pop()
		}
	case bytecode.GETFIELD:
		f.pop()
		f.pushField(field)
	case bytecode.PUTFIELD:
		f.pop()
		f.pop()
		if wide {
			f.pop()
		}
	}

	return nil
}

// processInvoke pops arguments and receiver, runs <init> placeholder
// substitution, and pushes the return type. It reports whether the
// receiver of an unfinished <init> got initialized here.
func (g *Generator) processInvoke(r *bytecode.CodeReader, inTry bool) (bool, error) {
	f := g.current
	op := r.Opcode()
	index := r.IndexU2()
	name, okName := g.pool.MemberName(index)
	desc, okDesc := g.pool.MemberDescriptor(index)
	if !okName || !okDesc {
		return false, g.failf("bad method index %d", index)
	}
	mdesc := descriptor.Method(desc)
	nargs, err := mdesc.ArgSlots()
	if err != nil {
		return false, g.failf("bad method descriptor: %s", desc)
	}
	f.dec(nargs)

	thisUninit := false
	if op != bytecode.INVOKESTATIC && op != bytecode.INVOKEDYNAMIC {
		if name == "<init>" {
			t := f.pop()
			switch {
			case t == uninitThisType:
				// Handlers reachable from here must still see the
				// uninitialized receiver.
				if inTry {
					if err := g.processHandlerTargets(r.PC(), true); err != nil {
						return false, err
					}
				}
				f.initializeObject(t, g.thisType)
				thisUninit = true
			case t.tag == tagUninit:
				newType, err := g.cpType(r.U2At(t.offset + 1))
				if err != nil {
					return false, err
				}
				if inTry {
					if err := g.processHandlerTargets(r.PC(), false); err != nil {
						return false, err
					}
				}
				f.initializeObject(t, newType)
			default:
				return false, g.fail("bad operand type when invoking <init>")
			}
		} else {
			f.pop()
		}
	}

	ret, err := mdesc.Return()
	if err != nil {
		return false, g.failf("bad method descriptor: %s", desc)
	}
	f.pushField(ret)

	return thisUninit, nil
}

// processSwitch validates the jump table and merges into every target.
func (g *Generator) processSwitch(r *bytecode.CodeReader) error {
	f := g.current
	bci := r.PC()
	aligned := bytecode.Align4(bci + 1)
	f.dec(1)

	var keys, delta int
	if r.Opcode() == bytecode.TABLESWITCH {
		low := r.S4At(aligned + 4)
		high := r.S4At(aligned + 8)
		if low > high {
			return g.fail("low must be less than or equal to high in tableswitch")
		}
		keys = high - low + 1
		delta = 1
	} else {
		keys = r.S4At(aligned + 4)
		if keys < 0 {
			return g.fail("number of keys in lookupswitch less than 0")
		}
		delta = 2
		for i := 1; i < keys; i++ {
			if r.S4At(aligned+(2+2*i)*4) <= r.S4At(aligned+(2+2*(i-1))*4) {
				return g.fail("bad lookupswitch instruction")
			}
		}
	}
	if err := g.checkJumpTarget(f, bci+r.S4At(aligned)); err != nil {
		return err
	}
	for i := 0; i < keys; i++ {
		if err := g.checkJumpTarget(f, bci+r.S4At(aligned+(3+i*delta)*4)); err != nil {
			return err
		}
	}

	return nil
}

// patchDeadBlocks rewrites every block no execution path reached into
// nop-padding ending in athrow, gives its frame the matching single
// Throwable stack, and excises the block from the exception table.
func (g *Generator) patchDeadBlocks() error {
	for i, fr := range g.frames {
		if fr.flags != -1 {
			continue
		}
		if !g.patchDead {
			return g.failf("unable to generate stack map frame for dead code at offset %d", fr.offset)
		}
		fr.flags = 0
		fr.push(throwableType)
		if g.maxStack < 1 {
			g.maxStack = 1
		}
		end := len(g.code)
		if i+1 < len(g.frames) {
			end = g.frames[i+1].offset
		}
		for pc := fr.offset; pc < end-1; pc++ {
			g.code[pc] = byte(bytecode.NOP)
		}
		g.code[end-1] = byte(bytecode.ATHROW)
		g.handlers.RemoveRange(fr.offset, end)
		log.Debug("patched dead code", "method", g.methodID(),
			"offset", fr.offset, "size", end-fr.offset)
	}

	return nil
}
