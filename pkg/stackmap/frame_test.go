package stackmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classfile/pkg/bytecode"
	"classfile/pkg/constpool"
	"classfile/pkg/descriptor"
)

func TestFrameInitLocalsStatic(t *testing.T) {
	f := newFrame(-1)
	f.initLocalsFromArgs("main", []descriptor.Field{"[Ljava/lang/String;"}, true, referenceType("Lcom/example/Main;"))
	require.Equal(t, 1, f.localsSize)
	assert.Equal(t, referenceType("[Ljava/lang/String;"), f.locals[0])
}

func TestFrameInitLocalsInstance(t *testing.T) {
	f := newFrame(-1)
	this := referenceType("Lcom/example/Main;")
	f.initLocalsFromArgs("run", []descriptor.Field{"J", "Z"}, false, this)
	require.Equal(t, 4, f.localsSize)
	assert.Equal(t, this, f.locals[0])
	assert.Equal(t, longType, f.locals[1])
	assert.Equal(t, long2Type, f.locals[2])
	assert.Equal(t, intType, f.locals[3])
}

func TestFrameInitLocalsConstructor(t *testing.T) {
	f := newFrame(-1)
	f.flags = 0
	f.initLocalsFromArgs("<init>", nil, false, referenceType("Lcom/example/Point;"))
	require.Equal(t, 1, f.localsSize)
	assert.Equal(t, uninitThisType, f.locals[0])
	assert.NotZero(t, f.flags&flagThisUninit)

	// Object's own constructor has no one above it to call first.
	g := newFrame(-1)
	g.flags = 0
	g.initLocalsFromArgs("<init>", nil, false, objectType)
	assert.Equal(t, objectType, g.locals[0])
	assert.Zero(t, g.flags&flagThisUninit)
}

func TestFrameStackUnderflow(t *testing.T) {
	f := newFrame(0)
	got := f.pop()
	assert.Equal(t, topType, got)
	require.Error(t, f.err)
	assert.Contains(t, f.err.Error(), "underflow")

	g := newFrame(0)
	g.push(intType)
	g.dec(2)
	require.Error(t, g.err)
	assert.Equal(t, 0, g.stackSize)
}

func TestFrameSetLocalInvalidatesPair(t *testing.T) {
	f := newFrame(0)
	f.setLocal2(0, longType, long2Type)
	require.Equal(t, 2, f.localsSize)
	f.setLocal(1, intType)
	assert.Equal(t, topType, f.locals[0])
	assert.Equal(t, intType, f.locals[1])

	g := newFrame(0)
	g.setLocal2(0, doubleType, double2Type)
	g.setLocal(0, floatType)
	assert.Equal(t, floatType, g.locals[0])
	assert.Equal(t, topType, g.locals[1])
}

func TestFrameTrimAndCompress(t *testing.T) {
	f := newFrame(10)
	f.locals = []Type{intType, longType, long2Type, topType, topType}
	f.localsSize = 5
	f.stack = []Type{doubleType, double2Type, stringType}
	f.stackSize = 3

	f.trimAndCompress()
	assert.Equal(t, []Type{intType, longType}, f.Locals())
	assert.Equal(t, []Type{doubleType, stringType}, f.Stack())
}

func TestFrameCopyFromWatermarks(t *testing.T) {
	src := newFrame(8)
	src.flags = 0
	src.locals = []Type{intType, intType}
	src.localsSize = 2
	src.stack = []Type{stringType}
	src.stackSize = 1

	f := newFrame(-1)
	f.copyFrom(src)
	assert.Equal(t, 2, f.frameMaxLocals)
	assert.Equal(t, 1, f.frameMaxStack)
	assert.Equal(t, []Type{intType, intType}, f.Locals())
	assert.Equal(t, []Type{stringType}, f.Stack())
	assert.Equal(t, 0, f.flags)
}

func TestFrameMergeClonesUnreachedTarget(t *testing.T) {
	oracle := builtinOracle()
	f := newFrame(5)
	f.flags = 0
	f.locals = []Type{intType, stringType}
	f.localsSize = 2
	f.stack = []Type{nullType}
	f.stackSize = 1

	target := newFrame(20)
	f.checkAssignableTo(target, oracle)
	assert.True(t, target.dirty)
	assert.Equal(t, 0, target.flags)
	assert.Equal(t, []Type{intType, stringType}, target.Locals())
	assert.Equal(t, []Type{nullType}, target.Stack())
}

func TestFrameMergeTruncatesLocals(t *testing.T) {
	oracle := builtinOracle()
	target := newFrame(20)
	target.flags = 0
	target.locals = []Type{intType, intType, intType}
	target.localsSize = 3

	f := newFrame(5)
	f.flags = 0
	f.locals = []Type{intType}
	f.localsSize = 1

	f.checkAssignableTo(target, oracle)
	assert.True(t, target.dirty)
	assert.Equal(t, []Type{intType}, target.Locals())
}

func TestFrameMergeNoChangeStaysClean(t *testing.T) {
	oracle := builtinOracle()
	target := newFrame(20)
	target.flags = 0
	target.locals = []Type{intType}
	target.localsSize = 1

	f := newFrame(5)
	f.flags = 0
	f.locals = []Type{intType, stringType}
	f.localsSize = 2

	// Extra incoming locals beyond the target's size do not widen it.
	f.checkAssignableTo(target, oracle)
	assert.False(t, target.dirty)
	assert.Equal(t, []Type{intType}, target.Locals())
}

func TestFrameExceptionStart(t *testing.T) {
	f := newFrame(7)
	f.flags = 0
	f.locals = []Type{intType}
	f.localsSize = 1
	f.stack = []Type{stringType, intType}
	f.stackSize = 2

	h := f.exceptionStartFrame(flagThisUninit, throwableType)
	assert.Equal(t, 7, h.offset)
	assert.Equal(t, flagThisUninit, h.flags)
	assert.Equal(t, []Type{intType}, h.Locals())
	assert.Equal(t, []Type{throwableType}, h.Stack())
}

func TestFrameInitializeObject(t *testing.T) {
	u := uninitializedType(4)
	point := referenceType("Lcom/example/Point;")
	f := newFrame(0)
	f.flags = 0
	f.locals = []Type{u, intType}
	f.localsSize = 2
	f.stack = []Type{u, u}
	f.stackSize = 2

	f.initializeObject(u, point)
	assert.Equal(t, []Type{point, intType}, f.Locals())
	assert.Equal(t, []Type{point, point}, f.Stack())
}

func TestFrameWriteToChop(t *testing.T) {
	pool := constpool.NewBuilder()
	prev := newFrame(-1)
	prev.locals = []Type{intType, intType, intType}
	prev.localsSize = 3

	f := newFrame(70)
	f.locals = []Type{intType}
	f.localsSize = 1

	w := &bytecode.Writer{}
	f.writeTo(w, prev, pool)
	assert.Equal(t, []byte{249, 0, 70}, w.Bytes())
}

func TestFrameWriteToSameExtended(t *testing.T) {
	pool := constpool.NewBuilder()
	prev := newFrame(-1)
	prev.locals = []Type{intType}
	prev.localsSize = 1

	f := newFrame(100)
	f.locals = []Type{intType}
	f.localsSize = 1

	w := &bytecode.Writer{}
	f.writeTo(w, prev, pool)
	assert.Equal(t, []byte{251, 0, 100}, w.Bytes())
}

func TestFrameWriteToOneStackExtended(t *testing.T) {
	pool := constpool.NewBuilder()
	prev := newFrame(-1)
	f := newFrame(80)
	f.stack = []Type{intType}
	f.stackSize = 1

	w := &bytecode.Writer{}
	f.writeTo(w, prev, pool)
	assert.Equal(t, []byte{247, 0, 80, 1}, w.Bytes())
}

func TestFrameWriteToFull(t *testing.T) {
	pool := constpool.NewBuilder()
	prev := newFrame(-1)
	prev.locals = []Type{intType}
	prev.localsSize = 1

	f := newFrame(5)
	f.locals = []Type{stringType}
	f.localsSize = 1
	f.stack = []Type{uninitializedType(2), intType}
	f.stackSize = 2

	w := &bytecode.Writer{}
	f.writeTo(w, prev, pool)

	idx := pool.Class("java/lang/String")
	assert.Equal(t, []byte{
		255, 0, 5,
		0, 1, tagObject, 0, byte(idx),
		0, 2, tagUninit, 0, 2, tagInteger,
	}, w.Bytes())
}
