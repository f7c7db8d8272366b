package stackmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classfile/pkg/bytecode"
	"classfile/pkg/constpool"
)

func TestWriteAttributeLayout(t *testing.T) {
	code := []byte{
		byte(bytecode.ICONST_0),
		byte(bytecode.POP),
		byte(bytecode.RETURN),
	}
	g := New(Config{
		ThisClass:  "Lcom/example/Main;",
		MethodName: "run",
		MethodDesc: "()V",
		Static:     true,
		Code:       code,
	})
	require.NoError(t, g.Generate())

	pool := constpool.NewBuilder()
	w := &bytecode.Writer{}
	g.WriteAttribute(w, pool)

	name := pool.Utf8("StackMapTable")
	assert.Equal(t, 1, name)
	assert.Equal(t, []byte{0, 1, 0, 0, 0, 2, 0, 0}, w.Bytes())
}

func TestReadTableRoundTripFull(t *testing.T) {
	pool := constpool.NewBuilder()
	s := pool.String("x")
	code := []byte{
		byte(bytecode.ILOAD_0),      // 0
		byte(bytecode.IFEQ), 0, 8,   // 1 -> 9
		byte(bytecode.LDC), byte(s), // 4
		byte(bytecode.GOTO), 0, 5, // 6 -> 11
		byte(bytecode.ACONST_NULL), // 9
		byte(bytecode.NOP),         // 10
		byte(bytecode.POP),         // 11
		byte(bytecode.RETURN),      // 12
	}
	cfg := Config{
		ThisClass:  "Lcom/example/Main;",
		MethodName: "pick",
		MethodDesc: "(Z)V",
		Static:     true,
		Code:       code,
		Pool:       pool,
	}
	g := New(cfg)
	require.NoError(t, g.Generate())

	frames, err := ReadTable(g.AttributeBody(pool), cfg)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, 9, frames[0].Offset())
	assert.Empty(t, frames[0].Stack())
	assert.Equal(t, 11, frames[1].Offset())
	assert.Equal(t, []Type{stringType}, frames[1].Stack())
}

func TestReadTableBadFrameType(t *testing.T) {
	cfg := Config{
		ThisClass:  "Lcom/example/Main;",
		MethodName: "run",
		MethodDesc: "()V",
		Static:     true,
	}
	_, err := ReadTable([]byte{0, 1, 200}, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad frame type")
}

func TestReadTableTruncated(t *testing.T) {
	cfg := Config{
		ThisClass:  "Lcom/example/Main;",
		MethodName: "run",
		MethodDesc: "()V",
		Static:     true,
	}
	_, err := ReadTable([]byte{0, 1}, cfg)
	assert.ErrorIs(t, err, errTableTruncated)

	// Frame type 64 promises one stack entry that never follows.
	_, err = ReadTable([]byte{0, 1, 64}, cfg)
	assert.ErrorIs(t, err, errTableTruncated)
}

func TestReadTableTrailingBytes(t *testing.T) {
	cfg := Config{
		ThisClass:  "Lcom/example/Main;",
		MethodName: "run",
		MethodDesc: "()V",
		Static:     true,
	}
	_, err := ReadTable([]byte{0, 0, 9}, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trailing")
}

func TestReadTableChopUnderflow(t *testing.T) {
	cfg := Config{
		ThisClass:  "Lcom/example/Main;",
		MethodName: "run",
		MethodDesc: "()V",
		Static:     true,
	}
	_, err := ReadTable([]byte{0, 1, 248, 0, 0}, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chop frame removes")
}
