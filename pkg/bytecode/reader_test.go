package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderWalksFixedLengths(t *testing.T) {
	code := []byte{
		byte(ICONST_1),
		byte(ISTORE_1),
		byte(BIPUSH), 5,
		byte(SIPUSH), 1, 0,
		byte(IF_ICMPLT), 0xff, 0xf9,
		byte(RETURN),
	}

	r := NewCodeReader(code)
	var pcs []int
	var ops []Opcode
	for r.Next() {
		pcs = append(pcs, r.PC())
		ops = append(ops, r.Opcode())
	}

	require.NoError(t, r.Err())
	assert.Equal(t, []int{0, 1, 2, 4, 7, 10}, pcs)
	assert.Equal(t, []Opcode{ICONST_1, ISTORE_1, BIPUSH, SIPUSH, IF_ICMPLT, RETURN}, ops)
}

func TestReaderBranchDest(t *testing.T) {
	code := []byte{
		byte(NOP),
		byte(IFEQ), 0x00, 0x04,
		byte(GOTO), 0xff, 0xfd,
		byte(RETURN),
	}

	r := NewCodeReader(code)
	require.True(t, r.Next())
	require.True(t, r.Next())
	assert.Equal(t, IFEQ, r.Opcode())
	assert.Equal(t, 5, r.Dest())

	require.True(t, r.Next())
	assert.Equal(t, GOTO, r.Opcode())
	assert.Equal(t, 1, r.Dest())
}

func TestReaderWide(t *testing.T) {
	code := []byte{
		byte(WIDE), byte(ILOAD), 0x01, 0x2c,
		byte(WIDE), byte(IINC), 0x01, 0x2c, 0xff, 0xfe,
		byte(RETURN),
	}

	r := NewCodeReader(code)
	require.True(t, r.Next())
	assert.Equal(t, ILOAD, r.Opcode())
	assert.True(t, r.Wide())
	assert.Equal(t, 300, r.Index())
	assert.Equal(t, 4, r.NextPC())

	require.True(t, r.Next())
	assert.Equal(t, IINC, r.Opcode())
	assert.True(t, r.Wide())
	assert.Equal(t, 300, r.Index())
	assert.Equal(t, -2, r.IncConst())
	assert.Equal(t, 10, r.NextPC())

	require.True(t, r.Next())
	assert.Equal(t, RETURN, r.Opcode())
	assert.False(t, r.Wide())
	assert.False(t, r.Next())
	require.NoError(t, r.Err())
}

func TestReaderSwitchPadding(t *testing.T) {
	// the switch payload is aligned relative to the instruction offset,
	// so shift it through all four phases with leading nops
	for lead := 0; lead < 4; lead++ {
		a := NewAssembler()
		for i := 0; i < lead; i++ {
			a.Op(NOP)
		}
		def := a.Label()
		c := a.Label()
		a.TableSwitch(def, 7, c)
		a.Mark(c)
		a.Op(NOP)
		a.Mark(def)
		a.Op(RETURN)

		code, _, err := a.Finish()
		require.NoError(t, err)

		r := NewCodeReader(code)
		for i := 0; i < lead; i++ {
			require.True(t, r.Next())
			require.Equal(t, NOP, r.Opcode())
		}
		require.True(t, r.Next(), "lead %d", lead)
		assert.Equal(t, TABLESWITCH, r.Opcode())
		assert.Equal(t, lead, r.PC())

		pad := (4 - (lead+1)%4) % 4
		assert.Equal(t, lead+1+pad+16, r.NextPC(), "lead %d", lead)

		require.True(t, r.Next())
		assert.Equal(t, NOP, r.Opcode())
		require.True(t, r.Next())
		assert.Equal(t, RETURN, r.Opcode())
		require.NoError(t, r.Err())
	}
}

func TestReaderTruncated(t *testing.T) {
	r := NewCodeReader([]byte{byte(BIPUSH)})
	assert.False(t, r.Next())
	assert.ErrorIs(t, r.Err(), ErrTruncated)

	r = NewCodeReader([]byte{byte(WIDE), byte(NEW)})
	assert.False(t, r.Next())
	assert.ErrorIs(t, r.Err(), ErrBadWide)

	r = NewCodeReader([]byte{byte(TABLESWITCH), 0, 0, 0})
	assert.False(t, r.Next())
	assert.ErrorIs(t, r.Err(), ErrTruncated)
}

func TestReaderSeekNext(t *testing.T) {
	code := []byte{byte(ICONST_0), byte(ICONST_1), byte(ICONST_2), byte(RETURN)}
	r := NewCodeReader(code)
	require.True(t, r.Next())
	assert.Equal(t, 0, r.PC())

	r.SeekNext(2)
	require.True(t, r.Next())
	assert.Equal(t, 2, r.PC())
	assert.Equal(t, ICONST_2, r.Opcode())
}

func TestReaderUndefinedOpcodeSingleByte(t *testing.T) {
	code := []byte{0xcb, byte(RETURN)}
	r := NewCodeReader(code)
	require.True(t, r.Next())
	assert.False(t, r.Opcode().Defined())
	assert.Equal(t, 1, r.NextPC())
}

func TestAlign4(t *testing.T) {
	assert.Equal(t, 0, Align4(0))
	assert.Equal(t, 4, Align4(1))
	assert.Equal(t, 4, Align4(3))
	assert.Equal(t, 4, Align4(4))
	assert.Equal(t, 8, Align4(5))
}
