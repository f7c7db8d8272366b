package stackmap

import "classfile/pkg/bytecode"

// effect is the fixed stack action of an opcode: pop that many slots, then
// push the listed types in order. Opcodes whose effect depends on operands,
// locals or the constant pool are dispatched separately.
type effect struct {
	pop  int
	push []Type
}

var (
	pushInt    = []Type{intType}
	pushFloat  = []Type{floatType}
	pushLong   = []Type{longType, long2Type}
	pushDouble = []Type{doubleType, double2Type}
	pushNull   = []Type{nullType}
)

var effects = map[bytecode.Opcode]effect{
	bytecode.NOP: {},

	bytecode.ACONST_NULL: {push: pushNull},
	bytecode.ICONST_M1:   {push: pushInt},
	bytecode.ICONST_0:    {push: pushInt},
	bytecode.ICONST_1:    {push: pushInt},
	bytecode.ICONST_2:    {push: pushInt},
	bytecode.ICONST_3:    {push: pushInt},
	bytecode.ICONST_4:    {push: pushInt},
	bytecode.ICONST_5:    {push: pushInt},
	bytecode.LCONST_0:    {push: pushLong},
	bytecode.LCONST_1:    {push: pushLong},
	bytecode.FCONST_0:    {push: pushFloat},
	bytecode.FCONST_1:    {push: pushFloat},
	bytecode.FCONST_2:    {push: pushFloat},
	bytecode.DCONST_0:    {push: pushDouble},
	bytecode.DCONST_1:    {push: pushDouble},
	bytecode.BIPUSH:      {push: pushInt},
	bytecode.SIPUSH:      {push: pushInt},

	bytecode.IALOAD: {pop: 2, push: pushInt},
	bytecode.BALOAD: {pop: 2, push: pushInt},
	bytecode.CALOAD: {pop: 2, push: pushInt},
	bytecode.SALOAD: {pop: 2, push: pushInt},
	bytecode.LALOAD: {pop: 2, push: pushLong},
	bytecode.FALOAD: {pop: 2, push: pushFloat},
	bytecode.DALOAD: {pop: 2, push: pushDouble},

	bytecode.IASTORE: {pop: 3},
	bytecode.BASTORE: {pop: 3},
	bytecode.CASTORE: {pop: 3},
	bytecode.SASTORE: {pop: 3},
	bytecode.FASTORE: {pop: 3},
	bytecode.AASTORE: {pop: 3},
	bytecode.LASTORE: {pop: 4},
	bytecode.DASTORE: {pop: 4},

	bytecode.POP:          {pop: 1},
	bytecode.POP2:         {pop: 2},
	bytecode.MONITORENTER: {pop: 1},
	bytecode.MONITOREXIT:  {pop: 1},

	bytecode.IADD:  {pop: 2, push: pushInt},
	bytecode.ISUB:  {pop: 2, push: pushInt},
	bytecode.IMUL:  {pop: 2, push: pushInt},
	bytecode.IDIV:  {pop: 2, push: pushInt},
	bytecode.IREM:  {pop: 2, push: pushInt},
	bytecode.ISHL:  {pop: 2, push: pushInt},
	bytecode.ISHR:  {pop: 2, push: pushInt},
	bytecode.IUSHR: {pop: 2, push: pushInt},
	bytecode.IAND:  {pop: 2, push: pushInt},
	bytecode.IOR:   {pop: 2, push: pushInt},
	bytecode.IXOR:  {pop: 2, push: pushInt},
	bytecode.INEG:  {pop: 1, push: pushInt},

	bytecode.LADD: {pop: 4, push: pushLong},
	bytecode.LSUB: {pop: 4, push: pushLong},
	bytecode.LMUL: {pop: 4, push: pushLong},
	bytecode.LDIV: {pop: 4, push: pushLong},
	bytecode.LREM: {pop: 4, push: pushLong},
	bytecode.LAND: {pop: 4, push: pushLong},
	bytecode.LOR:  {pop: 4, push: pushLong},
	bytecode.LXOR: {pop: 4, push: pushLong},
	bytecode.LNEG: {pop: 2, push: pushLong},
	// Long shifts take an int shift count above the two long slots.
	bytecode.LSHL:  {pop: 3, push: pushLong},
	bytecode.LSHR:  {pop: 3, push: pushLong},
	bytecode.LUSHR: {pop: 3, push: pushLong},

	bytecode.FADD: {pop: 2, push: pushFloat},
	bytecode.FSUB: {pop: 2, push: pushFloat},
	bytecode.FMUL: {pop: 2, push: pushFloat},
	bytecode.FDIV: {pop: 2, push: pushFloat},
	bytecode.FREM: {pop: 2, push: pushFloat},
	bytecode.FNEG: {pop: 1, push: pushFloat},

	bytecode.DADD: {pop: 4, push: pushDouble},
	bytecode.DSUB: {pop: 4, push: pushDouble},
	bytecode.DMUL: {pop: 4, push: pushDouble},
	bytecode.DDIV: {pop: 4, push: pushDouble},
	bytecode.DREM: {pop: 4, push: pushDouble},
	bytecode.DNEG: {pop: 2, push: pushDouble},

	bytecode.I2L: {pop: 1, push: pushLong},
	bytecode.I2F: {pop: 1, push: pushFloat},
	bytecode.I2D: {pop: 1, push: pushDouble},
	bytecode.L2I: {pop: 2, push: pushInt},
	bytecode.L2F: {pop: 2, push: pushFloat},
	bytecode.L2D: {pop: 2, push: pushDouble},
	bytecode.F2I: {pop: 1, push: pushInt},
	bytecode.F2L: {pop: 1, push: pushLong},
	bytecode.F2D: {pop: 1, push: pushDouble},
	bytecode.D2I: {pop: 2, push: pushInt},
	bytecode.D2L: {pop: 2, push: pushLong},
	bytecode.D2F: {pop: 2, push: pushFloat},
	bytecode.I2B: {pop: 1, push: pushInt},
	bytecode.I2C: {pop: 1, push: pushInt},
	bytecode.I2S: {pop: 1, push: pushInt},

	bytecode.LCMP:  {pop: 4, push: pushInt},
	bytecode.FCMPL: {pop: 2, push: pushInt},
	bytecode.FCMPG: {pop: 2, push: pushInt},
	bytecode.DCMPL: {pop: 4, push: pushInt},
	bytecode.DCMPG: {pop: 4, push: pushInt},

	bytecode.ARRAYLENGTH: {pop: 1, push: pushInt},
	bytecode.INSTANCEOF:  {pop: 1, push: pushInt},
}
