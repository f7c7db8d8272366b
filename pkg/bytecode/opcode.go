package bytecode

import "fmt"

// Opcode is a JVM instruction opcode.
type Opcode uint8

// The standard instruction set.
const (
	NOP             Opcode = 0x00
	ACONST_NULL     Opcode = 0x01
	ICONST_M1       Opcode = 0x02
	ICONST_0        Opcode = 0x03
	ICONST_1        Opcode = 0x04
	ICONST_2        Opcode = 0x05
	ICONST_3        Opcode = 0x06
	ICONST_4        Opcode = 0x07
	ICONST_5        Opcode = 0x08
	LCONST_0        Opcode = 0x09
	LCONST_1        Opcode = 0x0a
	FCONST_0        Opcode = 0x0b
	FCONST_1        Opcode = 0x0c
	FCONST_2        Opcode = 0x0d
	DCONST_0        Opcode = 0x0e
	DCONST_1        Opcode = 0x0f
	BIPUSH          Opcode = 0x10
	SIPUSH          Opcode = 0x11
	LDC             Opcode = 0x12
	LDC_W           Opcode = 0x13
	LDC2_W          Opcode = 0x14
	ILOAD           Opcode = 0x15
	LLOAD           Opcode = 0x16
	FLOAD           Opcode = 0x17
	DLOAD           Opcode = 0x18
	ALOAD           Opcode = 0x19
	ILOAD_0         Opcode = 0x1a
	ILOAD_1         Opcode = 0x1b
	ILOAD_2         Opcode = 0x1c
	ILOAD_3         Opcode = 0x1d
	LLOAD_0         Opcode = 0x1e
	LLOAD_1         Opcode = 0x1f
	LLOAD_2         Opcode = 0x20
	LLOAD_3         Opcode = 0x21
	FLOAD_0         Opcode = 0x22
	FLOAD_1         Opcode = 0x23
	FLOAD_2         Opcode = 0x24
	FLOAD_3         Opcode = 0x25
	DLOAD_0         Opcode = 0x26
	DLOAD_1         Opcode = 0x27
	DLOAD_2         Opcode = 0x28
	DLOAD_3         Opcode = 0x29
	ALOAD_0         Opcode = 0x2a
	ALOAD_1         Opcode = 0x2b
	ALOAD_2         Opcode = 0x2c
	ALOAD_3         Opcode = 0x2d
	IALOAD          Opcode = 0x2e
	LALOAD          Opcode = 0x2f
	FALOAD          Opcode = 0x30
	DALOAD          Opcode = 0x31
	AALOAD          Opcode = 0x32
	BALOAD          Opcode = 0x33
	CALOAD          Opcode = 0x34
	SALOAD          Opcode = 0x35
	ISTORE          Opcode = 0x36
	LSTORE          Opcode = 0x37
	FSTORE          Opcode = 0x38
	DSTORE          Opcode = 0x39
	ASTORE          Opcode = 0x3a
	ISTORE_0        Opcode = 0x3b
	ISTORE_1        Opcode = 0x3c
	ISTORE_2        Opcode = 0x3d
	ISTORE_3        Opcode = 0x3e
	LSTORE_0        Opcode = 0x3f
	LSTORE_1        Opcode = 0x40
	LSTORE_2        Opcode = 0x41
	LSTORE_3        Opcode = 0x42
	FSTORE_0        Opcode = 0x43
	FSTORE_1        Opcode = 0x44
	FSTORE_2        Opcode = 0x45
	FSTORE_3        Opcode = 0x46
	DSTORE_0        Opcode = 0x47
	DSTORE_1        Opcode = 0x48
	DSTORE_2        Opcode = 0x49
	DSTORE_3        Opcode = 0x4a
	ASTORE_0        Opcode = 0x4b
	ASTORE_1        Opcode = 0x4c
	ASTORE_2        Opcode = 0x4d
	ASTORE_3        Opcode = 0x4e
	IASTORE         Opcode = 0x4f
	LASTORE         Opcode = 0x50
	FASTORE         Opcode = 0x51
	DASTORE         Opcode = 0x52
	AASTORE         Opcode = 0x53
	BASTORE         Opcode = 0x54
	CASTORE         Opcode = 0x55
	SASTORE         Opcode = 0x56
	POP             Opcode = 0x57
	POP2            Opcode = 0x58
	DUP             Opcode = 0x59
	DUP_X1          Opcode = 0x5a
	DUP_X2          Opcode = 0x5b
	DUP2            Opcode = 0x5c
	DUP2_X1         Opcode = 0x5d
	DUP2_X2         Opcode = 0x5e
	SWAP            Opcode = 0x5f
	IADD            Opcode = 0x60
	LADD            Opcode = 0x61
	FADD            Opcode = 0x62
	DADD            Opcode = 0x63
	ISUB            Opcode = 0x64
	LSUB            Opcode = 0x65
	FSUB            Opcode = 0x66
	DSUB            Opcode = 0x67
	IMUL            Opcode = 0x68
	LMUL            Opcode = 0x69
	FMUL            Opcode = 0x6a
	DMUL            Opcode = 0x6b
	IDIV            Opcode = 0x6c
	LDIV            Opcode = 0x6d
	FDIV            Opcode = 0x6e
	DDIV            Opcode = 0x6f
	IREM            Opcode = 0x70
	LREM            Opcode = 0x71
	FREM            Opcode = 0x72
	DREM            Opcode = 0x73
	INEG            Opcode = 0x74
	LNEG            Opcode = 0x75
	FNEG            Opcode = 0x76
	DNEG            Opcode = 0x77
	ISHL            Opcode = 0x78
	LSHL            Opcode = 0x79
	ISHR            Opcode = 0x7a
	LSHR            Opcode = 0x7b
	IUSHR           Opcode = 0x7c
	LUSHR           Opcode = 0x7d
	IAND            Opcode = 0x7e
	LAND            Opcode = 0x7f
	IOR             Opcode = 0x80
	LOR             Opcode = 0x81
	IXOR            Opcode = 0x82
	LXOR            Opcode = 0x83
	IINC            Opcode = 0x84
	I2L             Opcode = 0x85
	I2F             Opcode = 0x86
	I2D             Opcode = 0x87
	L2I             Opcode = 0x88
	L2F             Opcode = 0x89
	L2D             Opcode = 0x8a
	F2I             Opcode = 0x8b
	F2L             Opcode = 0x8c
	F2D             Opcode = 0x8d
	D2I             Opcode = 0x8e
	D2L             Opcode = 0x8f
	D2F             Opcode = 0x90
	I2B             Opcode = 0x91
	I2C             Opcode = 0x92
	I2S             Opcode = 0x93
	LCMP            Opcode = 0x94
	FCMPL           Opcode = 0x95
	FCMPG           Opcode = 0x96
	DCMPL           Opcode = 0x97
	DCMPG           Opcode = 0x98
	IFEQ            Opcode = 0x99
	IFNE            Opcode = 0x9a
	IFLT            Opcode = 0x9b
	IFGE            Opcode = 0x9c
	IFGT            Opcode = 0x9d
	IFLE            Opcode = 0x9e
	IF_ICMPEQ       Opcode = 0x9f
	IF_ICMPNE       Opcode = 0xa0
	IF_ICMPLT       Opcode = 0xa1
	IF_ICMPGE       Opcode = 0xa2
	IF_ICMPGT       Opcode = 0xa3
	IF_ICMPLE       Opcode = 0xa4
	IF_ACMPEQ       Opcode = 0xa5
	IF_ACMPNE       Opcode = 0xa6
	GOTO            Opcode = 0xa7
	JSR             Opcode = 0xa8
	RET             Opcode = 0xa9
	TABLESWITCH     Opcode = 0xaa
	LOOKUPSWITCH    Opcode = 0xab
	IRETURN         Opcode = 0xac
	LRETURN         Opcode = 0xad
	FRETURN         Opcode = 0xae
	DRETURN         Opcode = 0xaf
	ARETURN         Opcode = 0xb0
	RETURN          Opcode = 0xb1
	GETSTATIC       Opcode = 0xb2
	PUTSTATIC       Opcode = 0xb3
	GETFIELD        Opcode = 0xb4
	PUTFIELD        Opcode = 0xb5
	INVOKEVIRTUAL   Opcode = 0xb6
	INVOKESPECIAL   Opcode = 0xb7
	INVOKESTATIC    Opcode = 0xb8
	INVOKEINTERFACE Opcode = 0xb9
	INVOKEDYNAMIC   Opcode = 0xba
	NEW             Opcode = 0xbb
	NEWARRAY        Opcode = 0xbc
	ANEWARRAY       Opcode = 0xbd
	ARRAYLENGTH     Opcode = 0xbe
	ATHROW          Opcode = 0xbf
	CHECKCAST       Opcode = 0xc0
	INSTANCEOF      Opcode = 0xc1
	MONITORENTER    Opcode = 0xc2
	MONITOREXIT     Opcode = 0xc3
	WIDE            Opcode = 0xc4
	MULTIANEWARRAY  Opcode = 0xc5
	IFNULL          Opcode = 0xc6
	IFNONNULL       Opcode = 0xc7
	GOTO_W          Opcode = 0xc8
	JSR_W           Opcode = 0xc9
)

// Array element type codes carried by the newarray instruction.
const (
	TBoolean = 4
	TChar    = 5
	TFloat   = 6
	TDouble  = 7
	TByte    = 8
	TShort   = 9
	TInt     = 10
	TLong    = 11
)

var opNames = [256]string{
	NOP: "nop", ACONST_NULL: "aconst_null", ICONST_M1: "iconst_m1",
	ICONST_0: "iconst_0", ICONST_1: "iconst_1", ICONST_2: "iconst_2",
	ICONST_3: "iconst_3", ICONST_4: "iconst_4", ICONST_5: "iconst_5",
	LCONST_0: "lconst_0", LCONST_1: "lconst_1",
	FCONST_0: "fconst_0", FCONST_1: "fconst_1", FCONST_2: "fconst_2",
	DCONST_0: "dconst_0", DCONST_1: "dconst_1",
	BIPUSH: "bipush", SIPUSH: "sipush",
	LDC: "ldc", LDC_W: "ldc_w", LDC2_W: "ldc2_w",
	ILOAD: "iload", LLOAD: "lload", FLOAD: "fload", DLOAD: "dload", ALOAD: "aload",
	ILOAD_0: "iload_0", ILOAD_1: "iload_1", ILOAD_2: "iload_2", ILOAD_3: "iload_3",
	LLOAD_0: "lload_0", LLOAD_1: "lload_1", LLOAD_2: "lload_2", LLOAD_3: "lload_3",
	FLOAD_0: "fload_0", FLOAD_1: "fload_1", FLOAD_2: "fload_2", FLOAD_3: "fload_3",
	DLOAD_0: "dload_0", DLOAD_1: "dload_1", DLOAD_2: "dload_2", DLOAD_3: "dload_3",
	ALOAD_0: "aload_0", ALOAD_1: "aload_1", ALOAD_2: "aload_2", ALOAD_3: "aload_3",
	IALOAD: "iaload", LALOAD: "laload", FALOAD: "faload", DALOAD: "daload",
	AALOAD: "aaload", BALOAD: "baload", CALOAD: "caload", SALOAD: "saload",
	ISTORE: "istore", LSTORE: "lstore", FSTORE: "fstore", DSTORE: "dstore", ASTORE: "astore",
	ISTORE_0: "istore_0", ISTORE_1: "istore_1", ISTORE_2: "istore_2", ISTORE_3: "istore_3",
	LSTORE_0: "lstore_0", LSTORE_1: "lstore_1", LSTORE_2: "lstore_2", LSTORE_3: "lstore_3",
	FSTORE_0: "fstore_0", FSTORE_1: "fstore_1", FSTORE_2: "fstore_2", FSTORE_3: "fstore_3",
	DSTORE_0: "dstore_0", DSTORE_1: "dstore_1", DSTORE_2: "dstore_2", DSTORE_3: "dstore_3",
	ASTORE_0: "astore_0", ASTORE_1: "astore_1", ASTORE_2: "astore_2", ASTORE_3: "astore_3",
	IASTORE: "iastore", LASTORE: "lastore", FASTORE: "fastore", DASTORE: "dastore",
	AASTORE: "aastore", BASTORE: "bastore", CASTORE: "castore", SASTORE: "sastore",
	POP: "pop", POP2: "pop2",
	DUP: "dup", DUP_X1: "dup_x1", DUP_X2: "dup_x2",
	DUP2: "dup2", DUP2_X1: "dup2_x1", DUP2_X2: "dup2_x2", SWAP: "swap",
	IADD: "iadd", LADD: "ladd", FADD: "fadd", DADD: "dadd",
	ISUB: "isub", LSUB: "lsub", FSUB: "fsub", DSUB: "dsub",
	IMUL: "imul", LMUL: "lmul", FMUL: "fmul", DMUL: "dmul",
	IDIV: "idiv", LDIV: "ldiv", FDIV: "fdiv", DDIV: "ddiv",
	IREM: "irem", LREM: "lrem", FREM: "frem", DREM: "drem",
	INEG: "ineg", LNEG: "lneg", FNEG: "fneg", DNEG: "dneg",
	ISHL: "ishl", LSHL: "lshl", ISHR: "ishr", LSHR: "lshr",
	IUSHR: "iushr", LUSHR: "lushr",
	IAND: "iand", LAND: "land", IOR: "ior", LOR: "lor", IXOR: "ixor", LXOR: "lxor",
	IINC: "iinc",
	I2L:  "i2l", I2F: "i2f", I2D: "i2d",
	L2I: "l2i", L2F: "l2f", L2D: "l2d",
	F2I: "f2i", F2L: "f2l", F2D: "f2d",
	D2I: "d2i", D2L: "d2l", D2F: "d2f",
	I2B: "i2b", I2C: "i2c", I2S: "i2s",
	LCMP: "lcmp", FCMPL: "fcmpl", FCMPG: "fcmpg", DCMPL: "dcmpl", DCMPG: "dcmpg",
	IFEQ: "ifeq", IFNE: "ifne", IFLT: "iflt", IFGE: "ifge", IFGT: "ifgt", IFLE: "ifle",
	IF_ICMPEQ: "if_icmpeq", IF_ICMPNE: "if_icmpne", IF_ICMPLT: "if_icmplt",
	IF_ICMPGE: "if_icmpge", IF_ICMPGT: "if_icmpgt", IF_ICMPLE: "if_icmple",
	IF_ACMPEQ: "if_acmpeq", IF_ACMPNE: "if_acmpne",
	GOTO: "goto", JSR: "jsr", RET: "ret",
	TABLESWITCH: "tableswitch", LOOKUPSWITCH: "lookupswitch",
	IRETURN: "ireturn", LRETURN: "lreturn", FRETURN: "freturn", DRETURN: "dreturn",
	ARETURN: "areturn", RETURN: "return",
	GETSTATIC: "getstatic", PUTSTATIC: "putstatic",
	GETFIELD: "getfield", PUTFIELD: "putfield",
	INVOKEVIRTUAL: "invokevirtual", INVOKESPECIAL: "invokespecial",
	INVOKESTATIC: "invokestatic", INVOKEINTERFACE: "invokeinterface",
	INVOKEDYNAMIC: "invokedynamic",
	NEW:           "new", NEWARRAY: "newarray", ANEWARRAY: "anewarray",
	ARRAYLENGTH: "arraylength", ATHROW: "athrow",
	CHECKCAST: "checkcast", INSTANCEOF: "instanceof",
	MONITORENTER: "monitorenter", MONITOREXIT: "monitorexit",
	WIDE: "wide", MULTIANEWARRAY: "multianewarray",
	IFNULL: "ifnull", IFNONNULL: "ifnonnull",
	GOTO_W: "goto_w", JSR_W: "jsr_w",
}

// opLengths holds the fixed instruction size per opcode; zero marks the
// variable-length instructions (switches, wide) and undefined opcodes.
var opLengths [256]int

var mnemonics map[string]Opcode

func init() {
	fill := func(from, to Opcode, n int) {
		for op := int(from); op <= int(to); op++ {
			opLengths[op] = n
		}
	}

	fill(NOP, DCONST_1, 1)
	opLengths[BIPUSH] = 2
	opLengths[SIPUSH] = 3
	opLengths[LDC] = 2
	fill(LDC_W, LDC2_W, 3)
	fill(ILOAD, ALOAD, 2)
	fill(ILOAD_0, SALOAD, 1)
	fill(ISTORE, ASTORE, 2)
	fill(ISTORE_0, SASTORE, 1)
	fill(POP, LXOR, 1)
	opLengths[IINC] = 3
	fill(I2L, DCMPG, 1)
	fill(IFEQ, JSR, 3)
	opLengths[RET] = 2
	fill(IRETURN, RETURN, 1)
	fill(GETSTATIC, INVOKESTATIC, 3)
	opLengths[INVOKEINTERFACE] = 5
	opLengths[INVOKEDYNAMIC] = 5
	opLengths[NEW] = 3
	opLengths[NEWARRAY] = 2
	opLengths[ANEWARRAY] = 3
	fill(ARRAYLENGTH, ATHROW, 1)
	fill(CHECKCAST, INSTANCEOF, 3)
	fill(MONITORENTER, MONITOREXIT, 1)
	opLengths[MULTIANEWARRAY] = 4
	fill(IFNULL, IFNONNULL, 3)
	opLengths[GOTO_W] = 5
	opLengths[JSR_W] = 5

	mnemonics = make(map[string]Opcode, 256)
	for op, name := range opNames {
		if name != "" {
			mnemonics[name] = Opcode(op)
		}
	}
}

// String returns the lowercase mnemonic of the opcode.
func (op Opcode) String() string {
	if name := opNames[op]; name != "" {
		return name
	}

	return fmt.Sprintf("0x%02x", byte(op))
}

// ByMnemonic resolves a lowercase mnemonic to its opcode.
func ByMnemonic(name string) (Opcode, bool) {
	op, ok := mnemonics[name]
	return op, ok
}

// IsStoreIntoLocal reports whether the opcode writes a local variable slot.
func (op Opcode) IsStoreIntoLocal() bool {
	return op >= ISTORE && op <= ASTORE_3
}

// Defined reports whether the opcode belongs to the standard instruction set.
func (op Opcode) Defined() bool {
	return opNames[op] != ""
}
