// Package stackmap computes StackMapTable frames for JVM method bodies: it
// abstractly interprets the bytecode over the verification type lattice,
// iterates branch-target frames to a fixed point, patches unreachable code,
// and serializes the frames in the compressed delta encoding.
package stackmap

import (
	"fmt"

	"classfile/pkg/bytecode"
	"classfile/pkg/constpool"
	"classfile/pkg/descriptor"
	"classfile/pkg/hierarchy"
)

// Verification type tags. The first nine are the attribute encoding; the
// rest exist only inside the generator and never reach serialized frames.
const (
	tagTop        = 0
	tagInteger    = 1
	tagFloat      = 2
	tagDouble     = 3
	tagLong       = 4
	tagNull       = 5
	tagUninitThis = 6
	tagObject     = 7
	tagUninit     = 8

	tagBoolean = 9
	tagByte    = 10
	tagShort   = 11
	tagChar    = 12
	tagLong2   = 13
	tagDouble2 = 14
)

// Type is one verification type. It is a comparable value: two types are the
// same lattice point exactly when they are ==.
type Type struct {
	tag    uint8
	sym    descriptor.Field // object types only
	offset int              // uninitialized types: bci of the new instruction
}

var (
	topType        = Type{tag: tagTop}
	intType        = Type{tag: tagInteger}
	floatType      = Type{tag: tagFloat}
	doubleType     = Type{tag: tagDouble}
	longType       = Type{tag: tagLong}
	nullType       = Type{tag: tagNull}
	uninitThisType = Type{tag: tagUninitThis}
	long2Type      = Type{tag: tagLong2}
	double2Type    = Type{tag: tagDouble2}
	booleanType    = Type{tag: tagBoolean}
	byteType       = Type{tag: tagByte}
	shortType      = Type{tag: tagShort}
	charType       = Type{tag: tagChar}

	objectType       = referenceType(descriptor.Object)
	throwableType    = referenceType(descriptor.Throwable)
	stringType       = referenceType(descriptor.String)
	classType        = referenceType(descriptor.Class)
	methodHandleType = referenceType(descriptor.MethodHandle)
	methodTypeType   = referenceType(descriptor.MethodType)
)

func referenceType(sym descriptor.Field) Type {
	return Type{tag: tagObject, sym: sym}
}

func uninitializedType(offset int) Type {
	return Type{tag: tagUninit, offset: offset}
}

func (t Type) isCategory2Second() bool {
	return t.tag == tagLong2 || t.tag == tagDouble2
}

func (t Type) isReference() bool {
	return t.tag == tagObject || t.tag == tagNull
}

func (t Type) isObject() bool {
	return t.tag == tagObject && t.sym.IsClassOrInterface()
}

func (t Type) isArray() bool {
	return t.tag == tagObject && t.sym.IsArray()
}

// mergeFrom widens t to cover an incoming from. TOP is absorbing, equal
// types are fixed points, the subword types accept INTEGER, and reference
// pairs widen through the class hierarchy. Everything else collapses to TOP.
func (t Type) mergeFrom(from Type, oracle *hierarchy.Oracle) Type {
	if t == topType || t == from {
		return t
	}
	switch t.tag {
	case tagBoolean, tagByte, tagChar, tagShort:
		if from.tag == tagInteger {
			return t
		}
		return topType
	default:
		if t.isReference() && from.isReference() {
			return t.mergeReferenceFrom(from, oracle)
		}
		return topType
	}
}

// mergeComponentFrom is mergeFrom for array components, where the subword
// types have exact array carriers and so never widen.
func (t Type) mergeComponentFrom(from Type, oracle *hierarchy.Oracle) Type {
	if t == topType || t == from {
		return t
	}
	switch t.tag {
	case tagBoolean, tagByte, tagChar, tagShort:
		return topType
	default:
		if t.isReference() && from.isReference() {
			return t.mergeReferenceFrom(from, oracle)
		}
		return topType
	}
}

func (t Type) mergeReferenceFrom(from Type, oracle *hierarchy.Oracle) Type {
	if from == nullType {
		return t
	}
	if t == nullType {
		return from
	}
	if t.sym == from.sym {
		return t
	}
	if t.isObject() {
		if t.sym == descriptor.Object {
			return t
		}
		if oracle.IsInterface(t.sym) {
			// Interfaces absorb any class and the two array supertypes.
			if !from.isArray() || t.sym == descriptor.Cloneable || t.sym == descriptor.Serializable {
				return t
			}
		} else if from.isObject() {
			if anc, ok := oracle.CommonAncestor(t.sym, from.sym); ok {
				return referenceType(anc)
			}
			return t
		}
	} else if t.isArray() && from.isArray() {
		compT := t.component()
		compFrom := from.component()
		if compT != topType && compFrom != topType {
			return compT.mergeComponentFrom(compFrom, oracle).toArray()
		}
	}

	return objectType
}

// toArray lifts a component type to its array type.
func (t Type) toArray() Type {
	switch t.tag {
	case tagBoolean:
		return referenceType("[Z")
	case tagByte:
		return referenceType("[B")
	case tagChar:
		return referenceType("[C")
	case tagShort:
		return referenceType("[S")
	case tagInteger:
		return referenceType("[I")
	case tagLong:
		return referenceType("[J")
	case tagFloat:
		return referenceType("[F")
	case tagDouble:
		return referenceType("[D")
	case tagObject:
		return referenceType(t.sym.ArrayOf())
	default:
		return objectType
	}
}

// component returns the element type of an array type, TOP otherwise.
func (t Type) component() Type {
	if !t.isArray() {
		return topType
	}
	comp := t.sym.Component()
	if comp.IsPrimitive() {
		switch comp[0] {
		case 'Z':
			return booleanType
		case 'B':
			return byteType
		case 'C':
			return charType
		case 'S':
			return shortType
		case 'I':
			return intType
		case 'J':
			return longType
		case 'F':
			return floatType
		case 'D':
			return doubleType
		default:
			return topType
		}
	}

	return referenceType(comp)
}

func (t Type) writeTo(w *bytecode.Writer, pool *constpool.Builder) {
	w.U1(int(t.tag))
	switch t.tag {
	case tagObject:
		w.U2(pool.Class(t.sym.Internal()))
	case tagUninit:
		w.U2(t.offset)
	}
}

func (t Type) String() string {
	switch t.tag {
	case tagTop:
		return "top"
	case tagInteger:
		return "int"
	case tagFloat:
		return "float"
	case tagDouble:
		return "double"
	case tagLong:
		return "long"
	case tagNull:
		return "null"
	case tagUninitThis:
		return "uninitializedThis"
	case tagObject:
		return t.sym.Internal()
	case tagUninit:
		return fmt.Sprintf("uninitialized@%d", t.offset)
	case tagBoolean:
		return "boolean"
	case tagByte:
		return "byte"
	case tagShort:
		return "short"
	case tagChar:
		return "char"
	case tagLong2:
		return "long2"
	case tagDouble2:
		return "double2"
	default:
		return fmt.Sprintf("type#%d", t.tag)
	}
}
