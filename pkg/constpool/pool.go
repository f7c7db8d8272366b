// Package constpool models the class-file constant pool: a Builder that
// interns entries the way a compiler emits them, and the Reader capability
// the frame generator consumes.
package constpool

import "math"

// Tag identifies a constant-pool entry kind.
type Tag uint8

const (
	TagUtf8               Tag = 1
	TagInteger            Tag = 3
	TagFloat              Tag = 4
	TagLong               Tag = 5
	TagDouble             Tag = 6
	TagClass              Tag = 7
	TagString             Tag = 8
	TagFieldRef           Tag = 9
	TagMethodRef          Tag = 10
	TagInterfaceMethodRef Tag = 11
	TagNameAndType        Tag = 12
	TagMethodHandle       Tag = 15
	TagMethodType         Tag = 16
	TagDynamic            Tag = 17
	TagInvokeDynamic      Tag = 18
)

// Reader is the read capability a pool must offer the frame generator.
// Every accessor reports false when the index does not hold a suitable entry.
type Reader interface {
	Tag(index int) (Tag, bool)
	ClassName(index int) (string, bool)        // Class entries, internal form
	MemberName(index int) (string, bool)       // ref entries via NameAndType
	MemberDescriptor(index int) (string, bool) // ref entries via NameAndType
	ConstantType(index int) (string, bool)     // Dynamic entries, field descriptor
}

// entry is one pool slot. ref1/ref2 hold entry indices for reference kinds,
// the MethodHandle kind, or the bootstrap-method index; str holds Utf8 text
// and num the raw bits of numeric constants.
type entry struct {
	tag  Tag
	ref1 int
	ref2 int
	str  string
	num  uint64
}

// Builder is an in-memory constant pool with deduplicating interning.
// Index 0 is reserved, and long/double entries occupy two slots.
type Builder struct {
	entries []entry
	lookup  map[entry]int
}

// NewBuilder returns an empty pool.
func NewBuilder() *Builder {
	return &Builder{
		entries: make([]entry, 1),
		lookup:  make(map[entry]int),
	}
}

// Len returns the number of pool slots, counting the reserved zero slot and
// the phantom second slot of every long and double.
func (b *Builder) Len() int {
	return len(b.entries)
}

func (b *Builder) intern(e entry) int {
	if index, ok := b.lookup[e]; ok {
		return index
	}
	index := len(b.entries)
	b.entries = append(b.entries, e)
	b.lookup[e] = index
	if e.tag == TagLong || e.tag == TagDouble {
		b.entries = append(b.entries, entry{})
	}

	return index
}

// Utf8 interns a modified-UTF-8 entry.
func (b *Builder) Utf8(s string) int {
	return b.intern(entry{tag: TagUtf8, str: s})
}

// Class interns a Class entry for an internal name such as "java/lang/String"
// or an array descriptor such as "[I".
func (b *Builder) Class(internalName string) int {
	return b.intern(entry{tag: TagClass, ref1: b.Utf8(internalName)})
}

// String interns a String entry.
func (b *Builder) String(s string) int {
	return b.intern(entry{tag: TagString, ref1: b.Utf8(s)})
}

// Int interns an Integer entry.
func (b *Builder) Int(v int32) int {
	return b.intern(entry{tag: TagInteger, num: uint64(uint32(v))})
}

// Float interns a Float entry.
func (b *Builder) Float(v float32) int {
	return b.intern(entry{tag: TagFloat, num: uint64(math.Float32bits(v))})
}

// Long interns a Long entry.
func (b *Builder) Long(v int64) int {
	return b.intern(entry{tag: TagLong, num: uint64(v)})
}

// Double interns a Double entry.
func (b *Builder) Double(v float64) int {
	return b.intern(entry{tag: TagDouble, num: math.Float64bits(v)})
}

// NameAndType interns a NameAndType entry.
func (b *Builder) NameAndType(name, desc string) int {
	return b.intern(entry{tag: TagNameAndType, ref1: b.Utf8(name), ref2: b.Utf8(desc)})
}

// FieldRef interns a Fieldref entry.
func (b *Builder) FieldRef(owner, name, desc string) int {
	return b.intern(entry{tag: TagFieldRef, ref1: b.Class(owner), ref2: b.NameAndType(name, desc)})
}

// MethodRef interns a Methodref entry.
func (b *Builder) MethodRef(owner, name, desc string) int {
	return b.intern(entry{tag: TagMethodRef, ref1: b.Class(owner), ref2: b.NameAndType(name, desc)})
}

// InterfaceMethodRef interns an InterfaceMethodref entry.
func (b *Builder) InterfaceMethodRef(owner, name, desc string) int {
	return b.intern(entry{tag: TagInterfaceMethodRef, ref1: b.Class(owner), ref2: b.NameAndType(name, desc)})
}

// MethodHandle interns a MethodHandle entry with the given reference kind.
func (b *Builder) MethodHandle(kind, refIndex int) int {
	return b.intern(entry{tag: TagMethodHandle, ref1: kind, ref2: refIndex})
}

// MethodType interns a MethodType entry.
func (b *Builder) MethodType(desc string) int {
	return b.intern(entry{tag: TagMethodType, ref1: b.Utf8(desc)})
}

// Dynamic interns a Dynamic entry against a bootstrap-method index.
func (b *Builder) Dynamic(bootstrap int, name, desc string) int {
	return b.intern(entry{tag: TagDynamic, ref1: bootstrap, ref2: b.NameAndType(name, desc)})
}

// InvokeDynamic interns an InvokeDynamic entry against a bootstrap-method index.
func (b *Builder) InvokeDynamic(bootstrap int, name, desc string) int {
	return b.intern(entry{tag: TagInvokeDynamic, ref1: bootstrap, ref2: b.NameAndType(name, desc)})
}

func (b *Builder) at(index int) (entry, bool) {
	if index < 1 || index >= len(b.entries) {
		return entry{}, false
	}
	e := b.entries[index]
	if e.tag == 0 {
		return entry{}, false
	}

	return e, true
}

func (b *Builder) utf8At(index int) (string, bool) {
	e, ok := b.at(index)
	if !ok || e.tag != TagUtf8 {
		return "", false
	}

	return e.str, true
}

// nameAndType resolves the NameAndType referenced by a Fieldref, Methodref,
// InterfaceMethodref, Dynamic or InvokeDynamic entry.
func (b *Builder) nameAndType(index int) (entry, bool) {
	e, ok := b.at(index)
	if !ok {
		return entry{}, false
	}
	switch e.tag {
	case TagFieldRef, TagMethodRef, TagInterfaceMethodRef, TagDynamic, TagInvokeDynamic:
	default:
		return entry{}, false
	}
	nat, ok := b.at(e.ref2)
	if !ok || nat.tag != TagNameAndType {
		return entry{}, false
	}

	return nat, true
}

// Tag implements Reader.
func (b *Builder) Tag(index int) (Tag, bool) {
	e, ok := b.at(index)
	if !ok {
		return 0, false
	}

	return e.tag, true
}

// ClassName implements Reader.
func (b *Builder) ClassName(index int) (string, bool) {
	e, ok := b.at(index)
	if !ok || e.tag != TagClass {
		return "", false
	}

	return b.utf8At(e.ref1)
}

// MemberName implements Reader.
func (b *Builder) MemberName(index int) (string, bool) {
	nat, ok := b.nameAndType(index)
	if !ok {
		return "", false
	}

	return b.utf8At(nat.ref1)
}

// MemberDescriptor implements Reader.
func (b *Builder) MemberDescriptor(index int) (string, bool) {
	nat, ok := b.nameAndType(index)
	if !ok {
		return "", false
	}

	return b.utf8At(nat.ref2)
}

// ConstantType implements Reader.
func (b *Builder) ConstantType(index int) (string, bool) {
	e, ok := b.at(index)
	if !ok || e.tag != TagDynamic {
		return "", false
	}

	return b.MemberDescriptor(index)
}
