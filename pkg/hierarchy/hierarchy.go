// Package hierarchy answers the two class-hierarchy questions reference-type
// merging needs: is a class an interface, and what is the nearest common
// superclass of two classes.
package hierarchy

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Info describes one class for ancestry queries. Super holds the superclass
// internal name and is empty only for java/lang/Object and for interfaces.
type Info struct {
	Super     string
	Interface bool
}

// Resolver answers class lookups by internal name, e.g. "java/util/List".
// Implementations must be read-only once handed to an Oracle.
type Resolver interface {
	Lookup(internal string) (Info, bool)
}

// Static is a map-backed Resolver.
type Static struct {
	classes map[string]Info
}

// NewStatic returns a resolver preloaded with the java/lang core.
func NewStatic() *Static {
	s := &Static{classes: make(map[string]Info, len(builtin))}
	for name, info := range builtin {
		s.classes[name] = info
	}

	return s
}

// Define registers or replaces a class.
func (s *Static) Define(internal string, info Info) {
	s.classes[internal] = info
}

// Lookup implements Resolver.
func (s *Static) Lookup(internal string) (Info, bool) {
	info, ok := s.classes[internal]

	return info, ok
}

// classesFile mirrors the hierarchy TOML layout:
//
//	[classes."java/util/ArrayList"]
//	super = "java/util/AbstractList"
//
//	[classes."java/util/List"]
//	interface = true
type classesFile struct {
	Classes map[string]classDef `toml:"classes"`
}

type classDef struct {
	Super     string `toml:"super"`
	Interface bool   `toml:"interface"`
}

// Decode merges TOML class definitions into the resolver. A class with no
// explicit super extends java/lang/Object.
func (s *Static) Decode(data []byte) error {
	var file classesFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse hierarchy: %w", err)
	}
	for name, def := range file.Classes {
		super := def.Super
		if super == "" && !def.Interface && name != objectInternal {
			super = objectInternal
		}
		s.Define(name, Info{Super: super, Interface: def.Interface})
	}

	return nil
}

// LoadFile reads a TOML hierarchy file and merges it.
func (s *Static) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	if err := s.Decode(data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	return nil
}

const objectInternal = "java/lang/Object"

// builtin covers the java/lang core plus the collection types that show up
// constantly in bytecode, so small inputs need no hierarchy file at all.
var builtin = map[string]Info{
	objectInternal: {},

	"java/lang/Class":                 {Super: objectInternal},
	"java/lang/String":                {Super: objectInternal},
	"java/lang/StringBuilder":         {Super: "java/lang/AbstractStringBuilder"},
	"java/lang/AbstractStringBuilder": {Super: objectInternal},
	"java/lang/invoke/MethodHandle":   {Super: objectInternal},
	"java/lang/invoke/MethodType":     {Super: objectInternal},
	"java/lang/Thread":                {Super: objectInternal},

	"java/lang/Number":    {Super: objectInternal},
	"java/lang/Boolean":   {Super: objectInternal},
	"java/lang/Character": {Super: objectInternal},
	"java/lang/Byte":      {Super: "java/lang/Number"},
	"java/lang/Short":     {Super: "java/lang/Number"},
	"java/lang/Integer":   {Super: "java/lang/Number"},
	"java/lang/Long":      {Super: "java/lang/Number"},
	"java/lang/Float":     {Super: "java/lang/Number"},
	"java/lang/Double":    {Super: "java/lang/Number"},

	"java/lang/Throwable":                      {Super: objectInternal},
	"java/lang/Exception":                      {Super: "java/lang/Throwable"},
	"java/lang/Error":                          {Super: "java/lang/Throwable"},
	"java/lang/RuntimeException":               {Super: "java/lang/Exception"},
	"java/lang/ArithmeticException":            {Super: "java/lang/RuntimeException"},
	"java/lang/ClassCastException":             {Super: "java/lang/RuntimeException"},
	"java/lang/IllegalArgumentException":       {Super: "java/lang/RuntimeException"},
	"java/lang/IllegalStateException":          {Super: "java/lang/RuntimeException"},
	"java/lang/NullPointerException":           {Super: "java/lang/RuntimeException"},
	"java/lang/UnsupportedOperationException":  {Super: "java/lang/RuntimeException"},
	"java/lang/IndexOutOfBoundsException":      {Super: "java/lang/RuntimeException"},
	"java/lang/ArrayIndexOutOfBoundsException": {Super: "java/lang/IndexOutOfBoundsException"},
	"java/io/IOException":                      {Super: "java/lang/Exception"},

	"java/util/AbstractCollection":     {Super: objectInternal},
	"java/util/AbstractList":           {Super: "java/util/AbstractCollection"},
	"java/util/AbstractSequentialList": {Super: "java/util/AbstractList"},
	"java/util/ArrayList":              {Super: "java/util/AbstractList"},
	"java/util/LinkedList":             {Super: "java/util/AbstractSequentialList"},
	"java/util/AbstractMap":            {Super: objectInternal},
	"java/util/HashMap":                {Super: "java/util/AbstractMap"},
	"java/util/AbstractSet":            {Super: "java/util/AbstractCollection"},
	"java/util/HashSet":                {Super: "java/util/AbstractSet"},

	"java/lang/Cloneable":    {Interface: true},
	"java/io/Serializable":   {Interface: true},
	"java/lang/Comparable":   {Interface: true},
	"java/lang/CharSequence": {Interface: true},
	"java/lang/Iterable":     {Interface: true},
	"java/lang/Runnable":     {Interface: true},
	"java/util/Collection":   {Interface: true},
	"java/util/List":         {Interface: true},
	"java/util/Set":          {Interface: true},
	"java/util/Map":          {Interface: true},
	"java/util/Iterator":     {Interface: true},
}
