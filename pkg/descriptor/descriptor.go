package descriptor

import (
	"fmt"
	"strings"
)

// Field is a JVM field descriptor in its string form: "I", "[J", "Ljava/lang/String;".
type Field string

// Descriptors referenced throughout frame generation.
const (
	Object       Field = "Ljava/lang/Object;"
	Throwable    Field = "Ljava/lang/Throwable;"
	String       Field = "Ljava/lang/String;"
	Class        Field = "Ljava/lang/Class;"
	MethodHandle Field = "Ljava/lang/invoke/MethodHandle;"
	MethodType   Field = "Ljava/lang/invoke/MethodType;"
	Cloneable    Field = "Ljava/lang/Cloneable;"
	Serializable Field = "Ljava/io/Serializable;"
)

// IsPrimitive reports whether the descriptor denotes a primitive type (V included).
func (f Field) IsPrimitive() bool {
	return len(f) == 1
}

// IsArray reports whether the descriptor denotes an array type.
func (f Field) IsArray() bool {
	return len(f) > 0 && f[0] == '['
}

// IsClassOrInterface reports whether the descriptor denotes a non-array reference type.
func (f Field) IsClassOrInterface() bool {
	return len(f) > 2 && f[0] == 'L' && f[len(f)-1] == ';'
}

// Component returns the element descriptor of an array descriptor.
func (f Field) Component() Field {
	if !f.IsArray() {
		return ""
	}

	return f[1:]
}

// ArrayOf returns the descriptor of an array with this component type.
func (f Field) ArrayOf() Field {
	return "[" + f
}

// Slots returns the number of operand or local slots a value of this type occupies.
func (f Field) Slots() int {
	switch f {
	case "J", "D":
		return 2
	case "V":
		return 0
	default:
		return 1
	}
}

// Internal returns the constant-pool form of a reference descriptor:
// class names without the L; wrapping, array descriptors verbatim.
func (f Field) Internal() string {
	if f.IsClassOrInterface() {
		return string(f[1 : len(f)-1])
	}

	return string(f)
}

// FieldOfInternal converts a constant-pool class name back to a field descriptor.
func FieldOfInternal(name string) Field {
	if len(name) > 0 && name[0] == '[' {
		return Field(name)
	}

	return Field("L" + name + ";")
}

// Valid reports whether the descriptor is a well-formed field descriptor.
func (f Field) Valid() bool {
	end, err := scanField(string(f), 0)
	return err == nil && end == len(f)
}

// scanField parses one field descriptor starting at position i,
// returning the position just past it.
func scanField(s string, i int) (int, error) {
	for i < len(s) && s[i] == '[' {
		i++
	}

	if i >= len(s) {
		return 0, fmt.Errorf("truncated descriptor %q", s)
	}

	switch s[i] {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		return i + 1, nil
	case 'L':
		semi := strings.IndexByte(s[i:], ';')
		if semi <= 1 {
			return 0, fmt.Errorf("unterminated class descriptor %q", s)
		}
		return i + semi + 1, nil
	default:
		return 0, fmt.Errorf("bad descriptor char %q in %q", s[i], s)
	}
}

// Method is a JVM method descriptor like "(I[JLjava/lang/String;)V".
type Method string

// ArgSlots counts the operand slots occupied by the parameters with a single
// character scan, without building the parameter list.
func (m Method) ArgSlots() (int, error) {
	s := string(m)
	if len(s) < 3 || s[0] != '(' {
		return 0, fmt.Errorf("bad method descriptor: %s", s)
	}

	nargs := 0
	pos := 1
	for pos < len(s) && s[pos] != ')' {
		switch s[pos] {
		case 'D', 'J':
			nargs += 2
			pos++
		case 'B', 'C', 'F', 'I', 'S', 'Z':
			nargs++
			pos++
		case 'L':
			nargs++
			semi := strings.IndexByte(s[pos:], ';')
			if semi < 0 {
				return 0, fmt.Errorf("bad method descriptor: %s", s)
			}
			pos += semi + 1
		case '[':
			nargs++
			end, err := scanField(s, pos)
			if err != nil {
				return 0, fmt.Errorf("bad method descriptor: %s", s)
			}
			pos = end
		default:
			return 0, fmt.Errorf("bad method descriptor: %s", s)
		}
	}

	if pos+1 >= len(s) || s[pos] != ')' {
		return 0, fmt.Errorf("bad method descriptor: %s", s)
	}

	return nargs, nil
}

// Return extracts the return type descriptor.
func (m Method) Return() (Field, error) {
	s := string(m)
	rp := strings.IndexByte(s, ')')
	if len(s) == 0 || s[0] != '(' || rp < 0 || rp+1 >= len(s) {
		return "", fmt.Errorf("bad method descriptor: %s", s)
	}

	ret := Field(s[rp+1:])
	if ret != "V" && !ret.Valid() {
		return "", fmt.Errorf("bad method descriptor: %s", s)
	}

	return ret, nil
}

// Params returns the ordered parameter descriptors.
func (m Method) Params() ([]Field, error) {
	s := string(m)
	if len(s) < 3 || s[0] != '(' {
		return nil, fmt.Errorf("bad method descriptor: %s", s)
	}

	var params []Field
	pos := 1
	for pos < len(s) && s[pos] != ')' {
		end, err := scanField(s, pos)
		if err != nil {
			return nil, fmt.Errorf("bad method descriptor: %s", s)
		}

		params = append(params, Field(s[pos:end]))
		pos = end
	}

	if pos >= len(s) || s[pos] != ')' {
		return nil, fmt.Errorf("bad method descriptor: %s", s)
	}

	if _, err := m.Return(); err != nil {
		return nil, err
	}

	return params, nil
}
