// Package meta describes the type system the translator consumes: types with
// their element kinds and fields, and methods with their signatures, calling
// conventions and exception clauses.
package meta

import "strings"

// Kind classifies a Type for layout and lowering purposes.
type Kind byte

const (
	KindVoid Kind = iota
	KindBoolean
	KindChar
	KindInt8
	KindUInt8
	KindInt16
	KindUInt16
	KindInt32
	KindUInt32
	KindInt64
	KindUInt64
	KindFloat32
	KindFloat64
	KindIntPtr
	KindUIntPtr
	KindString
	KindObject
	KindClass
	KindInterface
	KindArray
	KindPointer
	KindByRef
	KindValueType
	KindEnum
)

var kindNames = [...]string{
	KindVoid:      "void",
	KindBoolean:   "bool",
	KindChar:      "char",
	KindInt8:      "int8",
	KindUInt8:     "uint8",
	KindInt16:     "int16",
	KindUInt16:    "uint16",
	KindInt32:     "int32",
	KindUInt32:    "uint32",
	KindInt64:     "int64",
	KindUInt64:    "uint64",
	KindFloat32:   "float32",
	KindFloat64:   "float64",
	KindIntPtr:    "native int",
	KindUIntPtr:   "native uint",
	KindString:    "string",
	KindObject:    "object",
	KindClass:     "class",
	KindInterface: "interface",
	KindArray:     "array",
	KindPointer:   "pointer",
	KindByRef:     "byref",
	KindValueType: "valuetype",
	KindEnum:      "enum",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsReference is true for kinds whose values are heap references.
func (k Kind) IsReference() bool {
	switch k {
	case KindString, KindObject, KindClass, KindInterface, KindArray:
		return true
	}
	return false
}

// IsFloat is true for the IEEE kinds.
func (k Kind) IsFloat() bool {
	return k == KindFloat32 || k == KindFloat64
}

// Type is a named type. Value types carry either an explicit Size or their
// instance Fields, from which the layout package derives one.
type Type struct {
	Kind      Kind
	Namespace string
	Name      string
	// Elem is the element type of arrays, pointers, byrefs and the underlying
	// type of enums.
	Elem   *Type
	Fields []*Field
	// Size overrides the computed instance size of value types when non-zero.
	Size int
	// Base is the parent class, nil for roots.
	Base *Type
	// Methods are the virtual methods in vtable slot order.
	Methods []*Method
}

// FullName is the namespace qualified name, e.g. "System.Int32".
func (t *Type) FullName() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindArray:
		return t.Elem.FullName() + "[]"
	case KindPointer:
		return t.Elem.FullName() + "*"
	case KindByRef:
		return t.Elem.FullName() + "&"
	}
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

func (t *Type) String() string { return t.FullName() }

// IsValueType is true for types whose instances are copied by value.
func (t *Type) IsValueType() bool {
	return !t.Kind.IsReference() && t.Kind != KindVoid
}

// IsVoid is true for the void type.
func (t *Type) IsVoid() bool { return t == nil || t.Kind == KindVoid }

// InstanceFields returns the non-static fields in declaration order.
func (t *Type) InstanceFields() []*Field {
	var ret []*Field
	for _, f := range t.Fields {
		if !f.IsStatic {
			ret = append(ret, f)
		}
	}
	return ret
}

// Symbol is the linker symbol of the type descriptor.
func (t *Type) Symbol() string {
	return mangle(t.FullName())
}

// Field is a member variable of a Type.
type Field struct {
	Name          string
	Type          *Type
	DeclaringType *Type
	IsStatic      bool
}

// Symbol is the linker symbol of a static field's storage.
func (f *Field) Symbol() string {
	return mangle(f.DeclaringType.FullName() + "::" + f.Name)
}

func (f *Field) String() string {
	return f.DeclaringType.FullName() + "::" + f.Name
}

func mangle(s string) string {
	return strings.NewReplacer(" ", "_", ",", "_").Replace(s)
}
