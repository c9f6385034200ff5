// Package layout answers size and placement questions about values: how many
// bytes a type takes in memory or on the stack, where fields, arguments and
// locals live, and how objects and arrays are laid out on the heap.
package layout

import (
	"github.com/atomixos/ilc/internal/platform"
	"github.com/atomixos/ilc/meta"
)

// SizeOf returns the size in bytes of a value of type t on arch. With
// forStack set the size is rounded up to whole stack slots, which is the
// space the value occupies on the evaluation stack or as an argument.
func SizeOf(t *meta.Type, arch platform.Architecture, forStack bool) int {
	size := sizeOf(t, arch)
	if forStack {
		size = Align(size, arch.WordSize())
	}
	return size
}

func sizeOf(t *meta.Type, arch platform.Architecture) int {
	if t == nil {
		return 0
	}
	switch t.Kind {
	case meta.KindVoid:
		return 0
	case meta.KindBoolean, meta.KindInt8, meta.KindUInt8:
		return 1
	case meta.KindChar, meta.KindInt16, meta.KindUInt16:
		return 2
	case meta.KindInt32, meta.KindUInt32, meta.KindFloat32:
		return 4
	case meta.KindInt64, meta.KindUInt64, meta.KindFloat64:
		return 8
	case meta.KindEnum:
		if t.Elem == nil {
			return 4
		}
		return sizeOf(t.Elem, arch)
	case meta.KindValueType:
		if t.Size > 0 {
			return t.Size
		}
		size := 0
		for _, f := range t.InstanceFields() {
			size += sizeOf(f.Type, arch)
		}
		return size
	}
	// Native integers, pointers and references.
	return arch.WordSize()
}

// Align rounds size up to a multiple of to.
func Align(size, to int) int {
	return (size + to - 1) / to * to
}

// Slots returns the number of stack words a value of the given byte size
// occupies.
func Slots(size int, arch platform.Architecture) int {
	return Align(size, arch.WordSize()) / arch.WordSize()
}

// FieldOffset returns the offset of instance field f from the start of its
// instance data. For reference types the object header precedes the data.
func FieldOffset(f *meta.Field, arch platform.Architecture) int {
	offset := 0
	owner := f.DeclaringType
	if owner.Kind.IsReference() {
		offset = ObjectHeaderSize(arch) + inheritedSize(owner.Base, arch)
	}
	for _, other := range owner.InstanceFields() {
		if other == f {
			return offset
		}
		offset += sizeOf(other.Type, arch)
	}
	return offset
}

func inheritedSize(t *meta.Type, arch platform.Architecture) int {
	size := 0
	for ; t != nil; t = t.Base {
		for _, f := range t.InstanceFields() {
			size += sizeOf(f.Type, arch)
		}
	}
	return size
}

// InstanceSize returns the heap allocation size of a reference type
// instance, header included.
func InstanceSize(t *meta.Type, arch platform.Architecture) int {
	size := ObjectHeaderSize(arch)
	for c := t; c != nil; c = c.Base {
		for _, f := range c.InstanceFields() {
			size += sizeOf(f.Type, arch)
		}
	}
	return size
}
