package layout

import "github.com/atomixos/ilc/internal/platform"

// Heap objects start with a header of two words: the type descriptor and the
// allocation size. Arrays extend the header with the element count and the
// element size, followed by the elements.
//
//	object: [type][size][fields...]
//	array:  [type][size][length][elementSize][elements...]
//
// A type descriptor holds the instance size and the base type descriptor,
// followed by the vtable.
//
//	descriptor: [instanceSize][base][vtable...]

// ObjectTypeOffset is the offset of the type descriptor pointer.
const ObjectTypeOffset = 0

// ObjectHeaderSize is the size of the header preceding instance fields.
func ObjectHeaderSize(arch platform.Architecture) int { return 2 * arch.WordSize() }

// ObjectSizeOffset is the offset of the allocation size.
func ObjectSizeOffset(arch platform.Architecture) int { return arch.WordSize() }

// ArrayLengthOffset is the offset of the element count of an array.
func ArrayLengthOffset(arch platform.Architecture) int { return ObjectHeaderSize(arch) }

// ArrayElementSizeOffset is the offset of the element size of an array.
func ArrayElementSizeOffset(arch platform.Architecture) int {
	return ObjectHeaderSize(arch) + arch.WordSize()
}

// ArrayDataOffset is the offset of the first element of an array.
func ArrayDataOffset(arch platform.Architecture) int {
	return ObjectHeaderSize(arch) + 2*arch.WordSize()
}

// VTableOffset is the offset of the first vtable slot in a type descriptor.
func VTableOffset(arch platform.Architecture) int { return 2 * arch.WordSize() }

// VTableSlotOffset is the offset of the given vtable slot in a type descriptor.
func VTableSlotOffset(slot int, arch platform.Architecture) int {
	return VTableOffset(arch) + slot*arch.WordSize()
}
