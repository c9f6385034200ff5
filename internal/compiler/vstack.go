package compiler

import (
	"fmt"
	"strings"

	"github.com/atomixos/ilc/internal/layout"
	"github.com/atomixos/ilc/internal/platform"
	"github.com/atomixos/ilc/meta"
)

// StackEntry is one value on the evaluation stack at compile time. The value
// itself lives on the hardware stack.
type StackEntry struct {
	Type *meta.Type
	// Size is the number of bytes the value occupies on the hardware stack,
	// always a whole number of stack slots.
	Size int
}

// NewStackEntry returns the entry of a value of type t on arch.
func NewStackEntry(t *meta.Type, arch platform.Architecture) StackEntry {
	return StackEntry{Type: t, Size: layout.SizeOf(t, arch, true)}
}

func (e StackEntry) String() string {
	return fmt.Sprintf("%s(%d)", e.Type.FullName(), e.Size)
}

// Shape is a snapshot of the virtual stack, bottom first.
type Shape []StackEntry

// Compatible reports whether s and other have the same depth and the same
// entry sizes slot by slot.
func (s Shape) Compatible(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i].Size != other[i].Size {
			return false
		}
	}
	return true
}

// Size returns the number of bytes the shape occupies on the hardware stack.
func (s Shape) Size() (size int) {
	for _, e := range s {
		size += e.Size
	}
	return
}

func (s Shape) String() string {
	entries := make([]string, len(s))
	for i, e := range s {
		entries[i] = e.String()
	}
	return "[" + strings.Join(entries, " ") + "]"
}

// VirtualStack simulates the evaluation stack of one method translation.
// The zero value is an empty stack.
type VirtualStack struct {
	entries []StackEntry
}

// Push appends e to the top of the stack.
func (s *VirtualStack) Push(e StackEntry) {
	s.entries = append(s.entries, e)
}

// Pop removes and returns the top entry.
func (s *VirtualStack) Pop() (StackEntry, error) {
	if len(s.entries) == 0 {
		return StackEntry{}, ErrStackUnderflow
	}
	top := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	return top, nil
}

// Peek returns the entry depth positions below the top without removing it.
func (s *VirtualStack) Peek(depth int) (StackEntry, error) {
	if depth < 0 || depth >= len(s.entries) {
		return StackEntry{}, ErrStackUnderflow
	}
	return s.entries[len(s.entries)-1-depth], nil
}

// Count returns the depth of the stack.
func (s *VirtualStack) Count() int {
	return len(s.entries)
}

// Require fails with ErrMalformedStack unless the stack holds at least n
// entries.
func (s *VirtualStack) Require(n int) error {
	if len(s.entries) < n {
		return fmt.Errorf("%w: need %d entries, have %d", ErrMalformedStack, n, len(s.entries))
	}
	return nil
}

// PopN removes n entries, which must be present, and returns them bottom
// first.
func (s *VirtualStack) PopN(n int) ([]StackEntry, error) {
	if err := s.Require(n); err != nil {
		return nil, err
	}
	popped := make([]StackEntry, n)
	copy(popped, s.entries[len(s.entries)-n:])
	s.entries = s.entries[:len(s.entries)-n]
	return popped, nil
}

// Shape returns a copy of the current entries.
func (s *VirtualStack) Shape() Shape {
	return append(Shape(nil), s.entries...)
}

// Reset replaces the entries with a copy of shape.
func (s *VirtualStack) Reset(shape Shape) {
	s.entries = append(s.entries[:0], shape...)
}

func (s *VirtualStack) String() string {
	return Shape(s.entries).String()
}
