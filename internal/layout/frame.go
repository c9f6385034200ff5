package layout

import (
	"fmt"

	"github.com/atomixos/ilc/internal/platform"
	"github.com/atomixos/ilc/meta"
)

// Frame locates the arguments and locals of a method relative to the frame
// pointer. Arguments are pushed in declaration order, the receiver first, so
// the last argument sits right above the return address and saved frame
// pointer. Locals are allocated below the frame pointer in declaration order.
//
//	[bp + 8 + ...]  argument 0 (receiver of instance methods)
//	...
//	[bp + 8]        last argument
//	[bp + 4]        return address
//	[bp]            saved bp
//	[bp - size0]    local 0
//	...
type Frame struct {
	arch       platform.Architecture
	args       []*meta.Type
	argOffsets []int
	// ArgumentsSize is the byte size of all arguments on the stack.
	ArgumentsSize int
	locals       []*meta.Type
	localOffsets []int
	// LocalsSize is the byte size reserved for locals below the frame pointer.
	LocalsSize int
}

// savedFrameSize is the size of the return address plus the saved frame
// pointer.
func savedFrameSize(arch platform.Architecture) int { return 2 * arch.WordSize() }

// NewFrame computes the frame of m on arch.
func NewFrame(m *meta.Method, arch platform.Architecture) *Frame {
	f := &Frame{arch: arch, locals: m.Locals}
	if m.HasThis() {
		f.args = append(f.args, ReceiverType(m.DeclaringType))
	}
	f.args = append(f.args, m.Params...)

	f.argOffsets = make([]int, len(f.args))
	offset := savedFrameSize(arch)
	for i := len(f.args) - 1; i >= 0; i-- {
		f.argOffsets[i] = offset
		offset += SizeOf(f.args[i], arch, true)
	}
	f.ArgumentsSize = offset - savedFrameSize(arch)

	f.localOffsets = make([]int, len(m.Locals))
	for i, l := range m.Locals {
		f.LocalsSize += SizeOf(l, arch, true)
		f.localOffsets[i] = -f.LocalsSize
	}
	return f
}

// ReceiverType is the type of the implicit receiver argument for methods
// declared on t: a managed reference to t for value types, t itself
// otherwise.
func ReceiverType(t *meta.Type) *meta.Type {
	if t == nil {
		return meta.Object
	}
	if t.IsValueType() {
		return meta.ByRefTo(t)
	}
	return t
}

// ArgumentCount is the number of arguments including the receiver.
func (f *Frame) ArgumentCount() int { return len(f.args) }

// Argument returns the type and frame pointer relative offset of argument i.
func (f *Frame) Argument(i int) (*meta.Type, int, error) {
	if i < 0 || i >= len(f.args) {
		return nil, 0, fmt.Errorf("argument %d out of range [0, %d)", i, len(f.args))
	}
	return f.args[i], f.argOffsets[i], nil
}

// Local returns the type and frame pointer relative offset of local i.
func (f *Frame) Local(i int) (*meta.Type, int, error) {
	if i < 0 || i >= len(f.locals) {
		return nil, 0, fmt.Errorf("local %d out of range [0, %d)", i, len(f.locals))
	}
	return f.locals[i], f.localOffsets[i], nil
}
