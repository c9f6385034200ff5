package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atomixos/ilc/il"
	"github.com/atomixos/ilc/internal/platform"
)

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()
	h, err := r.Lookup(il.OpLdindU1)
	require.NoError(t, err)
	require.Equal(t, il.OpLdindU1, h.Opcode())
	require.True(t, h.Supports(platform.ArchitectureX86))
	require.False(t, h.Supports(platform.ArchitectureX64))
	require.False(t, h.Supports(platform.ArchitectureARM))

	for _, op := range []il.Opcode{il.OpBox, il.OpUnboxAny, il.OpConvOvfI4, il.OpJmp, il.OpLocalloc, il.OpConvRUn} {
		_, err := r.Lookup(op)
		require.ErrorIs(t, err, ErrUnsupportedOpcode, op.String())
	}
}

func TestRegistry_Opcodes(t *testing.T) {
	ops := NewRegistry().Opcodes()
	require.NotEmpty(t, ops)
	for i := 1; i < len(ops); i++ {
		require.Less(t, int(ops[i-1]), int(ops[i]))
	}
	for _, op := range ops {
		require.True(t, op.Valid(), op.String())
		_, _, ok := il.StackEffect(op)
		require.True(t, ok, "%s has no stack effect", op)
	}
}

func TestHandler_Execute_unsupportedTargetPlatform(t *testing.T) {
	r := NewRegistry()
	for _, op := range r.Opcodes() {
		h, err := r.Lookup(op)
		require.NoError(t, err)
		for _, arch := range []platform.Architecture{platform.ArchitectureX64, platform.ArchitectureARM} {
			ht := newHandlerTest(arch, nil)
			err := h.Execute(ht.cfg, &il.Instruction{Opcode: op, Handler: il.ExceptionExit}, ht.mc, ht.opt, ht.buf)
			require.ErrorIs(t, err, ErrUnsupportedTargetPlatform, "%s on %s", op, arch)
			require.Equal(t, 0, ht.buf.Len())
		}
	}
}
