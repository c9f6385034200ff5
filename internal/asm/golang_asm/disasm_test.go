package golang_asm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atomixos/ilc/internal/asm"
	"github.com/atomixos/ilc/internal/asm/x86"
)

func TestDisassemble(t *testing.T) {
	code := &Code{
		Bytes: []byte{0x55, 0x68, 0, 0, 0, 0, 0xE8, 0, 0, 0, 0, 0xC3},
		Relocations: []Relocation{
			{Offset: 2, Symbol: "Kernel.Port", Kind: RelocationAbsolute32, Addend: 4},
			{Offset: 7, Symbol: "__Heap_Allocate", Kind: RelocationRelative32},
		},
		Labels: map[asm.Label]int{".L0000": 0, ".Lentry": 0, ".Lexit": 11, ".Lend": 12},
	}

	require.Equal(t, ".L0000:\n.Lentry:\n"+
		fmt.Sprintf("0x0000: %-20s PUSH EBP\n", "55")+
		fmt.Sprintf("0x0001: %-20s PUSH 0x0 ; abs32 Kernel.Port+0x4\n", "68 00 00 00 00")+
		fmt.Sprintf("0x0006: %-20s CALL .+0 ; rel32 __Heap_Allocate\n", "e8 00 00 00 00")+
		".Lexit:\n"+
		fmt.Sprintf("0x000b: %-20s RET\n", "c3")+
		".Lend:\n", Disassemble(code))
}

func TestDisassemble_encoded(t *testing.T) {
	code, err := Encode([]*asm.Node{
		{Instruction: asm.LABEL, Dst: asm.Branch(".Lexit")},
		{Instruction: x86.RET},
	})
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf(".Lexit:\n0x0000: %-20s RET\n", "c3"), Disassemble(code))
}

func TestRelocationTarget(t *testing.T) {
	require.Equal(t, "s", relocationTarget(Relocation{Symbol: "s"}))
	require.Equal(t, "s+0x8", relocationTarget(Relocation{Symbol: "s", Addend: 8}))
	require.Equal(t, "s-0x8", relocationTarget(Relocation{Symbol: "s", Addend: -8}))
}
