package x86

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atomixos/ilc/internal/asm"
)

func TestRegisterName(t *testing.T) {
	require.Equal(t, "AX", RegisterName(REG_AX))
	require.Equal(t, "BP", RegisterName(REG_BP))
	require.Equal(t, "X7", RegisterName(REG_X7))
	require.Equal(t, "x86.Register(0)", RegisterName(asm.NilRegister))
	require.True(t, IsFloatRegister(REG_X0))
	require.False(t, IsFloatRegister(REG_DI))
}

func TestInstructionName(t *testing.T) {
	for i := asm.NONE; i < instructionEnd; i++ {
		require.NotContains(t, InstructionName(i), "x86.Instruction", i)
	}
	require.Equal(t, "MOVBLZX", InstructionName(MOVBLZX))
	require.Equal(t, "x86.Instruction(255)", InstructionName(255))
}

func TestNames_Format(t *testing.T) {
	tests := []struct {
		node *asm.Node
		exp  string
	}{
		{node: &asm.Node{Instruction: RET}, exp: "RET"},
		{node: &asm.Node{Instruction: PUSHL, Src: asm.Reg(REG_BP)}, exp: "PUSHL BP"},
		{node: &asm.Node{Instruction: POPL, Dst: asm.Reg(REG_AX)}, exp: "POPL AX"},
		{node: &asm.Node{Instruction: MOVL, Src: asm.Reg(REG_SP), Dst: asm.Reg(REG_BP)}, exp: "MOVL SP, BP"},
		{node: &asm.Node{Instruction: SUBL, Src: asm.Imm(0x18), Dst: asm.Reg(REG_SP)}, exp: "SUBL 0x18, SP"},
		{node: &asm.Node{Instruction: ADDL, Src: asm.Imm(-4), Dst: asm.Reg(REG_SP)}, exp: "ADDL -0x4, SP"},
		{node: &asm.Node{Instruction: MOVBLZX, Src: asm.Mem(REG_BP, 8), Dst: asm.Reg(REG_AX)}, exp: "MOVBLZX [BP + 0x8], AX"},
		{node: &asm.Node{Instruction: MOVL, Src: asm.Reg(REG_AX), Dst: asm.Mem(REG_BP, -0xc)}, exp: "MOVL AX, [BP - 0xc]"},
		{node: &asm.Node{Instruction: MOVL, Src: asm.Mem(REG_AX, 0), Dst: asm.Reg(REG_AX)}, exp: "MOVL [AX], AX"},
		{node: &asm.Node{Instruction: LEAL, Src: asm.MemIndex(REG_BX, 0x10, REG_AX, 4), Dst: asm.Reg(REG_BX)}, exp: "LEAL [BX + AX*4 + 0x10], BX"},
		{node: &asm.Node{Instruction: MOVL, Src: asm.Reg(REG_AX), Dst: asm.SymbolMem("Kernel.Port::Count", 0)}, exp: "MOVL AX, [Kernel.Port::Count]"},
		{node: &asm.Node{Instruction: MOVL, Src: asm.SymbolMem("s", 4), Dst: asm.Reg(REG_DX)}, exp: "MOVL [s + 0x4], DX"},
		{node: &asm.Node{Instruction: PUSHL, Src: asm.Sym("__String_0badf00d")}, exp: "PUSHL $__String_0badf00d"},
		{node: &asm.Node{Instruction: CALL, Dst: asm.Sym("__Heap_Allocate")}, exp: "CALL $__Heap_Allocate"},
		{node: &asm.Node{Instruction: JNE, Dst: asm.Branch(".Lerror")}, exp: "JNE .Lerror"},
		{node: &asm.Node{Instruction: asm.LABEL, Dst: asm.Branch(".Lexit")}, exp: ".Lexit:"},
		{node: &asm.Node{Instruction: MOVL, Src: asm.Mem(asm.NilRegister, 0), Dst: asm.Reg(REG_AX)}, exp: "MOVL [0x0], AX"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.exp, func(t *testing.T) {
			require.Equal(t, tc.exp, Names.Format(tc.node))
		})
	}
}

func TestListing(t *testing.T) {
	nodes := []*asm.Node{
		{Instruction: asm.LABEL, Dst: asm.Branch(".L0000")},
		{Instruction: PUSHL, Src: asm.Imm(1)},
		{Instruction: JMP, Dst: asm.Branch(".Lexit")},
	}
	require.Equal(t, ".L0000:\n\tPUSHL 0x1\n\tJMP .Lexit\n", Listing(nodes))
}
