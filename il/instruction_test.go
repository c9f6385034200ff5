package il

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atomixos/ilc/meta"
)

func TestPosition_String(t *testing.T) {
	require.Equal(t, "IL_0000", Position(0).String())
	require.Equal(t, "IL_002a", Position(0x2a).String())
	require.Equal(t, "exit", ExceptionExit.String())
}

func TestInstruction_String(t *testing.T) {
	tests := []struct {
		name string
		inst Instruction
		exp  string
	}{
		{name: "no operand", inst: Instruction{Position: 4, Opcode: OpLdindU1}, exp: "IL_0004: ldind.u1"},
		{name: "int32", inst: Instruction{Position: 1, Opcode: OpLdcI4S, Operand: Int32(-3)}, exp: "IL_0001: ldc.i4.s -3"},
		{name: "branch", inst: Instruction{Position: 2, Opcode: OpBr, Operand: Branch(0x10)}, exp: "IL_0002: br IL_0010"},
		{name: "switch", inst: Instruction{Opcode: OpSwitch, Operand: Switch{4, 8}}, exp: "IL_0000: switch (IL_0004, IL_0008)"},
		{name: "string", inst: Instruction{Opcode: OpLdstr, Operand: String("hi")}, exp: `IL_0000: ldstr "hi"`},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.exp, tc.inst.String())
		})
	}
}

func TestInstruction_Targets(t *testing.T) {
	i := &Instruction{Opcode: OpBrtrue, Operand: Branch(0x20)}
	require.Equal(t, []Position{0x20}, i.Targets())

	table := Switch{1, 2, 3}
	i = &Instruction{Opcode: OpSwitch, Operand: table}
	targets := i.Targets()
	require.Equal(t, []Position{1, 2, 3}, targets)
	targets[0] = 9
	require.Equal(t, Position(1), table[0])

	i = &Instruction{Opcode: OpAdd}
	require.Nil(t, i.Targets())
}

func TestMethod_Convention(t *testing.T) {
	target := &meta.Method{Name: "F", CallingConvention: meta.CallingConventionCdecl}
	require.Equal(t, meta.CallingConventionCdecl, Method{Target: target}.Convention())
	require.Equal(t, meta.CallingConventionStdCall,
		Method{Target: target, CallingConvention: meta.CallingConventionStdCall}.Convention())
}
