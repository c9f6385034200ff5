package il

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpcode_String(t *testing.T) {
	tests := []struct {
		op  Opcode
		exp string
	}{
		{op: OpNop, exp: "nop"},
		{op: OpLdindU1, exp: "ldind.u1"},
		{op: OpCall, exp: "call"},
		{op: OpLdcI4M1, exp: "ldc.i4.m1"},
		{op: OpCeq, exp: "ceq"},
		{op: OpLdarg, exp: "ldarg"},
		{op: OpReadonly, exp: "readonly."},
		{op: Opcode(0xFEFF), exp: "opcode(0xfeff)"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.exp, func(t *testing.T) {
			require.Equal(t, tc.exp, tc.op.String())
		})
	}
}

func TestOpcode_encoding(t *testing.T) {
	require.Equal(t, Opcode(0x47), OpLdindU1)
	require.Equal(t, Opcode(0x28), OpCall)
	require.Equal(t, Opcode(0x6F), OpCallvirt)
	require.Equal(t, Opcode(0xFE01), OpCeq)
	require.Equal(t, Opcode(0xFE1C), OpSizeof)
}

func TestLookupOpcode(t *testing.T) {
	for _, op := range Opcodes() {
		require.True(t, op.Valid())
		actual, ok := LookupOpcode(op.String())
		require.True(t, ok, op.String())
		require.Equal(t, op, actual)
	}
	_, ok := LookupOpcode("ldind.u3")
	require.False(t, ok)
	require.False(t, Opcode(0x24).Valid())
}

func TestStackEffect(t *testing.T) {
	tests := []struct {
		op           Opcode
		pops, pushes int
	}{
		{op: OpLdindU1, pops: 1, pushes: 1},
		{op: OpDup, pops: 1, pushes: 2},
		{op: OpStelemI4, pops: 3, pushes: 0},
		{op: OpBeq, pops: 2, pushes: 0},
		{op: OpLdcI4, pops: 0, pushes: 1},
		{op: OpCall, pops: Variable, pushes: Variable},
		{op: OpRet, pops: Variable, pushes: Variable},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.op.String(), func(t *testing.T) {
			pops, pushes, ok := StackEffect(tc.op)
			require.True(t, ok)
			require.Equal(t, tc.pops, pops)
			require.Equal(t, tc.pushes, pushes)
		})
	}

	for _, op := range Opcodes() {
		_, _, ok := StackEffect(op)
		require.True(t, ok, op.String())
	}
}

func TestOpcode_IsUnconditional(t *testing.T) {
	for _, op := range []Opcode{OpBr, OpBrS, OpLeave, OpRet, OpThrow, OpRethrow} {
		require.True(t, op.IsUnconditional(), op.String())
	}
	for _, op := range []Opcode{OpBrtrue, OpSwitch, OpCall, OpNop} {
		require.False(t, op.IsUnconditional(), op.String())
	}
	require.True(t, OpBltUnS.IsBranch())
	require.False(t, OpSwitch.IsBranch())
}
