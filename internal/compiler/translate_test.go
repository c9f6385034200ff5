package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atomixos/ilc/il"
	"github.com/atomixos/ilc/internal/asm"
	"github.com/atomixos/ilc/internal/asm/x86"
	"github.com/atomixos/ilc/internal/platform"
	"github.com/atomixos/ilc/meta"
)

// newBody links insts in order. A zero Handler means the exceptional exit.
func newBody(m *meta.Method, insts ...il.Instruction) *il.Body {
	for i := range insts {
		if i+1 < len(insts) {
			insts[i].Next = insts[i+1].Position
		} else {
			insts[i].Next = insts[i].Position + 1
		}
		if insts[i].Handler == 0 {
			insts[i].Handler = il.ExceptionExit
		}
	}
	return &il.Body{Method: m, Instructions: insts}
}

func translateX86(t *testing.T, body *il.Body) (string, error) {
	var buf asm.Buffer
	err := NewTranslator().Translate(platform.Config{Architecture: platform.ArchitectureX86}, body, &buf)
	if err != nil {
		require.Equal(t, 0, buf.Len(), "failed translations must not emit")
	}
	return x86.Listing(buf.Nodes()), err
}

func TestTranslator_Translate(t *testing.T) {
	add := staticMethod("Add", meta.Int32, meta.Int32, meta.Int32)
	listing, err := translateX86(t, newBody(add,
		il.Instruction{Position: 0, Opcode: il.OpLdarg0},
		il.Instruction{Position: 1, Opcode: il.OpLdarg1},
		il.Instruction{Position: 2, Opcode: il.OpAdd},
		il.Instruction{Position: 3, Opcode: il.OpRet},
	))
	require.NoError(t, err)
	require.Equal(t, lines(
		"PUSHL BP",
		"MOVL SP, BP",
		"PUSHL [BP + 0xc]",
		"PUSHL [BP + 0x8]",
		"POPL BX",
		"POPL AX",
		"ADDL BX, AX",
		"PUSHL AX",
		"POPL AX",
		"JMP .Lexit",
		".Lexit:",
		"XORL CX, CX",
		".Lerror:",
		"MOVL BP, SP",
		"POPL BP",
		"RET 0x8",
	), listing)
}

func TestTranslator_Translate_frame(t *testing.T) {
	t.Run("locals", func(t *testing.T) {
		m := staticMethod("Locals", meta.Void)
		m.Locals = []*meta.Type{meta.Int32, meta.Byte}
		m.InitLocals = true
		m.CallingConvention = meta.CallingConventionCdecl
		listing, err := translateX86(t, newBody(m, il.Instruction{Opcode: il.OpRet}))
		require.NoError(t, err)
		require.Equal(t, lines(
			"PUSHL BP",
			"MOVL SP, BP",
			"SUBL 0x8, SP",
			"XORL AX, AX",
			"MOVL AX, [SP]",
			"MOVL AX, [SP + 0x4]",
			"JMP .Lexit",
			".Lexit:",
			"XORL CX, CX",
			".Lerror:",
			"MOVL BP, SP",
			"POPL BP",
			"RET",
		), listing)
	})
	t.Run("no exception", func(t *testing.T) {
		m := staticMethod("Halt", meta.Void)
		m.Attributes = meta.AttributeNoException
		listing, err := translateX86(t, newBody(m, il.Instruction{Opcode: il.OpRet}))
		require.NoError(t, err)
		require.NotContains(t, listing, "XORL CX, CX")
	})
	t.Run("locals by index", func(t *testing.T) {
		m := staticMethod("Swap", meta.Int16)
		m.Locals = []*meta.Type{meta.Int16}
		listing, err := translateX86(t, newBody(m,
			il.Instruction{Position: 0, Opcode: il.OpLdcI4, Operand: il.Int32(-2)},
			il.Instruction{Position: 5, Opcode: il.OpStloc0},
			il.Instruction{Position: 6, Opcode: il.OpLdloc0},
			il.Instruction{Position: 7, Opcode: il.OpRet},
		))
		require.NoError(t, err)
		require.Contains(t, listing, lines(
			"PUSHL -0x2",
			"POPL AX",
			"MOVW AX, [BP - 0x4]",
			"MOVWLSX [BP - 0x4], AX",
			"PUSHL AX",
			"POPL AX",
		))
	})
	t.Run("calling convention", func(t *testing.T) {
		m := staticMethod("Fast", meta.Void)
		m.CallingConvention = meta.CallingConventionFastCall
		_, err := translateX86(t, newBody(m, il.Instruction{Opcode: il.OpRet}))
		require.ErrorIs(t, err, ErrUnsupportedCallingConvention)
	})
}

func TestTranslator_Translate_branches(t *testing.T) {
	pick := staticMethod("Pick", meta.Int32, meta.Boolean)
	body := func(second il.Instruction) *il.Body {
		return newBody(pick,
			il.Instruction{Position: 0, Opcode: il.OpLdarg0},
			il.Instruction{Position: 1, Opcode: il.OpBrtrueS, Operand: il.Branch(5)},
			il.Instruction{Position: 3, Opcode: il.OpLdcI41},
			il.Instruction{Position: 4, Opcode: il.OpBrS, Operand: il.Branch(7)},
			second,
			il.Instruction{Position: 7, Opcode: il.OpRet},
		)
	}

	t.Run("equal shapes", func(t *testing.T) {
		listing, err := translateX86(t, body(il.Instruction{Position: 5, Opcode: il.OpLdcI42}))
		require.NoError(t, err)
		require.Equal(t, lines(
			"PUSHL BP",
			"MOVL SP, BP",
			"MOVBLZX [BP + 0x8], AX",
			"PUSHL AX",
			"POPL AX",
			"TESTL AX, AX",
			"JNE .L0005",
			"PUSHL 0x1",
			"JMP .L0007",
			".L0005:",
			"PUSHL 0x2",
			".L0007:",
			"POPL AX",
			"JMP .Lexit",
			".Lexit:",
			"XORL CX, CX",
			".Lerror:",
			"MOVL BP, SP",
			"POPL BP",
			"RET 0x4",
		), listing)
	})
	t.Run("unequal shapes", func(t *testing.T) {
		_, err := translateX86(t, body(il.Instruction{Position: 5, Opcode: il.OpLdcI8, Operand: il.Int64(2)}))
		require.ErrorIs(t, err, ErrInconsistentStackShape)
	})
	t.Run("unresolved target", func(t *testing.T) {
		m := staticMethod("Loop", meta.Void)
		_, err := translateX86(t, newBody(m,
			il.Instruction{Position: 0, Opcode: il.OpBr, Operand: il.Branch(0x40)},
		))
		require.ErrorIs(t, err, ErrUnresolvedTarget)
	})
	t.Run("falls off the end", func(t *testing.T) {
		m := staticMethod("Open", meta.Void)
		_, err := translateX86(t, newBody(m, il.Instruction{Opcode: il.OpNop}))
		require.ErrorIs(t, err, ErrMalformedStack)
	})
}

func TestTranslator_Translate_catch(t *testing.T) {
	poll := staticMethod("Poll", meta.Void)
	run := func(catchType *meta.Type) *il.Body {
		m := staticMethod("Run", meta.Void)
		m.Clauses = []meta.ExceptionClause{
			{Kind: meta.ClauseCatch, TryStart: 0, TryEnd: 2, HandlerStart: 2, HandlerEnd: 4, CatchType: catchType},
		}
		return newBody(m,
			il.Instruction{Position: 0, Opcode: il.OpCall, Operand: il.Method{Target: poll}, Handler: 2},
			il.Instruction{Position: 1, Opcode: il.OpLeaveS, Operand: il.Branch(4)},
			il.Instruction{Position: 2, Opcode: il.OpPop},
			il.Instruction{Position: 3, Opcode: il.OpLeaveS, Operand: il.Branch(4)},
			il.Instruction{Position: 4, Opcode: il.OpRet},
		)
	}

	t.Run("any exception", func(t *testing.T) {
		listing, err := translateX86(t, run(nil))
		require.NoError(t, err)
		require.Equal(t, lines(
			"PUSHL BP",
			"MOVL SP, BP",
			"CALL $"+poll.Symbol(),
			"TESTL 0xffffffff, CX",
			"JNE .L0002",
			"JMP .L0004",
			".L0002:",
			"LEAL [BP], SP",
			"PUSHL [__Runtime_CurrentException]",
			"ADDL 0x4, SP",
			"JMP .L0004",
			".L0004:",
			"JMP .Lexit",
			".Lexit:",
			"XORL CX, CX",
			".Lerror:",
			"MOVL BP, SP",
			"POPL BP",
			"RET",
		), listing)
	})
	t.Run("typed", func(t *testing.T) {
		listing, err := translateX86(t, run(kernelPort))
		require.NoError(t, err)
		require.Contains(t, listing, lines(
			".L0002:",
			"LEAL [BP], SP",
			"PUSHL [__Runtime_CurrentException]",
			"PUSHL $Kernel.Port",
			"CALL $__Runtime_IsInstance",
			"TESTL AX, AX",
			"JNE .L0002.caught",
			"MOVL 0x1, CX",
			"JMP .Lerror",
			".L0002.caught:",
			"PUSHL AX",
			"ADDL 0x4, SP",
		))
	})
	t.Run("finally", func(t *testing.T) {
		body := run(nil)
		body.Method.Clauses[0].Kind = meta.ClauseFinally
		_, err := translateX86(t, body)
		require.ErrorIs(t, err, ErrUnsupportedFeature)
	})
}

func TestTranslator_Translate_errors(t *testing.T) {
	m := staticMethod("Box", meta.Object)
	body := newBody(m,
		il.Instruction{Position: 0, Opcode: il.OpLdcI40},
		il.Instruction{Position: 1, Opcode: il.OpBox, Operand: il.Type{Target: meta.Int32}},
		il.Instruction{Position: 6, Opcode: il.OpRet},
	)
	_, err := translateX86(t, body)
	require.ErrorIs(t, err, ErrUnsupportedOpcode)
	require.Contains(t, err.Error(), "IL_0001")

	for _, arch := range []platform.Architecture{platform.ArchitectureX64, platform.ArchitectureARM} {
		var buf asm.Buffer
		err := NewTranslator().Translate(platform.Config{Architecture: arch},
			newBody(staticMethod("Nop", meta.Void), il.Instruction{Opcode: il.OpRet}), &buf)
		require.ErrorIs(t, err, ErrUnsupportedTargetPlatform)
		require.Equal(t, 0, buf.Len())
	}
}
