package compiler

import (
	"fmt"

	"github.com/atomixos/ilc/il"
	"github.com/atomixos/ilc/internal/asm"
	"github.com/atomixos/ilc/internal/asm/x86"
	"github.com/atomixos/ilc/internal/layout"
	"github.com/atomixos/ilc/meta"
)

// x86Compiler lowers one instruction to 32-bit x86.
//
// Values live on the hardware stack exactly as the virtual stack describes
// them, so every handler pops its inputs into scratch registers and pushes
// its result back. AX, BX and DX are scratch registers. CX is scratch too
// except right after a call, where it carries the exception signal.
type x86Compiler struct {
	*execution
}

func onX86(f func(c *x86Compiler) error) lowering {
	return func(e *execution) error {
		return f(&x86Compiler{execution: e})
	}
}

func x86Lowerings() map[il.Opcode]lowering {
	table := map[il.Opcode]func(*x86Compiler) error{
		il.OpNop:   (*x86Compiler).compileNop,
		il.OpBreak: (*x86Compiler).compileBreak,

		il.OpLdcI4M1: (*x86Compiler).compileLdcI4,
		il.OpLdcI40:  (*x86Compiler).compileLdcI4,
		il.OpLdcI41:  (*x86Compiler).compileLdcI4,
		il.OpLdcI42:  (*x86Compiler).compileLdcI4,
		il.OpLdcI43:  (*x86Compiler).compileLdcI4,
		il.OpLdcI44:  (*x86Compiler).compileLdcI4,
		il.OpLdcI45:  (*x86Compiler).compileLdcI4,
		il.OpLdcI46:  (*x86Compiler).compileLdcI4,
		il.OpLdcI47:  (*x86Compiler).compileLdcI4,
		il.OpLdcI48:  (*x86Compiler).compileLdcI4,
		il.OpLdcI4S:  (*x86Compiler).compileLdcI4,
		il.OpLdcI4:   (*x86Compiler).compileLdcI4,
		il.OpLdcI8:   (*x86Compiler).compileLdcI8,
		il.OpLdcR4:   (*x86Compiler).compileLdcR4,
		il.OpLdcR8:   (*x86Compiler).compileLdcR8,
		il.OpLdnull:  (*x86Compiler).compileLdnull,
		il.OpLdstr:   (*x86Compiler).compileLdstr,
		il.OpDup:     (*x86Compiler).compileDup,
		il.OpPop:     (*x86Compiler).compilePop,
		il.OpSizeof:  (*x86Compiler).compileSizeof,

		il.OpLdarg0:  (*x86Compiler).compileLdarg,
		il.OpLdarg1:  (*x86Compiler).compileLdarg,
		il.OpLdarg2:  (*x86Compiler).compileLdarg,
		il.OpLdarg3:  (*x86Compiler).compileLdarg,
		il.OpLdargS:  (*x86Compiler).compileLdarg,
		il.OpLdarg:   (*x86Compiler).compileLdarg,
		il.OpLdargaS: (*x86Compiler).compileLdarga,
		il.OpLdarga:  (*x86Compiler).compileLdarga,
		il.OpStargS:  (*x86Compiler).compileStarg,
		il.OpStarg:   (*x86Compiler).compileStarg,
		il.OpLdloc0:  (*x86Compiler).compileLdloc,
		il.OpLdloc1:  (*x86Compiler).compileLdloc,
		il.OpLdloc2:  (*x86Compiler).compileLdloc,
		il.OpLdloc3:  (*x86Compiler).compileLdloc,
		il.OpLdlocS:  (*x86Compiler).compileLdloc,
		il.OpLdloc:   (*x86Compiler).compileLdloc,
		il.OpLdlocaS: (*x86Compiler).compileLdloca,
		il.OpLdloca:  (*x86Compiler).compileLdloca,
		il.OpStloc0:  (*x86Compiler).compileStloc,
		il.OpStloc1:  (*x86Compiler).compileStloc,
		il.OpStloc2:  (*x86Compiler).compileStloc,
		il.OpStloc3:  (*x86Compiler).compileStloc,
		il.OpStlocS:  (*x86Compiler).compileStloc,
		il.OpStloc:   (*x86Compiler).compileStloc,

		il.OpLdindI1:  (*x86Compiler).compileLdind,
		il.OpLdindU1:  (*x86Compiler).compileLdindU1,
		il.OpLdindI2:  (*x86Compiler).compileLdind,
		il.OpLdindU2:  (*x86Compiler).compileLdind,
		il.OpLdindI4:  (*x86Compiler).compileLdind,
		il.OpLdindU4:  (*x86Compiler).compileLdind,
		il.OpLdindI8:  (*x86Compiler).compileLdind,
		il.OpLdindI:   (*x86Compiler).compileLdind,
		il.OpLdindR4:  (*x86Compiler).compileLdind,
		il.OpLdindR8:  (*x86Compiler).compileLdind,
		il.OpLdindRef: (*x86Compiler).compileLdind,
		il.OpStindI1:  (*x86Compiler).compileStind,
		il.OpStindI2:  (*x86Compiler).compileStind,
		il.OpStindI4:  (*x86Compiler).compileStind,
		il.OpStindI8:  (*x86Compiler).compileStind,
		il.OpStindI:   (*x86Compiler).compileStind,
		il.OpStindR4:  (*x86Compiler).compileStind,
		il.OpStindR8:  (*x86Compiler).compileStind,
		il.OpStindRef: (*x86Compiler).compileStind,
		il.OpLdobj:    (*x86Compiler).compileLdobj,
		il.OpStobj:    (*x86Compiler).compileStobj,
		il.OpCpobj:    (*x86Compiler).compileCpobj,
		il.OpInitobj:  (*x86Compiler).compileInitobj,

		il.OpLdfld:   (*x86Compiler).compileLdfld,
		il.OpLdflda:  (*x86Compiler).compileLdflda,
		il.OpStfld:   (*x86Compiler).compileStfld,
		il.OpLdsfld:  (*x86Compiler).compileLdsfld,
		il.OpLdsflda: (*x86Compiler).compileLdsflda,
		il.OpStsfld:  (*x86Compiler).compileStsfld,

		il.OpAdd:   (*x86Compiler).compileAdd,
		il.OpSub:   (*x86Compiler).compileSub,
		il.OpMul:   (*x86Compiler).compileMul,
		il.OpDiv:   (*x86Compiler).compileDiv,
		il.OpDivUn: (*x86Compiler).compileDiv,
		il.OpRem:   (*x86Compiler).compileRem,
		il.OpRemUn: (*x86Compiler).compileRem,
		il.OpAnd:   (*x86Compiler).compileAnd,
		il.OpOr:    (*x86Compiler).compileOr,
		il.OpXor:   (*x86Compiler).compileXor,
		il.OpShl:   (*x86Compiler).compileShift,
		il.OpShr:   (*x86Compiler).compileShift,
		il.OpShrUn: (*x86Compiler).compileShift,
		il.OpNeg:   (*x86Compiler).compileNeg,
		il.OpNot:   (*x86Compiler).compileNot,

		il.OpCeq:   (*x86Compiler).compileCompare,
		il.OpCgt:   (*x86Compiler).compileCompare,
		il.OpCgtUn: (*x86Compiler).compileCompare,
		il.OpClt:   (*x86Compiler).compileCompare,
		il.OpCltUn: (*x86Compiler).compileCompare,

		il.OpConvI1: (*x86Compiler).compileConvInt,
		il.OpConvU1: (*x86Compiler).compileConvInt,
		il.OpConvI2: (*x86Compiler).compileConvInt,
		il.OpConvU2: (*x86Compiler).compileConvInt,
		il.OpConvI4: (*x86Compiler).compileConvInt,
		il.OpConvU4: (*x86Compiler).compileConvInt,
		il.OpConvI:  (*x86Compiler).compileConvInt,
		il.OpConvU:  (*x86Compiler).compileConvInt,
		il.OpConvI8: (*x86Compiler).compileConvInt64,
		il.OpConvU8: (*x86Compiler).compileConvInt64,
		il.OpConvR4: (*x86Compiler).compileConvFloat,
		il.OpConvR8: (*x86Compiler).compileConvFloat,

		il.OpBr:         (*x86Compiler).compileBr,
		il.OpBrS:        (*x86Compiler).compileBr,
		il.OpBrfalse:    (*x86Compiler).compileBrCondition,
		il.OpBrfalseS:   (*x86Compiler).compileBrCondition,
		il.OpBrtrue:     (*x86Compiler).compileBrCondition,
		il.OpBrtrueS:    (*x86Compiler).compileBrCondition,
		il.OpBeq:        (*x86Compiler).compileBrCompare,
		il.OpBeqS:       (*x86Compiler).compileBrCompare,
		il.OpBge:        (*x86Compiler).compileBrCompare,
		il.OpBgeS:       (*x86Compiler).compileBrCompare,
		il.OpBgt:        (*x86Compiler).compileBrCompare,
		il.OpBgtS:       (*x86Compiler).compileBrCompare,
		il.OpBle:        (*x86Compiler).compileBrCompare,
		il.OpBleS:       (*x86Compiler).compileBrCompare,
		il.OpBlt:        (*x86Compiler).compileBrCompare,
		il.OpBltS:       (*x86Compiler).compileBrCompare,
		il.OpBneUn:      (*x86Compiler).compileBrCompare,
		il.OpBneUnS:     (*x86Compiler).compileBrCompare,
		il.OpBgeUn:      (*x86Compiler).compileBrCompare,
		il.OpBgeUnS:     (*x86Compiler).compileBrCompare,
		il.OpBgtUn:      (*x86Compiler).compileBrCompare,
		il.OpBgtUnS:     (*x86Compiler).compileBrCompare,
		il.OpBleUn:      (*x86Compiler).compileBrCompare,
		il.OpBleUnS:     (*x86Compiler).compileBrCompare,
		il.OpBltUn:      (*x86Compiler).compileBrCompare,
		il.OpBltUnS:     (*x86Compiler).compileBrCompare,
		il.OpSwitch:     (*x86Compiler).compileSwitch,
		il.OpLeave:      (*x86Compiler).compileLeave,
		il.OpLeaveS:     (*x86Compiler).compileLeave,
		il.OpEndfinally: (*x86Compiler).compileEndfinally,
		il.OpRet:        (*x86Compiler).compileRet,
		il.OpThrow:      (*x86Compiler).compileThrow,
		il.OpRethrow:    (*x86Compiler).compileRethrow,

		il.OpCall:      (*x86Compiler).compileCall,
		il.OpCallvirt:  (*x86Compiler).compileCallvirt,
		il.OpCalli:     (*x86Compiler).compileCalli,
		il.OpNewobj:    (*x86Compiler).compileNewobj,
		il.OpLdftn:     (*x86Compiler).compileLdftn,
		il.OpLdvirtftn: (*x86Compiler).compileLdvirtftn,
		il.OpCastclass: (*x86Compiler).compileCastclass,
		il.OpIsinst:    (*x86Compiler).compileIsinst,

		il.OpNewarr:    (*x86Compiler).compileNewarr,
		il.OpLdlen:     (*x86Compiler).compileLdlen,
		il.OpLdelema:   (*x86Compiler).compileLdelema,
		il.OpLdelemI1:  (*x86Compiler).compileLdelem,
		il.OpLdelemU1:  (*x86Compiler).compileLdelem,
		il.OpLdelemI2:  (*x86Compiler).compileLdelem,
		il.OpLdelemU2:  (*x86Compiler).compileLdelem,
		il.OpLdelemI4:  (*x86Compiler).compileLdelem,
		il.OpLdelemU4:  (*x86Compiler).compileLdelem,
		il.OpLdelemI8:  (*x86Compiler).compileLdelem,
		il.OpLdelemI:   (*x86Compiler).compileLdelem,
		il.OpLdelemR4:  (*x86Compiler).compileLdelem,
		il.OpLdelemR8:  (*x86Compiler).compileLdelem,
		il.OpLdelemRef: (*x86Compiler).compileLdelem,
		il.OpLdelem:    (*x86Compiler).compileLdelem,
		il.OpStelemI:   (*x86Compiler).compileStelem,
		il.OpStelemI1:  (*x86Compiler).compileStelem,
		il.OpStelemI2:  (*x86Compiler).compileStelem,
		il.OpStelemI4:  (*x86Compiler).compileStelem,
		il.OpStelemI8:  (*x86Compiler).compileStelem,
		il.OpStelemR4:  (*x86Compiler).compileStelem,
		il.OpStelemR8:  (*x86Compiler).compileStelem,
		il.OpStelemRef: (*x86Compiler).compileStelem,
		il.OpStelem:    (*x86Compiler).compileStelem,
	}
	ret := make(map[il.Opcode]lowering, len(table))
	for op, f := range table {
		ret[op] = onX86(f)
	}
	return ret
}

func (c *x86Compiler) emit(inst asm.Instruction, src, dst asm.Operand) {
	c.out.Emit(&asm.Node{Instruction: inst, Src: src, Dst: dst})
}

func (c *x86Compiler) emitLabel(l asm.Label) {
	c.out.Emit(&asm.Node{Instruction: asm.LABEL, Dst: asm.Branch(l)})
}

func (c *x86Compiler) push(src asm.Operand) { c.emit(x86.PUSHL, src, asm.None) }

func (c *x86Compiler) pop(dst asm.Operand) { c.emit(x86.POPL, asm.None, dst) }

// popWord pops the top entry, which must fill exactly one word, into r.
func (c *x86Compiler) popWord(r asm.Register) error {
	e, err := c.stack.Pop()
	if err != nil {
		return err
	}
	if e.Size != x86.WordSize {
		return fmt.Errorf("%w: %s on %s", ErrMalformedStack, c.inst.Opcode, e)
	}
	c.pop(reg(r))
	return nil
}

// localLabel returns a label private to the current instruction.
func (c *x86Compiler) localLabel(name string) asm.Label {
	return asm.Label(fmt.Sprintf("%s.%s", positionLabel(c.inst.Position), name))
}

// adjustStack moves the stack pointer by n bytes, positive n releasing space.
func (c *x86Compiler) adjustStack(n int) {
	switch {
	case n > 0:
		c.emit(x86.ADDL, asm.Imm(int64(n)), reg(x86.REG_SP))
	case n < 0:
		c.emit(x86.SUBL, asm.Imm(int64(-n)), reg(x86.REG_SP))
	}
}

func (c *x86Compiler) entry(t *meta.Type) StackEntry {
	return NewStackEntry(t, c.cfg.Architecture)
}

func (c *x86Compiler) pushEntry(t *meta.Type) {
	c.stack.Push(c.entry(t))
}

func (c *x86Compiler) sizeOf(t *meta.Type) int {
	return layout.SizeOf(t, c.cfg.Architecture, false)
}

func (c *x86Compiler) stackSizeOf(t *meta.Type) int {
	return layout.SizeOf(t, c.cfg.Architecture, true)
}

func reg(r asm.Register) asm.Operand { return asm.Reg(r) }

// at returns m displaced by k bytes.
func at(m asm.Operand, k int) asm.Operand {
	m.Const += int64(k)
	return m
}

// pushValue pushes the size bytes at m as one stack value. Values smaller
// than a word are zero or sign extended. m must not be based on AX, DX or SP.
func (c *x86Compiler) pushValue(m asm.Operand, size int, signed bool) {
	if size < x86.WordSize {
		c.load(m, size, signed, x86.REG_AX)
		c.push(reg(x86.REG_AX))
		return
	}
	for k := layout.Align(size, x86.WordSize) - x86.WordSize; k >= 0; k -= x86.WordSize {
		if rest := size - k; rest < x86.WordSize {
			c.load(at(m, k), rest, false, x86.REG_AX)
			c.push(reg(x86.REG_AX))
		} else {
			c.push(at(m, k))
		}
	}
}

// load reads size bytes at m into dst, which must not be DX.
func (c *x86Compiler) load(m asm.Operand, size int, signed bool, dst asm.Register) {
	switch size {
	case 1:
		if signed {
			c.emit(x86.MOVBLSX, m, reg(dst))
		} else {
			c.emit(x86.MOVBLZX, m, reg(dst))
		}
	case 2:
		if signed {
			c.emit(x86.MOVWLSX, m, reg(dst))
		} else {
			c.emit(x86.MOVWLZX, m, reg(dst))
		}
	case 3:
		c.emit(x86.MOVWLZX, m, reg(dst))
		c.emit(x86.MOVBLZX, at(m, 2), reg(x86.REG_DX))
		c.emit(x86.SHLL, asm.Imm(16), reg(x86.REG_DX))
		c.emit(x86.ORL, reg(x86.REG_DX), reg(dst))
	default:
		c.emit(x86.MOVL, m, reg(dst))
	}
}

// popValue pops one stack value and stores exactly size bytes of it at m.
// m must not be based on AX or SP.
func (c *x86Compiler) popValue(m asm.Operand, size int) {
	for k := 0; k < size; k += x86.WordSize {
		if rest := size - k; rest < x86.WordSize {
			c.pop(reg(x86.REG_AX))
			c.store(x86.REG_AX, at(m, k), rest)
		} else {
			c.pop(at(m, k))
		}
	}
}

// store writes the low size bytes of src at m. src is clobbered when size
// is 3.
func (c *x86Compiler) store(src asm.Register, m asm.Operand, size int) {
	switch size {
	case 1:
		c.emit(x86.MOVB, reg(src), m)
	case 2:
		c.emit(x86.MOVW, reg(src), m)
	case 3:
		c.emit(x86.MOVW, reg(src), m)
		c.emit(x86.SHRL, asm.Imm(16), reg(src))
		c.emit(x86.MOVB, reg(src), at(m, 2))
	default:
		c.emit(x86.MOVL, reg(src), m)
	}
}

// zero clears size bytes at m, using AX.
func (c *x86Compiler) zero(m asm.Operand, size int) {
	c.emit(x86.XORL, reg(x86.REG_AX), reg(x86.REG_AX))
	for k := 0; k < size; k += x86.WordSize {
		rest := size - k
		if rest > x86.WordSize {
			rest = x86.WordSize
		}
		c.store(x86.REG_AX, at(m, k), rest)
	}
}

// copyMemory copies size bytes from src to dst through AX. Neither operand
// may be based on AX.
func (c *x86Compiler) copyMemory(dst, src asm.Operand, size int) {
	for k := 0; k < size; {
		switch rest := size - k; {
		case rest >= 4:
			c.emit(x86.MOVL, at(src, k), reg(x86.REG_AX))
			c.emit(x86.MOVL, reg(x86.REG_AX), at(dst, k))
			k += 4
		case rest >= 2:
			c.emit(x86.MOVWLZX, at(src, k), reg(x86.REG_AX))
			c.emit(x86.MOVW, reg(x86.REG_AX), at(dst, k))
			k += 2
		default:
			c.emit(x86.MOVBLZX, at(src, k), reg(x86.REG_AX))
			c.emit(x86.MOVB, reg(x86.REG_AX), at(dst, k))
			k++
		}
	}
}

// popFloat pops a float entry into the SSE register dst, widening it to
// double precision when double is set.
func (c *x86Compiler) popFloat(e StackEntry, dst asm.Register, double bool) {
	top := asm.Mem(x86.REG_SP, 0)
	if e.Size == 8 {
		c.emit(x86.MOVSD, top, reg(dst))
	} else {
		c.emit(x86.MOVSS, top, reg(dst))
		if double {
			c.emit(x86.CVTSS2SD, reg(dst), reg(dst))
		}
	}
	c.adjustStack(e.Size)
}

// pushFloat pushes the SSE register src as a float32 or float64 value.
func (c *x86Compiler) pushFloat(src asm.Register, double bool) {
	top := asm.Mem(x86.REG_SP, 0)
	if double {
		c.adjustStack(-8)
		c.emit(x86.MOVSD, reg(src), top)
		c.pushEntry(meta.Double)
	} else {
		c.adjustStack(-4)
		c.emit(x86.MOVSS, reg(src), top)
		c.pushEntry(meta.Single)
	}
}

// stackType returns the type a value of type t has once loaded on the
// evaluation stack: small integers widen to Int32.
func stackType(t *meta.Type) *meta.Type {
	switch t.Kind {
	case meta.KindBoolean, meta.KindChar, meta.KindInt8, meta.KindUInt8,
		meta.KindInt16, meta.KindUInt16, meta.KindInt32, meta.KindUInt32:
		return meta.Int32
	case meta.KindEnum:
		if t.Elem == nil {
			return meta.Int32
		}
		return stackType(t.Elem)
	}
	return t
}

func isFloat(e StackEntry) bool { return e.Type.Kind.IsFloat() }

// operandError reports an instruction whose operand has the wrong variant.
func (c *x86Compiler) operandError(want string) error {
	return fmt.Errorf("%w: %s expects %s operand, got %T", ErrUnsupportedFeature, c.inst.Opcode, want, c.inst.Operand)
}

func (c *x86Compiler) methodOperand() (il.Method, error) {
	o, ok := c.inst.Operand.(il.Method)
	if !ok || o.Target == nil {
		return il.Method{}, c.operandError("method")
	}
	return o, nil
}

func (c *x86Compiler) fieldOperand() (*meta.Field, error) {
	o, ok := c.inst.Operand.(il.Field)
	if !ok || o.Target == nil {
		return nil, c.operandError("field")
	}
	return o.Target, nil
}

func (c *x86Compiler) typeOperand() (*meta.Type, error) {
	o, ok := c.inst.Operand.(il.Type)
	if !ok || o.Target == nil {
		return nil, c.operandError("type")
	}
	return o.Target, nil
}

func (c *x86Compiler) branchOperand() (il.Position, error) {
	o, ok := c.inst.Operand.(il.Branch)
	if !ok {
		return 0, c.operandError("branch")
	}
	return il.Position(o), nil
}
