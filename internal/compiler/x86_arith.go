package compiler

import (
	"fmt"

	"github.com/atomixos/ilc/il"
	"github.com/atomixos/ilc/internal/asm"
	"github.com/atomixos/ilc/internal/asm/x86"
	"github.com/atomixos/ilc/meta"
)

// floatInstructions maps float opcodes to their single and double precision
// instructions.
var floatInstructions = map[il.Opcode][2]asm.Instruction{
	il.OpAdd: {x86.ADDSS, x86.ADDSD},
	il.OpSub: {x86.SUBSS, x86.SUBSD},
	il.OpMul: {x86.MULSS, x86.MULSD},
	il.OpDiv: {x86.DIVSS, x86.DIVSD},
}

// binaryOperands pops both operands of a binary operation off the virtual
// stack and checks they have the same representation.
func (c *x86Compiler) binaryOperands() (a, b StackEntry, err error) {
	if b, err = c.stack.Pop(); err != nil {
		return
	}
	if a, err = c.stack.Pop(); err != nil {
		return
	}
	if isFloat(a) != isFloat(b) || (!isFloat(a) && a.Size != b.Size) {
		err = fmt.Errorf("%w: %s on %s and %s", ErrMalformedStack, c.inst.Opcode, a, b)
	}
	return
}

// arithmeticType is the type of the result of integer arithmetic on a and b.
func arithmeticType(a, b StackEntry) *meta.Type {
	for _, e := range []StackEntry{a, b} {
		switch e.Type.Kind {
		case meta.KindPointer, meta.KindByRef:
			return e.Type
		}
	}
	if a.Type.Kind == meta.KindIntPtr || b.Type.Kind == meta.KindIntPtr {
		return meta.IntPtr
	}
	if a.Type.Kind == meta.KindUIntPtr || b.Type.Kind == meta.KindUIntPtr {
		return meta.UIntPtr
	}
	return a.Type
}

// compileBinary emits an operation which reads and writes an integer pair.
// op32 is applied as "op BX, AX"; lo and hi are applied to the two halves of
// 64-bit operands.
func (c *x86Compiler) compileBinary(op32, lo, hi asm.Instruction) error {
	a, b, err := c.binaryOperands()
	if err != nil {
		return err
	}
	if isFloat(a) {
		return c.compileFloatBinary(a, b)
	}
	if a.Size == 8 {
		if lo == asm.NONE {
			return fmt.Errorf("%w: 64-bit %s", ErrUnsupportedFeature, c.inst.Opcode)
		}
		c.pop(reg(x86.REG_AX))
		c.pop(reg(x86.REG_DX))
		c.emit(lo, reg(x86.REG_AX), asm.Mem(x86.REG_SP, 0))
		c.emit(hi, reg(x86.REG_DX), asm.Mem(x86.REG_SP, 4))
		c.stack.Push(a)
		return nil
	}
	c.pop(reg(x86.REG_BX))
	c.pop(reg(x86.REG_AX))
	c.emit(op32, reg(x86.REG_BX), reg(x86.REG_AX))
	c.push(reg(x86.REG_AX))
	c.pushEntry(arithmeticType(a, b))
	return nil
}

func (c *x86Compiler) compileFloatBinary(a, b StackEntry) error {
	ops, ok := floatInstructions[c.inst.Opcode]
	if !ok {
		return fmt.Errorf("%w: %s on floating point values", ErrUnsupportedFeature, c.inst.Opcode)
	}
	double := a.Size == 8 || b.Size == 8
	c.popFloat(b, x86.REG_X1, double)
	c.popFloat(a, x86.REG_X0, double)
	op := ops[0]
	if double {
		op = ops[1]
	}
	c.emit(op, reg(x86.REG_X1), reg(x86.REG_X0))
	c.pushFloat(x86.REG_X0, double)
	return nil
}

func (c *x86Compiler) compileAdd() error { return c.compileBinary(x86.ADDL, x86.ADDL, x86.ADCL) }

func (c *x86Compiler) compileSub() error { return c.compileBinary(x86.SUBL, x86.SUBL, x86.SBBL) }

func (c *x86Compiler) compileAnd() error { return c.compileBinary(x86.ANDL, x86.ANDL, x86.ANDL) }

func (c *x86Compiler) compileOr() error { return c.compileBinary(x86.ORL, x86.ORL, x86.ORL) }

func (c *x86Compiler) compileXor() error { return c.compileBinary(x86.XORL, x86.XORL, x86.XORL) }

func (c *x86Compiler) compileMul() error { return c.compileBinary(x86.IMULL, asm.NONE, asm.NONE) }

// compileDiv divides EDX:EAX by the divisor. Signed division sign extends
// the dividend, unsigned division clears EDX.
func (c *x86Compiler) compileDiv() error { return c.compileDivision(x86.REG_AX) }

func (c *x86Compiler) compileRem() error { return c.compileDivision(x86.REG_DX) }

func (c *x86Compiler) compileDivision(result asm.Register) error {
	a, b, err := c.binaryOperands()
	if err != nil {
		return err
	}
	if isFloat(a) {
		return c.compileFloatBinary(a, b)
	}
	if a.Size == 8 {
		return fmt.Errorf("%w: 64-bit %s", ErrUnsupportedFeature, c.inst.Opcode)
	}
	c.pop(reg(x86.REG_BX))
	c.pop(reg(x86.REG_AX))
	switch c.inst.Opcode {
	case il.OpDivUn, il.OpRemUn:
		c.emit(x86.XORL, reg(x86.REG_DX), reg(x86.REG_DX))
		c.emit(x86.DIVL, reg(x86.REG_BX), asm.None)
	default:
		c.emit(x86.CDQ, asm.None, asm.None)
		c.emit(x86.IDIVL, reg(x86.REG_BX), asm.None)
	}
	c.push(reg(result))
	c.pushEntry(arithmeticType(a, b))
	return nil
}

// compileShift shifts the value below the top by the amount on top, which
// x86 takes in CL.
func (c *x86Compiler) compileShift() error {
	amount, err := c.stack.Pop()
	if err != nil {
		return err
	}
	v, err := c.stack.Pop()
	if err != nil {
		return err
	}
	if isFloat(v) || isFloat(amount) || amount.Size != x86.WordSize {
		return fmt.Errorf("%w: %s on %s by %s", ErrMalformedStack, c.inst.Opcode, v, amount)
	}
	if v.Size != x86.WordSize {
		return fmt.Errorf("%w: 64-bit %s", ErrUnsupportedFeature, c.inst.Opcode)
	}
	op := x86.SHLL
	switch c.inst.Opcode {
	case il.OpShr:
		op = x86.SARL
	case il.OpShrUn:
		op = x86.SHRL
	}
	c.pop(reg(x86.REG_CX))
	c.pop(reg(x86.REG_AX))
	c.emit(op, reg(x86.REG_CX), reg(x86.REG_AX))
	c.push(reg(x86.REG_AX))
	c.stack.Push(v)
	return nil
}

func (c *x86Compiler) compileNeg() error {
	e, err := c.stack.Peek(0)
	if err != nil {
		return err
	}
	switch {
	case isFloat(e):
		// Flip the sign bit, which lives in the highest word.
		c.emit(x86.XORL, asm.Imm(0x80000000), asm.Mem(x86.REG_SP, int64(e.Size-x86.WordSize)))
	case e.Size == 8:
		c.pop(reg(x86.REG_AX))
		c.pop(reg(x86.REG_DX))
		c.emit(x86.NEGL, asm.None, reg(x86.REG_AX))
		c.emit(x86.ADCL, asm.Imm(0), reg(x86.REG_DX))
		c.emit(x86.NEGL, asm.None, reg(x86.REG_DX))
		c.push(reg(x86.REG_DX))
		c.push(reg(x86.REG_AX))
	default:
		c.emit(x86.NEGL, asm.None, asm.Mem(x86.REG_SP, 0))
	}
	return nil
}

func (c *x86Compiler) compileNot() error {
	e, err := c.stack.Peek(0)
	if err != nil {
		return err
	}
	if isFloat(e) {
		return fmt.Errorf("%w: not on %s", ErrMalformedStack, e)
	}
	for k := 0; k < e.Size; k += x86.WordSize {
		c.emit(x86.NOTL, asm.None, asm.Mem(x86.REG_SP, int64(k)))
	}
	return nil
}

// narrowings are the extensions truncating conversions apply to a word.
var narrowings = map[il.Opcode]asm.Instruction{
	il.OpConvI1: x86.MOVBLSX,
	il.OpConvU1: x86.MOVBLZX,
	il.OpConvI2: x86.MOVWLSX,
	il.OpConvU2: x86.MOVWLZX,
}

// compileConvInt converts the top of the stack to a word sized integer.
func (c *x86Compiler) compileConvInt() error {
	e, err := c.stack.Pop()
	if err != nil {
		return err
	}
	result := meta.Int32
	switch c.inst.Opcode {
	case il.OpConvI:
		result = meta.IntPtr
	case il.OpConvU:
		result = meta.UIntPtr
	}

	narrow, narrows := narrowings[c.inst.Opcode]
	switch {
	case isFloat(e):
		top := asm.Mem(x86.REG_SP, 0)
		if e.Size == 8 {
			c.emit(x86.MOVSD, top, reg(x86.REG_X0))
			c.emit(x86.CVTTSD2SL, reg(x86.REG_X0), reg(x86.REG_AX))
		} else {
			c.emit(x86.MOVSS, top, reg(x86.REG_X0))
			c.emit(x86.CVTTSS2SL, reg(x86.REG_X0), reg(x86.REG_AX))
		}
		c.adjustStack(e.Size)
	case e.Size == 8:
		c.pop(reg(x86.REG_AX))
		c.adjustStack(x86.WordSize)
	case narrows:
		c.pop(reg(x86.REG_AX))
	default:
		// Word to word conversions only retype the value.
		c.pushEntry(result)
		return nil
	}
	if narrows {
		c.emit(narrow, reg(x86.REG_AX), reg(x86.REG_AX))
	}
	c.push(reg(x86.REG_AX))
	c.pushEntry(result)
	return nil
}

// compileConvInt64 widens the top of the stack to 64 bits.
func (c *x86Compiler) compileConvInt64() error {
	e, err := c.stack.Pop()
	if err != nil {
		return err
	}
	result := meta.Int64
	if c.inst.Opcode == il.OpConvU8 {
		result = meta.UInt64
	}
	switch {
	case isFloat(e):
		return fmt.Errorf("%w: %s on %s", ErrUnsupportedFeature, c.inst.Opcode, e)
	case e.Size == 8:
	default:
		c.pop(reg(x86.REG_AX))
		if c.inst.Opcode == il.OpConvU8 {
			c.emit(x86.XORL, reg(x86.REG_DX), reg(x86.REG_DX))
		} else {
			c.emit(x86.CDQ, asm.None, asm.None)
		}
		c.push(reg(x86.REG_DX))
		c.push(reg(x86.REG_AX))
	}
	c.pushEntry(result)
	return nil
}

// compileConvFloat converts the top of the stack to float32 or float64.
func (c *x86Compiler) compileConvFloat() error {
	e, err := c.stack.Pop()
	if err != nil {
		return err
	}
	double := c.inst.Opcode == il.OpConvR8
	result := meta.Single
	if double {
		result = meta.Double
	}
	switch {
	case isFloat(e):
		if err := c.coerce(e, result); err != nil {
			return err
		}
		c.pushEntry(result)
	case e.Size == 8:
		return fmt.Errorf("%w: %s on %s", ErrUnsupportedFeature, c.inst.Opcode, e)
	default:
		c.pop(reg(x86.REG_AX))
		if double {
			c.emit(x86.CVTSL2SD, reg(x86.REG_AX), reg(x86.REG_X0))
		} else {
			c.emit(x86.CVTSL2SS, reg(x86.REG_AX), reg(x86.REG_X0))
		}
		c.pushFloat(x86.REG_X0, double)
	}
	return nil
}
