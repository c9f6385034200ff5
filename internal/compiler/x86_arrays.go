package compiler

import (
	"github.com/atomixos/ilc/internal/asm"
	"github.com/atomixos/ilc/internal/asm/x86"
	"github.com/atomixos/ilc/internal/layout"
	"github.com/atomixos/ilc/meta"
)

// elementSize is the size of an array element of type t.
func (c *x86Compiler) elementSize(t *meta.Type) int {
	return c.sizeOf(t)
}

// elementAddress computes into dst the address of the element indexed by AX
// in the array BX. AX is clobbered for element sizes the addressing modes
// cannot scale by.
func (c *x86Compiler) elementAddress(t *meta.Type, dst asm.Register) {
	data := int64(layout.ArrayDataOffset(c.cfg.Architecture))
	size := c.elementSize(t)
	switch size {
	case 1, 2, 4, 8:
		c.emit(x86.LEAL, asm.MemIndex(x86.REG_BX, data, x86.REG_AX, byte(size)), reg(dst))
	default:
		c.emit(x86.IMULL, asm.Imm(int64(size)), reg(x86.REG_AX))
		c.emit(x86.LEAL, asm.MemIndex(x86.REG_BX, data, x86.REG_AX, 1), reg(dst))
	}
}

// compileNewarr allocates an array of the element count on top of the
// stack.
func (c *x86Compiler) compileNewarr() error {
	t, err := c.typeOperand()
	if err != nil {
		return err
	}
	if _, err := c.stack.Pop(); err != nil {
		return err
	}
	c.push(asm.Imm(int64(c.elementSize(t))))
	if err := c.emitRuntimeCall(c.cfg.Runtime.NewArray); err != nil {
		return err
	}
	c.push(reg(x86.REG_AX))
	c.pushEntry(meta.ArrayOf(t))
	return nil
}

func (c *x86Compiler) compileLdlen() error {
	if err := c.popWord(x86.REG_AX); err != nil {
		return err
	}
	c.push(asm.Mem(x86.REG_AX, int64(layout.ArrayLengthOffset(c.cfg.Architecture))))
	c.pushEntry(meta.UIntPtr)
	return nil
}

func (c *x86Compiler) compileLdelema() error {
	t, err := c.typeOperand()
	if err != nil {
		return err
	}
	if _, err := c.stack.PopN(2); err != nil {
		return err
	}
	c.pop(reg(x86.REG_AX))
	c.pop(reg(x86.REG_BX))
	c.elementAddress(t, x86.REG_AX)
	c.push(reg(x86.REG_AX))
	c.pushEntry(meta.ByRefTo(t))
	return nil
}

func (c *x86Compiler) compileLdelem() error {
	t, err := c.accessType()
	if err != nil {
		return err
	}
	if _, err := c.stack.PopN(2); err != nil {
		return err
	}
	c.pop(reg(x86.REG_AX))
	c.pop(reg(x86.REG_BX))
	c.elementAddress(t, x86.REG_BX)
	c.pushValue(asm.Mem(x86.REG_BX, 0), c.elementSize(t), signExtends(t))
	c.pushEntry(stackType(t))
	return nil
}

// compileStelem stores the value on top of the stack into the array element
// below it. The index and array stay in place until the value is stored.
func (c *x86Compiler) compileStelem() error {
	t, err := c.accessType()
	if err != nil {
		return err
	}
	v, err := c.stack.Pop()
	if err != nil {
		return err
	}
	if err := c.coerce(v, t); err != nil {
		return err
	}
	if _, err := c.stack.PopN(2); err != nil {
		return err
	}
	size := c.stackSizeOf(t)
	c.emit(x86.MOVL, asm.Mem(x86.REG_SP, int64(size)), reg(x86.REG_AX))
	c.emit(x86.MOVL, asm.Mem(x86.REG_SP, int64(size+x86.WordSize)), reg(x86.REG_BX))
	c.elementAddress(t, x86.REG_BX)
	c.popValue(asm.Mem(x86.REG_BX, 0), c.elementSize(t))
	c.adjustStack(2 * x86.WordSize)
	return nil
}
