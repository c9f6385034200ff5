package compiler

import (
	"fmt"

	"github.com/atomixos/ilc/il"
	"github.com/atomixos/ilc/internal/asm"
	"github.com/atomixos/ilc/internal/asm/x86"
	"github.com/atomixos/ilc/meta"
)

func x86Frame() *frameLowering {
	return &frameLowering{
		prologue: onX86((*x86Compiler).compilePrologue),
		landing:  onX86((*x86Compiler).compileLanding),
		epilogue: onX86((*x86Compiler).compileEpilogue),
	}
}

// compilePrologue sets up the frame pointer and reserves the locals.
func (c *x86Compiler) compilePrologue() error {
	m := c.mc.Method
	if _, err := normalizeConvention(m.CallingConvention); err != nil {
		return err
	}
	if size := c.mc.Frame.ArgumentsSize; size > 0xFFFF {
		return fmt.Errorf("%w: %d bytes of arguments", ErrUnsupportedFeature, size)
	}
	c.push(reg(x86.REG_BP))
	c.emit(x86.MOVL, reg(x86.REG_SP), reg(x86.REG_BP))
	locals := c.mc.Frame.LocalsSize
	if locals == 0 {
		return nil
	}
	c.adjustStack(-locals)
	if m.InitLocals {
		c.emit(x86.XORL, reg(x86.REG_AX), reg(x86.REG_AX))
		for k := 0; k < locals; k += x86.WordSize {
			c.emit(x86.MOVL, reg(x86.REG_AX), asm.Mem(x86.REG_SP, int64(k)))
		}
	}
	return nil
}

// compileEpilogue emits the two exits shared by every return path. The
// normal exit clears the exception register and falls into the exceptional
// one, which tears down the frame with CX left as set by the thrower.
func (c *x86Compiler) compileEpilogue() error {
	c.emitLabel(exitLabel)
	if !c.mc.Method.NoException() {
		c.emit(x86.XORL, reg(x86.ExceptionRegister), reg(x86.ExceptionRegister))
	}
	c.emitLabel(errorLabel)
	c.emit(x86.MOVL, reg(x86.REG_BP), reg(x86.REG_SP))
	c.pop(reg(x86.REG_BP))
	cc, _ := normalizeConvention(c.mc.Method.CallingConvention)
	if size := c.mc.Frame.ArgumentsSize; cc == meta.CallingConventionStdCall && size > 0 {
		c.emit(x86.RET, asm.Imm(int64(size)), asm.None)
	} else {
		c.emit(x86.RET, asm.None, asm.None)
	}
	return nil
}

// compileLanding is entered with the hardware stack in any state and CX set.
// It empties the evaluation stack, loads the pending exception and, for typed
// catch clauses, passes exceptions of other types on to the outer handler.
func (c *x86Compiler) compileLanding() error {
	clause, i, ok := c.mc.catchClause(c.inst.Position)
	if !ok {
		return nil
	}
	c.emit(x86.LEAL, asm.Mem(x86.REG_BP, int64(-c.mc.Frame.LocalsSize)), reg(x86.REG_SP))
	c.push(asm.SymbolMem(c.cfg.Runtime.CurrentException, 0))
	if clause.CatchType == nil || clause.CatchType.Kind == meta.KindObject {
		return nil
	}

	outer := c.mc.outerHandler(i)
	c.push(asm.Sym(clause.CatchType.Symbol()))
	c.emit(x86.CALL, asm.None, asm.Sym(c.cfg.Runtime.IsInstance))
	c.emit(x86.TESTL, reg(x86.REG_AX), reg(x86.REG_AX))
	matched := c.localLabel("caught")
	c.emit(x86.JNE, asm.None, asm.Branch(matched))
	c.emit(x86.MOVL, asm.Imm(1), reg(x86.ExceptionRegister))
	c.emit(x86.JMP, asm.None, asm.Branch(positionLabel(outer)))
	c.emitLabel(matched)
	c.push(reg(x86.REG_AX))
	// The entry stack was set by the translator before arriving here.
	return c.mc.saveHandlerEdge(c.opt, outer, c.cfg.Architecture)
}

// handler returns the handler exceptions raised by the current instruction
// go to.
func (c *x86Compiler) handler() il.Position {
	return c.inst.Handler
}

// emitExceptionCheck branches to the handler of the current instruction when
// the call just emitted signalled an exception. The stack shape at the
// handler is recorded before the call result is pushed.
func (c *x86Compiler) emitExceptionCheck(site *CallSite) error {
	if site != nil && site.NoException {
		return nil
	}
	h := c.handler()
	c.emit(x86.TESTL, asm.Imm(x86.ExceptionSentinel), reg(x86.ExceptionRegister))
	c.emit(x86.JNE, asm.None, asm.Branch(positionLabel(h)))
	return c.mc.saveHandlerEdge(c.opt, h, c.cfg.Architecture)
}

// emitCallSite emits the transfer to target and the cleanup the calling
// convention leaves to the caller, and pops the arguments off the virtual
// stack.
func (c *x86Compiler) emitCallSite(site *CallSite, target asm.Operand) error {
	args, err := c.stack.PopN(site.ParameterCount)
	if err != nil {
		return err
	}
	if args, err = c.convertArguments(args, site.Params); err != nil {
		return err
	}
	if size := Shape(args).Size(); size != site.ArgumentsSize {
		return fmt.Errorf("%w: %s takes %d bytes of arguments, stack holds %d", ErrMalformedStack, site.Symbol, site.ArgumentsSize, size)
	}
	c.emit(x86.CALL, asm.None, target)
	c.adjustStack(site.CallerCleanup())
	return nil
}

// pushReturn pushes the value returned in AX and DX by the call just
// emitted.
func (c *x86Compiler) pushReturn(site *CallSite) error {
	switch {
	case site.ReturnSize == 0:
		return nil
	case site.ReturnSize > 2*x86.WordSize:
		return fmt.Errorf("%w: %s returns %d bytes", ErrUnsupportedFeature, site.Symbol, site.ReturnSize)
	case site.ReturnSize > x86.WordSize:
		c.push(reg(x86.ReturnRegisterHigh))
	}
	c.push(reg(x86.ReturnRegisterLow))
	c.pushEntry(stackType(site.ReturnType))
	return nil
}

// emitCall is the complete call sequence: transfer, caller cleanup,
// exception check, result push and the fall-through edge.
func (c *x86Compiler) emitCall(site *CallSite, target asm.Operand) error {
	if site.ReturnSize > 2*x86.WordSize {
		return fmt.Errorf("%w: %s returns %d bytes", ErrUnsupportedFeature, site.Symbol, site.ReturnSize)
	}
	if err := c.emitCallSite(site, target); err != nil {
		return err
	}
	if err := c.emitExceptionCheck(site); err != nil {
		return err
	}
	if err := c.pushReturn(site); err != nil {
		return err
	}
	return c.opt.SaveStack(c.inst.Next)
}

// emitRuntimeCall calls a runtime helper taking the words already pushed and
// returning a single word in AX. The helper's arguments are not on the
// virtual stack.
func (c *x86Compiler) emitRuntimeCall(symbol string) error {
	c.emit(x86.CALL, asm.None, asm.Sym(symbol))
	return c.emitExceptionCheck(nil)
}
