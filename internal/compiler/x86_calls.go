package compiler

import (
	"fmt"
	"hash/fnv"

	"github.com/atomixos/ilc/il"
	"github.com/atomixos/ilc/internal/asm"
	"github.com/atomixos/ilc/internal/asm/x86"
	"github.com/atomixos/ilc/internal/layout"
	"github.com/atomixos/ilc/meta"
)

// StringSymbol returns the data symbol of the literal s referenced by ldstr.
func StringSymbol(s string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return fmt.Sprintf("__String_%08x", h.Sum32())
}

func (c *x86Compiler) callSite(o il.Method) (*CallSite, error) {
	return NewCallSite(o.Target, o.Convention(), c.cfg.Architecture)
}

// compileCall translates a direct call: the arguments are on the stack in
// declaration order, and the result, if any, replaces them.
func (c *x86Compiler) compileCall() error {
	o, err := c.methodOperand()
	if err != nil {
		return err
	}
	site, err := c.callSite(o)
	if err != nil {
		return err
	}
	return c.emitCall(site, asm.Sym(site.Symbol))
}

// compileCallvirt dispatches virtual methods through the vtable of the
// receiver. Non-virtual targets are called directly.
func (c *x86Compiler) compileCallvirt() error {
	o, err := c.methodOperand()
	if err != nil {
		return err
	}
	site, err := c.callSite(o)
	if err != nil {
		return err
	}
	if !o.Target.IsVirtual || !o.Target.HasThis() {
		return c.emitCall(site, asm.Sym(site.Symbol))
	}
	if err := c.prepareArguments(site); err != nil {
		return err
	}
	// The receiver is the deepest of the converted arguments.
	receiver := asm.Mem(x86.REG_SP, int64(site.ArgumentsSize-x86.WordSize))
	c.emit(x86.MOVL, receiver, reg(x86.REG_AX))
	c.emit(x86.MOVL, asm.Mem(x86.REG_AX, layout.ObjectTypeOffset), reg(x86.REG_AX))
	slot := layout.VTableSlotOffset(o.Target.VTableSlot, c.cfg.Architecture)
	return c.emitCall(site, asm.Mem(x86.REG_AX, int64(slot)))
}

func (c *x86Compiler) compileCalli() error {
	sig, ok := c.inst.Operand.(il.Signature)
	if !ok {
		return c.operandError("signature")
	}
	if _, err := c.stack.Pop(); err != nil {
		return err
	}
	site, err := signatureCallSite(sig.Params, sig.Return, sig.HasThis, sig.CallingConvention, c.cfg.Architecture)
	if err != nil {
		return err
	}
	site.Symbol = "calli"
	c.pop(reg(x86.REG_AX))
	return c.emitCall(site, reg(x86.REG_AX))
}

// compileNewobj allocates an instance and runs its constructor. The stack
// below the constructor arguments is opened up for the result and the
// receiver, so the constructor sees the receiver as its first argument and
// the result remains once the arguments are consumed.
func (c *x86Compiler) compileNewobj() error {
	o, err := c.methodOperand()
	if err != nil {
		return err
	}
	ctor := o.Target
	if !ctor.HasThis() || ctor.DeclaringType == nil {
		return fmt.Errorf("%w: %s is not a constructor", ErrUnsupportedFeature, ctor.FullName())
	}
	site, err := c.callSite(o)
	if err != nil {
		return err
	}
	t := ctor.DeclaringType
	params, err := c.stack.PopN(site.ParameterCount - 1)
	if err != nil {
		return err
	}
	if params, err = c.convertArguments(params, ctor.Params); err != nil {
		return err
	}
	paramsSize := Shape(params).Size()
	arch := c.cfg.Architecture

	if t.IsValueType() {
		size := c.stackSizeOf(t)
		c.openArguments(paramsSize, size+x86.WordSize)
		c.zero(asm.Mem(x86.REG_SP, int64(paramsSize+x86.WordSize)), size)
		c.emit(x86.LEAL, asm.Mem(x86.REG_SP, int64(paramsSize+x86.WordSize)), reg(x86.REG_BX))
		c.emit(x86.MOVL, reg(x86.REG_BX), asm.Mem(x86.REG_SP, int64(paramsSize)))
		c.pushEntry(t)
		c.pushEntry(layout.ReceiverType(t))
	} else {
		c.push(asm.Imm(int64(layout.InstanceSize(t, arch))))
		if err := c.emitRuntimeCall(c.cfg.Runtime.Allocate); err != nil {
			return err
		}
		c.emit(x86.MOVL, asm.Sym(t.Symbol()), asm.Mem(x86.REG_AX, layout.ObjectTypeOffset))
		c.openArguments(paramsSize, 2*x86.WordSize)
		c.emit(x86.MOVL, reg(x86.REG_AX), asm.Mem(x86.REG_SP, int64(paramsSize)))
		c.emit(x86.MOVL, reg(x86.REG_AX), asm.Mem(x86.REG_SP, int64(paramsSize+x86.WordSize)))
		c.pushEntry(t)
		c.pushEntry(t)
	}
	for _, p := range params {
		c.stack.Push(p)
	}
	return c.emitCall(site, asm.Sym(site.Symbol))
}

// openArguments moves the top size bytes of the stack down by gap bytes,
// leaving gap bytes of space below them. AX is preserved.
func (c *x86Compiler) openArguments(size, gap int) {
	c.adjustStack(-gap)
	for i := 0; i < layout.Slots(size, c.cfg.Architecture); i++ {
		k := int64(i * x86.WordSize)
		c.emit(x86.MOVL, asm.Mem(x86.REG_SP, int64(gap)+k), reg(x86.REG_BX))
		c.emit(x86.MOVL, reg(x86.REG_BX), asm.Mem(x86.REG_SP, k))
	}
}

// prepareArguments converts the arguments of site in place.
func (c *x86Compiler) prepareArguments(site *CallSite) error {
	args, err := c.stack.PopN(site.ParameterCount)
	if err != nil {
		return err
	}
	if args, err = c.convertArguments(args, site.Params); err != nil {
		return err
	}
	for _, a := range args {
		c.stack.Push(a)
	}
	return nil
}

// convertArguments brings float arguments to the width of their float
// parameters. args are the entries on top of the stack, bottom first, and
// the converted entries are returned. Other mismatches are left for the
// caller to reject.
func (c *x86Compiler) convertArguments(args []StackEntry, params []*meta.Type) ([]StackEntry, error) {
	if len(args) != len(params) {
		return args, nil
	}
	converted := append([]StackEntry(nil), args...)
	first := -1
	for i, a := range args {
		p := params[i]
		if a.Size == c.stackSizeOf(p) || !isFloat(a) || !p.Kind.IsFloat() {
			continue
		}
		converted[i] = c.entry(p)
		if first < 0 {
			first = i
		}
	}
	switch first {
	case -1:
		return args, nil
	case len(args) - 1:
		return converted, c.coerce(args[first], params[first])
	}
	c.rebuildArguments(args, converted)
	return converted, nil
}

// rebuildArguments rewrites the arguments laid out as from into the layout
// of to, converting the float entries whose width differs. The new
// arguments are built below the old ones and then moved up over them.
func (c *x86Compiler) rebuildArguments(from, to []StackEntry) {
	fromSize, toSize := Shape(from).Size(), Shape(to).Size()
	c.adjustStack(-toSize)
	src, dst := toSize+fromSize, toSize
	for i := range from {
		src -= from[i].Size
		dst -= to[i].Size
		s, d := asm.Mem(x86.REG_SP, int64(src)), asm.Mem(x86.REG_SP, int64(dst))
		switch {
		case from[i].Size == to[i].Size:
			c.copyMemory(d, s, from[i].Size)
		case to[i].Size == 8:
			c.emit(x86.MOVSS, s, reg(x86.REG_X0))
			c.emit(x86.CVTSS2SD, reg(x86.REG_X0), reg(x86.REG_X0))
			c.emit(x86.MOVSD, reg(x86.REG_X0), d)
		default:
			c.emit(x86.MOVSD, s, reg(x86.REG_X0))
			c.emit(x86.CVTSD2SS, reg(x86.REG_X0), reg(x86.REG_X0))
			c.emit(x86.MOVSS, reg(x86.REG_X0), d)
		}
	}
	// The destination lies above the source, so words move top down.
	for i := layout.Slots(toSize, c.cfg.Architecture) - 1; i >= 0; i-- {
		k := int64(i * x86.WordSize)
		c.emit(x86.MOVL, asm.Mem(x86.REG_SP, k), reg(x86.REG_BX))
		c.emit(x86.MOVL, reg(x86.REG_BX), asm.Mem(x86.REG_SP, int64(fromSize)+k))
	}
	c.adjustStack(fromSize)
}

func (c *x86Compiler) compileLdftn() error {
	o, err := c.methodOperand()
	if err != nil {
		return err
	}
	c.push(asm.Sym(o.Target.Symbol()))
	c.pushEntry(meta.IntPtr)
	return nil
}

func (c *x86Compiler) compileLdvirtftn() error {
	o, err := c.methodOperand()
	if err != nil {
		return err
	}
	if _, err := c.stack.Pop(); err != nil {
		return err
	}
	c.pop(reg(x86.REG_AX))
	if o.Target.IsVirtual {
		c.emit(x86.MOVL, asm.Mem(x86.REG_AX, layout.ObjectTypeOffset), reg(x86.REG_AX))
		slot := layout.VTableSlotOffset(o.Target.VTableSlot, c.cfg.Architecture)
		c.push(asm.Mem(x86.REG_AX, int64(slot)))
	} else {
		c.push(asm.Sym(o.Target.Symbol()))
	}
	c.pushEntry(meta.IntPtr)
	return nil
}

func (c *x86Compiler) compileCastclass() error {
	return c.compileTypeCheck(c.cfg.Runtime.CastClass)
}

func (c *x86Compiler) compileIsinst() error {
	return c.compileTypeCheck(c.cfg.Runtime.IsInstance)
}

// compileTypeCheck passes the object on top of the stack and the type
// descriptor to the runtime helper and pushes its result.
func (c *x86Compiler) compileTypeCheck(helper string) error {
	t, err := c.typeOperand()
	if err != nil {
		return err
	}
	if _, err := c.stack.Pop(); err != nil {
		return err
	}
	c.push(asm.Sym(t.Symbol()))
	if err := c.emitRuntimeCall(helper); err != nil {
		return err
	}
	c.push(reg(x86.REG_AX))
	c.pushEntry(t)
	return nil
}

func (c *x86Compiler) compileLdstr() error {
	s, ok := c.inst.Operand.(il.String)
	if !ok {
		return c.operandError("string")
	}
	c.push(asm.Sym(StringSymbol(string(s))))
	c.pushEntry(meta.String)
	return nil
}
