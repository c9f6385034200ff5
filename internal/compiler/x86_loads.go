package compiler

import (
	"fmt"
	"math"

	"github.com/atomixos/ilc/il"
	"github.com/atomixos/ilc/internal/asm"
	"github.com/atomixos/ilc/internal/asm/x86"
	"github.com/atomixos/ilc/internal/layout"
	"github.com/atomixos/ilc/meta"
)

// signExtends is true for types whose loads sign extend to a word.
func signExtends(t *meta.Type) bool {
	switch t.Kind {
	case meta.KindInt8, meta.KindInt16:
		return true
	case meta.KindEnum:
		return t.Elem != nil && signExtends(t.Elem)
	}
	return false
}

// indirectTypes are the types typed ldind, stind, ldelem and stelem forms
// access.
var indirectTypes = map[il.Opcode]*meta.Type{
	il.OpLdindI1: meta.SByte, il.OpLdindU1: meta.Byte, il.OpLdindI2: meta.Int16, il.OpLdindU2: meta.UInt16,
	il.OpLdindI4: meta.Int32, il.OpLdindU4: meta.UInt32, il.OpLdindI8: meta.Int64, il.OpLdindI: meta.IntPtr,
	il.OpLdindR4: meta.Single, il.OpLdindR8: meta.Double, il.OpLdindRef: meta.Object,

	il.OpStindI1: meta.SByte, il.OpStindI2: meta.Int16, il.OpStindI4: meta.Int32, il.OpStindI8: meta.Int64,
	il.OpStindI: meta.IntPtr, il.OpStindR4: meta.Single, il.OpStindR8: meta.Double, il.OpStindRef: meta.Object,

	il.OpLdelemI1: meta.SByte, il.OpLdelemU1: meta.Byte, il.OpLdelemI2: meta.Int16, il.OpLdelemU2: meta.UInt16,
	il.OpLdelemI4: meta.Int32, il.OpLdelemU4: meta.UInt32, il.OpLdelemI8: meta.Int64, il.OpLdelemI: meta.IntPtr,
	il.OpLdelemR4: meta.Single, il.OpLdelemR8: meta.Double, il.OpLdelemRef: meta.Object,

	il.OpStelemI: meta.IntPtr, il.OpStelemI1: meta.SByte, il.OpStelemI2: meta.Int16, il.OpStelemI4: meta.Int32,
	il.OpStelemI8: meta.Int64, il.OpStelemR4: meta.Single, il.OpStelemR8: meta.Double, il.OpStelemRef: meta.Object,
}

// accessType returns the type the current instruction loads or stores,
// either implied by its opcode or given by its type operand.
func (c *x86Compiler) accessType() (*meta.Type, error) {
	if t, ok := indirectTypes[c.inst.Opcode]; ok {
		return t, nil
	}
	return c.typeOperand()
}

// coerce makes the value e on top of the stack storable as t: floats are
// converted between precisions, any other size mismatch is an error.
func (c *x86Compiler) coerce(e StackEntry, t *meta.Type) error {
	want := c.stackSizeOf(t)
	if e.Size == want {
		return nil
	}
	if !isFloat(e) || !t.Kind.IsFloat() {
		return fmt.Errorf("%w: cannot store %s as %s", ErrMalformedStack, e, t)
	}
	top := asm.Mem(x86.REG_SP, 0)
	if want == 8 {
		c.emit(x86.MOVSS, top, reg(x86.REG_X0))
		c.emit(x86.CVTSS2SD, reg(x86.REG_X0), reg(x86.REG_X0))
		c.adjustStack(-4)
		c.emit(x86.MOVSD, reg(x86.REG_X0), top)
	} else {
		c.emit(x86.MOVSD, top, reg(x86.REG_X0))
		c.emit(x86.CVTSD2SS, reg(x86.REG_X0), reg(x86.REG_X0))
		c.adjustStack(4)
		c.emit(x86.MOVSS, reg(x86.REG_X0), top)
	}
	return nil
}

func (c *x86Compiler) compileNop() error { return nil }

func (c *x86Compiler) compileBreak() error {
	c.emit(x86.INT3, asm.None, asm.None)
	return nil
}

func (c *x86Compiler) compileLdcI4() error {
	var v int64
	switch op := c.inst.Opcode; op {
	case il.OpLdcI4S, il.OpLdcI4:
		o, ok := c.inst.Operand.(il.Int32)
		if !ok {
			return c.operandError("int32")
		}
		v = int64(o)
	default:
		v = int64(op) - int64(il.OpLdcI40)
	}
	c.push(asm.Imm(v))
	c.pushEntry(meta.Int32)
	return nil
}

func (c *x86Compiler) compileLdcI8() error {
	o, ok := c.inst.Operand.(il.Int64)
	if !ok {
		return c.operandError("int64")
	}
	c.pushQuad(uint64(o))
	c.pushEntry(meta.Int64)
	return nil
}

func (c *x86Compiler) compileLdcR4() error {
	o, ok := c.inst.Operand.(il.Float32)
	if !ok {
		return c.operandError("float32")
	}
	c.push(asm.Imm(int64(math.Float32bits(float32(o)))))
	c.pushEntry(meta.Single)
	return nil
}

func (c *x86Compiler) compileLdcR8() error {
	o, ok := c.inst.Operand.(il.Float64)
	if !ok {
		return c.operandError("float64")
	}
	c.pushQuad(math.Float64bits(float64(o)))
	c.pushEntry(meta.Double)
	return nil
}

// pushQuad pushes a 64-bit constant, high word first.
func (c *x86Compiler) pushQuad(v uint64) {
	c.push(asm.Imm(int64(v >> 32)))
	c.push(asm.Imm(int64(v & 0xFFFFFFFF)))
}

func (c *x86Compiler) compileLdnull() error {
	c.push(asm.Imm(0))
	c.pushEntry(meta.Object)
	return nil
}

func (c *x86Compiler) compileSizeof() error {
	t, err := c.typeOperand()
	if err != nil {
		return err
	}
	c.push(asm.Imm(int64(c.sizeOf(t))))
	c.pushEntry(meta.Int32)
	return nil
}

func (c *x86Compiler) compileDup() error {
	e, err := c.stack.Peek(0)
	if err != nil {
		return err
	}
	for k := 0; k < e.Size; k += x86.WordSize {
		c.push(asm.Mem(x86.REG_SP, int64(e.Size-x86.WordSize)))
	}
	c.stack.Push(e)
	return nil
}

func (c *x86Compiler) compilePop() error {
	e, err := c.stack.Pop()
	if err != nil {
		return err
	}
	c.adjustStack(e.Size)
	return nil
}

// indexOperand returns the argument or local index of the current
// instruction; the short forms encode it in the opcode relative to first.
func (c *x86Compiler) indexOperand(first il.Opcode) (int, error) {
	switch o := c.inst.Operand.(type) {
	case il.Index:
		return int(o), nil
	case nil:
		if c.inst.Opcode >= first && c.inst.Opcode < first+4 {
			return int(c.inst.Opcode - first), nil
		}
	}
	return 0, c.operandError("index")
}

func (c *x86Compiler) argument() (*meta.Type, asm.Operand, error) {
	i, err := c.indexOperand(il.OpLdarg0)
	if err != nil {
		return nil, asm.None, err
	}
	t, offset, err := c.mc.Frame.Argument(i)
	if err != nil {
		return nil, asm.None, fmt.Errorf("%w: %v", ErrMalformedStack, err)
	}
	return t, asm.Mem(x86.REG_BP, int64(offset)), nil
}

func (c *x86Compiler) local(first il.Opcode) (*meta.Type, asm.Operand, error) {
	i, err := c.indexOperand(first)
	if err != nil {
		return nil, asm.None, err
	}
	t, offset, err := c.mc.Frame.Local(i)
	if err != nil {
		return nil, asm.None, fmt.Errorf("%w: %v", ErrMalformedStack, err)
	}
	return t, asm.Mem(x86.REG_BP, int64(offset)), nil
}

// loadVariable pushes the argument or local of type t at m.
func (c *x86Compiler) loadVariable(t *meta.Type, m asm.Operand) {
	c.pushValue(m, c.sizeOf(t), signExtends(t))
	c.pushEntry(stackType(t))
}

// storeVariable pops the top of the stack into the argument or local of type
// t at m.
func (c *x86Compiler) storeVariable(t *meta.Type, m asm.Operand) error {
	e, err := c.stack.Pop()
	if err != nil {
		return err
	}
	if err := c.coerce(e, t); err != nil {
		return err
	}
	c.popValue(m, c.sizeOf(t))
	return nil
}

func (c *x86Compiler) compileLdarg() error {
	t, m, err := c.argument()
	if err != nil {
		return err
	}
	c.loadVariable(t, m)
	return nil
}

func (c *x86Compiler) compileStarg() error {
	t, m, err := c.argument()
	if err != nil {
		return err
	}
	return c.storeVariable(t, m)
}

func (c *x86Compiler) compileLdarga() error {
	t, m, err := c.argument()
	if err != nil {
		return err
	}
	c.pushAddress(m)
	c.pushEntry(meta.ByRefTo(t))
	return nil
}

func (c *x86Compiler) compileLdloc() error {
	t, m, err := c.local(il.OpLdloc0)
	if err != nil {
		return err
	}
	c.loadVariable(t, m)
	return nil
}

func (c *x86Compiler) compileStloc() error {
	t, m, err := c.local(il.OpStloc0)
	if err != nil {
		return err
	}
	return c.storeVariable(t, m)
}

func (c *x86Compiler) compileLdloca() error {
	t, m, err := c.local(il.OpLdloc0)
	if err != nil {
		return err
	}
	c.pushAddress(m)
	c.pushEntry(meta.ByRefTo(t))
	return nil
}

func (c *x86Compiler) pushAddress(m asm.Operand) {
	c.emit(x86.LEAL, m, reg(x86.REG_AX))
	c.push(reg(x86.REG_AX))
}

// compileLdindU1 loads the unsigned byte at the address on top of the stack
// and pushes it zero extended to a word.
func (c *x86Compiler) compileLdindU1() error {
	return c.loadIndirect(meta.Byte)
}

// compileLdind loads a value of the opcode's type through the address on top
// of the stack.
func (c *x86Compiler) compileLdind() error {
	t, err := c.accessType()
	if err != nil {
		return err
	}
	return c.loadIndirect(t)
}

func (c *x86Compiler) compileLdobj() error {
	t, err := c.typeOperand()
	if err != nil {
		return err
	}
	return c.loadIndirect(t)
}

func (c *x86Compiler) loadIndirect(t *meta.Type) error {
	if err := c.popWord(x86.REG_BX); err != nil {
		return err
	}
	c.pushValue(asm.Mem(x86.REG_BX, 0), c.sizeOf(t), signExtends(t))
	c.pushEntry(stackType(t))
	return nil
}

func (c *x86Compiler) compileStind() error {
	t, err := c.accessType()
	if err != nil {
		return err
	}
	return c.storeIndirect(t, 0)
}

func (c *x86Compiler) compileStobj() error {
	t, err := c.typeOperand()
	if err != nil {
		return err
	}
	return c.storeIndirect(t, 0)
}

// storeIndirect pops a value of type t and stores it at offset from the
// address below it, which is popped as well.
func (c *x86Compiler) storeIndirect(t *meta.Type, offset int) error {
	e, err := c.stack.Pop()
	if err != nil {
		return err
	}
	if err := c.coerce(e, t); err != nil {
		return err
	}
	if _, err := c.stack.Pop(); err != nil {
		return err
	}
	c.emit(x86.MOVL, asm.Mem(x86.REG_SP, int64(c.stackSizeOf(t))), reg(x86.REG_BX))
	c.popValue(asm.Mem(x86.REG_BX, int64(offset)), c.sizeOf(t))
	c.adjustStack(x86.WordSize)
	return nil
}

func (c *x86Compiler) compileCpobj() error {
	t, err := c.typeOperand()
	if err != nil {
		return err
	}
	if _, err := c.stack.PopN(2); err != nil {
		return err
	}
	c.pop(reg(x86.REG_DX))
	c.pop(reg(x86.REG_BX))
	c.copyMemory(asm.Mem(x86.REG_BX, 0), asm.Mem(x86.REG_DX, 0), c.sizeOf(t))
	return nil
}

func (c *x86Compiler) compileInitobj() error {
	t, err := c.typeOperand()
	if err != nil {
		return err
	}
	if _, err := c.stack.Pop(); err != nil {
		return err
	}
	c.pop(reg(x86.REG_BX))
	c.zero(asm.Mem(x86.REG_BX, 0), c.sizeOf(t))
	return nil
}

func (c *x86Compiler) instanceField() (*meta.Field, int, error) {
	f, err := c.fieldOperand()
	if err != nil {
		return nil, 0, err
	}
	if f.IsStatic || f.DeclaringType == nil {
		return nil, 0, fmt.Errorf("%w: %s is not an instance field", ErrUnsupportedFeature, f)
	}
	return f, layout.FieldOffset(f, c.cfg.Architecture), nil
}

// compileLdfld loads a field of the object, pointer or value on top of the
// stack.
func (c *x86Compiler) compileLdfld() error {
	f, offset, err := c.instanceField()
	if err != nil {
		return err
	}
	o, err := c.stack.Pop()
	if err != nil {
		return err
	}
	size := c.sizeOf(f.Type)
	if o.Type.Kind != meta.KindValueType {
		c.pop(reg(x86.REG_BX))
		c.pushValue(asm.Mem(x86.REG_BX, int64(offset)), size, signExtends(f.Type))
		c.pushEntry(stackType(f.Type))
		return nil
	}

	// The value itself is on the stack: push the field above it, then move
	// it down over the value.
	c.emit(x86.MOVL, reg(x86.REG_SP), reg(x86.REG_BX))
	c.pushValue(asm.Mem(x86.REG_BX, int64(offset)), size, signExtends(f.Type))
	fieldSize := c.stackSizeOf(f.Type)
	for k := fieldSize - x86.WordSize; k >= 0; k -= x86.WordSize {
		c.emit(x86.MOVL, asm.Mem(x86.REG_SP, int64(k)), reg(x86.REG_AX))
		c.emit(x86.MOVL, reg(x86.REG_AX), asm.Mem(x86.REG_SP, int64(o.Size+k)))
	}
	c.adjustStack(o.Size)
	c.pushEntry(stackType(f.Type))
	return nil
}

func (c *x86Compiler) compileLdflda() error {
	f, offset, err := c.instanceField()
	if err != nil {
		return err
	}
	o, err := c.stack.Pop()
	if err != nil {
		return err
	}
	if o.Size != x86.WordSize {
		return fmt.Errorf("%w: ldflda on %s", ErrMalformedStack, o)
	}
	c.pop(reg(x86.REG_AX))
	c.emit(x86.LEAL, asm.Mem(x86.REG_AX, int64(offset)), reg(x86.REG_AX))
	c.push(reg(x86.REG_AX))
	c.pushEntry(meta.ByRefTo(f.Type))
	return nil
}

func (c *x86Compiler) compileStfld() error {
	f, offset, err := c.instanceField()
	if err != nil {
		return err
	}
	return c.storeIndirect(f.Type, offset)
}

func (c *x86Compiler) staticField() (*meta.Field, asm.Operand, error) {
	f, err := c.fieldOperand()
	if err != nil {
		return nil, asm.None, err
	}
	return f, asm.SymbolMem(f.Symbol(), 0), nil
}

func (c *x86Compiler) compileLdsfld() error {
	f, m, err := c.staticField()
	if err != nil {
		return err
	}
	c.loadVariable(f.Type, m)
	return nil
}

func (c *x86Compiler) compileStsfld() error {
	f, m, err := c.staticField()
	if err != nil {
		return err
	}
	return c.storeVariable(f.Type, m)
}

func (c *x86Compiler) compileLdsflda() error {
	f, _, err := c.staticField()
	if err != nil {
		return err
	}
	c.push(asm.Sym(f.Symbol()))
	c.pushEntry(meta.ByRefTo(f.Type))
	return nil
}
