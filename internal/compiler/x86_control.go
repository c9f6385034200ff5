package compiler

import (
	"fmt"

	"github.com/atomixos/ilc/il"
	"github.com/atomixos/ilc/internal/asm"
	"github.com/atomixos/ilc/internal/asm/x86"
	"github.com/atomixos/ilc/meta"
)

// condition is an x86 condition code.
type condition byte

const (
	condEQ condition = iota
	condNE
	condLT
	condGE
	condLE
	condGT
	// Unsigned and floating point conditions test the carry flag.
	condCS
	condCC
	condLS
	condHI
)

var (
	setInstructions  = [...]asm.Instruction{x86.SETEQ, x86.SETNE, x86.SETLT, x86.SETGE, x86.SETLE, x86.SETGT, x86.SETCS, x86.SETCC, x86.SETLS, x86.SETHI}
	jumpInstructions = [...]asm.Instruction{x86.JEQ, x86.JNE, x86.JLT, x86.JGE, x86.JLE, x86.JGT, x86.JCS, x86.JCC, x86.JLS, x86.JHI}
)

// parity says how a floating point comparison treats unordered operands,
// which set the parity flag.
type parity byte

const (
	// parityIgnored conditions already evaluate as wanted on unordered
	// operands.
	parityIgnored parity = iota
	// parityRequireOrdered conditions are false on unordered operands.
	parityRequireOrdered
	// parityAcceptUnordered conditions are true on unordered operands.
	parityAcceptUnordered
)

type relOp byte

const (
	relEQ relOp = iota
	relNE
	relLT
	relLE
	relGT
	relGE
)

// relation is a comparison: unsigned on integers, unordered on floats when
// un is set.
type relation struct {
	op relOp
	un bool
}

var relations = map[il.Opcode]relation{
	il.OpCeq:   {relEQ, false},
	il.OpCgt:   {relGT, false},
	il.OpCgtUn: {relGT, true},
	il.OpClt:   {relLT, false},
	il.OpCltUn: {relLT, true},

	il.OpBeq:    {relEQ, false},
	il.OpBeqS:   {relEQ, false},
	il.OpBneUn:  {relNE, true},
	il.OpBneUnS: {relNE, true},
	il.OpBge:    {relGE, false},
	il.OpBgeS:   {relGE, false},
	il.OpBgeUn:  {relGE, true},
	il.OpBgeUnS: {relGE, true},
	il.OpBgt:    {relGT, false},
	il.OpBgtS:   {relGT, false},
	il.OpBgtUn:  {relGT, true},
	il.OpBgtUnS: {relGT, true},
	il.OpBle:    {relLE, false},
	il.OpBleS:   {relLE, false},
	il.OpBleUn:  {relLE, true},
	il.OpBleUnS: {relLE, true},
	il.OpBlt:    {relLT, false},
	il.OpBltS:   {relLT, false},
	il.OpBltUn:  {relLT, true},
	il.OpBltUnS: {relLT, true},
}

// integerConditions holds the signed and unsigned condition of each relation
// after "CMPL a, b".
var integerConditions = [...][2]condition{
	relEQ: {condEQ, condEQ},
	relNE: {condNE, condNE},
	relLT: {condLT, condCS},
	relLE: {condLE, condLS},
	relGT: {condGT, condHI},
	relGE: {condGE, condCC},
}

// floatRule lowers a float relation: swapped compares b against a rather
// than a against b.
type floatRule struct {
	swapped bool
	cond    condition
	parity  parity
}

// floatRules holds the ordered and unordered rule of each relation.
var floatRules = [...][2]floatRule{
	relEQ: {{false, condEQ, parityRequireOrdered}, {false, condEQ, parityRequireOrdered}},
	relNE: {{false, condNE, parityAcceptUnordered}, {false, condNE, parityAcceptUnordered}},
	relGT: {{false, condHI, parityIgnored}, {true, condCS, parityIgnored}},
	relGE: {{false, condCC, parityIgnored}, {true, condLS, parityIgnored}},
	relLT: {{true, condHI, parityIgnored}, {false, condCS, parityIgnored}},
	relLE: {{true, condCC, parityIgnored}, {false, condLS, parityIgnored}},
}

func boolIndex(b bool) int {
	if b {
		return 1
	}
	return 0
}

// emitComparison pops two operands, compares them and returns the condition
// under which the relation of the current opcode holds.
func (c *x86Compiler) emitComparison() (condition, parity, error) {
	rel, ok := relations[c.inst.Opcode]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s is not a comparison", ErrUnsupportedOpcode, c.inst.Opcode)
	}
	a, b, err := c.binaryOperands()
	if err != nil {
		return 0, 0, err
	}
	switch {
	case isFloat(a):
		rule := floatRules[rel.op][boolIndex(rel.un)]
		double := a.Size == 8 || b.Size == 8
		c.popFloat(b, x86.REG_X1, double)
		c.popFloat(a, x86.REG_X0, double)
		cmp := x86.UCOMISS
		if double {
			cmp = x86.UCOMISD
		}
		if rule.swapped {
			c.emit(cmp, reg(x86.REG_X0), reg(x86.REG_X1))
		} else {
			c.emit(cmp, reg(x86.REG_X1), reg(x86.REG_X0))
		}
		return rule.cond, rule.parity, nil
	case a.Size == 8:
		return c.emitComparison64(rel), parityIgnored, nil
	default:
		c.pop(reg(x86.REG_BX))
		c.pop(reg(x86.REG_AX))
		c.emit(x86.CMPL, reg(x86.REG_AX), reg(x86.REG_BX))
		return integerConditions[rel.op][boolIndex(rel.un)], parityIgnored, nil
	}
}

// emitComparison64 compares a in DX:AX against b in CX:BX. Ordering
// relations subtract with borrow so the flags describe the full 64-bit
// difference.
func (c *x86Compiler) emitComparison64(rel relation) condition {
	c.pop(reg(x86.REG_BX))
	c.pop(reg(x86.REG_CX))
	c.pop(reg(x86.REG_AX))
	c.pop(reg(x86.REG_DX))
	un := boolIndex(rel.un)
	switch rel.op {
	case relEQ, relNE:
		c.emit(x86.XORL, reg(x86.REG_BX), reg(x86.REG_AX))
		c.emit(x86.XORL, reg(x86.REG_CX), reg(x86.REG_DX))
		c.emit(x86.ORL, reg(x86.REG_DX), reg(x86.REG_AX))
		return integerConditions[rel.op][un]
	case relLT, relGE:
		c.emit(x86.CMPL, reg(x86.REG_AX), reg(x86.REG_BX))
		c.emit(x86.SBBL, reg(x86.REG_CX), reg(x86.REG_DX))
		return integerConditions[rel.op][un]
	case relGT:
		c.emit(x86.CMPL, reg(x86.REG_BX), reg(x86.REG_AX))
		c.emit(x86.SBBL, reg(x86.REG_DX), reg(x86.REG_CX))
		return integerConditions[relLT][un]
	default:
		c.emit(x86.CMPL, reg(x86.REG_BX), reg(x86.REG_AX))
		c.emit(x86.SBBL, reg(x86.REG_DX), reg(x86.REG_CX))
		return integerConditions[relGE][un]
	}
}

// compileCompare pushes 1 when the relation holds, 0 otherwise.
func (c *x86Compiler) compileCompare() error {
	cond, p, err := c.emitComparison()
	if err != nil {
		return err
	}
	c.emit(setInstructions[cond], asm.None, reg(x86.REG_AX))
	switch p {
	case parityRequireOrdered:
		c.emit(x86.SETPC, asm.None, reg(x86.REG_DX))
		c.emit(x86.ANDL, reg(x86.REG_DX), reg(x86.REG_AX))
	case parityAcceptUnordered:
		c.emit(x86.SETPS, asm.None, reg(x86.REG_DX))
		c.emit(x86.ORL, reg(x86.REG_DX), reg(x86.REG_AX))
	}
	c.emit(x86.MOVBLZX, reg(x86.REG_AX), reg(x86.REG_AX))
	c.push(reg(x86.REG_AX))
	c.pushEntry(meta.Int32)
	return nil
}

// jumpTo emits a jump to target and records the stack shape there.
func (c *x86Compiler) jumpTo(jump asm.Instruction, target il.Position) error {
	c.emit(jump, asm.None, asm.Branch(positionLabel(target)))
	return c.opt.SaveStack(target)
}

func (c *x86Compiler) compileBr() error {
	target, err := c.branchOperand()
	if err != nil {
		return err
	}
	return c.jumpTo(x86.JMP, target)
}

// compileBrCondition branches on whether the top of the stack is non-zero.
func (c *x86Compiler) compileBrCondition() error {
	target, err := c.branchOperand()
	if err != nil {
		return err
	}
	e, err := c.stack.Pop()
	if err != nil {
		return err
	}
	c.pop(reg(x86.REG_AX))
	switch e.Size {
	case x86.WordSize:
		c.emit(x86.TESTL, reg(x86.REG_AX), reg(x86.REG_AX))
	case 2 * x86.WordSize:
		c.pop(reg(x86.REG_DX))
		c.emit(x86.ORL, reg(x86.REG_DX), reg(x86.REG_AX))
	default:
		return fmt.Errorf("%w: %s on %s", ErrMalformedStack, c.inst.Opcode, e)
	}
	jump := x86.JNE
	switch c.inst.Opcode {
	case il.OpBrfalse, il.OpBrfalseS:
		jump = x86.JEQ
	}
	return c.jumpTo(jump, target)
}

// compileBrCompare branches when the relation between the top two values
// holds.
func (c *x86Compiler) compileBrCompare() error {
	target, err := c.branchOperand()
	if err != nil {
		return err
	}
	cond, p, err := c.emitComparison()
	if err != nil {
		return err
	}
	jump := jumpInstructions[cond]
	switch p {
	case parityRequireOrdered:
		skip := c.localLabel("unordered")
		c.emit(x86.JPS, asm.None, asm.Branch(skip))
		c.emit(jump, asm.None, asm.Branch(positionLabel(target)))
		c.emitLabel(skip)
		return c.opt.SaveStack(target)
	case parityAcceptUnordered:
		c.emit(x86.JPS, asm.None, asm.Branch(positionLabel(target)))
	}
	return c.jumpTo(jump, target)
}

// compileSwitch jumps to the target selected by the index on top of the
// stack, falling through when it is out of range.
func (c *x86Compiler) compileSwitch() error {
	targets, ok := c.inst.Operand.(il.Switch)
	if !ok {
		return c.operandError("switch")
	}
	if err := c.popWord(x86.REG_AX); err != nil {
		return err
	}
	for i, target := range targets {
		c.emit(x86.CMPL, reg(x86.REG_AX), asm.Imm(int64(i)))
		if err := c.jumpTo(x86.JEQ, target); err != nil {
			return err
		}
	}
	return nil
}

// compileLeave empties the evaluation stack and exits a protected region.
func (c *x86Compiler) compileLeave() error {
	target, err := c.branchOperand()
	if err != nil {
		return err
	}
	if c.mc.leavesFinally(c.inst.Position, target) {
		return fmt.Errorf("%w: leaving a finally or fault protected region", ErrUnsupportedFeature)
	}
	c.adjustStack(c.stack.Shape().Size())
	c.stack.Reset(nil)
	return c.jumpTo(x86.JMP, target)
}

func (c *x86Compiler) compileEndfinally() error {
	return fmt.Errorf("%w: finally and fault handlers", ErrUnsupportedFeature)
}

// compileRet moves the return value to AX, and DX for two-word values, and
// jumps to the normal exit.
func (c *x86Compiler) compileRet() error {
	ret := c.mc.Method.ReturnType()
	if !ret.IsVoid() {
		size := c.stackSizeOf(ret)
		if size > 2*x86.WordSize {
			return fmt.Errorf("%w: returning %d bytes", ErrUnsupportedFeature, size)
		}
		e, err := c.stack.Pop()
		if err != nil {
			return err
		}
		if err := c.coerce(e, ret); err != nil {
			return err
		}
		c.pop(reg(x86.ReturnRegisterLow))
		if size > x86.WordSize {
			c.pop(reg(x86.ReturnRegisterHigh))
		}
	}
	if n := c.stack.Count(); n != 0 {
		return fmt.Errorf("%w: %d entries left on return", ErrMalformedStack, n)
	}
	c.emit(x86.JMP, asm.None, asm.Branch(exitLabel))
	return nil
}

// compileThrow stores the exception object and signals it to the handler.
func (c *x86Compiler) compileThrow() error {
	if c.mc.Method.NoException() {
		return fmt.Errorf("%w: throw in a method which never signals exceptions", ErrUnsupportedFeature)
	}
	if _, err := c.stack.Pop(); err != nil {
		return err
	}
	c.pop(reg(x86.REG_AX))
	c.emit(x86.MOVL, reg(x86.REG_AX), asm.SymbolMem(c.cfg.Runtime.CurrentException, 0))
	return c.signal()
}

// compileRethrow signals the exception being handled again.
func (c *x86Compiler) compileRethrow() error {
	if c.mc.Method.NoException() {
		return fmt.Errorf("%w: rethrow in a method which never signals exceptions", ErrUnsupportedFeature)
	}
	return c.signal()
}

func (c *x86Compiler) signal() error {
	h := c.handler()
	c.emit(x86.MOVL, asm.Imm(1), reg(x86.ExceptionRegister))
	c.emit(x86.JMP, asm.None, asm.Branch(positionLabel(h)))
	return c.mc.saveHandlerEdge(c.opt, h, c.cfg.Architecture)
}
