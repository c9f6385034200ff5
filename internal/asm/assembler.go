// Package asm defines the architecture-independent instruction records the
// translator emits. Encoding them into machine code is the job of an encoder
// such as the golang_asm package.
package asm

// Register represents architecture-specific registers.
type Register byte

// NilRegister is the only architecture-independent register, and
// can be used to indicate that no register is specified.
const NilRegister Register = 0

// Instruction represents architecture-specific instructions. The values below
// InstructionBase are pseudo instructions shared by every architecture.
type Instruction byte

const (
	// NONE is the zero Instruction and never emitted.
	NONE Instruction = iota
	// LABEL binds the label in its destination operand to the position of the
	// next instruction. It occupies no space in the binary.
	LABEL
	// InstructionBase is the first value available to architecture packages.
	InstructionBase
)

// Label names a position in the instruction stream. Branch operands refer to
// labels which must be bound exactly once by a LABEL node.
type Label string

// OperandType represents where an operand is placed for an instruction.
// Note: this is almost the same as obj.AddrType in GO assembler.
type OperandType byte

const (
	OperandTypeNone OperandType = iota
	OperandTypeRegister
	OperandTypeMemory
	OperandTypeConst
	OperandTypeBranch
	// OperandTypeSymbol is the address of a linkage symbol, either as an
	// immediate or as the target of a direct call.
	OperandTypeSymbol
)

func (o OperandType) String() (ret string) {
	switch o {
	case OperandTypeNone:
		ret = "none"
	case OperandTypeRegister:
		ret = "register"
	case OperandTypeMemory:
		ret = "memory"
	case OperandTypeConst:
		ret = "const"
	case OperandTypeBranch:
		ret = "branch"
	case OperandTypeSymbol:
		ret = "symbol"
	}
	return
}

// Operand is one side of an instruction.
type Operand struct {
	Type OperandType
	// Reg is the register of OperandTypeRegister and the base register of
	// OperandTypeMemory. A memory operand without base is absolute.
	Reg   Register
	Index Register
	Scale byte
	// Const is the immediate of OperandTypeConst and the displacement of
	// OperandTypeMemory.
	Const int64
	// Symbol is the linkage symbol of OperandTypeSymbol. On a memory operand
	// its address is added to the displacement.
	Symbol string
	Label  Label
}

// None is the absent operand.
var None = Operand{}

// Reg returns a register operand.
func Reg(r Register) Operand { return Operand{Type: OperandTypeRegister, Reg: r} }

// Imm returns an immediate operand.
func Imm(v int64) Operand { return Operand{Type: OperandTypeConst, Const: v} }

// Mem returns the memory operand [base + offset].
func Mem(base Register, offset int64) Operand {
	return Operand{Type: OperandTypeMemory, Reg: base, Const: offset}
}

// MemIndex returns the memory operand [base + offset + index*scale].
func MemIndex(base Register, offset int64, index Register, scale byte) Operand {
	return Operand{Type: OperandTypeMemory, Reg: base, Const: offset, Index: index, Scale: scale}
}

// SymbolMem returns the absolute memory operand [symbol + offset].
func SymbolMem(symbol string, offset int64) Operand {
	return Operand{Type: OperandTypeMemory, Symbol: symbol, Const: offset}
}

// Sym returns the operand denoting the address of symbol.
func Sym(symbol string) Operand { return Operand{Type: OperandTypeSymbol, Symbol: symbol} }

// Branch returns a branch target operand.
func Branch(l Label) Operand { return Operand{Type: OperandTypeBranch, Label: l} }

// Node is one abstract instruction. Operands follow the Go assembler order:
// Src is read and Dst is written, except for compare instructions which
// compare Src against Dst.
type Node struct {
	Instruction Instruction
	Src, Dst    Operand
}

// Emitter is the sink handlers append instructions to.
type Emitter interface {
	// Emit appends n to the instruction stream.
	Emit(n *Node)
}
