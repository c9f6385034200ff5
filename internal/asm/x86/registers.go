package x86

import (
	"fmt"

	"github.com/atomixos/ilc/internal/asm"
)

// x86 registers. Byte and word sized accesses name the full register and
// let the instruction width select the sub-register, as the Go assembler does.
const (
	REG_AX asm.Register = asm.NilRegister + 1 + iota
	REG_CX
	REG_DX
	REG_BX
	REG_SP
	REG_BP
	REG_SI
	REG_DI
	REG_X0
	REG_X1
	REG_X2
	REG_X3
	REG_X4
	REG_X5
	REG_X6
	REG_X7
)

const (
	// WordSize is the size in bytes of a general purpose register.
	WordSize = 4
	// ReturnRegisterLow holds return values up to a word, and the low word of
	// two-word values.
	ReturnRegisterLow = REG_AX
	// ReturnRegisterHigh holds the high word of two-word return values.
	ReturnRegisterHigh = REG_DX
	// ExceptionRegister is non-zero after a call which left an exception
	// pending.
	ExceptionRegister = REG_CX
	// ExceptionSentinel is the mask tested against ExceptionRegister.
	ExceptionSentinel = 0xFFFFFFFF
)

// RegisterName returns the name for a register
func RegisterName(reg asm.Register) string {
	switch reg {
	case REG_AX:
		return "AX"
	case REG_CX:
		return "CX"
	case REG_DX:
		return "DX"
	case REG_BX:
		return "BX"
	case REG_SP:
		return "SP"
	case REG_BP:
		return "BP"
	case REG_SI:
		return "SI"
	case REG_DI:
		return "DI"
	case REG_X0:
		return "X0"
	case REG_X1:
		return "X1"
	case REG_X2:
		return "X2"
	case REG_X3:
		return "X3"
	case REG_X4:
		return "X4"
	case REG_X5:
		return "X5"
	case REG_X6:
		return "X6"
	case REG_X7:
		return "X7"
	}
	return fmt.Sprintf("x86.Register(%d)", reg)
}

// IsFloatRegister is true for the SSE registers.
func IsFloatRegister(reg asm.Register) bool {
	return reg >= REG_X0 && reg <= REG_X7
}

// Names formats x86 nodes.
var Names = asm.Names{Instruction: InstructionName, Register: RegisterName}

// Listing renders nodes as an x86 listing.
func Listing(nodes []*asm.Node) string {
	return Names.Listing(nodes)
}
