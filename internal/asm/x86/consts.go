package x86

import (
	"fmt"

	"github.com/atomixos/ilc/internal/asm"
)

// x86 architecture-specific instructions. The names follow the Go assembler
// so that they read the same in listings and in the golang-asm encoder.
const (
	PUSHL asm.Instruction = asm.InstructionBase + iota
	POPL
	MOVL
	MOVW
	MOVB
	MOVBLZX
	MOVBLSX
	MOVWLZX
	MOVWLSX
	LEAL
	ADDL
	ADCL
	SUBL
	SBBL
	IMULL
	IDIVL
	DIVL
	CDQ
	ANDL
	ORL
	XORL
	NOTL
	NEGL
	SHLL
	SHRL
	SARL
	CMPL
	TESTL
	SETEQ
	SETNE
	SETLT
	SETGT
	SETLE
	SETGE
	SETCS
	SETHI
	SETLS
	SETCC
	SETPS
	SETPC
	JMP
	JEQ
	JNE
	JLT
	JGT
	JLE
	JGE
	JCS
	JHI
	JLS
	JCC
	JPS
	JPC
	CALL
	RET
	NOP
	INT3
	MOVSS
	MOVSD
	ADDSS
	ADDSD
	SUBSS
	SUBSD
	MULSS
	MULSD
	DIVSS
	DIVSD
	CVTSL2SS
	CVTSL2SD
	CVTTSS2SL
	CVTTSD2SL
	CVTSS2SD
	CVTSD2SS
	UCOMISS
	UCOMISD

	// instructionEnd is not an instruction.
	instructionEnd
)

// InstructionName returns the name for an instruction
func InstructionName(instruction asm.Instruction) string {
	switch instruction {
	case asm.NONE:
		return "NONE"
	case asm.LABEL:
		return "LABEL"
	case PUSHL:
		return "PUSHL"
	case POPL:
		return "POPL"
	case MOVL:
		return "MOVL"
	case MOVW:
		return "MOVW"
	case MOVB:
		return "MOVB"
	case MOVBLZX:
		return "MOVBLZX"
	case MOVBLSX:
		return "MOVBLSX"
	case MOVWLZX:
		return "MOVWLZX"
	case MOVWLSX:
		return "MOVWLSX"
	case LEAL:
		return "LEAL"
	case ADDL:
		return "ADDL"
	case ADCL:
		return "ADCL"
	case SUBL:
		return "SUBL"
	case SBBL:
		return "SBBL"
	case IMULL:
		return "IMULL"
	case IDIVL:
		return "IDIVL"
	case DIVL:
		return "DIVL"
	case CDQ:
		return "CDQ"
	case ANDL:
		return "ANDL"
	case ORL:
		return "ORL"
	case XORL:
		return "XORL"
	case NOTL:
		return "NOTL"
	case NEGL:
		return "NEGL"
	case SHLL:
		return "SHLL"
	case SHRL:
		return "SHRL"
	case SARL:
		return "SARL"
	case CMPL:
		return "CMPL"
	case TESTL:
		return "TESTL"
	case SETEQ:
		return "SETEQ"
	case SETNE:
		return "SETNE"
	case SETLT:
		return "SETLT"
	case SETGT:
		return "SETGT"
	case SETLE:
		return "SETLE"
	case SETGE:
		return "SETGE"
	case SETCS:
		return "SETCS"
	case SETHI:
		return "SETHI"
	case SETLS:
		return "SETLS"
	case SETCC:
		return "SETCC"
	case SETPS:
		return "SETPS"
	case SETPC:
		return "SETPC"
	case JMP:
		return "JMP"
	case JEQ:
		return "JEQ"
	case JNE:
		return "JNE"
	case JLT:
		return "JLT"
	case JGT:
		return "JGT"
	case JLE:
		return "JLE"
	case JGE:
		return "JGE"
	case JCS:
		return "JCS"
	case JHI:
		return "JHI"
	case JLS:
		return "JLS"
	case JCC:
		return "JCC"
	case JPS:
		return "JPS"
	case JPC:
		return "JPC"
	case CALL:
		return "CALL"
	case RET:
		return "RET"
	case NOP:
		return "NOP"
	case INT3:
		return "INT3"
	case MOVSS:
		return "MOVSS"
	case MOVSD:
		return "MOVSD"
	case ADDSS:
		return "ADDSS"
	case ADDSD:
		return "ADDSD"
	case SUBSS:
		return "SUBSS"
	case SUBSD:
		return "SUBSD"
	case MULSS:
		return "MULSS"
	case MULSD:
		return "MULSD"
	case DIVSS:
		return "DIVSS"
	case DIVSD:
		return "DIVSD"
	case CVTSL2SS:
		return "CVTSL2SS"
	case CVTSL2SD:
		return "CVTSL2SD"
	case CVTTSS2SL:
		return "CVTTSS2SL"
	case CVTTSD2SL:
		return "CVTTSD2SL"
	case CVTSS2SD:
		return "CVTSS2SD"
	case CVTSD2SS:
		return "CVTSD2SS"
	case UCOMISS:
		return "UCOMISS"
	case UCOMISD:
		return "UCOMISD"
	}
	return fmt.Sprintf("x86.Instruction(%d)", instruction)
}
