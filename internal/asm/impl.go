package asm

import (
	"fmt"
	"strings"
)

// Names resolves architecture-specific names for formatting.
type Names struct {
	Instruction func(Instruction) string
	Register    func(Register) string
}

// Format renders n as one listing line in the Go assembler operand order.
func (names Names) Format(n *Node) string {
	if n.Instruction == LABEL {
		return string(n.Dst.Label) + ":"
	}
	inst := names.Instruction(n.Instruction)
	src, dst := names.operand(&n.Src), names.operand(&n.Dst)
	switch {
	case src == "" && dst == "":
		return inst
	case src == "":
		return fmt.Sprintf("%s %s", inst, dst)
	case dst == "":
		return fmt.Sprintf("%s %s", inst, src)
	}
	return fmt.Sprintf("%s %s, %s", inst, src, dst)
}

// Listing renders nodes one per line, indenting everything but labels.
func (names Names) Listing(nodes []*Node) string {
	var b strings.Builder
	for _, n := range nodes {
		if n.Instruction != LABEL {
			b.WriteByte('\t')
		}
		b.WriteString(names.Format(n))
		b.WriteByte('\n')
	}
	return b.String()
}

func (names Names) operand(o *Operand) (ret string) {
	switch o.Type {
	case OperandTypeRegister:
		ret = names.Register(o.Reg)
	case OperandTypeConst:
		if o.Const < 0 {
			ret = fmt.Sprintf("-0x%x", -o.Const)
		} else {
			ret = fmt.Sprintf("0x%x", o.Const)
		}
	case OperandTypeSymbol:
		ret = "$" + o.Symbol
	case OperandTypeBranch:
		ret = string(o.Label)
	case OperandTypeMemory:
		var parts []string
		if o.Symbol != "" {
			parts = append(parts, o.Symbol)
		}
		if o.Reg != NilRegister {
			parts = append(parts, names.Register(o.Reg))
		}
		if o.Index != NilRegister {
			parts = append(parts, fmt.Sprintf("%s*%d", names.Register(o.Index), o.Scale))
		}
		if o.Const != 0 || len(parts) == 0 {
			if o.Const < 0 {
				parts = append(parts, fmt.Sprintf("-0x%x", -o.Const))
			} else {
				parts = append(parts, fmt.Sprintf("0x%x", o.Const))
			}
		}
		ret = "[" + strings.Join(parts, " + ") + "]"
		ret = strings.ReplaceAll(ret, "+ -", "- ")
	}
	return
}
