package golang_asm

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/arch/x86/x86asm"
)

// Disassemble renders code as 32-bit instructions, one per line with its
// offset and bytes. Bound labels precede the instruction they mark, and
// relocations are noted after the instruction holding them. Undecodable
// bytes are shown as "db".
func Disassemble(code *Code) string {
	labels := map[int][]string{}
	for l, offset := range code.Labels {
		labels[offset] = append(labels[offset], string(l))
	}
	for _, ls := range labels {
		sort.Strings(ls)
	}

	var sb strings.Builder
	for offset := 0; offset < len(code.Bytes); {
		for _, l := range labels[offset] {
			sb.WriteString(l + ":\n")
		}

		inst, err := x86asm.Decode(code.Bytes[offset:], 32)
		if err != nil {
			sb.WriteString(fmt.Sprintf("0x%04x: db 0x%02x\n", offset, code.Bytes[offset]))
			offset++
			continue
		}

		var hexBytes []string
		for i := 0; i < inst.Len; i++ {
			hexBytes = append(hexBytes, fmt.Sprintf("%02x", code.Bytes[offset+i]))
		}
		line := fmt.Sprintf("0x%04x: %-20s %s", offset, strings.Join(hexBytes, " "), inst.String())
		for _, r := range code.Relocations {
			if r.Offset >= offset && r.Offset < offset+inst.Len {
				line += fmt.Sprintf(" ; %s %s", r.Kind, relocationTarget(r))
			}
		}
		sb.WriteString(line + "\n")
		offset += inst.Len
	}
	// Labels bound at the very end, e.g. of an empty stream.
	for _, l := range labels[len(code.Bytes)] {
		sb.WriteString(l + ":\n")
	}
	return sb.String()
}

func relocationTarget(r Relocation) string {
	switch {
	case r.Addend > 0:
		return fmt.Sprintf("%s+0x%x", r.Symbol, r.Addend)
	case r.Addend < 0:
		return fmt.Sprintf("%s-0x%x", r.Symbol, -r.Addend)
	}
	return r.Symbol
}

