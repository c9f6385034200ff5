package il

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/atomixos/ilc/meta"
)

// ParseBody parses the textual form of m's instructions, one per line:
//
//	IL_0000: ldarg.0
//	IL_0001: ldfld Kernel.Port::Number
//	IL_0006: ret
//
// The position label is optional and defaults to the position following the
// previous instruction. Text after "//" is a comment. Type, field and method
// tokens are resolved through r.
func ParseBody(m *meta.Method, src string, r meta.Resolver) (*Body, error) {
	var insts []Instruction
	next := Position(0)
	for n, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(stripComment(line))
		if line == "" {
			continue
		}
		inst, err := parseInstruction(line, next, r)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n+1, err)
		}
		if len(insts) > 0 && inst.Position < next {
			return nil, fmt.Errorf("line %d: position %s does not follow %s", n+1, inst.Position, insts[len(insts)-1].Position)
		}
		insts = append(insts, inst)
		next = inst.Position + 1
	}
	return NewBody(m, insts), nil
}

// stripComment cuts line at the first "//" outside a string literal.
func stripComment(line string) string {
	inString, escaped := false, false
	for i := 0; i < len(line); i++ {
		switch c := line[i]; {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case !inString && c == '/' && i+1 < len(line) && line[i+1] == '/':
			return line[:i]
		}
	}
	return line
}

func parseInstruction(line string, pos Position, r meta.Resolver) (Instruction, error) {
	if label, rest, ok := strings.Cut(line, ":"); ok && strings.HasPrefix(label, "IL_") {
		p, err := parsePosition(label)
		if err != nil {
			return Instruction{}, err
		}
		pos, line = p, strings.TrimSpace(rest)
	}

	mnemonic, operand := line, ""
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		mnemonic, operand = line[:i], line[i+1:]
	}
	op, ok := LookupOpcode(mnemonic)
	if !ok {
		return Instruction{}, fmt.Errorf("unknown opcode %q", mnemonic)
	}
	o, err := parseOperand(op.OperandKind(), strings.TrimSpace(operand), r)
	if err != nil {
		return Instruction{}, fmt.Errorf("%s: %w", op, err)
	}
	return Instruction{Position: pos, Opcode: op, Operand: o}, nil
}

func parsePosition(s string) (Position, error) {
	if !strings.HasPrefix(s, "IL_") {
		return 0, fmt.Errorf("invalid position %q", s)
	}
	v, err := strconv.ParseUint(s[3:], 16, 31)
	if err != nil {
		return 0, fmt.Errorf("invalid position %q", s)
	}
	return Position(v), nil
}

func parseOperand(kind OperandKind, s string, r meta.Resolver) (Operand, error) {
	if kind == OperandNone {
		if s != "" {
			return nil, fmt.Errorf("unexpected operand %q", s)
		}
		return nil, nil
	}
	if s == "" {
		return nil, fmt.Errorf("missing operand")
	}

	switch kind {
	case OperandInt32:
		v, err := strconv.ParseInt(s, 0, 32)
		return Int32(v), err
	case OperandInt64:
		v, err := strconv.ParseInt(s, 0, 64)
		return Int64(v), err
	case OperandFloat32:
		v, err := strconv.ParseFloat(s, 32)
		return Float32(v), err
	case OperandFloat64:
		v, err := strconv.ParseFloat(s, 64)
		return Float64(v), err
	case OperandIndex:
		v, err := strconv.ParseUint(s, 0, 16)
		return Index(v), err
	case OperandBranch:
		p, err := parsePosition(s)
		return Branch(p), err
	case OperandSwitch:
		return parseSwitch(s)
	case OperandString:
		v, err := strconv.Unquote(s)
		return String(v), err
	case OperandMethod:
		return parseMethod(s, r)
	case OperandField:
		f, err := meta.LookupField(r, s)
		if err != nil {
			return nil, err
		}
		return Field{Target: f}, nil
	case OperandType:
		t, err := meta.LookupType(r, s)
		if err != nil {
			return nil, err
		}
		return Type{Target: t}, nil
	case OperandSignature:
		return parseSignature(s, r)
	}
	return nil, fmt.Errorf("operand %q cannot be represented", s)
}

// parseSwitch parses "(IL_0004, IL_0010)".
func parseSwitch(s string) (Operand, error) {
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return nil, fmt.Errorf("invalid jump table %q", s)
	}
	ret := Switch{}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return ret, nil
	}
	for _, t := range strings.Split(inner, ",") {
		p, err := parsePosition(strings.TrimSpace(t))
		if err != nil {
			return nil, err
		}
		ret = append(ret, p)
	}
	return ret, nil
}

// parseMethod parses "Type::Name", optionally preceded by the calling
// convention of the call site.
func parseMethod(s string, r meta.Resolver) (Operand, error) {
	var ret Method
	fields := strings.Fields(s)
	switch len(fields) {
	case 1:
	case 2:
		c, err := meta.ParseCallingConvention(fields[0])
		if err != nil {
			return nil, err
		}
		ret.CallingConvention = c
	default:
		return nil, fmt.Errorf("invalid method reference %q", s)
	}
	m, err := r.Method(fields[len(fields)-1])
	if err != nil {
		return nil, err
	}
	ret.Target = m
	return ret, nil
}

// parseSignature parses "[convention] [instance] Return(Param,...)".
func parseSignature(s string, r meta.Resolver) (Operand, error) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return nil, fmt.Errorf("invalid signature %q", s)
	}
	head := strings.Fields(s[:open])
	if len(head) == 0 {
		return nil, fmt.Errorf("signature %q has no return type", s)
	}

	var sig Signature
	for _, word := range head[:len(head)-1] {
		if word == "instance" {
			sig.HasThis = true
			continue
		}
		c, err := meta.ParseCallingConvention(word)
		if err != nil {
			return nil, err
		}
		sig.CallingConvention = c
	}
	ret, err := meta.LookupType(r, head[len(head)-1])
	if err != nil {
		return nil, err
	}
	sig.Return = ret

	if params := strings.TrimSpace(s[open+1 : len(s)-1]); params != "" {
		for _, p := range strings.Split(params, ",") {
			t, err := meta.LookupType(r, strings.TrimSpace(p))
			if err != nil {
				return nil, err
			}
			sig.Params = append(sig.Params, t)
		}
	}
	return sig, nil
}
