// Package golang_asm encodes abstract x86 instruction streams into 32-bit
// machine code with github.com/twitchyliquid64/golang-asm.
package golang_asm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	goasm "github.com/twitchyliquid64/golang-asm"
	"github.com/twitchyliquid64/golang-asm/obj"
	goasmx86 "github.com/twitchyliquid64/golang-asm/obj/x86"

	"github.com/atomixos/ilc/internal/asm"
	"github.com/atomixos/ilc/internal/asm/x86"
)

// symbolPlaceholder stands in for a symbol address until the code is
// assembled. It is large enough to force 32-bit immediates and displacements.
const symbolPlaceholder = 0x7EADBEEF

// RelocationKind tells the linker how to patch a Relocation.
type RelocationKind byte

const (
	// RelocationAbsolute32 is patched with the symbol address plus Addend.
	RelocationAbsolute32 RelocationKind = iota
	// RelocationRelative32 is patched with the symbol address plus Addend
	// minus the address of the byte following the 4-byte field.
	RelocationRelative32
)

func (k RelocationKind) String() string {
	switch k {
	case RelocationAbsolute32:
		return "abs32"
	case RelocationRelative32:
		return "rel32"
	}
	return "unknown"
}

// Relocation is a 4-byte field in Code.Bytes referring to a linkage symbol.
type Relocation struct {
	Offset int
	Symbol string
	Kind   RelocationKind
	Addend int64
}

// Code is the encoded form of one instruction stream.
type Code struct {
	Bytes       []byte
	Relocations []Relocation
	// Labels maps every bound label to its offset in Bytes.
	Labels map[asm.Label]int
}

// encoder wraps the golang-asm builder for one instruction stream.
type encoder struct {
	b *goasm.Builder
	// progs holds the emitted programs in order so the byte range of each can
	// be recovered after assembly.
	progs []*obj.Prog
	// labels holds the NOP programs bound to labels.
	labels map[asm.Label]*obj.Prog
	// pendingBranches holds branch programs whose label is not bound yet.
	pendingBranches map[asm.Label][]*obj.Prog
	// onGenerateCallbacks holds the callbacks which are called after generating native code.
	onGenerateCallbacks []func(code []byte) error
	relocations         []Relocation
}

func newEncoder() (*encoder, error) {
	b, err := goasm.NewBuilder("386", 1024)
	if err != nil {
		return nil, fmt.Errorf("failed to create a new assembly builder: %w", err)
	}
	return &encoder{
		b:               b,
		labels:          map[asm.Label]*obj.Prog{},
		pendingBranches: map[asm.Label][]*obj.Prog{},
	}, nil
}

// Encode assembles nodes into 386 machine code.
func Encode(nodes []*asm.Node) (*Code, error) {
	e, err := newEncoder()
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if err := e.encodeNode(n); err != nil {
			return nil, fmt.Errorf("%s: %w", x86.Names.Format(n), err)
		}
	}
	if len(e.pendingBranches) > 0 {
		unbound := make([]string, 0, len(e.pendingBranches))
		for l := range e.pendingBranches {
			unbound = append(unbound, string(l))
		}
		sort.Strings(unbound)
		return nil, fmt.Errorf("labels never bound: %s", strings.Join(unbound, ", "))
	}
	return e.assemble()
}

func (e *encoder) assemble() (*Code, error) {
	code := e.b.Assemble()
	for _, cb := range e.onGenerateCallbacks {
		if err := cb(code); err != nil {
			return nil, err
		}
	}
	ret := &Code{Bytes: code, Relocations: e.relocations, Labels: make(map[asm.Label]int, len(e.labels))}
	for l, p := range e.labels {
		ret.Labels[l] = int(p.Pc)
	}
	return ret, nil
}

func (e *encoder) newProg() *obj.Prog {
	return e.b.NewProg()
}

func (e *encoder) addInstruction(p *obj.Prog) {
	e.b.AddInstruction(p)
	e.progs = append(e.progs, p)
}

// progEnd returns a function resolving the end offset of the program at
// index i once the code is assembled.
func (e *encoder) progEnd(i int) func(code []byte) int {
	return func(code []byte) int {
		if i+1 < len(e.progs) {
			return int(e.progs[i+1].Pc)
		}
		return len(code)
	}
}

func (e *encoder) encodeNode(n *asm.Node) error {
	switch n.Instruction {
	case asm.LABEL:
		return e.bindLabel(n.Dst.Label)
	case x86.CALL:
		if n.Dst.Type == asm.OperandTypeSymbol {
			e.encodeDirectCall(n.Dst.Symbol)
			return nil
		}
	case x86.INT3:
		e.encodeBytes(0xCC)
		return nil
	case x86.RET:
		if n.Src.Type == asm.OperandTypeConst {
			// RET imm16 pops the callee cleaned arguments.
			e.encodeBytes(0xC2, byte(n.Src.Const), byte(n.Src.Const>>8))
			return nil
		}
	}

	as, ok := castAsGolangAsmInstruction[n.Instruction]
	if !ok {
		return fmt.Errorf("unsupported instruction %s", x86.InstructionName(n.Instruction))
	}
	p := e.newProg()
	p.As = as
	symbolCount := 0
	for _, pair := range []struct {
		src  *asm.Operand
		addr *obj.Addr
	}{{&n.Src, &p.From}, {&n.Dst, &p.To}} {
		if pair.src.Symbol != "" {
			symbolCount++
		}
		if err := e.setAddr(p, pair.addr, pair.src); err != nil {
			return err
		}
	}
	if symbolCount > 1 {
		return fmt.Errorf("at most one symbol operand is encodable")
	}
	e.addInstruction(p)
	if symbolCount == 1 {
		symbol, addend := symbolOf(n)
		e.addSymbolRelocation(len(e.progs)-1, symbol, addend)
	}
	return nil
}

func symbolOf(n *asm.Node) (string, int64) {
	if n.Src.Symbol != "" {
		return n.Src.Symbol, n.Src.Const
	}
	return n.Dst.Symbol, n.Dst.Const
}

func (e *encoder) setAddr(p *obj.Prog, a *obj.Addr, o *asm.Operand) (err error) {
	switch o.Type {
	case asm.OperandTypeNone:
		a.Type = obj.TYPE_NONE
	case asm.OperandTypeRegister:
		a.Type = obj.TYPE_REG
		a.Reg, err = castAsGolangAsmRegister(o.Reg)
	case asm.OperandTypeConst:
		a.Type = obj.TYPE_CONST
		// Immediates are 32-bit, so 0xFFFFFFFF and -1 encode alike.
		a.Offset = int64(int32(o.Const))
	case asm.OperandTypeSymbol:
		a.Type = obj.TYPE_CONST
		a.Offset = symbolPlaceholder
	case asm.OperandTypeMemory:
		a.Type = obj.TYPE_MEM
		if o.Reg != asm.NilRegister {
			if a.Reg, err = castAsGolangAsmRegister(o.Reg); err != nil {
				return
			}
		}
		if o.Index != asm.NilRegister {
			if a.Index, err = castAsGolangAsmRegister(o.Index); err != nil {
				return
			}
			a.Scale = int16(o.Scale)
		}
		a.Offset = o.Const
		if o.Symbol != "" {
			a.Offset = symbolPlaceholder
		}
	case asm.OperandTypeBranch:
		a.Type = obj.TYPE_BRANCH
		if target, ok := e.labels[o.Label]; ok {
			a.SetTarget(target)
		} else {
			e.pendingBranches[o.Label] = append(e.pendingBranches[o.Label], p)
		}
	default:
		err = fmt.Errorf("unknown operand type %d", o.Type)
	}
	return
}

func (e *encoder) bindLabel(l asm.Label) error {
	if _, ok := e.labels[l]; ok {
		return fmt.Errorf("label %s is bound twice", l)
	}
	p := e.newProg()
	p.As = obj.ANOP
	e.addInstruction(p)
	e.labels[l] = p
	for _, branch := range e.pendingBranches[l] {
		branch.To.SetTarget(p)
	}
	delete(e.pendingBranches, l)
	return nil
}

// encodeBytes emits raw bytes, for encodings the builder cannot express.
func (e *encoder) encodeBytes(bs ...byte) (first int) {
	first = len(e.progs)
	for _, b := range bs {
		p := e.newProg()
		p.As = goasmx86.ABYTE
		p.From.Type = obj.TYPE_CONST
		p.From.Offset = int64(b)
		e.addInstruction(p)
	}
	return
}

// encodeDirectCall emits CALL rel32 with a relative relocation against symbol.
func (e *encoder) encodeDirectCall(symbol string) {
	i := e.encodeBytes(0xE8, 0, 0, 0, 0)
	e.onGenerateCallbacks = append(e.onGenerateCallbacks, func([]byte) error {
		e.relocations = append(e.relocations, Relocation{
			Offset: int(e.progs[i].Pc) + 1,
			Symbol: symbol,
			Kind:   RelocationRelative32,
		})
		return nil
	})
}

// addSymbolRelocation finds the placeholder within the bytes of the program
// at index i after assembly, clears it and records an absolute relocation.
func (e *encoder) addSymbolRelocation(i int, symbol string, addend int64) {
	end := e.progEnd(i)
	e.onGenerateCallbacks = append(e.onGenerateCallbacks, func(code []byte) error {
		start := int(e.progs[i].Pc)
		var placeholder [4]byte
		binary.LittleEndian.PutUint32(placeholder[:], symbolPlaceholder)
		at := bytes.Index(code[start:end(code)], placeholder[:])
		if at < 0 {
			return fmt.Errorf("symbol %s: placeholder not found in %s", symbol, e.progs[i])
		}
		binary.LittleEndian.PutUint32(code[start+at:], 0)
		e.relocations = append(e.relocations, Relocation{
			Offset: start + at,
			Symbol: symbol,
			Kind:   RelocationAbsolute32,
			Addend: addend,
		})
		return nil
	})
}

func castAsGolangAsmRegister(reg asm.Register) (int16, error) {
	switch reg {
	case x86.REG_AX:
		return goasmx86.REG_AX, nil
	case x86.REG_CX:
		return goasmx86.REG_CX, nil
	case x86.REG_DX:
		return goasmx86.REG_DX, nil
	case x86.REG_BX:
		return goasmx86.REG_BX, nil
	case x86.REG_SP:
		return goasmx86.REG_SP, nil
	case x86.REG_BP:
		return goasmx86.REG_BP, nil
	case x86.REG_SI:
		return goasmx86.REG_SI, nil
	case x86.REG_DI:
		return goasmx86.REG_DI, nil
	}
	if x86.IsFloatRegister(reg) {
		return goasmx86.REG_X0 + int16(reg-x86.REG_X0), nil
	}
	return 0, fmt.Errorf("unsupported register %s", x86.RegisterName(reg))
}

var castAsGolangAsmInstruction = map[asm.Instruction]obj.As{
	x86.PUSHL:     goasmx86.APUSHL,
	x86.POPL:      goasmx86.APOPL,
	x86.MOVL:      goasmx86.AMOVL,
	x86.MOVW:      goasmx86.AMOVW,
	x86.MOVB:      goasmx86.AMOVB,
	x86.MOVBLZX:   goasmx86.AMOVBLZX,
	x86.MOVBLSX:   goasmx86.AMOVBLSX,
	x86.MOVWLZX:   goasmx86.AMOVWLZX,
	x86.MOVWLSX:   goasmx86.AMOVWLSX,
	x86.LEAL:      goasmx86.ALEAL,
	x86.ADDL:      goasmx86.AADDL,
	x86.ADCL:      goasmx86.AADCL,
	x86.SUBL:      goasmx86.ASUBL,
	x86.SBBL:      goasmx86.ASBBL,
	x86.IMULL:     goasmx86.AIMULL,
	x86.IDIVL:     goasmx86.AIDIVL,
	x86.DIVL:      goasmx86.ADIVL,
	x86.CDQ:       goasmx86.ACDQ,
	x86.ANDL:      goasmx86.AANDL,
	x86.ORL:       goasmx86.AORL,
	x86.XORL:      goasmx86.AXORL,
	x86.NOTL:      goasmx86.ANOTL,
	x86.NEGL:      goasmx86.ANEGL,
	x86.SHLL:      goasmx86.ASHLL,
	x86.SHRL:      goasmx86.ASHRL,
	x86.SARL:      goasmx86.ASARL,
	x86.CMPL:      goasmx86.ACMPL,
	x86.TESTL:     goasmx86.ATESTL,
	x86.SETEQ:     goasmx86.ASETEQ,
	x86.SETNE:     goasmx86.ASETNE,
	x86.SETLT:     goasmx86.ASETLT,
	x86.SETGT:     goasmx86.ASETGT,
	x86.SETLE:     goasmx86.ASETLE,
	x86.SETGE:     goasmx86.ASETGE,
	x86.SETCS:     goasmx86.ASETCS,
	x86.SETHI:     goasmx86.ASETHI,
	x86.SETLS:     goasmx86.ASETLS,
	x86.SETCC:     goasmx86.ASETCC,
	x86.SETPS:     goasmx86.ASETPS,
	x86.SETPC:     goasmx86.ASETPC,
	x86.JMP:       obj.AJMP,
	x86.JEQ:       goasmx86.AJEQ,
	x86.JNE:       goasmx86.AJNE,
	x86.JLT:       goasmx86.AJLT,
	x86.JGT:       goasmx86.AJGT,
	x86.JLE:       goasmx86.AJLE,
	x86.JGE:       goasmx86.AJGE,
	x86.JCS:       goasmx86.AJCS,
	x86.JHI:       goasmx86.AJHI,
	x86.JLS:       goasmx86.AJLS,
	x86.JCC:       goasmx86.AJCC,
	x86.JPS:       goasmx86.AJPS,
	x86.JPC:       goasmx86.AJPC,
	x86.CALL:      obj.ACALL,
	x86.RET:       obj.ARET,
	x86.NOP:       obj.ANOP,
	x86.MOVSS:     goasmx86.AMOVSS,
	x86.MOVSD:     goasmx86.AMOVSD,
	x86.ADDSS:     goasmx86.AADDSS,
	x86.ADDSD:     goasmx86.AADDSD,
	x86.SUBSS:     goasmx86.ASUBSS,
	x86.SUBSD:     goasmx86.ASUBSD,
	x86.MULSS:     goasmx86.AMULSS,
	x86.MULSD:     goasmx86.AMULSD,
	x86.DIVSS:     goasmx86.ADIVSS,
	x86.DIVSD:     goasmx86.ADIVSD,
	x86.CVTSL2SS:  goasmx86.ACVTSL2SS,
	x86.CVTSL2SD:  goasmx86.ACVTSL2SD,
	x86.CVTTSS2SL: goasmx86.ACVTTSS2SL,
	x86.CVTTSD2SL: goasmx86.ACVTTSD2SL,
	x86.CVTSS2SD:  goasmx86.ACVTSS2SD,
	x86.CVTSD2SS:  goasmx86.ACVTSD2SS,
	x86.UCOMISS:   goasmx86.AUCOMISS,
	x86.UCOMISD:   goasmx86.AUCOMISD,
}
