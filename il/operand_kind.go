package il

// OperandKind is the encoding class of an opcode's inline operand, after
// the ECMA-335 operand types.
type OperandKind byte

const (
	// OperandNone is InlineNone.
	OperandNone OperandKind = iota
	// OperandInt32 is InlineI and ShortInlineI.
	OperandInt32
	// OperandInt64 is InlineI8.
	OperandInt64
	// OperandFloat32 is ShortInlineR.
	OperandFloat32
	// OperandFloat64 is InlineR.
	OperandFloat64
	// OperandIndex is InlineVar and ShortInlineVar.
	OperandIndex
	// OperandBranch is InlineBrTarget and ShortInlineBrTarget.
	OperandBranch
	// OperandSwitch is InlineSwitch.
	OperandSwitch
	// OperandString is InlineString.
	OperandString
	// OperandMethod is InlineMethod.
	OperandMethod
	// OperandField is InlineField.
	OperandField
	// OperandType is InlineType.
	OperandType
	// OperandSignature is InlineSig.
	OperandSignature
	// OperandToken is InlineTok, which the Operand variants do not model.
	OperandToken
)

var operandKinds = map[Opcode]OperandKind{}

func setOperandKind(k OperandKind, ops ...Opcode) {
	for _, op := range ops {
		operandKinds[op] = k
	}
}

func init() {
	setOperandKind(OperandInt32, OpLdcI4, OpLdcI4S, OpUnaligned, OpNo)
	setOperandKind(OperandInt64, OpLdcI8)
	setOperandKind(OperandFloat32, OpLdcR4)
	setOperandKind(OperandFloat64, OpLdcR8)
	setOperandKind(OperandIndex, OpLdargS, OpLdargaS, OpStargS, OpLdlocS, OpLdlocaS, OpStlocS,
		OpLdarg, OpLdarga, OpStarg, OpLdloc, OpLdloca, OpStloc)
	setOperandKind(OperandSwitch, OpSwitch)
	setOperandKind(OperandString, OpLdstr)
	setOperandKind(OperandMethod, OpJmp, OpCall, OpCallvirt, OpNewobj, OpLdftn, OpLdvirtftn)
	setOperandKind(OperandField, OpLdfld, OpLdflda, OpStfld, OpLdsfld, OpLdsflda, OpStsfld)
	setOperandKind(OperandType, OpCpobj, OpLdobj, OpCastclass, OpIsinst, OpUnbox, OpStobj,
		OpBox, OpNewarr, OpLdelema, OpLdelem, OpStelem, OpUnboxAny, OpRefanyval, OpMkrefany,
		OpInitobj, OpConstrained, OpSizeof)
	setOperandKind(OperandSignature, OpCalli)
	setOperandKind(OperandToken, OpLdtoken)
	for op := range opcodeNames {
		if op.IsBranch() {
			operandKinds[op] = OperandBranch
		}
	}
}

// OperandKind returns the kind of operand o takes.
func (o Opcode) OperandKind() OperandKind {
	return operandKinds[o]
}
