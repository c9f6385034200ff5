package il

// Variable marks an opcode whose pops or pushes depend on its operand.
const Variable = -1

type stackEffect struct{ pops, pushes int8 }

var stackEffects = map[Opcode]stackEffect{}

func setEffect(pops, pushes int8, ops ...Opcode) {
	for _, op := range ops {
		stackEffects[op] = stackEffect{pops, pushes}
	}
}

func init() {
	setEffect(0, 0, OpNop, OpBreak, OpBr, OpBrS,
		OpVolatile, OpUnaligned, OpTail, OpConstrained, OpReadonly, OpNo, OpRethrow)
	setEffect(0, 1, OpLdarg0, OpLdarg1, OpLdarg2, OpLdarg3, OpLdargS, OpLdarg,
		OpLdargaS, OpLdarga, OpLdloc0, OpLdloc1, OpLdloc2, OpLdloc3, OpLdlocS, OpLdloc,
		OpLdlocaS, OpLdloca, OpLdnull, OpLdcI4M1, OpLdcI40, OpLdcI41, OpLdcI42, OpLdcI43,
		OpLdcI44, OpLdcI45, OpLdcI46, OpLdcI47, OpLdcI48, OpLdcI4S, OpLdcI4, OpLdcI8,
		OpLdcR4, OpLdcR8, OpLdstr, OpLdsfld, OpLdsflda, OpLdftn, OpLdtoken, OpSizeof,
		OpArglist)
	setEffect(1, 0, OpStloc0, OpStloc1, OpStloc2, OpStloc3, OpStlocS, OpStloc,
		OpStargS, OpStarg, OpPop, OpBrfalse, OpBrfalseS, OpBrtrue, OpBrtrueS, OpSwitch,
		OpThrow, OpStsfld, OpInitobj, OpEndfilter)
	setEffect(1, 2, OpDup)
	setEffect(2, 0, OpBeq, OpBeqS, OpBge, OpBgeS, OpBgt, OpBgtS, OpBle, OpBleS,
		OpBlt, OpBltS, OpBneUn, OpBneUnS, OpBgeUn, OpBgeUnS, OpBgtUn, OpBgtUnS,
		OpBleUn, OpBleUnS, OpBltUn, OpBltUnS, OpStindRef, OpStindI1, OpStindI2,
		OpStindI4, OpStindI8, OpStindR4, OpStindR8, OpStindI, OpStfld, OpStobj, OpCpobj)
	setEffect(1, 1, OpLdindI1, OpLdindU1, OpLdindI2, OpLdindU2, OpLdindI4, OpLdindU4,
		OpLdindI8, OpLdindI, OpLdindR4, OpLdindR8, OpLdindRef, OpNeg, OpNot,
		OpConvI1, OpConvI2, OpConvI4, OpConvI8, OpConvR4, OpConvR8, OpConvU4, OpConvU8,
		OpConvU2, OpConvU1, OpConvI, OpConvU, OpConvRUn,
		OpConvOvfI1, OpConvOvfU1, OpConvOvfI2, OpConvOvfU2, OpConvOvfI4, OpConvOvfU4,
		OpConvOvfI8, OpConvOvfU8, OpConvOvfI, OpConvOvfU,
		OpConvOvfI1Un, OpConvOvfI2Un, OpConvOvfI4Un, OpConvOvfI8Un, OpConvOvfU1Un,
		OpConvOvfU2Un, OpConvOvfU4Un, OpConvOvfU8Un, OpConvOvfIUn, OpConvOvfUUn,
		OpLdobj, OpCastclass, OpIsinst, OpUnbox, OpUnboxAny, OpBox, OpLdfld, OpLdflda,
		OpNewarr, OpLdlen, OpCkfinite, OpLocalloc, OpLdvirtftn, OpMkrefany,
		OpRefanyval, OpRefanytype)
	setEffect(2, 1, OpAdd, OpSub, OpMul, OpDiv, OpDivUn, OpRem, OpRemUn, OpAnd, OpOr,
		OpXor, OpShl, OpShr, OpShrUn, OpCeq, OpCgt, OpCgtUn, OpClt, OpCltUn,
		OpAddOvf, OpAddOvfUn, OpMulOvf, OpMulOvfUn, OpSubOvf, OpSubOvfUn, OpLdelema,
		OpLdelemI1, OpLdelemU1, OpLdelemI2, OpLdelemU2, OpLdelemI4, OpLdelemU4,
		OpLdelemI8, OpLdelemI, OpLdelemR4, OpLdelemR8, OpLdelemRef, OpLdelem)
	setEffect(3, 0, OpStelemI, OpStelemI1, OpStelemI2, OpStelemI4, OpStelemI8,
		OpStelemR4, OpStelemR8, OpStelemRef, OpStelem, OpCpblk, OpInitblk)
	// leave and endfinally empty the evaluation stack.
	setEffect(Variable, Variable, OpCall, OpCallvirt, OpCalli, OpNewobj, OpRet, OpJmp,
		OpLeave, OpLeaveS, OpEndfinally)
}

// StackEffect returns how many values op pops and pushes. Either count is
// Variable when it depends on the operand, e.g. for calls. ok is false for
// opcodes without a known effect.
func StackEffect(op Opcode) (pops, pushes int, ok bool) {
	e, ok := stackEffects[op]
	if !ok {
		return 0, 0, false
	}
	return int(e.pops), int(e.pushes), true
}

// IsBranch is true for opcodes whose operand is a Branch target.
func (o Opcode) IsBranch() bool {
	switch o {
	case OpBr, OpBrS, OpBrfalse, OpBrfalseS, OpBrtrue, OpBrtrueS,
		OpBeq, OpBeqS, OpBge, OpBgeS, OpBgt, OpBgtS, OpBle, OpBleS, OpBlt, OpBltS,
		OpBneUn, OpBneUnS, OpBgeUn, OpBgeUnS, OpBgtUn, OpBgtUnS, OpBleUn, OpBleUnS,
		OpBltUn, OpBltUnS, OpLeave, OpLeaveS:
		return true
	}
	return false
}

// IsUnconditional is true for opcodes after which control never falls
// through to the next instruction.
func (o Opcode) IsUnconditional() bool {
	switch o {
	case OpBr, OpBrS, OpLeave, OpLeaveS, OpRet, OpThrow, OpRethrow, OpJmp,
		OpEndfinally, OpEndfilter:
		return true
	}
	return false
}
