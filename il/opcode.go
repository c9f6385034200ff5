package il

import "fmt"

// Opcode is an ECMA-335 CIL opcode. Two-byte opcodes keep their 0xFE prefix in
// the high byte so that the value equals the encoding in the instruction stream.
type Opcode uint16

const (
	OpNop         Opcode = 0x00
	OpBreak       Opcode = 0x01
	OpLdarg0      Opcode = 0x02
	OpLdarg1      Opcode = 0x03
	OpLdarg2      Opcode = 0x04
	OpLdarg3      Opcode = 0x05
	OpLdloc0      Opcode = 0x06
	OpLdloc1      Opcode = 0x07
	OpLdloc2      Opcode = 0x08
	OpLdloc3      Opcode = 0x09
	OpStloc0      Opcode = 0x0A
	OpStloc1      Opcode = 0x0B
	OpStloc2      Opcode = 0x0C
	OpStloc3      Opcode = 0x0D
	OpLdargS      Opcode = 0x0E
	OpLdargaS     Opcode = 0x0F
	OpStargS      Opcode = 0x10
	OpLdlocS      Opcode = 0x11
	OpLdlocaS     Opcode = 0x12
	OpStlocS      Opcode = 0x13
	OpLdnull      Opcode = 0x14
	OpLdcI4M1     Opcode = 0x15
	OpLdcI40      Opcode = 0x16
	OpLdcI41      Opcode = 0x17
	OpLdcI42      Opcode = 0x18
	OpLdcI43      Opcode = 0x19
	OpLdcI44      Opcode = 0x1A
	OpLdcI45      Opcode = 0x1B
	OpLdcI46      Opcode = 0x1C
	OpLdcI47      Opcode = 0x1D
	OpLdcI48      Opcode = 0x1E
	OpLdcI4S      Opcode = 0x1F
	OpLdcI4       Opcode = 0x20
	OpLdcI8       Opcode = 0x21
	OpLdcR4       Opcode = 0x22
	OpLdcR8       Opcode = 0x23
	OpDup         Opcode = 0x25
	OpPop         Opcode = 0x26
	OpJmp         Opcode = 0x27
	OpCall        Opcode = 0x28
	OpCalli       Opcode = 0x29
	OpRet         Opcode = 0x2A
	OpBrS         Opcode = 0x2B
	OpBrfalseS    Opcode = 0x2C
	OpBrtrueS     Opcode = 0x2D
	OpBeqS        Opcode = 0x2E
	OpBgeS        Opcode = 0x2F
	OpBgtS        Opcode = 0x30
	OpBleS        Opcode = 0x31
	OpBltS        Opcode = 0x32
	OpBneUnS      Opcode = 0x33
	OpBgeUnS      Opcode = 0x34
	OpBgtUnS      Opcode = 0x35
	OpBleUnS      Opcode = 0x36
	OpBltUnS      Opcode = 0x37
	OpBr          Opcode = 0x38
	OpBrfalse     Opcode = 0x39
	OpBrtrue      Opcode = 0x3A
	OpBeq         Opcode = 0x3B
	OpBge         Opcode = 0x3C
	OpBgt         Opcode = 0x3D
	OpBle         Opcode = 0x3E
	OpBlt         Opcode = 0x3F
	OpBneUn       Opcode = 0x40
	OpBgeUn       Opcode = 0x41
	OpBgtUn       Opcode = 0x42
	OpBleUn       Opcode = 0x43
	OpBltUn       Opcode = 0x44
	OpSwitch      Opcode = 0x45
	OpLdindI1     Opcode = 0x46
	OpLdindU1     Opcode = 0x47
	OpLdindI2     Opcode = 0x48
	OpLdindU2     Opcode = 0x49
	OpLdindI4     Opcode = 0x4A
	OpLdindU4     Opcode = 0x4B
	OpLdindI8     Opcode = 0x4C
	OpLdindI      Opcode = 0x4D
	OpLdindR4     Opcode = 0x4E
	OpLdindR8     Opcode = 0x4F
	OpLdindRef    Opcode = 0x50
	OpStindRef    Opcode = 0x51
	OpStindI1     Opcode = 0x52
	OpStindI2     Opcode = 0x53
	OpStindI4     Opcode = 0x54
	OpStindI8     Opcode = 0x55
	OpStindR4     Opcode = 0x56
	OpStindR8     Opcode = 0x57
	OpAdd         Opcode = 0x58
	OpSub         Opcode = 0x59
	OpMul         Opcode = 0x5A
	OpDiv         Opcode = 0x5B
	OpDivUn       Opcode = 0x5C
	OpRem         Opcode = 0x5D
	OpRemUn       Opcode = 0x5E
	OpAnd         Opcode = 0x5F
	OpOr          Opcode = 0x60
	OpXor         Opcode = 0x61
	OpShl         Opcode = 0x62
	OpShr         Opcode = 0x63
	OpShrUn       Opcode = 0x64
	OpNeg         Opcode = 0x65
	OpNot         Opcode = 0x66
	OpConvI1      Opcode = 0x67
	OpConvI2      Opcode = 0x68
	OpConvI4      Opcode = 0x69
	OpConvI8      Opcode = 0x6A
	OpConvR4      Opcode = 0x6B
	OpConvR8      Opcode = 0x6C
	OpConvU4      Opcode = 0x6D
	OpConvU8      Opcode = 0x6E
	OpCallvirt    Opcode = 0x6F
	OpCpobj       Opcode = 0x70
	OpLdobj       Opcode = 0x71
	OpLdstr       Opcode = 0x72
	OpNewobj      Opcode = 0x73
	OpCastclass   Opcode = 0x74
	OpIsinst      Opcode = 0x75
	OpConvRUn     Opcode = 0x76
	OpUnbox       Opcode = 0x79
	OpThrow       Opcode = 0x7A
	OpLdfld       Opcode = 0x7B
	OpLdflda      Opcode = 0x7C
	OpStfld       Opcode = 0x7D
	OpLdsfld      Opcode = 0x7E
	OpLdsflda     Opcode = 0x7F
	OpStsfld      Opcode = 0x80
	OpStobj       Opcode = 0x81
	OpConvOvfI1Un Opcode = 0x82
	OpConvOvfI2Un Opcode = 0x83
	OpConvOvfI4Un Opcode = 0x84
	OpConvOvfI8Un Opcode = 0x85
	OpConvOvfU1Un Opcode = 0x86
	OpConvOvfU2Un Opcode = 0x87
	OpConvOvfU4Un Opcode = 0x88
	OpConvOvfU8Un Opcode = 0x89
	OpConvOvfIUn  Opcode = 0x8A
	OpConvOvfUUn  Opcode = 0x8B
	OpBox         Opcode = 0x8C
	OpNewarr      Opcode = 0x8D
	OpLdlen       Opcode = 0x8E
	OpLdelema     Opcode = 0x8F
	OpLdelemI1    Opcode = 0x90
	OpLdelemU1    Opcode = 0x91
	OpLdelemI2    Opcode = 0x92
	OpLdelemU2    Opcode = 0x93
	OpLdelemI4    Opcode = 0x94
	OpLdelemU4    Opcode = 0x95
	OpLdelemI8    Opcode = 0x96
	OpLdelemI     Opcode = 0x97
	OpLdelemR4    Opcode = 0x98
	OpLdelemR8    Opcode = 0x99
	OpLdelemRef   Opcode = 0x9A
	OpStelemI     Opcode = 0x9B
	OpStelemI1    Opcode = 0x9C
	OpStelemI2    Opcode = 0x9D
	OpStelemI4    Opcode = 0x9E
	OpStelemI8    Opcode = 0x9F
	OpStelemR4    Opcode = 0xA0
	OpStelemR8    Opcode = 0xA1
	OpStelemRef   Opcode = 0xA2
	OpLdelem      Opcode = 0xA3
	OpStelem      Opcode = 0xA4
	OpUnboxAny    Opcode = 0xA5
	OpConvOvfI1   Opcode = 0xB3
	OpConvOvfU1   Opcode = 0xB4
	OpConvOvfI2   Opcode = 0xB5
	OpConvOvfU2   Opcode = 0xB6
	OpConvOvfI4   Opcode = 0xB7
	OpConvOvfU4   Opcode = 0xB8
	OpConvOvfI8   Opcode = 0xB9
	OpConvOvfU8   Opcode = 0xBA
	OpRefanyval   Opcode = 0xC2
	OpCkfinite    Opcode = 0xC3
	OpMkrefany    Opcode = 0xC6
	OpLdtoken     Opcode = 0xD0
	OpConvU2      Opcode = 0xD1
	OpConvU1      Opcode = 0xD2
	OpConvI       Opcode = 0xD3
	OpConvOvfI    Opcode = 0xD4
	OpConvOvfU    Opcode = 0xD5
	OpAddOvf      Opcode = 0xD6
	OpAddOvfUn    Opcode = 0xD7
	OpMulOvf      Opcode = 0xD8
	OpMulOvfUn    Opcode = 0xD9
	OpSubOvf      Opcode = 0xDA
	OpSubOvfUn    Opcode = 0xDB
	OpEndfinally  Opcode = 0xDC
	OpLeave       Opcode = 0xDD
	OpLeaveS      Opcode = 0xDE
	OpStindI      Opcode = 0xDF
	OpConvU       Opcode = 0xE0

	OpArglist     Opcode = 0xFE00
	OpCeq         Opcode = 0xFE01
	OpCgt         Opcode = 0xFE02
	OpCgtUn       Opcode = 0xFE03
	OpClt         Opcode = 0xFE04
	OpCltUn       Opcode = 0xFE05
	OpLdftn       Opcode = 0xFE06
	OpLdvirtftn   Opcode = 0xFE07
	OpLdarg       Opcode = 0xFE09
	OpLdarga      Opcode = 0xFE0A
	OpStarg       Opcode = 0xFE0B
	OpLdloc       Opcode = 0xFE0C
	OpLdloca      Opcode = 0xFE0D
	OpStloc       Opcode = 0xFE0E
	OpLocalloc    Opcode = 0xFE0F
	OpEndfilter   Opcode = 0xFE11
	OpUnaligned   Opcode = 0xFE12
	OpVolatile    Opcode = 0xFE13
	OpTail        Opcode = 0xFE14
	OpInitobj     Opcode = 0xFE15
	OpConstrained Opcode = 0xFE16
	OpCpblk       Opcode = 0xFE17
	OpInitblk     Opcode = 0xFE18
	OpNo          Opcode = 0xFE19
	OpRethrow     Opcode = 0xFE1A
	OpSizeof      Opcode = 0xFE1C
	OpRefanytype  Opcode = 0xFE1D
	OpReadonly    Opcode = 0xFE1E
)

var opcodeNames = map[Opcode]string{
	OpNop: "nop", OpBreak: "break",
	OpLdarg0: "ldarg.0", OpLdarg1: "ldarg.1", OpLdarg2: "ldarg.2", OpLdarg3: "ldarg.3",
	OpLdloc0: "ldloc.0", OpLdloc1: "ldloc.1", OpLdloc2: "ldloc.2", OpLdloc3: "ldloc.3",
	OpStloc0: "stloc.0", OpStloc1: "stloc.1", OpStloc2: "stloc.2", OpStloc3: "stloc.3",
	OpLdargS: "ldarg.s", OpLdargaS: "ldarga.s", OpStargS: "starg.s",
	OpLdlocS: "ldloc.s", OpLdlocaS: "ldloca.s", OpStlocS: "stloc.s",
	OpLdnull: "ldnull",
	OpLdcI4M1: "ldc.i4.m1", OpLdcI40: "ldc.i4.0", OpLdcI41: "ldc.i4.1", OpLdcI42: "ldc.i4.2",
	OpLdcI43: "ldc.i4.3", OpLdcI44: "ldc.i4.4", OpLdcI45: "ldc.i4.5", OpLdcI46: "ldc.i4.6",
	OpLdcI47: "ldc.i4.7", OpLdcI48: "ldc.i4.8", OpLdcI4S: "ldc.i4.s", OpLdcI4: "ldc.i4",
	OpLdcI8: "ldc.i8", OpLdcR4: "ldc.r4", OpLdcR8: "ldc.r8",
	OpDup: "dup", OpPop: "pop", OpJmp: "jmp", OpCall: "call", OpCalli: "calli", OpRet: "ret",
	OpBrS: "br.s", OpBrfalseS: "brfalse.s", OpBrtrueS: "brtrue.s", OpBeqS: "beq.s",
	OpBgeS: "bge.s", OpBgtS: "bgt.s", OpBleS: "ble.s", OpBltS: "blt.s", OpBneUnS: "bne.un.s",
	OpBgeUnS: "bge.un.s", OpBgtUnS: "bgt.un.s", OpBleUnS: "ble.un.s", OpBltUnS: "blt.un.s",
	OpBr: "br", OpBrfalse: "brfalse", OpBrtrue: "brtrue", OpBeq: "beq", OpBge: "bge",
	OpBgt: "bgt", OpBle: "ble", OpBlt: "blt", OpBneUn: "bne.un", OpBgeUn: "bge.un",
	OpBgtUn: "bgt.un", OpBleUn: "ble.un", OpBltUn: "blt.un", OpSwitch: "switch",
	OpLdindI1: "ldind.i1", OpLdindU1: "ldind.u1", OpLdindI2: "ldind.i2", OpLdindU2: "ldind.u2",
	OpLdindI4: "ldind.i4", OpLdindU4: "ldind.u4", OpLdindI8: "ldind.i8", OpLdindI: "ldind.i",
	OpLdindR4: "ldind.r4", OpLdindR8: "ldind.r8", OpLdindRef: "ldind.ref",
	OpStindRef: "stind.ref", OpStindI1: "stind.i1", OpStindI2: "stind.i2", OpStindI4: "stind.i4",
	OpStindI8: "stind.i8", OpStindR4: "stind.r4", OpStindR8: "stind.r8",
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div", OpDivUn: "div.un", OpRem: "rem",
	OpRemUn: "rem.un", OpAnd: "and", OpOr: "or", OpXor: "xor", OpShl: "shl", OpShr: "shr",
	OpShrUn: "shr.un", OpNeg: "neg", OpNot: "not",
	OpConvI1: "conv.i1", OpConvI2: "conv.i2", OpConvI4: "conv.i4", OpConvI8: "conv.i8",
	OpConvR4: "conv.r4", OpConvR8: "conv.r8", OpConvU4: "conv.u4", OpConvU8: "conv.u8",
	OpCallvirt: "callvirt", OpCpobj: "cpobj", OpLdobj: "ldobj", OpLdstr: "ldstr",
	OpNewobj: "newobj", OpCastclass: "castclass", OpIsinst: "isinst", OpConvRUn: "conv.r.un",
	OpUnbox: "unbox", OpThrow: "throw", OpLdfld: "ldfld", OpLdflda: "ldflda", OpStfld: "stfld",
	OpLdsfld: "ldsfld", OpLdsflda: "ldsflda", OpStsfld: "stsfld", OpStobj: "stobj",
	OpConvOvfI1Un: "conv.ovf.i1.un", OpConvOvfI2Un: "conv.ovf.i2.un", OpConvOvfI4Un: "conv.ovf.i4.un",
	OpConvOvfI8Un: "conv.ovf.i8.un", OpConvOvfU1Un: "conv.ovf.u1.un", OpConvOvfU2Un: "conv.ovf.u2.un",
	OpConvOvfU4Un: "conv.ovf.u4.un", OpConvOvfU8Un: "conv.ovf.u8.un", OpConvOvfIUn: "conv.ovf.i.un",
	OpConvOvfUUn: "conv.ovf.u.un", OpBox: "box", OpNewarr: "newarr", OpLdlen: "ldlen",
	OpLdelema: "ldelema", OpLdelemI1: "ldelem.i1", OpLdelemU1: "ldelem.u1", OpLdelemI2: "ldelem.i2",
	OpLdelemU2: "ldelem.u2", OpLdelemI4: "ldelem.i4", OpLdelemU4: "ldelem.u4", OpLdelemI8: "ldelem.i8",
	OpLdelemI: "ldelem.i", OpLdelemR4: "ldelem.r4", OpLdelemR8: "ldelem.r8", OpLdelemRef: "ldelem.ref",
	OpStelemI: "stelem.i", OpStelemI1: "stelem.i1", OpStelemI2: "stelem.i2", OpStelemI4: "stelem.i4",
	OpStelemI8: "stelem.i8", OpStelemR4: "stelem.r4", OpStelemR8: "stelem.r8", OpStelemRef: "stelem.ref",
	OpLdelem: "ldelem", OpStelem: "stelem", OpUnboxAny: "unbox.any",
	OpConvOvfI1: "conv.ovf.i1", OpConvOvfU1: "conv.ovf.u1", OpConvOvfI2: "conv.ovf.i2",
	OpConvOvfU2: "conv.ovf.u2", OpConvOvfI4: "conv.ovf.i4", OpConvOvfU4: "conv.ovf.u4",
	OpConvOvfI8: "conv.ovf.i8", OpConvOvfU8: "conv.ovf.u8", OpRefanyval: "refanyval",
	OpCkfinite: "ckfinite", OpMkrefany: "mkrefany", OpLdtoken: "ldtoken", OpConvU2: "conv.u2",
	OpConvU1: "conv.u1", OpConvI: "conv.i", OpConvOvfI: "conv.ovf.i", OpConvOvfU: "conv.ovf.u",
	OpAddOvf: "add.ovf", OpAddOvfUn: "add.ovf.un", OpMulOvf: "mul.ovf", OpMulOvfUn: "mul.ovf.un",
	OpSubOvf: "sub.ovf", OpSubOvfUn: "sub.ovf.un", OpEndfinally: "endfinally", OpLeave: "leave",
	OpLeaveS: "leave.s", OpStindI: "stind.i", OpConvU: "conv.u",
	OpArglist: "arglist", OpCeq: "ceq", OpCgt: "cgt", OpCgtUn: "cgt.un", OpClt: "clt",
	OpCltUn: "clt.un", OpLdftn: "ldftn", OpLdvirtftn: "ldvirtftn", OpLdarg: "ldarg",
	OpLdarga: "ldarga", OpStarg: "starg", OpLdloc: "ldloc", OpLdloca: "ldloca", OpStloc: "stloc",
	OpLocalloc: "localloc", OpEndfilter: "endfilter", OpUnaligned: "unaligned.",
	OpVolatile: "volatile.", OpTail: "tail.", OpInitobj: "initobj", OpConstrained: "constrained.",
	OpCpblk: "cpblk", OpInitblk: "initblk", OpNo: "no.", OpRethrow: "rethrow", OpSizeof: "sizeof",
	OpRefanytype: "refanytype", OpReadonly: "readonly.",
}

var opcodesByName map[string]Opcode

func init() {
	opcodesByName = make(map[string]Opcode, len(opcodeNames))
	for op, name := range opcodeNames {
		opcodesByName[name] = op
	}
}

// String returns the ECMA-335 mnemonic, e.g. "ldind.u1".
func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("opcode(0x%x)", uint16(o))
}

// Valid reports whether o is a defined CIL opcode.
func (o Opcode) Valid() bool {
	_, ok := opcodeNames[o]
	return ok
}

// LookupOpcode returns the opcode for the given mnemonic.
func LookupOpcode(name string) (Opcode, bool) {
	op, ok := opcodesByName[name]
	return op, ok
}

// Opcodes returns every defined opcode.
func Opcodes() []Opcode {
	ret := make([]Opcode, 0, len(opcodeNames))
	for op := range opcodeNames {
		ret = append(ret, op)
	}
	return ret
}
