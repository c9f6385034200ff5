// Package il holds the decoded IL a method body is made of: opcodes, their
// operands and the positions linking instructions to branch targets and
// exception handlers.
package il

import (
	"fmt"
	"strings"

	"github.com/atomixos/ilc/meta"
)

// Position is the byte offset of an instruction in its method body.
type Position int

// ExceptionExit is the handler position of instructions not covered by any
// catch clause: a signalled exception leaves the method.
const ExceptionExit Position = -1

func (p Position) String() string {
	if p == ExceptionExit {
		return "exit"
	}
	return fmt.Sprintf("IL_%04x", int(p))
}

// Instruction is one decoded IL instruction.
type Instruction struct {
	Position Position
	Opcode   Opcode
	// Operand is nil for opcodes without one.
	Operand Operand
	// Next is the position of the following instruction in program order.
	Next Position
	// Handler is the entry of the innermost catch handler covering this
	// instruction, or ExceptionExit.
	Handler Position
}

func (i *Instruction) String() string {
	if i.Operand == nil {
		return fmt.Sprintf("%s: %s", i.Position, i.Opcode)
	}
	return fmt.Sprintf("%s: %s %s", i.Position, i.Opcode, i.Operand)
}

// Body is a method together with its decoded instructions in program order.
type Body struct {
	Method       *meta.Method
	Instructions []Instruction
}

// Operand is the decoded operand of an instruction. The set of variants is
// closed.
type Operand interface {
	fmt.Stringer
	operand()
}

// Int32 is the operand of ldc.i4 and its short forms.
type Int32 int32

// Int64 is the operand of ldc.i8.
type Int64 int64

// Float32 is the operand of ldc.r4.
type Float32 float32

// Float64 is the operand of ldc.r8.
type Float64 float64

// Index addresses an argument or a local variable.
type Index uint16

// Branch is the target of a branch or leave instruction.
type Branch Position

// Switch lists the jump table of a switch instruction.
type Switch []Position

// String is the literal of ldstr.
type String string

// Method is the target of call-like instructions and ldftn.
type Method struct {
	Target *meta.Method
	// CallingConvention is the convention of the call site. The zero value
	// uses the target's own convention.
	CallingConvention meta.CallingConvention
}

// Convention returns the effective calling convention of the call site.
func (o Method) Convention() meta.CallingConvention {
	if o.CallingConvention != meta.CallingConventionDefault {
		return o.CallingConvention
	}
	return o.Target.CallingConvention
}

// Field is the operand of field access instructions.
type Field struct {
	Target *meta.Field
}

// Type is the operand of type-token instructions such as newarr or sizeof.
type Type struct {
	Target *meta.Type
}

// Signature is the operand of calli.
type Signature struct {
	Params            []*meta.Type
	Return            *meta.Type
	HasThis           bool
	CallingConvention meta.CallingConvention
}

func (Int32) operand()     {}
func (Int64) operand()     {}
func (Float32) operand()   {}
func (Float64) operand()   {}
func (Index) operand()     {}
func (Branch) operand()    {}
func (Switch) operand()    {}
func (String) operand()    {}
func (Method) operand()    {}
func (Field) operand()     {}
func (Type) operand()      {}
func (Signature) operand() {}

func (o Int32) String() string   { return fmt.Sprintf("%d", int32(o)) }
func (o Int64) String() string   { return fmt.Sprintf("%d", int64(o)) }
func (o Float32) String() string { return fmt.Sprintf("%g", float32(o)) }
func (o Float64) String() string { return fmt.Sprintf("%g", float64(o)) }
func (o Index) String() string   { return fmt.Sprintf("%d", uint16(o)) }
func (o Branch) String() string  { return Position(o).String() }
func (o String) String() string  { return fmt.Sprintf("%q", string(o)) }
func (o Method) String() string  { return o.Target.FullName() }
func (o Field) String() string   { return o.Target.String() }
func (o Type) String() string    { return o.Target.FullName() }

func (o Switch) String() string {
	targets := make([]string, len(o))
	for i, t := range o {
		targets[i] = t.String()
	}
	return "(" + strings.Join(targets, ", ") + ")"
}

func (o Signature) String() string {
	m := meta.Method{Name: "calli", Params: o.Params, Return: o.Return, IsStatic: !o.HasThis}
	return m.FullName()
}

// Targets returns every position the instruction may transfer control to
// other than the next one, excluding its exception handler.
func (i *Instruction) Targets() []Position {
	switch o := i.Operand.(type) {
	case Branch:
		return []Position{Position(o)}
	case Switch:
		return append([]Position(nil), o...)
	}
	return nil
}
