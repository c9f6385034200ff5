package meta

import (
	"fmt"
	"strings"
)

// CallingConvention is the unmanaged calling convention a method is compiled
// with. The values match System.Runtime.InteropServices.CallingConvention.
type CallingConvention byte

const (
	// CallingConventionDefault is treated as StdCall.
	CallingConventionDefault  CallingConvention = 0
	CallingConventionWinapi   CallingConvention = 1
	CallingConventionCdecl    CallingConvention = 2
	CallingConventionStdCall  CallingConvention = 3
	CallingConventionThisCall CallingConvention = 4
	CallingConventionFastCall CallingConvention = 5
)

func (c CallingConvention) String() string {
	switch c {
	case CallingConventionDefault:
		return "default"
	case CallingConventionWinapi:
		return "winapi"
	case CallingConventionCdecl:
		return "cdecl"
	case CallingConventionStdCall:
		return "stdcall"
	case CallingConventionThisCall:
		return "thiscall"
	case CallingConventionFastCall:
		return "fastcall"
	}
	return fmt.Sprintf("callingconvention(%d)", c)
}

// ParseCallingConvention is the inverse of CallingConvention.String.
func ParseCallingConvention(s string) (CallingConvention, error) {
	switch strings.ToLower(s) {
	case "", "default":
		return CallingConventionDefault, nil
	case "winapi":
		return CallingConventionWinapi, nil
	case "cdecl":
		return CallingConventionCdecl, nil
	case "stdcall":
		return CallingConventionStdCall, nil
	case "thiscall":
		return CallingConventionThisCall, nil
	case "fastcall":
		return CallingConventionFastCall, nil
	}
	return 0, fmt.Errorf("unknown calling convention %q", s)
}

// MethodAttributes are flags that change how calls to or from a method are
// lowered.
type MethodAttributes uint32

const (
	// AttributeNoException marks a method that never signals an exception.
	// Calls to it skip the post-call exception check, and its epilogue does not
	// clear the exception register.
	AttributeNoException MethodAttributes = 1 << iota
	// AttributeNoInlining is carried for completeness and does not affect
	// lowering.
	AttributeNoInlining
)

// ClauseKind is the kind of a protected region handler.
type ClauseKind byte

const (
	ClauseCatch ClauseKind = iota
	ClauseFinally
	ClauseFault
	ClauseFilter
)

func (k ClauseKind) String() string {
	switch k {
	case ClauseCatch:
		return "catch"
	case ClauseFinally:
		return "finally"
	case ClauseFault:
		return "fault"
	case ClauseFilter:
		return "filter"
	}
	return "unknown"
}

// ExceptionClause is a protected region with its handler, given as IL
// positions. End positions are exclusive.
type ExceptionClause struct {
	Kind         ClauseKind
	TryStart     int
	TryEnd       int
	HandlerStart int
	HandlerEnd   int
	// CatchType is the caught type for ClauseCatch, nil catching everything.
	CatchType *Type
}

// Contains reports whether pos lies in the protected region.
func (c *ExceptionClause) Contains(pos int) bool {
	return pos >= c.TryStart && pos < c.TryEnd
}

// Method is a method signature with the facts the translator consumes.
type Method struct {
	Name          string
	DeclaringType *Type
	Params        []*Type
	Return        *Type
	IsStatic      bool
	IsVirtual     bool
	// VTableSlot is the slot index of virtual methods.
	VTableSlot        int
	Attributes        MethodAttributes
	CallingConvention CallingConvention
	Locals            []*Type
	InitLocals        bool
	Clauses           []ExceptionClause
}

// HasThis is true for instance methods, which take the receiver as an
// implicit first argument.
func (m *Method) HasThis() bool { return !m.IsStatic }

// NoException reports whether AttributeNoException is set.
func (m *Method) NoException() bool { return m.Attributes&AttributeNoException != 0 }

// ReturnType returns the return type with nil normalized to Void.
func (m *Method) ReturnType() *Type {
	if m.Return == nil {
		return Void
	}
	return m.Return
}

// FullName is the signature-qualified name, e.g.
// "System.Int32 Kernel.Math::Add(System.Int32,System.Int32)".
func (m *Method) FullName() string {
	var b strings.Builder
	b.WriteString(m.ReturnType().FullName())
	b.WriteByte(' ')
	if m.DeclaringType != nil {
		b.WriteString(m.DeclaringType.FullName())
		b.WriteString("::")
	}
	b.WriteString(m.Name)
	b.WriteByte('(')
	for i, p := range m.Params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.FullName())
	}
	b.WriteByte(')')
	return b.String()
}

func (m *Method) String() string { return m.FullName() }

// Symbol is the linker symbol of the method's entry point.
func (m *Method) Symbol() string {
	return mangle(m.FullName())
}
