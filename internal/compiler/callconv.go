package compiler

import (
	"fmt"

	"github.com/atomixos/ilc/internal/layout"
	"github.com/atomixos/ilc/internal/platform"
	"github.com/atomixos/ilc/meta"
)

// CallSite is what the caller needs to know to invoke a method.
type CallSite struct {
	// Symbol is the linkage symbol of the target.
	Symbol string
	// ParameterCount is the number of stack entries the call consumes,
	// including the receiver of instance methods.
	ParameterCount int
	// Params are the types of the consumed entries, receiver first.
	Params []*meta.Type
	// ArgumentsSize is the byte size of the consumed entries.
	ArgumentsSize int
	ReturnType    *meta.Type
	// ReturnSize is the stack size of the return value, 0 for void.
	ReturnSize int
	// Convention is either CallingConventionStdCall or CallingConventionCdecl.
	Convention meta.CallingConvention
	// NoException is set when the target never signals an exception.
	NoException bool
}

// NewCallSite computes the call site of target called with convention on
// arch. A value-typed receiver is passed by reference.
func NewCallSite(target *meta.Method, convention meta.CallingConvention, arch platform.Architecture) (*CallSite, error) {
	cc, err := normalizeConvention(convention)
	if err != nil {
		return nil, err
	}
	site := &CallSite{
		Symbol:      target.Symbol(),
		ReturnType:  target.ReturnType(),
		Convention:  cc,
		NoException: target.NoException(),
	}
	if target.HasThis() {
		site.Params = append(site.Params, layout.ReceiverType(target.DeclaringType))
	}
	site.Params = append(site.Params, target.Params...)
	site.ParameterCount = len(site.Params)
	for _, p := range site.Params {
		site.ArgumentsSize += layout.SizeOf(p, arch, true)
	}
	if !site.ReturnType.IsVoid() {
		site.ReturnSize = layout.SizeOf(site.ReturnType, arch, true)
	}
	return site, nil
}

// signatureCallSite computes the call site of an indirect call through a
// function pointer.
func signatureCallSite(params []*meta.Type, ret *meta.Type, hasThis bool, convention meta.CallingConvention, arch platform.Architecture) (*CallSite, error) {
	m := &meta.Method{Params: params, Return: ret, IsStatic: !hasThis, CallingConvention: convention}
	return NewCallSite(m, convention, arch)
}

func normalizeConvention(c meta.CallingConvention) (meta.CallingConvention, error) {
	switch c {
	case meta.CallingConventionDefault, meta.CallingConventionStdCall:
		return meta.CallingConventionStdCall, nil
	case meta.CallingConventionCdecl:
		return meta.CallingConventionCdecl, nil
	}
	return 0, fmt.Errorf("%w %s", ErrUnsupportedCallingConvention, c)
}

// CallerCleanup returns the number of bytes the caller pops after the call
// returns.
func (s *CallSite) CallerCleanup() int {
	if s.Convention == meta.CallingConventionCdecl {
		return s.ArgumentsSize
	}
	return 0
}

// CalleeCleanup returns the number of bytes the callee pops on return.
func (s *CallSite) CalleeCleanup() int {
	if s.Convention == meta.CallingConventionStdCall {
		return s.ArgumentsSize
	}
	return 0
}
