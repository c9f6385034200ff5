package compiler

import (
	"errors"
	"fmt"
)

// Every error aborts the translation of the current method.
var (
	// ErrStackUnderflow is returned when a value is popped from an empty
	// virtual stack.
	ErrStackUnderflow = errors.New("virtual stack underflow")
	// ErrMalformedStack is returned when the virtual stack holds fewer
	// entries than an instruction consumes, or a handler left it at an
	// unexpected depth.
	ErrMalformedStack = errors.New("malformed virtual stack")
	// ErrUnsupportedOpcode is returned for opcodes without a handler.
	ErrUnsupportedOpcode = errors.New("unsupported opcode")
	// ErrUnsupportedTargetPlatform is returned by handlers which do not lower
	// code for the configured architecture.
	ErrUnsupportedTargetPlatform = errors.New("unsupported target platform")
	// ErrUnsupportedFeature is returned for operand shapes a handler does not
	// lower yet.
	ErrUnsupportedFeature = errors.New("unsupported feature")
	// ErrUnsupportedCallingConvention is the ErrUnsupportedFeature of calling
	// conventions without a lowering rule.
	ErrUnsupportedCallingConvention = fmt.Errorf("%w: calling convention", ErrUnsupportedFeature)
	// ErrInconsistentStackShape is returned when two control flow edges reach
	// the same position with different virtual stack shapes.
	ErrInconsistentStackShape = errors.New("inconsistent stack shape")
	// ErrUnresolvedTarget is returned when a position referenced by a branch
	// or handler edge is never reached.
	ErrUnresolvedTarget = errors.New("unresolved target")
)
