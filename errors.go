package ilc

import internalcompiler "github.com/atomixos/ilc/internal/compiler"

// Errors returned by compilation are wrapped; match them with errors.Is.
var (
	ErrStackUnderflow               = internalcompiler.ErrStackUnderflow
	ErrMalformedStack               = internalcompiler.ErrMalformedStack
	ErrUnsupportedOpcode            = internalcompiler.ErrUnsupportedOpcode
	ErrUnsupportedTargetPlatform    = internalcompiler.ErrUnsupportedTargetPlatform
	ErrUnsupportedFeature           = internalcompiler.ErrUnsupportedFeature
	ErrUnsupportedCallingConvention = internalcompiler.ErrUnsupportedCallingConvention
	ErrInconsistentStackShape       = internalcompiler.ErrInconsistentStackShape
	ErrUnresolvedTarget             = internalcompiler.ErrUnresolvedTarget
)
