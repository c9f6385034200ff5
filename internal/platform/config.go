package platform

import "go.uber.org/zap"

// RuntimeSymbols names the runtime entry points generated code calls. The
// helpers follow the StdCall convention and signal exceptions like any other
// method.
type RuntimeSymbols struct {
	// Allocate takes the instance size and returns zeroed memory.
	Allocate string
	// NewArray takes the element count and element size and returns an array
	// with its header filled in.
	NewArray string
	// IsInstance takes an object and a type descriptor and returns the
	// object, or null when it is not an instance of the type.
	IsInstance string
	// CastClass is IsInstance which signals an exception instead of
	// returning null.
	CastClass string
	// CurrentException is the data symbol holding the pending exception
	// object.
	CurrentException string
}

// DefaultRuntimeSymbols are the symbols of the kernel runtime library.
var DefaultRuntimeSymbols = RuntimeSymbols{
	Allocate:         "__Heap_Allocate",
	NewArray:         "__Heap_NewArray",
	IsInstance:       "__Runtime_IsInstance",
	CastClass:        "__Runtime_CastClass",
	CurrentException: "__Runtime_CurrentException",
}

// Config is the read-only configuration of one compilation run. It is passed
// by value to every translation.
type Config struct {
	Architecture Architecture
	Runtime      RuntimeSymbols
	// Logger receives debug traces of the translation. Never nil once
	// normalized by WithDefaults.
	Logger *zap.Logger
}

// WithDefaults returns c with unset fields filled in.
func (c Config) WithDefaults() Config {
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	def := DefaultRuntimeSymbols
	if c.Runtime.Allocate == "" {
		c.Runtime.Allocate = def.Allocate
	}
	if c.Runtime.NewArray == "" {
		c.Runtime.NewArray = def.NewArray
	}
	if c.Runtime.IsInstance == "" {
		c.Runtime.IsInstance = def.IsInstance
	}
	if c.Runtime.CastClass == "" {
		c.Runtime.CastClass = def.CastClass
	}
	if c.Runtime.CurrentException == "" {
		c.Runtime.CurrentException = def.CurrentException
	}
	return c
}
