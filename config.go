package ilc

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/atomixos/ilc/internal/platform"
)

// Architecture is a code generation target. Only ArchitectureX86 has a
// lowering; compiling for the others fails with ErrUnsupportedTargetPlatform.
type Architecture = platform.Architecture

const (
	ArchitectureX86 = platform.ArchitectureX86
	ArchitectureX64 = platform.ArchitectureX64
	ArchitectureARM = platform.ArchitectureARM
)

// ParseArchitecture returns the Architecture named s, e.g. "x86" or "386".
func ParseArchitecture(s string) (Architecture, error) {
	return platform.ParseArchitecture(s)
}

// RuntimeSymbols names the runtime entry points generated code calls.
type RuntimeSymbols = platform.RuntimeSymbols

// CompileConfig controls compilation, with the default implementation as
// NewCompileConfig. Every WithXxx method returns a modified copy.
type CompileConfig struct {
	arch        Architecture
	runtime     RuntimeSymbols
	logger      *zap.Logger
	parallelism int
}

// defaultCompileConfig helps avoid copy/pasting the wrong defaults.
var defaultCompileConfig = &CompileConfig{
	arch:        ArchitectureX86,
	runtime:     platform.DefaultRuntimeSymbols,
	logger:      zap.NewNop(),
	parallelism: 1,
}

// clone ensures all fields are copied even if nil.
func (c *CompileConfig) clone() *CompileConfig {
	ret := *c
	return &ret
}

// NewCompileConfig returns the default configuration: x86 code linked
// against the kernel runtime symbols, no logging, and as many parallel
// translations as GOMAXPROCS.
func NewCompileConfig() *CompileConfig {
	ret := defaultCompileConfig.clone()
	ret.parallelism = runtime.GOMAXPROCS(0)
	return ret
}

// WithArchitecture sets the target of generated code. Defaults to
// ArchitectureX86.
func (c *CompileConfig) WithArchitecture(arch Architecture) *CompileConfig {
	ret := c.clone()
	ret.arch = arch
	return ret
}

// WithLogger sets the logger receiving debug traces of each translation.
// A nil logger disables logging, which is the default.
func (c *CompileConfig) WithLogger(logger *zap.Logger) *CompileConfig {
	if logger == nil {
		logger = zap.NewNop()
	}
	ret := c.clone()
	ret.logger = logger
	return ret
}

// WithRuntimeSymbols overrides the runtime entry points. Empty fields keep
// their default symbol.
func (c *CompileConfig) WithRuntimeSymbols(symbols RuntimeSymbols) *CompileConfig {
	ret := c.clone()
	ret.runtime = symbols
	return ret
}

// WithParallelism sets how many methods CompileMethods translates at once.
// Values below one mean one.
func (c *CompileConfig) WithParallelism(n int) *CompileConfig {
	if n < 1 {
		n = 1
	}
	ret := c.clone()
	ret.parallelism = n
	return ret
}

// platformConfig is the per-translation view of c.
func (c *CompileConfig) platformConfig() platform.Config {
	return platform.Config{
		Architecture: c.arch,
		Runtime:      c.runtime,
		Logger:       c.logger,
	}.WithDefaults()
}
