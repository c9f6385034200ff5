package ilc

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atomixos/ilc/internal/platform"
)

func TestNewCompileConfig(t *testing.T) {
	c := NewCompileConfig()
	require.Equal(t, ArchitectureX86, c.arch)
	require.Equal(t, platform.DefaultRuntimeSymbols, c.runtime)
	require.Equal(t, runtime.GOMAXPROCS(0), c.parallelism)
	require.NotNil(t, c.logger)
}

func TestCompileConfig_clone(t *testing.T) {
	c := NewCompileConfig()
	modified := c.WithArchitecture(ArchitectureARM).WithParallelism(3)

	require.Equal(t, ArchitectureX86, c.arch)
	require.Equal(t, ArchitectureARM, modified.arch)
	require.Equal(t, 3, modified.parallelism)
	require.NotSame(t, c, modified)
}

func TestCompileConfig_WithParallelism(t *testing.T) {
	require.Equal(t, 1, NewCompileConfig().WithParallelism(0).parallelism)
	require.Equal(t, 1, NewCompileConfig().WithParallelism(-2).parallelism)
	require.Equal(t, 8, NewCompileConfig().WithParallelism(8).parallelism)
}

func TestCompileConfig_WithLogger(t *testing.T) {
	logger := zap.NewExample()
	require.Same(t, logger, NewCompileConfig().WithLogger(logger).logger)
	require.NotNil(t, NewCompileConfig().WithLogger(nil).logger)
}

func TestCompileConfig_platformConfig(t *testing.T) {
	c := NewCompileConfig().
		WithArchitecture(ArchitectureX64).
		WithRuntimeSymbols(RuntimeSymbols{Allocate: "kmalloc"})

	pc := c.platformConfig()
	require.Equal(t, ArchitectureX64, pc.Architecture)
	require.Equal(t, "kmalloc", pc.Runtime.Allocate)
	require.Equal(t, platform.DefaultRuntimeSymbols.NewArray, pc.Runtime.NewArray)
	require.Equal(t, platform.DefaultRuntimeSymbols.CurrentException, pc.Runtime.CurrentException)
	require.NotNil(t, pc.Logger)
}

func TestParseArchitecture(t *testing.T) {
	arch, err := ParseArchitecture("386")
	require.NoError(t, err)
	require.Equal(t, ArchitectureX86, arch)

	_, err = ParseArchitecture("riscv")
	require.EqualError(t, err, `unknown architecture "riscv"`)
}
