package program

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atomixos/ilc/il"
	"github.com/atomixos/ilc/meta"
)

const guarded = `
[[type]]
namespace = "Kernel"
name = "Fault"
kind = "class"
base = "Kernel.Error"

[[type]]
namespace = "Kernel"
name = "Error"
kind = "class"

[[type]]
namespace = "Kernel"
name = "Color"
kind = "enum"
elem = "System.Byte"

[[type]]
namespace = "Kernel"
name = "Pixel"
kind = "valuetype"

  [[type.field]]
  name = "Color"
  type = "Kernel.Color"

  [[type.field]]
  name = "Next"
  type = "Kernel.Pixel*"

[[method]]
type = "Kernel.Error"
name = "Raise"
static = true
convention = "stdcall"
locals = ["Kernel.Error"]
body = """
IL_0000: ldnull
IL_0001: throw
IL_0002: stloc.0
IL_0003: rethrow
"""

  [[method.clause]]
  kind = "catch"
  try_start = 0
  try_end = 2
  handler_start = 2
  handler_end = 4
  catch = "Kernel.Fault"
`

func TestLoad(t *testing.T) {
	p, err := Load([]byte(guarded))
	require.NoError(t, err)
	require.Empty(t, p.Architecture)
	require.Zero(t, p.Parallelism)

	fault, err := p.Table.Type("Kernel.Fault")
	require.NoError(t, err)
	errorType, err := p.Table.Type("Kernel.Error")
	require.NoError(t, err)
	require.Equal(t, errorType, fault.Base)

	color, err := p.Table.Type("Kernel.Color")
	require.NoError(t, err)
	require.Equal(t, meta.KindEnum, color.Kind)
	require.Equal(t, meta.Byte, color.Elem)

	pixel, err := p.Table.Type("Kernel.Pixel")
	require.NoError(t, err)
	require.Equal(t, 2, len(pixel.Fields))
	require.Equal(t, color, pixel.Fields[0].Type)
	require.Equal(t, "Kernel.Pixel*", pixel.Fields[1].Type.FullName())

	require.Equal(t, 1, len(p.Bodies))
	body := p.Bodies[0]
	m := body.Method
	require.Equal(t, "System.Void Kernel.Error::Raise()", m.FullName())
	require.Equal(t, meta.CallingConventionStdCall, m.CallingConvention)
	require.Equal(t, []*meta.Type{errorType}, m.Locals)
	require.Equal(t, []meta.ExceptionClause{{
		Kind: meta.ClauseCatch, TryStart: 0, TryEnd: 2, HandlerStart: 2, HandlerEnd: 4, CatchType: fault,
	}}, m.Clauses)

	require.Equal(t, 4, len(body.Instructions))
	require.Equal(t, il.Position(2), body.Instructions[1].Handler)
	require.Equal(t, il.ExceptionExit, body.Instructions[3].Handler)
}

func TestLoadFile(t *testing.T) {
	p, err := LoadFile(filepath.Join("..", "..", "cmd", "ilc", "testdata", "port.toml"))
	require.NoError(t, err)
	require.Equal(t, "x86", p.Architecture)
	require.Equal(t, 2, p.Parallelism)
	require.Equal(t, "kmalloc", p.Runtime.Allocate)
	require.Empty(t, p.Runtime.NewArray)

	// The constructor has no body.
	require.Equal(t, 2, len(p.Bodies))

	port, err := p.Table.Type("Kernel.Port")
	require.NoError(t, err)
	read, err := p.Table.Method("Kernel.Port::Read")
	require.NoError(t, err)
	require.Equal(t, []*meta.Method{read}, port.Methods)
	require.True(t, read.HasThis())

	ctor, err := p.Table.Method("Kernel.Port::.ctor")
	require.NoError(t, err)
	require.True(t, ctor.NoException())

	open := p.Bodies[1].Method
	require.Equal(t, meta.CallingConventionCdecl, open.CallingConvention)
	require.Equal(t, il.Method{Target: ctor}, p.Bodies[1].Instructions[0].Operand)
}

func TestLoad_errors(t *testing.T) {
	tests := []struct {
		name, toml, expErr string
	}{
		{
			name:   "syntax",
			toml:   "arch = ",
			expErr: "failed to parse program",
		},
		{
			name:   "kind",
			toml:   "[[type]]\nname = \"T\"\nkind = \"struct\"",
			expErr: `type T: unknown kind "struct"`,
		},
		{
			name:   "duplicate",
			toml:   "[[type]]\nname = \"T\"\nkind = \"class\"\n[[type]]\nname = \"T\"\nkind = \"class\"",
			expErr: "type T: declared twice",
		},
		{
			name:   "base",
			toml:   "[[type]]\nname = \"T\"\nkind = \"class\"\nbase = \"U\"",
			expErr: `type T: type "U" not found`,
		},
		{
			name:   "field",
			toml:   "[[type]]\nname = \"T\"\nkind = \"class\"\n[[type.field]]\nname = \"F\"\ntype = \"U\"",
			expErr: `type T: field F: type "U" not found`,
		},
		{
			name:   "convention",
			toml:   "[[method]]\nname = \"M\"\nconvention = \"pascal\"",
			expErr: `method M: unknown calling convention "pascal"`,
		},
		{
			name:   "clause",
			toml:   "[[method]]\nname = \"M\"\n[[method.clause]]\nkind = \"except\"",
			expErr: `method M: unknown clause kind "except"`,
		},
		{
			name:   "virtual",
			toml:   "[[method]]\nname = \"M\"\nvirtual = true",
			expErr: "method M: virtual methods must be instance methods of a type",
		},
		{
			name:   "body",
			toml:   "[[method]]\nname = \"M\"\nstatic = true\nbody = \"nop\\nfoo\"",
			expErr: `method System.Void M(): line 2: unknown opcode "foo"`,
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load([]byte(tc.toml))
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.expErr)
		})
	}
}

func TestLoadFile_missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
