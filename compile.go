// Package ilc translates the IL method bodies of a managed kernel into 32-bit
// x86 code. Each opcode is lowered by a handler which keeps a virtual model
// of the evaluation stack, so that generated code agrees with the IL stack
// at every instruction boundary.
package ilc

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"

	"github.com/atomixos/ilc/il"
	"github.com/atomixos/ilc/internal/asm"
	"github.com/atomixos/ilc/internal/asm/golang_asm"
	"github.com/atomixos/ilc/internal/asm/x86"
	internalcompiler "github.com/atomixos/ilc/internal/compiler"
	"github.com/atomixos/ilc/meta"
)

// Compiler translates IL method bodies into x86 code.
//
// Ex.
//
//	c := ilc.NewCompiler()
//	compiled, _ := c.CompileMethod(body)
//	fmt.Print(compiled.Listing())
type Compiler interface {
	// CompileMethod translates body or errs. A failed method produces no
	// code.
	CompileMethod(body *il.Body) (*CompiledMethod, error)

	// CompileMethods translates bodies concurrently, each in isolation from
	// the others. The result has one entry per body in the same order, nil
	// for the methods that failed, and the error combines every failure.
	//
	// Note: When ctx is done, bodies not yet started are skipped and
	// ctx.Err() is returned.
	CompileMethods(ctx context.Context, bodies []*il.Body) ([]*CompiledMethod, error)

	// Opcodes returns the opcodes with a registered handler in ascending
	// order.
	Opcodes() []il.Opcode
}

// NewCompiler returns a Compiler with NewCompileConfig.
func NewCompiler() Compiler {
	return NewCompilerWithConfig(NewCompileConfig())
}

// NewCompilerWithConfig returns a compiler with the given configuration.
func NewCompilerWithConfig(config *CompileConfig) Compiler {
	return &compiler{config: config.clone(), translator: internalcompiler.NewTranslator()}
}

// compiler allows decoupling of public interfaces from internal representation.
type compiler struct {
	config     *CompileConfig
	translator *internalcompiler.Translator
}

// Opcodes implements Compiler.Opcodes
func (c *compiler) Opcodes() []il.Opcode {
	return c.translator.Registry().Opcodes()
}

// CompileMethod implements Compiler.CompileMethod
func (c *compiler) CompileMethod(body *il.Body) (*CompiledMethod, error) {
	if body == nil || body.Method == nil {
		return nil, fmt.Errorf("body has no method")
	}
	var buf asm.Buffer
	if err := c.translator.Translate(c.config.platformConfig(), body, &buf); err != nil {
		return nil, err
	}
	return &CompiledMethod{
		method:  body.Method,
		arch:    c.config.arch,
		nodes:   buf.Nodes(),
		strings: stringLiterals(body),
	}, nil
}

// CompileMethods implements Compiler.CompileMethods
func (c *compiler) CompileMethods(ctx context.Context, bodies []*il.Body) ([]*CompiledMethod, error) {
	ret := make([]*CompiledMethod, len(bodies))
	errs := make([]error, len(bodies))

	workers := c.config.parallelism
	if workers > len(bodies) {
		workers = len(bodies)
	}
	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				ret[i], errs[i] = c.CompileMethod(bodies[i])
			}
		}()
	}

	var canceled error
feed:
	for i := range bodies {
		if canceled = ctx.Err(); canceled != nil {
			break
		}
		select {
		case indexes <- i:
		case <-ctx.Done():
			canceled = ctx.Err()
			break feed
		}
	}
	close(indexes)
	wg.Wait()

	if canceled != nil {
		return nil, canceled
	}
	return ret, multierr.Combine(errs...)
}

// stringLiterals returns the literals body loads with ldstr keyed by their
// symbol.
func stringLiterals(body *il.Body) map[string]string {
	ret := map[string]string{}
	for i := range body.Instructions {
		if s, ok := body.Instructions[i].Operand.(il.String); ok {
			ret[internalcompiler.StringSymbol(string(s))] = string(s)
		}
	}
	return ret
}

// Code is the machine code of a CompiledMethod with the relocations a
// linker resolves.
type Code = golang_asm.Code

// Relocation is a 4-byte field in Code.Bytes referring to a symbol.
type Relocation = golang_asm.Relocation

const (
	RelocationAbsolute32 = golang_asm.RelocationAbsolute32
	RelocationRelative32 = golang_asm.RelocationRelative32
)

// CompiledMethod is the translated form of one method body.
type CompiledMethod struct {
	method  *meta.Method
	arch    Architecture
	nodes   []*asm.Node
	strings map[string]string
}

// Method returns the method this was compiled from.
func (m *CompiledMethod) Method() *meta.Method { return m.method }

// Symbol returns the linker symbol of the method's entry point.
func (m *CompiledMethod) Symbol() string { return m.method.Symbol() }

// Strings returns the string literals the code refers to, keyed by the
// symbol the code loads them from. The linker emits one string object per
// symbol.
func (m *CompiledMethod) Strings() map[string]string { return m.strings }

// Listing renders the code in the Go assembler syntax, one instruction per
// line.
func (m *CompiledMethod) Listing() string {
	return x86.Listing(m.nodes)
}

// Encode assembles the code into 32-bit machine code.
func (m *CompiledMethod) Encode() (*Code, error) {
	if m.arch != ArchitectureX86 {
		return nil, fmt.Errorf("failed to encode %s: %w: %s", m.Symbol(), ErrUnsupportedTargetPlatform, m.arch)
	}
	code, err := golang_asm.Encode(m.nodes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", m.Symbol(), err)
	}
	return code, nil
}
