package compiler

import (
	"fmt"
	"sort"

	"github.com/atomixos/ilc/il"
	"github.com/atomixos/ilc/internal/asm"
	"github.com/atomixos/ilc/internal/platform"
)

// lowering translates one opcode for one architecture.
type lowering func(e *execution) error

// execution holds the arguments of one Handler.Execute call.
type execution struct {
	cfg   platform.Config
	inst  *il.Instruction
	mc    *MethodContext
	opt   *Optimizer
	stack *VirtualStack
	out   asm.Emitter
}

// Handler is the translation rule of one opcode. The set of handlers is
// closed: they are only created by NewRegistry.
type Handler struct {
	opcode    il.Opcode
	lowerings [platform.ArchitectureCount]lowering
}

// Opcode returns the opcode h translates.
func (h *Handler) Opcode() il.Opcode { return h.opcode }

// Supports returns whether h lowers code for arch.
func (h *Handler) Supports(arch platform.Architecture) bool {
	return int(arch) < len(h.lowerings) && h.lowerings[arch] != nil
}

// Execute translates inst, popping its inputs from and pushing its result to
// opt.Stack and appending the generated instructions to out.
func (h *Handler) Execute(cfg platform.Config, inst *il.Instruction, mc *MethodContext, opt *Optimizer, out asm.Emitter) error {
	if !h.Supports(cfg.Architecture) {
		return fmt.Errorf("%w: %s on %s", ErrUnsupportedTargetPlatform, h.opcode, cfg.Architecture)
	}

	pops, pushes, fixed := il.StackEffect(h.opcode)
	fixed = fixed && pops != il.Variable
	before := opt.Stack.Count()
	if fixed {
		if err := opt.Stack.Require(pops); err != nil {
			return err
		}
	}

	err := h.lowerings[cfg.Architecture](&execution{
		cfg:   cfg,
		inst:  inst,
		mc:    mc,
		opt:   opt,
		stack: opt.Stack,
		out:   out,
	})
	if err != nil {
		return err
	}

	if fixed {
		if delta := opt.Stack.Count() - before; delta != pushes-pops {
			return fmt.Errorf("%w: %s changed the depth by %d, want %d", ErrMalformedStack, h.opcode, delta, pushes-pops)
		}
	}
	return nil
}

// Registry maps opcodes to their handlers. It is read-only once created and
// safe to share between concurrent translations.
type Registry struct {
	handlers map[il.Opcode]*Handler
}

// archLowerings returns the lowering table of every architecture. A nil
// table means nothing is lowered for that architecture yet.
func archLowerings() [platform.ArchitectureCount]map[il.Opcode]lowering {
	var ret [platform.ArchitectureCount]map[il.Opcode]lowering
	ret[platform.ArchitectureX86] = x86Lowerings()
	return ret
}

// NewRegistry returns the registry of every opcode any architecture lowers.
func NewRegistry() *Registry {
	r := &Registry{handlers: map[il.Opcode]*Handler{}}
	for arch, table := range archLowerings() {
		for op, l := range table {
			h, ok := r.handlers[op]
			if !ok {
				h = &Handler{opcode: op}
				r.handlers[op] = h
			}
			h.lowerings[arch] = l
		}
	}
	return r
}

// Lookup returns the handler of op.
func (r *Registry) Lookup(op il.Opcode) (*Handler, error) {
	h, ok := r.handlers[op]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOpcode, op)
	}
	return h, nil
}

// Opcodes returns the registered opcodes in ascending order.
func (r *Registry) Opcodes() []il.Opcode {
	ret := make([]il.Opcode, 0, len(r.handlers))
	for op := range r.handlers {
		ret = append(ret, op)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}
