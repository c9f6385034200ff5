package compiler

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/atomixos/ilc/il"
	"github.com/atomixos/ilc/internal/asm"
	"github.com/atomixos/ilc/internal/platform"
)

// frameLowering emits the code around the translated instructions of a
// method: its prologue, the landing code of catch handlers and its epilogue.
type frameLowering struct {
	prologue lowering
	// landing is executed with the first instruction of the catch handler.
	landing  lowering
	epilogue lowering
}

func archFrames() [platform.ArchitectureCount]*frameLowering {
	var ret [platform.ArchitectureCount]*frameLowering
	ret[platform.ArchitectureX86] = x86Frame()
	return ret
}

// Translator translates method bodies. It is stateless once created and
// safe for concurrent use; each Translate call owns its stack and snapshots.
type Translator struct {
	registry *Registry
	frames   [platform.ArchitectureCount]*frameLowering
}

// NewTranslator returns a Translator with every registered handler.
func NewTranslator() *Translator {
	return &Translator{registry: NewRegistry(), frames: archFrames()}
}

// Registry returns the handlers t dispatches to.
func (t *Translator) Registry() *Registry { return t.registry }

// Translate lowers body for cfg.Architecture. The generated instructions are
// appended to out only when the whole method translates successfully.
func (t *Translator) Translate(cfg platform.Config, body *il.Body, out asm.Emitter) error {
	cfg = cfg.WithDefaults()
	m := body.Method
	logger := cfg.Logger.With(zap.String("method", m.FullName()), zap.Stringer("arch", cfg.Architecture))
	logger.Debug("translating method", zap.Int("instructions", len(body.Instructions)))

	var buf asm.Buffer
	if err := t.translate(cfg, logger, body, &buf); err != nil {
		logger.Debug("translation failed", zap.Error(err))
		return err
	}
	for _, n := range buf.Nodes() {
		out.Emit(n)
	}
	logger.Debug("translated method", zap.Int("nodes", buf.Len()))
	return nil
}

func (t *Translator) translate(cfg platform.Config, logger *zap.Logger, body *il.Body, buf *asm.Buffer) error {
	m := body.Method
	if int(cfg.Architecture) >= len(t.frames) || t.frames[cfg.Architecture] == nil {
		return fmt.Errorf("failed to translate %s: %w: %s", m.FullName(), ErrUnsupportedTargetPlatform, cfg.Architecture)
	}
	frame := t.frames[cfg.Architecture]

	mc := NewMethodContext(m, cfg.Architecture)
	opt := NewOptimizer()
	e := &execution{cfg: cfg, mc: mc, opt: opt, stack: opt.Stack, out: buf}
	if err := frame.prologue(e); err != nil {
		return fmt.Errorf("failed to translate %s prologue: %w", m.FullName(), err)
	}

	targets := branchTargets(body)
	fallsThrough := true
	for i := range body.Instructions {
		inst := &body.Instructions[i]
		e.inst = inst

		shape, isCatch := mc.handlerShape(inst.Position, cfg.Architecture)
		if isCatch {
			if err := opt.SaveShape(inst.Position, shape); err != nil {
				return fmt.Errorf("failed to translate %s at %s: %w", m.FullName(), inst, err)
			}
		}
		if err := opt.Arrive(inst.Position, fallsThrough); err != nil {
			return fmt.Errorf("failed to translate %s at %s: %w", m.FullName(), inst, err)
		}
		if targets[inst.Position] || isCatch {
			buf.Emit(&asm.Node{Instruction: asm.LABEL, Dst: asm.Branch(positionLabel(inst.Position))})
		}
		if isCatch {
			if err := frame.landing(e); err != nil {
				return fmt.Errorf("failed to translate %s handler at %s: %w", m.FullName(), inst.Position, err)
			}
		}

		logger.Debug("translating instruction", zap.Stringer("instruction", inst), zap.Stringer("stack", opt.Stack))
		h, err := t.registry.Lookup(inst.Opcode)
		if err != nil {
			return fmt.Errorf("failed to translate %s at %s: %w", m.FullName(), inst, err)
		}
		if err := h.Execute(cfg, inst, mc, opt, buf); err != nil {
			return fmt.Errorf("failed to translate %s at %s: %w", m.FullName(), inst, err)
		}
		fallsThrough = !inst.Opcode.IsUnconditional()
	}
	if fallsThrough && len(body.Instructions) > 0 {
		return fmt.Errorf("failed to translate %s: %w: control falls through the last instruction", m.FullName(), ErrMalformedStack)
	}

	if err := opt.Finalize(); err != nil {
		return fmt.Errorf("failed to translate %s: %w", m.FullName(), err)
	}
	e.inst = nil
	if err := frame.epilogue(e); err != nil {
		return fmt.Errorf("failed to translate %s epilogue: %w", m.FullName(), err)
	}
	return nil
}

// branchTargets returns the positions an explicit branch may jump to.
func branchTargets(body *il.Body) map[il.Position]bool {
	ret := map[il.Position]bool{}
	for i := range body.Instructions {
		for _, target := range body.Instructions[i].Targets() {
			ret[target] = true
		}
	}
	return ret
}
