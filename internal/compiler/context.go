package compiler

import (
	"fmt"

	"github.com/atomixos/ilc/il"
	"github.com/atomixos/ilc/internal/asm"
	"github.com/atomixos/ilc/internal/layout"
	"github.com/atomixos/ilc/internal/platform"
	"github.com/atomixos/ilc/meta"
)

const (
	// exitLabel starts the epilogue taken on normal return.
	exitLabel asm.Label = ".Lexit"
	// errorLabel starts the epilogue taken while an exception is pending.
	errorLabel asm.Label = ".Lerror"
)

// positionLabel returns the label of the instruction at pos.
func positionLabel(pos il.Position) asm.Label {
	if pos == il.ExceptionExit {
		return errorLabel
	}
	return asm.Label(fmt.Sprintf(".L%04x", int(pos)))
}

// MethodContext is the read-only view of the method being translated.
type MethodContext struct {
	Method *meta.Method
	Frame  *layout.Frame
	// catches maps catch handler entries to their clause index.
	catches map[il.Position]int
}

// NewMethodContext returns the context of m on arch.
func NewMethodContext(m *meta.Method, arch platform.Architecture) *MethodContext {
	mc := &MethodContext{
		Method:  m,
		Frame:   layout.NewFrame(m, arch),
		catches: map[il.Position]int{},
	}
	for i := range m.Clauses {
		if m.Clauses[i].Kind == meta.ClauseCatch {
			mc.catches[il.Position(m.Clauses[i].HandlerStart)] = i
		}
	}
	return mc
}

// catchClause returns the catch clause whose handler starts at pos.
func (mc *MethodContext) catchClause(pos il.Position) (*meta.ExceptionClause, int, bool) {
	i, ok := mc.catches[pos]
	if !ok {
		return nil, 0, false
	}
	return &mc.Method.Clauses[i], i, true
}

// caughtType is the type of the exception object a catch handler starts with.
func caughtType(c *meta.ExceptionClause) *meta.Type {
	if c.CatchType == nil {
		return meta.Object
	}
	return c.CatchType
}

// handlerShape returns the stack shape a catch handler starts with: the
// caught exception object alone.
func (mc *MethodContext) handlerShape(pos il.Position, arch platform.Architecture) (Shape, bool) {
	c, _, ok := mc.catchClause(pos)
	if !ok {
		return nil, false
	}
	return Shape{NewStackEntry(caughtType(c), arch)}, true
}

// outerHandler returns the handler an exception goes to when the catch
// clause at index i does not accept it: the next catch clause protecting the
// same try start, or the exceptional exit.
func (mc *MethodContext) outerHandler(i int) il.Position {
	c := &mc.Method.Clauses[i]
	for j := i + 1; j < len(mc.Method.Clauses); j++ {
		next := &mc.Method.Clauses[j]
		if next.Kind == meta.ClauseCatch && next.Contains(c.TryStart) {
			return il.Position(next.HandlerStart)
		}
	}
	return il.ExceptionExit
}

// leavesFinally reports whether control leaving from to target exits a try
// region protected by a finally or fault clause.
func (mc *MethodContext) leavesFinally(from, target il.Position) bool {
	for i := range mc.Method.Clauses {
		c := &mc.Method.Clauses[i]
		if c.Kind != meta.ClauseFinally && c.Kind != meta.ClauseFault {
			continue
		}
		if c.Contains(int(from)) && !c.Contains(int(target)) {
			return true
		}
	}
	return false
}

// saveHandlerEdge records the edge from a signalling instruction to its
// handler.
func (mc *MethodContext) saveHandlerEdge(opt *Optimizer, handler il.Position, arch platform.Architecture) error {
	if handler == il.ExceptionExit {
		return nil
	}
	if shape, ok := mc.handlerShape(handler, arch); ok {
		return opt.SaveShape(handler, shape)
	}
	return opt.SaveStack(handler)
}
