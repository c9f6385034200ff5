package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/atomixos/ilc/il"
)

// Optimizer owns the virtual stack of one method translation and the stack
// shape expected at every position more than one control flow edge may
// reach. A position gets a single shape: the first edge to reach it records
// the shape and every later edge must agree with it.
type Optimizer struct {
	// Stack is the virtual stack handlers pop from and push to.
	Stack *VirtualStack

	snapshots map[il.Position]Shape
	// referencedBy maps edge targets to the first position referencing them.
	referencedBy map[il.Position]il.Position
	reached      map[il.Position]struct{}
	// current is the position of the instruction being translated.
	current il.Position
}

// NewOptimizer returns an Optimizer with an empty stack.
func NewOptimizer() *Optimizer {
	return &Optimizer{
		Stack:        &VirtualStack{},
		snapshots:    map[il.Position]Shape{},
		referencedBy: map[il.Position]il.Position{},
		reached:      map[il.Position]struct{}{},
	}
}

// SaveStack records the current stack shape as the shape expected at target,
// or validates it against the shape recorded earlier.
func (o *Optimizer) SaveStack(target il.Position) error {
	return o.SaveShape(target, o.Stack.Shape())
}

// SaveShape is SaveStack with an explicit shape, for edges whose target
// starts from a different stack than the source, e.g. catch handlers.
func (o *Optimizer) SaveShape(target il.Position, shape Shape) error {
	if target == il.ExceptionExit {
		return nil
	}
	if _, ok := o.referencedBy[target]; !ok {
		o.referencedBy[target] = o.current
	}
	recorded, ok := o.snapshots[target]
	if !ok {
		o.snapshots[target] = shape
		return nil
	}
	if !recorded.Compatible(shape) {
		return fmt.Errorf("%w at %s: %s from %s, %s recorded", ErrInconsistentStackShape,
			target, shape, o.current, recorded)
	}
	return nil
}

// Arrive prepares the stack for translating the instruction at pos.
// fallsThrough is whether the previous instruction may continue into pos; if
// it cannot, the stack is the recorded shape of pos or, for positions no edge
// reached yet, empty.
func (o *Optimizer) Arrive(pos il.Position, fallsThrough bool) error {
	o.current = pos
	o.reached[pos] = struct{}{}
	recorded, ok := o.snapshots[pos]
	if !ok {
		if !fallsThrough {
			o.Stack.Reset(nil)
		}
		o.snapshots[pos] = o.Stack.Shape()
		return nil
	}
	if fallsThrough && !recorded.Compatible(o.Stack.Shape()) {
		return fmt.Errorf("%w at %s: %s falls through, %s recorded", ErrInconsistentStackShape,
			pos, o.Stack, recorded)
	}
	o.Stack.Reset(recorded)
	return nil
}

// Expected returns the shape recorded for pos.
func (o *Optimizer) Expected(pos il.Position) (Shape, bool) {
	s, ok := o.snapshots[pos]
	return s, ok
}

// Finalize fails with ErrUnresolvedTarget if an edge referenced a position
// which was never reached.
func (o *Optimizer) Finalize() error {
	var unresolved []il.Position
	for target := range o.referencedBy {
		if _, ok := o.reached[target]; !ok {
			unresolved = append(unresolved, target)
		}
	}
	if len(unresolved) == 0 {
		return nil
	}
	sort.Slice(unresolved, func(i, j int) bool { return unresolved[i] < unresolved[j] })
	msgs := make([]string, len(unresolved))
	for i, target := range unresolved {
		msgs[i] = fmt.Sprintf("%s referenced by %s", target, o.referencedBy[target])
	}
	return fmt.Errorf("%w: %s", ErrUnresolvedTarget, strings.Join(msgs, ", "))
}
