package il

import "github.com/atomixos/ilc/meta"

// NewBody returns the body of m made of insts, which must be in program
// order. It links every instruction to the following one and to the
// innermost catch handler of m protecting it. The last instruction's Next
// is the position right after it.
func NewBody(m *meta.Method, insts []Instruction) *Body {
	for i := range insts {
		inst := &insts[i]
		if i+1 < len(insts) {
			inst.Next = insts[i+1].Position
		} else {
			inst.Next = inst.Position + 1
		}
		inst.Handler = handlerOf(m, inst.Position)
	}
	return &Body{Method: m, Instructions: insts}
}

// handlerOf returns the innermost catch handler protecting pos. Clauses are
// ordered inner first.
func handlerOf(m *meta.Method, pos Position) Position {
	for i := range m.Clauses {
		c := &m.Clauses[i]
		if c.Kind == meta.ClauseCatch && c.Contains(int(pos)) {
			return Position(c.HandlerStart)
		}
	}
	return ExceptionExit
}
