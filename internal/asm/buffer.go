package asm

// Buffer is an Emitter which keeps the emitted nodes in order.
//
// The zero value is an empty buffer ready to use.
type Buffer struct {
	nodes []*Node
}

// Emit implements Emitter.Emit.
func (b *Buffer) Emit(n *Node) {
	b.nodes = append(b.nodes, n)
}

// Nodes returns the emitted nodes. The returned slice aliases the buffer.
func (b *Buffer) Nodes() []*Node {
	return b.nodes
}

// Len returns the number of emitted nodes.
func (b *Buffer) Len() int {
	return len(b.nodes)
}

// Truncate discards every node emitted after the first n.
func (b *Buffer) Truncate(n int) {
	for i := n; i < len(b.nodes); i++ {
		b.nodes[i] = nil
	}
	b.nodes = b.nodes[:n]
}

// Reset empties the buffer while keeping the allocated capacity.
func (b *Buffer) Reset() {
	b.Truncate(0)
}

// Labels returns the labels bound by LABEL nodes in emission order.
func (b *Buffer) Labels() []Label {
	var ret []Label
	for _, n := range b.nodes {
		if n.Instruction == LABEL {
			ret = append(ret, n.Dst.Label)
		}
	}
	return ret
}
