package branch

import "github.com/Frontrider/JWebAssembly/internal/module"

// Node is a single region in the reconstructed control-flow tree: a
// BLOCK, LOOP, IF (with optional ELSE), or a leaf BR/BR_IF/BR_TABLE-style
// dispatch. Ported from BranchManger.BranchNode.
//
// Invariants (spec.md §3): a child's [StartPos, EndPos] interval lies
// within its parent's; siblings do not overlap; the root spans
// [0, math.MaxInt32) with no open or close operator.
type Node struct {
	StartPos int
	EndPos   int

	StartOp *module.BlockOperator // nil => nothing emitted on entry
	EndOp   *module.BlockOperator // nil => nothing emitted on exit

	// Data carries the payload an open operator needs: an int branch
	// depth for Br/BrIf, a *SwitchDispatch for BrTable.
	Data any

	Children []*Node
}

func op(o module.BlockOperator) *module.BlockOperator {
	return &o
}

// Add appends a child node.
func (n *Node) Add(child *Node) {
	n.Children = append(n.Children, child)
}

// Handle walks the tree rooted at n, emitting any open/close marker whose
// position matches pos, and recursing into children in order. This is the
// only way the reconstructed structure reaches the writer: goto, ifXX,
// tableswitch, and lookupswitch bytecode instructions are never emitted
// directly by the translator, per spec.md §4.4.
func (n *Node) Handle(pos int, w module.Writer) error {
	if pos < n.StartPos || pos > n.EndPos {
		return nil
	}
	if pos == n.StartPos && n.StartOp != nil {
		if err := w.WriteBlockCode(*n.StartOp, n.Data); err != nil {
			return err
		}
	}
	for _, child := range n.Children {
		if err := child.Handle(pos, w); err != nil {
			return err
		}
	}
	if pos == n.EndPos && n.EndOp != nil {
		return w.WriteBlockCode(*n.EndOp, nil)
	}
	return nil
}
