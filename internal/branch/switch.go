package branch

import (
	"math"
	"sort"

	"github.com/Frontrider/JWebAssembly/internal/module"
)

// switchCase is scratch bookkeeping for calculateSwitch: one per case label
// plus a synthetic sentinel for the default target. Ported from
// BranchManger.SwitchCase.
type switchCase struct {
	key      int64
	position int
	block    int
}

const defaultKey = int64(math.MaxInt64)

// SwitchDispatch is the payload attached to the innermost node of a
// reconstructed switch region. Unlike the original compiler - which only
// builds an explicit BR_TABLE node for a tableswitch and leaves lookupswitch
// dispatch for the translator to improvise inline - every switch here gets
// exactly one dispatch node, distinguished by IsTable. This keeps the
// branch tree's shape uniform regardless of which bytecode switch form
// produced it; back-ends decide how to expand it:
//
//   - table switch: emit a native br_table. The operand is first offset by
//     -Low, then BlockIndices (plus a trailing DefaultBlockIndex) forms
//     the br_table immediate vector directly.
//   - lookup switch: emit a tee_local/const/eq/br_if chain, one per
//     (Keys[i], BlockIndices[i]) pair, falling through to a br
//     DefaultBlockIndex when nothing matches.
type SwitchDispatch struct {
	IsTable bool
	Low     int32

	Keys         []int32 // lookup switch only, parallel to BlockIndices
	BlockIndices []int   // per-case block index, in key order; excludes the default

	DefaultBlockIndex int

	// ScratchLocal is the i32 local index a lookup switch stashes its
	// scrutinee into, so each case's equality test can read it again
	// without the stack-duplication Wasm's MVP instruction set lacks.
	// Unused (-1) for a table switch, which instead offsets the value
	// already on the stack by -Low and feeds it straight to br_table.
	ScratchLocal int
}

// calculateSwitch reconstructs the nested BLOCK structure for one
// tableswitch/lookupswitch, including rewriting any trailing per-case GOTO
// ("break") into a BR to the right nesting depth. Ported from
// BranchManger.caculateSwitch.
func (m *Manager) calculateSwitch(parent *Node, switchBlock *ParsedBlock, q *queue) error {
	startPosition := switchBlock.StartPosition
	info := switchBlock.Switch
	posCount := len(info.Positions)
	isTable := info.Keys == nil

	cases := make([]*switchCase, posCount+1)
	cases[posCount] = &switchCase{key: defaultKey, position: info.DefaultPosition}
	for i := 0; i < posCount; i++ {
		key := int64(i)
		if !isTable {
			key = int64(info.Keys[i])
		}
		cases[i] = &switchCase{key: key, position: info.Positions[i]}
	}

	sort.SliceStable(cases, func(a, b int) bool { return cases[a].position < cases[b].position })

	blockCount := 0
	lastPosition := -1
	var dispatchNode *Node
	var blockNode *Node
	for _, c := range cases {
		c.block = blockCount
		if lastPosition == c.position {
			continue
		}
		if blockNode == nil {
			dispatchNode = &Node{StartPos: c.position, EndPos: c.position, StartOp: op(module.BrTable)}
			blockNode = dispatchNode
		}
		lastPosition = c.position
		blockCount++
		node := &Node{StartPos: startPosition, EndPos: c.position, StartOp: op(module.Block), EndOp: op(module.End)}
		node.Add(blockNode)
		blockNode = node
	}

	// Rewrite trailing per-case GOTOs ("break") into BR at the right depth.
	blockCount = 0
	branch := blockNode
	for len(branch.Children) > 0 {
		node := branch.Children[0]
		blockCount++
		for p := 0; p < q.Len(); {
			pb := q.PeekAt(p)
			if pb.StartPosition < node.EndPos {
				p++
				continue
			}
			if pb.StartPosition < lastPosition {
				if pb.EndPosition >= lastPosition && pb.Op == GOTO {
					q.RemoveAt(p)
					lastPosition = pb.EndPosition
					branch.Add(&Node{StartPos: pb.StartPosition, EndPos: pb.StartPosition, StartOp: op(module.Br), Data: blockCount})
					continue
				}
				p++
			} else {
				break
			}
		}
		branch = node
	}

	switchNode := &Node{StartPos: startPosition, EndPos: lastPosition, StartOp: op(module.Block), EndOp: op(module.End)}
	switchNode.Add(blockNode)
	parent.Add(switchNode)

	sort.SliceStable(cases, func(a, b int) bool { return cases[a].key < cases[b].key })
	dispatch := &SwitchDispatch{IsTable: isTable, Low: info.Low, ScratchLocal: -1}
	if !isTable {
		dispatch.ScratchLocal = m.nextScratch
		m.nextScratch++
	}
	for _, c := range cases {
		if c.key == defaultKey {
			dispatch.DefaultBlockIndex = c.block
			continue
		}
		dispatch.BlockIndices = append(dispatch.BlockIndices, c.block)
		if !isTable {
			dispatch.Keys = append(dispatch.Keys, int32(c.key))
		}
	}
	if dispatchNode != nil {
		dispatchNode.Data = dispatch
	}
	return nil
}
