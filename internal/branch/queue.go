package branch

// queue is the pending-ParsedBlock list consumed while building the tree.
// The original Java implementation removes elements from a shared List and
// recurses over live sublist views of it; spec.md §9 notes that threading
// an index cursor over a single backing slice is an equivalent rewrite.
// Because the first traversal appends ParsedBlock records in ascending
// address order and nothing is ever inserted out of order, every recursive
// region is a contiguous prefix of what remains: the caller counts how many
// leading items start inside the region and hands that prefix to the
// recursive call as its own queue (see Manager.consumeSub).
type queue struct {
	items []*ParsedBlock
}

func (q *queue) Len() int { return len(q.items) }

func (q *queue) PeekAt(i int) *ParsedBlock { return q.items[i] }

func (q *queue) RemoveFirst() *ParsedBlock {
	x := q.items[0]
	q.items = q.items[1:]
	return x
}

func (q *queue) RemoveAt(i int) *ParsedBlock {
	x := q.items[i]
	q.items = append(q.items[:i], q.items[i+1:]...)
	return x
}
