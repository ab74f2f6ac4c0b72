package branch

// ParsedBlock is recorded during the first bytecode traversal for every
// control-transfer instruction: IF-family comparisons, GOTO, and the two
// switch forms. Ported from BranchManger.ParsedBlock in the original
// JWebAssembly compiler.
type ParsedBlock struct {
	Op JavaOperator

	StartPosition int
	EndPosition   int // StartPosition + the instruction's signed branch offset
	LineNumber    int

	// Switch is non-nil only when Op == SWITCH.
	Switch *SwitchInfo
}

// SwitchInfo carries the extra data a tableswitch/lookupswitch instruction
// needs beyond a plain branch: the case keys (nil for a table-switch,
// which is instead indexed 0..n-1), the per-case target positions, and the
// default target.
type SwitchInfo struct {
	Keys            []int32 // nil => table-switch
	Positions       []int
	DefaultPosition int
	Low             int32 // table-switch low bound; unused for lookup-switches
}

func newParsedBlock(op JavaOperator, startPosition, offset, lineNumber int) *ParsedBlock {
	return &ParsedBlock{
		Op:            op,
		StartPosition: startPosition,
		EndPosition:   startPosition + offset,
		LineNumber:    lineNumber,
	}
}
