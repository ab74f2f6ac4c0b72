package branch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Frontrider/JWebAssembly/internal/module"
	"github.com/Frontrider/JWebAssembly/internal/wasmtype"
)

// record is one WriteBlockCode call captured by recordingWriter.
type record struct {
	pos  int
	op   module.BlockOperator
	data any
}

// recordingWriter satisfies module.Writer, capturing only WriteBlockCode
// calls (tagged with the position that produced them) since that is all
// the branch package ever drives.
type recordingWriter struct {
	pos     int
	records []record
}

func (w *recordingWriter) WriteExport(string, string) error                      { return nil }
func (w *recordingWriter) WriteMethodStart(string) error                        { return nil }
func (w *recordingWriter) WriteMethodParam(module.ParamKind, wasmtype.ValueType) error { return nil }
func (w *recordingWriter) WriteMethodFinish([]wasmtype.ValueType) error          { return nil }
func (w *recordingWriter) WriteConstInt(int32) error                            { return nil }
func (w *recordingWriter) WriteConstLong(int64) error                           { return nil }
func (w *recordingWriter) WriteConstFloat(float32) error                        { return nil }
func (w *recordingWriter) WriteConstDouble(float64) error                       { return nil }
func (w *recordingWriter) WriteLoad(int) error                                  { return nil }
func (w *recordingWriter) WriteStore(int) error                                 { return nil }
func (w *recordingWriter) WriteNumericOperator(wasmtype.NumericOperator, wasmtype.ValueType) error {
	return nil
}
func (w *recordingWriter) WriteCast(wasmtype.ValueTypeConversion) error { return nil }
func (w *recordingWriter) WriteReturn() error                          { return nil }
func (w *recordingWriter) Close() error                                { return nil }

func (w *recordingWriter) WriteBlockCode(op module.BlockOperator, data any) error {
	w.records = append(w.records, record{pos: w.pos, op: op, data: data})
	return nil
}

// run drives Handle across every position in [0, upTo], the way the method
// translator's second pass would while walking its own instruction stream.
func run(t *testing.T, m *Manager, upTo int) *recordingWriter {
	t.Helper()
	w := &recordingWriter{}
	for pos := 0; pos <= upTo; pos++ {
		w.pos = pos
		require.NoError(t, m.Handle(pos, w))
	}
	return w
}

func TestCalculateIfWithoutElse(t *testing.T) {
	m := NewManager(1)
	m.Start(IF, 0, 6, 1) // ifeq at 0, skips to 6 when false
	require.NoError(t, m.Calculate())

	w := run(t, m, 6)
	require.Len(t, w.records, 2)
	assert.Equal(t, record{pos: 0, op: module.If, data: nil}, w.records[0])
	assert.Equal(t, record{pos: 6, op: module.End, data: nil}, w.records[1])
}

func TestCalculateIfWithElse(t *testing.T) {
	m := NewManager(1)
	m.Start(IF, 0, 9, 1)    // ifeq at 0, skips to the else branch at 9
	m.Start(GOTO, 6, 6, 1)  // trailing goto at 6 skips the else, landing at 12
	require.NoError(t, m.Calculate())

	w := run(t, m, 12)
	require.Len(t, w.records, 3)
	assert.Equal(t, record{pos: 0, op: module.If, data: nil}, w.records[0])
	assert.Equal(t, record{pos: 9, op: module.Else, data: nil}, w.records[1])
	assert.Equal(t, record{pos: 12, op: module.End, data: nil}, w.records[2])
}

func TestCalculateIfNested(t *testing.T) {
	// if (a) { if (b) { x=1 } } -- the inner if has no else and is fully
	// contained within the outer if's body.
	m := NewManager(1)
	m.Start(IF, 0, 12, 1) // outer ifeq, skip to 12 if false
	m.Start(IF, 3, 6, 2)  // inner ifeq at 3, skip to 9 if false
	require.NoError(t, m.Calculate())

	w := run(t, m, 12)
	require.Len(t, w.records, 4)
	assert.Equal(t, record{pos: 0, op: module.If}, record{pos: w.records[0].pos, op: w.records[0].op})
	assert.Equal(t, 3, w.records[1].pos)
	assert.Equal(t, module.If, w.records[1].op)
	assert.Equal(t, 9, w.records[2].pos)
	assert.Equal(t, module.End, w.records[2].op)
	assert.Equal(t, 12, w.records[3].pos)
	assert.Equal(t, module.End, w.records[3].op)
}

func TestCalculateSwitchTableStructure(t *testing.T) {
	m := NewManager(1)
	// tableswitch over keys 0,1 with distinct case targets plus a default.
	m.StartSwitch(0, 30, 1, nil, []int{10, 20}, 30, 0)
	require.NoError(t, m.Calculate())

	w := run(t, m, 30)
	require.NotEmpty(t, w.records)

	var dispatch *SwitchDispatch
	opens, closes := 0, 0
	for _, r := range w.records {
		switch r.op {
		case module.Block:
			opens++
		case module.End:
			closes++
		case module.BrTable:
			d, ok := r.data.(*SwitchDispatch)
			require.True(t, ok, "BrTable record must carry a *SwitchDispatch")
			dispatch = d
		}
	}
	assert.Equal(t, opens, closes, "every BLOCK must be balanced by an END")
	assert.Equal(t, 4, opens, "3 distinct case positions (incl. default) + 1 outer wrap")

	require.NotNil(t, dispatch)
	assert.True(t, dispatch.IsTable)
	assert.Equal(t, []int{0, 1}, dispatch.BlockIndices)
	assert.Equal(t, 2, dispatch.DefaultBlockIndex)
	assert.Equal(t, -1, dispatch.ScratchLocal, "a table switch never needs a scratch local")
	assert.Equal(t, 0, m.ScratchLocalCount())
}

func TestCalculateSwitchLookupKeysPreserved(t *testing.T) {
	m := NewManager(1)
	// lookupswitch over sparse keys 5 and 42.
	m.StartSwitch(0, 20, 1, []int32{42, 5}, []int{10, 15}, 20, 0)
	require.NoError(t, m.Calculate())

	w := run(t, m, 20)
	var dispatch *SwitchDispatch
	for _, r := range w.records {
		if r.op == module.BrTable {
			dispatch = r.data.(*SwitchDispatch)
		}
	}
	require.NotNil(t, dispatch)
	assert.False(t, dispatch.IsTable)
	assert.Equal(t, []int32{5, 42}, dispatch.Keys, "keys come back out in ascending order")
	assert.Len(t, dispatch.BlockIndices, 2)
	assert.Equal(t, 1, dispatch.ScratchLocal, "allocated right after the method's own local at index 0")
	assert.Equal(t, 1, m.ScratchLocalCount())
}

func TestCalculateSwitchBreakBecomesBr(t *testing.T) {
	m := NewManager(1)
	// two cases, each ending with a "break" goto to the position after
	// the whole switch (18).
	m.StartSwitch(0, 18, 1, nil, []int{4, 9}, 14, 0)
	m.Start(GOTO, 8, 10, 1)  // break at the end of case 0, -> 18
	m.Start(GOTO, 13, 5, 1)  // break at the end of case 1, -> 18
	require.NoError(t, m.Calculate())

	w := run(t, m, 18)
	var brCount int
	for _, r := range w.records {
		if r.op == module.Br {
			brCount++
			assert.IsType(t, 0, r.data)
		}
	}
	assert.Equal(t, 2, brCount)
}

func TestCalculateEndlessLoop(t *testing.T) {
	m := NewManager(1)
	// while (true) { ... }; body spans [0,6), the backward goto at 6
	// jumps back to the loop header at 0.
	m.Start(GOTO, 6, -6, 1)
	require.NoError(t, m.Calculate())

	w := run(t, m, 9)
	require.Len(t, w.records, 3)
	assert.Equal(t, record{pos: 0, op: module.Loop, data: nil}, w.records[0])
	assert.Equal(t, record{pos: 6, op: module.Br, data: 0}, w.records[1])
	assert.Equal(t, record{pos: 9, op: module.End, data: nil}, w.records[2])
}

func TestUnimplementedForwardGotoErrors(t *testing.T) {
	m := NewManager(1)
	m.Start(GOTO, 0, 6, 1) // a bare forward goto unpaired with any if/switch
	err := m.Calculate()
	require.Error(t, err)
}

func TestResetClearsState(t *testing.T) {
	m := NewManager(1)
	m.Start(IF, 0, 6, 1)
	require.NoError(t, m.Calculate())
	m.Reset(1)
	require.NoError(t, m.Calculate())

	w := run(t, m, 0)
	assert.Empty(t, w.records)
}
