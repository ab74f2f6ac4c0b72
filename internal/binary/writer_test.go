package binary

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Frontrider/JWebAssembly/internal/branch"
	"github.com/Frontrider/JWebAssembly/internal/module"
	"github.com/Frontrider/JWebAssembly/internal/wasmtype"
)

func TestWriterEmitsMagicAndVersion(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	require.NoError(t, w.Close())

	got := out.Bytes()
	require.GreaterOrEqual(t, len(got), 8)
	assert.Equal(t, []byte{0, 'a', 's', 'm'}, got[:4])
	assert.Equal(t, []byte{1, 0, 0, 0}, got[4:8])
}

func TestWriterEmptyModuleHasNoSections(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	require.NoError(t, w.Close())
	assert.Len(t, out.Bytes(), 8, "no functions/types/exports means no sections beyond the header")
}

// buildAdder emits a one-function module: i32 add(a, b) { return a+b }
// exported as "add".
func buildAdder(t *testing.T, w *Writer) {
	t.Helper()
	require.NoError(t, w.WriteExport("add", "add"))
	require.NoError(t, w.WriteMethodStart("add"))
	require.NoError(t, w.WriteMethodParam(module.Param, wasmtype.I32))
	require.NoError(t, w.WriteMethodParam(module.Param, wasmtype.I32))
	require.NoError(t, w.WriteMethodParam(module.Return, wasmtype.I32))
	require.NoError(t, w.WriteLoad(0))
	require.NoError(t, w.WriteLoad(1))
	require.NoError(t, w.WriteNumericOperator(wasmtype.Add, wasmtype.I32))
	require.NoError(t, w.WriteReturn())
	require.NoError(t, w.WriteMethodFinish(nil))
}

func TestWriterBuildsAllCoreSections(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	buildAdder(t, w)
	require.NoError(t, w.Close())

	got := out.Bytes()
	require.Greater(t, len(got), 8)

	sectionIDs := map[byte]bool{}
	for i := 8; i < len(got); {
		id := got[i]
		sectionIDs[id] = true
		i++
		size, n, err := decodeVaruint32(got[i:])
		require.NoError(t, err)
		i += n + int(size)
	}
	assert.True(t, sectionIDs[1], "type section")
	assert.True(t, sectionIDs[3], "function section")
	assert.True(t, sectionIDs[7], "export section")
	assert.True(t, sectionIDs[10], "code section")
}

func TestFunctionTypeDeduplication(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)

	require.NoError(t, w.WriteMethodStart("f1"))
	require.NoError(t, w.WriteMethodParam(module.Param, wasmtype.I32))
	require.NoError(t, w.WriteMethodParam(module.Return, wasmtype.I32))
	require.NoError(t, w.WriteMethodFinish(nil))

	require.NoError(t, w.WriteMethodStart("f2"))
	require.NoError(t, w.WriteMethodParam(module.Param, wasmtype.I32))
	require.NoError(t, w.WriteMethodParam(module.Return, wasmtype.I32))
	require.NoError(t, w.WriteMethodFinish(nil))

	assert.Equal(t, w.funcs["f1"].typeID, w.funcs["f2"].typeID, "identical signatures share one type entry")
	assert.Len(t, w.types, 1)
}

func TestWriteBlockCodeEmitsBlockOpcodes(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	require.NoError(t, w.WriteMethodStart("m"))
	require.NoError(t, w.WriteBlockCode(module.If, nil))
	require.NoError(t, w.WriteBlockCode(module.Else, nil))
	require.NoError(t, w.WriteBlockCode(module.End, nil))

	got := w.code.Bytes()
	assert.Equal(t, []byte{opIf, blockTypeEmpty, opElse, opEnd}, got)
}

func TestWriteBlockCodeBrEncodesDepth(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	require.NoError(t, w.WriteMethodStart("m"))
	require.NoError(t, w.WriteBlockCode(module.Br, 2))

	assert.Equal(t, []byte{opBr, 0x02}, w.code.Bytes())
}

func TestWriteBlockCodeTableSwitchEmitsBrTable(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	require.NoError(t, w.WriteMethodStart("m"))
	dispatch := &branch.SwitchDispatch{IsTable: true, Low: 0, BlockIndices: []int{0, 1}, DefaultBlockIndex: 2, ScratchLocal: -1}
	require.NoError(t, w.WriteBlockCode(module.BrTable, dispatch))

	got := w.code.Bytes()
	assert.Equal(t, opBrTable, got[0])
}

func TestWriteBlockCodeLookupSwitchUsesScratchLocal(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	require.NoError(t, w.WriteMethodStart("m"))
	dispatch := &branch.SwitchDispatch{
		IsTable:           false,
		Keys:              []int32{5, 42},
		BlockIndices:      []int{0, 1},
		DefaultBlockIndex: 2,
		ScratchLocal:      3,
	}
	require.NoError(t, w.WriteBlockCode(module.BrTable, dispatch))

	got := w.code.Bytes()
	assert.Equal(t, opTeeLocal, got[0])
	assert.Equal(t, byte(3), got[1])
	assert.Contains(t, got, opBrIf)
	assert.Contains(t, got, opBr)
}

func TestWriteBlockCodeRejectsWrongDataType(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	require.NoError(t, w.WriteMethodStart("m"))
	err := w.WriteBlockCode(module.Br, "not an int")
	assert.Error(t, err)
}

// decodeVaruint32 is a tiny local LEB128 decoder used only to sanity-check
// section framing in tests, independent of the leb128 package's own decoder.
func decodeVaruint32(b []byte) (uint32, int, error) {
	var result uint32
	var shift uint
	for i, by := range b {
		result |= uint32(by&0x7f) << shift
		if by&0x80 == 0 {
			return result, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, assert.AnError
}
