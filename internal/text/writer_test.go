package text

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Frontrider/JWebAssembly/internal/branch"
	"github.com/Frontrider/JWebAssembly/internal/module"
	"github.com/Frontrider/JWebAssembly/internal/wasmtype"
)

func TestWriterEmptyModuleRendersBareForm(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	require.NoError(t, w.Close())
	assert.Equal(t, "(module\n)\n", out.String())
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

func TestWriterRendersFunctionAndExport(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	buildAdder(t, w)
	require.NoError(t, w.Close())

	got := out.String()
	assert.Contains(t, got, `(export "add" (func $add))`)
	assert.Contains(t, got, "(func $add (param i32) (param i32) (result i32)")
	assert.Contains(t, got, "get_local 0")
	assert.Contains(t, got, "get_local 1")
	assert.Contains(t, got, "i32.add")
	assert.Contains(t, got, "return")
}

func TestWriterDeclaresLocals(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	require.NoError(t, w.WriteMethodStart("f"))
	require.NoError(t, w.WriteMethodParam(module.Param, wasmtype.I32))
	require.NoError(t, w.WriteMethodFinish([]wasmtype.ValueType{wasmtype.I32, wasmtype.F64}))
	require.NoError(t, w.Close())

	got := out.String()
	assert.Contains(t, got, "(local i32)")
	assert.Contains(t, got, "(local f64)")
}

func TestWriteBlockCodeIndentsNestedBlocks(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	require.NoError(t, w.WriteMethodStart("m"))
	require.NoError(t, w.WriteBlockCode(module.If, nil))
	require.NoError(t, w.WriteBlockCode(module.Else, nil))
	require.NoError(t, w.WriteBlockCode(module.End, nil))
	require.NoError(t, w.WriteMethodFinish(nil))

	body := w.funcs["m"].body.String()
	assert.Contains(t, body, "    if\n")
	assert.Contains(t, body, "    else\n")
	assert.Contains(t, body, "    end\n")
}

func TestWriteBlockCodeBrEncodesDepth(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	require.NoError(t, w.WriteMethodStart("m"))
	require.NoError(t, w.WriteBlockCode(module.Br, 2))
	require.NoError(t, w.WriteMethodFinish(nil))

	assert.Contains(t, w.funcs["m"].body.String(), "br 2")
}

func TestWriteBlockCodeTableSwitchEmitsBrTable(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	require.NoError(t, w.WriteMethodStart("m"))
	dispatch := &branch.SwitchDispatch{IsTable: true, Low: 0, BlockIndices: []int{0, 1}, DefaultBlockIndex: 2, ScratchLocal: -1}
	require.NoError(t, w.WriteBlockCode(module.BrTable, dispatch))
	require.NoError(t, w.WriteMethodFinish(nil))

	assert.Contains(t, w.funcs["m"].body.String(), "br_table 0 1 2")
}

func TestWriteBlockCodeTableSwitchOffsetsByLow(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	require.NoError(t, w.WriteMethodStart("m"))
	dispatch := &branch.SwitchDispatch{IsTable: true, Low: 5, BlockIndices: []int{0, 1}, DefaultBlockIndex: 2, ScratchLocal: -1}
	require.NoError(t, w.WriteBlockCode(module.BrTable, dispatch))
	require.NoError(t, w.WriteMethodFinish(nil))

	body := w.funcs["m"].body.String()
	assert.Contains(t, body, "i32.const 5")
	assert.Contains(t, body, "i32.sub")
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
	require.NoError(t, w.WriteMethodFinish(nil))

	body := w.funcs["m"].body.String()
	assert.Contains(t, body, "tee_local 3")
	assert.Contains(t, body, "i32.const 5")
	assert.Contains(t, body, "i32.const 42")
	assert.Contains(t, body, "br_if 0")
	assert.Contains(t, body, "br_if 1")
	assert.Contains(t, body, "br 2")
}

func TestWriteBlockCodeRejectsWrongDataType(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	require.NoError(t, w.WriteMethodStart("m"))
	err := w.WriteBlockCode(module.Br, "not an int")
	assert.Error(t, err)
}

func TestWriteCastRendersMnemonic(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	require.NoError(t, w.WriteMethodStart("m"))
	require.NoError(t, w.WriteCast(wasmtype.I2L))
	require.NoError(t, w.WriteMethodFinish(nil))

	assert.Contains(t, w.funcs["m"].body.String(), "i64.extend_i32_s")
}

func TestWriteNumericOperatorRejectsUnsupportedForm(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	require.NoError(t, w.WriteMethodStart("m"))
	err := w.WriteNumericOperator(wasmtype.Rem, wasmtype.F64)
	assert.Error(t, err)
}

func TestCloseErrorsOnExportToUnknownMethod(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	require.NoError(t, w.WriteExport("ghost", "missing"))
	assert.Error(t, w.Close())
}
