package classfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Frontrider/JWebAssembly/internal/wasmtype"
)

func TestSplitMethodDescriptorParamsAndReturn(t *testing.T) {
	params, ret, err := SplitMethodDescriptor("(IJFD)I")
	require.NoError(t, err)
	assert.Equal(t, []string{"I", "J", "F", "D"}, params)
	assert.Equal(t, "I", ret)
}

func TestSplitMethodDescriptorNoParams(t *testing.T) {
	params, ret, err := SplitMethodDescriptor("()V")
	require.NoError(t, err)
	assert.Empty(t, params)
	assert.Equal(t, "V", ret)
}

func TestSplitMethodDescriptorRejectsMalformed(t *testing.T) {
	_, _, err := SplitMethodDescriptor("II)I")
	assert.Error(t, err)
}

func TestSplitMethodDescriptorPassesThroughObjectAndArrayTypes(t *testing.T) {
	params, ret, err := SplitMethodDescriptor("(Ljava/lang/String;[I)V")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ljava/lang/String;", "[I"}, params)
	assert.Equal(t, "V", ret)
}

func TestValueTypeFromDescriptor(t *testing.T) {
	cases := map[string]wasmtype.ValueType{"I": wasmtype.I32, "J": wasmtype.I64, "F": wasmtype.F32, "D": wasmtype.F64}
	for desc, want := range cases {
		got, err := ValueTypeFromDescriptor(desc)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestValueTypeFromDescriptorRejectsObjectTypes(t *testing.T) {
	_, err := ValueTypeFromDescriptor("Ljava/lang/Object;")
	assert.Error(t, err)
}

func TestResultValueTypeVoid(t *testing.T) {
	vt, err := ResultValueType("V")
	require.NoError(t, err)
	assert.Nil(t, vt)
}

func TestResultValueTypeNonVoid(t *testing.T) {
	vt, err := ResultValueType("D")
	require.NoError(t, err)
	require.NotNil(t, vt)
	assert.Equal(t, wasmtype.F64, *vt)
}

func TestParamValueTypesRejectsFirstUnsupportedParam(t *testing.T) {
	_, err := ParamValueTypes([]string{"I", "Z"})
	assert.Error(t, err)
}

func TestSimpleAnnotationNameStripsPackageAndDescriptor(t *testing.T) {
	assert.Equal(t, "Export", simpleAnnotationName("Lde/inetsoftware/jwebassembly/api/annotation/Export;"))
	assert.Equal(t, "Export", simpleAnnotationName("Export"))
}
