package leb128

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteInt32LittleEndian(t *testing.T) {
	w := New()
	require.NoError(t, w.WriteInt32(1))
	assert.Equal(t, []byte{1, 0, 0, 0}, w.Bytes())
}

func TestVaruint32RoundTrip(t *testing.T) {
	values := []uint32{0, 1, 127, 128, 16384, 1<<32 - 1, 300, 0x7fffffff}
	for _, v := range values {
		w := New()
		require.NoError(t, w.WriteVaruint32(v))
		got, n, err := DecodeVaruint32(w.Bytes())
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Equal(t, w.Len(), n)
	}
}

func TestVarint32RoundTrip(t *testing.T) {
	values := []int32{0, -1, 1, 63, -64, 64, -65, 1000000, -1000000, 2147483647, -2147483648}
	for _, v := range values {
		w := New()
		require.NoError(t, w.WriteVarint32(v))
		got, n, err := DecodeVarint32(w.Bytes())
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Equal(t, w.Len(), n)
	}
}

func TestWriteVaruint32KnownEncodings(t *testing.T) {
	cases := []struct {
		v    uint32
		want []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xac, 0x02}},
	}
	for _, c := range cases {
		w := New()
		require.NoError(t, w.WriteVaruint32(c.v))
		assert.Equal(t, c.want, w.Bytes())
	}
}

func TestWriteVarint32KnownEncodings(t *testing.T) {
	cases := []struct {
		v    int32
		want []byte
	}{
		{42, []byte{0x2a}},
		{-1, []byte{0x7f}},
		{-42, []byte{0x56}},
	}
	for _, c := range cases {
		w := New()
		require.NoError(t, w.WriteVarint32(c.v))
		assert.Equal(t, c.want, w.Bytes())
	}
}

func TestWriteFloat32And64(t *testing.T) {
	w := New()
	require.NoError(t, w.WriteFloat32(1.5))
	assert.Len(t, w.Bytes(), 4)

	w2 := New()
	require.NoError(t, w2.WriteFloat64(4.5))
	assert.Len(t, w2.Bytes(), 8)
}

func TestWriteSectionOmitsEmptyBody(t *testing.T) {
	out := New()
	body := New()
	require.NoError(t, out.WriteSection(SectionType_, body, ""))
	assert.Equal(t, 0, out.Len())
}

func TestWriteSectionCustomPrefixesName(t *testing.T) {
	out := New()
	body := New()
	require.NoError(t, body.WriteByte(0xAB))
	require.NoError(t, out.WriteSection(SectionCustom, body, "n"))

	got := out.Bytes()
	// section id 0, body-size varuint32 == 1, name-length varuint32 == 1, 'n', then body byte
	assert.Equal(t, []byte{0x00, 0x01, 0x01, 'n', 0xAB}, got)
}

func TestReset(t *testing.T) {
	w := New()
	require.NoError(t, w.WriteByte(1))
	w.Reset()
	assert.Equal(t, 0, w.Len())
}
