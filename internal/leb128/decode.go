package leb128

import "fmt"

// DecodeVaruint32 and DecodeVarint32 are not used by the compiler's own
// write path — the compiler never reads back Wasm bytes — but they back
// the round-trip property tests from spec.md §8 ("for all v in [0, 2^32),
// decodeVaruint32(encodeVaruint32(v)) = v"). Ported from the shift/mask
// loop in tetratelabs-wazero's wasm/leb128 package, specialized to decode
// a byte slice rather than an io.Reader since tests decode buffers they
// just encoded.
func DecodeVaruint32(b []byte) (uint32, int, error) {
	var ret uint32
	var shift uint
	for i, by := range b {
		if shift >= 35 {
			return 0, 0, fmt.Errorf("leb128: varuint32 overflow")
		}
		ret |= uint32(by&0x7f) << shift
		if by&0x80 == 0 {
			return ret, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, fmt.Errorf("leb128: truncated varuint32")
}

// DecodeVarint32 decodes a signed LEB128 value of up to 32 bits.
func DecodeVarint32(b []byte) (int32, int, error) {
	var ret int32
	var shift uint
	var by byte
	i := 0
	for ; i < len(b); i++ {
		by = b[i]
		ret |= int32(by&0x7f) << shift
		shift += 7
		if by&0x80 == 0 {
			break
		}
		if shift >= 35 {
			return 0, 0, fmt.Errorf("leb128: varint32 overflow")
		}
	}
	if i == len(b) && by&0x80 != 0 {
		return 0, 0, fmt.Errorf("leb128: truncated varint32")
	}
	if shift < 32 && by&0x40 != 0 {
		ret |= -1 << shift
	}
	return ret, i + 1, nil
}
