// Package leb128 implements the little-endian and LEB128 byte-stream
// encoding pervasive in the Wasm binary format, plus an in-memory buffer
// variant so a section or function body's length can be prefixed once the
// body is fully written.
//
// Ported from WasmOutputStream in the original JWebAssembly compiler.
package leb128

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
)

// SectionType identifies a Wasm module section. Values match their
// canonical section-id ordinal.
type SectionType byte

const (
	SectionCustom SectionType = 0
	SectionType_  SectionType = 1 // "Type"; trailing underscore avoids shadowing the package name
	SectionImport SectionType = 2
	SectionFunction SectionType = 3
	SectionTable  SectionType = 4
	SectionMemory SectionType = 5
	SectionGlobal SectionType = 6
	SectionExport SectionType = 7
	SectionStart  SectionType = 8
	SectionElement SectionType = 9
	SectionCode   SectionType = 10
	SectionData   SectionType = 11
)

// Writer is an in-memory, appendable byte buffer with Wasm's primitive
// encodings layered on top. A zero value is ready to use.
type Writer struct {
	buf bytes.Buffer
}

// New returns a ready-to-use Writer.
func New() *Writer {
	return &Writer{}
}

// Reset discards any buffered bytes so the Writer can be reused, mirroring
// WasmOutputStream.reset() (used between function bodies).
func (w *Writer) Reset() {
	w.buf.Reset()
}

// Len returns the number of bytes currently buffered.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Bytes returns the buffered bytes. The caller must not retain it across a
// Reset.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// WriteByte appends a single byte.
func (w *Writer) WriteByte(b byte) error {
	return w.buf.WriteByte(b)
}

// Write appends raw bytes.
func (w *Writer) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

// WriteTo copies the buffered bytes to target and drains the buffer,
// mirroring WasmOutputStream.writeTo.
func (w *Writer) WriteTo(target io.Writer) (int64, error) {
	return w.buf.WriteTo(target)
}

// WriteInt32 writes a 4-byte little-endian integer, used for the module
// version field.
func (w *Writer) WriteInt32(v int32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	_, err := w.buf.Write(b[:])
	return err
}

// WriteVaruint32 writes v as unsigned LEB128. v must be non-negative.
func (w *Writer) WriteVaruint32(v uint32) error {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		if err := w.buf.WriteByte(b); err != nil {
			return err
		}
		if v == 0 {
			return nil
		}
	}
}

// WriteVarint32 writes v as signed LEB128.
func (w *Writer) WriteVarint32(v int32) error {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		// sign bit of the emitted byte is the second-highest bit (0x40)
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return w.buf.WriteByte(b)
		}
		if err := w.buf.WriteByte(b | 0x80); err != nil {
			return err
		}
	}
}

// WriteVarint64 writes v as signed LEB128 at 64-bit width.
func (w *Writer) WriteVarint64(v int64) error {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return w.buf.WriteByte(b)
		}
		if err := w.buf.WriteByte(b | 0x80); err != nil {
			return err
		}
	}
}

// WriteFloat32 writes the IEEE-754 bit pattern of v, little-endian.
func (w *Writer) WriteFloat32(v float32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	_, err := w.buf.Write(b[:])
	return err
}

// WriteFloat64 writes the IEEE-754 bit pattern of v, little-endian.
func (w *Writer) WriteFloat64(v float64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	_, err := w.buf.Write(b[:])
	return err
}

// WriteSection writes a section header (type, body length) followed by
// body's buffered bytes to w. For a custom section, name is written as a
// length-prefixed UTF-8 string between the length field and the body. An
// empty body emits nothing at all, matching spec.md §4.1.
func (w *Writer) WriteSection(sectionType SectionType, body *Writer, name string) error {
	size := body.Len()
	if size == 0 {
		return nil
	}
	if err := w.WriteVaruint32(uint32(sectionType)); err != nil {
		return err
	}
	if err := w.WriteVaruint32(uint32(size)); err != nil {
		return err
	}
	if sectionType == SectionCustom {
		nameBytes := []byte(name)
		if err := w.WriteVaruint32(uint32(len(nameBytes))); err != nil {
			return err
		}
		if _, err := w.buf.Write(nameBytes); err != nil {
			return err
		}
	}
	_, err := body.buf.WriteTo(&w.buf)
	return err
}
