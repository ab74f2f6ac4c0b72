// Package wasmtype holds the primitive data model shared by every back-end:
// the Wasm value-type enum, function signatures, and the function/export
// records a module session accumulates.
package wasmtype

// ValueType is one of the Wasm primitive types used by this compiler. The
// JVM's object/array/exception types are out of scope, so only the four
// numeric types and the function-type tag are represented.
type ValueType int

const (
	I32 ValueType = iota
	I64
	F32
	F64
	// Func is the type-section tag, not a value a local can hold.
	Func
)

// Code returns the signed one-byte LEB128 encoding of the type, per the
// Wasm binary format (negative values: i32=-1, i64=-2, f32=-3, f64=-4,
// func=-32).
func (v ValueType) Code() int8 {
	switch v {
	case I32:
		return -1
	case I64:
		return -2
	case F32:
		return -3
	case F64:
		return -4
	case Func:
		return -32
	default:
		panic("wasmtype: unknown ValueType")
	}
}

// String renders the Wasm text-format mnemonic, e.g. "i32".
func (v ValueType) String() string {
	switch v {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case Func:
		return "func"
	default:
		return "?"
	}
}

// IsInteger reports whether the type is i32 or i64.
func (v ValueType) IsInteger() bool {
	return v == I32 || v == I64
}

// IsFloat reports whether the type is f32 or f64.
func (v ValueType) IsFloat() bool {
	return v == F32 || v == F64
}
