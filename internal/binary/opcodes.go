package binary

import "github.com/Frontrider/JWebAssembly/internal/wasmtype"

// Wasm MVP instruction opcodes, per
// https://webassembly.org/docs/binary-encoding/. Named the way
// InstructionOpcodes.java names them in the retrieved original source.
const (
	opUnreachable byte = 0x00
	opBlock       byte = 0x02
	opLoop        byte = 0x03
	opIf          byte = 0x04
	opElse        byte = 0x05
	opEnd         byte = 0x0b
	opBr          byte = 0x0c
	opBrIf        byte = 0x0d
	opBrTable     byte = 0x0e
	opReturn      byte = 0x0f

	opGetLocal byte = 0x20
	opSetLocal byte = 0x21
	opTeeLocal byte = 0x22

	opI32Const byte = 0x41
	opI64Const byte = 0x42
	opF32Const byte = 0x43
	opF64Const byte = 0x44

	// blockTypeEmpty marks a BLOCK/LOOP/IF as producing no value, the only
	// shape the branch package ever builds.
	blockTypeEmpty byte = 0x40
)

var numericOpcodes = map[wasmtype.NumericOperator][4]byte{
	// index 0..3 by ValueType: I32, I64, F32, F64
	wasmtype.Add:  {0x6a, 0x7c, 0x92, 0xa0},
	wasmtype.Sub:  {0x6b, 0x7d, 0x93, 0xa1},
	wasmtype.Mul:  {0x6c, 0x7e, 0x94, 0xa2},
	wasmtype.Div:  {0x6d, 0x7f, 0x95, 0xa3}, // integer forms are signed division
	wasmtype.Rem:  {0x6f, 0x81, 0, 0},       // rem has no float form
	wasmtype.And:  {0x71, 0x83, 0, 0},
	wasmtype.Or:   {0x72, 0x84, 0, 0},
	wasmtype.Xor:  {0x73, 0x85, 0, 0},
	wasmtype.Shl:  {0x74, 0x86, 0, 0},
	wasmtype.ShrS: {0x75, 0x87, 0, 0},
	wasmtype.ShrU: {0x76, 0x88, 0, 0},
	wasmtype.Eq:   {0x46, 0x51, 0x5b, 0x61},
	wasmtype.Ne:   {0x47, 0x52, 0x5c, 0x62},
	wasmtype.Lt:   {0x48, 0x53, 0x5d, 0x63}, // integer forms are signed
	wasmtype.Le:   {0x4c, 0x57, 0x5f, 0x65},
	wasmtype.Gt:   {0x4a, 0x55, 0x5e, 0x64},
	wasmtype.Ge:   {0x4e, 0x59, 0x60, 0x66},
}

func valueTypeSlot(vt wasmtype.ValueType) int {
	switch vt {
	case wasmtype.I32:
		return 0
	case wasmtype.I64:
		return 1
	case wasmtype.F32:
		return 2
	case wasmtype.F64:
		return 3
	default:
		return -1
	}
}

var castOpcodes = map[wasmtype.ValueTypeConversion]byte{
	wasmtype.L2I: 0xa7, // i32.wrap_i64
	wasmtype.I2L: 0xac, // i64.extend_i32_s
	wasmtype.I2F: 0xb2, // f32.convert_i32_s
	wasmtype.I2D: 0xb7, // f64.convert_i32_s
	wasmtype.L2F: 0xb4, // f32.convert_i64_s
	wasmtype.L2D: 0xb9, // f64.convert_i64_s
	wasmtype.F2I: 0xa8, // i32.trunc_f32_s
	wasmtype.F2L: 0xae, // i64.trunc_f32_s
	wasmtype.F2D: 0xbb, // f64.promote_f32
	wasmtype.D2I: 0xaa, // i32.trunc_f64_s
	wasmtype.D2L: 0xb0, // i64.trunc_f64_s
	wasmtype.D2F: 0xb6, // f32.demote_f64
}
