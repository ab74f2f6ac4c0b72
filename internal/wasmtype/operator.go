package wasmtype

// NumericOperator is the closed set of arithmetic/comparison operators the
// writer protocol dispatches against a ValueType, per spec.md §4.2.
type NumericOperator int

const (
	Add NumericOperator = iota
	Sub
	Mul
	Div
	Rem
	Neg
	And
	Or
	Xor
	Shl
	ShrS
	ShrU
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
)

// ValueTypeConversion is the closed set of JVM numeric-cast opcodes that
// have a Wasm counterpart, per spec.md §4.2.
type ValueTypeConversion int

const (
	L2I ValueTypeConversion = iota // i32.wrap_i64
	I2L                            // i64.extend_i32_s
	I2F                             // f32.convert_i32_s
	I2D                             // f64.convert_i32_s
	L2F                             // f32.convert_i64_s
	L2D                             // f64.convert_i64_s
	F2I                             // i32.trunc_f32_s
	F2L                             // i64.trunc_f32_s
	F2D                             // f64.promote_f32
	D2I                             // i32.trunc_f64_s
	D2L                             // i64.trunc_f64_s
	D2F                             // f32.demote_f64
)
