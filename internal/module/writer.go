// Package module declares the abstract emission protocol the method
// translator drives, per spec.md §4.2. It is a capability set, not a class
// hierarchy: the binary and textual back-ends each implement Writer without
// sharing an implementation inheritance chain.
package module

import "github.com/Frontrider/JWebAssembly/internal/wasmtype"

// ParamKind distinguishes a function-type parameter from its result when
// building up a function signature incrementally via WriteMethodParam.
type ParamKind int

const (
	Param ParamKind = iota
	Return
)

// BlockOperator is the closed set of structured-control instructions a
// branch.Node emits while being walked, per spec.md §3/§4.3.
type BlockOperator int

const (
	Block BlockOperator = iota
	Loop
	If
	Else
	End
	Br
	BrIf
	BrTable
	ReturnOp
)

// Writer is the protocol a back-end implements to receive a stream of
// module-building calls from compiler.Translator. Calls arrive in bytecode
// address order for any one method; WriteMethodStart/WriteMethodFinish
// bracket each method.
type Writer interface {
	// WriteExport registers an export for a method that may not yet have
	// been emitted (export and function declaration order are independent).
	WriteExport(methodName, exportName string) error

	// WriteMethodStart begins a function body and clears the code buffer.
	WriteMethodStart(name string) error

	// WriteMethodParam appends a parameter or sets the result type of the
	// function signature currently being built.
	WriteMethodParam(kind ParamKind, valueType wasmtype.ValueType) error

	// WriteMethodFinish commits the current function: assigns a type
	// index (deduplicating structurally equal signatures), emits the
	// locals prologue, the buffered code, and the terminating END.
	WriteMethodFinish(locals []wasmtype.ValueType) error

	WriteConstInt(v int32) error
	WriteConstLong(v int64) error
	WriteConstFloat(v float32) error
	WriteConstDouble(v float64) error

	WriteLoad(index int) error
	WriteStore(index int) error

	WriteNumericOperator(op wasmtype.NumericOperator, valueType wasmtype.ValueType) error
	WriteCast(cast wasmtype.ValueTypeConversion) error

	WriteReturn() error

	// WriteBlockCode emits a structured-control instruction. data carries
	// the BR/BR_IF depth (int), the switch dispatch for BR_TABLE
	// (*branch.SwitchDispatch), or nothing (nil) depending on op.
	WriteBlockCode(op BlockOperator, data any) error

	// Close finalizes the module/session, writing out accumulated
	// sections. No partial output is produced before Close.
	Close() error
}
