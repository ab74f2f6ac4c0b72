// Package text implements the textual S-expression ("wat") back-end, the
// second of the two module.Writer implementations spec.md §4.2 calls for.
// It mirrors internal/binary's buffer-then-flush structure and emits the
// same linear, unfolded instruction stream the branch package builds
// (block/loop/if/else/end/br as flat opcodes, not the parenthesized
// "folded" form some wat emitters prefer) so the two back-ends stay
// structurally comparable.
package text

import (
	"fmt"
	"io"
	"strings"

	"github.com/Frontrider/JWebAssembly/internal/branch"
	"github.com/Frontrider/JWebAssembly/internal/module"
	"github.com/Frontrider/JWebAssembly/internal/wasmtype"
)

// funcBuilder accumulates one function's signature, declared locals, and
// rendered body text between WriteMethodStart and WriteMethodFinish.
type funcBuilder struct {
	name   string
	params []wasmtype.ValueType
	result *wasmtype.ValueType
	locals []wasmtype.ValueType
	body   strings.Builder
	indent int
}

// Writer accumulates a module's functions and exports in memory and renders
// the finished (module ...) form on Close.
type Writer struct {
	out io.Writer

	funcs     map[string]*funcBuilder
	funcOrder []string

	exports     map[string]string // exportName -> methodName
	exportOrder []string

	current *funcBuilder
}

// NewWriter returns a Writer that will render the finished module to out
// once Close is called.
func NewWriter(out io.Writer) *Writer {
	return &Writer{
		out:     out,
		funcs:   make(map[string]*funcBuilder),
		exports: make(map[string]string),
	}
}

func (w *Writer) WriteExport(methodName, exportName string) error {
	if _, exists := w.exports[exportName]; !exists {
		w.exportOrder = append(w.exportOrder, exportName)
	}
	w.exports[exportName] = methodName
	return nil
}

func (w *Writer) WriteMethodStart(name string) error {
	fb := &funcBuilder{name: name}
	w.funcs[name] = fb
	w.funcOrder = append(w.funcOrder, name)
	w.current = fb
	return nil
}

func (w *Writer) WriteMethodParam(kind module.ParamKind, valueType wasmtype.ValueType) error {
	switch kind {
	case module.Param:
		w.current.params = append(w.current.params, valueType)
	case module.Return:
		vt := valueType
		w.current.result = &vt
	}
	return nil
}

func (w *Writer) WriteMethodFinish(locals []wasmtype.ValueType) error {
	w.current.locals = locals
	w.current = nil
	return nil
}

// writeAt appends one instruction line at the given indent depth, relative
// to the function body (two extra levels: one for "(module", one for the
// enclosing "(func").
func (w *Writer) writeAt(indent int, s string) {
	b := &w.current.body
	b.WriteString(strings.Repeat("  ", indent+2))
	b.WriteString(s)
	b.WriteByte('\n')
}

func (w *Writer) writeLine(s string) {
	w.writeAt(w.current.indent, s)
}

func (w *Writer) WriteConstInt(v int32) error {
	w.writeLine(fmt.Sprintf("i32.const %d", v))
	return nil
}

func (w *Writer) WriteConstLong(v int64) error {
	w.writeLine(fmt.Sprintf("i64.const %d", v))
	return nil
}

func (w *Writer) WriteConstFloat(v float32) error {
	w.writeLine(fmt.Sprintf("f32.const %v", v))
	return nil
}

func (w *Writer) WriteConstDouble(v float64) error {
	w.writeLine(fmt.Sprintf("f64.const %v", v))
	return nil
}

func (w *Writer) WriteLoad(idx int) error {
	w.writeLine(fmt.Sprintf("get_local %d", idx))
	return nil
}

func (w *Writer) WriteStore(idx int) error {
	w.writeLine(fmt.Sprintf("set_local %d", idx))
	return nil
}

// numericMnemonics mirrors internal/binary's numericOpcodes table, mnemonic
// suffixes instead of opcode bytes, indexed the same way by valueTypeSlot.
// An empty entry means the operator has no form for that type, matching the
// original compiler which only ever emits integer rem/bitwise/shift ops.
var numericMnemonics = map[wasmtype.NumericOperator][4]string{
	wasmtype.Add:  {"add", "add", "add", "add"},
	wasmtype.Sub:  {"sub", "sub", "sub", "sub"},
	wasmtype.Mul:  {"mul", "mul", "mul", "mul"},
	wasmtype.Div:  {"div_s", "div_s", "div", "div"},
	wasmtype.Rem:  {"rem_s", "rem_s", "", ""},
	wasmtype.And:  {"and", "and", "", ""},
	wasmtype.Or:   {"or", "or", "", ""},
	wasmtype.Xor:  {"xor", "xor", "", ""},
	wasmtype.Shl:  {"shl", "shl", "", ""},
	wasmtype.ShrS: {"shr_s", "shr_s", "", ""},
	wasmtype.ShrU: {"shr_u", "shr_u", "", ""},
	wasmtype.Eq:   {"eq", "eq", "eq", "eq"},
	wasmtype.Ne:   {"ne", "ne", "ne", "ne"},
	wasmtype.Lt:   {"lt_s", "lt_s", "lt", "lt"},
	wasmtype.Le:   {"le_s", "le_s", "le", "le"},
	wasmtype.Gt:   {"gt_s", "gt_s", "gt", "gt"},
	wasmtype.Ge:   {"ge_s", "ge_s", "ge", "ge"},
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

func (w *Writer) WriteNumericOperator(numOp wasmtype.NumericOperator, valueType wasmtype.ValueType) error {
	row, ok := numericMnemonics[numOp]
	if !ok {
		return fmt.Errorf("text: unknown numeric operator %v", numOp)
	}
	slot := valueTypeSlot(valueType)
	if slot < 0 || row[slot] == "" {
		return fmt.Errorf("text: numeric operator %v has no %v form", numOp, valueType)
	}
	w.writeLine(fmt.Sprintf("%s.%s", valueType, row[slot]))
	return nil
}

var castMnemonics = map[wasmtype.ValueTypeConversion]string{
	wasmtype.L2I: "i32.wrap_i64",
	wasmtype.I2L: "i64.extend_i32_s",
	wasmtype.I2F: "f32.convert_i32_s",
	wasmtype.I2D: "f64.convert_i32_s",
	wasmtype.L2F: "f32.convert_i64_s",
	wasmtype.L2D: "f64.convert_i64_s",
	wasmtype.F2I: "i32.trunc_f32_s",
	wasmtype.F2L: "i64.trunc_f32_s",
	wasmtype.F2D: "f64.promote_f32",
	wasmtype.D2I: "i32.trunc_f64_s",
	wasmtype.D2L: "i64.trunc_f64_s",
	wasmtype.D2F: "f32.demote_f64",
}

func (w *Writer) WriteCast(cast wasmtype.ValueTypeConversion) error {
	mnemonic, ok := castMnemonics[cast]
	if !ok {
		return fmt.Errorf("text: unknown cast %v", cast)
	}
	w.writeLine(mnemonic)
	return nil
}

func (w *Writer) WriteReturn() error {
	w.writeLine("return")
	return nil
}

func (w *Writer) WriteBlockCode(blockOp module.BlockOperator, data any) error {
	switch blockOp {
	case module.Block:
		w.writeLine("block")
		w.current.indent++
	case module.Loop:
		w.writeLine("loop")
		w.current.indent++
	case module.If:
		w.writeLine("if")
		w.current.indent++
	case module.Else:
		w.writeAt(w.current.indent-1, "else")
	case module.End:
		w.current.indent--
		w.writeAt(w.current.indent, "end")
	case module.Br:
		depth, ok := data.(int)
		if !ok {
			return fmt.Errorf("text: BR requires an int depth, got %T", data)
		}
		w.writeLine(fmt.Sprintf("br %d", depth))
	case module.BrIf:
		depth, ok := data.(int)
		if !ok {
			return fmt.Errorf("text: BR_IF requires an int depth, got %T", data)
		}
		w.writeLine(fmt.Sprintf("br_if %d", depth))
	case module.BrTable:
		dispatch, ok := data.(*branch.SwitchDispatch)
		if !ok {
			return fmt.Errorf("text: BR_TABLE requires a *branch.SwitchDispatch, got %T", data)
		}
		w.writeSwitchDispatch(dispatch)
	case module.ReturnOp:
		w.writeLine("return")
	default:
		return fmt.Errorf("text: unknown block operator %v", blockOp)
	}
	return nil
}

// writeSwitchDispatch renders a reconstructed switch's dispatch node, the
// same two shapes internal/binary's writeSwitchDispatch builds: a native
// br_table for a table switch, or a tee_local/const/eq/br_if chain over the
// scratch local for a lookup switch.
func (w *Writer) writeSwitchDispatch(d *branch.SwitchDispatch) {
	if d.IsTable {
		if d.Low != 0 {
			w.writeLine(fmt.Sprintf("i32.const %d", d.Low))
			w.writeLine("i32.sub")
		}
		targets := make([]string, len(d.BlockIndices))
		for i, idx := range d.BlockIndices {
			targets[i] = fmt.Sprintf("%d", idx)
		}
		w.writeLine(fmt.Sprintf("br_table %s %d", strings.Join(targets, " "), d.DefaultBlockIndex))
		return
	}

	w.writeLine(fmt.Sprintf("tee_local %d", d.ScratchLocal))
	for i, key := range d.Keys {
		if i > 0 {
			w.writeLine(fmt.Sprintf("get_local %d", d.ScratchLocal))
		}
		w.writeLine(fmt.Sprintf("i32.const %d", key))
		w.writeLine("i32.eq")
		w.writeLine(fmt.Sprintf("br_if %d", d.BlockIndices[i]))
	}
	w.writeLine(fmt.Sprintf("br %d", d.DefaultBlockIndex))
}

// Close renders the accumulated functions and exports as a single (module
// ...) form and writes it to out.
func (w *Writer) Close() error {
	var b strings.Builder
	b.WriteString("(module\n")

	for _, exportName := range w.exportOrder {
		methodName := w.exports[exportName]
		if _, ok := w.funcs[methodName]; !ok {
			return fmt.Errorf("text: export %q refers to unknown method %q", exportName, methodName)
		}
		fmt.Fprintf(&b, "  (export %q (func $%s))\n", exportName, methodName)
	}

	for _, name := range w.funcOrder {
		fb := w.funcs[name]
		b.WriteString("  (func $")
		b.WriteString(name)
		for _, p := range fb.params {
			fmt.Fprintf(&b, " (param %s)", p)
		}
		if fb.result != nil {
			fmt.Fprintf(&b, " (result %s)", fb.result)
		}
		b.WriteByte('\n')
		for _, l := range fb.locals {
			fmt.Fprintf(&b, "    (local %s)\n", l)
		}
		b.WriteString(fb.body.String())
		b.WriteString("  )\n")
	}

	b.WriteString(")\n")
	_, err := io.WriteString(w.out, b.String())
	return err
}
