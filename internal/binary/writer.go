// Package binary implements the Wasm binary encoding back-end, grounded on
// the retrieved original source's BinaryModuleWriter.java.
package binary

import (
	"fmt"
	"io"

	"github.com/Frontrider/JWebAssembly/internal/branch"
	"github.com/Frontrider/JWebAssembly/internal/leb128"
	"github.com/Frontrider/JWebAssembly/internal/module"
	"github.com/Frontrider/JWebAssembly/internal/wasmtype"
)

var wasmMagic = [4]byte{0, 'a', 's', 'm'}

const wasmVersion = 1

type functionEntry struct {
	id     int
	typeID int
}

// Writer accumulates a module's functions, types, and exports in memory and
// emits the binary sections on Close, mirroring BinaryModuleWriter's
// buffer-then-flush structure.
type Writer struct {
	out io.Writer

	code      *leb128.Writer
	functions *leb128.Writer

	types     []*wasmtype.FunctionType
	typeIndex map[string]int

	funcs     map[string]*functionEntry
	funcOrder []string

	exports     map[string]string // exportName -> methodName
	exportOrder []string

	current     *functionEntry
	currentType *wasmtype.FunctionType
}

// NewWriter returns a Writer that will emit the finished module to out once
// Close is called.
func NewWriter(out io.Writer) *Writer {
	return &Writer{
		out:       out,
		code:      leb128.New(),
		functions: leb128.New(),
		typeIndex: make(map[string]int),
		funcs:     make(map[string]*functionEntry),
		exports:   make(map[string]string),
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
	entry := &functionEntry{id: len(w.funcs)}
	w.funcs[name] = entry
	w.funcOrder = append(w.funcOrder, name)
	w.current = entry
	w.currentType = &wasmtype.FunctionType{}
	w.code.Reset()
	return nil
}

func (w *Writer) WriteMethodParam(kind module.ParamKind, valueType wasmtype.ValueType) error {
	switch kind {
	case module.Param:
		w.currentType.Params = append(w.currentType.Params, valueType)
	case module.Return:
		vt := valueType
		w.currentType.Result = &vt
	}
	return nil
}

// typeIndexFor deduplicates structurally equal signatures instead of
// appending a fresh type per function the way the original
// BinaryModuleWriter's "TODO optimize and search for duplicates" comment
// admits it never got to.
func (w *Writer) typeIndexFor(ft *wasmtype.FunctionType) int {
	key := ft.Key()
	if id, ok := w.typeIndex[key]; ok {
		return id
	}
	id := len(w.types)
	w.types = append(w.types, ft)
	w.typeIndex[key] = id
	return id
}

func (w *Writer) WriteMethodFinish(locals []wasmtype.ValueType) error {
	w.current.typeID = w.typeIndexFor(w.currentType)

	localsStream := leb128.New()
	if err := localsStream.WriteVaruint32(uint32(len(locals))); err != nil {
		return err
	}
	for _, vt := range locals {
		if err := localsStream.WriteVaruint32(1); err != nil { // one declaration per local, no run-length packing
			return err
		}
		if err := localsStream.WriteVarint32(int32(vt.Code())); err != nil {
			return err
		}
	}

	if err := w.functions.WriteVaruint32(uint32(localsStream.Len() + w.code.Len() + 1)); err != nil {
		return err
	}
	if _, err := localsStream.WriteTo(w.functions); err != nil {
		return err
	}
	if _, err := w.code.WriteTo(w.functions); err != nil {
		return err
	}
	return w.functions.WriteByte(opEnd)
}

func (w *Writer) WriteConstInt(v int32) error {
	if err := w.code.WriteByte(opI32Const); err != nil {
		return err
	}
	return w.code.WriteVarint32(v)
}

func (w *Writer) WriteConstLong(v int64) error {
	if err := w.code.WriteByte(opI64Const); err != nil {
		return err
	}
	return w.code.WriteVarint64(v)
}

func (w *Writer) WriteConstFloat(v float32) error {
	if err := w.code.WriteByte(opF32Const); err != nil {
		return err
	}
	return w.code.WriteFloat32(v)
}

func (w *Writer) WriteConstDouble(v float64) error {
	if err := w.code.WriteByte(opF64Const); err != nil {
		return err
	}
	return w.code.WriteFloat64(v)
}

func (w *Writer) WriteLoad(idx int) error {
	if err := w.code.WriteByte(opGetLocal); err != nil {
		return err
	}
	return w.code.WriteVaruint32(uint32(idx))
}

func (w *Writer) WriteStore(idx int) error {
	if err := w.code.WriteByte(opSetLocal); err != nil {
		return err
	}
	return w.code.WriteVaruint32(uint32(idx))
}

func (w *Writer) WriteNumericOperator(numOp wasmtype.NumericOperator, valueType wasmtype.ValueType) error {
	row, ok := numericOpcodes[numOp]
	if !ok {
		return fmt.Errorf("binary: unknown numeric operator %v", numOp)
	}
	slot := valueTypeSlot(valueType)
	if slot < 0 || row[slot] == 0 {
		return fmt.Errorf("binary: numeric operator %v has no %v form", numOp, valueType)
	}
	return w.code.WriteByte(row[slot])
}

func (w *Writer) WriteCast(cast wasmtype.ValueTypeConversion) error {
	op, ok := castOpcodes[cast]
	if !ok {
		return fmt.Errorf("binary: unknown cast %v", cast)
	}
	return w.code.WriteByte(op)
}

func (w *Writer) WriteReturn() error {
	return w.code.WriteByte(opReturn)
}

func (w *Writer) WriteBlockCode(blockOp module.BlockOperator, data any) error {
	switch blockOp {
	case module.Block, module.Loop, module.If:
		if err := w.code.WriteByte(blockOpcode(blockOp)); err != nil {
			return err
		}
		return w.code.WriteByte(blockTypeEmpty)
	case module.Else:
		return w.code.WriteByte(opElse)
	case module.End:
		return w.code.WriteByte(opEnd)
	case module.Br:
		depth, ok := data.(int)
		if !ok {
			return fmt.Errorf("binary: BR requires an int depth, got %T", data)
		}
		if err := w.code.WriteByte(opBr); err != nil {
			return err
		}
		return w.code.WriteVaruint32(uint32(depth))
	case module.BrIf:
		depth, ok := data.(int)
		if !ok {
			return fmt.Errorf("binary: BR_IF requires an int depth, got %T", data)
		}
		if err := w.code.WriteByte(opBrIf); err != nil {
			return err
		}
		return w.code.WriteVaruint32(uint32(depth))
	case module.BrTable:
		dispatch, ok := data.(*branch.SwitchDispatch)
		if !ok {
			return fmt.Errorf("binary: BR_TABLE requires a *branch.SwitchDispatch, got %T", data)
		}
		return w.writeSwitchDispatch(dispatch)
	case module.ReturnOp:
		return w.code.WriteByte(opReturn)
	default:
		return fmt.Errorf("binary: unknown block operator %v", blockOp)
	}
}

func blockOpcode(blockOp module.BlockOperator) byte {
	switch blockOp {
	case module.Loop:
		return opLoop
	case module.If:
		return opIf
	default:
		return opBlock
	}
}

// writeSwitchDispatch expands a reconstructed switch's dispatch node into
// real Wasm instructions. A table switch becomes a native br_table; a
// lookup switch - which Wasm has no direct equivalent for - becomes a
// tee_local/const/eq/br_if chain over its scratch local, falling through
// to a trailing br for the default case.
func (w *Writer) writeSwitchDispatch(d *branch.SwitchDispatch) error {
	if d.IsTable {
		if d.Low != 0 {
			if err := w.code.WriteByte(opI32Const); err != nil {
				return err
			}
			if err := w.code.WriteVarint32(d.Low); err != nil {
				return err
			}
			if err := w.code.WriteByte(numericOpcodes[wasmtype.Sub][0]); err != nil {
				return err
			}
		}
		if err := w.code.WriteByte(opBrTable); err != nil {
			return err
		}
		if err := w.code.WriteVaruint32(uint32(len(d.BlockIndices))); err != nil {
			return err
		}
		for _, idx := range d.BlockIndices {
			if err := w.code.WriteVaruint32(uint32(idx)); err != nil {
				return err
			}
		}
		return w.code.WriteVaruint32(uint32(d.DefaultBlockIndex))
	}

	if err := w.code.WriteByte(opTeeLocal); err != nil {
		return err
	}
	if err := w.code.WriteVaruint32(uint32(d.ScratchLocal)); err != nil {
		return err
	}
	for i, key := range d.Keys {
		if i > 0 {
			if err := w.code.WriteByte(opGetLocal); err != nil {
				return err
			}
			if err := w.code.WriteVaruint32(uint32(d.ScratchLocal)); err != nil {
				return err
			}
		}
		if err := w.code.WriteByte(opI32Const); err != nil {
			return err
		}
		if err := w.code.WriteVarint32(key); err != nil {
			return err
		}
		if err := w.code.WriteByte(numericOpcodes[wasmtype.Eq][0]); err != nil {
			return err
		}
		if err := w.code.WriteByte(opBrIf); err != nil {
			return err
		}
		if err := w.code.WriteVaruint32(uint32(d.BlockIndices[i])); err != nil {
			return err
		}
	}
	if err := w.code.WriteByte(opBr); err != nil {
		return err
	}
	return w.code.WriteVaruint32(uint32(d.DefaultBlockIndex))
}

func (w *Writer) Close() error {
	wasm := leb128.New()
	if _, err := wasm.Write(wasmMagic[:]); err != nil {
		return err
	}
	if err := wasm.WriteInt32(wasmVersion); err != nil {
		return err
	}

	if err := w.writeTypeSection(wasm); err != nil {
		return err
	}
	if err := w.writeFunctionSection(wasm); err != nil {
		return err
	}
	if err := w.writeExportSection(wasm); err != nil {
		return err
	}
	if err := w.writeCodeSection(wasm); err != nil {
		return err
	}

	_, err := wasm.WriteTo(w.out)
	return err
}

func (w *Writer) writeTypeSection(wasm *leb128.Writer) error {
	if len(w.types) == 0 {
		return nil
	}
	body := leb128.New()
	body.WriteVaruint32(uint32(len(w.types)))
	for _, ft := range w.types {
		body.WriteVarint32(int32(wasmtype.Func.Code()))
		body.WriteVaruint32(uint32(len(ft.Params)))
		for _, vt := range ft.Params {
			body.WriteVarint32(int32(vt.Code()))
		}
		if ft.Result == nil {
			body.WriteVaruint32(0)
		} else {
			body.WriteVaruint32(1)
			body.WriteVarint32(int32(ft.Result.Code()))
		}
	}
	return wasm.WriteSection(leb128.SectionType_, body, "")
}

func (w *Writer) writeFunctionSection(wasm *leb128.Writer) error {
	if len(w.funcOrder) == 0 {
		return nil
	}
	body := leb128.New()
	body.WriteVaruint32(uint32(len(w.funcOrder)))
	for _, name := range w.funcOrder {
		body.WriteVaruint32(uint32(w.funcs[name].typeID))
	}
	return wasm.WriteSection(leb128.SectionFunction, body, "")
}

func (w *Writer) writeExportSection(wasm *leb128.Writer) error {
	if len(w.exportOrder) == 0 {
		return nil
	}
	body := leb128.New()
	body.WriteVaruint32(uint32(len(w.exportOrder)))
	for _, exportName := range w.exportOrder {
		methodName := w.exports[exportName]
		fn, ok := w.funcs[methodName]
		if !ok {
			return fmt.Errorf("binary: export %q refers to unknown method %q", exportName, methodName)
		}
		nameBytes := []byte(exportName)
		body.WriteVaruint32(uint32(len(nameBytes)))
		if _, err := body.Write(nameBytes); err != nil {
			return err
		}
		body.WriteVaruint32(0) // external kind: function
		body.WriteVaruint32(uint32(fn.id))
	}
	return wasm.WriteSection(leb128.SectionExport, body, "")
}

func (w *Writer) writeCodeSection(wasm *leb128.Writer) error {
	if len(w.funcOrder) == 0 {
		return nil
	}
	body := leb128.New()
	body.WriteVaruint32(uint32(len(w.funcOrder)))
	if _, err := w.functions.WriteTo(body); err != nil {
		return err
	}
	return wasm.WriteSection(leb128.SectionCode, body, "")
}
