package compiler

import (
	"encoding/binary"
	"fmt"

	"github.com/Frontrider/JWebAssembly/internal/branch"
	"github.com/Frontrider/JWebAssembly/internal/classfile"
	"github.com/Frontrider/JWebAssembly/internal/module"
	"github.com/Frontrider/JWebAssembly/internal/wasmtype"
)

// codeReader is a forward-only cursor over one method's bytecode, shared by
// both translator passes so neither has to hand-roll big-endian operand
// decoding or bounds checks. Grounded on the read-one-field-at-a-time shape
// of modten-pkg-inspector's disassemble loop, generalized into a reusable
// reader the way internal/leb128.Writer generalizes WasmOutputStream.
type codeReader struct {
	code []byte
	pos  int
}

func (r *codeReader) done() bool { return r.pos >= len(r.code) }

func (r *codeReader) u8() (byte, error) {
	if r.pos >= len(r.code) {
		return 0, fmt.Errorf("compiler: truncated bytecode at offset %d", r.pos)
	}
	b := r.code[r.pos]
	r.pos++
	return b, nil
}

func (r *codeReader) s16() (int16, error) {
	if r.pos+2 > len(r.code) {
		return 0, fmt.Errorf("compiler: truncated bytecode at offset %d", r.pos)
	}
	v := int16(binary.BigEndian.Uint16(r.code[r.pos:]))
	r.pos += 2
	return v, nil
}

func (r *codeReader) u16() (uint16, error) {
	v, err := r.s16()
	return uint16(v), err
}

func (r *codeReader) s32() (int32, error) {
	if r.pos+4 > len(r.code) {
		return 0, fmt.Errorf("compiler: truncated bytecode at offset %d", r.pos)
	}
	v := int32(binary.BigEndian.Uint32(r.code[r.pos:]))
	r.pos += 4
	return v, nil
}

func (r *codeReader) skipPadding() {
	for r.pos%4 != 0 {
		r.pos++
	}
}

// Translator drives the two-pass bytecode walk from spec.md §4.4: pass one
// registers every control-transfer instruction with a branch.Manager and
// infers each local slot's value type from the load/store opcodes that
// touch it; pass two emits primitive instructions, querying the manager at
// every offset to interleave the structured region markers it computed.
type Translator struct {
	w module.Writer

	// scratch holds, per ValueType slot (see valueTypeSlot), the two extra
	// local indices emitNeg/emitCompare use to spill an operand so it can
	// be read twice. -1 means no scratch local of that type was reserved
	// because the method's bytecode never needs one. Populated once per
	// Translate call, after the local count (and branch.Manager's own
	// switch-dispatch scratch locals) is known.
	scratch [4][2]int
}

// NewTranslator returns a Translator that emits to w.
func NewTranslator(w module.Writer) *Translator {
	return &Translator{w: w}
}

// Translate compiles one method, registering wasmName as its function name
// and, if exportName is non-empty, exporting it under that name.
func (t *Translator) Translate(wasmName, exportName string, m classfile.Method) error {
	paramDescs := m.ParamDescriptors()
	params, err := classfile.ParamValueTypes(paramDescs)
	if err != nil {
		return WrapError(err, 0)
	}
	result, err := classfile.ResultValueType(m.ReturnDescriptor())
	if err != nil {
		return WrapError(err, 0)
	}

	if err := t.w.WriteMethodStart(wasmName); err != nil {
		return err
	}
	for _, p := range params {
		if err := t.w.WriteMethodParam(module.Param, p); err != nil {
			return err
		}
	}
	if result != nil {
		if err := t.w.WriteMethodParam(module.Return, *result); err != nil {
			return err
		}
	}
	if exportName != "" {
		if err := t.w.WriteExport(wasmName, exportName); err != nil {
			return err
		}
	}

	code := m.Code()
	maxLocals := m.MaxLocals()
	if maxLocals < len(params) {
		maxLocals = len(params)
	}

	localTypes := make([]wasmtype.ValueType, maxLocals)
	for i := range localTypes {
		localTypes[i] = wasmtype.I32 // default for any local this pass never sees written
	}
	copy(localTypes, params)

	mgr := branch.NewManager(maxLocals)
	if err := t.registerControlFlow(mgr, code, localTypes, m); err != nil {
		return err
	}
	if err := mgr.Calculate(); err != nil {
		return WrapError(err, 0)
	}

	need, err := scanScratchNeeds(code)
	if err != nil {
		return WrapError(err, 0)
	}
	declared := append([]wasmtype.ValueType{}, localTypes[len(params):]...)
	for i := 0; i < mgr.ScratchLocalCount(); i++ {
		declared = append(declared, wasmtype.I32)
	}
	next := maxLocals + mgr.ScratchLocalCount()
	for _, vt := range []wasmtype.ValueType{wasmtype.I32, wasmtype.I64, wasmtype.F32, wasmtype.F64} {
		slot := valueTypeSlot(vt)
		t.scratch[slot] = [2]int{-1, -1}
		if !need[slot] {
			continue
		}
		t.scratch[slot] = [2]int{next, next + 1}
		declared = append(declared, vt, vt)
		next += 2
	}

	if err := t.emit(mgr, code, m); err != nil {
		return err
	}

	return t.w.WriteMethodFinish(declared)
}

// registerControlFlow is the translator's first pass: it walks the
// bytecode once, handing every IF/GOTO/SWITCH instruction to mgr and
// refining localTypes from every non-wide load/store it sees (each access
// sets the slot's Wasm type, so the last one seen wins; javac never reuses
// one JVM local slot at two different types within the primitive-only
// subset this compiler supports). iinc leaves the slot's type as it is.
func (t *Translator) registerControlFlow(mgr *branch.Manager, code []byte, localTypes []wasmtype.ValueType, m classfile.Method) error {
	r := &codeReader{code: code}
	for !r.done() {
		start := r.pos
		line := m.LineNumber(start)
		op, err := r.u8()
		if err != nil {
			return WrapError(err, line)
		}

		switch op {
		case jvmIload, jvmLload, jvmFload, jvmDload, jvmIstore, jvmLstore, jvmFstore, jvmDstore:
			idx, err := r.u8()
			if err != nil {
				return WrapError(err, line)
			}
			setLocalType(localTypes, int(idx), op)
		case jvmIload0, jvmIload1, jvmIload2, jvmIload3:
			setLocalType(localTypes, int(op-jvmIload0), jvmIload)
		case jvmLload0, jvmLload1, jvmLload2, jvmLload3:
			setLocalType(localTypes, int(op-jvmLload0), jvmLload)
		case jvmFload0, jvmFload1, jvmFload2, jvmFload3:
			setLocalType(localTypes, int(op-jvmFload0), jvmFload)
		case jvmDload0, jvmDload1, jvmDload2, jvmDload3:
			setLocalType(localTypes, int(op-jvmDload0), jvmDload)
		case jvmIstore0, jvmIstore1, jvmIstore2, jvmIstore3:
			setLocalType(localTypes, int(op-jvmIstore0), jvmIstore)
		case jvmLstore0, jvmLstore1, jvmLstore2, jvmLstore3:
			setLocalType(localTypes, int(op-jvmLstore0), jvmLstore)
		case jvmFstore0, jvmFstore1, jvmFstore2, jvmFstore3:
			setLocalType(localTypes, int(op-jvmFstore0), jvmFstore)
		case jvmDstore0, jvmDstore1, jvmDstore2, jvmDstore3:
			setLocalType(localTypes, int(op-jvmDstore0), jvmDstore)
		case jvmIinc:
			if _, err := r.u8(); err != nil { // index
				return WrapError(err, line)
			}
			if _, err := r.u8(); err != nil { // const
				return WrapError(err, line)
			}
		case jvmBipush:
			if _, err := r.u8(); err != nil {
				return WrapError(err, line)
			}
		case jvmSipush, jvmLdc:
			if _, err := r.u8(); err != nil { // ldc: 1-byte index; sipush handled below
				return WrapError(err, line)
			}
			if op == jvmSipush {
				if _, err := r.u8(); err != nil {
					return WrapError(err, line)
				}
			}
		case jvmLdcW, jvmLdc2W:
			if _, err := r.u16(); err != nil {
				return WrapError(err, line)
			}

		case jvmIfeq, jvmIfne, jvmIflt, jvmIfge, jvmIfgt, jvmIfle,
			jvmIfIcmpeq, jvmIfIcmpne, jvmIfIcmplt, jvmIfIcmpge, jvmIfIcmpgt, jvmIfIcmple:
			offset, err := r.s16()
			if err != nil {
				return WrapError(err, line)
			}
			mgr.Start(branch.IF, start, int(offset), line)
		case jvmGoto:
			offset, err := r.s16()
			if err != nil {
				return WrapError(err, line)
			}
			mgr.Start(branch.GOTO, start, int(offset), line)

		case jvmTableswitch:
			r.skipPadding()
			defaultOffset, err := r.s32()
			if err != nil {
				return WrapError(err, line)
			}
			low, err := r.s32()
			if err != nil {
				return WrapError(err, line)
			}
			high, err := r.s32()
			if err != nil {
				return WrapError(err, line)
			}
			positions := make([]int, 0, high-low+1)
			for k := low; k <= high; k++ {
				off, err := r.s32()
				if err != nil {
					return WrapError(err, line)
				}
				positions = append(positions, start+int(off))
			}
			mgr.StartSwitch(start, int(defaultOffset), line, nil, positions, start+int(defaultOffset), low)
		case jvmLookupswitch:
			r.skipPadding()
			defaultOffset, err := r.s32()
			if err != nil {
				return WrapError(err, line)
			}
			n, err := r.s32()
			if err != nil {
				return WrapError(err, line)
			}
			keys := make([]int32, 0, n)
			positions := make([]int, 0, n)
			for k := int32(0); k < n; k++ {
				matchVal, err := r.s32()
				if err != nil {
					return WrapError(err, line)
				}
				off, err := r.s32()
				if err != nil {
					return WrapError(err, line)
				}
				keys = append(keys, matchVal)
				positions = append(positions, start+int(off))
			}
			mgr.StartSwitch(start, int(defaultOffset), line, keys, positions, start+int(defaultOffset), 0)

		case jvmWide:
			if err := skipWide(r); err != nil {
				return WrapError(err, line)
			}

		default:
			if err := t.skipFixedWidth(op, r); err != nil {
				return WrapError(err, line)
			}
		}
	}
	return nil
}

func setLocalType(localTypes []wasmtype.ValueType, idx int, loadOrStoreOp byte) {
	if idx < 0 || idx >= len(localTypes) {
		return
	}
	switch loadOrStoreOp {
	case jvmIload, jvmIstore:
		localTypes[idx] = wasmtype.I32
	case jvmLload, jvmLstore:
		localTypes[idx] = wasmtype.I64
	case jvmFload, jvmFstore:
		localTypes[idx] = wasmtype.F32
	case jvmDload, jvmDstore:
		localTypes[idx] = wasmtype.F64
	}
}

// skipFixedWidth advances r past any no-operand instruction. Instructions
// this compiler actually emits (pass two) are exhaustively handled there;
// this pass only needs to know how many bytes to skip, so opcodes outside
// the supported set that still carry zero operands (e.g. arithmetic,
// returns) fall through here safely even before pass two rejects them.
func (t *Translator) skipFixedWidth(op byte, r *codeReader) error {
	switch op {
	case jvmNop,
		jvmIconstM1, jvmIconst0, jvmIconst1, jvmIconst2, jvmIconst3, jvmIconst4, jvmIconst5,
		jvmLconst0, jvmLconst1, jvmFconst0, jvmFconst1, jvmFconst2, jvmDconst0, jvmDconst1,
		jvmIload0, jvmIload1, jvmIload2, jvmIload3,
		jvmLload0, jvmLload1, jvmLload2, jvmLload3,
		jvmFload0, jvmFload1, jvmFload2, jvmFload3,
		jvmDload0, jvmDload1, jvmDload2, jvmDload3,
		jvmIstore0, jvmIstore1, jvmIstore2, jvmIstore3,
		jvmLstore0, jvmLstore1, jvmLstore2, jvmLstore3,
		jvmFstore0, jvmFstore1, jvmFstore2, jvmFstore3,
		jvmDstore0, jvmDstore1, jvmDstore2, jvmDstore3,
		jvmIadd, jvmLadd, jvmFadd, jvmDadd,
		jvmIsub, jvmLsub, jvmFsub, jvmDsub,
		jvmImul, jvmLmul, jvmFmul, jvmDmul,
		jvmIdiv, jvmLdiv, jvmFdiv, jvmDdiv,
		jvmIrem, jvmLrem, jvmFrem, jvmDrem,
		jvmIneg, jvmLneg, jvmFneg, jvmDneg,
		jvmIshl, jvmLshl, jvmIshr, jvmLshr, jvmIushr, jvmLushr,
		jvmIand, jvmLand, jvmIor, jvmLor, jvmIxor, jvmLxor,
		jvmI2l, jvmI2f, jvmI2d, jvmL2i, jvmL2f, jvmL2d,
		jvmF2i, jvmF2l, jvmF2d, jvmD2i, jvmD2l, jvmD2f,
		jvmLcmp, jvmFcmpl, jvmFcmpg, jvmDcmpl, jvmDcmpg,
		jvmIreturn, jvmLreturn, jvmFreturn, jvmDreturn, jvmReturn:
		return nil
	default:
		return fmt.Errorf("compiler: unsupported opcode 0x%02x at offset %d", op, r.pos-1)
	}
}

func skipWide(r *codeReader) error {
	wideOp, err := r.u8()
	if err != nil {
		return err
	}
	if _, err := r.u16(); err != nil { // local index, always 2 bytes under wide
		return err
	}
	if wideOp == jvmIinc {
		if _, err := r.s16(); err != nil {
			return err
		}
	}
	return nil
}
