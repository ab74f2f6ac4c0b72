package compiler

import (
	"fmt"

	"github.com/Frontrider/JWebAssembly/internal/branch"
	"github.com/Frontrider/JWebAssembly/internal/classfile"
	"github.com/Frontrider/JWebAssembly/internal/wasmtype"
)

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

// arithOp is one entry of the opcode -> (operator, type) table driving the
// iadd..ddiv/irem..lxor/ishl..lushr family, all of which differ only by
// which of NumericOperator/ValueType they carry.
type arithOp struct {
	op wasmtype.NumericOperator
	vt wasmtype.ValueType
}

var arithOpcodes = map[byte]arithOp{
	jvmIadd: {wasmtype.Add, wasmtype.I32}, jvmLadd: {wasmtype.Add, wasmtype.I64},
	jvmFadd: {wasmtype.Add, wasmtype.F32}, jvmDadd: {wasmtype.Add, wasmtype.F64},
	jvmIsub: {wasmtype.Sub, wasmtype.I32}, jvmLsub: {wasmtype.Sub, wasmtype.I64},
	jvmFsub: {wasmtype.Sub, wasmtype.F32}, jvmDsub: {wasmtype.Sub, wasmtype.F64},
	jvmImul: {wasmtype.Mul, wasmtype.I32}, jvmLmul: {wasmtype.Mul, wasmtype.I64},
	jvmFmul: {wasmtype.Mul, wasmtype.F32}, jvmDmul: {wasmtype.Mul, wasmtype.F64},
	jvmIdiv: {wasmtype.Div, wasmtype.I32}, jvmLdiv: {wasmtype.Div, wasmtype.I64},
	jvmFdiv: {wasmtype.Div, wasmtype.F32}, jvmDdiv: {wasmtype.Div, wasmtype.F64},
	jvmIrem: {wasmtype.Rem, wasmtype.I32}, jvmLrem: {wasmtype.Rem, wasmtype.I64},
	jvmIand: {wasmtype.And, wasmtype.I32}, jvmLand: {wasmtype.And, wasmtype.I64},
	jvmIor: {wasmtype.Or, wasmtype.I32}, jvmLor: {wasmtype.Or, wasmtype.I64},
	jvmIxor: {wasmtype.Xor, wasmtype.I32}, jvmLxor: {wasmtype.Xor, wasmtype.I64},
	jvmIshl: {wasmtype.Shl, wasmtype.I32}, jvmLshl: {wasmtype.Shl, wasmtype.I64},
	jvmIshr: {wasmtype.ShrS, wasmtype.I32}, jvmLshr: {wasmtype.ShrS, wasmtype.I64},
	jvmIushr: {wasmtype.ShrU, wasmtype.I32}, jvmLushr: {wasmtype.ShrU, wasmtype.I64},
}

var castOps = map[byte]wasmtype.ValueTypeConversion{
	jvmI2l: wasmtype.I2L, jvmI2f: wasmtype.I2F, jvmI2d: wasmtype.I2D,
	jvmL2i: wasmtype.L2I, jvmL2f: wasmtype.L2F, jvmL2d: wasmtype.L2D,
	jvmF2i: wasmtype.F2I, jvmF2l: wasmtype.F2L, jvmF2d: wasmtype.F2D,
	jvmD2i: wasmtype.D2I, jvmD2l: wasmtype.D2L, jvmD2f: wasmtype.D2F,
}

func negValueType(op byte) wasmtype.ValueType {
	switch op {
	case jvmLneg:
		return wasmtype.I64
	case jvmFneg:
		return wasmtype.F32
	case jvmDneg:
		return wasmtype.F64
	default:
		return wasmtype.I32
	}
}

func cmpValueType(op byte) wasmtype.ValueType {
	switch op {
	case jvmLcmp:
		return wasmtype.I64
	case jvmFcmpl, jvmFcmpg:
		return wasmtype.F32
	default:
		return wasmtype.F64
	}
}

// scanScratchNeeds walks the bytecode once (independent of
// registerControlFlow, which only needs to know operand widths for the
// opcodes it tracks) to decide which value types need translator-owned
// scratch locals: *neg lowers to a const/sub pair and l/f/d cmp lowers to a
// gt/lt compare-and-subtract sequence, neither of which Wasm's MVP instruction set can
// express without spilling operands to a local first.
func scanScratchNeeds(code []byte) ([4]bool, error) {
	var need [4]bool
	r := &codeReader{code: code}
	for !r.done() {
		op, err := r.u8()
		if err != nil {
			return need, err
		}
		switch op {
		case jvmIneg, jvmLneg, jvmFneg, jvmDneg:
			need[valueTypeSlot(negValueType(op))] = true
		case jvmLcmp, jvmFcmpl, jvmFcmpg, jvmDcmpl, jvmDcmpg:
			need[valueTypeSlot(cmpValueType(op))] = true
		case jvmTableswitch:
			r.skipPadding()
			if _, err := r.s32(); err != nil {
				return need, err
			}
			low, err := r.s32()
			if err != nil {
				return need, err
			}
			high, err := r.s32()
			if err != nil {
				return need, err
			}
			for k := low; k <= high; k++ {
				if _, err := r.s32(); err != nil {
					return need, err
				}
			}
			continue
		case jvmLookupswitch:
			r.skipPadding()
			if _, err := r.s32(); err != nil {
				return need, err
			}
			n, err := r.s32()
			if err != nil {
				return need, err
			}
			for k := int32(0); k < n; k++ {
				if _, err := r.s32(); err != nil {
					return need, err
				}
				if _, err := r.s32(); err != nil {
					return need, err
				}
			}
			continue
		case jvmWide:
			if err := skipWide(r); err != nil {
				return need, err
			}
			continue
		}
		if err := skipOperandBytes(op, r); err != nil {
			return need, err
		}
	}
	return need, nil
}

// skipOperandBytes advances r past the fixed-width operand (if any) of one
// instruction, given its opcode has already been consumed. Control-transfer
// and switch opcodes are handled by the caller before reaching here.
func skipOperandBytes(op byte, r *codeReader) error {
	switch op {
	case jvmIload, jvmLload, jvmFload, jvmDload, jvmIstore, jvmLstore, jvmFstore, jvmDstore, jvmBipush, jvmLdc:
		_, err := r.u8()
		return err
	case jvmIinc, jvmSipush, jvmLdcW, jvmLdc2W:
		_, err := r.u16()
		return err
	case jvmIfeq, jvmIfne, jvmIflt, jvmIfge, jvmIfgt, jvmIfle,
		jvmIfIcmpeq, jvmIfIcmpne, jvmIfIcmplt, jvmIfIcmpge, jvmIfIcmpgt, jvmIfIcmple, jvmGoto:
		_, err := r.s16()
		return err
	default:
		return nil
	}
}

// emit is the translator's second pass: it replays the bytecode, querying
// mgr.Handle at every instruction boundary to interleave the structured
// control markers the first pass computed, and writes every primitive
// instruction spec.md §4.4's opcode table lists. goto/ifXX/tableswitch/
// lookupswitch never reach the writer directly - branch.Node.Handle already
// represents them structurally.
func (t *Translator) emit(mgr *branch.Manager, code []byte, m classfile.Method) error {
	r := &codeReader{code: code}
	for !r.done() {
		pos := r.pos
		if err := mgr.Handle(pos, t.w); err != nil {
			return WrapError(err, m.LineNumber(pos))
		}
		op, err := r.u8()
		if err != nil {
			return WrapError(err, m.LineNumber(pos))
		}
		if err := t.emitOne(op, pos, r, m); err != nil {
			return WrapError(err, m.LineNumber(pos))
		}
	}
	if err := mgr.Handle(len(code), t.w); err != nil {
		return WrapError(err, 0)
	}
	return nil
}

func (t *Translator) emitOne(op byte, pos int, r *codeReader, m classfile.Method) error {
	switch op {
	case jvmNop:
		return nil

	case jvmIconstM1:
		return t.w.WriteConstInt(-1)
	case jvmIconst0, jvmIconst1, jvmIconst2, jvmIconst3, jvmIconst4, jvmIconst5:
		return t.w.WriteConstInt(int32(op - jvmIconst0))
	case jvmLconst0, jvmLconst1:
		return t.w.WriteConstLong(int64(op - jvmLconst0))
	case jvmFconst0, jvmFconst1, jvmFconst2:
		return t.w.WriteConstFloat(float32(op - jvmFconst0))
	case jvmDconst0, jvmDconst1:
		return t.w.WriteConstDouble(float64(op - jvmDconst0))

	case jvmBipush:
		v, err := r.u8()
		if err != nil {
			return err
		}
		return t.w.WriteConstInt(int32(int8(v)))
	case jvmSipush:
		v, err := r.s16()
		if err != nil {
			return err
		}
		return t.w.WriteConstInt(int32(v))

	case jvmLdc:
		idx, err := r.u8()
		if err != nil {
			return err
		}
		return t.writeConstant(m, int(idx))
	case jvmLdcW, jvmLdc2W:
		idx, err := r.u16()
		if err != nil {
			return err
		}
		return t.writeConstant(m, int(idx))

	case jvmIload, jvmLload, jvmFload, jvmDload:
		idx, err := r.u8()
		if err != nil {
			return err
		}
		return t.w.WriteLoad(int(idx))
	case jvmIload0, jvmIload1, jvmIload2, jvmIload3:
		return t.w.WriteLoad(int(op - jvmIload0))
	case jvmLload0, jvmLload1, jvmLload2, jvmLload3:
		return t.w.WriteLoad(int(op - jvmLload0))
	case jvmFload0, jvmFload1, jvmFload2, jvmFload3:
		return t.w.WriteLoad(int(op - jvmFload0))
	case jvmDload0, jvmDload1, jvmDload2, jvmDload3:
		return t.w.WriteLoad(int(op - jvmDload0))

	case jvmIstore, jvmLstore, jvmFstore, jvmDstore:
		idx, err := r.u8()
		if err != nil {
			return err
		}
		return t.w.WriteStore(int(idx))
	case jvmIstore0, jvmIstore1, jvmIstore2, jvmIstore3:
		return t.w.WriteStore(int(op - jvmIstore0))
	case jvmLstore0, jvmLstore1, jvmLstore2, jvmLstore3:
		return t.w.WriteStore(int(op - jvmLstore0))
	case jvmFstore0, jvmFstore1, jvmFstore2, jvmFstore3:
		return t.w.WriteStore(int(op - jvmFstore0))
	case jvmDstore0, jvmDstore1, jvmDstore2, jvmDstore3:
		return t.w.WriteStore(int(op - jvmDstore0))

	case jvmIinc:
		idx, err := r.u8()
		if err != nil {
			return err
		}
		constVal, err := r.u8()
		if err != nil {
			return err
		}
		if err := t.w.WriteLoad(int(idx)); err != nil {
			return err
		}
		if err := t.w.WriteConstInt(int32(int8(constVal))); err != nil {
			return err
		}
		if err := t.w.WriteNumericOperator(wasmtype.Add, wasmtype.I32); err != nil {
			return err
		}
		return t.w.WriteStore(int(idx))

	case jvmIneg, jvmLneg, jvmFneg, jvmDneg:
		return t.emitNeg(negValueType(op))

	case jvmLcmp, jvmFcmpl, jvmFcmpg, jvmDcmpl, jvmDcmpg:
		return t.emitCompare(cmpValueType(op))

	case jvmIreturn, jvmLreturn, jvmFreturn, jvmDreturn, jvmReturn:
		return t.w.WriteReturn()

	case jvmIfeq, jvmIfne, jvmIflt, jvmIfge, jvmIfgt, jvmIfle,
		jvmIfIcmpeq, jvmIfIcmpne, jvmIfIcmplt, jvmIfIcmpge, jvmIfIcmpgt, jvmIfIcmple, jvmGoto:
		_, err := r.s16()
		return err

	case jvmTableswitch:
		r.skipPadding()
		if _, err := r.s32(); err != nil {
			return err
		}
		low, err := r.s32()
		if err != nil {
			return err
		}
		high, err := r.s32()
		if err != nil {
			return err
		}
		for k := low; k <= high; k++ {
			if _, err := r.s32(); err != nil {
				return err
			}
		}
		return nil
	case jvmLookupswitch:
		r.skipPadding()
		if _, err := r.s32(); err != nil {
			return err
		}
		n, err := r.s32()
		if err != nil {
			return err
		}
		for k := int32(0); k < n; k++ {
			if _, err := r.s32(); err != nil {
				return err
			}
			if _, err := r.s32(); err != nil {
				return err
			}
		}
		return nil

	case jvmWide:
		return skipWide(r)
	}

	if arith, ok := arithOpcodes[op]; ok {
		return t.w.WriteNumericOperator(arith.op, arith.vt)
	}
	if cast, ok := castOps[op]; ok {
		return t.w.WriteCast(cast)
	}
	return fmt.Errorf("compiler: unsupported opcode 0x%02x at offset %d", op, pos)
}

func (t *Translator) writeConstant(m classfile.Method, idx int) error {
	value, vt, err := m.Constant(idx)
	if err != nil {
		return err
	}
	switch vt {
	case wasmtype.I32:
		return t.w.WriteConstInt(value.(int32))
	case wasmtype.I64:
		return t.w.WriteConstLong(value.(int64))
	case wasmtype.F32:
		return t.w.WriteConstFloat(value.(float32))
	case wasmtype.F64:
		return t.w.WriteConstDouble(value.(float64))
	default:
		return fmt.Errorf("compiler: constant pool index %d has unsupported type", idx)
	}
}

// emitNeg lowers ineg/lneg/fneg/dneg - none of which Wasm has a unary
// opcode for - into a spill-and-subtract: the operand is saved to a
// scratch local so the 0 can be pushed beneath it, then read back as the
// 0 - v subtraction's right operand. Scratch locals stand in for the stack
// manipulation Wasm lacks throughout this compiler (see SwitchDispatch's
// scratch local).
//
// For fneg/dneg this does not preserve IEEE-754 negative-zero sign:
// 0 - 0.0 yields 0.0, not -0.0, where the JVM's fneg/dneg would flip the
// sign bit directly. Accepted along with the rest of spec.md's
// floating-point edge-case Non-goals; see DESIGN.md.
func (t *Translator) emitNeg(vt wasmtype.ValueType) error {
	tmp := t.scratch[valueTypeSlot(vt)][0]
	if tmp < 0 {
		return fmt.Errorf("compiler: no scratch local reserved for %v negation", vt)
	}
	if err := t.w.WriteStore(tmp); err != nil {
		return err
	}
	if err := t.writeZero(vt); err != nil {
		return err
	}
	if err := t.w.WriteLoad(tmp); err != nil {
		return err
	}
	return t.w.WriteNumericOperator(wasmtype.Sub, vt)
}

func (t *Translator) writeZero(vt wasmtype.ValueType) error {
	switch vt {
	case wasmtype.I32:
		return t.w.WriteConstInt(0)
	case wasmtype.I64:
		return t.w.WriteConstLong(0)
	case wasmtype.F32:
		return t.w.WriteConstFloat(0)
	default:
		return t.w.WriteConstDouble(0)
	}
}

// emitCompare lowers lcmp/fcmpl/fcmpg/dcmpl/dcmpg to (v1 > v2) - (v1 < v2),
// yielding the same -1/0/1 sign spec.md's opcode table expects. The 'l'/'g'
// NaN-sign distinction between fcmpl/fcmpg (and dcmpl/dcmpg) is not
// replicated: spec.md's Non-goals explicitly place floating-point
// edge-case flag propagation beyond what Wasm natively provides out of
// scope, and Wasm's own lt/gt already answer false for any NaN operand.
func (t *Translator) emitCompare(vt wasmtype.ValueType) error {
	slot := valueTypeSlot(vt)
	tmp1, tmp2 := t.scratch[slot][0], t.scratch[slot][1]
	if tmp1 < 0 || tmp2 < 0 {
		return fmt.Errorf("compiler: no scratch locals reserved for %v comparison", vt)
	}
	if err := t.w.WriteStore(tmp2); err != nil { // pop v2
		return err
	}
	if err := t.w.WriteStore(tmp1); err != nil { // pop v1
		return err
	}
	if err := t.w.WriteLoad(tmp1); err != nil {
		return err
	}
	if err := t.w.WriteLoad(tmp2); err != nil {
		return err
	}
	if err := t.w.WriteNumericOperator(wasmtype.Gt, vt); err != nil {
		return err
	}
	if err := t.w.WriteLoad(tmp1); err != nil {
		return err
	}
	if err := t.w.WriteLoad(tmp2); err != nil {
		return err
	}
	if err := t.w.WriteNumericOperator(wasmtype.Lt, vt); err != nil {
		return err
	}
	return t.w.WriteNumericOperator(wasmtype.Sub, wasmtype.I32)
}
