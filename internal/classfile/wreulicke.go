package classfile

import (
	"fmt"
	"io"
	"math"

	parser "github.com/wreulicke/classfile-parser"

	"github.com/Frontrider/JWebAssembly/internal/wasmtype"
)

func float32frombits(b uint32) float32 { return math.Float32frombits(b) }
func float64frombits(b uint64) float64 { return math.Float64frombits(b) }

// FromWreulicke parses a JVM class file from r using
// github.com/wreulicke/classfile-parser and adapts it to the Class
// interface. Constant-pool and descriptor handling is ported from
// modten-pkg-inspector's wasm/class-parser/main.go (parseMethodDescriptor,
// resolveConstantRef), adapted from "disassemble to JSON for a browser" to
// "expose typed method/constant-pool data to the compiler."
func FromWreulicke(r io.Reader) (Class, error) {
	cf, err := parser.New(r).Parse()
	if err != nil {
		return nil, fmt.Errorf("classfile: parse: %w", err)
	}
	return &wreulickeClass{cf: cf}, nil
}

type wreulickeClass struct {
	cf *parser.Classfile
}

func (c *wreulickeClass) Methods() []Method {
	methods := make([]Method, 0, len(c.cf.Methods))
	for _, m := range c.cf.Methods {
		methods = append(methods, &wreulickeMethod{cf: c.cf, m: m})
	}
	return methods
}

type wreulickeMethod struct {
	cf *parser.Classfile
	m  *parser.Method
}

func (m *wreulickeMethod) Name() string {
	name, err := m.m.Name(m.cf.ConstantPool)
	if err != nil {
		return "?"
	}
	return name
}

func (m *wreulickeMethod) descriptor() string {
	desc, err := m.m.Descriptor(m.cf.ConstantPool)
	if err != nil {
		return "()V"
	}
	return desc
}

func (m *wreulickeMethod) ParamDescriptors() []string {
	params, _, err := SplitMethodDescriptor(m.descriptor())
	if err != nil {
		return nil
	}
	return params
}

func (m *wreulickeMethod) ReturnDescriptor() string {
	_, ret, err := SplitMethodDescriptor(m.descriptor())
	if err != nil {
		return "V"
	}
	return ret
}

func (m *wreulickeMethod) Code() []byte {
	if code := m.m.Code(); code != nil {
		return code.Codes
	}
	return nil
}

func (m *wreulickeMethod) MaxLocals() int {
	if code := m.m.Code(); code != nil {
		return int(code.MaxLocals)
	}
	return 0
}

func (m *wreulickeMethod) LocalVariables() []LocalVariable {
	code := m.m.Code()
	if code == nil {
		return nil
	}
	table := code.LocalVariableTable()
	if table == nil {
		return nil
	}
	cp := m.cf.ConstantPool
	result := make([]LocalVariable, 0, len(table.LocalVaribleTable))
	for _, lv := range table.LocalVaribleTable {
		name := ""
		if u := cp.LookupUtf8(lv.NameIndex); u != nil {
			name = u.String()
		}
		desc := ""
		if u := cp.LookupUtf8(lv.DescriptorInedx); u != nil {
			desc = u.String()
		}
		result = append(result, LocalVariable{
			StartPC:    int(lv.StartPc),
			Length:     int(lv.Length),
			Name:       name,
			Descriptor: desc,
			Index:      int(lv.Index),
		})
	}
	return result
}

// LineNumber resolves pc against the method's (optional) LineNumberTable
// attribute, returning the line number of the last entry whose start_pc is
// not after pc - the standard "line covers this and everything until the
// next entry" convention every JVM line-number table follows.
func (m *wreulickeMethod) LineNumber(pc int) int {
	code := m.m.Code()
	if code == nil {
		return 0
	}
	table := code.LineNumberTable()
	if table == nil {
		return 0
	}
	best := 0
	for _, entry := range table.LineNumberTable {
		if int(entry.StartPc) <= pc {
			best = int(entry.LineNumber)
		} else {
			break
		}
	}
	return best
}

// Annotations decodes the method's RuntimeVisibleAnnotations attribute per
// the class file format (JVM spec §4.7.16): a count followed by that many
// annotation structures (type_index, num_element_value_pairs, then that
// many (element_name_index, element_value) pairs). Only element values of
// kind 's' (String) and the primitive constant kinds are rendered - the
// only shape spec.md's `@Export(name = "...")` needs.
func (m *wreulickeMethod) Annotations() []Annotation {
	raw := m.m.RuntimeVisibleAnnotations()
	if raw == nil {
		return nil
	}
	cp := m.cf.ConstantPool

	var result []Annotation
	for _, ann := range raw.Annotations {
		result = append(result, decodeAnnotation(cp, ann))
	}
	return result
}

func decodeAnnotation(cp *parser.ConstantPool, ann *parser.Annotation) Annotation {
	typeName := "?"
	if u := cp.LookupUtf8(ann.TypeIndex); u != nil {
		typeName = simpleAnnotationName(u.String())
	}

	elements := make(map[string]string)
	for _, pair := range ann.ElementValuePairs {
		elementName := "?"
		if u := cp.LookupUtf8(pair.ElementNameIndex); u != nil {
			elementName = u.String()
		}
		elements[elementName] = decodeElementValue(cp, pair.ElementValue)
	}
	return Annotation{Name: typeName, Elements: elements}
}

// decodeElementValue renders one element_value structure's value as a
// string. Only the tags relevant to a simple marker/name annotation are
// handled; nested annotations, arrays, and class literals are not rendered
// (unneeded by spec.md's Export lookup).
func decodeElementValue(cp *parser.ConstantPool, ev parser.ElementValue) string {
	switch v := ev.(type) {
	case *parser.ElementValueConstValue:
		if u := cp.LookupUtf8(v.ConstValueIndex); u != nil {
			return u.String()
		}
		return fmt.Sprintf("#%d", v.ConstValueIndex)
	case *parser.ElementValueEnumConstValue:
		if u := cp.LookupUtf8(v.ConstNameIndex); u != nil {
			return u.String()
		}
		return ""
	case *parser.ElementValueClassInfo:
		return ""
	case *parser.ElementValueArrayValue:
		return ""
	default:
		return ""
	}
}

// simpleAnnotationName strips the JVM's "Lfully/qualified/Name;" descriptor
// wrapping down to the unqualified class name, since spec.md matches an
// export annotation "by name only".
func simpleAnnotationName(descriptor string) string {
	name := descriptor
	if len(name) >= 2 && name[0] == 'L' && name[len(name)-1] == ';' {
		name = name[1 : len(name)-1]
	}
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' {
			return name[i+1:]
		}
	}
	return name
}

// Constant resolves a constant-pool index for ldc/ldc2_w to a numeric
// literal, per spec.md's restriction to Integer/Float/Long/Double entries.
func (m *wreulickeMethod) Constant(index int) (any, wasmtype.ValueType, error) {
	cp := m.cf.ConstantPool
	if index < 1 || index > len(cp.Constants) {
		return nil, 0, fmt.Errorf("classfile: constant pool index %d out of range", index)
	}
	switch v := cp.Constants[index-1].(type) {
	case *parser.ConstantInteger:
		return int32(v.Bytes), wasmtype.I32, nil
	case *parser.ConstantFloat:
		return float32frombits(v.Bytes), wasmtype.F32, nil
	case *parser.ConstantLong:
		return int64(v.HighBytes)<<32 | int64(v.LowBytes), wasmtype.I64, nil
	case *parser.ConstantDouble:
		return float64frombits(uint64(v.HighBytes)<<32 | uint64(v.LowBytes)), wasmtype.F64, nil
	default:
		return nil, 0, fmt.Errorf("classfile: constant pool index %d is not a numeric literal (object/string constants are out of scope)", index)
	}
}
