package classfile

import (
	"fmt"

	"github.com/Frontrider/JWebAssembly/internal/wasmtype"
)

// ValueTypeFromDescriptor maps a single JVM primitive type descriptor
// character to its Wasm ValueType. Only the primitive numeric descriptors
// this compiler supports are accepted; object, array, and the JVM's own
// byte/char/short/boolean subword types (which javac always widens to int
// before arithmetic) are rejected. Ported from the descriptor-walking loop
// in modten-pkg-inspector's parseDescriptorType, narrowed to the four types
// spec.md §3 recognizes.
func ValueTypeFromDescriptor(desc string) (wasmtype.ValueType, error) {
	if len(desc) != 1 {
		return 0, fmt.Errorf("classfile: unsupported descriptor %q: object/array types are out of scope", desc)
	}
	switch desc[0] {
	case 'I':
		return wasmtype.I32, nil
	case 'J':
		return wasmtype.I64, nil
	case 'F':
		return wasmtype.F32, nil
	case 'D':
		return wasmtype.F64, nil
	default:
		return 0, fmt.Errorf("classfile: unsupported descriptor %q: only I/J/F/D are lowered to Wasm value types", desc)
	}
}

// ParamValueTypes maps a method's parameter descriptors to Wasm value
// types, in order.
func ParamValueTypes(params []string) ([]wasmtype.ValueType, error) {
	result := make([]wasmtype.ValueType, len(params))
	for i, p := range params {
		vt, err := ValueTypeFromDescriptor(p)
		if err != nil {
			return nil, err
		}
		result[i] = vt
	}
	return result, nil
}

// ResultValueType maps a method's return descriptor to an optional Wasm
// value type; "V" (void) maps to (nil, nil).
func ResultValueType(returnDescriptor string) (*wasmtype.ValueType, error) {
	if returnDescriptor == "V" {
		return nil, nil
	}
	vt, err := ValueTypeFromDescriptor(returnDescriptor)
	if err != nil {
		return nil, err
	}
	return &vt, nil
}

// SplitMethodDescriptor parses a JVM method descriptor of the form
// "(II)I" into its parameter descriptors and return descriptor, without
// validating that each is a supported primitive - callers that need Wasm
// value types should follow up with ParamValueTypes/ResultValueType.
// Ported from modten-pkg-inspector's parseMethodDescriptor, minus the
// human-readable-name rendering that tool needed for its JSON output.
func SplitMethodDescriptor(desc string) (params []string, ret string, err error) {
	if len(desc) == 0 || desc[0] != '(' {
		return nil, "", fmt.Errorf("classfile: malformed method descriptor %q", desc)
	}
	pos := 1
	for pos < len(desc) && desc[pos] != ')' {
		p, next, err := splitOneType(desc, pos)
		if err != nil {
			return nil, "", err
		}
		params = append(params, p)
		pos = next
	}
	if pos >= len(desc) {
		return nil, "", fmt.Errorf("classfile: malformed method descriptor %q: missing ')'", desc)
	}
	pos++ // skip ')'
	ret, _, err = splitOneType(desc, pos)
	if err != nil {
		return nil, "", err
	}
	return params, ret, nil
}

// splitOneType returns the descriptor substring for one field type starting
// at pos, along with the index just past it. Array/object descriptors are
// returned whole (so a caller can reject them with a precise message via
// ValueTypeFromDescriptor) rather than rejected here.
func splitOneType(desc string, pos int) (string, int, error) {
	if pos >= len(desc) {
		return "", pos, fmt.Errorf("classfile: malformed method descriptor %q: unexpected end", desc)
	}
	switch desc[pos] {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 'V':
		return desc[pos : pos+1], pos + 1, nil
	case '[':
		_, next, err := splitOneType(desc, pos+1)
		if err != nil {
			return "", pos, err
		}
		return desc[pos:next], next, nil
	case 'L':
		end := pos + 1
		for end < len(desc) && desc[end] != ';' {
			end++
		}
		if end >= len(desc) {
			return "", pos, fmt.Errorf("classfile: malformed method descriptor %q: unterminated object type", desc)
		}
		return desc[pos : end+1], end + 1, nil
	default:
		return "", pos, fmt.Errorf("classfile: malformed method descriptor %q: unknown type tag %q", desc, desc[pos])
	}
}
