package wasmtype

import "strings"

// FunctionType is an ordered sequence of parameter types plus an optional
// single result type. Equality is structural over (params, result) so a
// back-end can deduplicate entries in the type section, per the "hashable"
// requirement in spec.md §3.
type FunctionType struct {
	Params []ValueType
	Result *ValueType // nil for void
}

// Key returns a string uniquely determined by (Params, Result), suitable as
// a map key for structural deduplication. Two FunctionTypes with the same
// Key are Equal, and vice versa.
func (t *FunctionType) Key() string {
	var b strings.Builder
	for _, p := range t.Params {
		b.WriteByte(byte('a' + int(p)))
	}
	b.WriteByte(':')
	if t.Result != nil {
		b.WriteByte(byte('a' + int(*t.Result)))
	}
	return b.String()
}

// Equal reports structural equality: same params in the same order, same
// result (or both void).
func (t *FunctionType) Equal(other *FunctionType) bool {
	if other == nil {
		return false
	}
	if len(t.Params) != len(other.Params) {
		return false
	}
	for i, p := range t.Params {
		if other.Params[i] != p {
			return false
		}
	}
	if (t.Result == nil) != (other.Result == nil) {
		return false
	}
	return t.Result == nil || *t.Result == *other.Result
}

// Function is the per-method bookkeeping the binary back-end keeps: a
// stable, dense function index assigned in declaration order and the index
// into the module's function-type table.
type Function struct {
	Index  int
	TypeID int
}

// Export maps an external (host-visible) name to the name of the function
// it exposes. The function index is resolved from the function map at
// emission time, not stored here.
type Export struct {
	ExternalName string
	MethodName   string
}
