package compiler

import (
	"fmt"

	"github.com/Frontrider/JWebAssembly/internal/classfile"
	"github.com/Frontrider/JWebAssembly/internal/wasmtype"
)

// fakeMethod is a hand-built classfile.Method, used in place of a real
// class-file fixture so translator tests don't depend on a parsed .class
// byte array. It only implements the surface Translator actually reads.
type fakeMethod struct {
	name       string
	params     []string
	ret        string
	code       []byte
	maxLocals  int
	annotation []classfile.Annotation
	constants  map[int]fakeConstant
	lines      map[int]int
}

type fakeConstant struct {
	value any
	vt    wasmtype.ValueType
}

func (f *fakeMethod) Name() string                         { return f.name }
func (f *fakeMethod) ParamDescriptors() []string            { return f.params }
func (f *fakeMethod) ReturnDescriptor() string               { return f.ret }
func (f *fakeMethod) Annotations() []classfile.Annotation    { return f.annotation }
func (f *fakeMethod) Code() []byte                           { return f.code }
func (f *fakeMethod) MaxLocals() int                         { return f.maxLocals }
func (f *fakeMethod) LocalVariables() []classfile.LocalVariable { return nil }

func (f *fakeMethod) LineNumber(pc int) int {
	if f.lines == nil {
		return 0
	}
	return f.lines[pc]
}

func (f *fakeMethod) Constant(index int) (any, wasmtype.ValueType, error) {
	c, ok := f.constants[index]
	if !ok {
		return nil, 0, fmt.Errorf("fakeMethod: no constant at index %d", index)
	}
	return c.value, c.vt, nil
}

// fakeClass is a hand-built classfile.Class wrapping a fixed method list,
// used to exercise Compiler.compile's per-class iteration without a parsed
// .class byte fixture.
type fakeClass struct {
	methods []classfile.Method
}

func (f *fakeClass) Methods() []classfile.Method { return f.methods }
