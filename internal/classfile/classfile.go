// Package classfile declares the abstract parser-service protocol
// spec.md §6 calls for: an iteration over methods, each exposing its
// simple name, descriptors, declared annotations, code attribute, and
// (optionally) a local variable table for diagnostics. internal/compiler
// depends only on this interface, never on a concrete parser library.
package classfile

import "github.com/Frontrider/JWebAssembly/internal/wasmtype"

// Annotation is one declared annotation on a method, resolved to its
// unqualified type name plus a flat string-keyed view of its element-value
// pairs. spec.md only ever inspects the "name" element of an "Export"
// annotation, so element values are exposed as their literal source text
// rather than a fully typed union.
type Annotation struct {
	Name     string
	Elements map[string]string
}

// LocalVariable is one entry of a method's (optional) local variable table,
// exposed read-only for diagnostics. Neither back-end reads it: the textual
// back-end declares locals by type only, without source names.
type LocalVariable struct {
	StartPC    int
	Length     int
	Name       string
	Descriptor string
	Index      int
}

// Method is one method of a Class, with just enough surface for the
// translator: its signature, annotations, and code attribute.
type Method interface {
	Name() string

	// ParamDescriptors and ReturnDescriptor are raw JVM type descriptors
	// ("I", "J", "F", "D", "V"); use ValueTypeFromDescriptor to map them.
	ParamDescriptors() []string
	ReturnDescriptor() string

	Annotations() []Annotation

	// Code is the raw bytecode of the method body, or nil for abstract/
	// native methods.
	Code() []byte

	// MaxLocals is the local slot count the JVM verifier computed for this
	// method; branch.Manager allocates scratch locals starting here.
	MaxLocals() int

	LocalVariables() []LocalVariable

	// LineNumber returns the source line number associated with the
	// bytecode offset pc, or 0 if the class file carries no line number
	// table (or was compiled without debug info). Used only for
	// diagnostics in CompileError; never affects code generation.
	LineNumber(pc int) int

	// Constant resolves a constant-pool index referenced by ldc/ldc2_w to a
	// numeric literal. Only Integer/Float/Long/Double entries are
	// supported; object/string/class constants are out of scope per
	// spec.md's Non-goals.
	Constant(index int) (any, wasmtype.ValueType, error)
}

// Class is a parsed JVM class file, exposing only its methods: this
// compiler never lowers fields, superclasses, or interfaces.
type Class interface {
	Methods() []Method
}
