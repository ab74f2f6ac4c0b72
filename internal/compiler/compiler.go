// Package compiler drives the two-pass bytecode translation spec.md §4.4
// describes, on top of the classfile parser-service abstraction and the
// module.Writer back-ends. Compiler is the top-level entry point
// cmd/j2wasm calls: it walks every class's methods, resolves exports per
// spec.md §6, and feeds each method to a Translator against one shared
// Writer session.
package compiler

import (
	"fmt"
	"io"

	"github.com/Frontrider/JWebAssembly/internal/binary"
	"github.com/Frontrider/JWebAssembly/internal/classfile"
	"github.com/Frontrider/JWebAssembly/internal/module"
	"github.com/Frontrider/JWebAssembly/internal/text"
)

// exportAnnotationName is the unqualified annotation name spec.md §6 says
// marks a method for export, "recognized by name only" regardless of which
// package declares it.
const exportAnnotationName = "Export"

// Compiler accumulates class artifacts and lowers them to a Wasm module.
// It mirrors JWebAssembly.java's role: the object a build tool or CLI holds
// for the duration of one compilation run.
type Compiler struct {
	classes []classfile.Class
}

// NewCompiler returns an empty Compiler.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// AddClass registers a parsed class file's methods for compilation.
func (c *Compiler) AddClass(class classfile.Class) {
	c.classes = append(c.classes, class)
}

// CompileToBinary lowers every registered class to a Wasm binary module,
// writing it to out.
func (c *Compiler) CompileToBinary(out io.Writer) error {
	return c.compile(binary.NewWriter(out))
}

// CompileToText lowers every registered class to the textual S-expression
// back-end, writing the rendered module to out.
func (c *Compiler) CompileToText(out io.Writer) error {
	return c.compile(text.NewWriter(out))
}

func (c *Compiler) compile(w module.Writer) error {
	names := make(map[string]int)
	for _, class := range c.classes {
		for _, m := range class.Methods() {
			if m.Code() == nil {
				continue // abstract/native: nothing to lower
			}
			exportName := exportNameFor(m)
			if exportName == "" {
				continue // not annotated @Export: out of scope per spec.md §2/§4.4
			}
			wasmName := uniqueName(names, m.Name())

			Logger().Sugar().Debugf("translating %s -> %s (export=%q)", m.Name(), wasmName, exportName)

			t := NewTranslator(w)
			if err := t.Translate(wasmName, exportName, m); err != nil {
				return fmt.Errorf("compiler: method %q: %w", m.Name(), err)
			}
		}
	}
	return WrapError(w.Close(), 0)
}

// exportNameFor resolves the export name for m per spec.md §6: a method
// bearing an annotation whose unqualified name is "Export" is exported
// under that annotation's "name" element, defaulting to the method's
// simple name when the element is absent. A method without that
// annotation is not exported at all (empty string).
func exportNameFor(m classfile.Method) string {
	for _, ann := range m.Annotations() {
		if ann.Name != exportAnnotationName {
			continue
		}
		if name, ok := ann.Elements["name"]; ok && name != "" {
			return name
		}
		return m.Name()
	}
	return ""
}

// uniqueName assigns wasmName a collision-free Wasm function name: javac
// allows overloaded methods sharing one simple name, but spec.md's
// Function record keys functions by a single flat name, so the second and
// later methods sharing a name get a "$2", "$3", ... suffix.
func uniqueName(seen map[string]int, simpleName string) string {
	seen[simpleName]++
	if n := seen[simpleName]; n > 1 {
		return fmt.Sprintf("%s$%d", simpleName, n)
	}
	return simpleName
}
