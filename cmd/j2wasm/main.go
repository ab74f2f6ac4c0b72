// Command j2wasm translates JVM class files into a WebAssembly module.
// CLI flag parsing and exit-code conventions sit outside spec.md's core
// (see spec.md §1/§6); this driver is a thin wrapper the teacher itself
// never needed - modten-pkg-inspector's class parser is a syscall/js entry
// point, not a CLI - so it follows the plainest idiom in the pack instead:
// stdlib flag, in the shape wippyai-wasm-runtime/cmd/run/main.go uses.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Frontrider/JWebAssembly/internal/classfile"
	"github.com/Frontrider/JWebAssembly/internal/compiler"
)

func main() {
	var (
		output  = flag.String("o", "", "Output file path (default: stdout)")
		text    = flag.Bool("text", false, "Emit the textual S-expression back-end instead of a binary module")
		verbose = flag.Bool("v", false, "Enable verbose (debug-level) logging")
		verify  = flag.Bool("verify", false, "Round-trip the compiled module through a wazero runtime before writing it out")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: j2wasm [-o out] [-text] [-v] [-verify] class-file...")
		os.Exit(2)
	}

	if *verbose {
		l, err := zap.NewDevelopment()
		if err == nil {
			compiler.SetLogger(l)
		}
	}

	if err := run(flag.Args(), *output, *text, *verify); err != nil {
		fmt.Fprintf(os.Stderr, "j2wasm: %v\n", err)
		os.Exit(1)
	}
}

func run(classPaths []string, output string, textMode, verify bool) error {
	c := compiler.NewCompiler()
	for _, path := range classPaths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		class, err := classfile.FromWreulicke(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		c.AddClass(class)
	}

	var buf bytes.Buffer
	var err error
	if textMode {
		err = c.CompileToText(&buf)
	} else {
		err = c.CompileToBinary(&buf)
	}
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}

	if !textMode && verify {
		if err := verifyModule(buf.Bytes()); err != nil {
			return fmt.Errorf("verify: %w", err)
		}
	}

	out := os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create %s: %w", output, err)
		}
		defer f.Close()
		out = f
	}
	_, err = out.Write(buf.Bytes())
	return err
}
