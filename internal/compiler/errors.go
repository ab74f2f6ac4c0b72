package compiler

import "fmt"

// CompileError reports a failure to translate one method, carrying the
// Java source line it occurred on when the class file's LineNumberTable
// makes that available. Ported from WasmException.create(Throwable,int):
// wrapping never overwrites a line number that a deeper wrap already set,
// so the line closest to the actual fault survives however many layers of
// error-return plumbing the failure travels through.
type CompileError struct {
	cause      error
	lineNumber int
}

func (e *CompileError) Error() string {
	if e.lineNumber > 0 {
		return fmt.Sprintf("%s (at line %d)", e.cause.Error(), e.lineNumber)
	}
	return e.cause.Error()
}

func (e *CompileError) Unwrap() error { return e.cause }

// LineNumber returns the Java source line the error occurred on, or 0 if
// none was ever attached.
func (e *CompileError) LineNumber() int { return e.lineNumber }

// WrapError wraps cause in a *CompileError carrying lineNumber, unless
// cause is already a *CompileError with a line number attached - in which
// case that inner line number wins, since it is always at least as close
// to the actual fault as whatever line the outer call site is reporting.
func WrapError(cause error, lineNumber int) error {
	if cause == nil {
		return nil
	}
	if existing, ok := cause.(*CompileError); ok {
		if existing.lineNumber <= 0 {
			existing.lineNumber = lineNumber
		}
		return existing
	}
	return &CompileError{cause: cause, lineNumber: lineNumber}
}
