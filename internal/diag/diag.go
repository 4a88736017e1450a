// Package diag provides uniform syntax/resolve/runtime diagnostic
// reporting. It is modeled on letung3105-lox's Reporter interface, fused
// with the teacher's plain stderr error messages and colorized the way
// the teacher colors its own test-runner output.
package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Kind distinguishes the four error kinds named in spec §7. Runtime
// errors are reported differently (the `at '<lexeme>'` form) from the
// compile-time phases.
type Kind int

const (
	Lex Kind = iota
	Parse
	Resolve
	Runtime
)

// Error is a single diagnostic: a source line, an optional offending
// lexeme, and a human-readable message.
type Error struct {
	Kind    Kind
	Line    int
	Lexeme  string
	AtEnd   bool
	Message string
}

func (e *Error) Error() string {
	if e.Kind == Runtime {
		return fmt.Sprintf("[Line %d] at '%s': %s", e.Line, e.Lexeme, e.Message)
	}

	where := ""
	switch {
	case e.AtEnd:
		where = " at the end"
	case e.Lexeme != "":
		where = fmt.Sprintf(" at '%s'", e.Lexeme)
	}
	return fmt.Sprintf("[Line %d] Error%s: %s", e.Line, where, e.Message)
}

// Reporter accumulates diagnostics and latches whether a syntax/static or
// runtime error has occurred, so the driver can decide whether to run the
// next pipeline stage (spec §7) and which exit code to use (spec §6).
type Reporter interface {
	Report(err *Error)
	// Warn reports a non-fatal diagnostic (e.g. the resolver's unused-local
	// warning, spec §4.3) that never latches hadError.
	Warn(message string)
	Reset()
	HadError() bool
	HadRuntimeError() bool
}

// Writer is a Reporter that writes each diagnostic, colorized, to an
// injected io.Writer (never hardcoding os.Stderr) so the REPL, the batch
// driver, and tests can all redirect it.
type Writer struct {
	out           io.Writer
	hadErr        bool
	hadRuntimeErr bool

	errColor  *color.Color
	warnColor *color.Color
}

func NewWriter(out io.Writer) *Writer {
	return &Writer{
		out:       out,
		errColor:  color.New(color.FgRed, color.Bold),
		warnColor: color.New(color.FgYellow),
	}
}

func (w *Writer) Report(err *Error) {
	w.errColor.Fprintln(w.out, err.Error())
	if err.Kind == Runtime {
		w.hadRuntimeErr = true
	} else {
		w.hadErr = true
	}
}

func (w *Writer) Warn(message string) {
	w.warnColor.Fprintln(w.out, "warning: "+message)
}

func (w *Writer) Reset() {
	w.hadErr = false
	w.hadRuntimeErr = false
}

func (w *Writer) HadError() bool        { return w.hadErr }
func (w *Writer) HadRuntimeError() bool { return w.hadRuntimeErr }
