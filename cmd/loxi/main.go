// Command loxi is the CLI driver described in spec §6: zero arguments
// start a REPL, one argument runs a script file, more is a usage error.
// Built on github.com/mna/mainer, the CLI harness mna-nenuphar's own
// cmd/nenuphar/main.go and internal/maincmd package use.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"loxi/internal/diag"
	"loxi/internal/lox"
	"loxi/internal/scanner"
)

var (
	// placeholder values, replaced on build
	version   = "{v}"
	buildDate = "{d}"
)

func main() {
	c := &Cmd{BuildVersion: version, BuildDate: buildDate}
	os.Exit(int(c.Main(os.Args, mainer.CurrentStdio())))
}

const usage = "usage: loxi [script]"

// Cmd is the mainer.Parser target. It carries no domain flags — the spec
// names only positional-argument behavior — but keeps -h/--help as the
// one ambient flag every CLI in the pack carries.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help bool `flag:"h,help"`

	args []string
}

func (c *Cmd) SetArgs(args []string)          { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool) {}

func (c *Cmd) Validate() error {
	if c.Help {
		return nil
	}
	if len(c.args) > 1 {
		return fmt.Errorf("%s", usage)
	}
	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n%s\n", err, usage)
		return mainer.ExitCode(64)
	}

	if c.Help {
		fmt.Fprintln(stdio.Stdout, usage)
		return mainer.ExitCode(0)
	}

	if len(c.args) == 1 {
		return runFile(c.args[0], stdio)
	}
	return runRepl(stdio)
}

// runFile implements the one-argument batch mode (spec §6): read the
// file, run it once, select the exit code from which error kind (if any)
// occurred.
func runFile(path string, stdio mainer.Stdio) mainer.ExitCode {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "loxi: %s\n", err)
		return mainer.ExitCode(66)
	}

	reporter := diag.NewWriter(stdio.Stderr)
	interp := lox.NewInterpreter(stdio.Stdout, reporter)
	run(source, interp, reporter, false)

	switch {
	case reporter.HadError():
		return mainer.ExitCode(65)
	case reporter.HadRuntimeError():
		return mainer.ExitCode(70)
	default:
		return mainer.ExitCode(0)
	}
}

// runRepl implements the zero-argument REPL mode (spec §6): each line is
// scanned, parsed, resolved and interpreted against one persistent
// Interpreter (so top-level vars/functions/classes survive across
// lines), echoing a value only when the whole line is a single bare
// expression statement (spec §9 "REPL value-echo"; see
// Interpreter.InterpretRepl).
func runRepl(stdio mainer.Stdio) mainer.ExitCode {
	reporter := diag.NewWriter(stdio.Stderr)
	interp := lox.NewInterpreter(stdio.Stdout, reporter)

	var hadError, hadRuntimeError bool

	input := bufio.NewScanner(stdio.Stdin)
	fmt.Fprint(stdio.Stdout, "> ")
	for input.Scan() {
		reporter.Reset()
		run([]byte(input.Text()), interp, reporter, true)
		hadError = hadError || reporter.HadError()
		hadRuntimeError = hadRuntimeError || reporter.HadRuntimeError()
		fmt.Fprint(stdio.Stdout, "> ")
	}

	switch {
	case hadError:
		return mainer.ExitCode(65)
	case hadRuntimeError:
		return mainer.ExitCode(70)
	default:
		return mainer.ExitCode(0)
	}
}

// run executes one pipeline pass (spec §2's data flow): scan, parse,
// resolve (aborting before evaluation if either stage errored), then
// interpret.
func run(source []byte, interp *lox.Interpreter, reporter diag.Reporter, repl bool) {
	tokens := scanner.New(source, reporter).Scan()
	stmts := lox.NewParser(tokens, reporter).Parse()
	if reporter.HadError() {
		return
	}

	lox.NewResolver(interp, reporter).Resolve(stmts)
	if reporter.HadError() {
		return
	}

	if repl {
		interp.InterpretRepl(stmts)
	} else {
		interp.Interpret(stmts)
	}
}
