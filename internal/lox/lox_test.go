package lox_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"loxi/internal/diag"
	"loxi/internal/lox"
	"loxi/internal/scanner"
)

// run executes a whole program through the full pipeline (scanner ->
// parser -> resolver -> interpreter) the way cmd/loxi's batch mode does,
// and returns what was printed plus the diagnostics reporter so tests
// can assert on exit-code-relevant latches (spec §6/§8).
func run(t *testing.T, src string) (stdout string, reporter *diag.Writer) {
	t.Helper()
	var out, errs bytes.Buffer
	reporter = diag.NewWriter(&errs)

	toks := scanner.New([]byte(src), reporter).Scan()
	stmts := lox.NewParser(toks, reporter).Parse()
	if reporter.HadError() {
		return out.String(), reporter
	}

	interp := lox.NewInterpreter(&out, reporter)
	lox.NewResolver(interp, reporter).Resolve(stmts)
	if reporter.HadError() {
		return out.String(), reporter
	}

	interp.Interpret(stmts)
	return out.String(), reporter
}

// runRepl is like run but drives the REPL evaluation path (spec §6 REPL
// mode), so tests can assert on the value-echo rule.
func runRepl(t *testing.T, src string) (stdout string, reporter *diag.Writer) {
	t.Helper()
	var out, errs bytes.Buffer
	reporter = diag.NewWriter(&errs)

	toks := scanner.New([]byte(src), reporter).Scan()
	stmts := lox.NewParser(toks, reporter).Parse()
	if reporter.HadError() {
		return out.String(), reporter
	}

	interp := lox.NewInterpreter(&out, reporter)
	lox.NewResolver(interp, reporter).Resolve(stmts)
	if reporter.HadError() {
		return out.String(), reporter
	}

	interp.InterpretRepl(stmts)
	return out.String(), reporter
}

func TestArithmeticPrecedence(t *testing.T) {
	out, reporter := run(t, "print 1 + 2 * 3;")
	require.False(t, reporter.HadError())
	require.False(t, reporter.HadRuntimeError())
	require.Equal(t, "7\n", out)
}

func TestBlockScopingShadowsThenRestores(t *testing.T) {
	out, reporter := run(t, `var a = 1; { var a = 2; print a; } print a;`)
	require.False(t, reporter.HadError())
	require.Equal(t, "2\n1\n", out)
}

func TestRecursiveFibonacci(t *testing.T) {
	out, reporter := run(t, `declare fib(n) { if (n < 2) { return n; } return fib(n-1) + fib(n-2); } print fib(10);`)
	require.False(t, reporter.HadError())
	require.Equal(t, "55\n", out)
}

func TestMethodCallPrintsFromInstance(t *testing.T) {
	out, reporter := run(t, `class A { say() { print "hi"; } } A().say();`)
	require.False(t, reporter.HadError())
	require.Equal(t, "hi\n", out)
}

func TestSuperDispatchWalksChainOnce(t *testing.T) {
	out, reporter := run(t, `
class A { greet() { return "A"; } }
class B < A { greet() { return super.greet() + "B"; } }
print B().greet();
`)
	require.False(t, reporter.HadError())
	require.Equal(t, "AB\n", out)
}

func TestSuperMissingMethodErrors(t *testing.T) {
	_, reporter := run(t, `
class A {}
class B < A { greet() { return super.greet(); } }
B().greet();
`)
	require.True(t, reporter.HadRuntimeError())
}

func TestForOfRangeAscending(t *testing.T) {
	out, reporter := run(t, `for (var i of range(0, 3)) { print i; }`)
	require.False(t, reporter.HadError())
	require.Equal(t, "0\n1\n2\n", out)
}

func TestForOfRangeNegativeStep(t *testing.T) {
	out, reporter := run(t, `for (var i of range(5, 0, -1)) { print i; }`)
	require.False(t, reporter.HadError())
	require.Equal(t, "5\n4\n3\n2\n1\n", out)
}

func TestRangeLiteralDesugarsToRangeCall(t *testing.T) {
	out, reporter := run(t, `for (var i of 0..3) { print i; }`)
	require.False(t, reporter.HadError())
	require.Equal(t, "0\n1\n2\n", out)
}

func TestClosureCounterProducesIndependentState(t *testing.T) {
	out, reporter := run(t, `
declare makeCounter() {
  var i = 0;
  declare incr() { i = i+1; return i; }
  return incr;
}
var c1 = makeCounter();
var c2 = makeCounter();
print c1();
print c1();
print c1();
print c2();
`)
	require.False(t, reporter.HadError())
	require.Equal(t, "1\n2\n3\n1\n", out)
}

func TestInitializerContract(t *testing.T) {
	out, reporter := run(t, `
class A { init(x) { this.x = x; } }
print A(5).x;
`)
	require.False(t, reporter.HadError())
	require.Equal(t, "5\n", out)
}

func TestInitializerExplicitReturnValueIsStaticError(t *testing.T) {
	_, reporter := run(t, `class A { init(x) { return 5; } }`)
	require.True(t, reporter.HadError())
}

func TestInitializerBareReturnYieldsInstance(t *testing.T) {
	out, reporter := run(t, `
class A { init(x) { this.x = x; return; } }
print A(9).x;
`)
	require.False(t, reporter.HadError())
	require.Equal(t, "9\n", out)
}

func TestMethodBindingCapturesInstanceRegardlessOfReassignment(t *testing.T) {
	out, reporter := run(t, `
class A { init(x) { this.x = x; } report() { print this.x; } }
var a = A(1);
var m = a.report;
a = nil;
m();
`)
	require.False(t, reporter.HadError())
	require.Equal(t, "1\n", out)
}

func TestArityTooFewArgumentsErrors(t *testing.T) {
	_, reporter := run(t, `declare f(a, b = 2) {} f();`)
	require.True(t, reporter.HadRuntimeError())
}

func TestArityTooManyArgumentsErrors(t *testing.T) {
	_, reporter := run(t, `declare f(a, b = 2) {} f(1, 2, 3);`)
	require.True(t, reporter.HadRuntimeError())
}

func TestArityDefaultBindsWhenOmitted(t *testing.T) {
	out, reporter := run(t, `declare f(a, b = 2) { print a; print b; } f(1);`)
	require.False(t, reporter.HadRuntimeError())
	require.Equal(t, "1\n2\n", out)
}

func TestArityExplicitOverridesDefault(t *testing.T) {
	out, reporter := run(t, `declare f(a, b = 2) { print a; print b; } f(1, 9);`)
	require.False(t, reporter.HadRuntimeError())
	require.Equal(t, "1\n9\n", out)
}

func TestTruthiness(t *testing.T) {
	out, reporter := run(t, `print !0; print !""; print !nil; print !false;`)
	require.False(t, reporter.HadError())
	require.Equal(t, "false\nfalse\ntrue\ntrue\n", out)
}

func TestShortCircuitOrSkipsRightSideEffect(t *testing.T) {
	out, reporter := run(t, `
declare sideEffect() { print "called"; return true; }
var r = true or sideEffect();
print r;
`)
	require.False(t, reporter.HadError())
	require.Equal(t, "true\n", out)
}

func TestShortCircuitAndSkipsRightSideEffect(t *testing.T) {
	out, reporter := run(t, `
declare sideEffect() { print "called"; return true; }
var r = false and sideEffect();
print r;
`)
	require.False(t, reporter.HadError())
	require.Equal(t, "false\n", out)
}

func TestRuntimeErrorStringPlusNumberMinusNumber(t *testing.T) {
	_, reporter := run(t, `1 + "a" - 1;`)
	require.True(t, reporter.HadRuntimeError())
}

func TestDivisionByZeroErrors(t *testing.T) {
	_, reporter := run(t, `print 1 / 0;`)
	require.True(t, reporter.HadRuntimeError())
}

func TestIntegerDivisionPromotesOnlyWhenInexact(t *testing.T) {
	out, reporter := run(t, `print 4 / 2; print 5 / 2;`)
	require.False(t, reporter.HadRuntimeError())
	require.Equal(t, "2\n2.5\n", out)
}

func TestElseifChain(t *testing.T) {
	out, reporter := run(t, `
declare classify(n) {
  if (n < 0) { return "neg"; }
  elseif (n == 0) { return "zero"; }
  else { return "pos"; }
}
print classify(-1);
print classify(0);
print classify(1);
`)
	require.False(t, reporter.HadError())
	require.Equal(t, "neg\nzero\npos\n", out)
}

func TestCompoundAssignment(t *testing.T) {
	out, reporter := run(t, `var x = 10; x += 5; print x; x -= 3; print x; x *= 2; print x; x /= 4; print x;`)
	require.False(t, reporter.HadError())
	require.Equal(t, "15\n12\n24\n6\n", out)
}

func TestReturnOutsideFunctionIsStaticError(t *testing.T) {
	_, reporter := run(t, `return 1;`)
	require.True(t, reporter.HadError())
}

func TestThisOutsideClassIsStaticError(t *testing.T) {
	_, reporter := run(t, `print this;`)
	require.True(t, reporter.HadError())
}

func TestReadingLocalInOwnInitializerIsStaticError(t *testing.T) {
	_, reporter := run(t, `{ var a = a; }`)
	require.True(t, reporter.HadError())
}

func TestClassInheritingFromItselfIsStaticError(t *testing.T) {
	_, reporter := run(t, `class A < A {}`)
	require.True(t, reporter.HadError())
}

func TestNonDefaultParamAfterDefaultIsStaticError(t *testing.T) {
	_, reporter := run(t, `declare f(a = 1, b) {}`)
	require.True(t, reporter.HadError())
}

// TestTooManyParametersReportsButDoesNotDiscardRestOfProgram covers spec
// §4.2.3: exceeding the 255-parameter limit is reported, but unlike a
// genuine syntax error it must not unwind the enclosing declaration and
// resynchronize — the over-long parameter list and everything after it
// still parses.
func TestTooManyParametersReportsButDoesNotDiscardRestOfProgram(t *testing.T) {
	var params strings.Builder
	for i := 0; i < 300; i++ {
		if i > 0 {
			params.WriteString(", ")
		}
		fmt.Fprintf(&params, "p%d", i)
	}
	src := fmt.Sprintf("declare f(%s) { return 1; }\nprint 2;", params.String())

	var errs bytes.Buffer
	reporter := diag.NewWriter(&errs)
	toks := scanner.New([]byte(src), reporter).Scan()
	stmts := lox.NewParser(toks, reporter).Parse()

	require.True(t, reporter.HadError())
	require.Len(t, stmts, 2)
}

// TestTooManyArgumentsReportsButDoesNotDiscardRestOfProgram is the call-site
// twin of the parameter-limit test above.
func TestTooManyArgumentsReportsButDoesNotDiscardRestOfProgram(t *testing.T) {
	var args strings.Builder
	for i := 0; i < 300; i++ {
		if i > 0 {
			args.WriteString(", ")
		}
		args.WriteString("1")
	}
	src := fmt.Sprintf("f(%s);\nprint 2;", args.String())

	var errs bytes.Buffer
	reporter := diag.NewWriter(&errs)
	toks := scanner.New([]byte(src), reporter).Scan()
	stmts := lox.NewParser(toks, reporter).Parse()

	require.True(t, reporter.HadError())
	require.Len(t, stmts, 2)
}

func TestReplEchoesSoleQualifyingExpressionStatement(t *testing.T) {
	out, reporter := runRepl(t, `1 + 2;`)
	require.False(t, reporter.HadError())
	require.Equal(t, "3\n", out)
}

// TestReplDoesNotEchoWhenLineHasMultipleStatements covers the bug spec.md
// §6/§9 call out explicitly: the echo rule applies only when the
// expression statement is the whole input, not merely the last statement
// of a multi-statement REPL line.
func TestReplDoesNotEchoWhenLineHasMultipleStatements(t *testing.T) {
	out, reporter := runRepl(t, `var a = 1; a;`)
	require.False(t, reporter.HadError())
	require.Equal(t, "", out)
}

func TestReplDoesNotEchoAssignmentOrCall(t *testing.T) {
	out, reporter := runRepl(t, `var a = 1; a = 2;`)
	require.False(t, reporter.HadError())
	require.Equal(t, "", out)

	out, reporter = runRepl(t, `declare f() { return 1; } f();`)
	require.False(t, reporter.HadError())
	require.Equal(t, "", out)
}
