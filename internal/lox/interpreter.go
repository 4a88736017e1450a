package lox

import (
	"fmt"
	"io"
	"time"

	"loxi/internal/diag"
	"loxi/internal/token"
)

// Interpreter is the tree-walking evaluator described in spec §4.4. It
// owns the global environment, the current environment, and the
// Resolver's locals side-table. Grounded on the teacher's interpreter.go
// (environment-chain Eval dispatch), generalized with the Locals
// scope-distance table letung3105-lox's internal/lox package keeps on its
// Interpreter rather than on the Resolver.
type Interpreter struct {
	Globals *Environment
	Env     *Environment
	Locals  map[Expr]int

	Stdout   io.Writer
	Reporter diag.Reporter

	// RangeClass and StopIterationClass back the range(...) native and the
	// sentinel instance returned by a native/Lox iterator's next() at
	// end-of-stream (spec §4.4.5, §9 "Iteration end-of-stream").
	RangeClass         *Class
	StopIterationClass *Class
	StopIteration      *Instance

	startTime time.Time
}

// NewInterpreter wires the seed natives (spec §6) into a fresh global
// environment. clock() reports seconds elapsed since this call, the
// process-local monotonic epoch spec §6 calls for.
func NewInterpreter(stdout io.Writer, reporter diag.Reporter) *Interpreter {
	globals := NewEnvironment(nil)
	in := &Interpreter{
		Globals:   globals,
		Env:       globals,
		Locals:    make(map[Expr]int),
		Stdout:    stdout,
		Reporter:  reporter,
		startTime: time.Now(),
	}
	in.registerNatives()
	return in
}

func (in *Interpreter) elapsedClock() float64 {
	return time.Since(in.startTime).Seconds()
}

// Interpret executes a whole program (spec §4.4). A runtime error aborts
// evaluation of everything after it and is reported through Reporter
// (spec §7); it is not returned, since the CLI driver only needs the
// reporter's latched hadRuntimeError to pick an exit code.
func (in *Interpreter) Interpret(stmts []Stmt) {
	for _, s := range stmts {
		if _, err := s.Exec(in); err != nil {
			in.reportRuntimeError(err)
			return
		}
	}
}

// InterpretRepl behaves like Interpret but, if the whole input is a single
// bare expression statement whose expression is not itself an assignment
// or call, writes its value to Stdout (spec §6 REPL mode; §9 "REPL
// value-echo" open question). A line with more than one statement never
// echoes, even if the last of them is a qualifying expression statement —
// spec §6/§9 both say the echo applies only when the expression "is the
// whole input".
func (in *Interpreter) InterpretRepl(stmts []Stmt) {
	for _, s := range stmts {
		res, err := s.Exec(in)
		if err != nil {
			in.reportRuntimeError(err)
			return
		}
		if len(stmts) == 1 {
			if es, ok := s.(*ExpressionStmt); ok && shouldEcho(es.Expr) {
				fmt.Fprintln(in.Stdout, res.Value.String())
			}
		}
	}
}

// shouldEcho implements the REPL value-echo rule: print the value of a
// bare expression statement unless the expression is itself an
// assignment or a call (those already have an effect; printing their
// result too is noisy and not how the teacher's REPL behaves).
func shouldEcho(e Expr) bool {
	switch e.(type) {
	case *AssignExpr, *SetExpr, *CallExpr:
		return false
	default:
		return true
	}
}

func (in *Interpreter) reportRuntimeError(err error) {
	if re, ok := err.(*RuntimeError); ok {
		in.Reporter.Report(&diag.Error{Kind: diag.Runtime, Line: re.Token.Line, Lexeme: re.Token.Lexeme, Message: re.Message})
		return
	}
	in.Reporter.Report(&diag.Error{Kind: diag.Runtime, Message: err.Error()})
}

// lookUpVariable implements spec §4.4.1's read rule: a resolved depth
// indexes a specific ancestor frame directly; an unresolved name is a
// global, looked up dynamically (spec §9 "Globals-as-late-bound").
func (in *Interpreter) lookUpVariable(name token.Token, expr Expr) (Value, error) {
	if distance, ok := in.Locals[expr]; ok {
		return in.Env.GetAt(distance, name.Lexeme), nil
	}
	return in.Globals.Get(name)
}

// --- expression evaluation ---

func (l *LiteralExpr) Eval(in *Interpreter) (Value, error) { return l.Value, nil }

func (v *VariableExpr) Eval(in *Interpreter) (Value, error) {
	return in.lookUpVariable(v.Name, v)
}

func (a *AssignExpr) Eval(in *Interpreter) (Value, error) {
	value, err := a.Value.Eval(in)
	if err != nil {
		return nil, err
	}
	if distance, ok := in.Locals[a]; ok {
		in.Env.AssignAt(distance, a.Name.Lexeme, value)
	} else if err := in.Globals.Assign(a.Name, value); err != nil {
		return nil, err
	}
	return value, nil
}

func (u *UnaryExpr) Eval(in *Interpreter) (Value, error) {
	right, err := u.Right.Eval(in)
	if err != nil {
		return nil, err
	}
	switch u.Op.Kind {
	case token.BANG:
		return NewBool(!isTruthy(right)), nil
	case token.MINUS:
		n, ok := right.(*Number)
		if !ok {
			return nil, newRuntimeError(u.Op, "Operand must be a number.")
		}
		return &Number{Value: -n.Value, IsInt: n.IsInt}, nil
	case token.PLUS:
		n, ok := right.(*Number)
		if !ok {
			return nil, newRuntimeError(u.Op, "Operand must be a number.")
		}
		v := n.Value
		if v < 0 {
			v = -v
		}
		return &Number{Value: v, IsInt: n.IsInt}, nil
	default:
		return nil, newRuntimeError(u.Op, "Unknown unary operator.")
	}
}

func (b *BinaryExpr) Eval(in *Interpreter) (Value, error) {
	left, err := b.Left.Eval(in)
	if err != nil {
		return nil, err
	}
	right, err := b.Right.Eval(in)
	if err != nil {
		return nil, err
	}

	switch b.Op.Kind {
	case token.PLUS:
		return evalAdd(in, b.Op, left, right)
	case token.MINUS:
		return numericOp(b.Op, left, right, func(a, b float64) float64 { return a - b })
	case token.STAR:
		return numericOp(b.Op, left, right, func(a, b float64) float64 { return a * b })
	case token.SLASH:
		return evalDivide(b.Op, left, right)
	case token.GREATER:
		return compareOp(b.Op, left, right, func(a, b float64) bool { return a > b })
	case token.GREATER_EQUAL:
		return compareOp(b.Op, left, right, func(a, b float64) bool { return a >= b })
	case token.LESS:
		return compareOp(b.Op, left, right, func(a, b float64) bool { return a < b })
	case token.LESS_EQUAL:
		return compareOp(b.Op, left, right, func(a, b float64) bool { return a <= b })
	case token.EQUAL_EQUAL:
		return NewBool(valuesEqual(left, right)), nil
	case token.BANG_EQUAL:
		return NewBool(!valuesEqual(left, right)), nil
	default:
		return nil, newRuntimeError(b.Op, "Unknown binary operator.")
	}
}

// evalAdd implements spec §4.4.2's `+` rule: string concatenation if
// either operand is a string (the other is stringified), numeric add if
// both are numbers, else a runtime error.
func evalAdd(in *Interpreter, op token.Token, left, right Value) (Value, error) {
	_, leftStr := left.(*String)
	_, rightStr := right.(*String)
	if leftStr || rightStr {
		return NewString(left.String() + right.String()), nil
	}
	ln, lok := left.(*Number)
	rn, rok := right.(*Number)
	if !lok || !rok {
		return nil, newRuntimeError(op, "Operands must be two numbers or at least one string.")
	}
	return &Number{Value: ln.Value + rn.Value, IsInt: ln.IsInt && rn.IsInt}, nil
}

func numericOp(op token.Token, left, right Value, f func(a, b float64) float64) (Value, error) {
	ln, lok := left.(*Number)
	rn, rok := right.(*Number)
	if !lok || !rok {
		return nil, newRuntimeError(op, "Operands must be numbers.")
	}
	return &Number{Value: f(ln.Value, rn.Value), IsInt: ln.IsInt && rn.IsInt}, nil
}

// evalDivide implements the true-division rule (spec §4.4.2): integer
// division promotes to floating-point unless it is exact.
func evalDivide(op token.Token, left, right Value) (Value, error) {
	ln, lok := left.(*Number)
	rn, rok := right.(*Number)
	if !lok || !rok {
		return nil, newRuntimeError(op, "Operands must be numbers.")
	}
	if rn.Value == 0 {
		return nil, newRuntimeError(op, "Division by zero.")
	}
	result := ln.Value / rn.Value
	isInt := ln.IsInt && rn.IsInt && result == float64(int64(result))
	return &Number{Value: result, IsInt: isInt}, nil
}

func compareOp(op token.Token, left, right Value, f func(a, b float64) bool) (Value, error) {
	ln, lok := left.(*Number)
	rn, rok := right.(*Number)
	if !lok || !rok {
		return nil, newRuntimeError(op, "Operands must be numbers.")
	}
	return NewBool(f(ln.Value, rn.Value)), nil
}

func (l *LogicalExpr) Eval(in *Interpreter) (Value, error) {
	left, err := l.Left.Eval(in)
	if err != nil {
		return nil, err
	}
	if l.Op.Kind == token.OR {
		if isTruthy(left) {
			return left, nil
		}
	} else {
		if !isTruthy(left) {
			return left, nil
		}
	}
	return l.Right.Eval(in)
}

func (g *GroupingExpr) Eval(in *Interpreter) (Value, error) { return g.Inner.Eval(in) }

func (c *CallExpr) Eval(in *Interpreter) (Value, error) {
	callee, err := c.Callee.Eval(in)
	if err != nil {
		return nil, err
	}

	args := make([]Value, len(c.Args))
	for i, a := range c.Args {
		v, err := a.Eval(in)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	fn, ok := callee.(Callable)
	if !ok {
		return nil, newRuntimeError(c.Paren, "Can only call functions and classes.")
	}

	min, max := fn.Arity()
	if len(args) < min || len(args) > max {
		return nil, newRuntimeError(c.Paren, fmt.Sprintf("Expected between %d and %d arguments but got %d.", min, max, len(args)))
	}

	return fn.Call(in, args)
}

func (g *GetExpr) Eval(in *Interpreter) (Value, error) {
	obj, err := g.Object.Eval(in)
	if err != nil {
		return nil, err
	}
	inst, ok := obj.(*Instance)
	if !ok {
		return nil, newRuntimeError(g.Name, "Only instances have properties.")
	}
	return inst.Get(g.Name)
}

func (s *SetExpr) Eval(in *Interpreter) (Value, error) {
	obj, err := s.Object.Eval(in)
	if err != nil {
		return nil, err
	}
	inst, ok := obj.(*Instance)
	if !ok {
		return nil, newRuntimeError(s.Name, "Only instances have fields.")
	}
	value, err := s.Value.Eval(in)
	if err != nil {
		return nil, err
	}
	inst.Set(s.Name, value)
	return value, nil
}

func (t *ThisExpr) Eval(in *Interpreter) (Value, error) {
	return in.lookUpVariable(t.Keyword, t)
}

// Eval implements spec §4.4.4's super dispatch: fetch `super` at the
// recorded depth, `this` one scope closer, look up Method on the
// superclass chain, and bind it to `this`.
func (s *SuperExpr) Eval(in *Interpreter) (Value, error) {
	distance := in.Locals[s]
	superVal := in.Env.GetAt(distance, "super")
	super, ok := superVal.(*Class)
	if !ok {
		return nil, newRuntimeError(s.Keyword, "'super' does not resolve to a class.")
	}
	thisVal := in.Env.GetAt(distance-1, "this")
	instance, ok := thisVal.(*Instance)
	if !ok {
		return nil, newRuntimeError(s.Keyword, "'this' does not resolve to an instance.")
	}
	method := super.FindMethod(s.Method.Lexeme)
	if method == nil {
		return nil, newRuntimeError(s.Method, "Undefined property '"+s.Method.Lexeme+"'.")
	}
	return method.Bind(instance), nil
}

// Eval desugars a range literal into a construction of the native range
// class (spec §4.4.5).
func (r *RangeExpr) Eval(in *Interpreter) (Value, error) {
	start, err := r.Start.Eval(in)
	if err != nil {
		return nil, err
	}
	stop, err := r.Stop.Eval(in)
	if err != nil {
		return nil, err
	}
	var step Value = NewInt(1)
	if r.Step != nil {
		step, err = r.Step.Eval(in)
		if err != nil {
			return nil, err
		}
	}
	return in.RangeClass.Call(in, []Value{start, stop, step})
}

// --- statement execution ---

func (e *ExpressionStmt) Exec(in *Interpreter) (ExecResult, error) {
	v, err := e.Expr.Eval(in)
	if err != nil {
		return ExecResult{}, err
	}
	return ExecResult{Value: v}, nil
}

func (p *PrintStmt) Exec(in *Interpreter) (ExecResult, error) {
	v, err := p.Expr.Eval(in)
	if err != nil {
		return ExecResult{}, err
	}
	fmt.Fprintln(in.Stdout, v.String())
	return ExecResult{}, nil
}

func (v *VarStmt) Exec(in *Interpreter) (ExecResult, error) {
	var value Value = NilValue
	if v.Initializer != nil {
		val, err := v.Initializer.Eval(in)
		if err != nil {
			return ExecResult{}, err
		}
		value = val
	}
	in.Env.Define(v.Name.Lexeme, value)
	return ExecResult{}, nil
}

func (b *BlockStmt) Exec(in *Interpreter) (ExecResult, error) {
	return execBlock(in, b.Stmts, NewEnvironment(in.Env))
}

func execBlock(in *Interpreter, stmts []Stmt, env *Environment) (ExecResult, error) {
	prev := in.Env
	in.Env = env
	defer func() { in.Env = prev }()

	for _, s := range stmts {
		res, err := s.Exec(in)
		if err != nil {
			return ExecResult{}, err
		}
		if res.Returning {
			return res, nil
		}
	}
	return ExecResult{}, nil
}

func (f *IfStmt) Exec(in *Interpreter) (ExecResult, error) {
	for _, branch := range f.Branches {
		cond, err := branch.Condition.Eval(in)
		if err != nil {
			return ExecResult{}, err
		}
		if isTruthy(cond) {
			return branch.Then.Exec(in)
		}
	}
	if f.Else != nil {
		return f.Else.Exec(in)
	}
	return ExecResult{}, nil
}

func (w *WhileStmt) Exec(in *Interpreter) (ExecResult, error) {
	for {
		cond, err := w.Condition.Eval(in)
		if err != nil {
			return ExecResult{}, err
		}
		if !isTruthy(cond) {
			return ExecResult{}, nil
		}
		res, err := w.Body.Exec(in)
		if err != nil {
			return ExecResult{}, err
		}
		if res.Returning {
			return res, nil
		}
	}
}

// Exec implements the for-of iteration protocol (spec §4.4.5): call
// iter() on the iterable, then repeatedly call next() on the result,
// binding each value in a fresh per-iteration scope so closures created
// in the body capture that iteration's binding, not a shared one.
func (f *ForStmt) Exec(in *Interpreter) (ExecResult, error) {
	iterableVal, err := f.Iterable.Eval(in)
	if err != nil {
		return ExecResult{}, err
	}
	iterable, ok := iterableVal.(*Instance)
	if !ok {
		return ExecResult{}, newRuntimeError(f.Keyword, "For-of target must be an instance.")
	}

	iterMethodVal, err := iterable.Get(syntheticIdent("iter", f.Keyword.Line))
	if err != nil {
		return ExecResult{}, err
	}
	iterMethod, ok := iterMethodVal.(Callable)
	if !ok {
		return ExecResult{}, newRuntimeError(f.Keyword, "Object's 'iter' is not callable.")
	}
	iteratorVal, err := iterMethod.Call(in, nil)
	if err != nil {
		return ExecResult{}, err
	}
	iterator, ok := iteratorVal.(*Instance)
	if !ok {
		return ExecResult{}, newRuntimeError(f.Keyword, "'iter' must return an instance.")
	}

	nextMethodVal, err := iterator.Get(syntheticIdent("next", f.Keyword.Line))
	if err != nil {
		return ExecResult{}, err
	}
	nextMethod, ok := nextMethodVal.(Callable)
	if !ok {
		return ExecResult{}, newRuntimeError(f.Keyword, "Iterator's 'next' is not callable.")
	}

	for {
		nextVal, err := nextMethod.Call(in, nil)
		if err != nil {
			return ExecResult{}, err
		}
		if nextVal == in.StopIteration {
			return ExecResult{}, nil
		}

		iterEnv := NewEnvironment(in.Env)
		iterEnv.Define(f.IterVar.Lexeme, nextVal)

		prevEnv := in.Env
		in.Env = iterEnv
		// f.Body is itself a BlockStmt, whose Exec pushes its own child
		// environment — matching the two scopes (iterVar, then body block)
		// the Resolver pushes for a ForStmt, so depths line up.
		res, err := f.Body.Exec(in)
		in.Env = prevEnv
		if err != nil {
			return ExecResult{}, err
		}
		if res.Returning {
			return res, nil
		}
	}
}

func (fn *FunctionStmt) Exec(in *Interpreter) (ExecResult, error) {
	function, err := in.makeFunction(fn, false)
	if err != nil {
		return ExecResult{}, err
	}
	in.Env.Define(fn.Name.Lexeme, function)
	return ExecResult{}, nil
}

// makeFunction resolves each parameter's default expression in the
// enclosing (declaration-time) environment before the function's
// closure is fixed, per spec §3/§9.
func (in *Interpreter) makeFunction(fn *FunctionStmt, isInitializer bool) (*Function, error) {
	params := make([]ResolvedParam, len(fn.Params))
	for i, p := range fn.Params {
		rp := ResolvedParam{Name: p.Name.Lexeme}
		if p.Default != nil {
			v, err := p.Default.Eval(in)
			if err != nil {
				return nil, err
			}
			rp.Default = v
		}
		params[i] = rp
	}
	return &Function{Decl: fn, Params: params, Closure: in.Env, IsInitializer: isInitializer}, nil
}

func (r *ReturnStmt) Exec(in *Interpreter) (ExecResult, error) {
	var value Value = NilValue
	if r.Value != nil {
		v, err := r.Value.Eval(in)
		if err != nil {
			return ExecResult{}, err
		}
		value = v
	}
	return ExecResult{Value: value, Returning: true}, nil
}

// Exec implements the 6-step class-construction procedure of spec §4.4.4.
func (c *ClassStmt) Exec(in *Interpreter) (ExecResult, error) {
	var superclass *Class
	if c.Superclass != nil {
		superVal, err := c.Superclass.Eval(in)
		if err != nil {
			return ExecResult{}, err
		}
		sc, ok := superVal.(*Class)
		if !ok {
			return ExecResult{}, newRuntimeError(c.Superclass.Name, "Superclass must be a class.")
		}
		superclass = sc
	}

	in.Env.Define(c.Name.Lexeme, NilValue)

	classEnv := in.Env
	if c.Superclass != nil {
		classEnv = NewEnvironment(in.Env)
		classEnv.Define("super", superclass)
	}

	class := NewClass(c.Name.Lexeme, superclass)
	prevEnv := in.Env
	in.Env = classEnv
	for _, m := range c.Methods {
		isInit := m.Name.Lexeme == "init"
		// Defaults are evaluated one scope below classEnv, matching the
		// `this` scope the Resolver has open when it resolves them; the
		// method's closure is classEnv itself.
		in.Env = NewEnvironment(classEnv)
		method, err := in.makeFunction(m, isInit)
		if err != nil {
			in.Env = prevEnv
			return ExecResult{}, err
		}
		method.Closure = classEnv
		class.Methods.Put(m.Name.Lexeme, method)
	}
	in.Env = prevEnv

	if err := in.Env.Assign(c.Name, class); err != nil {
		return ExecResult{}, err
	}
	return ExecResult{}, nil
}
