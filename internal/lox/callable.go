package lox

import "fmt"

// ResolvedParam is a function parameter whose default (if any) has
// already been evaluated, at function-declaration time, in the defining
// environment (spec §3, invariant on Function value; spec §9 "Defaults at
// declaration time vs call time").
type ResolvedParam struct {
	Name    string
	Default Value // nil if this parameter has no default
}

// Function is a user-defined function or method value (spec §3).
type Function struct {
	Decl          *FunctionStmt
	Params        []ResolvedParam
	Closure       *Environment
	IsInitializer bool
}

func (f *Function) String() string { return fmt.Sprintf("<fn %s>", f.Decl.Name.Lexeme) }

func (f *Function) Arity() (int, int) {
	min := 0
	for _, p := range f.Params {
		if p.Default == nil {
			min++
		}
	}
	return min, len(f.Params)
}

// Call builds a fresh environment whose parent is the closure, binds
// parameters (supplied arguments, else their pre-evaluated defaults),
// executes the body, and unwinds on Return (spec §4.4.3).
func (f *Function) Call(in *Interpreter, args []Value) (Value, error) {
	callEnv := NewEnvironment(f.Closure)
	for i, p := range f.Params {
		if i < len(args) {
			callEnv.Define(p.Name, args[i])
		} else {
			callEnv.Define(p.Name, p.Default)
		}
	}

	prevEnv := in.Env
	in.Env = callEnv
	defer func() { in.Env = prevEnv }()

	for _, stmt := range f.Decl.Body {
		res, err := stmt.Exec(in)
		if err != nil {
			return nil, err
		}
		if res.Returning {
			if f.IsInitializer {
				return f.thisValue(), nil
			}
			return res.Value, nil
		}
	}

	if f.IsInitializer {
		return f.thisValue(), nil
	}
	return NilValue, nil
}

func (f *Function) thisValue() Value {
	v, _ := f.Closure.bindings.Get("this")
	return v
}

// Bind returns a copy of f whose closure adds a scope defining "this" as
// instance, on top of the method's captured closure (spec §3, §4.4.4).
func (f *Function) Bind(instance *Instance) Callable {
	env := NewEnvironment(f.Closure)
	env.Define("this", instance)
	return &Function{Decl: f.Decl, Params: f.Params, Closure: env, IsInitializer: f.IsInitializer}
}

// NativeFunction is a built-in callable implemented in Go (spec §6's seed:
// clock, str, range).
type NativeFunction struct {
	Name     string
	Min, Max int
	Fn       func(in *Interpreter, args []Value) (Value, error)
}

func (n *NativeFunction) String() string        { return fmt.Sprintf("<native fn %s>", n.Name) }
func (n *NativeFunction) Arity() (int, int)      { return n.Min, n.Max }
func (n *NativeFunction) Call(in *Interpreter, args []Value) (Value, error) {
	return n.Fn(in, args)
}

// NativeMethod is a built-in method, used by native classes such as range
// (spec §4.4.5) whose init/iter/next are implemented in Go rather than
// Lox, grounded on original_source/natives.py's ZSDNativeFunction shape.
type NativeMethod struct {
	Name     string
	Min, Max int
	Fn       func(in *Interpreter, self *Instance, args []Value) (Value, error)
}

func (m *NativeMethod) Arity() (int, int) { return m.Min, m.Max }

func (m *NativeMethod) Bind(instance *Instance) Callable {
	return &boundNativeMethod{method: m, self: instance}
}

type boundNativeMethod struct {
	method *NativeMethod
	self   *Instance
}

func (b *boundNativeMethod) String() string   { return fmt.Sprintf("<native method %s>", b.method.Name) }
func (b *boundNativeMethod) Arity() (int, int) { return b.method.Min, b.method.Max }
func (b *boundNativeMethod) Call(in *Interpreter, args []Value) (Value, error) {
	return b.method.Fn(in, b.self, args)
}
