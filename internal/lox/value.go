package lox

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dolthub/swiss"

	"loxi/internal/token"
)

// Value is the runtime tagged union described in spec §3: Nil, Bool,
// Number, String, Callable (function, bound method, native function,
// class).
type Value interface {
	String() string
}

// Nil is the sole nil value. Use NilValue, a package-level singleton, for
// equality/truthiness checks — there is exactly one nil.
type Nil struct{}

func (*Nil) String() string { return "nil" }

// NilValue is the single nil instance every nil-producing expression
// returns.
var NilValue = &Nil{}

type Bool struct{ Value bool }

func NewBool(v bool) *Bool { return &Bool{Value: v} }

func (b *Bool) String() string { return strconv.FormatBool(b.Value) }

// Number is the language's single numeric type. IsInt records whether the
// value should format and propagate as an integer, per the number-model
// decision in SPEC_FULL.md §5: arithmetic promotes to floating-point only
// when an operand is floating, or when integer division is inexact.
type Number struct {
	Value float64
	IsInt bool
}

func NewInt(v float64) *Number   { return &Number{Value: v, IsInt: true} }
func NewFloat(v float64) *Number { return &Number{Value: v, IsInt: false} }

func (n *Number) String() string {
	if n.IsInt {
		return strconv.FormatFloat(n.Value, 'f', -1, 64)
	}
	s := strconv.FormatFloat(n.Value, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

type String struct{ Value string }

func NewString(v string) *String { return &String{Value: v} }

func (s *String) String() string { return s.Value }

// Callable is implemented by every value that can appear in call position:
// user functions, bound methods, native functions, and classes.
type Callable interface {
	Value
	// Arity returns the (min, max) accepted argument counts (spec §4.4.3).
	Arity() (min, max int)
	Call(in *Interpreter, args []Value) (Value, error)
}

// Method is implemented by anything that can be bound to an instance's
// "this": user-defined methods (Function) and native methods.
type Method interface {
	Arity() (min, max int)
	Bind(instance *Instance) Callable
}

// Class is the runtime representation of a class declaration. A class is
// itself Callable: calling it constructs an Instance (spec §4.4.4).
type Class struct {
	Name       string
	Superclass *Class
	Methods    *swiss.Map[string, Method]
}

func NewClass(name string, superclass *Class) *Class {
	return &Class{Name: name, Superclass: superclass, Methods: swiss.NewMap[string, Method](8)}
}

func (c *Class) String() string { return c.Name }

func (c *Class) FindMethod(name string) Method {
	if m, ok := c.Methods.Get(name); ok {
		return m
	}
	if c.Superclass != nil {
		return c.Superclass.FindMethod(name)
	}
	return nil
}

func (c *Class) Arity() (int, int) {
	if init := c.FindMethod("init"); init != nil {
		return init.Arity()
	}
	return 0, 0
}

func (c *Class) Call(in *Interpreter, args []Value) (Value, error) {
	instance := NewInstance(c)
	if init := c.FindMethod("init"); init != nil {
		if _, err := init.Bind(instance).Call(in, args); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

// Instance is a class instance: field lookup precedes method lookup
// (spec §3).
type Instance struct {
	Class  *Class
	Fields *swiss.Map[string, Value]
}

func NewInstance(class *Class) *Instance {
	return &Instance{Class: class, Fields: swiss.NewMap[string, Value](4)}
}

func (i *Instance) String() string { return fmt.Sprintf("%s instance", i.Class.Name) }

func (i *Instance) Get(name token.Token) (Value, error) {
	if v, ok := i.Fields.Get(name.Lexeme); ok {
		return v, nil
	}
	if m := i.Class.FindMethod(name.Lexeme); m != nil {
		return m.Bind(i), nil
	}
	return nil, newRuntimeError(name, "Undefined property '"+name.Lexeme+"'.")
}

func (i *Instance) Set(name token.Token, v Value) {
	i.Fields.Put(name.Lexeme, v)
}

// valuesEqual implements spec §3's equality rule: structural for
// primitives, reference identity for instances, classes, and callables.
func valuesEqual(a, b Value) bool {
	switch av := a.(type) {
	case *Nil:
		_, ok := b.(*Nil)
		return ok
	case *Bool:
		bv, ok := b.(*Bool)
		return ok && av.Value == bv.Value
	case *Number:
		bv, ok := b.(*Number)
		return ok && av.Value == bv.Value
	case *String:
		bv, ok := b.(*String)
		return ok && av.Value == bv.Value
	default:
		return a == b
	}
}

// isTruthy implements spec §3's truthiness rule: only false and nil are
// falsy.
func isTruthy(v Value) bool {
	switch vv := v.(type) {
	case *Nil:
		return false
	case *Bool:
		return vv.Value
	default:
		return true
	}
}
