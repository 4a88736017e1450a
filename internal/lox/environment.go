package lox

import (
	"github.com/dolthub/swiss"

	"loxi/internal/token"
)

// Environment is the lexical scope chain described in spec §3/§4.5. It
// stores its bindings in a dolthub/swiss map, the hash-map implementation
// mna-nenuphar uses for its own scope/object storage (lang/machine/map.go),
// rather than a plain Go map.
type Environment struct {
	parent   *Environment
	bindings *swiss.Map[string, Value]
}

func NewEnvironment(parent *Environment) *Environment {
	return &Environment{parent: parent, bindings: swiss.NewMap[string, Value](8)}
}

// Define inserts or shadows name in the current frame.
func (e *Environment) Define(name string, value Value) {
	e.bindings.Put(name, value)
}

// Get walks parents by token, per spec §4.5.
func (e *Environment) Get(name token.Token) (Value, error) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.bindings.Get(name.Lexeme); ok {
			return v, nil
		}
	}
	return nil, newRuntimeError(name, "Undefined variable '"+name.Lexeme+"'.")
}

// Assign walks parents by token, per spec §4.5.
func (e *Environment) Assign(name token.Token, value Value) error {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.bindings.Get(name.Lexeme); ok {
			env.bindings.Put(name.Lexeme, value)
			return nil
		}
	}
	return newRuntimeError(name, "Undefined variable '"+name.Lexeme+"'.")
}

// ancestor walks up exactly distance parent links.
func (e *Environment) ancestor(distance int) *Environment {
	env := e
	for i := 0; i < distance; i++ {
		env = env.parent
	}
	return env
}

// GetAt indexes the distance-th ancestor directly, skipping the
// token-walking lookup, per spec §4.5.
func (e *Environment) GetAt(distance int, name string) Value {
	v, _ := e.ancestor(distance).bindings.Get(name)
	return v
}

// AssignAt indexes the distance-th ancestor directly.
func (e *Environment) AssignAt(distance int, name string, value Value) {
	e.ancestor(distance).bindings.Put(name, value)
}
