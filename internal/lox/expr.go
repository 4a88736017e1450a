package lox

import (
	"fmt"
	"strings"

	"loxi/internal/token"
)

// LiteralExpr holds an already-constructed runtime Value, computed once by
// the parser from the token's lexeme/literal (spec §3: Literal(value)).
type LiteralExpr struct {
	Value Value
}

func (l *LiteralExpr) String() string { return l.Value.String() }

// VariableExpr reads a name (spec §3: Variable(name)).
type VariableExpr struct {
	Name token.Token
}

func (v *VariableExpr) String() string { return v.Name.Lexeme }

// AssignExpr assigns to a name (spec §3: Assign(name, value)).
type AssignExpr struct {
	Name  token.Token
	Value Expr
}

func (a *AssignExpr) String() string { return fmt.Sprintf("%s = %s", a.Name.Lexeme, a.Value) }

// UnaryExpr is a prefix operator (spec §3: Unary(op, right)).
type UnaryExpr struct {
	Op    token.Token
	Right Expr
}

func (u *UnaryExpr) String() string { return fmt.Sprintf("(%s %s)", u.Op.Lexeme, u.Right) }

// BinaryExpr is an infix operator (spec §3: Binary(left, op, right)).
type BinaryExpr struct {
	Left  Expr
	Op    token.Token
	Right Expr
}

func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Op.Lexeme, b.Left, b.Right)
}

// LogicalExpr is `and`/`or`, which short-circuit (spec §3: Logical(left,
// op, right)).
type LogicalExpr struct {
	Left  Expr
	Op    token.Token
	Right Expr
}

func (l *LogicalExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", l.Op.Lexeme, l.Left, l.Right)
}

// GroupingExpr is a parenthesized expression (spec §3: Grouping(inner)).
type GroupingExpr struct {
	Inner Expr
}

func (g *GroupingExpr) String() string { return fmt.Sprintf("(group %s)", g.Inner) }

// CallExpr is a call (spec §3: Call(callee, paren, args)). Paren is kept
// (the teacher commented it out) because arity errors are reported at the
// call site's line (spec §4.4.3).
type CallExpr struct {
	Callee Expr
	Paren  token.Token
	Args   []Expr
}

func (c *CallExpr) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Callee, strings.Join(args, ", "))
}

// GetExpr reads a property (spec §3: Get(object, name)).
type GetExpr struct {
	Object Expr
	Name   token.Token
}

func (g *GetExpr) String() string { return fmt.Sprintf("%s.%s", g.Object, g.Name.Lexeme) }

// SetExpr writes a property (spec §3: Set(object, name, value)).
type SetExpr struct {
	Object Expr
	Name   token.Token
	Value  Expr
}

func (s *SetExpr) String() string {
	return fmt.Sprintf("%s.%s = %s", s.Object, s.Name.Lexeme, s.Value)
}

// ThisExpr resolves like a variable at its recorded depth (spec §3, §4.4.4).
type ThisExpr struct {
	Keyword token.Token
}

func (t *ThisExpr) String() string { return "this" }

// SuperExpr is `super.method` (spec §3: Super(keyword, method)).
type SuperExpr struct {
	Keyword token.Token
	Method  token.Token
}

func (s *SuperExpr) String() string { return fmt.Sprintf("super.%s", s.Method.Lexeme) }

// RangeExpr is the scanner-produced range literal a..b / a..=b (spec §3:
// Range(start, stop, step); spec §4.4.5). An explicit range(...) call
// parses as an ordinary CallExpr, not a RangeExpr. The parser never sets
// Step, since the literal forms carry no step; Eval then uses a step of 1.
type RangeExpr struct {
	Keyword           token.Token
	Start, Stop, Step Expr
}

func (r *RangeExpr) String() string {
	if r.Step != nil {
		return fmt.Sprintf("range(%s, %s, %s)", r.Start, r.Stop, r.Step)
	}
	return fmt.Sprintf("range(%s, %s)", r.Start, r.Stop)
}
