package lox

import (
	"strings"

	"loxi/internal/token"
)

// ExpressionStmt wraps a bare expression statement (spec §3).
type ExpressionStmt struct {
	Expr Expr
}

func (e *ExpressionStmt) String() string { return e.Expr.String() + ";" }

// PrintStmt is `print expr;` (spec §3).
type PrintStmt struct {
	Expr Expr
}

func (p *PrintStmt) String() string { return "print " + p.Expr.String() + ";" }

// VarStmt declares a variable, optionally with an initializer (spec §3).
type VarStmt struct {
	Name        token.Token
	Initializer Expr // nil if absent
}

func (v *VarStmt) String() string {
	if v.Initializer == nil {
		return "var " + v.Name.Lexeme + ";"
	}
	return "var " + v.Name.Lexeme + " = " + v.Initializer.String() + ";"
}

// BlockStmt is `{ stmts }` (spec §3).
type BlockStmt struct {
	Stmts []Stmt
}

func (b *BlockStmt) String() string {
	parts := make([]string, len(b.Stmts))
	for i, s := range b.Stmts {
		parts[i] = s.String()
	}
	return "{\n" + strings.Join(parts, "\n") + "\n}"
}

// IfBranch is one `if`/`elseif` arm: a condition and its block (spec §3).
type IfBranch struct {
	Condition Expr
	Then      Stmt
}

// IfStmt is `if cond block (elseif cond block)* (else stmt)?` (spec §3:
// If(conditions, else)).
type IfStmt struct {
	Branches []IfBranch
	Else     Stmt // nil if absent
}

func (f *IfStmt) String() string {
	var sb strings.Builder
	for i, b := range f.Branches {
		if i == 0 {
			sb.WriteString("if " + b.Condition.String() + " ")
		} else {
			sb.WriteString("elseif " + b.Condition.String() + " ")
		}
		sb.WriteString(b.Then.String())
	}
	if f.Else != nil {
		sb.WriteString(" else " + f.Else.String())
	}
	return sb.String()
}

// WhileStmt is `while cond block` (spec §3).
type WhileStmt struct {
	Condition Expr
	Body      Stmt
}

func (w *WhileStmt) String() string { return "while " + w.Condition.String() + " " + w.Body.String() }

// ForStmt is the user-iterator `for (var? iterVar of iterable) block` form
// (spec §3: For(keyword, iterVar, iterable, body); spec §4.4.5). The
// C-style `for (init; cond; inc) block` form desugars at parse time into a
// WhileStmt (spec §4.2.1) and never reaches the interpreter as a ForStmt.
type ForStmt struct {
	Keyword  token.Token
	IterVar  token.Token
	Iterable Expr
	Body     Stmt
}

func (f *ForStmt) String() string {
	return "for (" + f.IterVar.Lexeme + " of " + f.Iterable.String() + ") " + f.Body.String()
}

// FunctionStmt is a function or method declaration (spec §3: Function(name,
// params, body)).
type FunctionStmt struct {
	Name   token.Token
	Params []Param
	Body   []Stmt
}

func (fn *FunctionStmt) String() string {
	names := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		if p.Default != nil {
			names[i] = p.Name.Lexeme + "=" + p.Default.String()
		} else {
			names[i] = p.Name.Lexeme
		}
	}
	return "declare " + fn.Name.Lexeme + "(" + strings.Join(names, ", ") + ") { ... }"
}

// ReturnStmt is `return expr?;` (spec §3).
type ReturnStmt struct {
	Keyword token.Token
	Value   Expr // nil if bare `return;`
}

func (r *ReturnStmt) String() string {
	if r.Value == nil {
		return "return;"
	}
	return "return " + r.Value.String() + ";"
}

// ClassStmt is a class declaration, with an optional superclass and a list
// of method declarations (spec §3).
type ClassStmt struct {
	Name       token.Token
	Superclass *VariableExpr // nil if no superclass
	Methods    []*FunctionStmt
}

func (c *ClassStmt) String() string {
	if c.Superclass != nil {
		return "class " + c.Name.Lexeme + " < " + c.Superclass.Name.Lexeme + " { ... }"
	}
	return "class " + c.Name.Lexeme + " { ... }"
}
