package lox

import (
	"fmt"

	"loxi/internal/diag"
)

// FunctionType tracks what kind of function body the resolver is
// currently inside, so `return`/`this` rules can be enforced precisely
// (spec §4.3).
type FunctionType int

const (
	FunctionTypeNone FunctionType = iota
	FunctionTypeFunction
	FunctionTypeMethod
	FunctionTypeInitializer
)

// ClassType tracks whether the resolver is inside a class, and whether
// that class has a superclass (spec §4.3).
type ClassType int

const (
	ClassTypeNone ClassType = iota
	ClassTypeClass
	ClassTypeSubclass
)

type scopeEntry struct {
	defined bool
	used    bool
	line    int
}

// Resolver performs the static scope-depth analysis pass (spec §4.3),
// annotating the Interpreter's locals side-table rather than keeping its
// own — spec §4.3/§9 describes the table as living on the Interpreter.
// Grounded on the teacher's resolver.go (scope-stack declare/define,
// resolveLocal, FunctionType/ClassType enums).
type Resolver struct {
	interp    *Interpreter
	reporter  diag.Reporter
	scopes    []map[string]*scopeEntry
	funcType  FunctionType
	classType ClassType
}

func NewResolver(interp *Interpreter, reporter diag.Reporter) *Resolver {
	return &Resolver{interp: interp, reporter: reporter}
}

// Resolve walks a whole program.
func (r *Resolver) Resolve(stmts []Stmt) {
	for _, s := range stmts {
		s.resolve(r)
	}
}

func (r *Resolver) beginScope() {
	r.scopes = append(r.scopes, make(map[string]*scopeEntry))
}

func (r *Resolver) endScope() {
	last := r.scopes[len(r.scopes)-1]
	for name, entry := range last {
		if !entry.used {
			r.reporter.Warn(fmt.Sprintf("[Line %d] local variable '%s' is never used.", entry.line, name))
		}
	}
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *Resolver) declare(name string, line int) {
	if len(r.scopes) == 0 {
		return
	}
	scope := r.scopes[len(r.scopes)-1]
	if _, exists := scope[name]; exists {
		r.errorf(line, name, "Already a variable named '%s' in this scope.", name)
		return
	}
	scope[name] = &scopeEntry{defined: false, line: line}
}

func (r *Resolver) define(name string) {
	if len(r.scopes) == 0 {
		return
	}
	r.scopes[len(r.scopes)-1][name].defined = true
}

// resolveLocal records, on the Interpreter's locals table, how many
// scopes back `name` is bound. A name not found in any local scope is a
// global and resolved dynamically at evaluation time (spec §4.3).
func (r *Resolver) resolveLocal(expr Expr, name string) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if entry, ok := r.scopes[i][name]; ok {
			entry.used = true
			r.interp.Locals[expr] = len(r.scopes) - 1 - i
			return
		}
	}
}

func (r *Resolver) errorf(line int, lexeme, format string, args ...any) {
	r.reporter.Report(&diag.Error{Kind: diag.Resolve, Line: line, Lexeme: lexeme, Message: fmt.Sprintf(format, args...)})
}

// --- statements ---

func (e *ExpressionStmt) resolve(r *Resolver) { e.Expr.resolve(r) }

func (p *PrintStmt) resolve(r *Resolver) { p.Expr.resolve(r) }

func (v *VarStmt) resolve(r *Resolver) {
	r.declare(v.Name.Lexeme, v.Name.Line)
	if v.Initializer != nil {
		v.Initializer.resolve(r)
	}
	r.define(v.Name.Lexeme)
}

func (b *BlockStmt) resolve(r *Resolver) {
	r.beginScope()
	for _, s := range b.Stmts {
		s.resolve(r)
	}
	r.endScope()
}

func (f *IfStmt) resolve(r *Resolver) {
	for _, branch := range f.Branches {
		branch.Condition.resolve(r)
		branch.Then.resolve(r)
	}
	if f.Else != nil {
		f.Else.resolve(r)
	}
}

func (w *WhileStmt) resolve(r *Resolver) {
	w.Condition.resolve(r)
	w.Body.resolve(r)
}

func (f *ForStmt) resolve(r *Resolver) {
	f.Iterable.resolve(r)
	r.beginScope()
	r.declare(f.IterVar.Lexeme, f.IterVar.Line)
	r.define(f.IterVar.Lexeme)
	f.Body.resolve(r)
	r.endScope()
}

func (fn *FunctionStmt) resolve(r *Resolver) {
	r.declare(fn.Name.Lexeme, fn.Name.Line)
	r.define(fn.Name.Lexeme)
	r.resolveFunction(fn, FunctionTypeFunction)
}

// resolveFunction resolves default-value expressions in the *enclosing*
// scope (the defining environment, per spec §3/§9) before pushing the
// function's own parameter scope, then resolves the body inside it.
func (r *Resolver) resolveFunction(fn *FunctionStmt, fnType FunctionType) {
	enclosingFn := r.funcType
	r.funcType = fnType

	seenDefault := false
	for _, p := range fn.Params {
		if p.Default != nil {
			seenDefault = true
			p.Default.resolve(r)
		} else if seenDefault {
			r.errorf(p.Name.Line, p.Name.Lexeme, "A non-default parameter cannot follow a default parameter.")
		}
	}

	r.beginScope()
	for _, p := range fn.Params {
		r.declare(p.Name.Lexeme, p.Name.Line)
		r.define(p.Name.Lexeme)
	}
	for _, s := range fn.Body {
		s.resolve(r)
	}
	r.endScope()

	r.funcType = enclosingFn
}

func (rs *ReturnStmt) resolve(r *Resolver) {
	if r.funcType == FunctionTypeNone {
		r.errorf(rs.Keyword.Line, rs.Keyword.Lexeme, "Can't return from top-level code.")
	}
	if rs.Value != nil {
		if r.funcType == FunctionTypeInitializer {
			r.errorf(rs.Keyword.Line, rs.Keyword.Lexeme, "Can't return a value from an initializer.")
		}
		rs.Value.resolve(r)
	}
}

func (c *ClassStmt) resolve(r *Resolver) {
	enclosingClass := r.classType
	r.classType = ClassTypeClass

	r.declare(c.Name.Lexeme, c.Name.Line)
	r.define(c.Name.Lexeme)

	if c.Superclass != nil {
		if c.Superclass.Name.Lexeme == c.Name.Lexeme {
			r.errorf(c.Superclass.Name.Line, c.Superclass.Name.Lexeme, "A class can't inherit from itself.")
		}
		r.classType = ClassTypeSubclass
		c.Superclass.resolve(r)

		r.beginScope()
		r.declare("super", c.Name.Line)
		r.define("super")
	}

	r.beginScope()
	r.declare("this", c.Name.Line)
	r.define("this")

	for _, m := range c.Methods {
		fnType := FunctionTypeMethod
		if m.Name.Lexeme == "init" {
			fnType = FunctionTypeInitializer
		}
		r.resolveFunction(m, fnType)
	}

	r.endScope()
	if c.Superclass != nil {
		r.endScope()
	}

	r.classType = enclosingClass
}

// --- expressions ---

func (l *LiteralExpr) resolve(r *Resolver) {}

func (v *VariableExpr) resolve(r *Resolver) {
	if len(r.scopes) > 0 {
		if entry, ok := r.scopes[len(r.scopes)-1][v.Name.Lexeme]; ok && !entry.defined {
			r.errorf(v.Name.Line, v.Name.Lexeme, "Can't read local variable '%s' in its own initializer.", v.Name.Lexeme)
		}
	}
	r.resolveLocal(v, v.Name.Lexeme)
}

func (a *AssignExpr) resolve(r *Resolver) {
	a.Value.resolve(r)
	r.resolveLocal(a, a.Name.Lexeme)
}

func (u *UnaryExpr) resolve(r *Resolver) { u.Right.resolve(r) }

func (b *BinaryExpr) resolve(r *Resolver) {
	b.Left.resolve(r)
	b.Right.resolve(r)
}

func (l *LogicalExpr) resolve(r *Resolver) {
	l.Left.resolve(r)
	l.Right.resolve(r)
}

func (g *GroupingExpr) resolve(r *Resolver) { g.Inner.resolve(r) }

func (c *CallExpr) resolve(r *Resolver) {
	c.Callee.resolve(r)
	for _, a := range c.Args {
		a.resolve(r)
	}
}

func (g *GetExpr) resolve(r *Resolver) { g.Object.resolve(r) }

func (s *SetExpr) resolve(r *Resolver) {
	s.Value.resolve(r)
	s.Object.resolve(r)
}

func (t *ThisExpr) resolve(r *Resolver) {
	if r.classType == ClassTypeNone {
		r.errorf(t.Keyword.Line, t.Keyword.Lexeme, "Can't use 'this' outside of a class.")
		return
	}
	r.resolveLocal(t, t.Keyword.Lexeme)
}

func (s *SuperExpr) resolve(r *Resolver) {
	switch r.classType {
	case ClassTypeNone:
		r.errorf(s.Keyword.Line, s.Keyword.Lexeme, "Can't use 'super' outside of a class.")
	case ClassTypeClass:
		r.errorf(s.Keyword.Line, s.Keyword.Lexeme, "Can't use 'super' in a class with no superclass.")
	}
	r.resolveLocal(s, s.Keyword.Lexeme)
}

func (rg *RangeExpr) resolve(r *Resolver) {
	rg.Start.resolve(r)
	rg.Stop.resolve(r)
	if rg.Step != nil {
		rg.Step.resolve(r)
	}
}
