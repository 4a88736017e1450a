package lox

import (
	"strings"

	"loxi/internal/diag"
	"loxi/internal/token"
)

// parseError is panicked internally by errorAt/errorAtCurrent (and so by
// consume) and recovered in declaration, which then calls synchronize
// (spec §4.2.4). It is never returned to callers of Parse.
type parseError struct{ err *StaticError }

// Parser is a one-token-lookahead recursive-descent parser implementing
// the grammar in spec §4.2. Grounded on the teacher's parser.go
// (match/check/consume/previous cursor helpers, term/factor/unary/call
// precedence chain), extended with panic/recover-based synchronization
// (spec §4.2.4) since the teacher bails out on the first error instead
// of resyncing.
type Parser struct {
	tokens   []token.Token
	current  int
	reporter diag.Reporter
}

func NewParser(tokens []token.Token, reporter diag.Reporter) *Parser {
	return &Parser{tokens: tokens, reporter: reporter}
}

// Parse runs program := declaration* EOF, collecting as many top-level
// declarations as it can despite errors.
func (p *Parser) Parse() []Stmt {
	var stmts []Stmt
	for !p.isAtEnd() {
		if s := p.declaration(); s != nil {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

func (p *Parser) declaration() (stmt Stmt) {
	defer func() {
		if r := recover(); r != nil {
			pe, ok := r.(parseError)
			if !ok {
				panic(r)
			}
			p.reporter.Report(&diag.Error{Kind: diag.Parse, Line: pe.err.Token.Line, Lexeme: pe.err.Token.Lexeme, AtEnd: pe.err.AtEnd, Message: pe.err.Message})
			p.synchronize()
			stmt = nil
		}
	}()

	switch {
	case p.match(token.VAR):
		return p.varDecl()
	case p.match(token.CLASS):
		return p.classDecl()
	case p.match(token.DECLARE):
		return p.funcDecl()
	default:
		return p.statement()
	}
}

func (p *Parser) varDecl() Stmt {
	name := p.consume(token.IDENTIFIER, "Expect variable name.")
	var init Expr
	if p.match(token.EQUAL) {
		init = p.expression()
	}
	p.consume(token.SEMICOLON, "Expect ';' after variable declaration.")
	return &VarStmt{Name: name, Initializer: init}
}

func (p *Parser) funcDecl() Stmt {
	return p.function()
}

// function := IDENT "(" params? ")" block (spec §4.2).
func (p *Parser) function() *FunctionStmt {
	name := p.consume(token.IDENTIFIER, "Expect function name.")
	p.consume(token.LEFT_PAREN, "Expect '(' after function name.")

	var params []Param
	if !p.check(token.RIGHT_PAREN) {
		seenDefault := false
		for {
			if len(params) >= 255 {
				p.reportAtCurrent("Can't have more than 255 parameters.")
			}
			pname := p.consume(token.IDENTIFIER, "Expect parameter name.")
			var def Expr
			if p.match(token.EQUAL) {
				def = p.logicalOr()
				seenDefault = true
			} else if seenDefault {
				p.errorAtCurrent("Non-default parameter cannot follow a default parameter.")
			}
			params = append(params, Param{Name: pname, Default: def})
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RIGHT_PAREN, "Expect ')' after parameters.")

	p.consume(token.LEFT_BRACE, "Expect '{' before function body.")
	body := p.blockBody()

	return &FunctionStmt{Name: name, Params: params, Body: body}
}

// classDecl := "class" IDENT ("<" IDENT)? "{" function* "}" (spec §4.2).
func (p *Parser) classDecl() Stmt {
	name := p.consume(token.IDENTIFIER, "Expect class name.")

	var superclass *VariableExpr
	if p.match(token.LESS) {
		superName := p.consume(token.IDENTIFIER, "Expect superclass name.")
		superclass = &VariableExpr{Name: superName}
	}

	p.consume(token.LEFT_BRACE, "Expect '{' before class body.")
	var methods []*FunctionStmt
	for !p.check(token.RIGHT_BRACE) && !p.isAtEnd() {
		methods = append(methods, p.function())
	}
	p.consume(token.RIGHT_BRACE, "Expect '}' after class body.")

	return &ClassStmt{Name: name, Superclass: superclass, Methods: methods}
}

func (p *Parser) statement() Stmt {
	switch {
	case p.match(token.IF):
		return p.ifStmt()
	case p.match(token.WHILE):
		return p.whileStmt()
	case p.match(token.FOR):
		return p.forStmt()
	case p.match(token.PRINT):
		return p.printStmt()
	case p.match(token.RETURN):
		return p.returnStmt()
	case p.match(token.LEFT_BRACE):
		return &BlockStmt{Stmts: p.blockBody()}
	default:
		return p.exprStmt()
	}
}

// ifStmt := "if" expression block ("elseif" expression block)* ("else"
// statement)? (spec §4.2). `elseif` chains are flattened into IfStmt's
// Branches slice rather than nested IfStmt/Else pairs.
func (p *Parser) ifStmt() Stmt {
	stmt := &IfStmt{}

	cond := p.expression()
	p.consume(token.LEFT_BRACE, "Expect '{' after if condition.")
	then := &BlockStmt{Stmts: p.blockBody()}
	stmt.Branches = append(stmt.Branches, IfBranch{Condition: cond, Then: then})

	for p.match(token.ELSEIF) {
		cond := p.expression()
		p.consume(token.LEFT_BRACE, "Expect '{' after elseif condition.")
		then := &BlockStmt{Stmts: p.blockBody()}
		stmt.Branches = append(stmt.Branches, IfBranch{Condition: cond, Then: then})
	}

	if p.match(token.ELSE) {
		stmt.Else = p.statement()
	}

	return stmt
}

func (p *Parser) whileStmt() Stmt {
	cond := p.expression()
	p.consume(token.LEFT_BRACE, "Expect '{' after while condition.")
	body := &BlockStmt{Stmts: p.blockBody()}
	return &WhileStmt{Condition: cond, Body: body}
}

// forStmt implements both the C-style clause form (desugared into a
// WhileStmt per §4.2.1) and the `for (var? IDENT of expr) block` form
// (kept as a ForStmt, §4.4.5), disambiguated by a lookahead for the `of`
// keyword.
func (p *Parser) forStmt() Stmt {
	p.consume(token.LEFT_PAREN, "Expect '(' after 'for'.")

	if p.isForOf() {
		var iterVar token.Token
		p.match(token.VAR)
		iterVar = p.consume(token.IDENTIFIER, "Expect iteration variable name.")
		p.consume(token.OF, "Expect 'of' in for-of loop.")
		iterable := p.expression()
		p.consume(token.RIGHT_PAREN, "Expect ')' after for-of clause.")
		p.consume(token.LEFT_BRACE, "Expect '{' before for body.")
		body := &BlockStmt{Stmts: p.blockBody()}
		return &ForStmt{Keyword: iterVar, IterVar: iterVar, Iterable: iterable, Body: body}
	}

	var initializer Stmt
	switch {
	case p.match(token.SEMICOLON):
		initializer = nil
	case p.match(token.VAR):
		initializer = p.varDecl()
	default:
		initializer = p.exprStmt()
	}

	var condition Expr
	if !p.check(token.SEMICOLON) {
		condition = p.expression()
	}
	p.consume(token.SEMICOLON, "Expect ';' after loop condition.")

	var increment Expr
	if !p.check(token.RIGHT_PAREN) {
		increment = p.expression()
	}
	p.consume(token.RIGHT_PAREN, "Expect ')' after for clauses.")

	p.consume(token.LEFT_BRACE, "Expect '{' before for body.")
	body := &BlockStmt{Stmts: p.blockBody()}

	return forToWhile(initializer, condition, increment, body)
}

// isForOf peeks past an optional `var` to see whether IDENT is followed
// by `of`, without consuming anything.
func (p *Parser) isForOf() bool {
	offset := 0
	if p.checkAt(offset, token.VAR) {
		offset++
	}
	if !p.checkAt(offset, token.IDENTIFIER) {
		return false
	}
	return p.checkAt(offset+1, token.OF)
}

// forToWhile desugars `for (init; cond; inc) body` into `{ init; while
// (cond) { body; inc; } }` (spec §4.2.1).
func forToWhile(initializer Stmt, condition Expr, increment Expr, body Stmt) Stmt {
	whileBody := body
	if increment != nil {
		whileBody = &BlockStmt{Stmts: []Stmt{body, &ExpressionStmt{Expr: increment}}}
	}

	if condition == nil {
		condition = &LiteralExpr{Value: NewBool(true)}
	}
	var result Stmt = &WhileStmt{Condition: condition, Body: whileBody}

	if initializer != nil {
		result = &BlockStmt{Stmts: []Stmt{initializer, result}}
	}
	return result
}

func (p *Parser) returnStmt() Stmt {
	keyword := p.previous()
	var value Expr
	if !p.check(token.SEMICOLON) {
		value = p.expression()
	}
	p.consume(token.SEMICOLON, "Expect ';' after return value.")
	return &ReturnStmt{Keyword: keyword, Value: value}
}

func (p *Parser) printStmt() Stmt {
	expr := p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after value.")
	return &PrintStmt{Expr: expr}
}

func (p *Parser) exprStmt() Stmt {
	expr := p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after expression.")
	return &ExpressionStmt{Expr: expr}
}

// blockBody parses `declaration* "}"`, assuming the opening `{` was
// already consumed.
func (p *Parser) blockBody() []Stmt {
	var stmts []Stmt
	for !p.check(token.RIGHT_BRACE) && !p.isAtEnd() {
		if s := p.declaration(); s != nil {
			stmts = append(stmts, s)
		}
	}
	p.consume(token.RIGHT_BRACE, "Expect '}' after block.")
	return stmts
}

// --- expressions, lowest precedence first ---

func (p *Parser) expression() Expr { return p.assignment() }

// assignment handles plain `=` and the compound `+=`/`-=`/`*=`/`/=`
// operators, the latter desugaring into an Assign/Set wrapping the
// equivalent Binary expression (spec §4.4.2). Any left side other than
// a VariableExpr/GetExpr is a syntax error at the `=` token (§4.2.2).
func (p *Parser) assignment() Expr {
	expr := p.logicalOr()

	var compoundOp token.Kind
	switch {
	case p.match(token.EQUAL):
		equals := p.previous()
		value := p.assignment()
		return p.finishAssign(expr, value, equals)
	case p.match(token.PLUS_EQUAL):
		compoundOp = token.PLUS
	case p.match(token.MINUS_EQUAL):
		compoundOp = token.MINUS
	case p.match(token.STAR_EQUAL):
		compoundOp = token.STAR
	case p.match(token.SLASH_EQUAL):
		compoundOp = token.SLASH
	default:
		return expr
	}

	opTok := p.previous()
	binOp := token.Token{Kind: compoundOp, Lexeme: opTok.Lexeme[:1], Line: opTok.Line}
	rhs := p.assignment()
	value := Expr(&BinaryExpr{Left: expr, Op: binOp, Right: rhs})
	return p.finishAssign(expr, value, opTok)
}

func (p *Parser) finishAssign(target Expr, value Expr, equals token.Token) Expr {
	switch t := target.(type) {
	case *VariableExpr:
		return &AssignExpr{Name: t.Name, Value: value}
	case *GetExpr:
		return &SetExpr{Object: t.Object, Name: t.Name, Value: value}
	default:
		p.errorAt(equals, "Invalid assignment target.")
		return target
	}
}

func (p *Parser) logicalOr() Expr {
	expr := p.logicalAnd()
	for p.match(token.OR) {
		op := p.previous()
		right := p.logicalAnd()
		expr = &LogicalExpr{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) logicalAnd() Expr {
	expr := p.equality()
	for p.match(token.AND) {
		op := p.previous()
		right := p.equality()
		expr = &LogicalExpr{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) equality() Expr {
	expr := p.comparison()
	for p.match(token.EQUAL_EQUAL, token.BANG_EQUAL) {
		op := p.previous()
		right := p.comparison()
		expr = &BinaryExpr{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) comparison() Expr {
	expr := p.term()
	for p.match(token.LESS, token.LESS_EQUAL, token.GREATER, token.GREATER_EQUAL) {
		op := p.previous()
		right := p.term()
		expr = &BinaryExpr{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) term() Expr {
	expr := p.factor()
	for p.match(token.PLUS, token.MINUS) {
		op := p.previous()
		right := p.factor()
		expr = &BinaryExpr{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) factor() Expr {
	expr := p.unary()
	for p.match(token.STAR, token.SLASH) {
		op := p.previous()
		right := p.unary()
		expr = &BinaryExpr{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) unary() Expr {
	if p.match(token.BANG, token.MINUS, token.PLUS) {
		op := p.previous()
		right := p.unary()
		return &UnaryExpr{Op: op, Right: right}
	}
	return p.call()
}

// call := primary ( "(" args? ")" | "." IDENT )* (spec §4.2).
func (p *Parser) call() Expr {
	expr := p.primary()
	for {
		switch {
		case p.match(token.LEFT_PAREN):
			expr = p.finishCall(expr)
		case p.match(token.DOT):
			name := p.consume(token.IDENTIFIER, "Expect property name after '.'.")
			expr = &GetExpr{Object: expr, Name: name}
		default:
			return expr
		}
	}
}

func (p *Parser) finishCall(callee Expr) Expr {
	var args []Expr
	if !p.check(token.RIGHT_PAREN) {
		for {
			if len(args) >= 255 {
				p.reportAtCurrent("Can't have more than 255 arguments.")
			}
			args = append(args, p.expression())
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	paren := p.consume(token.RIGHT_PAREN, "Expect ')' after arguments.")
	return &CallExpr{Callee: callee, Paren: paren, Args: args}
}

// primary := NUMBER | STRING | "true" | "false" | "nil" | "(" expression
// ")" | "this" | "super" "." IDENT | IDENT | RANGE (spec §4.2).
func (p *Parser) primary() Expr {
	switch {
	case p.match(token.TRUE):
		return &LiteralExpr{Value: NewBool(true)}
	case p.match(token.FALSE):
		return &LiteralExpr{Value: NewBool(false)}
	case p.match(token.NIL):
		return &LiteralExpr{Value: NilValue}
	case p.match(token.NUMBER):
		tok := p.previous()
		v := tok.Literal.(float64)
		if strings.ContainsRune(tok.Lexeme, '.') {
			return &LiteralExpr{Value: NewFloat(v)}
		}
		return &LiteralExpr{Value: NewInt(v)}
	case p.match(token.STRING):
		return &LiteralExpr{Value: NewString(p.previous().Literal.(string))}
	case p.match(token.RANGE):
		lit := p.previous().Literal.(token.RangeLiteral)
		return &RangeExpr{
			Keyword: p.previous(),
			Start:   &LiteralExpr{Value: NewFloat(lit.Start)},
			Stop:    &LiteralExpr{Value: NewFloat(lit.Stop)},
		}
	case p.match(token.LEFT_PAREN):
		inner := p.expression()
		p.consume(token.RIGHT_PAREN, "Expect ')' after expression.")
		return &GroupingExpr{Inner: inner}
	case p.match(token.THIS):
		return &ThisExpr{Keyword: p.previous()}
	case p.match(token.SUPER):
		keyword := p.previous()
		p.consume(token.DOT, "Expect '.' after 'super'.")
		method := p.consume(token.IDENTIFIER, "Expect superclass method name.")
		return &SuperExpr{Keyword: keyword, Method: method}
	case p.match(token.IDENTIFIER):
		return &VariableExpr{Name: p.previous()}
	default:
		p.errorAtCurrent("Expect expression.")
		return nil
	}
}

// --- cursor helpers ---

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) check(k token.Kind) bool {
	return !p.isAtEnd() && p.peek().Kind == k
}

func (p *Parser) checkAt(offset int, k token.Kind) bool {
	idx := p.current + offset
	if idx >= len(p.tokens) {
		return false
	}
	return p.tokens[idx].Kind == k
}

func (p *Parser) advance() token.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) isAtEnd() bool { return p.peek().Kind == token.EOF }

func (p *Parser) peek() token.Token { return p.tokens[p.current] }

func (p *Parser) previous() token.Token { return p.tokens[p.current-1] }

func (p *Parser) consume(k token.Kind, message string) token.Token {
	if p.check(k) {
		return p.advance()
	}
	p.errorAtCurrent(message)
	return p.peek()
}

func (p *Parser) errorAtCurrent(message string) {
	p.errorAt(p.peek(), message)
}

func (p *Parser) errorAt(tok token.Token, message string) {
	panic(parseError{err: &StaticError{Token: tok, AtEnd: tok.Kind == token.EOF, Message: message}})
}

// reportAtCurrent records a diagnostic without unwinding the parse, for
// violations spec §4.2.3 says to report but not stop parsing on (the
// 255-parameter/255-argument limit). Unlike errorAt/errorAtCurrent this
// never panics, so the caller's loop continues past the offending
// parameter or argument instead of resyncing to the next statement.
func (p *Parser) reportAtCurrent(message string) {
	tok := p.peek()
	p.reporter.Report(&diag.Error{Kind: diag.Parse, Line: tok.Line, Lexeme: tok.Lexeme, AtEnd: tok.Kind == token.EOF, Message: message})
}

// synchronize discards tokens until the next statement boundary: after a
// `;` or before a keyword that starts a declaration/statement (spec
// §4.2.4).
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		if p.previous().Kind == token.SEMICOLON {
			return
		}
		switch p.peek().Kind {
		case token.CLASS, token.DECLARE, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		p.advance()
	}
}
