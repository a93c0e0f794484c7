// Package parser turns a token stream into an expression AST.
//
// The grammar is parsed as an explicit ladder of precedence levels
// (Pipe > Comma > Assignment > Alternative > Or > And > Comparison >
// Additive > Multiplicative > Unary > Postfix > Primary, low to high)
// rather than a generic Pratt table: the fixed, small precedence list
// reads more directly as one function per level than as
// prefix/infix maps keyed by token, and it makes the two grammar
// wrinkles below easy to express as "skip a level" rather than special
// cases bolted onto a generic loop.
//
// Two wrinkles the ladder resolves by construction:
//
//   - Comparison is non-associative: a chained `a < b < c` is a parse
//     error, not left- or right-folded.
//   - Builtin call arguments and object-constructor values are
//     separated by a literal `,`, which is also the Comma
//     concatenation operator at top level. Parsing those positions one
//     level tighter than Comma (but still including Pipe) resolves the
//     ambiguity: a bare `,` there always ends the argument/value, and
//     `(a, b)` still works if concatenation is genuinely wanted there.
package parser

import (
	"fmt"

	"github.com/aeden/sdq/internal/ast"
	"github.com/aeden/sdq/internal/lexer"
)

// Parser builds an ast.Expression from a token stream. It never panics;
// syntax errors accumulate in Errors() rather than aborting the parse.
type Parser struct {
	l *lexer.Lexer

	curToken  lexer.Token
	peekToken lexer.Token

	errors []*ParseError
}

// New creates a Parser over the tokens produced by l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.nextToken()
	p.nextToken()
	return p
}

// Errors returns all syntax errors accumulated while parsing.
func (p *Parser) Errors() []*ParseError {
	return p.errors
}

func (p *Parser) addError(msg string, pos lexer.Position) {
	p.errors = append(p.errors, &ParseError{Message: msg, Pos: pos})
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

// expectPeek checks that peekToken has type t; if so it advances and
// returns true, otherwise it records a parse error and returns false.
func (p *Parser) expectPeek(t lexer.TokenType) bool {
	if p.peekToken.Type == t {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf("expected %s, got %s", t, p.peekToken.Type), p.peekToken.Pos)
	return false
}

// ParseExpression parses a single complete expression from the whole
// token stream, reporting a trailing-input error if anything is left
// over. It is the sole entry point used by callers outside this
// package.
func (p *Parser) ParseExpression() (ast.Expression, []*ParseError) {
	if p.curToken.Type == lexer.EOF {
		p.addError("empty expression", p.curToken.Pos)
		return nil, p.errors
	}
	expr := p.parsePipe()
	if p.peekToken.Type != lexer.EOF {
		p.addError(fmt.Sprintf("unexpected trailing token %s", p.peekToken.Type), p.peekToken.Pos)
	}
	return expr, p.errors
}

// parsePipeLevel implements the `x (| x)*` shape shared by the two
// places a literal pipe is meaningful: the full top-level grammar
// (next = parseComma) and the comma-restricted argument/value grammar
// (next = parseAssignment).
func (p *Parser) parsePipeLevel(next func() ast.Expression) ast.Expression {
	left := next()
	if left == nil {
		return nil
	}
	for p.peekToken.Type == lexer.PIPE {
		pos := p.peekToken.Pos
		p.nextToken()
		p.nextToken()
		right := next()
		if right == nil {
			return left
		}
		left = ast.NewPipe(pos, left, right)
	}
	return left
}

func (p *Parser) parsePipe() ast.Expression { return p.parsePipeLevel(p.parseComma) }

// parseArgExpr is the grammar used inside `(...)` call-argument lists
// and `{key: value}` object values: full pipe/assignment/.../postfix
// grammar, minus the Comma level, since a bare comma there is a
// separator, not an operator.
func (p *Parser) parseArgExpr() ast.Expression { return p.parsePipeLevel(p.parseAssignment) }

func (p *Parser) parseComma() ast.Expression {
	left := p.parseAssignment()
	if left == nil {
		return nil
	}
	for p.peekToken.Type == lexer.COMMA {
		pos := p.peekToken.Pos
		p.nextToken()
		p.nextToken()
		right := p.parseAssignment()
		if right == nil {
			return left
		}
		left = ast.NewComma(pos, left, right)
	}
	return left
}

func (p *Parser) parseAssignment() ast.Expression {
	left := p.parseAlternative()
	if left == nil {
		return nil
	}
	switch p.peekToken.Type {
	case lexer.EQ:
		pos := p.peekToken.Pos
		p.nextToken()
		p.nextToken()
		rhs := p.parseAssignment()
		if rhs == nil {
			return left
		}
		if !isValidPathTarget(left) {
			p.addError("left-hand side of = is not a path expression", left.Pos())
		}
		return ast.NewAssign(pos, left, rhs)
	case lexer.PIPE_EQ:
		pos := p.peekToken.Pos
		p.nextToken()
		p.nextToken()
		rhs := p.parseAssignment()
		if rhs == nil {
			return left
		}
		if !isValidPathTarget(left) {
			p.addError("left-hand side of |= is not a path expression", left.Pos())
		}
		return ast.NewUpdateAssign(pos, left, rhs)
	}
	return left
}

// isValidPathTarget is a best-effort syntactic check used only to
// surface an early parse-time diagnostic; the authoritative check
// happens at path-resolution time (the grammar alone can't rule out
// things like `(a,b) = 1`, since a could itself be a path).
func isValidPathTarget(e ast.Expression) bool {
	switch e.(type) {
	case *ast.Identity, *ast.FieldAccess, *ast.IndexAccess, *ast.Slice, *ast.Iterate, *ast.Pipe, *ast.Comma:
		return true
	default:
		return false
	}
}

func (p *Parser) parseAlternative() ast.Expression {
	left := p.parseOr()
	if left == nil {
		return nil
	}
	if p.peekToken.Type == lexer.SLASHSLASH {
		pos := p.peekToken.Pos
		p.nextToken()
		p.nextToken()
		rhs := p.parseAlternative()
		if rhs == nil {
			return left
		}
		return ast.NewBinary(pos, ast.BinAlt, left, rhs)
	}
	return left
}

func (p *Parser) parseOr() ast.Expression {
	left := p.parseAnd()
	if left == nil {
		return nil
	}
	for p.peekToken.Type == lexer.OR {
		pos := p.peekToken.Pos
		p.nextToken()
		p.nextToken()
		right := p.parseAnd()
		if right == nil {
			return left
		}
		left = ast.NewBinary(pos, ast.BinOr, left, right)
	}
	return left
}

func (p *Parser) parseAnd() ast.Expression {
	left := p.parseComparison()
	if left == nil {
		return nil
	}
	for p.peekToken.Type == lexer.AND {
		pos := p.peekToken.Pos
		p.nextToken()
		p.nextToken()
		right := p.parseComparison()
		if right == nil {
			return left
		}
		left = ast.NewBinary(pos, ast.BinAnd, left, right)
	}
	return left
}

var comparisonOps = map[lexer.TokenType]ast.BinaryOp{
	lexer.EQ_EQ:  ast.BinEq,
	lexer.NOT_EQ: ast.BinNotEq,
	lexer.LT:     ast.BinLt,
	lexer.LE:     ast.BinLe,
	lexer.GT:     ast.BinGt,
	lexer.GE:     ast.BinGe,
}

func (p *Parser) parseComparison() ast.Expression {
	left := p.parseAdditive()
	if left == nil {
		return nil
	}
	op, ok := comparisonOps[p.peekToken.Type]
	if !ok {
		return left
	}
	pos := p.peekToken.Pos
	p.nextToken()
	p.nextToken()
	right := p.parseAdditive()
	if right == nil {
		return left
	}
	result := ast.NewBinary(pos, op, left, right)
	if _, again := comparisonOps[p.peekToken.Type]; again {
		p.addError("comparison operators do not chain; parenthesize to disambiguate", p.peekToken.Pos)
	}
	return result
}

func (p *Parser) parseAdditive() ast.Expression {
	left := p.parseMultiplicative()
	if left == nil {
		return nil
	}
	for p.peekToken.Type == lexer.PLUS || p.peekToken.Type == lexer.MINUS {
		op := ast.BinAdd
		if p.peekToken.Type == lexer.MINUS {
			op = ast.BinSub
		}
		pos := p.peekToken.Pos
		p.nextToken()
		p.nextToken()
		right := p.parseMultiplicative()
		if right == nil {
			return left
		}
		left = ast.NewBinary(pos, op, left, right)
	}
	return left
}

var multiplicativeOps = map[lexer.TokenType]ast.BinaryOp{
	lexer.STAR:    ast.BinMul,
	lexer.SLASH:   ast.BinDiv,
	lexer.PERCENT: ast.BinMod,
}

func (p *Parser) parseMultiplicative() ast.Expression {
	left := p.parseUnary()
	if left == nil {
		return nil
	}
	for {
		op, ok := multiplicativeOps[p.peekToken.Type]
		if !ok {
			return left
		}
		pos := p.peekToken.Pos
		p.nextToken()
		p.nextToken()
		right := p.parseUnary()
		if right == nil {
			return left
		}
		left = ast.NewBinary(pos, op, left, right)
	}
}

func (p *Parser) parseUnary() ast.Expression {
	switch p.curToken.Type {
	case lexer.MINUS:
		pos := p.curToken.Pos
		p.nextToken()
		arg := p.parseUnary()
		if arg == nil {
			return nil
		}
		return ast.NewUnary(pos, ast.UnaryNeg, arg)
	case lexer.NOT:
		pos := p.curToken.Pos
		p.nextToken()
		arg := p.parseUnary()
		if arg == nil {
			return nil
		}
		return ast.NewUnary(pos, ast.UnaryNot, arg)
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() ast.Expression {
	left := p.parsePrimary()
	if left == nil {
		return nil
	}
	for {
		switch p.peekToken.Type {
		case lexer.DOT:
			dotPos := p.peekToken.Pos
			p.nextToken()
			if p.peekToken.Type != lexer.IDENT {
				p.addError("expected field name after '.'", p.peekToken.Pos)
				return left
			}
			p.nextToken()
			left = ast.NewFieldAccess(dotPos, left, p.curToken.Literal)
		case lexer.LBRACKET:
			p.nextToken()
			left = p.parseBracketPostfix(left)
		default:
			return left
		}
	}
}

// parseBracketPostfix parses `[ ]`, `[expr]`, `[lo:hi]`, `[:hi]`, or
// `[lo:]` applied to target. Precondition: curToken is the LBRACKET.
func (p *Parser) parseBracketPostfix(target ast.Expression) ast.Expression {
	lbracketPos := p.curToken.Pos

	if p.peekToken.Type == lexer.RBRACKET {
		p.nextToken()
		return ast.NewIterate(lbracketPos, target)
	}
	if p.peekToken.Type == lexer.COLON {
		p.nextToken()
		return p.finishSlice(lbracketPos, target, nil)
	}

	p.nextToken()
	first := p.parseArgExpr()
	if first == nil {
		return target
	}

	if p.peekToken.Type == lexer.COLON {
		p.nextToken()
		return p.finishSlice(lbracketPos, target, first)
	}

	if !p.expectPeek(lexer.RBRACKET) {
		return target
	}
	return ast.NewIndexAccess(lbracketPos, target, first)
}

// finishSlice parses the `hi]` or `]` remainder of a slice once the
// colon has been consumed. Precondition: curToken is the COLON.
func (p *Parser) finishSlice(lbracketPos lexer.Position, target, lo ast.Expression) ast.Expression {
	if p.peekToken.Type == lexer.RBRACKET {
		p.nextToken()
		return ast.NewSlice(lbracketPos, target, lo, nil)
	}
	p.nextToken()
	hi := p.parseArgExpr()
	if hi == nil {
		return target
	}
	if !p.expectPeek(lexer.RBRACKET) {
		return target
	}
	return ast.NewSlice(lbracketPos, target, lo, hi)
}

func (p *Parser) parsePrimary() ast.Expression {
	switch p.curToken.Type {
	case lexer.DOT:
		return p.parseDotExpr()
	case lexer.LBRACKET:
		return p.parseArrayConstructor()
	case lexer.LBRACE:
		return p.parseObjectConstructor()
	case lexer.LPAREN:
		p.nextToken()
		inner := p.parsePipe()
		if inner == nil {
			return nil
		}
		if !p.expectPeek(lexer.RPAREN) {
			return nil
		}
		return inner
	case lexer.NUMBER:
		return p.parseNumberLiteral()
	case lexer.STRING:
		return ast.NewStringLiteral(p.curToken.Pos, p.curToken.Literal)
	case lexer.TRUE:
		return ast.NewBoolLiteral(p.curToken.Pos, true)
	case lexer.FALSE:
		return ast.NewBoolLiteral(p.curToken.Pos, false)
	case lexer.NULL:
		return ast.NewNullLiteral(p.curToken.Pos)
	case lexer.IDENT:
		return p.parseIdentExpr()
	default:
		p.addError(fmt.Sprintf("unexpected token %s", p.curToken.Type), p.curToken.Pos)
		return nil
	}
}

// parseDotExpr handles a `.` in primary position: bare identity, the
// `.field` sugar for `Identity.field`, and the `.[...]` sugar for
// indexing/slicing/iterating Identity. Precondition: curToken is DOT.
func (p *Parser) parseDotExpr() ast.Expression {
	dotPos := p.curToken.Pos
	switch p.peekToken.Type {
	case lexer.IDENT:
		p.nextToken()
		return ast.NewFieldAccess(dotPos, ast.NewIdentity(dotPos), p.curToken.Literal)
	case lexer.LBRACKET:
		p.nextToken()
		return p.parseBracketPostfix(ast.NewIdentity(dotPos))
	default:
		return ast.NewIdentity(dotPos)
	}
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	lit := p.curToken.Literal
	pos := p.curToken.Pos
	isInt := true
	for _, r := range lit {
		if r == '.' || r == 'e' || r == 'E' {
			isInt = false
			break
		}
	}
	var n float64
	if _, err := fmt.Sscanf(lit, "%g", &n); err != nil {
		p.addError(fmt.Sprintf("invalid number literal %q", lit), pos)
		return nil
	}
	return ast.NewNumberLiteral(pos, n, isInt)
}

// parseIdentExpr resolves a bare identifier at primary position. Per
// the identifier resolution rule, it is a builtin call if the name
// names one (optionally followed by a parenthesized argument list);
// any other bare identifier here is a parse error, since field access
// always goes through `.field`.
func (p *Parser) parseIdentExpr() ast.Expression {
	name := p.curToken.Literal
	pos := p.curToken.Pos
	if !ast.IsBuiltinName(name) {
		p.addError(fmt.Sprintf("%q is not a builtin; use .%s for field access", name, name), pos)
		return nil
	}
	if p.peekToken.Type != lexer.LPAREN {
		return ast.NewBuiltin(pos, name, nil)
	}
	p.nextToken()
	args := p.parseCallArgs()
	return ast.NewBuiltin(pos, name, args)
}

// parseCallArgs parses a comma-separated argument list. Precondition:
// curToken is the LPAREN; postcondition: curToken is the RPAREN.
func (p *Parser) parseCallArgs() []ast.Expression {
	var args []ast.Expression
	if p.peekToken.Type == lexer.RPAREN {
		p.nextToken()
		return args
	}
	p.nextToken()
	arg := p.parseArgExpr()
	if arg != nil {
		args = append(args, arg)
	}
	for p.peekToken.Type == lexer.COMMA {
		p.nextToken()
		p.nextToken()
		arg := p.parseArgExpr()
		if arg != nil {
			args = append(args, arg)
		}
	}
	p.expectPeek(lexer.RPAREN)
	return args
}

// parseArrayConstructor parses `[ ]` or `[ expr ]`, where expr uses the
// full pipe/comma grammar. Precondition: curToken is the LBRACKET.
func (p *Parser) parseArrayConstructor() ast.Expression {
	pos := p.curToken.Pos
	if p.peekToken.Type == lexer.RBRACKET {
		p.nextToken()
		return ast.NewArray(pos, nil)
	}
	p.nextToken()
	inner := p.parsePipe()
	if inner == nil {
		return nil
	}
	if !p.expectPeek(lexer.RBRACKET) {
		return nil
	}
	return ast.NewArray(pos, inner)
}

// parseObjectConstructor parses `{ }` or `{ key: value, ... }`.
// Precondition: curToken is the LBRACE.
func (p *Parser) parseObjectConstructor() ast.Expression {
	pos := p.curToken.Pos
	var entries []ast.ObjectEntry
	if p.peekToken.Type == lexer.RBRACE {
		p.nextToken()
		return ast.NewObject(pos, entries)
	}
	p.nextToken()
	for {
		key := p.parseObjectKey()
		if key == nil {
			return nil
		}
		if !p.expectPeek(lexer.COLON) {
			return nil
		}
		p.nextToken()
		value := p.parseArgExpr()
		if value == nil {
			return nil
		}
		entries = append(entries, ast.ObjectEntry{Key: key, Value: value})
		if p.peekToken.Type != lexer.COMMA {
			break
		}
		p.nextToken()
		p.nextToken()
	}
	if !p.expectPeek(lexer.RBRACE) {
		return nil
	}
	return ast.NewObject(pos, entries)
}

// parseObjectKey parses a bare identifier, a quoted string, or a
// parenthesized computed-key expression.
func (p *Parser) parseObjectKey() ast.Expression {
	switch p.curToken.Type {
	case lexer.IDENT:
		return ast.NewStringLiteral(p.curToken.Pos, p.curToken.Literal)
	case lexer.STRING:
		return ast.NewStringLiteral(p.curToken.Pos, p.curToken.Literal)
	case lexer.LPAREN:
		p.nextToken()
		key := p.parsePipe()
		if key == nil {
			return nil
		}
		if !p.expectPeek(lexer.RPAREN) {
			return nil
		}
		return key
	default:
		p.addError(fmt.Sprintf("expected object key, got %s", p.curToken.Type), p.curToken.Pos)
		return nil
	}
}
