// Package ast defines the Expression node types produced by the parser.
package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aeden/sdq/internal/lexer"
)

// Node is the base interface implemented by every AST node.
type Node interface {
	// String returns a canonical, re-parseable rendering of the node:
	// parsing the rendering yields an equal AST.
	String() string
	// Pos returns the node's source position for error reporting.
	Pos() lexer.Position
}

// Expression is any node that the evaluator can run against a Value.
type Expression interface {
	Node
	exprNode()
}

type base struct {
	pos lexer.Position
}

func (b base) Pos() lexer.Position { return b.pos }

// Identity is `.`.
type Identity struct {
	base
}

func NewIdentity(pos lexer.Position) *Identity { return &Identity{base{pos}} }
func (*Identity) exprNode()                    {}
func (*Identity) String() string               { return "." }

// LiteralKind distinguishes the literal's underlying Go type.
type LiteralKind int

const (
	LitNull LiteralKind = iota
	LitBool
	LitNumber
	LitString
)

// Literal is a constant null/bool/number/string value.
type Literal struct {
	base
	Kind   LiteralKind
	Bool   bool
	Number float64
	IsInt  bool
	Str    string
}

func NewNullLiteral(pos lexer.Position) *Literal { return &Literal{base: base{pos}, Kind: LitNull} }
func NewBoolLiteral(pos lexer.Position, b bool) *Literal {
	return &Literal{base: base{pos}, Kind: LitBool, Bool: b}
}
func NewNumberLiteral(pos lexer.Position, n float64, isInt bool) *Literal {
	return &Literal{base: base{pos}, Kind: LitNumber, Number: n, IsInt: isInt}
}
func NewStringLiteral(pos lexer.Position, s string) *Literal {
	return &Literal{base: base{pos}, Kind: LitString, Str: s}
}

func (*Literal) exprNode() {}
func (l *Literal) String() string {
	switch l.Kind {
	case LitNull:
		return "null"
	case LitBool:
		if l.Bool {
			return "true"
		}
		return "false"
	case LitNumber:
		if l.IsInt {
			return strconv.FormatInt(int64(l.Number), 10)
		}
		return strconv.FormatFloat(l.Number, 'g', -1, 64)
	case LitString:
		return strconv.Quote(l.Str)
	}
	return "?"
}

// FieldAccess is `target.field`.
type FieldAccess struct {
	base
	Target Expression
	Field  string
}

func NewFieldAccess(pos lexer.Position, target Expression, field string) *FieldAccess {
	return &FieldAccess{base{pos}, target, field}
}
func (*FieldAccess) exprNode() {}
func (f *FieldAccess) String() string {
	if _, ok := f.Target.(*Identity); ok {
		return "." + f.Field
	}
	return f.Target.String() + "." + f.Field
}

// IndexAccess is `target[indexExpr]`.
type IndexAccess struct {
	base
	Target Expression
	Index  Expression
}

func NewIndexAccess(pos lexer.Position, target, index Expression) *IndexAccess {
	return &IndexAccess{base{pos}, target, index}
}
func (*IndexAccess) exprNode() {}
func (x *IndexAccess) String() string {
	return fmt.Sprintf("%s[%s]", x.Target.String(), x.Index.String())
}

// Slice is `target[lo:hi]`; Lo/Hi are nil when omitted.
type Slice struct {
	base
	Target Expression
	Lo, Hi Expression
}

func NewSlice(pos lexer.Position, target, lo, hi Expression) *Slice {
	return &Slice{base{pos}, target, lo, hi}
}
func (*Slice) exprNode() {}
func (s *Slice) String() string {
	lo, hi := "", ""
	if s.Lo != nil {
		lo = s.Lo.String()
	}
	if s.Hi != nil {
		hi = s.Hi.String()
	}
	return fmt.Sprintf("%s[%s:%s]", s.Target.String(), lo, hi)
}

// Iterate is `target[]`, a multi-output expansion.
type Iterate struct {
	base
	Target Expression
}

func NewIterate(pos lexer.Position, target Expression) *Iterate { return &Iterate{base{pos}, target} }
func (*Iterate) exprNode()                                      {}
func (it *Iterate) String() string                              { return it.Target.String() + "[]" }

// Pipe is `lhs | rhs`.
type Pipe struct {
	base
	Lhs, Rhs Expression
}

func NewPipe(pos lexer.Position, lhs, rhs Expression) *Pipe { return &Pipe{base{pos}, lhs, rhs} }
func (*Pipe) exprNode()                                     {}
func (p *Pipe) String() string                              { return p.Lhs.String() + " | " + p.Rhs.String() }

// Comma concatenates the output sequences of lhs and rhs.
type Comma struct {
	base
	Lhs, Rhs Expression
}

func NewComma(pos lexer.Position, lhs, rhs Expression) *Comma { return &Comma{base{pos}, lhs, rhs} }
func (*Comma) exprNode()                                      {}
func (c *Comma) String() string                               { return c.Lhs.String() + ", " + c.Rhs.String() }

// Array is `[ inner ]`: collects inner's outputs into one array.
type Array struct {
	base
	Inner Expression // nil for the empty array literal `[]`
}

func NewArray(pos lexer.Position, inner Expression) *Array { return &Array{base{pos}, inner} }
func (*Array) exprNode()                                   {}
func (a *Array) String() string {
	if a.Inner == nil {
		return "[]"
	}
	return "[" + a.Inner.String() + "]"
}

// ObjectEntry is one `key: value` pair in an Object constructor.
type ObjectEntry struct {
	Key   Expression
	Value Expression
}

// Object is `{ k: v, ... }`.
type Object struct {
	base
	Entries []ObjectEntry
}

func NewObject(pos lexer.Position, entries []ObjectEntry) *Object { return &Object{base{pos}, entries} }
func (*Object) exprNode()                                         {}
func (o *Object) String() string {
	parts := make([]string, len(o.Entries))
	for i, e := range o.Entries {
		parts[i] = e.Key.String() + ": " + e.Value.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// UnaryOp identifies a unary operator.
type UnaryOp int

const (
	UnaryNeg UnaryOp = iota
	UnaryNot
)

// Unary is `-arg` or `not arg`.
type Unary struct {
	base
	Op  UnaryOp
	Arg Expression
}

func NewUnary(pos lexer.Position, op UnaryOp, arg Expression) *Unary { return &Unary{base{pos}, op, arg} }
func (*Unary) exprNode()                                             {}
func (u *Unary) String() string {
	if u.Op == UnaryNot {
		return "not " + u.Arg.String()
	}
	return "-" + u.Arg.String()
}

// BinaryOp identifies a binary operator.
type BinaryOp int

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinEq
	BinNotEq
	BinLt
	BinLe
	BinGt
	BinGe
	BinAnd
	BinOr
	BinAlt // //
)

var binaryOpSymbols = map[BinaryOp]string{
	BinAdd: "+", BinSub: "-", BinMul: "*", BinDiv: "/", BinMod: "%",
	BinEq: "==", BinNotEq: "!=", BinLt: "<", BinLe: "<=", BinGt: ">", BinGe: ">=",
	BinAnd: "and", BinOr: "or", BinAlt: "//",
}

// Binary is `lhs op rhs`.
type Binary struct {
	base
	Op       BinaryOp
	Lhs, Rhs Expression
}

func NewBinary(pos lexer.Position, op BinaryOp, lhs, rhs Expression) *Binary {
	return &Binary{base{pos}, op, lhs, rhs}
}
func (*Binary) exprNode() {}
func (b *Binary) String() string {
	return fmt.Sprintf("%s %s %s", b.Lhs.String(), binaryOpSymbols[b.Op], b.Rhs.String())
}

// Assign is `path = rhs`.
type Assign struct {
	base
	Path Expression
	Rhs  Expression
}

func NewAssign(pos lexer.Position, path, rhs Expression) *Assign { return &Assign{base{pos}, path, rhs} }
func (*Assign) exprNode()                                        {}
func (a *Assign) String() string                                 { return a.Path.String() + " = " + a.Rhs.String() }

// UpdateAssign is `path |= rhs`.
type UpdateAssign struct {
	base
	Path Expression
	Rhs  Expression
}

func NewUpdateAssign(pos lexer.Position, path, rhs Expression) *UpdateAssign {
	return &UpdateAssign{base{pos}, path, rhs}
}
func (*UpdateAssign) exprNode() {}
func (a *UpdateAssign) String() string {
	return a.Path.String() + " |= " + a.Rhs.String()
}

// Builtin is a call to one of the built-in functions.
type Builtin struct {
	base
	Name string
	Args []Expression
}

func NewBuiltin(pos lexer.Position, name string, args []Expression) *Builtin {
	return &Builtin{base{pos}, name, args}
}
func (*Builtin) exprNode() {}
func (b *Builtin) String() string {
	if len(b.Args) == 0 {
		return b.Name
	}
	parts := make([]string, len(b.Args))
	for i, a := range b.Args {
		parts[i] = a.String()
	}
	return b.Name + "(" + strings.Join(parts, ", ") + ")"
}

// BuiltinNames is the set of identifiers the parser resolves to a Builtin
// node rather than rejecting as an undeclared bare identifier.
var BuiltinNames = map[string]bool{
	"keys": true, "length": true, "type": true, "has": true,
	"sort": true, "reverse": true, "unique": true, "flatten": true,
	"first": true, "last": true, "add": true,
	"tostring": true, "tonumber": true, "env": true,
	"map": true, "filter": true, "select": true, "group_by": true,
	"to_entries": true, "from_entries": true,
	"any": true, "all": true, "min": true, "max": true,
	"min_by": true, "max_by": true, "sort_by": true, "range": true,
	"split": true, "join": true, "startswith": true, "endswith": true,
	"ltrimstr": true, "rtrimstr": true, "contains": true,
	"ascii_downcase": true, "ascii_upcase": true,
	"explode": true, "implode": true, "values": true,
	"abs": true, "floor": true, "ceil": true, "round": true,
}

// IsBuiltinName reports whether name resolves to a builtin call at
// primary position.
func IsBuiltinName(name string) bool { return BuiltinNames[name] }
