package parser

import (
	"testing"

	"github.com/aeden/sdq/internal/ast"
	"github.com/aeden/sdq/internal/lexer"
)

func parse(t *testing.T, input string) ast.Expression {
	t.Helper()
	p := New(lexer.New(input))
	expr, errs := p.ParseExpression()
	if len(errs) != 0 {
		t.Fatalf("input %q: unexpected parse errors: %v", input, errs)
	}
	return expr
}

func TestParseExpression_Identity(t *testing.T) {
	expr := parse(t, ".")
	if _, ok := expr.(*ast.Identity); !ok {
		t.Fatalf("got %T", expr)
	}
}

func TestParseExpression_FieldChain(t *testing.T) {
	expr := parse(t, ".a.b")
	outer, ok := expr.(*ast.FieldAccess)
	if !ok {
		t.Fatalf("got %T", expr)
	}
	if outer.Field != "b" {
		t.Fatalf("got field %q", outer.Field)
	}
	inner, ok := outer.Target.(*ast.FieldAccess)
	if !ok {
		t.Fatalf("got target %T", outer.Target)
	}
	if inner.Field != "a" {
		t.Fatalf("got inner field %q", inner.Field)
	}
}

func TestParseExpression_IndexAndSlice(t *testing.T) {
	expr := parse(t, ".a[0]")
	idx, ok := expr.(*ast.IndexAccess)
	if !ok {
		t.Fatalf("got %T", expr)
	}
	lit, ok := idx.Index.(*ast.Literal)
	if !ok || lit.Kind != ast.LitNumber || lit.Number != 0 {
		t.Fatalf("got index %v", idx.Index)
	}

	sliceExpr := parse(t, ".a[1:2]")
	sl, ok := sliceExpr.(*ast.Slice)
	if !ok {
		t.Fatalf("got %T", sliceExpr)
	}
	if sl.Lo == nil || sl.Hi == nil {
		t.Fatalf("expected both bounds present, got %v", sl)
	}

	openSlice := parse(t, ".a[:2]")
	sl2 := openSlice.(*ast.Slice)
	if sl2.Lo != nil {
		t.Fatalf("expected nil Lo, got %v", sl2.Lo)
	}
}

func TestParseExpression_Iterate(t *testing.T) {
	expr := parse(t, ".[]")
	it, ok := expr.(*ast.Iterate)
	if !ok {
		t.Fatalf("got %T", expr)
	}
	if _, ok := it.Target.(*ast.Identity); !ok {
		t.Fatalf("got target %T", it.Target)
	}
}

func TestParseExpression_PipeAndComma(t *testing.T) {
	expr := parse(t, ".a | .b, .c")
	pipe, ok := expr.(*ast.Pipe)
	if !ok {
		t.Fatalf("got %T", expr)
	}
	if _, ok := pipe.Lhs.(*ast.FieldAccess); !ok {
		t.Fatalf("got lhs %T", pipe.Lhs)
	}
	if _, ok := pipe.Rhs.(*ast.Comma); !ok {
		t.Fatalf("got rhs %T", pipe.Rhs)
	}
}

func TestParseExpression_BinaryPrecedence(t *testing.T) {
	// 1 + 2 * 3 should group as 1 + (2 * 3)
	expr := parse(t, "1 + 2 * 3")
	b, ok := expr.(*ast.Binary)
	if !ok || b.Op != ast.BinAdd {
		t.Fatalf("got %T / %v", expr, expr)
	}
	rhs, ok := b.Rhs.(*ast.Binary)
	if !ok || rhs.Op != ast.BinMul {
		t.Fatalf("expected multiplicative rhs, got %T", b.Rhs)
	}
}

func TestParseExpression_ComparisonNonAssociative(t *testing.T) {
	p := New(lexer.New("1 < 2 < 3"))
	_, errs := p.ParseExpression()
	if len(errs) == 0 {
		t.Fatalf("expected a parse error for chained comparison")
	}
}

func TestParseExpression_Assign(t *testing.T) {
	expr := parse(t, ".a = 1")
	a, ok := expr.(*ast.Assign)
	if !ok {
		t.Fatalf("got %T", expr)
	}
	if _, ok := a.Path.(*ast.FieldAccess); !ok {
		t.Fatalf("got path %T", a.Path)
	}
}

func TestParseExpression_UpdateAssign(t *testing.T) {
	expr := parse(t, ".a |= . + 1")
	u, ok := expr.(*ast.UpdateAssign)
	if !ok {
		t.Fatalf("got %T", expr)
	}
	if _, ok := u.Rhs.(*ast.Binary); !ok {
		t.Fatalf("got rhs %T", u.Rhs)
	}
}

func TestParseExpression_BuiltinCall(t *testing.T) {
	expr := parse(t, "map(.[], . * 2)")
	b, ok := expr.(*ast.Builtin)
	if !ok {
		t.Fatalf("got %T", expr)
	}
	if b.Name != "map" || len(b.Args) != 2 {
		t.Fatalf("got %v", b)
	}
}

func TestParseExpression_BareBuiltinNoParens(t *testing.T) {
	expr := parse(t, "keys")
	b, ok := expr.(*ast.Builtin)
	if !ok {
		t.Fatalf("got %T", expr)
	}
	if b.Name != "keys" || len(b.Args) != 0 {
		t.Fatalf("got %v", b)
	}
}

func TestParseExpression_ObjectConstructor(t *testing.T) {
	expr := parse(t, `{a: .x, b: 1}`)
	o, ok := expr.(*ast.Object)
	if !ok {
		t.Fatalf("got %T", expr)
	}
	if len(o.Entries) != 2 {
		t.Fatalf("got %d entries", len(o.Entries))
	}
}

func TestParseExpression_ArrayConstructor(t *testing.T) {
	expr := parse(t, `[.[]]`)
	a, ok := expr.(*ast.Array)
	if !ok {
		t.Fatalf("got %T", expr)
	}
	if _, ok := a.Inner.(*ast.Iterate); !ok {
		t.Fatalf("got inner %T", a.Inner)
	}
}

func TestParseExpression_EmptyArrayConstructor(t *testing.T) {
	expr := parse(t, `[]`)
	a, ok := expr.(*ast.Array)
	if !ok || a.Inner != nil {
		t.Fatalf("got %v", expr)
	}
}

func TestParseExpression_Alternative(t *testing.T) {
	expr := parse(t, ".a // .b")
	b, ok := expr.(*ast.Binary)
	if !ok || b.Op != ast.BinAlt {
		t.Fatalf("got %T / %v", expr, expr)
	}
}

// TestParseExpression_StringRoundTrip checks that String() renders a
// canonical form the parser accepts back to an identical rendering —
// re-parsing the rendering is a fixed point.
func TestParseExpression_StringRoundTrip(t *testing.T) {
	inputs := []string{
		".",
		".a.b",
		".a[0]",
		".a[1:2]",
		".[]",
		"1 + 2 * 3",
		"keys",
		"map(.[], . * 2)",
		"{a: .x, b: 1}",
		"[.[] | .n]",
		".a = 1, .b |= . + 1",
		".a // .b",
		"not .a and .b",
	}
	for _, in := range inputs {
		first := parse(t, in).String()
		second := parse(t, first).String()
		if first != second {
			t.Fatalf("input %q: rendering not a fixed point: %q -> %q", in, first, second)
		}
	}
}
