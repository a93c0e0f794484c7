package eval

import (
	"testing"

	"github.com/aeden/sdq/internal/ast"
	"github.com/aeden/sdq/internal/lexer"
	"github.com/aeden/sdq/internal/parser"
	"github.com/aeden/sdq/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) ast.Expression {
	t.Helper()
	p := parser.New(lexer.New(src))
	expr, errs := p.ParseExpression()
	require.Empty(t, errs, "unexpected parse errors for %q", src)
	return expr
}

func evalOne(t *testing.T, src string, input value.Value) value.Value {
	t.Helper()
	out, err := Eval(mustParse(t, src), input, NewEnv())
	require.NoError(t, err)
	require.Len(t, out, 1, "expected exactly one output for %q", src)
	return out[0]
}

// TestScenarios covers the end-to-end scenario table from the testable
// properties section: field/index/slice access, map/filter/select
// composition, object construction, and updates.
func TestScenarios(t *testing.T) {
	t.Run("field and index access", func(t *testing.T) {
		doc := value.Object().WithField("a", value.Object().WithField("b",
			value.Array([]value.Value{value.Int(10), value.Int(20), value.Int(30)})))
		got := evalOne(t, ".a.b[1]", doc)
		assert.True(t, value.Equal(got, value.Int(20)))
	})

	t.Run("map doubles every element", func(t *testing.T) {
		arr := value.Array([]value.Value{value.Int(1), value.Int(2), value.Int(3), value.Int(4), value.Int(5)})
		got := evalOne(t, "map(., . * 2)", arr)
		want := value.Array([]value.Value{value.Int(2), value.Int(4), value.Int(6), value.Int(8), value.Int(10)})
		assert.True(t, value.Equal(got, want))
	})

	t.Run("iterate, select, field extraction", func(t *testing.T) {
		doc := value.Array([]value.Value{
			value.Object().WithField("v", value.Int(1)).WithField("n", value.String("one")),
			value.Object().WithField("v", value.Int(2)).WithField("n", value.String("two")),
			value.Object().WithField("v", value.Int(3)).WithField("n", value.String("three")),
		})
		out, err := Eval(mustParse(t, ".[] | select(.v > 1) | .n"), doc, NewEnv())
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.True(t, value.Equal(out[0], value.String("two")))
		assert.True(t, value.Equal(out[1], value.String("three")))
	})

	t.Run("assign through path", func(t *testing.T) {
		doc := value.Object().WithField("count", value.Int(5))
		got := evalOne(t, ".count = 10", doc)
		v, ok := got.Field("count")
		require.True(t, ok)
		assert.True(t, value.Equal(v, value.Int(10)))
	})

	t.Run("update-assign rebinds input per path", func(t *testing.T) {
		doc := value.Object().WithField("count", value.Int(5))
		got := evalOne(t, ".count |= . + 1", doc)
		v, ok := got.Field("count")
		require.True(t, ok)
		assert.True(t, value.Equal(v, value.Int(6)))
	})
}

// TestAssign_MultiValueRhsYieldsMultipleOutputs checks that
// `path = rhs` produces one output document per rhs value, rather
// than erroring when rhs is not a single value.
func TestAssign_MultiValueRhsYieldsMultipleOutputs(t *testing.T) {
	doc := value.Object().WithField("count", value.Int(5))
	out, err := Eval(mustParse(t, ".count = (1, 2)"), doc, NewEnv())
	require.NoError(t, err)
	require.Len(t, out, 2)

	v0, ok := out[0].Field("count")
	require.True(t, ok)
	assert.True(t, value.Equal(v0, value.Int(1)))

	v1, ok := out[1].Field("count")
	require.True(t, ok)
	assert.True(t, value.Equal(v1, value.Int(2)))
}

// TestUpdateAssign_UsesFirstValueOfRhsSequence checks that
// `path |= rhs` keeps only the first value of a multi-valued rhs.
func TestUpdateAssign_UsesFirstValueOfRhsSequence(t *testing.T) {
	doc := value.Object().WithField("count", value.Int(5))
	got := evalOne(t, ".count |= (10, 20)", doc)
	v, ok := got.Field("count")
	require.True(t, ok)
	assert.True(t, value.Equal(v, value.Int(10)))
}

// TestUpdateAssign_EmptyRhsSequenceLeavesPathUnchanged: when rhs produces
// no values at all for a given path, that path is left unchanged
// rather than erroring.
func TestUpdateAssign_EmptyRhsSequenceLeavesPathUnchanged(t *testing.T) {
	doc := value.Object().WithField("count", value.Int(5))
	got := evalOne(t, ".count |= select(false)", doc)
	v, ok := got.Field("count")
	require.True(t, ok)
	assert.True(t, value.Equal(v, value.Int(5)))
}

func TestEval_Identity(t *testing.T) {
	doc := value.Int(42)
	got := evalOne(t, ".", doc)
	assert.True(t, value.Equal(got, doc))
}

func TestEval_Pipe(t *testing.T) {
	doc := value.Object().WithField("a", value.Int(5))
	got := evalOne(t, ".a | . + 1", doc)
	assert.True(t, value.Equal(got, value.Int(6)))
}

func TestEval_Comma_ConcatenatesOutputs(t *testing.T) {
	doc := value.Null()
	out, err := Eval(mustParse(t, "1, 2, 3"), doc, NewEnv())
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.True(t, value.Equal(out[0], value.Int(1)))
	assert.True(t, value.Equal(out[2], value.Int(3)))
}

func TestEval_Iterate_ExpandsArrayAndObject(t *testing.T) {
	arr := value.Array([]value.Value{value.Int(1), value.Int(2)})
	out, err := Eval(mustParse(t, ".[]"), arr, NewEnv())
	require.NoError(t, err)
	require.Len(t, out, 2)

	obj := value.Object().WithField("a", value.Int(1)).WithField("b", value.Int(2))
	out, err = Eval(mustParse(t, ".[]"), obj, NewEnv())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.True(t, value.Equal(out[0], value.Int(1)))
	assert.True(t, value.Equal(out[1], value.Int(2)))
}

func TestEval_BinaryCrossProduct(t *testing.T) {
	// (1, 2) + (10, 20) should produce all four combinations.
	doc := value.Null()
	out, err := Eval(mustParse(t, "(1, 2) + (10, 20)"), doc, NewEnv())
	require.NoError(t, err)
	require.Len(t, out, 4)
	want := []int64{11, 21, 12, 22}
	for i, w := range want {
		assert.Equal(t, w, out[i].Number().Int64())
	}
}

func TestEval_ObjectConstructorCrossProduct(t *testing.T) {
	doc := value.Null()
	out, err := Eval(mustParse(t, "{a: (1, 2)}"), doc, NewEnv())
	require.NoError(t, err)
	require.Len(t, out, 2)
	v0, _ := out[0].Field("a")
	v1, _ := out[1].Field("a")
	assert.True(t, value.Equal(v0, value.Int(1)))
	assert.True(t, value.Equal(v1, value.Int(2)))
}

func TestEval_AndOr_ShortCircuit(t *testing.T) {
	// A right-hand side that would error must never be evaluated once
	// the left-hand side already determines the boolean result.
	doc := value.Null()
	got := evalOne(t, "false and (1 + \"x\")", doc)
	assert.True(t, value.Equal(got, value.Bool(false)))

	got = evalOne(t, "true or (1 + \"x\")", doc)
	assert.True(t, value.Equal(got, value.Bool(true)))
}

func TestEval_Alternative_PerElement(t *testing.T) {
	doc := value.Null()
	out, err := Eval(mustParse(t, "(null, 1, false, 2) // 99"), doc, NewEnv())
	require.NoError(t, err)
	require.Len(t, out, 4)
	want := []value.Value{value.Int(99), value.Int(1), value.Int(99), value.Int(2)}
	for i, w := range want {
		assert.True(t, value.Equal(out[i], w), "index %d: got %v want %v", i, out[i], w)
	}
}

func TestEval_GroupBySortByMinByMaxBy(t *testing.T) {
	arr := value.Array([]value.Value{
		value.Object().WithField("k", value.Int(1)).WithField("v", value.String("a")),
		value.Object().WithField("k", value.Int(2)).WithField("v", value.String("b")),
		value.Object().WithField("k", value.Int(1)).WithField("v", value.String("c")),
	})

	grouped := evalOne(t, "group_by(., .k)", arr)
	require.Equal(t, 2, grouped.Len())

	sorted := evalOne(t, "sort_by(., .k)", arr)
	first, _ := sorted.Elements()[0].Field("k")
	assert.True(t, value.Equal(first, value.Int(1)))

	minElem := evalOne(t, "min_by(., .k)", arr)
	k, _ := minElem.Field("k")
	assert.True(t, value.Equal(k, value.Int(1)))

	maxElem := evalOne(t, "max_by(., .k)", arr)
	k, _ = maxElem.Field("k")
	assert.True(t, value.Equal(k, value.Int(2)))
}

func TestEval_Range(t *testing.T) {
	doc := value.Null()
	out, err := Eval(mustParse(t, "range(3)"), doc, NewEnv())
	require.NoError(t, err)
	require.Len(t, out, 3)
	for i, v := range out {
		assert.Equal(t, int64(i), v.Number().Int64())
	}

	out, err = Eval(mustParse(t, "range(2, 5)"), doc, NewEnv())
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, int64(2), out[0].Number().Int64())
}

func TestEval_Values_DropsNulls(t *testing.T) {
	doc := value.Null()
	out, err := Eval(mustParse(t, "values"), doc, NewEnv())
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = Eval(mustParse(t, "values"), value.Int(1), NewEnv())
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestEval_FieldAccessOnStringIsError(t *testing.T) {
	_, err := Eval(mustParse(t, ".a + 1"), value.String("x"), NewEnv())
	require.Error(t, err)
}
