// Package ops implements the pure operator and built-in function
// library that internal/eval dispatches to. Every function here is a
// typed-dispatch pure function over internal/value.Value: no AST, no
// Environment, no I/O — operator semantics live here, evaluation
// plumbing lives in internal/eval.
package ops

import (
	"math"

	srcerrors "github.com/aeden/sdq/internal/errors"
	"github.com/aeden/sdq/internal/value"
)

func typeErr(format string, args ...any) error {
	return srcerrors.New(srcerrors.TypeErrorKind, format, args...)
}

func arithErr(format string, args ...any) error {
	return srcerrors.New(srcerrors.ArithErrorKind, format, args...)
}

// promote returns the result of combining two Numbers: integer if both
// operands are integers, float if either operand is float.
func promote(a, b value.Number, intOp func(int64, int64) int64, floatOp func(float64, float64) float64) value.Value {
	if a.IsInt() && b.IsInt() {
		return value.Int(intOp(a.Int64(), b.Int64()))
	}
	return value.Float(floatOp(a.Float64(), b.Float64()))
}

// Add implements `+`: Number+Number adds; String+String
// concatenates; Array+Array concatenates; Object+Object merges with
// right-hand wins; Null+X and X+Null return X.
func Add(a, b value.Value) (value.Value, error) {
	if a.IsNull() {
		return b, nil
	}
	if b.IsNull() {
		return a, nil
	}
	if a.Kind() != b.Kind() {
		return value.Value{}, typeErr("cannot add %s and %s", a.Kind(), b.Kind())
	}
	switch a.Kind() {
	case value.KindNumber:
		return promote(a.Number(), b.Number(),
			func(x, y int64) int64 { return x + y },
			func(x, y float64) float64 { return x + y }), nil
	case value.KindString:
		return value.String(a.Str() + b.Str()), nil
	case value.KindArray:
		out := make([]value.Value, 0, a.Len()+b.Len())
		out = append(out, a.Elements()...)
		out = append(out, b.Elements()...)
		return value.Array(out), nil
	case value.KindObject:
		out := a
		for _, k := range b.Keys() {
			v, _ := b.Field(k)
			out = out.WithField(k, v)
		}
		return out, nil
	default:
		return value.Value{}, typeErr("cannot add two %s values", a.Kind())
	}
}

// Sub implements `-`: Number-Number subtracts; Array-Array removes
// elements of a that equal any element of b.
func Sub(a, b value.Value) (value.Value, error) {
	switch {
	case a.Kind() == value.KindNumber && b.Kind() == value.KindNumber:
		return promote(a.Number(), b.Number(),
			func(x, y int64) int64 { return x - y },
			func(x, y float64) float64 { return x - y }), nil
	case a.Kind() == value.KindArray && b.Kind() == value.KindArray:
		removing := b.Elements()
		out := make([]value.Value, 0, a.Len())
		for _, elem := range a.Elements() {
			if !containsEqual(removing, elem) {
				out = append(out, elem)
			}
		}
		return value.Array(out), nil
	default:
		return value.Value{}, typeErr("cannot subtract %s from %s", b.Kind(), a.Kind())
	}
}

func containsEqual(haystack []value.Value, needle value.Value) bool {
	for _, v := range haystack {
		if value.Equal(v, needle) {
			return true
		}
	}
	return false
}

func requireNumbers(op string, a, b value.Value) error {
	if a.Kind() != value.KindNumber || b.Kind() != value.KindNumber {
		return typeErr("%s requires two numbers, got %s and %s", op, a.Kind(), b.Kind())
	}
	return nil
}

// Mul implements `*`, Number-only.
func Mul(a, b value.Value) (value.Value, error) {
	if err := requireNumbers("*", a, b); err != nil {
		return value.Value{}, err
	}
	return promote(a.Number(), b.Number(),
		func(x, y int64) int64 { return x * y },
		func(x, y float64) float64 { return x * y }), nil
}

// Div implements `/`, Number-only; division by zero is an ArithError.
func Div(a, b value.Value) (value.Value, error) {
	if err := requireNumbers("/", a, b); err != nil {
		return value.Value{}, err
	}
	if b.Number().IsInt() && b.Number().Int64() == 0 {
		return value.Value{}, arithErr("division by zero")
	}
	if !b.Number().IsInt() && b.Number().Float64() == 0 {
		return value.Value{}, arithErr("division by zero")
	}
	if a.Number().IsInt() && b.Number().IsInt() && a.Number().Int64()%b.Number().Int64() == 0 {
		return value.Int(a.Number().Int64() / b.Number().Int64()), nil
	}
	return value.Float(a.Number().Float64() / b.Number().Float64()), nil
}

// Mod implements `%`, Number-only; division by zero is an ArithError.
// Promotion matches `*` and `/`: only an int%int stays an integer, any
// float operand promotes the result to float.
func Mod(a, b value.Value) (value.Value, error) {
	if err := requireNumbers("%", a, b); err != nil {
		return value.Value{}, err
	}
	if b.Number().IsInt() && b.Number().Int64() == 0 {
		return value.Value{}, arithErr("division by zero")
	}
	if !b.Number().IsInt() && b.Number().Float64() == 0 {
		return value.Value{}, arithErr("division by zero")
	}
	return promote(a.Number(), b.Number(),
		func(x, y int64) int64 { return x % y },
		math.Mod), nil
}

// Not implements `not`: negates truthiness.
func Not(a value.Value) value.Value { return value.Bool(!a.Truthy()) }

// Neg implements unary `-`, Number-only.
func Neg(a value.Value) (value.Value, error) {
	if a.Kind() != value.KindNumber {
		return value.Value{}, typeErr("cannot negate %s", a.Kind())
	}
	if a.Number().IsInt() {
		return value.Int(-a.Number().Int64()), nil
	}
	return value.Float(-a.Number().Float64()), nil
}

// LogicalAnd/LogicalOr combine two already-evaluated operands. Eval is
// responsible for short-circuiting — not evaluating the right-hand side
// at all when the left makes the result determinate; these are only
// reached once both sides are known.
func LogicalAnd(a, b value.Value) value.Value { return value.Bool(a.Truthy() && b.Truthy()) }
func LogicalOr(a, b value.Value) value.Value  { return value.Bool(a.Truthy() || b.Truthy()) }

// Alternative implements `//`: lhs if truthy, else rhs.
func Alternative(a, b value.Value) value.Value {
	if a.Truthy() {
		return a
	}
	return b
}

// Eq/NotEq/Lt/Le/Gt/Ge implement the comparison operators over the
// total ordering in value.Compare.
func Eq(a, b value.Value) value.Value    { return value.Bool(value.Equal(a, b)) }
func NotEq(a, b value.Value) value.Value { return value.Bool(!value.Equal(a, b)) }
func Lt(a, b value.Value) value.Value    { return value.Bool(value.Compare(a, b) < 0) }
func Le(a, b value.Value) value.Value    { return value.Bool(value.Compare(a, b) <= 0) }
func Gt(a, b value.Value) value.Value    { return value.Bool(value.Compare(a, b) > 0) }
func Ge(a, b value.Value) value.Value    { return value.Bool(value.Compare(a, b) >= 0) }
