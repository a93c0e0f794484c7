// Package eval walks an ast.Expression against an input Value. Every
// node produces a sequence of results: zero outputs means the
// expression filtered its input away, more than one means a
// multi-output expression like iteration or comma.
package eval

import (
	"github.com/aeden/sdq/internal/ast"
	srcerrors "github.com/aeden/sdq/internal/errors"
	"github.com/aeden/sdq/internal/lexer"
	"github.com/aeden/sdq/internal/ops"
	"github.com/aeden/sdq/internal/path"
	"github.com/aeden/sdq/internal/value"
)

func typeErr(format string, args ...any) error {
	return srcerrors.New(srcerrors.TypeErrorKind, format, args...)
}

// withPos attaches pos to err if err is a *SourceError that doesn't
// already carry a position — ops and path errors are built without one
// since they operate on Values, not source text.
func withPos(err error, pos lexer.Position) error {
	if err == nil {
		return nil
	}
	if se, ok := err.(*srcerrors.SourceError); ok && !se.HasPos {
		se.Pos = pos
		se.HasPos = true
	}
	return err
}

// Eval evaluates expr against input in env, returning its output
// sequence.
func Eval(expr ast.Expression, input value.Value, env *Env) ([]value.Value, error) {
	switch e := expr.(type) {

	case *ast.Identity:
		return []value.Value{input}, nil

	case *ast.Literal:
		return []value.Value{literalValue(e)}, nil

	case *ast.Pipe:
		lvals, err := Eval(e.Lhs, input, env)
		if err != nil {
			return nil, err
		}
		var out []value.Value
		for _, lv := range lvals {
			rvals, err := Eval(e.Rhs, lv, env)
			if err != nil {
				return nil, err
			}
			out = append(out, rvals...)
		}
		return out, nil

	case *ast.Comma:
		lvals, err := Eval(e.Lhs, input, env)
		if err != nil {
			return nil, err
		}
		rvals, err := Eval(e.Rhs, input, env)
		if err != nil {
			return nil, err
		}
		return append(lvals, rvals...), nil

	case *ast.Array:
		if e.Inner == nil {
			return []value.Value{value.Array(nil)}, nil
		}
		inner, err := Eval(e.Inner, input, env)
		if err != nil {
			return nil, err
		}
		return []value.Value{value.Array(inner)}, nil

	case *ast.Object:
		obj, err := evalObject(e, input, env)
		if err != nil {
			return nil, withPos(err, e.Pos())
		}
		return obj, nil

	case *ast.FieldAccess:
		targets, err := Eval(e.Target, input, env)
		if err != nil {
			return nil, err
		}
		out := make([]value.Value, 0, len(targets))
		for _, tv := range targets {
			v, err := fieldAccessOne(tv, e.Field)
			if err != nil {
				return nil, withPos(err, e.Pos())
			}
			out = append(out, v)
		}
		return out, nil

	case *ast.IndexAccess:
		targets, err := Eval(e.Target, input, env)
		if err != nil {
			return nil, err
		}
		indices, err := Eval(e.Index, input, env)
		if err != nil {
			return nil, err
		}
		var out []value.Value
		for _, tv := range targets {
			for _, iv := range indices {
				v, err := indexAccessOne(tv, iv)
				if err != nil {
					return nil, withPos(err, e.Pos())
				}
				out = append(out, v)
			}
		}
		return out, nil

	case *ast.Slice:
		targets, err := Eval(e.Target, input, env)
		if err != nil {
			return nil, err
		}
		los, err := evalOptionalInts(e.Lo, input, env)
		if err != nil {
			return nil, err
		}
		his, err := evalOptionalInts(e.Hi, input, env)
		if err != nil {
			return nil, err
		}
		var out []value.Value
		for _, tv := range targets {
			for _, lo := range los {
				for _, hi := range his {
					v, err := sliceOne(tv, lo, hi)
					if err != nil {
						return nil, withPos(err, e.Pos())
					}
					out = append(out, v)
				}
			}
		}
		return out, nil

	case *ast.Iterate:
		targets, err := Eval(e.Target, input, env)
		if err != nil {
			return nil, err
		}
		var out []value.Value
		for _, tv := range targets {
			elems, err := iterateOne(tv)
			if err != nil {
				return nil, withPos(err, e.Pos())
			}
			out = append(out, elems...)
		}
		return out, nil

	case *ast.Unary:
		args, err := Eval(e.Arg, input, env)
		if err != nil {
			return nil, err
		}
		out := make([]value.Value, len(args))
		for i, av := range args {
			switch e.Op {
			case ast.UnaryNot:
				out[i] = ops.Not(av)
			case ast.UnaryNeg:
				v, err := ops.Neg(av)
				if err != nil {
					return nil, withPos(err, e.Pos())
				}
				out[i] = v
			}
		}
		return out, nil

	case *ast.Binary:
		return evalBinary(e, input, env)

	case *ast.Assign:
		return evalAssign(e, input, env)

	case *ast.UpdateAssign:
		return evalUpdateAssign(e, input, env)

	case *ast.Builtin:
		return evalBuiltin(e, input, env)

	default:
		return nil, typeErr("cannot evaluate %T", expr)
	}
}

func literalValue(l *ast.Literal) value.Value {
	switch l.Kind {
	case ast.LitNull:
		return value.Null()
	case ast.LitBool:
		return value.Bool(l.Bool)
	case ast.LitNumber:
		if l.IsInt {
			return value.Int(int64(l.Number))
		}
		return value.Float(l.Number)
	case ast.LitString:
		return value.String(l.Str)
	default:
		return value.Null()
	}
}

// evalObject builds every combination of (key, value) across e.Entries:
// each entry may itself produce several key/value pairs (its key and
// value expressions are each evaluated against the original input,
// independently), and the final output is the Cartesian product of
// every entry's pairs.
func evalObject(e *ast.Object, input value.Value, env *Env) ([]value.Value, error) {
	partials := []value.Value{value.Object()}
	for _, entry := range e.Entries {
		keys, err := Eval(entry.Key, input, env)
		if err != nil {
			return nil, err
		}
		vals, err := Eval(entry.Value, input, env)
		if err != nil {
			return nil, err
		}
		var pairs []struct {
			key string
			val value.Value
		}
		for _, kv := range keys {
			if kv.Kind() != value.KindString {
				return nil, typeErr("object key must be a string, got %s", kv.Kind())
			}
			for _, vv := range vals {
				pairs = append(pairs, struct {
					key string
					val value.Value
				}{kv.Str(), vv})
			}
		}
		next := make([]value.Value, 0, len(partials)*len(pairs))
		for _, partial := range partials {
			for _, p := range pairs {
				next = append(next, partial.WithField(p.key, p.val))
			}
		}
		partials = next
	}
	return partials, nil
}

func fieldAccessOne(tv value.Value, field string) (value.Value, error) {
	switch tv.Kind() {
	case value.KindObject:
		if v, ok := tv.Field(field); ok {
			return v, nil
		}
		return value.Null(), nil
	case value.KindNull:
		return value.Null(), nil
	default:
		return value.Value{}, typeErr("cannot index %s with %q", tv.Kind(), field)
	}
}

func indexAccessOne(tv, idx value.Value) (value.Value, error) {
	switch tv.Kind() {
	case value.KindArray:
		if idx.Kind() != value.KindNumber {
			return value.Value{}, typeErr("array index must be a number, got %s", idx.Kind())
		}
		i, n := idx.Number().Int64(), int64(tv.Len())
		if i < 0 {
			i = n + i
		}
		if i < 0 || i >= n {
			return value.Null(), nil
		}
		return tv.Elements()[i], nil
	case value.KindObject:
		if idx.Kind() != value.KindString {
			return value.Value{}, typeErr("object index must be a string, got %s", idx.Kind())
		}
		return fieldAccessOne(tv, idx.Str())
	case value.KindNull:
		return value.Null(), nil
	default:
		return value.Value{}, typeErr("cannot index %s", tv.Kind())
	}
}

// evalOptionalInts evaluates a Slice bound (nil meaning omitted) into a
// sequence of *int64, one per output value, or a single nil entry
// standing for "use the default bound" when the bound is omitted.
func evalOptionalInts(bound ast.Expression, input value.Value, env *Env) ([]*int64, error) {
	if bound == nil {
		return []*int64{nil}, nil
	}
	vals, err := Eval(bound, input, env)
	if err != nil {
		return nil, err
	}
	out := make([]*int64, len(vals))
	for i, v := range vals {
		if v.Kind() != value.KindNumber {
			return nil, typeErr("slice bound must be a number, got %s", v.Kind())
		}
		n := v.Number().Int64()
		out[i] = &n
	}
	return out, nil
}

func sliceOne(tv value.Value, lo, hi *int64) (value.Value, error) {
	switch tv.Kind() {
	case value.KindArray:
		elems := tv.Elements()
		l, h := resolveSliceBounds(int64(len(elems)), lo, hi)
		return value.Array(append([]value.Value{}, elems[l:h]...)), nil
	case value.KindString:
		runes := []rune(tv.Str())
		l, h := resolveSliceBounds(int64(len(runes)), lo, hi)
		return value.String(string(runes[l:h])), nil
	case value.KindNull:
		return value.Null(), nil
	default:
		return value.Value{}, typeErr("cannot slice %s", tv.Kind())
	}
}

func resolveSliceBounds(n int64, lo, hi *int64) (int64, int64) {
	l := int64(0)
	if lo != nil {
		l = *lo
		if l < 0 {
			l = n + l
		}
	}
	h := n
	if hi != nil {
		h = *hi
		if h < 0 {
			h = n + h
		}
	}
	if l < 0 {
		l = 0
	}
	if h > n {
		h = n
	}
	if l > h {
		h = l
	}
	return l, h
}

func iterateOne(tv value.Value) ([]value.Value, error) {
	switch tv.Kind() {
	case value.KindArray:
		return append([]value.Value{}, tv.Elements()...), nil
	case value.KindObject:
		keys := tv.Keys()
		out := make([]value.Value, len(keys))
		for i, k := range keys {
			v, _ := tv.Field(k)
			out[i] = v
		}
		return out, nil
	default:
		return nil, typeErr("cannot iterate over %s", tv.Kind())
	}
}

// evalBinary implements the cross-product rule for every binary
// operator except and/or, which short-circuit: for each left-hand
// output, the right-hand side is evaluated — and the operator applied
// across its whole output sequence — only when the left output doesn't
// already determine the boolean result.
func evalBinary(e *ast.Binary, input value.Value, env *Env) ([]value.Value, error) {
	lvals, err := Eval(e.Lhs, input, env)
	if err != nil {
		return nil, err
	}

	if e.Op == ast.BinAnd || e.Op == ast.BinOr {
		var out []value.Value
		for _, lv := range lvals {
			determinate := (e.Op == ast.BinAnd && !lv.Truthy()) || (e.Op == ast.BinOr && lv.Truthy())
			if determinate {
				out = append(out, value.Bool(e.Op == ast.BinOr))
				continue
			}
			rvals, err := Eval(e.Rhs, input, env)
			if err != nil {
				return nil, err
			}
			for _, rv := range rvals {
				if e.Op == ast.BinAnd {
					out = append(out, ops.LogicalAnd(lv, rv))
				} else {
					out = append(out, ops.LogicalOr(lv, rv))
				}
			}
		}
		return out, nil
	}

	rvals, err := Eval(e.Rhs, input, env)
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, 0, len(lvals)*len(rvals))
	for _, lv := range lvals {
		for _, rv := range rvals {
			result, err := applyBinary(e.Op, lv, rv)
			if err != nil {
				return nil, withPos(err, e.Pos())
			}
			out = append(out, result)
		}
	}
	return out, nil
}

func applyBinary(op ast.BinaryOp, lv, rv value.Value) (value.Value, error) {
	switch op {
	case ast.BinAdd:
		return ops.Add(lv, rv)
	case ast.BinSub:
		return ops.Sub(lv, rv)
	case ast.BinMul:
		return ops.Mul(lv, rv)
	case ast.BinDiv:
		return ops.Div(lv, rv)
	case ast.BinMod:
		return ops.Mod(lv, rv)
	case ast.BinEq:
		return ops.Eq(lv, rv), nil
	case ast.BinNotEq:
		return ops.NotEq(lv, rv), nil
	case ast.BinLt:
		return ops.Lt(lv, rv), nil
	case ast.BinLe:
		return ops.Le(lv, rv), nil
	case ast.BinGt:
		return ops.Gt(lv, rv), nil
	case ast.BinGe:
		return ops.Ge(lv, rv), nil
	case ast.BinAlt:
		return ops.Alternative(lv, rv), nil
	default:
		return value.Value{}, typeErr("unknown binary operator")
	}
}

// evalFuncFor adapts Eval into a path.EvalFunc closed over env, for
// resolving index/slice sub-expressions inside an l-value path.
func evalFuncFor(env *Env) path.EvalFunc {
	return func(expr ast.Expression, input value.Value) ([]value.Value, error) {
		return Eval(expr, input, env)
	}
}

// evalAssign implements `path = rhs`: rhs is evaluated
// once against the original input; for each rhs value r, every concrete
// path the left side designates is set to r, producing one output
// document per rhs value.
func evalAssign(e *ast.Assign, input value.Value, env *Env) ([]value.Value, error) {
	rvals, err := Eval(e.Rhs, input, env)
	if err != nil {
		return nil, err
	}
	paths, err := path.Resolve(e.Path, input, evalFuncFor(env))
	if err != nil {
		return nil, withPos(err, e.Pos())
	}
	outs := make([]value.Value, 0, len(rvals))
	for _, r := range rvals {
		out := input
		for _, p := range paths {
			out, err = path.Set(out, p, r)
			if err != nil {
				return nil, withPos(err, e.Pos())
			}
		}
		outs = append(outs, out)
	}
	return outs, nil
}

// evalUpdateAssign implements `path |= rhs`: rhs is
// evaluated once per designated path, against that path's current
// value, and only its first value is used. A path whose rhs produces
// no values at all is left unchanged rather than erroring.
func evalUpdateAssign(e *ast.UpdateAssign, input value.Value, env *Env) ([]value.Value, error) {
	paths, err := path.Resolve(e.Path, input, evalFuncFor(env))
	if err != nil {
		return nil, withPos(err, e.Pos())
	}
	out := input
	for _, p := range paths {
		cur := path.Get(out, p)
		rvals, err := Eval(e.Rhs, cur, env)
		if err != nil {
			return nil, err
		}
		if len(rvals) == 0 {
			continue
		}
		out, err = path.Set(out, p, rvals[0])
		if err != nil {
			return nil, withPos(err, e.Pos())
		}
	}
	return []value.Value{out}, nil
}
