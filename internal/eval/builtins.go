package eval

import (
	"sort"

	"github.com/aeden/sdq/internal/ast"
	"github.com/aeden/sdq/internal/ops"
	"github.com/aeden/sdq/internal/value"
)

// evalBuiltin dispatches a Builtin call. map/filter/select/group_by/
// min_by/max_by/sort_by need their argument Expression evaluated once
// per element rather than once up front, and values/range produce a
// variable-length sequence — all nine are handled directly here;
// everything else is routed through ops.CallBuiltin once its arguments
// have been reduced to a fixed operand list.
func evalBuiltin(b *ast.Builtin, input value.Value, env *Env) ([]value.Value, error) {
	switch b.Name {
	case "select":
		return evalSelect(b, input, env)
	case "map":
		return evalMap(b, input, env)
	case "filter":
		return evalFilter(b, input, env)
	case "group_by":
		return evalGroupBy(b, input, env)
	case "min_by":
		return evalExtremumBy(b, input, env, -1)
	case "max_by":
		return evalExtremumBy(b, input, env, 1)
	case "sort_by":
		return evalSortBy(b, input, env)
	case "values":
		return evalValues(b, input)
	case "range":
		return evalRange(b, input, env)
	}

	if !ops.SimpleBuiltins[b.Name] {
		return nil, withPos(typeErr("unknown builtin %q", b.Name), b.Pos())
	}
	operands, err := evalOperands(b.Args, input, env)
	if err != nil {
		return nil, err
	}
	result, err := ops.CallBuiltin(b.Name, operands)
	if err != nil {
		return nil, withPos(err, b.Pos())
	}
	return []value.Value{result}, nil
}

// evalOperands builds the operand list ops.CallBuiltin expects: the
// input itself when the call has no explicit arguments, otherwise each
// argument expression evaluated against input, requiring exactly one
// output apiece.
func evalOperands(args []ast.Expression, input value.Value, env *Env) ([]value.Value, error) {
	if len(args) == 0 {
		return []value.Value{input}, nil
	}
	out := make([]value.Value, 0, len(args))
	for _, a := range args {
		vals, err := Eval(a, input, env)
		if err != nil {
			return nil, err
		}
		if len(vals) != 1 {
			return nil, withPos(typeErr("builtin argument must produce a single value, got %d", len(vals)), a.Pos())
		}
		out = append(out, vals[0])
	}
	return out, nil
}

func requireArgs(b *ast.Builtin, n int) error {
	if len(b.Args) != n {
		return withPos(typeErr("%s expects %d argument(s), got %d", b.Name, n, len(b.Args)), b.Pos())
	}
	return nil
}

// requireArrayArg evaluates b.Args[0] against input, requiring exactly
// one Array-kind output — the shared source collection for map/filter/
// group_by/min_by/max_by/sort_by.
func requireArrayArg(b *ast.Builtin, input value.Value, env *Env) (value.Value, error) {
	vals, err := Eval(b.Args[0], input, env)
	if err != nil {
		return value.Value{}, err
	}
	if len(vals) != 1 {
		return value.Value{}, withPos(typeErr("%s: first argument must produce a single value, got %d", b.Name, len(vals)), b.Pos())
	}
	if vals[0].Kind() != value.KindArray {
		return value.Value{}, withPos(typeErr("%s: expected array, got %s", b.Name, vals[0].Kind()), b.Pos())
	}
	return vals[0], nil
}

func evalSelect(b *ast.Builtin, input value.Value, env *Env) ([]value.Value, error) {
	if err := requireArgs(b, 1); err != nil {
		return nil, err
	}
	preds, err := Eval(b.Args[0], input, env)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, p := range preds {
		if p.Truthy() {
			out = append(out, input)
		}
	}
	return out, nil
}

func evalMap(b *ast.Builtin, input value.Value, env *Env) ([]value.Value, error) {
	if err := requireArgs(b, 2); err != nil {
		return nil, err
	}
	arr, err := requireArrayArg(b, input, env)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, elem := range arr.Elements() {
		sub, err := Eval(b.Args[1], elem, env)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return []value.Value{value.Array(out)}, nil
}

func evalFilter(b *ast.Builtin, input value.Value, env *Env) ([]value.Value, error) {
	if err := requireArgs(b, 2); err != nil {
		return nil, err
	}
	arr, err := requireArrayArg(b, input, env)
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, 0, arr.Len())
	for _, elem := range arr.Elements() {
		preds, err := Eval(b.Args[1], elem, env)
		if err != nil {
			return nil, err
		}
		if anyTruthy(preds) {
			out = append(out, elem)
		}
	}
	return []value.Value{value.Array(out)}, nil
}

func anyTruthy(vals []value.Value) bool {
	for _, v := range vals {
		if v.Truthy() {
			return true
		}
	}
	return false
}

// keyOf evaluates b.Args[1] against elem, requiring exactly one output
// — the shared "key function" convention for group_by/min_by/max_by/
// sort_by.
func keyOf(b *ast.Builtin, elem value.Value, env *Env) (value.Value, error) {
	vals, err := Eval(b.Args[1], elem, env)
	if err != nil {
		return value.Value{}, err
	}
	if len(vals) != 1 {
		return value.Value{}, withPos(typeErr("%s: key expression must produce a single value, got %d", b.Name, len(vals)), b.Pos())
	}
	return vals[0], nil
}

func evalGroupBy(b *ast.Builtin, input value.Value, env *Env) ([]value.Value, error) {
	if err := requireArgs(b, 2); err != nil {
		return nil, err
	}
	arr, err := requireArrayArg(b, input, env)
	if err != nil {
		return nil, err
	}
	elems := arr.Elements()
	keys := make([]value.Value, len(elems))
	for i, elem := range elems {
		keys[i], err = keyOf(b, elem, env)
		if err != nil {
			return nil, err
		}
	}
	order := make([]int, len(elems))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return value.Compare(keys[order[i]], keys[order[j]]) < 0 })

	var groups []value.Value
	var cur []value.Value
	for idx, i := range order {
		if idx > 0 && !value.Equal(keys[order[idx-1]], keys[i]) {
			groups = append(groups, value.Array(cur))
			cur = nil
		}
		cur = append(cur, elems[i])
	}
	if cur != nil {
		groups = append(groups, value.Array(cur))
	}
	return []value.Value{value.Array(groups)}, nil
}

// evalExtremumBy implements min_by (want=-1, smallest key) and max_by
// (want=1, largest key): the first element seen whose key compares
// "want" against the current best replaces it.
func evalExtremumBy(b *ast.Builtin, input value.Value, env *Env, want int) ([]value.Value, error) {
	if err := requireArgs(b, 2); err != nil {
		return nil, err
	}
	arr, err := requireArrayArg(b, input, env)
	if err != nil {
		return nil, err
	}
	elems := arr.Elements()
	if len(elems) == 0 {
		return []value.Value{value.Null()}, nil
	}
	bestElem := elems[0]
	bestKey, err := keyOf(b, bestElem, env)
	if err != nil {
		return nil, err
	}
	for _, elem := range elems[1:] {
		k, err := keyOf(b, elem, env)
		if err != nil {
			return nil, err
		}
		if value.Compare(k, bestKey) == want {
			bestElem, bestKey = elem, k
		}
	}
	return []value.Value{bestElem}, nil
}

func evalSortBy(b *ast.Builtin, input value.Value, env *Env) ([]value.Value, error) {
	if err := requireArgs(b, 2); err != nil {
		return nil, err
	}
	arr, err := requireArrayArg(b, input, env)
	if err != nil {
		return nil, err
	}
	elems := append([]value.Value{}, arr.Elements()...)
	keys := make([]value.Value, len(elems))
	for i, elem := range elems {
		keys[i], err = keyOf(b, elem, env)
		if err != nil {
			return nil, err
		}
	}
	order := make([]int, len(elems))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return value.Compare(keys[order[i]], keys[order[j]]) < 0 })
	out := make([]value.Value, len(elems))
	for i, idx := range order {
		out[i] = elems[idx]
	}
	return []value.Value{value.Array(out)}, nil
}

// evalValues implements `values`: the identity filtered to non-null
// outputs, the standard way to drop nulls from a mapped sequence.
func evalValues(b *ast.Builtin, input value.Value) ([]value.Value, error) {
	if err := requireArgs(b, 0); err != nil {
		return nil, err
	}
	if input.IsNull() {
		return nil, nil
	}
	return []value.Value{input}, nil
}

func evalRange(b *ast.Builtin, input value.Value, env *Env) ([]value.Value, error) {
	if len(b.Args) != 1 && len(b.Args) != 2 {
		return nil, withPos(typeErr("range expects 1 or 2 argument(s), got %d", len(b.Args)), b.Pos())
	}
	bound := func(idx int) (int64, error) {
		vals, err := Eval(b.Args[idx], input, env)
		if err != nil {
			return 0, err
		}
		if len(vals) != 1 || vals[0].Kind() != value.KindNumber {
			return 0, withPos(typeErr("range argument must be a single number"), b.Pos())
		}
		return vals[0].Number().Int64(), nil
	}
	from := int64(0)
	var to int64
	var err error
	if len(b.Args) == 1 {
		to, err = bound(0)
	} else {
		from, err = bound(0)
		if err == nil {
			to, err = bound(1)
		}
	}
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for i := from; i < to; i++ {
		out = append(out, value.Int(i))
	}
	return out, nil
}
