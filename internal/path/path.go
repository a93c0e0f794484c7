// Package path resolves an l-value Expression to one or more concrete
// Paths against an input Value, and performs copy-on-write get/set
// against those paths.
package path

import (
	"github.com/aeden/sdq/internal/ast"
	srcerrors "github.com/aeden/sdq/internal/errors"
	"github.com/aeden/sdq/internal/value"
)

// StepKind identifies a Step's shape.
type StepKind int

const (
	FieldStep StepKind = iota
	IndexStep
	SliceStep
)

// Step is one segment of a concrete Path: a field name, an array index,
// or a slice range.
type Step struct {
	Kind  StepKind
	Field string
	Index int64
	Lo    int64
	HasLo bool
	Hi    int64
	HasHi bool
}

// Path is an ordered list of Steps identifying a sub-location in a
// Value. An empty Path identifies the whole value.
type Path []Step

func pathErr(format string, args ...any) error {
	return srcerrors.New(srcerrors.PathErrorKind, format, args...)
}

// EvalFunc evaluates expr against input, returning its output sequence.
// Resolve takes this as a parameter rather than importing internal/eval
// directly, since internal/eval needs to call back into Resolve for
// Assign/UpdateAssign — a direct import the other way would cycle.
type EvalFunc func(expr ast.Expression, input value.Value) ([]value.Value, error)

// Resolve computes every concrete Path that expr designates against
// input. A non-path expression (anything that isn't Identity,
// FieldAccess, IndexAccess, Slice, Iterate, Pipe, or Comma built from
// those) is a PathError — the l-value restriction is enforced here, at
// resolution time, not in the grammar.
func Resolve(expr ast.Expression, input value.Value, evalFn EvalFunc) ([]Path, error) {
	switch e := expr.(type) {
	case *ast.Identity:
		return []Path{{}}, nil

	case *ast.FieldAccess:
		bases, err := Resolve(e.Target, input, evalFn)
		if err != nil {
			return nil, err
		}
		out := make([]Path, len(bases))
		for i, base := range bases {
			out[i] = append(append(Path{}, base...), Step{Kind: FieldStep, Field: e.Field})
		}
		return out, nil

	case *ast.IndexAccess:
		bases, err := Resolve(e.Target, input, evalFn)
		if err != nil {
			return nil, err
		}
		idxVals, err := evalFn(e.Index, input)
		if err != nil {
			return nil, err
		}
		var out []Path
		for _, base := range bases {
			for _, iv := range idxVals {
				if iv.Kind() != value.KindNumber {
					return nil, pathErr("array index must be a number, got %s", iv.Kind())
				}
				out = append(out, append(append(Path{}, base...), Step{Kind: IndexStep, Index: iv.Number().Int64()}))
			}
		}
		return out, nil

	case *ast.Slice:
		bases, err := Resolve(e.Target, input, evalFn)
		if err != nil {
			return nil, err
		}
		los, err := evalBoundSeq(e.Lo, input, evalFn)
		if err != nil {
			return nil, err
		}
		his, err := evalBoundSeq(e.Hi, input, evalFn)
		if err != nil {
			return nil, err
		}
		var out []Path
		for _, base := range bases {
			for _, lo := range los {
				for _, hi := range his {
					step := Step{Kind: SliceStep}
					if lo != nil {
						step.HasLo, step.Lo = true, *lo
					}
					if hi != nil {
						step.HasHi, step.Hi = true, *hi
					}
					out = append(out, append(append(Path{}, base...), step))
				}
			}
		}
		return out, nil

	case *ast.Iterate:
		bases, err := Resolve(e.Target, input, evalFn)
		if err != nil {
			return nil, err
		}
		var out []Path
		for _, base := range bases {
			cur := Get(input, base)
			switch cur.Kind() {
			case value.KindArray:
				for i := range cur.Elements() {
					out = append(out, append(append(Path{}, base...), Step{Kind: IndexStep, Index: int64(i)}))
				}
			case value.KindObject:
				for _, k := range cur.Keys() {
					out = append(out, append(append(Path{}, base...), Step{Kind: FieldStep, Field: k}))
				}
			default:
				return nil, pathErr("cannot iterate a path over %s", cur.Kind())
			}
		}
		return out, nil

	case *ast.Pipe:
		bases, err := Resolve(e.Lhs, input, evalFn)
		if err != nil {
			return nil, err
		}
		var out []Path
		for _, base := range bases {
			sub := Get(input, base)
			tails, err := Resolve(e.Rhs, sub, evalFn)
			if err != nil {
				return nil, err
			}
			for _, tail := range tails {
				out = append(out, append(append(Path{}, base...), tail...))
			}
		}
		return out, nil

	case *ast.Comma:
		lhs, err := Resolve(e.Lhs, input, evalFn)
		if err != nil {
			return nil, err
		}
		rhs, err := Resolve(e.Rhs, input, evalFn)
		if err != nil {
			return nil, err
		}
		return append(lhs, rhs...), nil

	default:
		return nil, pathErr("%s is not a path expression", expr.String())
	}
}

// evalBoundSeq evaluates an optional Slice bound (nil means omitted),
// returning one *int64 per output value, or a single nil entry when the
// bound is omitted entirely.
func evalBoundSeq(bound ast.Expression, input value.Value, evalFn EvalFunc) ([]*int64, error) {
	if bound == nil {
		return []*int64{nil}, nil
	}
	vals, err := evalFn(bound, input)
	if err != nil {
		return nil, err
	}
	out := make([]*int64, len(vals))
	for i, v := range vals {
		if v.Kind() != value.KindNumber {
			return nil, pathErr("slice bound must be a number, got %s", v.Kind())
		}
		n := v.Number().Int64()
		out[i] = &n
	}
	return out, nil
}

// Get returns the Value at p, or Null if any intermediate step misses.
func Get(v value.Value, p Path) value.Value {
	cur := v
	for _, step := range p {
		cur = getStep(cur, step)
	}
	return cur
}

func getStep(cur value.Value, step Step) value.Value {
	switch step.Kind {
	case FieldStep:
		if cur.Kind() != value.KindObject {
			return value.Null()
		}
		val, ok := cur.Field(step.Field)
		if !ok {
			return value.Null()
		}
		return val
	case IndexStep:
		if cur.Kind() != value.KindArray {
			return value.Null()
		}
		i, n := step.Index, int64(cur.Len())
		if i < 0 {
			i = n + i
		}
		if i < 0 || i >= n {
			return value.Null()
		}
		return cur.Elements()[i]
	case SliceStep:
		lo, hi := sliceBounds(cur, step)
		switch cur.Kind() {
		case value.KindArray:
			return value.Array(append([]value.Value{}, cur.Elements()[lo:hi]...))
		case value.KindString:
			runes := []rune(cur.Str())
			return value.String(string(runes[lo:hi]))
		default:
			return value.Null()
		}
	default:
		return value.Null()
	}
}

func sliceBounds(cur value.Value, step Step) (int64, int64) {
	n := int64(cur.Len())
	lo := int64(0)
	if step.HasLo {
		lo = step.Lo
		if lo < 0 {
			lo = n + lo
		}
	}
	hi := n
	if step.HasHi {
		hi = step.Hi
		if hi < 0 {
			hi = n + hi
		}
	}
	if lo < 0 {
		lo = 0
	}
	if hi > n {
		hi = n
	}
	if lo > hi {
		hi = lo
	}
	return lo, hi
}

// Set returns a copy of v with the location designated by p replaced
// by newVal. Missing intermediate objects/arrays are created on demand
// for a field step / a non-negative index step; a negative
// index step or a step through a scalar is a PathError.
func Set(v value.Value, p Path, newVal value.Value) (value.Value, error) {
	if len(p) == 0 {
		return newVal, nil
	}
	step, rest := p[0], p[1:]
	switch step.Kind {
	case FieldStep:
		return setField(v, step.Field, rest, newVal)
	case IndexStep:
		return setIndex(v, step.Index, rest, newVal)
	case SliceStep:
		if len(rest) != 0 {
			return value.Value{}, pathErr("cannot path through a slice assignment")
		}
		return setSlice(v, step, newVal)
	default:
		return value.Value{}, pathErr("unknown path step")
	}
}

func setField(v value.Value, field string, rest Path, newVal value.Value) (value.Value, error) {
	switch v.Kind() {
	case value.KindObject:
		child, _ := v.Field(field)
		updated, err := Set(child, rest, newVal)
		if err != nil {
			return value.Value{}, err
		}
		return v.WithField(field, updated), nil
	case value.KindNull:
		updated, err := Set(value.Null(), rest, newVal)
		if err != nil {
			return value.Value{}, err
		}
		return value.Object().WithField(field, updated), nil
	default:
		return value.Value{}, pathErr("cannot assign field %q through a %s", field, v.Kind())
	}
}

func setIndex(v value.Value, index int64, rest Path, newVal value.Value) (value.Value, error) {
	if index < 0 {
		return value.Value{}, pathErr("cannot assign to a negative index")
	}
	switch v.Kind() {
	case value.KindArray, value.KindNull:
		elems := append([]value.Value{}, v.Elements()...)
		for int64(len(elems)) <= index {
			elems = append(elems, value.Null())
		}
		updated, err := Set(elems[index], rest, newVal)
		if err != nil {
			return value.Value{}, err
		}
		elems[index] = updated
		return value.Array(elems), nil
	default:
		return value.Value{}, pathErr("cannot assign index %d through a %s", index, v.Kind())
	}
}

func setSlice(v value.Value, step Step, newVal value.Value) (value.Value, error) {
	switch v.Kind() {
	case value.KindArray, value.KindNull:
		base := v
		if base.Kind() == value.KindNull {
			base = value.Array(nil)
		}
		lo, hi := sliceBounds(base, step)
		if newVal.Kind() != value.KindArray {
			return value.Value{}, pathErr("slice assignment requires an array value, got %s", newVal.Kind())
		}
		elems := base.Elements()
		out := make([]value.Value, 0, int64(len(elems))-(hi-lo)+int64(len(newVal.Elements())))
		out = append(out, elems[:lo]...)
		out = append(out, newVal.Elements()...)
		out = append(out, elems[hi:]...)
		return value.Array(out), nil
	case value.KindString:
		lo, hi := sliceBounds(v, step)
		if newVal.Kind() != value.KindString {
			return value.Value{}, pathErr("slice assignment requires a string value, got %s", newVal.Kind())
		}
		runes := []rune(v.Str())
		out := append([]rune{}, runes[:lo]...)
		out = append(out, []rune(newVal.Str())...)
		out = append(out, runes[hi:]...)
		return value.String(string(out)), nil
	default:
		return value.Value{}, pathErr("cannot slice-assign through a %s", v.Kind())
	}
}
