package ops

import (
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	srcerrors "github.com/aeden/sdq/internal/errors"
	"github.com/aeden/sdq/internal/value"
)

// SimpleBuiltins is the set of builtin names dispatched through
// CallBuiltin: every builtin except map/filter/select/group_by/min_by/
// max_by/sort_by/values/range, which internal/eval implements directly
// because they need to evaluate an argument Expression per element (or,
// for values/range, produce a variable-length output sequence) rather
// than operate on a fixed, pre-evaluated operand list.
var SimpleBuiltins = map[string]bool{
	"keys": true, "length": true, "type": true, "has": true,
	"sort": true, "reverse": true, "unique": true, "flatten": true,
	"first": true, "last": true, "add": true,
	"tostring": true, "tonumber": true, "env": true,
	"to_entries": true, "from_entries": true,
	"any": true, "all": true, "min": true, "max": true,
	"split": true, "join": true, "startswith": true, "endswith": true,
	"ltrimstr": true, "rtrimstr": true, "contains": true,
	"ascii_downcase": true, "ascii_upcase": true,
	"explode": true, "implode": true,
	"abs": true, "floor": true, "ceil": true, "round": true,
}

func argErr(name string, want int, got int) error {
	return srcerrors.New(srcerrors.TypeErrorKind, "%s expects %d argument(s), got %d", name, want, got)
}

func kindErr(name string, want string, got value.Kind) error {
	return srcerrors.New(srcerrors.TypeErrorKind, "%s: expected %s, got %s", name, want, got)
}

// CallBuiltin dispatches one of SimpleBuiltins by name. operands are
// the already-evaluated arguments; when the call had no explicit
// arguments, operands is []value.Value{input} — the builtin's implicit
// single operand is the value it was piped from.
func CallBuiltin(name string, operands []value.Value) (value.Value, error) {
	switch name {
	case "keys":
		return builtinKeys(operands)
	case "length":
		return builtinLength(operands)
	case "type":
		return builtinType(operands)
	case "has":
		return builtinHas(operands)
	case "sort":
		return builtinSort(operands)
	case "reverse":
		return builtinReverse(operands)
	case "unique":
		return builtinUnique(operands)
	case "flatten":
		return builtinFlatten(operands)
	case "first":
		return builtinFirst(operands)
	case "last":
		return builtinLast(operands)
	case "add":
		return builtinAdd(operands)
	case "tostring":
		return builtinToString(operands)
	case "tonumber":
		return builtinToNumber(operands)
	case "env":
		return builtinEnv(operands)
	case "to_entries":
		return builtinToEntries(operands)
	case "from_entries":
		return builtinFromEntries(operands)
	case "any":
		return builtinAny(operands)
	case "all":
		return builtinAll(operands)
	case "min":
		return builtinMin(operands)
	case "max":
		return builtinMax(operands)
	case "split":
		return builtinSplit(operands)
	case "join":
		return builtinJoin(operands)
	case "startswith":
		return builtinStartsWith(operands)
	case "endswith":
		return builtinEndsWith(operands)
	case "ltrimstr":
		return builtinLTrimStr(operands)
	case "rtrimstr":
		return builtinRTrimStr(operands)
	case "contains":
		return builtinContains(operands)
	case "ascii_downcase":
		return builtinAsciiCase(operands, false)
	case "ascii_upcase":
		return builtinAsciiCase(operands, true)
	case "explode":
		return builtinExplode(operands)
	case "implode":
		return builtinImplode(operands)
	case "abs":
		return builtinAbs(operands)
	case "floor":
		return builtinRound(operands, math.Floor)
	case "ceil":
		return builtinRound(operands, math.Ceil)
	case "round":
		return builtinRound(operands, math.Round)
	default:
		return value.Value{}, srcerrors.New(srcerrors.TypeErrorKind, "unknown builtin %q", name)
	}
}

func one(name string, operands []value.Value) (value.Value, error) {
	if len(operands) != 1 {
		return value.Value{}, argErr(name, 1, len(operands))
	}
	return operands[0], nil
}

func two(name string, operands []value.Value) (value.Value, value.Value, error) {
	if len(operands) != 2 {
		return value.Value{}, value.Value{}, argErr(name, 2, len(operands))
	}
	return operands[0], operands[1], nil
}

func builtinKeys(operands []value.Value) (value.Value, error) {
	v, err := one("keys", operands)
	if err != nil {
		return value.Value{}, err
	}
	switch v.Kind() {
	case value.KindObject:
		keys := v.SortedKeys()
		out := make([]value.Value, len(keys))
		for i, k := range keys {
			out[i] = value.String(k)
		}
		return value.Array(out), nil
	case value.KindArray:
		out := make([]value.Value, v.Len())
		for i := range out {
			out[i] = value.Int(int64(i))
		}
		return value.Array(out), nil
	default:
		return value.Value{}, kindErr("keys", "object or array", v.Kind())
	}
}

func builtinLength(operands []value.Value) (value.Value, error) {
	v, err := one("length", operands)
	if err != nil {
		return value.Value{}, err
	}
	switch v.Kind() {
	case value.KindNull:
		return value.Int(0), nil
	case value.KindNumber:
		return value.Int(int64(math.Abs(v.Number().Float64()))), nil
	default:
		return value.Int(int64(v.Len())), nil
	}
}

func builtinType(operands []value.Value) (value.Value, error) {
	v, err := one("type", operands)
	if err != nil {
		return value.Value{}, err
	}
	return value.String(v.Kind().String()), nil
}

func builtinHas(operands []value.Value) (value.Value, error) {
	container, key, err := two("has", operands)
	if err != nil {
		return value.Value{}, err
	}
	switch container.Kind() {
	case value.KindObject:
		if key.Kind() != value.KindString {
			return value.Value{}, kindErr("has", "string key for an object", key.Kind())
		}
		_, ok := container.Field(key.Str())
		return value.Bool(ok), nil
	case value.KindArray:
		if key.Kind() != value.KindNumber {
			return value.Value{}, kindErr("has", "integer index for an array", key.Kind())
		}
		i := key.Number().Int64()
		return value.Bool(i >= 0 && i < int64(container.Len())), nil
	default:
		return value.Value{}, kindErr("has", "object or array", container.Kind())
	}
}

func builtinSort(operands []value.Value) (value.Value, error) {
	v, err := one("sort", operands)
	if err != nil {
		return value.Value{}, err
	}
	if v.Kind() != value.KindArray {
		return value.Value{}, kindErr("sort", "array", v.Kind())
	}
	elems := append([]value.Value{}, v.Elements()...)
	sort.SliceStable(elems, func(i, j int) bool { return value.Compare(elems[i], elems[j]) < 0 })
	return value.Array(elems), nil
}

func builtinReverse(operands []value.Value) (value.Value, error) {
	v, err := one("reverse", operands)
	if err != nil {
		return value.Value{}, err
	}
	switch v.Kind() {
	case value.KindArray:
		elems := v.Elements()
		out := make([]value.Value, len(elems))
		for i, e := range elems {
			out[len(elems)-1-i] = e
		}
		return value.Array(out), nil
	case value.KindString:
		runes := []rune(v.Str())
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return value.String(string(runes)), nil
	default:
		return value.Value{}, kindErr("reverse", "array or string", v.Kind())
	}
}

func builtinUnique(operands []value.Value) (value.Value, error) {
	sorted, err := builtinSort(operands)
	if err != nil {
		return value.Value{}, err
	}
	elems := sorted.Elements()
	out := make([]value.Value, 0, len(elems))
	for i, e := range elems {
		if i == 0 || !value.Equal(e, elems[i-1]) {
			out = append(out, e)
		}
	}
	return value.Array(out), nil
}

func builtinFlatten(operands []value.Value) (value.Value, error) {
	v, err := one("flatten", operands)
	if err != nil {
		return value.Value{}, err
	}
	if v.Kind() != value.KindArray {
		return value.Value{}, kindErr("flatten", "array", v.Kind())
	}
	var out []value.Value
	for _, e := range v.Elements() {
		if e.Kind() == value.KindArray {
			out = append(out, e.Elements()...)
		} else {
			out = append(out, e)
		}
	}
	return value.Array(out), nil
}

func builtinFirst(operands []value.Value) (value.Value, error) {
	v, err := one("first", operands)
	if err != nil {
		return value.Value{}, err
	}
	if v.Kind() != value.KindArray {
		return value.Value{}, kindErr("first", "array", v.Kind())
	}
	if v.Len() == 0 {
		return value.Null(), nil
	}
	return v.Elements()[0], nil
}

func builtinLast(operands []value.Value) (value.Value, error) {
	v, err := one("last", operands)
	if err != nil {
		return value.Value{}, err
	}
	if v.Kind() != value.KindArray {
		return value.Value{}, kindErr("last", "array", v.Kind())
	}
	if v.Len() == 0 {
		return value.Null(), nil
	}
	return v.Elements()[v.Len()-1], nil
}

func builtinAdd(operands []value.Value) (value.Value, error) {
	v, err := one("add", operands)
	if err != nil {
		return value.Value{}, err
	}
	if v.Kind() != value.KindArray {
		return value.Value{}, kindErr("add", "array", v.Kind())
	}
	acc := value.Null()
	for _, e := range v.Elements() {
		acc, err = Add(acc, e)
		if err != nil {
			return value.Value{}, err
		}
	}
	return acc, nil
}

func builtinToString(operands []value.Value) (value.Value, error) {
	v, err := one("tostring", operands)
	if err != nil {
		return value.Value{}, err
	}
	if v.Kind() == value.KindString {
		return v, nil
	}
	return value.String(Render(v)), nil
}

func builtinToNumber(operands []value.Value) (value.Value, error) {
	v, err := one("tonumber", operands)
	if err != nil {
		return value.Value{}, err
	}
	if v.Kind() == value.KindNumber {
		return v, nil
	}
	if v.Kind() != value.KindString {
		return value.Value{}, kindErr("tonumber", "string or number", v.Kind())
	}
	if i, perr := strconv.ParseInt(v.Str(), 10, 64); perr == nil {
		return value.Int(i), nil
	}
	f, perr := strconv.ParseFloat(v.Str(), 64)
	if perr != nil {
		return value.Value{}, arithErr("tonumber: %q is not a number", v.Str())
	}
	return value.Float(f), nil
}

func builtinEnv(operands []value.Value) (value.Value, error) {
	v, err := one("env", operands)
	if err != nil {
		return value.Value{}, err
	}
	if v.Kind() != value.KindString {
		return value.Value{}, kindErr("env", "string", v.Kind())
	}
	if val, ok := os.LookupEnv(v.Str()); ok {
		return value.String(val), nil
	}
	return value.Null(), nil
}

func builtinToEntries(operands []value.Value) (value.Value, error) {
	v, err := one("to_entries", operands)
	if err != nil {
		return value.Value{}, err
	}
	if v.Kind() != value.KindObject {
		return value.Value{}, kindErr("to_entries", "object", v.Kind())
	}
	out := make([]value.Value, 0, v.Len())
	for _, k := range v.Keys() {
		val, _ := v.Field(k)
		entry := value.Object().WithField("key", value.String(k)).WithField("value", val)
		out = append(out, entry)
	}
	return value.Array(out), nil
}

func builtinFromEntries(operands []value.Value) (value.Value, error) {
	v, err := one("from_entries", operands)
	if err != nil {
		return value.Value{}, err
	}
	if v.Kind() != value.KindArray {
		return value.Value{}, kindErr("from_entries", "array", v.Kind())
	}
	out := value.Object()
	for _, entry := range v.Elements() {
		if entry.Kind() != value.KindObject {
			return value.Value{}, kindErr("from_entries", "array of {key, value} objects", entry.Kind())
		}
		key, ok := entry.Field("key")
		if !ok {
			key, ok = entry.Field("name")
		}
		if !ok || key.Kind() != value.KindString {
			return value.Value{}, srcerrors.New(srcerrors.TypeErrorKind, "from_entries: entry missing string \"key\"")
		}
		val, _ := entry.Field("value")
		out = out.WithField(key.Str(), val)
	}
	return out, nil
}

func builtinAny(operands []value.Value) (value.Value, error) {
	v, err := one("any", operands)
	if err != nil {
		return value.Value{}, err
	}
	if v.Kind() != value.KindArray {
		return value.Value{}, kindErr("any", "array", v.Kind())
	}
	for _, e := range v.Elements() {
		if e.Truthy() {
			return value.Bool(true), nil
		}
	}
	return value.Bool(false), nil
}

func builtinAll(operands []value.Value) (value.Value, error) {
	v, err := one("all", operands)
	if err != nil {
		return value.Value{}, err
	}
	if v.Kind() != value.KindArray {
		return value.Value{}, kindErr("all", "array", v.Kind())
	}
	for _, e := range v.Elements() {
		if !e.Truthy() {
			return value.Bool(false), nil
		}
	}
	return value.Bool(true), nil
}

func builtinMin(operands []value.Value) (value.Value, error) {
	v, err := one("min", operands)
	if err != nil {
		return value.Value{}, err
	}
	if v.Kind() != value.KindArray {
		return value.Value{}, kindErr("min", "array", v.Kind())
	}
	return extremum(v.Elements(), -1), nil
}

func builtinMax(operands []value.Value) (value.Value, error) {
	v, err := one("max", operands)
	if err != nil {
		return value.Value{}, err
	}
	if v.Kind() != value.KindArray {
		return value.Value{}, kindErr("max", "array", v.Kind())
	}
	return extremum(v.Elements(), 1), nil
}

// extremum returns the element whose comparison against every other
// element matches want (-1 for min, 1 for max), or Null for an empty
// array.
func extremum(elems []value.Value, want int) value.Value {
	if len(elems) == 0 {
		return value.Null()
	}
	best := elems[0]
	for _, e := range elems[1:] {
		if value.Compare(e, best) == want {
			best = e
		}
	}
	return best
}

func requireString(name string, v value.Value) (string, error) {
	if v.Kind() != value.KindString {
		return "", kindErr(name, "string", v.Kind())
	}
	return v.Str(), nil
}

func builtinSplit(operands []value.Value) (value.Value, error) {
	s, sep, err := two("split", operands)
	if err != nil {
		return value.Value{}, err
	}
	str, err := requireString("split", s)
	if err != nil {
		return value.Value{}, err
	}
	sepStr, err := requireString("split", sep)
	if err != nil {
		return value.Value{}, err
	}
	parts := strings.Split(str, sepStr)
	out := make([]value.Value, len(parts))
	for i, p := range parts {
		out[i] = value.String(p)
	}
	return value.Array(out), nil
}

func builtinJoin(operands []value.Value) (value.Value, error) {
	arr, sep, err := two("join", operands)
	if err != nil {
		return value.Value{}, err
	}
	if arr.Kind() != value.KindArray {
		return value.Value{}, kindErr("join", "array", arr.Kind())
	}
	sepStr, err := requireString("join", sep)
	if err != nil {
		return value.Value{}, err
	}
	parts := make([]string, len(arr.Elements()))
	for i, e := range arr.Elements() {
		str, err := requireString("join", e)
		if err != nil {
			return value.Value{}, err
		}
		parts[i] = str
	}
	return value.String(strings.Join(parts, sepStr)), nil
}

func builtinStartsWith(operands []value.Value) (value.Value, error) {
	s, prefix, err := two("startswith", operands)
	if err != nil {
		return value.Value{}, err
	}
	str, err := requireString("startswith", s)
	if err != nil {
		return value.Value{}, err
	}
	p, err := requireString("startswith", prefix)
	if err != nil {
		return value.Value{}, err
	}
	return value.Bool(strings.HasPrefix(str, p)), nil
}

func builtinEndsWith(operands []value.Value) (value.Value, error) {
	s, suffix, err := two("endswith", operands)
	if err != nil {
		return value.Value{}, err
	}
	str, err := requireString("endswith", s)
	if err != nil {
		return value.Value{}, err
	}
	suf, err := requireString("endswith", suffix)
	if err != nil {
		return value.Value{}, err
	}
	return value.Bool(strings.HasSuffix(str, suf)), nil
}

func builtinLTrimStr(operands []value.Value) (value.Value, error) {
	s, affix, err := two("ltrimstr", operands)
	if err != nil {
		return value.Value{}, err
	}
	str, err := requireString("ltrimstr", s)
	if err != nil {
		return value.Value{}, err
	}
	a, err := requireString("ltrimstr", affix)
	if err != nil {
		return value.Value{}, err
	}
	return value.String(strings.TrimPrefix(str, a)), nil
}

func builtinRTrimStr(operands []value.Value) (value.Value, error) {
	s, affix, err := two("rtrimstr", operands)
	if err != nil {
		return value.Value{}, err
	}
	str, err := requireString("rtrimstr", s)
	if err != nil {
		return value.Value{}, err
	}
	a, err := requireString("rtrimstr", affix)
	if err != nil {
		return value.Value{}, err
	}
	return value.String(strings.TrimSuffix(str, a)), nil
}

func builtinContains(operands []value.Value) (value.Value, error) {
	container, needle, err := two("contains", operands)
	if err != nil {
		return value.Value{}, err
	}
	switch container.Kind() {
	case value.KindString:
		n, err := requireString("contains", needle)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(strings.Contains(container.Str(), n)), nil
	case value.KindArray:
		return value.Bool(containsEqual(container.Elements(), needle)), nil
	case value.KindObject:
		n, err := requireString("contains", needle)
		if err != nil {
			return value.Value{}, err
		}
		_, ok := container.Field(n)
		return value.Bool(ok), nil
	default:
		return value.Value{}, kindErr("contains", "string, array, or object", container.Kind())
	}
}

func builtinAsciiCase(operands []value.Value, upper bool) (value.Value, error) {
	v, err := one("ascii_downcase/ascii_upcase", operands)
	if err != nil {
		return value.Value{}, err
	}
	str, err := requireString("ascii_downcase/ascii_upcase", v)
	if err != nil {
		return value.Value{}, err
	}
	b := []byte(str)
	for i, c := range b {
		switch {
		case upper && c >= 'a' && c <= 'z':
			b[i] = c - ('a' - 'A')
		case !upper && c >= 'A' && c <= 'Z':
			b[i] = c + ('a' - 'A')
		}
	}
	return value.String(string(b)), nil
}

func builtinExplode(operands []value.Value) (value.Value, error) {
	v, err := one("explode", operands)
	if err != nil {
		return value.Value{}, err
	}
	str, err := requireString("explode", v)
	if err != nil {
		return value.Value{}, err
	}
	runes := []rune(str)
	out := make([]value.Value, len(runes))
	for i, r := range runes {
		out[i] = value.Int(int64(r))
	}
	return value.Array(out), nil
}

func builtinImplode(operands []value.Value) (value.Value, error) {
	v, err := one("implode", operands)
	if err != nil {
		return value.Value{}, err
	}
	if v.Kind() != value.KindArray {
		return value.Value{}, kindErr("implode", "array of codepoints", v.Kind())
	}
	runes := make([]rune, len(v.Elements()))
	for i, e := range v.Elements() {
		if e.Kind() != value.KindNumber {
			return value.Value{}, kindErr("implode", "array of codepoints", e.Kind())
		}
		runes[i] = rune(e.Number().Int64())
	}
	return value.String(string(runes)), nil
}

func builtinAbs(operands []value.Value) (value.Value, error) {
	v, err := one("abs", operands)
	if err != nil {
		return value.Value{}, err
	}
	if v.Kind() != value.KindNumber {
		return value.Value{}, kindErr("abs", "number", v.Kind())
	}
	if v.Number().IsInt() {
		n := v.Number().Int64()
		if n < 0 {
			n = -n
		}
		return value.Int(n), nil
	}
	return value.Float(math.Abs(v.Number().Float64())), nil
}

func builtinRound(operands []value.Value, fn func(float64) float64) (value.Value, error) {
	v, err := one("floor/ceil/round", operands)
	if err != nil {
		return value.Value{}, err
	}
	if v.Kind() != value.KindNumber {
		return value.Value{}, kindErr("floor/ceil/round", "number", v.Kind())
	}
	if v.Number().IsInt() {
		return v, nil
	}
	return value.Int(int64(fn(v.Number().Float64()))), nil
}
