package codec

import (
	"bytes"
	"strconv"
	"strings"

	srcerrors "github.com/aeden/sdq/internal/errors"
	"github.com/aeden/sdq/internal/value"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// decodeJSON accepts either one JSON document (possibly pretty-printed
// across many lines) or a JSON Lines stream (one compact document per
// line). A single document is tried first; failing that, every
// non-blank line is decoded on its own.
func decodeJSON(data []byte) ([]value.Value, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if gjson.ValidBytes(trimmed) {
		v, err := fromGJSON(gjson.ParseBytes(trimmed))
		if err != nil {
			return nil, err
		}
		return []value.Value{v}, nil
	}
	var out []value.Value
	for _, line := range bytes.Split(trimmed, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if !gjson.ValidBytes(line) {
			return nil, srcerrors.New(srcerrors.LexErrorKind, "invalid JSON document: %s", line)
		}
		v, err := fromGJSON(gjson.ParseBytes(line))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// fromGJSON converts one parsed gjson.Result into a value.Value.
// Result.ForEach visits object members in source order, which is what
// lets a decoded object keep its insertion order without an
// intermediate map[string]interface{}.
func fromGJSON(r gjson.Result) (value.Value, error) {
	switch r.Type {
	case gjson.Null:
		return value.Null(), nil
	case gjson.True:
		return value.Bool(true), nil
	case gjson.False:
		return value.Bool(false), nil
	case gjson.Number:
		return numberFromRaw(r.Raw), nil
	case gjson.String:
		return value.String(r.String()), nil
	case gjson.JSON:
		if r.IsArray() {
			out := make([]value.Value, 0)
			var elemErr error
			r.ForEach(func(_, elem gjson.Result) bool {
				v, err := fromGJSON(elem)
				if err != nil {
					elemErr = err
					return false
				}
				out = append(out, v)
				return true
			})
			if elemErr != nil {
				return value.Value{}, elemErr
			}
			return value.Array(out), nil
		}
		out := value.Object()
		var fieldErr error
		r.ForEach(func(key, elem gjson.Result) bool {
			v, err := fromGJSON(elem)
			if err != nil {
				fieldErr = err
				return false
			}
			out = out.WithField(key.String(), v)
			return true
		})
		if fieldErr != nil {
			return value.Value{}, fieldErr
		}
		return out, nil
	default:
		return value.Value{}, srcerrors.New(srcerrors.LexErrorKind, "unrecognized JSON value %q", r.Raw)
	}
}

// numberFromRaw preserves the int/float distinction: a literal
// with no '.', 'e', or 'E' round-trips as an integer.
func numberFromRaw(raw string) value.Value {
	if !strings.ContainsAny(raw, ".eE") {
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return value.Int(i)
		}
	}
	f, _ := strconv.ParseFloat(raw, 64)
	return value.Float(f)
}

func encodeJSON(values []value.Value, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	for i, v := range values {
		if i > 0 {
			buf.WriteByte('\n')
		}
		raw, err := encodeJSONValue(v, opts)
		if err != nil {
			return nil, err
		}
		buf.Write(raw)
	}
	return buf.Bytes(), nil
}

func encodeJSONValue(v value.Value, opts Options) ([]byte, error) {
	if opts.UnwrapScalar && v.Kind() == value.KindString {
		return []byte(v.Str()), nil
	}
	raw, err := rawJSON(v)
	if err != nil {
		return nil, err
	}
	out := []byte(raw)
	if opts.Pretty {
		out = pretty.PrettyOptions(out, &pretty.Options{Indent: strings.Repeat(" ", indentOrDefault(opts.Indent))})
	} else {
		out = pretty.Ugly(out)
	}
	if opts.Color {
		out = pretty.Color(out, nil)
	}
	return bytes.TrimRight(out, "\n"), nil
}

func indentOrDefault(n int) int {
	if n <= 0 {
		return 2
	}
	return n
}

// rawJSON renders v as a JSON text fragment, building containers
// incrementally with sjson.SetRawBytes/SetBytes (one member per call,
// in v's own key order) rather than a single bulk marshal — the same
// order-preserving discipline decode uses in reverse.
func rawJSON(v value.Value) (string, error) {
	switch v.Kind() {
	case value.KindNull:
		return "null", nil
	case value.KindBool:
		if v.Bool() {
			return "true", nil
		}
		return "false", nil
	case value.KindNumber:
		if v.Number().IsInt() {
			return strconv.FormatInt(v.Number().Int64(), 10), nil
		}
		return strconv.FormatFloat(v.Number().Float64(), 'g', -1, 64), nil
	case value.KindString:
		b, err := sjson.SetBytes([]byte(`{}`), "s", v.Str())
		if err != nil {
			return "", srcerrors.New(srcerrors.LexErrorKind, "encoding JSON string: %v", err)
		}
		return gjson.GetBytes(b, "s").Raw, nil
	case value.KindArray:
		buf := []byte(`[]`)
		var err error
		for _, elem := range v.Elements() {
			raw, rerr := rawJSON(elem)
			if rerr != nil {
				return "", rerr
			}
			buf, err = sjson.SetRawBytes(buf, "-1", []byte(raw))
			if err != nil {
				return "", srcerrors.New(srcerrors.LexErrorKind, "encoding JSON array: %v", err)
			}
		}
		return string(buf), nil
	case value.KindObject:
		buf := []byte(`{}`)
		var err error
		for _, k := range v.Keys() {
			val, _ := v.Field(k)
			raw, rerr := rawJSON(val)
			if rerr != nil {
				return "", rerr
			}
			buf, err = sjson.SetRawBytes(buf, sjsonPathEscape(k), []byte(raw))
			if err != nil {
				return "", srcerrors.New(srcerrors.LexErrorKind, "encoding JSON object: %v", err)
			}
		}
		return string(buf), nil
	default:
		return "", srcerrors.New(srcerrors.LexErrorKind, "cannot encode %s as JSON", v.Kind())
	}
}

// sjsonPathEscape escapes sjson's path metacharacters so an arbitrary
// object key can be used as a literal path segment.
func sjsonPathEscape(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '#', '|', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
