package codec

import (
	"sort"
	"time"

	srcerrors "github.com/aeden/sdq/internal/errors"
	"github.com/aeden/sdq/internal/value"
	"github.com/pelletier/go-toml/v2"
)

// decodeTOML returns exactly one document: TOML has no multi-document
// convention, and its root is always a table.
func decodeTOML(data []byte) ([]value.Value, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var doc map[string]interface{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, srcerrors.New(srcerrors.LexErrorKind, "invalid TOML document: %v", err)
	}
	v, err := fromTOMLNode(doc)
	if err != nil {
		return nil, err
	}
	return []value.Value{v}, nil
}

func fromTOMLNode(n interface{}) (value.Value, error) {
	switch t := n.(type) {
	case nil:
		return value.Null(), nil
	case bool:
		return value.Bool(t), nil
	case int64:
		return value.Int(t), nil
	case int:
		return value.Int(int64(t)), nil
	case float64:
		return value.Float(t), nil
	case string:
		return value.String(t), nil
	case time.Time:
		return value.String(t.Format(time.RFC3339Nano)), nil
	case []interface{}:
		out := make([]value.Value, len(t))
		for i, elem := range t {
			v, err := fromTOMLNode(elem)
			if err != nil {
				return value.Value{}, err
			}
			out[i] = v
		}
		return value.Array(out), nil
	case map[string]interface{}:
		out := value.Object()
		for _, k := range sortedTOMLKeys(t) {
			v, err := fromTOMLNode(t[k])
			if err != nil {
				return value.Value{}, err
			}
			out = out.WithField(k, v)
		}
		return out, nil
	default:
		return value.Value{}, srcerrors.New(srcerrors.LexErrorKind, "unsupported TOML node %T", t)
	}
}

// sortedTOMLKeys imposes a stable lexicographic order on a decoded
// table; go-toml hands tables back as unordered maps, so source order
// is already gone by this point.
func sortedTOMLKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func encodeTOML(values []value.Value, opts Options) ([]byte, error) {
	var out []byte
	for i, v := range values {
		if i > 0 {
			out = append(out, '\n')
		}
		if opts.UnwrapScalar && v.Kind() == value.KindString {
			out = append(out, []byte(v.Str())...)
			out = append(out, '\n')
			continue
		}
		if v.Kind() != value.KindObject {
			return nil, srcerrors.New(srcerrors.LexErrorKind, "TOML output requires an object at the top level, got %s", v.Kind())
		}
		node, err := toTOMLNode(v)
		if err != nil {
			return nil, err
		}
		b, err := toml.Marshal(node)
		if err != nil {
			return nil, srcerrors.New(srcerrors.LexErrorKind, "encoding TOML: %v", err)
		}
		out = append(out, b...)
	}
	return out, nil
}

// toTOMLNode converts v into plain Go values toml.Marshal accepts.
// TOML has no null literal, so a null anywhere in the tree is a
// TypeError rather than a silently dropped key.
func toTOMLNode(v value.Value) (interface{}, error) {
	switch v.Kind() {
	case value.KindNull:
		return nil, srcerrors.New(srcerrors.TypeErrorKind, "TOML has no representation for null")
	case value.KindBool:
		return v.Bool(), nil
	case value.KindNumber:
		if v.Number().IsInt() {
			return v.Number().Int64(), nil
		}
		return v.Number().Float64(), nil
	case value.KindString:
		return v.Str(), nil
	case value.KindArray:
		out := make([]interface{}, v.Len())
		for i, e := range v.Elements() {
			node, err := toTOMLNode(e)
			if err != nil {
				return nil, err
			}
			out[i] = node
		}
		return out, nil
	case value.KindObject:
		out := make(map[string]interface{}, v.Len())
		for _, k := range v.Keys() {
			val, _ := v.Field(k)
			node, err := toTOMLNode(val)
			if err != nil {
				return nil, err
			}
			out[k] = node
		}
		return out, nil
	default:
		return nil, srcerrors.New(srcerrors.LexErrorKind, "cannot encode %s as TOML", v.Kind())
	}
}
