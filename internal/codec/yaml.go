package codec

import (
	"bytes"
	"fmt"
	"io"

	srcerrors "github.com/aeden/sdq/internal/errors"
	"github.com/aeden/sdq/internal/value"
	"github.com/goccy/go-yaml"
)

// decodeYAML walks a `---`-separated document stream with
// yaml.NewDecoder, unmarshaling each document with
// yaml.UseOrderedMap() so every mapping decodes as a yaml.MapSlice
// instead of an unordered map[string]interface{} — the same
// order-preservation requirement as JSON decode.
func decodeYAML(data []byte) ([]value.Value, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data), yaml.UseOrderedMap())
	var out []value.Value
	for {
		var doc interface{}
		err := dec.Decode(&doc)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, srcerrors.New(srcerrors.LexErrorKind, "invalid YAML document: %v", err)
		}
		if doc == nil {
			continue
		}
		v, err := fromYAMLNode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func fromYAMLNode(n interface{}) (value.Value, error) {
	switch t := n.(type) {
	case nil:
		return value.Null(), nil
	case bool:
		return value.Bool(t), nil
	case int:
		return value.Int(int64(t)), nil
	case int64:
		return value.Int(t), nil
	case uint64:
		return value.Int(int64(t)), nil
	case float64:
		return value.Float(t), nil
	case string:
		return value.String(t), nil
	case []interface{}:
		out := make([]value.Value, len(t))
		for i, elem := range t {
			v, err := fromYAMLNode(elem)
			if err != nil {
				return value.Value{}, err
			}
			out[i] = v
		}
		return value.Array(out), nil
	case yaml.MapSlice:
		out := value.Object()
		for _, item := range t {
			key, ok := item.Key.(string)
			if !ok {
				key = fmt.Sprint(item.Key)
			}
			v, err := fromYAMLNode(item.Value)
			if err != nil {
				return value.Value{}, err
			}
			out = out.WithField(key, v)
		}
		return out, nil
	default:
		return value.Value{}, srcerrors.New(srcerrors.LexErrorKind, "unsupported YAML node %T", t)
	}
}

// encodeYAML marshals each value with goccy/go-yaml's always-block-
// style output, joining documents with a `---` separator unless
// opts.NoDoc suppresses it.
func encodeYAML(values []value.Value, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	for i, v := range values {
		if i > 0 && !opts.NoDoc {
			buf.WriteString("---\n")
		}
		if opts.UnwrapScalar && v.Kind() == value.KindString {
			buf.WriteString(v.Str())
			buf.WriteByte('\n')
			continue
		}
		node := toYAMLNode(v)
		out, err := yaml.MarshalWithOptions(node, yaml.Indent(indentOrDefault(opts.Indent)))
		if err != nil {
			return nil, srcerrors.New(srcerrors.LexErrorKind, "encoding YAML: %v", err)
		}
		buf.Write(out)
	}
	return buf.Bytes(), nil
}

func toYAMLNode(v value.Value) interface{} {
	switch v.Kind() {
	case value.KindNull:
		return nil
	case value.KindBool:
		return v.Bool()
	case value.KindNumber:
		if v.Number().IsInt() {
			return v.Number().Int64()
		}
		return v.Number().Float64()
	case value.KindString:
		return v.Str()
	case value.KindArray:
		out := make([]interface{}, v.Len())
		for i, e := range v.Elements() {
			out[i] = toYAMLNode(e)
		}
		return out
	case value.KindObject:
		out := make(yaml.MapSlice, 0, v.Len())
		for _, k := range v.Keys() {
			val, _ := v.Field(k)
			out = append(out, yaml.MapItem{Key: k, Value: toYAMLNode(val)})
		}
		return out
	default:
		return nil
	}
}
