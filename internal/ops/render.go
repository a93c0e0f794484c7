package ops

import (
	"strconv"
	"strings"

	"github.com/aeden/sdq/internal/value"
)

// Render produces a compact, canonical text rendering of v, used by
// tostring for non-string values. It is deliberately JSON-shaped (the
// format every Value already round-trips through) rather than a
// bespoke syntax.
func Render(v value.Value) string {
	var b strings.Builder
	render(&b, v)
	return b.String()
}

func render(b *strings.Builder, v value.Value) {
	switch v.Kind() {
	case value.KindNull:
		b.WriteString("null")
	case value.KindBool:
		if v.Bool() {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case value.KindNumber:
		if v.Number().IsInt() {
			b.WriteString(strconv.FormatInt(v.Number().Int64(), 10))
		} else {
			b.WriteString(strconv.FormatFloat(v.Number().Float64(), 'g', -1, 64))
		}
	case value.KindString:
		b.WriteString(strconv.Quote(v.Str()))
	case value.KindArray:
		b.WriteByte('[')
		for i, e := range v.Elements() {
			if i > 0 {
				b.WriteByte(',')
			}
			render(b, e)
		}
		b.WriteByte(']')
	case value.KindObject:
		b.WriteByte('{')
		for i, k := range v.Keys() {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(k))
			b.WriteByte(':')
			val, _ := v.Field(k)
			render(b, val)
		}
		b.WriteByte('}')
	}
}
