package codec

import (
	"bytes"
	"testing"

	"github.com/aeden/sdq/internal/value"
)

func TestDetectFromExtension(t *testing.T) {
	tests := map[string]Format{
		"a.json": FormatJSON,
		"a.yaml": FormatYAML,
		"a.yml":  FormatYAML,
		"a.toml": FormatTOML,
		"a.txt":  FormatYAML,
		"noext":  FormatYAML,
	}
	for name, want := range tests {
		if got := DetectFromExtension(name); got != want {
			t.Errorf("%s: got %v, want %v", name, got, want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"":     FormatAuto,
		"auto": FormatAuto,
		"json": FormatJSON,
		"YAML": FormatYAML,
		"yml":  FormatYAML,
		"toml": FormatTOML,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", in, err)
		}
		if got != want {
			t.Errorf("%q: got %v, want %v", in, got, want)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("expected an error for an unknown format")
	}
}

func TestJSON_DecodeEncodeRoundTrip(t *testing.T) {
	input := `{"a":1,"b":[1,2,3],"c":{"d":"e"}}`
	docs, err := Decode([]byte(input), FormatJSON)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	out, err := Encode(docs, FormatJSON, Options{})
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	roundTripped, err := Decode(out, FormatJSON)
	if err != nil {
		t.Fatalf("re-decode error: %v", err)
	}
	if !value.Equal(docs[0], roundTripped[0]) {
		t.Fatalf("round trip mismatch: got %v, want %v", roundTripped[0], docs[0])
	}
}

func TestJSON_PreservesKeyOrder(t *testing.T) {
	docs, err := Decode([]byte(`{"z":1,"a":2}`), FormatJSON)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	keys := docs[0].Keys()
	if len(keys) != 2 || keys[0] != "z" || keys[1] != "a" {
		t.Fatalf("got %v, want [z a]", keys)
	}
}

func TestJSON_IntVsFloat(t *testing.T) {
	docs, err := Decode([]byte(`{"i":3,"f":3.5}`), FormatJSON)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	i, _ := docs[0].Field("i")
	f, _ := docs[0].Field("f")
	if !i.Number().IsInt() {
		t.Fatalf("expected i to decode as an integer")
	}
	if f.Number().IsInt() {
		t.Fatalf("expected f to decode as a float")
	}
}

func TestJSON_LinesMultiDocument(t *testing.T) {
	input := "{\"a\":1}\n{\"a\":2}\n"
	docs, err := Decode([]byte(input), FormatJSON)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
}

func TestJSON_UnwrapScalar(t *testing.T) {
	out, err := Encode([]value.Value{value.String("hello")}, FormatJSON, Options{UnwrapScalar: true})
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	if string(out) != "hello" {
		t.Fatalf("got %q, want unquoted %q", out, "hello")
	}
}

func TestYAML_DecodeEncodeRoundTrip(t *testing.T) {
	input := "a: 1\nb:\n  - 1\n  - 2\nc:\n  d: e\n"
	docs, err := Decode([]byte(input), FormatYAML)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	out, err := Encode(docs, FormatYAML, Options{})
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	roundTripped, err := Decode(out, FormatYAML)
	if err != nil {
		t.Fatalf("re-decode error: %v", err)
	}
	if !value.Equal(docs[0], roundTripped[0]) {
		t.Fatalf("round trip mismatch: got %v, want %v", roundTripped[0], docs[0])
	}
}

func TestYAML_MultiDocumentSeparator(t *testing.T) {
	input := "a: 1\n---\na: 2\n"
	docs, err := Decode([]byte(input), FormatYAML)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
}

func TestYAML_NoDocSuppressesSeparator(t *testing.T) {
	docs := []value.Value{value.Int(1), value.Int(2)}
	out, err := Encode(docs, FormatYAML, Options{NoDoc: true})
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	if string(out) == "" {
		t.Fatalf("expected non-empty output")
	}
	if bytes.Contains(out, []byte("---")) {
		t.Fatalf("expected no document separator in %q", out)
	}
}

func TestTOML_DecodeEncodeRoundTrip(t *testing.T) {
	input := "a = 1\n\n[b]\nc = \"d\"\n"
	docs, err := Decode([]byte(input), FormatTOML)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	out, err := Encode(docs, FormatTOML, Options{})
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	roundTripped, err := Decode(out, FormatTOML)
	if err != nil {
		t.Fatalf("re-decode error: %v", err)
	}
	if !value.Equal(docs[0], roundTripped[0]) {
		t.Fatalf("round trip mismatch: got %v, want %v", roundTripped[0], docs[0])
	}
}

func TestTOML_NullIsTypeError(t *testing.T) {
	doc := value.Object().WithField("a", value.Null())
	_, err := Encode([]value.Value{doc}, FormatTOML, Options{})
	if err == nil {
		t.Fatalf("expected an error encoding null as TOML")
	}
}

func TestTOML_RequiresObjectAtTopLevel(t *testing.T) {
	_, err := Encode([]value.Value{value.Int(1)}, FormatTOML, Options{})
	if err == nil {
		t.Fatalf("expected an error encoding a scalar as TOML")
	}
}
