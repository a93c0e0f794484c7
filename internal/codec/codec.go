// Package codec decodes YAML/JSON/TOML documents into value.Value
// sequences and encodes them back out.
package codec

import (
	"path/filepath"
	"strings"

	srcerrors "github.com/aeden/sdq/internal/errors"
	"github.com/aeden/sdq/internal/value"
)

// Format identifies a document syntax.
type Format int

const (
	FormatAuto Format = iota
	FormatJSON
	FormatYAML
	FormatTOML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	default:
		return "auto"
	}
}

// ParseFormat resolves a CLI-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	default:
		return FormatAuto, srcerrors.New(srcerrors.IOErrorKind, "unknown format %q", s)
	}
}

// DetectFromExtension resolves -p/--input-format auto against a file
// name: the extension decides, anything unrecognized falls back to YAML.
func DetectFromExtension(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatYAML
	}
}

// Options controls Encode's output shape. Not every field applies to
// every format: Pretty/Color are JSON-only (YAML is always block-style;
// TOML has no compact/pretty distinction); NoDoc only affects YAML;
// UnwrapScalar applies across formats.
type Options struct {
	Indent       int
	Pretty       bool
	Color        bool
	NoDoc        bool
	UnwrapScalar bool
}

// Decode parses data as format, returning one Value per document.
// FormatAuto is not valid here — callers resolve it (via
// DetectFromExtension or a mirrored output format) before calling
// Decode.
func Decode(data []byte, format Format) ([]value.Value, error) {
	switch format {
	case FormatJSON:
		return decodeJSON(data)
	case FormatYAML:
		return decodeYAML(data)
	case FormatTOML:
		return decodeTOML(data)
	default:
		return nil, srcerrors.New(srcerrors.IOErrorKind, "cannot decode: no concrete format resolved")
	}
}

// Encode renders values as format, one document per Value, joined by a
// `---` separator for YAML (unless opts.NoDoc), a newline for JSON, and
// a blank line for TOML.
func Encode(values []value.Value, format Format, opts Options) ([]byte, error) {
	switch format {
	case FormatJSON:
		return encodeJSON(values, opts)
	case FormatYAML:
		return encodeYAML(values, opts)
	case FormatTOML:
		return encodeTOML(values, opts)
	default:
		return nil, srcerrors.New(srcerrors.IOErrorKind, "cannot encode: no concrete format resolved")
	}
}
