// Package errors defines the structured error surface every other
// package in this module reports through: no panics, ever, only typed,
// position-annotated errors.
package errors

import (
	"fmt"
	"strings"

	"github.com/aeden/sdq/internal/lexer"
)

// Kind classifies a SourceError by the stage that produced it.
type Kind int

const (
	// LexErrorKind is a bad character or unterminated string.
	LexErrorKind Kind = iota
	// ParseErrorKind is an unexpected token during parsing.
	ParseErrorKind
	// TypeErrorKind is an operator applied to an unsupported Value kind.
	TypeErrorKind
	// ArithErrorKind is division by zero or a failed tonumber conversion.
	ArithErrorKind
	// PathErrorKind is a negative-index assignment or assignment through
	// a scalar.
	PathErrorKind
	// IOErrorKind is a file read/write failure at the CLI boundary.
	IOErrorKind
)

func (k Kind) String() string {
	switch k {
	case LexErrorKind:
		return "LexError"
	case ParseErrorKind:
		return "ParseError"
	case TypeErrorKind:
		return "TypeError"
	case ArithErrorKind:
		return "ArithError"
	case PathErrorKind:
		return "PathError"
	case IOErrorKind:
		return "IOError"
	default:
		return "Error"
	}
}

// SourceError is a single failure with an optional position into the
// original expression or document source.
type SourceError struct {
	Kind    Kind
	Message string
	Pos     lexer.Position
	HasPos  bool
	Source  string
	File    string
}

// New builds a SourceError with no source position (used by
// internal/ops and internal/path, which operate on Values rather than
// source text; internal/eval attaches a position when it wraps one of
// these).
func New(kind Kind, format string, args ...any) *SourceError {
	return &SourceError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewAt builds a SourceError with a source position.
func NewAt(kind Kind, pos lexer.Position, format string, args ...any) *SourceError {
	return &SourceError{Kind: kind, Message: fmt.Sprintf(format, args...), Pos: pos, HasPos: true}
}

// WithSource attaches the original source text and file name (used for
// caret rendering); it returns e for chaining.
func (e *SourceError) WithSource(source, file string) *SourceError {
	e.Source = source
	e.File = file
	return e
}

func (e *SourceError) Error() string { return e.Format(false) }

// Format renders the error as a file:line:col header (when a position
// is available), the offending source line, and a caret under the
// column, optionally in ANSI color.
func (e *SourceError) Format(color bool) string {
	if !e.HasPos {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	var b strings.Builder
	file := e.File
	if file == "" {
		file = "<expression>"
	}
	fmt.Fprintf(&b, "%s: %s:%d:%d: %s\n", e.Kind, file, e.Pos.Line, e.Pos.Column, e.Message)
	line := sourceLine(e.Source, e.Pos.Line)
	if line == "" {
		return strings.TrimRight(b.String(), "\n")
	}
	fmt.Fprintf(&b, "  %s\n", line)
	caret := strings.Repeat(" ", e.Pos.Column-1) + "^"
	if color {
		caret = "\033[1;31m" + caret + "\033[0m"
	}
	fmt.Fprintf(&b, "  %s", caret)
	return b.String()
}

func sourceLine(source string, lineNo int) string {
	if source == "" || lineNo < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if lineNo > len(lines) {
		return ""
	}
	return lines[lineNo-1]
}
