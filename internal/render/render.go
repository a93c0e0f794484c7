// Package render applies terminal coloring to already-encoded YAML/
// TOML text. JSON coloring goes through tidwall/pretty.Color instead
// (internal/codec/json.go) since it already has a dedicated colorizer
// for that syntax; YAML and TOML don't, so this package tokenizes their
// line-oriented shape (key, string, number, punctuation) and wraps each
// token class in its own lipgloss.Style.
package render

import (
	"regexp"
	"strings"

	"charm.land/lipgloss/v2"
)

var (
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	stringStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	numberStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	boolStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	nullStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	punctStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	tableStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

var numberPattern = regexp.MustCompile(`^-?\d+(\.\d+)?([eE][+-]?\d+)?$`)

// Syntax selects the line grammar Colorize tokenizes against.
type Syntax int

const (
	SyntaxYAML Syntax = iota
	SyntaxTOML
)

// Colorize wraps each recognizable token in text in an ANSI style.
// It is intentionally a line-oriented heuristic, not a real parser —
// text has already round-tripped through a Value, so it is always
// well-formed YAML/TOML; the only job left is classifying tokens a
// human reads, not validating structure.
func Colorize(text string, syntax Syntax) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = colorizeLine(line, syntax)
	}
	return strings.Join(lines, "\n")
}

func colorizeLine(line string, syntax Syntax) string {
	trimmed := strings.TrimLeft(line, " ")
	indent := line[:len(line)-len(trimmed)]

	switch {
	case trimmed == "" || trimmed == "---":
		return line
	case syntax == SyntaxTOML && strings.HasPrefix(trimmed, "["):
		return indent + tableStyle.Render(trimmed)
	case syntax == SyntaxYAML && trimmed == "-":
		return line
	case syntax == SyntaxYAML && strings.HasPrefix(trimmed, "- "):
		return indent + punctStyle.Render("- ") + colorizeAssignment(trimmed[2:], syntax)
	default:
		return indent + colorizeAssignment(trimmed, syntax)
	}
}

func colorizeAssignment(s string, syntax Syntax) string {
	sep := ':'
	if syntax == SyntaxTOML {
		sep = '='
	}
	idx := findTopLevelSep(s, sep)
	if idx < 0 {
		return colorizeScalar(s)
	}
	key, rest := s[:idx], s[idx+1:]
	head := keyStyle.Render(strings.TrimRight(key, " ")) + punctStyle.Render(string(sep))
	if strings.TrimSpace(rest) == "" {
		return head
	}
	pad := " "
	trimmedRest := strings.TrimPrefix(rest, " ")
	return head + pad + colorizeScalar(trimmedRest)
}

// findTopLevelSep finds sep outside of a quoted string.
func findTopLevelSep(s string, sep rune) int {
	inQuote := rune(0)
	for i, r := range s {
		switch {
		case inQuote != 0:
			if r == inQuote {
				inQuote = 0
			}
		case r == '"' || r == '\'':
			inQuote = r
		case r == sep:
			return i
		}
	}
	return -1
}

func colorizeScalar(s string) string {
	switch {
	case strings.HasPrefix(s, `"`) || strings.HasPrefix(s, `'`):
		return stringStyle.Render(s)
	case s == "true" || s == "false":
		return boolStyle.Render(s)
	case s == "null" || s == "~":
		return nullStyle.Render(s)
	case numberPattern.MatchString(s):
		return numberStyle.Render(s)
	case strings.HasPrefix(s, "#"):
		return punctStyle.Render(s)
	default:
		return stringStyle.Render(s)
	}
}
