package parser

import (
	"fmt"

	"github.com/aeden/sdq/internal/lexer"
)

// ParseError is a single syntax error with its source position.
type ParseError struct {
	Message string
	Pos     lexer.Position
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}
