package flow

import "fmt"

// DefaultMaxDepth bounds how deeply constructs may nest before a
// translation gives up with a DepthError.
const DefaultMaxDepth = 200

// SyntaxError reports source the strict front end could not parse.
type SyntaxError struct {
	Line    int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d: %s", e.Line, e.Message)
}

// DepthError reports a construct nested deeper than the configured limit.
type DepthError struct {
	Line  int
	Limit int
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("nesting too deep at line %d: limit is %d", e.Line, e.Limit)
}
