package parser

import "fmt"

// InvalidStateError reports an unreachable handler state transition.
// It marks an implementation bug, never bad input: malformed source is
// always absorbed as invalid tokens. No parser code constructs it; the
// per-file task boundary in the analyzer recovers panics of any kind
// and reports them as an internal fault without matching this type.
type InvalidStateError struct {
	Handler string
	State   int
	Detail  string
}

// Error implements the error interface.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid parser state: %s state %d: %s", e.Handler, e.State, e.Detail)
}
