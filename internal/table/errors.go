package table

import "fmt"

// tableError is a rejection raised by the table controller itself (seat
// lookup, wrong phase for the action) as opposed to one surfaced by an
// engine's GameError.
type tableError struct {
	message string
}

func (e *tableError) Error() string { return e.message }

func newTableError(format string, args ...any) error {
	return &tableError{message: fmt.Sprintf(format, args...)}
}
