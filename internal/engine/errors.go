package engine

import "fmt"

// UnknownCommanderError is returned when a query names a commander the
// catalog does not contain (or that cannot lead a deck). Recoverable by
// the caller retrying with a corrected name.
type UnknownCommanderError struct {
	Name string
}

func (e *UnknownCommanderError) Error() string {
	return fmt.Sprintf("unknown commander %q", e.Name)
}
