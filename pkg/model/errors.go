package model

import "fmt"

// InvalidInputError reports structurally unusable input: empty data, blank
// required fields, or unparseable concentration values. Row is 1-based and
// zero when the error is not tied to a specific row.
type InvalidInputError struct {
	Reason string
	Row    int
	Field  string
}

func (e *InvalidInputError) Error() string {
	switch {
	case e.Row > 0 && e.Field != "":
		return fmt.Sprintf("invalid input: %s (row %d, field %q)", e.Reason, e.Row, e.Field)
	case e.Row > 0:
		return fmt.Sprintf("invalid input: %s (row %d)", e.Reason, e.Row)
	case e.Field != "":
		return fmt.Sprintf("invalid input: %s (field %q)", e.Reason, e.Field)
	default:
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
}
