package model

import (
	"errors"
	"fmt"
)

// ErrInvalidLineItem is wrapped by every line item validation failure so
// callers can map them to a single client error.
var ErrInvalidLineItem = errors.New("invalid line item")

// ErrNotFound is wrapped by the storage layer's not-found errors so the
// domain layer can recognise them without importing it.
var ErrNotFound = errors.New("not found")

// ConfigurationError reports a malformed bus layout or tier table.  It is
// fatal to that layout only; nothing else in the engine is affected.
type ConfigurationError struct {
	Field  string // offending field, e.g. "exit_rows"
	Reason string // human readable explanation
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid layout configuration: %s: %s", e.Field, e.Reason)
}

func invalidItem(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidLineItem, fmt.Sprintf(format, args...))
}
