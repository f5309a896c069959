package repositories

import "errors"

// ErrNotFound is returned when a referenced record does not exist.
// Implementations wrap it with the record kind and ID for context, so
// callers match with errors.Is.
var ErrNotFound = errors.New("record not found")
