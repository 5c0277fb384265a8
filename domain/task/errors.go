package task

import "errors"

// Domain errors. Callers match them with errors.Is; the message after the
// sentinel carries the detail.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("task not found")
	ErrStore      = errors.New("task store failure")
)
