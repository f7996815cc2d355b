package service

import (
	"strings"
)

// ValidationError reports the required order fields that were missing.
// It is surfaced to the player synchronously; nothing is charged and no
// model call is made.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}
