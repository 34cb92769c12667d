package domain

import "errors"

var (
	// ErrSetNotFound indicates a question set ID does not resolve in the catalog.
	ErrSetNotFound = errors.New("question set not found")
	// ErrEmptyCatalog is returned when no question sets are registered at all.
	ErrEmptyCatalog = errors.New("no question sets registered")
)
