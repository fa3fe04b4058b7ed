package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// These errors are shared by the catalog, session and transport layers and are
// mapped to status codes at the edges.
// -----------------------------------------------------------------------------

// Catalog errors
var (
	ErrCourseNotFound      = errors.New("course not found")
	ErrExerciseNotFound    = errors.New("exercise not found")
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// Session errors
var (
	ErrSessionNotFound = errors.New("session not found")
)

// General errors
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)
