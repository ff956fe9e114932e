package server

import "errors"

var (
	// ErrServiceRequired is returned when a server is created without a service.
	ErrServiceRequired = errors.New("service is required")

	// ErrEmptyQuestion indicates an /ask request without a question.
	ErrEmptyQuestion = errors.New("question cannot be empty")

	// ErrInvalidLimit indicates a limit query parameter that is not a positive integer.
	ErrInvalidLimit = errors.New("limit must be a positive integer")
)
