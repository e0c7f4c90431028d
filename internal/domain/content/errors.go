package content

import "errors"

// Source errors
var (
	ErrSourceNotFound = errors.New("source not found")
	ErrInvalidSource  = errors.New("invalid source")
)

// Post errors
var (
	ErrPostNotFound = errors.New("post not found")
	ErrInvalidPost  = errors.New("invalid post")
)
