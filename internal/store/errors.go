package store

import "errors"

// Common store errors
var (
	ErrNotFound          = errors.New("record not found")
	ErrInvalidPayload    = errors.New("payload must be an object")
	ErrInvalidPagination = errors.New("invalid pagination parameters")
)

// Pagination bounds
const (
	MinLimit = 1
	MaxLimit = 1000
)
