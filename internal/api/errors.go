package api

import "codeberg.org/mutker/fanmon/internal/errors"

const (
	ErrServeFailed  = errors.ErrorCode("api_serve_failed")
	ErrNotFound     = errors.ErrorCode("api_not_found")
	ErrInvalidQuery = errors.ErrorCode("api_invalid_query")
)
