package presence

import "codeberg.org/mutker/fanmon/internal/errors"

const (
	ErrReadDocument      = errors.ErrorCode("presence_read_document_failed")
	ErrParseDocument     = errors.ErrorCode("presence_parse_document_failed")
	ErrMissingName       = errors.ErrorCode("presence_missing_fan_name")
	ErrMissingPath       = errors.ErrorCode("presence_missing_fan_path")
	ErrMissingMethods    = errors.ErrorCode("presence_missing_methods")
	ErrMissingMethodType = errors.ErrorCode("presence_missing_method_type")
	ErrUnknownMethod     = errors.ErrorCode("presence_unknown_method")
	ErrMissingField      = errors.ErrorCode("presence_missing_method_field")
	ErrInvalidField      = errors.ErrorCode("presence_invalid_method_field")
	ErrMissingPolicy     = errors.ErrorCode("presence_missing_rpolicy")
	ErrMissingPolicyType = errors.ErrorCode("presence_missing_rpolicy_type")
	ErrUnknownPolicy     = errors.ErrorCode("presence_unknown_rpolicy")
)
