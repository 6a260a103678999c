package broker

import "codeberg.org/mutker/fanmon/internal/errors"

const (
	ErrConnectFailed   = errors.ErrorCode("broker_connect_failed")
	ErrConnectTimeout  = errors.ErrorCode("broker_connect_timeout")
	ErrSubscribeFailed = errors.ErrorCode("broker_subscribe_failed")
	ErrPublishFailed   = errors.ErrorCode("broker_publish_failed")
	ErrEncodeFailed    = errors.ErrorCode("broker_encode_failed")
	ErrDecodeFailed    = errors.ErrorCode("broker_decode_failed")
	ErrUnknownKind     = errors.ErrorCode("broker_unknown_kind")
)
