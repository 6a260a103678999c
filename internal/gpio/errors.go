package gpio

import "codeberg.org/mutker/fanmon/internal/errors"

const (
	ErrOpenDevice  = errors.ErrorCode("gpio_open_device_failed")
	ErrReadKeys    = errors.ErrorCode("gpio_read_keys_failed")
	ErrKeyRange    = errors.ErrorCode("gpio_key_out_of_range")
	ErrUnsupported = errors.ErrorCode("gpio_unsupported_platform")
)
