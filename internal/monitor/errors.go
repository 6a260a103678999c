package monitor

import "codeberg.org/mutker/fanmon/internal/errors"

const (
	ErrReadDocument       = errors.ErrorCode("monitor_read_document_failed")
	ErrParseDocument      = errors.ErrorCode("monitor_parse_document_failed")
	ErrNoFans             = errors.ErrorCode("monitor_no_fans")
	ErrMissingInventory   = errors.ErrorCode("monitor_missing_inventory")
	ErrMissingSensors     = errors.ErrorCode("monitor_missing_sensors")
	ErrMissingSensorName  = errors.ErrorCode("monitor_missing_sensor_name")
	ErrMissingDeviation   = errors.ErrorCode("monitor_missing_deviation")
	ErrInvalidMethod      = errors.ErrorCode("monitor_invalid_method")
	ErrInvalidThreshold   = errors.ErrorCode("monitor_invalid_threshold")
	ErrInvalidFactor      = errors.ErrorCode("monitor_invalid_factor")
	ErrInvalidBoundary    = errors.ErrorCode("monitor_invalid_boundary")
	ErrDuplicateInventory = errors.ErrorCode("monitor_duplicate_inventory")
)
