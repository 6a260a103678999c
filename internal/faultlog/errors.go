package faultlog

import "codeberg.org/mutker/fanmon/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrInvalidDBPath = errors.ErrorCode("faultlog_invalid_db_path")

	// Schema Errors
	ErrSchemaInitFailed       = errors.ErrorCode("faultlog_schema_init_failed")
	ErrSchemaValidationFailed = errors.ErrorCode("faultlog_schema_validation_failed")
	ErrSchemaMigrationFailed  = errors.ErrorCode("faultlog_schema_migration_failed")
	ErrTransactionFailed      = errors.ErrorCode("faultlog_transaction_failed")

	// Storage Errors
	ErrStorageInit  = errors.ErrInitFailed
	ErrStorageClose = errors.ErrShutdownFailed
	ErrQueryFailed  = errors.ErrorCode("faultlog_query_failed")

	// Record Errors
	ErrInvalidFault = errors.ErrorCode("faultlog_invalid_fault")
	ErrQueueFull    = errors.ErrorCode("faultlog_queue_full")
)
