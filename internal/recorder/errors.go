package recorder

import "codeberg.org/mutker/kscand/internal/errors"

const (
	ErrInvalidConfig   = errors.ErrorCode("recorder_invalid_config")
	ErrInvalidDBPath   = errors.ErrorCode("recorder_invalid_db_path")
	ErrInvalidSnapshot = errors.ErrorCode("recorder_invalid_snapshot")
	ErrStorageInit     = errors.ErrorCode("recorder_storage_init_failed")
	ErrStorageAccess   = errors.ErrorCode("recorder_storage_access_failed")
	ErrStorageClose    = errors.ErrorCode("recorder_storage_close_failed")
	ErrServiceShutdown = errors.ErrorCode("recorder_shutdown_failed")
)
