package topology

import "codeberg.org/mutker/kscand/internal/errors"

const (
	ErrNoLines       = errors.ErrorCode("topology_no_lines")
	ErrDuplicateLine = errors.ErrorCode("topology_duplicate_line")
	ErrInvalidShape  = errors.ErrorCode("topology_invalid_shape")
	ErrTooManyLines  = errors.ErrorCode("topology_too_many_lines")
)
