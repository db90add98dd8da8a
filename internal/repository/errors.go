package repository

import "errors"

var (
	// ErrStateConflict indicates a conditional status update matched no rows
	// because the row is no longer in the expected state. The caller lost the
	// race or is retrying a decided request.
	ErrStateConflict = errors.New("row not in expected state")
	// ErrDuplicatePending indicates an equivalent pending request already exists.
	ErrDuplicatePending = errors.New("pending request already exists")
	// ErrAlreadyMember indicates an active membership already links the pair.
	ErrAlreadyMember = errors.New("active membership already exists")
	// ErrCapacityFull indicates the classroom student limit has been reached.
	ErrCapacityFull = errors.New("classroom is at capacity")
	// ErrOverlap indicates the requested time window collides with an existing row.
	ErrOverlap = errors.New("time window overlaps an existing entry")
)
