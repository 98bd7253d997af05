package domain

import "errors"

// Cross-cutting domain errors. Component-specific failures (cycle detection,
// transition validation, policy denials) live in their owning packages.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")
	// ErrVersionConflict indicates a concurrent edit was detected on the same entity.
	ErrVersionConflict = errors.New("entity version conflict")
	// ErrAuditWriteFailed indicates the audit record could not be appended.
	// Any state transition gated by the failed write must be rolled back.
	ErrAuditWriteFailed = errors.New("audit write failed")
	// ErrImmutableEntity indicates an attempt to mutate an append-only record.
	ErrImmutableEntity = errors.New("entity is immutable")
)
