package domain

import "errors"

// ErrPositionUnavailable is returned when no schema-valid insertion point exists.
var ErrPositionUnavailable = errors.New("no valid insertion position")

// ErrTransferConfigurationMissing is returned when the upload registry has no adapter.
var ErrTransferConfigurationMissing = errors.New("upload adapter is not configured")

// ErrStaleReference is returned when a node no longer exists or no longer carries
// the expected transfer id.
var ErrStaleReference = errors.New("stale node reference")

// ErrInvalidStateTransition is returned when a resize operation is called from the wrong state.
var ErrInvalidStateTransition = errors.New("invalid state transition")

// ErrSchemaViolation is returned when a mutation would leave the tree schema-invalid.
var ErrSchemaViolation = errors.New("schema violation")

// ErrNodeDetached is returned when a node is not part of the expected tree.
var ErrNodeDetached = errors.New("node is not attached")

// ErrInvalidPosition is returned for positions outside their parent's bounds.
var ErrInvalidPosition = errors.New("invalid position")

// ErrNoBatch is returned when a writer is used outside of its batch.
var ErrNoBatch = errors.New("writer used outside of a batch")

// ErrSessionNotFound is returned when an editing session id is unknown.
var ErrSessionNotFound = errors.New("session not found")

// ErrTransferNotFound is returned when a transfer id is unknown.
var ErrTransferNotFound = errors.New("transfer not found")
