package types

import "errors"

// Outcome errors. Document operations never panic on missing or mismatched
// data; they return one of these so callers can tell "nothing there" from
// "refused" (errors.Is).
var (
	// ErrAbsent means the key, index or path resolved to nothing.
	ErrAbsent = errors.New("absent")
	// ErrRejected means a precondition of the operation did not hold, such
	// as inserting into a mapping document or inverting a non-boolean.
	ErrRejected = errors.New("rejected")
	// ErrPartial is joined with ErrAbsent or ErrRejected when a document
	// call reaches a connection that holds no document.
	ErrPartial = errors.New("connection is not connected")
)

// Load and configuration errors.
var (
	ErrInvalidDocument = errors.New("document root must be an object or an array")
	ErrPoolPath        = errors.New("pool path must be a directory")
	ErrIntervalInvalid = errors.New("interval must be positive")
	ErrPollingInvalid  = errors.New("polling interval must not be negative")
)
