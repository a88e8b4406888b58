// Package store owns the database handle and the error taxonomy shared by
// every service. The sentinel values let handlers distinguish failure
// classes without inspecting messages: ErrConflict is a precondition lost
// to concurrent state (book no longer available, duplicate pending request,
// already-returned loan), ErrInvalidState is an operation against an entity
// outside its required state (approving a non-pending request), ErrNotFound
// is a missing row, and ErrTransient is a store failure mid-mutation after
// which compensation ran and a retry is safe.
package store

import "errors"

var (
	// ErrConflict maps to HTTP 409. The caller should re-read state;
	// retrying the same call will fail the same precondition.
	ErrConflict = errors.New("conflict")

	// ErrInvalidState maps to HTTP 422 and indicates a UI/program desync.
	// It is logged and never retried.
	ErrInvalidState = errors.New("invalid state")

	// ErrNotFound maps to HTTP 404.
	ErrNotFound = errors.New("not found")

	// ErrTransient maps to HTTP 503. Compensation has already restored
	// the previous visible state, so the caller may retry.
	ErrTransient = errors.New("transient store failure")

	// ErrRateLimited maps to HTTP 429. Unlike ErrConflict no state was
	// contended; the caller should back off and retry later.
	ErrRateLimited = errors.New("rate limited")
)
