// Package models defines shared error types for Hireloop.
package models

import (
	"errors"
	"fmt"
	"strings"
)

// Error variables for better error handling and testability
var (
	// ErrNotFound indicates the requested record does not exist in the
	// durable record store.
	ErrNotFound = errors.New("record not found")
	// ErrNoActiveSession indicates there is no interview in progress for the
	// identity; send-message requires an existing progress record.
	ErrNoActiveSession = errors.New("no active interview session")
	// ErrDataIntegrity indicates the question and answer buffers disagree at
	// finalize time. This is fatal and is never silently repaired.
	ErrDataIntegrity = errors.New("transcript buffers are inconsistent")
	// ErrCorruptPayload indicates a cache payload failed to decode. Callers
	// self-heal by deleting the entry and recomputing.
	ErrCorruptPayload = errors.New("cache payload is corrupt")
)

// ValidationError reports a durable-store write rejected by validation. It is
// always surfaced to the caller with the failing criteria and must never be
// blindly retried.
type ValidationError struct {
	Record   string
	Criteria []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Record, strings.Join(e.Criteria, "; "))
}

// UpstreamError reports a transport-level failure talking to the chat
// provider or the durable record store. Unlike ValidationError it is safe to
// retry.
type UpstreamError struct {
	Service    string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s unavailable (status %d): %v", e.Service, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
