// Package agent provides the chat-completion provider boundary for Hireloop.
//
// The interview controller consumes the provider through the Provider
// interface: open a stateful agent session, send a message, read back a
// finite stream of text chunks.
package agent

import "context"

// Stream is a finite, non-restartable sequence of text chunks from the
// provider. Callers must drain it with Next/Current and check Err once Next
// returns false.
type Stream interface {
	// Next advances to the next non-empty chunk.
	Next() bool
	// Current returns the chunk at the current position.
	Current() string
	// Err reports the terminal error, if any. A provider timeout surfaces
	// here; it is never a silent empty stream.
	Err() error
	// Close releases the underlying connection.
	Close() error
}

// Provider is the chat-completion collaborator.
type Provider interface {
	// CreateSession opens a stateful conversation and returns its opaque
	// handle.
	CreateSession(ctx context.Context, agentID, version string) (string, error)

	// StreamMessage sends text into the session and returns the response
	// token stream.
	StreamMessage(ctx context.Context, sessionID, text string) (Stream, error)
}
