package interview

import "sync"

// MessageStream delivers the provider's response chunks to the HTTP layer.
// Chunks arrive on Chunks() as they are produced; the channel closes when the
// provider stream ends. Err and Final are valid only after the channel has
// closed: Err reports a stream or bookkeeping failure, Done is closed once
// the post-stream bookkeeping has finished.
type MessageStream struct {
	chunks chan string
	done   chan struct{}

	mu  sync.Mutex
	err error
}

func newMessageStream(buffer int) *MessageStream {
	return &MessageStream{
		chunks: make(chan string, buffer),
		done:   make(chan struct{}),
	}
}

// Chunks returns the live chunk channel.
func (s *MessageStream) Chunks() <-chan string {
	return s.chunks
}

// Done is closed once the post-stream bookkeeping has completed. Tests use it
// to wait for the turn counter to settle.
func (s *MessageStream) Done() <-chan struct{} {
	return s.done
}

// Err reports the terminal error, if any. Valid once Done is closed.
func (s *MessageStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *MessageStream) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}
