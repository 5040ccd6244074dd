package gemini

import (
	"context"
	"sync"

	"nexus-chat-be/pkg/store"
)

// Chunk is one incremental unit of a streamed reply: a text delta plus any
// grounding citations carried on that chunk.
type Chunk struct {
	Text    string
	Sources []store.GroundingSource
}

// ChatStream is a forward-only, cancellable sequence of chunks. It is not
// restartable; a retry needs a fresh StreamChat call. Consume with:
//
//	for chunk := range stream.Chunks() { ... }
//	if err := stream.Err(); err != nil { ... }
type ChatStream struct {
	ch     chan Chunk
	cancel context.CancelFunc

	mu  sync.Mutex
	err error
}

func newChatStream(cancel context.CancelFunc) *ChatStream {
	return &ChatStream{
		ch:     make(chan Chunk, 16),
		cancel: cancel,
	}
}

// Chunks returns the chunk channel. It is closed on stream end or error.
func (s *ChatStream) Chunks() <-chan Chunk {
	return s.ch
}

// Err reports the terminal error, if any. Valid after the channel closes.
func (s *ChatStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close cancels the underlying request. Safe to call at any time; a consumer
// abandoning the stream mid-way must call it to release the connection.
func (s *ChatStream) Close() {
	s.cancel()
}

func (s *ChatStream) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}
