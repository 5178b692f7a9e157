// Package llm defines the provider abstraction the agent talks through.
//
// Providers handle API communication with LLM services and return plain
// StreamChunk values. They know nothing about pages, snapshots, or the
// operation wire format; the agent layer owns that interpretation.
package llm

import (
	"context"

	"github.com/entrhq/surf/pkg/types"
)

// StreamChunk is one increment of a streamed completion.
type StreamChunk struct {
	// Role is set on the first chunk of a response.
	Role string

	// Content is the text delta.
	Content string

	// Finished marks the final chunk.
	Finished bool

	// Error carries stream-time failures. When set, no further chunks
	// follow.
	Error error
}

// IsError reports whether the chunk carries a stream failure.
func (c *StreamChunk) IsError() bool { return c.Error != nil }

// Provider is an LLM backend.
type Provider interface {
	// StreamCompletion sends the conversation and streams back response
	// chunks. The channel is closed when the stream ends or fails;
	// callers should read until close.
	StreamCompletion(ctx context.Context, messages []*types.Message) (<-chan *StreamChunk, error)

	// Complete sends the conversation and returns the full response.
	// A convenience wrapper over StreamCompletion.
	Complete(ctx context.Context, messages []*types.Message) (*types.Message, error)

	// GetModelInfo describes the backing model.
	GetModelInfo() *types.ModelInfo

	// GetModel returns the model name in use.
	GetModel() string
}

// ModelCloner is an optional interface for providers that can direct calls
// to a different model while sharing credentials and transport.
type ModelCloner interface {
	CloneWithModel(model string) Provider
}
