// Package llm defines the uniform streaming interface over several
// LLM provider back-ends (cloud vendors with differing HTTP APIs, and
// a local inference engine), grounded on the teacher's
// internal/provider package and generalized to cover a directly
// wrapped Ollama client alongside the Eino-backed cloud adapters.
package llm

import "context"

// Message is one turn of conversational context handed to StreamChat.
type Message struct {
	Role    MessageRole
	Content string
}

// MessageRole distinguishes a Message's speaker.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// StreamEvent is one item produced by a ChunkStream: either a non-empty
// text chunk, or a terminal error.
type StreamEvent struct {
	Chunk string
	Err   error
}

// ChunkStream is a finite, non-restartable, cancellable sequence of
// StreamEvents. At most one event is buffered at a time, realizing the
// "at most one chunk pending per direction" backpressure rule.
type ChunkStream struct {
	events chan StreamEvent
	cancel context.CancelFunc
}

// NewChunkStream constructs a ChunkStream backed by a single-buffered
// channel and the context.CancelFunc that stops the producer.
func NewChunkStream(cancel context.CancelFunc) (*ChunkStream, chan<- StreamEvent) {
	ch := make(chan StreamEvent, 1)
	return &ChunkStream{events: ch, cancel: cancel}, ch
}

// Recv blocks for the next event, or returns ok=false once the
// producer has closed the stream.
func (s *ChunkStream) Recv() (StreamEvent, bool) {
	ev, ok := <-s.events
	return ev, ok
}

// Close cancels the underlying stream context, releasing the producer
// promptly on client disconnect or cancellation.
func (s *ChunkStream) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Stats mirrors model.LLMStats; it is the result of the most recently
// completed stream on a given Provider instance, nil before the first
// successful run.
type Stats struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	TotalDurationS   float64
	TokensPerSecond  float64
	Model            string
}

// StreamChatRequest carries everything StreamChat needs beyond the
// provider's own configuration.
type StreamChatRequest struct {
	Messages     []Message
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

// Provider is a uniform streaming interface over one configured LLM
// back-end. Each Provider instance is used by at most one stream at a
// time (GetStats is confined to the instance); internal/chatengine
// acquires a fresh instance per turn from a Registry.
type Provider interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error

	StreamChat(ctx context.Context, req StreamChatRequest) (*ChunkStream, error)

	GetModelName() string
	GetProviderName() string
	ValidateConfig() error

	// GetStats returns the statistics of the most recently completed
	// stream, or nil if none has completed yet on this instance.
	GetStats() *Stats
}
