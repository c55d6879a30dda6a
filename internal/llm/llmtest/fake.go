// Package llmtest provides a scripted llm.Provider test double, used
// by internal/chatengine and internal/server tests to exercise
// spec.md §8's concrete end-to-end scenarios without a live provider.
// Grounded in the teacher's MockLLMServer (mock_provider_test.go),
// simplified to an in-process fake since this package's callers talk
// to llm.Provider directly rather than over HTTP.
package llmtest

import (
	"context"

	"github.com/sorriso/simplehybridchat/internal/llm"
)

// FakeProvider replays a fixed chunk sequence, or fails mid-stream
// with a scripted error after a configured number of chunks.
type FakeProvider struct {
	ProviderName string
	ModelName    string

	// Chunks is the scripted sequence of non-empty text chunks.
	Chunks []string

	// FailAfter, if >= 0, injects StreamErr after that many chunks have
	// been emitted (0 fails before any chunk is sent).
	FailAfter int
	StreamErr error

	connected bool
	lastStats *llm.Stats
}

// NewFakeProvider returns a FakeProvider that completes normally.
func NewFakeProvider(chunks ...string) *FakeProvider {
	return &FakeProvider{
		ProviderName: "fake",
		ModelName:    "fake-model",
		Chunks:       chunks,
		FailAfter:    -1,
	}
}

func (f *FakeProvider) Connect(ctx context.Context) error {
	f.connected = true
	return nil
}

func (f *FakeProvider) Disconnect(ctx context.Context) error {
	f.connected = false
	return nil
}

func (f *FakeProvider) GetModelName() string    { return f.ModelName }
func (f *FakeProvider) GetProviderName() string { return f.ProviderName }
func (f *FakeProvider) ValidateConfig() error   { return nil }
func (f *FakeProvider) GetStats() *llm.Stats    { return f.lastStats }

// StreamChat replays f.Chunks on a goroutine, honoring ctx cancellation
// exactly like a real adapter would (no chunk is sent after Close()'s
// cancel fires).
func (f *FakeProvider) StreamChat(ctx context.Context, req llm.StreamChatRequest) (*llm.ChunkStream, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	stream, send := llm.NewChunkStream(cancel)

	go func() {
		defer close(send)

		promptTokens := len(req.Messages)
		completionTokens := 0

		for i, chunk := range f.Chunks {
			if f.FailAfter >= 0 && i == f.FailAfter {
				select {
				case send <- llm.StreamEvent{Err: f.StreamErr}:
				case <-streamCtx.Done():
				}
				return
			}
			select {
			case send <- llm.StreamEvent{Chunk: chunk}:
				completionTokens++
			case <-streamCtx.Done():
				return
			}
		}

		if f.FailAfter >= 0 && f.FailAfter >= len(f.Chunks) {
			select {
			case send <- llm.StreamEvent{Err: f.StreamErr}:
			case <-streamCtx.Done():
			}
			return
		}

		f.lastStats = &llm.Stats{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
			Model:            f.ModelName,
		}
	}()

	return stream, nil
}
