package llmtest

import (
	"context"
	"errors"
	"testing"

	"github.com/sorriso/simplehybridchat/internal/llm"
)

func TestFakeProviderReplaysChunks(t *testing.T) {
	p := NewFakeProvider("hello", " ", "world")
	stream, err := p.StreamChat(context.Background(), llm.StreamChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("StreamChat() error = %v", err)
	}

	var got []string
	for {
		ev, ok := stream.Recv()
		if !ok {
			break
		}
		if ev.Err != nil {
			t.Fatalf("unexpected error event: %v", ev.Err)
		}
		got = append(got, ev.Chunk)
	}

	if len(got) != 3 || got[0] != "hello" || got[2] != "world" {
		t.Fatalf("got chunks %v, want [hello,  , world]", got)
	}
	if p.GetStats() == nil {
		t.Fatal("expected stats after successful completion")
	}
}

func TestFakeProviderInjectsMidStreamError(t *testing.T) {
	wantErr := errors.New("boom")
	p := &FakeProvider{
		ProviderName: "fake",
		ModelName:    "fake-model",
		Chunks:       []string{"a", "b", "c"},
		FailAfter:    1,
		StreamErr:    wantErr,
	}
	stream, err := p.StreamChat(context.Background(), llm.StreamChatRequest{})
	if err != nil {
		t.Fatalf("StreamChat() error = %v", err)
	}

	var chunks []string
	var streamErr error
	for {
		ev, ok := stream.Recv()
		if !ok {
			break
		}
		if ev.Err != nil {
			streamErr = ev.Err
			break
		}
		chunks = append(chunks, ev.Chunk)
	}

	if len(chunks) != 1 || chunks[0] != "a" {
		t.Fatalf("got chunks %v, want [a]", chunks)
	}
	if streamErr != wantErr {
		t.Fatalf("streamErr = %v, want %v", streamErr, wantErr)
	}
	if p.GetStats() != nil {
		t.Fatal("expected no stats after mid-stream failure")
	}
}

func TestFakeProviderCancellation(t *testing.T) {
	p := NewFakeProvider("a", "b", "c")
	ctx, cancel := context.WithCancel(context.Background())
	stream, err := p.StreamChat(ctx, llm.StreamChatRequest{})
	if err != nil {
		t.Fatalf("StreamChat() error = %v", err)
	}

	ev, ok := stream.Recv()
	if !ok || ev.Chunk != "a" {
		t.Fatalf("expected first chunk 'a', got %v, ok=%v", ev, ok)
	}
	stream.Close()
	cancel()

	for {
		_, ok := stream.Recv()
		if !ok {
			break
		}
	}
}
