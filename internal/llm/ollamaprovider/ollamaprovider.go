// Package ollamaprovider adapts a local Ollama inference engine to
// llm.Provider using the engine's native client directly (no Eino
// component needed; Ollama's streaming API is simple enough to wrap
// by hand), grounded on win30221-genesis's
// pkg/llm/ollama/client.go callback-based api.Client.Chat usage.
package ollamaprovider

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/config"
	"github.com/sorriso/simplehybridchat/internal/llm"
)

// Provider adapts *api.Client to llm.Provider.
type Provider struct {
	cfg       config.ProviderConfig
	client    *api.Client
	lastStats *llm.Stats
}

// New returns an unconnected Provider.
func New(cfg config.ProviderConfig) *Provider {
	return &Provider{cfg: cfg}
}

func (p *Provider) Connect(ctx context.Context) error {
	var client *api.Client
	if p.cfg.BaseURL != "" {
		u, err := url.Parse(p.cfg.BaseURL)
		if err != nil {
			return apperr.Wrap(apperr.Internal, "ollama provider: invalid BASE_URL", err)
		}
		client = api.NewClient(u, nil)
	} else {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return apperr.Wrap(apperr.Internal, "ollama provider: connect", err)
		}
	}

	if err := client.Heartbeat(ctx); err != nil {
		return apperr.Wrap(apperr.ServiceUnavailable, "ollama provider: engine unreachable", err)
	}

	p.client = client
	return nil
}

func (p *Provider) Disconnect(ctx context.Context) error { return nil }

func (p *Provider) GetModelName() string    { return p.cfg.Model }
func (p *Provider) GetProviderName() string { return "ollama" }

func (p *Provider) ValidateConfig() error {
	if p.cfg.Model == "" {
		return apperr.New(apperr.Internal, "ollama provider: MODEL not set")
	}
	return nil
}

func (p *Provider) GetStats() *llm.Stats { return p.lastStats }

func (p *Provider) StreamChat(ctx context.Context, req llm.StreamChatRequest) (*llm.ChunkStream, error) {
	if p.client == nil {
		return nil, apperr.New(apperr.Internal, "ollama provider: not connected")
	}

	messages := toAPIMessages(req.SystemPrompt, req.Messages)
	streamVal := true
	chatReq := &api.ChatRequest{
		Model:    p.cfg.Model,
		Messages: messages,
		Stream:   &streamVal,
		Options: map[string]any{
			"temperature": req.Temperature,
			"num_predict": req.MaxTokens,
		},
	}

	streamCtx, cancel := context.WithCancel(ctx)
	stream, send := llm.NewChunkStream(cancel)

	go func() {
		defer close(send)
		start := time.Now()

		err := p.client.Chat(streamCtx, chatReq, func(resp api.ChatResponse) error {
			if resp.Message.Content != "" {
				select {
				case send <- llm.StreamEvent{Chunk: resp.Message.Content}:
				case <-streamCtx.Done():
					return streamCtx.Err()
				}
			}
			if resp.Done {
				elapsed := time.Since(start).Seconds()
				tps := 0.0
				if elapsed > 0 {
					tps = float64(resp.EvalCount) / elapsed
				}
				p.lastStats = &llm.Stats{
					PromptTokens:     resp.PromptEvalCount,
					CompletionTokens: resp.EvalCount,
					TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
					TotalDurationS:   elapsed,
					TokensPerSecond:  tps,
					Model:            p.cfg.Model,
				}
			}
			return nil
		})
		if err != nil && streamCtx.Err() == nil {
			send <- llm.StreamEvent{Err: classify(err)}
		}
	}()

	return stream, nil
}

func toAPIMessages(systemPrompt string, msgs []llm.Message) []api.Message {
	out := make([]api.Message, 0, len(msgs)+1)
	if systemPrompt != "" {
		out = append(out, api.Message{Role: "system", Content: systemPrompt})
	}
	for _, m := range msgs {
		role := "user"
		if m.Role == llm.RoleAssistant {
			role = "assistant"
		}
		out = append(out, api.Message{Role: role, Content: m.Content})
	}
	return out
}

// classify prefers api.StatusError's own status code over text
// sniffing, since the engine's native client surfaces it directly.
func classify(err error) *llm.ProviderError {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return &llm.ProviderError{
			Kind:    llm.ClassifyHTTPError(statusErr.StatusCode, []byte(statusErr.ErrorMessage)),
			Message: "ollama stream failure",
			Err:     err,
		}
	}
	return llm.ClassifyProviderError(err, "ollama stream failure")
}

// ListModels returns the models currently visible in the local
// engine's registry.
func (p *Provider) ListModels(ctx context.Context) ([]string, error) {
	resp, err := p.client.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "ollama provider: list models", err)
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// PullModel streams a model pull to completion, then re-checks
// ListModels before reporting success — spec.md §4.3 names a known
// tail latency in the engine between pull completion and registry
// visibility, so a bare "success" callback from Pull is not sufficient.
func (p *Provider) PullModel(ctx context.Context, name string) error {
	pulled := false
	err := p.client.Pull(ctx, &api.PullRequest{Model: name}, func(resp api.ProgressResponse) error {
		if resp.Status == "success" {
			pulled = true
		}
		return nil
	})
	if err != nil {
		return apperr.Wrap(apperr.Internal, "ollama provider: pull model", err)
	}
	if !pulled {
		return apperr.New(apperr.Internal, "ollama provider: pull did not report success")
	}

	models, err := p.ListModels(ctx)
	if err != nil {
		return err
	}
	for _, m := range models {
		if m == name {
			return nil
		}
	}
	return apperr.New(apperr.ServiceUnavailable, "ollama provider: model pulled but not yet visible in registry")
}
