// Package claudeprovider adapts Anthropic Claude to llm.Provider via
// the Eino claude chat-model component, grounded on the teacher's
// internal/provider/anthropic.go.
package claudeprovider

import (
	"context"
	"time"

	"github.com/cloudwego/eino-ext/components/model/claude"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/config"
	"github.com/sorriso/simplehybridchat/internal/llm"
)

// Provider adapts a claude.ChatModel to llm.Provider.
type Provider struct {
	cfg       config.ProviderConfig
	chatModel einomodel.ToolCallingChatModel
	lastStats *llm.Stats
}

// New returns an unconnected Provider; callers must call Connect
// before StreamChat.
func New(cfg config.ProviderConfig) *Provider {
	return &Provider{cfg: cfg}
}

func (p *Provider) Connect(ctx context.Context) error {
	if p.cfg.APIKey == "" {
		return apperr.New(apperr.Internal, "claude provider: API_KEY not set")
	}
	model := p.cfg.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	cc := &claude.Config{
		APIKey:    p.cfg.APIKey,
		Model:     model,
		MaxTokens: p.cfg.MaxTokens,
	}
	if p.cfg.BaseURL != "" {
		cc.BaseURL = &p.cfg.BaseURL
	}

	chatModel, err := claude.NewChatModel(ctx, cc)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "claude provider: connect", err)
	}
	p.chatModel = chatModel
	return nil
}

func (p *Provider) Disconnect(ctx context.Context) error { return nil }

func (p *Provider) GetModelName() string    { return p.cfg.Model }
func (p *Provider) GetProviderName() string { return "claude" }

func (p *Provider) ValidateConfig() error {
	if p.cfg.APIKey == "" {
		return apperr.New(apperr.Internal, "claude provider: API_KEY not set")
	}
	return nil
}

func (p *Provider) GetStats() *llm.Stats { return p.lastStats }

func (p *Provider) StreamChat(ctx context.Context, req llm.StreamChatRequest) (*llm.ChunkStream, error) {
	if p.chatModel == nil {
		return nil, apperr.New(apperr.Internal, "claude provider: not connected")
	}

	messages := toEinoMessages(req.SystemPrompt, req.Messages)

	streamCtx, cancel := context.WithCancel(ctx)
	reader, err := p.chatModel.Stream(streamCtx, messages,
		einomodel.WithMaxTokens(req.MaxTokens),
		einomodel.WithTemperature(float32(req.Temperature)),
	)
	if err != nil {
		cancel()
		return nil, classify(err)
	}

	stream, send := llm.NewChunkStream(cancel)
	go pump(reader, send, p.cfg.Model, &p.lastStats)
	return stream, nil
}

func toEinoMessages(systemPrompt string, msgs []llm.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(msgs)+1)
	if systemPrompt != "" {
		out = append(out, &schema.Message{Role: schema.System, Content: systemPrompt})
	}
	for _, m := range msgs {
		role := schema.User
		if m.Role == llm.RoleAssistant {
			role = schema.Assistant
		}
		out = append(out, &schema.Message{Role: role, Content: m.Content})
	}
	return out
}

// pump drains an Eino stream reader into send, accumulating token
// counts into *stats on normal completion. Malformed intermediate
// frames are never produced by Eino's own reader (it already parses
// SSE framing), so every Recv error here is treated as a stream
// failure per spec.md's error taxonomy.
func pump(reader *schema.StreamReader[*schema.Message], send chan<- llm.StreamEvent, modelName string, stats **llm.Stats) {
	defer close(send)
	defer reader.Close()

	start := time.Now()
	completionTokens := 0
	promptTokens := 0

	for {
		msg, err := reader.Recv()
		if err != nil {
			if err.Error() == "EOF" {
				break
			}
			send <- llm.StreamEvent{Err: classify(err)}
			return
		}
		if msg.Content == "" {
			continue
		}
		completionTokens++
		if msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
			promptTokens = msg.ResponseMeta.Usage.PromptTokens
			completionTokens = msg.ResponseMeta.Usage.CompletionTokens
		}
		send <- llm.StreamEvent{Chunk: msg.Content}
	}

	elapsed := time.Since(start).Seconds()
	tps := 0.0
	if elapsed > 0 {
		tps = float64(completionTokens) / elapsed
	}
	*stats = &llm.Stats{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
		TotalDurationS:   elapsed,
		TokensPerSecond:  tps,
		Model:            modelName,
	}
}

func classify(err error) *llm.ProviderError {
	return llm.ClassifyProviderError(err, "claude stream failure")
}
