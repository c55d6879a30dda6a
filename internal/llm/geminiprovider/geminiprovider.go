// Package geminiprovider adapts Google Gemini to llm.Provider via the
// Eino gemini chat-model component. The teacher itself never wires
// Gemini; this adapter follows its anthropic.go/openai.go shape, with
// the component dependency grounded in TGIFAI-friday's go.mod
// (eino-ext/components/model/gemini) since no repo in the pack wires
// Gemini directly through Eino's own genai SDK dependency.
package geminiprovider

import (
	"context"
	"time"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/config"
	"github.com/sorriso/simplehybridchat/internal/llm"
)

// Provider adapts a gemini.ChatModel to llm.Provider.
type Provider struct {
	cfg       config.ProviderConfig
	chatModel einomodel.ToolCallingChatModel
	lastStats *llm.Stats
}

// New returns an unconnected Provider.
func New(cfg config.ProviderConfig) *Provider {
	return &Provider{cfg: cfg}
}

func (p *Provider) Connect(ctx context.Context) error {
	if p.cfg.APIKey == "" {
		return apperr.New(apperr.Internal, "gemini provider: API_KEY not set")
	}
	model := p.cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: p.cfg.APIKey})
	if err != nil {
		return apperr.Wrap(apperr.Internal, "gemini provider: connect", err)
	}

	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client: client,
		Model:  model,
	})
	if err != nil {
		return apperr.Wrap(apperr.Internal, "gemini provider: connect", err)
	}
	p.chatModel = chatModel
	return nil
}

func (p *Provider) Disconnect(ctx context.Context) error { return nil }

func (p *Provider) GetModelName() string    { return p.cfg.Model }
func (p *Provider) GetProviderName() string { return "gemini" }

func (p *Provider) ValidateConfig() error {
	if p.cfg.APIKey == "" {
		return apperr.New(apperr.Internal, "gemini provider: API_KEY not set")
	}
	return nil
}

func (p *Provider) GetStats() *llm.Stats { return p.lastStats }

func (p *Provider) StreamChat(ctx context.Context, req llm.StreamChatRequest) (*llm.ChunkStream, error) {
	if p.chatModel == nil {
		return nil, apperr.New(apperr.Internal, "gemini provider: not connected")
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
	return llm.ClassifyProviderError(err, "gemini stream failure")
}
