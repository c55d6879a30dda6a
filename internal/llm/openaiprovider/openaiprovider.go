// Package openaiprovider adapts OpenAI (and any OpenAI-compatible
// endpoint — Databricks model serving, OpenRouter) to llm.Provider via
// the Eino openai chat-model component, grounded on the teacher's
// internal/provider/openai.go. Databricks and OpenRouter reuse this
// adapter pointed at a different BASE_URL, per
// original_source/llm/adapters/databricks_adapter.py and
// .../openrouter_adapter.py, both of which speak the same
// OpenAI-compatible wire protocol.
package openaiprovider

import (
	"context"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/config"
	"github.com/sorriso/simplehybridchat/internal/llm"
)

// Provider adapts an openai.ChatModel to llm.Provider. name is the
// externally visible provider name ("openai", "databricks",
// "openrouter") so logs and GetProviderName distinguish them even
// though they share this implementation.
type Provider struct {
	name      string
	cfg       config.ProviderConfig
	chatModel einomodel.ToolCallingChatModel
	lastStats *llm.Stats
}

// New returns an unconnected Provider for the given logical name.
func New(name string, cfg config.ProviderConfig) *Provider {
	return &Provider{name: name, cfg: cfg}
}

func (p *Provider) Connect(ctx context.Context) error {
	// No hardcoded default API key for any variant of this adapter
	// (spec.md §9's OpenRouter design note): a missing key is always a
	// hard configuration error, never a silently working default.
	if p.cfg.APIKey == "" {
		return apperr.New(apperr.Internal, p.name+" provider: API_KEY not set")
	}
	if (p.name == "databricks" || p.name == "openrouter") && p.cfg.BaseURL == "" {
		return apperr.New(apperr.Internal, p.name+" provider: BASE_URL not set")
	}

	model := p.cfg.Model
	if model == "" {
		model = "gpt-4o"
	}
	maxTokens := p.cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	cc := &openai.ChatModelConfig{
		APIKey:              p.cfg.APIKey,
		Model:               model,
		MaxCompletionTokens: &maxTokens,
	}
	if p.cfg.BaseURL != "" {
		cc.BaseURL = p.cfg.BaseURL
	}

	chatModel, err := openai.NewChatModel(ctx, cc)
	if err != nil {
		return apperr.Wrap(apperr.Internal, p.name+" provider: connect", err)
	}
	p.chatModel = chatModel
	return nil
}

func (p *Provider) Disconnect(ctx context.Context) error { return nil }

func (p *Provider) GetModelName() string    { return p.cfg.Model }
func (p *Provider) GetProviderName() string { return p.name }

func (p *Provider) ValidateConfig() error {
	if p.cfg.APIKey == "" {
		return apperr.New(apperr.Internal, p.name+" provider: API_KEY not set")
	}
	return nil
}

func (p *Provider) GetStats() *llm.Stats { return p.lastStats }

func (p *Provider) StreamChat(ctx context.Context, req llm.StreamChatRequest) (*llm.ChunkStream, error) {
	if p.chatModel == nil {
		return nil, apperr.New(apperr.Internal, p.name+" provider: not connected")
	}

	messages := toEinoMessages(req.SystemPrompt, req.Messages)

	opts := []einomodel.Option{openai.WithMaxCompletionTokens(req.MaxTokens)}
	if req.Temperature > 0 {
		opts = append(opts, einomodel.WithTemperature(float32(req.Temperature)))
	}

	streamCtx, cancel := context.WithCancel(ctx)
	reader, err := p.chatModel.Stream(streamCtx, messages, opts...)
	if err != nil {
		cancel()
		return nil, classify(p.name, err)
	}

	stream, send := llm.NewChunkStream(cancel)
	go pump(reader, send, p.name, p.cfg.Model, &p.lastStats)
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

func pump(reader *schema.StreamReader[*schema.Message], send chan<- llm.StreamEvent, providerName, modelName string, stats **llm.Stats) {
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
			send <- llm.StreamEvent{Err: classify(providerName, err)}
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

func classify(providerName string, err error) *llm.ProviderError {
	return llm.ClassifyProviderError(err, providerName+" stream failure")
}
