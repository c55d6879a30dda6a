// Package chatengine orchestrates a single chat turn end to end:
// pre-flight access checks, prompt assembly, LLM streaming,
// accumulation, and message/conversation persistence. Grounded
// step-for-step on original_source's services/chat_service.py
// (ChatService.validate_conversation_access / stream_chat); the
// relay/cancellation shape echoes the teacher's session package's
// active-session/abort-channel pattern, adapted to internal/llm's
// ChunkStream contract.
package chatengine

import (
	"context"
	"time"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/authz"
	"github.com/sorriso/simplehybridchat/internal/conversation"
	"github.com/sorriso/simplehybridchat/internal/llm"
	"github.com/sorriso/simplehybridchat/internal/model"
	"github.com/sorriso/simplehybridchat/internal/settings"
)

// Engine runs chat turns for one configured Provider.
type Engine struct {
	conversations *conversation.ConversationRepo
	messages      *conversation.MessageRepo
	settings      *settings.Repository
	registry      *llm.Registry
	providerName  string
	policy        authz.Policy
}

// New returns an Engine wired to its repositories, the configured LLM
// registry, and the provider name this deployment runs (spec.md §6's
// LLM_PROVIDER).
func New(
	conversations *conversation.ConversationRepo,
	messages *conversation.MessageRepo,
	settingsRepo *settings.Repository,
	registry *llm.Registry,
	providerName string,
	policy authz.Policy,
) *Engine {
	return &Engine{
		conversations: conversations,
		messages:      messages,
		settings:      settingsRepo,
		registry:      registry,
		providerName:  providerName,
		policy:        policy,
	}
}

// Stream runs one chat turn. Pre-flight (conversation resolution and
// the read-conversation authorization check) completes synchronously
// before this call returns, so NotFound/Forbidden surface as ordinary
// errors before any byte streams; everything from LLM invocation
// onward happens on a background goroutine feeding the returned
// Stream.
func (e *Engine) Stream(ctx context.Context, caller model.Principal, conversationID, message, inlineCustomization string) (*Stream, error) {
	conv, err := e.conversations.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !e.policy.CanStreamChat(caller, conv) {
		return nil, apperr.New(apperr.Forbidden, "access denied to this conversation")
	}

	userSettings, err := e.settings.Get(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	customization := effectiveCustomization(inlineCustomization, userSettings.PromptCustomization)
	system := buildSystemPrompt(customization)

	history, err := loadContext(ctx, e.messages, conversationID)
	if err != nil {
		return nil, err
	}
	fullContext := buildFullContextRecord(system, history, message)

	if _, err := e.messages.Append(ctx, model.Message{
		ConversationID: conversationID,
		Role:           model.MessageRoleUser,
		Content:        message,
		LLMFullPrompt:  &fullContext,
	}); err != nil {
		return nil, err
	}

	providerMessages := make([]llm.Message, 0, len(history)+1)
	for _, h := range history {
		providerMessages = append(providerMessages, llm.Message{Role: llm.MessageRole(h.Role), Content: h.Content})
	}
	providerMessages = append(providerMessages, llm.Message{Role: llm.RoleUser, Content: message})

	provider, err := e.registry.New(ctx, e.providerName)
	if err != nil {
		return nil, llm.ToAppErr(err)
	}
	if err := provider.Connect(ctx); err != nil {
		return nil, llm.ToAppErr(err)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	providerStream, err := provider.StreamChat(streamCtx, llm.StreamChatRequest{
		Messages:     providerMessages,
		SystemPrompt: system,
	})
	if err != nil {
		cancel()
		_ = provider.Disconnect(ctx)
		return nil, llm.ToAppErr(err)
	}

	out, send := newStream(cancel)
	go e.relay(streamCtx, providerStream, send, provider, conversationID, fullContext)
	return out, nil
}

// relay reads every chunk off providerStream, forwards it downstream,
// and accumulates it. On normal completion it persists the assistant
// message and updates the conversation; on a mid-stream provider
// error or client-triggered cancellation it discards the accumulator
// and persists nothing beyond the user message Stream already wrote.
func (e *Engine) relay(
	ctx context.Context,
	providerStream *llm.ChunkStream,
	send chan<- Event,
	provider llm.Provider,
	conversationID string,
	fullContext model.FullContextRecord,
) {
	defer close(send)
	defer providerStream.Close()
	defer func() { _ = provider.Disconnect(context.Background()) }()

	var accumulated string
	for {
		ev, ok := providerStream.Recv()
		if !ok {
			break
		}
		if ev.Err != nil {
			send <- Event{Err: apperr.Wrap(apperr.Internal, "streaming error", ev.Err)}
			return
		}
		accumulated += ev.Chunk
		select {
		case send <- Event{Chunk: ev.Chunk}:
		case <-ctx.Done():
			return
		}
	}

	if ctx.Err() != nil {
		// Client disconnected or the turn was cancelled: discard the
		// partial accumulator, persist nothing further.
		return
	}

	stats := provider.GetStats()
	assistant := model.Message{
		ConversationID: conversationID,
		Role:           model.MessageRoleAssistant,
		Content:        accumulated,
		LLMFullPrompt:  &fullContext,
		LLMRawResponse: accumulated,
	}
	if stats != nil {
		assistant.LLMStats = &model.LLMStats{
			PromptTokens:     stats.PromptTokens,
			CompletionTokens: stats.CompletionTokens,
			TotalTokens:      stats.TotalTokens,
			TotalDurationS:   stats.TotalDurationS,
			TokensPerSecond:  stats.TokensPerSecond,
			Model:            stats.Model,
		}
	}

	// Persist with a background context: the request context may be
	// cancelled as soon as the final SSE frame is written, but the
	// turn is already complete and must finish its own bookkeeping.
	persistCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := e.messages.Append(persistCtx, assistant); err != nil {
		return
	}
	count, err := e.messages.CountByConversation(persistCtx, conversationID)
	if err != nil {
		return
	}
	_, _ = e.conversations.SetMessageCount(persistCtx, conversationID, count)
}
