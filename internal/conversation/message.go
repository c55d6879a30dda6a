package conversation

import (
	"context"
	"time"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/docstore"
	"github.com/sorriso/simplehybridchat/internal/model"
)

const messagesCollection = "messages"

// MessageRepo is the docstore-backed Message store. Messages are
// append-only: there is no Update method, matching spec.md's "a
// Message is immutable once persisted" invariant.
type MessageRepo struct {
	store docstore.Store
}

// NewMessageRepo returns a MessageRepo over store.
func NewMessageRepo(store docstore.Store) *MessageRepo {
	return &MessageRepo{store: store}
}

func messageToDocument(m model.Message) docstore.Document {
	doc := docstore.Document{
		"conversation_id": m.ConversationID,
		"role":            m.Role,
		"content":         m.Content,
		"created_at":      m.CreatedAt,
	}
	if m.ID != "" {
		doc["id"] = m.ID
	}
	if m.LLMFullPrompt != nil {
		doc["llm_full_prompt"] = fullContextToDocument(*m.LLMFullPrompt)
	}
	if m.LLMRawResponse != "" {
		doc["llm_raw_response"] = m.LLMRawResponse
	}
	if m.LLMStats != nil {
		doc["llm_stats"] = llmStatsToDocument(*m.LLMStats)
	}
	return doc
}

func fullContextToDocument(fc model.FullContextRecord) docstore.Document {
	entries := make([]docstore.Document, 0, len(fc.Context))
	for _, e := range fc.Context {
		entries = append(entries, docstore.Document{"role": e.Role, "content": e.Content})
	}
	return docstore.Document{
		"system":          fc.System,
		"context":         entries,
		"current_message": fc.CurrentMessage,
	}
}

func llmStatsToDocument(s model.LLMStats) docstore.Document {
	return docstore.Document{
		"prompt_tokens":     s.PromptTokens,
		"completion_tokens": s.CompletionTokens,
		"total_tokens":      s.TotalTokens,
		"total_duration_s": s.TotalDurationS,
		"tokens_per_second": s.TokensPerSecond,
		"model":            s.Model,
	}
}

func documentToMessage(doc docstore.Document) model.Message {
	m := model.Message{
		ID:             stringField(doc, "id"),
		ConversationID: stringField(doc, "conversation_id"),
		Role:           model.MessageRole(stringField(doc, "role")),
		Content:        stringField(doc, "content"),
		CreatedAt:      timeField(doc, "created_at"),
		LLMRawResponse: stringField(doc, "llm_raw_response"),
	}
	if raw, ok := doc["llm_full_prompt"]; ok && raw != nil {
		fc := documentToFullContext(raw)
		m.LLMFullPrompt = &fc
	}
	if raw, ok := doc["llm_stats"]; ok && raw != nil {
		stats := documentToLLMStats(raw)
		m.LLMStats = &stats
	}
	return m
}

func documentToFullContext(raw any) model.FullContextRecord {
	doc, ok := asDocument(raw)
	if !ok {
		return model.FullContextRecord{}
	}
	fc := model.FullContextRecord{
		System:         stringField(doc, "system"),
		CurrentMessage: stringField(doc, "current_message"),
	}
	entries, ok := asSlice(doc["context"])
	if !ok {
		return fc
	}
	for _, raw := range entries {
		if e, ok := asDocument(raw); ok {
			fc.Context = append(fc.Context, model.ContextEntry{
				Role:    model.MessageRole(stringField(e, "role")),
				Content: stringField(e, "content"),
			})
		}
	}
	return fc
}

func documentToLLMStats(raw any) model.LLMStats {
	doc, ok := asDocument(raw)
	if !ok {
		return model.LLMStats{}
	}
	return model.LLMStats{
		PromptTokens:     intField(doc, "prompt_tokens"),
		CompletionTokens: intField(doc, "completion_tokens"),
		TotalTokens:      intField(doc, "total_tokens"),
		TotalDurationS:   floatField(doc, "total_duration_s"),
		TokensPerSecond:  floatField(doc, "tokens_per_second"),
		Model:            stringField(doc, "model"),
	}
}

func floatField(doc docstore.Document, key string) float64 {
	switch n := doc[key].(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

// Append persists a new, immutable Message.
func (r *MessageRepo) Append(ctx context.Context, m model.Message) (model.Message, error) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	doc, err := r.store.Create(ctx, messagesCollection, messageToDocument(m))
	if err != nil {
		return model.Message{}, err
	}
	return documentToMessage(doc), nil
}

// ListByConversation returns a conversation's messages in chronological
// order, over the messages.(conversation_id, created_at) compound
// index. Equal timestamps are broken by id lexical order (spec.md §5).
func (r *MessageRepo) ListByConversation(ctx context.Context, conversationID string, skip, limit int) ([]model.Message, error) {
	docs, err := r.store.Query(ctx, messagesCollection,
		docstore.Filters{"conversation_id": conversationID}, skip, limit,
		[]docstore.SortField{
			{Field: "created_at", Direction: docstore.Ascending},
			{Field: "id", Direction: docstore.Ascending},
		})
	if err != nil {
		return nil, err
	}
	out := make([]model.Message, 0, len(docs))
	for _, doc := range docs {
		out = append(out, documentToMessage(doc))
	}
	return out, nil
}

// CountByConversation returns the number of messages in a conversation.
func (r *MessageRepo) CountByConversation(ctx context.Context, conversationID string) (int, error) {
	return r.store.Count(ctx, messagesCollection, docstore.Filters{"conversation_id": conversationID})
}

// DeleteByConversation removes every message belonging to
// conversationID, the cascade a conversation delete must perform.
func (r *MessageRepo) DeleteByConversation(ctx context.Context, conversationID string) error {
	msgs, err := r.ListByConversation(ctx, conversationID, 0, 0)
	if err != nil {
		return err
	}
	for _, m := range msgs {
		if _, err := r.store.Delete(ctx, messagesCollection, m.ID); err != nil {
			return apperr.Wrap(apperr.Internal, "cascade delete message", err)
		}
	}
	return nil
}
