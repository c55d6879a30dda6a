package chatengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/authz"
	"github.com/sorriso/simplehybridchat/internal/chatengine"
	"github.com/sorriso/simplehybridchat/internal/conversation"
	"github.com/sorriso/simplehybridchat/internal/docstore/memstore"
	"github.com/sorriso/simplehybridchat/internal/llm"
	"github.com/sorriso/simplehybridchat/internal/llm/llmtest"
	"github.com/sorriso/simplehybridchat/internal/model"
	"github.com/sorriso/simplehybridchat/internal/settings"
)

const providerName = "fake"

type harness struct {
	engine        *chatengine.Engine
	conversations *conversation.ConversationRepo
	messages      *conversation.MessageRepo
	settings      *settings.Repository
	registry      *llm.Registry
}

func newHarness(t *testing.T, provider *llmtest.FakeProvider) *harness {
	t.Helper()
	store := memstore.New()
	if err := conversation.EnsureIndexes(context.Background(), store); err != nil {
		t.Fatalf("EnsureIndexes() error = %v", err)
	}
	if err := settings.EnsureIndexes(context.Background(), store); err != nil {
		t.Fatalf("settings.EnsureIndexes() error = %v", err)
	}

	convRepo := conversation.NewConversationRepo(store)
	msgRepo := conversation.NewMessageRepo(store)
	settingsRepo := settings.New(store)

	registry := llm.NewRegistry()
	registry.Register(providerName, func(ctx context.Context) (llm.Provider, error) {
		return provider, nil
	})

	engine := chatengine.New(convRepo, msgRepo, settingsRepo, registry, providerName, authz.New())
	return &harness{engine: engine, conversations: convRepo, messages: msgRepo, settings: settingsRepo, registry: registry}
}

func drain(t *testing.T, s *chatengine.Stream) (string, error) {
	t.Helper()
	var out string
	for {
		ev, ok := s.Recv()
		if !ok {
			return out, nil
		}
		if ev.Err != nil {
			return out, ev.Err
		}
		out += ev.Chunk
	}
}

func TestStreamSuccessPersistsBothMessages(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, llmtest.NewFakeProvider("Hello", ", ", "world"))

	conv, err := h.conversations.Create(ctx, nil, "owner-1", "chat", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	caller := model.Principal{ID: "owner-1", Role: model.RoleUser}
	stream, err := h.engine.Stream(ctx, caller, conv.ID, "hi there", "")
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	got, err := drain(t, stream)
	if err != nil {
		t.Fatalf("drain error = %v", err)
	}
	if got != "Hello, world" {
		t.Errorf("accumulated = %q, want %q", got, "Hello, world")
	}

	msgs, err := h.messages.ListByConversation(ctx, conv.ID, 0, 0)
	if err != nil {
		t.Fatalf("ListByConversation() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", len(msgs))
	}
	if msgs[0].Role != model.MessageRoleUser || msgs[0].Content != "hi there" {
		t.Errorf("unexpected user message: %+v", msgs[0])
	}
	if msgs[1].Role != model.MessageRoleAssistant || msgs[1].Content != "Hello, world" {
		t.Errorf("unexpected assistant message: %+v", msgs[1])
	}
	if msgs[0].LLMFullPrompt == nil || msgs[1].LLMFullPrompt == nil {
		t.Error("expected both messages to carry llm_full_prompt")
	}

	updated, err := h.conversations.Get(ctx, conv.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if updated.MessageCount != 2 {
		t.Errorf("MessageCount = %d, want 2 (absolute count, not delta)", updated.MessageCount)
	}
}

func TestStreamUnknownConversationIsNotFound(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, llmtest.NewFakeProvider("x"))

	caller := model.Principal{ID: "owner-1", Role: model.RoleUser}
	_, err := h.engine.Stream(ctx, caller, "missing-conversation", "hi", "")
	if !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestStreamForbiddenForUnrelatedCaller(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, llmtest.NewFakeProvider("x"))

	conv, err := h.conversations.Create(ctx, nil, "owner-1", "chat", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	caller := model.Principal{ID: "someone-else", Role: model.RoleUser}
	_, err = h.engine.Stream(ctx, caller, conv.ID, "hi", "")
	if !apperr.Is(err, apperr.Forbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
}

func TestStreamSharedGroupMemberCanReadButSharingAloneDoesNotGrantWrite(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, llmtest.NewFakeProvider("ok"))

	conv, err := h.conversations.Create(ctx, nil, "owner-1", "chat", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := h.conversations.SetSharedGroups(ctx, conv.ID, []string{"group-1"}); err != nil {
		t.Fatalf("SetSharedGroups() error = %v", err)
	}

	member := model.Principal{ID: "member-1", Role: model.RoleUser, GroupIDs: []string{"group-1"}}
	stream, err := h.engine.Stream(ctx, member, conv.ID, "hi", "")
	if err != nil {
		t.Fatalf("expected a shared group member to stream chat, got error %v", err)
	}
	if _, err := drain(t, stream); err != nil {
		t.Fatalf("drain error = %v", err)
	}

	policy := authz.New()
	fresh, err := h.conversations.Get(ctx, conv.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if policy.CanModifyConversation(member, fresh) {
		t.Error("a shared group member must not gain modify rights from sharing alone")
	}
}

func TestStreamUsesStoredPromptCustomizationWhenNoInlineOverride(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, llmtest.NewFakeProvider("ok"))

	conv, err := h.conversations.Create(ctx, nil, "owner-1", "chat", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := h.settings.Update(ctx, "owner-1", settings.Patch{PromptCustomization: strPtr("always answer in haiku")}); err != nil {
		t.Fatalf("settings.Update() error = %v", err)
	}

	caller := model.Principal{ID: "owner-1", Role: model.RoleUser}
	stream, err := h.engine.Stream(ctx, caller, conv.ID, "hi", "")
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	if _, err := drain(t, stream); err != nil {
		t.Fatalf("drain error = %v", err)
	}

	msgs, err := h.messages.ListByConversation(ctx, conv.ID, 0, 0)
	if err != nil {
		t.Fatalf("ListByConversation() error = %v", err)
	}
	if msgs[0].LLMFullPrompt == nil {
		t.Fatal("expected llm_full_prompt on the user message")
	}
	if got := msgs[0].LLMFullPrompt.System; !contains(got, "always answer in haiku") {
		t.Errorf("system prompt = %q, want it to contain the stored customization", got)
	}
}

func TestStreamMidStreamFailureDiscardsAssistantMessage(t *testing.T) {
	ctx := context.Background()
	provider := llmtest.NewFakeProvider("partial", "chunks")
	provider.FailAfter = 1
	provider.StreamErr = &llm.ProviderError{Kind: llm.ErrStreaming, Message: "upstream dropped"}
	h := newHarness(t, provider)

	conv, err := h.conversations.Create(ctx, nil, "owner-1", "chat", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	caller := model.Principal{ID: "owner-1", Role: model.RoleUser}
	stream, err := h.engine.Stream(ctx, caller, conv.ID, "hi", "")
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	_, err = drain(t, stream)
	if err == nil {
		t.Fatal("expected a terminal streaming error")
	}

	msgs, err := h.messages.ListByConversation(ctx, conv.ID, 0, 0)
	if err != nil {
		t.Fatalf("ListByConversation() error = %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected only the user message to survive a mid-stream failure, got %d messages", len(msgs))
	}

	updated, err := h.conversations.Get(ctx, conv.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if updated.MessageCount != 0 {
		t.Errorf("MessageCount = %d, want 0 (conversation must not be bumped on failure)", updated.MessageCount)
	}
}

func TestStreamClientDisconnectDiscardsPartialMessage(t *testing.T) {
	ctx := context.Background()
	provider := llmtest.NewFakeProvider("first", "second", "third")
	h := newHarness(t, provider)

	conv, err := h.conversations.Create(ctx, nil, "owner-1", "chat", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	caller := model.Principal{ID: "owner-1", Role: model.RoleUser}
	stream, err := h.engine.Stream(ctx, caller, conv.ID, "hi", "")
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	if _, ok := stream.Recv(); !ok {
		t.Fatal("expected at least one chunk before disconnecting")
	}
	stream.Close()

	time.Sleep(20 * time.Millisecond)

	msgs, err := h.messages.ListByConversation(ctx, conv.ID, 0, 0)
	if err != nil {
		t.Fatalf("ListByConversation() error = %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected only the user message to survive a client disconnect, got %d messages", len(msgs))
	}
}

func strPtr(s string) *string { return &s }

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
