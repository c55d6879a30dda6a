package chatengine

import (
	"context"

	"github.com/sorriso/simplehybridchat/internal/conversation"
	"github.com/sorriso/simplehybridchat/internal/model"
)

// maxContextMessages is the N=20 history window loaded for every turn.
const maxContextMessages = 20

// loadContext returns the last maxContextMessages messages of a
// conversation in chronological order, mapped to the {role, content}
// shape a Provider expects.
func loadContext(ctx context.Context, messages *conversation.MessageRepo, conversationID string) ([]model.ContextEntry, error) {
	total, err := messages.CountByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	skip := 0
	if total > maxContextMessages {
		skip = total - maxContextMessages
	}
	msgs, err := messages.ListByConversation(ctx, conversationID, skip, maxContextMessages)
	if err != nil {
		return nil, err
	}
	out := make([]model.ContextEntry, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, model.ContextEntry{Role: m.Role, Content: m.Content})
	}
	return out, nil
}

// buildFullContextRecord assembles the provenance record stored
// alongside both the user and assistant turn.
func buildFullContextRecord(system string, history []model.ContextEntry, currentMessage string) model.FullContextRecord {
	return model.FullContextRecord{
		System:         system,
		Context:        history,
		CurrentMessage: currentMessage,
	}
}
