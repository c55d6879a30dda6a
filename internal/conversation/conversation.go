// Package conversation implements the conversation/message store (CMS):
// thin typed repositories over internal/docstore, grounded on the
// teacher's internal/session/service.go wrapping storage.Storage, and
// on original_source/backend/src/services/conversation_service.py for
// the owner/shared access and denormalization rules.
package conversation

import (
	"context"
	"time"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/docstore"
	"github.com/sorriso/simplehybridchat/internal/model"
)

const conversationsCollection = "conversations"

// ConversationRepo is the docstore-backed Conversation store.
type ConversationRepo struct {
	store docstore.Store
}

// NewConversationRepo returns a ConversationRepo over store.
func NewConversationRepo(store docstore.Store) *ConversationRepo {
	return &ConversationRepo{store: store}
}

func conversationToDocument(c model.Conversation) docstore.Document {
	doc := docstore.Document{
		"title":                 c.Title,
		"owner_id":              c.OwnerID,
		"shared_with_group_ids": c.SharedWithGroupIDs,
		"message_count":         c.MessageCount,
		"created_at":            c.CreatedAt,
		"updated_at":            c.UpdatedAt,
	}
	if c.ID != "" {
		doc["id"] = c.ID
	}
	if c.GroupID != nil {
		doc["group_id"] = *c.GroupID
	}
	return doc
}

func documentToConversation(doc docstore.Document) model.Conversation {
	c := model.Conversation{
		ID:                 stringField(doc, "id"),
		Title:              stringField(doc, "title"),
		OwnerID:            stringField(doc, "owner_id"),
		SharedWithGroupIDs: stringSliceField(doc, "shared_with_group_ids"),
		MessageCount:       intField(doc, "message_count"),
		CreatedAt:          timeField(doc, "created_at"),
		UpdatedAt:          timeField(doc, "updated_at"),
	}
	if gid := stringField(doc, "group_id"); gid != "" {
		c.GroupID = &gid
	}
	return c
}

// Create creates a new, unshared Conversation owned by ownerID. If
// groupID is set, the new conversation is also added to that group's
// conversation_ids, keeping the two sides of spec.md §3's
// group-membership invariant in sync from the moment a group_id is
// first assigned.
func (r *ConversationRepo) Create(ctx context.Context, groups *ConversationGroupRepo, ownerID, title string, groupID *string) (model.Conversation, error) {
	now := time.Now().UTC()
	c := model.Conversation{
		Title:              title,
		OwnerID:            ownerID,
		GroupID:            groupID,
		SharedWithGroupIDs: []string{},
		MessageCount:       0,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	doc, err := r.store.Create(ctx, conversationsCollection, conversationToDocument(c))
	if err != nil {
		return model.Conversation{}, err
	}
	created := documentToConversation(doc)
	if groupID != nil && groups != nil {
		if err := groups.AddConversation(ctx, *groupID, created.ID); err != nil {
			return model.Conversation{}, err
		}
	}
	return created, nil
}

// Get returns a Conversation by id.
func (r *ConversationRepo) Get(ctx context.Context, id string) (model.Conversation, error) {
	doc, err := r.store.GetByID(ctx, conversationsCollection, id)
	if err != nil {
		return model.Conversation{}, err
	}
	return documentToConversation(doc), nil
}

// ListByOwner returns all conversations owned by ownerID, most
// recently updated first.
func (r *ConversationRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Conversation, error) {
	docs, err := r.store.Query(ctx, conversationsCollection,
		docstore.Filters{"owner_id": ownerID}, 0, 0,
		[]docstore.SortField{{Field: "updated_at", Direction: docstore.Descending}})
	if err != nil {
		return nil, err
	}
	return toConversations(docs), nil
}

// ListSharedWithGroups returns every conversation shared with any of
// groupIDs. The store's filter contract is conjunctive equality, so
// membership-in-array matching happens here rather than as a single
// Query call: callers needing this at scale should instead rely on the
// multikey `shared_with_group_ids` index and a single equality filter
// per group id, unioned client-side, which is what this does.
func (r *ConversationRepo) ListSharedWithGroups(ctx context.Context, groupIDs []string) ([]model.Conversation, error) {
	seen := make(map[string]struct{})
	var out []model.Conversation
	for _, gid := range groupIDs {
		docs, err := r.store.Query(ctx, conversationsCollection,
			docstore.Filters{"shared_with_group_ids": gid}, 0, 0, nil)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			c := documentToConversation(doc)
			if _, ok := seen[c.ID]; ok {
				continue
			}
			seen[c.ID] = struct{}{}
			out = append(out, c)
		}
	}
	return out, nil
}

// ListByGroupID returns every conversation currently placed in
// groupID — the reverse lookup by group_id CMS must support.
func (r *ConversationRepo) ListByGroupID(ctx context.Context, groupID string) ([]model.Conversation, error) {
	docs, err := r.store.Query(ctx, conversationsCollection,
		docstore.Filters{"group_id": groupID}, 0, 0, nil)
	if err != nil {
		return nil, err
	}
	return toConversations(docs), nil
}

// UpdateTitleAndGroup updates a conversation's title and/or folder
// group id, keeping the old and new ConversationGroup.conversation_ids
// in sync with the move (spec.md §3). A nil groupID clears it
// ("ungroup"), matching original_source's undefined-becomes-null
// handling.
func (r *ConversationRepo) UpdateTitleAndGroup(ctx context.Context, groups *ConversationGroupRepo, id, title string, groupID *string, clearGroup bool) (model.Conversation, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return model.Conversation{}, err
	}

	patch := docstore.Document{"updated_at": time.Now().UTC()}
	if title != "" {
		patch["title"] = title
	}

	newGroupID := current.GroupID
	switch {
	case clearGroup:
		patch["group_id"] = nil
		newGroupID = nil
	case groupID != nil:
		patch["group_id"] = *groupID
		newGroupID = groupID
	}

	doc, err := r.store.Update(ctx, conversationsCollection, id, patch)
	if err != nil {
		return model.Conversation{}, err
	}
	updated := documentToConversation(doc)

	if groups != nil && !sameGroup(current.GroupID, newGroupID) {
		if current.GroupID != nil {
			if err := groups.RemoveConversation(ctx, *current.GroupID, id); err != nil {
				return model.Conversation{}, err
			}
		}
		if newGroupID != nil {
			if err := groups.AddConversation(ctx, *newGroupID, id); err != nil {
				return model.Conversation{}, err
			}
		}
	}

	return updated, nil
}

func sameGroup(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// SetSharedGroups replaces a conversation's shared_with_group_ids.
func (r *ConversationRepo) SetSharedGroups(ctx context.Context, id string, groupIDs []string) (model.Conversation, error) {
	doc, err := r.store.Update(ctx, conversationsCollection, id, docstore.Document{
		"shared_with_group_ids": groupIDs,
		"updated_at":            time.Now().UTC(),
	})
	if err != nil {
		return model.Conversation{}, err
	}
	return documentToConversation(doc), nil
}

// IncrementMessageCount bumps message_count by delta and stamps
// updated_at.
func (r *ConversationRepo) IncrementMessageCount(ctx context.Context, id string, delta int) (model.Conversation, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return model.Conversation{}, err
	}
	return r.SetMessageCount(ctx, id, current.MessageCount+delta)
}

// SetMessageCount overwrites message_count with an absolute value and
// stamps updated_at — the denormalization CE performs after
// persisting a turn, where original_source recomputes the count from
// the message store directly rather than incrementing.
func (r *ConversationRepo) SetMessageCount(ctx context.Context, id string, count int) (model.Conversation, error) {
	doc, err := r.store.Update(ctx, conversationsCollection, id, docstore.Document{
		"message_count": count,
		"updated_at":    time.Now().UTC(),
	})
	if err != nil {
		return model.Conversation{}, err
	}
	return documentToConversation(doc), nil
}

// Delete removes a Conversation. Callers are responsible for cascading
// to its messages (MessageRepo.DeleteByConversation).
func (r *ConversationRepo) Delete(ctx context.Context, id string) error {
	ok, err := r.store.Delete(ctx, conversationsCollection, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.New(apperr.NotFound, "conversation not found")
	}
	return nil
}

func toConversations(docs []docstore.Document) []model.Conversation {
	out := make([]model.Conversation, 0, len(docs))
	for _, doc := range docs {
		out = append(out, documentToConversation(doc))
	}
	return out
}
