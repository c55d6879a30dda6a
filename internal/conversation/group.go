package conversation

import (
	"context"
	"time"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/docstore"
	"github.com/sorriso/simplehybridchat/internal/model"
)

const conversationGroupsCollection = "conversation_groups"

// ConversationGroupRepo is the docstore-backed ConversationGroup store
// — sidebar folders a user organizes their own conversations into.
// Unrelated to internal/account's UserGroup.
type ConversationGroupRepo struct {
	store docstore.Store
}

// NewConversationGroupRepo returns a ConversationGroupRepo over store.
func NewConversationGroupRepo(store docstore.Store) *ConversationGroupRepo {
	return &ConversationGroupRepo{store: store}
}

func convGroupToDocument(g model.ConversationGroup) docstore.Document {
	doc := docstore.Document{
		"name":             g.Name,
		"owner_id":         g.OwnerID,
		"conversation_ids": g.ConversationIDs,
		"created_at":       g.CreatedAt,
	}
	if g.ID != "" {
		doc["id"] = g.ID
	}
	return doc
}

func documentToConvGroup(doc docstore.Document) model.ConversationGroup {
	return model.ConversationGroup{
		ID:              stringField(doc, "id"),
		Name:            stringField(doc, "name"),
		OwnerID:         stringField(doc, "owner_id"),
		ConversationIDs: stringSliceField(doc, "conversation_ids"),
		CreatedAt:       timeField(doc, "created_at"),
	}
}

// Create creates a new, empty ConversationGroup owned by ownerID.
func (r *ConversationGroupRepo) Create(ctx context.Context, ownerID, name string) (model.ConversationGroup, error) {
	g := model.ConversationGroup{
		Name:            name,
		OwnerID:         ownerID,
		ConversationIDs: []string{},
		CreatedAt:       time.Now().UTC(),
	}
	doc, err := r.store.Create(ctx, conversationGroupsCollection, convGroupToDocument(g))
	if err != nil {
		return model.ConversationGroup{}, err
	}
	return documentToConvGroup(doc), nil
}

// Get returns a ConversationGroup by id.
func (r *ConversationGroupRepo) Get(ctx context.Context, id string) (model.ConversationGroup, error) {
	doc, err := r.store.GetByID(ctx, conversationGroupsCollection, id)
	if err != nil {
		return model.ConversationGroup{}, err
	}
	return documentToConvGroup(doc), nil
}

// ListByOwner returns every ConversationGroup owned by ownerID.
func (r *ConversationGroupRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.ConversationGroup, error) {
	docs, err := r.store.Query(ctx, conversationGroupsCollection,
		docstore.Filters{"owner_id": ownerID}, 0, 0,
		[]docstore.SortField{{Field: "created_at"}})
	if err != nil {
		return nil, err
	}
	out := make([]model.ConversationGroup, 0, len(docs))
	for _, doc := range docs {
		out = append(out, documentToConvGroup(doc))
	}
	return out, nil
}

// Delete removes a ConversationGroup. It does not itself null out
// Conversation.GroupID for conversations that referenced it; callers
// must clear those references first (see
// ConversationRepo.ListByGroupID and UpdateTitleAndGroup's clearGroup
// option — internal/server's deleteConversationGroup handler does
// this before calling Delete).
func (r *ConversationGroupRepo) Delete(ctx context.Context, id string) error {
	ok, err := r.store.Delete(ctx, conversationGroupsCollection, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.New(apperr.NotFound, "conversation group not found")
	}
	return nil
}

// AddConversation appends conversationID to a group's
// conversation_ids, if not already present. Keeps
// ConversationGroup.conversation_ids in sync with
// Conversation.group_id per spec.md §3's invariant; called from
// ConversationRepo.Create/UpdateTitleAndGroup whenever a conversation
// is newly placed in a group.
func (r *ConversationGroupRepo) AddConversation(ctx context.Context, groupID, conversationID string) error {
	g, err := r.Get(ctx, groupID)
	if err != nil {
		return err
	}
	for _, id := range g.ConversationIDs {
		if id == conversationID {
			return nil
		}
	}
	ids := append(append([]string{}, g.ConversationIDs...), conversationID)
	_, err = r.store.Update(ctx, conversationGroupsCollection, groupID, docstore.Document{"conversation_ids": ids})
	return err
}

// RemoveConversation removes conversationID from a group's
// conversation_ids, if present. The counterpart to AddConversation,
// called whenever a conversation leaves a group (moved elsewhere,
// ungrouped, or the group itself is being deleted).
func (r *ConversationGroupRepo) RemoveConversation(ctx context.Context, groupID, conversationID string) error {
	g, err := r.Get(ctx, groupID)
	if err != nil {
		return err
	}
	out := make([]string, 0, len(g.ConversationIDs))
	for _, id := range g.ConversationIDs {
		if id != conversationID {
			out = append(out, id)
		}
	}
	_, err = r.store.Update(ctx, conversationGroupsCollection, groupID, docstore.Document{"conversation_ids": out})
	return err
}
