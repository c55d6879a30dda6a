package conversation

import (
	"context"

	"github.com/sorriso/simplehybridchat/internal/docstore"
)

// EnsureIndexes creates every index the CMS queries rely on, per
// SPEC_FULL.md §4.5. Safe to call on every startup.
func EnsureIndexes(ctx context.Context, store docstore.Store) error {
	if err := store.CreateIndex(ctx, conversationsCollection, docstore.IndexSpec{
		Name:   "conversations_owner_id",
		Fields: []docstore.SortField{{Field: "owner_id"}},
	}); err != nil {
		return err
	}
	if err := store.CreateIndex(ctx, conversationsCollection, docstore.IndexSpec{
		Name:   "conversations_shared_with_group_ids",
		Fields: []docstore.SortField{{Field: "shared_with_group_ids"}},
	}); err != nil {
		return err
	}
	if err := store.CreateIndex(ctx, messagesCollection, docstore.IndexSpec{
		Name: "messages_conversation_id_created_at",
		Fields: []docstore.SortField{
			{Field: "conversation_id"},
			{Field: "created_at"},
		},
	}); err != nil {
		return err
	}
	return store.CreateIndex(ctx, conversationGroupsCollection, docstore.IndexSpec{
		Name:   "conversation_groups_owner_id",
		Fields: []docstore.SortField{{Field: "owner_id"}},
	})
}
