// Package account implements User and UserGroup management: CRUD,
// bidirectional group membership maintenance, and the lookups
// internal/principal needs to resolve a request's identity. Grounded
// on original_source/backend/src/services/{user_service,user_group_service}.py.
package account

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/docstore"
	"github.com/sorriso/simplehybridchat/internal/model"
)

const (
	usersCollection      = "users"
	userGroupsCollection = "user_groups"
)

// Repository is the docstore-backed User/UserGroup store. It satisfies
// internal/principal.UserRepo.
type Repository struct {
	store docstore.Store
}

// New returns a Repository over the given document store.
func New(store docstore.Store) *Repository {
	return &Repository{store: store}
}

// EnsureIndexes creates the indexes this repository's queries rely on.
// Safe to call on every startup; adapters treat a pre-existing index as
// a no-op.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	if err := r.store.CreateIndex(ctx, usersCollection, docstore.IndexSpec{
		Name:   "users_email_unique",
		Fields: []docstore.SortField{{Field: "email"}},
		Unique: true,
	}); err != nil {
		return err
	}
	return r.store.CreateIndex(ctx, userGroupsCollection, docstore.IndexSpec{
		Name:   "user_groups_name_unique",
		Fields: []docstore.SortField{{Field: "name"}},
		Unique: true,
	})
}

func userToDocument(u model.User) docstore.Document {
	doc := docstore.Document{
		"name":          u.Name,
		"email":         u.Email,
		"password_hash": u.PasswordHash,
		"role":          u.Role,
		"status":        u.Status,
		"group_ids":     u.GroupIDs,
		"created_at":    u.CreatedAt,
		"updated_at":    u.UpdatedAt,
	}
	if u.ID != "" {
		doc["id"] = u.ID
	}
	return doc
}

func documentToUser(doc docstore.Document) model.User {
	return model.User{
		ID:           stringField(doc, "id"),
		Name:         stringField(doc, "name"),
		Email:        stringField(doc, "email"),
		PasswordHash: stringField(doc, "password_hash"),
		Role:         model.Role(stringField(doc, "role")),
		Status:       model.Status(stringField(doc, "status")),
		GroupIDs:     stringSliceField(doc, "group_ids"),
		CreatedAt:    timeField(doc, "created_at"),
		UpdatedAt:    timeField(doc, "updated_at"),
	}
}

func groupToDocument(g model.UserGroup) docstore.Document {
	doc := docstore.Document{
		"name":        g.Name,
		"status":      g.Status,
		"manager_ids": g.ManagerIDs,
		"member_ids":  g.MemberIDs,
		"created_at":  g.CreatedAt,
		"updated_at":  g.UpdatedAt,
	}
	if g.ID != "" {
		doc["id"] = g.ID
	}
	return doc
}

func documentToGroup(doc docstore.Document) model.UserGroup {
	return model.UserGroup{
		ID:         stringField(doc, "id"),
		Name:       stringField(doc, "name"),
		Status:     model.Status(stringField(doc, "status")),
		ManagerIDs: stringSliceField(doc, "manager_ids"),
		MemberIDs:  stringSliceField(doc, "member_ids"),
		CreatedAt:  timeField(doc, "created_at"),
		UpdatedAt:  timeField(doc, "updated_at"),
	}
}

func stringField(doc docstore.Document, key string) string {
	s, _ := doc[key].(string)
	return s
}

func timeField(doc docstore.Document, key string) time.Time {
	t, _ := doc[key].(time.Time)
	return t
}

func stringSliceField(doc docstore.Document, key string) []string {
	switch v := doc[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func newID() string { return uuid.NewString() }

func apperrNotFound(what string) error {
	return apperr.New(apperr.NotFound, what+" not found")
}
