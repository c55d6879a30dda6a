package account

import (
	"context"
	"time"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/docstore"
	"github.com/sorriso/simplehybridchat/internal/model"
)

// CreateUser creates a new user with an already-hashed password. Email
// uniqueness is enforced by the store's unique index; a collision
// surfaces as apperr.Conflict.
func (r *Repository) CreateUser(ctx context.Context, name, email, passwordHash string, role model.Role) (model.User, error) {
	now := time.Now().UTC()
	u := model.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		Status:       model.StatusActive,
		GroupIDs:     []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	doc, err := r.store.Create(ctx, usersCollection, userToDocument(u))
	if err != nil {
		return model.User{}, err
	}
	return documentToUser(doc), nil
}

// CreateLocalUser implements principal.UserRepo: provisions a new
// local-auth-mode user at role "user".
func (r *Repository) CreateLocalUser(ctx context.Context, name, email, passwordHash string) (model.User, error) {
	return r.CreateUser(ctx, name, email, passwordHash, model.RoleUser)
}

// GetOrCreateSSOUser implements principal.UserRepo: returns the
// existing user for email, or provisions one at role "user" on first
// contact. Idempotent under races: a concurrent duplicate Create
// surfaces as apperr.Conflict, in which case the caller's record now
// exists and is re-read.
func (r *Repository) GetOrCreateSSOUser(ctx context.Context, name, email string) (model.User, error) {
	u, err := r.FindByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !apperr.Is(err, apperr.NotFound) {
		return model.User{}, err
	}

	created, err := r.CreateUser(ctx, name, email, "", model.RoleUser)
	if err == nil {
		return created, nil
	}
	if apperr.Is(err, apperr.Conflict) {
		return r.FindByEmail(ctx, email)
	}
	return model.User{}, err
}

// FindByEmail implements principal.UserRepo.
func (r *Repository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	doc, err := r.store.FindOne(ctx, usersCollection, docstore.Filters{"email": email})
	if err != nil {
		return model.User{}, err
	}
	return documentToUser(doc), nil
}

// FindByID implements principal.UserRepo.
func (r *Repository) FindByID(ctx context.Context, id string) (model.User, error) {
	doc, err := r.store.GetByID(ctx, usersCollection, id)
	if err != nil {
		return model.User{}, err
	}
	return documentToUser(doc), nil
}

// ListUsers returns every user matching filters (spec.md's "manager+
// only" gate is enforced by the caller via internal/authz, not here).
func (r *Repository) ListUsers(ctx context.Context, role *model.Role, status *model.Status, skip, limit int) ([]model.User, error) {
	filters := docstore.Filters{}
	if role != nil {
		filters["role"] = *role
	}
	if status != nil {
		filters["status"] = *status
	}

	docs, err := r.store.Query(ctx, usersCollection, filters, skip, limit, []docstore.SortField{{Field: "created_at"}})
	if err != nil {
		return nil, err
	}
	users := make([]model.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, documentToUser(doc))
	}
	return users, nil
}

// UpdateProfile updates the self-editable fields: name, email,
// passwordHash. Any zero-value argument leaves the field unchanged.
func (r *Repository) UpdateProfile(ctx context.Context, id, name, email, passwordHash string) (model.User, error) {
	patch := docstore.Document{"updated_at": time.Now().UTC()}
	if name != "" {
		patch["name"] = name
	}
	if email != "" {
		patch["email"] = email
	}
	if passwordHash != "" {
		patch["password_hash"] = passwordHash
	}
	doc, err := r.store.Update(ctx, usersCollection, id, patch)
	if err != nil {
		return model.User{}, err
	}
	return documentToUser(doc), nil
}

// UpdateRoleStatus updates the manager+-only fields: role, status.
func (r *Repository) UpdateRoleStatus(ctx context.Context, id string, role *model.Role, status *model.Status) (model.User, error) {
	patch := docstore.Document{"updated_at": time.Now().UTC()}
	if role != nil {
		patch["role"] = *role
	}
	if status != nil {
		patch["status"] = *status
	}
	doc, err := r.store.Update(ctx, usersCollection, id, patch)
	if err != nil {
		return model.User{}, err
	}
	return documentToUser(doc), nil
}

// DeleteUser removes a user record. It does not touch any group's
// member_ids/manager_ids; a deleted user's id may linger there as a
// dangling reference, the same tolerance original_source's adapter
// shows for deleted-but-still-referenced keys.
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	ok, err := r.store.Delete(ctx, usersCollection, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperrNotFound("user")
	}
	return nil
}
