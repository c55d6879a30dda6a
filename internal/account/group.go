package account

import (
	"context"
	"time"

	"github.com/sorriso/simplehybridchat/internal/docstore"
	"github.com/sorriso/simplehybridchat/internal/model"
)

// CreateGroup creates a new, empty, active UserGroup. Name uniqueness
// is enforced by the store's unique index.
func (r *Repository) CreateGroup(ctx context.Context, name string) (model.UserGroup, error) {
	now := time.Now().UTC()
	g := model.UserGroup{
		Name:       name,
		Status:     model.StatusActive,
		ManagerIDs: []string{},
		MemberIDs:  []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	doc, err := r.store.Create(ctx, userGroupsCollection, groupToDocument(g))
	if err != nil {
		return model.UserGroup{}, err
	}
	return documentToGroup(doc), nil
}

// GetGroup returns a UserGroup by id.
func (r *Repository) GetGroup(ctx context.Context, id string) (model.UserGroup, error) {
	doc, err := r.store.GetByID(ctx, userGroupsCollection, id)
	if err != nil {
		return model.UserGroup{}, err
	}
	return documentToGroup(doc), nil
}

// ListAllGroups returns every UserGroup, for the root-sees-all case;
// narrowing to what a manager or member may see is internal/authz's
// VisibleUserGroups, applied by the caller.
func (r *Repository) ListAllGroups(ctx context.Context) ([]model.UserGroup, error) {
	docs, err := r.store.Query(ctx, userGroupsCollection, nil, 0, 0, []docstore.SortField{{Field: "created_at"}})
	if err != nil {
		return nil, err
	}
	return toGroups(docs), nil
}

func toGroups(docs []docstore.Document) []model.UserGroup {
	groups := make([]model.UserGroup, 0, len(docs))
	for _, doc := range docs {
		groups = append(groups, documentToGroup(doc))
	}
	return groups
}

// UpdateGroupName renames a group. The caller is responsible for the
// pre-check that the new name does not collide; a collision at write
// time still surfaces as apperr.Conflict from the unique index.
func (r *Repository) UpdateGroupName(ctx context.Context, id, name string) (model.UserGroup, error) {
	doc, err := r.store.Update(ctx, userGroupsCollection, id, docstore.Document{
		"name":       name,
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return model.UserGroup{}, err
	}
	return documentToGroup(doc), nil
}

// ToggleStatus sets a group's active/disabled status.
func (r *Repository) ToggleStatus(ctx context.Context, id string, status model.Status) (model.UserGroup, error) {
	doc, err := r.store.Update(ctx, userGroupsCollection, id, docstore.Document{
		"status":     status,
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return model.UserGroup{}, err
	}
	return documentToGroup(doc), nil
}

// DeleteGroup removes a UserGroup. Members' own group_ids are not
// cleaned up here; see DeleteUser's note on dangling references.
func (r *Repository) DeleteGroup(ctx context.Context, id string) error {
	ok, err := r.store.Delete(ctx, userGroupsCollection, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperrNotFound("user group")
	}
	return nil
}

// AddMember adds userID to group's member_ids and group's id to the
// user's group_ids, bidirectionally, mirroring
// original_source/backend/src/services/user_group_service.py's
// add_member. Both writes use the store's "set after patch" semantics;
// this is not transactional across collections, matching the
// original's own two-write approach.
func (r *Repository) AddMember(ctx context.Context, groupID, userID string) (model.UserGroup, error) {
	group, err := r.GetGroup(ctx, groupID)
	if err != nil {
		return model.UserGroup{}, err
	}
	user, err := r.FindByID(ctx, userID)
	if err != nil {
		return model.UserGroup{}, err
	}

	if !containsString(group.MemberIDs, userID) {
		group.MemberIDs = append(group.MemberIDs, userID)
		doc, err := r.store.Update(ctx, userGroupsCollection, groupID, docstore.Document{
			"member_ids": group.MemberIDs,
			"updated_at": time.Now().UTC(),
		})
		if err != nil {
			return model.UserGroup{}, err
		}
		group = documentToGroup(doc)
	}

	if !containsString(user.GroupIDs, groupID) {
		if _, err := r.store.Update(ctx, usersCollection, userID, docstore.Document{
			"group_ids":  append(user.GroupIDs, groupID),
			"updated_at": time.Now().UTC(),
		}); err != nil {
			return model.UserGroup{}, err
		}
	}
	return group, nil
}

// RemoveMember removes userID from group's member_ids and group's id
// from the user's group_ids, bidirectionally.
func (r *Repository) RemoveMember(ctx context.Context, groupID, userID string) (model.UserGroup, error) {
	group, err := r.GetGroup(ctx, groupID)
	if err != nil {
		return model.UserGroup{}, err
	}

	group.MemberIDs = removeString(group.MemberIDs, userID)
	doc, err := r.store.Update(ctx, userGroupsCollection, groupID, docstore.Document{
		"member_ids": group.MemberIDs,
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return model.UserGroup{}, err
	}
	group = documentToGroup(doc)

	if user, err := r.FindByID(ctx, userID); err == nil {
		if containsString(user.GroupIDs, groupID) {
			if _, err := r.store.Update(ctx, usersCollection, userID, docstore.Document{
				"group_ids":  removeString(user.GroupIDs, groupID),
				"updated_at": time.Now().UTC(),
			}); err != nil {
				return model.UserGroup{}, err
			}
		}
	}
	return group, nil
}

// AssignManager adds userID to group's manager_ids. The caller must
// have already verified userID's role is manager or root (internal/authz's
// CanAssignUserGroupManager documents this as a separate check from
// the caller's own permission).
func (r *Repository) AssignManager(ctx context.Context, groupID, userID string) (model.UserGroup, error) {
	group, err := r.GetGroup(ctx, groupID)
	if err != nil {
		return model.UserGroup{}, err
	}
	if containsString(group.ManagerIDs, userID) {
		return group, nil
	}
	doc, err := r.store.Update(ctx, userGroupsCollection, groupID, docstore.Document{
		"manager_ids": append(group.ManagerIDs, userID),
		"updated_at":  time.Now().UTC(),
	})
	if err != nil {
		return model.UserGroup{}, err
	}
	return documentToGroup(doc), nil
}

// RemoveManager removes userID from group's manager_ids.
func (r *Repository) RemoveManager(ctx context.Context, groupID, userID string) (model.UserGroup, error) {
	group, err := r.GetGroup(ctx, groupID)
	if err != nil {
		return model.UserGroup{}, err
	}
	doc, err := r.store.Update(ctx, userGroupsCollection, groupID, docstore.Document{
		"manager_ids": removeString(group.ManagerIDs, userID),
		"updated_at":  time.Now().UTC(),
	})
	if err != nil {
		return model.UserGroup{}, err
	}
	return documentToGroup(doc), nil
}

func containsString(ids []string, target string) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}

func removeString(ids []string, target string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
