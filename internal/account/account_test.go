package account_test

import (
	"context"
	"testing"

	"github.com/sorriso/simplehybridchat/internal/account"
	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/docstore/memstore"
	"github.com/sorriso/simplehybridchat/internal/model"
)

func newRepo(t *testing.T) *account.Repository {
	t.Helper()
	store := memstore.New()
	repo := account.New(store)
	if err := repo.EnsureIndexes(context.Background()); err != nil {
		t.Fatalf("EnsureIndexes() error = %v", err)
	}
	return repo
}

func TestCreateLocalUserAndFindByEmail(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	created, err := repo.CreateLocalUser(ctx, "Ada", "ada@example.com", "hashed")
	if err != nil {
		t.Fatalf("CreateLocalUser() error = %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected a minted id")
	}
	if created.Role != model.RoleUser {
		t.Errorf("Role = %q, want %q", created.Role, model.RoleUser)
	}

	found, err := repo.FindByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("FindByEmail() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("found id = %q, want %q", found.ID, created.ID)
	}
}

func TestCreateLocalUserRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	if _, err := repo.CreateLocalUser(ctx, "Ada", "ada@example.com", "hashed"); err != nil {
		t.Fatalf("first CreateLocalUser() error = %v", err)
	}
	_, err := repo.CreateLocalUser(ctx, "Ada Two", "ada@example.com", "hashed2")
	if !apperr.Is(err, apperr.Conflict) {
		t.Fatalf("expected Conflict, got %v", err)
	}
}

func TestGetOrCreateSSOUserIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	first, err := repo.GetOrCreateSSOUser(ctx, "Ada", "ada@example.com")
	if err != nil {
		t.Fatalf("first GetOrCreateSSOUser() error = %v", err)
	}
	second, err := repo.GetOrCreateSSOUser(ctx, "Ada", "ada@example.com")
	if err != nil {
		t.Fatalf("second GetOrCreateSSOUser() error = %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected the same user id, got %q then %q", first.ID, second.ID)
	}
}

func TestFindByIDNotFound(t *testing.T) {
	repo := newRepo(t)
	if _, err := repo.FindByID(context.Background(), "missing"); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestUpdateProfilePartial(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	u, err := repo.CreateLocalUser(ctx, "Ada", "ada@example.com", "hashed")
	if err != nil {
		t.Fatalf("CreateLocalUser() error = %v", err)
	}

	updated, err := repo.UpdateProfile(ctx, u.ID, "Ada Lovelace", "", "")
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if updated.Name != "Ada Lovelace" {
		t.Errorf("Name = %q, want %q", updated.Name, "Ada Lovelace")
	}
	if updated.Email != "ada@example.com" {
		t.Errorf("Email changed unexpectedly to %q", updated.Email)
	}
}

func TestUpdateRoleStatus(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	u, err := repo.CreateLocalUser(ctx, "Ada", "ada@example.com", "hashed")
	if err != nil {
		t.Fatalf("CreateLocalUser() error = %v", err)
	}

	role := model.RoleManager
	updated, err := repo.UpdateRoleStatus(ctx, u.ID, &role, nil)
	if err != nil {
		t.Fatalf("UpdateRoleStatus() error = %v", err)
	}
	if updated.Role != model.RoleManager {
		t.Errorf("Role = %q, want %q", updated.Role, model.RoleManager)
	}
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	u, err := repo.CreateLocalUser(ctx, "Ada", "ada@example.com", "hashed")
	if err != nil {
		t.Fatalf("CreateLocalUser() error = %v", err)
	}
	if err := repo.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if err := repo.DeleteUser(ctx, u.ID); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound on second delete, got %v", err)
	}
}

func TestListUsersFiltersByRole(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	if _, err := repo.CreateLocalUser(ctx, "Ada", "ada@example.com", "hashed"); err != nil {
		t.Fatalf("CreateLocalUser() error = %v", err)
	}
	manager, err := repo.CreateUser(ctx, "Manager Mary", "mary@example.com", "hashed", model.RoleManager)
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	role := model.RoleManager
	users, err := repo.ListUsers(ctx, &role, nil, 0, 0)
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 1 || users[0].ID != manager.ID {
		t.Fatalf("expected only the manager, got %+v", users)
	}
}

func TestAddMemberIsBidirectional(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	u, err := repo.CreateLocalUser(ctx, "Ada", "ada@example.com", "hashed")
	if err != nil {
		t.Fatalf("CreateLocalUser() error = %v", err)
	}
	g, err := repo.CreateGroup(ctx, "research")
	if err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}

	group, err := repo.AddMember(ctx, g.ID, u.ID)
	if err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}
	if !contains(group.MemberIDs, u.ID) {
		t.Errorf("expected group.member_ids to contain %q, got %v", u.ID, group.MemberIDs)
	}

	user, err := repo.FindByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if !contains(user.GroupIDs, g.ID) {
		t.Errorf("expected user.group_ids to contain %q, got %v", g.ID, user.GroupIDs)
	}

	// Adding the same member twice is idempotent.
	group, err = repo.AddMember(ctx, g.ID, u.ID)
	if err != nil {
		t.Fatalf("second AddMember() error = %v", err)
	}
	if len(group.MemberIDs) != 1 {
		t.Errorf("expected member_ids to remain a single entry, got %v", group.MemberIDs)
	}
}

func TestRemoveMemberIsBidirectional(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	u, err := repo.CreateLocalUser(ctx, "Ada", "ada@example.com", "hashed")
	if err != nil {
		t.Fatalf("CreateLocalUser() error = %v", err)
	}
	g, err := repo.CreateGroup(ctx, "research")
	if err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}
	if _, err := repo.AddMember(ctx, g.ID, u.ID); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}

	group, err := repo.RemoveMember(ctx, g.ID, u.ID)
	if err != nil {
		t.Fatalf("RemoveMember() error = %v", err)
	}
	if contains(group.MemberIDs, u.ID) {
		t.Errorf("expected member_ids to no longer contain %q", u.ID)
	}

	user, err := repo.FindByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if contains(user.GroupIDs, g.ID) {
		t.Errorf("expected user.group_ids to no longer contain %q", g.ID)
	}
}

func TestAssignAndRemoveManager(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	manager, err := repo.CreateUser(ctx, "Manager Mary", "mary@example.com", "hashed", model.RoleManager)
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	g, err := repo.CreateGroup(ctx, "research")
	if err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}

	group, err := repo.AssignManager(ctx, g.ID, manager.ID)
	if err != nil {
		t.Fatalf("AssignManager() error = %v", err)
	}
	if !contains(group.ManagerIDs, manager.ID) {
		t.Fatalf("expected manager_ids to contain %q, got %v", manager.ID, group.ManagerIDs)
	}

	group, err = repo.RemoveManager(ctx, g.ID, manager.ID)
	if err != nil {
		t.Fatalf("RemoveManager() error = %v", err)
	}
	if contains(group.ManagerIDs, manager.ID) {
		t.Errorf("expected manager_ids to no longer contain %q", manager.ID)
	}
}

func TestToggleStatusAndUpdateGroupName(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	g, err := repo.CreateGroup(ctx, "research")
	if err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}

	disabled, err := repo.ToggleStatus(ctx, g.ID, model.StatusDisabled)
	if err != nil {
		t.Fatalf("ToggleStatus() error = %v", err)
	}
	if disabled.Status != model.StatusDisabled {
		t.Errorf("Status = %q, want %q", disabled.Status, model.StatusDisabled)
	}

	renamed, err := repo.UpdateGroupName(ctx, g.ID, "research-2")
	if err != nil {
		t.Fatalf("UpdateGroupName() error = %v", err)
	}
	if renamed.Name != "research-2" {
		t.Errorf("Name = %q, want %q", renamed.Name, "research-2")
	}
}

func TestDeleteGroup(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	g, err := repo.CreateGroup(ctx, "research")
	if err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}
	if err := repo.DeleteGroup(ctx, g.ID); err != nil {
		t.Fatalf("DeleteGroup() error = %v", err)
	}
	if _, err := repo.GetGroup(ctx, g.ID); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound after delete, got %v", err)
	}
}

func contains(ids []string, target string) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}
