// Package authz implements the stateless authorization policy of
// spec.md §4.4: one pure predicate per table row, over a
// (model.Principal, resource) pair. No service lookups happen inside
// this package.
package authz

import "github.com/sorriso/simplehybridchat/internal/model"

// Policy is the stateless authorization policy.
type Policy struct{}

// New returns a Policy. It carries no state.
func New() Policy { return Policy{} }

func isPrivileged(p model.Principal) bool {
	return p.Role == model.RoleManager || p.Role == model.RoleRoot
}

func groupIDsContain(ids []string, target string) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}

// CanRegisterLocal reports whether registration is permitted, given
// the process's active auth mode.
func (Policy) CanRegisterLocal(authModeIsLocal bool) bool { return authModeIsLocal }

// CanCreateUser reports whether caller may create a new User.
func (Policy) CanCreateUser(caller model.Principal) bool {
	return caller.Role == model.RoleRoot
}

// CanDeleteUser reports whether caller may delete targetID.
func (Policy) CanDeleteUser(caller model.Principal, targetID string) bool {
	return caller.Role == model.RoleRoot && caller.ID != targetID
}

// CanUpdateUserRoleOrStatus reports whether caller may change a
// user's role or status.
func (Policy) CanUpdateUserRoleOrStatus(caller model.Principal) bool {
	return isPrivileged(caller)
}

// CanUpdateUserProfile reports whether caller may change a user's
// name/email/password.
func (Policy) CanUpdateUserProfile(caller model.Principal, targetID string) bool {
	return caller.ID == targetID || isPrivileged(caller)
}

// CanListUsers reports whether caller may list users.
func (Policy) CanListUsers(caller model.Principal) bool {
	return isPrivileged(caller)
}

// CanReadUser reports whether caller may read targetID's record.
func (Policy) CanReadUser(caller model.Principal, targetID string) bool {
	return caller.ID == targetID || isPrivileged(caller)
}

// CanCreateUserGroup reports whether caller may create a UserGroup.
func (Policy) CanCreateUserGroup(caller model.Principal) bool {
	return caller.Role == model.RoleRoot
}

// CanUpdateOrDeleteUserGroup reports whether caller may update or
// delete a UserGroup.
func (Policy) CanUpdateOrDeleteUserGroup(caller model.Principal) bool {
	return caller.Role == model.RoleRoot
}

// CanToggleUserGroupStatus reports whether caller may enable/disable
// a UserGroup.
func (Policy) CanToggleUserGroupStatus(caller model.Principal, group model.UserGroup) bool {
	return caller.Role == model.RoleRoot || groupIDsContain(group.ManagerIDs, caller.ID)
}

// CanManageUserGroupMembership reports whether caller may add/remove
// a member of a UserGroup.
func (Policy) CanManageUserGroupMembership(caller model.Principal, group model.UserGroup) bool {
	return caller.Role == model.RoleRoot || groupIDsContain(group.ManagerIDs, caller.ID)
}

// CanAssignUserGroupManager reports whether caller may assign/revoke
// a manager of a UserGroup; newManagerRole must already be manager or
// root.
func (Policy) CanAssignUserGroupManager(caller model.Principal, newManagerRole model.Role) bool {
	if caller.Role != model.RoleRoot {
		return false
	}
	return newManagerRole == model.RoleManager || newManagerRole == model.RoleRoot
}

// VisibleUserGroups filters groups to those caller is permitted to
// list: root sees all, manager sees groups they manage, user sees
// active groups they belong to.
func (Policy) VisibleUserGroups(caller model.Principal, groups []model.UserGroup) []model.UserGroup {
	if caller.Role == model.RoleRoot {
		return groups
	}

	var out []model.UserGroup
	for _, g := range groups {
		switch {
		case caller.Role == model.RoleManager && groupIDsContain(g.ManagerIDs, caller.ID):
			out = append(out, g)
		case groupIDsContain(g.MemberIDs, caller.ID) && g.Status == model.StatusActive:
			out = append(out, g)
		}
	}
	return out
}

// CanReadConversation reports whether caller may read a conversation:
// owner, or member of a group it is shared with.
func (Policy) CanReadConversation(caller model.Principal, conv model.Conversation) bool {
	return caller.ID == conv.OwnerID || intersects(caller.GroupIDs, conv.SharedWithGroupIDs)
}

// CanModifyConversation reports whether caller may
// update/delete/share/unshare a conversation: owner only.
func (Policy) CanModifyConversation(caller model.Principal, conv model.Conversation) bool {
	return caller.ID == conv.OwnerID
}

// CanReadMessages reports whether caller may list a conversation's
// messages — identical to CanReadConversation.
func (p Policy) CanReadMessages(caller model.Principal, conv model.Conversation) bool {
	return p.CanReadConversation(caller, conv)
}

// CanStreamChat reports whether caller may stream chat in a
// conversation — identical to CanReadConversation.
func (p Policy) CanStreamChat(caller model.Principal, conv model.Conversation) bool {
	return p.CanReadConversation(caller, conv)
}

// CanUploadFile reports whether caller may upload a file of the given
// scope. projectID is the project_id supplied with the upload (may be
// empty); the user_project rule only checks presence, the caller
// identity is unconstrained for that scope.
func (Policy) CanUploadFile(caller model.Principal, scope model.FileScope, projectID string) bool {
	switch scope {
	case model.FileScopeSystem:
		return isPrivileged(caller)
	case model.FileScopeUserProject:
		return projectID != ""
	default:
		return true
	}
}

// CanReadFile reports whether caller may read a File.
func (Policy) CanReadFile(caller model.Principal, f model.File) bool {
	switch f.Scope {
	case model.FileScopeSystem:
		return true
	case model.FileScopeUserGlobal:
		return f.UploadedBy != nil && *f.UploadedBy == caller.ID
	case model.FileScopeUserProject:
		return (f.UploadedBy != nil && *f.UploadedBy == caller.ID) || isPrivileged(caller)
	default:
		return false
	}
}

// CanDeleteFile reports whether caller may delete a File.
func (Policy) CanDeleteFile(caller model.Principal, f model.File) bool {
	return (f.UploadedBy != nil && *f.UploadedBy == caller.ID) || isPrivileged(caller)
}

// CanPromoteFile reports whether caller may promote a File (e.g.
// project scope to system scope): privileged roles only, regardless of
// uploader — promotion changes a file's visibility to every caller,
// which uploader-level trust does not cover.
func (Policy) CanPromoteFile(caller model.Principal) bool {
	return isPrivileged(caller)
}

// CanToggleMaintenance reports whether caller may toggle maintenance
// mode.
func (Policy) CanToggleMaintenance(caller model.Principal) bool {
	return caller.Role == model.RoleRoot
}
