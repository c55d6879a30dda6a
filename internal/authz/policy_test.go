package authz_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sorriso/simplehybridchat/internal/authz"
	"github.com/sorriso/simplehybridchat/internal/model"
)

func TestAuthzSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Authz Suite")
}

func principal(id string, role model.Role, groupIDs ...string) model.Principal {
	return model.Principal{ID: id, Role: role, GroupIDs: groupIDs}
}

var (
	root    = principal("root-1", model.RoleRoot)
	manager = principal("mgr-1", model.RoleManager)
	owner   = principal("user-1", model.RoleUser)
	other   = principal("user-2", model.RoleUser)
	member  = principal("user-3", model.RoleUser, "group-1")
)

var _ = Describe("Policy", func() {
	p := authz.New()

	DescribeTable("registration",
		func(authModeIsLocal, want bool) {
			Expect(p.CanRegisterLocal(authModeIsLocal)).To(Equal(want))
		},
		Entry("local mode active", true, true),
		Entry("local mode inactive", false, false),
	)

	DescribeTable("user creation",
		func(caller model.Principal, want bool) {
			Expect(p.CanCreateUser(caller)).To(Equal(want))
		},
		Entry("root may create users", root, true),
		Entry("manager may not create users", manager, false),
		Entry("user may not create users", owner, false),
	)

	DescribeTable("user deletion",
		func(caller model.Principal, targetID string, want bool) {
			Expect(p.CanDeleteUser(caller, targetID)).To(Equal(want))
		},
		Entry("root may delete another user", root, "user-1", true),
		Entry("root may not delete itself", root, root.ID, false),
		Entry("manager may not delete users", manager, "user-1", false),
	)

	DescribeTable("user role/status update",
		func(caller model.Principal, want bool) {
			Expect(p.CanUpdateUserRoleOrStatus(caller)).To(Equal(want))
		},
		Entry("root may", root, true),
		Entry("manager may", manager, true),
		Entry("user may not", owner, false),
	)

	DescribeTable("user profile update",
		func(caller model.Principal, targetID string, want bool) {
			Expect(p.CanUpdateUserProfile(caller, targetID)).To(Equal(want))
		},
		Entry("self may update own profile", owner, owner.ID, true),
		Entry("another user may not update someone else's profile", other, owner.ID, false),
		Entry("manager may update any profile", manager, owner.ID, true),
		Entry("root may update any profile", root, owner.ID, true),
	)

	DescribeTable("list users",
		func(caller model.Principal, want bool) {
			Expect(p.CanListUsers(caller)).To(Equal(want))
		},
		Entry("root may list", root, true),
		Entry("manager may list", manager, true),
		Entry("user may not list", owner, false),
	)

	DescribeTable("read user",
		func(caller model.Principal, targetID string, want bool) {
			Expect(p.CanReadUser(caller, targetID)).To(Equal(want))
		},
		Entry("self may read own record", owner, owner.ID, true),
		Entry("another user may not read someone else's record", other, owner.ID, false),
		Entry("manager may read any record", manager, owner.ID, true),
	)

	DescribeTable("user group creation",
		func(caller model.Principal, want bool) {
			Expect(p.CanCreateUserGroup(caller)).To(Equal(want))
		},
		Entry("root may create groups", root, true),
		Entry("manager may not create groups", manager, false),
	)

	DescribeTable("user group update/delete",
		func(caller model.Principal, want bool) {
			Expect(p.CanUpdateOrDeleteUserGroup(caller)).To(Equal(want))
		},
		Entry("root may", root, true),
		Entry("manager may not", manager, false),
	)

	DescribeTable("user group status toggle",
		func(caller model.Principal, group model.UserGroup, want bool) {
			Expect(p.CanToggleUserGroupStatus(caller, group)).To(Equal(want))
		},
		Entry("root may toggle any group", root, model.UserGroup{ID: "g1"}, true),
		Entry("a manager of the group may toggle it", manager, model.UserGroup{ID: "g1", ManagerIDs: []string{manager.ID}}, true),
		Entry("a manager of a different group may not", manager, model.UserGroup{ID: "g1", ManagerIDs: []string{"someone-else"}}, false),
	)

	DescribeTable("user group membership management",
		func(caller model.Principal, group model.UserGroup, want bool) {
			Expect(p.CanManageUserGroupMembership(caller, group)).To(Equal(want))
		},
		Entry("root may manage any group's membership", root, model.UserGroup{ID: "g1"}, true),
		Entry("group manager may manage membership", manager, model.UserGroup{ID: "g1", ManagerIDs: []string{manager.ID}}, true),
		Entry("non-manager may not", owner, model.UserGroup{ID: "g1", ManagerIDs: []string{manager.ID}}, false),
	)

	DescribeTable("user group manager assignment",
		func(caller model.Principal, newManagerRole model.Role, want bool) {
			Expect(p.CanAssignUserGroupManager(caller, newManagerRole)).To(Equal(want))
		},
		Entry("root may assign a manager-role user", root, model.RoleManager, true),
		Entry("root may assign a root-role user", root, model.RoleRoot, true),
		Entry("root may not assign a plain user as manager", root, model.RoleUser, false),
		Entry("a manager may not assign managers", manager, model.RoleManager, false),
	)

	Describe("visible user groups", func() {
		groups := []model.UserGroup{
			{ID: "g1", ManagerIDs: []string{manager.ID}},
			{ID: "g2", MemberIDs: []string{member.ID}, Status: model.StatusActive},
			{ID: "g3", MemberIDs: []string{member.ID}, Status: model.StatusDisabled},
		}

		It("shows root every group", func() {
			Expect(p.VisibleUserGroups(root, groups)).To(HaveLen(3))
		})

		It("shows a manager only the groups they manage", func() {
			visible := p.VisibleUserGroups(manager, groups)
			Expect(visible).To(HaveLen(1))
			Expect(visible[0].ID).To(Equal("g1"))
		})

		It("shows a member only their active groups", func() {
			visible := p.VisibleUserGroups(member, groups)
			Expect(visible).To(HaveLen(1))
			Expect(visible[0].ID).To(Equal("g2"))
		})
	})

	DescribeTable("read conversation",
		func(caller model.Principal, conv model.Conversation, want bool) {
			Expect(p.CanReadConversation(caller, conv)).To(Equal(want))
		},
		Entry("owner may read", owner, model.Conversation{OwnerID: owner.ID}, true),
		Entry("a member of a shared group may read", member, model.Conversation{OwnerID: owner.ID, SharedWithGroupIDs: []string{"group-1"}}, true),
		Entry("an unrelated user may not read", other, model.Conversation{OwnerID: owner.ID}, false),
	)

	DescribeTable("modify conversation (update/delete/share/unshare)",
		func(caller model.Principal, conv model.Conversation, want bool) {
			Expect(p.CanModifyConversation(caller, conv)).To(Equal(want))
		},
		Entry("owner may modify", owner, model.Conversation{OwnerID: owner.ID}, true),
		Entry("a shared-group member may not modify", member, model.Conversation{OwnerID: owner.ID, SharedWithGroupIDs: []string{"group-1"}}, false),
		Entry("root is not automatically granted modify", root, model.Conversation{OwnerID: owner.ID}, false),
	)

	DescribeTable("read messages",
		func(caller model.Principal, conv model.Conversation, want bool) {
			Expect(p.CanReadMessages(caller, conv)).To(Equal(want))
		},
		Entry("owner may read messages", owner, model.Conversation{OwnerID: owner.ID}, true),
		Entry("unrelated user may not", other, model.Conversation{OwnerID: owner.ID}, false),
	)

	DescribeTable("stream chat",
		func(caller model.Principal, conv model.Conversation, want bool) {
			Expect(p.CanStreamChat(caller, conv)).To(Equal(want))
		},
		Entry("owner may stream", owner, model.Conversation{OwnerID: owner.ID}, true),
		Entry("shared-group member may stream", member, model.Conversation{OwnerID: owner.ID, SharedWithGroupIDs: []string{"group-1"}}, true),
		Entry("unrelated user may not stream", other, model.Conversation{OwnerID: owner.ID}, false),
	)

	DescribeTable("upload file",
		func(caller model.Principal, scope model.FileScope, projectID string, want bool) {
			Expect(p.CanUploadFile(caller, scope, projectID)).To(Equal(want))
		},
		Entry("manager may upload system-scope", manager, model.FileScopeSystem, "", true),
		Entry("user may not upload system-scope", owner, model.FileScopeSystem, "", false),
		Entry("user may upload user_global-scope", owner, model.FileScopeUserGlobal, "", true),
		Entry("user may upload user_project-scope with a project id", owner, model.FileScopeUserProject, "proj-1", true),
		Entry("user may not upload user_project-scope without a project id", owner, model.FileScopeUserProject, "", false),
	)

	DescribeTable("read file",
		func(caller model.Principal, f model.File, want bool) {
			Expect(p.CanReadFile(caller, f)).To(Equal(want))
		},
		Entry("anyone may read a system-scope file", owner, model.File{Scope: model.FileScopeSystem}, true),
		Entry("the uploader may read their user_global file", owner, model.File{Scope: model.FileScopeUserGlobal, UploadedBy: strPtr(owner.ID)}, true),
		Entry("another user may not read someone else's user_global file", other, model.File{Scope: model.FileScopeUserGlobal, UploadedBy: strPtr(owner.ID)}, false),
		Entry("the uploader may read their user_project file", owner, model.File{Scope: model.FileScopeUserProject, UploadedBy: strPtr(owner.ID)}, true),
		Entry("a manager may read another user's user_project file", manager, model.File{Scope: model.FileScopeUserProject, UploadedBy: strPtr(owner.ID)}, true),
		Entry("an unrelated user may not read another's user_project file", other, model.File{Scope: model.FileScopeUserProject, UploadedBy: strPtr(owner.ID)}, false),
	)

	DescribeTable("delete file",
		func(caller model.Principal, f model.File, want bool) {
			Expect(p.CanDeleteFile(caller, f)).To(Equal(want))
		},
		Entry("the uploader may delete their own file", owner, model.File{UploadedBy: strPtr(owner.ID)}, true),
		Entry("an unrelated user may not delete someone else's file", other, model.File{UploadedBy: strPtr(owner.ID)}, false),
		Entry("a manager may delete any file", manager, model.File{UploadedBy: strPtr(owner.ID)}, true),
	)

	DescribeTable("toggle maintenance",
		func(caller model.Principal, want bool) {
			Expect(p.CanToggleMaintenance(caller)).To(Equal(want))
		},
		Entry("root may toggle maintenance", root, true),
		Entry("manager may not toggle maintenance", manager, false),
		Entry("user may not toggle maintenance", owner, false),
	)
})

func strPtr(s string) *string { return &s }
