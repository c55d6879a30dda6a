package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/model"
)

type groupResponse struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Status     string   `json:"status"`
	ManagerIDs []string `json:"manager_ids"`
	MemberIDs  []string `json:"member_ids"`
}

func toGroupResponse(g model.UserGroup) groupResponse {
	return groupResponse{
		ID:         g.ID,
		Name:       g.Name,
		Status:     string(g.Status),
		ManagerIDs: g.ManagerIDs,
		MemberIDs:  g.MemberIDs,
	}
}

type createGroupRequest struct {
	Name string `json:"name"`
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	if !s.policy.CanCreateUserGroup(principalFrom(r)) {
		writeErr(w, apperr.New(apperr.Forbidden, "only root may create user-groups"))
		return
	}
	var req createGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	g, err := s.accounts.CreateGroup(r.Context(), req.Name)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGroupResponse(g))
}

func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.accounts.ListAllGroups(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	visible := s.policy.VisibleUserGroups(principalFrom(r), groups)
	out := make([]groupResponse, 0, len(visible))
	for _, g := range visible {
		out = append(out, toGroupResponse(g))
	}
	writeJSON(w, http.StatusOK, out)
}

type renameGroupRequest struct {
	Name string `json:"name"`
}

func (s *Server) updateGroup(w http.ResponseWriter, r *http.Request) {
	if !s.policy.CanUpdateOrDeleteUserGroup(principalFrom(r)) {
		writeErr(w, apperr.New(apperr.Forbidden, "only root may update user-groups"))
		return
	}
	var req renameGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	g, err := s.accounts.UpdateGroupName(r.Context(), chi.URLParam(r, "groupID"), req.Name)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(g))
}

func (s *Server) deleteGroup(w http.ResponseWriter, r *http.Request) {
	if !s.policy.CanUpdateOrDeleteUserGroup(principalFrom(r)) {
		writeErr(w, apperr.New(apperr.Forbidden, "only root may delete user-groups"))
		return
	}
	if err := s.accounts.DeleteGroup(r.Context(), chi.URLParam(r, "groupID")); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type toggleGroupStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) toggleGroupStatus(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	group, err := s.accounts.GetGroup(r.Context(), groupID)
	if err != nil {
		writeErr(w, err)
		return
	}
	if !s.policy.CanToggleUserGroupStatus(principalFrom(r), group) {
		writeErr(w, apperr.New(apperr.Forbidden, "not permitted to toggle this group's status"))
		return
	}
	var req toggleGroupStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	g, err := s.accounts.ToggleStatus(r.Context(), groupID, model.Status(req.Status))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(g))
}

type memberRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) addGroupMember(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	group, err := s.accounts.GetGroup(r.Context(), groupID)
	if err != nil {
		writeErr(w, err)
		return
	}
	if !s.policy.CanManageUserGroupMembership(principalFrom(r), group) {
		writeErr(w, apperr.New(apperr.Forbidden, "not permitted to manage this group's membership"))
		return
	}
	var req memberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	g, err := s.accounts.AddMember(r.Context(), groupID, req.UserID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(g))
}

func (s *Server) removeGroupMember(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	group, err := s.accounts.GetGroup(r.Context(), groupID)
	if err != nil {
		writeErr(w, err)
		return
	}
	if !s.policy.CanManageUserGroupMembership(principalFrom(r), group) {
		writeErr(w, apperr.New(apperr.Forbidden, "not permitted to manage this group's membership"))
		return
	}
	userID := chi.URLParam(r, "userID")
	g, err := s.accounts.RemoveMember(r.Context(), groupID, userID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(g))
}

func (s *Server) assignGroupManager(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	var req memberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	newManager, err := s.accounts.FindByID(r.Context(), req.UserID)
	if err != nil {
		writeErr(w, err)
		return
	}
	if !s.policy.CanAssignUserGroupManager(principalFrom(r), newManager.Role) {
		writeErr(w, apperr.New(apperr.Forbidden, "not permitted to assign this manager"))
		return
	}
	g, err := s.accounts.AssignManager(r.Context(), groupID, req.UserID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(g))
}

func (s *Server) revokeGroupManager(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	newManager, err := s.accounts.FindByID(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeErr(w, err)
		return
	}
	if !s.policy.CanAssignUserGroupManager(principalFrom(r), newManager.Role) {
		writeErr(w, apperr.New(apperr.Forbidden, "not permitted to revoke this manager"))
		return
	}
	g, err := s.accounts.RemoveManager(r.Context(), groupID, chi.URLParam(r, "userID"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(g))
}
