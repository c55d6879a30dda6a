package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/model"
	"github.com/sorriso/simplehybridchat/internal/principal"
)

type userResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Role      string   `json:"role"`
	Status    string   `json:"status"`
	GroupIDs  []string `json:"group_ids"`
	CreatedAt string   `json:"created_at"`
}

func toUserResponse(u model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		Status:    string(u.Status),
		GroupIDs:  u.GroupIDs,
		CreatedAt: u.CreatedAt.Format(httpTimeFormat),
	}
}

const httpTimeFormat = "2006-01-02T15:04:05Z07:00"

type createUserRequest struct {
	Name               string `json:"name"`
	Email              string `json:"email"`
	PasswordHashClient string `json:"password_hash_client"`
	Role               string `json:"role"`
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	caller := principalFrom(r)
	if !s.policy.CanCreateUser(caller) {
		writeErr(w, apperr.New(apperr.Forbidden, "only root may create users"))
		return
	}
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if err := principal.ValidateClientDigest(req.PasswordHashClient); err != nil {
		writeErr(w, err)
		return
	}
	hash, err := principal.HashPassword(req.PasswordHashClient)
	if err != nil {
		writeErr(w, err)
		return
	}
	role := model.Role(req.Role)
	if role == "" {
		role = model.RoleUser
	}
	u, err := s.accounts.CreateUser(r.Context(), req.Name, req.Email, hash, role)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	caller := principalFrom(r)
	if !s.policy.CanListUsers(caller) {
		writeErr(w, apperr.New(apperr.Forbidden, "not permitted to list users"))
		return
	}
	users, err := s.accounts.ListUsers(r.Context(), nil, nil, 0, 0)
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	caller := principalFrom(r)
	targetID := chi.URLParam(r, "userID")
	if !s.policy.CanReadUser(caller, targetID) {
		writeErr(w, apperr.New(apperr.Forbidden, "not permitted to read this user"))
		return
	}
	u, err := s.accounts.FindByID(r.Context(), targetID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

type updateUserProfileRequest struct {
	Name               string `json:"name"`
	Email              string `json:"email"`
	PasswordHashClient string `json:"password_hash_client"`
}

func (s *Server) updateUserProfile(w http.ResponseWriter, r *http.Request) {
	caller := principalFrom(r)
	targetID := chi.URLParam(r, "userID")
	if !s.policy.CanUpdateUserProfile(caller, targetID) {
		writeErr(w, apperr.New(apperr.Forbidden, "not permitted to update this user's profile"))
		return
	}
	var req updateUserProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	var hash string
	if req.PasswordHashClient != "" {
		if err := principal.ValidateClientDigest(req.PasswordHashClient); err != nil {
			writeErr(w, err)
			return
		}
		h, err := principal.HashPassword(req.PasswordHashClient)
		if err != nil {
			writeErr(w, err)
			return
		}
		hash = h
	}
	u, err := s.accounts.UpdateProfile(r.Context(), targetID, req.Name, req.Email, hash)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

type updateUserRoleStatusRequest struct {
	Role   *string `json:"role"`
	Status *string `json:"status"`
}

func (s *Server) updateUserRoleStatus(w http.ResponseWriter, r *http.Request) {
	caller := principalFrom(r)
	if !s.policy.CanUpdateUserRoleOrStatus(caller) {
		writeErr(w, apperr.New(apperr.Forbidden, "not permitted to change role/status"))
		return
	}
	targetID := chi.URLParam(r, "userID")
	var req updateUserRoleStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	var role *model.Role
	if req.Role != nil {
		r := model.Role(*req.Role)
		role = &r
	}
	var status *model.Status
	if req.Status != nil {
		st := model.Status(*req.Status)
		status = &st
	}
	u, err := s.accounts.UpdateRoleStatus(r.Context(), targetID, role, status)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	caller := principalFrom(r)
	targetID := chi.URLParam(r, "userID")
	if !s.policy.CanDeleteUser(caller, targetID) {
		writeErr(w, apperr.New(apperr.Forbidden, "not permitted to delete this user"))
		return
	}
	if err := s.accounts.DeleteUser(r.Context(), targetID); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
