package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/model"
)

type conversationResponse struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	OwnerID            string   `json:"owner_id"`
	GroupID            *string  `json:"group_id,omitempty"`
	SharedWithGroupIDs []string `json:"shared_with_group_ids"`
	IsShared           bool     `json:"is_shared"`
	MessageCount       int      `json:"message_count"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          string   `json:"updated_at"`
}

func toConversationResponse(c model.Conversation) conversationResponse {
	return conversationResponse{
		ID:                 c.ID,
		Title:              c.Title,
		OwnerID:            c.OwnerID,
		GroupID:            c.GroupID,
		SharedWithGroupIDs: c.SharedWithGroupIDs,
		IsShared:           c.IsShared(),
		MessageCount:       c.MessageCount,
		CreatedAt:          c.CreatedAt.Format(httpTimeFormat),
		UpdatedAt:          c.UpdatedAt.Format(httpTimeFormat),
	}
}

type messageResponse struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

func toMessageResponse(m model.Message) messageResponse {
	return messageResponse{
		ID:        m.ID,
		Role:      string(m.Role),
		Content:   m.Content,
		CreatedAt: m.CreatedAt.Format(httpTimeFormat),
	}
}

type createConversationRequest struct {
	Title   string  `json:"title"`
	GroupID *string `json:"group_id,omitempty"`
}

func (s *Server) createConversation(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	c, err := s.conversations.Create(r.Context(), s.convGroups, principalFrom(r).ID, req.Title, req.GroupID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toConversationResponse(c))
}

func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) {
	caller := principalFrom(r)
	owned, err := s.conversations.ListByOwner(r.Context(), caller.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	shared, err := s.conversations.ListSharedWithGroups(r.Context(), caller.GroupIDs)
	if err != nil {
		writeErr(w, err)
		return
	}
	seen := make(map[string]struct{}, len(owned))
	out := make([]conversationResponse, 0, len(owned)+len(shared))
	for _, c := range owned {
		seen[c.ID] = struct{}{}
		out = append(out, toConversationResponse(c))
	}
	for _, c := range shared {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		out = append(out, toConversationResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getConversation(w http.ResponseWriter, r *http.Request) {
	c, err := s.conversations.Get(r.Context(), chi.URLParam(r, "conversationID"))
	if err != nil {
		writeErr(w, err)
		return
	}
	if !s.policy.CanReadConversation(principalFrom(r), c) {
		writeErr(w, apperr.New(apperr.Forbidden, "not permitted to read this conversation"))
		return
	}
	writeJSON(w, http.StatusOK, toConversationResponse(c))
}

type updateConversationRequest struct {
	Title       string  `json:"title"`
	GroupID     *string `json:"group_id,omitempty"`
	ClearGroup  bool    `json:"clear_group,omitempty"`
}

func (s *Server) updateConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")
	c, err := s.conversations.Get(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if !s.policy.CanModifyConversation(principalFrom(r), c) {
		writeErr(w, apperr.New(apperr.Forbidden, "only the owner may update this conversation"))
		return
	}
	var req updateConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	updated, err := s.conversations.UpdateTitleAndGroup(r.Context(), s.convGroups, id, req.Title, req.GroupID, req.ClearGroup)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toConversationResponse(updated))
}

func (s *Server) deleteConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")
	c, err := s.conversations.Get(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if !s.policy.CanModifyConversation(principalFrom(r), c) {
		writeErr(w, apperr.New(apperr.Forbidden, "only the owner may delete this conversation"))
		return
	}
	if err := s.messages.DeleteByConversation(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	if err := s.conversations.Delete(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type shareConversationRequest struct {
	GroupIDs []string `json:"group_ids"`
}

func (s *Server) shareConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")
	c, err := s.conversations.Get(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if !s.policy.CanModifyConversation(principalFrom(r), c) {
		writeErr(w, apperr.New(apperr.Forbidden, "only the owner may share this conversation"))
		return
	}
	var req shareConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	updated, err := s.conversations.SetSharedGroups(r.Context(), id, req.GroupIDs)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toConversationResponse(updated))
}

func (s *Server) unshareConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")
	c, err := s.conversations.Get(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if !s.policy.CanModifyConversation(principalFrom(r), c) {
		writeErr(w, apperr.New(apperr.Forbidden, "only the owner may unshare this conversation"))
		return
	}
	updated, err := s.conversations.SetSharedGroups(r.Context(), id, nil)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toConversationResponse(updated))
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")
	c, err := s.conversations.Get(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if !s.policy.CanReadMessages(principalFrom(r), c) {
		writeErr(w, apperr.New(apperr.Forbidden, "not permitted to read this conversation's messages"))
		return
	}
	msgs, err := s.messages.ListByConversation(r.Context(), id, 0, 0)
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	writeJSON(w, http.StatusOK, out)
}

type conversationGroupResponse struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	OwnerID         string   `json:"owner_id"`
	ConversationIDs []string `json:"conversation_ids"`
}

func toConversationGroupResponse(g model.ConversationGroup) conversationGroupResponse {
	return conversationGroupResponse{ID: g.ID, Name: g.Name, OwnerID: g.OwnerID, ConversationIDs: g.ConversationIDs}
}

type createConversationGroupRequest struct {
	Name string `json:"name"`
}

func (s *Server) createConversationGroup(w http.ResponseWriter, r *http.Request) {
	var req createConversationGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	g, err := s.convGroups.Create(r.Context(), principalFrom(r).ID, req.Name)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toConversationGroupResponse(g))
}

func (s *Server) listConversationGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.convGroups.ListByOwner(r.Context(), principalFrom(r).ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]conversationGroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, toConversationGroupResponse(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) deleteConversationGroup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "groupID")

	members, err := s.conversations.ListByGroupID(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	for _, c := range members {
		if _, err := s.conversations.UpdateTitleAndGroup(r.Context(), s.convGroups, c.ID, "", nil, true); err != nil {
			writeErr(w, err)
			return
		}
	}

	if err := s.convGroups.Delete(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
