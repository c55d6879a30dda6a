package server

import (
	"net/http"

	"github.com/sorriso/simplehybridchat/internal/model"
	"github.com/sorriso/simplehybridchat/internal/settings"
)

type settingsResponse struct {
	PromptCustomization string `json:"prompt_customization"`
	Theme               string `json:"theme"`
	Language            string `json:"language"`
}

func toSettingsResponse(s model.UserSettings) settingsResponse {
	return settingsResponse{
		PromptCustomization: s.PromptCustomization,
		Theme:               string(s.Theme),
		Language:            string(s.Language),
	}
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	out, err := s.settings.Get(r.Context(), principalFrom(r).ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsResponse(out))
}

type updateSettingsRequest struct {
	PromptCustomization *string `json:"prompt_customization"`
	Theme               *string `json:"theme"`
	Language            *string `json:"language"`
}

// updateSettings applies a caller's own settings patch. A user may
// only ever modify their own settings; there is no manager/root
// override in spec.md §4.7, unlike most other resources.
func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	patch := settings.Patch{PromptCustomization: req.PromptCustomization}
	if req.Theme != nil {
		t := model.Theme(*req.Theme)
		patch.Theme = &t
	}
	if req.Language != nil {
		l := model.Language(*req.Language)
		patch.Language = &l
	}
	out, err := s.settings.Update(r.Context(), principalFrom(r).ID, patch)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsResponse(out))
}
