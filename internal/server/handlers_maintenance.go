package server

import (
	"net/http"

	"github.com/sorriso/simplehybridchat/internal/apperr"
)

type maintenanceResponse struct {
	Enabled bool   `json:"enabled"`
	Message string `json:"message,omitempty"`
}

func (s *Server) getMaintenance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, maintenanceResponse{Enabled: s.maintenance.Enabled(), Message: s.maintenance.Message()})
}

type toggleMaintenanceRequest struct {
	Enabled bool   `json:"enabled"`
	Message string `json:"message"`
}

func (s *Server) toggleMaintenance(w http.ResponseWriter, r *http.Request) {
	if !s.policy.CanToggleMaintenance(principalFrom(r)) {
		writeErr(w, apperr.New(apperr.Forbidden, "only root may toggle maintenance mode"))
		return
	}
	var req toggleMaintenanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	s.maintenance.Set(req.Enabled, req.Message)
	writeJSON(w, http.StatusOK, maintenanceResponse{Enabled: s.maintenance.Enabled(), Message: s.maintenance.Message()})
}
