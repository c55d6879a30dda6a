package server

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/filecatalog"
	"github.com/sorriso/simplehybridchat/internal/model"
)

// maxUploadMemory bounds the in-memory portion of a parsed multipart
// form; larger files spill to temp files under the hood of
// http.Request.ParseMultipartForm, matching net/http's own default.
const maxUploadMemory = 32 << 20

type fileResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	Type       string `json:"type"`
	Scope      string `json:"scope"`
	ProjectID  string `json:"project_id,omitempty"`
	UploadedBy string `json:"uploaded_by,omitempty"`
	UploadedAt string `json:"uploaded_at"`
	Phase      string `json:"processing_phase"`
	Promoted   bool   `json:"promoted"`
	URL        string `json:"url,omitempty"`
}

func toFileResponse(l filecatalog.Listed) fileResponse {
	f := l.File
	resp := fileResponse{
		ID:         f.ID,
		Name:       f.Name,
		Size:       f.Size,
		Type:       f.Type,
		Scope:      string(f.Scope),
		UploadedAt: f.UploadedAt.Format(httpTimeFormat),
		Phase:      string(f.ProcessingStatus.Phase),
		Promoted:   f.Promoted,
		URL:        l.URL,
	}
	if f.ProjectID != nil {
		resp.ProjectID = *f.ProjectID
	}
	if f.UploadedBy != nil {
		resp.UploadedBy = *f.UploadedBy
	}
	return resp
}

func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) {
	caller := principalFrom(r)

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeErr(w, apperr.Wrap(apperr.BadRequest, "parse multipart form", err))
		return
	}
	scope := model.FileScope(r.FormValue("scope"))
	projectID := r.FormValue("project_id")

	if !s.policy.CanUploadFile(caller, scope, projectID) {
		writeErr(w, apperr.New(apperr.Forbidden, "not permitted to upload a file with this scope"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeErr(w, apperr.Wrap(apperr.BadRequest, "read uploaded file", err))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeErr(w, apperr.Wrap(apperr.BadRequest, "read uploaded file content", err))
		return
	}

	result, err := s.files.Upload(r.Context(), filecatalog.UploadInput{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
		UploaderID:  caller.ID,
		Scope:       scope,
		ProjectID:   projectID,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	resp := toFileResponse(filecatalog.Listed{File: result.File, URL: result.URL})
	writeJSON(w, http.StatusCreated, map[string]any{
		"file":               resp,
		"duplicate_detected": result.DuplicateDetected,
	})
}

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	caller := principalFrom(r)
	scope := model.FileScope(r.URL.Query().Get("scope"))
	projectID := r.URL.Query().Get("project_id")
	search := r.URL.Query().Get("search")

	listed, err := s.files.List(r.Context(), scope, projectID, search, caller.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]fileResponse, 0, len(listed))
	for _, l := range listed {
		if !s.policy.CanReadFile(caller, l.File) {
			continue
		}
		out = append(out, toFileResponse(l))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getFileInfo(w http.ResponseWriter, r *http.Request) {
	caller := principalFrom(r)
	l, err := s.files.GetInfo(r.Context(), chi.URLParam(r, "fileID"))
	if err != nil {
		writeErr(w, err)
		return
	}
	if !s.policy.CanReadFile(caller, l.File) {
		writeErr(w, apperr.New(apperr.Forbidden, "not permitted to read this file"))
		return
	}
	writeJSON(w, http.StatusOK, toFileResponse(l))
}

func (s *Server) downloadFile(w http.ResponseWriter, r *http.Request) {
	caller := principalFrom(r)
	id := chi.URLParam(r, "fileID")
	l, err := s.files.GetInfo(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if !s.policy.CanReadFile(caller, l.File) {
		writeErr(w, apperr.New(apperr.Forbidden, "not permitted to read this file"))
		return
	}
	content, name, contentType, err := s.files.Download(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+"\"")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func (s *Server) deleteFile(w http.ResponseWriter, r *http.Request) {
	caller := principalFrom(r)
	id := chi.URLParam(r, "fileID")
	l, err := s.files.GetInfo(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if !s.policy.CanDeleteFile(caller, l.File) {
		writeErr(w, apperr.New(apperr.Forbidden, "not permitted to delete this file"))
		return
	}
	if err := s.files.Delete(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) promoteFile(w http.ResponseWriter, r *http.Request) {
	caller := principalFrom(r)
	if !s.policy.CanPromoteFile(caller) {
		writeErr(w, apperr.New(apperr.Forbidden, "not permitted to promote files"))
		return
	}
	id := chi.URLParam(r, "fileID")
	current, err := s.files.GetInfo(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	promoted, err := s.fileRepo.Promote(r.Context(), id, caller.ID, string(current.File.Scope))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileResponse(filecatalog.Listed{File: promoted, URL: current.URL}))
}
