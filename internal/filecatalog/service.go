package filecatalog

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/model"
	"github.com/sorriso/simplehybridchat/internal/objectstore"
)

// presignTTL is the default lifetime of a generated download URL,
// matching original_source's 7-day expiry.
const presignTTL = 7 * 24 * time.Hour

// Service orchestrates uploads, listing, download, and deletion across
// the File catalog, the processing queue, and the object store.
type Service struct {
	files  *FileRepo
	queue  *QueueRepo
	object objectstore.Store
	bucket string
}

// NewService returns a Service backed by files, queue, and an object
// store bucket (created if it doesn't already exist by the caller's
// bootstrap sequence).
func NewService(files *FileRepo, queue *QueueRepo, object objectstore.Store, bucket string) *Service {
	return &Service{files: files, queue: queue, object: object, bucket: bucket}
}

// UploadInput describes a single upload request.
type UploadInput struct {
	Name        string
	ContentType string
	Content     []byte
	UploaderID  string
	Scope       model.FileScope
	ProjectID   string
}

// UploadResult is the outcome of a successful upload: the catalog
// entry, a presigned read URL, and whether a same-content file was
// already on record (upload proceeds regardless; duplicates are
// flagged, not rejected).
type UploadResult struct {
	File             model.File
	URL              string
	DuplicateDetected bool
}

type metadataDocument struct {
	FileID      string          `json:"file_id"`
	OriginalName string         `json:"original_name"`
	Size        int64           `json:"size"`
	ContentType string          `json:"content_type"`
	UploadedAt  time.Time       `json:"uploaded_at"`
	UploadedBy  string          `json:"uploaded_by"`
	Scope       model.FileScope `json:"scope"`
	ProjectID   string          `json:"project_id,omitempty"`
	Checksums   model.Checksums `json:"checksums"`
}

// Upload validates, stores, and catalogs a new file. Callers must
// already have checked authz.Policy.CanUploadFile before calling this.
func (s *Service) Upload(ctx context.Context, in UploadInput) (UploadResult, error) {
	if err := validateUpload(in.Name, int64(len(in.Content)), in.ContentType); err != nil {
		return UploadResult{}, err
	}

	// FC mints the file id itself, unlike account/conversation's
	// create-then-let-the-store-assign-it pattern: the object store
	// path is built from the id before any bytes are written, so the
	// id must exist before the catalog Create call.
	fileID := uuid.NewString()
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	basePath, err := buildObjectPath(in.Scope, in.UploaderID, fileID, in.ProjectID)
	if err != nil {
		return UploadResult{}, err
	}

	sums := checksums(in.Content)
	dupes, err := s.files.FindBySHA256(ctx, sums.SHA256)
	if err != nil {
		return UploadResult{}, err
	}

	inputPath := inputObjectPath(basePath, in.Name)
	if _, err := s.object.Upload(ctx, s.bucket, inputPath, bytes.NewReader(in.Content), contentType,
		map[string]string{"original_name": in.Name}); err != nil {
		return UploadResult{}, apperr.Wrap(apperr.Internal, "upload file content", err)
	}

	meta := metadataDocument{
		FileID:       fileID,
		OriginalName: in.Name,
		Size:         int64(len(in.Content)),
		ContentType:  contentType,
		UploadedAt:   time.Now().UTC(),
		UploadedBy:   in.UploaderID,
		Scope:        in.Scope,
		ProjectID:    in.ProjectID,
		Checksums:    sums,
	}
	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return UploadResult{}, apperr.Wrap(apperr.Internal, "marshal metadata.json", err)
	}
	if _, err := s.object.Upload(ctx, s.bucket, metadataObjectPath(basePath), bytes.NewReader(metaBytes),
		"application/json", nil); err != nil {
		return UploadResult{}, apperr.Wrap(apperr.Internal, "upload metadata.json", err)
	}

	f := model.File{
		ID:         fileID,
		Name:       in.Name,
		Size:       int64(len(in.Content)),
		Type:       contentType,
		ObjectPath: basePath,
		Scope:      in.Scope,
		Checksums:  sums,
		ProcessingStatus: model.ProcessingStatus{
			Phase:             model.ProcessingPhaseQueued,
			AvailableVersions: []string{},
		},
		UploadedAt: meta.UploadedAt,
	}
	if in.UploaderID != "" {
		f.UploadedBy = &in.UploaderID
	}
	if in.Scope == model.FileScopeUserProject {
		f.ProjectID = &in.ProjectID
	}

	created, err := s.files.Create(ctx, f)
	if err != nil {
		return UploadResult{}, err
	}

	if _, err := s.queue.Enqueue(ctx, created.ID, model.ProcessingPhaseQueued); err != nil {
		return UploadResult{}, err
	}

	url, err := s.object.PresignedReadURL(ctx, s.bucket, inputPath, presignTTL)
	if err != nil {
		url = ""
	}

	return UploadResult{File: created, URL: url, DuplicateDetected: len(dupes) > 0}, nil
}

// listed is a File alongside the presigned URL to surface alongside
// it, the shape list/search/get-info all return.
type Listed struct {
	File model.File
	URL  string
}

func (s *Service) presign(ctx context.Context, f model.File) string {
	path := inputObjectPath(f.ObjectPath, f.Name)
	url, err := s.object.PresignedReadURL(ctx, s.bucket, path, presignTTL)
	if err != nil {
		return ""
	}
	return url
}

// List returns every File the caller can read (by uploader, scope,
// project, or free-text name search), deduplicated by id and sorted
// alphabetically by name, each with a presigned read URL attached.
// Access filtering beyond scope/ownership is the caller's
// responsibility via authz.Policy.CanReadFile; List only applies the
// scope/project/search narrowing original_source's list_files does.
func (s *Service) List(ctx context.Context, scope model.FileScope, projectID, search string, uploaderID string) ([]Listed, error) {
	var candidates []model.File

	switch {
	case scope != "" && projectID != "":
		files, err := s.files.ListByScope(ctx, scope, projectID)
		if err != nil {
			return nil, err
		}
		candidates = files
	case scope != "":
		files, err := s.files.ListByScope(ctx, scope, "")
		if err != nil {
			return nil, err
		}
		candidates = files
	case projectID != "":
		files, err := s.files.ListByScope(ctx, model.FileScopeUserProject, projectID)
		if err != nil {
			return nil, err
		}
		candidates = files
	default:
		files, err := s.files.ListByUploader(ctx, uploaderID)
		if err != nil {
			return nil, err
		}
		candidates = files
	}

	if scope == "" || scope == model.FileScopeSystem {
		systemFiles, err := s.files.ListByScope(ctx, model.FileScopeSystem, "")
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, systemFiles...)
	}

	if search != "" {
		lower := strings.ToLower(search)
		filtered := candidates[:0]
		for _, f := range candidates {
			if strings.Contains(strings.ToLower(f.Name), lower) {
				filtered = append(filtered, f)
			}
		}
		candidates = filtered
	}

	seen := make(map[string]bool, len(candidates))
	unique := make([]model.File, 0, len(candidates))
	for _, f := range candidates {
		if seen[f.ID] {
			continue
		}
		seen[f.ID] = true
		unique = append(unique, f)
	}
	sort.Slice(unique, func(i, j int) bool {
		return strings.ToLower(unique[i].Name) < strings.ToLower(unique[j].Name)
	})

	out := make([]Listed, 0, len(unique))
	for _, f := range unique {
		out = append(out, Listed{File: f, URL: s.presign(ctx, f)})
	}
	return out, nil
}

// GetInfo returns a single File with its presigned URL attached.
func (s *Service) GetInfo(ctx context.Context, id string) (Listed, error) {
	f, err := s.files.Get(ctx, id)
	if err != nil {
		return Listed{}, err
	}
	return Listed{File: f, URL: s.presign(ctx, f)}, nil
}

// Download returns a File's raw content alongside its name and
// content type.
func (s *Service) Download(ctx context.Context, id string) ([]byte, string, string, error) {
	f, err := s.files.Get(ctx, id)
	if err != nil {
		return nil, "", "", err
	}
	rc, err := s.object.Download(ctx, s.bucket, inputObjectPath(f.ObjectPath, f.Name))
	if err != nil {
		return nil, "", "", apperr.Wrap(apperr.Internal, "download file content", err)
	}
	defer rc.Close()
	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, "", "", apperr.Wrap(apperr.Internal, "read file content", err)
	}
	return content, f.Name, f.Type, nil
}

// Delete removes a File and cascades: object store content,
// metadata.json, processing queue entries, and the catalog record
// itself. Best-effort on the object-store legs, matching
// original_source's delete_file (a missing object is logged, not
// fatal); the catalog and queue deletes are not best-effort.
func (s *Service) Delete(ctx context.Context, id string) error {
	f, err := s.files.Get(ctx, id)
	if err != nil {
		return err
	}

	_, _ = s.object.Delete(ctx, s.bucket, inputObjectPath(f.ObjectPath, f.Name))
	_, _ = s.object.Delete(ctx, s.bucket, metadataObjectPath(f.ObjectPath))

	if err := s.queue.DeleteByFile(ctx, id); err != nil {
		return err
	}
	return s.files.Delete(ctx, id)
}
