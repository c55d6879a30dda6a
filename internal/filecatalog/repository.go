// Package filecatalog manages File catalog entries and their
// derived-work queue, grounded on original_source's
// services/file_service.py and repositories/file_repository.py. File
// bytes live in internal/objectstore; this package owns the metadata
// document and the upload/list/search/delete orchestration around it.
package filecatalog

import (
	"context"
	"time"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/docstore"
	"github.com/sorriso/simplehybridchat/internal/model"
)

const (
	filesCollection           = "files"
	processingQueueCollection = "processing_queue"
)

// FileRepo is the docstore-backed File catalog.
type FileRepo struct {
	store docstore.Store
}

// NewFileRepo returns a FileRepo over store.
func NewFileRepo(store docstore.Store) *FileRepo {
	return &FileRepo{store: store}
}

// EnsureIndexes creates every index FC's queries rely on, per
// SPEC_FULL.md §4.5. Safe to call on every startup.
func EnsureIndexes(ctx context.Context, store docstore.Store) error {
	if err := store.CreateIndex(ctx, filesCollection, docstore.IndexSpec{
		Name:   "files_uploaded_by",
		Fields: []docstore.SortField{{Field: "uploaded_by"}},
	}); err != nil {
		return err
	}
	if err := store.CreateIndex(ctx, filesCollection, docstore.IndexSpec{
		Name:   "files_scope",
		Fields: []docstore.SortField{{Field: "scope"}},
	}); err != nil {
		return err
	}
	if err := store.CreateIndex(ctx, filesCollection, docstore.IndexSpec{
		Name:   "files_scope_project_id",
		Fields: []docstore.SortField{{Field: "scope"}, {Field: "project_id"}},
	}); err != nil {
		return err
	}
	if err := store.CreateIndex(ctx, filesCollection, docstore.IndexSpec{
		Name:   "files_object_path_unique",
		Fields: []docstore.SortField{{Field: "object_path"}},
		Unique: true,
	}); err != nil {
		return err
	}
	if err := store.CreateIndex(ctx, filesCollection, docstore.IndexSpec{
		Name:   "files_checksums_md5",
		Fields: []docstore.SortField{{Field: "checksums.md5"}},
	}); err != nil {
		return err
	}
	if err := store.CreateIndex(ctx, filesCollection, docstore.IndexSpec{
		Name:   "files_checksums_sha256",
		Fields: []docstore.SortField{{Field: "checksums.sha256"}},
	}); err != nil {
		return err
	}
	return store.CreateIndex(ctx, processingQueueCollection, docstore.IndexSpec{
		Name:   "processing_queue_file_id",
		Fields: []docstore.SortField{{Field: "file_id"}},
	})
}

func checksumsToDocument(c model.Checksums) docstore.Document {
	return docstore.Document{
		"md5":     c.MD5,
		"sha256":  c.SHA256,
		"simhash": c.SimHash,
	}
}

func documentToChecksums(raw any) model.Checksums {
	doc, ok := asDocument(raw)
	if !ok {
		return model.Checksums{}
	}
	return model.Checksums{
		MD5:     stringField(doc, "md5"),
		SHA256:  stringField(doc, "sha256"),
		SimHash: uint64Field(doc, "simhash"),
	}
}

func processingStatusToDocument(s model.ProcessingStatus) docstore.Document {
	return docstore.Document{
		"phase":              s.Phase,
		"active_version":     s.ActiveVersion,
		"available_versions": s.AvailableVersions,
	}
}

func documentToProcessingStatus(raw any) model.ProcessingStatus {
	doc, ok := asDocument(raw)
	if !ok {
		return model.ProcessingStatus{Phase: model.ProcessingPhaseQueued}
	}
	return model.ProcessingStatus{
		Phase:             model.ProcessingPhase(stringField(doc, "phase")),
		ActiveVersion:     stringField(doc, "active_version"),
		AvailableVersions: stringSliceField(doc, "available_versions"),
	}
}

func fileToDocument(f model.File) docstore.Document {
	doc := docstore.Document{
		"name":              f.Name,
		"size":              f.Size,
		"type":              f.Type,
		"object_path":       f.ObjectPath,
		"scope":             f.Scope,
		"checksums":         checksumsToDocument(f.Checksums),
		"processing_status": processingStatusToDocument(f.ProcessingStatus),
		"uploaded_at":       f.UploadedAt,
		"promoted":          f.Promoted,
	}
	if f.ID != "" {
		doc["id"] = f.ID
	}
	if f.ProjectID != nil {
		doc["project_id"] = *f.ProjectID
	}
	if f.UploadedBy != nil {
		doc["uploaded_by"] = *f.UploadedBy
	}
	if f.PromotedAt != nil {
		doc["promoted_at"] = *f.PromotedAt
	}
	if f.PromotedBy != nil {
		doc["promoted_by"] = *f.PromotedBy
	}
	if f.PromotedFrom != nil {
		doc["promoted_from"] = *f.PromotedFrom
	}
	return doc
}

func documentToFile(doc docstore.Document) model.File {
	f := model.File{
		ID:               stringField(doc, "id"),
		Name:             stringField(doc, "name"),
		Size:             int64Field(doc, "size"),
		Type:             stringField(doc, "type"),
		ObjectPath:       stringField(doc, "object_path"),
		Scope:            model.FileScope(stringField(doc, "scope")),
		Checksums:        documentToChecksums(doc["checksums"]),
		ProcessingStatus: documentToProcessingStatus(doc["processing_status"]),
		UploadedAt:       timeField(doc, "uploaded_at"),
		Promoted:         boolField(doc, "promoted"),
	}
	if v, ok := doc["project_id"].(string); ok && v != "" {
		f.ProjectID = &v
	}
	if v, ok := doc["uploaded_by"].(string); ok && v != "" {
		f.UploadedBy = &v
	}
	if t := timeField(doc, "promoted_at"); !t.IsZero() {
		f.PromotedAt = &t
	}
	if v, ok := doc["promoted_by"].(string); ok && v != "" {
		f.PromotedBy = &v
	}
	if v, ok := doc["promoted_from"].(string); ok && v != "" {
		f.PromotedFrom = &v
	}
	return f
}

func toFiles(docs []docstore.Document) []model.File {
	out := make([]model.File, 0, len(docs))
	for _, doc := range docs {
		out = append(out, documentToFile(doc))
	}
	return out
}

// Create persists a new File catalog entry.
func (r *FileRepo) Create(ctx context.Context, f model.File) (model.File, error) {
	if f.UploadedAt.IsZero() {
		f.UploadedAt = time.Now().UTC()
	}
	doc, err := r.store.Create(ctx, filesCollection, fileToDocument(f))
	if err != nil {
		return model.File{}, err
	}
	return documentToFile(doc), nil
}

// Get returns a File by id.
func (r *FileRepo) Get(ctx context.Context, id string) (model.File, error) {
	doc, err := r.store.GetByID(ctx, filesCollection, id)
	if err != nil {
		return model.File{}, err
	}
	return documentToFile(doc), nil
}

// ListByUploader returns every File uploaded by uploaderID.
func (r *FileRepo) ListByUploader(ctx context.Context, uploaderID string) ([]model.File, error) {
	docs, err := r.store.Query(ctx, filesCollection, docstore.Filters{"uploaded_by": uploaderID}, 0, 0, nil)
	if err != nil {
		return nil, err
	}
	return toFiles(docs), nil
}

// ListByScope returns every File with the given scope, optionally
// narrowed to one project (only meaningful for user_project scope).
func (r *FileRepo) ListByScope(ctx context.Context, scope model.FileScope, projectID string) ([]model.File, error) {
	filters := docstore.Filters{"scope": scope}
	if projectID != "" {
		filters["project_id"] = projectID
	}
	docs, err := r.store.Query(ctx, filesCollection, filters, 0, 0, nil)
	if err != nil {
		return nil, err
	}
	return toFiles(docs), nil
}

// SearchByName returns every File whose name contains term, case
// insensitively, via the docstore.Regex escape hatch.
func (r *FileRepo) SearchByName(ctx context.Context, term string) ([]model.File, error) {
	docs, err := r.store.Query(ctx, filesCollection,
		docstore.Filters{"name": docstore.Regex{Pattern: term, CaseInsensitive: true}}, 0, 0, nil)
	if err != nil {
		return nil, err
	}
	return toFiles(docs), nil
}

// FindBySHA256 returns every File sharing the given SHA256 checksum,
// used for upload-time duplicate detection (a non-blocking check: the
// caller only logs/flags duplicates, it never rejects the upload).
func (r *FileRepo) FindBySHA256(ctx context.Context, sha256 string) ([]model.File, error) {
	docs, err := r.store.Query(ctx, filesCollection, docstore.Filters{"checksums.sha256": sha256}, 0, 0, nil)
	if err != nil {
		return nil, err
	}
	return toFiles(docs), nil
}

// UpdateProcessingStatus overwrites a File's processing status.
func (r *FileRepo) UpdateProcessingStatus(ctx context.Context, id string, status model.ProcessingStatus) (model.File, error) {
	doc, err := r.store.Update(ctx, filesCollection, id, docstore.Document{
		"processing_status": processingStatusToDocument(status),
	})
	if err != nil {
		return model.File{}, err
	}
	return documentToFile(doc), nil
}

// Promote marks a File as promoted (e.g. project -> system), stamping
// who promoted it and from where.
func (r *FileRepo) Promote(ctx context.Context, id, promotedBy, promotedFrom string) (model.File, error) {
	now := time.Now().UTC()
	doc, err := r.store.Update(ctx, filesCollection, id, docstore.Document{
		"promoted":      true,
		"promoted_at":   now,
		"promoted_by":   promotedBy,
		"promoted_from": promotedFrom,
	})
	if err != nil {
		return model.File{}, err
	}
	return documentToFile(doc), nil
}

// Delete removes a File's catalog entry. It does not touch object
// store content or queue entries; see Service.Delete for the full
// cascade.
func (r *FileRepo) Delete(ctx context.Context, id string) error {
	ok, err := r.store.Delete(ctx, filesCollection, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.New(apperr.NotFound, "file not found")
	}
	return nil
}
