package filecatalog_test

import (
	"context"
	"testing"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/docstore/memstore"
	"github.com/sorriso/simplehybridchat/internal/filecatalog"
	"github.com/sorriso/simplehybridchat/internal/model"
	objectmemstore "github.com/sorriso/simplehybridchat/internal/objectstore/memstore"
)

const testBucket = "chat-files"

func newService(t *testing.T) *filecatalog.Service {
	t.Helper()
	docs := memstore.New()
	if err := filecatalog.EnsureIndexes(context.Background(), docs); err != nil {
		t.Fatalf("EnsureIndexes() error = %v", err)
	}
	objects := objectmemstore.New()
	if err := objects.CreateBucket(context.Background(), testBucket); err != nil {
		t.Fatalf("CreateBucket() error = %v", err)
	}
	return filecatalog.NewService(
		filecatalog.NewFileRepo(docs),
		filecatalog.NewQueueRepo(docs),
		objects,
		testBucket,
	)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	svc := newService(t)
	_, err := svc.Upload(context.Background(), filecatalog.UploadInput{
		Name:        "big.txt",
		ContentType: "text/plain",
		Content:     make([]byte, filecatalog.MaxFileSize+1),
		UploaderID:  "user-1",
		Scope:       model.FileScopeUserGlobal,
	})
	if !apperr.Is(err, apperr.PayloadTooLarge) {
		t.Fatalf("expected PayloadTooLarge, got %v", err)
	}
}

func TestUploadRejectsDisallowedExtension(t *testing.T) {
	svc := newService(t)
	_, err := svc.Upload(context.Background(), filecatalog.UploadInput{
		Name:        "script.exe",
		ContentType: "application/octet-stream",
		Content:     []byte("x"),
		UploaderID:  "user-1",
		Scope:       model.FileScopeUserGlobal,
	})
	if !apperr.Is(err, apperr.BadRequest) {
		t.Fatalf("expected BadRequest, got %v", err)
	}
}

func TestUploadUserProjectRequiresProjectID(t *testing.T) {
	svc := newService(t)
	_, err := svc.Upload(context.Background(), filecatalog.UploadInput{
		Name:        "report.pdf",
		ContentType: "application/pdf",
		Content:     []byte("%PDF-1.4 fake"),
		UploaderID:  "user-1",
		Scope:       model.FileScopeUserProject,
	})
	if !apperr.Is(err, apperr.BadRequest) {
		t.Fatalf("expected BadRequest for missing project_id, got %v", err)
	}
}

func TestUploadListGetDownloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	result, err := svc.Upload(ctx, filecatalog.UploadInput{
		Name:        "notes.md",
		ContentType: "text/markdown",
		Content:     []byte("# hello"),
		UploaderID:  "user-1",
		Scope:       model.FileScopeUserProject,
		ProjectID:   "proj-1",
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if result.File.ID == "" {
		t.Fatal("expected a minted file id")
	}
	if result.File.ObjectPath != "user/user-1/project/proj-1/"+result.File.ID {
		t.Errorf("unexpected object path %q", result.File.ObjectPath)
	}
	if result.URL == "" {
		t.Error("expected a presigned URL")
	}
	if result.DuplicateDetected {
		t.Error("first upload should not be flagged a duplicate")
	}

	listed, err := svc.List(ctx, "", "", "", "user-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(listed) != 1 || listed[0].File.ID != result.File.ID {
		t.Fatalf("expected to list the uploaded file, got %+v", listed)
	}

	info, err := svc.GetInfo(ctx, result.File.ID)
	if err != nil {
		t.Fatalf("GetInfo() error = %v", err)
	}
	if info.File.Name != "notes.md" {
		t.Errorf("Name = %q, want notes.md", info.File.Name)
	}

	content, name, contentType, err := svc.Download(ctx, result.File.ID)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if string(content) != "# hello" {
		t.Errorf("content = %q, want %q", content, "# hello")
	}
	if name != "notes.md" || contentType != "text/markdown" {
		t.Errorf("unexpected name/contentType: %q %q", name, contentType)
	}
}

func TestUploadDetectsDuplicateBySHA256(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	if _, err := svc.Upload(ctx, filecatalog.UploadInput{
		Name: "a.txt", ContentType: "text/plain", Content: []byte("same bytes"),
		UploaderID: "user-1", Scope: model.FileScopeUserGlobal,
	}); err != nil {
		t.Fatalf("first Upload() error = %v", err)
	}

	second, err := svc.Upload(ctx, filecatalog.UploadInput{
		Name: "b.txt", ContentType: "text/plain", Content: []byte("same bytes"),
		UploaderID: "user-2", Scope: model.FileScopeUserGlobal,
	})
	if err != nil {
		t.Fatalf("second Upload() error = %v", err)
	}
	if !second.DuplicateDetected {
		t.Error("expected the second upload to be flagged a duplicate, upload is not blocked regardless")
	}
}

func TestListFiltersBySearchTerm(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	if _, err := svc.Upload(ctx, filecatalog.UploadInput{
		Name: "budget.csv", ContentType: "text/csv", Content: []byte("a,b"),
		UploaderID: "user-1", Scope: model.FileScopeUserGlobal,
	}); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if _, err := svc.Upload(ctx, filecatalog.UploadInput{
		Name: "minutes.txt", ContentType: "text/plain", Content: []byte("notes"),
		UploaderID: "user-1", Scope: model.FileScopeUserGlobal,
	}); err != nil {
		t.Fatalf("second Upload() error = %v", err)
	}

	listed, err := svc.List(ctx, "", "", "budget", "user-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(listed) != 1 || listed[0].File.Name != "budget.csv" {
		t.Fatalf("expected only budget.csv, got %+v", listed)
	}
}

func TestDeleteCascades(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	result, err := svc.Upload(ctx, filecatalog.UploadInput{
		Name: "temp.json", ContentType: "application/json", Content: []byte("{}"),
		UploaderID: "user-1", Scope: model.FileScopeUserGlobal,
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if err := svc.Delete(ctx, result.File.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.GetInfo(ctx, result.File.ID); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound after delete, got %v", err)
	}
	if _, _, _, err := svc.Download(ctx, result.File.ID); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound downloading a deleted file, got %v", err)
	}
}

func TestPromoteMarksFile(t *testing.T) {
	ctx := context.Background()
	docs := memstore.New()
	if err := filecatalog.EnsureIndexes(ctx, docs); err != nil {
		t.Fatalf("EnsureIndexes() error = %v", err)
	}
	repo := filecatalog.NewFileRepo(docs)

	f, err := repo.Create(ctx, model.File{
		Name: "draft.pdf", Type: "application/pdf", ObjectPath: "user/u1/project/p1/file-1",
		Scope: model.FileScopeUserProject,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	promoted, err := repo.Promote(ctx, f.ID, "root-user", "user/u1/project/p1/file-1")
	if err != nil {
		t.Fatalf("Promote() error = %v", err)
	}
	if !promoted.Promoted || promoted.PromotedBy == nil || *promoted.PromotedBy != "root-user" {
		t.Errorf("unexpected promotion state: %+v", promoted)
	}
}
