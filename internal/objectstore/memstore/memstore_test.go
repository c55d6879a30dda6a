package memstore

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/sorriso/simplehybridchat/internal/apperr"
)

func TestUploadDownloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.CreateBucket(ctx, "docs"); err != nil {
		t.Fatalf("CreateBucket() error = %v", err)
	}

	if _, err := s.Upload(ctx, "docs", "a/b.txt", bytes.NewReader([]byte("hello")), "text/plain", nil); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	rc, err := s.Download(ctx, "docs", "a/b.txt")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "hello" {
		t.Errorf("Download() = %q, want %q", got, "hello")
	}
}

func TestDeleteThenExists(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.CreateBucket(ctx, "docs")
	_, _ = s.Upload(ctx, "docs", "f.txt", bytes.NewReader([]byte("x")), "text/plain", nil)

	ok, err := s.Delete(ctx, "docs", "f.txt")
	if err != nil || !ok {
		t.Fatalf("Delete() = %v, %v; want true, nil", ok, err)
	}
	exists, _ := s.Exists(ctx, "docs", "f.txt")
	if exists {
		t.Error("expected object to not exist after delete")
	}
}

func TestUploadUnknownBucket(t *testing.T) {
	s := New()
	_, err := s.Upload(context.Background(), "missing", "f.txt", bytes.NewReader([]byte("x")), "text/plain", nil)
	if !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestListPrefix(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.CreateBucket(ctx, "docs")
	_, _ = s.Upload(ctx, "docs", "a/1.txt", bytes.NewReader([]byte("1")), "text/plain", nil)
	_, _ = s.Upload(ctx, "docs", "a/2.txt", bytes.NewReader([]byte("2")), "text/plain", nil)
	_, _ = s.Upload(ctx, "docs", "b/3.txt", bytes.NewReader([]byte("3")), "text/plain", nil)

	results, err := s.List(ctx, "docs", "a/", true)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 objects under a/, got %d", len(results))
	}
}

func TestCopy(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.CreateBucket(ctx, "src")
	_ = s.CreateBucket(ctx, "dst")
	_, _ = s.Upload(ctx, "src", "f.txt", bytes.NewReader([]byte("payload")), "text/plain", nil)

	if err := s.Copy(ctx, "src", "f.txt", "dst", "g.txt"); err != nil {
		t.Fatalf("Copy() error = %v", err)
	}
	rc, err := s.Download(ctx, "dst", "g.txt")
	if err != nil {
		t.Fatalf("Download() after Copy error = %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "payload" {
		t.Errorf("copied content = %q, want %q", got, "payload")
	}
}
