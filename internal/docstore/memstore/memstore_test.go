package memstore

import (
	"context"
	"testing"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/docstore"
)

func TestCreateAssignsIDAndRoundTrips(t *testing.T) {
	ctx := context.Background()
	s := New()

	created, err := s.Create(ctx, "users", docstore.Document{"name": "ada"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatal("expected Create to assign an id")
	}

	got, err := s.GetByID(ctx, "users", id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got["name"] != "ada" {
		t.Errorf("name = %v, want ada", got["name"])
	}
}

func TestGetByIDNotFound(t *testing.T) {
	s := New()
	_, err := s.GetByID(context.Background(), "users", "missing")
	if !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestUniqueIndexViolation(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.CreateIndex(ctx, "users", docstore.IndexSpec{
		Name:   "email_unique",
		Fields: []docstore.SortField{{Field: "email"}},
		Unique: true,
	}); err != nil {
		t.Fatalf("CreateIndex() error = %v", err)
	}

	if _, err := s.Create(ctx, "users", docstore.Document{"email": "a@example.com"}); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}
	_, err := s.Create(ctx, "users", docstore.Document{"email": "a@example.com"})
	if !apperr.Is(err, apperr.Conflict) {
		t.Fatalf("expected Conflict on duplicate email, got %v", err)
	}
}

func TestUpdatePartialMerge(t *testing.T) {
	ctx := context.Background()
	s := New()
	created, _ := s.Create(ctx, "users", docstore.Document{"name": "ada", "role": "user"})
	id := created["id"].(string)

	updated, err := s.Update(ctx, "users", id, docstore.Document{"role": "manager"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated["name"] != "ada" {
		t.Errorf("expected name preserved, got %v", updated["name"])
	}
	if updated["role"] != "manager" {
		t.Errorf("expected role updated, got %v", updated["role"])
	}
}

func TestUpdateNotFound(t *testing.T) {
	s := New()
	_, err := s.Update(context.Background(), "users", "missing", docstore.Document{"role": "manager"})
	if !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()
	created, _ := s.Create(ctx, "users", docstore.Document{"name": "ada"})
	id := created["id"].(string)

	ok, err := s.Delete(ctx, "users", id)
	if err != nil || !ok {
		t.Fatalf("first Delete() = %v, %v; want true, nil", ok, err)
	}
	ok, err = s.Delete(ctx, "users", id)
	if err != nil || ok {
		t.Fatalf("second Delete() = %v, %v; want false, nil", ok, err)
	}

	if exists, _ := s.Exists(ctx, "users", id); exists {
		t.Error("expected document to no longer exist")
	}
}

func TestQueryFiltersSkipLimitSort(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, _ = s.Create(ctx, "users", docstore.Document{"name": "carol", "role": "user"})
	_, _ = s.Create(ctx, "users", docstore.Document{"name": "alice", "role": "user"})
	_, _ = s.Create(ctx, "users", docstore.Document{"name": "bob", "role": "manager"})

	results, err := s.Query(ctx, "users", docstore.Filters{"role": "user"}, 0, 10,
		[]docstore.SortField{{Field: "name", Direction: docstore.Ascending}})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0]["name"] != "alice" || results[1]["name"] != "carol" {
		t.Errorf("unexpected sort order: %v, %v", results[0]["name"], results[1]["name"])
	}
}

func TestFindOneNotFound(t *testing.T) {
	s := New()
	_, err := s.FindOne(context.Background(), "users", docstore.Filters{"email": "nope@example.com"})
	if !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestRegexFilter(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, _ = s.Create(ctx, "files", docstore.Document{"name": "Report.PDF"})
	_, _ = s.Create(ctx, "files", docstore.Document{"name": "invoice.csv"})

	results, err := s.Query(ctx, "files", docstore.Filters{
		"name": docstore.Regex{Pattern: "report", CaseInsensitive: true},
	}, 0, 0, nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(results) != 1 || results[0]["name"] != "Report.PDF" {
		t.Fatalf("expected to match Report.PDF, got %v", results)
	}
}
