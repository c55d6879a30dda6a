package settings_test

import (
	"context"
	"testing"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/docstore/memstore"
	"github.com/sorriso/simplehybridchat/internal/model"
	"github.com/sorriso/simplehybridchat/internal/settings"
)

func newRepo(t *testing.T) *settings.Repository {
	t.Helper()
	store := memstore.New()
	if err := settings.EnsureIndexes(context.Background(), store); err != nil {
		t.Fatalf("EnsureIndexes() error = %v", err)
	}
	return settings.New(store)
}

func TestGetReturnsDefaultsWhenUnset(t *testing.T) {
	repo := newRepo(t)
	got, err := repo.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	want := model.DefaultUserSettings("user-1")
	if got != want {
		t.Errorf("Get() = %+v, want defaults %+v", got, want)
	}
}

func TestUpdateIsPartialMerge(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	dark := model.ThemeDark
	fr := model.LanguageFR
	brief := "Be brief."
	if _, err := repo.Update(ctx, "user-1", settings.Patch{Theme: &dark, Language: &fr, PromptCustomization: &brief}); err != nil {
		t.Fatalf("first Update() error = %v", err)
	}

	en := model.LanguageEN
	updated, err := repo.Update(ctx, "user-1", settings.Patch{Language: &en})
	if err != nil {
		t.Fatalf("second Update() error = %v", err)
	}
	if updated.Theme != model.ThemeDark {
		t.Errorf("Theme = %q, want unchanged %q", updated.Theme, model.ThemeDark)
	}
	if updated.Language != model.LanguageEN {
		t.Errorf("Language = %q, want %q", updated.Language, model.LanguageEN)
	}
	if updated.PromptCustomization != "Be brief." {
		t.Errorf("PromptCustomization = %q, want unchanged", updated.PromptCustomization)
	}
}

func TestUpdateRejectsInvalidTheme(t *testing.T) {
	repo := newRepo(t)
	bad := model.Theme("neon")
	if _, err := repo.Update(context.Background(), "user-1", settings.Patch{Theme: &bad}); !apperr.Is(err, apperr.BadRequest) {
		t.Fatalf("expected BadRequest, got %v", err)
	}
}

func TestUpdateRejectsInvalidLanguage(t *testing.T) {
	repo := newRepo(t)
	bad := model.Language("jp")
	if _, err := repo.Update(context.Background(), "user-1", settings.Patch{Language: &bad}); !apperr.Is(err, apperr.BadRequest) {
		t.Fatalf("expected BadRequest, got %v", err)
	}
}

func TestUpdateDifferentUsersAreIndependent(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	dark := model.ThemeDark
	if _, err := repo.Update(ctx, "user-1", settings.Patch{Theme: &dark}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	other, err := repo.Get(ctx, "user-2")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if other.Theme != model.ThemeLight {
		t.Errorf("user-2 Theme = %q, want default %q", other.Theme, model.ThemeLight)
	}
}
