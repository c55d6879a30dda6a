// Package settings manages per-user preferences: prompt customization,
// theme, and language. Grounded on original_source's
// api/routes/user_settings.py and the SettingsService it delegates to
// — get-or-default plus a partial merge on update.
package settings

import (
	"context"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/docstore"
	"github.com/sorriso/simplehybridchat/internal/model"
)

const settingsCollection = "user_settings"

// Repository is the docstore-backed UserSettings store.
type Repository struct {
	store docstore.Store
}

// New returns a Repository over store.
func New(store docstore.Store) *Repository {
	return &Repository{store: store}
}

// EnsureIndexes creates the one index settings lookups rely on. Safe
// to call on every startup.
func EnsureIndexes(ctx context.Context, store docstore.Store) error {
	return store.CreateIndex(ctx, settingsCollection, docstore.IndexSpec{
		Name:   "user_settings_user_id_unique",
		Fields: []docstore.SortField{{Field: "user_id"}},
		Unique: true,
	})
}

func settingsToDocument(s model.UserSettings) docstore.Document {
	return docstore.Document{
		"user_id":              s.UserID,
		"prompt_customization": s.PromptCustomization,
		"theme":                s.Theme,
		"language":             s.Language,
	}
}

func documentToSettings(doc docstore.Document) model.UserSettings {
	return model.UserSettings{
		UserID:              stringField(doc, "user_id"),
		PromptCustomization: stringField(doc, "prompt_customization"),
		Theme:               model.Theme(stringField(doc, "theme")),
		Language:            model.Language(stringField(doc, "language")),
	}
}

func stringField(doc docstore.Document, key string) string {
	s, _ := doc[key].(string)
	return s
}

// Get returns userID's stored settings, or the defaults if none have
// ever been saved.
func (r *Repository) Get(ctx context.Context, userID string) (model.UserSettings, error) {
	doc, err := r.store.FindOne(ctx, settingsCollection, docstore.Filters{"user_id": userID})
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			return model.DefaultUserSettings(userID), nil
		}
		return model.UserSettings{}, err
	}
	return documentToSettings(doc), nil
}

// Patch is a partial update: only non-nil fields are applied over the
// current (or default) settings, matching original_source's
// exclude_unset partial-merge semantics.
type Patch struct {
	PromptCustomization *string
	Theme               *model.Theme
	Language            *model.Language
}

var validThemes = map[model.Theme]bool{
	model.ThemeLight: true,
	model.ThemeDark:  true,
}

var validLanguages = map[model.Language]bool{
	model.LanguageEN: true,
	model.LanguageFR: true,
	model.LanguageES: true,
	model.LanguageDE: true,
}

// Update applies patch over userID's current settings (defaults if
// none exist yet) and persists the merged result.
func (r *Repository) Update(ctx context.Context, userID string, patch Patch) (model.UserSettings, error) {
	if patch.Theme != nil && !validThemes[*patch.Theme] {
		return model.UserSettings{}, apperr.New(apperr.BadRequest, "invalid theme: "+string(*patch.Theme))
	}
	if patch.Language != nil && !validLanguages[*patch.Language] {
		return model.UserSettings{}, apperr.New(apperr.BadRequest, "invalid language: "+string(*patch.Language))
	}

	current, err := r.Get(ctx, userID)
	if err != nil {
		return model.UserSettings{}, err
	}
	if patch.PromptCustomization != nil {
		current.PromptCustomization = *patch.PromptCustomization
	}
	if patch.Theme != nil {
		current.Theme = *patch.Theme
	}
	if patch.Language != nil {
		current.Language = *patch.Language
	}

	existing, err := r.store.FindOne(ctx, settingsCollection, docstore.Filters{"user_id": userID})
	if err != nil && !apperr.Is(err, apperr.NotFound) {
		return model.UserSettings{}, err
	}
	if err == nil {
		id, _ := existing["id"].(string)
		doc, err := r.store.Update(ctx, settingsCollection, id, settingsToDocument(current))
		if err != nil {
			return model.UserSettings{}, err
		}
		return documentToSettings(doc), nil
	}

	doc, err := r.store.Create(ctx, settingsCollection, settingsToDocument(current))
	if err != nil {
		return model.UserSettings{}, err
	}
	return documentToSettings(doc), nil
}
