// Package model defines the data-model entities shared across every
// domain package. Every entity carries an opaque string id as its only
// externally visible identity field; internal store keys never appear
// here (see internal/docstore's id/key mapping contract).
package model

import "time"

// Role is a User's authorization role.
type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleRoot    Role = "root"
)

// Status is a lifecycle flag shared by User and UserGroup.
type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
)

// User is an account in the system.
type User struct {
	ID           string    `json:"id" bson:"id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	Role         Role      `json:"role" bson:"role"`
	Status       Status    `json:"status" bson:"status"`
	GroupIDs     []string  `json:"group_ids" bson:"group_ids"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// UserGroup is a collectively owned membership group used for
// conversation sharing and role delegation.
type UserGroup struct {
	ID         string    `json:"id" bson:"id"`
	Name       string    `json:"name" bson:"name"`
	Status     Status    `json:"status" bson:"status"`
	ManagerIDs []string  `json:"manager_ids" bson:"manager_ids"`
	MemberIDs  []string  `json:"member_ids" bson:"member_ids"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}

// Conversation is a chat thread owned by a single user.
type Conversation struct {
	ID                 string    `json:"id" bson:"id"`
	Title              string    `json:"title" bson:"title"`
	OwnerID            string    `json:"owner_id" bson:"owner_id"`
	GroupID            *string   `json:"group_id,omitempty" bson:"group_id,omitempty"`
	SharedWithGroupIDs []string  `json:"shared_with_group_ids" bson:"shared_with_group_ids"`
	MessageCount       int       `json:"message_count" bson:"message_count"`
	CreatedAt          time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" bson:"updated_at"`
}

// IsShared reports whether the conversation has been shared with any
// user-group. It is a derived attribute, never stored.
func (c Conversation) IsShared() bool { return len(c.SharedWithGroupIDs) > 0 }

// ConversationGroup is a sidebar folder grouping a user's own
// conversations. It is unrelated to UserGroup.
type ConversationGroup struct {
	ID              string    `json:"id" bson:"id"`
	Name            string    `json:"name" bson:"name"`
	OwnerID         string    `json:"owner_id" bson:"owner_id"`
	ConversationIDs []string  `json:"conversation_ids" bson:"conversation_ids"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
}

// MessageRole distinguishes a Message's speaker.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// FullContextRecord captures exactly what was sent to the LLM provider
// for a single turn, for provenance and audit. It is stored on the
// user message, not only the assistant message.
type FullContextRecord struct {
	System         string          `json:"system" bson:"system"`
	Context        []ContextEntry  `json:"context" bson:"context"`
	CurrentMessage string          `json:"current_message" bson:"current_message"`
}

// ContextEntry is one prior turn folded into an LLM prompt.
type ContextEntry struct {
	Role    MessageRole `json:"role" bson:"role"`
	Content string      `json:"content" bson:"content"`
}

// LLMStats mirrors internal/llm.Stats for persistence; kept as a
// distinct type so the store schema does not depend on the LLM
// package's internal representation.
type LLMStats struct {
	PromptTokens     int     `json:"prompt_tokens" bson:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens" bson:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens" bson:"total_tokens"`
	TotalDurationS   float64 `json:"total_duration_s" bson:"total_duration_s"`
	TokensPerSecond  float64 `json:"tokens_per_second" bson:"tokens_per_second"`
	Model            string  `json:"model" bson:"model"`
}

// Message is an immutable turn within a Conversation.
type Message struct {
	ID             string             `json:"id" bson:"id"`
	ConversationID string             `json:"conversation_id" bson:"conversation_id"`
	Role           MessageRole        `json:"role" bson:"role"`
	Content        string             `json:"content" bson:"content"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	LLMFullPrompt  *FullContextRecord `json:"llm_full_prompt,omitempty" bson:"llm_full_prompt,omitempty"`
	LLMRawResponse string             `json:"llm_raw_response,omitempty" bson:"llm_raw_response,omitempty"`
	LLMStats       *LLMStats          `json:"llm_stats,omitempty" bson:"llm_stats,omitempty"`
}

// FileScope controls who may read a File.
type FileScope string

const (
	FileScopeSystem      FileScope = "system"
	FileScopeUserGlobal  FileScope = "user_global"
	FileScopeUserProject FileScope = "user_project"
)

// Checksums are computed once at upload time and used for duplicate
// detection and integrity verification.
type Checksums struct {
	MD5     string `json:"md5" bson:"md5"`
	SHA256  string `json:"sha256" bson:"sha256"`
	SimHash uint64 `json:"simhash" bson:"simhash"`
}

// ProcessingPhase is one step of a File's post-upload pipeline.
type ProcessingPhase string

const (
	ProcessingPhaseQueued    ProcessingPhase = "queued"
	ProcessingPhaseRunning   ProcessingPhase = "running"
	ProcessingPhaseComplete  ProcessingPhase = "complete"
	ProcessingPhaseFailed    ProcessingPhase = "failed"
)

// ProcessingStatus is the per-phase state machine tracking a File's
// derived versions (e.g. extracted text, chunked embeddings).
type ProcessingStatus struct {
	Phase             ProcessingPhase `json:"phase" bson:"phase"`
	ActiveVersion     string          `json:"active_version,omitempty" bson:"active_version,omitempty"`
	AvailableVersions []string        `json:"available_versions" bson:"available_versions"`
}

// File is a catalog entry for an uploaded or system-provided document;
// its bytes live in the object store under ObjectPath.
type File struct {
	ID               string           `json:"id" bson:"id"`
	Name             string           `json:"name" bson:"name"`
	Size             int64            `json:"size" bson:"size"`
	Type             string           `json:"type" bson:"type"`
	ObjectPath       string           `json:"object_path" bson:"object_path"`
	Scope            FileScope        `json:"scope" bson:"scope"`
	ProjectID        *string          `json:"project_id,omitempty" bson:"project_id,omitempty"`
	Checksums        Checksums        `json:"checksums" bson:"checksums"`
	ProcessingStatus ProcessingStatus `json:"processing_status" bson:"processing_status"`
	UploadedBy       *string          `json:"uploaded_by,omitempty" bson:"uploaded_by,omitempty"`
	UploadedAt       time.Time        `json:"uploaded_at" bson:"uploaded_at"`
	Promoted         bool             `json:"promoted" bson:"promoted"`
	PromotedAt       *time.Time       `json:"promoted_at,omitempty" bson:"promoted_at,omitempty"`
	PromotedBy       *string          `json:"promoted_by,omitempty" bson:"promoted_by,omitempty"`
	PromotedFrom     *string          `json:"promoted_from,omitempty" bson:"promoted_from,omitempty"`
}

// ProcessingQueueItem is a unit of deferred post-upload work for a
// File (e.g. text extraction, chunking). Supplemented from
// original_source's processing queue, which spec.md's File.processing_status
// state machine implies but does not itself model as a distinct entity.
type ProcessingQueueItem struct {
	ID          string          `json:"id" bson:"id"`
	FileID      string          `json:"file_id" bson:"file_id"`
	Phase       ProcessingPhase `json:"phase" bson:"phase"`
	EnqueuedAt  time.Time       `json:"enqueued_at" bson:"enqueued_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	Error       string          `json:"error,omitempty" bson:"error,omitempty"`
}

// Theme is a recognized UserSettings.Theme value.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Language is a recognized UserSettings.Language value.
type Language string

const (
	LanguageEN Language = "en"
	LanguageFR Language = "fr"
	LanguageES Language = "es"
	LanguageDE Language = "de"
)

// UserSettings holds one user's preferences; all fields are optional
// with defaults (see DefaultUserSettings).
type UserSettings struct {
	UserID               string   `json:"user_id" bson:"user_id"`
	PromptCustomization  string   `json:"prompt_customization" bson:"prompt_customization"`
	Theme                Theme    `json:"theme" bson:"theme"`
	Language             Language `json:"language" bson:"language"`
}

// DefaultUserSettings returns the zero-value defaults for a user with
// no stored settings document.
func DefaultUserSettings(userID string) UserSettings {
	return UserSettings{
		UserID:              userID,
		PromptCustomization: "",
		Theme:               ThemeLight,
		Language:            LanguageEN,
	}
}

// Principal is the resolved identity of an authenticated request.
// Group membership is looked up fresh on every authentication and is
// authoritative for the request it was resolved for.
type Principal struct {
	ID       string
	Role     Role
	GroupIDs []string
}
