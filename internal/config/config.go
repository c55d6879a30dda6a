// Package config loads the process configuration from environment
// variables. There is no file-based configuration layer: every
// deployment knob named in the external interface is an env var.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sorriso/simplehybridchat/internal/apperr"
)

// AuthMode selects how principals are resolved.
type AuthMode string

const (
	AuthNone  AuthMode = "none"
	AuthLocal AuthMode = "local"
	AuthSSO   AuthMode = "sso"
)

// LLMProvider selects which internal/llm adapter backs chat streaming.
type LLMProvider string

const (
	ProviderOpenAI     LLMProvider = "openai"
	ProviderClaude     LLMProvider = "claude"
	ProviderGemini     LLMProvider = "gemini"
	ProviderDatabricks LLMProvider = "databricks"
	ProviderOpenRouter LLMProvider = "openrouter"
	ProviderOllama     LLMProvider = "ollama"
)

// ProviderConfig holds the per-provider settings named in the external
// interface. Only the fields relevant to the selected provider are
// populated; adapters validate what they need at Connect.
type ProviderConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	MaxTokens      int
	Temperature    float64
	TimeoutSeconds int
}

// ObjectStoreConfig holds S3-compatible object store settings.
type ObjectStoreConfig struct {
	DefaultBucket string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	UseTLS        bool
}

// RootUserConfig bootstraps the first root principal in local mode.
type RootUserConfig struct {
	Email    string
	Password string
	Name     string
}

// Config is the fully resolved, immutable process configuration.
type Config struct {
	AuthMode AuthMode

	SSOTokenHeader string
	SSONameHeader  string
	SSOEmailHeader string

	TokenSecret      string
	TokenExpiryHours int

	LLMProvider LLMProvider
	Provider    ProviderConfig

	ObjectStore ObjectStoreConfig

	MaintenanceMode    bool
	MaintenanceMessage string

	RootUser RootUserConfig
}

// TokenExpiry returns TokenExpiryHours as a time.Duration.
func (c Config) TokenExpiry() time.Duration {
	return time.Duration(c.TokenExpiryHours) * time.Hour
}

// Load reads Config from the environment, applying the defaults
// spec.md §6 names. It fails hard (apperr.Internal) on a malformed
// value for a field that has no sane default (numeric/bool parse
// errors), since a misconfigured deployment should not start.
func Load() (Config, error) {
	cfg := Config{
		AuthMode: AuthMode(getenv("AUTH_MODE", string(AuthLocal))),

		SSOTokenHeader: os.Getenv("SSO_TOKEN_HEADER"),
		SSONameHeader:  os.Getenv("SSO_NAME_HEADER"),
		SSOEmailHeader: os.Getenv("SSO_EMAIL_HEADER"),

		TokenSecret: os.Getenv("TOKEN_SECRET"),

		LLMProvider: LLMProvider(os.Getenv("LLM_PROVIDER")),

		MaintenanceMessage: getenv("MAINTENANCE_MESSAGE", "service is under maintenance"),

		RootUser: RootUserConfig{
			Email:    os.Getenv("ROOT_USER_EMAIL"),
			Password: os.Getenv("ROOT_USER_PASSWORD"),
			Name:     getenv("ROOT_USER_NAME", "root"),
		},
	}

	expiry, err := parseIntDefault("TOKEN_EXPIRY_HOURS", 12)
	if err != nil {
		return Config{}, err
	}
	cfg.TokenExpiryHours = expiry

	maint, err := parseBoolDefault("MAINTENANCE_MODE", false)
	if err != nil {
		return Config{}, err
	}
	cfg.MaintenanceMode = maint

	provider, err := loadProviderConfig()
	if err != nil {
		return Config{}, err
	}
	cfg.Provider = provider

	objStore, err := loadObjectStoreConfig()
	if err != nil {
		return Config{}, err
	}
	cfg.ObjectStore = objStore

	switch cfg.AuthMode {
	case AuthNone, AuthLocal, AuthSSO:
	default:
		return Config{}, apperr.New(apperr.Internal, fmt.Sprintf("AUTH_MODE: unrecognized value %q", cfg.AuthMode))
	}

	return cfg, nil
}

func loadProviderConfig() (ProviderConfig, error) {
	maxTokens, err := parseIntDefault("MAX_TOKENS", 4096)
	if err != nil {
		return ProviderConfig{}, err
	}
	temperature, err := parseFloatDefault("TEMPERATURE", 0.7)
	if err != nil {
		return ProviderConfig{}, err
	}
	timeout, err := parseIntDefault("TIMEOUT_SECONDS", 60)
	if err != nil {
		return ProviderConfig{}, err
	}
	return ProviderConfig{
		APIKey:         os.Getenv("API_KEY"),
		BaseURL:        os.Getenv("BASE_URL"),
		Model:          os.Getenv("MODEL"),
		MaxTokens:      maxTokens,
		Temperature:    temperature,
		TimeoutSeconds: timeout,
	}, nil
}

func loadObjectStoreConfig() (ObjectStoreConfig, error) {
	useTLS, err := parseBoolDefault("OBJECT_STORE_USE_TLS", true)
	if err != nil {
		return ObjectStoreConfig{}, err
	}
	return ObjectStoreConfig{
		DefaultBucket: os.Getenv("OBJECT_STORE_DEFAULT_BUCKET"),
		Endpoint:      os.Getenv("OBJECT_STORE_ENDPOINT"),
		AccessKey:     os.Getenv("OBJECT_STORE_ACCESS_KEY"),
		SecretKey:     os.Getenv("OBJECT_STORE_SECRET_KEY"),
		UseTLS:        useTLS,
	}, nil
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func parseIntDefault(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, fmt.Sprintf("%s: invalid integer %q", key, raw), err)
	}
	return v, nil
}

func parseFloatDefault(key string, fallback float64) (float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, fmt.Sprintf("%s: invalid float %q", key, raw), err)
	}
	return v, nil
}

func parseBoolDefault(key string, fallback bool) (bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, apperr.Wrap(apperr.Internal, fmt.Sprintf("%s: invalid boolean %q", key, raw), err)
	}
	return v, nil
}
