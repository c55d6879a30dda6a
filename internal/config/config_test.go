package config

import "testing"

func withEnv(t *testing.T, kv map[string]string, fn func()) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
	fn()
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AuthMode != AuthLocal {
		t.Errorf("AuthMode = %v, want %v", cfg.AuthMode, AuthLocal)
	}
	if cfg.TokenExpiryHours != 12 {
		t.Errorf("TokenExpiryHours = %d, want 12", cfg.TokenExpiryHours)
	}
	if cfg.MaintenanceMode {
		t.Error("MaintenanceMode should default to false")
	}
	if cfg.ObjectStore.UseTLS != true {
		t.Error("ObjectStore.UseTLS should default to true")
	}
}

func TestLoadOverrides(t *testing.T) {
	withEnv(t, map[string]string{
		"AUTH_MODE":          "sso",
		"TOKEN_EXPIRY_HOURS": "24",
		"MAINTENANCE_MODE":   "true",
		"MAX_TOKENS":         "2048",
		"TEMPERATURE":        "0.2",
	}, func() {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.AuthMode != AuthSSO {
			t.Errorf("AuthMode = %v, want %v", cfg.AuthMode, AuthSSO)
		}
		if cfg.TokenExpiryHours != 24 {
			t.Errorf("TokenExpiryHours = %d, want 24", cfg.TokenExpiryHours)
		}
		if !cfg.MaintenanceMode {
			t.Error("MaintenanceMode should be true")
		}
		if cfg.Provider.MaxTokens != 2048 {
			t.Errorf("MaxTokens = %d, want 2048", cfg.Provider.MaxTokens)
		}
		if cfg.Provider.Temperature != 0.2 {
			t.Errorf("Temperature = %v, want 0.2", cfg.Provider.Temperature)
		}
	})
}

func TestLoadRejectsUnknownAuthMode(t *testing.T) {
	withEnv(t, map[string]string{"AUTH_MODE": "bogus"}, func() {
		if _, err := Load(); err == nil {
			t.Fatal("expected error for unrecognized AUTH_MODE")
		}
	})
}

func TestLoadRejectsMalformedInt(t *testing.T) {
	withEnv(t, map[string]string{"TOKEN_EXPIRY_HOURS": "not-a-number"}, func() {
		if _, err := Load(); err == nil {
			t.Fatal("expected error for malformed TOKEN_EXPIRY_HOURS")
		}
	})
}
