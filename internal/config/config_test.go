package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{EnvToken: " abc:123 "}))
	if err != nil {
		t.Fatalf("FromLookup() error = %v", err)
	}
	if cfg.Token != "abc:123" {
		t.Errorf("Token = %q", cfg.Token)
	}
	if cfg.MaxFileSizeMB != DefaultMaxFileSizeMB {
		t.Errorf("MaxFileSizeMB = %d, want %d", cfg.MaxFileSizeMB, DefaultMaxFileSizeMB)
	}
	if cfg.MaxFileSizeBytes() != 10*1024*1024 {
		t.Errorf("MaxFileSizeBytes() = %d", cfg.MaxFileSizeBytes())
	}
	if len(cfg.AdminIDs) != 0 {
		t.Errorf("AdminIDs = %v, want empty", cfg.AdminIDs)
	}
}

func TestFromLookup_AdminsAndQuota(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		EnvToken:       "t",
		EnvAdminIDs:    "42, 7,,9001",
		EnvMaxFileSize: "25",
	}))
	if err != nil {
		t.Fatalf("FromLookup() error = %v", err)
	}
	for _, id := range []int64{42, 7, 9001} {
		if !cfg.IsPrivileged(id) {
			t.Errorf("IsPrivileged(%d) = false", id)
		}
	}
	if cfg.IsPrivileged(8) {
		t.Error("IsPrivileged(8) = true")
	}
	if cfg.MaxFileSizeMB != 25 {
		t.Errorf("MaxFileSizeMB = %d, want 25", cfg.MaxFileSizeMB)
	}
}

func TestFromLookup_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want error
	}{
		{"missing token", map[string]string{}, ErrMissingToken},
		{"blank token", map[string]string{EnvToken: "  "}, ErrMissingToken},
		{"bad admin id", map[string]string{EnvToken: "t", EnvAdminIDs: "1,two"}, ErrInvalidAdminIDs},
		{"bad quota", map[string]string{EnvToken: "t", EnvMaxFileSize: "0"}, ErrInvalidMaxFileSize},
		{"non numeric quota", map[string]string{EnvToken: "t", EnvMaxFileSize: "ten"}, ErrInvalidMaxFileSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromLookup(lookupFrom(tt.env)); !errors.Is(err, tt.want) {
				t.Fatalf("FromLookup() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(p, []byte("TELEGRAM_BOT_TOKEN=from-file\nADMIN_IDS=5\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// t.Setenv restores the variables after the test; godotenv only sets
	// variables that are absent.
	t.Setenv(EnvToken, "")
	os.Unsetenv(EnvToken)
	t.Setenv(EnvAdminIDs, "")
	os.Unsetenv(EnvAdminIDs)

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Token != "from-file" {
		t.Errorf("Token = %q, want from-file", cfg.Token)
	}
	if !cfg.IsPrivileged(5) {
		t.Error("admin id from .env not loaded")
	}
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	t.Setenv(EnvToken, "env-token")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Token != "env-token" {
		t.Errorf("Token = %q", cfg.Token)
	}
}
