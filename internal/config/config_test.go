package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoad_FileValuesAndDefaults(t *testing.T) {
	dir := writeConfig(t, `
port: "9090"
uploads:
  dir: /tmp/scratch
  max_age: 30m
auth:
  jwt_secret: s1
session:
  secret: s2
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("port: got %q", cfg.Port)
	}
	if cfg.Uploads.Dir != "/tmp/scratch" || cfg.Uploads.MaxAge != 30*time.Minute {
		t.Fatalf("uploads: got %+v", cfg.Uploads)
	}
	// defaults fill the rest
	if cfg.Classifier.Threshold != 0 {
		t.Fatalf("threshold default: got %v", cfg.Classifier.Threshold)
	}
	if cfg.Auth.TokenTTL != time.Hour {
		t.Fatalf("token ttl default: got %v", cfg.Auth.TokenTTL)
	}
	if cfg.DB.Path != "malaria_management.db" {
		t.Fatalf("db path default: got %q", cfg.DB.Path)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := writeConfig(t, `
port: "9090"
auth:
  jwt_secret: s1
session:
  secret: s2
`)
	t.Setenv("CLINIC_PORT", "7070")
	t.Setenv("CLINIC_DB_PATH", "other.db")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "7070" {
		t.Fatalf("port: got %q, want env override", cfg.Port)
	}
	if cfg.DB.Path != "other.db" {
		t.Fatalf("db path: got %q, want env override", cfg.DB.Path)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing jwt secret", "session:\n  secret: s\n"},
		{"missing session secret", "auth:\n  jwt_secret: s\n"},
		{"threshold out of range", "auth:\n  jwt_secret: s\nsession:\n  secret: s\nclassifier:\n  threshold: 1.5\n"},
		{"negative threshold", "auth:\n  jwt_secret: s\nsession:\n  secret: s\nclassifier:\n  threshold: -0.2\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.body)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
