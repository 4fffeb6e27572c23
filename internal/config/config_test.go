package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoad_MissingFile(t *testing.T) {
	root := t.TempDir()

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DataDir != filepath.Join(root, "data") {
		t.Errorf("DataDir = %q, want root-relative data dir", cfg.DataDir)
	}
	if cfg.CredentialsFile != filepath.Join(root, "users.txt") {
		t.Errorf("CredentialsFile = %q, want root-relative users.txt", cfg.CredentialsFile)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.SessionTTLHours != 24 {
		t.Errorf("SessionTTLHours = %d, want 24", cfg.SessionTTLHours)
	}
	if !reflect.DeepEqual(cfg.AllowedExtensions, []string{"txt", "md"}) {
		t.Errorf("AllowedExtensions = %v, want [txt md]", cfg.AllowedExtensions)
	}
	if cfg.GitAutoCommit {
		t.Error("GitAutoCommit should default to false")
	}
}

func TestLoad_Overrides(t *testing.T) {
	root := t.TempDir()
	content := `{
		"port": 9000,
		"git_autocommit": true,
		"allowed_extensions": [".txt", "md", "markdown", "md"],
		"disabled_tools": ["document_delete"]
	}`
	if err := os.WriteFile(filepath.Join(root, "vellum.json"), []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
	if !cfg.GitAutoCommit {
		t.Error("GitAutoCommit should be true")
	}
	if !reflect.DeepEqual(cfg.AllowedExtensions, []string{"txt", "md", "markdown"}) {
		t.Errorf("AllowedExtensions = %v, want dot-stripped deduped set", cfg.AllowedExtensions)
	}
	if !reflect.DeepEqual(cfg.DisabledTools, []string{"document_delete"}) {
		t.Errorf("DisabledTools = %v", cfg.DisabledTools)
	}
	// Unset keys keep defaults
	if cfg.Bind != "127.0.0.1" {
		t.Errorf("Bind = %q, want default", cfg.Bind)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "vellum.json"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(root); err == nil {
		t.Error("Load should fail on malformed JSON")
	}
}

func TestLoad_AbsolutePathsKept(t *testing.T) {
	root := t.TempDir()
	docs := t.TempDir()
	content := `{"data_dir": "` + docs + `"}`
	if err := os.WriteFile(filepath.Join(root, "vellum.json"), []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DataDir != docs {
		t.Errorf("DataDir = %q, want %q untouched", cfg.DataDir, docs)
	}
}

func TestMerge_ExtensionReplacement(t *testing.T) {
	base := DefaultConfig()
	overlay := &Config{AllowedExtensions: []string{"org"}}

	merged := Merge(base, overlay)
	if !reflect.DeepEqual(merged.AllowedExtensions, []string{"org"}) {
		t.Errorf("AllowedExtensions = %v, want overlay to replace base", merged.AllowedExtensions)
	}
}
