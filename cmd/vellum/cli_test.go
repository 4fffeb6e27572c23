package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mpernat/vellum/internal/auth"
)

// runApp executes the CLI against a temp site root.
func runApp(t *testing.T, root string, args ...string) error {
	t.Helper()
	app := newCLIApp()
	return app.Run(append([]string{"vellum", "--dir", root}, args...))
}

func TestCreateCommand(t *testing.T) {
	root := t.TempDir()

	if err := runApp(t, root, "create", "notes.txt"); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "data", "notes.txt")); err != nil {
		t.Errorf("created document missing: %v", err)
	}
}

func TestCreateCommand_InvalidName(t *testing.T) {
	root := t.TempDir()

	err := runApp(t, root, "create", "script.exe")
	if err == nil {
		t.Fatal("expected error for disallowed extension")
	}
	if !strings.Contains(err.Error(), "File extension invalid") {
		t.Errorf("error = %v, want validation message", err)
	}
}

func TestDuplicateCommand(t *testing.T) {
	root := t.TempDir()

	if err := runApp(t, root, "create", "source.md"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "data", "source.md"), []byte("body"), 0o644); err != nil {
		t.Fatalf("seed content: %v", err)
	}

	if err := runApp(t, root, "duplicate", "source.md", "copy.md"); err != nil {
		t.Fatalf("duplicate failed: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(root, "data", "copy.md"))
	if err != nil {
		t.Fatalf("read copy: %v", err)
	}
	if string(content) != "body" {
		t.Errorf("copy content = %q", content)
	}
}

func TestDeleteCommand(t *testing.T) {
	root := t.TempDir()

	if err := runApp(t, root, "create", "gone.txt"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := runApp(t, root, "delete", "gone.txt"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "data", "gone.txt")); !os.IsNotExist(err) {
		t.Error("document should be deleted")
	}

	err := runApp(t, root, "delete", "gone.txt")
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("second delete error = %v, want not-found message", err)
	}
}

func TestUseraddCommand(t *testing.T) {
	root := t.TempDir()

	if err := runApp(t, root, "useradd", "--password", "secret", "admin"); err != nil {
		t.Fatalf("useradd failed: %v", err)
	}

	creds := auth.NewCredentials(filepath.Join(root, "users.txt"))
	ok, err := creds.Verify("admin", "secret")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Error("stored credentials should verify")
	}

	err = runApp(t, root, "useradd", "--password", "other", "admin")
	if err == nil || !strings.Contains(err.Error(), "already taken") {
		t.Errorf("duplicate useradd error = %v, want already-taken message", err)
	}
}

func TestShowCommand_MissingDocument(t *testing.T) {
	root := t.TempDir()

	err := runApp(t, root, "show", "ghost.txt")
	if err == nil || !strings.Contains(err.Error(), "ghost.txt does not exist.") {
		t.Errorf("error = %v, want not-found message", err)
	}
}
