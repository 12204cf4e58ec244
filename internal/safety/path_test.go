package safety

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePathRejectsNullByte(t *testing.T) {
	fs := &FilesystemScope{Workspace: "/workspace"}
	_, err := fs.ValidatePath("bad\x00path", OpRead)
	if err == nil {
		t.Fatal("expected an error for a null byte in the path")
	}
}

func TestValidatePathJoinsRelativeToWorkspace(t *testing.T) {
	fs := &FilesystemScope{Workspace: "/workspace"}
	resolved, err := fs.ValidatePath("sub/file.txt", OpRead)
	if err != nil {
		t.Fatalf("ValidatePath: %v", err)
	}
	want := filepath.Join("/workspace", "sub/file.txt")
	if resolved != want {
		t.Errorf("resolved = %q, want %q", resolved, want)
	}
}

func TestValidatePathRejectsEscapeWhenRestricted(t *testing.T) {
	fs := &FilesystemScope{Workspace: "/workspace", Restrict: true}
	_, err := fs.ValidatePath("../etc/passwd", OpRead)
	if err == nil {
		t.Fatal("expected an escape attempt to be rejected")
	}
}

func TestValidatePathAllowsEscapeWhenUnrestricted(t *testing.T) {
	fs := &FilesystemScope{Workspace: "/workspace", Restrict: false}
	resolved, err := fs.ValidatePath("/tmp/outside.txt", OpRead)
	if err != nil {
		t.Fatalf("ValidatePath: %v", err)
	}
	if resolved != "/tmp/outside.txt" {
		t.Errorf("resolved = %q", resolved)
	}
}

func TestValidatePathRejectsBlockedPrefix(t *testing.T) {
	fs := &FilesystemScope{Workspace: "/workspace", BlockedPrefixes: []string{"/etc"}}
	_, err := fs.ValidatePath("/etc/shadow", OpRead)
	if err == nil {
		t.Fatal("expected /etc/shadow to be blocked")
	}
}

func TestValidatePathSymlinkEscapeIsRejected(t *testing.T) {
	workspace := t.TempDir()
	outside := t.TempDir()
	target := filepath.Join(outside, "secret.txt")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	link := filepath.Join(workspace, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	fs := &FilesystemScope{Workspace: workspace, Restrict: true, EnforceSymlinkBoundary: true}
	_, err := fs.ValidatePath("link.txt", OpRead)
	if err == nil {
		t.Fatal("expected a symlink escaping the workspace to be rejected")
	}
}

func TestDefaultBlockedPrefixesIncludesEtcAndHomeSecrets(t *testing.T) {
	prefixes := DefaultBlockedPrefixes()
	hasEtc := false
	for _, p := range prefixes {
		if p == "/etc" {
			hasEtc = true
		}
	}
	if !hasEtc {
		t.Errorf("prefixes = %v, want /etc included", prefixes)
	}
}

func TestSecurityErrorMessage(t *testing.T) {
	err := &SecurityError{Kind: "path", Message: "path escapes workspace root"}
	if err.Error() != "security: path: path escapes workspace root" {
		t.Errorf("Error() = %q", err.Error())
	}
}
