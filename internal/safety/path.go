// Package safety implements the safety policy: filesystem scope
// enforcement, command validation, input-injection detection, and
// output sanitization/redaction.
package safety

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Op is the filesystem operation kind being validated.
type Op string

const (
	OpRead Op = "read"
	OpWrite Op = "write"
	OpExec Op = "exec"
)

// FilesystemScope resolves and validates paths against a workspace root
// and a blocked-prefix set.
type FilesystemScope struct {
	Workspace            string
	Restrict             bool
	BlockedPrefixes       []string
	EnforceSymlinkBoundary bool
}

// DefaultBlockedPrefixes lists common system/secret directories a
// default policy should never expose.
func DefaultBlockedPrefixes() []string {
	home, _ := os.UserHomeDir()
	prefixes := []string{
		"/etc", "/sys", "/proc", "/dev", "/root",
	}
	if home != "" {
		prefixes = append(prefixes,
			filepath.Join(home, ".ssh"),
			filepath.Join(home, ".gnupg"),
			filepath.Join(home, ".aws"),
			filepath.Join(home, ".config", "gcloud"),
		)
	}
	return prefixes
}

// ValidatePath resolves path to an absolute form and rejects it if it
// contains a null byte, escapes the workspace root (when Restrict is
// set), or falls under a blocked prefix — and, when
// EnforceSymlinkBoundary is set, if it is a symlink whose real target
// escapes the workspace or hits a blocked prefix.
func (f *FilesystemScope) ValidatePath(path string, op Op) (string, error) {
	if strings.ContainsRune(path, 0) {
		return "", &SecurityError{Kind: "path", Message: "path contains null byte", Path: path}
	}

	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(f.Workspace, abs)
	}
	abs = filepath.Clean(abs)

	for _, prefix := range f.BlockedPrefixes {
		if prefix == "" {
			continue
		}
		if abs == prefix || strings.HasPrefix(abs, prefix+string(filepath.Separator)) {
			return "", &SecurityError{Kind: "path", Message: "path is under a blocked prefix", Path: abs}
		}
	}

	if f.Restrict {
		ws := filepath.Clean(f.Workspace)
		if abs != ws && !strings.HasPrefix(abs, ws+string(filepath.Separator)) {
			return "", &SecurityError{Kind: "path", Message: "path escapes workspace root", Path: abs}
		}
	}

	if f.EnforceSymlinkBoundary {
		if real, err := filepath.EvalSymlinks(abs); err == nil && real != abs {
			if f.Restrict {
				ws := filepath.Clean(f.Workspace)
				if real != ws && !strings.HasPrefix(real, ws+string(filepath.Separator)) {
					return "", &SecurityError{Kind: "path", Message: "symlink target escapes workspace", Path: real}
				}
			}
			for _, prefix := range f.BlockedPrefixes {
				if prefix != "" && (real == prefix || strings.HasPrefix(real, prefix+string(filepath.Separator))) {
					return "", &SecurityError{Kind: "path", Message: "symlink target is under a blocked prefix", Path: real}
				}
			}
		}
	}

	_ = op // op is carried for audit/logging by callers; no op-specific rule beyond the above
	return abs, nil
}

// SecurityError is the distinguished error kind for safety-policy
// violations: any such violation surfaces as this, with structured metadata.
type SecurityError struct {
	Kind    string // "path", "command", "input"
	Message string
	Path    string `json:"path,omitempty"`
	Pattern string `json:"pattern,omitempty"`
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("security: %s: %s", e.Kind, e.Message)
}
