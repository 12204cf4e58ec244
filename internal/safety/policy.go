package safety

import (
	"log/slog"
	"time"
)

// Policy is polymorphic over the safety capability set:
// validatePath, validateCommand, validateInput, sanitizeOutput,
// requiresConfirmation, audit. The default implementation composes
// FilesystemScope + CommandValidator + InputGuard + OutputSanitizer.
type Policy interface {
	ValidatePath(path string, op Op) (string, error)
	ValidateCommand(line string) error
	ValidateInput(text string) error
	SanitizeOutput(text string) (clean string, matched []string)
	RequiresConfirmation(op Op) bool
	Audit(event string, fields map[string]interface{})
}

// DefaultPolicy is the default Safety Policy composition.
type DefaultPolicy struct {
	Filesystem          *FilesystemScope
	Commands            *CommandValidator
	Input               *InputGuard
	Output              *OutputSanitizer
	ConfirmBeforeWrite  bool
	ConfirmBeforeExec   bool
}

// NewDefaultPolicy builds the default policy composition for a
// workspace root.
func NewDefaultPolicy(workspace string, restrict bool) *DefaultPolicy {
	return &DefaultPolicy{
		Filesystem: &FilesystemScope{
			Workspace:              workspace,
			Restrict:               restrict,
			BlockedPrefixes:        DefaultBlockedPrefixes(),
			EnforceSymlinkBoundary: true,
		},
		Commands: NewCommandValidator(),
		Input:    NewInputGuard(),
		Output:   NewOutputSanitizer(),
	}
}

func (p *DefaultPolicy) ValidatePath(path string, op Op) (string, error) {
	resolved, err := p.Filesystem.ValidatePath(path, op)
	if err != nil {
		p.Audit("security.path_rejected", map[string]interface{}{"path": path, "op": op, "error": err.Error()})
	}
	return resolved, err
}

func (p *DefaultPolicy) ValidateCommand(line string) error {
	if err := p.Commands.ValidateCommand(line); err != nil {
		p.Audit("security.command_rejected", map[string]interface{}{"command": line, "error": err.Error()})
		return err
	}
	return nil
}

func (p *DefaultPolicy) ValidateInput(text string) error {
	if err := p.Input.ValidateInput(text); err != nil {
		p.Audit("security.input_rejected", map[string]interface{}{"len": len(text), "error": err.Error()})
		return err
	}
	return nil
}

func (p *DefaultPolicy) SanitizeOutput(text string) (string, []string) {
	clean, matched := p.Output.Sanitize(text)
	if len(matched) > 0 {
		p.Audit("security.output_redacted", map[string]interface{}{"patterns": matched})
	}
	return clean, matched
}

// RequiresConfirmation reports whether an operation should pause for
// human confirmation before proceeding (write/exec, by default policy).
func (p *DefaultPolicy) RequiresConfirmation(op Op) bool {
	switch op {
	case OpWrite:
		return p.ConfirmBeforeWrite
	case OpExec:
		return p.ConfirmBeforeExec
	default:
		return false
	}
}

// Audit logs a structured security event under the "security.*" slog
// event naming convention (e.g. security.injection_detected/_blocked).
func (p *DefaultPolicy) Audit(event string, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2+2)
	args = append(args, "at", time.Now())
	for k, v := range fields {
		args = append(args, k, v)
	}
	slog.Warn(event, args...)
}
