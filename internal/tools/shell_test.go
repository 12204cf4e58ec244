package tools

import (
	"context"
	"strings"
	"testing"
)

func TestExecToolValidateRequiresCommand(t *testing.T) {
	tool := NewExecTool(t.TempDir(), true)
	if vr := tool.Validate(map[string]interface{}{}); vr.Valid {
		t.Error("expected invalid when command is missing")
	}
}

func TestExecToolRunsBenignCommand(t *testing.T) {
	tool := NewExecTool(t.TempDir(), true)
	res := tool.Execute(context.Background(), map[string]interface{}{"command": "echo hello"}, ToolContext{})
	if res.IsError {
		t.Fatalf("Execute returned an error: %+v", res)
	}
	if !strings.Contains(res.ForLLM, "hello") {
		t.Errorf("ForLLM = %q, want it to contain hello", res.ForLLM)
	}
}

func TestExecToolBlocksDestructiveCommand(t *testing.T) {
	tool := NewExecTool(t.TempDir(), true)
	res := tool.Execute(context.Background(), map[string]interface{}{"command": "rm -rf /"}, ToolContext{})
	if !res.IsError {
		t.Error("expected rm -rf / to be denied")
	}
}

func TestExecToolBlocksSudo(t *testing.T) {
	tool := NewExecTool(t.TempDir(), true)
	res := tool.Execute(context.Background(), map[string]interface{}{"command": "sudo ls"}, ToolContext{})
	if !res.IsError {
		t.Error("expected sudo to be denied")
	}
}

func TestExecToolReportsNonZeroExitInResult(t *testing.T) {
	tool := NewExecTool(t.TempDir(), true)
	res := tool.Execute(context.Background(), map[string]interface{}{"command": "exit 7"}, ToolContext{})
	if !res.IsError {
		t.Error("expected a failing command to be reported as an error result")
	}
}

func TestExecToolHonorsToolContextWorkDir(t *testing.T) {
	defaultDir := t.TempDir()
	overrideDir := t.TempDir()
	tool := NewExecTool(defaultDir, true)

	res := tool.Execute(context.Background(), map[string]interface{}{"command": "pwd"}, ToolContext{WorkDir: overrideDir})
	if res.IsError {
		t.Fatalf("Execute returned an error: %+v", res)
	}
	if !strings.Contains(res.ForLLM, overrideDir) {
		t.Errorf("ForLLM = %q, want it to contain %q", res.ForLLM, overrideDir)
	}
}

func TestExecToolCapturesStderr(t *testing.T) {
	tool := NewExecTool(t.TempDir(), true)
	res := tool.Execute(context.Background(), map[string]interface{}{"command": "echo oops 1>&2"}, ToolContext{})
	if !strings.Contains(res.ForLLM, "oops") {
		t.Errorf("ForLLM = %q, want it to contain stderr output", res.ForLLM)
	}
}
