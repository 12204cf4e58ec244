package agent

import "testing"

func TestSanitizeAssistantContentStripsThinkingTags(t *testing.T) {
	got := SanitizeAssistantContent("<think>internal reasoning</think>final answer")
	if got != "final answer" {
		t.Errorf("got %q, want %q", got, "final answer")
	}
}

func TestSanitizeAssistantContentStripsFinalTags(t *testing.T) {
	got := SanitizeAssistantContent("<final>the answer</final>")
	if got != "the answer" {
		t.Errorf("got %q, want %q", got, "the answer")
	}
}

func TestSanitizeAssistantContentStripsGarbledToolXML(t *testing.T) {
	got := SanitizeAssistantContent("<tool_call><parameter name=\"x\">1</parameter></tool_call>")
	if got != "" {
		t.Errorf("got %q, want empty string for a fully garbled tool-xml response", got)
	}
}

func TestSanitizeAssistantContentStripsDowngradedToolCallText(t *testing.T) {
	input := "Here is the answer.\n[Tool Call: search]\nArguments:\n{\"q\": \"go\"}\nDone computing."
	got := SanitizeAssistantContent(input)
	if got != "Here is the answer.\nDone computing." {
		t.Errorf("got %q", got)
	}
}

func TestSanitizeAssistantContentStripsEchoedSystemMessages(t *testing.T) {
	input := "Real reply.\n\n[System Message]\nStats: 3 tokens\n\nMore real text."
	got := SanitizeAssistantContent(input)
	if got != "Real reply.\n\nMore real text." {
		t.Errorf("got %q", got)
	}
}

func TestSanitizeAssistantContentCollapsesDuplicateBlocks(t *testing.T) {
	input := "same paragraph\n\nsame paragraph\n\nother paragraph"
	got := SanitizeAssistantContent(input)
	if got != "same paragraph\n\nother paragraph" {
		t.Errorf("got %q", got)
	}
}

func TestSanitizeAssistantContentStripsMediaPaths(t *testing.T) {
	input := "Here's the image.\nMEDIA:/tmp/gen.png\nEnjoy."
	got := SanitizeAssistantContent(input)
	if got != "Here's the image.\nEnjoy." {
		t.Errorf("got %q", got)
	}
}

func TestSanitizeAssistantContentEmptyInputReturnsEmpty(t *testing.T) {
	if got := SanitizeAssistantContent(""); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestIsSilentReplyExactToken(t *testing.T) {
	if !IsSilentReply("NO_REPLY") {
		t.Error("expected exact NO_REPLY token to be silent")
	}
}

func TestIsSilentReplyWithTrailingPunctuation(t *testing.T) {
	if !IsSilentReply("NO_REPLY.") {
		t.Error("expected NO_REPLY followed by punctuation to be silent")
	}
}

func TestIsSilentReplyRejectsPartialWordMatch(t *testing.T) {
	if IsSilentReply("NO_REPLYING") {
		t.Error("expected NO_REPLYING (word continues) to not be treated as silent")
	}
}

func TestIsSilentReplyRejectsNormalText(t *testing.T) {
	if IsSilentReply("this is a normal reply") {
		t.Error("expected normal text to not be silent")
	}
}

func TestIsSilentReplyEmptyStringIsNotSilent(t *testing.T) {
	if IsSilentReply("") {
		t.Error("expected empty string to not be treated as a silent reply")
	}
}
