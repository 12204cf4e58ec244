// Package context implements the conversation context window: an
// append-only message log with token-budget accounting and pluggable
// compaction strategies.
package context

import (
	"context"
	"log/slog"

	"github.com/arclight-ai/agentcore/internal/providers"
)

// Strategy names a built-in compaction algorithm.
type Strategy string

const (
	StrategyDropOldest Strategy = "drop_oldest"
	StrategySummarize  Strategy = "summarize"
	StrategySliding    Strategy = "sliding"
)

// SummarizerFunc condenses a prefix of messages into a short summary string.
// Invoked by the summarize and sliding strategies.
type SummarizerFunc func(ctx context.Context, messages []providers.Message) (string, error)

// Config parameterizes a named compaction strategy.
type Config struct {
	MaxTokens               int
	CompactionThreshold      float64 // fraction of MaxTokens that triggers compaction (default 0.85)
	Strategy                 Strategy
	CompactionTarget         float64 // fraction of MaxTokens to shrink to (default 0.6)
	KeepRatio                float64 // fraction of messages kept verbatim by summarize/sliding (default 0.3)
	PreserveRecentToolPairs  int     // default 3
	PreserveTaskDescription  bool    // default true
	PinnedRoles              map[string]bool
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:               180_000,
		CompactionThreshold:     0.85,
		Strategy:                StrategyDropOldest,
		CompactionTarget:        0.6,
		KeepRatio:               0.3,
		PreserveRecentToolPairs: 3,
		PreserveTaskDescription: true,
	}
}

// Context is a single conversation's context window: at most one pinned
// system prompt at position 0, followed by an append-only message log.
type Context struct {
	cfg          Config
	systemPrompt *providers.Message
	messages     []providers.Message
	summarizer   SummarizerFunc
}

// New creates an empty Context with the given config and optional summarizer.
// A nil summarizer causes summarize/sliding strategies to fall back to
// drop_oldest when a summary step is reached.
func New(cfg Config, summarizer SummarizerFunc) *Context {
	return &Context{cfg: cfg, summarizer: summarizer}
}

// SetSystemPrompt sets or replaces the pinned system prompt.
func (c *Context) SetSystemPrompt(text string) {
	if text == "" {
		c.systemPrompt = nil
		return
	}
	c.systemPrompt = &providers.Message{Role: "system", Content: text}
}

// AddMessage appends a message and triggers compaction when the token
// estimate exceeds MaxTokens × CompactionThreshold. Never fails on size;
// compaction is best-effort.
func (c *Context) AddMessage(ctx context.Context, msg providers.Message) {
	c.messages = append(c.messages, msg)

	threshold := c.cfg.CompactionThreshold
	if threshold <= 0 {
		threshold = 0.85
	}
	limit := float64(c.cfg.MaxTokens) * threshold
	if limit > 0 && float64(c.GetTokenEstimate()) > limit {
		c.compact(ctx)
	}
}

// GetMessages returns the system prompt (if any) followed by the
// conversation in order. The slice is a fresh copy; callers may not
// mutate the Context through it.
func (c *Context) GetMessages() []providers.Message {
	out := make([]providers.Message, 0, len(c.messages)+1)
	if c.systemPrompt != nil {
		out = append(out, *c.systemPrompt)
	}
	out = append(out, c.messages...)
	return out
}

// GetTokenEstimate sums ceil(chars/4) over every text span, serialized
// tool input, and tool output across the system prompt and the log.
func (c *Context) GetTokenEstimate() int {
	total := 0
	if c.systemPrompt != nil {
		total += estimateMessage(*c.systemPrompt)
	}
	for _, m := range c.messages {
		total += estimateMessage(m)
	}
	return total
}

// Clear drops the conversation but preserves the system prompt.
func (c *Context) Clear() {
	c.messages = nil
}

// Compact explicitly invokes the configured compaction strategy.
func (c *Context) Compact(ctx context.Context) {
	c.compact(ctx)
}

func estimateMessage(m providers.Message) int {
	n := estimateTokens(m.Content)
	for _, tc := range m.ToolCalls {
		n += estimateTokens(tc.Name)
		for k, v := range tc.Arguments {
			n += estimateTokens(k)
			n += estimateTokens(toText(v))
		}
	}
	return n
}

func toText(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return "" // non-string args contribute negligible estimate; callers pass JSON strings in practice
}

// estimateTokens applies the ≈4-chars-per-token heuristic, rounding up.
func estimateTokens(s string) int {
	if s == "" {
		return 0
	}
	n := len([]rune(s))
	return (n + 3) / 4
}

func (c *Context) compact(ctx context.Context) {
	before := len(c.messages)
	switch c.cfg.Strategy {
	case StrategySummarize:
		c.compactSummarize(ctx, c.summarizer)
	case StrategySliding:
		c.compactSliding(ctx)
	default:
		c.compactDropOldest()
	}
	slog.Debug("context.compacted",
		"strategy", c.cfg.Strategy,
		"messages_before", before,
		"messages_after", len(c.messages),
		"tokens_after", c.GetTokenEstimate(),
	)
}

// groupBounds returns, for message index i that starts a tool-call group
// (an assistant message with ToolCalls), the exclusive end index covering
// every contiguous following tool-result message. For any other index it
// returns (i, i+1).
func (c *Context) groupBounds(i int) (start, end int) {
	start = i
	end = i + 1
	if i < 0 || i >= len(c.messages) {
		return start, end
	}
	m := c.messages[i]
	if m.Role == "assistant" && len(m.ToolCalls) > 0 {
		j := i + 1
		for j < len(c.messages) && c.messages[j].Role == "tool" {
			j++
		}
		end = j
	}
	return start, end
}

// protectedIndices computes the set of message indices that may never be
// dropped: the last message, the first user message when
// PreserveTaskDescription is set, pinned roles, and the most recent N
// tool-call/result groups (whole groups, atomically).
func (c *Context) protectedIndices() map[int]bool {
	protected := make(map[int]bool)
	n := len(c.messages)
	if n == 0 {
		return protected
	}
	protected[n-1] = true

	if c.cfg.PreserveTaskDescription {
		for i, m := range c.messages {
			if m.Role == "user" {
				protected[i] = true
				break
			}
		}
	}

	for i, m := range c.messages {
		if c.cfg.PinnedRoles[m.Role] {
			protected[i] = true
		}
	}

	keep := c.cfg.PreserveRecentToolPairs
	if keep <= 0 {
		keep = 3
	}
	found := 0
	for i := n - 1; i >= 0 && found < keep; i-- {
		m := c.messages[i]
		if m.Role == "assistant" && len(m.ToolCalls) > 0 {
			start, end := c.groupBounds(i)
			for k := start; k < end; k++ {
				protected[k] = true
			}
			found++
		}
	}
	return protected
}

func (c *Context) targetTokens() int {
	target := c.cfg.CompactionTarget
	if target <= 0 {
		target = 0.6
	}
	return int(float64(c.cfg.MaxTokens) * target)
}

// compactDropOldest walks from the oldest non-protected message forward,
// dropping whole tool-call groups atomically, until the estimate falls
// under target. Guarantees progress: at least one non-protected message
// is dropped per pass, or the pass is a no-op because none remain.
func (c *Context) compactDropOldest() {
	target := c.targetTokens()
	for c.GetTokenEstimate() > target || target <= 0 {
		protected := c.protectedIndices()
		dropped := false
		i := 0
		for i < len(c.messages) {
			if protected[i] {
				i++
				continue
			}
			start, end := c.groupBounds(i)
			// A protected index inside this group blocks the whole group.
			blocked := false
			for k := start; k < end; k++ {
				if protected[k] {
					blocked = true
					break
				}
			}
			if blocked {
				i = end
				continue
			}
			c.messages = append(c.messages[:start], c.messages[end:]...)
			dropped = true
			break
		}
		if !dropped {
			return // nothing left to drop — terminate (progress invariant satisfied)
		}
		if target <= 0 {
			return
		}
	}
}

// compactSummarize splits at len×(1−keepRatio), summarizes the prefix via
// the injected summarizer, and rebuilds as
// [preserved task description] [summary system message] [verbatim suffix].
// Falls back to drop_oldest when no summarizer is configured.
func (c *Context) compactSummarize(ctx context.Context, summarizer SummarizerFunc) {
	if summarizer == nil {
		c.compactDropOldest()
		return
	}

	keepRatio := c.cfg.KeepRatio
	if keepRatio <= 0 {
		keepRatio = 0.3
	}
	n := len(c.messages)
	splitAt := int(float64(n) * (1 - keepRatio))
	splitAt = alignGroupBoundary(c, splitAt)
	if splitAt <= 0 || splitAt >= n {
		c.compactDropOldest()
		return
	}

	prefix := c.messages[:splitAt]
	suffix := c.messages[splitAt:]

	var taskDesc *providers.Message
	if c.cfg.PreserveTaskDescription {
		for i := range prefix {
			if prefix[i].Role == "user" {
				m := prefix[i]
				taskDesc = &m
				break
			}
		}
	}

	summary, err := summarizer(ctx, prefix)
	if err != nil {
		slog.Warn("context.summarize_failed", "error", err)
		c.compactDropOldest()
		return
	}

	rebuilt := make([]providers.Message, 0, len(suffix)+2)
	if taskDesc != nil {
		rebuilt = append(rebuilt, *taskDesc)
	}
	rebuilt = append(rebuilt, providers.Message{
		Role:    "system",
		Content: "[Conversation summary] " + summary,
	})
	rebuilt = append(rebuilt, suffix...)
	c.messages = rebuilt
}

// compactSliding walks backwards accumulating tokens into a window until
// the target is reached AND at least PreserveRecentToolPairs tool-call
// groups are inside the window. The prefix outside the window is
// summarized the same way as compactSummarize.
func (c *Context) compactSliding(ctx context.Context) {
	if c.summarizer == nil {
		c.compactDropOldest()
		return
	}

	target := c.targetTokens()
	preserveGroups := c.cfg.PreserveRecentToolPairs
	if preserveGroups <= 0 {
		preserveGroups = 3
	}

	n := len(c.messages)
	if n == 0 {
		return
	}

	tokens := 0
	groupsSeen := 0
	windowStart := n
	i := n - 1
	for i >= 0 {
		start, end := c.groupBounds(i)
		if end-1 != i {
			// i is inside a tool-result run; walk back to the group start.
			start2, end2 := c.groupBounds(start)
			start, end = start2, end2
		}
		for k := start; k < end; k++ {
			tokens += estimateMessage(c.messages[k])
		}
		if c.messages[start].Role == "assistant" && len(c.messages[start].ToolCalls) > 0 {
			groupsSeen++
		}
		windowStart = start
		i = start - 1

		if tokens >= target && groupsSeen >= preserveGroups {
			break
		}
	}
	// "preserve all groups present" when preserveGroups exceeds total groups.

	if windowStart <= 0 {
		return // entire log is inside the window already
	}

	prefix := c.messages[:windowStart]
	suffix := c.messages[windowStart:]

	var taskDesc *providers.Message
	if c.cfg.PreserveTaskDescription {
		for i := range prefix {
			if prefix[i].Role == "user" {
				m := prefix[i]
				taskDesc = &m
				break
			}
		}
	}

	summaryText, err := c.summarizer(ctx, prefix)
	if err != nil {
		slog.Warn("context.summarize_failed", "error", err)
		c.compactDropOldest()
		return
	}

	rebuilt := make([]providers.Message, 0, len(suffix)+2)
	if taskDesc != nil {
		rebuilt = append(rebuilt, *taskDesc)
	}
	rebuilt = append(rebuilt, providers.Message{
		Role:    "system",
		Content: "[Conversation summary] " + summaryText,
	})
	rebuilt = append(rebuilt, suffix...)
	c.messages = rebuilt
}

// alignGroupBoundary nudges a split index forward until it does not land
// inside a tool-call/result group.
func alignGroupBoundary(c *Context, idx int) int {
	if idx <= 0 || idx >= len(c.messages) {
		return idx
	}
	if c.messages[idx].Role == "tool" {
		for idx < len(c.messages) && c.messages[idx].Role == "tool" {
			idx++
		}
	}
	return idx
}
