// Package stream implements the streaming bridge: fan an agent loop's
// event sequence out to a chat/canvas/WebSocket sink, choosing between
// "edit the last message in place" and "send a new chunk" depending on
// what the destination channel supports. Accumulates chunks per run and
// resets on each tool_call so a new LLM iteration after a tool call
// starts a fresh streaming message, consuming the agent.Event stream
// directly rather than hopping through a message bus.
package stream

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"

	"github.com/arclight-ai/agentcore/internal/agent"
)

// defaultChunkLimit is the fallback display-width budget for a single
// chunk sent to a non-editable sink, used when the sink doesn't
// implement ChunkLimiter.
const defaultChunkLimit = 4000

// ChunkLimiter lets a non-editable Sink report its channel's maximum
// message size, in display-width units (see go-runewidth), overriding
// defaultChunkLimit.
type ChunkLimiter interface {
	ChunkLimit() int
}

// Sink is a destination that can render a streaming agent run. Editable
// sinks (chat messages that support in-place edits, canvas text nodes)
// implement EditCapable; sinks that can only append implement it as a
// no-op fallback to ResendChunk-style behavior by returning false from
// SupportsEdit.
type Sink interface {
	// OnStreamStart begins a new streaming message for a run.
	OnStreamStart(ctx context.Context, runID string)
	// OnStreamUpdate delivers the accumulated text so far. When
	// SupportsEdit is true this replaces the prior content; otherwise
	// the bridge instead calls OnStreamChunk with only the delta.
	OnStreamUpdate(ctx context.Context, runID, fullText string)
	// OnStreamChunk delivers only the newly-arrived delta, for sinks
	// that cannot edit in place (e.g. plain-text chat channels that
	// must send a new message per chunk).
	OnStreamChunk(ctx context.Context, runID, delta string)
	// OnStreamEnd finalizes the message with the full text (possibly
	// empty, for a silent reply).
	OnStreamEnd(ctx context.Context, runID, fullText string)
	// OnToolEvent forwards a tool lifecycle notification (e.g. for a
	// "thinking"/"using tool X" reaction indicator).
	OnToolEvent(ctx context.Context, runID string, ev agent.Event)
	// OnError forwards a terminal error/aborted event.
	OnError(ctx context.Context, runID string, ev agent.Event)
	// SupportsEdit reports whether this sink can replace a previously
	// sent message in place.
	SupportsEdit() bool
}

// runState tracks one in-flight run's accumulated text and phase.
type runState struct {
	mu           sync.Mutex
	buffer       string
	inToolPhase  bool
}

// Bridge drains an agent.Event channel and forwards it to a Sink,
// accumulating streamed text per run and resetting the accumulation
// whenever a tool call interrupts the text stream.
type Bridge struct {
	sink Sink

	mu   sync.Mutex
	runs map[string]*runState
}

// New creates a Bridge targeting sink. The sink's SupportsEdit() is
// read once here and held for the bridge's lifetime: capability
// detection happens at construction, not per-event.
func New(sink Sink) *Bridge {
	return &Bridge{sink: sink, runs: make(map[string]*runState)}
}

// Drain consumes events until the channel closes, dispatching each to
// the sink. Safe to call from its own goroutine; blocks until events
// is closed (the run reaches a terminal event).
func (b *Bridge) Drain(ctx context.Context, runID string, events <-chan agent.Event) {
	state := b.startRun(runID)
	defer b.endRun(runID)

	for ev := range events {
		switch ev.Kind {
		case agent.EventThinking:
			b.sink.OnToolEvent(ctx, runID, ev)

		case agent.EventText:
			state.mu.Lock()
			if state.inToolPhase {
				// A new LLM iteration started after a tool call completed;
				// begin a fresh message rather than appending to the old one.
				state.buffer = ""
				state.inToolPhase = false
				b.sink.OnStreamStart(ctx, runID)
			}
			state.buffer += ev.Delta
			full := state.buffer
			state.mu.Unlock()

			// Non-editable sinks can't show intermediate deltas in place;
			// they see the answer only once, chunked, on EventComplete.
			if b.sink.SupportsEdit() {
				b.sink.OnStreamUpdate(ctx, runID, full)
			}

		case agent.EventToolStart:
			state.mu.Lock()
			state.inToolPhase = true
			flushed := state.buffer
			state.mu.Unlock()
			if flushed != "" {
				b.sink.OnStreamEnd(ctx, runID, flushed)
			}
			b.sink.OnToolEvent(ctx, runID, ev)

		case agent.EventToolProgress, agent.EventToolEnd:
			b.sink.OnToolEvent(ctx, runID, ev)

		case agent.EventComplete:
			if !b.sink.SupportsEdit() {
				for _, chunk := range chunkText(ev.Answer, b.chunkLimit()) {
					b.sink.OnStreamChunk(ctx, runID, chunk)
				}
			}
			b.sink.OnStreamEnd(ctx, runID, ev.Answer)

		case agent.EventError, agent.EventAborted:
			b.sink.OnError(ctx, runID, ev)

		default:
			slog.Warn("stream.unknown_event_kind", "kind", ev.Kind, "run", runID)
		}
	}
}

func (b *Bridge) startRun(runID string) *runState {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := &runState{}
	b.runs[runID] = s
	return s
}

func (b *Bridge) endRun(runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.runs, runID)
}

func (b *Bridge) chunkLimit() int {
	if cl, ok := b.sink.(ChunkLimiter); ok {
		if n := cl.ChunkLimit(); n > 0 {
			return n
		}
	}
	return defaultChunkLimit
}

// chunkText splits text into chunks whose display width (via
// go-runewidth, so wide runes count double) fits within limit,
// preferring to break on a space in the back half of the window over a
// hard mid-word split. Returns nil for an empty string.
func chunkText(text string, limit int) []string {
	if text == "" || limit <= 0 {
		return nil
	}
	runes := []rune(text)
	var chunks []string
	for len(runes) > 0 {
		end, split := splitPoint(runes, limit)
		if !split {
			chunks = append(chunks, string(runes))
			break
		}
		if chunk := strings.TrimRight(string(runes[:end]), " "); chunk != "" {
			chunks = append(chunks, chunk)
		}
		runes = runes[end:]
		for len(runes) > 0 && runes[0] == ' ' {
			runes = runes[1:]
		}
	}
	return chunks
}

// splitPoint returns the rune index at which to cut runes so the
// prefix's display width fits within limit, and whether a cut is
// needed at all (false means the whole remainder already fits).
func splitPoint(runes []rune, limit int) (int, bool) {
	width := 0
	fitEnd := len(runes)
	for i, r := range runes {
		w := runewidth.RuneWidth(r)
		if width+w > limit {
			fitEnd = i
			break
		}
		width += w
	}
	if fitEnd == len(runes) {
		return 0, false
	}
	if fitEnd == 0 {
		// A single rune already exceeds limit (e.g. limit < 2 with a
		// wide rune); take it anyway so every call makes progress.
		fitEnd = 1
	}

	halfway := fitEnd / 2
	for i := fitEnd; i > halfway; i-- {
		if runes[i-1] == ' ' {
			return i - 1, true
		}
	}
	return fitEnd, true
}
