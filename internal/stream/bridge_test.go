package stream

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/arclight-ai/agentcore/internal/agent"
)

type recordedCall struct {
	method string
	runID  string
	text   string
	ev     agent.Event
}

type fakeSink struct {
	supportsEdit bool
	chunkLimit   int
	calls        []recordedCall
}

func (f *fakeSink) ChunkLimit() int { return f.chunkLimit }

func (f *fakeSink) OnStreamStart(ctx context.Context, runID string) {
	f.calls = append(f.calls, recordedCall{method: "start", runID: runID})
}
func (f *fakeSink) OnStreamUpdate(ctx context.Context, runID, fullText string) {
	f.calls = append(f.calls, recordedCall{method: "update", runID: runID, text: fullText})
}
func (f *fakeSink) OnStreamChunk(ctx context.Context, runID, delta string) {
	f.calls = append(f.calls, recordedCall{method: "chunk", runID: runID, text: delta})
}
func (f *fakeSink) OnStreamEnd(ctx context.Context, runID, fullText string) {
	f.calls = append(f.calls, recordedCall{method: "end", runID: runID, text: fullText})
}
func (f *fakeSink) OnToolEvent(ctx context.Context, runID string, ev agent.Event) {
	f.calls = append(f.calls, recordedCall{method: "tool", runID: runID, ev: ev})
}
func (f *fakeSink) OnError(ctx context.Context, runID string, ev agent.Event) {
	f.calls = append(f.calls, recordedCall{method: "error", runID: runID, ev: ev})
}
func (f *fakeSink) SupportsEdit() bool { return f.supportsEdit }

func drainEvents(t *testing.T, b *Bridge, runID string, events []agent.Event) {
	t.Helper()
	ch := make(chan agent.Event, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	done := make(chan struct{})
	go func() {
		b.Drain(context.Background(), runID, ch)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for Drain to finish")
	}
}

func TestDrainEditableSinkAccumulatesAndUpdates(t *testing.T) {
	sink := &fakeSink{supportsEdit: true}
	b := New(sink)

	drainEvents(t, b, "run-1", []agent.Event{
		{Kind: agent.EventText, Delta: "hel"},
		{Kind: agent.EventText, Delta: "lo"},
		{Kind: agent.EventComplete, Answer: "hello"},
	})

	var updates []string
	for _, c := range sink.calls {
		if c.method == "update" {
			updates = append(updates, c.text)
		}
	}
	if len(updates) != 2 || updates[0] != "hel" || updates[1] != "hello" {
		t.Errorf("updates = %v, want [hel hello]", updates)
	}
	last := sink.calls[len(sink.calls)-1]
	if last.method != "end" || last.text != "hello" {
		t.Errorf("last call = %+v, want end/hello", last)
	}
}

func TestDrainNonEditableSinkSuppressesDeltasAndSendsOneChunkOnComplete(t *testing.T) {
	sink := &fakeSink{supportsEdit: false}
	b := New(sink)

	drainEvents(t, b, "run-1", []agent.Event{
		{Kind: agent.EventText, Delta: "Hel"},
		{Kind: agent.EventText, Delta: "lo"},
		{Kind: agent.EventText, Delta: " world"},
		{Kind: agent.EventComplete, Answer: "Hello world!"},
	})

	var chunkCalls []recordedCall
	for _, c := range sink.calls {
		if c.method == "chunk" {
			chunkCalls = append(chunkCalls, c)
		}
	}
	if len(chunkCalls) != 1 || chunkCalls[0].text != "Hello world!" {
		t.Errorf("chunk calls = %v, want exactly one chunk(\"Hello world!\")", chunkCalls)
	}
	last := sink.calls[len(sink.calls)-1]
	if last.method != "end" || last.text != "Hello world!" {
		t.Errorf("last call = %+v, want end/\"Hello world!\"", last)
	}
}

func TestChunkTextSplitsOnWordBoundaryInBackHalf(t *testing.T) {
	text := "one two three four five six seven eight nine ten"
	chunks := chunkText(text, 20)
	if len(chunks) < 2 {
		t.Fatalf("chunks = %v, want at least 2", chunks)
	}
	for _, c := range chunks {
		if len([]rune(c)) > 20 {
			t.Errorf("chunk %q exceeds the 20-rune limit", c)
		}
	}
	if strings.Join(chunks, " ") != text {
		t.Errorf("rejoined chunks = %q, want %q", strings.Join(chunks, " "), text)
	}
}

func TestChunkTextHardSplitsWhenNoSpaceInBackHalf(t *testing.T) {
	chunks := chunkText("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", 10)
	if len(chunks) != 3 {
		t.Fatalf("chunks = %v, want 3 chunks of 10", chunks)
	}
	for _, c := range chunks {
		if len([]rune(c)) > 10 {
			t.Errorf("chunk %q exceeds the 10-rune limit", c)
		}
	}
}

func TestChunkTextEmptyReturnsNoChunks(t *testing.T) {
	if chunks := chunkText("", 10); chunks != nil {
		t.Errorf("chunks = %v, want nil for empty text", chunks)
	}
}

func TestBridgeUsesSinkChunkLimit(t *testing.T) {
	sink := &fakeSink{supportsEdit: false, chunkLimit: 5}
	b := New(sink)

	drainEvents(t, b, "run-1", []agent.Event{
		{Kind: agent.EventComplete, Answer: "one two three"},
	})

	var chunkCalls []recordedCall
	for _, c := range sink.calls {
		if c.method == "chunk" {
			chunkCalls = append(chunkCalls, c)
		}
	}
	if len(chunkCalls) < 2 {
		t.Fatalf("chunk calls = %v, want more than one chunk at a 5-rune limit", chunkCalls)
	}
}

func TestDrainToolCallFlushesAndStartsFreshMessage(t *testing.T) {
	sink := &fakeSink{supportsEdit: true}
	b := New(sink)

	drainEvents(t, b, "run-1", []agent.Event{
		{Kind: agent.EventText, Delta: "before tool"},
		{Kind: agent.EventToolStart, Tool: "search"},
		{Kind: agent.EventToolEnd, Tool: "search"},
		{Kind: agent.EventText, Delta: "after tool"},
		{Kind: agent.EventComplete, Answer: "after tool"},
	})

	var methods []string
	for _, c := range sink.calls {
		methods = append(methods, c.method)
	}
	// The tool_start flushes the pre-tool buffer via "end", then a new
	// "start" begins before the post-tool text updates.
	wantContains := []string{"update", "end", "tool", "tool", "start", "update", "end"}
	if len(methods) != len(wantContains) {
		t.Fatalf("methods = %v, want len %d", methods, len(wantContains))
	}
	for i, m := range wantContains {
		if methods[i] != m {
			t.Errorf("methods[%d] = %q, want %q (full: %v)", i, methods[i], m, methods)
		}
	}
}

func TestDrainForwardsErrorEvents(t *testing.T) {
	sink := &fakeSink{supportsEdit: true}
	b := New(sink)

	drainEvents(t, b, "run-1", []agent.Event{
		{Kind: agent.EventError, ErrorKind: agent.ErrProvider},
	})

	if len(sink.calls) != 1 || sink.calls[0].method != "error" {
		t.Errorf("calls = %+v, want a single error call", sink.calls)
	}
}

func TestDrainEmptyAnswerStillCallsOnStreamEnd(t *testing.T) {
	sink := &fakeSink{supportsEdit: true}
	b := New(sink)

	drainEvents(t, b, "run-1", []agent.Event{
		{Kind: agent.EventComplete, Answer: ""},
	})

	if len(sink.calls) != 1 || sink.calls[0].method != "end" || sink.calls[0].text != "" {
		t.Errorf("calls = %+v, want a single end call with empty text", sink.calls)
	}
}
