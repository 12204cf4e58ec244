package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	agentcontext "github.com/arclight-ai/agentcore/internal/context"
	"github.com/arclight-ai/agentcore/internal/providers"
	"github.com/arclight-ai/agentcore/internal/safety"
	"github.com/arclight-ai/agentcore/internal/session"
	"github.com/arclight-ai/agentcore/internal/tools"
	"github.com/arclight-ai/agentcore/internal/verify"
)

// Hooks are the loop's lifecycle hooks.
type Hooks struct {
	OnBeforeFirstRun func(ctx context.Context, cctx *agentcontext.Context) error
	OnAfterComplete  func(ctx context.Context, cctx *agentcontext.Context, finalAnswer string)
}

// Options configures a Loop.
type Options struct {
	MaxIterations int // default 30
	MaxRetries    int // default 2
	BaseDelay     time.Duration // default 2s
	MaxDelay      time.Duration // default 30s
	EnableStateSnapshots bool
	Hooks         Hooks
	Safety        safety.Policy // nil = no safety enforcement
	Verifier      *verify.Verifier // nil = no verification gate
	ToolContextExtensions map[string]interface{}

	// Tracer, when non-nil, wraps each engine call and tool dispatch in an
	// OpenTelemetry span (see internal/telemetry). nil means span creation
	// is skipped entirely, so an unconfigured Loop carries no tracing cost.
	Tracer trace.Tracer

	// ToolDefs, when non-nil, overrides the registry's full tool set for
	// every ChatRequest this Loop issues — the result of running the
	// tool registry's policy engine (profile/allow/deny/group rules)
	// once at startup rather than re-filtering on every iteration.
	ToolDefs []providers.ToolDefinition
}

func (o Options) withDefaults() Options {
	if o.MaxIterations <= 0 {
		o.MaxIterations = 30
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 2
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = 2 * time.Second
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 30 * time.Second
	}
	return o
}

// RunRequest starts one user turn.
type RunRequest struct {
	SessionID string
	UserID    string
	Message   string
}

// Loop drives a session's context against a model Provider, dispatching
// tool calls through a tools.Registry.
type Loop struct {
	sessions *session.Manager
	ctxCfg   agentcontext.Config
	engine   providers.Provider
	registry *tools.Registry
	opts     Options
	toolDefs atomic.Pointer[[]providers.ToolDefinition]
}

// New creates a Loop.
func New(sessions *session.Manager, ctxCfg agentcontext.Config, engine providers.Provider, registry *tools.Registry, opts Options) *Loop {
	l := &Loop{sessions: sessions, ctxCfg: ctxCfg, engine: engine, registry: registry, opts: opts.withDefaults()}
	if opts.ToolDefs != nil {
		l.toolDefs.Store(&opts.ToolDefs)
	}
	return l
}

// SetToolDefs swaps the provider-facing tool list at runtime, e.g. after a
// config reload re-filters the Tool Registry & Dispatcher's policy. Safe to
// call while Run goroutines are in flight: the next runIteration call picks
// it up.
func (l *Loop) SetToolDefs(defs []providers.ToolDefinition) {
	l.toolDefs.Store(&defs)
}

// Run drives req to completion, returning a channel of Events. The
// channel closes after a terminal event (complete/error/aborted). Abort
// cancelling ctx surfaces as EventAborted.
func (l *Loop) Run(ctx context.Context, req RunRequest) <-chan Event {
	out := make(chan Event, 16)
	go l.run(ctx, req, out)
	return out
}

func (l *Loop) run(ctx context.Context, req RunRequest, out chan<- Event) {
	defer close(out)

	s, ok := l.sessions.GetSession(req.SessionID)
	if !ok {
		out <- Event{Kind: EventError, ErrorKind: ErrFatal, Err: fmt.Errorf("session %s not found", req.SessionID)}
		return
	}
	if s.State == session.StateCreated {
		if err := s.Activate(); err != nil {
			out <- Event{Kind: EventError, ErrorKind: ErrFatal, Err: err}
			return
		}
	}

	cctx := s.Context(l.ctxCfg, nil)

	if l.opts.Safety != nil {
		if err := l.opts.Safety.ValidateInput(req.Message); err != nil {
			var secErr *safety.SecurityError
			if errors.As(err, &secErr) {
				slog.Warn("security.injection_detected", "session", req.SessionID, "user", req.UserID, "pattern", secErr.Pattern)
			}
			out <- Event{Kind: EventError, ErrorKind: ErrSecurity, Err: err}
			_ = s.Fail(string(ErrSecurity), err.Error())
			return
		}
	}

	cctx.AddMessage(ctx, providers.Message{Role: "user", Content: req.Message})

	if l.opts.Hooks.OnBeforeFirstRun != nil {
		if err := l.opts.Hooks.OnBeforeFirstRun(ctx, cctx); err != nil {
			slog.Warn("agent.before_first_run_failed", "session", req.SessionID, "error", err)
		}
	}

	var toolResults []verify.ToolResultRecord
	var stateSnapshots []verify.StateSnapshotRecord

	for iteration := 1; iteration <= l.opts.MaxIterations; iteration++ {
		if ctx.Err() != nil {
			out <- Event{Kind: EventAborted, Reason: ctx.Err().Error()}
			_ = s.Fail(string(ErrTimeout), ctx.Err().Error())
			return
		}
		s.IncrLoopIteration()

		resp, err := l.runIteration(ctx, s, cctx, out)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				out <- Event{Kind: EventAborted, Reason: err.Error()}
				_ = s.Fail(string(ErrTimeout), err.Error())
				return
			}
			out <- Event{Kind: EventError, ErrorKind: ErrProvider, Err: err}
			_ = s.Fail(string(ErrProvider), err.Error())
			return
		}
		if resp == nil {
			continue // retried internally, proceed to next engine call with same context
		}

		assistantMsg := providers.Message{Role: "assistant", Content: resp.Content, ToolCalls: resp.ToolCalls}
		cctx.AddMessage(ctx, assistantMsg)

		if len(resp.ToolCalls) == 0 {
			final := SanitizeAssistantContent(resp.Content)
			if l.opts.Verifier != nil {
				outcome := l.opts.Verifier.Verify(ctx, verify.Context{
					TaskDescription: req.Message,
					FinalAnswer:     final,
					Messages:        cctx.GetMessages(),
					ToolResults:     toolResults,
					StateSnapshots:  stateSnapshots,
				})
				if outcome.Outcome == verify.Failure && iteration < l.opts.MaxIterations {
					cctx.AddMessage(ctx, providers.Message{
						Role:    "user",
						Content: "[verification] " + outcome.Reasoning,
					})
					continue
				}
			}
			if !IsSilentReply(final) {
				out <- Event{Kind: EventComplete, Answer: final}
			} else {
				out <- Event{Kind: EventComplete, Answer: ""}
			}
			if l.opts.Hooks.OnAfterComplete != nil {
				l.opts.Hooks.OnAfterComplete(ctx, cctx, final)
			}
			_ = s.Complete()
			return
		}

		l.dispatchToolCalls(ctx, s, cctx, resp.ToolCalls, out, &toolResults, &stateSnapshots)

		for _, steered := range s.DrainSteering() {
			cctx.AddMessage(ctx, providers.Message{Role: "user", Content: steered})
		}
	}

	out <- Event{Kind: EventError, ErrorKind: ErrIterationLimit, Err: fmt.Errorf("iteration limit (%d) reached", l.opts.MaxIterations)}
	_ = s.Fail(string(ErrIterationLimit), "iteration limit reached")
}

// runIteration calls the engine once, retrying transient failures with
// backoff+jitter up to MaxRetries. A nil, nil return means
// "retried — caller should loop again with the same context" only when
// retries are exhausted by emitting an error upstream instead; in
// practice this function only returns nil *after* propagating the
// emitted error.
func (l *Loop) runIteration(ctx context.Context, s *session.Session, cctx *agentcontext.Context, out chan<- Event) (*providers.ChatResponse, error) {
	var lastErr error

	if l.opts.Tracer != nil {
		var span trace.Span
		ctx, span = l.opts.Tracer.Start(ctx, "agent.iteration", trace.WithAttributes(
			attribute.String("session.id", s.ID),
		))
		defer func() {
			if lastErr != nil {
				span.SetStatus(codes.Error, lastErr.Error())
			}
			span.End()
		}()
	}

	var toolDefs []providers.ToolDefinition
	if p := l.toolDefs.Load(); p != nil {
		toolDefs = *p
	} else {
		toolDefs = l.registry.ProviderDefs()
	}
	req := providers.ChatRequest{
		Messages: cctx.GetMessages(),
		Tools:    toolDefs,
	}

	for attempt := 0; attempt <= l.opts.MaxRetries; attempt++ {
		s.IncrLLMCall()
		resp, err := l.engine.ChatStream(ctx, req, func(chunk providers.StreamChunk) {
			if chunk.Thinking != "" {
				out <- Event{Kind: EventThinking, Delta: chunk.Thinking}
			}
			if chunk.Content != "" {
				out <- Event{Kind: EventText, Delta: chunk.Content}
			}
		})
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if attempt == l.opts.MaxRetries {
			break
		}
		out <- Event{Kind: EventError, ErrorKind: ErrProvider, Err: fmt.Errorf("retrying after provider error: %w", err), Reason: "retrying"}
		delay := backoffDelay(attempt, l.opts.BaseDelay, l.opts.MaxDelay)
		if sleepErr := sleepCancellable(ctx, delay); sleepErr != nil {
			return nil, sleepErr
		}
	}
	return nil, lastErr
}

// dispatchToolCalls executes every tool call from one engine turn, in
// call order, applying input validation, schema validation, the full
// tool_start/tool_progress*/tool_end event sequence, and output
// sanitization.
func (l *Loop) dispatchToolCalls(ctx context.Context, s *session.Session, cctx *agentcontext.Context, calls []providers.ToolCall, out chan<- Event, toolResults *[]verify.ToolResultRecord, stateSnapshots *[]verify.StateSnapshotRecord) {
	for _, tc := range calls {
		s.IncrToolInvocation()

		argsJSON, _ := json.Marshal(tc.Arguments)
		if l.opts.Safety != nil {
			if err := l.opts.Safety.ValidateInput(string(argsJSON)); err != nil {
				result := tools.ErrorResult("blocked: " + err.Error())
				out <- Event{Kind: EventError, ErrorKind: ErrSecurity, Err: err, Tool: tc.Name}
				cctx.AddMessage(ctx, toolResultMessage(tc, result.ForLLM))
				*toolResults = append(*toolResults, verify.ToolResultRecord{ToolName: tc.Name, IsError: true, Output: result.ForLLM})
				continue
			}
		}

		t, ok := l.registry.Get(tc.Name)
		if !ok {
			result := tools.ErrorResult(fmt.Sprintf("unknown tool: %s", tc.Name))
			cctx.AddMessage(ctx, toolResultMessage(tc, result.ForLLM))
			*toolResults = append(*toolResults, verify.ToolResultRecord{ToolName: tc.Name, IsError: true, Output: result.ForLLM})
			continue
		}

		var preSnapshot interface{}
		if l.opts.EnableStateSnapshots {
			if snapper, ok := t.(tools.StateSnapshotter); ok {
				preSnapshot, _ = snapper.GetStateSnapshot(tc.Arguments)
			}
		}

		if vr := t.Validate(tc.Arguments); !vr.Valid {
			result := tools.ErrorResult(fmt.Sprintf("invalid arguments: %v", vr.Errors))
			cctx.AddMessage(ctx, toolResultMessage(tc, result.ForLLM))
			*toolResults = append(*toolResults, verify.ToolResultRecord{ToolName: tc.Name, IsError: true, Output: result.ForLLM})
			continue
		}

		out <- Event{Kind: EventToolStart, Tool: tc.Name, Args: tc.Arguments}

		tcx := tools.ToolContext{
			SessionID: s.ID,
			Safety:    l.opts.Safety,
			Extensions: l.opts.ToolContextExtensions,
			Progress: func(payload interface{}) {
				out <- Event{Kind: EventToolProgress, Tool: tc.Name, ToolResult: payload}
			},
		}

		result := t.Execute(ctx, tc.Arguments, tcx)

		out <- Event{Kind: EventToolEnd, Tool: tc.Name, ToolResult: result}

		if l.opts.EnableStateSnapshots {
			if snapper, ok := t.(tools.StateSnapshotter); ok {
				postSnapshot, _ := snapper.GetStateSnapshot(tc.Arguments)
				*stateSnapshots = append(*stateSnapshots, verify.StateSnapshotRecord{ToolName: tc.Name, Pre: preSnapshot, Post: postSnapshot})
			}
		}

		forLLM := result.ForLLM
		if l.opts.Safety != nil {
			clean, matched := l.opts.Safety.SanitizeOutput(forLLM)
			forLLM = clean
			if len(matched) > 0 {
				slog.Warn("security.output_redacted", "tool", tc.Name, "patterns", matched)
			}
		}

		*toolResults = append(*toolResults, verify.ToolResultRecord{ToolName: tc.Name, IsError: result.IsError, Output: forLLM})
		cctx.AddMessage(ctx, toolResultMessage(tc, forLLM))
	}
}

func toolResultMessage(tc providers.ToolCall, content string) providers.Message {
	return providers.Message{Role: "tool", Content: content, ToolCallID: tc.ID}
}
