// Package gateway implements the WebSocket/HTTP bridge that exposes
// sessions, the agent loop, and the canvas state to chat/canvas clients.
// A gorilla/websocket upgrader, an http.ServeMux-based BuildMux, a
// CORS-origin allowlist check, and a per-connection Client registered
// for broadcast back a single-tenant personal assistant surface: one
// canvas, one session manager, one agent loop, driven by typed C2S/S2C
// frames instead of a JSON-RPC method table.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/arclight-ai/agentcore/internal/agent"
	"github.com/arclight-ai/agentcore/internal/canvas"
	"github.com/arclight-ai/agentcore/internal/config"
	"github.com/arclight-ai/agentcore/internal/router"
	"github.com/arclight-ai/agentcore/internal/stream"
	"github.com/arclight-ai/agentcore/pkg/protocol"
)

// Server bridges WebSocket/HTTP clients to the message router, the
// agent loop, and the canvas.
type Server struct {
	cfg         *config.Config
	router      *router.Router
	loop        *agent.Loop
	canvasState *canvas.State

	upgrader    websocket.Upgrader
	rateLimiter *RateLimiter

	mu      sync.RWMutex
	clients map[string]*Client
	runs    map[string]context.CancelFunc // sessionID -> in-flight run cancel

	httpServer *http.Server
	mux        *http.ServeMux
}

// NewServer builds a Server wired to the given message router, agent
// loop, and canvas state.
func NewServer(cfg *config.Config, rt *router.Router, loop *agent.Loop, canvasState *canvas.State) *Server {
	s := &Server{
		cfg:         cfg,
		router:      rt,
		loop:        loop,
		canvasState: canvasState,
		clients:     make(map[string]*Client),
		runs:        make(map[string]context.CancelFunc),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	s.rateLimiter = NewRateLimiter(cfg.Gateway.RateLimitRPM, 10)
	return s
}

// checkOrigin allows any request with no Origin header (non-browser
// clients) and otherwise checks against cfg.Gateway.AllowedOrigins; an
// empty allowlist allows all origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(s.cfg.Gateway.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range s.cfg.Gateway.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// authorize checks the bearer token against cfg.Gateway.Token. An empty
// configured token disables auth entirely (local/dev use).
func (s *Server) authorize(r *http.Request) bool {
	if s.cfg.Gateway.Token == "" {
		return true
	}
	auth := r.Header.Get("Authorization")
	if tok, ok := strings.CutPrefix(auth, "Bearer "); ok && tok == s.cfg.Gateway.Token {
		return true
	}
	return r.URL.Query().Get("token") == s.cfg.Gateway.Token
}

// BuildMux registers the gateway's HTTP routes.
func (s *Server) BuildMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	s.mux = mux
	return mux
}

// Start listens on cfg.Gateway.Host:Port until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.mux == nil {
		s.BuildMux()
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.Gateway.Host, s.cfg.Gateway.Port)
	s.httpServer = &http.Server{Addr: addr, Handler: s.mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
	}()

	slog.Info("gateway.listening", "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","protocol":%d}`, protocol.ProtocolVersion)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if !s.rateLimiter.Allow(clientKey(r)) {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("gateway.ws_upgrade_failed", "error", err)
		return
	}

	client := NewClient(conn, s)
	s.registerClient(client)
	defer s.unregisterClient(client)

	snapshot, err := s.canvasState.MarshalSnapshot()
	if err == nil {
		var payload interface{}
		_ = json.Unmarshal(snapshot, &payload)
		client.SendEvent(*protocol.NewEvent(protocol.S2CCanvasSnapshot, payload))
	}

	client.Run(r.Context())
}

func clientKey(r *http.Request) string {
	if tok := r.URL.Query().Get("token"); tok != "" {
		return tok
	}
	return r.RemoteAddr
}

func (s *Server) registerClient(c *Client) {
	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()
}

func (s *Server) unregisterClient(c *Client) {
	s.mu.Lock()
	delete(s.clients, c.id)
	s.mu.Unlock()
}

// BroadcastEvent fans a frame out to every connected client.
func (s *Server) BroadcastEvent(frame protocol.EventFrame) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		c.SendEvent(frame)
	}
}

// WatchCanvas forwards every canvas change to all connected clients
// until ctx is cancelled. Run as its own goroutine from cmd/serve.go.
func (s *Server) WatchCanvas(ctx context.Context) {
	changes, unsubscribe := s.canvasState.Subscribe()
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			s.BroadcastEvent(*protocol.NewEvent(protocol.S2CCanvasChange, change))
		}
	}
}

// c2sMessagePayload is the payload of a c2s:message frame. GroupID and
// ThreadID are optional and only meaningful for channels with group/
// thread semantics; a bare WebSocket client leaves them empty and gets
// a private per-user route.
type c2sMessagePayload struct {
	UserID   string `json:"userId"`
	GroupID  string `json:"groupId,omitempty"`
	ThreadID string `json:"threadId,omitempty"`
	Message  string `json:"message"`
}

func (s *Server) handleClientFrame(ctx context.Context, c *Client, f clientFrame) {
	switch f.Type {
	case protocol.C2SPing:
		c.SendEvent(*protocol.NewEvent(protocol.S2CAgentStatus, map[string]string{"status": "pong"}))

	case protocol.C2SMessage:
		var p c2sMessagePayload
		if err := json.Unmarshal(f.Payload, &p); err != nil || p.Message == "" {
			c.SendEvent(*protocol.NewEvent(protocol.S2CError, map[string]string{"error": "message is required"}))
			return
		}
		s.startRun(ctx, c, p)

	case protocol.C2SAbort:
		s.abortRun(c.sessionID)

	case protocol.C2SClick, protocol.C2SFormSubmit, protocol.C2SDrag:
		s.handleCanvasInteraction(c, f)

	default:
		slog.Warn("gateway.unknown_c2s_frame", "type", f.Type)
	}
}

type canvasInteractionPayload struct {
	NodeID string                 `json:"nodeId"`
	Props  map[string]interface{} `json:"props,omitempty"`
}

func (s *Server) handleCanvasInteraction(c *Client, f clientFrame) {
	var p canvasInteractionPayload
	if err := json.Unmarshal(f.Payload, &p); err != nil || p.NodeID == "" {
		c.SendEvent(*protocol.NewEvent(protocol.S2CError, map[string]string{"error": "nodeId is required"}))
		return
	}
	if _, err := s.canvasState.UpdateNode(p.NodeID, nil, p.Props); err != nil {
		c.SendEvent(*protocol.NewEvent(protocol.S2CError, map[string]string{"error": err.Error()}))
	}
}

func (s *Server) startRun(ctx context.Context, c *Client, p c2sMessagePayload) {
	sessionID, sess := s.router.Route(router.Inbound{
		ChannelID: "ws",
		GroupID:   p.GroupID,
		ThreadID:  p.ThreadID,
		UserID:    p.UserID,
	})
	c.sessionID = sessionID

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.runs[sess.ID] = cancel
	s.mu.Unlock()

	runID := uuid.NewString()
	sink := &wsSink{client: c}
	bridge := stream.New(sink)

	events := s.loop.Run(runCtx, agent.RunRequest{SessionID: sess.ID, UserID: p.UserID, Message: p.Message})

	go func() {
		bridge.Drain(runCtx, runID, events)
		s.mu.Lock()
		delete(s.runs, sess.ID)
		s.mu.Unlock()
		_ = s.router.Sessions().Save(sess.ID)
	}()
}

func (s *Server) abortRun(sessionID string) {
	s.mu.Lock()
	cancel, ok := s.runs[sessionID]
	s.mu.Unlock()
	if ok {
		cancel()
	}
}

// wsSink adapts a Client to stream.Sink, encoding every agent event as
// an S2C text/tool/error frame.
type wsSink struct {
	client *Client
}

func (w *wsSink) OnStreamStart(ctx context.Context, runID string) {
	w.client.SendEvent(*protocol.NewEvent(protocol.S2CAgentStatus, map[string]string{"runId": runID, "status": "streaming"}))
}

func (w *wsSink) OnStreamUpdate(ctx context.Context, runID, fullText string) {
	w.client.SendEvent(*protocol.NewEvent(protocol.S2CTextDelta, map[string]string{"runId": runID, "text": fullText}))
}

func (w *wsSink) OnStreamChunk(ctx context.Context, runID, delta string) {
	w.client.SendEvent(*protocol.NewEvent(protocol.S2CTextDelta, map[string]string{"runId": runID, "delta": delta}))
}

func (w *wsSink) OnStreamEnd(ctx context.Context, runID, fullText string) {
	w.client.SendEvent(*protocol.NewEvent(protocol.S2CTextComplete, map[string]string{"runId": runID, "text": fullText}))
}

func (w *wsSink) OnToolEvent(ctx context.Context, runID string, ev agent.Event) {
	switch ev.Kind {
	case agent.EventToolStart:
		w.client.SendEvent(*protocol.NewEvent(protocol.S2CToolStart, map[string]interface{}{"runId": runID, "tool": ev.Tool, "args": ev.Args}))
	case agent.EventToolProgress:
		w.client.SendEvent(*protocol.NewEvent(protocol.S2CToolProgress, map[string]interface{}{"runId": runID, "tool": ev.Tool, "result": ev.ToolResult}))
	case agent.EventToolEnd:
		w.client.SendEvent(*protocol.NewEvent(protocol.S2CToolEnd, map[string]interface{}{"runId": runID, "tool": ev.Tool, "result": ev.ToolResult}))
	case agent.EventThinking:
		w.client.SendEvent(*protocol.NewEvent(protocol.S2CAgentStatus, map[string]string{"runId": runID, "status": "thinking", "delta": ev.Delta}))
	}
}

func (w *wsSink) OnError(ctx context.Context, runID string, ev agent.Event) {
	msg := ev.Reason
	if ev.Err != nil {
		msg = ev.Err.Error()
	}
	w.client.SendEvent(*protocol.NewEvent(protocol.S2CError, map[string]interface{}{"runId": runID, "kind": string(ev.ErrorKind), "error": msg}))
}

func (w *wsSink) SupportsEdit() bool { return true }
