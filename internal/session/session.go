// Package session implements session lifecycle and the session manager:
// a map+mutex registry with atomic file persistence, a lifecycle state
// machine, a steering message queue, and per-session run counters.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	agentcontext "github.com/arclight-ai/agentcore/internal/context"
	"github.com/arclight-ai/agentcore/internal/providers"
)

// State is a Session's lifecycle state.
type State string

const (
	StateCreated   State = "created"
	StateActive    State = "active"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// ErrorEntry records one error observed during a session's lifetime.
type ErrorEntry struct {
	At      time.Time `json:"at"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
}

// Counters tracks per-session run metrics.
type Counters struct {
	LoopIterations int64 `json:"loopIterations"`
	ToolInvocations int64 `json:"toolInvocations"`
	LLMCalls        int64 `json:"llmCalls"`
}

// Session is one conversation: config, context, steering queue,
// lifecycle, and metrics.
type Session struct {
	ID        string    `json:"sessionId"`
	ChannelID string    `json:"channelId"`
	UserID    string    `json:"userId"`
	EngineID  string    `json:"engineId"`
	Model     string    `json:"model"`

	State     State        `json:"state"`
	StartedAt time.Time    `json:"startedAt"`
	EndedAt   *time.Time   `json:"endedAt,omitempty"`
	Errors    []ErrorEntry `json:"errors,omitempty"`
	Counters  Counters     `json:"counters"`

	mu       sync.Mutex
	steering []string
	ctx      *agentcontext.Context

	// Persisted provider-level history for compatibility with the
	// on-disk format and for sessions that share a Context across
	// multiple Session records.
	Messages []providers.Message `json:"messages"`
	Summary  string              `json:"summary,omitempty"`
	Updated  time.Time           `json:"updated"`
}

// Context returns the session's owned Context, lazily attaching one
// built from cfg the first time it's needed.
func (s *Session) Context(cfg agentcontext.Config, summarizer agentcontext.SummarizerFunc) *agentcontext.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		s.ctx = agentcontext.New(cfg, summarizer)
		for _, m := range s.Messages {
			s.ctx.AddMessage(nil, m) //nolint:staticcheck // replay, no compaction callback needed
		}
	}
	return s.ctx
}

// Activate transitions created→active.
func (s *Session) Activate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State != StateCreated && s.State != StatePaused {
		return fmt.Errorf("session %s: cannot activate from state %s", s.ID, s.State)
	}
	s.State = StateActive
	return nil
}

// Pause transitions active→paused.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State != StateActive {
		return fmt.Errorf("session %s: cannot pause from state %s", s.ID, s.State)
	}
	s.State = StatePaused
	return nil
}

// Complete transitions active|paused→completed, clearing the steering
// queue and stamping EndedAt.
func (s *Session) Complete() error {
	return s.terminate(StateCompleted, "")
}

// Fail transitions active|paused→failed, recording the triggering error.
func (s *Session) Fail(kind, message string) error {
	s.mu.Lock()
	s.Errors = append(s.Errors, ErrorEntry{At: time.Now(), Kind: kind, Message: message})
	s.mu.Unlock()
	return s.terminate(StateFailed, message)
}

func (s *Session) terminate(to State, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State != StateActive && s.State != StatePaused {
		return fmt.Errorf("session %s: cannot terminate from state %s", s.ID, s.State)
	}
	s.State = to
	now := time.Now()
	s.EndedAt = &now
	s.steering = nil
	return nil
}

// PushSteering appends a mid-turn user message to the FIFO steering queue.
func (s *Session) PushSteering(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steering = append(s.steering, text)
}

// DrainSteering removes and returns all currently queued steering
// messages, in FIFO order.
func (s *Session) DrainSteering() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.steering) == 0 {
		return nil
	}
	out := s.steering
	s.steering = nil
	return out
}

// IncrLoopIteration, IncrToolInvocation, IncrLLMCall bump run counters.
func (s *Session) IncrLoopIteration() { s.mu.Lock(); s.Counters.LoopIterations++; s.mu.Unlock() }
func (s *Session) IncrToolInvocation() { s.mu.Lock(); s.Counters.ToolInvocations++; s.mu.Unlock() }
func (s *Session) IncrLLMCall() { s.mu.Lock(); s.Counters.LLMCalls++; s.mu.Unlock() }

// Manager handles session lifecycle, persistence, and lookup: a
// map+RWMutex registry with atomic file writes for durability.
type Manager struct {
	sessions map[string]*Session
	touched  map[string]time.Time
	mu       sync.RWMutex
	storage  string
}

// NewManager creates a Manager, optionally backed by a storage directory
// for atomic JSON persistence. An empty storage path means in-memory
// only: sessions do not survive a process restart unless a directory is
// given.
func NewManager(storage string) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		touched:  make(map[string]time.Time),
		storage:  storage,
	}
	if storage != "" {
		os.MkdirAll(storage, 0o755)
		m.loadAll()
	}
	return m
}

// CreateSession creates a new session in state "created".
func (m *Manager) CreateSession(channelID, userID, engineID, systemPrompt, model string) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		ChannelID: channelID,
		UserID:    userID,
		EngineID:  engineID,
		Model:     model,
		State:     StateCreated,
		StartedAt: time.Now(),
		Updated:   time.Now(),
		Messages:  []providers.Message{},
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.touched[s.ID] = time.Now()
	m.mu.Unlock()
	return s
}

// GetSession looks up a session by id.
func (m *Manager) GetSession(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// TouchSession refreshes a session's last-touch timestamp for eviction
// purposes, without altering its lifecycle state.
func (m *Manager) TouchSession(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; ok {
		m.touched[id] = time.Now()
	}
}

// EndSession ends a session (completed outcome) and releases attached
// resources.
func (m *Manager) EndSession(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("session %s not found", id)
	}
	if s.State == StateActive || s.State == StatePaused {
		if err := s.Complete(); err != nil {
			return err
		}
	}
	s.ctx = nil
	return nil
}

// ListActive returns all sessions currently in state active or paused.
func (m *Manager) ListActive() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Session
	for _, s := range m.sessions {
		if s.State == StateActive || s.State == StatePaused {
			out = append(out, s)
		}
	}
	return out
}

// EndAll ends every session, for graceful shutdown.
func (m *Manager) EndAll() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	for _, id := range ids {
		_ = m.EndSession(id)
	}
}

// EvictStale removes route entries whose sessions were ended externally.
// Returns the number of entries purged. The caller (router) owns the
// route table; this only reports which session ids are gone so the
// caller can purge its own map.
func (m *Manager) EvictStale(ids []string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var gone []string
	for _, id := range ids {
		s, ok := m.sessions[id]
		if !ok || s.State == StateCompleted || s.State == StateFailed {
			gone = append(gone, id)
		}
	}
	return gone
}

// Save persists a session to disk atomically (temp file + fsync + rename).
func (m *Manager) Save(id string) error {
	if m.storage == "" {
		return nil
	}
	m.mu.RLock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.RUnlock()
		return nil
	}
	snapshot := *s
	if len(s.Messages) > 0 {
		snapshot.Messages = make([]providers.Message, len(s.Messages))
		copy(snapshot.Messages, s.Messages)
	}
	m.mu.RUnlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	filename := sanitizeFilename(id)
	if filename == "." || !filepath.IsLocal(filename) || strings.ContainsAny(filename, `/\`) {
		return os.ErrInvalid
	}
	sessionPath := filepath.Join(m.storage, filename+".json")

	tmpFile, err := os.CreateTemp(m.storage, "session-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return err
	}
	tmpFile.Close()

	if err := os.Rename(tmpPath, sessionPath); err != nil {
		return err
	}
	cleanup = false
	return nil
}

func (m *Manager) loadAll() {
	files, err := os.ReadDir(m.storage)
	if err != nil {
		return
	}
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(m.storage, f.Name()))
		if err != nil {
			continue
		}
		var s Session
		if err := json.Unmarshal(data, &s); err != nil {
			continue
		}
		m.sessions[s.ID] = &s
		m.touched[s.ID] = time.Now()
	}
}

func sanitizeFilename(key string) string {
	return strings.ReplaceAll(key, ":", "_")
}
