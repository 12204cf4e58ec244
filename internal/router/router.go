// Package router implements the message router: it maps an
// inbound message to a session via a composite routing key, by priority
// thread > group+user > private.
package router

import (
	"fmt"
	"sync"

	"github.com/arclight-ai/agentcore/internal/session"
)

// Inbound is the subset of an inbound message the router needs to
// compute a routing key.
type Inbound struct {
	ChannelID string
	GroupID   string
	ThreadID  string
	UserID    string
}

// Template supplies defaults for freshly created sessions when a route
// has no existing session.
type Template struct {
	EngineID     string
	Model        string
	Provider     string
	SystemPrompt string
}

// Key computes the composite routing key for an inbound message by
// priority:
//  1. <channel>:group:<gid>:thread:<tid>  — thread, shared by all users
//  2. <channel>:group:<gid>:user:<uid>    — group without thread, per user
//  3. <channel>:<uid>                     — private / direct message
//
// Returns "" only when ChannelID is missing.
func Key(in Inbound) string {
	if in.ChannelID == "" {
		return ""
	}
	if in.GroupID != "" && in.ThreadID != "" {
		return fmt.Sprintf("%s:group:%s:thread:%s", in.ChannelID, in.GroupID, in.ThreadID)
	}
	if in.GroupID != "" {
		return fmt.Sprintf("%s:group:%s:user:%s", in.ChannelID, in.GroupID, in.UserID)
	}
	return fmt.Sprintf("%s:%s", in.ChannelID, in.UserID)
}

// Router maps routing keys to session ids, backed by a session.Manager.
type Router struct {
	sessions *session.Manager
	template Template

	mu     sync.Mutex
	routes map[string]string // routing key → sessionId
}

// New creates a Router over the given session manager and default
// session template.
func New(sessions *session.Manager, tmpl Template) *Router {
	return &Router{
		sessions: sessions,
		template: tmpl,
		routes:   make(map[string]string),
	}
}

// Sessions returns the underlying session manager, for callers (e.g. the
// gateway) that need to persist or list sessions directly.
func (r *Router) Sessions() *session.Manager {
	return r.sessions
}

// Route resolves an inbound message to a session, creating one from the
// default template if the routing key is new or its mapped session has
// ended. Returns ("", nil) only when the message carries no ChannelID.
func (r *Router) Route(in Inbound) (string, *session.Session) {
	key := Key(in)
	if key == "" {
		return "", nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if sessionID, ok := r.routes[key]; ok {
		if s, ok := r.sessions.GetSession(sessionID); ok {
			if s.State != session.StateCompleted && s.State != session.StateFailed {
				r.sessions.TouchSession(sessionID)
				return sessionID, s
			}
		}
		// Stale route: mapped session no longer exists or has ended.
		delete(r.routes, key)
	}

	s := r.sessions.CreateSession(in.ChannelID, in.UserID, r.template.EngineID, r.template.SystemPrompt, r.template.Model)
	r.routes[key] = s.ID
	return s.ID, s
}

// EvictStale removes route entries whose sessions have been ended
// externally.
func (r *Router) EvictStale() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.routes))
	keyOf := make(map[string]string, len(r.routes))
	for key, id := range r.routes {
		ids = append(ids, id)
		keyOf[id] = key
	}

	gone := r.sessions.EvictStale(ids)
	for _, id := range gone {
		delete(r.routes, keyOf[id])
	}
	return len(gone)
}
