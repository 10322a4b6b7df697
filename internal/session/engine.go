// Package session tracks per-contact conversational state and expires
// idle conversations.
package session

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Session is the in-memory record for one contact. It does not survive
// process restarts.
type Session struct {
	LastActivityAt   time.Time
	Warned           bool
	ContactInitiated bool

	// Protocol is the ticket number quoted back to the contact. One
	// per session, assigned on creation.
	Protocol string
}

// Result lists the contacts a sweep decided to warn or terminate. The
// caller is responsible for the outbound notices.
type Result struct {
	Warnings     []string
	Terminations []string
}

// Engine owns the contact → session map. The sweep is the only
// deletion path.
type Engine struct {
	mu       sync.Mutex
	sessions map[string]*Session

	warnAfter time.Duration
	endAfter  time.Duration
	log       zerolog.Logger
}

// NewEngine creates an engine with the given idle thresholds.
func NewEngine(warnAfter, endAfter time.Duration, log zerolog.Logger) *Engine {
	return &Engine{
		sessions:  make(map[string]*Session),
		warnAfter: warnAfter,
		endAfter:  endAfter,
		log:       log.With().Str("component", "session").Logger(),
	}
}

// Touch records activity for a contact, creating the session on first
// contact. Any pending idle warning is cleared. Returns a copy of the
// updated session.
func (e *Engine) Touch(contactID string, now time.Time) Session {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[contactID]
	if !ok {
		s = &Session{Protocol: newProtocol()}
		e.sessions[contactID] = s
		e.log.Debug().Str("contact", contactID).Str("protocol", s.Protocol).
			Msg("session created")
	}
	s.LastActivityAt = now
	s.Warned = false
	return *s
}

// MarkInitiated flags that the contact opened the conversation with a
// greeting or menu command. No-op for unknown contacts.
func (e *Engine) MarkInitiated(contactID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.sessions[contactID]; ok {
		s.ContactInitiated = true
	}
}

// Sweep scans every session at the given instant. Sessions idle past
// the termination threshold are removed and reported; sessions past the
// warning threshold are warned once until activity resets them. The
// termination check runs first, so a session that crossed both
// thresholds in one tick is terminated, never warned then terminated.
func (e *Engine) Sweep(now time.Time) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Snapshot keys so deletion does not race the iteration.
	ids := make([]string, 0, len(e.sessions))
	for id := range e.sessions {
		ids = append(ids, id)
	}

	var res Result
	for _, id := range ids {
		s := e.sessions[id]
		idle := now.Sub(s.LastActivityAt)
		switch {
		case idle >= e.endAfter:
			delete(e.sessions, id)
			res.Terminations = append(res.Terminations, id)
			e.log.Info().Str("contact", id).Dur("idle", idle).Msg("session terminated")
		case idle >= e.warnAfter && !s.Warned:
			s.Warned = true
			res.Warnings = append(res.Warnings, id)
			e.log.Info().Str("contact", id).Dur("idle", idle).Msg("idle warning")
		}
	}
	return res
}

// Len returns the number of live sessions.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

// Get returns a copy of the session for a contact, if present.
func (e *Engine) Get(contactID string) (Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[contactID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// newProtocol derives a short ticket number from a UUID.
func newProtocol() string {
	return strings.ToUpper(uuid.New().String()[:8])
}
