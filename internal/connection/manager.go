// Package connection tracks the lifecycle of the WhatsApp channel and
// drives reconnection with bounded retries.
package connection

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State is the channel lifecycle state.
type State int

const (
	Disconnected State = iota
	AwaitingPairing
	Authenticated
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case AwaitingPairing:
		return "awaiting_pairing"
	case Authenticated:
		return "authenticated"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Callbacks are the actions the manager triggers. Reconnect runs after
// the backoff interval, RenderChallenge when a fresh pairing code must
// be shown, and Failed once the retry ceiling is exceeded.
type Callbacks struct {
	Reconnect       func()
	RenderChallenge func(code string)
	Failed          func()
}

// Snapshot is a point-in-time view for the status endpoint.
type Snapshot struct {
	State      State
	RetryCount int
	Uptime     time.Duration
}

// Manager owns the connection state and the retry counter. All state
// lives on the instance; it is injected into whatever needs to check
// channel usability.
type Manager struct {
	mu          sync.Mutex
	state       State
	retries     int
	maxRetries  int
	interval    time.Duration
	timer       *time.Timer
	connectedAt time.Time
	cb          Callbacks
	log         zerolog.Logger
}

// NewManager returns a manager in the Disconnected state. maxRetries
// bounds consecutive reconnection attempts; interval is the fixed
// backoff between them.
func NewManager(maxRetries int, interval time.Duration, cb Callbacks, log zerolog.Logger) *Manager {
	return &Manager{
		state:      Disconnected,
		maxRetries: maxRetries,
		interval:   interval,
		cb:         cb,
		log:        log.With().Str("component", "connection").Logger(),
	}
}

// HandlePairingChallenge renders a pairing code unless the channel is
// already authenticated, which guards against duplicate pairing prompts
// from the transport.
func (m *Manager) HandlePairingChallenge(code string) {
	m.mu.Lock()
	if m.state == Authenticated || m.state == Ready {
		m.mu.Unlock()
		m.log.Debug().Msg("ignoring pairing challenge on authenticated channel")
		return
	}
	m.state = AwaitingPairing
	render := m.cb.RenderChallenge
	m.mu.Unlock()

	m.log.Info().Msg("pairing challenge received")
	if render != nil {
		render(code)
	}
}

// HandleAuthenticated resets the retry budget and cancels any pending
// reconnection timer, so an out-of-band recovery does not trigger a
// stale reconnect.
func (m *Manager) HandleAuthenticated() {
	m.mu.Lock()
	m.state = Authenticated
	m.retries = 0
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.mu.Unlock()
	m.log.Info().Msg("authenticated")
}

// HandleReady enables inbound-message processing.
func (m *Manager) HandleReady() {
	m.mu.Lock()
	m.state = Ready
	m.connectedAt = time.Now()
	m.mu.Unlock()
	m.log.Info().Msg("channel ready")
}

// HandleDisconnected schedules a reconnection attempt after the fixed
// backoff interval, or transitions to Failed once the retry ceiling is
// exceeded. Only one reconnection timer may be pending at a time.
func (m *Manager) HandleDisconnected(reason string) {
	m.mu.Lock()
	if m.state == Failed {
		m.mu.Unlock()
		return
	}
	m.state = Disconnected
	m.retries++
	retries := m.retries

	if m.timer != nil {
		m.mu.Unlock()
		m.log.Warn().Str("reason", reason).Int("retry", retries).
			Msg("disconnected while reconnect already scheduled")
		return
	}

	if retries > m.maxRetries {
		m.state = Failed
		failed := m.cb.Failed
		m.mu.Unlock()
		m.log.Error().Str("reason", reason).Int("max_retries", m.maxRetries).
			Msg("retry ceiling exceeded, giving up")
		if failed != nil {
			failed()
		}
		return
	}

	m.timer = time.AfterFunc(m.interval, func() {
		m.mu.Lock()
		m.timer = nil
		m.mu.Unlock()
		m.log.Info().Int("attempt", retries).Msg("reconnecting")
		if m.cb.Reconnect != nil {
			m.cb.Reconnect()
		}
	})
	m.mu.Unlock()

	m.log.Warn().Str("reason", reason).Int("retry", retries).
		Dur("backoff", m.interval).Msg("disconnected, reconnect scheduled")
}

// Usable reports whether inbound processing and outbound sends are
// allowed.
func (m *Manager) Usable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == Ready
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Snapshot returns state, retry count, and uptime for the operator
// status endpoint. Uptime is zero unless the channel is ready.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{State: m.state, RetryCount: m.retries}
	if m.state == Ready && !m.connectedAt.IsZero() {
		snap.Uptime = time.Since(m.connectedAt)
	}
	return snap
}
