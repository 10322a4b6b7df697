package connection

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	reconnects chan struct{}
	renders    chan string
	failed     atomic.Bool
}

func newRecorder() *recorder {
	return &recorder{
		reconnects: make(chan struct{}, 16),
		renders:    make(chan string, 16),
	}
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		Reconnect:       func() { r.reconnects <- struct{}{} },
		RenderChallenge: func(code string) { r.renders <- code },
		Failed:          func() { r.failed.Store(true) },
	}
}

func waitReconnect(t *testing.T, r *recorder) {
	t.Helper()
	select {
	case <-r.reconnects:
	case <-time.After(time.Second):
		t.Fatal("no reconnect attempt within deadline")
	}
}

func requireNoReconnect(t *testing.T, r *recorder, within time.Duration) {
	t.Helper()
	select {
	case <-r.reconnects:
		t.Fatal("unexpected reconnect attempt")
	case <-time.After(within):
	}
}

func TestInitialState(t *testing.T) {
	m := NewManager(5, time.Millisecond, Callbacks{}, zerolog.Nop())
	require.Equal(t, Disconnected, m.State())
	require.False(t, m.Usable())
}

func TestReadyEnablesChannel(t *testing.T) {
	m := NewManager(5, time.Millisecond, Callbacks{}, zerolog.Nop())
	m.HandleAuthenticated()
	require.False(t, m.Usable())
	m.HandleReady()
	require.True(t, m.Usable())
	require.Equal(t, Ready, m.State())
}

func TestPairingChallengeRendered(t *testing.T) {
	r := newRecorder()
	m := NewManager(5, time.Millisecond, r.callbacks(), zerolog.Nop())

	m.HandlePairingChallenge("code-1")
	require.Equal(t, AwaitingPairing, m.State())
	select {
	case code := <-r.renders:
		require.Equal(t, "code-1", code)
	default:
		t.Fatal("challenge was not rendered")
	}
}

func TestPairingChallengeIgnoredWhenAuthenticated(t *testing.T) {
	r := newRecorder()
	m := NewManager(5, time.Millisecond, r.callbacks(), zerolog.Nop())

	m.HandleAuthenticated()
	m.HandlePairingChallenge("stale")
	require.Equal(t, Authenticated, m.State())
	require.Empty(t, r.renders)

	m.HandleReady()
	m.HandlePairingChallenge("stale")
	require.Equal(t, Ready, m.State())
	require.Empty(t, r.renders)
}

func TestRetryCeiling(t *testing.T) {
	r := newRecorder()
	m := NewManager(5, 2*time.Millisecond, r.callbacks(), zerolog.Nop())

	// Five disconnects, each after the previous attempt fired: five
	// scheduled reconnects.
	for i := 0; i < 5; i++ {
		m.HandleDisconnected("logout")
		waitReconnect(t, r)
		require.Equal(t, i+1, m.Snapshot().RetryCount)
		require.False(t, r.failed.Load())
	}

	// The sixth exceeds the ceiling.
	m.HandleDisconnected("logout")
	require.Equal(t, Failed, m.State())
	require.True(t, r.failed.Load())
	requireNoReconnect(t, r, 20*time.Millisecond)

	// Further disconnects are inert once failed.
	m.HandleDisconnected("logout")
	require.Equal(t, Failed, m.State())
}

func TestRetriesResetOnAuthentication(t *testing.T) {
	r := newRecorder()
	m := NewManager(5, 2*time.Millisecond, r.callbacks(), zerolog.Nop())

	m.HandleDisconnected("blip")
	waitReconnect(t, r)
	m.HandleDisconnected("blip")
	waitReconnect(t, r)
	require.Equal(t, 2, m.Snapshot().RetryCount)

	m.HandleAuthenticated()
	require.Zero(t, m.Snapshot().RetryCount)
}

func TestAuthenticationCancelsPendingReconnect(t *testing.T) {
	r := newRecorder()
	m := NewManager(5, 10*time.Millisecond, r.callbacks(), zerolog.Nop())

	m.HandleDisconnected("blip")
	// Recover out of band before the timer fires.
	m.HandleAuthenticated()
	requireNoReconnect(t, r, 50*time.Millisecond)
}

func TestSingleReconnectTimer(t *testing.T) {
	r := newRecorder()
	m := NewManager(5, 10*time.Millisecond, r.callbacks(), zerolog.Nop())

	// A second disconnect while a reconnect is already scheduled must
	// not create a second timer.
	m.HandleDisconnected("blip")
	m.HandleDisconnected("blip")
	require.Equal(t, 2, m.Snapshot().RetryCount)

	waitReconnect(t, r)
	requireNoReconnect(t, r, 50*time.Millisecond)
}

func TestSnapshotUptime(t *testing.T) {
	m := NewManager(5, time.Millisecond, Callbacks{}, zerolog.Nop())
	require.Zero(t, m.Snapshot().Uptime)

	m.HandleReady()
	time.Sleep(5 * time.Millisecond)
	require.Greater(t, m.Snapshot().Uptime, time.Duration(0))

	m.HandleDisconnected("blip")
	require.Zero(t, m.Snapshot().Uptime)
}
