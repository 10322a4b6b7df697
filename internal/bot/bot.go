// Package bot ties the connection manager, session engine, menu
// dispatcher, and responder into the inbound-message flow and the idle
// sweep loop.
package bot

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gabrielbarbosaa1000/bot-whatsapp-loja/internal/connection"
	"github.com/gabrielbarbosaa1000/bot-whatsapp-loja/internal/menu"
	"github.com/gabrielbarbosaa1000/bot-whatsapp-loja/internal/session"
)

// Replier delivers an outbound message. Satisfied by
// *responder.Responder.
type Replier interface {
	Send(ctx context.Context, contactID, text string)
}

// Bot is the conversation orchestrator.
type Bot struct {
	conn       *connection.Manager
	sessions   *session.Engine
	reply      Replier
	sweepEvery time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

// New creates a bot. now is injectable for tests; pass nil for the real
// clock.
func New(conn *connection.Manager, sessions *session.Engine, reply Replier, sweepEvery time.Duration, now func() time.Time, log zerolog.Logger) *Bot {
	if now == nil {
		now = time.Now
	}
	return &Bot{
		conn:       conn,
		sessions:   sessions,
		reply:      reply,
		sweepEvery: sweepEvery,
		now:        now,
		log:        log.With().Str("component", "bot").Logger(),
	}
}

// HandleMessage processes one inbound message. Messages are dropped
// while the channel is not ready. Session mutation and dispatch run
// synchronously so messages from one contact keep their arrival order;
// only the send itself is asynchronous.
func (b *Bot) HandleMessage(ctx context.Context, contactID, name, body string) {
	if !b.conn.Usable() {
		b.log.Debug().Str("contact", contactID).Msg("dropping message, channel not ready")
		return
	}
	if name == "" {
		name = "Cliente"
	}

	now := b.now()
	sess := b.sessions.Touch(contactID, now)
	b.log.Info().Str("contact", contactID).Str("name", name).Msg("message received")

	r := menu.Dispatch(body, name, sess.Protocol, now.Hour())
	if r.Menu {
		b.sessions.MarkInitiated(contactID)
	}
	if r.None {
		return
	}

	go b.reply.Send(ctx, contactID, r.Text)
}

// RunSweeper periodically expires idle sessions and notifies the
// affected contacts. Blocks until ctx is done.
func (b *Bot) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(b.sweepEvery)
	defer ticker.Stop()
	b.log.Info().Dur("interval", b.sweepEvery).Msg("sweeper started")

	for {
		select {
		case <-ticker.C:
			b.SweepOnce(ctx)
		case <-ctx.Done():
			b.log.Info().Msg("sweeper stopped")
			return
		}
	}
}

// SweepOnce runs a single sweep tick. Session state changes stand even
// when the channel is down; only the notices are skipped.
func (b *Bot) SweepOnce(ctx context.Context) {
	res := b.sessions.Sweep(b.now())
	if len(res.Warnings) == 0 && len(res.Terminations) == 0 {
		return
	}
	if !b.conn.Usable() {
		b.log.Warn().Int("warnings", len(res.Warnings)).
			Int("terminations", len(res.Terminations)).
			Msg("channel not ready, idle notices skipped")
		return
	}
	for _, id := range res.Warnings {
		go b.reply.Send(ctx, id, menu.IdleWarning)
	}
	for _, id := range res.Terminations {
		go b.reply.Send(ctx, id, menu.IdleClosing)
	}
}
