// Package responder delivers outbound messages with a simulated typing
// pause.
package responder

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sender is the outbound half of the transport.
type Sender interface {
	SendTyping(ctx context.Context, contactID string) error
	SendText(ctx context.Context, contactID, body string) error
}

// Responder wraps a Sender with a typing indicator and a fixed delay
// before every message. The delay is a product behavior: replies should
// feel typed by a person, not fired by a machine.
type Responder struct {
	sender Sender
	delay  time.Duration
	log    zerolog.Logger
}

// New creates a responder with the given typing delay.
func New(sender Sender, delay time.Duration, log zerolog.Logger) *Responder {
	return &Responder{
		sender: sender,
		delay:  delay,
		log:    log.With().Str("component", "responder").Logger(),
	}
}

// Send shows the typing indicator, waits, then sends the text. Failures
// are logged and swallowed: a lost reply must never crash the inbound
// path, and there is no automatic resend (a retry could duplicate the
// reply on partial failure). Honors ctx cancellation during the pause.
func (r *Responder) Send(ctx context.Context, contactID, text string) {
	if err := r.sender.SendTyping(ctx, contactID); err != nil {
		r.log.Error().Err(err).Str("contact", contactID).Msg("typing indicator failed")
	}

	if r.delay > 0 {
		t := time.NewTimer(r.delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			r.log.Warn().Str("contact", contactID).Msg("send cancelled during typing pause")
			return
		}
	}

	if err := r.sender.SendText(ctx, contactID, text); err != nil {
		r.log.Error().Err(err).Str("contact", contactID).Msg("send failed")
		return
	}
	r.log.Debug().Str("contact", contactID).Msg("reply sent")
}
