// Storefront WhatsApp service bot.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/gabrielbarbosaa1000/bot-whatsapp-loja/internal/bot"
	"github.com/gabrielbarbosaa1000/bot-whatsapp-loja/internal/config"
	"github.com/gabrielbarbosaa1000/bot-whatsapp-loja/internal/connection"
	"github.com/gabrielbarbosaa1000/bot-whatsapp-loja/internal/gateway"
	"github.com/gabrielbarbosaa1000/bot-whatsapp-loja/internal/httpapi"
	"github.com/gabrielbarbosaa1000/bot-whatsapp-loja/internal/responder"
	"github.com/gabrielbarbosaa1000/bot-whatsapp-loja/internal/session"
)

// transportEvents routes gateway events to the connection manager and
// the bot.
type transportEvents struct {
	ctx  context.Context
	conn *connection.Manager
	bot  *bot.Bot
}

func (t *transportEvents) OnPairingChallenge(code string) { t.conn.HandlePairingChallenge(code) }
func (t *transportEvents) OnAuthenticated()               { t.conn.HandleAuthenticated() }
func (t *transportEvents) OnReady()                       { t.conn.HandleReady() }
func (t *transportEvents) OnDisconnected(reason string)   { t.conn.HandleDisconnected(reason) }
func (t *transportEvents) OnMessage(contactID, name, body string) {
	t.bot.HandleMessage(t.ctx, contactID, name, body)
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		logger.Info().Msg("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error().Err(err).Msg("failed to load configuration")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw, err := gateway.New(ctx, cfg.DBPath, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize transport")
		os.Exit(1)
	}

	// Closed by the connection manager when the retry ceiling is
	// exceeded; the supervisor restarts the process.
	fatal := make(chan struct{})

	conn := connection.NewManager(cfg.Connect.MaxAttempts, cfg.Connect.Interval, connection.Callbacks{
		Reconnect: func() {
			if err := gw.Connect(); err != nil {
				logger.Error().Err(err).Msg("reconnect attempt failed")
			}
		},
		RenderChallenge: func(code string) {
			if err := gateway.RenderQR(code, cfg.QRPath); err != nil {
				logger.Error().Err(err).Msg("failed to render pairing QR")
			} else {
				logger.Info().Str("path", cfg.QRPath).Msg("pairing QR available at /qrcode")
			}
		},
		Failed: func() { close(fatal) },
	}, logger)

	sessions := session.NewEngine(cfg.Session.WarningThreshold, cfg.Session.TerminationThreshold, logger)
	resp := responder.New(gw, cfg.TypingDelay, logger)
	b := bot.New(conn, sessions, resp, cfg.Session.SweepInterval, nil, logger)

	gw.SetHandler(&transportEvents{ctx: ctx, conn: conn, bot: b})

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     httpapi.NewHandler(conn, cfg.QRPath, logger).Router(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("operator server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("operator server failed")
			os.Exit(1)
		}
	}()

	go b.RunSweeper(ctx)

	if err := gw.Connect(); err != nil {
		logger.Error().Err(err).Msg("initial connect failed")
		os.Exit(1)
	}
	logger.Info().Msg("transport connecting")

	select {
	case <-ctx.Done():
	case <-fatal:
		logger.Error().Msg("connection permanently failed, exiting for supervised restart")
		gw.Disconnect()
		os.Exit(1)
	}

	logger.Info().Msg("shutting down")
	gw.Disconnect()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}
	logger.Info().Msg("stopped")
}
