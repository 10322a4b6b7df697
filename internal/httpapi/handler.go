// Package httpapi exposes the operator-facing HTTP surface: a pairing
// QR endpoint and a status endpoint. No authentication, no mutation.
package httpapi

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/gabrielbarbosaa1000/bot-whatsapp-loja/internal/connection"
)

// StatusSource provides the connection snapshot for /status.
type StatusSource interface {
	Snapshot() connection.Snapshot
}

// Handler serves the operator routes.
type Handler struct {
	conn   StatusSource
	qrPath string
	log    zerolog.Logger
}

// NewHandler creates the operator handler. qrPath is where the gateway
// writes the pairing QR PNG.
func NewHandler(conn StatusSource, qrPath string, log zerolog.Logger) *Handler {
	return &Handler{
		conn:   conn,
		qrPath: qrPath,
		log:    log.With().Str("component", "httpapi").Logger(),
	}
}

// Router builds the chi router with the operator routes mounted.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/health"))

	r.Get("/", h.root)
	r.Get("/qrcode", h.qrcode)
	r.Get("/status", h.status)
	return r
}

func (h *Handler) root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("🤖 Bot está online! Acesse /qrcode para o QR Code.\n"))
}

func (h *Handler) qrcode(w http.ResponseWriter, r *http.Request) {
	if _, err := os.Stat(h.qrPath); err != nil {
		http.Error(w, "QR Code ainda não gerado. Aguarde o desafio de pareamento.", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, h.qrPath)
}

type statusResponse struct {
	Status     string `json:"status"`
	RetryCount int    `json:"retryCount"`
	Uptime     string `json:"uptime"`
}

func (h *Handler) status(w http.ResponseWriter, _ *http.Request) {
	snap := h.conn.Snapshot()

	resp := statusResponse{
		Status:     "offline",
		RetryCount: snap.RetryCount,
		Uptime:     snap.Uptime.Round(time.Second).String(),
	}
	if snap.State == connection.Ready {
		resp.Status = "online"
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error().Err(err).Msg("encode status response")
	}
}
