// Package handler exposes the USSD gateway callback endpoint. It translates
// the gateway's form POST into an engine request and renders the reply in the
// CON/END wire convention.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ebirth/internal/platform/metrics"
	"ebirth/internal/ussd/session"
)

// Handler serves POST /ussd.
type Handler struct {
	engine  *session.Engine
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option customizes a Handler.
type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// New constructs a Handler.
func New(engine *session.Engine, opts ...Option) *Handler {
	h := &Handler{
		engine: engine,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the gateway callback route.
func (h *Handler) Register(r chi.Router) {
	r.Post("/ussd", h.serve)
}

// serve answers one gateway callback. The gateway treats any non-200 response
// as a dead session, so every outcome, including a panic, renders as 200 with
// an in-band END message.
func (h *Handler) serve(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	sessionID := r.PostFormValue("sessionId")
	phone := r.PostFormValue("phoneNumber")
	text := r.PostFormValue("text")

	defer func() {
		if rec := recover(); rec != nil {
			h.logger.ErrorContext(ctx, "ussd handler panic",
				"session_id", sessionID,
				"phone", phone,
				"panic", rec,
			)
			writeReply(w, session.Reply{
				Kind: session.End,
				Text: "System error occurred. Please try again later.",
			})
		}
		if h.metrics != nil {
			h.metrics.RequestDuration.Observe(time.Since(start).Seconds())
		}
	}()

	reply := h.engine.Handle(ctx, session.Request{
		SessionID: sessionID,
		Phone:     phone,
		Text:      text,
	})

	h.logger.InfoContext(ctx, "ussd exchange",
		"session_id", sessionID,
		"phone", phone,
		"inputs", len(session.ParseText(text)),
		"terminal", reply.Kind == session.End,
	)
	writeReply(w, reply)
}

func writeReply(w http.ResponseWriter, reply session.Reply) {
	tag := "CON "
	if reply.Kind == session.End {
		tag = "END "
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(tag + reply.Text))
}
