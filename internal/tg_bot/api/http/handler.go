// Package http serves the bot's inbound HTTP surface: Telegram webhook updates,
// a liveness probe and the Prometheus scrape endpoint.
package http

import (
	"context"
	"encoding/json"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"io"
	"net/http"
)

const maxUpdateSize = 1 << 20

// UpdateProcessor handles one decoded Telegram update.
type UpdateProcessor interface {
	UpdateProcessing(ctx context.Context, update *tgbotapi.Update)
}

// Handler routes webhook and operational requests.
type Handler struct {
	ctx       context.Context // Outlives single requests, cancelled on shutdown
	processor UpdateProcessor
	gatherer  prometheus.Gatherer
}

// NewHandler creates a Handler. Updates are processed with ctx rather than the request
// context, so a dropped webhook connection does not abort a half-done dialog step.
func NewHandler(ctx context.Context, processor UpdateProcessor, gatherer prometheus.Gatherer) *Handler {
	return &Handler{
		ctx:       ctx,
		processor: processor,
		gatherer:  gatherer,
	}
}

// Router builds the chi router. The webhook is mounted at webhookPath unless it is empty (polling mode).
func (h *Handler) Router(webhookPath string) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	if webhookPath != "" {
		router.Post(webhookPath, h.Webhook)
	}
	router.Get("/health", h.Health)
	if h.gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}
	return router
}

// Webhook decodes a Telegram update and hands it to the processor.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUpdateSize)).Decode(&update); err != nil {
		logrus.WithError(err).Warn("Failed to decode webhook update")
		http.Error(w, "bad update", http.StatusBadRequest)
		return
	}
	logrus.WithField("updateID", update.UpdateID).Debug("Webhook update received")

	h.processor.UpdateProcessing(h.ctx, &update)
	w.WriteHeader(http.StatusOK)
}

// Health reports that the process is serving requests.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
