package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sdi-resolver/internal/resolver"
	dErrors "sdi-resolver/pkg/domain-errors"
	"sdi-resolver/pkg/platform/httputil"
	"sdi-resolver/pkg/platform/middleware/metadata"
	"sdi-resolver/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/service_mock.go -package=mocks Service

// Service defines the resolver operations exposed over HTTP.
type Service interface {
	Lookup(ctx context.Context, q resolver.Query) (json.RawMessage, error)
	Status() resolver.Status
}

// Handler wires resolver endpoints to the resolver service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a resolver handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts resolver endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/1.0/identifiers/{did}", h.HandleResolve)
	r.Get("/1.0/status", h.HandleStatus)
}

// HandleResolve handles GET /1.0/identifiers/{did}.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	q, err := parseQuery(chi.URLParam(r, "did"), r.URL.Query())
	if err != nil {
		h.logger.WarnContext(ctx, "invalid resolve request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	body, err := h.service.Lookup(ctx, q)
	if err != nil {
		level := slog.LevelWarn
		if dErrors.HTTPStatus(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		h.logger.Log(ctx, level, "did resolution failed",
			"request_id", requestID,
			"did", q.DID,
			"client", metadata.DescribeClient(requestcontext.UserAgent(ctx)),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "did resolved",
		"request_id", requestID,
		"did", q.DID,
		"historical", q.Date != nil,
		"tag", q.Tag,
		"client", metadata.DescribeClient(requestcontext.UserAgent(ctx)),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// HandleStatus handles GET /1.0/status.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.service.Status())
}
