package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pensio/internal/calculation/models"
	dErrors "pensio/pkg/domain-errors"
	"pensio/pkg/platform/httputil"
	"pensio/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the interface for calculation processing.
type Service interface {
	Process(ctx context.Context, req models.Request) (*models.Response, error)
}

// Handler wires the calculation endpoint to the engine.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a calculation handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts calculation endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/calculation-requests", h.HandleCalculate)
}

// HandleCalculate handles POST /calculation-requests. Every processing
// failure is reported as a generic internal error; the precise error code is
// only logged.
func (h *Handler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[CalculationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	resp, err := h.service.Process(ctx, req.ToModel())
	if err != nil {
		h.logger.ErrorContext(ctx, "calculation failed",
			"request_id", requestID,
			"mutations", len(req.Mutations),
			"error_code", string(models.CodeOf(err)),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "calculation failed"))
		return
	}

	h.logger.InfoContext(ctx, "calculation processed",
		"request_id", requestID,
		"mutations", len(req.Mutations),
		"dossiers", len(resp.Dossiers),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromResponse(requestID, resp))
}
