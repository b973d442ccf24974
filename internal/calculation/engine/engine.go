// Package engine folds an ordered mutation list over fresh working state.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pensio/internal/audit"
	"pensio/internal/calculation/metrics"
	"pensio/internal/calculation/models"
	"pensio/internal/calculation/mutation"
	"pensio/pkg/requestcontext"
)

// Resolver finds the handler for a mutation kind. *mutation.Registry implements it.
type Resolver interface {
	Resolve(kind models.Kind) (mutation.Handler, error)
}

// Auditor records one event per processed request.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Engine applies mutations strictly in submission order and aborts the whole
// request on the first failure. It holds no per-request state and is safe for
// concurrent use.
type Engine struct {
	resolver Resolver
	logger   *slog.Logger
	metrics  *metrics.Metrics
	auditor  Auditor
	tracer   trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithAuditor(a Auditor) Option {
	return func(e *Engine) { e.auditor = a }
}

func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// New creates an engine dispatching through resolver.
func New(resolver Resolver, opts ...Option) *Engine {
	e := &Engine{
		resolver: resolver,
		tracer:   otel.Tracer("pensio/calculation/engine"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Process validates the request, applies every mutation to a fresh State and
// returns the per-mutation results with a snapshot of the final dossiers.
// Errors are *models.Error positioned at the failing mutation; no partial
// results are returned alongside an error.
func (e *Engine) Process(ctx context.Context, req models.Request) (*models.Response, error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "calculation.process",
		trace.WithAttributes(attribute.Int("calculation.mutations", len(req.Mutations))))
	defer span.End()

	if len(req.Mutations) == 0 {
		err := models.NewValidationError("mutation list is empty")
		e.finish(ctx, span, req, nil, 0, err, start)
		return nil, err
	}

	state := models.NewState()
	results := make([]models.MutationResult, 0, len(req.Mutations))
	for i, m := range req.Mutations {
		if m.MutationID == "" {
			m.MutationID = uuid.NewString()
		}
		if err := ctx.Err(); err != nil {
			failure := models.NewCanceled(err).AtMutation(i, m)
			e.finish(ctx, span, req, nil, i, failure, start)
			return nil, failure
		}

		res, err := e.apply(ctx, state, m)
		if err != nil {
			failure := atMutation(err, i, m)
			e.finish(ctx, span, req, nil, i, failure, start)
			return nil, failure
		}
		results = append(results, res)
	}

	resp := &models.Response{
		Results:     results,
		Dossiers:    state.Snapshot(),
		ProcessedAt: requestcontext.Now(ctx),
	}
	e.finish(ctx, span, req, resp, len(results), nil, start)
	return resp, nil
}

func (e *Engine) apply(ctx context.Context, state *models.State, m models.Mutation) (models.MutationResult, error) {
	handler, err := e.resolver.Resolve(m.Kind)
	if err != nil {
		return models.MutationResult{}, err
	}

	ctx, span := e.tracer.Start(ctx, "calculation.mutation", trace.WithAttributes(
		attribute.String("mutation.kind", m.Kind.String()),
		attribute.String("mutation.id", m.MutationID),
	))
	defer span.End()

	start := time.Now()
	res, err := handler.Apply(ctx, state, m)
	outcome := "ok"
	if err != nil {
		outcome = outcomeOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	e.metrics.ObserveMutation(m.Kind.String(), outcome, time.Since(start))
	return res, err
}

func (e *Engine) finish(ctx context.Context, span trace.Span, req models.Request, resp *models.Response, applied int, err error, start time.Time) {
	elapsed := time.Since(start)
	e.metrics.ObserveProcess(len(req.Mutations), elapsed)

	event := audit.Event{
		RequestID:     requestcontext.RequestID(ctx),
		Action:        audit.ActionCalculationCompleted,
		MutationCount: len(req.Mutations),
		AppliedCount:  applied,
		Duration:      elapsed,
	}
	if err != nil {
		outcome := outcomeOf(err)
		e.metrics.IncrementOutcome(outcome)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)

		event.Action = audit.ActionCalculationFailed
		event.ErrorCode = outcome
		var calcErr *models.Error
		if errors.As(err, &calcErr) {
			event.FailedMutation = calcErr.MutationID
		}
		if e.logger != nil {
			e.logger.WarnContext(ctx, "calculation request failed",
				"request_id", event.RequestID,
				"error_code", outcome,
				"applied", applied,
				"error", err,
			)
		}
	} else {
		e.metrics.IncrementOutcome("ok")
		for _, d := range resp.Dossiers {
			event.DossierIDs = append(event.DossierIDs, d.DossierID)
		}
	}

	if e.auditor != nil {
		if auditErr := e.auditor.Emit(ctx, event); auditErr != nil && e.logger != nil {
			e.logger.WarnContext(ctx, "audit emit failed", "request_id", event.RequestID, "error", auditErr)
		}
	}
}

// atMutation attaches the mutation position to err, keeping its code.
func atMutation(err error, index int, m models.Mutation) error {
	var calcErr *models.Error
	if errors.As(err, &calcErr) {
		return calcErr.AtMutation(index, m)
	}
	return fmt.Errorf("mutation %d (%s %s): %w", index, m.Kind, m.MutationID, err)
}

func outcomeOf(err error) string {
	if code := models.CodeOf(err); code != "" {
		return string(code)
	}
	return "internal"
}
