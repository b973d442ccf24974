package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pensio/internal/calculation/engine"
	"pensio/internal/calculation/handler"
	"pensio/internal/calculation/mutation"
	"pensio/internal/scheme"
	"pensio/pkg/testutil"
)

func flowRouter(t *testing.T) chi.Router {
	t.Helper()
	source := scheme.SourceFunc(func(_ context.Context, schemeID string) (*scheme.RuleSet, error) {
		if schemeID != "NL-ABC" {
			return nil, scheme.NewSourceError(scheme.ErrorNotFound, schemeID, "scheme not found", nil)
		}
		return &scheme.RuleSet{SchemeID: schemeID, Currency: "EUR", AccrualRate: 0.02, RetirementAge: 67}, nil
	})
	registry, err := mutation.NewRegistry(mutation.Builtin(source, false)...)
	require.NoError(t, err)

	r := chi.NewRouter()
	handler.New(engine.New(registry), slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func flowBody(schemeID string) map[string]any {
	return map[string]any{"mutations": []map[string]any{
		{"mutation_id": "1", "kind": "create_dossier", "payload": map[string]any{"dossier_id": "D1"}},
		{"mutation_id": "2", "kind": "add_policy", "payload": map[string]any{
			"dossier_id": "D1", "scheme_id": schemeID, "salary": 50000, "start_date": "2000-01-01",
		}},
		{"mutation_id": "3", "kind": "calculate_retirement_benefit", "payload": map[string]any{
			"dossier_id": "D1", "policy_id": "D1-1",
		}},
	}}
}

func TestCalculationFlow(t *testing.T) {
	pinned := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	router := flowRouter(t)

	testutil.Given(t, "the D1 example with a pinned request time", func(t *testing.T) {
		testutil.When(t, "it is posted", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/calculation-requests", flowBody("NL-ABC"))
			rr := testutil.DoRequest(router, testutil.WithRequestTime(req, pinned))

			testutil.Then(t, "the benefit amount is reproducible", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				resp := testutil.UnmarshalResponse[handler.CalculationResponse](t, rr)
				require.Len(t, resp.Results, 3)
				require.NotNil(t, resp.Results[2].Benefit)
				assert.Equal(t, 26001.37, resp.Results[2].Benefit.Amount)
				assert.Equal(t, "EUR", resp.Results[2].Benefit.Currency)
				require.Len(t, resp.Dossiers, 1)
				assert.Equal(t, "D1-1", resp.Dossiers[0].Policies[0].PolicyID)
			})
		})
	})

	testutil.Given(t, "a policy on an unknown scheme", func(t *testing.T) {
		testutil.When(t, "it is posted", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/calculation-requests", flowBody("XX-404"))
			rr := testutil.DoRequest(router, testutil.WithRequestTime(req, pinned))

			testutil.Then(t, "the failure is flattened to internal_error", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, "internal_error")
				assert.NotContains(t, rr.Body.String(), "XX-404")
			})
		})
	})
}
