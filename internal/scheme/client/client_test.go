package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pensio/internal/scheme"
)

const nlABC = `{
	"scheme_id": "NL-ABC",
	"name": "ABC Pensioenfonds",
	"currency": "EUR",
	"accrual_rate": 0.02,
	"retirement_age": 67,
	"retirement_age_table": [{"age": 65, "factor": 0.9}, {"age": 68, "factor": 1.05}],
	"indexation_table": [{"year": 2027, "rate": 0.015}],
	"default_indexation_rate": 0.01,
	"projection_horizon_years": 5
}`

func TestRuleSetResponseParser(t *testing.T) {
	fetchedAt := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	t.Run("parses valid rule document", func(t *testing.T) {
		rules, err := parseRuleSetResponse("NL-ABC", http.StatusOK, []byte(nlABC), fetchedAt)
		require.NoError(t, err)

		assert.Equal(t, "NL-ABC", rules.SchemeID)
		assert.Equal(t, 0.02, rules.AccrualRate)
		assert.Equal(t, 67, rules.RetirementAge)
		assert.Len(t, rules.RetirementAgeTable, 2)
		assert.Equal(t, fetchedAt, rules.FetchedAt)
	})

	t.Run("fills scheme id and currency when omitted", func(t *testing.T) {
		rules, err := parseRuleSetResponse("NL-XYZ", http.StatusOK, []byte(`{"accrual_rate":0.0185,"retirement_age":68}`), fetchedAt)
		require.NoError(t, err)
		assert.Equal(t, "NL-XYZ", rules.SchemeID)
		assert.Equal(t, "EUR", rules.Currency)
	})

	tests := []struct {
		name     string
		status   int
		body     string
		category scheme.ErrorCategory
		retry    bool
	}{
		{"404 is not found", http.StatusNotFound, `{}`, scheme.ErrorNotFound, false},
		{"401 is authentication", http.StatusUnauthorized, `{}`, scheme.ErrorAuthentication, false},
		{"429 is rate limited", http.StatusTooManyRequests, `{}`, scheme.ErrorRateLimited, true},
		{"503 is outage", http.StatusServiceUnavailable, `{}`, scheme.ErrorProviderOutage, true},
		{"302 is internal", http.StatusFound, `{}`, scheme.ErrorInternal, false},
		{"malformed JSON is bad data", http.StatusOK, `{invalid json`, scheme.ErrorBadData, false},
		{"mismatched scheme is bad data", http.StatusOK, `{"scheme_id":"OTHER","accrual_rate":0.02,"retirement_age":67}`, scheme.ErrorBadData, false},
		{"invalid accrual rate is bad data", http.StatusOK, `{"accrual_rate":0,"retirement_age":67}`, scheme.ErrorBadData, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules, err := parseRuleSetResponse("NL-ABC", tt.status, []byte(tt.body), fetchedAt)
			require.Error(t, err)
			assert.Nil(t, rules)
			assert.Equal(t, tt.category, scheme.GetCategory(err))
			assert.Equal(t, tt.retry, scheme.IsRetryable(err))
		})
	}
}

func TestClientGet(t *testing.T) {
	t.Run("fetches rule set with bearer key", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/schemes/NL-ABC", r.URL.Path)
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(nlABC))
		}))
		defer srv.Close()

		c := New(srv.URL, "secret", time.Second)
		rules, err := c.Get(context.Background(), "NL-ABC")
		require.NoError(t, err)
		assert.Equal(t, "ABC Pensioenfonds", rules.Name)
	})

	t.Run("escapes scheme id in path", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/schemes/NL%2FABC", r.URL.RawPath)
			http.NotFound(w, r)
		}))
		defer srv.Close()

		_, err := New(srv.URL, "", time.Second).Get(context.Background(), "NL/ABC")
		assert.True(t, scheme.IsNotFound(err))
	})

	t.Run("empty scheme id is not found without a call", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		}))
		defer srv.Close()

		_, err := New(srv.URL, "", time.Second).Get(context.Background(), " ")
		assert.True(t, scheme.IsNotFound(err))
		assert.Zero(t, calls.Load())
	})

	t.Run("slow upstream is a timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(500 * time.Millisecond):
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()

		_, err := New(srv.URL, "", 20*time.Millisecond).Get(context.Background(), "NL-ABC")
		require.Error(t, err)
		assert.Equal(t, scheme.ErrorTimeout, scheme.GetCategory(err))
		assert.True(t, scheme.IsRetryable(err))
	})

	t.Run("caller cancellation is reported as canceled", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		_, err := New(srv.URL, "", time.Second).Get(ctx, "NL-ABC")
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
		assert.False(t, scheme.IsRetryable(err))
	})

	t.Run("unreachable upstream is an outage", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := New(url, "", time.Second).Get(context.Background(), "NL-ABC")
		require.Error(t, err)
		assert.Equal(t, scheme.ErrorProviderOutage, scheme.GetCategory(err))
	})
}

func TestClientHealth(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second)
	assert.NoError(t, c.Health(context.Background()))

	healthy.Store(false)
	err := c.Health(context.Background())
	require.Error(t, err)
	assert.Equal(t, scheme.ErrorProviderOutage, scheme.GetCategory(err))
}
