package httptransport

import (
	"context"
	"net/http"
	"time"

	"pensio/pkg/platform/httputil"
)

const readinessTimeout = 3 * time.Second

// ReadinessCheck probes one dependency for /health/ready.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type readinessResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

func handleLiveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, readinessResponse{Status: "ok"})
}

// readinessHandler runs every check with a shared deadline. Any failing
// component turns the response into 503; failure details are not exposed.
func readinessHandler(checks []ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		resp := readinessResponse{Status: "ok", Components: make(map[string]string, len(checks))}
		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				resp.Status = "unavailable"
				resp.Components[c.Name] = "down"
				continue
			}
			resp.Components[c.Name] = "up"
		}

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, resp)
	}
}
