package httpx

import (
	"net/http"
	"time"
)

// HealthResponse is the body of /livez and /readyz.
type HealthResponse struct {
	Status  string            `json:"status"`
	Uptime  string            `json:"uptime"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Check is one readiness probe. A nil error means healthy.
type Check func(r *http.Request) error

// LivezHandler always reports ok while the process is serving.
//
//	@Summary		Liveness probe
//	@Description	Always returns 200 OK while the service is running
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	HealthResponse	"status, uptime, version"
//	@Router			/livez [get]
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler runs every check and answers 503 if any of them fails.
//
//	@Summary	Readiness probe
//	@Tags		Health
//	@Produce	json
//	@Success	200	{object}	HealthResponse	"all checks ok"
//	@Failure	503	{object}	HealthResponse	"degraded, with the failing checks"
//	@Router		/readyz [get]
func ReadyzHandler(startTime time.Time, version string, checks map[string]Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := make(map[string]string, len(checks))
		status, code := "ok", http.StatusOK

		for name, check := range checks {
			if err := check(r); err != nil {
				results[name] = "error: " + err.Error()
				status, code = "degraded", http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		WriteJSON(w, code, HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  results,
		})
	}
}
