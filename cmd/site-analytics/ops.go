// cmd/site-analytics/ops.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"site-analytics/internal/common/camunda"
	"site-analytics/internal/common/database"
)

// newOpsServer serves liveness, readiness and Prometheus metrics on a
// separate listener from the API. zeebe may be nil when Camunda is disabled.
func newOpsServer(addr string, pg *database.PostgresClient, rdb *database.RedisClient, zeebe *camunda.Client) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		body := map[string]string{"time": time.Now().Format(time.RFC3339)}
		status := http.StatusOK
		if err := pg.Ping(ctx); err != nil {
			body["postgres"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if err := rdb.Ping(ctx); err != nil {
			body["redis"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if zeebe != nil {
			if err := zeebe.HealthCheck(ctx); err != nil {
				body["zeebe"] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}
		if status == http.StatusOK {
			body["status"] = "ready"
		} else {
			body["status"] = "not ready"
		}
		writeStatus(w, status, body)
	})

	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{Addr: addr, Handler: mux}
}

func writeStatus(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
