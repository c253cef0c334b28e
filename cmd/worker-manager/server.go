// cmd/worker-manager/server.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lead-magnet-workers/internal/common/logger"
	"lead-magnet-workers/pkg/registry"
)

type readinessChecker interface {
	HealthCheck(ctx context.Context) error
}

func newHTTPServer(addr string, ready readinessChecker) *http.Server {
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

		if err := ready.HealthCheck(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
				"time":   time.Now().Format(time.RFC3339),
			})
			return
		}
		writeStatus(w, http.StatusOK, map[string]string{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func writeStatus(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// loadInputSchemas maps task types to the registry's input schemas. A missing
// or unreadable registry leaves workers on their built-in schemas.
func loadInputSchemas(path string, log logger.Logger) map[string]map[string]interface{} {
	schemas := map[string]map[string]interface{}{}
	if path == "" {
		return schemas
	}

	reg, err := registry.LoadRegistry(path)
	if err != nil {
		log.Warn("activity registry unavailable, using built-in schemas", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return schemas
	}
	if err := reg.Validate(); err != nil {
		log.Warn("activity registry invalid, using built-in schemas", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return schemas
	}

	for _, activity := range reg.Activities {
		if len(activity.InputSchema) > 0 {
			schemas[activity.TaskType] = activity.InputSchema
		}
	}
	log.Info("activity registry loaded", map[string]interface{}{
		"path":       path,
		"activities": len(reg.Activities),
	})
	return schemas
}
