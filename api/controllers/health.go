package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/aymenjlassi/darna-backend/api/responses"
	"github.com/aymenjlassi/darna-backend/pkg/config"
)

type pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Darna-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the named dependencies and reports per-dependency state.
// A single failing dependency flips the whole endpoint to 503.
func HealthReady(cfg *config.Config, deps map[string]pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Darna-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string, len(deps))
		ready := true
		for name, dep := range deps {
			if dep == nil {
				checks[name] = "skipped"
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				checks[name] = "down"
				ready = false
				continue
			}
			checks[name] = "up"
		}

		status := "ready"
		code := http.StatusOK
		if !ready {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		responses.WriteSuccessStatus(w, code, map[string]any{
			"status": status,
			"checks": checks,
		})
	}
}

// ReadinessDeps adapts concrete clients to the map HealthReady expects. Nil
// clients are reported as skipped rather than failing readiness.
func ReadinessDeps(db, cache, storage pinger) map[string]pinger {
	return map[string]pinger{
		"postgres": db,
		"redis":    cache,
		"gcs":      storage,
	}
}
