package app

import (
	"context"
	"net/http"
	"time"

	"tibacare/pkg/client"
	httputil "tibacare/pkg/http"
	"tibacare/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type HealthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

type dependencyCheck struct {
	name  string
	check func(ctx context.Context) error
}

type HealthHandler struct {
	checks []dependencyCheck
	log    *logger.Logger
}

// NewHealthHandler checks whichever backing stores are connected on c.
func NewHealthHandler(c *client.Client, log *logger.Logger) *HealthHandler {
	h := &HealthHandler{log: log}
	if c == nil {
		return h
	}
	if c.Mongo != nil {
		h.checks = append(h.checks, dependencyCheck{"mongo", func(ctx context.Context) error {
			return c.Mongo.Ping(ctx, nil)
		}})
	}
	if c.Redis != nil {
		h.checks = append(h.checks, dependencyCheck{"redis", func(ctx context.Context) error {
			return c.Redis.Ping(ctx).Err()
		}})
	}
	if c.Postgres != nil {
		h.checks = append(h.checks, dependencyCheck{"postgres", c.Postgres.Ping})
	}
	return h
}

func (h *HealthHandler) AddCheck(name string, check func(ctx context.Context) error) {
	h.checks = append(h.checks, dependencyCheck{name: name, check: check})
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	resp := HealthResponse{Status: "ready", Dependencies: make(map[string]string, len(h.checks))}
	for _, dep := range h.checks {
		if err := dep.check(ctx); err != nil {
			h.log.Error("Dependency health check failed",
				"dependency", dep.name,
				"error", err,
				"path", r.URL.Path,
			)
			resp.Dependencies[dep.name] = "error"
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Dependencies[dep.name] = "ok"
	}

	if err := httputil.WriteJSON(w, status, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
