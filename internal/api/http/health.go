package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Store states reported by the health endpoints.
const (
	StoreUp       = "up"
	StoreDown     = "down"
	StoreDisabled = "disabled"
)

type HealthResponse struct {
	Status    string      `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Service   string      `json:"service"`
	Version   string      `json:"version"`
	Store     StoreHealth `json:"store"`
}

// StoreHealth describes the document backend behind /api/project.
type StoreHealth struct {
	Backend    string `json:"backend,omitempty"`
	ProjectKey string `json:"projectKey,omitempty"`
	Status     string `json:"status"`
}

// Pinger is the slice of the storage backend the health check needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreInfo names the configured backend. A nil Pinger reports the store
// as disabled.
type StoreInfo struct {
	Backend    string
	ProjectKey string
	Pinger     Pinger
}

type HealthHandler struct {
	serviceName string
	version     string
	store       StoreInfo
	pingTimeout time.Duration
}

func NewHealthHandler(serviceName, version string, store StoreInfo) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		store:       store,
		pingTimeout: time.Second,
	}
}

func (h *HealthHandler) check(ctx context.Context) HealthResponse {
	status := StoreDisabled
	if h.store.Pinger != nil {
		pingCtx, cancel := context.WithTimeout(ctx, h.pingTimeout)
		defer cancel()

		status = StoreUp
		if err := h.store.Pinger.Ping(pingCtx); err != nil {
			status = StoreDown
		}
	}

	overall := "healthy"
	if status != StoreUp {
		overall = "degraded"
	}
	return HealthResponse{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		Store: StoreHealth{
			Backend:    h.store.Backend,
			ProjectKey: h.store.ProjectKey,
			Status:     status,
		},
	}
}

// HealthCheck always answers 200 and reports the store state in the body.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, h.check(c.Request.Context()))
}

// Ready answers 503 while project documents cannot be read or written.
func (h *HealthHandler) Ready(c *gin.Context) {
	resp := h.check(c.Request.Context())
	code := http.StatusOK
	if resp.Store.Status != StoreUp {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.Ready)
}
