package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/GANESH4511/Dataverse/internal/logger"
	"github.com/gin-gonic/gin"
)

// HealthReporter is satisfied by chain.Manager.
type HealthReporter interface {
	GetHealthStatus(ctx context.Context) map[string]interface{}
}

// SystemHandler serves the liveness and index endpoints.
type SystemHandler struct {
	chain HealthReporter
}

// NewSystemHandler creates the handler. chain may be nil.
func NewSystemHandler(chain HealthReporter) *SystemHandler {
	return &SystemHandler{chain: chain}
}

// Health reports liveness. The chain check is bounded so a slow RPC node
// cannot stall the probe.
func (h *SystemHandler) Health(c *gin.Context) {
	fields := gin.H{"timestamp": time.Now().UTC().Format(time.RFC3339Nano)}
	if h.chain != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		fields["chain"] = h.chain.GetHealthStatus(ctx)
	}
	SuccessResponse(c, http.StatusOK, "Dataverse Backend is running!", fields)
}

// Index lists the API groups.
func (h *SystemHandler) Index(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "Dataverse API", gin.H{
		"endpoints": gin.H{
			"GET /health":  "Liveness check",
			"GET /metrics": "Prometheus metrics",
			"/api/user":    "User API (GET /api/user/ for details)",
			"/api/worker":  "Worker API (GET /api/worker/ for details)",
		},
	})
}

// NotFound is the fallback for unknown routes.
func NotFound(c *gin.Context) {
	ErrorResponse(c, http.StatusNotFound, "Route not found")
}

// Recover converts a panic into a generic 500.
func Recover(c *gin.Context, recovered interface{}) {
	logger.Error("Panic in %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
	ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
	c.Abort()
}
