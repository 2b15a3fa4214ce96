package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker reports whether the database answers queries.
type HealthChecker interface {
	Healthy(ctx context.Context) bool
}

// healthCheckTimeout bounds the database probe of GET /api/health.
const healthCheckTimeout = 2 * time.Second

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	Timestamp       string `json:"timestamp"`
	Database        string `json:"database"`
	UploadsPath     string `json:"uploadsPath"`
	DatabaseHealthy bool   `json:"databaseHealthy"`
}

// HealthHandler serves the public API health endpoint.
type HealthHandler struct {
	db          HealthChecker
	uploadsPath string
	now         func() time.Time
}

// NewHealthHandler creates a health handler
func NewHealthHandler(db HealthChecker, uploadsPath string) *HealthHandler {
	return &HealthHandler{db: db, uploadsPath: uploadsPath, now: time.Now}
}

// Check handles GET /api/health. It always answers 200; databaseHealthy
// carries the result of the database probe.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	c.JSON(http.StatusOK, HealthResponse{
		Success:         true,
		Message:         "Server is running!",
		Timestamp:       h.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Database:        "PostgreSQL",
		UploadsPath:     h.uploadsPath,
		DatabaseHealthy: h.db != nil && h.db.Healthy(ctx),
	})
}
