package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 3 * time.Second

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// HealthController reports relational store and mirror connectivity. The
// service is unhealthy only when the relational store is down; a mirror
// outage is reported as degraded.
type HealthController struct {
	db      Pinger
	mirror  Pinger
	version string
}

func NewHealthController(db, mirror Pinger, version string) *HealthController {
	return &HealthController{
		db:      db,
		mirror:  mirror,
		version: version,
	}
}

// ping pings p and describes the result for the checks map.
func ping(ctx context.Context, p Pinger) (string, bool) {
	if p == nil {
		return "not configured", true
	}
	if err := p.Ping(ctx); err != nil {
		return "error: " + err.Error(), false
	}
	return "ok", true
}

func (h *HealthController) Status(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	dbCheck, dbOK := ping(ctx, h.db)
	mirrorCheck, mirrorOK := ping(ctx, h.mirror)

	status, code := "healthy", http.StatusOK
	switch {
	case !dbOK:
		status, code = "unhealthy", http.StatusServiceUnavailable
	case !mirrorOK:
		status = "degraded"
	}

	c.IndentedJSON(code, HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  map[string]string{"database": dbCheck, "mirror": mirrorCheck},
	})
}
