package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type healthResponse struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	Cache       string `json:"cache"`
	Environment string `json:"environment"`
}

// Health always answers 200. Failing dependencies show up in the body.
func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:      "ok",
		Database:    h.probe(ctx, "database", h.health.Database),
		Cache:       h.probe(ctx, "cache", h.health.Cache),
		Environment: h.cfg.Environment,
	}
	if resp.Database == "error" {
		resp.Status = "degraded"
	}

	c.JSON(http.StatusOK, resp)
}

func (h HandlerSet) probe(ctx context.Context, name string, check func(context.Context) error) string {
	if check == nil {
		return "disabled"
	}
	if err := check(ctx); err != nil {
		h.log.Error().Err(err).Str("dependency", name).Msg("health probe failed")
		return "error"
	}
	return "ok"
}
