package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"aicodegen-backend/internal/models"
)

// HealthHandler godoc
// @Summary     Health check
// @Description Returns the health status of the API
// @Tags        health
// @Produce     json
// @Success     200 {object} models.HealthResponse
// @Router      /health [get]
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{Status: "ok"})
}

// Pinger is implemented by backends whose reachability gates readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyHandler answers 503 until every pinger responds.
func ReadyHandler(pingers ...Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		for _, p := range pingers {
			if err := p.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "not ready", Message: err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, models.HealthResponse{Status: "ready"})
	}
}
