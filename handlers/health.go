package handlers

import (
	"net/http"
	"time"

	"github.com/Habeeboss/COUNTRIES-CURRENCY-API/models"
	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	startedAt   time.Time
	environment string
}

func NewHealthHandler(environment string) *HealthHandler {
	return &HealthHandler{startedAt: time.Now(), environment: environment}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	now := time.Now()
	c.JSON(http.StatusOK, gin.H{
		"status":      "OK",
		"timestamp":   now.UTC().Format(models.ISOTimestamp),
		"uptime":      now.Sub(h.startedAt).Seconds(),
		"environment": h.environment,
	})
}
