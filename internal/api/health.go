package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles liveness checks
type HealthHandler struct{}

// HealthResponse is the liveness payload
type HealthResponse struct {
	Status  string `json:"status"`
	Time    string `json:"time"`
	Message string `json:"message"`
}

// RegisterRoutes registers health check related routes
func (h *HealthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/health", h.Health)
}

// Health returns the liveness payload with the current UTC timestamp
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Time:    time.Now().UTC().Format(time.RFC3339),
		Message: "Service is running",
	})
}
