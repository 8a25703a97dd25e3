package server

import (
	"net/http"
	"time"

	"github.com/franciscosanchezn/ia-platform-api/internal/database"
	"github.com/gin-gonic/gin"
)

// healthCheckHandler handles the health check endpoint
// @Summary Health check
// @Description Check if the service and its database are up
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (a *App) healthCheckHandler(c *gin.Context) {
	status, code, dbStatus := "OK", http.StatusOK, "up"
	if err := database.Ping(a.deps.DB); err != nil {
		a.deps.Log.WithError(err).Warn("Health check database ping failed")
		status, code, dbStatus = "DEGRADED", http.StatusServiceUnavailable, "down"
	}

	c.JSON(code, gin.H{
		"status":      status,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"uptime":      time.Since(a.startedAt).Seconds(),
		"environment": a.deps.Config.Environment,
		"version":     a.deps.Version,
		"database":    dbStatus,
	})
}

// indexHandler lists the API entry points
// @Summary API index
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (a *App) indexHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "IA Platform API",
		"version": a.deps.Version,
		"endpoints": gin.H{
			"health":  "/health",
			"auth":    "/api/auth",
			"models":  "/api/models",
			"clients": "/api/clients",
			"oauth":   "/oauth/token",
			"docs":    "/swagger/index.html",
			"metrics": "/metrics",
		},
	})
}
