package handlers

import (
	"net/http"

	"tasktrack/backend/internal/monitoring"

	"github.com/gin-gonic/gin"
)

func HealthCheck(c *gin.Context) {
	healthy, checks := monitoring.RunHealthChecks(c.Request.Context())

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status": status,
		"checks": checks,
	})
}

func GetMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, monitoring.Snapshot())
}
