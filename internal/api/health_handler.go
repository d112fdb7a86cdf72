package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// PingHandler answers liveness probes.
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// HealthHandler reports basic process health.
func HealthHandler(environment, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"timestamp":   time.Now().Unix(),
			"environment": environment,
			"version":     version,
		})
	}
}
