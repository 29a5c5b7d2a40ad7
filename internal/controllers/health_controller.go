package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health is liveness only; it does not check the store.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Server is running",
		"timestamp": time.Now().UTC(),
	})
}

func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"success": false,
		"message": "Route not found",
		"path":    c.Request.URL.Path,
	})
}

// Recovery turns panics into a 500 envelope, exposing the panic value only
// when debug is on.
func Recovery(debug bool) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		body := gin.H{"success": false, "message": "Internal server error"}
		if debug {
			body["error"] = recovered
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, body)
	})
}
