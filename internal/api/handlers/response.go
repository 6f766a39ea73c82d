package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the Portuguese wire shape for request failures
type ErrorResponse struct {
	Erro string `json:"erro"`
}

// RespondErro sends a failure body in the service's wire contract
func RespondErro(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, ErrorResponse{Erro: message})
}

// RespondSuccess sends a success response
func RespondSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// GetClientIP gets the real client IP address
func GetClientIP(c *gin.Context) string {
	// Try X-Forwarded-For header first (for proxied requests)
	if ip := c.GetHeader("X-Forwarded-For"); ip != "" {
		return ip
	}

	// Try X-Real-IP header
	if ip := c.GetHeader("X-Real-IP"); ip != "" {
		return ip
	}

	// Fall back to RemoteAddr
	return c.ClientIP()
}
