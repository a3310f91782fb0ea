package middleware

import "github.com/gin-gonic/gin"

// abort ends the request with the API error envelope. Middleware cannot use
// the handler package's helpers without an import cycle.
func abort(c *gin.Context, status int, code, message string) {
	body := gin.H{
		"success": false,
		"error": gin.H{
			"code":      code,
			"message":   message,
			"retryable": false,
		},
	}
	if correlationID := GetCorrelationID(c); correlationID != "" {
		body["correlation_id"] = correlationID
	}
	c.AbortWithStatusJSON(status, body)
}
