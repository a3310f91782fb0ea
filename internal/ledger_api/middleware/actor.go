package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	ActorIDHeader = "X-Actor-ID"
	ActorIDKey    = "actor_id"
)

// Actor records the X-Actor-ID header. Requests that change ledger state are
// rejected with 401 without one, so every audit entry has someone to name.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := strings.TrimSpace(c.GetHeader(ActorIDHeader))
		if actorID != "" {
			c.Set(ActorIDKey, actorID)
		}

		if actorID == "" && mutating(c.Request.Method) {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", ActorIDHeader+" header is required")
			return
		}

		c.Next()
	}
}

// GetActorID returns the authenticated actor, or "" on anonymous reads
func GetActorID(c *gin.Context) string {
	return c.GetString(ActorIDKey)
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
