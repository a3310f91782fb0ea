package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// Recovery answers a handler panic with a 500 envelope and logs the stack
// with the request's correlation and actor ids. http.ErrAbortHandler is
// re-raised so net/http can drop the connection as it intends.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if err, ok := r.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(r)
			}

			logger.Error("Handler panicked",
				"panic", r,
				"stack", string(debug.Stack()),
				"method", c.Request.Method,
				"route", c.FullPath(),
				"correlation_id", GetCorrelationID(c),
				"actor_id", GetActorID(c),
			)
			if c.Writer.Written() {
				// headers are gone; the client sees a truncated body
				c.Abort()
				return
			}
			abort(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal server error occurred")
		}()

		c.Next()
	}
}
