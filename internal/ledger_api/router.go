package ledger_api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/corebank-ledger/internal/ledger_api/handler"
	"github.com/corebank-ledger/internal/ledger_api/middleware"
	"github.com/gin-gonic/gin"
)

// HealthCheck pings one dependency
type HealthCheck func(ctx context.Context) error

const healthCheckTimeout = 2 * time.Second

type routes struct {
	accounts     *handler.AccountHandler
	transactions *handler.TransactionHandler
	audit        *handler.AuditHandler
	commands     *handler.CommandHandler
	checks       map[string]HealthCheck
}

func setupRouter(logger *slog.Logger, r *gin.Engine, h routes) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))

	v1 := r.Group("/api/v1", middleware.Actor())
	{
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", h.accounts.Create)
			accounts.GET("/:id", h.accounts.GetByID)
			accounts.PUT("/:id/status", h.accounts.UpdateStatus)
			accounts.POST("/:id/interest", h.accounts.PostInterest)
			accounts.GET("/:id/events", h.accounts.ListEvents)
			accounts.GET("/:id/transactions", h.transactions.GetByAccountID)
		}

		transactions := v1.Group("/transactions")
		{
			transactions.POST("", h.transactions.Create)
			transactions.GET("/:id", h.transactions.GetByID)
		}

		v1.GET("/audit", h.audit.List)
		v1.POST("/commands", h.commands.Submit)
	}

	r.GET("/health", health(h.checks))
}

// health reports 200 while every dependency answers, 503 otherwise
func health(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		status := http.StatusOK
		components := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				components[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			components[name] = "ok"
		}

		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{
			"status":     state,
			"components": components,
			"timestamp":  time.Now().UTC(),
		})
	}
}
