package main

import (
	"database/sql"
	"time"

	"dialtrack/internal/auth"
	"dialtrack/internal/contacts"
	"dialtrack/internal/recon"
	"dialtrack/internal/reporting"

	"github.com/gin-gonic/gin"
)

type deps struct {
	auth    *auth.Manager
	db      *sql.DB
	recon   *recon.Service
	reports *reporting.Service
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d deps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider status callbacks (public).
	// NOTE: protect with the provider's signature validation when it ships one;
	// until then the endpoint is only as safe as its network placement.
	reconH := recon.Handlers{Service: d.recon}
	r.POST("/webhooks/provider/status", reconH.Webhook)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(auth.RequireAccessToken(d.auth))
	{
		v1.GET("/me", func(c *gin.Context) {
			uid, _ := auth.UserID(c.Request.Context())
			role, _ := auth.RoleFrom(c.Request.Context())
			c.JSON(200, gin.H{"user_id": uid, "role": role})
		})

		// Stale-check registration for freshly placed calls. Called by the
		// dialer component, not by operators.
		v1.POST("/internal/stale-checks", reconH.ArmStaleCheck)

		// CONTACT routes
		contactH := contacts.Handlers{DB: d.db, Now: time.Now}
		ct := v1.Group("/contacts")
		{
			ct.GET("", contactH.List)
			ct.GET("/:id", contactH.Get)

			// Manual status pin is an operator action.
			ct.PUT("/:id/override",
				auth.RequireAnyRole(auth.RoleOperator, auth.RoleAdmin),
				contactH.SetOverride)
		}

		// REPORT routes
		reportH := reporting.Handlers{Service: d.reports}
		rp := v1.Group("/reports")
		rp.Use(auth.RequireAnyRole(auth.RoleOperator, auth.RoleAdmin))
		{
			rp.GET("/outcomes", reportH.Outcomes)
			rp.GET("/reachability", reportH.Reachability)
		}
	}
}
