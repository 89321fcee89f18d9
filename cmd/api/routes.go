package main

import (
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"

	"backoffice-platform/internal/auth"
	"backoffice-platform/internal/authz"
	"backoffice-platform/internal/httpapi"
	"backoffice-platform/pkg/utils"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, db *sql.DB, authManager *auth.Manager, perms *authz.Service) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.JSON(503, gin.H{"status": "degraded"})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")

	// Token issuance is the only unauthenticated route under /v1.
	v1.POST("/auth/login", h.Login)

	v1.Use(auth.RequireAccessToken(authManager))
	{
		v1.POST("/auth/logout", h.Logout)

		categories := v1.Group("/categories")
		categories.Use(authz.RequirePermission(perms, authz.PermissionCategoryManage))
		{
			categories.POST("", h.CreateCategory)
			categories.GET("", h.ListCategories)
			categories.GET("/:id", h.GetCategory)
			categories.PUT("/:id", h.UpdateCategory)
			categories.DELETE("/:id", h.DeleteCategory)
		}

		items := v1.Group("/items")
		items.Use(authz.RequirePermission(perms, authz.PermissionItemManage))
		{
			items.POST("", h.CreateItem)
			items.GET("", h.ListItems)
			items.GET("/:id", h.GetItem)
			items.PUT("/:id", h.UpdateItem)
			items.DELETE("/:id", h.DeleteItem)
		}

		ordersGroup := v1.Group("/orders")
		ordersGroup.Use(authz.RequirePermission(perms, authz.PermissionOrderManage))
		{
			ordersGroup.POST("", h.CreateOrder)
			ordersGroup.GET("", h.ListOrders)
			ordersGroup.GET("/:id", h.GetOrder)
			ordersGroup.PUT("/:id", h.UpdateOrder)
			ordersGroup.PUT("/:id/status", h.UpdateOrderStatus)
			ordersGroup.DELETE("/:id", h.DeleteOrder)
		}

		usersGroup := v1.Group("/users")
		usersGroup.Use(authz.RequirePermission(perms, authz.PermissionUserManage))
		{
			usersGroup.POST("", h.CreateUser)
			usersGroup.GET("", h.ListUsers)
			usersGroup.GET("/:id", h.GetUser)
			usersGroup.PUT("/:id", h.UpdateUser)
			usersGroup.PUT("/:id/role", h.AssignRole)
			usersGroup.DELETE("/:id", h.DeleteUser)
		}

		roles := v1.Group("/roles")
		roles.Use(authz.RequirePermission(perms, authz.PermissionUserManage))
		{
			roles.PUT("/:id/permissions", h.SetRolePermissions)
		}

		auditGroup := v1.Group("/audit")
		auditGroup.Use(authz.RequirePermission(perms, authz.PermissionAuditView))
		{
			auditGroup.GET("", h.ListAudit)
			auditGroup.GET("/stats", h.AuditStats)
			auditGroup.GET("/:kind/:id", h.ResourceAudit)
		}

		auditAdmin := v1.Group("/audit")
		auditAdmin.Use(authz.RequirePermission(perms, authz.PermissionAuditAdmin))
		{
			auditAdmin.POST("/cleanup", h.AuditCleanup)
			auditAdmin.GET("/cleanup/preview", h.AuditCleanupPreview)
		}

		sequences := v1.Group("/sequences")
		sequences.Use(authz.RequirePermission(perms, authz.PermissionSequenceManage))
		{
			sequences.GET("/:kind", h.GetSequencePattern)
			sequences.PUT("/:kind", h.SetSequencePattern)
			sequences.POST("/preview", h.PreviewSequencePattern)
		}
	}
}
