package httpapi

import (
	"backoffice-platform/internal/audit"
	"backoffice-platform/internal/auth"
	"backoffice-platform/internal/catalog"
	"backoffice-platform/internal/orders"
	"backoffice-platform/internal/sequence"
	"backoffice-platform/internal/users"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth      *auth.Manager
	Catalog   *catalog.Service
	Orders    *orders.Service
	Users     *users.Service
	AuditRepo audit.Repository
	Janitor   *audit.Janitor
	Sequences *sequence.Allocator
}
