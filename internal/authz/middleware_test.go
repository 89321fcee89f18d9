package authz

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backoffice-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

func routerWith(identity string, svc *Service, perm string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		if identity != "" {
			ctx := auth.WithIdentity(c.Request.Context(), identity, "Test User")
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}, RequirePermission(svc, perm), func(c *gin.Context) {
		c.Status(200)
	})
	return r
}

func TestRequirePermission_AllowsHolder(t *testing.T) {
	store := NewMemoryStore()
	store.Grant("u1", PermissionCategoryManage)
	svc := NewService(store, time.Minute)

	w := httptest.NewRecorder()
	routerWith("u1", svc, PermissionCategoryManage).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRequirePermission_AdminAllBypasses(t *testing.T) {
	store := NewMemoryStore()
	store.Grant("root", PermissionAdminAll)
	svc := NewService(store, time.Minute)

	w := httptest.NewRecorder()
	routerWith("root", svc, PermissionUserManage).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRequirePermission_DeniesWithoutPermission(t *testing.T) {
	store := NewMemoryStore()
	store.Grant("u1", PermissionAuditView)
	svc := NewService(store, time.Minute)

	w := httptest.NewRecorder()
	routerWith("u1", svc, PermissionUserManage).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != 403 {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestRequirePermission_RequiresIdentity(t *testing.T) {
	svc := NewService(NewMemoryStore(), time.Minute)

	w := httptest.NewRecorder()
	routerWith("", svc, PermissionUserManage).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != 401 {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequirePermission_FailsClosedOnStoreError(t *testing.T) {
	store := NewMemoryStore()
	store.Fail(errors.New("db down"))
	svc := NewService(store, time.Minute)

	w := httptest.NewRecorder()
	routerWith("u1", svc, PermissionUserManage).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != 500 {
		t.Fatalf("expected 500 (fail closed), got %d", w.Code)
	}
}
