package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"backoffice-platform/internal/users"
	"backoffice-platform/internal/versioned"
	"backoffice-platform/pkg/logger"
)

type userResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	RoleID    string `json:"role_id"`
	UpdatedAt int64  `json:"updated_at"`
}

func toUserResponse(u users.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		RoleID:    u.RoleID,
		UpdatedAt: versioned.Micros(u.UpdatedAt),
	}
}

type userRequest struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	RoleID            string `json:"role_id"`
	Secret            string `json:"secret,omitempty"`
	ExpectedUpdatedAt int64  `json:"expected_updated_at"`
}

func (h Handlers) CreateUser(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	out, err := h.Users.Create(c.Request.Context(), users.UserPatch{
		Name: req.Name, Email: req.Email, RoleID: req.RoleID, Secret: req.Secret,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(out))
}

func (h Handlers) GetUser(c *gin.Context) {
	out, err := h.Users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(out))
}

func (h Handlers) ListUsers(c *gin.Context) {
	us, err := h.Users.List(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	out := make([]userResponse, 0, len(us))
	for _, u := range us {
		out = append(out, toUserResponse(u))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

func (h Handlers) UpdateUser(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	out, err := h.Users.Update(c.Request.Context(), c.Param("id"),
		versioned.TokenFromMicros(req.ExpectedUpdatedAt),
		users.UserPatch{Name: req.Name, Email: req.Email, RoleID: req.RoleID},
	)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(out))
}

func (h Handlers) DeleteUser(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	if err := h.Users.Delete(c.Request.Context(), c.Param("id"),
		versioned.TokenFromMicros(req.ExpectedUpdatedAt)); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

type assignRoleRequest struct {
	RoleID            string `json:"role_id"`
	ExpectedUpdatedAt int64  `json:"expected_updated_at"`
}

func (h Handlers) AssignRole(c *gin.Context) {
	var req assignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	out, err := h.Users.AssignRole(c.Request.Context(), c.Param("id"),
		versioned.TokenFromMicros(req.ExpectedUpdatedAt), req.RoleID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(out))
}

type rolePermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

func (h Handlers) SetRolePermissions(c *gin.Context) {
	var req rolePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	out, err := h.Users.SetRolePermissions(c.Request.Context(), c.Param("id"), req.Permissions)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

/* ===================== AUTH ===================== */

type loginRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

// Login validates credentials against the user store and issues a JWT
// token pair. Bad email and bad secret are the same 403 on purpose.
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	u, err := h.Users.Authenticate(c.Request.Context(), req.Email, req.Secret)
	if err != nil {
		writeErr(c, err)
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), u.ID, u.Name)
	if err != nil {
		logger.FromGin(c).Error("token issuance failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"user":          toUserResponse(u),
	})
}

// Logout records the end of the session. Tokens are short-lived and not
// revoked server-side.
func (h Handlers) Logout(c *gin.Context) {
	if err := h.Users.RecordLogout(c.Request.Context()); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
