package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"csecv/internal/auth"
	"csecv/internal/domain"
	"csecv/internal/service"
)

const sessionCookieName = "sess"

const (
	ctxClaimsKey = "sessionClaims"
	ctxUserKey   = "currentUser"
	ctxRoleKey   = "effectiveRole"
)

// requireSession rejects requests without a valid session cookie and stashes
// the verified claims in the gin context.
func (h *Handler) requireSession(c *gin.Context) {
	token, err := c.Cookie(sessionCookieName)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	claims := h.codec.Verify(token)
	if claims == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	c.Set(ctxClaimsKey, claims)
	c.Next()
}

// requireRole runs after requireSession. The user record is re-read on every
// call: the role inside the token is never trusted for authorization, so a
// downgrade takes effect without waiting for re-login.
func (h *Handler) requireRole(required domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := sessionClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}
		user, err := h.users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
				return
			}
			h.serverError(c, err)
			c.Abort()
			return
		}
		effective := h.users.EffectiveRole(user)
		if !effective.Satisfies(required) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient_permissions"})
			return
		}
		c.Set(ctxUserKey, user)
		c.Set(ctxRoleKey, effective)
		c.Next()
	}
}

func sessionClaims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(ctxClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

func currentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*domain.User)
	return user
}

func effectiveRole(c *gin.Context) domain.Role {
	v, ok := c.Get(ctxRoleKey)
	if !ok {
		return domain.RoleUser
	}
	role, _ := v.(domain.Role)
	return role
}

// issueSession signs a token carrying the user's effective role and sets it
// as the session cookie.
func (h *Handler) issueSession(c *gin.Context, user *domain.User) error {
	signed := *user
	signed.Role = h.users.EffectiveRole(user)
	token, err := h.codec.Sign(&signed)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, token, int(h.codec.TTL().Seconds()), "/", "", false, true)
	return nil
}

func clearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, "", -1, "/", "", false, true)
}

func (h *Handler) getMe(c *gin.Context) {
	token, err := c.Cookie(sessionCookieName)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	claims := h.codec.Verify(token)
	if claims == nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	// report the fresh record, not the token snapshot
	user, err := h.users.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"userId":        user.ID,
		"email":         user.Email,
		"username":      user.Username,
		"role":          h.users.EffectiveRole(user),
	})
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_fields"})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "email_exists"})
			return
		}
		h.serverError(c, err)
		return
	}
	if err := h.issueSession(c, user); err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "email": user.Email, "username": user.Username})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_fields"})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
			return
		}
		h.serverError(c, err)
		return
	}
	if err := h.issueSession(c, user); err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "email": user.Email, "username": user.Username})
}

func (h *Handler) logout(c *gin.Context) {
	clearSession(c)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type profileRequest struct {
	Username string `json:"username"`
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_username"})
		return
	}

	claims := sessionClaims(c)
	user, err := h.users.UpdateUsername(c.Request.Context(), claims.UserID, req.Username)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		h.serverError(c, err)
		return
	}
	// username lives inside the signed claims, so refresh the cookie
	if err := h.issueSession(c, user); err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "username": user.Username})
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *Handler) changePassword(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CurrentPassword == "" || req.NewPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_fields"})
		return
	}

	claims := sessionClaims(c)
	err := h.users.ChangePassword(c.Request.Context(), claims.UserID, req.CurrentPassword, req.NewPassword)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	default:
		h.serverError(c, err)
	}
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.serverError(c, err)
		return
	}
	resp := make([]UserResponse, len(users))
	for i := range users {
		resp[i] = h.userToResponse(&users[i])
	}
	c.JSON(http.StatusOK, resp)
}

type assignRoleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) assignRole(c *gin.Context) {
	var req assignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Role == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_role"})
		return
	}

	user, err := h.users.AssignRole(c.Request.Context(), c.Param("id"), req.Role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRole):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_role"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
		default:
			h.serverError(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, h.userToResponse(user))
}
