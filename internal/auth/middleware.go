package auth

import (
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"rollcall/internal/admin"
	"rollcall/internal/apperr"
)

// Context keys set by AdminAuth.
const (
	ClaimsKey = "claims"
	AdminKey  = "admin"
)

// AccessCookie is the cookie consulted when no bearer header is sent.
const AccessCookie = "access_token"

// AdminAuth requires a valid access token that belongs to a current admin.
func AdminAuth(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abort(c, apperr.New(apperr.CodeUnauthorized, "missing bearer token"))
			return
		}
		claims, u, err := m.Authenticate(c.Request.Context(), token)
		if err != nil {
			if apperr.CodeOf(err) == apperr.CodeInternal {
				log.Printf("authenticate: %v", err)
			}
			abort(c, err)
			return
		}
		c.Set(ClaimsKey, claims)
		c.Set(AdminKey, u)
		c.Next()
	}
}

// CurrentAdmin returns the admin set by AdminAuth.
func CurrentAdmin(c *gin.Context) (admin.User, bool) {
	v, ok := c.Get(AdminKey)
	if !ok {
		return admin.User{}, false
	}
	u, ok := v.(admin.User)
	return u, ok
}

// CurrentClaims returns the access token claims set by AdminAuth.
func CurrentClaims(c *gin.Context) (Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return Claims{}, false
	}
	claims, ok := v.(Claims)
	return claims, ok
}

func bearerToken(c *gin.Context) string {
	authz := c.GetHeader("Authorization")
	if len(authz) > len("bearer ") && strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[len("bearer "):])
	}
	if cookie, err := c.Cookie(AccessCookie); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

func abort(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	c.AbortWithStatusJSON(apperr.HTTPStatus(code), gin.H{
		"success": false,
		"error":   apperr.MessageOf(err),
		"code":    code,
	})
}
