package handler

import (
	"crypto/subtle"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rollcall/internal/apperr"
	"rollcall/internal/auth"
)

// SetupKeyHeader carries the one-time setup secret.
const SetupKeyHeader = "X-Setup-Key"

type credentials struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type newAdminRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) setupStatus(c *gin.Context) {
	needs, err := h.admins.NeedsSetup(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"needs_setup": needs, "enabled": h.setupKey != ""})
}

func (h *Handler) setup(c *gin.Context) {
	if h.setupKey == "" {
		fail(c, apperr.New(apperr.CodeForbidden, "setup is disabled"))
		return
	}
	given := c.GetHeader(SetupKeyHeader)
	if subtle.ConstantTimeCompare([]byte(given), []byte(h.setupKey)) != 1 {
		fail(c, apperr.New(apperr.CodeForbidden, "invalid setup key"))
		return
	}
	var req newAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	u, err := h.admins.Bootstrap(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	log.Printf("first admin %s created via setup", u.Email)
	ok(c, http.StatusCreated, u)
}

func (h *Handler) login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	tokens, u, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		fail(c, err)
		return
	}
	h.setAccessCookie(c, tokens.AccessToken, tokens.AccessExp)
	ok(c, http.StatusOK, gin.H{"tokens": tokens, "admin": u})
}

func (h *Handler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		fail(c, apperr.Validation("refresh_token is required"))
		return
	}
	tokens, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		fail(c, err)
		return
	}
	h.setAccessCookie(c, tokens.AccessToken, tokens.AccessExp)
	ok(c, http.StatusOK, gin.H{"tokens": tokens})
}

func (h *Handler) logout(c *gin.Context) {
	claims, _ := auth.CurrentClaims(c)
	var req refreshRequest
	// the body is optional
	_ = c.ShouldBindJSON(&req)
	if err := h.auth.Logout(c.Request.Context(), claims, req.RefreshToken); err != nil {
		fail(c, err)
		return
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(auth.AccessCookie, "", -1, "/", "", h.secure, true)
	ok(c, http.StatusOK, gin.H{"logged_out": true})
}

func (h *Handler) me(c *gin.Context) {
	u, found := auth.CurrentAdmin(c)
	if !found {
		fail(c, apperr.ErrNotAuthenticated)
		return
	}
	ok(c, http.StatusOK, u)
}

func (h *Handler) setAccessCookie(c *gin.Context, token string, exp time.Time) {
	maxAge := int(time.Until(exp).Seconds())
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(auth.AccessCookie, token, maxAge, "/", "", h.secure, true)
}
