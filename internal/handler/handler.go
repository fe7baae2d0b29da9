// Package handler exposes the attendance services over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"rollcall/internal/admin"
	"rollcall/internal/attendance"
	"rollcall/internal/auth"
	"rollcall/internal/member"
)

// Checker reports whether a backing service is reachable.
type Checker interface {
	Healthy(ctx context.Context) bool
}

// Deps are the collaborators a Handler serves.
type Deps struct {
	Members    *member.Service
	Attendance *attendance.Service
	Admins     *admin.Service
	Auth       *auth.Manager
	// SetupKey must accompany POST /api/setup. Empty disables the endpoint.
	SetupKey string
	// SecureCookies marks the access cookie Secure.
	SecureCookies bool
	Checks        map[string]Checker
}

// Handler serves the JSON API.
type Handler struct {
	members    *member.Service
	attendance *attendance.Service
	admins     *admin.Service
	auth       *auth.Manager
	setupKey   string
	secure     bool
	checks     map[string]Checker
}

// New creates a handler and registers its binding validators.
func New(d Deps) *Handler {
	registerValidators()
	return &Handler{
		members:    d.Members,
		attendance: d.Attendance,
		admins:     d.Admins,
		auth:       d.Auth,
		setupKey:   d.SetupKey,
		secure:     d.SecureCookies,
		checks:     d.Checks,
	}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", h.health)

	api := r.Group("/api")
	api.GET("/setup", h.setupStatus)
	api.POST("/setup", h.setup)
	api.POST("/auth/login", h.login)
	api.POST("/auth/refresh", h.refresh)

	protected := api.Group("", auth.AdminAuth(h.auth))
	protected.POST("/auth/logout", h.logout)
	protected.GET("/auth/me", h.me)
	protected.GET("/dashboard", h.dashboard)

	protected.GET("/members", h.listMembers)
	protected.POST("/members", h.createMember)
	protected.GET("/members/:id", h.getMember)
	protected.PUT("/members/:id", h.updateMember)
	protected.DELETE("/members/:id", h.deleteMember)

	protected.GET("/attendance/days", h.listDays)
	protected.GET("/attendance/days/:date", h.roster)
	protected.DELETE("/attendance/days/:date", h.deleteDay)
	protected.PUT("/attendance/days/:date/members/:memberId", h.setPresence)

	protected.POST("/checkins", h.checkIn)
	protected.GET("/checkins/today", h.todayFeed)

	protected.GET("/admins", h.listAdmins)
	protected.POST("/admins", h.createAdmin)
	protected.DELETE("/admins/:id", h.deleteAdmin)
}

func (h *Handler) health(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok"}
	for name, check := range h.checks {
		healthy := check.Healthy(c.Request.Context())
		body[name] = healthy
		if !healthy {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}
	c.JSON(status, body)
}

func (h *Handler) dashboard(c *gin.Context) {
	d, err := h.attendance.Dashboard(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, d)
}
