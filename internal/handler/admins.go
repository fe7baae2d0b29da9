package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rollcall/internal/apperr"
	"rollcall/internal/auth"
)

func (h *Handler) listAdmins(c *gin.Context) {
	admins, err := h.admins.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, admins)
}

func (h *Handler) createAdmin(c *gin.Context) {
	var req newAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	u, err := h.admins.Create(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

func (h *Handler) deleteAdmin(c *gin.Context) {
	actor, found := auth.CurrentAdmin(c)
	if !found {
		fail(c, apperr.ErrNotAuthenticated)
		return
	}
	if err := h.admins.Delete(c.Request.Context(), actor.ID, c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": c.Param("id")})
}
