package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type memberRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// listMembers returns every member with attendance stats.
func (h *Handler) listMembers(c *gin.Context) {
	stats, err := h.attendance.MemberStats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, stats)
}

func (h *Handler) createMember(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	m, err := h.members.Create(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, m)
}

func (h *Handler) getMember(c *gin.Context) {
	m, err := h.members.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

func (h *Handler) updateMember(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	m, err := h.members.Update(c.Request.Context(), c.Param("id"), req.Name, req.Email)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

func (h *Handler) deleteMember(c *gin.Context) {
	if err := h.members.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": c.Param("id")})
}
