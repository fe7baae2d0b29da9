package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type presenceRequest struct {
	Present *bool `json:"present" binding:"required"`
}

type checkInRequest struct {
	MemberID string `json:"member_id"`
}

func (h *Handler) listDays(c *gin.Context) {
	days, err := h.attendance.Days(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	if days == nil {
		days = []string{}
	}
	ok(c, http.StatusOK, gin.H{"days": days, "today": h.attendance.Today()})
}

func (h *Handler) roster(c *gin.Context) {
	var uri dayURI
	if err := c.ShouldBindUri(&uri); err != nil {
		bindFailed(c, err)
		return
	}
	entries, err := h.attendance.ForDate(c.Request.Context(), uri.Date)
	if err != nil {
		fail(c, err)
		return
	}
	present := 0
	for _, e := range entries {
		if e.Present {
			present++
		}
	}
	ok(c, http.StatusOK, gin.H{"date": uri.Date, "present": present, "members": entries})
}

func (h *Handler) deleteDay(c *gin.Context) {
	var uri dayURI
	if err := c.ShouldBindUri(&uri); err != nil {
		bindFailed(c, err)
		return
	}
	removed, err := h.attendance.DeleteDay(c.Request.Context(), uri.Date)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"date": uri.Date, "removed": removed})
}

func (h *Handler) setPresence(c *gin.Context) {
	var uri presenceURI
	if err := c.ShouldBindUri(&uri); err != nil {
		bindFailed(c, err)
		return
	}
	var req presenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	if err := h.attendance.SetPresent(c.Request.Context(), uri.MemberID, uri.Date, *req.Present); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"date": uri.Date, "member_id": uri.MemberID, "present": *req.Present})
}

// checkIn records a scan. The payload is the raw member id read from the QR code.
func (h *Handler) checkIn(c *gin.Context) {
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}
	res, err := h.attendance.CheckIn(c.Request.Context(), req.MemberID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

func (h *Handler) todayFeed(c *gin.Context) {
	feed, err := h.attendance.TodayFeed(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"date": h.attendance.Today(), "checkins": feed})
}
