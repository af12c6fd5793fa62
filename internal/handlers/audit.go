package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AIWebFAZ/frdfund/internal/audit"
)

type AuditHandler struct {
	recorder *audit.Recorder
}

func NewAuditHandler(recorder *audit.Recorder) *AuditHandler {
	return &AuditHandler{recorder: recorder}
}

func (h *AuditHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}

	f := audit.ListFilter{
		Action: c.Query("action"),
		Table:  c.Query("table_name"),
		Page:   page,
		Limit:  limit,
	}
	if v := c.Query("user_id"); v != "" {
		if id, err := strconv.Atoi(v); err == nil && id > 0 {
			uid := uint(id)
			f.UserID = &uid
		}
	}
	if v := c.Query("start_date"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.From = &t
		}
	}
	if v := c.Query("end_date"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			end := t.Add(24*time.Hour - time.Nanosecond)
			f.To = &end
		}
	}

	logs, total, err := h.recorder.List(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}

	totalPages := total / int64(f.Limit)
	if total%int64(f.Limit) != 0 {
		totalPages++
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"data":        logs,
		"total":       total,
		"totalPages":  totalPages,
		"currentPage": f.Page,
		"limit":       f.Limit,
	})
}

// RecordHistory lists every entry for one record, oldest first.
func (h *AuditHandler) RecordHistory(c *gin.Context) {
	table := c.Param("table")
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid id"})
		return
	}

	logs, err := h.recorder.RecordHistory(c.Request.Context(), table, uint(id))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, logs)
}

// ActorSummary returns per-action counts for one user over the last N days.
func (h *AuditHandler) ActorSummary(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("userId"))
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid user id"})
		return
	}
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	rows, err := h.recorder.ActorSummary(c.Request.Context(), uint(userID), days)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, rows)
}
