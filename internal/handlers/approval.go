package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AIWebFAZ/frdfund/internal/approval"
	"github.com/AIWebFAZ/frdfund/internal/middleware"
	"github.com/AIWebFAZ/frdfund/internal/models"
	"github.com/AIWebFAZ/frdfund/internal/project"
)

type ApprovalHandler struct {
	svc   *project.Service
	queue *approval.Queue
}

func NewApprovalHandler(svc *project.Service, queue *approval.Queue) *ApprovalHandler {
	return &ApprovalHandler{svc: svc, queue: queue}
}

// Pending lists the projects awaiting the caller's decision, oldest first.
func (h *ApprovalHandler) Pending(c *gin.Context) {
	actor, _ := middleware.Actor(c)

	items, err := h.queue.PendingFor(c.Request.Context(), actor)
	if err != nil {
		fail(c, err)
		return
	}

	data := make([]gin.H, 0, len(items))
	for _, it := range items {
		data = append(data, gin.H{
			"project":  it.Project,
			"approval": it.Approval,
		})
	}
	ok(c, data)
}

type decisionRequest struct {
	Action   models.DecisionAction `json:"action" binding:"required"`
	Comments string                `json:"comments"`
}

// Decide applies an approve/reject action at the project's current level.
func (h *ApprovalHandler) Decide(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	id, bad := pathID(c)
	if bad {
		return
	}

	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "action is required"})
		return
	}

	p, err := h.svc.RecordDecision(c.Request.Context(), actor, originFrom(c), id, req.Action, req.Comments)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Decision recorded",
		"nextStatus": p.Status,
	})
}

// History returns every approval row of a project in chain order.
func (h *ApprovalHandler) History(c *gin.Context) {
	id, bad := pathID(c)
	if bad {
		return
	}

	approvals, err := h.svc.ApprovalHistory(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, approvals)
}
