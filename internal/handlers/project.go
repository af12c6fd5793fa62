package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AIWebFAZ/frdfund/internal/middleware"
	"github.com/AIWebFAZ/frdfund/internal/models"
	"github.com/AIWebFAZ/frdfund/internal/project"
)

type ProjectHandler struct {
	svc *project.Service
}

func NewProjectHandler(svc *project.Service) *ProjectHandler {
	return &ProjectHandler{svc: svc}
}

func (h *ProjectHandler) List(c *gin.Context) {
	actor, _ := middleware.Actor(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	projects, err := h.svc.List(c.Request.Context(), actor, project.ListFilter{
		Status: models.ProjectStatus(c.Query("status")),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    projects,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
		},
	})
}

func (h *ProjectHandler) Get(c *gin.Context) {
	id, bad := pathID(c)
	if bad {
		return
	}

	p, approvals, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"project":   p,
			"approvals": approvals,
		},
	})
}

func (h *ProjectHandler) Create(c *gin.Context) {
	actor, _ := middleware.Actor(c)

	var in project.DraftInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	p, err := h.svc.CreateDraft(c.Request.Context(), actor, originFrom(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, p)
}

func (h *ProjectHandler) Update(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	id, bad := pathID(c)
	if bad {
		return
	}

	var patch project.DraftPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	p, err := h.svc.UpdateDraft(c.Request.Context(), actor, originFrom(c), id, patch)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, p)
}

func (h *ProjectHandler) Submit(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	id, bad := pathID(c)
	if bad {
		return
	}

	p, err := h.svc.Submit(c.Request.Context(), actor, originFrom(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, p)
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	id, bad := pathID(c)
	if bad {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), actor, originFrom(c), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Project deleted"})
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid id"})
		return 0, true
	}
	return uint(id), false
}
