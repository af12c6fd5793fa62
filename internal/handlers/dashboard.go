package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/AIWebFAZ/frdfund/internal/middleware"
	"github.com/AIWebFAZ/frdfund/internal/models"
)

type DashboardHandler struct {
	db *gorm.DB
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{db: db}
}

func (h *DashboardHandler) Stats(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	scoped := actor.HasRole(models.RoleProvincialDirector) &&
		len(actor.Provinces) > 0 &&
		!actor.HasRole(models.RoleAdmin)

	base := func() *gorm.DB {
		q := h.db.Model(&models.Project{})
		if scoped {
			q = q.Where("province IN ?", actor.Provinces)
		}
		return q
	}

	var total, pending, approved int64
	if err := base().Count(&total).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Server error"})
		return
	}
	base().Where("status IN ?", []models.ProjectStatus{
		models.StatusPendingProvincial, models.StatusPendingSecretary, models.StatusPendingBoard,
	}).Count(&pending)
	base().Where("status = ?", models.StatusApproved).Count(&approved)

	var budget decimal.NullDecimal
	base().Where("status = ?", models.StatusApproved).
		Select("sum(total_budget)").
		Scan(&budget)
	totalBudget := decimal.Zero
	if budget.Valid {
		totalBudget = budget.Decimal
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"total_projects": total,
			"pending":        pending,
			"approved":       approved,
			"total_budget":   totalBudget,
		},
	})
}

func (h *DashboardHandler) RecentProjects(c *gin.Context) {
	actor, _ := middleware.Actor(c)

	q := h.db.Model(&models.Project{})
	if actor.HasRole(models.RoleProvincialDirector) && len(actor.Provinces) > 0 && !actor.HasRole(models.RoleAdmin) {
		q = q.Where("province IN ?", actor.Provinces)
	}

	var projects []models.Project
	if err := q.Order("created_at desc").Limit(10).Find(&projects).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Server error"})
		return
	}
	ok(c, projects)
}
