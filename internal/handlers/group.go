package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/AIWebFAZ/frdfund/internal/models"
)

// GroupHandler serves the read-only farmer-group directory used by the
// submission wizard's organization step.
type GroupHandler struct {
	db *gorm.DB
}

func NewGroupHandler(db *gorm.DB) *GroupHandler {
	return &GroupHandler{db: db}
}

func (h *GroupHandler) List(c *gin.Context) {
	q := h.db.Model(&models.FarmerGroup{}).Where("is_active = ?", true)

	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		q = q.Where("group_name LIKE ? OR group_code LIKE ?", like, like)
	}
	if province := c.Query("province"); province != "" {
		q = q.Where("province = ?", province)
	}

	var groups []models.FarmerGroup
	if err := q.Order("group_name asc").Find(&groups).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Server error"})
		return
	}
	ok(c, groups)
}

func (h *GroupHandler) Get(c *gin.Context) {
	id, bad := pathID(c)
	if bad {
		return
	}

	var group models.FarmerGroup
	err := h.db.Where("id = ? AND is_active = ?", id, true).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Group not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Server error"})
		return
	}
	ok(c, group)
}

func (h *GroupHandler) Members(c *gin.Context) {
	id, bad := pathID(c)
	if bad {
		return
	}

	var members []models.FarmerMember
	err := h.db.
		Where("group_id = ? AND is_active = ?", id, true).
		Order("first_name asc, last_name asc").
		Find(&members).Error
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Server error"})
		return
	}
	ok(c, members)
}
