package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/AIWebFAZ/frdfund/internal/audit"
	"github.com/AIWebFAZ/frdfund/internal/middleware"
	"github.com/AIWebFAZ/frdfund/internal/models"
)

type UserHandler struct {
	db    *gorm.DB
	audit *audit.Recorder
}

func NewUserHandler(db *gorm.DB, recorder *audit.Recorder) *UserHandler {
	return &UserHandler{db: db, audit: recorder}
}

func (h *UserHandler) List(c *gin.Context) {
	var users []models.User
	if err := h.db.Order("username asc").Find(&users).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Server error"})
		return
	}
	ok(c, users)
}

type createUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Province string `json:"province"`
}

func (h *UserHandler) Create(c *gin.Context) {
	actor, _ := middleware.Actor(c)

	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "username and password are required"})
		return
	}

	role := models.Role(req.Role)
	if req.Role == "" {
		role = models.RoleStaff
	}
	if !models.ValidRole(role) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid role"})
		return
	}

	var count int64
	h.db.Model(&models.User{}).Where("username = ?", req.Username).Count(&count)
	if count > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Username already exists"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	user := models.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Email:        req.Email,
		Role:         role,
		Province:     req.Province,
		IsActive:     true,
	}
	if err := h.db.Create(&user).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Server error"})
		return
	}

	id := user.ID
	h.audit.Record(audit.Entry{
		Actor:    actor,
		Action:   models.AuditCreate,
		Table:    "users",
		RecordID: &id,
		NewValues: map[string]any{
			"username":  user.Username,
			"full_name": user.FullName,
			"role":      string(user.Role),
			"province":  user.Province,
		},
		Origin: originFrom(c),
	})

	created(c, user)
}

func (h *UserHandler) Deactivate(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	id, bad := pathID(c)
	if bad {
		return
	}

	var user models.User
	err := h.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Server error"})
		return
	}

	if err := h.db.Model(&user).Update("is_active", false).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Server error"})
		return
	}

	h.audit.Record(audit.Entry{
		Actor:     actor,
		Action:    models.AuditUpdate,
		Table:     "users",
		RecordID:  &id,
		OldValues: map[string]any{"is_active": true},
		NewValues: map[string]any{"is_active": false},
		Origin:    originFrom(c),
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User deactivated"})
}

// Roles lists a user's extra role assignments.
func (h *UserHandler) Roles(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("userId"))
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid user id"})
		return
	}

	var assignments []models.UserRoleAssignment
	if err := h.db.Where("user_id = ?", userID).Order("role asc").Find(&assignments).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Server error"})
		return
	}
	ok(c, assignments)
}

type addRoleRequest struct {
	Role     string  `json:"role" binding:"required"`
	Province *string `json:"province"`
}

func (h *UserHandler) AddRole(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	userID, err := strconv.Atoi(c.Param("userId"))
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid user id"})
		return
	}

	var req addRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "role is required"})
		return
	}
	if !models.ValidRole(models.Role(req.Role)) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid role"})
		return
	}

	q := h.db.Model(&models.UserRoleAssignment{}).Where("user_id = ? AND role = ?", userID, req.Role)
	if req.Province != nil {
		q = q.Where("province = ?", *req.Province)
	} else {
		q = q.Where("province IS NULL")
	}
	var count int64
	q.Count(&count)
	if count > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Role already exists for this user"})
		return
	}

	assignment := models.UserRoleAssignment{
		UserID:   uint(userID),
		Role:     models.Role(req.Role),
		Province: req.Province,
		IsActive: true,
	}
	if err := h.db.Create(&assignment).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Server error"})
		return
	}

	h.audit.Record(audit.Entry{
		Actor:    actor,
		Action:   models.AuditCreate,
		Table:    "user_roles",
		RecordID: &assignment.ID,
		NewValues: map[string]any{
			"user_id": userID,
			"role":    req.Role,
		},
		Origin: originFrom(c),
	})

	created(c, assignment)
}

func (h *UserHandler) RemoveRole(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	roleID, err := strconv.Atoi(c.Param("roleId"))
	if err != nil || roleID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid role id"})
		return
	}

	var assignment models.UserRoleAssignment
	dbErr := h.db.First(&assignment, roleID).Error
	if errors.Is(dbErr, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Role assignment not found"})
		return
	}
	if dbErr != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Server error"})
		return
	}

	if err := h.db.Delete(&assignment).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Server error"})
		return
	}

	id := assignment.ID
	h.audit.Record(audit.Entry{
		Actor:    actor,
		Action:   models.AuditDelete,
		Table:    "user_roles",
		RecordID: &id,
		OldValues: map[string]any{
			"user_id": assignment.UserID,
			"role":    string(assignment.Role),
		},
		Origin: originFrom(c),
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Role removed"})
}
