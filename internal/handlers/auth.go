package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/AIWebFAZ/frdfund/internal/audit"
	"github.com/AIWebFAZ/frdfund/internal/middleware"
	"github.com/AIWebFAZ/frdfund/internal/models"
)

type AuthHandler struct {
	db        *gorm.DB
	audit     *audit.Recorder
	jwtSecret string
	jwtExpire time.Duration
}

func NewAuthHandler(db *gorm.DB, recorder *audit.Recorder, jwtSecret string, expireHours int) *AuthHandler {
	return &AuthHandler{
		db:        db,
		audit:     recorder,
		jwtSecret: jwtSecret,
		jwtExpire: time.Duration(expireHours) * time.Hour,
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "username and password are required"})
		return
	}

	var user models.User
	err := h.db.Where("username = ? AND is_active = ?", req.Username, true).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
		return
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Server error"})
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
		return
	}

	roles, provinces := h.rolesFor(&user)

	now := time.Now()
	claims := middleware.Claims{
		UserID:    user.ID,
		Username:  user.Username,
		FullName:  user.FullName,
		Role:      string(user.Role),
		Roles:     roles,
		Province:  user.Province,
		Provinces: provinces,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.jwtExpire)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.jwtSecret))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	userID := user.ID
	h.audit.Record(audit.Entry{
		Actor:     middleware.ActorFromClaims(&claims),
		Action:    models.AuditLogin,
		Table:     "users",
		RecordID:  &userID,
		NewValues: map[string]any{"auth_type": "password"},
		Origin:    originFrom(c),
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"user": gin.H{
			"id":        user.ID,
			"username":  user.Username,
			"full_name": user.FullName,
			"email":     user.Email,
			"role":      user.Role,
			"roles":     roles,
			"province":  user.Province,
			"provinces": provinces,
		},
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	id := actor.ID
	h.audit.Record(audit.Entry{
		Actor:    actor,
		Action:   models.AuditLogout,
		Table:    "users",
		RecordID: &id,
		Origin:   originFrom(c),
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out"})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	actor, _ := middleware.Actor(c)

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "current_password and new_password are required"})
		return
	}
	if len(req.NewPassword) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "New password must be at least 6 characters"})
		return
	}

	var user models.User
	if err := h.db.First(&user, actor.ID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Current password is incorrect"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}
	if err := h.db.Model(&user).Update("password_hash", string(hash)).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Server error"})
		return
	}

	id := user.ID
	h.audit.Record(audit.Entry{
		Actor:     actor,
		Action:    models.AuditUpdate,
		Table:     "users",
		RecordID:  &id,
		NewValues: map[string]any{"password_changed": true},
		Origin:    originFrom(c),
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password changed successfully"})
}

// rolesFor builds the canonical role/province arrays from the user_roles
// table, falling back to the user's primary columns for legacy accounts.
func (h *AuthHandler) rolesFor(user *models.User) ([]string, []string) {
	var assignments []models.UserRoleAssignment
	h.db.Where("user_id = ? AND is_active = ?", user.ID, true).Find(&assignments)

	roleSet := map[string]struct{}{}
	provSet := map[string]struct{}{}
	var roles, provinces []string

	add := func(role, province string) {
		if role != "" {
			if _, seen := roleSet[role]; !seen {
				roleSet[role] = struct{}{}
				roles = append(roles, role)
			}
		}
		if province != "" {
			if _, seen := provSet[province]; !seen {
				provSet[province] = struct{}{}
				provinces = append(provinces, province)
			}
		}
	}

	add(string(user.Role), user.Province)
	for _, a := range assignments {
		p := ""
		if a.Province != nil {
			p = *a.Province
		}
		add(string(a.Role), p)
	}
	return roles, provinces
}

func originFrom(c *gin.Context) audit.Origin {
	return audit.Origin{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
