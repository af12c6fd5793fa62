package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/AIWebFAZ/frdfund/internal/models"
)

// Open connects with retries (the database container may still be starting)
// and runs migrations. The returned handle is the single store client,
// owned by the composition root and injected into every component.
func Open(dsn string, log *zap.Logger) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	const maxAttempts = 10
	for i := 1; i <= maxAttempts; i++ {
		log.Info("connecting to database", zap.Int("attempt", i), zap.Int("max_attempts", maxAttempts))

		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err == nil {
			break
		}

		log.Warn("database connection failed", zap.Error(err))
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect after %d attempts: %w", maxAttempts, err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserRoleAssignment{},
		&models.FarmerGroup{},
		&models.FarmerMember{},
		&models.Project{},
		&models.ProjectMember{},
		&models.BudgetItem{},
		&models.ProjectPlan{},
		&models.Approval{},
		&models.Document{},
		&models.AuditLog{},
	)
}

// SeedAdmin creates the bootstrap admin account when no admin exists yet.
func SeedAdmin(db *gorm.DB, username, password string, log *zap.Logger) {
	if username == "" {
		username = "admin@frdfund.local"
	}
	if password == "" {
		password = "Admin123!"
	}

	var count int64
	if err := db.Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&count).Error; err != nil {
		log.Error("failed to check admin user", zap.Error(err))
		return
	}
	if count > 0 {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to hash admin password", zap.Error(err))
		return
	}

	admin := models.User{
		Username:     username,
		PasswordHash: string(hash),
		FullName:     "System Administrator",
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Error("failed to create admin user", zap.Error(err))
		return
	}

	log.Info("created default admin user", zap.String("username", username))
}
