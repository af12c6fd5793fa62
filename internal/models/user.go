package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin              Role = "admin"
	RoleStaff              Role = "staff"
	RoleProvincialDirector Role = "provincial_director"
	RoleSecretaryGeneral   Role = "secretary_general"
	RoleBoard              Role = "board"
)

func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleProvincialDirector, RoleSecretaryGeneral, RoleBoard:
		return true
	}
	return false
}

type User struct {
	gorm.Model
	Username     string `gorm:"uniqueIndex;size:100;not null"`
	PasswordHash string `gorm:"not null" json:"-"`
	FullName     string `gorm:"size:255"`
	Email        string `gorm:"size:255"`
	Role         Role   `gorm:"type:varchar(30);not null"`
	Province     string `gorm:"size:100"`
	IsActive     bool   `gorm:"not null;default:true"`
}

// UserRoleAssignment is one extra role granted to a user. Province is set
// only for provincial_director rows. users.role stays the primary role for
// legacy single-role accounts.
type UserRoleAssignment struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	UserID   uint    `gorm:"not null;index"`
	User     User    `json:"-"`
	Role     Role    `gorm:"type:varchar(30);not null"`
	Province *string `gorm:"size:100"`
	IsActive bool    `gorm:"not null;default:true"`
}

func (UserRoleAssignment) TableName() string { return "user_roles" }
