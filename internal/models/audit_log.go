package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audit action types.
const (
	AuditCreate  = "CREATE"
	AuditUpdate  = "UPDATE"
	AuditDelete  = "DELETE"
	AuditLogin   = "LOGIN"
	AuditLogout  = "LOGOUT"
	AuditApprove = "APPROVE"
	AuditReject  = "REJECT"
)

// AuditLog is append-only: the application never updates or deletes rows.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"index"`

	UserID   *uint  `gorm:"index"`
	Username string `gorm:"size:100;not null"`
	Action   string `gorm:"size:20;not null;index"`
	Table    string `gorm:"column:table_name;size:50;not null;index"`
	RecordID *uint  `gorm:"index"`

	OldValues datatypes.JSONMap
	NewValues datatypes.JSONMap

	IPAddress string `gorm:"size:45"`
	UserAgent string `gorm:"type:text"`
}

func (AuditLog) TableName() string { return "audit_logs" }
