package models

import "time"

type ApprovalLevel string

const (
	LevelProvincial ApprovalLevel = "provincial"
	LevelSecretary  ApprovalLevel = "secretary"
	LevelBoard      ApprovalLevel = "board"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

type DecisionAction string

const (
	ActionApprove DecisionAction = "approve"
	ActionReject  DecisionAction = "reject"
)

// Approval is one row per level reached in the review chain. At most one
// pending row exists per project.
type Approval struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	ProjectID  uint           `gorm:"not null;index"`
	Level      ApprovalLevel  `gorm:"column:approval_level;type:varchar(20);not null"`
	Status     ApprovalStatus `gorm:"type:varchar(20);not null;index"`
	ApproverID *uint
	Approver   *User `json:"-"`
	Comments   string `gorm:"type:text"`
	ApprovedAt *time.Time
}

func (Approval) TableName() string { return "project_approvals" }
