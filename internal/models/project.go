package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProjectStatus string

const (
	StatusDraft             ProjectStatus = "draft"
	StatusPendingProvincial ProjectStatus = "pending_provincial"
	StatusPendingSecretary  ProjectStatus = "pending_secretary"
	StatusPendingBoard      ProjectStatus = "pending_board"
	StatusApproved          ProjectStatus = "approved"
	StatusRejected          ProjectStatus = "rejected"
)

// Terminal reports whether no further transition is possible.
func (s ProjectStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type Project struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	ProjectName        string `gorm:"size:255;not null"`
	ProjectDescription string `gorm:"type:text"`
	OrganizationID     *uint
	OrganizationName   string          `gorm:"size:255"`
	OrganizationType   string          `gorm:"size:100"`
	Province           string          `gorm:"size:100;index"`
	TotalBudget        decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Objectives         string          `gorm:"type:text"`
	ExpectedResults    string          `gorm:"type:text"`
	StartDate          *time.Time
	EndDate            *time.Time
	DurationMonths     int
	CurrentStep        int           `gorm:"not null;default:1"`
	Status             ProjectStatus `gorm:"type:varchar(30);not null;index"`
	CreatedBy          uint          `gorm:"not null;index"`
	Creator            User          `gorm:"foreignKey:CreatedBy" json:"-"`
	SubmittedAt        *time.Time
	ApprovedAt         *time.Time

	Members     []ProjectMember `gorm:"foreignKey:ProjectID"`
	BudgetItems []BudgetItem    `gorm:"foreignKey:ProjectID"`
	Plans       []ProjectPlan   `gorm:"foreignKey:ProjectID"`
}

type ProjectMember struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	ProjectID  uint `gorm:"not null;index"`
	MemberID   *uint
	MemberName string `gorm:"size:255;not null"`
	IDCard     string `gorm:"size:20"`
	Position   string `gorm:"size:100"`
}

type BudgetItem struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	ProjectID  uint            `gorm:"not null;index"`
	ItemNo     int             `gorm:"not null"`
	ItemName   string          `gorm:"size:255;not null"`
	Quantity   int             `gorm:"not null;default:1"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(14,2)"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(14,2)"`
	Note       string          `gorm:"type:text"`
}

func (BudgetItem) TableName() string { return "project_budget_items" }

type ProjectPlan struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	ProjectID       uint            `gorm:"not null;index"`
	PlanNumber      int             `gorm:"not null"`
	PlanName        string          `gorm:"size:255;not null"`
	Objectives      string          `gorm:"type:text"`
	Activities      string          `gorm:"type:text"`
	Budget          decimal.Decimal `gorm:"type:numeric(14,2)"`
	ExpectedResults string          `gorm:"type:text"`
}
