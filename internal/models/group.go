package models

import "time"

// FarmerGroup is the organization directory behind wizard step 1. Rows are
// imported from the fund registry, the platform only reads them.
type FarmerGroup struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	Code               string `gorm:"column:group_code;size:50;uniqueIndex"`
	Name               string `gorm:"column:group_name;size:255;not null"`
	Type               string `gorm:"column:group_type;size:100"`
	RegistrationNumber string `gorm:"size:100"`
	RegistrationDate   *time.Time
	Province           string `gorm:"size:100;index"`
	District           string `gorm:"size:100"`
	Subdistrict        string `gorm:"size:100"`
	Address            string `gorm:"type:text"`
	Phone              string `gorm:"size:30"`
	Email              string `gorm:"size:255"`
	ContactPerson      string `gorm:"size:255"`
	MemberCount        int
	IsActive           bool `gorm:"not null;default:true"`
}

func (FarmerGroup) TableName() string { return "farmer_groups" }

type FarmerMember struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	GroupID   uint   `gorm:"not null;index"`
	CitizenID string `gorm:"size:20"`
	Title     string `gorm:"size:50"`
	FirstName string `gorm:"size:100"`
	LastName  string `gorm:"size:100"`
	Phone     string `gorm:"size:30"`
	Province  string `gorm:"size:100"`
	District  string `gorm:"size:100"`
	FarmSize  string `gorm:"size:100"`
	FarmType  string `gorm:"size:100"`
	IsActive  bool   `gorm:"not null;default:true"`
}

func (FarmerMember) TableName() string { return "farmer_members" }
