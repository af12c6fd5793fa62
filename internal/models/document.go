package models

import "time"

type Document struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	ProjectID    uint   `gorm:"not null;index"`
	DocumentType string `gorm:"size:50;not null;default:'other'"`
	FileName     string `gorm:"size:255;not null"`
	StoredName   string `gorm:"size:255;not null"`
	FileSize     int64
	UploadedBy   uint
	Description  string `gorm:"type:text"`
}

func (Document) TableName() string { return "project_documents" }
