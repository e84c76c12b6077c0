package models

import "time"

// Inspector is a field inspector who talks to Steward over WhatsApp.
// Rows are provisioned by an administrator and only read by the pipeline.
type Inspector struct {
	ID             uint   `gorm:"column:inspector_id;primaryKey;autoIncrement"`
	Name           string `gorm:"size:128;not null"`
	WhatsAppNumber string `gorm:"column:whatsapp_number;size:20;not null;uniqueIndex"`
	Email          string `gorm:"size:128"`
	Active         bool   `gorm:"default:true"`
	CreatedAt      time.Time
}

// TableName implements the GORM tabler interface.
func (Inspector) TableName() string { return "inspectors" }
