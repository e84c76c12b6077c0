package models

import "time"

// Media is an image or video uploaded by an inspector. Chat messages refer
// to it weakly; deleting the media leaves the transcript intact.
type Media struct {
	ID          uint    `gorm:"column:media_id;primaryKey;autoIncrement"`
	InspectorID uint    `gorm:"not null;index"`
	ContractID  *uint   `gorm:"index"`
	TaskName    *string `gorm:"size:128"`
	MediaType   string  `gorm:"size:16;not null"`
	Filename    string  `gorm:"size:255"`
	Mimetype    string  `gorm:"size:128"`
	FileData    []byte  `gorm:"type:longblob"`
	UploadedAt  time.Time
}

// TableName implements the GORM tabler interface.
func (Media) TableName() string { return "media" }
