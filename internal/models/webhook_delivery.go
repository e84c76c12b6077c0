package models

import "time"

// Webhook delivery states.
const (
	DeliveryProcessing = "processing"
	DeliveryProcessed  = "processed"
)

// WebhookDelivery claims a provider message ID so that redelivered webhooks
// for the same inbound message are not processed twice.
type WebhookDelivery struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	MessageID string `gorm:"size:128;not null;uniqueIndex"`
	Phone     string `gorm:"size:20"`
	Status    string `gorm:"size:16;not null;default:processing"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName implements the GORM tabler interface.
func (WebhookDelivery) TableName() string { return "webhook_deliveries" }
