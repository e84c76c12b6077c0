package models

import "time"

// Chat message senders.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// ChatSession is a rolling conversation window for one inspector. Expiry is
// a query-time filter on CreatedAt; rows are never deleted.
type ChatSession struct {
	ID              uint      `gorm:"column:session_id;primaryKey;autoIncrement"`
	InspectorID     uint      `gorm:"not null;index:idx_inspector_created"`
	CreatedAt       time.Time `gorm:"index:idx_inspector_created"`
	LastInteraction time.Time
	IsActive        bool `gorm:"default:true"`

	Messages []ChatMessage `gorm:"foreignKey:SessionID"`
}

// TableName implements the GORM tabler interface.
func (ChatSession) TableName() string { return "chat_sessions" }

// ChatMessage is a single append-only turn in a ChatSession. Sequence
// defines replay order independent of wall-clock timestamps.
type ChatMessage struct {
	ID        uint   `gorm:"column:message_id;primaryKey;autoIncrement"`
	SessionID uint   `gorm:"not null;index:idx_session_sequence"`
	Sequence  int    `gorm:"not null;index:idx_session_sequence"`
	Sender    string `gorm:"size:16;not null"` // "user" or "assistant"
	Content   string `gorm:"type:text;not null"`
	MediaID   *uint
	Timestamp time.Time
}

// TableName implements the GORM tabler interface.
func (ChatMessage) TableName() string { return "chat_messages" }
