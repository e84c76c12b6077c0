package models

import "time"

// Contract statuses.
const (
	ContractPending    = "pending"
	ContractInProgress = "in_progress"
	ContractCompleted  = "completed"
	ContractCancelled  = "cancelled"
)

// Work order statuses.
const (
	WorkOrderScheduled   = "scheduled"
	WorkOrderCompleted   = "completed"
	WorkOrderRescheduled = "rescheduled"
	WorkOrderCancelled   = "cancelled"
)

// Checklist item statuses.
const (
	ChecklistPending   = "pending"
	ChecklistCompleted = "completed"
)

// Client is the property owner who commissioned a Contract.
type Client struct {
	ID        uint   `gorm:"column:client_id;primaryKey;autoIncrement"`
	Name      string `gorm:"column:client_name;size:128;not null"`
	Phone     string `gorm:"size:20"`
	CreatedAt time.Time
}

// TableName implements the GORM tabler interface.
func (Client) TableName() string { return "clients" }

// Contract is an inspection job sold to a client. It moves through
// pending -> in_progress -> completed, or to cancelled.
type Contract struct {
	ID                 uint   `gorm:"column:contract_id;primaryKey;autoIncrement"`
	ClientID           uint   `gorm:"not null;index"`
	ClientName         string `gorm:"size:128"`
	Address            string `gorm:"size:255"`
	Phone              string `gorm:"size:20"`
	Description        string `gorm:"type:text"`
	Status             string `gorm:"size:16;default:pending;index"`
	CancellationReason string `gorm:"type:text"`
	ReportSent         bool   `gorm:"default:false;index"`
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Client     Client          `gorm:"foreignKey:ClientID"`
	WorkOrders []WorkOrder     `gorm:"foreignKey:ContractID"`
	Checklist  []ChecklistItem `gorm:"foreignKey:ContractID"`
}

// TableName implements the GORM tabler interface.
func (Contract) TableName() string { return "contracts" }

// WorkOrder is a scheduled visit by an inspector for a Contract.
type WorkOrder struct {
	ID            uint      `gorm:"column:work_order_id;primaryKey;autoIncrement"`
	ContractID    uint      `gorm:"not null;index"`
	InspectorID   uint      `gorm:"not null;index:idx_inspector_date"`
	ScheduledDate time.Time `gorm:"index:idx_inspector_date"`
	Status        string    `gorm:"size:16;default:scheduled;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Contract Contract `gorm:"foreignKey:ContractID"`
}

// TableName implements the GORM tabler interface.
func (WorkOrder) TableName() string { return "work_orders" }

// ChecklistItem is one task within a room of a Contract's checklist.
type ChecklistItem struct {
	ID          uint   `gorm:"column:checklist_id;primaryKey;autoIncrement"`
	ContractID  uint   `gorm:"not null;index:idx_contract_room"`
	RoomName    string `gorm:"size:64;not null;index:idx_contract_room"`
	TaskName    string `gorm:"size:128;not null"`
	Status      string `gorm:"size:16;default:pending"`
	CompletedAt *time.Time
	CompletedBy *uint
}

// TableName implements the GORM tabler interface.
func (ChecklistItem) TableName() string { return "contract_checklists" }

// Comment is a free-text annotation an inspector leaves on a task.
type Comment struct {
	ID          uint   `gorm:"column:comment_id;primaryKey;autoIncrement"`
	InspectorID uint   `gorm:"not null;index"`
	ContractID  uint   `gorm:"not null;index"`
	TaskName    string `gorm:"size:128"`
	CommentText string `gorm:"type:text;not null"`
	CreatedAt   time.Time
	EditedAt    *time.Time `gorm:"column:updated_at"`
}

// TableName implements the GORM tabler interface.
func (Comment) TableName() string { return "comments" }
