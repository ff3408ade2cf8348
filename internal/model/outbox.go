package model

import "time"

// Outbox 订单事件外发盒，与业务写入同事务落库，由 relay 异步投递
type Outbox struct {
    ID          string    `gorm:"primaryKey;type:varchar(36)"`
    EventType   string    `gorm:"type:varchar(50);index"`
    AggregateID uint      `gorm:"index:idx_outbox_aggregate"`
    Payload     string    `gorm:"type:text"`
    Status      string    `gorm:"type:varchar(16);index"` // pending, processing, done
    Attempts    int       `gorm:"default:0"`
    CreatedAt   time.Time `gorm:"index"`
    ProcessedAt *time.Time
}

func (Outbox) TableName() string { return "outbox" }

// 订单事件类型
const (
    EventOrderCreated   = "order.created"
    EventOrderUpdated   = "order.updated"
    EventOrderCancelled = "order.cancelled"
)

// Outbox 状态
const (
    OutboxStatusPending    = "pending"
    OutboxStatusProcessing = "processing"
    OutboxStatusDone       = "done"
)
