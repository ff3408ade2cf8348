package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus 订单状态
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// PaymentStatus 支付状态（由外部支付服务回报）
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Valid 是否为合法订单状态
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Valid 是否为合法支付状态
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// orderTransitions 状态机：pending→confirmed→shipped→delivered，
// cancelled 仅可自 pending/confirmed 进入，终态不再迁移
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// CanTransition 判断 from→to 是否为允许的状态迁移
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order 订单模型
// 创建后 OrderNumber/UserID/TotalAmount/ShippingAddress 不再变化，
// 仅 Status/PaymentStatus/TrackingNumber 可更新，订单永不删除。
type Order struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	OrderNumber     string          `json:"order_number" gorm:"type:varchar(50);uniqueIndex;not null"`
	UserID          uint            `json:"user_id" gorm:"index:idx_order_user_created;not null"`
	Status          OrderStatus     `json:"status" gorm:"type:varchar(20);index;not null;default:pending"`
	PaymentStatus   PaymentStatus   `json:"payment_status" gorm:"type:varchar(20);not null;default:pending"`
	PaymentMethod   string          `json:"payment_method" gorm:"type:varchar(50)"`
	TotalAmount     decimal.Decimal `json:"total_amount" gorm:"type:decimal(10,2);not null"`
	ShippingAddress string          `json:"shipping_address" gorm:"type:text;not null"`
	TrackingNumber  string          `json:"tracking_number" gorm:"type:varchar(100)"`
	CreatedAt       time.Time       `json:"created_at" gorm:"index:idx_order_user_created"`
	UpdatedAt       time.Time       `json:"updated_at"`

	Items []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string { return "orders" }
