package model

import "time"

// CartItem 购物车行
// 复合唯一键，同一用户同一商品只有一行
// ux_cart_user_product = (user_id, product_id)
type CartItem struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index:idx_cart_user;uniqueIndex:ux_cart_user_product;not null"`
	ProductID uint      `json:"product_id" gorm:"uniqueIndex:ux_cart_user_product;not null"`
	Quantity  int       `json:"quantity" gorm:"not null;default:1"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (CartItem) TableName() string { return "cart_items" }
