package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product 商品模型
// 下单路径对 StockQuantity 只做条件更新（见 repository.ReserveStock），
// 管理端补货走整字段更新；Rating/ReviewCount 只由评价聚合事务写入。
type Product struct {
	ID                 uint            `json:"id" gorm:"primaryKey"`
	Name               string          `json:"name" gorm:"type:varchar(200);index;not null"`
	Description        string          `json:"description" gorm:"type:text"`
	Price              decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage" gorm:"type:decimal(5,2);not null;default:0"`
	CategoryID         *uint           `json:"category_id" gorm:"index"`
	Brand              string          `json:"brand" gorm:"type:varchar(100)"`
	StockQuantity      int             `json:"stock_quantity" gorm:"not null;default:0"`
	SKU                string          `json:"sku" gorm:"type:varchar(50);uniqueIndex;not null"`
	ImageURL           string          `json:"image_url" gorm:"type:varchar(500)"`
	IsActive           bool            `json:"is_active" gorm:"not null;default:true"`
	Rating             decimal.Decimal `json:"rating" gorm:"type:decimal(3,2);not null;default:0"`
	ReviewCount        int             `json:"review_count" gorm:"not null;default:0"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (Product) TableName() string { return "products" }

var hundred = decimal.NewFromInt(100)

// FinalPrice 折后价 = price * (1 - discount/100)，保留两位小数
func (p *Product) FinalPrice() decimal.Decimal {
	if p.DiscountPercentage.IsZero() {
		return p.Price.Round(2)
	}
	return p.Price.Mul(hundred.Sub(p.DiscountPercentage)).Div(hundred).Round(2)
}
