package model

import "time"

// Review 商品评价，(user_id, product_id) 唯一，一人一评
type Review struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex:ux_review_user_product;not null"`
	ProductID uint      `json:"product_id" gorm:"uniqueIndex:ux_review_user_product;index;not null"`
	Rating    int       `json:"rating" gorm:"not null"`
	Title     string    `json:"title" gorm:"type:varchar(200)"`
	Comment   string    `json:"comment" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Review) TableName() string { return "reviews" }
