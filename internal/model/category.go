package model

import "time"

// Category 商品分类，支持父子层级
type Category struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(100);uniqueIndex;not null"`
	Description string    `json:"description" gorm:"type:text"`
	ParentID    *uint     `json:"parent_id" gorm:"index"`
	IsActive    bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Category) TableName() string { return "categories" }
