package model

import "time"

// Address 收货地址
type Address struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"index:idx_address_user;not null"`
	AddressType string    `json:"address_type" gorm:"type:varchar(20)"` // home, work, ...
	Street      string    `json:"street" gorm:"type:varchar(200);not null"`
	City        string    `json:"city" gorm:"type:varchar(100);not null"`
	State       string    `json:"state" gorm:"type:varchar(100);not null"`
	Pincode     string    `json:"pincode" gorm:"type:varchar(10);not null"`
	Country     string    `json:"country" gorm:"type:varchar(100);default:India"`
	IsDefault   bool      `json:"is_default" gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Address) TableName() string { return "addresses" }
