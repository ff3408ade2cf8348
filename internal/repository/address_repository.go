package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/gomall/internal/model"
)

// AddressRepository 收货地址仓储接口
type AddressRepository interface {
	Create(ctx context.Context, addr *model.Address) error
	GetByIDForUser(ctx context.Context, id, userID uint) (*model.Address, error)
	ListByUser(ctx context.Context, userID uint) ([]*model.Address, error)
	Update(ctx context.Context, addr *model.Address) error
	Delete(ctx context.Context, id, userID uint) error
	// ClearDefault 清除该用户现有默认地址标记
	ClearDefault(ctx context.Context, userID uint) error
}

type addressRepository struct {
	db *gorm.DB
}

// NewAddressRepository 创建地址仓储
func NewAddressRepository(db *gorm.DB) AddressRepository {
	return &addressRepository{db: db}
}

func (r *addressRepository) Create(ctx context.Context, addr *model.Address) error {
	return r.db.WithContext(ctx).Create(addr).Error
}

func (r *addressRepository) GetByIDForUser(ctx context.Context, id, userID uint) (*model.Address, error) {
	var addr model.Address
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&addr).Error
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

func (r *addressRepository) ListByUser(ctx context.Context, userID uint) ([]*model.Address, error) {
	var addrs []*model.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC").
		Find(&addrs).Error
	return addrs, err
}

func (r *addressRepository) Update(ctx context.Context, addr *model.Address) error {
	return r.db.WithContext(ctx).Save(addr).Error
}

func (r *addressRepository) Delete(ctx context.Context, id, userID uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&model.Address{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *addressRepository) ClearDefault(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).
		Model(&model.Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}
