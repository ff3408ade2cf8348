package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/gomall/internal/model"
)

// OrderRepository 订单仓储接口
// 订单为只增记录，仓储不提供删除；状态迁移由服务层在事务内以条件更新完成
type OrderRepository interface {
	// Create 创建订单（连同订单行）
	Create(ctx context.Context, order *model.Order) error

	// GetByID 根据ID查询订单
	GetByID(ctx context.Context, id uint) (*model.Order, error)

	// GetByIDForUser 查询归属某用户的订单
	GetByIDForUser(ctx context.Context, id, userID uint) (*model.Order, error)

	// ListByUser 查询用户订单列表（按创建时间倒序分页）
	ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]*model.Order, int64, error)

	// ListAll 管理端订单列表，status 为空则不过滤
	ListAll(ctx context.Context, status model.OrderStatus, page, pageSize int) ([]*model.Order, int64, error)

	// Count 统计订单数量
	Count(ctx context.Context) (int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepository) GetByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByIDForUser(ctx context.Context, id, userID uint) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uint, page, pageSize int) ([]*model.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []*model.Order
	err := q.Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *orderRepository) ListAll(ctx context.Context, status model.OrderStatus, page, pageSize int) ([]*model.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []*model.Order
	err := q.Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *orderRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).Count(&count).Error
	return count, err
}
