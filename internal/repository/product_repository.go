package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/d60-Lab/gomall/internal/model"
)

// ErrInsufficientStock 库存不足（条件扣减未命中任何行且商品存在）
var ErrInsufficientStock = errors.New("insufficient stock")

// productSortColumns 列出允许排序的列，防止把用户输入拼进 ORDER BY
var productSortColumns = map[string]string{
	"price":      "price",
	"name":       "name",
	"created_at": "created_at",
	"rating":     "rating",
}

// ProductListParams 商品列表查询参数
type ProductListParams struct {
	CategoryID *uint
	Brand      string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Search     string
	SortBy     string
	Order      string
	Page       int
	PageSize   int
}

// ProductRepository 商品仓储接口
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id uint) (*model.Product, error)
	ExistsBySKU(ctx context.Context, sku string) (bool, error)
	Update(ctx context.Context, product *model.Product) error
	List(ctx context.Context, params ProductListParams) ([]*model.Product, int64, error)
	// Reserve 条件扣减库存，库存不足返回 ErrInsufficientStock
	Reserve(ctx context.Context, productID uint, qty int) error
	// Release 归还库存（取消订单）
	Release(ctx context.Context, productID uint, qty int) error
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepository) GetByID(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).Model(&model.Product{}).Where("sku = ?", sku).Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *productRepository) List(ctx context.Context, params ProductListParams) ([]*model.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Product{}).Where("is_active = ?", true)

	if params.CategoryID != nil {
		q = q.Where("category_id = ?", *params.CategoryID)
	}
	if params.Brand != "" {
		q = q.Where("brand = ?", params.Brand)
	}
	if params.MinPrice != nil {
		q = q.Where("price >= ?", *params.MinPrice)
	}
	if params.MaxPrice != nil {
		q = q.Where("price <= ?", *params.MaxPrice)
	}
	if params.Search != "" {
		q = q.Where("name LIKE ?", "%"+params.Search+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	col, ok := productSortColumns[params.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "ASC"
	if params.Order == "desc" {
		dir = "DESC"
	}

	var products []*model.Product
	err := q.Order(col + " " + dir).
		Offset((params.Page - 1) * params.PageSize).
		Limit(params.PageSize).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *productRepository) Reserve(ctx context.Context, productID uint, qty int) error {
	return ReserveStock(r.db.WithContext(ctx), productID, qty)
}

func (r *productRepository) Release(ctx context.Context, productID uint, qty int) error {
	return ReleaseStock(r.db.WithContext(ctx), productID, qty)
}

// ReserveStock 单语句条件扣减，依赖行级写锁保证并发下不超卖。
// 未命中任何行时区分商品不存在与库存不足。
// tx 既可以是连接池句柄也可以是事务句柄，便于在下单事务内复用。
func ReserveStock(tx *gorm.DB, productID uint, qty int) error {
	res := tx.Model(&model.Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var cnt int64
		if err := tx.Model(&model.Product{}).Where("id = ?", productID).Count(&cnt).Error; err != nil {
			return err
		}
		if cnt == 0 {
			return gorm.ErrRecordNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}

// ReleaseStock 归还库存，与 ReserveStock 对称
func ReleaseStock(tx *gorm.DB, productID uint, qty int) error {
	res := tx.Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
