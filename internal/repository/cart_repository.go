package repository

import (
    "context"

    "gorm.io/gorm"
    "gorm.io/gorm/clause"

    "github.com/d60-Lab/gomall/internal/model"
)

type CartRepository interface {
    Upsert(ctx context.Context, userID, productID uint, qty int) error
    GetByUserProduct(ctx context.Context, userID, productID uint) (*model.CartItem, error)
    GetByIDForUser(ctx context.Context, id, userID uint) (*model.CartItem, error)
    SetQuantity(ctx context.Context, id, userID uint, qty int) error
    Remove(ctx context.Context, id, userID uint) error
    Clear(ctx context.Context, userID uint) error
    ListByUser(ctx context.Context, userID uint) ([]*model.CartItem, error)
}

type cartRepository struct {
    db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository { return &cartRepository{db: db} }

func (r *cartRepository) Upsert(ctx context.Context, userID, productID uint, qty int) error {
    item := &model.CartItem{UserID: userID, ProductID: productID, Quantity: qty}
    // 已在购物车则累加数量
    return r.db.WithContext(ctx).Clauses(clause.OnConflict{
        Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
        DoUpdates: clause.Assignments(map[string]interface{}{"quantity": gorm.Expr("cart_items.quantity + ?", qty)}),
    }).Create(item).Error
}

func (r *cartRepository) GetByUserProduct(ctx context.Context, userID, productID uint) (*model.CartItem, error) {
    var item model.CartItem
    err := r.db.WithContext(ctx).
        Where("user_id = ? AND product_id = ?", userID, productID).
        First(&item).Error
    if err != nil {
        return nil, err
    }
    return &item, nil
}

func (r *cartRepository) GetByIDForUser(ctx context.Context, id, userID uint) (*model.CartItem, error) {
    var item model.CartItem
    err := r.db.WithContext(ctx).
        Preload("Product").
        Where("id = ? AND user_id = ?", id, userID).
        First(&item).Error
    if err != nil {
        return nil, err
    }
    return &item, nil
}

func (r *cartRepository) SetQuantity(ctx context.Context, id, userID uint, qty int) error {
    res := r.db.WithContext(ctx).
        Model(&model.CartItem{}).
        Where("id = ? AND user_id = ?", id, userID).
        Update("quantity", qty)
    if res.Error != nil {
        return res.Error
    }
    if res.RowsAffected == 0 {
        return gorm.ErrRecordNotFound
    }
    return nil
}

func (r *cartRepository) Remove(ctx context.Context, id, userID uint) error {
    res := r.db.WithContext(ctx).
        Where("id = ? AND user_id = ?", id, userID).
        Delete(&model.CartItem{})
    if res.Error != nil {
        return res.Error
    }
    if res.RowsAffected == 0 {
        return gorm.ErrRecordNotFound
    }
    return nil
}

func (r *cartRepository) Clear(ctx context.Context, userID uint) error {
    return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.CartItem{}).Error
}

func (r *cartRepository) ListByUser(ctx context.Context, userID uint) ([]*model.CartItem, error) {
    var items []*model.CartItem
    err := r.db.WithContext(ctx).
        Where("user_id = ?", userID).
        Preload("Product").
        Order("created_at ASC").
        Find(&items).Error
    return items, err
}
