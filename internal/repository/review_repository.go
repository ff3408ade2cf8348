package repository

import (
    "context"

    "gorm.io/gorm"

    "github.com/d60-Lab/gomall/internal/model"
)

type ReviewRepository interface {
    ExistsByUserProduct(ctx context.Context, userID, productID uint) (bool, error)
    ListByProduct(ctx context.Context, productID uint, page, pageSize int) ([]*model.Review, int64, error)
}

type reviewRepository struct {
    db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository { return &reviewRepository{db: db} }

func (r *reviewRepository) ExistsByUserProduct(ctx context.Context, userID, productID uint) (bool, error) {
    var cnt int64
    if err := r.db.WithContext(ctx).
        Model(&model.Review{}).
        Where("user_id = ? AND product_id = ?", userID, productID).
        Count(&cnt).Error; err != nil {
        return false, err
    }
    return cnt > 0, nil
}

func (r *reviewRepository) ListByProduct(ctx context.Context, productID uint, page, pageSize int) ([]*model.Review, int64, error) {
    q := r.db.WithContext(ctx).Model(&model.Review{}).Where("product_id = ?", productID)

    var total int64
    if err := q.Count(&total).Error; err != nil {
        return nil, 0, err
    }

    var reviews []*model.Review
    err := q.Preload("User").
        Order("created_at DESC").
        Offset((page - 1) * pageSize).
        Limit(pageSize).
        Find(&reviews).Error
    if err != nil {
        return nil, 0, err
    }
    return reviews, total, nil
}
