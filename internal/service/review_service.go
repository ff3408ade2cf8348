package service

import (
    "context"
    "errors"

    "github.com/shopspring/decimal"
    "gorm.io/gorm"

    "github.com/d60-Lab/gomall/internal/model"
    "github.com/d60-Lab/gomall/internal/repository"
)

// ReviewInput 评价参数
type ReviewInput struct {
    Rating  int
    Title   string
    Comment string
}

// ReviewService 商品评价与评分聚合
type ReviewService interface {
    // Create 写入评价并在同一事务内重算商品评分，
    // 聚合基于整数 SUM/COUNT，最后才做除法取两位小数
    Create(ctx context.Context, userID, productID uint, input ReviewInput) (*model.Review, error)
    ListByProduct(ctx context.Context, productID uint, page, pageSize int) ([]*model.Review, int64, error)
}

type reviewService struct {
    db          *gorm.DB
    productRepo repository.ProductRepository
    reviewRepo  repository.ReviewRepository
    invalidator *CacheInvalidator
}

func NewReviewService(db *gorm.DB, productRepo repository.ProductRepository,
    reviewRepo repository.ReviewRepository, invalidator *CacheInvalidator) ReviewService {
    return &reviewService{db: db, productRepo: productRepo, reviewRepo: reviewRepo, invalidator: invalidator}
}

func (s *reviewService) Create(ctx context.Context, userID, productID uint, input ReviewInput) (*model.Review, error) {
    if input.Rating < 1 || input.Rating > 5 {
        return nil, ErrInvalidRating
    }
    if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
            return nil, ErrNotFound
        }
        return nil, err
    }
    if exists, err := s.reviewRepo.ExistsByUserProduct(ctx, userID, productID); err != nil {
        return nil, err
    } else if exists {
        return nil, ErrDuplicateReview
    }

    review := &model.Review{
        UserID:    userID,
        ProductID: productID,
        Rating:    input.Rating,
        Title:     input.Title,
        Comment:   input.Comment,
    }
    err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
        if err := tx.Create(review).Error; err != nil {
            // 唯一索引兜底并发重复评价
            if errors.Is(err, gorm.ErrDuplicatedKey) {
                return ErrDuplicateReview
            }
            return err
        }

        var agg struct {
            Total int64
            Cnt   int64
        }
        if err := tx.Raw(
            "SELECT COALESCE(SUM(rating), 0) AS total, COUNT(*) AS cnt FROM reviews WHERE product_id = ?",
            productID).Scan(&agg).Error; err != nil {
            return err
        }
        avg := decimal.Zero
        if agg.Cnt > 0 {
            avg = decimal.NewFromInt(agg.Total).Div(decimal.NewFromInt(agg.Cnt)).Round(2)
        }
        return tx.Model(&model.Product{}).Where("id = ?", productID).Updates(map[string]interface{}{
            "rating":       avg,
            "review_count": agg.Cnt,
        }).Error
    })
    if err != nil {
        return nil, err
    }

    if s.invalidator != nil {
        s.invalidator.Enqueue(productID)
    }
    return review, nil
}

func (s *reviewService) ListByProduct(ctx context.Context, productID uint, page, pageSize int) ([]*model.Review, int64, error) {
    if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
            return nil, 0, ErrNotFound
        }
        return nil, 0, err
    }
    if page < 1 {
        page = 1
    }
    if pageSize < 1 || pageSize > 100 {
        pageSize = 10
    }
    return s.reviewRepo.ListByProduct(ctx, productID, page, pageSize)
}
