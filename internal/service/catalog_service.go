package service

import (
    "context"
    "errors"

    "github.com/shopspring/decimal"
    "gorm.io/gorm"

    "github.com/d60-Lab/gomall/internal/cache"
    "github.com/d60-Lab/gomall/internal/model"
    "github.com/d60-Lab/gomall/internal/repository"
)

// ProductCreateInput 建品参数
type ProductCreateInput struct {
    Name               string
    Description        string
    Price              decimal.Decimal
    DiscountPercentage decimal.Decimal
    CategoryID         uint
    Brand              string
    StockQuantity      int
    SKU                string
    ImageURL           string
}

// ProductUpdateInput 改品参数，nil 字段不更新
type ProductUpdateInput struct {
    Name               *string
    Description        *string
    Price              *decimal.Decimal
    DiscountPercentage *decimal.Decimal
    CategoryID         *uint
    Brand              *string
    StockQuantity      *int
    ImageURL           *string
    IsActive           *bool
}

// CatalogService 商品与分类
type CatalogService interface {
    ListProducts(ctx context.Context, params repository.ProductListParams) ([]*model.Product, int64, error)
    GetProduct(ctx context.Context, id uint) (*model.Product, error)
    CreateProduct(ctx context.Context, input ProductCreateInput) (*model.Product, error)
    UpdateProduct(ctx context.Context, id uint, input ProductUpdateInput) (*model.Product, error)
    DeactivateProduct(ctx context.Context, id uint) error

    ListCategories(ctx context.Context) ([]*model.Category, error)
    CreateCategory(ctx context.Context, name, description string, parentID *uint) (*model.Category, error)
}

type catalogService struct {
    productRepo  repository.ProductRepository
    categoryRepo repository.CategoryRepository
    cache        *cache.ProductCache
    invalidator  *CacheInvalidator
}

func NewCatalogService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository,
    productCache *cache.ProductCache, invalidator *CacheInvalidator) CatalogService {
    return &catalogService{
        productRepo:  productRepo,
        categoryRepo: categoryRepo,
        cache:        productCache,
        invalidator:  invalidator,
    }
}

func (s *catalogService) ListProducts(ctx context.Context, params repository.ProductListParams) ([]*model.Product, int64, error) {
    if params.Page < 1 {
        params.Page = 1
    }
    if params.PageSize < 1 || params.PageSize > 100 {
        params.PageSize = 20
    }
    return s.productRepo.List(ctx, params)
}

func (s *catalogService) GetProduct(ctx context.Context, id uint) (*model.Product, error) {
    if s.cache != nil {
        if p, ok := s.cache.Get(ctx, id); ok {
            return p, nil
        }
    }
    p, err := s.productRepo.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
            return nil, ErrNotFound
        }
        return nil, err
    }
    if !p.IsActive {
        return nil, ErrNotFound
    }
    if s.cache != nil {
        s.cache.Set(ctx, p)
    }
    return p, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, input ProductCreateInput) (*model.Product, error) {
    exists, err := s.productRepo.ExistsBySKU(ctx, input.SKU)
    if err != nil {
        return nil, err
    }
    if exists {
        return nil, ErrSKUExists
    }

    categoryID := input.CategoryID
    p := &model.Product{
        Name:               input.Name,
        Description:        input.Description,
        Price:              input.Price.Round(2),
        DiscountPercentage: input.DiscountPercentage,
        CategoryID:         &categoryID,
        Brand:              input.Brand,
        StockQuantity:      input.StockQuantity,
        SKU:                input.SKU,
        ImageURL:           input.ImageURL,
        IsActive:           true,
    }
    if err := s.productRepo.Create(ctx, p); err != nil {
        if errors.Is(err, gorm.ErrDuplicatedKey) {
            return nil, ErrSKUExists
        }
        return nil, err
    }
    return p, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uint, input ProductUpdateInput) (*model.Product, error) {
    p, err := s.productRepo.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
            return nil, ErrNotFound
        }
        return nil, err
    }

    if input.Name != nil {
        p.Name = *input.Name
    }
    if input.Description != nil {
        p.Description = *input.Description
    }
    if input.Price != nil {
        p.Price = input.Price.Round(2)
    }
    if input.DiscountPercentage != nil {
        p.DiscountPercentage = *input.DiscountPercentage
    }
    if input.CategoryID != nil {
        p.CategoryID = input.CategoryID
    }
    if input.Brand != nil {
        p.Brand = *input.Brand
    }
    if input.StockQuantity != nil {
        p.StockQuantity = *input.StockQuantity
    }
    if input.ImageURL != nil {
        p.ImageURL = *input.ImageURL
    }
    if input.IsActive != nil {
        p.IsActive = *input.IsActive
    }

    if err := s.productRepo.Update(ctx, p); err != nil {
        return nil, err
    }
    s.invalidate(p.ID)
    return p, nil
}

func (s *catalogService) DeactivateProduct(ctx context.Context, id uint) error {
    p, err := s.productRepo.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
            return ErrNotFound
        }
        return err
    }
    p.IsActive = false
    if err := s.productRepo.Update(ctx, p); err != nil {
        return err
    }
    s.invalidate(p.ID)
    return nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*model.Category, error) {
    return s.categoryRepo.ListActive(ctx)
}

func (s *catalogService) CreateCategory(ctx context.Context, name, description string, parentID *uint) (*model.Category, error) {
    exists, err := s.categoryRepo.ExistsByName(ctx, name)
    if err != nil {
        return nil, err
    }
    if exists {
        return nil, ErrCategoryExists
    }
    c := &model.Category{Name: name, Description: description, ParentID: parentID, IsActive: true}
    if err := s.categoryRepo.Create(ctx, c); err != nil {
        if errors.Is(err, gorm.ErrDuplicatedKey) {
            return nil, ErrCategoryExists
        }
        return nil, err
    }
    return c, nil
}

func (s *catalogService) invalidate(productID uint) {
    if s.invalidator != nil {
        s.invalidator.Enqueue(productID)
    }
}
