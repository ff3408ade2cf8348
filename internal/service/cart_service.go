package service

import (
    "context"
    "errors"

    "github.com/shopspring/decimal"
    "gorm.io/gorm"

    "github.com/d60-Lab/gomall/internal/model"
    "github.com/d60-Lab/gomall/internal/repository"
)

// Cart 购物车视图，小计按当前折后价计算
type Cart struct {
    Items      []*model.CartItem `json:"items"`
    TotalItems int               `json:"total_items"`
    TotalPrice decimal.Decimal   `json:"total_price"`
}

// CartService 购物车
// 这里的库存校验只是提示性的，真正的扣减发生在下单事务里
type CartService interface {
    AddItem(ctx context.Context, userID, productID uint, qty int) (*model.CartItem, error)
    UpdateItem(ctx context.Context, userID, itemID uint, qty int) (*model.CartItem, error)
    RemoveItem(ctx context.Context, userID, itemID uint) error
    Clear(ctx context.Context, userID uint) error
    GetCart(ctx context.Context, userID uint) (*Cart, error)
}

type cartService struct {
    cartRepo    repository.CartRepository
    productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
    return &cartService{cartRepo: cartRepo, productRepo: productRepo}
}

func (s *cartService) AddItem(ctx context.Context, userID, productID uint, qty int) (*model.CartItem, error) {
    if qty < 1 {
        return nil, ErrInvalidQuantity
    }
    product, err := s.productRepo.GetByID(ctx, productID)
    if err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
            return nil, ErrNotFound
        }
        return nil, err
    }
    if !product.IsActive {
        return nil, ErrNotFound
    }

    merged := qty
    if existing, err := s.cartRepo.GetByUserProduct(ctx, userID, productID); err == nil {
        merged += existing.Quantity
    } else if !errors.Is(err, gorm.ErrRecordNotFound) {
        return nil, err
    }
    if product.StockQuantity < merged {
        return nil, &InsufficientStockError{ProductID: product.ID, Name: product.Name}
    }

    if err := s.cartRepo.Upsert(ctx, userID, productID, qty); err != nil {
        return nil, err
    }
    item, err := s.cartRepo.GetByUserProduct(ctx, userID, productID)
    if err != nil {
        return nil, err
    }
    item.Product = product
    return item, nil
}

func (s *cartService) UpdateItem(ctx context.Context, userID, itemID uint, qty int) (*model.CartItem, error) {
    if qty < 1 {
        return nil, ErrInvalidQuantity
    }
    item, err := s.cartRepo.GetByIDForUser(ctx, itemID, userID)
    if err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
            return nil, ErrNotFound
        }
        return nil, err
    }
    if item.Product != nil && item.Product.StockQuantity < qty {
        return nil, &InsufficientStockError{ProductID: item.ProductID, Name: item.Product.Name}
    }
    if err := s.cartRepo.SetQuantity(ctx, itemID, userID, qty); err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
            return nil, ErrNotFound
        }
        return nil, err
    }
    item.Quantity = qty
    return item, nil
}

func (s *cartService) RemoveItem(ctx context.Context, userID, itemID uint) error {
    if err := s.cartRepo.Remove(ctx, itemID, userID); err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
            return ErrNotFound
        }
        return err
    }
    return nil
}

func (s *cartService) Clear(ctx context.Context, userID uint) error {
    return s.cartRepo.Clear(ctx, userID)
}

func (s *cartService) GetCart(ctx context.Context, userID uint) (*Cart, error) {
    items, err := s.cartRepo.ListByUser(ctx, userID)
    if err != nil {
        return nil, err
    }
    cart := &Cart{Items: items, TotalPrice: decimal.Zero}
    for _, item := range items {
        cart.TotalItems += item.Quantity
        if item.Product != nil {
            line := item.Product.FinalPrice().Mul(decimal.NewFromInt(int64(item.Quantity)))
            cart.TotalPrice = cart.TotalPrice.Add(line)
        }
    }
    cart.TotalPrice = cart.TotalPrice.Round(2)
    return cart, nil
}
