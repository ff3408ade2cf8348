package service

import (
    "errors"
    "fmt"

    "github.com/d60-Lab/gomall/internal/model"
)

var (
    // ErrNotFound 资源不存在或对当前用户不可见
    ErrNotFound = errors.New("resource not found")

    ErrInvalidCredentials = errors.New("invalid email or password")
    ErrAccountDisabled    = errors.New("account is deactivated")
    ErrEmailTaken         = errors.New("email already registered")
    ErrUsernameTaken      = errors.New("username already taken")

    ErrCategoryExists = errors.New("category already exists")
    ErrSKUExists      = errors.New("sku already exists")

    ErrInvalidQuantity = errors.New("quantity must be at least 1")
    ErrEmptyCart       = errors.New("cart is empty")
    ErrInvalidAddress  = errors.New("invalid shipping address")

    ErrInvalidRating   = errors.New("rating must be between 1 and 5")
    ErrDuplicateReview = errors.New("product already reviewed")
)

// InsufficientStockError 库存不足，带上商品信息便于提示用户
type InsufficientStockError struct {
    ProductID uint
    Name      string
}

func (e *InsufficientStockError) Error() string {
    return fmt.Sprintf("insufficient stock for product %q", e.Name)
}

// TransitionError 非法订单状态迁移
type TransitionError struct {
    From model.OrderStatus
    To   model.OrderStatus
}

func (e *TransitionError) Error() string {
    return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}
