package handler

import (
    "errors"

    "github.com/gin-gonic/gin"

    "github.com/d60-Lab/gomall/internal/service"
    "github.com/d60-Lab/gomall/pkg/response"
    "github.com/d60-Lab/gomall/pkg/token"
)

// Handler 聚合所有 HTTP handler 的依赖
type Handler struct {
    authService    service.AuthService
    userService    service.UserService
    catalogService service.CatalogService
    cartService    service.CartService
    orderService   service.OrderService
    reviewService  service.ReviewService
}

func New(authService service.AuthService, userService service.UserService,
    catalogService service.CatalogService, cartService service.CartService,
    orderService service.OrderService, reviewService service.ReviewService) *Handler {
    return &Handler{
        authService:    authService,
        userService:    userService,
        catalogService: catalogService,
        cartService:    cartService,
        orderService:   orderService,
        reviewService:  reviewService,
    }
}

// serviceError 业务错误统一映射到 HTTP 状态码
func (h *Handler) serviceError(c *gin.Context, err error) {
    var stockErr *service.InsufficientStockError
    var transErr *service.TransitionError
    switch {
    case errors.Is(err, service.ErrNotFound):
        response.NotFound(c, err.Error())
    case errors.As(err, &stockErr),
        errors.As(err, &transErr),
        errors.Is(err, service.ErrDuplicateReview),
        errors.Is(err, service.ErrEmailTaken),
        errors.Is(err, service.ErrUsernameTaken),
        errors.Is(err, service.ErrSKUExists),
        errors.Is(err, service.ErrCategoryExists):
        response.Conflict(c, err.Error())
    case errors.Is(err, service.ErrInvalidCredentials),
        errors.Is(err, token.ErrInvalidToken),
        errors.Is(err, token.ErrExpiredToken),
        errors.Is(err, token.ErrWrongType):
        response.Unauthorized(c, err.Error())
    case errors.Is(err, service.ErrAccountDisabled):
        response.Forbidden(c, err.Error())
    case errors.Is(err, service.ErrEmptyCart),
        errors.Is(err, service.ErrInvalidAddress),
        errors.Is(err, service.ErrInvalidQuantity),
        errors.Is(err, service.ErrInvalidRating),
        errors.Is(err, service.ErrInvalidStatus):
        response.BadRequest(c, err.Error())
    default:
        response.InternalError(c, err)
    }
}
