package handler

import (
    "strconv"

    "github.com/gin-gonic/gin"

    "github.com/d60-Lab/gomall/internal/api/middleware"
    "github.com/d60-Lab/gomall/pkg/response"
)

type cartAddRequest struct {
    ProductID uint `json:"product_id" binding:"required"`
    Quantity  int  `json:"quantity"`
}

type cartUpdateRequest struct {
    Quantity int `json:"quantity" binding:"required,gte=1"`
}

// GetCart 查看购物车
// @Summary 查看购物车
// @Tags 购物车
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /api/v1/cart [get]
func (h *Handler) GetCart(c *gin.Context) {
    cart, err := h.cartService.GetCart(c.Request.Context(), middleware.UserID(c))
    if err != nil {
        h.serviceError(c, err)
        return
    }
    response.Success(c, cart)
}

// AddToCart 加购
// @Summary 添加商品到购物车，已存在则累加数量
// @Tags 购物车
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body cartAddRequest true "商品与数量"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/cart/items [post]
func (h *Handler) AddToCart(c *gin.Context) {
    var req cartAddRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        response.BadRequest(c, err.Error())
        return
    }
    if req.Quantity == 0 {
        req.Quantity = 1
    }
    item, err := h.cartService.AddItem(c.Request.Context(), middleware.UserID(c), req.ProductID, req.Quantity)
    if err != nil {
        h.serviceError(c, err)
        return
    }
    response.Created(c, item)
}

// UpdateCartItem 修改购物车行数量
// @Summary 修改购物车某行数量
// @Tags 购物车
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "购物车行ID"
// @Param request body cartUpdateRequest true "数量"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/cart/items/{id} [put]
func (h *Handler) UpdateCartItem(c *gin.Context) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 32)
    if err != nil {
        response.BadRequest(c, "invalid cart item id")
        return
    }
    var req cartUpdateRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        response.BadRequest(c, err.Error())
        return
    }
    item, err := h.cartService.UpdateItem(c.Request.Context(), middleware.UserID(c), uint(id), req.Quantity)
    if err != nil {
        h.serviceError(c, err)
        return
    }
    response.Success(c, item)
}

// RemoveCartItem 移除购物车行
// @Summary 移除购物车某行
// @Tags 购物车
// @Security BearerAuth
// @Param id path int true "购物车行ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/cart/items/{id} [delete]
func (h *Handler) RemoveCartItem(c *gin.Context) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 32)
    if err != nil {
        response.BadRequest(c, "invalid cart item id")
        return
    }
    if err := h.cartService.RemoveItem(c.Request.Context(), middleware.UserID(c), uint(id)); err != nil {
        h.serviceError(c, err)
        return
    }
    response.Success(c, nil)
}

// ClearCart 清空购物车
// @Summary 清空购物车
// @Tags 购物车
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /api/v1/cart [delete]
func (h *Handler) ClearCart(c *gin.Context) {
    if err := h.cartService.Clear(c.Request.Context(), middleware.UserID(c)); err != nil {
        h.serviceError(c, err)
        return
    }
    response.Success(c, nil)
}
