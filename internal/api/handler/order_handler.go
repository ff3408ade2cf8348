package handler

import (
    "encoding/json"
    "strconv"

    "github.com/gin-gonic/gin"

    "github.com/d60-Lab/gomall/internal/api/middleware"
    "github.com/d60-Lab/gomall/internal/model"
    "github.com/d60-Lab/gomall/internal/service"
    "github.com/d60-Lab/gomall/pkg/response"
)

type checkoutRequest struct {
    AddressID     uint   `json:"address_id" binding:"required"`
    PaymentMethod string `json:"payment_method"`
}

// 管理端更新是封闭结构，出现未知字段直接拒绝，
// 防止误把 total_amount 之类的只读字段塞进来静默丢掉
type adminOrderUpdateRequest struct {
    Status         *string `json:"status"`
    PaymentStatus  *string `json:"payment_status"`
    TrackingNumber *string `json:"tracking_number"`
}

// Checkout 购物车下单
// @Summary 把购物车一次性转为订单
// @Tags 订单
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body checkoutRequest true "地址与支付方式"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/orders [post]
func (h *Handler) Checkout(c *gin.Context) {
    var req checkoutRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        response.BadRequest(c, err.Error())
        return
    }
    order, err := h.orderService.Checkout(c.Request.Context(), middleware.UserID(c), service.CheckoutInput{
        AddressID:     req.AddressID,
        PaymentMethod: req.PaymentMethod,
    })
    if err != nil {
        h.serviceError(c, err)
        return
    }
    response.Created(c, order)
}

// ListOrders 我的订单
// @Summary 当前用户订单列表
// @Tags 订单
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/orders [get]
func (h *Handler) ListOrders(c *gin.Context) {
    page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
    pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
    orders, total, err := h.orderService.ListOrders(c.Request.Context(), middleware.UserID(c), page, pageSize)
    if err != nil {
        h.serviceError(c, err)
        return
    }
    response.Success(c, gin.H{
        "orders":    orders,
        "page":      page,
        "page_size": pageSize,
        "total":     total,
        "pages":     response.Pages(total, pageSize),
    })
}

// GetOrder 订单详情
// @Summary 订单详情（仅本人）
// @Tags 订单
// @Security BearerAuth
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/orders/{id} [get]
func (h *Handler) GetOrder(c *gin.Context) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 32)
    if err != nil {
        response.BadRequest(c, "invalid order id")
        return
    }
    order, err := h.orderService.GetOrder(c.Request.Context(), middleware.UserID(c), uint(id))
    if err != nil {
        h.serviceError(c, err)
        return
    }
    response.Success(c, order)
}

// CancelOrder 取消订单
// @Summary 取消订单并归还库存，仅 pending/confirmed 可取消
// @Tags 订单
// @Security BearerAuth
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/orders/{id}/cancel [post]
func (h *Handler) CancelOrder(c *gin.Context) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 32)
    if err != nil {
        response.BadRequest(c, "invalid order id")
        return
    }
    order, err := h.orderService.Cancel(c.Request.Context(), middleware.UserID(c), uint(id))
    if err != nil {
        h.serviceError(c, err)
        return
    }
    response.Success(c, order)
}

// AdminUpdateOrder 管理端更新订单
// @Summary 更新订单状态/支付状态/运单号（管理员）
// @Tags 订单
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "订单ID"
// @Param request body adminOrderUpdateRequest true "更新字段"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/admin/orders/{id} [put]
func (h *Handler) AdminUpdateOrder(c *gin.Context) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 32)
    if err != nil {
        response.BadRequest(c, "invalid order id")
        return
    }
    var req adminOrderUpdateRequest
    dec := json.NewDecoder(c.Request.Body)
    dec.DisallowUnknownFields()
    if err := dec.Decode(&req); err != nil {
        response.BadRequest(c, err.Error())
        return
    }

    input := service.AdminOrderUpdateInput{TrackingNumber: req.TrackingNumber}
    if req.Status != nil {
        s := model.OrderStatus(*req.Status)
        input.Status = &s
    }
    if req.PaymentStatus != nil {
        p := model.PaymentStatus(*req.PaymentStatus)
        input.PaymentStatus = &p
    }

    order, err := h.orderService.AdminUpdate(c.Request.Context(), uint(id), input)
    if err != nil {
        h.serviceError(c, err)
        return
    }
    response.Success(c, order)
}

// AdminListOrders 管理端订单列表
// @Summary 全量订单列表（管理员），可按状态过滤
// @Tags 订单
// @Security BearerAuth
// @Param status query string false "订单状态"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/admin/orders [get]
func (h *Handler) AdminListOrders(c *gin.Context) {
    page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
    pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
    status := c.Query("status")
    orders, total, err := h.orderService.AdminList(c.Request.Context(), status, page, pageSize)
    if err != nil {
        h.serviceError(c, err)
        return
    }
    response.Success(c, gin.H{
        "orders":    orders,
        "page":      page,
        "page_size": pageSize,
        "total":     total,
        "pages":     response.Pages(total, pageSize),
    })
}
