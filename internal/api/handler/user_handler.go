package handler

import (
    "strconv"

    "github.com/gin-gonic/gin"

    "github.com/d60-Lab/gomall/internal/api/middleware"
    "github.com/d60-Lab/gomall/internal/service"
    "github.com/d60-Lab/gomall/pkg/response"
)

type profileUpdateRequest struct {
    FirstName *string `json:"first_name"`
    LastName  *string `json:"last_name"`
    Phone     *string `json:"phone"`
}

type addressRequest struct {
    AddressType string `json:"address_type"`
    Street      string `json:"street" binding:"required"`
    City        string `json:"city" binding:"required"`
    State       string `json:"state" binding:"required"`
    Pincode     string `json:"pincode" binding:"required,pincode"`
    Country     string `json:"country"`
    IsDefault   bool   `json:"is_default"`
}

// GetProfile 查询个人资料
// @Summary 查询当前用户资料
// @Tags 用户
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/users/profile [get]
func (h *Handler) GetProfile(c *gin.Context) {
    user, err := h.userService.GetProfile(c.Request.Context(), middleware.UserID(c))
    if err != nil {
        h.serviceError(c, err)
        return
    }
    response.Success(c, user)
}

// UpdateProfile 更新个人资料
// @Summary 更新姓名电话，其余字段不可改
// @Tags 用户
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body profileUpdateRequest true "资料"
// @Success 200 {object} response.Response
// @Router /api/v1/users/profile [put]
func (h *Handler) UpdateProfile(c *gin.Context) {
    var req profileUpdateRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        response.BadRequest(c, err.Error())
        return
    }
    user, err := h.userService.UpdateProfile(c.Request.Context(), middleware.UserID(c), service.ProfileUpdateInput{
        FirstName: req.FirstName,
        LastName:  req.LastName,
        Phone:     req.Phone,
    })
    if err != nil {
        h.serviceError(c, err)
        return
    }
    response.Success(c, user)
}

// CreateAddress 新增收货地址
// @Summary 新增收货地址
// @Tags 用户
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body addressRequest true "地址"
// @Success 201 {object} response.Response
// @Router /api/v1/users/addresses [post]
func (h *Handler) CreateAddress(c *gin.Context) {
    var req addressRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        response.BadRequest(c, err.Error())
        return
    }
    addr, err := h.userService.CreateAddress(c.Request.Context(), middleware.UserID(c), service.AddressInput{
        AddressType: req.AddressType,
        Street:      req.Street,
        City:        req.City,
        State:       req.State,
        Pincode:     req.Pincode,
        Country:     req.Country,
        IsDefault:   req.IsDefault,
    })
    if err != nil {
        h.serviceError(c, err)
        return
    }
    response.Created(c, addr)
}

// ListAddresses 地址列表
// @Summary 查询收货地址列表
// @Tags 用户
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /api/v1/users/addresses [get]
func (h *Handler) ListAddresses(c *gin.Context) {
    addrs, err := h.userService.ListAddresses(c.Request.Context(), middleware.UserID(c))
    if err != nil {
        h.serviceError(c, err)
        return
    }
    response.Success(c, gin.H{"addresses": addrs})
}

// UpdateAddress 更新收货地址
// @Summary 更新收货地址
// @Tags 用户
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "地址ID"
// @Param request body addressRequest true "地址"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/users/addresses/{id} [put]
func (h *Handler) UpdateAddress(c *gin.Context) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 32)
    if err != nil {
        response.BadRequest(c, "invalid address id")
        return
    }
    var req addressRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        response.BadRequest(c, err.Error())
        return
    }
    addr, err := h.userService.UpdateAddress(c.Request.Context(), middleware.UserID(c), uint(id), service.AddressInput{
        AddressType: req.AddressType,
        Street:      req.Street,
        City:        req.City,
        State:       req.State,
        Pincode:     req.Pincode,
        Country:     req.Country,
        IsDefault:   req.IsDefault,
    })
    if err != nil {
        h.serviceError(c, err)
        return
    }
    response.Success(c, addr)
}

// DeleteAddress 删除收货地址
// @Summary 删除收货地址
// @Tags 用户
// @Security BearerAuth
// @Param id path int true "地址ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/users/addresses/{id} [delete]
func (h *Handler) DeleteAddress(c *gin.Context) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 32)
    if err != nil {
        response.BadRequest(c, "invalid address id")
        return
    }
    if err := h.userService.DeleteAddress(c.Request.Context(), middleware.UserID(c), uint(id)); err != nil {
        h.serviceError(c, err)
        return
    }
    response.Success(c, nil)
}
