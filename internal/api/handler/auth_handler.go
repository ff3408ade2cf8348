package handler

import (
    "github.com/gin-gonic/gin"

    "github.com/d60-Lab/gomall/internal/service"
    "github.com/d60-Lab/gomall/pkg/response"
)

type registerRequest struct {
    Email     string `json:"email" binding:"required,email"`
    Username  string `json:"username" binding:"required,min=3,max=80"`
    Password  string `json:"password" binding:"required,min=6"`
    FirstName string `json:"first_name"`
    LastName  string `json:"last_name"`
    Phone     string `json:"phone"`
}

type loginRequest struct {
    Email    string `json:"email" binding:"required,email"`
    Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
    RefreshToken string `json:"refresh_token" binding:"required"`
}

// Register 用户注册
// @Summary 注册新用户
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body registerRequest true "注册信息"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
    var req registerRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        response.BadRequest(c, err.Error())
        return
    }
    user, pair, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
        Email:     req.Email,
        Username:  req.Username,
        Password:  req.Password,
        FirstName: req.FirstName,
        LastName:  req.LastName,
        Phone:     req.Phone,
    })
    if err != nil {
        h.serviceError(c, err)
        return
    }
    response.Created(c, gin.H{"user": user, "access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// Login 用户登录
// @Summary 邮箱密码登录
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body loginRequest true "登录信息"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
    var req loginRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        response.BadRequest(c, err.Error())
        return
    }
    user, pair, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
    if err != nil {
        h.serviceError(c, err)
        return
    }
    response.Success(c, gin.H{"user": user, "access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// Refresh 刷新 access token
// @Summary 用 refresh token 换取新 access token
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body refreshRequest true "refresh token"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/auth/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
    var req refreshRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        response.BadRequest(c, err.Error())
        return
    }
    access, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
    if err != nil {
        h.serviceError(c, err)
        return
    }
    response.Success(c, gin.H{"access_token": access})
}
