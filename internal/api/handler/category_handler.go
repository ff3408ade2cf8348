package handler

import (
    "github.com/gin-gonic/gin"

    "github.com/d60-Lab/gomall/pkg/response"
)

type categoryCreateRequest struct {
    Name        string `json:"name" binding:"required"`
    Description string `json:"description"`
    ParentID    *uint  `json:"parent_id"`
}

// ListCategories 分类列表
// @Summary 启用中的分类列表
// @Tags 商品
// @Success 200 {object} response.Response
// @Router /api/v1/categories [get]
func (h *Handler) ListCategories(c *gin.Context) {
    categories, err := h.catalogService.ListCategories(c.Request.Context())
    if err != nil {
        h.serviceError(c, err)
        return
    }
    response.Success(c, gin.H{"categories": categories})
}

// CreateCategory 新建分类
// @Summary 新建分类（管理员）
// @Tags 商品
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body categoryCreateRequest true "分类"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/categories [post]
func (h *Handler) CreateCategory(c *gin.Context) {
    var req categoryCreateRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        response.BadRequest(c, err.Error())
        return
    }
    category, err := h.catalogService.CreateCategory(c.Request.Context(), req.Name, req.Description, req.ParentID)
    if err != nil {
        h.serviceError(c, err)
        return
    }
    response.Created(c, category)
}
