package handler

import (
    "strconv"

    "github.com/gin-gonic/gin"

    "github.com/d60-Lab/gomall/internal/api/middleware"
    "github.com/d60-Lab/gomall/internal/service"
    "github.com/d60-Lab/gomall/pkg/response"
)

type reviewCreateRequest struct {
    Rating  int    `json:"rating" binding:"required,gte=1,lte=5"`
    Title   string `json:"title"`
    Comment string `json:"comment"`
}

// ListReviews 商品评价列表
// @Summary 商品评价列表
// @Tags 评价
// @Param id path int true "商品ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/products/{id}/reviews [get]
func (h *Handler) ListReviews(c *gin.Context) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 32)
    if err != nil {
        response.BadRequest(c, "invalid product id")
        return
    }
    page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
    pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
    reviews, total, err := h.reviewService.ListByProduct(c.Request.Context(), uint(id), page, pageSize)
    if err != nil {
        h.serviceError(c, err)
        return
    }
    response.Success(c, gin.H{
        "reviews":   reviews,
        "page":      page,
        "page_size": pageSize,
        "total":     total,
        "pages":     response.Pages(total, pageSize),
    })
}

// CreateReview 发表评价
// @Summary 发表商品评价，一人一评，同步更新商品均分
// @Tags 评价
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "商品ID"
// @Param request body reviewCreateRequest true "评价"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/products/{id}/reviews [post]
func (h *Handler) CreateReview(c *gin.Context) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 32)
    if err != nil {
        response.BadRequest(c, "invalid product id")
        return
    }
    var req reviewCreateRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        response.BadRequest(c, err.Error())
        return
    }
    review, err := h.reviewService.Create(c.Request.Context(), middleware.UserID(c), uint(id), service.ReviewInput{
        Rating:  req.Rating,
        Title:   req.Title,
        Comment: req.Comment,
    })
    if err != nil {
        h.serviceError(c, err)
        return
    }
    response.Created(c, review)
}
