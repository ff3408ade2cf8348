package handler

import (
    "strconv"

    "github.com/gin-gonic/gin"
    "github.com/shopspring/decimal"

    "github.com/d60-Lab/gomall/internal/repository"
    "github.com/d60-Lab/gomall/internal/service"
    "github.com/d60-Lab/gomall/pkg/response"
)

type productCreateRequest struct {
    Name               string          `json:"name" binding:"required"`
    Description        string          `json:"description"`
    Price              decimal.Decimal `json:"price" binding:"required"`
    DiscountPercentage decimal.Decimal `json:"discount_percentage"`
    CategoryID         uint            `json:"category_id" binding:"required"`
    Brand              string          `json:"brand"`
    StockQuantity      int             `json:"stock_quantity" binding:"gte=0"`
    SKU                string          `json:"sku" binding:"required"`
    ImageURL           string          `json:"image_url"`
}

type productUpdateRequest struct {
    Name               *string          `json:"name"`
    Description        *string          `json:"description"`
    Price              *decimal.Decimal `json:"price"`
    DiscountPercentage *decimal.Decimal `json:"discount_percentage"`
    CategoryID         *uint            `json:"category_id"`
    Brand              *string          `json:"brand"`
    StockQuantity      *int             `json:"stock_quantity"`
    ImageURL           *string          `json:"image_url"`
    IsActive           *bool            `json:"is_active"`
}

// ListProducts 商品列表
// @Summary 商品列表，支持筛选排序分页
// @Tags 商品
// @Param category_id query int false "分类ID"
// @Param brand query string false "品牌"
// @Param min_price query number false "最低价"
// @Param max_price query number false "最高价"
// @Param search query string false "名称关键字"
// @Param sort_by query string false "排序字段 price/name/created_at/rating" default(created_at)
// @Param order query string false "asc/desc" default(desc)
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/products [get]
func (h *Handler) ListProducts(c *gin.Context) {
    params := repository.ProductListParams{
        Brand:  c.Query("brand"),
        Search: c.Query("search"),
        SortBy: c.DefaultQuery("sort_by", "created_at"),
        Order:  c.DefaultQuery("order", "desc"),
    }
    params.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
    params.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

    if v := c.Query("category_id"); v != "" {
        id, err := strconv.ParseUint(v, 10, 32)
        if err != nil {
            response.BadRequest(c, "invalid category_id")
            return
        }
        cid := uint(id)
        params.CategoryID = &cid
    }
    if v := c.Query("min_price"); v != "" {
        p, err := decimal.NewFromString(v)
        if err != nil {
            response.BadRequest(c, "invalid min_price")
            return
        }
        params.MinPrice = &p
    }
    if v := c.Query("max_price"); v != "" {
        p, err := decimal.NewFromString(v)
        if err != nil {
            response.BadRequest(c, "invalid max_price")
            return
        }
        params.MaxPrice = &p
    }

    products, total, err := h.catalogService.ListProducts(c.Request.Context(), params)
    if err != nil {
        h.serviceError(c, err)
        return
    }
    response.Success(c, gin.H{
        "products":  products,
        "page":      params.Page,
        "page_size": params.PageSize,
        "total":     total,
        "pages":     response.Pages(total, params.PageSize),
    })
}

// GetProduct 商品详情
// @Summary 商品详情（带缓存）
// @Tags 商品
// @Param id path int true "商品ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/products/{id} [get]
func (h *Handler) GetProduct(c *gin.Context) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 32)
    if err != nil {
        response.BadRequest(c, "invalid product id")
        return
    }
    product, err := h.catalogService.GetProduct(c.Request.Context(), uint(id))
    if err != nil {
        h.serviceError(c, err)
        return
    }
    response.Success(c, product)
}

// CreateProduct 新建商品
// @Summary 新建商品（管理员）
// @Tags 商品
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body productCreateRequest true "商品"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/products [post]
func (h *Handler) CreateProduct(c *gin.Context) {
    var req productCreateRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        response.BadRequest(c, err.Error())
        return
    }
    product, err := h.catalogService.CreateProduct(c.Request.Context(), service.ProductCreateInput{
        Name:               req.Name,
        Description:        req.Description,
        Price:              req.Price,
        DiscountPercentage: req.DiscountPercentage,
        CategoryID:         req.CategoryID,
        Brand:              req.Brand,
        StockQuantity:      req.StockQuantity,
        SKU:                req.SKU,
        ImageURL:           req.ImageURL,
    })
    if err != nil {
        h.serviceError(c, err)
        return
    }
    response.Created(c, product)
}

// UpdateProduct 更新商品
// @Summary 更新商品（管理员），缺省字段不改动
// @Tags 商品
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "商品ID"
// @Param request body productUpdateRequest true "商品"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/products/{id} [put]
func (h *Handler) UpdateProduct(c *gin.Context) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 32)
    if err != nil {
        response.BadRequest(c, "invalid product id")
        return
    }
    var req productUpdateRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        response.BadRequest(c, err.Error())
        return
    }
    product, err := h.catalogService.UpdateProduct(c.Request.Context(), uint(id), service.ProductUpdateInput{
        Name:               req.Name,
        Description:        req.Description,
        Price:              req.Price,
        DiscountPercentage: req.DiscountPercentage,
        CategoryID:         req.CategoryID,
        Brand:              req.Brand,
        StockQuantity:      req.StockQuantity,
        ImageURL:           req.ImageURL,
        IsActive:           req.IsActive,
    })
    if err != nil {
        h.serviceError(c, err)
        return
    }
    response.Success(c, product)
}

// DeleteProduct 下架商品
// @Summary 下架商品（管理员，软删除）
// @Tags 商品
// @Security BearerAuth
// @Param id path int true "商品ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/products/{id} [delete]
func (h *Handler) DeleteProduct(c *gin.Context) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 32)
    if err != nil {
        response.BadRequest(c, "invalid product id")
        return
    }
    if err := h.catalogService.DeactivateProduct(c.Request.Context(), uint(id)); err != nil {
        h.serviceError(c, err)
        return
    }
    response.Success(c, nil)
}
