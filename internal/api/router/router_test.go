package router

import (
    "bytes"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "net/http/httptest"
    "path/filepath"
    "testing"
    "time"

    "github.com/gin-gonic/gin"
    "github.com/shopspring/decimal"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "golang.org/x/crypto/bcrypt"
    "gorm.io/driver/sqlite"
    "gorm.io/gorm"
    gormlogger "gorm.io/gorm/logger"

    "github.com/d60-Lab/gomall/config"
    "github.com/d60-Lab/gomall/internal/api/handler"
    "github.com/d60-Lab/gomall/internal/model"
    "github.com/d60-Lab/gomall/internal/repository"
    "github.com/d60-Lab/gomall/internal/service"
    "github.com/d60-Lab/gomall/pkg/database"
    "github.com/d60-Lab/gomall/pkg/token"
)

func newTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
    t.Helper()
    dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_journal_mode=WAL&_txlock=immediate",
        filepath.Join(t.TempDir(), "gomall.db"))
    db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
        TranslateError: true,
        Logger:         gormlogger.Discard,
    })
    if err != nil {
        t.Fatalf("open db: %v", err)
    }
    if err := database.Migrate(db); err != nil {
        t.Fatalf("migrate: %v", err)
    }

    maker, err := token.NewMaker("router-test-secret", 15*time.Minute, 24*time.Hour)
    if err != nil {
        t.Fatalf("new maker: %v", err)
    }

    userRepo := repository.NewUserRepository(db)
    addrRepo := repository.NewAddressRepository(db)
    categoryRepo := repository.NewCategoryRepository(db)
    productRepo := repository.NewProductRepository(db)
    cartRepo := repository.NewCartRepository(db)
    orderRepo := repository.NewOrderRepository(db)
    reviewRepo := repository.NewReviewRepository(db)

    h := handler.New(
        service.NewAuthService(userRepo, maker),
        service.NewUserService(db, userRepo, addrRepo),
        service.NewCatalogService(productRepo, categoryRepo, nil, nil),
        service.NewCartService(cartRepo, productRepo),
        service.NewOrderService(db, orderRepo, addrRepo, nil),
        service.NewReviewService(db, productRepo, reviewRepo, nil),
    )

    cfg := &config.Config{}
    cfg.Server.Mode = gin.TestMode
    return New(cfg, h, maker, userRepo), db
}

func seedAdmin(t *testing.T, db *gorm.DB) {
    t.Helper()
    hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
    if err != nil {
        t.Fatalf("hash: %v", err)
    }
    admin := &model.User{
        Email:        "admin@gomall.dev",
        Username:     "admin",
        PasswordHash: string(hash),
        IsActive:     true,
        IsAdmin:      true,
    }
    require.NoError(t, db.Create(admin).Error)
}

func doJSON(t *testing.T, r *gin.Engine, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
    t.Helper()
    var rd io.Reader
    if body != nil {
        buf, err := json.Marshal(body)
        if err != nil {
            t.Fatalf("marshal body: %v", err)
        }
        rd = bytes.NewReader(buf)
    }
    req := httptest.NewRequest(method, path, rd)
    if body != nil {
        req.Header.Set("Content-Type", "application/json")
    }
    if bearer != "" {
        req.Header.Set("Authorization", "Bearer "+bearer)
    }
    w := httptest.NewRecorder()
    r.ServeHTTP(w, req)
    return w
}

// decodeData 解出统一响应里的 data 字段
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
    t.Helper()
    var resp struct {
        Code    int             `json:"code"`
        Message string          `json:"message"`
        Data    json.RawMessage `json:"data"`
    }
    if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
        t.Fatalf("decode envelope: %v (body %s)", err, w.Body.String())
    }
    if out != nil {
        if err := json.Unmarshal(resp.Data, out); err != nil {
            t.Fatalf("decode data: %v (body %s)", err, w.Body.String())
        }
    }
}

type authPayload struct {
    User         model.User `json:"user"`
    AccessToken  string     `json:"access_token"`
    RefreshToken string     `json:"refresh_token"`
}

func login(t *testing.T, r *gin.Engine, email, password string) authPayload {
    t.Helper()
    w := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": password})
    require.Equal(t, http.StatusOK, w.Code, w.Body.String())
    var payload authPayload
    decodeData(t, w, &payload)
    return payload
}

func TestHealth(t *testing.T) {
    r, _ := newTestServer(t)
    w := doJSON(t, r, http.MethodGet, "/health", "", nil)
    require.Equal(t, http.StatusOK, w.Code)
    assert.Contains(t, w.Body.String(), `"healthy"`)
}

func TestAuthRequired(t *testing.T) {
    r, _ := newTestServer(t)

    w := doJSON(t, r, http.MethodGet, "/api/v1/cart", "", nil)
    assert.Equal(t, http.StatusUnauthorized, w.Code)

    w = doJSON(t, r, http.MethodGet, "/api/v1/orders", "garbage-token", nil)
    assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminOnly(t *testing.T) {
    r, _ := newTestServer(t)

    w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
        "email": "buyer@example.com", "username": "buyer", "password": "password123",
    })
    require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
    var buyer authPayload
    decodeData(t, w, &buyer)

    w = doJSON(t, r, http.MethodPost, "/api/v1/products", buyer.AccessToken, gin.H{
        "name": "X", "price": "1.00", "category_id": 1, "sku": "X1",
    })
    assert.Equal(t, http.StatusForbidden, w.Code)

    w = doJSON(t, r, http.MethodGet, "/api/v1/admin/orders", buyer.AccessToken, nil)
    assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRegisterValidation(t *testing.T) {
    r, _ := newTestServer(t)

    w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
        "email": "not-an-email", "username": "buyer", "password": "password123",
    })
    assert.Equal(t, http.StatusBadRequest, w.Code)

    w = doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
        "email": "buyer@example.com", "username": "buyer", "password": "short",
    })
    assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShoppingFlow(t *testing.T) {
    r, db := newTestServer(t)
    seedAdmin(t, db)
    admin := login(t, r, "admin@gomall.dev", "admin123")

    // 注册买家
    w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
        "email": "john@example.com", "username": "johndoe", "password": "password123",
        "first_name": "John",
    })
    require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
    var buyer authPayload
    decodeData(t, w, &buyer)

    // 管理员建分类和商品
    w = doJSON(t, r, http.MethodPost, "/api/v1/categories", admin.AccessToken, gin.H{
        "name": "Electronics", "description": "gadgets",
    })
    require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
    var category model.Category
    decodeData(t, w, &category)

    w = doJSON(t, r, http.MethodPost, "/api/v1/products", admin.AccessToken, gin.H{
        "name": "Sony WH-1000XM5", "price": "100.00", "discount_percentage": "10",
        "category_id": category.ID, "sku": "SONYWH1000", "stock_quantity": 3, "brand": "Sony",
    })
    require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
    var product model.Product
    decodeData(t, w, &product)
    require.NotZero(t, product.ID)

    // 买家加购、建地址、下单
    w = doJSON(t, r, http.MethodPost, "/api/v1/cart/items", buyer.AccessToken, gin.H{
        "product_id": product.ID, "quantity": 2,
    })
    require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

    w = doJSON(t, r, http.MethodPost, "/api/v1/users/addresses", buyer.AccessToken, gin.H{
        "street": "1 MG Road", "city": "Mumbai", "state": "MH", "pincode": "400001",
    })
    require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
    var addr model.Address
    decodeData(t, w, &addr)

    w = doJSON(t, r, http.MethodPost, "/api/v1/orders", buyer.AccessToken, gin.H{
        "address_id": addr.ID,
    })
    require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
    var order model.Order
    decodeData(t, w, &order)
    assert.Equal(t, model.OrderStatusPending, order.Status)
    assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("180.00")),
        "total = %s", order.TotalAmount)

    // 下单后公开商品页的库存已经扣掉
    w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", product.ID), "", nil)
    require.Equal(t, http.StatusOK, w.Code)
    var got model.Product
    decodeData(t, w, &got)
    assert.Equal(t, 1, got.StockQuantity)

    // 买家能看自己的订单
    w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", order.ID), buyer.AccessToken, nil)
    require.Equal(t, http.StatusOK, w.Code, w.Body.String())

    // 管理员推进状态；未知字段直接 400
    w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/v1/admin/orders/%d", order.ID), admin.AccessToken, gin.H{
        "status": "confirmed",
    })
    require.Equal(t, http.StatusOK, w.Code, w.Body.String())

    w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/v1/admin/orders/%d", order.ID), admin.AccessToken, gin.H{
        "total_amount": "0.01",
    })
    assert.Equal(t, http.StatusBadRequest, w.Code)

    // 取消后库存回来
    w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/cancel", order.ID), buyer.AccessToken, nil)
    require.Equal(t, http.StatusOK, w.Code, w.Body.String())
    decodeData(t, w, &order)
    assert.Equal(t, model.OrderStatusCancelled, order.Status)

    w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", product.ID), "", nil)
    decodeData(t, w, &got)
    assert.Equal(t, 3, got.StockQuantity)

    // 再取消一次是个状态冲突
    w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/cancel", order.ID), buyer.AccessToken, nil)
    assert.Equal(t, http.StatusConflict, w.Code)

    // 评价并驱动评分聚合
    w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/products/%d/reviews", product.ID), buyer.AccessToken, gin.H{
        "rating": 5, "title": "excellent",
    })
    require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

    w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/products/%d/reviews", product.ID), buyer.AccessToken, gin.H{
        "rating": 1,
    })
    assert.Equal(t, http.StatusConflict, w.Code)

    w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", product.ID), "", nil)
    decodeData(t, w, &got)
    assert.True(t, got.Rating.Equal(decimal.RequireFromString("5")), "rating = %s", got.Rating)
    assert.Equal(t, 1, got.ReviewCount)
}

func TestCheckoutConflictOverHTTP(t *testing.T) {
    r, db := newTestServer(t)
    seedAdmin(t, db)
    admin := login(t, r, "admin@gomall.dev", "admin123")

    w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
        "email": "jane@example.com", "username": "janedoe", "password": "password123",
    })
    require.Equal(t, http.StatusCreated, w.Code)
    var buyer authPayload
    decodeData(t, w, &buyer)

    w = doJSON(t, r, http.MethodPost, "/api/v1/categories", admin.AccessToken, gin.H{"name": "Books"})
    require.Equal(t, http.StatusCreated, w.Code)
    var category model.Category
    decodeData(t, w, &category)

    w = doJSON(t, r, http.MethodPost, "/api/v1/products", admin.AccessToken, gin.H{
        "name": "Rare Print", "price": "999.00", "category_id": category.ID,
        "sku": "RARE1", "stock_quantity": 1,
    })
    require.Equal(t, http.StatusCreated, w.Code)
    var product model.Product
    decodeData(t, w, &product)

    w = doJSON(t, r, http.MethodPost, "/api/v1/users/addresses", buyer.AccessToken, gin.H{
        "street": "2 Park St", "city": "Delhi", "state": "DL", "pincode": "110001",
    })
    require.Equal(t, http.StatusCreated, w.Code)
    var addr model.Address
    decodeData(t, w, &addr)

    // 购物车要 2 件但库存只有 1 件，下单报冲突且购物车保留
    w = doJSON(t, r, http.MethodPost, "/api/v1/cart/items", buyer.AccessToken, gin.H{
        "product_id": product.ID, "quantity": 1,
    })
    require.Equal(t, http.StatusCreated, w.Code)
    require.NoError(t, db.Model(&model.CartItem{}).
        Where("user_id = ?", buyer.User.ID).Update("quantity", 2).Error)

    w = doJSON(t, r, http.MethodPost, "/api/v1/orders", buyer.AccessToken, gin.H{"address_id": addr.ID})
    assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

    var cnt int64
    require.NoError(t, db.Model(&model.CartItem{}).Where("user_id = ?", buyer.User.ID).Count(&cnt).Error)
    assert.EqualValues(t, 1, cnt)

    var p model.Product
    require.NoError(t, db.First(&p, product.ID).Error)
    assert.Equal(t, 1, p.StockQuantity)
}
