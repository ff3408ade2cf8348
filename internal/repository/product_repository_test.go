package repository

import (
    "context"
    "errors"
    "fmt"
    "path/filepath"
    "sync"
    "testing"

    "github.com/shopspring/decimal"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "gorm.io/driver/sqlite"
    "gorm.io/gorm"
    gormlogger "gorm.io/gorm/logger"

    "github.com/d60-Lab/gomall/internal/model"
)

// setupProductDB 并发用例会从连接池拿多个连接，必须用文件库 + WAL，
// 纯内存库每个连接各自一份数据
func setupProductDB(t *testing.T) *gorm.DB {
    t.Helper()
    dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_journal_mode=WAL&_txlock=immediate",
        filepath.Join(t.TempDir(), "test.db"))
    db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
        TranslateError: true,
        Logger:         gormlogger.Discard,
    })
    if err != nil {
        t.Fatalf("open db: %v", err)
    }
    if err := db.AutoMigrate(&model.Category{}, &model.Product{}); err != nil {
        t.Fatalf("migrate: %v", err)
    }
    return db
}

func makeProduct(name, sku, price string, stock int) *model.Product {
    return &model.Product{
        Name:          name,
        SKU:           sku,
        Price:         decimal.RequireFromString(price),
        StockQuantity: stock,
        IsActive:      true,
    }
}

func TestReserveAndRelease(t *testing.T) {
    db := setupProductDB(t)
    repo := NewProductRepository(db)
    ctx := context.Background()

    p := makeProduct("Keyboard", "KB-01", "199.00", 5)
    require.NoError(t, repo.Create(ctx, p))

    require.NoError(t, repo.Reserve(ctx, p.ID, 3))
    got, err := repo.GetByID(ctx, p.ID)
    require.NoError(t, err)
    assert.Equal(t, 2, got.StockQuantity)

    // 剩 2 件再扣 3 件必须失败且库存原样
    err = repo.Reserve(ctx, p.ID, 3)
    assert.ErrorIs(t, err, ErrInsufficientStock)
    got, err = repo.GetByID(ctx, p.ID)
    require.NoError(t, err)
    assert.Equal(t, 2, got.StockQuantity)

    require.NoError(t, repo.Release(ctx, p.ID, 3))
    got, err = repo.GetByID(ctx, p.ID)
    require.NoError(t, err)
    assert.Equal(t, 5, got.StockQuantity)
}

func TestReserveMissingProduct(t *testing.T) {
    db := setupProductDB(t)
    repo := NewProductRepository(db)
    ctx := context.Background()

    // 商品不存在和库存不足要能区分开
    assert.ErrorIs(t, repo.Reserve(ctx, 9999, 1), gorm.ErrRecordNotFound)
    assert.ErrorIs(t, repo.Release(ctx, 9999, 1), gorm.ErrRecordNotFound)
}

func TestReserveConcurrentNoOversell(t *testing.T) {
    db := setupProductDB(t)
    repo := NewProductRepository(db)
    ctx := context.Background()

    const stock = 10
    const attempts = 50
    p := makeProduct("Headphones", "HP-01", "999.00", stock)
    require.NoError(t, repo.Create(ctx, p))

    var wg sync.WaitGroup
    results := make(chan error, attempts)
    for i := 0; i < attempts; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            results <- repo.Reserve(ctx, p.ID, 1)
        }()
    }
    wg.Wait()
    close(results)

    succeeded := 0
    for err := range results {
        if err == nil {
            succeeded++
        } else if !errors.Is(err, ErrInsufficientStock) {
            t.Fatalf("unexpected reserve error: %v", err)
        }
    }
    assert.Equal(t, stock, succeeded)

    got, err := repo.GetByID(ctx, p.ID)
    require.NoError(t, err)
    assert.Equal(t, 0, got.StockQuantity)
}

func TestProductList(t *testing.T) {
    db := setupProductDB(t)
    repo := NewProductRepository(db)
    ctx := context.Background()

    cat := &model.Category{Name: "Electronics", IsActive: true}
    require.NoError(t, db.Create(cat).Error)

    phone := makeProduct("iPhone 15", "IP15", "999.00", 10)
    phone.CategoryID = &cat.ID
    phone.Brand = "Apple"
    galaxy := makeProduct("Galaxy S24", "GS24", "799.00", 10)
    galaxy.CategoryID = &cat.ID
    galaxy.Brand = "Samsung"
    mat := makeProduct("Yoga Mat", "YM-01", "29.99", 10)
    mat.Brand = "Decathlon"
    hidden := makeProduct("Old Stock", "OLD-1", "9.99", 10)
    hidden.IsActive = false
    for _, p := range []*model.Product{phone, galaxy, mat, hidden} {
        require.NoError(t, repo.Create(ctx, p))
    }

    // 默认只返回上架商品
    products, total, err := repo.List(ctx, ProductListParams{Page: 1, PageSize: 20})
    require.NoError(t, err)
    assert.EqualValues(t, 3, total)
    assert.Len(t, products, 3)

    products, total, err = repo.List(ctx, ProductListParams{CategoryID: &cat.ID, Page: 1, PageSize: 20})
    require.NoError(t, err)
    assert.EqualValues(t, 2, total)

    products, _, err = repo.List(ctx, ProductListParams{Brand: "Samsung", Page: 1, PageSize: 20})
    require.NoError(t, err)
    require.Len(t, products, 1)
    assert.Equal(t, "Galaxy S24", products[0].Name)

    minPrice := decimal.RequireFromString("500")
    products, _, err = repo.List(ctx, ProductListParams{MinPrice: &minPrice, Page: 1, PageSize: 20})
    require.NoError(t, err)
    assert.Len(t, products, 2)

    products, _, err = repo.List(ctx, ProductListParams{Search: "Yoga", Page: 1, PageSize: 20})
    require.NoError(t, err)
    require.Len(t, products, 1)
    assert.Equal(t, "Yoga Mat", products[0].Name)

    products, _, err = repo.List(ctx, ProductListParams{SortBy: "price", Order: "asc", Page: 1, PageSize: 20})
    require.NoError(t, err)
    require.Len(t, products, 3)
    assert.Equal(t, "Yoga Mat", products[0].Name)
    assert.Equal(t, "iPhone 15", products[2].Name)

    // 非白名单排序列回退到 created_at，不能把用户输入拼进 SQL
    _, _, err = repo.List(ctx, ProductListParams{SortBy: "1;DROP TABLE products", Page: 1, PageSize: 20})
    require.NoError(t, err)
    var cnt int64
    require.NoError(t, db.Model(&model.Product{}).Count(&cnt).Error)
    assert.EqualValues(t, 4, cnt)

    // 分页
    products, total, err = repo.List(ctx, ProductListParams{SortBy: "price", Order: "desc", Page: 2, PageSize: 2})
    require.NoError(t, err)
    assert.EqualValues(t, 3, total)
    require.Len(t, products, 1)
    assert.Equal(t, "Yoga Mat", products[0].Name)
}

func TestExistsBySKU(t *testing.T) {
    db := setupProductDB(t)
    repo := NewProductRepository(db)
    ctx := context.Background()

    require.NoError(t, repo.Create(ctx, makeProduct("Pen", "PEN-1", "5.00", 1)))

    exists, err := repo.ExistsBySKU(ctx, "PEN-1")
    require.NoError(t, err)
    assert.True(t, exists)

    exists, err = repo.ExistsBySKU(ctx, "PEN-2")
    require.NoError(t, err)
    assert.False(t, exists)
}
