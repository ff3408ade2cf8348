package service

import (
    "context"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/redis/go-redis/v9"
    "github.com/shopspring/decimal"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "gorm.io/gorm"

    "github.com/d60-Lab/gomall/internal/cache"
    "github.com/d60-Lab/gomall/internal/model"
    "github.com/d60-Lab/gomall/internal/repository"
)

func newCatalogFixture(t *testing.T) (CatalogService, *gorm.DB, *cache.ProductCache) {
    t.Helper()
    db := newServiceDB(t)
    mr := miniredis.RunT(t)
    productCache := cache.NewProductCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
    svc := NewCatalogService(repository.NewProductRepository(db), repository.NewCategoryRepository(db), productCache, nil)
    return svc, db, productCache
}

func productInput(name, sku, price string, stock int, categoryID uint) ProductCreateInput {
    return ProductCreateInput{
        Name:          name,
        SKU:           sku,
        Price:         decimal.RequireFromString(price),
        StockQuantity: stock,
        CategoryID:    categoryID,
    }
}

func TestCreateProductDuplicateSKU(t *testing.T) {
    svc, _, _ := newCatalogFixture(t)
    ctx := context.Background()

    cat, err := svc.CreateCategory(ctx, "Electronics", "", nil)
    require.NoError(t, err)

    p, err := svc.CreateProduct(ctx, productInput("Webcam", "WC1", "75.00", 5, cat.ID))
    require.NoError(t, err)
    assert.True(t, p.IsActive)

    _, err = svc.CreateProduct(ctx, productInput("Webcam v2", "WC1", "85.00", 5, cat.ID))
    assert.ErrorIs(t, err, ErrSKUExists)
}

func TestGetProductReadThrough(t *testing.T) {
    svc, db, productCache := newCatalogFixture(t)
    ctx := context.Background()

    cat, err := svc.CreateCategory(ctx, "Electronics", "", nil)
    require.NoError(t, err)
    p, err := svc.CreateProduct(ctx, productInput("Webcam", "WC1", "75.00", 5, cat.ID))
    require.NoError(t, err)

    // 第一次读 miss 后回填，第二次直接命中缓存
    got, err := svc.GetProduct(ctx, p.ID)
    require.NoError(t, err)
    assert.Equal(t, "Webcam", got.Name)

    _, err = svc.GetProduct(ctx, p.ID)
    require.NoError(t, err)
    hits, misses := productCache.Counters()
    assert.EqualValues(t, 1, hits)
    assert.EqualValues(t, 1, misses)

    // 命中的是快照：绕过服务直接改库，缓存失效前读到的还是旧值
    require.NoError(t, db.Model(&model.Product{}).Where("id = ?", p.ID).Update("name", "Webcam Pro").Error)
    got, err = svc.GetProduct(ctx, p.ID)
    require.NoError(t, err)
    assert.Equal(t, "Webcam", got.Name)

    require.NoError(t, productCache.Invalidate(ctx, p.ID))
    got, err = svc.GetProduct(ctx, p.ID)
    require.NoError(t, err)
    assert.Equal(t, "Webcam Pro", got.Name)
}

func TestGetProductMissing(t *testing.T) {
    svc, _, _ := newCatalogFixture(t)
    _, err := svc.GetProduct(context.Background(), 9999)
    assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProductPartial(t *testing.T) {
    svc, _, _ := newCatalogFixture(t)
    ctx := context.Background()

    cat, err := svc.CreateCategory(ctx, "Electronics", "", nil)
    require.NoError(t, err)
    p, err := svc.CreateProduct(ctx, productInput("Webcam", "WC1", "75.00", 5, cat.ID))
    require.NoError(t, err)

    newPrice := decimal.RequireFromString("69.99")
    updated, err := svc.UpdateProduct(ctx, p.ID, ProductUpdateInput{Price: &newPrice})
    require.NoError(t, err)
    assert.True(t, updated.Price.Equal(newPrice))
    // 没传的字段不动
    assert.Equal(t, "Webcam", updated.Name)
    assert.Equal(t, 5, updated.StockQuantity)

    _, err = svc.UpdateProduct(ctx, 9999, ProductUpdateInput{Price: &newPrice})
    assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeactivateProductHidesIt(t *testing.T) {
    svc, _, _ := newCatalogFixture(t)
    ctx := context.Background()

    cat, err := svc.CreateCategory(ctx, "Electronics", "", nil)
    require.NoError(t, err)
    p, err := svc.CreateProduct(ctx, productInput("Webcam", "WC1", "75.00", 5, cat.ID))
    require.NoError(t, err)

    require.NoError(t, svc.DeactivateProduct(ctx, p.ID))

    _, err = svc.GetProduct(ctx, p.ID)
    assert.ErrorIs(t, err, ErrNotFound)

    products, total, err := svc.ListProducts(ctx, repository.ProductListParams{})
    require.NoError(t, err)
    assert.EqualValues(t, 0, total)
    assert.Empty(t, products)
}

func TestCreateCategoryDuplicate(t *testing.T) {
    svc, _, _ := newCatalogFixture(t)
    ctx := context.Background()

    _, err := svc.CreateCategory(ctx, "Books", "printed things", nil)
    require.NoError(t, err)
    _, err = svc.CreateCategory(ctx, "Books", "", nil)
    assert.ErrorIs(t, err, ErrCategoryExists)

    cats, err := svc.ListCategories(ctx)
    require.NoError(t, err)
    require.Len(t, cats, 1)
    assert.Equal(t, "Books", cats[0].Name)
}
