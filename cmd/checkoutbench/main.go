package main

import (
    "context"
    "errors"
    "fmt"
    "math"
    "os"
    "sort"
    "strconv"
    "sync/atomic"
    "time"

    "github.com/shopspring/decimal"

    "github.com/d60-Lab/gomall/config"
    "github.com/d60-Lab/gomall/internal/model"
    "github.com/d60-Lab/gomall/internal/repository"
    "github.com/d60-Lab/gomall/internal/service"
    "github.com/d60-Lab/gomall/pkg/database"
)

func must[T any](v T, err error) T { if err != nil { panic(err) }; return v }

// 并发下单压测：N 个用户抢 STOCK 件库存，验证成交数恰好等于库存且不超卖
func main() {
    cfg := must(config.Load())
    db := must(database.InitDB(cfg))
    must(0, database.Migrate(db))

    N := 200
    if s := os.Getenv("N"); s != "" {
        if n, err := strconv.Atoi(s); err == nil && n > 0 { N = n }
    }
    CONC := 16
    if s := os.Getenv("CONC"); s != "" {
        if c, err := strconv.Atoi(s); err == nil && c > 0 { CONC = c }
    }
    STOCK := 100
    if s := os.Getenv("STOCK"); s != "" {
        if v, err := strconv.Atoi(s); err == nil && v > 0 { STOCK = v }
    }

    ctx := context.Background()

    // seed: 单一商品限量库存
    category := model.Category{Name: fmt.Sprintf("bench-%d", time.Now().UnixNano()), IsActive: true}
    must(0, db.Create(&category).Error)
    product := model.Product{
        Name:          "bench product",
        Price:         decimal.NewFromInt(100),
        CategoryID:    &category.ID,
        StockQuantity: STOCK,
        SKU:           fmt.Sprintf("BENCH-%d", time.Now().UnixNano()),
        IsActive:      true,
    }
    must(0, db.Create(&product).Error)

    // N 个用户，每人一个地址、一件商品在购物车
    users := make([]model.User, N)
    for i := 0; i < N; i++ {
        users[i] = model.User{
            Email:        fmt.Sprintf("bench%d-%d@example.com", time.Now().UnixNano(), i),
            Username:     fmt.Sprintf("bench_%d_%d", time.Now().UnixNano(), i),
            PasswordHash: "x",
            IsActive:     true,
        }
    }
    must(0, db.CreateInBatches(&users, 500).Error)
    addrs := make([]model.Address, N)
    carts := make([]model.CartItem, N)
    for i := 0; i < N; i++ {
        addrs[i] = model.Address{
            UserID: users[i].ID, Street: "1 Bench St", City: "Pune",
            State: "MH", Pincode: "411001", Country: "India",
        }
        carts[i] = model.CartItem{UserID: users[i].ID, ProductID: product.ID, Quantity: 1}
    }
    must(0, db.CreateInBatches(&addrs, 500).Error)
    must(0, db.CreateInBatches(&carts, 500).Error)

    orderRepo := repository.NewOrderRepository(db)
    addrRepo := repository.NewAddressRepository(db)
    orderSvc := service.NewOrderService(db, orderRepo, addrRepo, nil)

    ordersBefore := must(orderRepo.Count(ctx))

    var succeeded, outOfStock, failed atomic.Int64
    latCh := make(chan time.Duration, N)

    feed := make(chan int, N)
    for i := 0; i < N; i++ { feed <- i }
    close(feed)

    workers := CONC
    if workers > N { workers = N }
    doneCh := make(chan struct{}, workers)

    t0 := time.Now()
    for w := 0; w < workers; w++ {
        go func() {
            for i := range feed {
                st := time.Now()
                _, err := orderSvc.Checkout(ctx, users[i].ID, service.CheckoutInput{AddressID: addrs[i].ID})
                latCh <- time.Since(st)
                var stockErr *service.InsufficientStockError
                switch {
                case err == nil:
                    succeeded.Add(1)
                case errors.As(err, &stockErr):
                    outOfStock.Add(1)
                default:
                    failed.Add(1)
                }
            }
            doneCh <- struct{}{}
        }()
    }
    for w := 0; w < workers; w++ { <-doneCh }
    total := time.Since(t0)
    close(latCh)

    lats := make([]time.Duration, 0, N)
    for d := range latCh { lats = append(lats, d) }

    pct := func(vs []time.Duration, p float64) time.Duration {
        if len(vs) == 0 { return 0 }
        xs := append([]time.Duration(nil), vs...)
        sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
        k := int(math.Ceil(p*float64(len(xs)))) - 1
        if k < 0 { k = 0 }
        if k >= len(xs) { k = len(xs) - 1 }
        return xs[k]
    }

    // 超卖探针
    var remaining model.Product
    must(0, db.First(&remaining, product.ID).Error)
    ordersAfter := must(orderRepo.Count(ctx))
    created := ordersAfter - ordersBefore

    expected := int64(STOCK)
    if int64(N) < expected { expected = int64(N) }

    fmt.Printf("N=%d, CONC=%d, STOCK=%d\n", N, CONC, STOCK)
    fmt.Printf("checkout total: %v, per op: %v, p50: %v, p95: %v, p99: %v\n",
        total, total/time.Duration(N), pct(lats, 0.50), pct(lats, 0.95), pct(lats, 0.99))
    fmt.Printf("succeeded=%d, out_of_stock=%d, failed=%d\n",
        succeeded.Load(), outOfStock.Load(), failed.Load())
    fmt.Printf("orders created=%d, stock remaining=%d\n", created, remaining.StockQuantity)

    if remaining.StockQuantity < 0 {
        fmt.Println("OVERSELL DETECTED: negative stock")
        os.Exit(1)
    }
    if succeeded.Load() != expected {
        fmt.Printf("MISMATCH: expected %d successful checkouts\n", expected)
        os.Exit(1)
    }
    fmt.Println("no oversell, ledger consistent")
}
