package main

import (
    "context"
    "fmt"
    "math"
    "os"
    "sort"
    "strconv"
    "time"

    "github.com/segmentio/kafka-go"
    "github.com/shopspring/decimal"

    "github.com/d60-Lab/gomall/config"
    "github.com/d60-Lab/gomall/internal/model"
    "github.com/d60-Lab/gomall/internal/repository"
    "github.com/d60-Lab/gomall/internal/service"
    "github.com/d60-Lab/gomall/pkg/database"
)

func must[T any](v T, err error) T { if err != nil { panic(err) }; return v }

func pct(vs []time.Duration, p float64) time.Duration {
    if len(vs) == 0 { return 0 }
    xs := append([]time.Duration(nil), vs...)
    sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
    k := int(math.Ceil(p*float64(len(xs)))) - 1
    if k < 0 { k = 0 }
    if k >= len(xs) { k = len(xs)-1 }
    return xs[k]
}

// discardProducer 只测 relay 本身的 claim/标记开销，不含 broker 往返
type discardProducer struct{}

func (discardProducer) WriteMessages(ctx context.Context, msgs ...kafka.Message) error { return nil }

// 下单事件落地压测：measure checkout tx latency and outbox->delivered landing latency
func main() {
    cfg := must(config.Load())
    db := must(database.InitDB(cfg))
    must(0, database.Migrate(db))

    ORDERS := 200
    if s := os.Getenv("ORDERS"); s != "" {
        if v, err := strconv.Atoi(s); err == nil && v > 0 { ORDERS = v }
    }
    CONC := 8
    if s := os.Getenv("CONC"); s != "" {
        if v, err := strconv.Atoi(s); err == nil && v > 0 { CONC = v }
    }
    WORKERS := 2
    if s := os.Getenv("WORKERS"); s != "" {
        if v, err := strconv.Atoi(s); err == nil && v > 0 { WORKERS = v }
    }
    CLAIM := 64
    if s := os.Getenv("CLAIM"); s != "" {
        if v, err := strconv.Atoi(s); err == nil && v > 0 { CLAIM = v }
    }

    ctx := context.Background()

    // seed: 充足库存，每个用户一份购物车
    category := model.Category{Name: fmt.Sprintf("relay-%d", time.Now().UnixNano()), IsActive: true}
    must(0, db.Create(&category).Error)
    product := model.Product{
        Name:          "relay bench product",
        Price:         decimal.NewFromInt(100),
        CategoryID:    &category.ID,
        StockQuantity: ORDERS,
        SKU:           fmt.Sprintf("RELAY-%d", time.Now().UnixNano()),
        IsActive:      true,
    }
    must(0, db.Create(&product).Error)

    users := make([]model.User, ORDERS)
    for i := 0; i < ORDERS; i++ {
        users[i] = model.User{
            Email:        fmt.Sprintf("relay%d-%d@example.com", time.Now().UnixNano(), i),
            Username:     fmt.Sprintf("relay_%d_%d", time.Now().UnixNano(), i),
            PasswordHash: "x",
            IsActive:     true,
        }
    }
    must(0, db.CreateInBatches(&users, 500).Error)
    addrs := make([]model.Address, ORDERS)
    carts := make([]model.CartItem, ORDERS)
    for i := 0; i < ORDERS; i++ {
        addrs[i] = model.Address{
            UserID: users[i].ID, Street: "1 Relay St", City: "Pune",
            State: "MH", Pincode: "411001", Country: "India",
        }
        carts[i] = model.CartItem{UserID: users[i].ID, ProductID: product.ID, Quantity: 1}
    }
    must(0, db.CreateInBatches(&addrs, 500).Error)
    must(0, db.CreateInBatches(&carts, 500).Error)

    orderRepo := repository.NewOrderRepository(db)
    addrRepo := repository.NewAddressRepository(db)
    orderSvc := service.NewOrderService(db, orderRepo, addrRepo, nil)

    // producer: 配置了 kafka 就投真 broker,否则本地丢弃
    var producer service.Producer = discardProducer{}
    sink := "discard"
    if cfg.Kafka.Enabled {
        writer := &kafka.Writer{
            Addr:     kafka.TCP(cfg.Kafka.Brokers...),
            Topic:    cfg.Kafka.Topic,
            Balancer: &kafka.Hash{},
        }
        defer writer.Close()
        producer = writer
        sink = fmt.Sprintf("kafka %v topic=%s", cfg.Kafka.Brokers, cfg.Kafka.Topic)
    }

    relay := service.NewOutboxRelay(db, producer, WORKERS, CLAIM, 20*time.Millisecond)
    stop := relay.Start()
    defer stop(context.Background())

    // checkout side
    checkoutLats := make([]time.Duration, 0, ORDERS)
    latCh := make(chan time.Duration, ORDERS)
    feed := make(chan int, ORDERS)
    for i := 0; i < ORDERS; i++ { feed <- i }
    close(feed)

    workers := CONC
    if workers > ORDERS { workers = ORDERS }
    doneCh := make(chan struct{}, workers)

    t0 := time.Now()
    for w := 0; w < workers; w++ {
        go func() {
            for i := range feed {
                st := time.Now()
                _, err := orderSvc.Checkout(ctx, users[i].ID, service.CheckoutInput{AddressID: addrs[i].ID})
                if err != nil { panic(err) }
                latCh <- time.Since(st)
            }
            doneCh <- struct{}{}
        }()
    }
    for w := 0; w < workers; w++ { <-doneCh }
    checkoutDur := time.Since(t0)
    close(latCh)
    for d := range latCh { checkoutLats = append(checkoutLats, d) }

    // collect landing metrics: one order.created event per checkout
    land := make([]time.Duration, 0, ORDERS)
    timeout := time.After(2 * time.Minute)
    for len(land) < ORDERS {
        select {
        case d := <-relay.Metrics():
            land = append(land, d)
        case <-timeout:
            fmt.Printf("timeout while waiting for relay metrics: got=%d want=%d\n", len(land), ORDERS)
            goto PRINT
        }
    }

PRINT:
    fmt.Printf("ORDERS=%d CONC=%d WORKERS=%d CLAIM=%d sink=%s\n", ORDERS, CONC, WORKERS, CLAIM, sink)
    fmt.Printf("Checkout tx latency: total=%v per op=%v p50=%v p95=%v p99=%v\n",
        checkoutDur, checkoutDur/time.Duration(ORDERS),
        pct(checkoutLats, 0.50), pct(checkoutLats, 0.95), pct(checkoutLats, 0.99))
    if len(land) > 0 {
        var landSum time.Duration
        for _, d := range land { landSum += d }
        fmt.Printf("Event landing (outbox->delivered): samples=%d avg=%v p50=%v p95=%v p99=%v\n",
            len(land), landSum/time.Duration(len(land)), pct(land, 0.50), pct(land, 0.95), pct(land, 0.99))
    }

    // measure one user's order page read
    st := time.Now()
    orders, total, err := orderRepo.ListByUser(ctx, users[0].ID, 1, 20)
    must(0, err)
    fmt.Printf("Order page read (user0, limit=20): %v, rows=%d, total=%d\n", time.Since(st), len(orders), total)

    // delivery completeness probe
    var pending int64
    must(0, db.Model(&model.Outbox{}).Where("status <> ?", model.OutboxStatusDone).Count(&pending).Error)
    if pending > 0 {
        fmt.Printf("WARNING: %d outbox events not delivered\n", pending)
        os.Exit(1)
    }
    fmt.Println("all outbox events delivered")
}
