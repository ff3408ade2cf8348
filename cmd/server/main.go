package main

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/getsentry/sentry-go"
    "github.com/redis/go-redis/v9"
    "github.com/segmentio/kafka-go"
    "go.uber.org/zap"

    "github.com/d60-Lab/gomall/config"
    "github.com/d60-Lab/gomall/internal/api/handler"
    "github.com/d60-Lab/gomall/internal/api/router"
    "github.com/d60-Lab/gomall/internal/cache"
    "github.com/d60-Lab/gomall/internal/repository"
    "github.com/d60-Lab/gomall/internal/service"
    "github.com/d60-Lab/gomall/pkg/database"
    "github.com/d60-Lab/gomall/pkg/logger"
    "github.com/d60-Lab/gomall/pkg/observability"
    "github.com/d60-Lab/gomall/pkg/token"
)

// @title Gomall API
// @version 1.0
// @description 电商单体服务：商品、购物车、订单与评价
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
    cfg, err := config.Load()
    if err != nil {
        fmt.Fprintf(os.Stderr, "load config: %v\n", err)
        os.Exit(1)
    }

    if err := logger.Init(cfg.Log.Level); err != nil {
        fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
        os.Exit(1)
    }
    defer logger.Sync()

    if cfg.Sentry.DSN != "" {
        if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN}); err != nil {
            logger.Warn("sentry init failed", zap.Error(err))
        } else {
            defer sentry.Flush(2 * time.Second)
        }
    }

    if cfg.Otel.Enabled {
        shutdown, err := observability.InitTracer(cfg, "gomall", "1.0.0")
        if err != nil {
            logger.Warn("tracer init failed", zap.Error(err))
        } else {
            defer func() {
                ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
                defer cancel()
                _ = shutdown(ctx)
            }()
        }
    }

    db, err := database.InitDB(cfg)
    if err != nil {
        logger.Error("init database", zap.Error(err))
        os.Exit(1)
    }
    if err := database.Migrate(db); err != nil {
        logger.Error("migrate database", zap.Error(err))
        os.Exit(1)
    }

    maker, err := token.NewMaker(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
    if err != nil {
        logger.Error("init token maker", zap.Error(err))
        os.Exit(1)
    }

    // redis 不可用时退化为无缓存直查
    var productCache *cache.ProductCache
    var invalidator *service.CacheInvalidator
    var stopInvalidator func(context.Context) error
    rdb := redis.NewClient(&redis.Options{
        Addr:     cfg.Redis.Addr,
        Password: cfg.Redis.Password,
        DB:       cfg.Redis.DB,
    })
    pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    if err := rdb.Ping(pingCtx).Err(); err != nil {
        logger.Warn("redis unavailable, product cache disabled", zap.Error(err))
    } else {
        productCache = cache.NewProductCache(rdb, cfg.Cache.ProductTTL)
        invalidator = service.NewCacheInvalidator(productCache, 10000)
        stopInvalidator = invalidator.Start(2)
    }
    cancel()

    userRepo := repository.NewUserRepository(db)
    addrRepo := repository.NewAddressRepository(db)
    categoryRepo := repository.NewCategoryRepository(db)
    productRepo := repository.NewProductRepository(db)
    cartRepo := repository.NewCartRepository(db)
    orderRepo := repository.NewOrderRepository(db)
    reviewRepo := repository.NewReviewRepository(db)

    authService := service.NewAuthService(userRepo, maker)
    userService := service.NewUserService(db, userRepo, addrRepo)
    catalogService := service.NewCatalogService(productRepo, categoryRepo, productCache, invalidator)
    cartService := service.NewCartService(cartRepo, productRepo)
    orderService := service.NewOrderService(db, orderRepo, addrRepo, invalidator)
    reviewService := service.NewReviewService(db, productRepo, reviewRepo, invalidator)

    var stopRelay func(context.Context) error
    if cfg.Kafka.Enabled {
        writer := &kafka.Writer{
            Addr:     kafka.TCP(cfg.Kafka.Brokers...),
            Topic:    cfg.Kafka.Topic,
            Balancer: &kafka.Hash{},
        }
        defer writer.Close()
        relay := service.NewOutboxRelay(db, writer, 2, 128, 200*time.Millisecond)
        stopRelay = relay.Start()
        logger.Info("outbox relay started", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
    }

    h := handler.New(authService, userService, catalogService, cartService, orderService, reviewService)
    engine := router.New(cfg, h, maker, userRepo)

    srv := &http.Server{
        Addr:    ":" + cfg.Server.Port,
        Handler: engine,
    }

    go func() {
        logger.Info("server listening", zap.String("port", cfg.Server.Port))
        if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
            logger.Error("server stopped", zap.Error(err))
            os.Exit(1)
        }
    }()

    quit := make(chan os.Signal, 1)
    signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
    <-quit
    logger.Info("shutting down")

    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := srv.Shutdown(ctx); err != nil {
        logger.Error("server shutdown", zap.Error(err))
    }
    if stopRelay != nil {
        _ = stopRelay(ctx)
    }
    if stopInvalidator != nil {
        _ = stopInvalidator(ctx)
    }
}
