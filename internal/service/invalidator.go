package service

import (
    "context"
    "time"

    "go.uber.org/zap"

    "github.com/d60-Lab/gomall/internal/cache"
    "github.com/d60-Lab/gomall/pkg/logger"
)

type invalidateJob struct {
    productID uint
    enqAt     time.Time
}

// CacheInvalidator 异步失效商品缓存。写路径只入队不等待，
// 队列满则丢弃，由缓存 TTL 兜底过期。
type CacheInvalidator struct {
    cache     *cache.ProductCache
    ch        chan invalidateJob
    metricsCh chan time.Duration
}

func NewCacheInvalidator(productCache *cache.ProductCache, queueSize int) *CacheInvalidator {
    if queueSize <= 0 {
        queueSize = 10000
    }
    return &CacheInvalidator{
        cache:     productCache,
        ch:        make(chan invalidateJob, queueSize),
        metricsCh: make(chan time.Duration, 65536),
    }
}

func (in *CacheInvalidator) Start(workers int) func(context.Context) error {
    if workers <= 0 {
        workers = 2
    }
    stopCh := make(chan struct{})
    for i := 0; i < workers; i++ {
        go func() {
            for {
                select {
                case job := <-in.ch:
                    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
                    if err := in.cache.Invalidate(ctx, job.productID); err != nil {
                        logger.Warn("cache invalidate failed", zap.Uint("product", job.productID), zap.Error(err))
                    }
                    cancel()
                    if !job.enqAt.IsZero() {
                        select {
                        case in.metricsCh <- time.Since(job.enqAt):
                        default:
                        }
                    }
                case <-stopCh:
                    return
                }
            }
        }()
    }
    return func(ctx context.Context) error {
        close(stopCh)
        // 等待队列自然排空一小段时间
        timeout := time.After(2 * time.Second)
        for {
            select {
            case <-timeout:
                return nil
            default:
                if len(in.ch) == 0 {
                    return nil
                }
                time.Sleep(50 * time.Millisecond)
            }
        }
    }
}

func (in *CacheInvalidator) Enqueue(productID uint) {
    select {
    case in.ch <- invalidateJob{productID: productID, enqAt: time.Now()}:
    default:
        logger.Warn("invalidator queue full, drop", zap.Uint("product", productID))
    }
}

// Metrics 返回失效落地耗时的只读通道（每处理一条发送一次 duration）。
func (in *CacheInvalidator) Metrics() <-chan time.Duration { return in.metricsCh }

// QueueLen 返回当前队列长度（采样值）。
func (in *CacheInvalidator) QueueLen() int { return len(in.ch) }
