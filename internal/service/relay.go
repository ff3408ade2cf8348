package service

import (
    "context"
    "strconv"
    "time"

    "github.com/segmentio/kafka-go"
    "go.uber.org/zap"
    "gorm.io/gorm"

    "github.com/d60-Lab/gomall/internal/model"
    "github.com/d60-Lab/gomall/pkg/logger"
)

// Producer 抽象 kafka writer，便于测试替换
type Producer interface {
    WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// OutboxRelay 轮询 outbox 并把订单事件投递到 kafka。
// 事件至少投递一次，消费方需按 outbox id 去重。
type OutboxRelay struct {
    db           *gorm.DB
    producer     Producer
    claimLimit   int
    pollInterval time.Duration
    workers      int
    metricsCh    chan time.Duration // outbox->delivered latency
}

func NewOutboxRelay(db *gorm.DB, producer Producer, workers, claimLimit int, pollInterval time.Duration) *OutboxRelay {
    if workers <= 0 { workers = 2 }
    if claimLimit <= 0 { claimLimit = 128 }
    if pollInterval <= 0 { pollInterval = 200 * time.Millisecond }
    return &OutboxRelay{db: db, producer: producer, workers: workers, claimLimit: claimLimit, pollInterval: pollInterval, metricsCh: make(chan time.Duration, 65536)}
}

func (r *OutboxRelay) Metrics() <-chan time.Duration { return r.metricsCh }

// Start 启动若干 worker 轮询投递 outbox；返回停止函数。
func (r *OutboxRelay) Start() func(context.Context) error {
    stop := make(chan struct{})
    for i := 0; i < r.workers; i++ {
        go r.loop(stop)
    }
    return func(ctx context.Context) error { close(stop); return nil }
}

func (r *OutboxRelay) loop(stop <-chan struct{}) {
    ticker := time.NewTicker(r.pollInterval)
    defer ticker.Stop()
    for {
        select {
        case <-stop:
            return
        case <-ticker.C:
            if err := r.ProcessOnce(context.Background()); err != nil {
                logger.Warn("outbox relay pass failed", zap.Error(err))
            }
        }
    }
}

// ProcessOnce claim 一批 pending 事件并投递
func (r *OutboxRelay) ProcessOnce(ctx context.Context) error {
    batch, err := r.claim(ctx)
    if err != nil {
        return err
    }
    if len(batch) == 0 {
        return nil
    }

    msgs := make([]kafka.Message, len(batch))
    for i, row := range batch {
        msgs[i] = kafka.Message{
            Key:   []byte(strconv.FormatUint(uint64(row.AggregateID), 10)),
            Value: []byte(row.Payload),
            Headers: []kafka.Header{
                {Key: "event-type", Value: []byte(row.EventType)},
                {Key: "outbox-id", Value: []byte(row.ID)},
            },
        }
    }

    ids := make([]string, len(batch))
    for i, row := range batch {
        ids[i] = row.ID
    }

    if err := r.producer.WriteMessages(ctx, msgs...); err != nil {
        // 投递失败整批退回 pending，下一轮重试
        _ = r.db.WithContext(ctx).Model(&model.Outbox{}).
            Where("id IN ?", ids).
            Updates(map[string]interface{}{
                "status":   model.OutboxStatusPending,
                "attempts": gorm.Expr("attempts + 1"),
            }).Error
        return err
    }

    now := time.Now()
    if err := r.db.WithContext(ctx).Model(&model.Outbox{}).
        Where("id IN ?", ids).
        Updates(map[string]interface{}{"status": model.OutboxStatusDone, "processed_at": now}).Error; err != nil {
        return err
    }
    for _, row := range batch {
        if !row.CreatedAt.IsZero() {
            select { case r.metricsCh <- now.Sub(row.CreatedAt): default: }
        }
    }
    return nil
}

// claim batch using SELECT ... FOR UPDATE SKIP LOCKED (postgres only)
func (r *OutboxRelay) claim(ctx context.Context) ([]model.Outbox, error) {
    var batch []model.Outbox
    err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
        q := `
            SELECT * FROM outbox
            WHERE status = 'pending'
            ORDER BY created_at
            LIMIT ?`
        if tx.Dialector.Name() == "postgres" {
            q += `
            FOR UPDATE SKIP LOCKED`
        }
        if err := tx.Raw(q, r.claimLimit).Scan(&batch).Error; err != nil {
            return err
        }
        if len(batch) == 0 {
            return nil
        }
        ids := make([]string, len(batch))
        for i, b := range batch {
            ids[i] = b.ID
        }
        return tx.Model(&model.Outbox{}).Where("id IN ?", ids).Update("status", model.OutboxStatusProcessing).Error
    })
    return batch, err
}
