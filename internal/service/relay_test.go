package service

import (
    "context"
    "errors"
    "fmt"
    "sync"
    "testing"
    "time"

    "github.com/segmentio/kafka-go"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "gorm.io/gorm"

    "github.com/d60-Lab/gomall/internal/model"
)

type fakeProducer struct {
    mu   sync.Mutex
    msgs []kafka.Message
    err  error
}

func (f *fakeProducer) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.err != nil {
        return f.err
    }
    f.msgs = append(f.msgs, msgs...)
    return nil
}

func (f *fakeProducer) sent() []kafka.Message {
    f.mu.Lock()
    defer f.mu.Unlock()
    return append([]kafka.Message(nil), f.msgs...)
}

func (f *fakeProducer) fail(err error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.err = err
}

func seedOutbox(t *testing.T, db *gorm.DB, n int) []model.Outbox {
    t.Helper()
    base := time.Now().Add(-time.Minute)
    rows := make([]model.Outbox, n)
    for i := range rows {
        rows[i] = model.Outbox{
            ID:          fmt.Sprintf("evt-%d", i),
            EventType:   model.EventOrderCreated,
            AggregateID: uint(100 + i),
            Payload:     fmt.Sprintf(`{"order_id":%d}`, 100+i),
            Status:      model.OutboxStatusPending,
            CreatedAt:   base.Add(time.Duration(i) * time.Second),
        }
        require.NoError(t, db.Create(&rows[i]).Error)
    }
    return rows
}

func TestRelayDeliversPending(t *testing.T) {
    db := newServiceDB(t)
    fp := &fakeProducer{}
    relay := NewOutboxRelay(db, fp, 1, 10, time.Second)
    seedOutbox(t, db, 3)

    require.NoError(t, relay.ProcessOnce(context.Background()))

    msgs := fp.sent()
    require.Len(t, msgs, 3)
    // 按 created_at 先进先出，key 用聚合根 ID 保证同一订单进同一分区
    assert.Equal(t, []byte("100"), msgs[0].Key)
    assert.Equal(t, []byte(`{"order_id":100}`), msgs[0].Value)
    require.Len(t, msgs[0].Headers, 2)
    assert.Equal(t, "event-type", msgs[0].Headers[0].Key)
    assert.Equal(t, []byte(model.EventOrderCreated), msgs[0].Headers[0].Value)
    assert.Equal(t, "outbox-id", msgs[1].Headers[1].Key)
    assert.Equal(t, []byte("evt-1"), msgs[1].Headers[1].Value)

    var rows []model.Outbox
    require.NoError(t, db.Order("created_at").Find(&rows).Error)
    require.Len(t, rows, 3)
    for _, row := range rows {
        assert.Equal(t, model.OutboxStatusDone, row.Status)
        assert.NotNil(t, row.ProcessedAt)
        assert.Equal(t, 0, row.Attempts)
    }

    // 投递成功会上报一条时延样本
    select {
    case <-relay.Metrics():
    default:
        t.Fatal("expected at least one latency sample")
    }
}

func TestRelayFailureRequeues(t *testing.T) {
    db := newServiceDB(t)
    fp := &fakeProducer{}
    fp.fail(errors.New("broker down"))
    relay := NewOutboxRelay(db, fp, 1, 10, time.Second)
    seedOutbox(t, db, 2)

    err := relay.ProcessOnce(context.Background())
    require.Error(t, err)

    var rows []model.Outbox
    require.NoError(t, db.Find(&rows).Error)
    require.Len(t, rows, 2)
    for _, row := range rows {
        assert.Equal(t, model.OutboxStatusPending, row.Status)
        assert.Equal(t, 1, row.Attempts)
        assert.Nil(t, row.ProcessedAt)
    }

    // broker 恢复后下一轮照常投递
    fp.fail(nil)
    require.NoError(t, relay.ProcessOnce(context.Background()))
    require.Len(t, fp.sent(), 2)

    require.NoError(t, db.Find(&rows).Error)
    for _, row := range rows {
        assert.Equal(t, model.OutboxStatusDone, row.Status)
        assert.Equal(t, 1, row.Attempts)
    }
}

func TestRelayClaimLimit(t *testing.T) {
    db := newServiceDB(t)
    fp := &fakeProducer{}
    relay := NewOutboxRelay(db, fp, 1, 2, time.Second)
    seedOutbox(t, db, 5)

    require.NoError(t, relay.ProcessOnce(context.Background()))
    assert.Len(t, fp.sent(), 2)

    var pending int64
    require.NoError(t, db.Model(&model.Outbox{}).
        Where("status = ?", model.OutboxStatusPending).Count(&pending).Error)
    assert.EqualValues(t, 3, pending)
}

func TestRelayNothingToDo(t *testing.T) {
    db := newServiceDB(t)
    fp := &fakeProducer{}
    relay := NewOutboxRelay(db, fp, 1, 10, time.Second)

    require.NoError(t, relay.ProcessOnce(context.Background()))
    assert.Empty(t, fp.sent())
}

func TestRelayStartStop(t *testing.T) {
    db := newServiceDB(t)
    fp := &fakeProducer{}
    relay := NewOutboxRelay(db, fp, 1, 10, 20*time.Millisecond)
    seedOutbox(t, db, 1)

    stop := relay.Start()
    require.Eventually(t, func() bool {
        var done int64
        if err := db.Model(&model.Outbox{}).
            Where("status = ?", model.OutboxStatusDone).Count(&done).Error; err != nil {
            return false
        }
        return done == 1
    }, 3*time.Second, 20*time.Millisecond)

    require.NoError(t, stop(context.Background()))
}
