package service

import (
    "context"
    "crypto/rand"
    "encoding/hex"
    "encoding/json"
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/shopspring/decimal"
    "gorm.io/gorm"

    "github.com/d60-Lab/gomall/internal/model"
    "github.com/d60-Lab/gomall/internal/repository"
)

// ErrInvalidStatus 非法的订单/支付状态取值
var ErrInvalidStatus = errors.New("invalid status")

// maxOrderNumberRetries 订单号撞号重试次数上限
const maxOrderNumberRetries = 3

// CheckoutInput 下单参数
type CheckoutInput struct {
    AddressID     uint
    PaymentMethod string
}

// AdminOrderUpdateInput 管理端订单更新，nil 字段不更新
type AdminOrderUpdateInput struct {
    Status         *model.OrderStatus
    PaymentStatus  *model.PaymentStatus
    TrackingNumber *string
}

// OrderService 下单与订单生命周期
type OrderService interface {
    // Checkout 把当前购物车一次性转成订单：
    // 扣库存、冻结成交价、建单、清空购物车、写 outbox，全部在一个事务内
    Checkout(ctx context.Context, userID uint, input CheckoutInput) (*model.Order, error)

    GetOrder(ctx context.Context, userID, orderID uint) (*model.Order, error)
    ListOrders(ctx context.Context, userID uint, page, pageSize int) ([]*model.Order, int64, error)

    // Cancel 用户取消订单，仅 pending/confirmed 可取消，取消时归还库存
    Cancel(ctx context.Context, userID, orderID uint) (*model.Order, error)

    // AdminUpdate 管理端更新状态/支付状态/运单号，状态迁移须符合状态机
    AdminUpdate(ctx context.Context, orderID uint, input AdminOrderUpdateInput) (*model.Order, error)
    AdminList(ctx context.Context, status string, page, pageSize int) ([]*model.Order, int64, error)
}

type orderService struct {
    db          *gorm.DB
    orderRepo   repository.OrderRepository
    addrRepo    repository.AddressRepository
    invalidator *CacheInvalidator

    // 测试注入点
    genNumber func() string
}

func NewOrderService(db *gorm.DB, orderRepo repository.OrderRepository,
    addrRepo repository.AddressRepository, invalidator *CacheInvalidator) OrderService {
    return &orderService{
        db:          db,
        orderRepo:   orderRepo,
        addrRepo:    addrRepo,
        invalidator: invalidator,
        genNumber:   generateOrderNumber,
    }
}

// generateOrderNumber 形如 ORD-20240301120000-1A2B3C4D
func generateOrderNumber() string {
    var buf [4]byte
    _, _ = rand.Read(buf[:])
    return fmt.Sprintf("ORD-%s-%s",
        time.Now().UTC().Format("20060102150405"),
        strings.ToUpper(hex.EncodeToString(buf[:])))
}

// orderEvent outbox 消息体
type orderEvent struct {
    OrderID     uint   `json:"order_id"`
    OrderNumber string `json:"order_number"`
    UserID      uint   `json:"user_id"`
    TotalAmount string `json:"total_amount"`
    Status      string `json:"status"`
}

func writeOrderEvent(tx *gorm.DB, eventType string, order *model.Order) error {
    payload, err := json.Marshal(orderEvent{
        OrderID:     order.ID,
        OrderNumber: order.OrderNumber,
        UserID:      order.UserID,
        TotalAmount: order.TotalAmount.StringFixed(2),
        Status:      string(order.Status),
    })
    if err != nil {
        return err
    }
    return tx.Create(&model.Outbox{
        ID:          uuid.New().String(),
        EventType:   eventType,
        AggregateID: order.ID,
        Payload:     string(payload),
        Status:      model.OutboxStatusPending,
        CreatedAt:   time.Now(),
    }).Error
}

func (s *orderService) Checkout(ctx context.Context, userID uint, input CheckoutInput) (*model.Order, error) {
    addr, err := s.addrRepo.GetByIDForUser(ctx, input.AddressID, userID)
    if err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
            return nil, ErrInvalidAddress
        }
        return nil, err
    }
    shippingAddress := fmt.Sprintf("%s, %s, %s - %s, %s",
        addr.Street, addr.City, addr.State, addr.Pincode, addr.Country)

    paymentMethod := input.PaymentMethod
    if paymentMethod == "" {
        paymentMethod = "COD"
    }

    var order *model.Order
    var productIDs []uint
    err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
        var cartItems []*model.CartItem
        if err := tx.Where("user_id = ?", userID).
            Preload("Product").
            Order("created_at ASC").
            Find(&cartItems).Error; err != nil {
            return err
        }
        if len(cartItems) == 0 {
            return ErrEmptyCart
        }

        // 逐行条件扣减。任何一行失败整个事务回滚，已扣的行随之恢复
        total := decimal.Zero
        items := make([]model.OrderItem, 0, len(cartItems))
        for _, ci := range cartItems {
            if ci.Product == nil {
                return fmt.Errorf("cart item %d: %w", ci.ID, ErrNotFound)
            }
            if err := repository.ReserveStock(tx, ci.ProductID, ci.Quantity); err != nil {
                if errors.Is(err, repository.ErrInsufficientStock) || errors.Is(err, gorm.ErrRecordNotFound) {
                    return &InsufficientStockError{ProductID: ci.ProductID, Name: ci.Product.Name}
                }
                return err
            }
            price := ci.Product.FinalPrice()
            total = total.Add(price.Mul(decimal.NewFromInt(int64(ci.Quantity))))
            items = append(items, model.OrderItem{
                ProductID: ci.ProductID,
                Quantity:  ci.Quantity,
                Price:     price,
            })
            productIDs = append(productIDs, ci.ProductID)
        }

        o := &model.Order{
            UserID:          userID,
            Status:          model.OrderStatusPending,
            PaymentStatus:   model.PaymentStatusPending,
            PaymentMethod:   paymentMethod,
            TotalAmount:     total.Round(2),
            ShippingAddress: shippingAddress,
            Items:           items,
        }
        if err := s.createWithUniqueNumber(tx, o); err != nil {
            return err
        }

        if err := tx.Where("user_id = ?", userID).Delete(&model.CartItem{}).Error; err != nil {
            return err
        }
        if err := writeOrderEvent(tx, model.EventOrderCreated, o); err != nil {
            return err
        }
        order = o
        return nil
    })
    if err != nil {
        return nil, err
    }

    s.invalidateProducts(productIDs)
    return order, nil
}

// createWithUniqueNumber 撞号时在保存点内重试，避免污染外层事务
func (s *orderService) createWithUniqueNumber(tx *gorm.DB, order *model.Order) error {
    var lastErr error
    for i := 0; i < maxOrderNumberRetries; i++ {
        order.OrderNumber = s.genNumber()
        lastErr = tx.Transaction(func(inner *gorm.DB) error {
            return inner.Create(order).Error
        })
        if lastErr == nil {
            return nil
        }
        if !errors.Is(lastErr, gorm.ErrDuplicatedKey) {
            return lastErr
        }
        // 重建主键与订单行状态后重试
        order.ID = 0
        for i := range order.Items {
            order.Items[i].ID = 0
            order.Items[i].OrderID = 0
        }
    }
    return fmt.Errorf("order number collision after %d attempts: %w", maxOrderNumberRetries, lastErr)
}

func (s *orderService) GetOrder(ctx context.Context, userID, orderID uint) (*model.Order, error) {
    order, err := s.orderRepo.GetByIDForUser(ctx, orderID, userID)
    if err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
            return nil, ErrNotFound
        }
        return nil, err
    }
    return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, userID uint, page, pageSize int) ([]*model.Order, int64, error) {
    if page < 1 {
        page = 1
    }
    if pageSize < 1 || pageSize > 100 {
        pageSize = 10
    }
    return s.orderRepo.ListByUser(ctx, userID, page, pageSize)
}

func (s *orderService) Cancel(ctx context.Context, userID, orderID uint) (*model.Order, error) {
    var order *model.Order
    var productIDs []uint
    err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
        var o model.Order
        if err := tx.Preload("Items").
            Where("id = ? AND user_id = ?", orderID, userID).
            First(&o).Error; err != nil {
            if errors.Is(err, gorm.ErrRecordNotFound) {
                return ErrNotFound
            }
            return err
        }
        if !model.CanTransition(o.Status, model.OrderStatusCancelled) {
            return &TransitionError{From: o.Status, To: model.OrderStatusCancelled}
        }

        // 条件更新保证并发取消只有一个赢家
        res := tx.Model(&model.Order{}).
            Where("id = ? AND status IN ?", o.ID,
                []model.OrderStatus{model.OrderStatusPending, model.OrderStatusConfirmed}).
            Update("status", model.OrderStatusCancelled)
        if res.Error != nil {
            return res.Error
        }
        if res.RowsAffected == 0 {
            if err := tx.First(&o, o.ID).Error; err != nil {
                return err
            }
            return &TransitionError{From: o.Status, To: model.OrderStatusCancelled}
        }

        for _, item := range o.Items {
            if err := repository.ReleaseStock(tx, item.ProductID, item.Quantity); err != nil {
                return err
            }
            productIDs = append(productIDs, item.ProductID)
        }

        o.Status = model.OrderStatusCancelled
        if err := writeOrderEvent(tx, model.EventOrderCancelled, &o); err != nil {
            return err
        }
        order = &o
        return nil
    })
    if err != nil {
        return nil, err
    }

    s.invalidateProducts(productIDs)
    return order, nil
}

func (s *orderService) AdminUpdate(ctx context.Context, orderID uint, input AdminOrderUpdateInput) (*model.Order, error) {
    if input.Status != nil && !input.Status.Valid() {
        return nil, ErrInvalidStatus
    }
    if input.PaymentStatus != nil && !input.PaymentStatus.Valid() {
        return nil, ErrInvalidStatus
    }

    var order *model.Order
    var productIDs []uint
    err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
        var o model.Order
        if err := tx.Preload("Items").First(&o, orderID).Error; err != nil {
            if errors.Is(err, gorm.ErrRecordNotFound) {
                return ErrNotFound
            }
            return err
        }

        if input.Status != nil && *input.Status != o.Status {
            from, to := o.Status, *input.Status
            if !model.CanTransition(from, to) {
                return &TransitionError{From: from, To: to}
            }
            // 以读到的旧状态做条件更新，防止并发互踩
            res := tx.Model(&model.Order{}).
                Where("id = ? AND status = ?", o.ID, from).
                Update("status", to)
            if res.Error != nil {
                return res.Error
            }
            if res.RowsAffected == 0 {
                return &TransitionError{From: from, To: to}
            }
            o.Status = to

            if to == model.OrderStatusCancelled {
                for _, item := range o.Items {
                    if err := repository.ReleaseStock(tx, item.ProductID, item.Quantity); err != nil {
                        return err
                    }
                    productIDs = append(productIDs, item.ProductID)
                }
            }
        }

        updates := map[string]interface{}{}
        if input.PaymentStatus != nil {
            updates["payment_status"] = *input.PaymentStatus
            o.PaymentStatus = *input.PaymentStatus
        }
        if input.TrackingNumber != nil {
            updates["tracking_number"] = *input.TrackingNumber
            o.TrackingNumber = *input.TrackingNumber
        }
        if len(updates) > 0 {
            if err := tx.Model(&model.Order{}).Where("id = ?", o.ID).Updates(updates).Error; err != nil {
                return err
            }
        }

        eventType := model.EventOrderUpdated
        if o.Status == model.OrderStatusCancelled && input.Status != nil {
            eventType = model.EventOrderCancelled
        }
        if err := writeOrderEvent(tx, eventType, &o); err != nil {
            return err
        }
        order = &o
        return nil
    })
    if err != nil {
        return nil, err
    }

    s.invalidateProducts(productIDs)
    return order, nil
}

func (s *orderService) AdminList(ctx context.Context, status string, page, pageSize int) ([]*model.Order, int64, error) {
    if status != "" && !model.OrderStatus(status).Valid() {
        return nil, 0, ErrInvalidStatus
    }
    if page < 1 {
        page = 1
    }
    if pageSize < 1 || pageSize > 100 {
        pageSize = 20
    }
    return s.orderRepo.ListAll(ctx, model.OrderStatus(status), page, pageSize)
}

func (s *orderService) invalidateProducts(ids []uint) {
    if s.invalidator == nil {
        return
    }
    for _, id := range ids {
        s.invalidator.Enqueue(id)
    }
}
