package db

import (
	"context"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type OrderRepo struct {
	db *DbDao
}

func NewOrderRepo(db *DbDao) *OrderRepo {
	return &OrderRepo{db: db}
}

// CreateOrder 訂單、明細、購物車刪除在同一個交易
// 任何一步失敗整筆 rollback，呼叫端負責釋放已預留的庫存
func (r *OrderRepo) CreateOrder(ctx context.Context, order *model.Order, consumedCartLineIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return translateErr(err, "create order %s", order.OrderNumber)
		}
		if len(consumedCartLineIDs) == 0 {
			return nil
		}
		res := tx.Where("id IN ? AND user_id = ?", consumedCartLineIDs, order.UserID).Delete(&model.CartLine{})
		if res.Error != nil {
			return fmt.Errorf("failed to clear cart lines: %w", res.Error)
		}
		if res.RowsAffected != int64(len(consumedCartLineIDs)) {
			return fmt.Errorf("%w: %d of %d cart lines left for order %s",
				repository.ErrCartChanged, res.RowsAffected, len(consumedCartLineIDs), order.OrderNumber)
		}
		return nil
	})
}

func (r *OrderRepo) GetOrderByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).Preload("Lines").First(&order, "id = ?", id).Error
	if err != nil {
		return nil, translateErr(err, "order %s", id)
	}
	return &order, nil
}

func (r *OrderRepo) GetOrderByNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).Preload("Lines").First(&order, "order_number = ?", orderNumber).Error
	if err != nil {
		return nil, translateErr(err, "order %s", orderNumber)
	}
	return &order, nil
}

func (r *OrderRepo) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).Preload("Lines").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func filterScope(filter repository.OrderFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		if filter.PaymentStatus != "" {
			db = db.Where("payment_status = ?", filter.PaymentStatus)
		}
		return db
	}
}

func paginate(filter repository.OrderFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		limit := filter.Limit
		switch {
		case limit <= 0:
			limit = defaultPageSize
		case limit > maxPageSize:
			limit = maxPageSize
		}
		return db.Offset((page - 1) * limit).Limit(limit)
	}
}

func (r *OrderRepo) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]model.Order, error) {
	var orders []model.Order
	sort := "created_at DESC"
	if filter.SortAsc {
		sort = "created_at ASC"
	}
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Scopes(filterScope(filter), paginate(filter)).
		Preload("Lines").
		Order(sort).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (r *OrderRepo) CountOrders(ctx context.Context, filter repository.OrderFilter) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).Scopes(filterScope(filter)).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

// GetOrderStats 營收只計算已付款訂單
func (r *OrderRepo) GetOrderStats(ctx context.Context) (*model.OrderStats, error) {
	var stats model.OrderStats
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select(`COUNT(*) AS total_orders,
			COALESCE(SUM(CASE WHEN payment_status = 'paid' THEN total_amount ELSE 0 END), 0) AS total_revenue,
			COUNT(CASE WHEN status = 'pending' THEN 1 END) AS pending_count,
			COUNT(CASE WHEN status = 'processing' THEN 1 END) AS processing_count,
			COUNT(CASE WHEN status = 'shipped' THEN 1 END) AS shipped_count,
			COUNT(CASE WHEN status = 'delivered' THEN 1 END) AS delivered_count,
			COUNT(CASE WHEN status = 'cancelled' THEN 1 END) AS cancelled_count,
			COUNT(CASE WHEN payment_status = 'unpaid' THEN 1 END) AS unpaid_count,
			COUNT(CASE WHEN payment_status = 'paid' THEN 1 END) AS paid_count`).
		Row().
		Scan(&stats.TotalOrders, &stats.TotalRevenue, &stats.PendingCount, &stats.ProcessingCount,
			&stats.ShippedCount, &stats.DeliveredCount, &stats.CancelledCount, &stats.UnpaidCount, &stats.PaidCount)
	if err != nil {
		return nil, fmt.Errorf("failed to get order stats: %w", err)
	}
	return &stats, nil
}

func paymentInfoColumns(info repository.PaymentInfo, updates map[string]interface{}) {
	if info.RemoteTransactionID != "" {
		updates["remote_transaction_id"] = info.RemoteTransactionID
	}
	if info.RemoteTransactionStatus != "" {
		updates["remote_transaction_status"] = info.RemoteTransactionStatus
	}
	if info.PaymentType != "" {
		updates["payment_type"] = info.PaymentType
	}
	if len(info.VANumbers) > 0 {
		updates["va_numbers"] = datatypes.JSONSlice[model.VANumber](info.VANumbers)
	}
}

// TransitionOrder compare-and-swap
// WHERE 條件帶上目前狀態，RowsAffected == 0 代表已被其他請求搶先轉換
func (r *OrderRepo) TransitionOrder(ctx context.Context, id uuid.UUID, from, to model.OrderState, paidAt *time.Time, info repository.PaymentInfo) (bool, error) {
	updates := map[string]interface{}{
		"status":         to.Status,
		"payment_status": to.PaymentStatus,
	}
	if paidAt != nil {
		updates["paid_at"] = *paidAt
	}
	paymentInfoColumns(info, updates)

	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ? AND payment_status = ?", id, from.Status, from.PaymentStatus).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("failed to transition order %s: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *OrderRepo) UpdatePaymentInfo(ctx context.Context, id uuid.UUID, info repository.PaymentInfo) error {
	if info.IsEmpty() {
		return nil
	}
	updates := map[string]interface{}{}
	paymentInfoColumns(info, updates)

	res := r.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update payment info: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: order %s", repository.ErrNotFound, id)
	}
	return nil
}

var _ repository.IOrderRepository = (*OrderRepo)(nil)
