package repository

import (
	"context"
	"errors"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrStockNotEnough = errors.New("stock not enough")
	ErrDuplicateKey   = errors.New("duplicate key")
	// ErrCartChanged 結帳時要刪除的購物車項目已不存在 (例如重複送出結帳)
	ErrCartChanged    = errors.New("cart changed")
)

// IVariantRepository 庫存帳本
// ReserveStock / ReleaseStock 必須是單一條件式原子更新，不能先讀再寫
type IVariantRepository interface {
	GetVariantByID(ctx context.Context, id uuid.UUID) (*model.ProductVariant, error)
	// ReserveStock stock >= qty 才扣減，否則回傳 ErrStockNotEnough
	ReserveStock(ctx context.Context, id uuid.UUID, qty int) error
	// ReleaseStock 無條件加回庫存
	ReleaseStock(ctx context.Context, id uuid.UUID, qty int) error
}

type ICartRepository interface {
	// ListCartLines 含 Variant 與 Product，依建立時間新到舊
	ListCartLines(ctx context.Context, userID uuid.UUID, onlyChecked bool) ([]model.CartLine, error)
	GetCartLine(ctx context.Context, userID, lineID uuid.UUID) (*model.CartLine, error)
	GetCartLineByVariant(ctx context.Context, userID, variantID uuid.UUID) (*model.CartLine, error)
	// CreateCartLine (user, variant) 已存在時回傳 ErrDuplicateKey
	CreateCartLine(ctx context.Context, line *model.CartLine) error
	// CompareAndSetQuantity 只有目前數量等於 expected 時才更新，回傳是否更新成功
	CompareAndSetQuantity(ctx context.Context, lineID uuid.UUID, expected, quantity int, checked bool) (bool, error)
	ToggleCartLineChecked(ctx context.Context, userID, lineID uuid.UUID) (*model.CartLine, error)
	DeleteCartLine(ctx context.Context, userID, lineID uuid.UUID) error
}

// OrderFilter 後台查詢條件
type OrderFilter struct {
	Status        model.OrderStatus
	PaymentStatus model.PaymentStatus
	Page          int
	Limit         int
	SortAsc       bool
}

// PaymentInfo 金流回報的付款資訊，與狀態轉換分開更新
type PaymentInfo struct {
	RemoteTransactionID     string
	RemoteTransactionStatus string
	PaymentType             string
	VANumbers               []model.VANumber
}

func (p PaymentInfo) IsEmpty() bool {
	return p.RemoteTransactionID == "" && p.RemoteTransactionStatus == "" && p.PaymentType == "" && len(p.VANumbers) == 0
}

type IOrderRepository interface {
	// CreateOrder 在同一個交易內寫入訂單、明細並刪除已結帳的購物車項目
	// 任何一筆購物車項目已被刪除時整筆 rollback 並回傳 ErrCartChanged
	// 訂單編號重複時回傳 ErrDuplicateKey
	CreateOrder(ctx context.Context, order *model.Order, consumedCartLineIDs []uuid.UUID) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*model.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]model.Order, error)
	CountOrders(ctx context.Context, filter OrderFilter) (int64, error)
	GetOrderStats(ctx context.Context) (*model.OrderStats, error)
	// TransitionOrder 只有目前狀態等於 from 時才寫入 to (compare-and-swap)
	// paidAt 非 nil 時一併寫入；回傳 false 代表狀態已被其他請求改變
	TransitionOrder(ctx context.Context, id uuid.UUID, from, to model.OrderState, paidAt *time.Time, info PaymentInfo) (bool, error)
	UpdatePaymentInfo(ctx context.Context, id uuid.UUID, info PaymentInfo) error
}

type IPaymentEventRepository interface {
	AppendPaymentEvent(ctx context.Context, ev *model.PaymentEvent) error
	ListPaymentEvents(ctx context.Context, orderNumber string) ([]model.PaymentEvent, error)
	CountPaymentEvents(ctx context.Context, transactionID, transactionStatus string) (int64, error)
}

// IOrderNumberAllocator 產生 ORD-YYYYMMDD-NNNN，併發下不可重複
type IOrderNumberAllocator interface {
	NextOrderNumber(ctx context.Context, now time.Time) (string, error)
}
