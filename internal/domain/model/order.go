package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (s OrderStatus) IsValid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

var PaymentStatuses = []PaymentStatus{
	PaymentStatusUnpaid,
	PaymentStatusPaid,
	PaymentStatusFailed,
	PaymentStatusRefunded,
}

func (s PaymentStatus) IsValid() bool {
	for _, v := range PaymentStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// VANumber 虛擬帳號
type VANumber struct {
	Bank     string `json:"bank"`
	VANumber string `json:"va_number"`
}

// Order 建立後不會刪除，只能透過 OrderState 的轉換表異動狀態
type Order struct {
	ID              uuid.UUID       `gorm:"primaryKey;type:uuid" json:"id"`
	OrderNumber     string          `gorm:"uniqueIndex;not null;type:varchar(32)" json:"order_number"`
	UserID          uuid.UUID       `gorm:"not null;type:uuid;index" json:"user_id"`
	Lines           []OrderLine     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Subtotal        decimal.Decimal `gorm:"not null;type:decimal(14,2)" json:"subtotal"`
	ShippingCost    decimal.Decimal `gorm:"not null;type:decimal(14,2)" json:"shipping_cost"`
	TotalAmount     decimal.Decimal `gorm:"not null;type:decimal(14,2)" json:"total_amount"`
	ShippingAddress string          `gorm:"not null;type:text" json:"shipping_address"`
	ShippingMethod  string          `gorm:"not null;type:varchar(100)" json:"shipping_method"`
	PaymentMethod   string          `gorm:"not null;type:varchar(50)" json:"payment_method"`
	Note            string          `gorm:"type:text" json:"note,omitempty"`
	Status          OrderStatus     `gorm:"not null;type:varchar(20);default:pending;index" json:"status"`
	PaymentStatus   PaymentStatus   `gorm:"not null;type:varchar(20);default:unpaid;index" json:"payment_status"`

	// 金流欄位
	SnapToken               string                        `gorm:"type:varchar(255)" json:"snap_token,omitempty"`
	SnapRedirectURL         string                        `gorm:"type:varchar(512)" json:"snap_redirect_url,omitempty"`
	RemoteTransactionID     string                        `gorm:"type:varchar(100)" json:"remote_transaction_id,omitempty"`
	RemoteTransactionStatus string                        `gorm:"type:varchar(50)" json:"remote_transaction_status,omitempty"`
	PaymentType             string                        `gorm:"type:varchar(50)" json:"payment_type,omitempty"`
	VANumbers               datatypes.JSONSlice[VANumber] `gorm:"type:jsonb" json:"va_numbers,omitempty"`
	PaidAt                  *time.Time                    `json:"paid_at,omitempty"`
	Timestamps
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

func (o *Order) State() OrderState {
	return OrderState{Status: o.Status, PaymentStatus: o.PaymentStatus}
}

// LinesSubtotal 所有明細小計加總
func (o *Order) LinesSubtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range o.Lines {
		sum = sum.Add(l.Subtotal)
	}
	return sum
}

// OrderLine 結帳當下的商品快照，不隨型錄異動
type OrderLine struct {
	ID                uuid.UUID         `gorm:"primaryKey;type:uuid" json:"id"`
	OrderID           uuid.UUID         `gorm:"not null;type:uuid;index" json:"order_id"`
	VariantID         uuid.UUID         `gorm:"not null;type:uuid;index" json:"variant_id"`
	SKU               string            `gorm:"not null;type:varchar(100)" json:"sku"`
	ProductName       string            `gorm:"not null;type:varchar(255)" json:"product_name"`
	ProductSlug       string            `gorm:"type:varchar(255)" json:"product_slug"`
	Thumbnail         string            `gorm:"type:varchar(512)" json:"thumbnail"`
	VariantAttributes datatypes.JSONMap `gorm:"type:jsonb" json:"variant_attributes"`
	Quantity          int               `gorm:"not null" json:"quantity"`
	Price             decimal.Decimal   `gorm:"not null;type:decimal(14,2)" json:"price"`
	Subtotal          decimal.Decimal   `gorm:"not null;type:decimal(14,2)" json:"subtotal"`
	Timestamps
}

func (l *OrderLine) BeforeCreate(tx *gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

// OrderSequence 每日訂單流水號 (db 版本的 order number allocator)
type OrderSequence struct {
	Day   string `gorm:"primaryKey;type:varchar(8)"`
	Value int64  `gorm:"not null;default:0"`
}

// OrderStats 後台訂單統計
type OrderStats struct {
	TotalOrders     int64           `json:"total_orders"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	PendingCount    int64           `json:"pending_count"`
	ProcessingCount int64           `json:"processing_count"`
	ShippedCount    int64           `json:"shipped_count"`
	DeliveredCount  int64           `json:"delivered_count"`
	CancelledCount  int64           `json:"cancelled_count"`
	UnpaidCount     int64           `json:"unpaid_count"`
	PaidCount       int64           `json:"paid_count"`
}
