package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification 金流非同步通知，只保留處理需要的欄位
// 其餘欄位只存在 Raw 內供稽核
type Notification struct {
	OrderID           string     `json:"order_id"`
	TransactionID     string     `json:"transaction_id"`
	TransactionStatus string     `json:"transaction_status"`
	TransactionTime   string     `json:"transaction_time"`
	PaymentType       string     `json:"payment_type"`
	GrossAmount       string     `json:"gross_amount"`
	StatusCode        string     `json:"status_code"`
	SignatureKey      string     `json:"signature_key"`
	FraudStatus       string     `json:"fraud_status"`
	VANumbers         []VANumber `json:"va_numbers"`

	Raw json.RawMessage `json:"-"`
}

// ParseNotification 解析並保留原始 payload
func ParseNotification(body []byte) (*Notification, error) {
	var n Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, err
	}
	n.Raw = append(json.RawMessage(nil), body...)
	return &n, nil
}

// Customer 付款頁面需要的顧客資訊，由認證層提供
type Customer struct {
	UserID uuid.UUID
	Name   string
	Email  string
	Phone  string
}

// PaymentSession 金流託管付款頁面
type PaymentSession struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// RemoteTransaction 金流端查詢/取消的回應
type RemoteTransaction struct {
	OrderID           string          `json:"order_id"`
	TransactionID     string          `json:"transaction_id"`
	TransactionStatus string          `json:"transaction_status"`
	FraudStatus       string          `json:"fraud_status,omitempty"`
	PaymentType       string          `json:"payment_type,omitempty"`
	GrossAmount       string          `json:"gross_amount,omitempty"`
	StatusCode        string          `json:"status_code"`
	StatusMessage     string          `json:"status_message,omitempty"`
	Raw               json.RawMessage `json:"raw,omitempty"`
}

// PaymentEvent 每一筆金流通知的稽核紀錄，只新增不修改
type PaymentEvent struct {
	ID                uuid.UUID                     `gorm:"primaryKey;type:uuid" json:"id"`
	OrderID           uuid.UUID                     `gorm:"not null;type:uuid;index" json:"order_id"`
	OrderNumber       string                        `gorm:"not null;type:varchar(32);index" json:"order_number"`
	TransactionID     string                        `gorm:"type:varchar(100);index:idx_payment_event_txn" json:"transaction_id"`
	TransactionStatus string                        `gorm:"type:varchar(50);index:idx_payment_event_txn" json:"transaction_status"`
	TransactionTime   time.Time                     `json:"transaction_time"`
	PaymentType       string                        `gorm:"type:varchar(50)" json:"payment_type"`
	GrossAmount       decimal.Decimal               `gorm:"type:decimal(14,2)" json:"gross_amount"`
	StatusCode        string                        `gorm:"type:varchar(10)" json:"status_code"`
	SignatureKey      string                        `gorm:"type:varchar(256)" json:"signature_key"`
	FraudStatus       string                        `gorm:"type:varchar(20)" json:"fraud_status"`
	VANumbers         datatypes.JSONSlice[VANumber] `gorm:"type:jsonb" json:"va_numbers"`
	RawPayload        datatypes.JSON                `gorm:"type:jsonb" json:"raw_payload"`
	IsVerified        bool                          `gorm:"not null;default:false" json:"is_verified"`
	CreatedAt         time.Time                     `gorm:"not null;default:now()" json:"created_at"`
}

func (p *PaymentEvent) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

const midtransTimeLayout = "2006-01-02 15:04:05"

// NewPaymentEvent 由已驗證的通知建立稽核紀錄
func NewPaymentEvent(order *Order, n *Notification, verified bool, now time.Time) *PaymentEvent {
	ev := &PaymentEvent{
		ID:                uuid.New(),
		OrderID:           order.ID,
		OrderNumber:       n.OrderID,
		TransactionID:     n.TransactionID,
		TransactionStatus: n.TransactionStatus,
		TransactionTime:   now,
		PaymentType:       n.PaymentType,
		StatusCode:        n.StatusCode,
		SignatureKey:      n.SignatureKey,
		FraudStatus:       n.FraudStatus,
		VANumbers:         datatypes.JSONSlice[VANumber](n.VANumbers),
		RawPayload:        datatypes.JSON(n.Raw),
		IsVerified:        verified,
		CreatedAt:         now,
	}
	if t, err := time.Parse(midtransTimeLayout, n.TransactionTime); err == nil {
		ev.TransactionTime = t
	}
	if amount, err := decimal.NewFromString(n.GrossAmount); err == nil {
		ev.GrossAmount = amount
	}
	return ev
}
