package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const sampleNotification = `{
  "transaction_time": "2026-03-10 14:02:11",
  "transaction_status": "settlement",
  "transaction_id": "9aed5972-5b6a-401e-894b-a32c91ed1a3a",
  "status_code": "200",
  "signature_key": "abc",
  "payment_type": "bank_transfer",
  "order_id": "ORD-20260310-0001",
  "gross_amount": "115000.00",
  "fraud_status": "accept",
  "va_numbers": [{"bank": "bca", "va_number": "12345678901"}],
  "merchant_id": "G000000"
}`

func TestParseNotification(t *testing.T) {
	n, err := ParseNotification([]byte(sampleNotification))
	require.NoError(t, err)
	require.Equal(t, "ORD-20260310-0001", n.OrderID)
	require.Equal(t, "settlement", n.TransactionStatus)
	require.Equal(t, "115000.00", n.GrossAmount)
	require.Len(t, n.VANumbers, 1)
	require.Equal(t, "bca", n.VANumbers[0].Bank)
	// 額外欄位只保留在 Raw
	require.Contains(t, string(n.Raw), "merchant_id")

	_, err = ParseNotification([]byte(`{"order_id":`))
	require.Error(t, err)
}

func TestNewPaymentEvent(t *testing.T) {
	n, err := ParseNotification([]byte(sampleNotification))
	require.NoError(t, err)

	order := &Order{ID: uuid.New(), OrderNumber: n.OrderID}
	now := time.Date(2026, 3, 10, 7, 5, 0, 0, time.UTC)
	ev := NewPaymentEvent(order, n, true, now)

	require.Equal(t, order.ID, ev.OrderID)
	require.True(t, ev.IsVerified)
	require.True(t, ev.GrossAmount.Equal(decimal.NewFromInt(115000)))
	require.Equal(t, 2026, ev.TransactionTime.Year())
	require.Equal(t, 14, ev.TransactionTime.Hour())
	require.Len(t, ev.VANumbers, 1)
	require.JSONEq(t, sampleNotification, string(ev.RawPayload))

	// 格式錯誤的時間退回使用 now
	n.TransactionTime = "yesterday"
	require.Equal(t, now, NewPaymentEvent(order, n, true, now).TransactionTime)
}
