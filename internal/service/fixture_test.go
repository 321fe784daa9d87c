package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/gateway/midtrans"
	"github.com/RoyceAzure/lab/storefront/internal/infra/producer"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/memory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testServerKey = "SB-Mid-server-test"

type fixture struct {
	store         *memory.Store
	inventory     *InventoryService
	transitioner  *OrderTransitioner
	cart          *CartService
	orders        *OrderService
	checkout      *CheckoutService
	notifications *NotificationService
	payments      *PaymentService
}

func newFixture(t *testing.T, gateway IPaymentGateway) *fixture {
	t.Helper()
	if gateway == nil {
		gateway = midtrans.NewClient(midtrans.Config{ServerKey: testServerKey, ClientKey: "SB-Mid-client-test"}, nil)
	}
	store := memory.NewStore()
	inventory := NewInventoryService(store)
	transitioner := NewOrderTransitioner(store, inventory, producer.NoopPublisher{})
	cart := NewCartService(store, store)
	return &fixture{
		store:         store,
		inventory:     inventory,
		transitioner:  transitioner,
		cart:          cart,
		orders:        NewOrderService(store, transitioner),
		checkout:      NewCheckoutService(cart, inventory, store, store, gateway, producer.NoopPublisher{}, time.Second),
		notifications: NewNotificationService(store, store, gateway, transitioner),
		payments:      NewPaymentService(store, gateway, transitioner),
	}
}

func (f *fixture) seedVariant(sku string, price int64, stock int) *model.ProductVariant {
	return f.store.AddVariant(
		&model.Product{Name: "Kaos " + sku, Slug: "kaos-" + sku, Thumbnail: "https://img/" + sku + ".png"},
		&model.ProductVariant{
			SKU:        sku,
			Price:      decimal.NewFromInt(price),
			Stock:      stock,
			Weight:     200,
			IsActive:   true,
			Attributes: map[string]any{"size": "M"},
		},
	)
}

func newCaller() Caller {
	return Caller{UserID: uuid.New(), Role: constants.RoleUser, Name: "Budi", Email: "budi@example.com", Phone: "0812"}
}

func adminCaller() Caller {
	return Caller{UserID: uuid.New(), Role: constants.RoleAdmin, Name: "Admin"}
}

func codInput(c Caller) CheckoutInput {
	return CheckoutInput{
		Customer:        c.Customer(),
		ShippingAddress: "Jl. Sudirman 1, Jakarta",
		ShippingMethod:  "JNE Reguler",
		ShippingCost:    decimal.NewFromInt(15000),
		PaymentMethod:   constants.PaymentMethodCOD,
	}
}

// placeOrder 加入購物車後以貨到付款結帳
func (f *fixture) placeOrder(t *testing.T, c Caller, items map[*model.ProductVariant]int) *model.Order {
	t.Helper()
	ctx := context.Background()
	for v, qty := range items {
		_, err := f.cart.AddOrMerge(ctx, c.UserID, v.ID, qty)
		require.NoError(t, err)
	}
	res, err := f.checkout.Checkout(ctx, codInput(c))
	require.NoError(t, err)
	return res.Order
}

func notificationBody(t *testing.T, order *model.Order, txnID, status, fraud string) []byte {
	t.Helper()
	gross := order.TotalAmount.StringFixed(2)
	statusCode := "200"
	body, err := json.Marshal(map[string]any{
		"order_id":           order.OrderNumber,
		"transaction_id":     txnID,
		"transaction_status": status,
		"transaction_time":   "2026-03-09 10:00:00",
		"payment_type":       "bank_transfer",
		"gross_amount":       gross,
		"status_code":        statusCode,
		"fraud_status":       fraud,
		"signature_key":      midtrans.Signature(order.OrderNumber, statusCode, gross, testServerKey),
		"va_numbers":         []map[string]string{{"bank": "bca", "va_number": "12345678"}},
		"merchant_id":        "G000",
	})
	require.NoError(t, err)
	return body
}

func (f *fixture) reload(t *testing.T, order *model.Order) *model.Order {
	t.Helper()
	o, err := f.store.GetOrderByID(context.Background(), order.ID)
	require.NoError(t, err)
	return o
}

func sku(i int) string {
	return fmt.Sprintf("SKU-%03d", i)
}
