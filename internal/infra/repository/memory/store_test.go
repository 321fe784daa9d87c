package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s *Store, stock int) *model.ProductVariant {
	t.Helper()
	return s.AddVariant(&model.Product{Name: "Kemeja", Slug: "kemeja"}, &model.ProductVariant{
		SKU:      "KMJ-L",
		Price:    decimal.NewFromInt(120000),
		Stock:    stock,
		IsActive: true,
	})
}

func TestStore_ConcurrentReserve(t *testing.T) {
	s := NewStore()
	v := seed(t, s, 7)

	var success int32
	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.ReserveStock(context.Background(), v.ID, 1) == nil {
				atomic.AddInt32(&success, 1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(7), success)
	require.Equal(t, 0, s.Stock(v.ID))
}

func TestStore_ReserveErrors(t *testing.T) {
	s := NewStore()
	v := seed(t, s, 1)
	ctx := context.Background()

	require.ErrorIs(t, s.ReserveStock(ctx, v.ID, 2), repository.ErrStockNotEnough)
	require.ErrorIs(t, s.ReserveStock(ctx, uuid.New(), 1), repository.ErrNotFound)
	require.Error(t, s.ReserveStock(ctx, v.ID, 0))
	require.Equal(t, 1, s.Stock(v.ID))

	require.NoError(t, s.ReleaseStock(ctx, v.ID, 4))
	require.Equal(t, 5, s.Stock(v.ID))
}

func TestStore_CartLines(t *testing.T) {
	s := NewStore()
	v := seed(t, s, 10)
	ctx := context.Background()
	user := uuid.New()

	line := &model.CartLine{UserID: user, VariantID: v.ID, Quantity: 1, IsChecked: true}
	require.NoError(t, s.CreateCartLine(ctx, line))
	require.ErrorIs(t, s.CreateCartLine(ctx, &model.CartLine{UserID: user, VariantID: v.ID, Quantity: 1}), repository.ErrDuplicateKey)

	ok, err := s.CompareAndSetQuantity(ctx, line.ID, 2, 5, true)
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = s.CompareAndSetQuantity(ctx, line.ID, 1, 5, true)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := s.ToggleCartLineChecked(ctx, user, line.ID)
	require.NoError(t, err)
	require.False(t, got.IsChecked)
	require.NotNil(t, got.Variant)
	require.Equal(t, "Kemeja", got.Variant.ProductName())

	checked, err := s.ListCartLines(ctx, user, true)
	require.NoError(t, err)
	require.Empty(t, checked)

	// 其他使用者看不到
	_, err = s.GetCartLine(ctx, uuid.New(), line.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, s.DeleteCartLine(ctx, user, line.ID))
	require.ErrorIs(t, s.DeleteCartLine(ctx, user, line.ID), repository.ErrNotFound)
}

func TestStore_OrderTransitionCAS(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	user := uuid.New()
	line := &model.CartLine{UserID: user, VariantID: uuid.New(), Quantity: 1}
	require.NoError(t, s.CreateCartLine(ctx, line))

	order := &model.Order{
		OrderNumber:   "ORD-20260101-0001",
		UserID:        user,
		TotalAmount:   decimal.NewFromInt(100),
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusUnpaid,
		Lines:         []model.OrderLine{{SKU: "A", Quantity: 1}},
	}
	require.NoError(t, s.CreateOrder(ctx, order, []uuid.UUID{line.ID}))
	require.ErrorIs(t, s.CreateOrder(ctx, &model.Order{OrderNumber: order.OrderNumber}, nil), repository.ErrDuplicateKey)

	lines, _ := s.ListCartLines(ctx, user, false)
	require.Empty(t, lines)

	// 同一個購物車項目不能被第二張訂單取走
	again := &model.Order{OrderNumber: "ORD-20260101-0002", UserID: user}
	require.ErrorIs(t, s.CreateOrder(ctx, again, []uuid.UUID{line.ID}), repository.ErrCartChanged)
	_, err := s.GetOrderByNumber(ctx, again.OrderNumber)
	require.ErrorIs(t, err, repository.ErrNotFound)

	cancelled := model.OrderState{Status: model.OrderStatusCancelled, PaymentStatus: model.PaymentStatusUnpaid}
	paid := model.OrderState{Status: model.OrderStatusProcessing, PaymentStatus: model.PaymentStatusPaid}

	var wins int32
	var wg sync.WaitGroup
	for _, to := range []model.OrderState{cancelled, paid, cancelled, paid} {
		wg.Add(1)
		go func(to model.OrderState) {
			defer wg.Done()
			ok, err := s.TransitionOrder(ctx, order.ID, model.StateCreated, to, nil, repository.PaymentInfo{})
			if err == nil && ok {
				atomic.AddInt32(&wins, 1)
			}
		}(to)
	}
	wg.Wait()
	require.Equal(t, int32(1), wins)

	got, err := s.GetOrderByNumber(ctx, order.OrderNumber)
	require.NoError(t, err)
	require.NotEqual(t, model.StateCreated, got.State())
	require.Len(t, got.Lines, 1)
	require.Equal(t, got.ID, got.Lines[0].OrderID)
}

func TestStore_ListOrdersAndStats(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for i := 0; i < 5; i++ {
		status := model.PaymentStatusUnpaid
		if i%2 == 0 {
			status = model.PaymentStatusPaid
		}
		number, err := s.NextOrderNumber(ctx, base)
		require.NoError(t, err)
		require.NoError(t, s.CreateOrder(ctx, &model.Order{
			OrderNumber:   number,
			UserID:        uuid.New(),
			TotalAmount:   decimal.NewFromInt(1000),
			Status:        model.OrderStatusPending,
			PaymentStatus: status,
		}, nil))
	}

	page, err := s.ListOrders(ctx, repository.OrderFilter{Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "ORD-20260201-0005", page[0].OrderNumber)

	asc, err := s.ListOrders(ctx, repository.OrderFilter{Page: 3, Limit: 2, SortAsc: true})
	require.NoError(t, err)
	require.Len(t, asc, 1)
	require.Equal(t, "ORD-20260201-0005", asc[0].OrderNumber)

	count, err := s.CountOrders(ctx, repository.OrderFilter{PaymentStatus: model.PaymentStatusPaid})
	require.NoError(t, err)
	require.Equal(t, int64(3), count)

	stats, err := s.GetOrderStats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(5), stats.TotalOrders)
	require.Equal(t, int64(5), stats.PendingCount)
	require.True(t, stats.TotalRevenue.Equal(decimal.NewFromInt(3000)))
}

func TestStore_PaymentEvents(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		require.NoError(t, s.AppendPaymentEvent(ctx, &model.PaymentEvent{OrderNumber: "ORD-1", TransactionID: "t1", TransactionStatus: "settlement"}))
	}
	require.NoError(t, s.AppendPaymentEvent(ctx, &model.PaymentEvent{OrderNumber: "ORD-2", TransactionID: "t2", TransactionStatus: "pending"}))

	count, err := s.CountPaymentEvents(ctx, "t1", "settlement")
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	events, err := s.ListPaymentEvents(ctx, "ORD-2")
	require.NoError(t, err)
	require.Len(t, events, 1)
}
