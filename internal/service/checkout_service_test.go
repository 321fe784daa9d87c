package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/producer"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	mock_service "github.com/RoyceAzure/lab/storefront/internal/service/mock"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCheckout_CODReservesStock(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	v := f.seedVariant(sku(1), 75000, 5)
	c := newCaller()

	_, err := f.cart.AddOrMerge(ctx, c.UserID, v.ID, 3)
	require.NoError(t, err)

	in := codInput(c)
	in.Note = "titip satpam"
	res, err := f.checkout.Checkout(ctx, in)
	require.NoError(t, err)
	require.Nil(t, res.Session)

	order := res.Order
	require.Equal(t, 2, f.store.Stock(v.ID))
	require.Equal(t, model.StateCreated, order.State())
	require.Regexp(t, `^ORD-\d{8}-0001$`, order.OrderNumber)
	require.True(t, order.Subtotal.Equal(decimal.NewFromInt(225000)))
	require.True(t, order.TotalAmount.Equal(decimal.NewFromInt(240000)))
	require.True(t, order.TotalAmount.Equal(order.LinesSubtotal().Add(order.ShippingCost)))
	require.Equal(t, "titip satpam", order.Note)
	require.Len(t, order.Lines, 1)
	require.Equal(t, "Kaos "+v.SKU, order.Lines[0].ProductName)

	// 已結帳的購物車項目被刪除
	lines, err := f.cart.ListLines(ctx, c.UserID)
	require.NoError(t, err)
	require.Empty(t, lines)

	stored := f.reload(t, order)
	require.Equal(t, order.OrderNumber, stored.OrderNumber)
}

func TestCheckout_GatewaySession(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := mock_service.NewMockIPaymentGateway(ctrl)
	f := newFixture(t, gw)
	ctx := context.Background()
	v := f.seedVariant(sku(1), 10000, 5)
	c := newCaller()

	_, err := f.cart.AddOrMerge(ctx, c.UserID, v.ID, 2)
	require.NoError(t, err)

	gw.EXPECT().
		CreateSession(gomock.Any(), gomock.Any(), c.Customer()).
		DoAndReturn(func(ctx context.Context, o *model.Order, _ model.Customer) (*model.PaymentSession, error) {
			_, hasDeadline := ctx.Deadline()
			require.True(t, hasDeadline)
			require.True(t, o.TotalAmount.Equal(decimal.NewFromInt(50000)))
			return &model.PaymentSession{Token: "snap-token", RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/snap-token"}, nil
		})

	in := codInput(c)
	in.ShippingMethod, in.ShippingCost = "JNE YES", decimal.NewFromInt(30000)
	in.PaymentMethod = constants.PaymentMethodEwallet
	res, err := f.checkout.Checkout(ctx, in)
	require.NoError(t, err)
	require.Equal(t, "snap-token", res.Session.Token)
	require.Equal(t, "snap-token", f.reload(t, res.Order).SnapToken)
	require.Equal(t, 3, f.store.Stock(v.ID))
}

func TestCheckout_GatewayFailureReleasesStock(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := mock_service.NewMockIPaymentGateway(ctrl)
	f := newFixture(t, gw)
	ctx := context.Background()
	a := f.seedVariant(sku(1), 10000, 5)
	b := f.seedVariant(sku(2), 20000, 4)
	c := newCaller()

	_, err := f.cart.AddOrMerge(ctx, c.UserID, a.ID, 2)
	require.NoError(t, err)
	_, err = f.cart.AddOrMerge(ctx, c.UserID, b.ID, 4)
	require.NoError(t, err)

	gw.EXPECT().CreateSession(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("gateway timeout"))

	in := codInput(c)
	in.PaymentMethod = constants.PaymentMethodVirtualAccount
	_, err = f.checkout.Checkout(ctx, in)
	require.True(t, apperr.Is(err, apperr.GatewayErrorCode))

	require.Equal(t, 5, f.store.Stock(a.ID))
	require.Equal(t, 4, f.store.Stock(b.ID))
	orders, err := f.orders.ListMyOrders(ctx, c)
	require.NoError(t, err)
	require.Empty(t, orders)

	// 購物車保留，可以重新結帳
	selected, err := f.cart.SelectedLines(ctx, c.UserID)
	require.NoError(t, err)
	require.Len(t, selected, 2)
}

func TestCheckout_InsufficientStockNamesSKU(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.seedVariant(sku(1), 10000, 5)
	b := f.seedVariant(sku(2), 10000, 3)
	c := newCaller()

	_, err := f.cart.AddOrMerge(ctx, c.UserID, a.ID, 2)
	require.NoError(t, err)
	_, err = f.cart.AddOrMerge(ctx, c.UserID, b.ID, 3)
	require.NoError(t, err)

	// 其他買家先買走
	require.NoError(t, f.store.ReserveStock(ctx, b.ID, 2))

	_, err = f.checkout.Checkout(ctx, codInput(c))
	require.True(t, apperr.Is(err, apperr.InsufficientStockCode))
	require.Contains(t, apperr.As(err).Message, b.SKU)
	require.Equal(t, 5, f.store.Stock(a.ID))
	require.Equal(t, 1, f.store.Stock(b.ID))

	orders, err := f.orders.ListMyOrders(ctx, c)
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestCheckout_Validation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	c := newCaller()

	tests := []struct {
		name   string
		modify func(in *CheckoutInput)
	}{
		{"missing address", func(in *CheckoutInput) { in.ShippingAddress = "  " }},
		{"missing method", func(in *CheckoutInput) { in.ShippingMethod = "" }},
		{"unknown method", func(in *CheckoutInput) { in.ShippingMethod = "Pos Kilat" }},
		{"cost mismatch", func(in *CheckoutInput) { in.ShippingCost = decimal.NewFromInt(1) }},
		{"missing payment", func(in *CheckoutInput) { in.PaymentMethod = "" }},
		{"unknown payment", func(in *CheckoutInput) { in.PaymentMethod = "crypto" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := codInput(c)
			tt.modify(&in)
			_, err := f.checkout.Checkout(ctx, in)
			require.True(t, apperr.Is(err, apperr.ValidationCode), err)
		})
	}

	_, err := f.checkout.Checkout(ctx, codInput(c))
	require.True(t, apperr.Is(err, apperr.ValidationCode))
}

func TestCheckout_ConcurrentBuyersNeverOversell(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	v := f.seedVariant(sku(1), 10000, 10)

	const buyers = 30
	callers := make([]Caller, buyers)
	for i := range callers {
		callers[i] = newCaller()
		_, err := f.cart.AddOrMerge(ctx, callers[i].UserID, v.ID, 1)
		require.NoError(t, err)
	}

	var mu sync.Mutex
	numbers := make(map[string]struct{})
	var wg sync.WaitGroup
	for _, c := range callers {
		wg.Add(1)
		go func(c Caller) {
			defer wg.Done()
			res, err := f.checkout.Checkout(ctx, codInput(c))
			if err != nil {
				return
			}
			mu.Lock()
			numbers[res.Order.OrderNumber] = struct{}{}
			mu.Unlock()
		}(c)
	}
	wg.Wait()

	require.Len(t, numbers, 10)
	require.Equal(t, 0, f.store.Stock(v.ID))
}

func TestReview(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.seedVariant(sku(1), 10000, 5)
	b := f.seedVariant(sku(2), 25000, 5)
	c := newCaller()

	_, err := f.checkout.Review(ctx, c.UserID)
	require.True(t, apperr.Is(err, apperr.ValidationCode))

	_, err = f.cart.AddOrMerge(ctx, c.UserID, a.ID, 2)
	require.NoError(t, err)
	lb, err := f.cart.AddOrMerge(ctx, c.UserID, b.ID, 1)
	require.NoError(t, err)
	_, err = f.cart.ToggleChecked(ctx, c.UserID, lb.ID)
	require.NoError(t, err)

	review, err := f.checkout.Review(ctx, c.UserID)
	require.NoError(t, err)
	require.Len(t, review.Items, 1)
	require.True(t, review.Subtotal.Equal(decimal.NewFromInt(20000)))
	require.Equal(t, 400, review.TotalWeight)
	require.Len(t, review.ShippingOptions, 5)
	require.Len(t, review.PaymentMethods, 4)
}

func TestCheckout_DoubleSubmitConsumesCartOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := mock_service.NewMockIPaymentGateway(ctrl)
	f := newFixture(t, gw)
	ctx := context.Background()
	v := f.seedVariant(sku(1), 10000, 10)
	c := newCaller()

	_, err := f.cart.AddOrMerge(ctx, c.UserID, v.ID, 3)
	require.NoError(t, err)

	// 兩個請求都讀到同一份購物車後才繼續寫入訂單
	var arrived sync.WaitGroup
	arrived.Add(2)
	bothArrived := make(chan struct{})
	go func() {
		arrived.Wait()
		close(bothArrived)
	}()
	gw.EXPECT().
		CreateSession(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, o *model.Order, _ model.Customer) (*model.PaymentSession, error) {
			arrived.Done()
			select {
			case <-bothArrived:
			case <-time.After(2 * time.Second):
			}
			return &model.PaymentSession{Token: "tok-" + o.OrderNumber}, nil
		}).
		Times(2)

	in := codInput(c)
	in.PaymentMethod = constants.PaymentMethodEwallet

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.checkout.Checkout(ctx, in)
		}(i)
	}
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case apperr.Is(err, apperr.CartChangedCode):
			conflicted++
		}
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, 1, conflicted)

	orders, err := f.orders.ListMyOrders(ctx, c)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, 7, f.store.Stock(v.ID))

	lines, err := f.cart.ListLines(ctx, c.UserID)
	require.NoError(t, err)
	require.Empty(t, lines)
}

// scriptedAllocator 依序回傳預先指定的訂單編號
type scriptedAllocator struct {
	mu      sync.Mutex
	numbers []string
	calls   int
}

func (a *scriptedAllocator) NextOrderNumber(ctx context.Context, now time.Time) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if len(a.numbers) == 0 {
		return "", errors.New("no more numbers")
	}
	n := a.numbers[0]
	if len(a.numbers) > 1 {
		a.numbers = a.numbers[1:]
	}
	return n, nil
}

func TestCheckout_RetriesTakenOrderNumber(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	v := f.seedVariant(sku(1), 10000, 10)

	first := f.placeOrder(t, newCaller(), map[*model.ProductVariant]int{v: 1})

	t.Run("allocates another number", func(t *testing.T) {
		alloc := &scriptedAllocator{numbers: []string{first.OrderNumber, "ORD-20260309-0002"}}
		checkout := NewCheckoutService(f.cart, f.inventory, f.store, alloc, nil, producer.NoopPublisher{}, time.Second)
		c := newCaller()
		_, err := f.cart.AddOrMerge(ctx, c.UserID, v.ID, 2)
		require.NoError(t, err)

		res, err := checkout.Checkout(ctx, codInput(c))
		require.NoError(t, err)
		require.Equal(t, "ORD-20260309-0002", res.Order.OrderNumber)
		require.Equal(t, 2, alloc.calls)
		require.Equal(t, 7, f.store.Stock(v.ID))
	})

	t.Run("gives up and releases stock", func(t *testing.T) {
		alloc := &scriptedAllocator{numbers: []string{first.OrderNumber}}
		checkout := NewCheckoutService(f.cart, f.inventory, f.store, alloc, nil, producer.NoopPublisher{}, time.Second)
		c := newCaller()
		_, err := f.cart.AddOrMerge(ctx, c.UserID, v.ID, 2)
		require.NoError(t, err)

		_, err = checkout.Checkout(ctx, codInput(c))
		require.True(t, apperr.Is(err, apperr.InternalCode))
		require.Equal(t, maxOrderNumberAttempts, alloc.calls)
		require.Equal(t, 7, f.store.Stock(v.ID))

		selected, err := f.cart.SelectedLines(ctx, c.UserID)
		require.NoError(t, err)
		require.Len(t, selected, 1)
	})
}
