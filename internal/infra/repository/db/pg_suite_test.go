package db

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 需要實際的 postgres，未設定 STOREFRONT_TEST_DSN 時略過
type PgRepoTestSuite struct {
	suite.Suite
	db  *gorm.DB
	uni *UnifiedDBImpl
}

func TestPgRepoTestSuite(t *testing.T) {
	if os.Getenv("STOREFRONT_TEST_DSN") == "" {
		t.Skip("STOREFRONT_TEST_DSN not set")
	}
	suite.Run(t, new(PgRepoTestSuite))
}

// SetupSuite 在測試套件開始前執行
func (suite *PgRepoTestSuite) SetupSuite() {
	db, err := OpenDSN(os.Getenv("STOREFRONT_TEST_DSN"), WithLogLevel(logger.Silent))
	require.NoError(suite.T(), err)

	suite.db = db
	suite.uni = NewUnifiedDB(db)
	require.NoError(suite.T(), suite.uni.InitMigrate())
}

// SetupTest 在每個測試前清空資料表
func (suite *PgRepoTestSuite) SetupTest() {
	for _, table := range []string{"payment_events", "order_lines", "orders", "cart_lines", "product_variants", "products", "order_sequences"} {
		suite.db.Exec("DELETE FROM " + table)
	}
}

func (suite *PgRepoTestSuite) TearDownSuite() {
	sqlDB, _ := suite.db.DB()
	sqlDB.Close()
}

func (suite *PgRepoTestSuite) seedVariant(stock int) *model.ProductVariant {
	product := &model.Product{Name: "Kaos Polos", Slug: "kaos-polos-" + uuid.NewString()[:8]}
	require.NoError(suite.T(), suite.db.Create(product).Error)

	variant := &model.ProductVariant{
		ProductID: product.ID,
		SKU:       "KP-" + uuid.NewString()[:8],
		Price:     decimal.NewFromInt(50000),
		Stock:     stock,
		Weight:    200,
		IsActive:  true,
	}
	require.NoError(suite.T(), suite.uni.CreateVariant(context.Background(), variant))
	return variant
}

func (suite *PgRepoTestSuite) stockOf(id uuid.UUID) int {
	v, err := suite.uni.GetVariantByID(context.Background(), id)
	require.NoError(suite.T(), err)
	return v.Stock
}

// 併發預留：成功次數 = min(N, K)，庫存不會小於 0
func (suite *PgRepoTestSuite) TestConcurrentReserve() {
	const stock, workers = 5, 20
	variant := suite.seedVariant(stock)

	var success int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := suite.uni.ReserveStock(context.Background(), variant.ID, 1); err == nil {
				atomic.AddInt32(&success, 1)
			} else {
				suite.ErrorIs(err, repository.ErrStockNotEnough)
			}
		}()
	}
	wg.Wait()

	suite.Equal(int32(stock), success)
	suite.Equal(0, suite.stockOf(variant.ID))

	require.NoError(suite.T(), suite.uni.ReleaseStock(context.Background(), variant.ID, 2))
	suite.Equal(2, suite.stockOf(variant.ID))
}

func (suite *PgRepoTestSuite) TestCartDuplicateKey() {
	variant := suite.seedVariant(10)
	userID := uuid.New()
	ctx := context.Background()

	require.NoError(suite.T(), suite.uni.CreateCartLine(ctx, &model.CartLine{UserID: userID, VariantID: variant.ID, Quantity: 1, IsChecked: true}))
	err := suite.uni.CreateCartLine(ctx, &model.CartLine{UserID: userID, VariantID: variant.ID, Quantity: 2, IsChecked: true})
	suite.ErrorIs(err, repository.ErrDuplicateKey)

	line, err := suite.uni.GetCartLineByVariant(ctx, userID, variant.ID)
	require.NoError(suite.T(), err)
	ok, err := suite.uni.CompareAndSetQuantity(ctx, line.ID, 1, 3, true)
	require.NoError(suite.T(), err)
	suite.True(ok)

	toggled, err := suite.uni.ToggleCartLineChecked(ctx, userID, line.ID)
	require.NoError(suite.T(), err)
	suite.False(toggled.IsChecked)
	suite.Equal(3, toggled.Quantity)
}

func (suite *PgRepoTestSuite) TestOrderLifecycle() {
	ctx := context.Background()
	variant := suite.seedVariant(10)
	userID := uuid.New()

	cartLine := &model.CartLine{UserID: userID, VariantID: variant.ID, Quantity: 2, IsChecked: true}
	require.NoError(suite.T(), suite.uni.CreateCartLine(ctx, cartLine))

	number, err := suite.uni.NextOrderNumber(ctx, time.Now())
	require.NoError(suite.T(), err)

	order := &model.Order{
		OrderNumber:     number,
		UserID:          userID,
		Subtotal:        decimal.NewFromInt(100000),
		ShippingCost:    decimal.NewFromInt(15000),
		TotalAmount:     decimal.NewFromInt(115000),
		ShippingAddress: "Jl. Merdeka 1",
		ShippingMethod:  "JNE Reguler",
		PaymentMethod:   "transfer_bank",
		Status:          model.OrderStatusPending,
		PaymentStatus:   model.PaymentStatusUnpaid,
		Lines: []model.OrderLine{{
			VariantID:   variant.ID,
			SKU:         variant.SKU,
			ProductName: "Kaos Polos",
			Quantity:    2,
			Price:       variant.Price,
			Subtotal:    decimal.NewFromInt(100000),
		}},
	}
	require.NoError(suite.T(), suite.uni.CreateOrder(ctx, order, []uuid.UUID{cartLine.ID}))

	lines, err := suite.uni.ListCartLines(ctx, userID, false)
	require.NoError(suite.T(), err)
	suite.Empty(lines)

	// 購物車項目已被取走，第二張訂單整筆 rollback
	again := &model.Order{
		OrderNumber:   number + "-B",
		UserID:        userID,
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusUnpaid,
	}
	err = suite.uni.CreateOrder(ctx, again, []uuid.UUID{cartLine.ID})
	require.ErrorIs(suite.T(), err, repository.ErrCartChanged)
	_, err = suite.uni.GetOrderByNumber(ctx, again.OrderNumber)
	require.ErrorIs(suite.T(), err, repository.ErrNotFound)

	got, err := suite.uni.GetOrderByNumber(ctx, number)
	require.NoError(suite.T(), err)
	suite.Len(got.Lines, 1)
	suite.True(got.TotalAmount.Equal(decimal.NewFromInt(115000)))

	paid := model.OrderState{Status: model.OrderStatusProcessing, PaymentStatus: model.PaymentStatusPaid}
	now := time.Now()
	ok, err := suite.uni.TransitionOrder(ctx, order.ID, model.StateCreated, paid, &now, repository.PaymentInfo{RemoteTransactionID: "txn-1"})
	require.NoError(suite.T(), err)
	suite.True(ok)

	// 第二次以舊狀態轉換會失敗
	ok, err = suite.uni.TransitionOrder(ctx, order.ID, model.StateCreated, paid, &now, repository.PaymentInfo{})
	require.NoError(suite.T(), err)
	suite.False(ok)

	stats, err := suite.uni.GetOrderStats(ctx)
	require.NoError(suite.T(), err)
	suite.Equal(int64(1), stats.TotalOrders)
	suite.Equal(int64(1), stats.PaidCount)
	suite.True(stats.TotalRevenue.Equal(decimal.NewFromInt(115000)))
}

func (suite *PgRepoTestSuite) TestOrderNumberUnique() {
	const workers = 30
	now := time.Now()
	seen := sync.Map{}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, err := suite.uni.NextOrderNumber(context.Background(), now)
			suite.NoError(err)
			_, dup := seen.LoadOrStore(number, struct{}{})
			suite.False(dup, number)
		}()
	}
	wg.Wait()
}
