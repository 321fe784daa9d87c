package appcontext

import (
	"context"
	"errors"
	"fmt"

	"github.com/RoyceAzure/lab/storefront/internal/api/router"
	"github.com/RoyceAzure/lab/storefront/internal/config"
	"github.com/RoyceAzure/lab/storefront/internal/infra/gateway/midtrans"
	"github.com/RoyceAzure/lab/storefront/internal/infra/producer"
	"github.com/RoyceAzure/lab/storefront/internal/infra/ratelimit"
	"github.com/RoyceAzure/lab/storefront/internal/infra/redis_client"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/memory"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/storefront/internal/logger"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Store 兩種儲存後端都實作全部 repository
type Store interface {
	repository.IVariantRepository
	repository.ICartRepository
	repository.IOrderRepository
	repository.IPaymentEventRepository
	repository.IOrderNumberAllocator
}

type ApplicationContext struct {
	Cf     *config.Config
	Logger zerolog.Logger

	DbConn      *gorm.DB
	Store       Store
	RedisClient *redis.Client
	Allocator   repository.IOrderNumberAllocator
	Publisher   producer.IOrderEventPublisher
	Gateway     *midtrans.Client
	Limiters    router.Limiters

	InventoryService    service.IInventoryService
	CartService         service.ICartService
	OrderService        service.IOrderService
	CheckoutService     service.ICheckoutService
	NotificationService service.INotificationService
	PaymentService      service.IPaymentService
}

func NewApplicationContext(cf *config.Config) (*ApplicationContext, error) {
	if cf == nil {
		return nil, errors.New("config is nil")
	}
	if err := cf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	app := ApplicationContext{
		Cf: cf,
		Logger: logger.Setup(logger.Config{
			Level:  cf.LogLevel,
			Format: cf.LogFormat,
			Module: cf.ModuleName,
		}),
	}
	app.Logger.Info().
		Str("store_backend", cf.StoreBackend).
		Str("order_sequence_backend", cf.OrderSequenceBackend).
		Str("redis_addr", cf.RedisAddr).
		Strs("kafka_brokers", cf.KafkaBrokerList()).
		Bool("midtrans_production", cf.MidtransIsProduction).
		Msg("loaded config")

	if err := app.Init(); err != nil {
		// 已建立的連線要關閉
		_ = app.Shutdown(context.Background())
		return nil, err
	}
	return &app, nil
}

func (app *ApplicationContext) Init() error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"store", app.setUpStore},
		{"redis client", app.setUpRedis},
		{"order number allocator", app.setUpAllocator},
		{"rate limiters", app.setUpLimiters},
		{"order event publisher", app.setUpPublisher},
		{"payment gateway", app.setUpGateway},
		{"services", app.setUpServices},
	}
	for _, step := range steps {
		app.Logger.Info().Msgf("Start setup %s", step.name)
		if err := step.fn(); err != nil {
			return fmt.Errorf("setup %s: %w", step.name, err)
		}
		app.Logger.Info().Msgf("Finish setup %s", step.name)
	}
	return nil
}

func (app *ApplicationContext) setUpStore() error {
	if app.Cf.StoreBackend == config.StoreBackendMemory {
		app.Logger.Warn().Msg("using in-memory store, data is lost on restart")
		app.Store = memory.NewStore()
		return nil
	}

	conn, err := db.GetDbConn(app.Cf.DbName, app.Cf.DbHost, app.Cf.DbPort, app.Cf.DbUser, app.Cf.DbPas)
	if err != nil {
		return err
	}
	app.DbConn = conn

	unified := db.NewUnifiedDB(conn)
	if err := unified.InitMigrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	app.Store = unified
	return nil
}

// setUpRedis 序號使用 redis 時連線失敗直接中止，否則只影響限流
func (app *ApplicationContext) setUpRedis() error {
	required := app.Cf.OrderSequenceBackend == config.SequenceBackendRedis
	if app.Cf.RedisAddr == "" {
		if required {
			return errors.New("REDIS_ADDR is required when ORDER_SEQUENCE_BACKEND=redis")
		}
		return nil
	}

	client, err := redis_client.GetRedisClient(app.Cf.RedisAddr,
		redis_client.WithPassword(app.Cf.RedisPassword),
		redis_client.WithDB(app.Cf.RedisDB),
	)
	if err != nil {
		return err
	}
	if err := redis_client.Ping(context.Background(), client); err != nil {
		_ = redis_client.CloseRedisClient(app.Cf.RedisAddr)
		if required {
			return err
		}
		app.Logger.Warn().Err(err).Msg("redis unavailable, falling back to local rate limiting")
		return nil
	}
	app.RedisClient = client
	return nil
}

func (app *ApplicationContext) setUpAllocator() error {
	switch app.Cf.OrderSequenceBackend {
	case config.SequenceBackendRedis:
		app.Allocator = redis_repo.NewOrderNumberRepo(app.RedisClient)
	default:
		app.Allocator = app.Store
	}
	return nil
}

func (app *ApplicationContext) setUpLimiters() error {
	checkout := &ratelimit.LimiterConfig{
		Prefix:   "checkout",
		Capacity: app.Cf.CheckoutRateCapacity,
		RatePS:   app.Cf.CheckoutRatePerSec,
	}

	if app.RedisClient == nil {
		app.Limiters = router.Limiters{Checkout: ratelimit.NewTokenBucket(checkout)}
		return nil
	}
	app.Limiters = router.Limiters{Checkout: ratelimit.NewRsBucketToken(app.RedisClient, checkout)}
	return nil
}

func (app *ApplicationContext) setUpPublisher() error {
	brokers := app.Cf.KafkaBrokerList()
	if len(brokers) == 0 {
		app.Logger.Warn().Msg("KAFKA_BROKERS not set, order events will not be published")
		app.Publisher = producer.NoopPublisher{}
		return nil
	}

	cfg := &producer.Config{
		Brokers:       brokers,
		Topic:         app.Cf.KafkaOrderTopic,
		RequiredAcks:  -1,
		RetryAttempts: 2,
	}
	writer, err := producer.NewKafkaWriter(cfg)
	if err != nil {
		return err
	}
	app.Publisher = producer.NewOrderEventProducer(writer, cfg.Topic, cfg.RetryAttempts)
	return nil
}

func (app *ApplicationContext) setUpGateway() error {
	app.Gateway = midtrans.NewClient(midtrans.Config{
		ServerKey:    app.Cf.MidtransServerKey,
		ClientKey:    app.Cf.MidtransClientKey,
		IsProduction: app.Cf.MidtransIsProduction,
		SnapBaseURL:  app.Cf.MidtransSnapURL,
		CoreBaseURL:  app.Cf.MidtransCoreURL,
		FrontendURL:  app.Cf.FrontendURL,
		Timeout:      app.Cf.GatewayTimeout,
	}, nil)
	return nil
}

func (app *ApplicationContext) setUpServices() error {
	inventory := service.NewInventoryService(app.Store)
	transitioner := service.NewOrderTransitioner(app.Store, inventory, app.Publisher)
	cart := service.NewCartService(app.Store, app.Store)

	app.InventoryService = inventory
	app.CartService = cart
	app.OrderService = service.NewOrderService(app.Store, transitioner)
	app.CheckoutService = service.NewCheckoutService(cart, inventory, app.Store, app.Allocator, app.Gateway, app.Publisher, app.Cf.GatewayTimeout)
	app.NotificationService = service.NewNotificationService(app.Store, app.Store, app.Gateway, transitioner)
	app.PaymentService = service.NewPaymentService(app.Store, app.Gateway, transitioner)
	return nil
}

func (app *ApplicationContext) Shutdown(ctx context.Context) error {
	app.Logger.Info().Msg("Start application shutdown")

	done := make(chan error, 1)
	go func() {
		var errs []error

		if app.Publisher != nil {
			app.Logger.Info().Msg("Closing order event publisher...")
			if err := app.Publisher.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close publisher: %w", err))
			}
		}

		if app.RedisClient != nil {
			app.Logger.Info().Msg("Closing redis client...")
			if err := redis_client.CloseRedisClient(app.Cf.RedisAddr); err != nil {
				errs = append(errs, fmt.Errorf("close redis: %w", err))
			}
		}

		if app.DbConn != nil {
			app.Logger.Info().Msg("Closing database connection...")
			if sqlDB, err := app.DbConn.DB(); err == nil {
				if err := sqlDB.Close(); err != nil {
					errs = append(errs, fmt.Errorf("close db: %w", err))
				}
			}
		}

		app.Logger.Info().Msg("Application shutdown complete")
		done <- errors.Join(errs...)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %w", ctx.Err())
	}
}
