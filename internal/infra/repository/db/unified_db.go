package db

import (
	"context"

	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
	"gorm.io/gorm"
)

// UnifiedDB 統一的資料庫介面
type UnifiedDB interface {
	// 基礎操作
	GetDB() *gorm.DB
	Begin(ctx context.Context) *gorm.DB
	InitMigrate() error

	repository.IVariantRepository
	repository.ICartRepository
	repository.IOrderRepository
	repository.IPaymentEventRepository
	repository.IOrderNumberAllocator
}

// UnifiedDBImpl 統一資料庫實現
type UnifiedDBImpl struct {
	db    *gorm.DB
	dbDao *DbDao
	*VariantRepo
	*CartRepo
	*OrderRepo
	*PaymentEventRepo
	*OrderSequenceRepo
}

// NewUnifiedDB 創建新的統一資料庫實例
func NewUnifiedDB(db *gorm.DB) *UnifiedDBImpl {
	dbDao := NewDbDao(db)
	return &UnifiedDBImpl{
		db:                db,
		dbDao:             dbDao,
		VariantRepo:       NewVariantRepo(dbDao),
		CartRepo:          NewCartRepo(dbDao),
		OrderRepo:         NewOrderRepo(dbDao),
		PaymentEventRepo:  NewPaymentEventRepo(dbDao),
		OrderSequenceRepo: NewOrderSequenceRepo(dbDao),
	}
}

func (u *UnifiedDBImpl) InitMigrate() error {
	return u.dbDao.InitMigrate()
}

// GetDB 獲取資料庫連接
func (u *UnifiedDBImpl) GetDB() *gorm.DB {
	return u.db
}

// Begin 開始事務
func (u *UnifiedDBImpl) Begin(ctx context.Context) *gorm.DB {
	return u.db.WithContext(ctx).Begin()
}

var _ UnifiedDB = (*UnifiedDBImpl)(nil)
