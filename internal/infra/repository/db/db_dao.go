package db

import (
	"errors"
	"fmt"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
	"gorm.io/gorm"
)

type DbDao struct {
	*gorm.DB
}

func NewDbDao(conn *gorm.DB) *DbDao {
	return &DbDao{
		DB: conn,
	}
}

// 初始化db schema
// 冪等性
func (d *DbDao) InitMigrate() error {
	return d.AutoMigrate(
		&model.Product{},
		&model.ProductVariant{},
		&model.CartLine{},
		&model.Order{},
		&model.OrderLine{},
		&model.PaymentEvent{},
		&model.OrderSequence{},
	)
}

// translateErr 將 gorm 錯誤轉為 repository 的 sentinel error
func translateErr(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %s", repository.ErrNotFound, msg)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %s", repository.ErrDuplicateKey, msg)
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}
