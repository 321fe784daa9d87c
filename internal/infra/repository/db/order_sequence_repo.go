package db

import (
	"context"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderSequenceRepo 以單一 UPSERT ... RETURNING 取得當日流水號
// 沒有 redis 時的 order number allocator
type OrderSequenceRepo struct {
	db *DbDao
}

func NewOrderSequenceRepo(db *DbDao) *OrderSequenceRepo {
	return &OrderSequenceRepo{db: db}
}

func (r *OrderSequenceRepo) NextOrderNumber(ctx context.Context, now time.Time) (string, error) {
	day := repository.OrderNumberDay(now)
	seq := model.OrderSequence{Day: day, Value: 1}

	err := r.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "day"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"value": gorm.Expr("order_sequences.value + 1")}),
		},
		clause.Returning{Columns: []clause.Column{{Name: "value"}}},
	).Create(&seq).Error
	if err != nil {
		return "", fmt.Errorf("failed to allocate order number: %w", err)
	}
	return repository.FormatOrderNumber(day, seq.Value), nil
}

var _ repository.IOrderNumberAllocator = (*OrderSequenceRepo)(nil)
