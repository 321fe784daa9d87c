package db

import (
	"context"
	"fmt"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
)

// 金流通知稽核紀錄，只有 append
type PaymentEventRepo struct {
	db *DbDao
}

func NewPaymentEventRepo(db *DbDao) *PaymentEventRepo {
	return &PaymentEventRepo{db: db}
}

func (r *PaymentEventRepo) AppendPaymentEvent(ctx context.Context, ev *model.PaymentEvent) error {
	if err := r.db.WithContext(ctx).Create(ev).Error; err != nil {
		return fmt.Errorf("failed to append payment event: %w", err)
	}
	return nil
}

func (r *PaymentEventRepo) ListPaymentEvents(ctx context.Context, orderNumber string) ([]model.PaymentEvent, error) {
	var events []model.PaymentEvent
	err := r.db.WithContext(ctx).Where("order_number = ?", orderNumber).Order("created_at ASC").Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payment events: %w", err)
	}
	return events, nil
}

func (r *PaymentEventRepo) CountPaymentEvents(ctx context.Context, transactionID, transactionStatus string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PaymentEvent{}).
		Where("transaction_id = ? AND transaction_status = ?", transactionID, transactionStatus).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count payment events: %w", err)
	}
	return count, nil
}

var _ repository.IPaymentEventRepository = (*PaymentEventRepo)(nil)
