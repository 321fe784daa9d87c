package service

import (
	"context"
	"errors"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// StockLine 一筆庫存異動
type StockLine struct {
	VariantID uuid.UUID
	SKU       string
	Quantity  int
}

func StockLinesOf(order *model.Order) []StockLine {
	lines := make([]StockLine, 0, len(order.Lines))
	for _, l := range order.Lines {
		lines = append(lines, StockLine{VariantID: l.VariantID, SKU: l.SKU, Quantity: l.Quantity})
	}
	return lines
}

type IInventoryService interface {
	// ReserveAll 依序預留，任何一筆失敗會把已預留的加回去
	ReserveAll(ctx context.Context, lines []StockLine) error
	// ReleaseAll 逐筆加回庫存，單筆失敗不會中斷其他筆
	ReleaseAll(ctx context.Context, reason string, orderNumber string, lines []StockLine) error
}

type InventoryService struct {
	variantRepo repository.IVariantRepository
}

func NewInventoryService(variantRepo repository.IVariantRepository) *InventoryService {
	return &InventoryService{variantRepo: variantRepo}
}

func (s *InventoryService) ReserveAll(ctx context.Context, lines []StockLine) error {
	reserved := make([]StockLine, 0, len(lines))
	for _, l := range lines {
		err := s.variantRepo.ReserveStock(ctx, l.VariantID, l.Quantity)
		if err == nil {
			reserved = append(reserved, l)
			continue
		}

		if len(reserved) > 0 {
			_ = s.ReleaseAll(ctx, "reserve_rollback", "", reserved)
		}
		switch {
		case errors.Is(err, repository.ErrStockNotEnough):
			return apperr.InsufficientStock(l.SKU)
		case errors.Is(err, repository.ErrNotFound):
			return apperr.VariantUnavailable("variant %s is no longer available", l.SKU)
		default:
			return apperr.Internal(err, "failed to reserve stock")
		}
	}
	return nil
}

// 補償不受呼叫端 context 取消影響
func (s *InventoryService) ReleaseAll(ctx context.Context, reason string, orderNumber string, lines []StockLine) error {
	ctx = context.WithoutCancel(ctx)

	var errs []error
	for _, l := range lines {
		if err := s.variantRepo.ReleaseStock(ctx, l.VariantID, l.Quantity); err != nil {
			log.Error().
				Err(err).
				Bool("manual_intervention", true).
				Str("reason", reason).
				Str("order_number", orderNumber).
				Str("variant_id", l.VariantID.String()).
				Str("sku", l.SKU).
				Int("quantity", l.Quantity).
				Msg("failed to release stock")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ IInventoryService = (*InventoryService)(nil)
