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

const maxCartRetries = 3

var errCartContention = errors.New("cart line keeps changing")

type ICartService interface {
	ListLines(ctx context.Context, userID uuid.UUID) ([]model.CartLine, error)
	AddOrMerge(ctx context.Context, userID, variantID uuid.UUID, qty int) (*model.CartLine, error)
	// AdjustQuantity 回傳 nil line 代表數量歸零已刪除
	AdjustQuantity(ctx context.Context, userID, lineID uuid.UUID, delta int) (*model.CartLine, error)
	ToggleChecked(ctx context.Context, userID, lineID uuid.UUID) (*model.CartLine, error)
	Remove(ctx context.Context, userID, lineID uuid.UUID) error
	SelectedLines(ctx context.Context, userID uuid.UUID) ([]model.CartLine, error)
}

type CartService struct {
	cartRepo    repository.ICartRepository
	variantRepo repository.IVariantRepository
}

func NewCartService(cartRepo repository.ICartRepository, variantRepo repository.IVariantRepository) *CartService {
	return &CartService{cartRepo: cartRepo, variantRepo: variantRepo}
}

func (s *CartService) ListLines(ctx context.Context, userID uuid.UUID) ([]model.CartLine, error) {
	lines, err := s.cartRepo.ListCartLines(ctx, userID, false)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list cart")
	}
	return lines, nil
}

// availableVariant 讀取最新的 variant，已下架視為 VariantUnavailable
func (s *CartService) availableVariant(ctx context.Context, variantID uuid.UUID) (*model.ProductVariant, error) {
	v, err := s.variantRepo.GetVariantByID(ctx, variantID)
	if err != nil {
		return nil, notFoundOr(err, "variant not found")
	}
	if !v.IsActive {
		return nil, apperr.VariantUnavailable("variant %s is not available", v.SKU)
	}
	return v, nil
}

func (s *CartService) AddOrMerge(ctx context.Context, userID, variantID uuid.UUID, qty int) (*model.CartLine, error) {
	if qty < 1 {
		return nil, apperr.Validation("quantity must be at least 1")
	}

	for attempt := 0; attempt < maxCartRetries; attempt++ {
		v, err := s.availableVariant(ctx, variantID)
		if err != nil {
			return nil, err
		}

		existing, err := s.cartRepo.GetCartLineByVariant(ctx, userID, variantID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			if qty > v.Stock {
				return nil, apperr.InsufficientStock(v.SKU)
			}
			line := &model.CartLine{UserID: userID, VariantID: variantID, Quantity: qty, IsChecked: true}
			err = s.cartRepo.CreateCartLine(ctx, line)
			if errors.Is(err, repository.ErrDuplicateKey) {
				// 同時有另一個請求建立了同一筆，改為合併
				continue
			}
			if err != nil {
				return nil, apperr.Internal(err, "failed to add cart line")
			}
			line.Variant = v
			return line, nil
		case err != nil:
			return nil, apperr.Internal(err, "failed to load cart line")
		}

		merged := existing.Quantity + qty
		if merged > v.Stock {
			return nil, apperr.InsufficientStock(v.SKU)
		}
		ok, err := s.cartRepo.CompareAndSetQuantity(ctx, existing.ID, existing.Quantity, merged, true)
		if err != nil {
			return nil, apperr.Internal(err, "failed to merge cart line")
		}
		if ok {
			existing.Quantity, existing.IsChecked, existing.Variant = merged, true, v
			return existing, nil
		}
	}

	log.Warn().Str("user_id", userID.String()).Str("variant_id", variantID.String()).Msg("cart add gave up after retries")
	return nil, apperr.Internal(errCartContention, "cart is being modified concurrently, please retry")
}

func (s *CartService) AdjustQuantity(ctx context.Context, userID, lineID uuid.UUID, delta int) (*model.CartLine, error) {
	if delta != 1 && delta != -1 {
		return nil, apperr.Validation("quantity can only change by one")
	}

	for attempt := 0; attempt < maxCartRetries; attempt++ {
		line, err := s.cartRepo.GetCartLine(ctx, userID, lineID)
		if err != nil {
			return nil, notFoundOr(err, "cart item not found")
		}

		next := line.Quantity + delta
		if next <= 0 {
			if err := s.cartRepo.DeleteCartLine(ctx, userID, lineID); err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, apperr.Internal(err, "failed to remove cart line")
			}
			return nil, nil
		}

		if delta > 0 {
			v, err := s.availableVariant(ctx, line.VariantID)
			if err != nil {
				return nil, err
			}
			if next > v.Stock {
				return nil, apperr.InsufficientStock(v.SKU)
			}
			line.Variant = v
		}

		ok, err := s.cartRepo.CompareAndSetQuantity(ctx, line.ID, line.Quantity, next, line.IsChecked)
		if err != nil {
			return nil, apperr.Internal(err, "failed to update cart line")
		}
		if ok {
			line.Quantity = next
			return line, nil
		}
	}
	return nil, apperr.Internal(errCartContention, "cart is being modified concurrently, please retry")
}

func (s *CartService) ToggleChecked(ctx context.Context, userID, lineID uuid.UUID) (*model.CartLine, error) {
	line, err := s.cartRepo.ToggleCartLineChecked(ctx, userID, lineID)
	if err != nil {
		return nil, notFoundOr(err, "cart item not found")
	}
	return line, nil
}

func (s *CartService) Remove(ctx context.Context, userID, lineID uuid.UUID) error {
	if err := s.cartRepo.DeleteCartLine(ctx, userID, lineID); err != nil {
		return notFoundOr(err, "cart item not found")
	}
	return nil
}

// SelectedLines 只是讀取，不鎖庫存；結帳時會重新驗證
func (s *CartService) SelectedLines(ctx context.Context, userID uuid.UUID) ([]model.CartLine, error) {
	lines, err := s.cartRepo.ListCartLines(ctx, userID, true)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load checked cart lines")
	}
	return lines, nil
}

var _ ICartService = (*CartService)(nil)
