package db

import (
	"context"
	"fmt"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 購物車項目以 (user_id, variant_id) unique index 保證唯一
type CartRepo struct {
	db *DbDao
}

func NewCartRepo(db *DbDao) *CartRepo {
	return &CartRepo{db: db}
}

func (r *CartRepo) ListCartLines(ctx context.Context, userID uuid.UUID, onlyChecked bool) ([]model.CartLine, error) {
	var lines []model.CartLine
	query := r.db.WithContext(ctx).Preload("Variant.Product").Where("user_id = ?", userID)
	if onlyChecked {
		query = query.Where("is_checked = ?", true)
	}
	err := query.Order("created_at DESC").Find(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cart lines: %w", err)
	}
	return lines, nil
}

func (r *CartRepo) GetCartLine(ctx context.Context, userID, lineID uuid.UUID) (*model.CartLine, error) {
	var line model.CartLine
	err := r.db.WithContext(ctx).Preload("Variant.Product").
		First(&line, "id = ? AND user_id = ?", lineID, userID).Error
	if err != nil {
		return nil, translateErr(err, "cart line %s", lineID)
	}
	return &line, nil
}

func (r *CartRepo) GetCartLineByVariant(ctx context.Context, userID, variantID uuid.UUID) (*model.CartLine, error) {
	var line model.CartLine
	err := r.db.WithContext(ctx).
		First(&line, "user_id = ? AND variant_id = ?", userID, variantID).Error
	if err != nil {
		return nil, translateErr(err, "cart line for variant %s", variantID)
	}
	return &line, nil
}

func (r *CartRepo) CreateCartLine(ctx context.Context, line *model.CartLine) error {
	return translateErr(r.db.WithContext(ctx).Create(line).Error, "create cart line for variant %s", line.VariantID)
}

func (r *CartRepo) CompareAndSetQuantity(ctx context.Context, lineID uuid.UUID, expected, quantity int, checked bool) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.CartLine{}).
		Where("id = ? AND quantity = ?", lineID, expected).
		Updates(map[string]interface{}{
			"quantity":   quantity,
			"is_checked": checked,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to update cart quantity: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *CartRepo) ToggleCartLineChecked(ctx context.Context, userID, lineID uuid.UUID) (*model.CartLine, error) {
	res := r.db.WithContext(ctx).Model(&model.CartLine{}).
		Where("id = ? AND user_id = ?", lineID, userID).
		Update("is_checked", gorm.Expr("NOT is_checked"))
	if res.Error != nil {
		return nil, fmt.Errorf("failed to toggle cart line: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: cart line %s", repository.ErrNotFound, lineID)
	}
	return r.GetCartLine(ctx, userID, lineID)
}

func (r *CartRepo) DeleteCartLine(ctx context.Context, userID, lineID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", lineID, userID).Delete(&model.CartLine{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete cart line: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: cart line %s", repository.ErrNotFound, lineID)
	}
	return nil
}

var _ repository.ICartRepository = (*CartRepo)(nil)
