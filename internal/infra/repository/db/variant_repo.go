package db

import (
	"context"
	"fmt"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

/*
庫存帳本
所有庫存異動都是單一條件式 UPDATE，由資料庫保證原子性
不使用 先查詢 -> 檢查 -> 更新 的流程，避免併發結帳時 lost update
*/
type VariantRepo struct {
	db *DbDao
}

func NewVariantRepo(db *DbDao) *VariantRepo {
	return &VariantRepo{db: db}
}

func (r *VariantRepo) CreateVariant(ctx context.Context, variant *model.ProductVariant) error {
	return translateErr(r.db.WithContext(ctx).Create(variant).Error, "create variant %s", variant.SKU)
}

func (r *VariantRepo) GetVariantByID(ctx context.Context, id uuid.UUID) (*model.ProductVariant, error) {
	var variant model.ProductVariant
	err := r.db.WithContext(ctx).Preload("Product").First(&variant, "id = ?", id).Error
	if err != nil {
		return nil, translateErr(err, "variant %s", id)
	}
	return &variant, nil
}

// ReserveStock 原子性扣減庫存
/*
	錯誤:
		- ErrNotFound: variant 不存在
		- ErrStockNotEnough: 庫存不足
		- err: 其他錯誤
*/
func (r *VariantRepo) ReserveStock(ctx context.Context, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("invalid reserve quantity %d", qty)
	}

	res := r.db.WithContext(ctx).Model(&model.ProductVariant{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("failed to reserve stock: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	// 沒有更新到任何資料，區分 不存在 與 庫存不足
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.ProductVariant{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check variant: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("%w: variant %s", repository.ErrNotFound, id)
	}
	return fmt.Errorf("%w: variant %s", repository.ErrStockNotEnough, id)
}

// ReleaseStock 原子性加回庫存
func (r *VariantRepo) ReleaseStock(ctx context.Context, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("invalid release quantity %d", qty)
	}

	res := r.db.WithContext(ctx).Model(&model.ProductVariant{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return fmt.Errorf("failed to release stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: variant %s", repository.ErrNotFound, id)
	}
	return nil
}

var _ repository.IVariantRepository = (*VariantRepo)(nil)
