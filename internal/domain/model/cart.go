package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartLine 每個 (user, variant) 最多一筆，由 unique index 保證
// 結帳後直接實體刪除，不使用軟刪除，否則 unique index 會擋住重新加入購物車
type CartLine struct {
	ID        uuid.UUID       `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    uuid.UUID       `gorm:"not null;type:uuid;uniqueIndex:idx_cart_user_variant" json:"user_id"`
	VariantID uuid.UUID       `gorm:"not null;type:uuid;uniqueIndex:idx_cart_user_variant" json:"variant_id"`
	Variant   *ProductVariant `gorm:"foreignKey:VariantID" json:"variant,omitempty"`
	Quantity  int             `gorm:"not null;check:chk_cart_quantity_positive,quantity >= 1" json:"quantity"`
	IsChecked bool            `gorm:"not null;default:true" json:"is_checked"`
	Timestamps
}

func (c *CartLine) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// LineTotal 以當下 variant 價格計算
func (c *CartLine) LineTotal() decimal.Decimal {
	if c.Variant == nil {
		return decimal.Zero
	}
	return c.Variant.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}
