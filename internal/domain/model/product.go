package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Product 型錄管理不在此服務範圍內，只保留結帳快照需要的欄位
type Product struct {
	ID        uuid.UUID `gorm:"primaryKey;type:uuid" json:"id"`
	Name      string    `gorm:"not null;type:varchar(255)" json:"name"`
	Slug      string    `gorm:"uniqueIndex;not null;type:varchar(255)" json:"slug"`
	Thumbnail string    `gorm:"type:varchar(512)" json:"thumbnail"`
	Status    string    `gorm:"not null;type:varchar(20);default:active" json:"status"`
	BaseModel
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// ProductVariant 可購買的最小單位，擁有獨立的價格與庫存
// stock 只能透過 repository 的條件式原子更新異動
type ProductVariant struct {
	ID         uuid.UUID         `gorm:"primaryKey;type:uuid" json:"id"`
	ProductID  uuid.UUID         `gorm:"not null;type:uuid;index:idx_variant_product_active" json:"product_id"`
	Product    *Product          `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	SKU        string            `gorm:"uniqueIndex;not null;type:varchar(100)" json:"sku"`
	Attributes datatypes.JSONMap `gorm:"type:jsonb" json:"attributes"`
	Price      decimal.Decimal   `gorm:"not null;type:decimal(14,2)" json:"price"`
	Stock      int               `gorm:"not null;default:0;check:chk_variant_stock_non_negative,stock >= 0" json:"stock"`
	Weight     int               `gorm:"not null;default:0" json:"weight"` // gram
	IsActive   bool              `gorm:"not null;default:true;index:idx_variant_product_active" json:"is_active"`
	BaseModel
}

func (v *ProductVariant) BeforeCreate(tx *gorm.DB) error {
	ensureID(&v.ID)
	return nil
}

// ProductName 產品不存在時回傳 SKU
func (v *ProductVariant) ProductName() string {
	if v.Product != nil && v.Product.Name != "" {
		return v.Product.Name
	}
	return v.SKU
}
