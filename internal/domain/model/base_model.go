package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 型錄資料 (Product / ProductVariant) 使用軟刪除
// 歷史訂單的快照不依賴型錄資料是否存在
type BaseModel struct {
	IsDeleted bool           `gorm:"not null;default:false" json:"-"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeDelete GORM 的 hook，在軟刪除前將 IsDeleted 設置為 true
func (b *BaseModel) BeforeDelete(tx *gorm.DB) error {
	if !tx.Statement.Unscoped {
		return tx.Update("is_deleted", true).Error
	}
	return nil
}

// BeforeUpdate GORM 的 hook，在恢復刪除時將 IsDeleted 設置為 false
func (b *BaseModel) BeforeUpdate(tx *gorm.DB) error {
	if tx.Statement.Changed("DeletedAt") {
		if undelete, ok := tx.Statement.Get("gorm:undelete"); ok && undelete.(bool) {
			return tx.Update("is_deleted", false).Error
		}
	}
	return nil
}

// 不可刪除的資料 (Order, PaymentEvent) 與會被實體刪除的資料 (CartLine) 只紀錄時間
type Timestamps struct {
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"null" json:"updated_at"`
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
