package dto

import (
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/shopspring/decimal"
)

type AddCartItemDTO struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// CartResponse 購物車內容與已勾選項目的小計
type CartResponse struct {
	Items            []model.CartLine `json:"items"`
	SelectedCount    int              `json:"selected_count"`
	SelectedSubtotal decimal.Decimal  `json:"selected_subtotal"`
}

func NewCartResponse(lines []model.CartLine) CartResponse {
	res := CartResponse{Items: lines, SelectedSubtotal: decimal.Zero}
	if res.Items == nil {
		res.Items = []model.CartLine{}
	}
	for i := range lines {
		if lines[i].IsChecked {
			res.SelectedCount++
			res.SelectedSubtotal = res.SelectedSubtotal.Add(lines[i].LineTotal())
		}
	}
	return res
}

// AdjustCartResponse 數量歸零時 Removed 為 true 且 Item 為空
type AdjustCartResponse struct {
	Item    *model.CartLine `json:"item,omitempty"`
	Removed bool            `json:"removed"`
}
