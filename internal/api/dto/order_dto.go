package dto

import (
	"github.com/shopspring/decimal"
)

type CheckoutDTO struct {
	ShippingAddress string          `json:"shipping_address"`
	ShippingMethod  string          `json:"shipping_method"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	PaymentMethod   string          `json:"payment_method"`
	Note            string          `json:"note"`
}

type UpdateOrderStatusDTO struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}
