package constants

import "github.com/shopspring/decimal"

type ShippingOption struct {
	Method    string          `json:"method"`
	Cost      decimal.Decimal `json:"cost"`
	Estimated string          `json:"estimated"`
}

// 運費先固定，尚未串接物流商報價
var ShippingOptions = []ShippingOption{
	{Method: "JNE Reguler", Cost: decimal.NewFromInt(15000), Estimated: "3-5 hari"},
	{Method: "JNE YES", Cost: decimal.NewFromInt(30000), Estimated: "1-2 hari"},
	{Method: "J&T Express", Cost: decimal.NewFromInt(18000), Estimated: "2-4 hari"},
	{Method: "SiCepat REG", Cost: decimal.NewFromInt(16000), Estimated: "3-5 hari"},
	{Method: "Gosend Instant", Cost: decimal.NewFromInt(25000), Estimated: "1-2 jam"},
}

func FindShippingOption(method string) (ShippingOption, bool) {
	for _, o := range ShippingOptions {
		if o.Method == method {
			return o, true
		}
	}
	return ShippingOption{}, false
}

type PaymentMethod struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

const (
	PaymentMethodTransferBank   = "transfer_bank"
	PaymentMethodEwallet        = "ewallet"
	PaymentMethodVirtualAccount = "virtual_account"
	// 貨到付款不需要建立金流付款頁面
	PaymentMethodCOD = "cod"
)

var PaymentMethods = []PaymentMethod{
	{Code: PaymentMethodTransferBank, Name: "Transfer Bank (Manual Verifikasi)"},
	{Code: PaymentMethodEwallet, Name: "E-Wallet (GoPay, OVO, Dana, ShopeePay)"},
	{Code: PaymentMethodVirtualAccount, Name: "Virtual Account (BCA, BNI, Mandiri)"},
	{Code: PaymentMethodCOD, Name: "Bayar di Tempat (COD)"},
}

func IsPaymentMethod(code string) bool {
	for _, m := range PaymentMethods {
		if m.Code == code {
			return true
		}
	}
	return false
}
