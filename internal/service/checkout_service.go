package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model/event"
	"github.com/RoyceAzure/lab/storefront/internal/infra/producer"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	defaultGatewayTimeout  = 15 * time.Second
	maxOrderNumberAttempts = 3
)

type ReviewItem struct {
	CartLineID  uuid.UUID         `json:"cart_line_id"`
	VariantID   uuid.UUID         `json:"variant_id"`
	SKU         string            `json:"sku"`
	ProductName string            `json:"product_name"`
	ProductSlug string            `json:"product_slug"`
	Thumbnail   string            `json:"thumbnail"`
	Attributes  datatypes.JSONMap `json:"attributes"`
	Price       decimal.Decimal   `json:"price"`
	Quantity    int               `json:"quantity"`
	Subtotal    decimal.Decimal   `json:"subtotal"`
	Weight      int               `json:"weight"`
}

type CheckoutReview struct {
	Items           []ReviewItem               `json:"items"`
	Subtotal        decimal.Decimal            `json:"subtotal"`
	TotalWeight     int                        `json:"total_weight"`
	ShippingOptions []constants.ShippingOption `json:"shipping_options"`
	PaymentMethods  []constants.PaymentMethod  `json:"payment_methods"`
}

type CheckoutInput struct {
	Customer        model.Customer
	ShippingAddress string
	ShippingMethod  string
	ShippingCost    decimal.Decimal
	PaymentMethod   string
	Note            string
}

type CheckoutResult struct {
	Order   *model.Order          `json:"order"`
	Session *model.PaymentSession `json:"payment,omitempty"`
}

type ICheckoutService interface {
	Review(ctx context.Context, userID uuid.UUID) (*CheckoutReview, error)
	Checkout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error)
}

type CheckoutService struct {
	cart           ICartService
	inventory      IInventoryService
	orderRepo      repository.IOrderRepository
	allocator      repository.IOrderNumberAllocator
	gateway        IPaymentGateway
	publisher      producer.IOrderEventPublisher
	gatewayTimeout time.Duration
	now            clock
}

func NewCheckoutService(
	cart ICartService,
	inventory IInventoryService,
	orderRepo repository.IOrderRepository,
	allocator repository.IOrderNumberAllocator,
	gateway IPaymentGateway,
	publisher producer.IOrderEventPublisher,
	gatewayTimeout time.Duration,
) *CheckoutService {
	if gatewayTimeout <= 0 {
		gatewayTimeout = defaultGatewayTimeout
	}
	return &CheckoutService{
		cart:           cart,
		inventory:      inventory,
		orderRepo:      orderRepo,
		allocator:      allocator,
		gateway:        gateway,
		publisher:      publisher,
		gatewayTimeout: gatewayTimeout,
		now:            time.Now,
	}
}

func reviewItemOf(l model.CartLine) ReviewItem {
	item := ReviewItem{
		CartLineID: l.ID,
		VariantID:  l.VariantID,
		Quantity:   l.Quantity,
		Subtotal:   l.LineTotal(),
	}
	if v := l.Variant; v != nil {
		item.SKU, item.Price, item.Attributes, item.ProductName = v.SKU, v.Price, v.Attributes, v.ProductName()
		item.Weight = v.Weight * l.Quantity
		if v.Product != nil {
			item.ProductSlug, item.Thumbnail = v.Product.Slug, v.Product.Thumbnail
		}
	}
	return item
}

func (s *CheckoutService) Review(ctx context.Context, userID uuid.UUID) (*CheckoutReview, error) {
	lines, err := s.cart.SelectedLines(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, apperr.Validation("no items selected for checkout")
	}

	review := &CheckoutReview{
		Items:           make([]ReviewItem, 0, len(lines)),
		Subtotal:        decimal.Zero,
		ShippingOptions: constants.ShippingOptions,
		PaymentMethods:  constants.PaymentMethods,
	}
	for _, l := range lines {
		item := reviewItemOf(l)
		review.Items = append(review.Items, item)
		review.Subtotal = review.Subtotal.Add(item.Subtotal)
		review.TotalWeight += item.Weight
	}
	return review, nil
}

func validateCheckout(in CheckoutInput) error {
	var missing []string
	if strings.TrimSpace(in.ShippingAddress) == "" {
		missing = append(missing, "shipping_address")
	}
	if in.ShippingMethod == "" {
		missing = append(missing, "shipping_method")
	}
	if in.PaymentMethod == "" {
		missing = append(missing, "payment_method")
	}
	if len(missing) > 0 {
		return apperr.Validation("missing required fields: %s", strings.Join(missing, ", "))
	}

	opt, ok := constants.FindShippingOption(in.ShippingMethod)
	if !ok {
		return apperr.Validation("unknown shipping method %q", in.ShippingMethod)
	}
	if !opt.Cost.Equal(in.ShippingCost) {
		return apperr.Validation("shipping cost for %s must be %s", opt.Method, opt.Cost.String())
	}
	if !constants.IsPaymentMethod(in.PaymentMethod) {
		return apperr.Validation("unknown payment method %q", in.PaymentMethod)
	}
	return nil
}

// Checkout
/*
	1. 驗證輸入並讀取已勾選的購物車項目
	2. 預先檢查上架狀態與庫存，任何一筆不足直接結束，不做任何預留
	3. 逐筆預留庫存 (部分失敗會自動補償)
	4. 計算金額並取得訂單編號
	5. 非貨到付款需建立金流付款頁面
	6. 寫入訂單並刪除已結帳的購物車項目，購物車項目已被其他結帳取走時整筆失敗
	步驟 4~6 失敗都會釋放已預留的庫存，訂單寫入後不再補償
	訂單編號重複時回到步驟 4 重新取號，最多 maxOrderNumberAttempts 次
*/
func (s *CheckoutService) Checkout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	if err := validateCheckout(in); err != nil {
		return nil, err
	}

	lines, err := s.cart.SelectedLines(ctx, in.Customer.UserID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, apperr.Validation("no items selected for checkout")
	}

	stockLines := make([]StockLine, 0, len(lines))
	for _, l := range lines {
		if l.Variant == nil {
			return nil, apperr.VariantUnavailable("cart item %s refers to a missing variant", l.ID)
		}
		if !l.Variant.IsActive {
			return nil, apperr.VariantUnavailable("variant %s is not available", l.Variant.SKU)
		}
		if l.Variant.Stock < l.Quantity {
			return nil, apperr.InsufficientStock(l.Variant.SKU)
		}
		stockLines = append(stockLines, StockLine{VariantID: l.VariantID, SKU: l.Variant.SKU, Quantity: l.Quantity})
	}

	if err := s.inventory.ReserveAll(ctx, stockLines); err != nil {
		return nil, err
	}

	order, consumed := s.buildOrder(in, lines)
	rollback := func(reason string) {
		_ = s.inventory.ReleaseAll(ctx, reason, order.OrderNumber, stockLines)
	}

	now := s.now()
	var session *model.PaymentSession
	for attempt := 1; ; attempt++ {
		order.OrderNumber, err = s.allocator.NextOrderNumber(ctx, now)
		if err != nil {
			rollback("order_number_failed")
			return nil, apperr.Internal(err, "failed to allocate order number")
		}

		if in.PaymentMethod != constants.PaymentMethodCOD {
			session, err = s.createSession(ctx, order, in.Customer)
			if err != nil {
				rollback("gateway_session_failed")
				log.Error().Err(err).Str("order_number", order.OrderNumber).Msg("failed to create payment session")
				return nil, apperr.Wrap(apperr.GatewayErrorCode, err, "failed to create payment session")
			}
			order.SnapToken, order.SnapRedirectURL = session.Token, session.RedirectURL
		}

		err = s.orderRepo.CreateOrder(ctx, order, consumed)
		if err == nil {
			break
		}
		// 序號被重設 (例如 redis key 遺失) 時編號會撞到既有訂單，換一個編號重試
		if errors.Is(err, repository.ErrDuplicateKey) && attempt < maxOrderNumberAttempts {
			log.Warn().Err(err).Str("order_number", order.OrderNumber).Int("attempt", attempt).Msg("order number taken, allocating another")
			continue
		}
		rollback("persist_order_failed")
		if errors.Is(err, repository.ErrCartChanged) {
			return nil, apperr.Wrap(apperr.CartChangedCode, err, "cart changed during checkout, please review your cart again")
		}
		return nil, apperr.Internal(err, "failed to create order")
	}

	log.Info().
		Str("order_number", order.OrderNumber).
		Str("user_id", order.UserID.String()).
		Str("total", order.TotalAmount.String()).
		Str("payment_method", order.PaymentMethod).
		Msg("order created")

	evt := event.NewOrderCreatedEvent(order, now)
	if err := s.publisher.Publish(context.WithoutCancel(ctx), evt); err != nil {
		log.Warn().Err(err).Str("order_number", order.OrderNumber).Msg("failed to publish order created event")
	}

	return &CheckoutResult{Order: order, Session: session}, nil
}

func (s *CheckoutService) createSession(ctx context.Context, order *model.Order, customer model.Customer) (*model.PaymentSession, error) {
	ctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()
	return s.gateway.CreateSession(ctx, order, customer)
}

// buildOrder 以結帳當下的價格建立快照
func (s *CheckoutService) buildOrder(in CheckoutInput, lines []model.CartLine) (*model.Order, []uuid.UUID) {
	order := &model.Order{
		ID:              uuid.New(),
		UserID:          in.Customer.UserID,
		ShippingCost:    in.ShippingCost,
		ShippingAddress: strings.TrimSpace(in.ShippingAddress),
		ShippingMethod:  in.ShippingMethod,
		PaymentMethod:   in.PaymentMethod,
		Note:            in.Note,
		Status:          model.StateCreated.Status,
		PaymentStatus:   model.StateCreated.PaymentStatus,
		Lines:           make([]model.OrderLine, 0, len(lines)),
	}

	consumed := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		item := reviewItemOf(l)
		order.Lines = append(order.Lines, model.OrderLine{
			ID:                uuid.New(),
			OrderID:           order.ID,
			VariantID:         item.VariantID,
			SKU:               item.SKU,
			ProductName:       item.ProductName,
			ProductSlug:       item.ProductSlug,
			Thumbnail:         item.Thumbnail,
			VariantAttributes: item.Attributes,
			Quantity:          item.Quantity,
			Price:             item.Price,
			Subtotal:          item.Subtotal,
		})
		consumed = append(consumed, l.ID)
	}
	order.Subtotal = order.LinesSubtotal()
	order.TotalAmount = order.Subtotal.Add(order.ShippingCost)
	return order, consumed
}

var _ ICheckoutService = (*CheckoutService)(nil)
