package service

import (
	"context"
	"errors"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// AdminOrderQuery 後台查詢參數，字串值尚未驗證
type AdminOrderQuery struct {
	Status        string
	PaymentStatus string
	Page          int
	Limit         int
	Sort          string // asc / desc
}

type OrderPage struct {
	Orders     []model.Order     `json:"orders"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int64             `json:"total_pages"`
	Stats      *model.OrderStats `json:"stats"`
}

type IOrderService interface {
	ListMyOrders(ctx context.Context, caller Caller) ([]model.Order, error)
	GetMyOrder(ctx context.Context, caller Caller, orderID uuid.UUID) (*model.Order, error)
	Pay(ctx context.Context, caller Caller, orderID uuid.UUID) (*model.Order, error)
	Cancel(ctx context.Context, caller Caller, orderID uuid.UUID) (*model.Order, error)
	AdminListOrders(ctx context.Context, q AdminOrderQuery) (*OrderPage, error)
	AdminGetOrder(ctx context.Context, orderID uuid.UUID) (*model.Order, error)
	AdminUpdateStatus(ctx context.Context, orderID uuid.UUID, status, paymentStatus string) (*model.Order, error)
}

type OrderService struct {
	orderRepo    repository.IOrderRepository
	transitioner *OrderTransitioner
}

func NewOrderService(orderRepo repository.IOrderRepository, transitioner *OrderTransitioner) *OrderService {
	return &OrderService{orderRepo: orderRepo, transitioner: transitioner}
}

func (s *OrderService) ListMyOrders(ctx context.Context, caller Caller) ([]model.Order, error) {
	orders, err := s.orderRepo.ListOrdersByUser(ctx, caller.UserID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list orders")
	}
	return orders, nil
}

// GetMyOrder 不屬於呼叫者的訂單一律回 NotFound，不洩漏訂單存在與否
func (s *OrderService) GetMyOrder(ctx context.Context, caller Caller, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "order not found")
	}
	if order.UserID != caller.UserID {
		return nil, apperr.NotFound("order not found")
	}
	return order, nil
}

func (s *OrderService) Pay(ctx context.Context, caller Caller, orderID uuid.UUID) (*model.Order, error) {
	return s.applyOwned(ctx, caller, orderID, model.EventManualPay)
}

func (s *OrderService) Cancel(ctx context.Context, caller Caller, orderID uuid.UUID) (*model.Order, error) {
	return s.applyOwned(ctx, caller, orderID, model.EventCustomerCancel)
}

func (s *OrderService) applyOwned(ctx context.Context, caller Caller, orderID uuid.UUID, evt model.OrderEvent) (*model.Order, error) {
	order, err := s.GetMyOrder(ctx, caller, orderID)
	if err != nil {
		return nil, err
	}
	decide := func(from model.OrderState) (model.Transition, error) {
		return model.NextState(from, evt)
	}
	updated, _, err := s.transitioner.Apply(ctx, order, evt, decide, repository.PaymentInfo{})
	if err != nil {
		return nil, transitionErr(err)
	}
	return updated, nil
}

func transitionErr(err error) error {
	if errors.Is(err, model.ErrInvalidTransition) {
		return apperr.InvalidTransition(err, "order cannot be changed from its current status")
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("order not found")
	}
	return apperr.Internal(err, "failed to update order")
}

func (s *OrderService) AdminListOrders(ctx context.Context, q AdminOrderQuery) (*OrderPage, error) {
	filter, err := buildOrderFilter(q)
	if err != nil {
		return nil, err
	}

	page := &OrderPage{Page: filter.Page, Limit: filter.Limit}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		orders, err := s.orderRepo.ListOrders(gctx, filter)
		page.Orders = orders
		return err
	})
	g.Go(func() error {
		total, err := s.orderRepo.CountOrders(gctx, filter)
		page.Total = total
		return err
	})
	g.Go(func() error {
		stats, err := s.orderRepo.GetOrderStats(gctx)
		page.Stats = stats
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Internal(err, "failed to list orders")
	}

	page.TotalPages = (page.Total + int64(page.Limit) - 1) / int64(page.Limit)
	if page.Orders == nil {
		page.Orders = []model.Order{}
	}
	return page, nil
}

func buildOrderFilter(q AdminOrderQuery) (repository.OrderFilter, error) {
	f := repository.OrderFilter{Page: q.Page, Limit: q.Limit}
	if q.Status != "" {
		st := model.OrderStatus(q.Status)
		if !st.IsValid() {
			return f, apperr.Validation("invalid status %q", q.Status)
		}
		f.Status = st
	}
	if q.PaymentStatus != "" {
		ps := model.PaymentStatus(q.PaymentStatus)
		if !ps.IsValid() {
			return f, apperr.Validation("invalid payment_status %q", q.PaymentStatus)
		}
		f.PaymentStatus = ps
	}
	switch strings.ToLower(q.Sort) {
	case "", "desc":
	case "asc":
		f.SortAsc = true
	default:
		return f, apperr.Validation("sort must be asc or desc")
	}

	if f.Page < 1 {
		f.Page = constants.DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = constants.DefaultPageSize
	}
	if f.Limit > constants.MaxPageSize {
		f.Limit = constants.MaxPageSize
	}
	return f, nil
}

func (s *OrderService) AdminGetOrder(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "order not found")
	}
	return order, nil
}

// AdminUpdateStatus 值必須在列舉內；轉入 cancelled 時釋放庫存
func (s *OrderService) AdminUpdateStatus(ctx context.Context, orderID uuid.UUID, status, paymentStatus string) (*model.Order, error) {
	if status == "" && paymentStatus == "" {
		return nil, apperr.Validation("status or payment_status is required")
	}
	st, ps := model.OrderStatus(status), model.PaymentStatus(paymentStatus)
	if status != "" && !st.IsValid() {
		return nil, apperr.Validation("invalid status %q", status)
	}
	if paymentStatus != "" && !ps.IsValid() {
		return nil, apperr.Validation("invalid payment_status %q", paymentStatus)
	}

	order, err := s.AdminGetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	decide := func(from model.OrderState) (model.Transition, error) {
		return model.AdminOverride(from, st, ps)
	}
	updated, _, err := s.transitioner.Apply(ctx, order, model.EventAdminOverride, decide, repository.PaymentInfo{})
	if err != nil {
		return nil, transitionErr(err)
	}
	return updated, nil
}

var _ IOrderService = (*OrderService)(nil)
