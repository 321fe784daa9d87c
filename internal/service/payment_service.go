package service

import (
	"context"
	"errors"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/gateway/midtrans"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/rs/zerolog/log"
)

type TransactionStatusView struct {
	Remote        *model.RemoteTransaction `json:"midtrans"`
	OrderNumber   string                   `json:"order_number"`
	Status        model.OrderStatus        `json:"status"`
	PaymentStatus model.PaymentStatus      `json:"payment_status"`
}

type ClientKeyView struct {
	ClientKey    string `json:"client_key"`
	IsProduction bool   `json:"is_production"`
}

type IPaymentService interface {
	TransactionStatus(ctx context.Context, caller Caller, orderNumber string) (*TransactionStatusView, error)
	AdminCancel(ctx context.Context, orderNumber string) (*model.Order, error)
	ClientKey() ClientKeyView
}

type PaymentService struct {
	orderRepo    repository.IOrderRepository
	gateway      IPaymentGateway
	transitioner *OrderTransitioner
}

func NewPaymentService(orderRepo repository.IOrderRepository, gateway IPaymentGateway, transitioner *OrderTransitioner) *PaymentService {
	return &PaymentService{orderRepo: orderRepo, gateway: gateway, transitioner: transitioner}
}

func gatewayErr(err error) error {
	if errors.Is(err, midtrans.ErrRemoteNotFound) {
		return apperr.Wrap(apperr.GatewayNotFoundCode, err, "transaction not found in payment gateway")
	}
	return apperr.Wrap(apperr.GatewayErrorCode, err, "payment gateway request failed")
}

// TransactionStatus 只有訂單擁有者或管理者可以查詢
func (s *PaymentService) TransactionStatus(ctx context.Context, caller Caller, orderNumber string) (*TransactionStatusView, error) {
	order, err := s.orderRepo.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, notFoundOr(err, "order not found")
	}
	if !caller.IsAdmin() && order.UserID != caller.UserID {
		return nil, apperr.Forbidden("not allowed to view this order")
	}

	remote, err := s.gateway.TransactionStatus(ctx, orderNumber)
	if err != nil {
		return nil, gatewayErr(err)
	}
	return &TransactionStatusView{
		Remote:        remote,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
	}, nil
}

// AdminCancel 先取消金流端交易，再以相同規則取消本地訂單並釋放庫存
func (s *PaymentService) AdminCancel(ctx context.Context, orderNumber string) (*model.Order, error) {
	order, err := s.orderRepo.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, notFoundOr(err, "order not found")
	}

	remote, err := s.gateway.CancelTransaction(ctx, orderNumber)
	if err != nil {
		return nil, gatewayErr(err)
	}

	info := repository.PaymentInfo{RemoteTransactionStatus: midtrans.StatusCancel}
	if remote != nil && remote.TransactionID != "" {
		info.RemoteTransactionID = remote.TransactionID
	}
	decide := func(from model.OrderState) (model.Transition, error) {
		return model.NextState(from, model.EventGatewayCancel)
	}
	updated, tr, err := s.transitioner.Apply(ctx, order, model.EventGatewayCancel, decide, info)
	if err != nil {
		return nil, transitionErr(err)
	}
	if tr.Noop {
		if err := s.orderRepo.UpdatePaymentInfo(ctx, updated.ID, info); err != nil {
			log.Warn().Err(err).Str("order_number", orderNumber).Msg("failed to record remote cancel on cancelled order")
		}
		updated.RemoteTransactionStatus = info.RemoteTransactionStatus
	}
	return updated, nil
}

func (s *PaymentService) ClientKey() ClientKeyView {
	return ClientKeyView{ClientKey: s.gateway.ClientKey(), IsProduction: s.gateway.IsProduction()}
}

var _ IPaymentService = (*PaymentService)(nil)
