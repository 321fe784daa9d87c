package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model/event"
	"github.com/RoyceAzure/lab/storefront/internal/infra/producer"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

const maxTransitionAttempts = 5

var ErrTransitionContention = errors.New("order state keeps changing, transition aborted")

// decideFunc 依目前狀態決定轉換
type decideFunc func(from model.OrderState) (model.Transition, error)

// OrderTransitioner 所有訂單狀態異動的唯一入口
/*
	1. 依目前狀態查轉換表
	2. compare-and-swap 寫入，失敗代表被其他請求搶先，重新讀取後再決定一次
	3. 只有寫入成功的請求執行副作用 (釋放庫存、發送事件)
*/
type OrderTransitioner struct {
	orderRepo repository.IOrderRepository
	inventory IInventoryService
	publisher producer.IOrderEventPublisher
	now       clock
}

func NewOrderTransitioner(orderRepo repository.IOrderRepository, inventory IInventoryService, publisher producer.IOrderEventPublisher) *OrderTransitioner {
	return &OrderTransitioner{
		orderRepo: orderRepo,
		inventory: inventory,
		publisher: publisher,
		now:       time.Now,
	}
}

// Apply 回傳最新的訂單與實際套用的轉換
// 轉換為 Noop 時不寫入，付款資訊由呼叫端決定是否另外更新
func (t *OrderTransitioner) Apply(ctx context.Context, order *model.Order, trigger model.OrderEvent, decide decideFunc, info repository.PaymentInfo) (*model.Order, model.Transition, error) {
	current := order
	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		tr, err := decide(current.State())
		if err != nil {
			return current, tr, err
		}
		if tr.Noop {
			return current, tr, nil
		}

		var paidAt *time.Time
		if tr.Effects.Has(model.EffectSetPaidAt) {
			now := t.now()
			paidAt = &now
		}

		ok, err := t.orderRepo.TransitionOrder(ctx, current.ID, tr.From, tr.To, paidAt, info)
		if err != nil {
			return current, tr, err
		}
		if ok {
			updated := applied(current, tr, paidAt, info)
			t.afterCommit(ctx, updated, trigger, tr)
			return updated, tr, nil
		}

		log.Debug().Str("order_number", current.OrderNumber).Str("from", tr.From.String()).Msg("order transition lost race, reloading")
		current, err = t.orderRepo.GetOrderByID(ctx, current.ID)
		if err != nil {
			return order, tr, fmt.Errorf("reload order: %w", err)
		}
	}
	return current, model.Transition{}, ErrTransitionContention
}

func (t *OrderTransitioner) afterCommit(ctx context.Context, order *model.Order, trigger model.OrderEvent, tr model.Transition) {
	log.Info().
		Str("order_number", order.OrderNumber).
		Str("trigger", string(trigger)).
		Str("from", tr.From.String()).
		Str("to", tr.To.String()).
		Msg("order transitioned")

	if tr.Effects.Has(model.EffectReleaseStock) {
		_ = t.inventory.ReleaseAll(ctx, string(trigger), order.OrderNumber, StockLinesOf(order))
	}

	evt := event.NewOrderTransitionEvent(order, trigger, tr, t.now())
	if err := t.publisher.Publish(context.WithoutCancel(ctx), evt); err != nil {
		log.Warn().Err(err).Str("order_number", order.OrderNumber).Str("event_type", string(evt.Type())).Msg("failed to publish order event")
	}
}

func applied(order *model.Order, tr model.Transition, paidAt *time.Time, info repository.PaymentInfo) *model.Order {
	cp := *order
	cp.Status, cp.PaymentStatus = tr.To.Status, tr.To.PaymentStatus
	if paidAt != nil {
		cp.PaidAt = paidAt
	}
	if info.RemoteTransactionID != "" {
		cp.RemoteTransactionID = info.RemoteTransactionID
	}
	if info.RemoteTransactionStatus != "" {
		cp.RemoteTransactionStatus = info.RemoteTransactionStatus
	}
	if info.PaymentType != "" {
		cp.PaymentType = info.PaymentType
	}
	if len(info.VANumbers) > 0 {
		cp.VANumbers = datatypes.JSONSlice[model.VANumber](info.VANumbers)
	}
	return &cp
}
