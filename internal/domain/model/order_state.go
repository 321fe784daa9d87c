package model

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid order state transition")

// OrderState status 與 payment_status 共同描述訂單生命週期
type OrderState struct {
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
}

func (s OrderState) String() string {
	return fmt.Sprintf("(%s,%s)", s.Status, s.PaymentStatus)
}

func (s OrderState) IsCancelled() bool {
	return s.Status == OrderStatusCancelled
}

// StateCreated 結帳建立訂單時的初始狀態
var StateCreated = OrderState{Status: OrderStatusPending, PaymentStatus: PaymentStatusUnpaid}

type OrderEvent string

const (
	EventManualPay            OrderEvent = "manual_pay"
	EventCustomerCancel       OrderEvent = "customer_cancel"
	EventGatewayCancel        OrderEvent = "gateway_cancel" // 後台透過金流取消
	EventGatewaySettlement    OrderEvent = "gateway_settlement"
	EventGatewayPending       OrderEvent = "gateway_pending"
	EventGatewayDeny          OrderEvent = "gateway_deny"
	EventGatewayExpire        OrderEvent = "gateway_expire" // cancel 與 expire
	EventGatewayRefund        OrderEvent = "gateway_refund"
	EventGatewayPartialRefund OrderEvent = "gateway_partial_refund"
	EventAdminOverride        OrderEvent = "admin_override"
)

// Effect 轉換成功後必須執行的副作用
type Effect uint8

const (
	EffectNone         Effect = 0
	EffectReleaseStock Effect = 1 << iota
	EffectSetPaidAt
)

func (e Effect) Has(f Effect) bool {
	return e&f != 0
}

// Transition 轉換表查詢結果
// Noop 代表事件已套用過 (重送)，狀態與副作用都不需要再執行
type Transition struct {
	From    OrderState
	To      OrderState
	Effects Effect
	Noop    bool
}

type transitionKey struct {
	from  OrderState
	event OrderEvent
}

type stateMatcher func(OrderState) bool

type transitionRule struct {
	event   OrderEvent
	from    stateMatcher
	to      OrderState
	effects Effect
}

func exactly(states ...OrderState) stateMatcher {
	return func(s OrderState) bool {
		for _, v := range states {
			if v == s {
				return true
			}
		}
		return false
	}
}

func notCancelledWith(payments ...PaymentStatus) stateMatcher {
	return func(s OrderState) bool {
		if s.IsCancelled() {
			return false
		}
		for _, p := range payments {
			if p == s.PaymentStatus {
				return true
			}
		}
		return false
	}
}

func notCancelled(s OrderState) bool {
	return !s.IsCancelled()
}

func cancelled(s OrderState) bool {
	return s.IsCancelled()
}

func anyState(OrderState) bool { return true }

var (
	statePendingUnpaid = OrderState{OrderStatusPending, PaymentStatusUnpaid}
	statePendingFailed = OrderState{OrderStatusPending, PaymentStatusFailed}
	stateProcessPaid   = OrderState{OrderStatusProcessing, PaymentStatusPaid}
	stateCancelFailed  = OrderState{OrderStatusCancelled, PaymentStatusFailed}
	stateCancelUnpaid  = OrderState{OrderStatusCancelled, PaymentStatusUnpaid}
	stateCancelRefund  = OrderState{OrderStatusCancelled, PaymentStatusRefunded}
	stateProcessRefund = OrderState{OrderStatusProcessing, PaymentStatusRefunded}
)

// 規則依序展開，同一個 (state, event) 以第一條符合的規則為準
// 目標為零值代表維持原狀態，目標狀態與目前狀態相同時視為 Noop
var transitionRules = []transitionRule{
	{event: EventManualPay, from: exactly(statePendingUnpaid), to: stateProcessPaid, effects: EffectSetPaidAt},

	{event: EventCustomerCancel, from: exactly(statePendingUnpaid), to: stateCancelUnpaid, effects: EffectReleaseStock},

	{event: EventGatewaySettlement, from: notCancelledWith(PaymentStatusPaid), to: OrderState{}},
	{event: EventGatewaySettlement, from: notCancelledWith(PaymentStatusUnpaid, PaymentStatusFailed), to: stateProcessPaid, effects: EffectSetPaidAt},

	{event: EventGatewayPending, from: exactly(statePendingUnpaid, statePendingFailed), to: statePendingUnpaid},

	{event: EventGatewayDeny, from: exactly(statePendingUnpaid, statePendingFailed), to: statePendingFailed},

	{event: EventGatewayExpire, from: cancelled, to: OrderState{}},
	{event: EventGatewayExpire, from: notCancelled, to: stateCancelFailed, effects: EffectReleaseStock},

	{event: EventGatewayCancel, from: cancelled, to: OrderState{}},
	{event: EventGatewayCancel, from: notCancelled, to: stateCancelFailed, effects: EffectReleaseStock},

	{event: EventGatewayRefund, from: anyState, to: stateCancelRefund},

	{event: EventGatewayPartialRefund, from: notCancelled, to: stateProcessRefund},
}

var transitionTable = buildTransitionTable(transitionRules)

func allStates() []OrderState {
	states := make([]OrderState, 0, len(OrderStatuses)*len(PaymentStatuses))
	for _, s := range OrderStatuses {
		for _, p := range PaymentStatuses {
			states = append(states, OrderState{Status: s, PaymentStatus: p})
		}
	}
	return states
}

func buildTransitionTable(rules []transitionRule) map[transitionKey]Transition {
	table := make(map[transitionKey]Transition)
	for _, state := range allStates() {
		for _, r := range rules {
			key := transitionKey{from: state, event: r.event}
			if _, exists := table[key]; exists || !r.from(state) {
				continue
			}
			to := r.to
			if to == (OrderState{}) {
				to = state
			}
			t := Transition{From: state, To: to, Effects: r.effects}
			if to == state {
				t.Effects = EffectNone
				t.Noop = true
			}
			if state.IsCancelled() && !to.IsCancelled() {
				panic(fmt.Sprintf("transition rule resurrects cancelled order: %s -%s-> %s", state, r.event, to))
			}
			table[key] = t
		}
	}
	return table
}

// NextState 依轉換表計算下一個狀態
// 表中沒有的組合一律回傳 ErrInvalidTransition
func NextState(from OrderState, event OrderEvent) (Transition, error) {
	t, ok := transitionTable[transitionKey{from: from, event: event}]
	if !ok {
		return Transition{}, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, event, from)
	}
	return t, nil
}

// AdminOverride 後台自由修改狀態，值必須在列舉內
// 空字串代表該欄位不修改；已取消的訂單不能被改回其他狀態
func AdminOverride(from OrderState, status OrderStatus, payment PaymentStatus) (Transition, error) {
	to := from
	if status != "" {
		if !status.IsValid() {
			return Transition{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, status)
		}
		to.Status = status
	}
	if payment != "" {
		if !payment.IsValid() {
			return Transition{}, fmt.Errorf("%w: unknown payment status %q", ErrInvalidTransition, payment)
		}
		to.PaymentStatus = payment
	}
	if from.IsCancelled() && !to.IsCancelled() {
		return Transition{}, fmt.Errorf("%w: cancelled order cannot move to %s", ErrInvalidTransition, to)
	}

	t := Transition{From: from, To: to}
	if to == from {
		t.Noop = true
		return t, nil
	}
	if to.IsCancelled() && !from.IsCancelled() {
		t.Effects |= EffectReleaseStock
	}
	if to.PaymentStatus == PaymentStatusPaid && from.PaymentStatus != PaymentStatusPaid {
		t.Effects |= EffectSetPaidAt
	}
	return t, nil
}
