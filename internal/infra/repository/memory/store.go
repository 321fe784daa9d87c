package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Store 單機版的 repository 實作，所有操作在同一把鎖內完成
// 用於測試與不需要 postgres 的本機開發
type Store struct {
	mu        sync.Mutex
	products  map[uuid.UUID]*model.Product
	variants  map[uuid.UUID]*model.ProductVariant
	cartLines map[uuid.UUID]*model.CartLine
	orders    map[uuid.UUID]*model.Order
	events    []model.PaymentEvent
	seq       map[string]int64
	now       func() time.Time
}

func NewStore() *Store {
	return &Store{
		products:  make(map[uuid.UUID]*model.Product),
		variants:  make(map[uuid.UUID]*model.ProductVariant),
		cartLines: make(map[uuid.UUID]*model.CartLine),
		orders:    make(map[uuid.UUID]*model.Order),
		seq:       make(map[string]int64),
		now:       time.Now,
	}
}

// AddVariant 寫入型錄資料，product 可為 nil
func (s *Store) AddVariant(product *model.Product, variant *model.ProductVariant) *model.ProductVariant {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product != nil {
		if product.ID == uuid.Nil {
			product.ID = uuid.New()
		}
		p := *product
		s.products[p.ID] = &p
		variant.ProductID = p.ID
	}
	if variant.ID == uuid.Nil {
		variant.ID = uuid.New()
	}
	v := *variant
	v.Product = nil
	s.variants[v.ID] = &v
	return s.variantLocked(v.ID)
}

// Stock 目前庫存，測試用
func (s *Store) Stock(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.variants[id]; ok {
		return v.Stock
	}
	return 0
}

func (s *Store) variantLocked(id uuid.UUID) *model.ProductVariant {
	v, ok := s.variants[id]
	if !ok {
		return nil
	}
	cp := *v
	if p, ok := s.products[v.ProductID]; ok {
		pc := *p
		cp.Product = &pc
	}
	return &cp
}

/* 庫存 */

func (s *Store) GetVariantByID(ctx context.Context, id uuid.UUID) (*model.ProductVariant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.variantLocked(id)
	if v == nil {
		return nil, fmt.Errorf("%w: variant %s", repository.ErrNotFound, id)
	}
	return v, nil
}

func (s *Store) ReserveStock(ctx context.Context, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("invalid reserve quantity %d", qty)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.variants[id]
	if !ok {
		return fmt.Errorf("%w: variant %s", repository.ErrNotFound, id)
	}
	if v.Stock < qty {
		return fmt.Errorf("%w: variant %s", repository.ErrStockNotEnough, id)
	}
	v.Stock -= qty
	return nil
}

func (s *Store) ReleaseStock(ctx context.Context, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("invalid release quantity %d", qty)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.variants[id]
	if !ok {
		return fmt.Errorf("%w: variant %s", repository.ErrNotFound, id)
	}
	v.Stock += qty
	return nil
}

/* 購物車 */

func (s *Store) cartLineLocked(line *model.CartLine) model.CartLine {
	cp := *line
	cp.Variant = s.variantLocked(line.VariantID)
	return cp
}

func (s *Store) ListCartLines(ctx context.Context, userID uuid.UUID, onlyChecked bool) ([]model.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]model.CartLine, 0)
	for _, l := range s.cartLines {
		if l.UserID != userID || (onlyChecked && !l.IsChecked) {
			continue
		}
		lines = append(lines, s.cartLineLocked(l))
	}
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].CreatedAt.After(lines[j].CreatedAt)
	})
	return lines, nil
}

func (s *Store) GetCartLine(ctx context.Context, userID, lineID uuid.UUID) (*model.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.cartLines[lineID]
	if !ok || l.UserID != userID {
		return nil, fmt.Errorf("%w: cart line %s", repository.ErrNotFound, lineID)
	}
	cp := s.cartLineLocked(l)
	return &cp, nil
}

func (s *Store) GetCartLineByVariant(ctx context.Context, userID, variantID uuid.UUID) (*model.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.cartLines {
		if l.UserID == userID && l.VariantID == variantID {
			cp := s.cartLineLocked(l)
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: cart line for variant %s", repository.ErrNotFound, variantID)
}

func (s *Store) CreateCartLine(ctx context.Context, line *model.CartLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.cartLines {
		if l.UserID == line.UserID && l.VariantID == line.VariantID {
			return fmt.Errorf("%w: cart line for variant %s", repository.ErrDuplicateKey, line.VariantID)
		}
	}
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	now := s.now()
	line.CreatedAt, line.UpdatedAt = now, now
	cp := *line
	cp.Variant = nil
	s.cartLines[cp.ID] = &cp
	return nil
}

func (s *Store) CompareAndSetQuantity(ctx context.Context, lineID uuid.UUID, expected, quantity int, checked bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.cartLines[lineID]
	if !ok || l.Quantity != expected {
		return false, nil
	}
	l.Quantity = quantity
	l.IsChecked = checked
	l.UpdatedAt = s.now()
	return true, nil
}

func (s *Store) ToggleCartLineChecked(ctx context.Context, userID, lineID uuid.UUID) (*model.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.cartLines[lineID]
	if !ok || l.UserID != userID {
		return nil, fmt.Errorf("%w: cart line %s", repository.ErrNotFound, lineID)
	}
	l.IsChecked = !l.IsChecked
	l.UpdatedAt = s.now()
	cp := s.cartLineLocked(l)
	return &cp, nil
}

func (s *Store) DeleteCartLine(ctx context.Context, userID, lineID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.cartLines[lineID]
	if !ok || l.UserID != userID {
		return fmt.Errorf("%w: cart line %s", repository.ErrNotFound, lineID)
	}
	delete(s.cartLines, lineID)
	return nil
}

/* 訂單 */

func copyOrder(o *model.Order) *model.Order {
	cp := *o
	cp.Lines = append([]model.OrderLine(nil), o.Lines...)
	cp.VANumbers = append(datatypes.JSONSlice[model.VANumber](nil), o.VANumbers...)
	if o.PaidAt != nil {
		t := *o.PaidAt
		cp.PaidAt = &t
	}
	return &cp
}

func (s *Store) CreateOrder(ctx context.Context, order *model.Order, consumedCartLineIDs []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.OrderNumber == order.OrderNumber {
			return fmt.Errorf("%w: order %s", repository.ErrDuplicateKey, order.OrderNumber)
		}
	}
	for _, id := range consumedCartLineIDs {
		if l, ok := s.cartLines[id]; !ok || l.UserID != order.UserID {
			return fmt.Errorf("%w: cart line %s", repository.ErrCartChanged, id)
		}
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	now := s.now()
	order.CreatedAt, order.UpdatedAt = now, now
	for i := range order.Lines {
		if order.Lines[i].ID == uuid.Nil {
			order.Lines[i].ID = uuid.New()
		}
		order.Lines[i].OrderID = order.ID
		order.Lines[i].CreatedAt, order.Lines[i].UpdatedAt = now, now
	}
	s.orders[order.ID] = copyOrder(order)
	for _, id := range consumedCartLineIDs {
		delete(s.cartLines, id)
	}
	return nil
}

func (s *Store) GetOrderByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %s", repository.ErrNotFound, id)
	}
	return copyOrder(o), nil
}

func (s *Store) GetOrderByNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.OrderNumber == orderNumber {
			return copyOrder(o), nil
		}
	}
	return nil, fmt.Errorf("%w: order %s", repository.ErrNotFound, orderNumber)
}

func (s *Store) sortedOrdersLocked(match func(*model.Order) bool, asc bool) []model.Order {
	orders := make([]model.Order, 0)
	for _, o := range s.orders {
		if match(o) {
			orders = append(orders, *copyOrder(o))
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if asc {
			return orders[i].CreatedAt.Before(orders[j].CreatedAt)
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedOrdersLocked(func(o *model.Order) bool { return o.UserID == userID }, false), nil
}

func matchFilter(filter repository.OrderFilter) func(*model.Order) bool {
	return func(o *model.Order) bool {
		if filter.Status != "" && o.Status != filter.Status {
			return false
		}
		if filter.PaymentStatus != "" && o.PaymentStatus != filter.PaymentStatus {
			return false
		}
		return true
	}
}

func (s *Store) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := s.sortedOrdersLocked(matchFilter(filter), filter.SortAsc)

	page, limit := filter.Page, filter.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	start := (page - 1) * limit
	if start >= len(orders) {
		return []model.Order{}, nil
	}
	end := start + limit
	if end > len(orders) {
		end = len(orders)
	}
	return orders[start:end], nil
}

func (s *Store) CountOrders(ctx context.Context, filter repository.OrderFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	match := matchFilter(filter)
	var count int64
	for _, o := range s.orders {
		if match(o) {
			count++
		}
	}
	return count, nil
}

func (s *Store) GetOrderStats(ctx context.Context) (*model.OrderStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &model.OrderStats{TotalRevenue: decimal.Zero}
	for _, o := range s.orders {
		stats.TotalOrders++
		switch o.Status {
		case model.OrderStatusPending:
			stats.PendingCount++
		case model.OrderStatusProcessing:
			stats.ProcessingCount++
		case model.OrderStatusShipped:
			stats.ShippedCount++
		case model.OrderStatusDelivered:
			stats.DeliveredCount++
		case model.OrderStatusCancelled:
			stats.CancelledCount++
		}
		switch o.PaymentStatus {
		case model.PaymentStatusUnpaid:
			stats.UnpaidCount++
		case model.PaymentStatusPaid:
			stats.PaidCount++
			stats.TotalRevenue = stats.TotalRevenue.Add(o.TotalAmount)
		}
	}
	return stats, nil
}

func applyPaymentInfo(o *model.Order, info repository.PaymentInfo) {
	if info.RemoteTransactionID != "" {
		o.RemoteTransactionID = info.RemoteTransactionID
	}
	if info.RemoteTransactionStatus != "" {
		o.RemoteTransactionStatus = info.RemoteTransactionStatus
	}
	if info.PaymentType != "" {
		o.PaymentType = info.PaymentType
	}
	if len(info.VANumbers) > 0 {
		o.VANumbers = append(datatypes.JSONSlice[model.VANumber](nil), info.VANumbers...)
	}
}

func (s *Store) TransitionOrder(ctx context.Context, id uuid.UUID, from, to model.OrderState, paidAt *time.Time, info repository.PaymentInfo) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.State() != from {
		return false, nil
	}
	o.Status, o.PaymentStatus = to.Status, to.PaymentStatus
	if paidAt != nil {
		t := *paidAt
		o.PaidAt = &t
	}
	applyPaymentInfo(o, info)
	o.UpdatedAt = s.now()
	return true, nil
}

func (s *Store) UpdatePaymentInfo(ctx context.Context, id uuid.UUID, info repository.PaymentInfo) error {
	if info.IsEmpty() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return fmt.Errorf("%w: order %s", repository.ErrNotFound, id)
	}
	applyPaymentInfo(o, info)
	o.UpdatedAt = s.now()
	return nil
}

/* 金流通知 */

func (s *Store) AppendPaymentEvent(ctx context.Context, ev *model.PaymentEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = s.now()
	}
	s.events = append(s.events, *ev)
	return nil
}

func (s *Store) ListPaymentEvents(ctx context.Context, orderNumber string) ([]model.PaymentEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]model.PaymentEvent, 0)
	for _, ev := range s.events {
		if ev.OrderNumber == orderNumber {
			events = append(events, ev)
		}
	}
	return events, nil
}

func (s *Store) CountPaymentEvents(ctx context.Context, transactionID, transactionStatus string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, ev := range s.events {
		if ev.TransactionID == transactionID && ev.TransactionStatus == transactionStatus {
			count++
		}
	}
	return count, nil
}

/* 訂單編號 */

func (s *Store) NextOrderNumber(ctx context.Context, now time.Time) (string, error) {
	day := repository.OrderNumberDay(now)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq[day]++
	return repository.FormatOrderNumber(day, s.seq[day]), nil
}

var (
	_ repository.IVariantRepository      = (*Store)(nil)
	_ repository.ICartRepository         = (*Store)(nil)
	_ repository.IOrderRepository        = (*Store)(nil)
	_ repository.IPaymentEventRepository = (*Store)(nil)
	_ repository.IOrderNumberAllocator   = (*Store)(nil)
)
