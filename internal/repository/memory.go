package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bjo163/tienda/internal/domain"
	"github.com/pkg/errors"
)

// ErrDuplicate mirrors a unique-constraint violation in the memory store.
var ErrDuplicate = errors.New("duplicate key")

// MemoryStore keeps every entity in maps guarded by one mutex. Rows are
// copied in and out so callers never share memory with the store.
type MemoryStore struct {
	mu         sync.Mutex
	seq        int64
	customers  map[int64]domain.Customer
	products   map[int64]domain.Product
	categories map[int64]domain.Category
	orders     map[int64]domain.Order
	payments   map[int64]domain.Payment
	events     map[int64]domain.WebhookEvent
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		customers:  make(map[int64]domain.Customer),
		products:   make(map[int64]domain.Product),
		categories: make(map[int64]domain.Category),
		orders:     make(map[int64]domain.Order),
		payments:   make(map[int64]domain.Payment),
		events:     make(map[int64]domain.WebhookEvent),
		now:        time.Now,
	}
}

// SetClock replaces the timestamp source used for CreatedAt/UpdatedAt.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) nextID() int64 {
	s.seq++
	return s.seq
}

// PutProduct seeds a catalog row; a zero ID is assigned.
func (s *MemoryStore) PutProduct(p domain.Product) *domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.nextID()
	} else if p.ID > s.seq {
		s.seq = p.ID
	}
	s.products[p.ID] = p
	return &p
}

// PutCategory seeds a category row; a zero ID is assigned.
func (s *MemoryStore) PutCategory(c domain.Category) *domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.nextID()
	} else if c.ID > s.seq {
		s.seq = c.ID
	}
	s.categories[c.ID] = c
	return &c
}

func (s *MemoryStore) Customers() CustomerRepository         { return memCustomers{s} }
func (s *MemoryStore) Products() ProductRepository           { return memProducts{s} }
func (s *MemoryStore) Categories() CategoryRepository        { return memCategories{s} }
func (s *MemoryStore) Orders() OrderRepository               { return memOrders{s} }
func (s *MemoryStore) Payments() PaymentRepository           { return memPayments{s} }
func (s *MemoryStore) WebhookEvents() WebhookEventRepository { return memEvents{s} }

// CountPayments is a test helper reporting the number of stored payments.
func (s *MemoryStore) CountPayments() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payments)
}

// CountCustomers is a test helper reporting the number of stored customers.
func (s *MemoryStore) CountCustomers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.customers)
}

// CountOrders is a test helper reporting the number of stored orders.
func (s *MemoryStore) CountOrders() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

type memCustomers struct{ s *MemoryStore }

func (m memCustomers) GetByID(_ context.Context, id int64) (*domain.Customer, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m memCustomers) GetByEmail(_ context.Context, email string) (*domain.Customer, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, c := range m.s.customers {
		if c.Email == email {
			c := c
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m memCustomers) Create(_ context.Context, c *domain.Customer) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.customers {
		if existing.Email == c.Email {
			return errors.Wrapf(ErrDuplicate, "customer email %s", c.Email)
		}
	}
	c.ID = m.s.nextID()
	now := m.s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	m.s.customers[c.ID] = *c
	return nil
}

func (m memCustomers) Update(_ context.Context, c *domain.Customer) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cur, ok := m.s.customers[c.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Name, cur.Lastname, cur.Phone = c.Name, c.Lastname, c.Phone
	cur.UpdatedAt = m.s.now()
	m.s.customers[c.ID] = cur
	*c = cur
	return nil
}

func (m memCustomers) ListRecent(_ context.Context, limit int) ([]*domain.Customer, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	list := make([]*domain.Customer, 0, len(m.s.customers))
	for _, c := range m.s.customers {
		c := c
		list = append(list, &c)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

type memProducts struct{ s *MemoryStore }

func (m memProducts) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m memProducts) FindByIDs(_ context.Context, ids []int64) ([]*domain.Product, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	list := make([]*domain.Product, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p, ok := m.s.products[id]; ok {
			p := p
			list = append(list, &p)
		}
	}
	return list, nil
}

func (m memProducts) List(_ context.Context, filter ProductFilter, page, pageSize int) ([]*domain.Product, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var all []*domain.Product
	for _, p := range m.s.products {
		if filter.CategoryID > 0 && (p.CategoryID == nil || *p.CategoryID != filter.CategoryID) {
			continue
		}
		if filter.Name != "" && !strings.Contains(p.Name, filter.Name) {
			continue
		}
		p := p
		all = append(all, &p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	start := (page - 1) * pageSize
	if start >= len(all) {
		return []*domain.Product{}, total, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

type memCategories struct{ s *MemoryStore }

func (m memCategories) GetByID(_ context.Context, id int64) (*domain.Category, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m memCategories) List(_ context.Context) ([]*domain.Category, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	list := make([]*domain.Category, 0, len(m.s.categories))
	for _, c := range m.s.categories {
		c := c
		list = append(list, &c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

type memOrders struct{ s *MemoryStore }

func (m memOrders) paymentIDTaken(paymentID string, except int64) bool {
	for id, o := range m.s.orders {
		if id != except && o.PaymentID == paymentID {
			return true
		}
	}
	return false
}

func (m memOrders) Create(_ context.Context, o *domain.Order) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.paymentIDTaken(o.PaymentID, 0) {
		return errors.Wrapf(ErrDuplicate, "order payment id %s", o.PaymentID)
	}
	o.ID = m.s.nextID()
	now := m.s.now()
	o.CreatedAt, o.UpdatedAt = now, now
	items := make([]domain.OrderItem, len(o.Items))
	for i, it := range o.Items {
		it.ID = m.s.nextID()
		it.OrderID = o.ID
		items[i] = it
	}
	o.Items = items
	stored := *o
	stored.Items = append([]domain.OrderItem(nil), items...)
	m.s.orders[o.ID] = stored
	return nil
}

func (m memOrders) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	o, ok := m.s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	return &o, nil
}

func (m memOrders) UpdatePaymentID(_ context.Context, id int64, paymentID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	o, ok := m.s.orders[id]
	if !ok {
		return ErrNotFound
	}
	if m.paymentIDTaken(paymentID, id) {
		return errors.Wrapf(ErrDuplicate, "order payment id %s", paymentID)
	}
	o.PaymentID = paymentID
	o.UpdatedAt = m.s.now()
	m.s.orders[id] = o
	return nil
}

func (m memOrders) UpdateStatus(_ context.Context, id int64, estado domain.OrderStatus, paymentID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	o, ok := m.s.orders[id]
	if !ok {
		return ErrNotFound
	}
	if m.paymentIDTaken(paymentID, id) {
		return errors.Wrapf(ErrDuplicate, "order payment id %s", paymentID)
	}
	o.Estado = estado
	o.PaymentID = paymentID
	o.UpdatedAt = m.s.now()
	m.s.orders[id] = o
	return nil
}

type memPayments struct{ s *MemoryStore }

func (m memPayments) GetByPaymentID(_ context.Context, paymentID string) (*domain.Payment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, p := range m.s.payments {
		if p.PaymentID == paymentID {
			p := p
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (m memPayments) Create(_ context.Context, p *domain.Payment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.payments {
		if existing.PaymentID == p.PaymentID {
			return errors.Wrapf(ErrDuplicate, "payment id %s", p.PaymentID)
		}
	}
	p.ID = m.s.nextID()
	now := m.s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	m.s.payments[p.ID] = *p
	return nil
}

func (m memPayments) Update(_ context.Context, p *domain.Payment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.payments[p.ID]; !ok {
		return ErrNotFound
	}
	p.UpdatedAt = m.s.now()
	m.s.payments[p.ID] = *p
	return nil
}

func (m memPayments) ListByOrder(_ context.Context, orderID int64) ([]*domain.Payment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var list []*domain.Payment
	for _, p := range m.s.payments {
		if p.OrderID == orderID {
			p := p
			list = append(list, &p)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

type memEvents struct{ s *MemoryStore }

func (m memEvents) Create(_ context.Context, ev *domain.WebhookEvent) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	ev.ID = m.s.nextID()
	ev.CreatedAt = m.s.now()
	m.s.events[ev.ID] = *ev
	return nil
}

func (m memEvents) DeleteOlderThan(_ context.Context, before time.Time) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for id, ev := range m.s.events {
		if ev.CreatedAt.Before(before) {
			delete(m.s.events, id)
			n++
		}
	}
	return n, nil
}

// Events returns a snapshot of the webhook delivery log, oldest first.
func (s *MemoryStore) Events() []domain.WebhookEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]domain.WebhookEvent, 0, len(s.events))
	for _, ev := range s.events {
		list = append(list, ev)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}
