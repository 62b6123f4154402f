package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bjo163/tienda/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Store = (*GormStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

func TestMemoryStore_CustomerUniqueEmail(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Customers().Create(ctx, &domain.Customer{Email: "a@x.com"}))
	err := store.Customers().Create(ctx, &domain.Customer{Email: "a@x.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, 1, store.CountCustomers())
}

func TestMemoryStore_ListRecentOrder(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})

	for _, email := range []string{"1@x.com", "2@x.com", "3@x.com"} {
		require.NoError(t, store.Customers().Create(ctx, &domain.Customer{Email: email}))
	}

	list, err := store.Customers().ListRecent(ctx, 50)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "3@x.com", list[0].Email)
	assert.Equal(t, "1@x.com", list[2].Email)
}

func TestMemoryStore_OrderCopiesItems(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	o := &domain.Order{PaymentID: "p1", Items: []domain.OrderItem{{ProductID: 7, Quantity: 2, UnitPrice: 100, Subtotal: 200}}}
	require.NoError(t, store.Orders().Create(ctx, o))

	o.Items[0].UnitPrice = 1

	got, err := store.Orders().GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.Items[0].UnitPrice)
	assert.Equal(t, o.ID, got.Items[0].OrderID)
}

func TestMemoryStore_OrderPaymentIDUnique(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	a := &domain.Order{PaymentID: "p1"}
	b := &domain.Order{PaymentID: "p2"}
	require.NoError(t, store.Orders().Create(ctx, a))
	require.NoError(t, store.Orders().Create(ctx, b))

	assert.ErrorIs(t, store.Orders().UpdatePaymentID(ctx, b.ID, "p1"), ErrDuplicate)
	assert.NoError(t, store.Orders().UpdateStatus(ctx, a.ID, domain.OrderPaid, "p1"))
	assert.ErrorIs(t, store.Orders().UpdatePaymentID(ctx, 999, "x"), ErrNotFound)
}

func TestMemoryStore_PaymentsNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Payments().Create(ctx, &domain.Payment{OrderID: 1, PaymentID: "a"}))
	require.NoError(t, store.Payments().Create(ctx, &domain.Payment{OrderID: 1, PaymentID: "b"}))
	assert.ErrorIs(t, store.Payments().Create(ctx, &domain.Payment{OrderID: 1, PaymentID: "a"}), ErrDuplicate)

	list, err := store.Payments().ListByOrder(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].PaymentID)
}

func TestMemoryStore_ProductsPaging(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		store.PutProduct(domain.Product{Name: "p"})
	}

	list, total, err := store.Products().List(ctx, ProductFilter{}, 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, list, 1)

	list, _, err = store.Products().List(ctx, ProductFilter{}, 5, 2)
	require.NoError(t, err)
	assert.Empty(t, list)
}
