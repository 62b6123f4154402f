// Package repository is the persistence boundary. Each entity gets a narrow
// interface, a GORM implementation and an in-memory implementation.
package repository

import (
	"context"
	"time"

	"github.com/bjo163/tienda/internal/domain"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ErrNotFound is returned by every lookup that matches no row.
var ErrNotFound = errors.New("record not found")

// CustomerRepository handles database operations for customers
type CustomerRepository interface {
	// GetByID retrieves a customer by ID
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)

	// GetByEmail retrieves a customer by its normalized email
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)

	// Create inserts a new customer
	Create(ctx context.Context, c *domain.Customer) error

	// Update saves name, lastname and phone of an existing customer
	Update(ctx context.Context, c *domain.Customer) error

	// ListRecent returns the newest customers first
	ListRecent(ctx context.Context, limit int) ([]*domain.Customer, error)
}

// ProductFilter narrows a product listing. Zero values match everything.
type ProductFilter struct {
	CategoryID int64
	Name       string
}

// ProductRepository is read-only: stock is never decremented here.
type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)

	// FindByIDs fetches in one query; ids with no row are simply absent from the result
	FindByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error)

	List(ctx context.Context, filter ProductFilter, page, pageSize int) ([]*domain.Product, int64, error)
}

type CategoryRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
}

// OrderRepository handles database operations for orders and their items
type OrderRepository interface {
	// Create inserts the order together with its items
	Create(ctx context.Context, o *domain.Order) error

	// GetByID retrieves an order with its items preloaded
	GetByID(ctx context.Context, id int64) (*domain.Order, error)

	// UpdatePaymentID replaces the provider correlation id
	UpdatePaymentID(ctx context.Context, id int64, paymentID string) error

	// UpdateStatus sets estado and paymentId in one write
	UpdateStatus(ctx context.Context, id int64, estado domain.OrderStatus, paymentID string) error
}

// PaymentRepository handles database operations for provider payments
type PaymentRepository interface {
	GetByPaymentID(ctx context.Context, paymentID string) (*domain.Payment, error)
	Create(ctx context.Context, p *domain.Payment) error
	Update(ctx context.Context, p *domain.Payment) error

	// ListByOrder returns the payments of an order, newest first
	ListByOrder(ctx context.Context, orderID int64) ([]*domain.Payment, error)
}

// WebhookEventRepository stores the webhook delivery log
type WebhookEventRepository interface {
	Create(ctx context.Context, ev *domain.WebhookEvent) error

	// DeleteOlderThan removes entries created before the cutoff and reports how many went away
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// Store bundles one implementation of every repository.
type Store interface {
	Customers() CustomerRepository
	Products() ProductRepository
	Categories() CategoryRepository
	Orders() OrderRepository
	Payments() PaymentRepository
	WebhookEvents() WebhookEventRepository
}

// translate maps gorm's not-found sentinel to ErrNotFound and wraps anything else.
func translate(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// IsNotFound reports whether err means "no such row".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
