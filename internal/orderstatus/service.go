// Package orderstatus serves the token-gated public view of an order.
package orderstatus

import (
	"context"
	"strings"
	"time"

	"github.com/bjo163/tienda/internal/apperr"
	"github.com/bjo163/tienda/internal/domain"
	"github.com/bjo163/tienda/internal/repository"
	"github.com/bjo163/tienda/pkg/common"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Item struct {
	ProductID   *int64  `json:"productId"`
	ProductName *string `json:"productName"`
	ProductSlug *string `json:"productSlug"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Subtotal    float64 `json:"subtotal"`
}

type Payment struct {
	ID        int64                `json:"id"`
	PaymentID string               `json:"paymentId"`
	Estado    domain.PaymentStatus `json:"estado"`
	Type      string               `json:"type"`
	Method    string               `json:"method"`
	Amount    *float64             `json:"amount"`
	Currency  string               `json:"currency"`
	Creation  *time.Time           `json:"creation"`
	CreatedAt time.Time            `json:"createdAt"`
}

type Stock struct {
	DecrementedAt *time.Time `json:"decrementedAt"`
	FailedAt      *time.Time `json:"failedAt"`
	Error         *string    `json:"error"`
}

// View is the public order representation.
type View struct {
	ID           int64              `json:"id"`
	Estado       domain.OrderStatus `json:"estado"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
	Items        []Item             `json:"items"`
	ShippingInfo datatypes.JSON     `json:"shippingInfo"`
	Payments     []Payment          `json:"payments"`
	Stock        Stock              `json:"stock"`
}

type Service struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	payments repository.PaymentRepository
}

func NewService(orders repository.OrderRepository, products repository.ProductRepository, payments repository.PaymentRepository) *Service {
	return &Service{orders: orders, products: products, payments: payments}
}

// Lookup returns the order when token hashes to the stored publicTokenHash.
//
// The token is hashed before the order is read so that hashing cost does
// not depend on existence; 404 versus 403 still reveals whether the id exists.
func (s *Service) Lookup(ctx context.Context, orderID int64, token string) (*View, error) {
	if orderID <= 0 {
		return nil, apperr.InvalidInput("invalid order id")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.Unauthorized("order token is required")
	}
	tokenHash := common.Sha256Hex(token)

	order, err := s.orders.GetByID(ctx, orderID)
	if repository.IsNotFound(err) {
		return nil, apperr.NotFound("order not found")
	}
	if err != nil {
		return nil, s.internal(err, "failed to load order")
	}

	if order.PublicTokenHash == "" || !common.SafeEqualHex(order.PublicTokenHash, tokenHash) {
		return nil, apperr.Forbidden("invalid order token")
	}

	payments, err := s.payments.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, s.internal(err, "failed to load payments")
	}

	items, err := s.items(ctx, order.Items)
	if err != nil {
		return nil, s.internal(err, "failed to load products")
	}

	view := &View{
		ID:        order.ID,
		Estado:    order.Estado,
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
		Items:     items,
		Payments:  make([]Payment, 0, len(payments)),
		Stock: Stock{
			DecrementedAt: order.StockDecrementedAt,
			FailedAt:      order.StockDecrementFailedAt,
			Error:         order.StockDecrementError,
		},
	}
	if len(order.ShippingInfo) > 0 {
		view.ShippingInfo = order.ShippingInfo
	}
	for _, p := range payments {
		view.Payments = append(view.Payments, Payment{
			ID:        p.ID,
			PaymentID: p.PaymentID,
			Estado:    p.Estado,
			Type:      p.Type,
			Method:    p.Method,
			Amount:    p.Amount,
			Currency:  p.Currency,
			Creation:  p.Creation,
			CreatedAt: p.CreatedAt,
		})
	}
	return view, nil
}

// items joins the current product name and slug onto each snapshot; a
// product deleted since checkout leaves those fields null.
func (s *Service) items(ctx context.Context, snapshot []domain.OrderItem) ([]Item, error) {
	ids := make([]int64, 0, len(snapshot))
	for _, it := range snapshot {
		ids = append(ids, it.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]Item, 0, len(snapshot))
	for _, it := range snapshot {
		item := Item{
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal,
		}
		if p, ok := byID[it.ProductID]; ok {
			id, name, slug := p.ID, p.Name, p.Slug
			item.ProductID, item.ProductName, item.ProductSlug = &id, &name, &slug
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Service) internal(err error, msg string) error {
	errorID := common.ErrorID()
	zap.L().Error(msg, zap.String("errorId", errorID), zap.Error(err), zap.String("namespace", "orderstatus"))
	return apperr.Internal(err, errorID, msg)
}
