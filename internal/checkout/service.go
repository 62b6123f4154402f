// Package checkout turns a cart into a pending order and a Mercado Pago
// preference.
package checkout

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bjo163/tienda/internal/apperr"
	"github.com/bjo163/tienda/internal/customer"
	"github.com/bjo163/tienda/internal/domain"
	"github.com/bjo163/tienda/internal/mercadopago"
	"github.com/bjo163/tienda/internal/repository"
	"github.com/bjo163/tienda/pkg/common"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// PreferenceCreator is the provider call checkout depends on.
type PreferenceCreator interface {
	CreatePreference(ctx context.Context, req mercadopago.PreferenceRequest) (*mercadopago.Preference, error)
}

// CustomerResolver is the part of the customer registry checkout depends on.
type CustomerResolver interface {
	Get(ctx context.Context, id int64) (*domain.Customer, error)
	UpsertInline(ctx context.Context, in customer.Input) (*domain.Customer, error)
}

// Result is returned once; the order token cannot be recovered later.
type Result struct {
	OrderID          int64  `json:"orderId"`
	OrderToken       string `json:"orderToken"`
	PreferenceID     string `json:"preferenceId"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

type Service struct {
	products    repository.ProductRepository
	customers   CustomerResolver
	orders      repository.OrderRepository
	preferences PreferenceCreator
	placeholder func() string
}

func NewService(
	products repository.ProductRepository,
	customers CustomerResolver,
	orders repository.OrderRepository,
	preferences PreferenceCreator,
) *Service {
	return &Service{
		products:    products,
		customers:   customers,
		orders:      orders,
		preferences: preferences,
		placeholder: func() string {
			return fmt.Sprintf("mp_pref_pending_%d", common.NextID())
		},
	}
}

// Checkout validates the cart against current stock, stores a pending
// order and asks the provider for a preference.
//
// The stock check and the order insert are separate statements with no
// lock between them; concurrent checkouts can oversell.
func (s *Service) Checkout(ctx context.Context, req Request) (*Result, error) {
	raw := req.rawItems()
	if len(raw) == 0 {
		return nil, apperr.InvalidInput("items is required")
	}
	items := lines(raw)
	if len(items) == 0 {
		return nil, apperr.InvalidInput("items must contain productId and quantity")
	}

	products, err := s.loadProducts(ctx, items)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok {
			return nil, apperr.NotFound("product not found: %d", it.ProductID).WithStatus(http.StatusBadRequest)
		}
		if p.Stock < it.Quantity {
			return nil, apperr.InsufficientStock("insufficient stock for product %d", p.ID)
		}
	}

	buyer, err := s.resolveCustomer(ctx, req)
	if err != nil {
		return nil, err
	}

	orderItems := make([]domain.OrderItem, 0, len(items))
	prefItems := make([]mercadopago.Item, 0, len(items))
	for _, it := range items {
		p := products[it.ProductID]
		if !common.IsFinite(p.Price) {
			return nil, apperr.InvalidPrice("invalid price for product %d", p.ID)
		}
		orderItems = append(orderItems, domain.OrderItem{
			ProductID: p.ID,
			Quantity:  it.Quantity,
			UnitPrice: p.Price,
			Subtotal:  common.Subtotal(p.Price, it.Quantity),
		})
		prefItems = append(prefItems, mercadopago.Item{
			Title:     p.Name,
			Quantity:  it.Quantity,
			UnitPrice: p.Price,
		})
	}

	token, tokenHash, err := common.NewOrderToken()
	if err != nil {
		return nil, s.fail(err, "failed to create order")
	}

	order := &domain.Order{
		CustomerID:      buyer.ID,
		Items:           orderItems,
		Estado:          domain.OrderPendingPayment,
		PaymentID:       s.placeholder(),
		PublicTokenHash: tokenHash,
	}
	if ship := req.shipping(); ship != nil {
		order.ShippingInfo = datatypes.JSON(ship)
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, s.fail(err, "failed to create order")
	}

	pref, err := s.preferences.CreatePreference(ctx, mercadopago.PreferenceRequest{
		OrderID: order.ID,
		Payer: &mercadopago.Payer{
			Name:    buyer.Name,
			Surname: buyer.Lastname,
			Email:   buyer.Email,
			Phone:   &mercadopago.Phone{Number: buyer.Phone},
		},
		Items: prefItems,
	})
	if err != nil {
		// the order stays pending_payment with its placeholder id
		errorID := common.ErrorID()
		zap.L().Error("Mercado Pago createPreference failed",
			zap.String("errorId", errorID),
			zap.Int64("order_id", order.ID),
			zap.Error(err),
			zap.String("namespace", "checkout"))
		return nil, apperr.Upstream(err, errorID, "Mercado Pago could not create the preference")
	}

	if err := s.orders.UpdatePaymentID(ctx, order.ID, pref.ID); err != nil {
		return nil, s.fail(err, "failed to store preference id")
	}

	zap.L().Info("checkout order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("customer_id", buyer.ID),
		zap.String("preference_id", pref.ID),
		zap.Float64("total", order.Total()),
		zap.String("namespace", "checkout"))

	return &Result{
		OrderID:          order.ID,
		OrderToken:       token,
		PreferenceID:     pref.ID,
		InitPoint:        pref.InitPoint,
		SandboxInitPoint: pref.SandboxInitPoint,
	}, nil
}

// loadProducts fetches every distinct product id in one query.
func (s *Service) loadProducts(ctx context.Context, items []Line) (map[int64]*domain.Product, error) {
	ids := make([]int64, 0, len(items))
	seen := make(map[int64]bool, len(items))
	for _, it := range items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}
	list, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, s.fail(err, "failed to load products")
	}
	byID := make(map[int64]*domain.Product, len(list))
	for _, p := range list {
		byID[p.ID] = p
	}
	return byID, nil
}

func (s *Service) resolveCustomer(ctx context.Context, req Request) (*domain.Customer, error) {
	if id := req.customerID(); id > 0 {
		c, err := s.customers.Get(ctx, id)
		if err != nil {
			if e, ok := apperr.As(err); ok && e.Kind == apperr.KindNotFound {
				return nil, e.WithStatus(http.StatusBadRequest)
			}
			return nil, err
		}
		return c, nil
	}

	var in customer.Input
	if req.Cliente != nil {
		in = req.Cliente.Input
	}
	return s.customers.UpsertInline(ctx, in)
}

func (s *Service) fail(err error, msg string) error {
	errorID := common.ErrorID()
	zap.L().Error(msg,
		zap.String("errorId", errorID),
		zap.Error(err),
		zap.String("namespace", "checkout"))
	return apperr.Internal(err, errorID, msg)
}
