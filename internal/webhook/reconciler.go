// Package webhook reconciles Mercado Pago notifications onto orders and
// payments. Every write is keyed by the provider payment id, so replays
// converge on the same rows.
package webhook

import (
	"context"
	"strings"
	"time"

	"github.com/bjo163/tienda/internal/apperr"
	"github.com/bjo163/tienda/internal/domain"
	"github.com/bjo163/tienda/internal/mercadopago"
	"github.com/bjo163/tienda/internal/repository"
	"github.com/bjo163/tienda/pkg/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Provider is the read side of the Mercado Pago client.
type Provider interface {
	FetchPayment(ctx context.Context, id string) (*mercadopago.Payment, error)
	FetchMerchantOrder(ctx context.Context, id string) (*mercadopago.MerchantOrder, error)
}

// SyncResult reports what one payment reconciliation did. Linked is false
// when the payment could not be tied to an existing order.
type SyncResult struct {
	Linked        bool
	OrderID       int64
	PaymentRowID  int64
	OrderEstado   domain.OrderStatus
	PaymentEstado domain.PaymentStatus
}

type Reconciler struct {
	secret   string
	provider Provider
	orders   repository.OrderRepository
	payments repository.PaymentRepository
	events   repository.WebhookEventRepository
	now      func() time.Time
}

// NewReconciler builds a reconciler. An empty secret disables the token check;
// a nil events repository disables the delivery log.
func NewReconciler(
	secret string,
	provider Provider,
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	events repository.WebhookEventRepository,
) *Reconciler {
	return &Reconciler{
		secret:   strings.TrimSpace(secret),
		provider: provider,
		orders:   orders,
		payments: payments,
		events:   events,
		now:      time.Now,
	}
}

// Authorize checks the shared secret passed as the token query parameter.
func (r *Reconciler) Authorize(token string) error {
	if r.secret == "" {
		return nil
	}
	if !common.SafeEqualString(token, r.secret) {
		return apperr.Unauthorized("invalid webhook token")
	}
	return nil
}

// Handle processes one resolved notification. Unresolved notifications
// are a no-op so the provider stops retrying them.
func (r *Reconciler) Handle(ctx context.Context, n Notification) error {
	if n.Kind == KindUnresolved {
		return nil
	}
	received := r.now()

	var err error
	outcome := domain.WebhookProcessed
	switch n.Kind {
	case KindPayment:
		err = r.syncByID(ctx, n.ID)
	case KindMerchantOrder:
		err = r.syncMerchantOrder(ctx, n.ID)
	default:
		outcome = domain.WebhookIgnored
		zap.L().Debug("ignoring notification type",
			zap.String("type", n.Type),
			zap.String("id", n.ID),
			zap.String("namespace", "webhook"))
	}
	if err != nil {
		outcome = domain.WebhookFailed
		zap.L().Error("webhook processing failed",
			zap.String("type", n.Type),
			zap.String("id", n.ID),
			zap.Error(err),
			zap.String("namespace", "webhook"))
	}

	r.record(ctx, n, outcome, err, received)
	return err
}

func (r *Reconciler) syncByID(ctx context.Context, paymentID string) error {
	p, err := r.provider.FetchPayment(ctx, paymentID)
	if err != nil {
		return errors.Wrapf(err, "fetch payment %s", paymentID)
	}
	_, err = r.SyncPayment(ctx, p)
	return err
}

// syncMerchantOrder reconciles the listed payments one after another and
// stops at the first failure.
func (r *Reconciler) syncMerchantOrder(ctx context.Context, id string) error {
	mo, err := r.provider.FetchMerchantOrder(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "fetch merchant order %s", id)
	}
	for _, p := range mo.Payments {
		if p.ID == "" {
			continue
		}
		if err := r.syncByID(ctx, p.ID.String()); err != nil {
			return err
		}
	}
	return nil
}

// SyncPayment upserts the Payment row for p and moves the owning order to
// the matching state. A payment with no resolvable order is ignored.
func (r *Reconciler) SyncPayment(ctx context.Context, p *mercadopago.Payment) (*SyncResult, error) {
	orderID, ok := p.OrderID()
	if !ok {
		zap.L().Info("payment without order reference ignored",
			zap.String("payment_id", p.ID.String()),
			zap.String("namespace", "webhook"))
		return &SyncResult{}, nil
	}

	if _, err := r.orders.GetByID(ctx, orderID); err != nil {
		if repository.IsNotFound(err) {
			zap.L().Warn("payment references unknown order, skipped",
				zap.String("payment_id", p.ID.String()),
				zap.Int64("order_id", orderID),
				zap.String("namespace", "webhook"))
			return &SyncResult{OrderID: orderID}, nil
		}
		return nil, err
	}

	res := &SyncResult{
		Linked:        true,
		OrderID:       orderID,
		PaymentEstado: mercadopago.PaymentStatusFor(p.Status),
		OrderEstado:   mercadopago.OrderStatusFor(p.Status),
	}

	row, err := r.upsertPayment(ctx, orderID, p, res.PaymentEstado)
	if err != nil {
		return nil, err
	}
	res.PaymentRowID = row.ID

	if err := r.orders.UpdateStatus(ctx, orderID, res.OrderEstado, p.ID.String()); err != nil {
		return nil, errors.Wrapf(err, "update order %d", orderID)
	}

	zap.L().Info("payment reconciled",
		zap.String("payment_id", p.ID.String()),
		zap.Int64("order_id", orderID),
		zap.String("payment_estado", string(res.PaymentEstado)),
		zap.String("order_estado", string(res.OrderEstado)),
		zap.String("namespace", "webhook"))
	return res, nil
}

func (r *Reconciler) upsertPayment(ctx context.Context, orderID int64, p *mercadopago.Payment, estado domain.PaymentStatus) (*domain.Payment, error) {
	paymentID := p.ID.String()
	raw := p.Raw
	if len(raw) == 0 {
		raw, _ = jsonc.Marshal(p)
	}

	existing, err := r.payments.GetByPaymentID(ctx, paymentID)
	if err != nil && !repository.IsNotFound(err) {
		return nil, err
	}

	if existing == nil {
		row := &domain.Payment{
			OrderID:     orderID,
			PaymentID:   paymentID,
			Type:        "checkout",
			Method:      p.Method(),
			Estado:      estado,
			Amount:      p.TransactionAmount,
			Currency:    p.CurrencyID,
			RawResponse: datatypes.JSON(raw),
			Creation:    p.CreatedAt(),
			Update:      p.UpdatedAt(),
			PublishedAt: r.now(),
		}
		createErr := r.payments.Create(ctx, row)
		if createErr == nil {
			return row, nil
		}
		// a concurrent delivery may have inserted the row first
		existing, err = r.payments.GetByPaymentID(ctx, paymentID)
		if err != nil {
			return nil, errors.Wrapf(createErr, "create payment %s", paymentID)
		}
	}

	existing.Estado = estado
	existing.Method = p.Method()
	existing.Amount = p.TransactionAmount
	existing.Currency = p.CurrencyID
	existing.RawResponse = datatypes.JSON(raw)
	existing.Update = p.UpdatedAt()
	if err := r.payments.Update(ctx, existing); err != nil {
		return nil, errors.Wrapf(err, "update payment %s", paymentID)
	}
	return existing, nil
}

// record appends to the delivery log; failures are only logged.
func (r *Reconciler) record(ctx context.Context, n Notification, outcome string, procErr error, received time.Time) {
	if r.events == nil {
		return
	}
	ev := &domain.WebhookEvent{
		Kind:       n.Type,
		ResourceID: n.ID,
		Outcome:    outcome,
		ReceivedAt: received,
	}
	if procErr != nil {
		ev.ErrorMsg = procErr.Error()
	}
	if err := r.events.Create(ctx, ev); err != nil {
		zap.L().Warn("failed to record webhook event", zap.Error(err), zap.String("namespace", "webhook"))
	}
}

// PurgeEvents drops delivery log entries older than retention.
func (r *Reconciler) PurgeEvents(ctx context.Context, retention time.Duration) (int64, error) {
	if r.events == nil {
		return 0, nil
	}
	return r.events.DeleteOlderThan(ctx, r.now().Add(-retention))
}
