package mercadopago

import "github.com/bjo163/tienda/internal/domain"

// PaymentStatusFor maps the provider status vocabulary onto Payment.Estado.
func PaymentStatusFor(status string) domain.PaymentStatus {
	switch status {
	case "approved":
		return domain.PaymentApproved
	case "refunded", "charged_back":
		return domain.PaymentRefunded
	case "rejected", "cancelled":
		return domain.PaymentRejected
	default:
		return domain.PaymentPending
	}
}

// OrderStatusFor maps the provider status vocabulary onto Order.Estado.
func OrderStatusFor(status string) domain.OrderStatus {
	switch status {
	case "approved":
		return domain.OrderPaid
	case "refunded", "charged_back":
		return domain.OrderRefounded
	case "rejected", "cancelled":
		return domain.OrderCanceled
	default:
		return domain.OrderPaymentProcessing
	}
}
