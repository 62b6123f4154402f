package domain

// OrderStatus order lifecycle state (estado)
type OrderStatus string

const (
	OrderPendingPayment    OrderStatus = "pending_payment"
	OrderPaymentProcessing OrderStatus = "payment_processing"
	OrderPaid              OrderStatus = "paid"
	OrderRefounded         OrderStatus = "refounded" // spelling is part of the stored vocabulary
	OrderCanceled          OrderStatus = "canceled"
)

// PaymentStatus payment lifecycle state (estado)
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
	PaymentRejected PaymentStatus = "rejected"
	PaymentRefunded PaymentStatus = "refunded"
)

// Webhook delivery outcomes recorded in WebhookEvent.Outcome
const (
	WebhookProcessed = "processed"
	WebhookIgnored   = "ignored"
	WebhookFailed    = "failed"
)
