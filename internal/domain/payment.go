package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Payment mirrors one provider payment. At most one row per PaymentID.
type Payment struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID     int64          `gorm:"index" json:"ordenId"`
	PaymentID   string         `gorm:"size:128;uniqueIndex" json:"paymentId"` // provider payment id
	Type        string         `gorm:"size:32" json:"type"`
	Method      string         `gorm:"size:64" json:"method"`
	Estado      PaymentStatus  `gorm:"size:32;index" json:"estado"`
	Amount      *float64       `json:"amount"`
	Currency    string         `gorm:"size:8" json:"currency"`
	RawResponse datatypes.JSON `json:"-"`
	Creation    *time.Time     `gorm:"column:provider_created_at" json:"creation"`
	Update      *time.Time     `gorm:"column:provider_updated_at" json:"update"`
	PublishedAt time.Time      `json:"publishedAt"`
	CreatedAt   time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func (Payment) TableName() string {
	return "pagos"
}

// WebhookEvent audit trail of provider notifications
type WebhookEvent struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind       string    `gorm:"size:64;index" json:"kind"`
	ResourceID string    `gorm:"size:128;index" json:"resourceId"`
	Outcome    string    `gorm:"size:32" json:"outcome"`
	ErrorMsg   string    `gorm:"type:text" json:"errorMsg"`
	ReceivedAt time.Time `json:"receivedAt"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
}

func (WebhookEvent) TableName() string {
	return "mercadopago_webhook_log"
}
