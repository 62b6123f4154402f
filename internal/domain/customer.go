package domain

import "time"

// Customer is identified by its lower-cased email; records are never deleted.
type Customer struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:200" json:"name"`
	Lastname  string    `gorm:"size:200" json:"lastname"`
	Email     string    `gorm:"size:320;uniqueIndex" json:"email"`
	Phone     string    `gorm:"size:64" json:"phone"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Customer) TableName() string {
	return "clientes"
}
