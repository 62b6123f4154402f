package repository

import (
	"context"
	"time"

	"github.com/bjo163/tienda/internal/domain"
	"gorm.io/gorm"
)

// GormStore is the GORM implementation of Store
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-based store
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Customers() CustomerRepository { return NewGormCustomerRepository(s.db) }

func (s *GormStore) Products() ProductRepository { return NewGormProductRepository(s.db) }

func (s *GormStore) Categories() CategoryRepository { return NewGormCategoryRepository(s.db) }

func (s *GormStore) Orders() OrderRepository { return NewGormOrderRepository(s.db) }

func (s *GormStore) Payments() PaymentRepository { return NewGormPaymentRepository(s.db) }

func (s *GormStore) WebhookEvents() WebhookEventRepository {
	return NewGormWebhookEventRepository(s.db)
}

// GormCustomerRepository is the GORM implementation of CustomerRepository
type GormCustomerRepository struct {
	db *gorm.DB
}

func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

func (r *GormCustomerRepository) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	var c domain.Customer
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err, "query customer")
	}
	return &c, nil
}

func (r *GormCustomerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	var c domain.Customer
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&c).Error; err != nil {
		return nil, translate(err, "query customer by email")
	}
	return &c, nil
}

func (r *GormCustomerRepository) Create(ctx context.Context, c *domain.Customer) error {
	return translate(r.db.WithContext(ctx).Create(c).Error, "create customer")
}

func (r *GormCustomerRepository) Update(ctx context.Context, c *domain.Customer) error {
	err := r.db.WithContext(ctx).
		Model(c).
		Updates(map[string]interface{}{
			"name":     c.Name,
			"lastname": c.Lastname,
			"phone":    c.Phone,
		}).Error
	return translate(err, "update customer")
}

func (r *GormCustomerRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Customer, error) {
	var list []*domain.Customer
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&list).Error
	return list, translate(err, "list customers")
}

// GormProductRepository is the GORM implementation of ProductRepository
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translate(err, "query product")
	}
	return &p, nil
}

func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error) {
	var list []*domain.Product
	if len(ids) == 0 {
		return list, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error
	return list, translate(err, "query products")
}

func (r *GormProductRepository) List(ctx context.Context, filter ProductFilter, page, pageSize int) ([]*domain.Product, int64, error) {
	var list []*domain.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Product{})
	if filter.CategoryID > 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Name != "" {
		query = query.Where("name LIKE ?", "%"+filter.Name+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count products")
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("id ASC").
		Offset(offset).
		Limit(pageSize).
		Find(&list).Error
	return list, total, translate(err, "list products")
}

// GormCategoryRepository is the GORM implementation of CategoryRepository
type GormCategoryRepository struct {
	db *gorm.DB
}

func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

func (r *GormCategoryRepository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	var c domain.Category
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err, "query category")
	}
	return &c, nil
}

func (r *GormCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	var list []*domain.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&list).Error
	return list, translate(err, "list categories")
}

// GormOrderRepository is the GORM implementation of OrderRepository
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create inserts order and items in one transaction; gorm saves the
// Items association along with the parent row.
func (r *GormOrderRepository) Create(ctx context.Context, o *domain.Order) error {
	return translate(r.db.WithContext(ctx).Create(o).Error, "create order")
}

func (r *GormOrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	var o domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&o, id).Error
	if err != nil {
		return nil, translate(err, "query order")
	}
	return &o, nil
}

func (r *GormOrderRepository) UpdatePaymentID(ctx context.Context, id int64, paymentID string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", id).
		Update("payment_id", paymentID)
	if res.Error != nil {
		return translate(res.Error, "update order payment id")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id int64, estado domain.OrderStatus, paymentID string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"estado":     estado,
			"payment_id": paymentID,
		})
	if res.Error != nil {
		return translate(res.Error, "update order status")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GormPaymentRepository is the GORM implementation of PaymentRepository
type GormPaymentRepository struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) GetByPaymentID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&p).Error; err != nil {
		return nil, translate(err, "query payment")
	}
	return &p, nil
}

func (r *GormPaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	return translate(r.db.WithContext(ctx).Create(p).Error, "create payment")
}

func (r *GormPaymentRepository) Update(ctx context.Context, p *domain.Payment) error {
	return translate(r.db.WithContext(ctx).Save(p).Error, "update payment")
}

func (r *GormPaymentRepository) ListByOrder(ctx context.Context, orderID int64) ([]*domain.Payment, error) {
	var list []*domain.Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&list).Error
	return list, translate(err, "list payments")
}

// GormWebhookEventRepository is the GORM implementation of WebhookEventRepository
type GormWebhookEventRepository struct {
	db *gorm.DB
}

func NewGormWebhookEventRepository(db *gorm.DB) *GormWebhookEventRepository {
	return &GormWebhookEventRepository{db: db}
}

func (r *GormWebhookEventRepository) Create(ctx context.Context, ev *domain.WebhookEvent) error {
	return translate(r.db.WithContext(ctx).Create(ev).Error, "create webhook event")
}

func (r *GormWebhookEventRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", before).
		Delete(&domain.WebhookEvent{})
	return res.RowsAffected, translate(res.Error, "purge webhook events")
}
