// Package customer implements upsert-by-email customer records.
package customer

import (
	"context"
	"reflect"
	"strings"

	"github.com/bjo163/tienda/internal/apperr"
	"github.com/bjo163/tienda/internal/domain"
	"github.com/bjo163/tienda/internal/repository"
	"github.com/bjo163/tienda/pkg/common"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type Registry struct {
	repo     repository.CustomerRepository
	validate *validator.Validate
}

func NewRegistry(repo repository.CustomerRepository) *Registry {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Registry{repo: repo, validate: v}
}

// Validate reports the first missing field as "<prefix><field> is required".
func (r *Registry) Validate(in Input, prefix string) error {
	err := r.validate.Struct(in)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		return apperr.InvalidInput("%s%s is required", prefix, verrs[0].Field())
	}
	return apperr.InvalidInput("invalid customer")
}

// Upsert finds the customer by normalized email and refreshes
// name/lastname/phone, or creates it. The email never changes.
func (r *Registry) Upsert(ctx context.Context, in Input) (*domain.Customer, error) {
	return r.upsert(ctx, in, "")
}

// UpsertInline is Upsert for a customer nested in a checkout body; missing
// fields are reported as cliente.<field>, email before the others.
func (r *Registry) UpsertInline(ctx context.Context, in Input) (*domain.Customer, error) {
	return r.upsert(ctx, in, "cliente.")
}

func (r *Registry) upsert(ctx context.Context, in Input, prefix string) (*domain.Customer, error) {
	in = in.Normalize()
	// checkout bodies are keyed by email, so it is reported first
	if prefix != "" && in.Email == "" {
		return nil, apperr.InvalidInput("%semail is required", prefix)
	}
	if err := r.Validate(in, prefix); err != nil {
		return nil, err
	}

	existing, err := r.repo.GetByEmail(ctx, string(in.Email))
	switch {
	case err == nil:
		existing.Name = string(in.Name)
		existing.Lastname = string(in.Lastname)
		existing.Phone = string(in.Phone)
		if err := r.repo.Update(ctx, existing); err != nil {
			return nil, r.internal(err, "failed to update customer")
		}
		return existing, nil
	case repository.IsNotFound(err):
	default:
		return nil, r.internal(err, "failed to query customer")
	}

	c := &domain.Customer{
		Name:     string(in.Name),
		Lastname: string(in.Lastname),
		Email:    string(in.Email),
		Phone:    string(in.Phone),
	}
	if err := r.repo.Create(ctx, c); err != nil {
		return nil, r.internal(err, "failed to create customer")
	}
	return c, nil
}

// Get returns NotFound when the customer does not exist.
func (r *Registry) Get(ctx context.Context, id int64) (*domain.Customer, error) {
	c, err := r.repo.GetByID(ctx, id)
	if repository.IsNotFound(err) {
		return nil, apperr.NotFound("customer not found: %d", id)
	}
	if err != nil {
		return nil, r.internal(err, "failed to query customer")
	}
	return c, nil
}

// Recent lists the newest customers first.
func (r *Registry) Recent(ctx context.Context, limit int) ([]*domain.Customer, error) {
	list, err := r.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, r.internal(err, "failed to list customers")
	}
	return list, nil
}

func (r *Registry) internal(err error, msg string) error {
	errorID := common.ErrorID()
	zap.L().Error(msg,
		zap.String("errorId", errorID),
		zap.Error(err),
		zap.String("namespace", "customer"))
	return apperr.Internal(err, errorID, msg)
}
