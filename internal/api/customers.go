package api

import (
	"time"

	"github.com/bjo163/tienda/internal/apperr"
	"github.com/bjo163/tienda/internal/customer"
	"github.com/bjo163/tienda/internal/domain"
	"github.com/bjo163/tienda/internal/webserver"
	"github.com/labstack/echo/v4"
)

// RecentCustomersLimit is the size of the public customer listing.
const RecentCustomersLimit = 50

type customerResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Lastname string `json:"lastname"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

func toCustomerResponse(c *domain.Customer) customerResponse {
	return customerResponse{
		ID:       c.ID,
		Name:     c.Name,
		Lastname: c.Lastname,
		Email:    c.Email,
		Phone:    c.Phone,
	}
}

// customerListing is a customerResponse with its timestamps.
type customerListing struct {
	customerResponse
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (h *Handlers) registerCustomerRoutes(s *webserver.WebServer) {
	s.ApiPOST("/clientes/public", h.upsertCustomer)
	s.ApiGET("/clientes/public", h.listCustomers)
}

func (h *Handlers) upsertCustomer(c echo.Context) error {
	var in customer.Input
	if err := c.Bind(&in); err != nil {
		return fail(c, apperr.InvalidInput("invalid request body"))
	}
	cust, err := h.customers.Upsert(c.Request().Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, toCustomerResponse(cust))
}

func (h *Handlers) listCustomers(c echo.Context) error {
	rows, err := h.customers.Recent(c.Request().Context(), RecentCustomersLimit)
	if err != nil {
		return fail(c, err)
	}
	data := make([]customerListing, 0, len(rows))
	for _, r := range rows {
		data = append(data, customerListing{
			customerResponse: toCustomerResponse(r),
			CreatedAt:        r.CreatedAt,
			UpdatedAt:        r.UpdatedAt,
		})
	}
	return list(c, data)
}
