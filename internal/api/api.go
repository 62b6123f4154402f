// Package api holds the public HTTP handlers mounted under /api.
package api

import (
	"math"
	"net/http"

	"github.com/bjo163/tienda/internal/catalog"
	"github.com/bjo163/tienda/internal/checkout"
	"github.com/bjo163/tienda/internal/customer"
	"github.com/bjo163/tienda/internal/orderstatus"
	"github.com/bjo163/tienda/internal/webhook"
	"github.com/bjo163/tienda/internal/webserver"
	"github.com/labstack/echo/v4"
)

type Handlers struct {
	customers *customer.Registry
	catalog   *catalog.Service
	checkout  *checkout.Service
	status    *orderstatus.Service
	webhook   *webhook.Reconciler
}

func NewHandlers(
	customers *customer.Registry,
	catalog *catalog.Service,
	checkout *checkout.Service,
	status *orderstatus.Service,
	reconciler *webhook.Reconciler,
) *Handlers {
	return &Handlers{
		customers: customers,
		catalog:   catalog,
		checkout:  checkout,
		status:    status,
		webhook:   reconciler,
	}
}

// Register mounts every public route.
func (h *Handlers) Register(s *webserver.WebServer) {
	h.registerCustomerRoutes(s)
	h.registerCatalogRoutes(s)
	h.registerOrderRoutes(s)
	h.registerWebhookRoutes(s)
}

type pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	PageCount int   `json:"pageCount"`
	Total     int64 `json:"total"`
}

type meta struct {
	Pagination *pagination `json:"pagination,omitempty"`
}

type listResponse struct {
	Data interface{} `json:"data"`
	Meta *meta       `json:"meta,omitempty"`
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

func list(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, listResponse{Data: data})
}

func paged(c echo.Context, data interface{}, total int64, page, pageSize int) error {
	return c.JSON(http.StatusOK, listResponse{
		Data: data,
		Meta: &meta{Pagination: &pagination{
			Page:      page,
			PageSize:  pageSize,
			PageCount: int(math.Ceil(float64(total) / float64(pageSize))),
			Total:     total,
		}},
	})
}

func fail(c echo.Context, err error) error {
	return webserver.RenderError(c, err)
}
