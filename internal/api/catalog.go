package api

import (
	"strconv"
	"strings"

	"github.com/bjo163/tienda/internal/apperr"
	"github.com/bjo163/tienda/internal/catalog"
	"github.com/bjo163/tienda/internal/repository"
	"github.com/bjo163/tienda/internal/webserver"
	"github.com/labstack/echo/v4"
)

type productQuery struct {
	Page     int    `query:"page" validate:"omitempty,min=1"`
	PageSize int    `query:"pageSize" validate:"omitempty,min=1"`
	PerPage  int    `query:"perPage" validate:"omitempty,min=1"` // alias of pageSize
	Q        string `query:"q"`
	Name     string `query:"name"`
	Category int64  `query:"categoria" validate:"omitempty,min=1"`
}

func (h *Handlers) registerCatalogRoutes(s *webserver.WebServer) {
	s.ApiGET("/productos", h.listProducts)
	s.ApiGET("/productos/:id", h.getProduct)
	s.ApiGET("/categorias", h.listCategories)
	s.ApiGET("/categorias/:id", h.getCategory)
}

func (h *Handlers) listProducts(c echo.Context) error {
	var q productQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return fail(c, apperr.InvalidInput("invalid query parameters"))
	}
	if err := c.Validate(&q); err != nil {
		return fail(c, apperr.InvalidInput("invalid query parameters"))
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := q.PageSize
	if q.PerPage > 0 {
		pageSize = q.PerPage
	}
	if pageSize < 1 {
		pageSize = catalog.DefaultPageSize
	}
	pageSize = min(pageSize, catalog.MaxPageSize)

	filter := repository.ProductFilter{
		CategoryID: q.Category,
		Name:       strings.TrimSpace(q.Name),
	}
	if filter.Name == "" {
		filter.Name = strings.TrimSpace(q.Q)
	}

	rows, total, err := h.catalog.ListProducts(c.Request().Context(), filter, page, pageSize)
	if err != nil {
		return fail(c, err)
	}
	return paged(c, rows, total, page, pageSize)
}

func pathID(c echo.Context, what string) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidInput("invalid %s id", what)
	}
	return id, nil
}

func (h *Handlers) getProduct(c echo.Context) error {
	id, err := pathID(c, "product")
	if err != nil {
		return fail(c, err)
	}
	p, err := h.catalog.GetProduct(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, p)
}

func (h *Handlers) listCategories(c echo.Context) error {
	rows, err := h.catalog.ListCategories(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return list(c, rows)
}

func (h *Handlers) getCategory(c echo.Context) error {
	id, err := pathID(c, "category")
	if err != nil {
		return fail(c, err)
	}
	cat, err := h.catalog.GetCategory(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, cat)
}
