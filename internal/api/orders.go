package api

import (
	"strconv"
	"strings"

	"github.com/bjo163/tienda/internal/apperr"
	"github.com/bjo163/tienda/internal/checkout"
	"github.com/bjo163/tienda/internal/webserver"
	"github.com/labstack/echo/v4"
)

func (h *Handlers) registerOrderRoutes(s *webserver.WebServer) {
	s.ApiPOST("/ordenes/checkout", h.checkoutOrder, s.Authenticated()...)
	s.ApiGET("/ordenes/:id/public-status", h.publicStatus)
}

func (h *Handlers) checkoutOrder(c echo.Context) error {
	var req checkout.Request
	if err := c.Bind(&req); err != nil {
		return fail(c, apperr.InvalidInput("invalid request body"))
	}
	res, err := h.checkout.Checkout(c.Request().Context(), req)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, res)
}

func (h *Handlers) publicStatus(c echo.Context) error {
	// malformed ids fall through as 0 and are rejected by the service
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)

	token := strings.TrimSpace(c.Request().Header.Get(webserver.OrderTokenHeader))
	if token == "" {
		token = strings.TrimSpace(c.QueryParam("token"))
	}

	view, err := h.status.Lookup(c.Request().Context(), id, token)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, view)
}
