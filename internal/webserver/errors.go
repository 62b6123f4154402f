package webserver

import (
	"net/http"

	"github.com/bjo163/tienda/internal/apperr"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// ErrorDetail is the body of every failed response:
// {"error":{"status":400,"name":"InvalidInput","message":"..."}}
type ErrorDetail struct {
	Status  int    `json:"status"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

func statusName(status int) string {
	switch status {
	case http.StatusBadRequest:
		return apperr.KindInvalidInput.String()
	case http.StatusUnauthorized:
		return apperr.KindUnauthorized.String()
	case http.StatusForbidden:
		return apperr.KindForbidden.String()
	case http.StatusNotFound:
		return apperr.KindNotFound.String()
	case http.StatusBadGateway:
		return apperr.KindUpstream.String()
	}
	if status >= 500 {
		return apperr.KindInternal.String()
	}
	return http.StatusText(status)
}

// ToBody maps any error onto the public error shape. Errors outside the
// apperr taxonomy never expose their text.
func ToBody(err error) ErrorBody {
	if e, ok := apperr.As(err); ok {
		return ErrorBody{Error: ErrorDetail{Status: e.Status(), Name: e.Kind.String(), Message: e.Message}}
	}
	if he, ok := err.(*echo.HTTPError); ok {
		msg := cast.ToString(he.Message)
		if msg == "" {
			msg = http.StatusText(he.Code)
		}
		return ErrorBody{Error: ErrorDetail{Status: he.Code, Name: statusName(he.Code), Message: msg}}
	}
	return ErrorBody{Error: ErrorDetail{
		Status:  http.StatusInternalServerError,
		Name:    apperr.KindInternal.String(),
		Message: "Internal Server Error",
	}}
}

// RenderError writes err using the public error shape.
func RenderError(c echo.Context, err error) error {
	body := ToBody(err)
	return c.JSON(body.Error.Status, body)
}

// HTTPErrorHandler replaces echo's default so routing and middleware errors
// share the handler error shape.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if _, ok := apperr.As(err); !ok {
		if _, ok := err.(*echo.HTTPError); !ok {
			zap.L().Error("unhandled error", zap.Error(err), zap.String("namespace", "http"))
		}
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(ToBody(err).Error.Status)
		return
	}
	if werr := RenderError(c, err); werr != nil {
		zap.L().Error("failed to write error response", zap.Error(werr), zap.String("namespace", "http"))
	}
}
