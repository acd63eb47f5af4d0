// Package httperr turns service errors into HTTP responses.
package httperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/openchs/openchs-server/internal/platform/validate"
	"github.com/openchs/openchs-server/internal/reconcile"
)

// From maps err to an *echo.HTTPError. A missing reference is 404 when the
// request reads it directly and 400 when a write cites it.
func From(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var verr *validate.Error
	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusBadRequest, verr.Error())
	case errors.Is(err, reconcile.ErrReferenceNotFound):
		if c.Request().Method == http.MethodGet {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, reconcile.ErrInvalidRequestState):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("request failed")
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
}

// Handler writes every error as {"message": "..."}.
func Handler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := From(c, err).(*echo.HTTPError)
	if !ok {
		he = echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	msg := he.Message
	if s, ok := msg.(string); !ok || s == "" {
		msg = http.StatusText(he.Code)
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(he.Code)
		return
	}
	_ = c.JSON(he.Code, map[string]interface{}{"message": msg})
}
