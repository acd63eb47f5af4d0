package form

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openchs/openchs-server/internal/platform/auth"
	"github.com/openchs/openchs-server/internal/platform/httperr"
	"github.com/openchs/openchs-server/internal/platform/validate"
	"github.com/openchs/openchs-server/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleUser, auth.RoleOrganisationAdmin))
	read.GET("/forms/export", h.ExportForm)
	read.GET("/forms", h.ListForms)
	read.GET("/form/search/lastModified", h.FormsLastModified)

	write := api.Group("", auth.RequireRole(auth.RoleOrganisationAdmin))
	write.POST("/forms", h.SaveForm)
	write.PATCH("/forms", h.PatchForm)
	write.DELETE("/forms/:uuid", h.DeleteForm)
}

func (h *Handler) bind(c echo.Context) (FormContract, error) {
	var fc FormContract
	if err := c.Bind(&fc); err != nil {
		return fc, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(fc); err != nil {
		return fc, httperr.From(c, err)
	}
	return fc, nil
}

func (h *Handler) SaveForm(c echo.Context) error {
	fc, err := h.bind(c)
	if err != nil {
		return err
	}
	if _, err := h.svc.SaveForm(c.Request().Context(), fc); err != nil {
		return httperr.From(c, err)
	}
	return c.NoContent(http.StatusOK)
}

func (h *Handler) PatchForm(c echo.Context) error {
	fc, err := h.bind(c)
	if err != nil {
		return err
	}
	if _, err := h.svc.PatchForm(c.Request().Context(), fc); err != nil {
		return httperr.From(c, err)
	}
	return c.NoContent(http.StatusOK)
}

func (h *Handler) ExportForm(c echo.Context) error {
	formUUID := c.QueryParam("formUUID")
	if formUUID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "formUUID is required")
	}
	fc, err := h.svc.ExportForm(c.Request().Context(), formUUID)
	if err != nil {
		return httperr.From(c, err)
	}
	return c.JSON(http.StatusOK, fc)
}

func (h *Handler) ListForms(c echo.Context) error {
	page, err := h.svc.ListForms(c.Request().Context(), pagination.FromContext(c))
	if err != nil {
		return httperr.From(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *Handler) DeleteForm(c echo.Context) error {
	if err := h.svc.DeleteForm(c.Request().Context(), c.Param("uuid")); err != nil {
		return httperr.From(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) FormsLastModified(c echo.Context) error {
	from, to, err := pagination.SyncWindow(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	page, err := h.svc.FormsModifiedBetween(c.Request().Context(), from, to, pagination.FromContext(c))
	if err != nil {
		return httperr.From(c, err)
	}
	return c.JSON(http.StatusOK, page)
}
