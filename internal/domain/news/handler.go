package news

import (
	"net/http"
	"strconv"

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
	read := api.Group("/web/news", auth.RequireRole(auth.RoleUser, auth.RoleOrganisationAdmin))
	read.GET("", h.List)
	read.GET("/:id", h.Get)

	write := api.Group("/web/news", auth.RequireRole(auth.RoleOrganisationAdmin))
	write.POST("", h.Save)
	write.PUT("/:id", h.Edit)
	write.DELETE("/:id", h.Delete)
}

func newsID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid news id")
	}
	return id, nil
}

func bind(c echo.Context) (NewsContract, error) {
	var nc NewsContract
	if err := c.Bind(&nc); err != nil {
		return nc, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(nc); err != nil {
		return nc, httperr.From(c, err)
	}
	return nc, nil
}

func (h *Handler) List(c echo.Context) error {
	page, err := h.svc.ListNews(c.Request().Context(), pagination.FromContext(c))
	if err != nil {
		return httperr.From(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := newsID(c)
	if err != nil {
		return err
	}
	n, err := h.svc.GetNews(c.Request().Context(), id)
	if err != nil {
		return httperr.From(c, err)
	}
	return c.JSON(http.StatusOK, ContractFrom(n))
}

func (h *Handler) Save(c echo.Context) error {
	nc, err := bind(c)
	if err != nil {
		return err
	}
	n, err := h.svc.SaveNews(c.Request().Context(), nc)
	if err != nil {
		return httperr.From(c, err)
	}
	return c.JSON(http.StatusOK, ContractFrom(n))
}

func (h *Handler) Edit(c echo.Context) error {
	id, err := newsID(c)
	if err != nil {
		return err
	}
	nc, err := bind(c)
	if err != nil {
		return err
	}
	n, err := h.svc.EditNews(c.Request().Context(), id, nc)
	if err != nil {
		return httperr.From(c, err)
	}
	return c.JSON(http.StatusOK, ContractFrom(n))
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := newsID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteNews(c.Request().Context(), id); err != nil {
		return httperr.From(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
