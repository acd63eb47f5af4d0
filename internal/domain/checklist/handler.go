package checklist

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openchs/openchs-server/internal/platform/auth"
	"github.com/openchs/openchs-server/internal/platform/httperr"
	"github.com/openchs/openchs-server/internal/platform/validate"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleUser, auth.RoleOrganisationAdmin))
	read.GET("/checklistDetail", h.List)
	read.GET("/checklistDetail/:uuid", h.Get)

	write := api.Group("", auth.RequireRole(auth.RoleOrganisationAdmin))
	write.POST("/checklistDetail", h.Save)
}

func (h *Handler) Save(c echo.Context) error {
	var dc ChecklistDetailContract
	if err := c.Bind(&dc); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(dc); err != nil {
		return httperr.From(c, err)
	}
	d, err := h.svc.SaveChecklistDetail(c.Request().Context(), dc)
	if err != nil {
		return httperr.From(c, err)
	}
	return c.JSON(http.StatusOK, ContractFrom(d))
}

func (h *Handler) Get(c echo.Context) error {
	d, err := h.svc.GetChecklistDetail(c.Request().Context(), c.Param("uuid"))
	if err != nil {
		return httperr.From(c, err)
	}
	return c.JSON(http.StatusOK, ContractFrom(d))
}

func (h *Handler) List(c echo.Context) error {
	details, err := h.svc.ListActive(c.Request().Context())
	if err != nil {
		return httperr.From(c, err)
	}
	out := make([]ChecklistDetailContract, 0, len(details))
	for _, d := range details {
		out = append(out, ContractFrom(d))
	}
	return c.JSON(http.StatusOK, out)
}
