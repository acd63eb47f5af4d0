package referencedata

import (
	"net/http"
	"strconv"
	"strings"

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
	read.GET("/concept/:uuid", h.GetConcept)
	read.GET("/facility/search/lastModified", h.FacilitiesLastModified)
	read.GET("/facility/search/byCatchmentAndLastModified", h.FacilitiesByCatchment)
	read.GET("/facility/search/findAllById", h.FacilitiesByID)
	read.GET("/operationalEncounterType/search/lastModified", h.OperationalEncounterTypesLastModified)

	write := api.Group("", auth.RequireRole(auth.RoleOrganisationAdmin))
	write.POST("/concepts", h.SaveConcepts)
}

func (h *Handler) SaveConcepts(c echo.Context) error {
	var contracts []ConceptContract
	if err := c.Bind(&contracts); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	for i := range contracts {
		if err := validate.Struct(contracts[i]); err != nil {
			return httperr.From(c, err)
		}
	}
	if err := h.svc.SaveConcepts(c.Request().Context(), contracts); err != nil {
		return httperr.From(c, err)
	}
	return c.NoContent(http.StatusOK)
}

func (h *Handler) GetConcept(c echo.Context) error {
	concept, err := h.svc.Concept(c.Request().Context(), c.Param("uuid"))
	if err != nil {
		return httperr.From(c, err)
	}
	return c.JSON(http.StatusOK, ConceptContractFrom(concept))
}

func (h *Handler) FacilitiesLastModified(c echo.Context) error {
	from, to, err := pagination.SyncWindow(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	page, err := h.svc.FacilitiesModifiedBetween(c.Request().Context(), from, to, pagination.FromContext(c))
	if err != nil {
		return httperr.From(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *Handler) FacilitiesByCatchment(c echo.Context) error {
	catchmentID, err := strconv.ParseInt(c.QueryParam("catchmentId"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid catchmentId")
	}
	from, to, err := pagination.SyncWindow(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	page, err := h.svc.FacilitiesByCatchmentModifiedBetween(c.Request().Context(), catchmentID, from, to, pagination.FromContext(c))
	if err != nil {
		return httperr.From(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// FacilitiesByID accepts ids=1,2,3 as well as repeated ids params.
func (h *Handler) FacilitiesByID(c echo.Context) error {
	var ids []int64
	for _, raw := range c.QueryParams()["ids"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid id: "+part)
			}
			ids = append(ids, id)
		}
	}
	facilities, err := h.svc.FacilitiesByID(c.Request().Context(), ids)
	if err != nil {
		return httperr.From(c, err)
	}
	return c.JSON(http.StatusOK, facilities)
}

func (h *Handler) OperationalEncounterTypesLastModified(c echo.Context) error {
	raw := c.QueryParam("lastModifiedDateTime")
	since, err := pagination.ParseDateTime(raw)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	page, err := h.svc.OperationalEncounterTypesModifiedSince(c.Request().Context(), since, pagination.FromContext(c))
	if err != nil {
		return httperr.From(c, err)
	}
	return c.JSON(http.StatusOK, page)
}
