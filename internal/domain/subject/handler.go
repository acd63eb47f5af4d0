package subject

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
	svc   *Service
	rules *RulesService
}

func NewHandler(svc *Service, rules *RulesService) *Handler {
	return &Handler{svc: svc, rules: rules}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	user := api.Group("", auth.RequireRole(auth.RoleUser))
	user.GET("/api/programEncounter/:id", h.GetProgramEncounter)
	user.POST("/api/programEncounter", h.CreateProgramEncounter)
	user.PUT("/api/programEncounter/:id", h.UpdateProgramEncounter)
	user.POST("/api/rules/programEnrolment", h.ProgramEnrolmentContract)
	user.GET("/api/rules/checklistDetails", h.ChecklistDetails)

	shared := api.Group("", auth.RequireRole(auth.RoleUser, auth.RoleOrganisationAdmin))
	shared.POST("/groupSubjects", h.SaveGroupSubject)
	shared.GET("/groupSubject", h.GroupSubjects)
	shared.GET("/web/groupSubjects/:groupId/members", h.GroupMembers)
	shared.GET("/web/groupSubjects/:groupId/roles", h.GroupRoles)
}

func (h *Handler) bindEncounter(c echo.Context) (ApiProgramEncounterRequest, error) {
	var req ApiProgramEncounterRequest
	if err := c.Bind(&req); err != nil {
		return req, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return req, httperr.From(c, err)
	}
	return req, nil
}

func (h *Handler) GetProgramEncounter(c echo.Context) error {
	resp, err := h.svc.GetProgramEncounter(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httperr.From(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) CreateProgramEncounter(c echo.Context) error {
	req, err := h.bindEncounter(c)
	if err != nil {
		return err
	}
	resp, err := h.svc.CreateProgramEncounter(c.Request().Context(), req)
	if err != nil {
		return httperr.From(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) UpdateProgramEncounter(c echo.Context) error {
	req, err := h.bindEncounter(c)
	if err != nil {
		return err
	}
	resp, err := h.svc.UpdateProgramEncounter(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return httperr.From(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) ProgramEnrolmentContract(c echo.Context) error {
	var req ProgramEnrolmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return httperr.From(c, err)
	}
	contract, err := h.rules.ConstructProgramEnrolmentContract(c.Request().Context(), req)
	if err != nil {
		return httperr.From(c, err)
	}
	return c.JSON(http.StatusOK, contract)
}

func (h *Handler) ChecklistDetails(c echo.Context) error {
	details, err := h.rules.ConstructChecklistDetailRequests(c.Request().Context())
	if err != nil {
		return httperr.From(c, err)
	}
	return c.JSON(http.StatusOK, details)
}

func (h *Handler) SaveGroupSubject(c echo.Context) error {
	var req GroupSubjectContract
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return httperr.From(c, err)
	}
	if _, err := h.svc.SaveGroupSubject(c.Request().Context(), req); err != nil {
		return httperr.From(c, err)
	}
	return c.NoContent(http.StatusOK)
}

func (h *Handler) GroupSubjects(c echo.Context) error {
	from, to, err := pagination.SyncWindow(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	page, err := h.svc.GroupSubjectsModifiedBetween(c.Request().Context(),
		c.QueryParam("subjectTypeUuid"), from, to, pagination.FromContext(c))
	if err != nil {
		return httperr.From(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func groupID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("groupId"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid Group Id")
	}
	return id, nil
}

func (h *Handler) GroupMembers(c echo.Context) error {
	id, err := groupID(c)
	if err != nil {
		return err
	}
	members, err := h.svc.GroupMembers(c.Request().Context(), id)
	if err != nil {
		return httperr.From(c, err)
	}
	return c.JSON(http.StatusOK, members)
}

func (h *Handler) GroupRoles(c echo.Context) error {
	id, err := groupID(c)
	if err != nil {
		return err
	}
	roles, err := h.svc.GroupRoles(c.Request().Context(), id)
	if err != nil {
		return httperr.From(c, err)
	}
	return c.JSON(http.StatusOK, roles)
}
