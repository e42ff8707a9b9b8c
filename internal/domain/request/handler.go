package request

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/bloodnet/inventory/internal/domain/bloodunit"
	"github.com/bloodnet/inventory/internal/platform/auth"
	"github.com/bloodnet/inventory/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireOperation(auth.OpRequestRead))
	read.GET("/requests", h.List)
	read.GET("/requests/:id", h.Get)
	read.GET("/requests/:id/matches", h.Matches)

	write := api.Group("", auth.RequireOperation(auth.OpRequestWrite))
	write.POST("/requests", h.Create)
	write.POST("/requests/:id/cancel", h.Cancel)

	fulfill := api.Group("", auth.RequireOperation(auth.OpRequestFulfill))
	fulfill.PUT("/requests/:id/reserve/:unitId", h.Reserve)
	fulfill.POST("/requests/:id/fulfill", h.Fulfill)
}

func domainError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "blood request not found")
	case errors.Is(err, bloodunit.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "blood unit not found")
	case errors.Is(err, bloodunit.ErrInvalidTransition), errors.Is(err, bloodunit.ErrStatusConflict):
		return echo.NewHTTPError(http.StatusConflict, map[string]string{
			"code":    "INVALID_STATE_TRANSITION",
			"message": err.Error(),
		})
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func parseID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) Create(c echo.Context) error {
	var r BloodRequest
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &r); err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	r, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := Filters{
		Status:  Status(c.QueryParam("status")),
		Urgency: Urgency(c.QueryParam("urgency")),
	}
	if requester := c.QueryParam("requester"); requester != "" {
		id, err := uuid.Parse(requester)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid requester id")
		}
		f.RequesterID = &id
	}
	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) Matches(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	selectN := 0
	if raw := c.QueryParam("autoSelect"); raw != "" {
		if raw == "true" {
			selectN = -1
		} else {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				return echo.NewHTTPError(http.StatusBadRequest, "autoSelect must be true or a positive integer")
			}
			selectN = n
		}
	}
	set, err := h.svc.Matches(c.Request().Context(), id, selectN)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, set)
}

func (h *Handler) Reserve(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	unitID, err := parseID(c, "unitId")
	if err != nil {
		return err
	}
	u, err := h.svc.Reserve(c.Request().Context(), id, unitID)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) Fulfill(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var body struct {
		UnitIDs []uuid.UUID `json:"unitIds"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r, err := h.svc.Fulfill(c.Request().Context(), id, body.UnitIDs)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	r, err := h.svc.Cancel(c.Request().Context(), id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, r)
}
