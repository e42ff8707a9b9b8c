package application

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

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
	// Submission is open: applicants have no account yet.
	api.POST("/applications", h.Submit, auth.RequireOperation(auth.OpAppSubmit))

	read := api.Group("", auth.RequireOperation(auth.OpAppRead))
	read.GET("/applications", h.List)
	read.GET("/applications/:id", h.Get)

	api.PATCH("/applications/:id/review", h.Review, auth.RequireOperation(auth.OpAppReview))
}

func domainError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "application not found")
	case errors.Is(err, ErrAlreadyDecided):
		return echo.NewHTTPError(http.StatusConflict, map[string]string{
			"code":    "INVALID_STATE_TRANSITION",
			"message": err.Error(),
		})
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func (h *Handler) Submit(c echo.Context) error {
	var a Application
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Submit(c.Request().Context(), &a); err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), Status(c.QueryParam("status")), pg.Limit, pg.Offset())
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) Review(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Status          Status `json:"status"`
		RejectionReason string `json:"rejectionReason"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.Review(c.Request().Context(), id, body.Status, body.RejectionReason)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, a)
}
