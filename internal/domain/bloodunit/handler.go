package bloodunit

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/bloodnet/inventory/internal/platform/auth"
	"github.com/bloodnet/inventory/pkg/pagination"
)

type Handler struct {
	svc            *Service
	expirySoonDays int
}

func NewHandler(svc *Service, expirySoonDays int) *Handler {
	return &Handler{svc: svc, expirySoonDays: expirySoonDays}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireOperation(auth.OpUnitRead))
	read.GET("/donations", h.List)
	read.GET("/donations/:id", h.Get)
	read.GET("/donations/:id/tracking", h.Tracking)
	read.GET("/donations/blood-units/stats", h.Stats)
	read.GET("/donations/blood-units/expired", h.Expired)
	read.GET("/donations/blood-units/expiring-soon", h.ExpiringSoon)

	write := api.Group("", auth.RequireOperation(auth.OpUnitWrite))
	write.POST("/donations", h.Create)
	write.PATCH("/donations/:id/status", h.Advance)
	write.PATCH("/donations/:id/dispatch", h.Dispatch)
	write.PATCH("/donations/:id/use", h.Use)
	write.PUT("/donations/:id/expire", h.Expire)
	write.PUT("/donations/:id/reserve/:requestId", h.Reserve)
	write.PUT("/donations/:id/release", h.Release)

	discard := api.Group("", auth.RequireOperation(auth.OpUnitDiscard))
	discard.PATCH("/donations/:id/discard", h.Discard)
	discard.POST("/donations/bulk-discard", h.BulkDiscard)
	discard.POST("/donations/blood-units/process-expired", h.ProcessExpired)
}

// domainError maps service errors onto HTTP status codes. State conflicts are
// 409 so the UI can tell "refresh and retry" apart from plain bad input.
func domainError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "blood unit not found")
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrStatusConflict):
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
	var u BloodUnit
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &u); err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	u, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := Filters{
		Status:       Status(c.QueryParam("status")),
		BloodType:    BloodType(c.QueryParam("bloodType")),
		RhFactor:     RhFactor(c.QueryParam("rhFactor")),
		DonationType: DonationType(c.QueryParam("donationType")),
	}
	if bank := c.QueryParam("bloodBank"); bank != "" {
		id, err := uuid.Parse(bank)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid bloodBank id")
		}
		f.BloodBankID = &id
	}
	units, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(units, total, pg))
}

func (h *Handler) Tracking(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	events, err := h.svc.Tracking(c.Request().Context(), id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"unitId": id, "history": events})
}

func (h *Handler) Advance(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var body struct {
		Status Status `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u, err := h.svc.Advance(c.Request().Context(), id, body.Status)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) Dispatch(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var body struct {
		DispatchedTo uuid.UUID  `json:"dispatchedTo"`
		DispatchedAt *time.Time `json:"dispatchedAt"`
		Notes        string     `json:"notes"`
		ForRequest   *uuid.UUID `json:"forRequest"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u, err := h.svc.Dispatch(c.Request().Context(), id, DispatchParams{
		To:         body.DispatchedTo,
		At:         body.DispatchedAt,
		Notes:      body.Notes,
		ForRequest: body.ForRequest,
	})
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) Use(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var body struct {
		UsedFor string     `json:"usedFor"`
		UsedAt  *time.Time `json:"usedAt"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u, err := h.svc.Use(c.Request().Context(), id, body.UsedFor, body.UsedAt)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) Discard(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var body struct {
		DiscardReason DiscardReason `json:"discardReason"`
		DiscardedAt   *time.Time    `json:"discardedAt"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u, err := h.svc.Discard(c.Request().Context(), id, body.DiscardReason, body.DiscardedAt)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) BulkDiscard(c echo.Context) error {
	var body struct {
		DonationIDs   []uuid.UUID   `json:"donationIds"`
		DiscardReason DiscardReason `json:"discardReason"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	results, err := h.svc.BulkDiscard(c.Request().Context(), body.DonationIDs, body.DiscardReason)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"results": results})
}

func (h *Handler) Expire(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	u, err := h.svc.Expire(c.Request().Context(), id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) Reserve(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	requestID, err := uuid.Parse(c.Param("requestId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request id")
	}
	u, err := h.svc.Reserve(c.Request().Context(), id, requestID)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) Release(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	u, err := h.svc.Release(c.Request().Context(), id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) ProcessExpired(c echo.Context) error {
	count, err := h.svc.ProcessExpired(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int{"processedCount": count})
}

func (h *Handler) Expired(c echo.Context) error {
	pg := pagination.FromContext(c)
	views, total, err := h.svc.Expired(c.Request().Context(), pg.Limit, pg.Offset())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(views, total, pg))
}

func (h *Handler) ExpiringSoon(c echo.Context) error {
	pg := pagination.FromContext(c)
	days := h.expirySoonDays
	if raw := c.QueryParam("days"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "days must be a positive integer")
		}
		days = d
	}
	views, total, err := h.svc.ExpiringSoon(c.Request().Context(), days, pg.Limit, pg.Offset())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(views, total, pg))
}

func (h *Handler) Stats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context(), h.expirySoonDays)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}
