package directory

import (
	"errors"
	"net/http"

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
	read := api.Group("", auth.RequireOperation(auth.OpDirectoryRead))
	read.GET("/donors", h.ListDonors)
	read.GET("/donors/:id", h.GetDonor)
	read.GET("/blood-banks", h.ListBloodBanks)
	read.GET("/blood-banks/:id", h.GetBloodBank)
	read.GET("/institutions", h.ListInstitutions)
	read.GET("/institutions/:id", h.GetInstitution)

	write := api.Group("", auth.RequireOperation(auth.OpDirectoryWrite))
	write.POST("/donors", h.CreateDonor)
	write.PUT("/donors/:id", h.UpdateDonor)
	write.DELETE("/donors/:id", h.DeactivateDonor)
	write.POST("/blood-banks", h.CreateBloodBank)
	write.PUT("/blood-banks/:id", h.UpdateBloodBank)
	write.DELETE("/blood-banks/:id", h.DeactivateBloodBank)
	write.POST("/institutions", h.CreateInstitution)
	write.PUT("/institutions/:id", h.UpdateInstitution)
	write.DELETE("/institutions/:id", h.DeactivateInstitution)
}

func domainError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "directory entry not found")
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) CreateDonor(c echo.Context) error {
	var d Donor
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateDonor(c.Request().Context(), &d); err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDonor(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.GetDonor(c.Request().Context(), id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListDonors(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := DonorFilters{
		Name:       c.QueryParam("name"),
		BloodType:  bloodunit.BloodType(c.QueryParam("bloodType")),
		RhFactor:   bloodunit.RhFactor(c.QueryParam("rhFactor")),
		ActiveOnly: c.QueryParam("active") == "true",
	}
	items, total, err := h.svc.ListDonors(c.Request().Context(), f, pg.Limit, pg.Offset())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) UpdateDonor(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var d Donor
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d.ID = id
	if err := h.svc.UpdateDonor(c.Request().Context(), &d); err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeactivateDonor(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeactivateDonor(c.Request().Context(), id); err != nil {
		return domainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CreateBloodBank(c echo.Context) error {
	var o Organization
	if err := c.Bind(&o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateBloodBank(c.Request().Context(), &o); err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *Handler) GetBloodBank(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	o, err := h.svc.GetBloodBank(c.Request().Context(), id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) ListBloodBanks(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := OrgFilters{Name: c.QueryParam("name"), ActiveOnly: c.QueryParam("active") == "true"}
	items, total, err := h.svc.ListBloodBanks(c.Request().Context(), f, pg.Limit, pg.Offset())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) UpdateBloodBank(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var o Organization
	if err := c.Bind(&o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	o.ID = id
	if err := h.svc.UpdateBloodBank(c.Request().Context(), &o); err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) DeactivateBloodBank(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeactivateBloodBank(c.Request().Context(), id); err != nil {
		return domainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CreateInstitution(c echo.Context) error {
	var o Organization
	if err := c.Bind(&o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateInstitution(c.Request().Context(), &o); err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *Handler) GetInstitution(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	o, err := h.svc.GetInstitution(c.Request().Context(), id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) ListInstitutions(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := OrgFilters{Name: c.QueryParam("name"), ActiveOnly: c.QueryParam("active") == "true"}
	items, total, err := h.svc.ListInstitutions(c.Request().Context(), f, pg.Limit, pg.Offset())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) UpdateInstitution(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var o Organization
	if err := c.Bind(&o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	o.ID = id
	if err := h.svc.UpdateInstitution(c.Request().Context(), &o); err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) DeactivateInstitution(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeactivateInstitution(c.Request().Context(), id); err != nil {
		return domainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
