package visit

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/chamberdesk/chamberdesk/internal/domain/doctor"
	"github.com/chamberdesk/chamberdesk/pkg/pagination"
)

// Renderer turns a record plus the current doctor profile into a
// printable document. The doctor may be nil when none is selected.
type Renderer interface {
	Render(rec Record, doc *doctor.Profile) ([]byte, error)
}

type Handler struct {
	svc      *Service
	doctors  *doctor.Store
	renderer Renderer
}

func NewHandler(svc *Service, doctors *doctor.Store, renderer Renderer) *Handler {
	return &Handler{svc: svc, doctors: doctors, renderer: renderer}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/prescriptions", h.List)
	api.POST("/prescriptions", h.Create)
	api.DELETE("/prescriptions", h.ClearAll)
	api.GET("/prescriptions/:id", h.Get)
	api.PUT("/prescriptions/:id", h.Update)
	api.DELETE("/prescriptions/:id", h.Delete)
	api.GET("/prescriptions/:id/pdf", h.RenderPDF)
}

func idParam(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// List returns records newest first, optionally filtered to one patient
// via ?puid=.
func (h *Handler) List(c echo.Context) error {
	records := h.svc.Store().LoadAll(c.Request().Context())
	if records == nil {
		records = []Record{}
	}

	if raw := c.QueryParam("puid"); raw != "" {
		puid, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid puid")
		}
		filtered := make([]Record, 0, len(records))
		for _, r := range records {
			if r.PUID == puid {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	pg := pagination.FromContext(c)
	lo, hi := pg.Slice(len(records))
	return c.JSON(http.StatusOK, pagination.NewResponse(records[lo:hi], len(records), pg.Limit, pg.Offset))
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	rec, err := h.svc.Store().GetByID(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "prescription not found")
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var patch Patch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.Update(c.Request().Context(), id, patch)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "prescription not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	h.svc.Store().Remove(c.Request().Context(), id)
	return c.NoContent(http.StatusNoContent)
}

// ClearAll wipes every record and resets the id sequence.
func (h *Handler) ClearAll(c echo.Context) error {
	h.svc.Store().ClearAll(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

// RenderPDF renders one prescription against the currently selected
// doctor's letterhead.
func (h *Handler) RenderPDF(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	rec, err := h.svc.Store().GetByID(ctx, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "prescription not found")
	}
	current, err := h.doctors.Current(ctx)
	if err != nil {
		current = nil
	}
	out, err := h.renderer.Render(*rec, current)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "prescription rendering unavailable")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="prescription-%d.pdf"`, rec.ID))
	return c.Blob(http.StatusOK, "application/pdf", out)
}
