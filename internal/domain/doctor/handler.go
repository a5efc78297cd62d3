package doctor

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/chamberdesk/chamberdesk/internal/domain/sequence"
)

type Handler struct {
	store *Store
	seq   *sequence.Allocator
}

func NewHandler(store *Store, seq *sequence.Allocator) *Handler {
	return &Handler{store: store, seq: seq}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/doctors", h.List)
	api.POST("/doctors", h.Create)
	api.DELETE("/doctors", h.ClearAll)
	api.GET("/doctors/current", h.GetCurrent)
	api.PUT("/doctors/current", h.SetCurrent)
	api.GET("/doctors/:id", h.Get)
	api.PUT("/doctors/:id", h.Update)
	api.DELETE("/doctors/:id", h.Delete)
}

func idParam(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) List(c echo.Context) error {
	profiles := h.store.LoadAll(c.Request().Context())
	if profiles == nil {
		profiles = []Profile{}
	}
	return c.JSON(http.StatusOK, profiles)
}

func (h *Handler) Create(c echo.Context) error {
	var p Profile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(p.Name) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	ctx := c.Request().Context()
	p.ID = h.seq.NextID(ctx)
	h.store.Add(ctx, p)

	// The first doctor becomes current automatically.
	if h.store.CurrentDoctorID(ctx) == nil && len(h.store.LoadAll(ctx)) == 1 {
		h.store.SetCurrentDoctorID(ctx, &p.ID)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	p, err := h.store.GetByID(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}
	return c.JSON(http.StatusOK, p)
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
	ctx := c.Request().Context()
	h.store.Update(ctx, id, patch)
	p, err := h.store.GetByID(ctx, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	h.store.Remove(c.Request().Context(), id)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ClearAll(c echo.Context) error {
	h.store.ClearAll(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

// GetCurrent returns the selected doctor, or a null body when none is
// selected.
func (h *Handler) GetCurrent(c echo.Context) error {
	p, err := h.store.Current(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusOK, nil)
	}
	return c.JSON(http.StatusOK, p)
}

type setCurrentRequest struct {
	ID *int `json:"id"`
}

// SetCurrent points the current-doctor selection at an existing profile;
// a null id clears the selection.
func (h *Handler) SetCurrent(c echo.Context) error {
	var req setCurrentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	if req.ID != nil {
		if _, err := h.store.GetByID(ctx, *req.ID); err != nil {
			return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
		}
	}
	h.store.SetCurrentDoctorID(ctx, req.ID)
	return h.GetCurrent(c)
}
