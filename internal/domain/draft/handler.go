package draft

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/draft", h.Get)
	api.PUT("/draft", h.Save)
	api.DELETE("/draft", h.Clear)
}

// Get returns the saved draft as-is, or 204 when none exists.
func (h *Handler) Get(c echo.Context) error {
	raw, err := h.store.Load(c.Request().Context())
	if err != nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSONBlob(http.StatusOK, raw)
}

// Save overwrites the draft with the request body. The body must be
// valid JSON but is otherwise opaque.
func (h *Handler) Save(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}
	if !json.Valid(body) {
		return echo.NewHTTPError(http.StatusBadRequest, "draft must be valid JSON")
	}
	h.store.Save(c.Request().Context(), body)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Clear(c echo.Context) error {
	h.store.Clear(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}
