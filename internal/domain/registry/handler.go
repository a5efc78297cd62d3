package registry

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/chamberdesk/chamberdesk/pkg/pagination"
)

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients", h.List)
	api.GET("/patients/:puid", h.Get)
}

// List returns registered patients, optionally filtered by ?q= matching
// the name (case-insensitive) or the normalized mobile.
func (h *Handler) List(c echo.Context) error {
	entries := h.store.LoadAll(c.Request().Context())
	if entries == nil {
		entries = []Entry{}
	}

	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		needle := strings.ToLower(q)
		mobile := NormalizeMobile(q)
		filtered := make([]Entry, 0, len(entries))
		for _, e := range entries {
			if strings.Contains(strings.ToLower(e.Name), needle) ||
				(mobile != "" && strings.Contains(e.Mobile, mobile)) {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	pg := pagination.FromContext(c)
	lo, hi := pg.Slice(len(entries))
	return c.JSON(http.StatusOK, pagination.NewResponse(entries[lo:hi], len(entries), pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	puid, err := strconv.Atoi(c.Param("puid"))
	if err != nil || puid <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid puid")
	}
	for _, e := range h.store.LoadAll(c.Request().Context()) {
		if e.PUID == puid {
			return c.JSON(http.StatusOK, e)
		}
	}
	return echo.NewHTTPError(http.StatusNotFound, "patient not found")
}
