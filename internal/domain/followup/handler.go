package followup

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/chamberdesk/chamberdesk/internal/domain/visit"
)

type Handler struct {
	store *visit.Store
}

func NewHandler(store *visit.Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/followups", h.List)
}

// List projects upcoming follow-ups from the stored records. ?from=
// overrides the reference day (YYYY-MM-DD, local), defaulting to today.
func (h *Handler) List(c echo.Context) error {
	today := time.Now()
	if raw := c.QueryParam("from"); raw != "" {
		t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "from must be YYYY-MM-DD")
		}
		today = t
	}

	days := Project(h.store.LoadAll(c.Request().Context()), today)
	return c.JSON(http.StatusOK, days)
}
