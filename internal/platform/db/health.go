package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

const healthTimeout = 5 * time.Second

// Status is the /health/db payload for the Postgres blob backend. Keys is
// the row count of the kv table; a reachable but empty table is healthy.
type Status struct {
	Status    string `json:"status"`
	Backend   string `json:"backend"`
	Keys      int64  `json:"keys"`
	Conns     int32  `json:"conns"`
	IdleConns int32  `json:"idle_conns"`
	MaxConns  int32  `json:"max_conns"`
	Error     string `json:"error,omitempty"`
}

// HealthHandler probes the kv table and reports pool usage alongside.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()

		stat := pool.Stat()
		st := Status{
			Status:    "ok",
			Backend:   "postgres",
			Conns:     stat.TotalConns(),
			IdleConns: stat.IdleConns(),
			MaxConns:  stat.MaxConns(),
		}

		if err := pool.QueryRow(ctx, `SELECT count(*) FROM kv`).Scan(&st.Keys); err != nil {
			st.Status = "unhealthy"
			st.Error = err.Error()
			return c.JSON(http.StatusServiceUnavailable, st)
		}
		return c.JSON(http.StatusOK, st)
	}
}
