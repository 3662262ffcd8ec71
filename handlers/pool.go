package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/luckydraw/db"
	"github.com/padraicbc/luckydraw/pool"
)

type poolStatus struct {
	OK       bool       `json:"ok"`
	Stats    pool.Stats `json:"stats"`
	Problems []string   `json:"problems"`
}

// PoolStatus reports pool counts and any integrity problems.
func (h *Handler) PoolStatus(c echo.Context) error {
	if h.db == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "database not configured")
	}

	st, err := pool.Collect(c.Request().Context(), h.db)
	if err != nil {
		if db.IsUnavailable(err) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	problems := pool.Verify(st, h.tiers, false)
	if problems == nil {
		problems = []string{}
	}
	return c.JSON(http.StatusOK, poolStatus{OK: len(problems) == 0, Stats: st, Problems: problems})
}
