package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Root answers GET / so browsers and probes hitting the bare host get a 200.
func (h *Handler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "service": "luckydraw"})
}

// Ping is the liveness check.
func (h *Handler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"msg": "pong"})
}

// DevtoolsProbe silences the Chrome DevTools workspace probe.
func (h *Handler) DevtoolsProbe(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{})
}
