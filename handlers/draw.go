package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/padraicbc/luckydraw/draw"
	"github.com/padraicbc/luckydraw/models"
)

type drawResponse struct {
	Status draw.Status  `json:"status"`
	Sign   *models.Sign `json:"sign,omitempty"`
}

// signDisplay is the body of POST /api/draw.
type signDisplay struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Level       int    `json:"level"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Draw claims one sign and returns it with its raw fields.
func (h *Handler) Draw(c echo.Context) error {
	res, err := h.drawer.PerformDraw(c.Request().Context())
	if err != nil {
		return drawFailure(c, err)
	}
	h.logOutcome(res)
	if !res.OK() {
		return c.JSON(http.StatusOK, drawResponse{Status: draw.StatusOutOfStock})
	}
	return c.JSON(http.StatusOK, drawResponse{Status: draw.StatusOK, Sign: res.Sign})
}

// DisplayDraw claims one sign and returns it decorated for the frontend.
func (h *Handler) DisplayDraw(c echo.Context) error {
	res, err := h.drawer.PerformDraw(c.Request().Context())
	if err != nil {
		return drawFailure(c, err)
	}
	h.logOutcome(res)
	if !res.OK() {
		return c.JSON(http.StatusOK, drawResponse{Status: draw.StatusOutOfStock})
	}
	return c.JSON(http.StatusOK, h.display(res.Sign))
}

func (h *Handler) display(s *models.Sign) signDisplay {
	d := signDisplay{
		ID:    s.ID,
		Type:  s.Type,
		Title: s.Type,
		Level: s.Level,
	}
	if tier, ok := h.tiers.ByLevel(s.Level); ok {
		if tier.Title != "" {
			d.Title = tier.Title
		}
		d.Description = tier.Description
		d.ImageURL = tier.Image
	}
	return d
}

func (h *Handler) logOutcome(res draw.Result) {
	if !h.logDraws {
		return
	}
	if !res.OK() {
		zap.L().Info("draw", zap.String("status", string(res.Status)))
		return
	}
	zap.L().Info("draw",
		zap.String("status", string(res.Status)),
		zap.String("id", res.Sign.ID),
		zap.String("type", res.Sign.Type),
	)
}

// drawFailure maps engine errors to 503 when the database is unreachable and
// 500 for everything else.
func drawFailure(c echo.Context, err error) error {
	if errors.Is(err, draw.ErrStorageUnavailable) {
		zap.L().Error("draw: database unavailable", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, errorResponse{
			Error:   "Service Unavailable",
			Message: "Database unavailable",
		})
	}
	zap.L().Error("draw failed", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, errorResponse{
		Error:   "Internal Server Error",
		Message: "Draw failed",
	})
}
