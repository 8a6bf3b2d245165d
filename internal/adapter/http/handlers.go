package http

import (
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
)

type Handler struct{ clock clockwork.Clock }

func NewHandler(clock clockwork.Clock) *Handler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Handler{clock: clock}
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"time":   h.clock.Now().UTC().Format(time.RFC3339Nano),
	})
}
