package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gydisme/savebot/internal/channel/adapters/line"
)

// LineWebhook is the adapter surface the webhook route needs.
type LineWebhook interface {
	HandleWebhook(ctx context.Context, r *http.Request) error
}

// LineHandler receives LINE webhook deliveries. A nil adapter means the
// channel is disabled and no route is registered.
type LineHandler struct {
	adapter LineWebhook
	log     *slog.Logger
}

func NewLineHandler(adapter LineWebhook, log *slog.Logger) *LineHandler {
	return &LineHandler{
		adapter: adapter,
		log:     log.With(slog.String("handler", "line")),
	}
}

func (h *LineHandler) Register(e *echo.Echo) {
	if h.adapter == nil {
		return
	}
	e.POST("/webhook/line", h.webhook)
}

func (h *LineHandler) webhook(c echo.Context) error {
	if err := h.adapter.HandleWebhook(c.Request().Context(), c.Request()); err != nil {
		if errors.Is(err, line.ErrInvalidSignature) {
			h.log.Warn("webhook signature rejected")
			return echo.NewHTTPError(http.StatusBadRequest, "invalid signature")
		}
		h.log.Error("webhook handling failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
