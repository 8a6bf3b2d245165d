package http

import (
	"net/http"

	"makono-backend/internal/adapter/middleware"
	"makono-backend/internal/usecase/notification"

	"github.com/labstack/echo/v4"
)

type NotificationHandler struct{ uc *notification.Usecase }

func NewNotificationHandler(uc *notification.Usecase) *NotificationHandler {
	return &NotificationHandler{uc: uc}
}

func (h *NotificationHandler) List(c echo.Context) error {
	user := middleware.UserFrom(c)
	return c.JSON(http.StatusOK, map[string]any{
		"notifications": h.uc.ListForUser(user.ID),
		"unread":        h.uc.UnreadCount(user.ID),
	})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, ok, err := idParam(c, "notification_id")
	if !ok {
		return err
	}
	n, err := h.uc.MarkRead(c.Request().Context(), middleware.UserFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, n)
}
