package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"roombooking-backend/internal/model"
)

// GetNotifications lists the caller's notifications, newest first.
// ?unread=true leaves out the ones already read.
func (h *Handler) GetNotifications(c *gin.Context) {
	list, err := h.store.ListNotifications(c.Request.Context(), currentUser(c).ID, c.Query("unread") == "true")
	if err != nil {
		h.fail(c, err)
		return
	}
	if list == nil {
		list = []model.Notification{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.store.MarkNotificationRead(c.Request.Context(), currentUser(c).ID, id, h.clock.Now()); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	n, err := h.store.MarkAllNotificationsRead(c.Request.Context(), currentUser(c).ID, h.clock.Now())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

func (h *Handler) DeleteNotification(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteNotification(c.Request.Context(), currentUser(c).ID, id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
