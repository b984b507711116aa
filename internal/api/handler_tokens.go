package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"roombooking-backend/internal/model"
)

type pushTokenRequest struct {
	Token    string `json:"token" binding:"required,max=512"`
	Platform string `json:"platform" binding:"required,platform"`
}

type deletePushTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// RegisterPushToken stores a mobile registration token for the caller.
func (h *Handler) RegisterPushToken(c *gin.Context) {
	var req pushTokenRequest
	if !bindJSON(c, &req) {
		return
	}
	tok := &model.PushToken{
		Token:     req.Token,
		UserID:    currentUser(c).ID,
		Platform:  req.Platform,
		CreatedAt: h.clock.Now(),
	}
	if err := h.store.UpsertPushToken(c.Request.Context(), tok); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (h *Handler) DeletePushToken(c *gin.Context) {
	var req deletePushTokenRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.store.DeletePushToken(c.Request.Context(), currentUser(c).ID, req.Token); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
