package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"roombooking-backend/internal/model"
)

type putSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required,url"`
	P256DH   string `json:"p256dh" binding:"required"`
	Auth     string `json:"auth" binding:"required"`
}

// PutSubscription registers or refreshes the caller's browser subscription.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if !bindJSON(c, &req) {
		return
	}

	sub := &model.PushSubscription{
		Endpoint:  req.Endpoint,
		UserID:    currentUser(c).ID,
		P256DH:    req.P256DH,
		Auth:      req.Auth,
		CreatedAt: h.clock.Now(),
	}
	if err := h.store.UpsertPushSubscription(c.Request.Context(), sub); err != nil {
		h.fail(c, err)
		return
	}

	c.Status(http.StatusCreated)
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription removes one of the caller's subscriptions.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.store.DeletePushSubscription(c.Request.Context(), currentUser(c).ID, req.Endpoint); err != nil {
		h.fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// rawQueryParam reads a query value without URL decoding it, so endpoints
// compare byte for byte with what the browser registered.
func rawQueryParam(rawQuery, key string) (string, bool) {
	for _, kv := range strings.Split(rawQuery, "&") {
		if strings.HasPrefix(kv, key+"=") {
			return kv[len(key)+1:], true
		}
	}
	return "", false
}

// GetSubscriptions lists the caller's subscriptions, or reports whether a
// single ?endpoint= is registered to them.
func (h *Handler) GetSubscriptions(c *gin.Context) {
	subs, err := h.store.ListPushSubscriptions(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}

	raw, ok := rawQueryParam(c.Request.URL.RawQuery, "endpoint")
	if !ok {
		if subs == nil {
			subs = []model.PushSubscription{}
		}
		c.JSON(http.StatusOK, subs)
		return
	}
	if raw == "" {
		validationError(c, "endpoint is required")
		return
	}
	for _, sub := range subs {
		if sub.Endpoint == raw {
			c.JSON(http.StatusOK, sub)
			return
		}
	}
	respond(c, http.StatusNotFound, "not_found", "subscription not found")
}
