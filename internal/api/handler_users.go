package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"roombooking-backend/internal/model"
)

type updateUserRequest struct {
	Name   *string     `json:"name" binding:"omitempty,max=256"`
	Role   *model.Role `json:"role" binding:"omitempty,role"`
	Locale *string     `json:"locale" binding:"omitempty,max=16"`
	Active *bool       `json:"active"`
}

func (h *Handler) GetUsers(c *gin.Context) {
	users, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) GetUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	u, err := h.store.GetUser(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// UpdateUser changes a user's name, role, locale or active flag.
// Admins cannot demote or disable themselves.
func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req updateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	me := currentUser(c)
	if id == me.ID && ((req.Role != nil && *req.Role != me.Role) || (req.Active != nil && !*req.Active)) {
		respond(c, http.StatusConflict, "self_lockout", "you cannot demote or disable your own account")
		return
	}

	u, err := h.store.GetUser(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if req.Name != nil {
		u.Name = strings.TrimSpace(*req.Name)
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.Locale != nil {
		u.Locale = *req.Locale
	}
	if req.Active != nil {
		u.Active = *req.Active
	}
	if err := h.store.UpdateUser(c.Request.Context(), u); err != nil {
		h.fail(c, err)
		return
	}

	h.log.Info("user updated", zap.Int64("user_id", u.ID), zap.Int64("by", me.ID), zap.String("role", string(u.Role)))
	c.JSON(http.StatusOK, u)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if id == currentUser(c).ID {
		respond(c, http.StatusConflict, "self_lockout", "you cannot delete your own account")
		return
	}
	if err := h.store.DeleteUser(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
