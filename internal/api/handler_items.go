package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"roombooking-backend/internal/model"
)

type itemRequest struct {
	RoomID      *int64 `json:"roomId" binding:"omitempty,gt=0"`
	Name        string `json:"name" binding:"required,max=128"`
	Description string `json:"description" binding:"max=1024"`
	Quantity    *int   `json:"quantity" binding:"omitempty,gte=0"`
	ImageURL    string `json:"imageUrl" binding:"omitempty,url,max=512"`
}

func (req itemRequest) apply(it *model.Item) {
	it.RoomID = req.RoomID
	it.Name = req.Name
	it.Description = req.Description
	it.ImageURL = req.ImageURL
	if req.Quantity != nil {
		it.Quantity = *req.Quantity
	}
}

// GetItems lists items, optionally only those of ?roomId=.
func (h *Handler) GetItems(c *gin.Context) {
	var roomID *int64
	if raw := c.Query("roomId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			validationError(c, "invalid roomId")
			return
		}
		roomID = &id
	}
	items, err := h.store.ListItems(c.Request.Context(), roomID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) GetItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	it, err := h.store.GetItem(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

// ensureRoom checks that a referenced room exists.
func (h *Handler) ensureRoom(c *gin.Context, roomID *int64) bool {
	if roomID == nil {
		return true
	}
	if _, err := h.store.GetRoom(c.Request.Context(), *roomID); err != nil {
		h.fail(c, err)
		return false
	}
	return true
}

func (h *Handler) CreateItem(c *gin.Context) {
	var req itemRequest
	if !bindJSON(c, &req) {
		return
	}
	if !h.ensureRoom(c, req.RoomID) {
		return
	}
	it := &model.Item{Quantity: 1}
	req.apply(it)
	if err := h.store.CreateItem(c.Request.Context(), it); err != nil {
		h.fail(c, err)
		return
	}
	h.rooms.Invalidate()
	c.JSON(http.StatusCreated, it)
}

func (h *Handler) UpdateItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req itemRequest
	if !bindJSON(c, &req) {
		return
	}
	if !h.ensureRoom(c, req.RoomID) {
		return
	}
	it, err := h.store.GetItem(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	req.apply(it)
	if err := h.store.UpdateItem(c.Request.Context(), it); err != nil {
		h.fail(c, err)
		return
	}
	h.rooms.Invalidate()
	c.JSON(http.StatusOK, it)
}

func (h *Handler) DeleteItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteItem(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	h.rooms.Invalidate()
	c.Status(http.StatusNoContent)
}
