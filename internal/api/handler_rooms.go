package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"roombooking-backend/internal/booking"
	"roombooking-backend/internal/model"
	"roombooking-backend/internal/mw"
	"roombooking-backend/internal/store"
)

const timeLayout = time.RFC3339

type roomRequest struct {
	Name             string `json:"name" binding:"required,max=128"`
	Description      string `json:"description" binding:"max=1024"`
	Location         string `json:"location" binding:"max=256"`
	Capacity         int    `json:"capacity" binding:"gte=0"`
	RequiresApproval bool   `json:"requiresApproval"`
	ImageURL         string `json:"imageUrl" binding:"omitempty,url,max=512"`
	Active           *bool  `json:"active"`
}

func (req roomRequest) apply(r *model.Room) {
	r.Name = req.Name
	r.Description = req.Description
	r.Location = req.Location
	r.Capacity = req.Capacity
	r.RequiresApproval = req.RequiresApproval
	r.ImageURL = req.ImageURL
	if req.Active != nil {
		r.Active = *req.Active
	}
}

// GetRooms lists rooms. Managers may pass all=true to include inactive ones.
func (h *Handler) GetRooms(c *gin.Context) {
	if c.Query("all") == "true" {
		if u, ok := mw.CurrentUser(c); !ok || !u.IsManager() {
			respond(c, http.StatusForbidden, "forbidden", "only managers may list inactive rooms")
			return
		}
		rooms, err := h.store.ListRooms(c.Request.Context(), true)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, rooms)
		return
	}

	if rooms, ok := h.rooms.Rooms(); ok {
		c.JSON(http.StatusOK, rooms)
		return
	}
	rooms, err := h.store.ListRooms(c.Request.Context(), false)
	if err != nil {
		h.fail(c, err)
		return
	}
	if rooms == nil {
		rooms = []model.Room{}
	}
	h.rooms.SetRooms(rooms)
	c.JSON(http.StatusOK, rooms)
}

// GetRoom returns a room with its items.
func (h *Handler) GetRoom(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if room, ok := h.rooms.Room(id); ok {
		c.JSON(http.StatusOK, room)
		return
	}
	room, err := h.store.GetRoom(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.rooms.SetRoom(*room)
	c.JSON(http.StatusOK, room)
}

func (h *Handler) CreateRoom(c *gin.Context) {
	var req roomRequest
	if !bindJSON(c, &req) {
		return
	}
	room := &model.Room{Active: true}
	req.apply(room)
	if err := h.store.CreateRoom(c.Request.Context(), room); err != nil {
		h.fail(c, err)
		return
	}
	h.rooms.Invalidate()
	c.JSON(http.StatusCreated, room)
}

func (h *Handler) UpdateRoom(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req roomRequest
	if !bindJSON(c, &req) {
		return
	}
	room, err := h.store.GetRoom(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	req.apply(room)
	if err := h.store.UpdateRoom(c.Request.Context(), room); err != nil {
		h.fail(c, err)
		return
	}
	h.rooms.Invalidate()
	c.JSON(http.StatusOK, room)
}

func (h *Handler) DeleteRoom(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	// Rooms with history are deactivated, not deleted.
	held, err := h.store.ListReservations(c.Request.Context(), store.ReservationFilter{RoomID: id})
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(held) > 0 {
		respond(c, http.StatusConflict, "room_in_use", "room has reservations; deactivate it instead")
		return
	}
	if err := h.store.DeleteRoom(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	h.rooms.Invalidate()
	c.Status(http.StatusNoContent)
}

// GetRoomConflicts answers whether [start, end) is free in the room.
// GET /api/rooms/:id/conflicts?start=...&end=...&exclude=...
func (h *Handler) GetRoomConflicts(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	start, ok := timeQuery(c, "start", true)
	if !ok {
		return
	}
	end, ok := timeQuery(c, "end", true)
	if !ok {
		return
	}
	var exclude int64
	if raw := c.Query("exclude"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			validationError(c, "invalid exclude")
			return
		}
		exclude = v
	}

	res, err := h.booking.Check(c.Request.Context(), booking.CheckInput{
		RoomID: id, Start: start, End: end, ExcludeID: exclude,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetRoomReservations lists the reservations holding the room, optionally
// within from/to.
func (h *Handler) GetRoomReservations(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	from, ok := timeQuery(c, "from", false)
	if !ok {
		return
	}
	to, ok := timeQuery(c, "to", false)
	if !ok {
		return
	}

	list, err := h.booking.Schedule(c.Request.Context(), id, from, to)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toPublicSlots(list))
}

// publicSlot hides who booked and why from anonymous callers.
type publicSlot struct {
	ID     int64                   `json:"id"`
	RoomID int64                   `json:"roomId"`
	Start  time.Time               `json:"start"`
	End    time.Time               `json:"end"`
	Status model.ReservationStatus `json:"status"`
}

func toPublicSlots(list []model.Reservation) []publicSlot {
	out := make([]publicSlot, 0, len(list))
	for _, r := range list {
		out = append(out, publicSlot{ID: r.ID, RoomID: r.RoomID, Start: r.StartAt, End: r.EndAt, Status: r.Status})
	}
	return out
}

// timeQuery parses an RFC 3339 query parameter.
func timeQuery(c *gin.Context, name string, required bool) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		if required {
			validationError(c, name+" is required")
			return time.Time{}, false
		}
		return time.Time{}, true
	}
	// An unencoded "+" in an offset arrives as a space.
	t, err := time.Parse(timeLayout, strings.ReplaceAll(raw, " ", "+"))
	if err != nil {
		validationError(c, name+" must be an RFC 3339 timestamp")
		return time.Time{}, false
	}
	return t, true
}
