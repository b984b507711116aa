package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"roombooking-backend/internal/booking"
	"roombooking-backend/internal/model"
	"roombooking-backend/internal/store"
)

type checkRequest struct {
	RoomID    int64     `json:"roomId" binding:"required,gt=0"`
	Start     time.Time `json:"start" binding:"required"`
	End       time.Time `json:"end" binding:"required"`
	ExcludeID int64     `json:"excludeId" binding:"gte=0"`
}

type createReservationRequest struct {
	RoomID  int64     `json:"roomId" binding:"required,gt=0"`
	Title   string    `json:"title" binding:"max=256"`
	Notes   string    `json:"notes" binding:"max=2048"`
	Start   time.Time `json:"start" binding:"required"`
	End     time.Time `json:"end" binding:"required"`
	ItemIDs []int64   `json:"itemIds" binding:"omitempty,dive,gt=0"`
}

type updateReservationRequest struct {
	Title   *string    `json:"title" binding:"omitempty,max=256"`
	Notes   *string    `json:"notes" binding:"omitempty,max=2048"`
	Start   *time.Time `json:"start"`
	End     *time.Time `json:"end"`
	ItemIDs *[]int64   `json:"itemIds"`
}

// CheckReservation runs a conflict check without booking anything.
func (h *Handler) CheckReservation(c *gin.Context) {
	var req checkRequest
	if !bindJSON(c, &req) || !bothTimes(c, req.Start, req.End) {
		return
	}
	res, err := h.booking.Check(c.Request.Context(), booking.CheckInput{
		RoomID: req.RoomID, Start: req.Start, End: req.End, ExcludeID: req.ExcludeID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetReservations lists reservations. Filters: roomId, userId, status
// (comma separated), from, to. Non-managers only ever see their own.
func (h *Handler) GetReservations(c *gin.Context) {
	var f store.ReservationFilter
	for name, dst := range map[string]*int64{"roomId": &f.RoomID, "userId": &f.UserID} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			validationError(c, "invalid "+name)
			return
		}
		*dst = v
	}
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			st := model.ReservationStatus(strings.ToUpper(strings.TrimSpace(s)))
			if !st.Valid() {
				validationError(c, "unknown status "+s)
				return
			}
			f.Statuses = append(f.Statuses, st)
		}
	}
	var ok bool
	if f.From, ok = timeQuery(c, "from", false); !ok {
		return
	}
	if f.To, ok = timeQuery(c, "to", false); !ok {
		return
	}

	list, err := h.booking.List(c.Request.Context(), currentUser(c), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	if list == nil {
		list = []model.Reservation{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetReservation(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	r, err := h.booking.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) CreateReservation(c *gin.Context) {
	var req createReservationRequest
	if !bindJSON(c, &req) || !bothTimes(c, req.Start, req.End) {
		return
	}
	r, err := h.booking.Create(c.Request.Context(), currentUser(c), booking.CreateInput{
		RoomID:  req.RoomID,
		Title:   req.Title,
		Notes:   req.Notes,
		Start:   req.Start,
		End:     req.End,
		ItemIDs: req.ItemIDs,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *Handler) UpdateReservation(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req updateReservationRequest
	if !bindJSON(c, &req) {
		return
	}
	r, err := h.booking.Update(c.Request.Context(), currentUser(c), id, booking.UpdateInput{
		Title:   req.Title,
		Notes:   req.Notes,
		Start:   req.Start,
		End:     req.End,
		ItemIDs: req.ItemIDs,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func bothTimes(c *gin.Context, start, end time.Time) bool {
	if start.IsZero() || end.IsZero() {
		validationError(c, "start and end are required")
		return false
	}
	return true
}

type transitionFunc func(ctx context.Context, actor *model.User, id int64) (*model.Reservation, error)

func (h *Handler) transition(c *gin.Context, fn transitionFunc) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	r, err := fn(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) ApproveReservation(c *gin.Context) { h.transition(c, h.booking.Approve) }

func (h *Handler) RejectReservation(c *gin.Context) { h.transition(c, h.booking.Reject) }

func (h *Handler) CancelReservation(c *gin.Context) { h.transition(c, h.booking.Cancel) }
