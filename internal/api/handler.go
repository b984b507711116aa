package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"roombooking-backend/internal/auth"
	"roombooking-backend/internal/booking"
	"roombooking-backend/internal/clock"
	"roombooking-backend/internal/conflict"
	"roombooking-backend/internal/model"
	"roombooking-backend/internal/mw"
	"roombooking-backend/internal/roomcache"
	"roombooking-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store      store.Store
	booking    *booking.Service
	issuer     *auth.Issuer
	rooms      *roomcache.Cache
	webpush    *webpush.Options
	clock      clock.Clock
	bcryptCost int
	log        *zap.Logger
}

// Deps lists what NewHandler needs. Rooms, WebPush and Logger are optional.
type Deps struct {
	Store      store.Store
	Booking    *booking.Service
	Issuer     *auth.Issuer
	Rooms      *roomcache.Cache
	WebPush    *webpush.Options
	Clock      clock.Clock
	BcryptCost int
	Logger     *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	registerValidators()

	h := &Handler{
		store:      d.Store,
		booking:    d.Booking,
		issuer:     d.Issuer,
		rooms:      d.Rooms,
		webpush:    d.WebPush,
		clock:      d.Clock,
		bcryptCost: d.BcryptCost,
		log:        d.Logger,
	}
	if h.clock == nil {
		h.clock = clock.NewSystem()
	}
	if h.log == nil {
		h.log = zap.NewNop()
	}
	if h.rooms == nil {
		h.rooms = roomcache.New(0, 0, h.clock)
	}
	return h
}

func respond(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "code": code})
}

func validationError(c *gin.Context, msg string) {
	respond(c, http.StatusBadRequest, "validation_error", msg)
}

// fail maps a domain or storage error onto a status and error code.
func (h *Handler) fail(c *gin.Context, err error) {
	var ce *booking.ConflictError
	switch {
	case errors.As(err, &ce):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":         ce.Error(),
			"code":          "conflict",
			"conflicts":     ce.Result.Conflicts,
			"conflictCount": ce.Result.ConflictCount,
		})
	case errors.Is(err, conflict.ErrInvalidInterval):
		respond(c, http.StatusBadRequest, "invalid_interval", err.Error())
	case errors.Is(err, booking.ErrTooLong):
		respond(c, http.StatusBadRequest, "too_long", err.Error())
	case errors.Is(err, booking.ErrInPast):
		respond(c, http.StatusBadRequest, "in_past", err.Error())
	case errors.Is(err, store.ErrNotFound):
		respond(c, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, store.ErrDuplicate):
		respond(c, http.StatusConflict, "duplicate", "already exists")
	case errors.Is(err, booking.ErrForbidden):
		respond(c, http.StatusForbidden, "forbidden", "forbidden")
	case errors.Is(err, booking.ErrInvalidTransition):
		respond(c, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, booking.ErrRoomInactive):
		respond(c, http.StatusUnprocessableEntity, "room_inactive", err.Error())
	case errors.Is(err, auth.ErrBadCredentials):
		respond(c, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	default:
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		respond(c, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// idParam reads a positive integer path parameter.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		validationError(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// currentUser returns the authenticated user. Routes using it sit behind
// mw.Authenticate.
func currentUser(c *gin.Context) *model.User {
	u, _ := mw.CurrentUser(c)
	return u
}
