package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"roombooking-backend/config"
	"roombooking-backend/internal/api"
	"roombooking-backend/internal/auth"
	"roombooking-backend/internal/booking"
	"roombooking-backend/internal/clock"
	"roombooking-backend/internal/db"
	"roombooking-backend/internal/model"
	"roombooking-backend/internal/notification"
	"roombooking-backend/internal/roomcache"
	"roombooking-backend/internal/store"
)

type pushed struct {
	endpoint string
	title    string
}

type channelSender chan pushed

func (ch channelSender) Send(payload []byte, sub *webpush.Subscription, _ *webpush.Options) (*http.Response, error) {
	var body struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, err
	}
	ch <- pushed{endpoint: sub.Endpoint, title: body.Title}
	return &http.Response{StatusCode: http.StatusCreated, Body: io.NopCloser(bytes.NewReader(nil))}, nil
}

// TestReservationLifecycle drives a booking through request, approval and
// cancellation over HTTP and checks the pushes that come out the other end.
func TestReservationLifecycle(t *testing.T) {
	// --- Test Setup ---
	gormDB, err := db.Init(&config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          "file:lifecycle?mode=memory&cache=shared",
		MaxOpenConns: 1,
	}, zap.NewNop())
	require.NoError(t, err)
	sqlDB, _ := gormDB.DB()
	defer sqlDB.Close()

	st := store.NewGormStore(gormDB)
	clk := clock.NewManual(time.Date(2025, 9, 17, 8, 0, 0, 0, time.UTC))
	issuer, err := auth.NewIssuer("integration", "roombookd", time.Hour, clk)
	require.NoError(t, err)

	sent := make(channelSender, 8)
	workers := notification.NewWorkerPool(2, 8, st, &webpush.Options{TTL: 60}, zap.NewNop())
	workers.SetWebPushSender(sent)
	ctx, cancel := context.WithCancel(context.Background())
	workers.Start(ctx)
	defer func() {
		cancel()
		workers.Wait()
	}()

	svc := booking.NewService(st, clk, booking.WithNotifier(workers))
	router := api.NewRouter(api.NewHandler(api.Deps{
		Store: st, Booking: svc, Issuer: issuer, Clock: clk,
		Rooms:      roomcache.New(time.Minute, 8, clk),
		BcryptCost: bcrypt.MinCost,
	}), config.ServerConfig{RateLimitPerSec: 100, RateLimitBurst: 100, CacheTTLSeconds: 60})

	call := func(method, path, token string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}
	tokenFor := func(role model.Role, email string) (string, *model.User) {
		hash, err := auth.HashPassword("password123", bcrypt.MinCost)
		require.NoError(t, err)
		u := &model.User{Email: email, Name: email, PasswordHash: hash, Role: role, Active: true}
		require.NoError(t, st.CreateUser(ctx, u))
		tok, _, err := issuer.Issue(u)
		require.NoError(t, err)
		return tok, u
	}
	expectPush := func(endpoint, title string) {
		t.Helper()
		select {
		case p := <-sent:
			assert.Equal(t, endpoint, p.endpoint)
			assert.Equal(t, title, p.title)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for push %q", title)
		}
	}

	managerTok, _ := tokenFor(model.RoleManager, "manager@example.com")
	userTok, _ := tokenFor(model.RoleUser, "user@example.com")

	for tok, endpoint := range map[string]string{managerTok: "https://push.example.com/manager", userTok: "https://push.example.com/user"} {
		w := call(http.MethodPut, "/api/push/subscriptions", tok, map[string]string{"endpoint": endpoint, "p256dh": "k", "auth": "a"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	// 1. A manager sets up a room that needs approval.
	w := call(http.MethodPost, "/api/rooms", managerTok, map[string]any{"name": "Hall", "requiresApproval": true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var room model.Room
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &room))

	// 2. A user requests it; the manager is told.
	w = call(http.MethodPost, "/api/reservations", userTok, map[string]any{
		"roomId": room.ID, "title": "Recital", "start": "2025-09-18T18:00:00Z", "end": "2025-09-18T20:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var res model.Reservation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, model.StatusPending, res.Status)
	expectPush("https://push.example.com/manager", "New reservation request")

	// 3. Approval pushes to the owner and the slot is now held.
	w = call(http.MethodPost, "/api/reservations/"+strconv.FormatInt(res.ID, 10)+"/approve", managerTok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	expectPush("https://push.example.com/user", "Reservation approved")

	w = call(http.MethodGet, "/api/rooms/"+strconv.FormatInt(room.ID, 10)+"/conflicts?start=2025-09-18T19:00:00Z&end=2025-09-18T21:00:00Z", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var check struct {
		HasConflict bool `json:"hasConflict"`
		Conflicts   []struct {
			ID int64 `json:"id"`
		} `json:"conflicts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &check))
	assert.True(t, check.HasConflict)
	require.Len(t, check.Conflicts, 1)
	assert.Equal(t, res.ID, check.Conflicts[0].ID)

	// 4. The manager cancels it; the owner hears about it and the slot frees up.
	w = call(http.MethodPost, "/api/reservations/"+strconv.FormatInt(res.ID, 10)+"/cancel", managerTok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	expectPush("https://push.example.com/user", "Reservation cancelled")

	w = call(http.MethodGet, "/api/rooms/"+strconv.FormatInt(room.ID, 10)+"/conflicts?start=2025-09-18T19:00:00Z&end=2025-09-18T21:00:00Z", "", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &check))
	assert.False(t, check.HasConflict)

	w = call(http.MethodGet, "/api/notifications", userTok, nil)
	var notes []model.Notification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &notes))
	assert.Len(t, notes, 2)
}
