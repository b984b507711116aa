package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"firebase.google.com/go/v4/messaging"
	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"roombooking-backend/internal/model"
	"roombooking-backend/internal/store"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// MobileSender delivers a message to a device token. *messaging.Client satisfies it.
type MobileSender interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
}

var isUnregistered = messaging.IsUnregistered

// payload is the JSON body browsers receive.
type payload struct {
	ID            int64                  `json:"id"`
	Kind          model.NotificationKind `json:"kind"`
	Title         string                 `json:"title"`
	Body          string                 `json:"body"`
	ReservationID *int64                 `json:"reservationId,omitempty"`
}

// WorkerPool delivers stored notifications to every device of their user.
type WorkerPool struct {
	size    int
	jobs    chan int64
	store   store.Store
	webpush *webpush.Options
	sender  NotificationSender
	mobile  MobileSender
	log     *zap.Logger
	wg      sync.WaitGroup
}

// NewWorkerPool creates a new worker pool. queue bounds how many
// notifications may wait for a worker.
func NewWorkerPool(size, queue int, s store.Store, webpushOptions *webpush.Options, log *zap.Logger) *WorkerPool {
	if size < 1 {
		size = 1
	}
	if queue < 1 {
		queue = size
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan int64, queue),
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{}, // Use the real sender by default
		log:     log,
	}
}

// SetWebPushSender replaces the web push transport.
func (wp *WorkerPool) SetWebPushSender(s NotificationSender) {
	wp.sender = s
}

// SetMobileSender enables delivery to registered mobile tokens.
func (wp *WorkerPool) SetMobileSender(m MobileSender) {
	wp.mobile = m
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Wait blocks until every worker has exited.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	wp.log.Debug("notification worker started", zap.Int("worker", id))
	for {
		select {
		case notificationID := <-wp.jobs:
			wp.deliver(ctx, notificationID)
		case <-ctx.Done():
			wp.log.Debug("notification worker shutting down", zap.Int("worker", id))
			return
		}
	}
}

// Dispatch queues a notification for delivery. It never blocks: when the
// queue is full the push is dropped and the notification stays in the inbox.
func (wp *WorkerPool) Dispatch(notificationID int64) {
	select {
	case wp.jobs <- notificationID:
	default:
		wp.log.Warn("notification queue full; dropping push", zap.Int64("notification_id", notificationID))
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan int64 {
	return wp.jobs
}

func (wp *WorkerPool) deliver(ctx context.Context, notificationID int64) {
	n, err := wp.store.GetNotification(ctx, notificationID)
	if err != nil {
		wp.log.Error("failed to load notification", zap.Int64("notification_id", notificationID), zap.Error(err))
		return
	}

	if wp.webpush != nil {
		wp.deliverWeb(ctx, n)
	}
	if wp.mobile != nil {
		wp.deliverMobile(ctx, n)
	}
}

func (wp *WorkerPool) deliverWeb(ctx context.Context, n *model.Notification) {
	subs, err := wp.store.ListPushSubscriptions(ctx, n.UserID)
	if err != nil {
		wp.log.Error("failed to list push subscriptions", zap.Int64("user_id", n.UserID), zap.Error(err))
		return
	}
	if len(subs) == 0 {
		return
	}

	body, err := json.Marshal(payload{
		ID:            n.ID,
		Kind:          n.Kind,
		Title:         n.Title,
		Body:          n.Body,
		ReservationID: n.ReservationID,
	})
	if err != nil {
		wp.log.Error("failed to encode push payload", zap.Int64("notification_id", n.ID), zap.Error(err))
		return
	}

	wp.log.Debug("sending web push", zap.Int64("notification_id", n.ID), zap.Int("subscriptions", len(subs)))
	for _, sub := range subs {
		wp.sendWeb(ctx, sub, body)
	}
}

func (wp *WorkerPool) sendWeb(ctx context.Context, sub model.PushSubscription, body []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(body, wpSub, wp.webpush)
	if err != nil {
		wp.log.Warn("web push failed", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	// The push service forgot this endpoint.
	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		wp.log.Info("removing expired push subscription", zap.String("endpoint", sub.Endpoint))
		if err := wp.store.DeletePushSubscription(ctx, 0, sub.Endpoint); err != nil {
			wp.log.Error("failed to delete expired subscription", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		}
	}
}

func (wp *WorkerPool) deliverMobile(ctx context.Context, n *model.Notification) {
	tokens, err := wp.store.ListPushTokens(ctx, n.UserID)
	if err != nil {
		wp.log.Error("failed to list push tokens", zap.Int64("user_id", n.UserID), zap.Error(err))
		return
	}

	data := map[string]string{
		"id":   strconv.FormatInt(n.ID, 10),
		"kind": string(n.Kind),
	}
	if n.ReservationID != nil {
		data["reservationId"] = strconv.FormatInt(*n.ReservationID, 10)
	}

	for _, tok := range tokens {
		_, err := wp.mobile.Send(ctx, &messaging.Message{
			Token:        tok.Token,
			Notification: &messaging.Notification{Title: n.Title, Body: n.Body},
			Data:         data,
		})
		if err == nil {
			continue
		}
		if isUnregistered(err) {
			wp.log.Info("removing unregistered device token", zap.String("platform", tok.Platform))
			if err := wp.store.DeletePushToken(ctx, 0, tok.Token); err != nil {
				wp.log.Error("failed to delete device token", zap.Error(err))
			}
			continue
		}
		wp.log.Warn("mobile push failed", zap.String("platform", tok.Platform), zap.Error(err))
	}
}
