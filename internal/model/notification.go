package model

import "time"

// NotificationKind names the event a notification reports.
type NotificationKind string

const (
	KindReservationRequested NotificationKind = "reservation_requested"
	KindReservationCreated   NotificationKind = "reservation_created"
	KindReservationApproved  NotificationKind = "reservation_approved"
	KindReservationRejected  NotificationKind = "reservation_rejected"
	KindReservationCancelled NotificationKind = "reservation_cancelled"
)

// Notification is an in-app message for a user, also delivered as a push.
type Notification struct {
	ID            int64            `gorm:"primaryKey" json:"id"`
	UserID        int64            `gorm:"index;not null" json:"userId"`
	Kind          NotificationKind `gorm:"size:64;not null" json:"kind"`
	Title         string           `gorm:"size:256;not null" json:"title"`
	Body          string           `gorm:"size:1024;not null" json:"body"`
	ReservationID *int64           `json:"reservationId,omitempty"`
	ReadAt        *time.Time       `json:"readAt,omitempty"`
	CreatedAt     time.Time        `gorm:"not null" json:"createdAt"`
}
