package model

import "time"

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "PENDING"
	StatusActive    ReservationStatus = "ACTIVE"
	StatusApproved  ReservationStatus = "APPROVED"
	StatusRejected  ReservationStatus = "REJECTED"
	StatusCancelled ReservationStatus = "CANCELLED"
)

// Valid reports whether s is one of the known statuses.
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Reservation represents a booking of a room for a time interval.
type Reservation struct {
	ID        int64             `gorm:"primaryKey" json:"id"`
	RoomID    int64             `gorm:"index:idx_reservations_room_status;not null" json:"roomId"`
	UserID    int64             `gorm:"index;not null" json:"userId"`
	Title     string            `gorm:"size:256" json:"title"`
	Notes     string            `gorm:"size:2048" json:"notes"`
	StartAt   time.Time         `gorm:"not null" json:"start"`
	EndAt     time.Time         `gorm:"not null" json:"end"`
	Status    ReservationStatus `gorm:"index:idx_reservations_room_status;size:16;not null" json:"status"`
	DecidedBy *int64            `json:"decidedBy,omitempty"`
	DecidedAt *time.Time        `json:"decidedAt,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`

	// Associations
	Room  *Room   `gorm:"constraint:OnDelete:CASCADE" json:"room,omitempty"`
	User  *User   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Items []*Item `gorm:"many2many:reservation_items;" json:"items,omitempty"`
}
