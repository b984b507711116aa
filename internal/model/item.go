package model

import "time"

// Item represents a piece of equipment that can be requested with a reservation.
type Item struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	RoomID      *int64    `gorm:"index" json:"roomId"`
	Name        string    `gorm:"size:256;not null" json:"name"`
	Description string    `gorm:"size:1024" json:"description"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	ImageURL    string    `gorm:"size:512" json:"imageUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Associations
	Room *Room `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}
