package model

import "time"

// Room represents a bookable space.
type Room struct {
	ID               int64     `gorm:"primaryKey" json:"id"`
	Name             string    `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Description      string    `gorm:"size:1024" json:"description"`
	Location         string    `gorm:"size:256" json:"location"`
	Capacity         int       `gorm:"not null;default:0" json:"capacity"`
	RequiresApproval bool      `gorm:"not null;default:false" json:"requiresApproval"`
	ImageURL         string    `gorm:"size:512" json:"imageUrl"`
	Active           bool      `gorm:"not null" json:"active"`
	CreatedAt        time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt        time.Time `gorm:"not null" json:"updatedAt"`

	// Associations
	Items []Item `gorm:"foreignKey:RoomID" json:"items,omitempty"`
}
