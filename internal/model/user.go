package model

import "time"

// Role controls what a user may do.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleUser    Role = "USER"
)

var rolePriorities = map[Role]int{
	RoleAdmin:   30,
	RoleManager: 20,
	RoleUser:    10,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := rolePriorities[r]
	return ok
}

// AtLeast reports whether r grants at least the privileges of min.
func (r Role) AtLeast(min Role) bool {
	return rolePriorities[r] >= rolePriorities[min] && r.Valid()
}

// User is an account that can make reservations.
type User struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:256;not null" json:"email"`
	Name         string    `gorm:"size:256;not null" json:"name"`
	PasswordHash []byte    `gorm:"not null" json:"-"`
	Role         Role      `gorm:"size:16;not null;default:USER" json:"role"`
	Locale       string    `gorm:"size:16" json:"locale"`
	Active       bool      `gorm:"not null" json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsManager reports whether the user can manage rooms and decide reservations.
func (u *User) IsManager() bool {
	return u.Role.AtLeast(RoleManager)
}
