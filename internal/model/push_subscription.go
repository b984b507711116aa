package model

import "time"

// PushSubscription holds the information for a browser push subscription.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey" json:"endpoint"`
	UserID    int64     `gorm:"index;not null" json:"userId"`
	P256DH    string    `gorm:"column:p256dh;not null" json:"-"`
	Auth      string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

// PushToken is a mobile device registration token delivered through FCM.
type PushToken struct {
	Token     string    `gorm:"primaryKey;size:512" json:"token"`
	UserID    int64     `gorm:"index;not null" json:"userId"`
	Platform  string    `gorm:"size:16;not null" json:"platform"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}
