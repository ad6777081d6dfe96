package models

import "time"

// Membership records that Subscriber follows Account.
type Membership struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	At                   time.Time `gorm:"not null" json:"at"`
	ActivateNotification *bool     `json:"activateNotification,omitempty"`

	AccountID    uint `gorm:"not null;index" json:"accountId"`
	SubscriberID uint `gorm:"not null;index" json:"subscriberId"`
}
