package models

import "time"

// Config holds the per-account publishing defaults.
type Config struct {
	ID                   uint          `gorm:"primaryKey" json:"id"`
	LastUpdate           *time.Time    `json:"lastUpdate,omitempty"`
	DefaultAccessibility Accessibility `gorm:"size:20" json:"defaultAccessibility,omitempty"`
	DefaultVisibility    Visibility    `gorm:"size:20" json:"defaultVisibility,omitempty"`
}

// NewDefaultConfig returns the configuration given to newly created accounts.
func NewDefaultConfig(now time.Time) *Config {
	return &Config{
		LastUpdate:           &now,
		DefaultAccessibility: AccessibilityDefault,
		DefaultVisibility:    VisibilityPrivate,
	}
}
