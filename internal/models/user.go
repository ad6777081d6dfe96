// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Authority names.
const (
	RoleAdmin     = "ROLE_ADMIN"
	RoleUser      = "ROLE_USER"
	RoleAnonymous = "ROLE_ANONYMOUS"
)

// Authority is a security role granted to users.
type Authority struct {
	Name string `gorm:"primaryKey;size:50" json:"name"`
}

// User is a person able to authenticate against the API.
type User struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	Login         string      `gorm:"size:50;uniqueIndex;not null" json:"login"`
	Email         string      `gorm:"size:254;uniqueIndex" json:"email"`
	Password      string      `gorm:"size:60;not null" json:"-"`
	FirstName     string      `gorm:"size:50" json:"firstName,omitempty"`
	LastName      string      `gorm:"size:50" json:"lastName,omitempty"`
	Activated     bool        `gorm:"not null;default:false" json:"activated"`
	LangKey       string      `gorm:"size:10" json:"langKey,omitempty"`
	ActivationKey *string     `gorm:"size:36" json:"-"`
	ResetKey      *string     `gorm:"size:36" json:"-"`
	ResetDate     *time.Time  `json:"-"`
	Authorities   []Authority `gorm:"many2many:user_authorities;" json:"authorities,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// HasAuthority reports whether the user was granted name.
func (u *User) HasAuthority(name string) bool {
	for _, a := range u.Authorities {
		if a.Name == name {
			return true
		}
	}
	return false
}
