package models

import "time"

// Ticket length bounds for Object.
const (
	TicketObjectMin = 50
	TicketObjectMax = 200
)

// Ticket is a moderation report issued by an account against a post, comment or account.
type Ticket struct {
	ID      uint       `gorm:"primaryKey" json:"id"`
	Object  string     `gorm:"size:200;not null" json:"object"`
	Type    TicketType `gorm:"size:20;not null" json:"type"`
	At      time.Time  `gorm:"not null" json:"at"`
	Closed  *bool      `json:"closed,omitempty"`
	Content string     `gorm:"type:text" json:"content,omitempty"`

	PostRelatedID    *uint `gorm:"index" json:"postRelatedId,omitempty"`
	CommentRelatedID *uint `gorm:"index" json:"commentRelatedId,omitempty"`
	AccountRelatedID *uint `gorm:"index" json:"accountRelatedId,omitempty"`
	IssuedByID       uint  `gorm:"column:issuedby_id;not null;index" json:"issuedById"`

	Reviews []*Review `gorm:"foreignKey:TicketID" json:"reviews,omitempty"`
}

// AddReview appends r to the ticket and points r back at it.
func (t *Ticket) AddReview(r *Review) *Ticket {
	id := t.ID
	r.TicketID = &id
	t.Reviews = append(t.Reviews, r)
	return t
}

// RemoveReview detaches r, matched by pointer or by id once saved.
func (t *Ticket) RemoveReview(r *Review) *Ticket {
	for i := range t.Reviews {
		if t.Reviews[i] == r || (r.ID != 0 && t.Reviews[i].ID == r.ID) {
			t.Reviews = append(t.Reviews[:i], t.Reviews[i+1:]...)
			break
		}
	}
	r.TicketID = nil
	return t
}
