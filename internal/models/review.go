package models

import "time"

// Review is a moderator decision on a ticket. Reviews can be answered by further reviews.
type Review struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	At      time.Time `gorm:"not null" json:"at"`
	Status  Status    `gorm:"size:20;not null" json:"status"`
	Timeout int       `gorm:"not null" json:"timeout"`

	AccountID uint  `gorm:"not null;index" json:"accountId"`
	TicketID  *uint `gorm:"index" json:"ticketId,omitempty"`
	ReplyToID *uint `gorm:"index" json:"replyToId,omitempty"`

	Replies []*Review `gorm:"foreignKey:ReplyToID" json:"replies,omitempty"`
}

// AddReply appends r as an answer to this review.
func (rv *Review) AddReply(r *Review) *Review {
	id := rv.ID
	r.ReplyToID = &id
	rv.Replies = append(rv.Replies, r)
	return rv
}

// RemoveReply detaches r, matched by pointer or by id once saved.
func (rv *Review) RemoveReply(r *Review) *Review {
	for i := range rv.Replies {
		if rv.Replies[i] == r || (r.ID != 0 && rv.Replies[i].ID == r.ID) {
			rv.Replies = append(rv.Replies[:i], rv.Replies[i+1:]...)
			break
		}
	}
	r.ReplyToID = nil
	return rv
}
