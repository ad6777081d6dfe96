package models

import "time"

// Comment is an account's opinion on a post, possibly answering another comment.
type Comment struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Opinion    Opinion    `gorm:"size:20;not null" json:"opinion"`
	At         time.Time  `gorm:"not null" json:"at"`
	LastUpdate *time.Time `json:"lastUpdate,omitempty"`
	Content    string     `gorm:"type:text" json:"content,omitempty"`

	PostID    *uint `gorm:"index" json:"postId,omitempty"`
	AccountID uint  `gorm:"not null;index" json:"accountId"`
	ReplyToID *uint `gorm:"index" json:"replyToId,omitempty"`

	Replies []*Comment `gorm:"foreignKey:ReplyToID" json:"replies,omitempty"`
	Reports []*Ticket  `gorm:"foreignKey:CommentRelatedID" json:"-"`
}

// AddReply appends r as an answer to this comment.
func (c *Comment) AddReply(r *Comment) *Comment {
	id := c.ID
	r.ReplyToID = &id
	c.Replies = append(c.Replies, r)
	return c
}

// RemoveReply detaches r, matched by pointer or by id once saved.
func (c *Comment) RemoveReply(r *Comment) *Comment {
	for i := range c.Replies {
		if c.Replies[i] == r || (r.ID != 0 && c.Replies[i].ID == r.ID) {
			c.Replies = append(c.Replies[:i], c.Replies[i+1:]...)
			break
		}
	}
	r.ReplyToID = nil
	return c
}

// AddReport appends a ticket filed against the comment.
func (c *Comment) AddReport(t *Ticket) *Comment {
	id := c.ID
	t.CommentRelatedID = &id
	c.Reports = append(c.Reports, t)
	return c
}
