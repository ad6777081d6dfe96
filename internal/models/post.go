package models

import (
	"strconv"
	"time"
)

// Post is a publication made by an account, optionally carrying attachments.
type Post struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Title      string     `gorm:"not null" json:"title"`
	Subtitle   string     `json:"subtitle,omitempty"`
	Keywords   string     `json:"keywords,omitempty"`
	Subject    string     `gorm:"size:50" json:"subject,omitempty"`
	At         time.Time  `gorm:"not null" json:"at"`
	LastUpdate *time.Time `json:"lastUpdate,omitempty"`
	Visibility Visibility `gorm:"size:20" json:"visibility,omitempty"`
	Content    string     `gorm:"type:text" json:"content,omitempty"`
	Status     Status     `gorm:"size:20;not null" json:"status"`

	AccountID uint `gorm:"not null;index" json:"accountId"`

	Attachments []*Attachment `gorm:"foreignKey:PostID" json:"attachments,omitempty"`
	Comments    []*Comment    `gorm:"foreignKey:PostID" json:"-"`
	Reports     []*Ticket     `gorm:"foreignKey:PostRelatedID" json:"-"`
}

// AddAttachment appends a to the post and points a back at it.
func (p *Post) AddAttachment(a *Attachment) *Post {
	a.PostID = p.ID
	p.Attachments = append(p.Attachments, a)
	return p
}

// RemoveAttachment drops a and clears its post reference. Saved attachments also match by id.
func (p *Post) RemoveAttachment(a *Attachment) *Post {
	for i := range p.Attachments {
		if p.Attachments[i] == a || (a.ID != 0 && p.Attachments[i].ID == a.ID) {
			p.Attachments = append(p.Attachments[:i], p.Attachments[i+1:]...)
			break
		}
	}
	a.PostID = 0
	return p
}

// AddComment appends c to the post and points c back at it.
func (p *Post) AddComment(c *Comment) *Post {
	id := p.ID
	c.PostID = &id
	p.Comments = append(p.Comments, c)
	return p
}

// AddReport appends a ticket filed against the post.
func (p *Post) AddReport(t *Ticket) *Post {
	id := p.ID
	t.PostRelatedID = &id
	p.Reports = append(p.Reports, t)
	return p
}

// Directories is the storage path, relative to the attachments root, holding this post's files.
func (p *Post) Directories() []string {
	return []string{strconv.FormatUint(uint64(p.AccountID), 10), strconv.FormatUint(uint64(p.ID), 10)}
}
