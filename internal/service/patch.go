package service

import (
	"time"

	"ngelmak/internal/models"
	"ngelmak/internal/validation"
)

// Patch inputs decode merge-patch bodies. A nil field leaves the stored value untouched.

// PatchID carries the body id every patch must repeat.
type PatchID struct {
	ID *uint `json:"id"`
}

func (p PatchID) BodyID() *uint { return p.ID }

type AccountPatch struct {
	PatchID
	Name              *string               `json:"name"`
	Description       *string               `json:"description"`
	ForegroundPicture *string               `json:"foregroundPicture"`
	BackgroundPicture *string               `json:"backgroundPicture"`
	Visibility        *models.Accessibility `json:"visibility"`
	CreatedAt         *time.Time            `json:"createdAt"`
}

func (p *AccountPatch) apply(a *models.Account) error {
	if p.Visibility != nil && !p.Visibility.Valid() {
		return models.NewValidationError("invalid visibility")
	}
	set(&a.Name, p.Name)
	set(&a.ForegroundPicture, p.ForegroundPicture)
	set(&a.BackgroundPicture, p.BackgroundPicture)
	set(&a.Visibility, p.Visibility)
	set(&a.CreatedAt, p.CreatedAt)
	set(&a.Description, p.Description)
	return nil
}

type ConfigPatch struct {
	PatchID
	LastUpdate           *time.Time            `json:"lastUpdate"`
	DefaultAccessibility *models.Accessibility `json:"defaultAccessibility"`
	DefaultVisibility    *models.Visibility    `json:"defaultVisibility"`
}

func (p *ConfigPatch) apply(c *models.Config) error {
	if p.DefaultAccessibility != nil && !p.DefaultAccessibility.Valid() {
		return models.NewValidationError("invalid defaultAccessibility")
	}
	if p.DefaultVisibility != nil && !p.DefaultVisibility.Valid() {
		return models.NewValidationError("invalid defaultVisibility")
	}
	if p.LastUpdate != nil {
		c.LastUpdate = p.LastUpdate
	}
	set(&c.DefaultAccessibility, p.DefaultAccessibility)
	set(&c.DefaultVisibility, p.DefaultVisibility)
	return nil
}

type PostPatch struct {
	PatchID
	Title      *string            `json:"title"`
	Subtitle   *string            `json:"subtitle"`
	Keywords   *string            `json:"keywords"`
	Subject    *string            `json:"subject"`
	At         *time.Time         `json:"at"`
	LastUpdate *time.Time         `json:"lastUpdate"`
	Visibility *models.Visibility `json:"visibility"`
	Content    *string            `json:"content"`
	Status     *models.Status     `json:"status"`
}

func (p *PostPatch) apply(post *models.Post) error {
	if p.Visibility != nil && !p.Visibility.Valid() {
		return models.NewValidationError("invalid visibility")
	}
	if p.Status != nil && !p.Status.Valid() {
		return models.NewValidationError("invalid status")
	}
	if p.Title != nil && *p.Title == "" {
		return models.NewValidationError("title must not be empty")
	}
	set(&post.Title, p.Title)
	set(&post.Subtitle, p.Subtitle)
	set(&post.Keywords, p.Keywords)
	set(&post.Subject, p.Subject)
	set(&post.At, p.At)
	if p.LastUpdate != nil {
		post.LastUpdate = p.LastUpdate
	}
	set(&post.Visibility, p.Visibility)
	set(&post.Content, p.Content)
	set(&post.Status, p.Status)
	return nil
}

type AttachmentPatch struct {
	PatchID
	Type    *string `json:"type"`
	Content *string `json:"content"`
}

func (p *AttachmentPatch) apply(a *models.Attachment) error {
	set(&a.Type, p.Type)
	set(&a.Content, p.Content)
	return nil
}

type CommentPatch struct {
	PatchID
	Opinion    *models.Opinion `json:"opinion"`
	At         *time.Time      `json:"at"`
	LastUpdate *time.Time      `json:"lastUpdate"`
	Content    *string         `json:"content"`
}

func (p *CommentPatch) apply(c *models.Comment) error {
	if p.Opinion != nil && !p.Opinion.Valid() {
		return models.NewValidationError("invalid opinion")
	}
	set(&c.Opinion, p.Opinion)
	set(&c.At, p.At)
	if p.LastUpdate != nil {
		c.LastUpdate = p.LastUpdate
	}
	set(&c.Content, p.Content)
	return nil
}

type TicketPatch struct {
	PatchID
	Object  *string            `json:"object"`
	Type    *models.TicketType `json:"type"`
	At      *time.Time         `json:"at"`
	Closed  *bool              `json:"closed"`
	Content *string            `json:"content"`
}

func (p *TicketPatch) apply(t *models.Ticket) error {
	if p.Object != nil {
		if err := validation.ValidateTicketObject(*p.Object); err != nil {
			return models.NewValidationError(err.Error())
		}
	}
	if p.Type != nil && !p.Type.Valid() {
		return models.NewValidationError("invalid ticket type")
	}
	set(&t.Object, p.Object)
	set(&t.Type, p.Type)
	set(&t.At, p.At)
	if p.Closed != nil {
		t.Closed = p.Closed
	}
	set(&t.Content, p.Content)
	return nil
}

type ReviewPatch struct {
	PatchID
	At      *time.Time     `json:"at"`
	Status  *models.Status `json:"status"`
	Timeout *int           `json:"timeout"`
}

func (p *ReviewPatch) apply(r *models.Review) error {
	if p.Status != nil && !p.Status.Valid() {
		return models.NewValidationError("invalid status")
	}
	set(&r.At, p.At)
	set(&r.Status, p.Status)
	set(&r.Timeout, p.Timeout)
	return nil
}

type MembershipPatch struct {
	PatchID
	At                   *time.Time `json:"at"`
	ActivateNotification *bool      `json:"activateNotification"`
}

func (p *MembershipPatch) apply(m *models.Membership) error {
	set(&m.At, p.At)
	if p.ActivateNotification != nil {
		m.ActivateNotification = p.ActivateNotification
	}
	return nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
