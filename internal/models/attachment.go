package models

import "time"

// Attachment is a piece of content of a post. Everything but TEXT is backed by a stored file.
type Attachment struct {
	ID        uint               `gorm:"primaryKey" json:"id"`
	Category  AttachmentCategory `gorm:"size:20;not null" json:"category"`
	Position  int                `gorm:"not null" json:"position"`
	Filename  string             `json:"filename,omitempty"`
	Size      int64              `json:"size,omitempty"`
	Duration  *int               `json:"duration,omitempty"`
	URL       string             `gorm:"column:url" json:"url,omitempty"`
	Content   string             `gorm:"type:text" json:"content,omitempty"`
	Type      string             `gorm:"not null" json:"type"`
	DeletedAt *time.Time         `gorm:"index" json:"deletedAt,omitempty"`

	PostID uint `gorm:"not null;index" json:"postId"`
}

// IsSoftDeleted reports whether the attachment awaits reclamation.
func (a *Attachment) IsSoftDeleted() bool {
	return a.DeletedAt != nil
}

// PreviewName is the filename of the generated preview stored next to the original.
func (a *Attachment) PreviewName() string {
	return a.Filename + ".preview.webp"
}
