package models

// Status is the moderation state of posts and reviews.
type Status string

const (
	StatusPending      Status = "PENDING"
	StatusRejected     Status = "REJECTED"
	StatusValidated    Status = "VALIDATED"
	StatusSuspended    Status = "SUSPENDED"
	StatusDeleting     Status = "DELETING"
	StatusNotQualified Status = "NOT_QUALIFIED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRejected, StatusValidated, StatusSuspended, StatusDeleting, StatusNotQualified:
		return true
	}
	return false
}

// AttachmentCategory tells how an attachment is rendered and whether it carries a file.
type AttachmentCategory string

const (
	CategoryText          AttachmentCategory = "TEXT"
	CategoryDocument      AttachmentCategory = "DOCUMENT"
	CategoryImage         AttachmentCategory = "IMAGE"
	CategoryVideo         AttachmentCategory = "VIDEO"
	CategoryVoiceRecorded AttachmentCategory = "VOICE_RECORDED"
	CategoryLink          AttachmentCategory = "LINK"
)

func (c AttachmentCategory) Valid() bool {
	switch c {
	case CategoryText, CategoryDocument, CategoryImage, CategoryVideo, CategoryVoiceRecorded, CategoryLink:
		return true
	}
	return false
}

// HasFile reports whether attachments of this category are backed by an uploaded file.
func (c AttachmentCategory) HasFile() bool {
	return c != CategoryText
}

type Accessibility string

const (
	AccessibilityDefault   Accessibility = "DEFAULT"
	AccessibilityPublic    Accessibility = "PUBLIC"
	AccessibilityPrivate   Accessibility = "PRIVATE"
	AccessibilityAuthority Accessibility = "AUTHORITY"
	AccessibilityJurnalist Accessibility = "JURNALIST"
)

func (a Accessibility) Valid() bool {
	switch a {
	case AccessibilityDefault, AccessibilityPublic, AccessibilityPrivate, AccessibilityAuthority, AccessibilityJurnalist:
		return true
	}
	return false
}

// Opinion of a comment on its post. Strengthened is stored and serialized as REINFORCED.
type Opinion string

const (
	OpinionDefault      Opinion = "DEFAULT"
	OpinionOpposed      Opinion = "OPPOSED"
	OpinionSupport      Opinion = "SUPPORT"
	OpinionNeutral      Opinion = "NEUTRAL"
	OpinionStrengthened Opinion = "REINFORCED"
)

func (o Opinion) Valid() bool {
	switch o {
	case OpinionDefault, OpinionOpposed, OpinionSupport, OpinionNeutral, OpinionStrengthened:
		return true
	}
	return false
}

type Visibility string

const (
	VisibilityPublic      Visibility = "PUBLIC"
	VisibilityPrivate     Visibility = "PRIVATE"
	VisibilitySubscribers Visibility = "SUBSCRIBERS"
)

func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate, VisibilitySubscribers:
		return true
	}
	return false
}

type TicketType string

const (
	TicketSpam           TicketType = "SPAM"
	TicketAbuse          TicketType = "ABUSE"
	TicketMisinformation TicketType = "MISINFORMATION"
	TicketCopyright      TicketType = "COPYRIGHT"
	TicketOther          TicketType = "OTHER"
)

func (t TicketType) Valid() bool {
	switch t {
	case TicketSpam, TicketAbuse, TicketMisinformation, TicketCopyright, TicketOther:
		return true
	}
	return false
}
