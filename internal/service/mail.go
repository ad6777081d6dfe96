package service

import (
	"context"
	"net/url"

	"ngelmak/internal/middleware"
	"ngelmak/internal/models"
)

// Mailer sends account lifecycle messages.
type Mailer interface {
	SendActivationEmail(ctx context.Context, user *models.User)
	SendCreationEmail(ctx context.Context, user *models.User)
	SendPasswordResetMail(ctx context.Context, user *models.User)
}

// MailService writes outgoing messages to the structured log instead of an SMTP relay.
type MailService struct {
	from    string
	baseURL string
}

func NewMailService(from, baseURL string) *MailService {
	return &MailService{from: from, baseURL: baseURL}
}

func (m *MailService) SendActivationEmail(ctx context.Context, user *models.User) {
	m.send(ctx, user, "activation", "/account/activate", user.ActivationKey)
}

func (m *MailService) SendCreationEmail(ctx context.Context, user *models.User) {
	m.send(ctx, user, "creation", "/account/reset/finish", user.ResetKey)
}

func (m *MailService) SendPasswordResetMail(ctx context.Context, user *models.User) {
	m.send(ctx, user, "password_reset", "/account/reset/finish", user.ResetKey)
}

func (m *MailService) send(ctx context.Context, user *models.User, kind, path string, key *string) {
	if user.Email == "" {
		middleware.Logger.DebugContext(ctx, "email doesn't exist for user", "login", user.Login)
		return
	}
	link := m.baseURL + path
	if key != nil {
		link += "?key=" + url.QueryEscape(*key)
	}
	middleware.Logger.InfoContext(ctx, "sending email",
		"kind", kind,
		"from", m.from,
		"to", user.Email,
		"lang", user.LangKey,
		"link", link,
	)
}
