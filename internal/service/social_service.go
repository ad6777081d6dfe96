package service

import (
	"context"
	"time"

	"ngelmak/internal/featureflags"
	"ngelmak/internal/middleware"
	"ngelmak/internal/models"
	"ngelmak/internal/notifications"
	"ngelmak/internal/repository"
	"ngelmak/internal/validation"
)

type CommentService struct {
	crudService[models.Comment]
	now func() time.Time
}

func NewCommentService(comments repository.CommentRepository) *CommentService {
	return &CommentService{
		crudService: crudService[models.Comment]{repo: comments, entity: EntityComment},
		now:         time.Now,
	}
}

func validateComment(c *models.Comment) error {
	if c.Opinion == "" {
		c.Opinion = models.OpinionDefault
	}
	if !c.Opinion.Valid() {
		return models.NewValidationError("invalid opinion")
	}
	if c.AccountID == 0 {
		return models.NewValidationError("accountId is required")
	}
	return nil
}

func (s *CommentService) Create(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	if err := validateComment(c); err != nil {
		return nil, err
	}
	c.At = orNow(c.At, s.now())
	if err := s.create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CommentService) Update(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	if err := validateComment(c); err != nil {
		return nil, err
	}
	err := s.replace(ctx, c.ID, c, func(stored, incoming *models.Comment) {
		incoming.At = orNow(incoming.At, stored.At)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CommentService) PartialUpdate(ctx context.Context, id uint, p *CommentPatch) (*models.Comment, error) {
	return s.patch(ctx, id, p.apply)
}

type TicketService struct {
	crudService[models.Ticket]
	now func() time.Time
}

func NewTicketService(tickets repository.TicketRepository) *TicketService {
	return &TicketService{
		crudService: crudService[models.Ticket]{repo: tickets, entity: EntityTicket},
		now:         time.Now,
	}
}

func validateTicket(t *models.Ticket) error {
	if err := validation.ValidateTicketObject(t.Object); err != nil {
		return models.NewValidationError(err.Error())
	}
	if !t.Type.Valid() {
		return models.NewValidationError("invalid ticket type")
	}
	if t.IssuedByID == 0 {
		return models.NewValidationError("issuedById is required")
	}
	return nil
}

func (s *TicketService) Create(ctx context.Context, t *models.Ticket) (*models.Ticket, error) {
	if err := validateTicket(t); err != nil {
		return nil, err
	}
	t.At = orNow(t.At, s.now())
	if err := s.create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TicketService) Update(ctx context.Context, t *models.Ticket) (*models.Ticket, error) {
	if err := validateTicket(t); err != nil {
		return nil, err
	}
	err := s.replace(ctx, t.ID, t, func(stored, incoming *models.Ticket) {
		incoming.At = orNow(incoming.At, stored.At)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TicketService) PartialUpdate(ctx context.Context, id uint, p *TicketPatch) (*models.Ticket, error) {
	return s.patch(ctx, id, p.apply)
}

type ReviewService struct {
	crudService[models.Review]
	tickets repository.TicketRepository
	events  events
	now     func() time.Time
}

func NewReviewService(reviews repository.ReviewRepository, tickets repository.TicketRepository, publisher EventPublisher, flags *featureflags.Manager) *ReviewService {
	return &ReviewService{
		crudService: crudService[models.Review]{repo: reviews, entity: EntityReview},
		tickets:     tickets,
		events:      events{publisher: publisher, flags: flags},
		now:         time.Now,
	}
}

func validateReview(r *models.Review) error {
	if !r.Status.Valid() {
		return models.NewValidationError("invalid status")
	}
	if r.AccountID == 0 {
		return models.NewValidationError("accountId is required")
	}
	return nil
}

// Create stores the review and tells the ticket's issuer about it.
func (s *ReviewService) Create(ctx context.Context, r *models.Review) (*models.Review, error) {
	if err := validateReview(r); err != nil {
		return nil, err
	}
	r.At = orNow(r.At, s.now())
	if err := s.create(ctx, r); err != nil {
		return nil, err
	}
	if r.TicketID != nil {
		userID, err := s.tickets.IssuerUserID(ctx, *r.TicketID)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "failed to resolve ticket issuer", "ticket_id", *r.TicketID, "error", err)
		} else if userID != 0 {
			s.events.publish(ctx, notifications.EventReviewCreated, r, userID)
		}
	}
	return r, nil
}

func (s *ReviewService) Update(ctx context.Context, r *models.Review) (*models.Review, error) {
	if err := validateReview(r); err != nil {
		return nil, err
	}
	err := s.replace(ctx, r.ID, r, func(stored, incoming *models.Review) {
		incoming.At = orNow(incoming.At, stored.At)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *ReviewService) PartialUpdate(ctx context.Context, id uint, p *ReviewPatch) (*models.Review, error) {
	return s.patch(ctx, id, p.apply)
}

type MembershipService struct {
	crudService[models.Membership]
	memberships repository.MembershipRepository
	events      events
	now         func() time.Time
}

func NewMembershipService(memberships repository.MembershipRepository, publisher EventPublisher, flags *featureflags.Manager) *MembershipService {
	return &MembershipService{
		crudService: crudService[models.Membership]{repo: memberships, entity: EntityMembership},
		memberships: memberships,
		events:      events{publisher: publisher, flags: flags},
		now:         time.Now,
	}
}

func validateMembership(m *models.Membership) error {
	if m.AccountID == 0 || m.SubscriberID == 0 {
		return models.NewValidationError("accountId and subscriberId are required")
	}
	return nil
}

// Create subscribes an account and notifies the owner of the followed account.
func (s *MembershipService) Create(ctx context.Context, m *models.Membership) (*models.Membership, error) {
	if err := validateMembership(m); err != nil {
		return nil, err
	}
	m.At = orNow(m.At, s.now())
	if err := s.create(ctx, m); err != nil {
		return nil, err
	}
	userID, err := s.memberships.AccountUserID(ctx, m.AccountID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "failed to resolve account owner", "account_id", m.AccountID, "error", err)
	} else if userID != 0 {
		s.events.publish(ctx, notifications.EventMembershipCreated, m, userID)
	}
	return m, nil
}

func (s *MembershipService) Update(ctx context.Context, m *models.Membership) (*models.Membership, error) {
	if err := validateMembership(m); err != nil {
		return nil, err
	}
	err := s.replace(ctx, m.ID, m, func(stored, incoming *models.Membership) {
		incoming.At = orNow(incoming.At, stored.At)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MembershipService) PartialUpdate(ctx context.Context, id uint, p *MembershipPatch) (*models.Membership, error) {
	return s.patch(ctx, id, p.apply)
}
