package repository

import (
	"context"

	"ngelmak/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CRUDRepository[models.Comment]
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return newCRUDRepository[models.Comment](db)
}

// TicketRepository defines the interface for moderation ticket data operations
type TicketRepository interface {
	CRUDRepository[models.Ticket]
	IssuerUserID(ctx context.Context, ticketID uint) (uint, error)
}

type ticketRepository struct {
	*crudRepository[models.Ticket]
}

func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepository{newCRUDRepository[models.Ticket](db)}
}

// IssuerUserID resolves the user behind the account that issued the ticket. Zero when none.
func (r *ticketRepository) IssuerUserID(ctx context.Context, ticketID uint) (uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Table("tickets t").
		Joins("JOIN ngelmak_accounts a ON a.id = t.issuedby_id").
		Where("t.id = ? AND a.user_id IS NOT NULL", ticketID).
		Pluck("a.user_id", &ids).Error
	if err != nil || len(ids) == 0 {
		return 0, err
	}
	return ids[0], nil
}

// ReviewRepository defines the interface for review data operations
type ReviewRepository interface {
	CRUDRepository[models.Review]
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return newCRUDRepository[models.Review](db)
}

// MembershipRepository defines the interface for membership data operations
type MembershipRepository interface {
	CRUDRepository[models.Membership]
	SubscriberUserIDs(ctx context.Context, accountID uint) ([]uint, error)
	AccountUserID(ctx context.Context, accountID uint) (uint, error)
}

type membershipRepository struct {
	*crudRepository[models.Membership]
}

func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{newCRUDRepository[models.Membership](db)}
}

// SubscriberUserIDs lists the users following accountID through one of their accounts.
func (r *membershipRepository) SubscriberUserIDs(ctx context.Context, accountID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Table("memberships m").
		Joins("JOIN ngelmak_accounts a ON a.id = m.subscriber_id").
		Where("m.account_id = ? AND a.user_id IS NOT NULL", accountID).
		Distinct().
		Pluck("a.user_id", &ids).Error
	return ids, err
}

// AccountUserID resolves the owner of accountID. Zero when the account has no user.
func (r *membershipRepository) AccountUserID(ctx context.Context, accountID uint) (uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ? AND user_id IS NOT NULL", accountID).
		Pluck("user_id", &ids).Error
	if err != nil || len(ids) == 0 {
		return 0, err
	}
	return ids[0], nil
}
