// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"ngelmak/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password every generated user signs in with.
const DefaultPassword = "password123"

var ticketTypes = []models.TicketType{
	models.TicketSpam, models.TicketAbuse, models.TicketMisinformation, models.TicketCopyright, models.TicketOther,
}

var opinions = []models.Opinion{
	models.OpinionDefault, models.OpinionOpposed, models.OpinionSupport, models.OpinionNeutral, models.OpinionStrengthened,
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db       *gorm.DB
	rnd      *rand.Rand
	password string
	maxDays  int
}

// NewFactory creates a Factory bound to db. A zero seed picks one from the clock.
func NewFactory(db *gorm.DB, seed int64) (*Factory, error) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}
	return &Factory{
		db: db,
		//nolint:gosec // Weak random number generator is fine for seeding
		rnd:      rand.New(rand.NewSource(seed)),
		password: string(hash),
		maxDays:  90,
	}, nil
}

func (f *Factory) past() time.Time {
	back := time.Duration(f.rnd.Intn(f.maxDays*24*60)) * time.Minute
	return time.Now().Add(-back)
}

// CreateUserWithAccount persists an activated user owning an account with its default configuration.
func (f *Factory) CreateUserWithAccount() (*models.User, *models.Account, error) {
	login := strings.ToLower(gofakeit.Username()) + fmt.Sprint(f.rnd.Intn(10000))
	user := &models.User{
		Login:       login,
		Email:       login + "@example.com",
		Password:    f.password,
		FirstName:   gofakeit.FirstName(),
		LastName:    gofakeit.LastName(),
		Activated:   true,
		LangKey:     "en",
		Authorities: []models.Authority{{Name: models.RoleUser}},
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	created := f.past()
	cfg := models.NewDefaultConfig(created)
	if err := f.db.Create(cfg).Error; err != nil {
		return nil, nil, fmt.Errorf("create config: %w", err)
	}
	account := &models.Account{
		Name:              gofakeit.Name(),
		Description:       gofakeit.Sentence(12),
		ForegroundPicture: fmt.Sprintf("https://picsum.photos/seed/%s/200/200", gofakeit.UUID()),
		Visibility:        models.AccessibilityPublic,
		CreatedAt:         created,
		ConfigurationID:   cfg.ID,
		UserID:            &user.ID,
	}
	if err := f.db.Omit(clause.Associations).Create(account).Error; err != nil {
		return nil, nil, fmt.Errorf("create account: %w", err)
	}
	return user, account, nil
}

// BuildPost constructs a post for account without persisting it.
func (f *Factory) BuildPost(account *models.Account, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		Title:      gofakeit.Sentence(5),
		Subtitle:   gofakeit.Sentence(8),
		Keywords:   strings.Join([]string{gofakeit.Noun(), gofakeit.Noun(), gofakeit.Noun()}, ","),
		Subject:    gofakeit.HipsterWord(),
		At:         f.past(),
		Visibility: models.VisibilityPublic,
		Content:    gofakeit.Paragraph(2, 4, 12, "\n"),
		Status:     models.StatusValidated,
	}
	account.AddPost(post)
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost persists a post with two TEXT attachments.
func (f *Factory) CreatePost(account *models.Account, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(account, overrides...)
	if err := f.db.Omit(clause.Associations).Create(post).Error; err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	attachments := []*models.Attachment{
		{Category: models.CategoryText, Position: 0, Type: "text/plain", Content: gofakeit.Paragraph(1, 3, 10, "\n")},
		{Category: models.CategoryText, Position: 1, Type: "text/markdown", Content: "[" + gofakeit.Noun() + "](" + gofakeit.URL() + ")"},
	}
	for _, a := range attachments {
		post.AddAttachment(a)
		if err := f.db.Create(a).Error; err != nil {
			return nil, fmt.Errorf("create attachment: %w", err)
		}
	}
	return post, nil
}

// CreateComment persists a comment from author on post.
func (f *Factory) CreateComment(post *models.Post, author *models.Account) (*models.Comment, error) {
	comment := &models.Comment{
		Opinion:   opinions[f.rnd.Intn(len(opinions))],
		At:        f.past(),
		Content:   gofakeit.Sentence(10),
		AccountID: author.ID,
	}
	post.AddComment(comment)
	if err := f.db.Omit(clause.Associations).Create(comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// CreateMembership makes subscriber follow account.
func (f *Factory) CreateMembership(account, subscriber *models.Account) (*models.Membership, error) {
	notify := f.rnd.Intn(2) == 0
	m := &models.Membership{At: f.past(), ActivateNotification: &notify}
	account.AddMembership(m)
	subscriber.AddSubscription(m)
	if err := f.db.Create(m).Error; err != nil {
		return nil, fmt.Errorf("create membership: %w", err)
	}
	return m, nil
}

// CreateTicket files a report from issuer against post, reviewed once by moderator.
func (f *Factory) CreateTicket(post *models.Post, issuer, moderator *models.Account) (*models.Ticket, error) {
	object := gofakeit.Sentence(12)
	for len(object) < models.TicketObjectMin {
		object += " " + gofakeit.Word()
	}
	if len(object) > models.TicketObjectMax {
		object = object[:models.TicketObjectMax]
	}
	ticket := &models.Ticket{
		Object:  object,
		Type:    ticketTypes[f.rnd.Intn(len(ticketTypes))],
		At:      f.past(),
		Content: gofakeit.Paragraph(1, 2, 10, "\n"),
	}
	issuer.AddOwner(ticket)
	post.AddReport(ticket)
	if err := f.db.Omit(clause.Associations).Create(ticket).Error; err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	review := &models.Review{At: time.Now(), Status: models.StatusValidated, Timeout: f.rnd.Intn(7), AccountID: moderator.ID}
	ticket.AddReview(review)
	if err := f.db.Omit(clause.Associations).Create(review).Error; err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	return ticket, nil
}
