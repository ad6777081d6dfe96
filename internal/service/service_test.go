package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"ngelmak/internal/database"
	"ngelmak/internal/featureflags"
	"ngelmak/internal/models"
	"ngelmak/internal/repository"
	"ngelmak/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type publishedEvent struct {
	Type    string
	Payload any
	UserIDs []uint
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, eventType string, payload any, userIDs ...uint) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Type: eventType, Payload: payload, UserIDs: userIDs})
	return nil
}

func (p *recordingPublisher) byType(eventType string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type recordingMailer struct {
	activation []string
	creation   []string
	reset      []string
}

func (m *recordingMailer) SendActivationEmail(_ context.Context, u *models.User) {
	m.activation = append(m.activation, u.Login)
}
func (m *recordingMailer) SendCreationEmail(_ context.Context, u *models.User) {
	m.creation = append(m.creation, u.Login)
}
func (m *recordingMailer) SendPasswordResetMail(_ context.Context, u *models.User) {
	m.reset = append(m.reset, u.Login)
}

// fixture wires every service against an in-memory database and a temp storage root.
type fixture struct {
	db          *gorm.DB
	root        string
	store       storage.Storage
	publisher   *recordingPublisher
	mailer      *recordingMailer
	accounts    *AccountService
	configs     *ConfigService
	posts       *PostService
	attachments *AttachmentService
	comments    *CommentService
	tickets     *TicketService
	reviews     *ReviewService
	memberships *MembershipService
	users       *UserService
}

func newFixture(t *testing.T, flags string) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	root := t.TempDir()
	store, err := storage.NewLocalStorage(root)
	require.NoError(t, err)

	ff := featureflags.NewManager(flags)
	f := &fixture{db: db, root: root, store: store, publisher: &recordingPublisher{}, mailer: &recordingMailer{}}

	accountRepo := repository.NewAccountRepository(db)
	configRepo := repository.NewConfigRepository(db)
	userRepo := repository.NewUserRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	ticketRepo := repository.NewTicketRepository(db)

	f.accounts = NewAccountService(accountRepo, configRepo, userRepo)
	f.configs = NewConfigService(configRepo)
	f.attachments = NewAttachmentService(repository.NewAttachmentRepository(db), store, ff, "attachments")
	f.posts = NewPostService(repository.NewPostRepository(db), accountRepo, membershipRepo, f.attachments, f.publisher, ff)
	f.comments = NewCommentService(repository.NewCommentRepository(db))
	f.tickets = NewTicketService(ticketRepo)
	f.reviews = NewReviewService(repository.NewReviewRepository(db), ticketRepo, f.publisher, ff)
	f.memberships = NewMembershipService(membershipRepo, f.publisher, ff)
	f.users = NewUserService(userRepo, f.mailer)
	f.users.cost = bcrypt.MinCost
	return f
}

func (f *fixture) user(t *testing.T, login string) *models.User {
	t.Helper()
	u, err := f.users.CreateUser(context.Background(), login, login+"@example.com", "secret", models.RoleUser)
	require.NoError(t, err)
	return u
}

func (f *fixture) account(t *testing.T, login string) (*models.User, *models.Account) {
	t.Helper()
	u := f.user(t, login)
	a, err := f.accounts.Create(context.Background(), u.ID, CreateAccountInput{Name: login, Description: login})
	require.NoError(t, err)
	return u, a
}

func (f *fixture) path(key string) string {
	return filepath.Join(f.root, filepath.FromSlash(key))
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func ptr[T any](v T) *T { return &v }

func TestAccountService_Create(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	t.Run("requires a user", func(t *testing.T) {
		_, err := f.accounts.Create(ctx, 0, CreateAccountInput{Name: "x"})
		assert.True(t, models.IsBadRequestAlert(err, models.ErrKeyUserNotFound))

		_, err = f.accounts.Create(ctx, 999, CreateAccountInput{Name: "x"})
		assert.True(t, models.IsBadRequestAlert(err, models.ErrKeyUserNotFound))
	})

	t.Run("opens the account with a default configuration", func(t *testing.T) {
		u, a := f.account(t, "alice")
		require.NotNil(t, a.UserID)
		assert.Equal(t, u.ID, *a.UserID)
		assert.False(t, a.CreatedAt.IsZero())

		cfg, err := f.configs.Get(ctx, a.ConfigurationID)
		require.NoError(t, err)
		assert.Equal(t, models.AccessibilityDefault, cfg.DefaultAccessibility)
		assert.Equal(t, models.VisibilityPrivate, cfg.DefaultVisibility)
		require.NotNil(t, cfg.LastUpdate)

		current, err := f.accounts.Current(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, a.ID, current.ID)
	})
}

func TestAccountService_UpdateAndPatch(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	_, a := f.account(t, "bob")

	_, err := f.accounts.Update(ctx, &models.Account{ID: 4242, Name: "ghost"})
	assert.True(t, models.IsBadRequestAlert(err, models.ErrKeyIDNotFound))

	updated, err := f.accounts.Update(ctx, &models.Account{ID: a.ID, Name: "bobby", Description: "new"})
	require.NoError(t, err)
	assert.Equal(t, a.ConfigurationID, updated.ConfigurationID)
	assert.Equal(t, a.UserID, updated.UserID)

	patched, err := f.accounts.PartialUpdate(ctx, a.ID, &AccountPatch{ForegroundPicture: ptr("fg.png")})
	require.NoError(t, err)
	assert.Equal(t, "bobby", patched.Name)
	assert.Equal(t, "new", patched.Description)
	assert.Equal(t, "fg.png", patched.ForegroundPicture)

	_, err = f.accounts.PartialUpdate(ctx, 4242, &AccountPatch{Name: ptr("x")})
	assert.Equal(t, 400, models.StatusFor(err))
	assert.True(t, models.IsBadRequestAlert(err, models.ErrKeyIDNotFound))

	_, err = f.accounts.PartialUpdate(ctx, a.ID, &AccountPatch{Visibility: ptr(models.Accessibility("NOPE"))})
	assert.Equal(t, 400, models.StatusFor(err))
}

func TestConfigService_FindWithoutAccount(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	f.account(t, "carol")

	orphan, err := f.configs.Create(ctx, models.NewDefaultConfig(time.Now()))
	require.NoError(t, err)

	configs, err := f.configs.FindWithoutAccount(ctx)
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Equal(t, orphan.ID, configs[0].ID)

	_, err = f.configs.Create(ctx, &models.Config{DefaultVisibility: "EVERYONE"})
	assert.Equal(t, 400, models.StatusFor(err))
}

func TestPostService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("without account", func(t *testing.T) {
		f := newFixture(t, "")
		u := f.user(t, "noaccount")
		_, err := f.posts.Create(ctx, u.ID, &models.Post{Title: "hello"}, nil, nil)
		assert.True(t, models.IsBadRequestAlert(err, models.ErrKeyAccountNotFound))
	})

	t.Run("stores files under the post directory", func(t *testing.T) {
		f := newFixture(t, "")
		u, a := f.account(t, "dave")

		post, err := f.posts.Create(ctx, u.ID, &models.Post{Title: "hello", Status: models.StatusValidated},
			[]*models.Attachment{
				{Category: models.CategoryText, Position: 0, Type: "text/plain", Content: "intro"},
				{Category: models.CategoryDocument, Position: 1, Type: "application/pdf", Filename: "doc.pdf"},
			},
			[]Upload{BytesUpload("upload.pdf", "application/pdf", []byte("%PDF-1.4 body"))},
		)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, post.Status)
		assert.Equal(t, a.ID, post.AccountID)
		assert.False(t, post.At.IsZero())
		require.Len(t, post.Attachments, 2)

		doc := post.Attachments[1]
		assert.Equal(t, "doc.pdf", doc.Filename)
		assert.Equal(t, int64(len("%PDF-1.4 body")), doc.Size)
		key, err := storage.Key("doc.pdf", append([]string{"attachments"}, post.Directories()...)...)
		require.NoError(t, err)
		assert.Equal(t, key, doc.URL)
		assert.FileExists(t, f.path(key))
		assert.Empty(t, post.Attachments[0].URL)
	})

	t.Run("missing file", func(t *testing.T) {
		f := newFixture(t, "")
		u, _ := f.account(t, "erin")
		_, err := f.posts.Create(ctx, u.ID, &models.Post{Title: "hello"},
			[]*models.Attachment{{Category: models.CategoryImage, Type: "image/png", Filename: "a.png"}}, nil)
		assert.True(t, models.IsBadRequestAlert(err, models.ErrKeyFileMissing))

		var count int64
		require.NoError(t, f.db.Model(&models.Post{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("empty file is a storage error", func(t *testing.T) {
		f := newFixture(t, "")
		u, _ := f.account(t, "fred")
		_, err := f.posts.Create(ctx, u.ID, &models.Post{Title: "hello"},
			[]*models.Attachment{{Category: models.CategoryDocument, Type: "text/plain", Filename: "empty.txt"}},
			[]Upload{BytesUpload("empty.txt", "text/plain", nil)})
		assert.ErrorIs(t, err, storage.ErrStorage)
		assert.Equal(t, 500, models.StatusFor(err))

		var count int64
		require.NoError(t, f.db.Model(&models.Post{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("notifies followers when realtime is on", func(t *testing.T) {
		f := newFixture(t, "realtime=on")
		author, authorAccount := f.account(t, "gina")
		follower, followerAccount := f.account(t, "hank")
		_, err := f.memberships.Create(ctx, &models.Membership{AccountID: authorAccount.ID, SubscriberID: followerAccount.ID})
		require.NoError(t, err)

		_, err = f.posts.Create(ctx, author.ID, &models.Post{Title: "news"}, nil, nil)
		require.NoError(t, err)

		created := f.publisher.byType("post.created")
		require.Len(t, created, 1)
		assert.Equal(t, []uint{follower.ID}, created[0].UserIDs)

		joined := f.publisher.byType("membership.created")
		require.Len(t, joined, 1)
		assert.Equal(t, []uint{author.ID}, joined[0].UserIDs)
	})
}

func TestPostService_Update(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, status models.Status) (*fixture, *models.Post) {
		f := newFixture(t, "")
		u, _ := f.account(t, "ivan")
		post, err := f.posts.Create(ctx, u.ID, &models.Post{Title: "draft", Subtitle: "keep me"},
			[]*models.Attachment{{Category: models.CategoryDocument, Type: "text/plain", Filename: "old.txt"}},
			[]Upload{BytesUpload("old.txt", "text/plain", []byte("old content"))})
		require.NoError(t, err)
		if status != models.StatusPending {
			post, err = f.posts.PartialUpdate(ctx, post.ID, &PostPatch{Status: &status})
			require.NoError(t, err)
		}
		return f, post
	}

	t.Run("id rules", func(t *testing.T) {
		f, _ := setup(t, models.StatusPending)
		_, err := f.posts.Update(ctx, &PostPatch{Title: ptr("x")}, nil, nil, nil)
		assert.True(t, models.IsBadRequestAlert(err, models.ErrKeyIDNull))

		_, err = f.posts.Update(ctx, &PostPatch{PatchID: PatchID{ID: ptr(uint(999))}}, nil, nil, nil)
		assert.True(t, models.IsBadRequestAlert(err, models.ErrKeyIDNotFound))
	})

	t.Run("pending post loses removed attachments for good", func(t *testing.T) {
		f, post := setup(t, models.StatusPending)
		old := post.Attachments[0]

		updated, err := f.posts.Update(ctx, &PostPatch{PatchID: PatchID{ID: &post.ID}, Title: ptr("final")},
			[]*models.Attachment{{Category: models.CategoryDocument, Type: "text/plain", Filename: "new.txt"}},
			[]uint{old.ID},
			[]Upload{BytesUpload("new.txt", "text/plain", []byte("new content"))})
		require.NoError(t, err)
		assert.Equal(t, "final", updated.Title)
		assert.Equal(t, "keep me", updated.Subtitle)
		assert.Equal(t, models.StatusPending, updated.Status)
		require.NotNil(t, updated.LastUpdate)
		require.Len(t, updated.Attachments, 1)
		assert.Equal(t, "new.txt", updated.Attachments[0].Filename)

		assert.NoFileExists(t, f.path(old.URL))
		var count int64
		require.NoError(t, f.db.Model(&models.Attachment{}).Where("id = ?", old.ID).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("validated post keeps removed attachments soft deleted", func(t *testing.T) {
		f, post := setup(t, models.StatusValidated)
		old := post.Attachments[0]

		updated, err := f.posts.Update(ctx, &PostPatch{PatchID: PatchID{ID: &post.ID}}, nil, []uint{old.ID}, nil)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, updated.Status)
		assert.Empty(t, updated.Attachments)

		assert.FileExists(t, f.path(old.URL))
		var stored models.Attachment
		require.NoError(t, f.db.First(&stored, old.ID).Error)
		assert.True(t, stored.IsSoftDeleted())

		purged, err := f.attachments.PurgeDeleted(ctx, time.Now().Add(time.Minute), 10)
		require.NoError(t, err)
		assert.Equal(t, 1, purged)
		assert.NoFileExists(t, f.path(old.URL))
	})
}

func TestPostService_Delete(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	u, _ := f.account(t, "judy")
	post, err := f.posts.Create(ctx, u.ID, &models.Post{Title: "gone soon"},
		[]*models.Attachment{{Category: models.CategoryDocument, Type: "text/plain", Filename: "a.txt"}},
		[]Upload{BytesUpload("a.txt", "text/plain", []byte("content"))})
	require.NoError(t, err)
	file := f.path(post.Attachments[0].URL)

	require.NoError(t, f.posts.Delete(ctx, post.ID))
	assert.NoFileExists(t, file)
	assert.NoDirExists(t, filepath.Dir(file))

	_, err = f.posts.Get(ctx, post.ID)
	assert.Equal(t, 404, models.StatusFor(err))
	assert.Equal(t, 404, models.StatusFor(f.posts.Delete(ctx, post.ID)))
}

func TestAttachmentService_ResourceAndPreview(t *testing.T) {
	ctx := context.Background()

	t.Run("preview generated when enabled", func(t *testing.T) {
		f := newFixture(t, "attachment_previews=on")
		u, _ := f.account(t, "kate")
		post, err := f.posts.Create(ctx, u.ID, &models.Post{Title: "pics"},
			[]*models.Attachment{{Category: models.CategoryImage, Type: "image/png", Filename: "pic.png"}},
			[]Upload{BytesUpload("pic.png", "image/png", pngBytes(t, 800, 200))})
		require.NoError(t, err)
		id := post.Attachments[0].ID

		data, contentType, err := f.attachments.Resource(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "image/png", contentType)
		assert.NotEmpty(t, data)

		preview, err := f.attachments.Preview(ctx, id)
		require.NoError(t, err)
		assert.NotEmpty(t, preview)

		require.NoError(t, f.attachments.Remove(ctx, id))
		_, _, err = f.attachments.Resource(ctx, id)
		assert.Equal(t, 404, models.StatusFor(err))
	})

	t.Run("no preview when disabled", func(t *testing.T) {
		f := newFixture(t, "")
		u, _ := f.account(t, "liam")
		post, err := f.posts.Create(ctx, u.ID, &models.Post{Title: "pics"},
			[]*models.Attachment{{Category: models.CategoryImage, Type: "image/png", Filename: "pic.png"}},
			[]Upload{BytesUpload("pic.png", "image/png", pngBytes(t, 10, 10))})
		require.NoError(t, err)

		_, err = f.attachments.Preview(ctx, post.Attachments[0].ID)
		assert.Equal(t, 404, models.StatusFor(err))
	})

	t.Run("text attachment has no resource", func(t *testing.T) {
		f := newFixture(t, "")
		a, err := f.attachments.Create(ctx, &models.Attachment{Category: models.CategoryText, Type: "text/plain", Content: "hi", PostID: 1})
		require.NoError(t, err)
		_, _, err = f.attachments.Resource(ctx, a.ID)
		assert.Equal(t, 404, models.StatusFor(err))

		patched, err := f.attachments.PartialUpdate(ctx, a.ID, &AttachmentPatch{Content: ptr("bye")})
		require.NoError(t, err)
		assert.Equal(t, "bye", patched.Content)
		assert.Equal(t, "text/plain", patched.Type)
	})
}

func TestSocialServices(t *testing.T) {
	f := newFixture(t, "realtime=on")
	ctx := context.Background()
	issuer, issuerAccount := f.account(t, "mona")
	_, moderator := f.account(t, "nina")

	comment, err := f.comments.Create(ctx, &models.Comment{AccountID: issuerAccount.ID, Content: "first"})
	require.NoError(t, err)
	assert.Equal(t, models.OpinionDefault, comment.Opinion)
	assert.False(t, comment.At.IsZero())

	patched, err := f.comments.PartialUpdate(ctx, comment.ID, &CommentPatch{Opinion: ptr(models.OpinionStrengthened)})
	require.NoError(t, err)
	assert.Equal(t, models.OpinionStrengthened, patched.Opinion)
	assert.Equal(t, "first", patched.Content)

	_, err = f.tickets.Create(ctx, &models.Ticket{Object: "too short", Type: models.TicketSpam, IssuedByID: issuerAccount.ID})
	assert.Equal(t, 400, models.StatusFor(err))

	object := "This post repeats the same advertisement in every paragraph of its content"
	ticket, err := f.tickets.Create(ctx, &models.Ticket{Object: object, Type: models.TicketSpam, IssuedByID: issuerAccount.ID})
	require.NoError(t, err)

	closed, err := f.tickets.PartialUpdate(ctx, ticket.ID, &TicketPatch{Closed: ptr(true)})
	require.NoError(t, err)
	require.NotNil(t, closed.Closed)
	assert.True(t, *closed.Closed)
	assert.Equal(t, object, closed.Object)

	_, err = f.reviews.Create(ctx, &models.Review{Status: models.StatusValidated, Timeout: 3, AccountID: moderator.ID, TicketID: &ticket.ID})
	require.NoError(t, err)
	reviewed := f.publisher.byType("review.created")
	require.Len(t, reviewed, 1)
	assert.Equal(t, []uint{issuer.ID}, reviewed[0].UserIDs)

	_, err = f.reviews.Update(ctx, &models.Review{ID: 999, Status: models.StatusValidated, AccountID: moderator.ID})
	assert.True(t, models.IsBadRequestAlert(err, models.ErrKeyIDNotFound))

	page, err := f.comments.List(ctx, repository.PageRequest{Page: 0, Size: 10, Sort: []repository.SortOrder{{Property: "at", Desc: true}}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	_, err = f.comments.List(ctx, repository.PageRequest{Sort: []repository.SortOrder{{Property: "nope"}}})
	assert.Equal(t, 400, models.StatusFor(err))
}

func TestUserService_Lifecycle(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	_, err := f.users.Register(ctx, RegisterInput{Login: "olga", Email: "olga@example.com", Password: "abc"})
	assert.Equal(t, 400, models.StatusFor(err))

	user, err := f.users.Register(ctx, RegisterInput{Login: "Olga", Email: "olga@example.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "olga", user.Login)
	assert.False(t, user.Activated)
	require.NotNil(t, user.ActivationKey)
	assert.Equal(t, []string{"olga"}, f.mailer.activation)

	_, err = f.users.Register(ctx, RegisterInput{Login: "olga", Email: "other@example.com", Password: "s3cret"})
	assert.True(t, models.IsBadRequestAlert(err, models.ErrKeyUserExists))
	_, err = f.users.Register(ctx, RegisterInput{Login: "olga2", Email: "OLGA@example.com", Password: "s3cret"})
	assert.True(t, models.IsBadRequestAlert(err, models.ErrKeyEmailExists))

	_, err = f.users.Authenticate(ctx, "olga", "s3cret")
	assert.Equal(t, 401, models.StatusFor(err))

	_, err = f.users.Activate(ctx, "unknown")
	require.Error(t, err)
	assert.Equal(t, 500, models.StatusFor(err))
	assert.Equal(t, "No user was found for this activation key", err.Error())

	_, err = f.users.Activate(ctx, *user.ActivationKey)
	require.NoError(t, err)

	_, err = f.users.Authenticate(ctx, "olga", "wrong")
	assert.Equal(t, 401, models.StatusFor(err))
	signedIn, err := f.users.Authenticate(ctx, "OLGA", "s3cret")
	require.NoError(t, err)
	assert.True(t, signedIn.HasAuthority(models.RoleUser))

	require.NoError(t, f.users.RequestPasswordReset(ctx, "nobody@example.com"))
	require.NoError(t, f.users.RequestPasswordReset(ctx, "olga@example.com"))
	assert.Equal(t, []string{"olga"}, f.mailer.reset)

	stored, err := repository.NewUserRepository(f.db).GetByLogin(ctx, "olga")
	require.NoError(t, err)
	require.NotNil(t, stored.ResetKey)

	_, err = f.users.CompletePasswordReset(ctx, "bad-key", "n3wpass")
	assert.Equal(t, 500, models.StatusFor(err))
	_, err = f.users.CompletePasswordReset(ctx, *stored.ResetKey, "n3wpass")
	require.NoError(t, err)
	_, err = f.users.Authenticate(ctx, "olga", "n3wpass")
	require.NoError(t, err)
}

func TestUserService_ResetKeyExpires(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	f.user(t, "paul")

	issued := time.Now().Add(-25 * time.Hour)
	f.users.now = func() time.Time { return issued }
	require.NoError(t, f.users.RequestPasswordReset(ctx, "paul@example.com"))
	f.users.now = time.Now

	stored, err := repository.NewUserRepository(f.db).GetByLogin(ctx, "paul")
	require.NoError(t, err)
	_, err = f.users.CompletePasswordReset(ctx, *stored.ResetKey, "n3wpass")
	assert.Equal(t, 500, models.StatusFor(err))
}
