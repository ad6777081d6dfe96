package seed

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"ngelmak/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Fixtures is a hand-written data set, loaded from YAML.
//
//	accounts:
//	  - login: alice
//	    password: secret
//	    name: Alice
//	    posts:
//	      - title: Hello
//	        content: First post
//	    follows: [bob]
type Fixtures struct {
	Accounts []AccountFixture `yaml:"accounts"`
}

type AccountFixture struct {
	Login       string        `yaml:"login"`
	Email       string        `yaml:"email"`
	Password    string        `yaml:"password"`
	Admin       bool          `yaml:"admin"`
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Visibility  string        `yaml:"visibility"`
	Posts       []PostFixture `yaml:"posts"`
	Follows     []string      `yaml:"follows"`
}

type PostFixture struct {
	Title      string `yaml:"title"`
	Subtitle   string `yaml:"subtitle"`
	Subject    string `yaml:"subject"`
	Content    string `yaml:"content"`
	Status     string `yaml:"status"`
	Visibility string `yaml:"visibility"`
}

// ParseFixtures decodes fixtures from r.
func ParseFixtures(r io.Reader) (*Fixtures, error) {
	var fx Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	for i, a := range fx.Accounts {
		if a.Login == "" {
			return nil, fmt.Errorf("account %d: login is required", i)
		}
	}
	return &fx, nil
}

// LoadFixtureFile parses and applies the fixture file at path.
func LoadFixtureFile(db *gorm.DB, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()
	fx, err := ParseFixtures(file)
	if err != nil {
		return err
	}
	return fx.Apply(db)
}

// Apply writes the fixtures in one transaction.
func (fx *Fixtures) Apply(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		byLogin := make(map[string]*models.Account, len(fx.Accounts))

		for _, a := range fx.Accounts {
			account, err := a.create(tx, now)
			if err != nil {
				return fmt.Errorf("account %s: %w", a.Login, err)
			}
			byLogin[strings.ToLower(a.Login)] = account
		}

		for _, a := range fx.Accounts {
			subscriber := byLogin[strings.ToLower(a.Login)]
			for _, login := range a.Follows {
				followed, ok := byLogin[strings.ToLower(login)]
				if !ok {
					return fmt.Errorf("account %s follows unknown login %s", a.Login, login)
				}
				m := &models.Membership{At: now}
				followed.AddMembership(m)
				subscriber.AddSubscription(m)
				if err := tx.Create(m).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (a AccountFixture) create(tx *gorm.DB, now time.Time) (*models.Account, error) {
	password := a.Password
	if password == "" {
		password = DefaultPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	email := a.Email
	if email == "" {
		email = a.Login + "@example.com"
	}
	user := &models.User{
		Login:       strings.ToLower(a.Login),
		Email:       strings.ToLower(email),
		Password:    string(hash),
		Activated:   true,
		LangKey:     "en",
		Authorities: []models.Authority{{Name: models.RoleUser}},
	}
	if a.Admin {
		user.Authorities = append(user.Authorities, models.Authority{Name: models.RoleAdmin})
	}
	if err := tx.Create(user).Error; err != nil {
		return nil, err
	}

	cfg := models.NewDefaultConfig(now)
	if err := tx.Create(cfg).Error; err != nil {
		return nil, err
	}
	name := a.Name
	if name == "" {
		name = a.Login
	}
	account := &models.Account{
		Name:            name,
		Description:     a.Description,
		Visibility:      models.Accessibility(strings.ToUpper(a.Visibility)),
		CreatedAt:       now,
		ConfigurationID: cfg.ID,
		UserID:          &user.ID,
	}
	if account.Visibility != "" && !account.Visibility.Valid() {
		return nil, fmt.Errorf("invalid visibility %q", a.Visibility)
	}
	if err := tx.Omit(clause.Associations).Create(account).Error; err != nil {
		return nil, err
	}

	for _, p := range a.Posts {
		post := &models.Post{
			Title:      p.Title,
			Subtitle:   p.Subtitle,
			Subject:    p.Subject,
			Content:    p.Content,
			At:         now,
			Status:     models.Status(strings.ToUpper(p.Status)),
			Visibility: models.Visibility(strings.ToUpper(p.Visibility)),
		}
		if post.Status == "" {
			post.Status = models.StatusPending
		}
		if !post.Status.Valid() {
			return nil, fmt.Errorf("post %q: invalid status %q", p.Title, p.Status)
		}
		if post.Visibility != "" && !post.Visibility.Valid() {
			return nil, fmt.Errorf("post %q: invalid visibility %q", p.Title, p.Visibility)
		}
		account.AddPost(post)
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return nil, err
		}
	}
	return account, nil
}
