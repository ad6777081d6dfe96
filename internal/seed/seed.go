package seed

import (
	"fmt"

	"ngelmak/internal/middleware"
	"ngelmak/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumAccounts int
	NumPosts    int
	ShouldClean bool
	Seed        int64
}

// Summary counts what a run created.
type Summary struct {
	Accounts    int
	Posts       int
	Comments    int
	Memberships int
	Tickets     int
}

// seededTables are cleared children first so foreign keys never block a delete.
var seededTables = []string{
	"reviews", "tickets", "comments", "attachments", "posts", "memberships",
	"ngelmak_accounts", "configs", "user_authorities", "users",
}

// Seed populates the database with generated accounts, posts and interactions.
func Seed(db *gorm.DB, opts Options) (*Summary, error) {
	middleware.Logger.Info("starting database seeding", "accounts", opts.NumAccounts, "posts", opts.NumPosts)
	if opts.ShouldClean {
		if err := ClearAll(db); err != nil {
			return nil, err
		}
	}

	f, err := NewFactory(db, opts.Seed)
	if err != nil {
		return nil, err
	}

	sum := &Summary{}
	accounts := make([]*models.Account, 0, opts.NumAccounts)
	for i := 0; i < opts.NumAccounts; i++ {
		_, account, err := f.CreateUserWithAccount()
		if err != nil {
			return sum, err
		}
		accounts = append(accounts, account)
		sum.Accounts++
	}
	if len(accounts) == 0 {
		return sum, nil
	}

	// Everyone follows the next account in the ring.
	for i, account := range accounts {
		next := accounts[(i+1)%len(accounts)]
		if next.ID == account.ID {
			continue
		}
		if _, err := f.CreateMembership(next, account); err != nil {
			return sum, err
		}
		sum.Memberships++
	}

	for i := 0; i < opts.NumPosts; i++ {
		author := accounts[f.rnd.Intn(len(accounts))]
		post, err := f.CreatePost(author)
		if err != nil {
			return sum, err
		}
		sum.Posts++

		reader := accounts[f.rnd.Intn(len(accounts))]
		if _, err := f.CreateComment(post, reader); err != nil {
			return sum, err
		}
		sum.Comments++

		if i%10 == 0 && reader.ID != author.ID {
			if _, err := f.CreateTicket(post, reader, author); err != nil {
				return sum, err
			}
			sum.Tickets++
		}
	}

	middleware.Logger.Info("database seeding completed",
		"accounts", sum.Accounts, "posts", sum.Posts, "comments", sum.Comments,
		"memberships", sum.Memberships, "tickets", sum.Tickets)
	return sum, nil
}

// ClearAll deletes every seeded row. Authorities are kept.
func ClearAll(db *gorm.DB) error {
	middleware.Logger.Info("clearing existing data")
	return db.Transaction(func(tx *gorm.DB) error {
		for _, table := range seededTables {
			if err := tx.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}
