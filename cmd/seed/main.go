// Command main runs the database seeder for Ngelmak.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"ngelmak/internal/bootstrap"
	"ngelmak/internal/config"
	"ngelmak/internal/database"
	"ngelmak/internal/seed"
)

func main() {
	numAccounts := flag.Int("accounts", 20, "Number of accounts to create")
	numPosts := flag.Int("posts", 100, "Number of posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	randSeed := flag.Int64("seed", time.Now().UnixNano(), "Random seed for generated data")
	fixtures := flag.String("fixtures", "", "Load accounts from a YAML fixture file instead of generating them")
	flag.Parse()

	log.Println("Database Seeder")
	log.Println("===============")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := bootstrap.EnsureAuthorities(context.Background(), db); err != nil {
		log.Fatalf("Authority seeding failed: %v", err)
	}

	if *fixtures != "" {
		log.Printf("Loading fixtures from %s\n", *fixtures)
		if *shouldClean {
			if err := seed.ClearAll(db); err != nil {
				log.Fatalf("Cleanup failed: %v", err)
			}
		}
		if err := seed.LoadFixtureFile(db, *fixtures); err != nil {
			log.Fatalf("Fixture seeding failed: %v", err)
		}
		log.Println("Fixtures loaded.")
		return
	}

	log.Printf("Target: %d accounts, %d posts, clean=%v\n", *numAccounts, *numPosts, *shouldClean)
	sum, err := seed.Seed(db, seed.Options{
		NumAccounts: *numAccounts,
		NumPosts:    *numPosts,
		ShouldClean: *shouldClean,
		Seed:        *randSeed,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("All done: %d accounts, %d posts, %d comments, %d memberships, %d tickets",
		sum.Accounts, sum.Posts, sum.Comments, sum.Memberships, sum.Tickets)
	log.Printf("All generated users have the password: %s", seed.DefaultPassword)
}
