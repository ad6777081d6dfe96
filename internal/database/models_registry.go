package database

import "ngelmak/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models,
// ordered so referenced tables come first.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Authority{},
		&models.User{},
		&models.Config{},
		&models.Account{},
		&models.Post{},
		&models.Attachment{},
		&models.Comment{},
		&models.Ticket{},
		&models.Review{},
		&models.Membership{},
	}
}
