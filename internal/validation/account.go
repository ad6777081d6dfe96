// Package validation holds input rules shared by registration and moderation.
package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"unicode/utf8"

	"ngelmak/internal/models"
)

const (
	PasswordMinLength = 4
	PasswordMaxLength = 100
	LoginMaxLength    = 50
	EmailMinLength    = 5
	EmailMaxLength    = 254
)

var loginRegex = regexp.MustCompile(`^(?:[a-zA-Z0-9!$&*+=?^_{|}~.-]+@[a-zA-Z0-9-]+(?:\.[a-zA-Z0-9-]+)*|[_.@A-Za-z0-9-]+)$`)

// ValidateLogin accepts plain handles and e-mail shaped logins.
func ValidateLogin(login string) error {
	if login == "" || len(login) > LoginMaxLength {
		return fmt.Errorf("login must be 1-%d characters", LoginMaxLength)
	}
	if !loginRegex.MatchString(login) {
		return fmt.Errorf("login contains invalid characters")
	}
	return nil
}

func ValidateEmail(email string) error {
	if len(email) < EmailMinLength || len(email) > EmailMaxLength {
		return fmt.Errorf("email must be %d-%d characters", EmailMinLength, EmailMaxLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("email is not a valid address")
	}
	return nil
}

// ValidatePassword checks the length bounds in characters, not bytes.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < PasswordMinLength || n > PasswordMaxLength {
		return fmt.Errorf("password must be %d-%d characters", PasswordMinLength, PasswordMaxLength)
	}
	return nil
}

// ValidateTicketObject enforces the subject length of moderation tickets.
func ValidateTicketObject(object string) error {
	n := utf8.RuneCountInString(object)
	if n < models.TicketObjectMin || n > models.TicketObjectMax {
		return fmt.Errorf("object must be %d-%d characters", models.TicketObjectMin, models.TicketObjectMax)
	}
	return nil
}
