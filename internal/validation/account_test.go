package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "secret", false},
		{"Exactly Min Length", "abcd", false},
		{"Exactly Max Length", strings.Repeat("a", 100), false},
		{"Too Short", "abc", true},
		{"Too Long", strings.Repeat("a", 101), true},
		{"Unicode Counts Runes", "ÅÅÅÅ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateLogin(t *testing.T) {
	t.Parallel()
	tests := []struct {
		login   string
		wantErr bool
	}{
		{"admin", false},
		{"john.doe-42", false},
		{"jane@example.com", false},
		{"", true},
		{"has space", true},
		{"semi;colon", true},
		{strings.Repeat("a", 51), true},
	}

	for _, tt := range tests {
		t.Run(tt.login, func(t *testing.T) {
			err := ValidateLogin(tt.login)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateEmail("user@example.com"))
	assert.Error(t, ValidateEmail("a@b"))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("Name <user@example.com>"))
}

func TestValidateTicketObject(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateTicketObject(strings.Repeat("x", 50)))
	assert.NoError(t, ValidateTicketObject(strings.Repeat("x", 200)))
	assert.Error(t, ValidateTicketObject(strings.Repeat("x", 49)))
	assert.Error(t, ValidateTicketObject(strings.Repeat("x", 201)))
}
