package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"ngelmak/internal/middleware"
	"ngelmak/internal/models"
	"ngelmak/internal/repository"
	"ngelmak/internal/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ResetKeyValidity bounds how long a password reset key can be used.
const ResetKeyValidity = 24 * time.Hour

// UserService handles registration, activation, password resets and sign-in.
type UserService struct {
	users  repository.UserRepository
	mailer Mailer
	cost   int
	now    func() time.Time
}

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Login     string `json:"login"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	LangKey   string `json:"langKey"`
}

func NewUserService(users repository.UserRepository, mailer Mailer) *UserService {
	return &UserService{
		users:  users,
		mailer: mailer,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
}

// Register creates an inactive user and mails its activation key.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := validation.ValidateLogin(in.Login); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if exists, err := s.exists(s.users.GetByLogin(ctx, in.Login)); err != nil {
		return nil, err
	} else if exists {
		return nil, models.NewBadRequestAlert(EntityUser, models.ErrKeyUserExists, "Login name already used!")
	}
	if exists, err := s.exists(s.users.GetByEmail(ctx, in.Email)); err != nil {
		return nil, err
	} else if exists {
		return nil, models.NewBadRequestAlert(EntityUser, models.ErrKeyEmailExists, "Email is already in use!")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	key := uuid.New().String()
	user := &models.User{
		Login:         strings.ToLower(in.Login),
		Email:         strings.ToLower(in.Email),
		Password:      string(hash),
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		LangKey:       in.LangKey,
		ActivationKey: &key,
		Authorities:   []models.Authority{{Name: models.RoleUser}},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	middleware.Logger.DebugContext(ctx, "created information for user", "login", user.Login)
	s.mailer.SendActivationEmail(ctx, user)
	return user, nil
}

// CreateUser stores an already activated user with the given authorities.
func (s *UserService) CreateUser(ctx context.Context, login, email, password string, authorities ...string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Login:     strings.ToLower(login),
		Email:     strings.ToLower(email),
		Password:  string(hash),
		Activated: true,
		LangKey:   "en",
	}
	for _, name := range authorities {
		user.Authorities = append(user.Authorities, models.Authority{Name: name})
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.mailer.SendCreationEmail(ctx, user)
	return user, nil
}

// Activate turns on the user owning key.
func (s *UserService) Activate(ctx context.Context, key string) (*models.User, error) {
	middleware.Logger.DebugContext(ctx, "activating user for activation key")
	user, err := s.users.GetByActivationKey(ctx, key)
	if errors.Is(err, gorm.ErrRecordNotFound) || key == "" {
		return nil, internalAlert("No user was found for this activation key")
	}
	if err != nil {
		return nil, err
	}
	user.Activated = true
	user.ActivationKey = nil
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// RequestPasswordReset mails a reset key to an activated user. Unknown emails are ignored.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		middleware.Logger.WarnContext(ctx, "password reset requested for non existing mail")
		return nil
	}
	if err != nil {
		return err
	}
	if !user.Activated {
		return nil
	}
	key := uuid.New().String()
	now := s.now()
	user.ResetKey = &key
	user.ResetDate = &now
	if err := s.users.Save(ctx, user); err != nil {
		return err
	}
	s.mailer.SendPasswordResetMail(ctx, user)
	return nil
}

// CompletePasswordReset sets a new password when key was issued less than a day ago.
func (s *UserService) CompletePasswordReset(ctx context.Context, key, newPassword string) (*models.User, error) {
	if err := validation.ValidatePassword(newPassword); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	user, err := s.users.GetByResetKey(ctx, key)
	if errors.Is(err, gorm.ErrRecordNotFound) || key == "" {
		return nil, internalAlert("No user was found for this reset key")
	}
	if err != nil {
		return nil, err
	}
	if user.ResetDate == nil || user.ResetDate.Before(s.now().Add(-ResetKeyValidity)) {
		return nil, internalAlert("No user was found for this reset key")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user.Password = string(hash)
	user.ResetKey = nil
	user.ResetDate = nil
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks the credentials of an activated user.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	user, err := s.users.GetByLogin(ctx, login)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if !user.Activated {
		return nil, models.NewUnauthorizedError("User " + user.Login + " was not activated")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "User", id)
	}
	return user, nil
}

// PurgeUnactivated removes registrations never activated before cutoff.
func (s *UserService) PurgeUnactivated(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.users.DeleteStaleUnactivated(ctx, cutoff)
}

// internalAlert answers 500 with msg as the visible error.
func internalAlert(msg string) error {
	return &models.AppError{Code: "INTERNAL_ERROR", Message: msg}
}

func (s *UserService) exists(_ *models.User, err error) (bool, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}
