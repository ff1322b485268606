// Package users handles account registration and credential checks.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"turfbuddy/backend/internal/games"
	"turfbuddy/backend/internal/models"
	"turfbuddy/backend/internal/store"
	"turfbuddy/backend/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotFound           = errors.New("user not found")
)

// PasswordCost is the bcrypt cost used for new accounts.
const PasswordCost = 10

type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserProfile(ctx context.Context, id string) (*models.User, error)
}

// RegisterInput defines the structure for user registration.
type RegisterInput struct {
	Name            string   `json:"name" validate:"required" example:"Asha Rao"`
	Email           string   `json:"email" validate:"required,email" example:"asha@example.com"`
	Password        string   `json:"password" validate:"required,min=8" example:"password123"`
	ContactNumber   string   `json:"contactNumber" validate:"required,len=10,number" example:"9876543210"`
	PreferredSports []string `json:"preferredSports" example:"football,cricket"`
}

// LoginInput defines the structure for user login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email" example:"asha@example.com"`
	Password string `json:"password" validate:"required" example:"password123"`
}

type Service struct {
	repo   Repository
	logger *zap.Logger
	cost   int
	now    func() time.Time
}

type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithPasswordCost lowers the hashing cost, for tests.
func WithPasswordCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, logger: zap.NewNop(), cost: PasswordCost, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.ContactNumber = strings.TrimSpace(in.ContactNumber)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, s.fail("hash password", err)
	}

	sports := make([]string, 0, len(in.PreferredSports))
	for _, sport := range in.PreferredSports {
		if sport = strings.TrimSpace(sport); sport != "" {
			sports = append(sports, sport)
		}
	}

	user := &models.User{
		ID:              uuid.NewString(),
		Name:            in.Name,
		Email:           in.Email,
		PasswordHash:    string(hash),
		ContactNumber:   in.ContactNumber,
		PreferredSports: sports,
	}
	err = s.repo.CreateUser(ctx, user)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, s.fail("create user", err)
	}
	return user, nil
}

// Login returns the account for the given credentials. A wrong email and a
// wrong password fail the same way.
func (s *Service) Login(ctx context.Context, in LoginInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.repo.UserByEmail(ctx, in.Email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, s.fail("load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Profile loads the user with hosted and joined games, statuses as of now.
func (s *Service) Profile(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.UserProfile(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, s.fail("load profile", err)
	}

	now := s.now()
	for i := range user.HostedGames {
		g := &user.HostedGames[i]
		g.Status = games.DeriveStatus(g.Date, g.JoinedCount, g.PlayerNeeded, now)
	}
	for i := range user.Memberships {
		g := &user.Memberships[i].Game
		g.Status = games.DeriveStatus(g.Date, g.JoinedCount, g.PlayerNeeded, now)
	}
	return user, nil
}

func (s *Service) fail(op string, err error) error {
	s.logger.Error("user store failure", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s: %w", op, games.ErrUnavailable)
}
