package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/northbeam/leadsite/internal/auth"
	"github.com/northbeam/leadsite/internal/calculator"
	"github.com/northbeam/leadsite/internal/model"
	"github.com/northbeam/leadsite/internal/repository"
	"github.com/northbeam/leadsite/internal/validation"
)

// Admin errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidStatus      = errors.New("invalid status filter")
	ErrInvalidToolFilter  = errors.New("invalid tool filter")
	ErrInvalidEmail       = errors.New("invalid email address")
)

// MinAuthDuration is the least time an authentication attempt takes,
// whatever its outcome.
const MinAuthDuration = 250 * time.Millisecond

// AdminStore reads collected leads and back-office users.
type AdminStore interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
	ListContacts(ctx context.Context, cursor string, limit int) (*repository.Page[model.Contact], error)
	ListSubscriptions(ctx context.Context, status model.SubscriptionStatus, cursor string, limit int) (*repository.Page[model.NewsletterSubscription], error)
	ListSubmissions(ctx context.Context, tool string, cursor string, limit int) (*repository.Page[model.ToolSubmission], error)
}

// AdminService authenticates back-office users and lists leads.
type AdminService struct {
	store   AdminStore
	logger  *slog.Logger
	now     Clock
	sleep   func(time.Duration)
	minAuth time.Duration
}

// NewAdminService creates a new AdminService.
func NewAdminService(store AdminStore, logger *slog.Logger) *AdminService {
	return &AdminService{
		store:   store,
		logger:  componentLogger(logger, "admin"),
		now:     time.Now,
		sleep:   time.Sleep,
		minAuth: MinAuthDuration,
	}
}

// Authenticate checks email and password. Unknown users and wrong
// passwords are indistinguishable to the caller, in result and in time.
func (s *AdminService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	start := s.now()
	defer func() {
		if remaining := s.minAuth - s.now().Sub(start); remaining > 0 {
			s.sleep(remaining)
		}
	}()

	user, err := s.store.GetUserByEmail(ctx, validation.NormalizeEmail(email))
	if errors.Is(err, repository.ErrUserNotFound) {
		auth.VerifyDummy(password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		s.logger.ErrorContext(ctx, "stored password hash unusable", "user_id", user.ID, "error", err)
		return nil, ErrInvalidCredentials
	}
	if !ok || !user.IsAdmin() {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// CreateAdmin adds a back-office user with the admin role.
func (s *AdminService) CreateAdmin(ctx context.Context, email, password string) (*model.User, error) {
	email = validation.NormalizeEmail(email)
	if err := validation.Var("email", email, "required,email,max=254"); err != nil {
		return nil, ErrInvalidEmail
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           newRecordID(),
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		CreatedAt:    utcNow(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListContacts returns contacts newest first.
func (s *AdminService) ListContacts(ctx context.Context, cursor string, limit int) (*repository.Page[model.Contact], error) {
	return s.store.ListContacts(ctx, cursor, limit)
}

// ListSubscribers returns subscriptions newest first, optionally by status.
func (s *AdminService) ListSubscribers(ctx context.Context, status, cursor string, limit int) (*repository.Page[model.NewsletterSubscription], error) {
	st := model.SubscriptionStatus(status)
	if status != "" && !st.IsValid() {
		return nil, ErrInvalidStatus
	}
	return s.store.ListSubscriptions(ctx, st, cursor, limit)
}

// ListSubmissions returns calculator runs newest first, optionally by tool.
func (s *AdminService) ListSubmissions(ctx context.Context, tool, cursor string, limit int) (*repository.Page[model.ToolSubmission], error) {
	if tool != "" {
		if !calculator.Tool(tool).IsValid() {
			return nil, ErrInvalidToolFilter
		}
	}
	return s.store.ListSubmissions(ctx, tool, cursor, limit)
}
