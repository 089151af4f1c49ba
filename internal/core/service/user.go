package service

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/yndnr/rawhttpd/internal/core/domain"
)

// UserRepository defines the storage interface for user operations.
//
// Implementations return domain errors: ErrUserNotFound,
// ErrUserAlreadyExists, ErrEmailAlreadyExists, or ErrDatabase for storage
// failures.
type UserRepository interface {
	// Create stores a new user and assigns its ID.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id domain.UserID) (*domain.User, error)

	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// List returns all users in ID order.
	List(ctx context.Context) ([]*domain.User, error)

	// UpdatePassword replaces the password hash.
	UpdatePassword(ctx context.Context, id domain.UserID, hash []byte) (*domain.User, error)

	// UpdateEmail replaces the email address.
	UpdateEmail(ctx context.Context, id domain.UserID, email string) (*domain.User, error)
}

// UserService handles user accounts.
type UserService struct {
	repo      UserRepository
	cost      int
	logger    *slog.Logger
	dummyHash []byte
}

// UserServiceOption configures a UserService.
type UserServiceOption func(*UserService)

// WithBcryptCost sets the bcrypt work factor. Values outside bcrypt's range
// are ignored.
func WithBcryptCost(cost int) UserServiceOption {
	return func(s *UserService) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.cost = cost
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) UserServiceOption {
	return func(s *UserService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewUserService creates a new UserService.
func NewUserService(repo UserRepository, opts ...UserServiceOption) *UserService {
	s := &UserService{
		repo:   repo,
		cost:   bcrypt.DefaultCost,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Compared against when the username is unknown so both failure paths
	// pay for one bcrypt comparison.
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("rawhttpd-dummy-password"), s.cost)

	return s
}

// ============================================================================
// Register
// ============================================================================

// RegisterRequest contains parameters for user registration.
type RegisterRequest struct {
	Username string
	Email    string
	Password string
}

// Register validates the request, hashes the password and stores the user.
func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*domain.User, error) {
	if err := domain.ValidateUsername(req.Username); err != nil {
		return nil, err
	}
	if err := domain.ValidateEmail(req.Email); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.Create(ctx, &domain.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// ============================================================================
// Authenticate
// ============================================================================

// Authenticate returns the user if password matches. Unknown usernames and
// wrong passwords both yield ErrAuthenticationFailed.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidInput.WithDetails("username and password are required")
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, domain.ErrAuthenticationFailed
		}
		return nil, err
	}

	if err := s.verify(user, password); err != nil {
		s.logger.InfoContext(ctx, "authentication failed", "user_id", user.ID)
		return nil, err
	}
	return user, nil
}

// ============================================================================
// Credential Changes
// ============================================================================

// ChangePasswordRequest contains parameters for a password change.
type ChangePasswordRequest struct {
	ID              domain.UserID
	CurrentPassword string
	NewPassword     string
}

// ChangePassword verifies the current password and stores a hash of the
// new one.
func (s *UserService) ChangePassword(ctx context.Context, req *ChangePasswordRequest) (*domain.User, error) {
	if req.CurrentPassword == "" {
		return nil, domain.ErrInvalidInput.WithDetails("currentPassword is required")
	}
	if err := domain.ValidatePassword(req.NewPassword); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if err := s.verify(user, req.CurrentPassword); err != nil {
		return nil, err
	}

	hash, err := s.hash(req.NewPassword)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.UpdatePassword(ctx, user.ID, hash)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "password changed", "user_id", updated.ID)
	return updated, nil
}

// ChangeEmailRequest contains parameters for an email change.
type ChangeEmailRequest struct {
	ID       domain.UserID
	NewEmail string
	Password string
}

// ChangeEmail verifies the password and stores the new email.
func (s *UserService) ChangeEmail(ctx context.Context, req *ChangeEmailRequest) (*domain.User, error) {
	if req.Password == "" {
		return nil, domain.ErrInvalidInput.WithDetails("password is required")
	}
	if err := domain.ValidateEmail(req.NewEmail); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if err := s.verify(user, req.Password); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateEmail(ctx, user.ID, req.NewEmail)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "email changed", "user_id", updated.ID)
	return updated, nil
}

// List returns all users.
func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) hash(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, domain.ErrInvalidInput.WithDetails("password too long")
	}
	if err != nil {
		return nil, domain.ErrInternal.WithCause(err)
	}
	return hash, nil
}

func (s *UserService) verify(user *domain.User, password string) error {
	err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return domain.ErrAuthenticationFailed
	}
	// A malformed stored hash cannot authenticate anyone.
	return domain.ErrAuthenticationFailed.WithCause(err)
}
