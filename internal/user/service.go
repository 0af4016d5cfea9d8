package user

import (
	"errors"
	"log/slog"

	"github.com/paydash/payment-dashboard/internal"
)

type Repository interface {
	GetByID(userID int64) (*User, error)
	GetByUsername(username string) (*User, error)
	Create(u *User) error
}

// PasswordHasher is satisfied by the auth service.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

type Service struct {
	repo   Repository
	hasher PasswordHasher
	logger *slog.Logger
}

func NewService(repo Repository, hasher PasswordHasher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		logger: logger,
	}
}

func (s *Service) GetByID(userID int64) (*User, error) {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
		}
		s.logger.Error("failed to get user", "error", err, "user_id", userID)
		return nil, internal.NewUnavailableError("user store unreachable", err)
	}
	return u, nil
}

// CreateUser registers a new account. Usernames are unique; a duplicate
// surfaces as a conflict.
func (s *Service) CreateUser(dto *CreateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("user validation failed", "error", err)
		return nil, err
	}

	hash, err := s.hasher.HashPassword(dto.Password)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	u := &User{
		Username:     dto.Username,
		PasswordHash: hash,
		Role:         dto.Role,
	}

	if err := s.repo.Create(u); err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			return nil, internal.NewConflictError("username already exists", internal.ErrCodeDuplicateUsername)
		}
		s.logger.Error("failed to create user", "error", err, "username", dto.Username)
		return nil, internal.NewUnavailableError("user store unreachable", err)
	}

	s.logger.Info("user created", "user_id", u.ID, "username", u.Username, "role", u.Role)
	return u, nil
}
