package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/talkincode/toughledger/internal/apperr"
	"github.com/talkincode/toughledger/internal/domain"
	"github.com/talkincode/toughledger/internal/repository"
	"go.uber.org/zap"
)

// PasswordHasher hashes and verifies credentials.
type PasswordHasher interface {
	HashPassword(plain string) (string, error)
	VerifyPassword(plain, encoded string) (bool, error)
}

// SessionIssuer signs session tokens.
type SessionIssuer interface {
	IssueSession(userID string, role domain.Role) (string, error)
}

type UserService struct {
	repo      repository.UserRepository
	hasher    PasswordHasher
	sessions  SessionIssuer
	paginator Paginator
	logger    *zap.Logger

	decoyOnce sync.Once
	decoy     string
}

func NewUserService(
	repo repository.UserRepository,
	hasher PasswordHasher,
	sessions SessionIssuer,
	paginator Paginator,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		repo:      repo,
		hasher:    hasher,
		sessions:  sessions,
		paginator: paginator,
		logger:    logger.Named("user-service"),
	}
}

const loginMismatchMessage = "The given email and password do not match"

// Login returns a session for the account matching email and password.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	s.logger.Debug("Logging in", zap.String("email", email))
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// unknown emails pay the same hashing cost as wrong passwords
		_, _ = s.hasher.VerifyPassword(password, s.decoyHash())
		return nil, apperr.NewUnauthorized(loginMismatchMessage, nil)
	}
	ok, err := s.hasher.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NewUnauthorized(loginMismatchMessage, nil)
	}
	return s.authenticated(user)
}

func (s *UserService) decoyHash() string {
	s.decoyOnce.Do(func() {
		hash, err := s.hasher.HashPassword("toughledger-decoy-password")
		if err != nil {
			s.logger.Warn("failed to build decoy hash", zap.Error(err))
			return
		}
		s.decoy = hash
	})
	return s.decoy
}

// Register stores a new account with role user and logs it in.
func (s *UserService) Register(ctx context.Context, in domain.NewUser) (*domain.AuthResult, error) {
	s.logger.Debug("Registering user", zap.String("name", in.Name), zap.String("email", in.Email))
	hash, err := s.hasher.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.Create(ctx, domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, apperr.NewValidationFailed(
			fmt.Sprintf("A user with email %s already exists", in.Email),
			[]apperr.Violation{{Field: "email", Reason: "must be unique"}},
		)
	}
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NewNotFound("The registered user no longer exists", nil)
	}
	return s.authenticated(user)
}

func (s *UserService) authenticated(user *domain.User) (*domain.AuthResult, error) {
	token, err := s.sessions.IssueSession(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &domain.AuthResult{Token: token, User: user}, nil
}

func (s *UserService) GetAll(ctx context.Context, p *domain.Pagination) (domain.Page[domain.User], error) {
	window := s.paginator.Resolve(p)
	s.logger.Debug("Fetching all users", zap.Int("limit", window.Limit), zap.Int("offset", window.Offset))
	return listPage(ctx, window, s.repo.FindAll, s.repo.FindCount)
}

func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	s.logger.Debug("Fetching user", zap.String("id", id))
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, userNotFound(id)
	}
	return user, nil
}

func (s *UserService) UpdateByID(ctx context.Context, id string, name string) (*domain.User, error) {
	s.logger.Debug("Updating user", zap.String("id", id), zap.String("name", name))
	user, err := s.repo.UpdateByID(ctx, id, name)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, userNotFound(id)
	}
	return user, nil
}

func (s *UserService) DeleteByID(ctx context.Context, id string) error {
	s.logger.Debug("Deleting user", zap.String("id", id))
	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return userNotFound(id)
	}
	return nil
}

func userNotFound(id string) error {
	return apperr.NewNotFound(fmt.Sprintf("There is no user with id %s", id), map[string]string{"id": id})
}
