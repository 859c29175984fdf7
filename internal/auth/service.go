package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/frahmantamala/shop-backoffice/internal"
	"github.com/frahmantamala/shop-backoffice/internal/core/events"
	"github.com/frahmantamala/shop-backoffice/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// Repository is the persistence surface of the auth module.
type Repository interface {
	RoleStore
	// GetCredentials looks a user up by username or email.
	GetCredentials(ctx context.Context, login string) (*Credentials, error)
	GetCredentialsByID(ctx context.Context, userID int64) (*Credentials, error)
	ListRoles(ctx context.Context) ([]Role, error)
	AssignRole(ctx context.Context, userID int64, roleName string) (bool, error)
	RevokeRole(ctx context.Context, userID int64, roleName string) error
}

// ServiceAPI is what the HTTP handler needs from the auth service.
type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Principal, error)
	ListRoles(ctx context.Context) ([]Role, error)
	AssignRole(ctx context.Context, actor *Principal, userID int64, roleName string) error
	RevokeRole(ctx context.Context, actor *Principal, userID int64, roleName string) error
}

// Service is the main auth service with dependencies
type Service struct {
	repo           Repository
	tokenGenerator TokenGenerator
	tx             store.Transactor
	publisher      events.Publisher
	logger         *slog.Logger
}

// NewService creates a new auth service
func NewService(repo Repository, tokenGen TokenGenerator, tx store.Transactor, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		repo:           repo,
		tokenGenerator: tokenGen,
		tx:             tx,
		publisher:      publisher,
		logger:         logger,
	}
}

// Authenticate validates credentials and returns tokens
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	creds, err := s.repo.GetCredentials(ctx, strings.TrimSpace(dto.Login))
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return AuthTokens{}, internal.ErrInvalidCredentials
		}
		return AuthTokens{}, internal.NewInternalError("failed to load credentials", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(dto.Password)); err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if !creds.IsActive {
		return AuthTokens{}, internal.ErrUserInactive
	}

	s.logger.InfoContext(ctx, "user authenticated", "user_id", creds.ID)
	return s.issue(&creds.Principal)
}

// RefreshTokens validates refresh token and returns new tokens. The user is
// re-read so deactivated accounts cannot keep refreshing.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	creds, err := s.repo.GetCredentialsByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return AuthTokens{}, internal.ErrInvalidToken
		}
		return AuthTokens{}, internal.NewInternalError("failed to load user", err)
	}
	if !creds.IsActive {
		return AuthTokens{}, internal.ErrUserInactive
	}

	return s.issue(&creds.Principal)
}

func (s *Service) issue(p *Principal) (AuthTokens, error) {
	accessToken, expiresAt, err := s.tokenGenerator.GenerateAccessToken(p)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to issue token", err)
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(p)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to issue token", err)
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    expiresAt,
	}, nil
}

// ValidateAccessToken validates access token and returns the principal it names
func (s *Service) ValidateAccessToken(tokenString string) (*Principal, error) {
	claims, err := s.tokenGenerator.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}
	return claims.Principal(), nil
}

func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to list roles", err)
	}
	return roles, nil
}

// AssignRole is idempotent: assigning a held role succeeds without an event.
func (s *Service) AssignRole(ctx context.Context, actor *Principal, userID int64, roleName string) error {
	if err := (AssignRoleDTO{Role: roleName}).Validate(); err != nil {
		return err
	}

	var created bool
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.repo.AssignRole(ctx, userID, roleName)
		return err
	})
	if err != nil {
		return s.wrap(err, "failed to assign role")
	}

	if created {
		s.logger.InfoContext(ctx, "role assigned", "user_id", userID, "role", roleName, "by", actor.ID)
		s.publish(ctx, events.NewRoleAssignedEvent(userID, roleName, actor.ID))
	}
	return nil
}

func (s *Service) RevokeRole(ctx context.Context, actor *Principal, userID int64, roleName string) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.repo.RevokeRole(ctx, userID, roleName)
	})
	if err != nil {
		return s.wrap(err, "failed to revoke role")
	}

	s.logger.InfoContext(ctx, "role revoked", "user_id", userID, "role", roleName, "by", actor.ID)
	s.publish(ctx, events.NewRoleRevokedEvent(userID, roleName, actor.ID))
	return nil
}

func (s *Service) wrap(err error, msg string) error {
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	return internal.NewInternalError(msg, err)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish event", "event_type", event.EventType(), "error", err)
	}
}

// HashPassword creates a bcrypt hash of the password
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
