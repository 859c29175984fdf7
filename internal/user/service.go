package user

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/shop-backoffice/internal"
	"github.com/frahmantamala/shop-backoffice/internal/auth"
	"github.com/frahmantamala/shop-backoffice/internal/core/events"
	"github.com/frahmantamala/shop-backoffice/internal/store"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context, filter ListFilter) ([]*User, int64, error)
	ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)
	ExistsByUsername(ctx context.Context, username string, excludeID int64) (bool, error)
	// Create writes the user and its customer row.
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	// Delete removes the user together with its role assignments.
	Delete(ctx context.Context, id int64) error
}

// RoleAssigner grants a named role to a user.
type RoleAssigner interface {
	AssignRole(ctx context.Context, userID int64, roleName string) (bool, error)
}

// PermissionResolver resolves the roles and permission union of a principal
// and checks a principal against accepted permissions.
type PermissionResolver interface {
	Permissions(ctx context.Context, p *auth.Principal) ([]auth.Role, []string, error)
	CheckPermission(ctx context.Context, p *auth.Principal, permissions ...string) error
}

type ServiceAPI interface {
	GetProfile(ctx context.Context, p *auth.Principal) (*Profile, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, actor *auth.Principal, dto CreateUserDTO) (*User, error)
	Update(ctx context.Context, actor *auth.Principal, id int64, dto UpdateUserDTO) (*User, error)
	Delete(ctx context.Context, actor *auth.Principal, id int64) error
}

type Service struct {
	repo        Repository
	roles       RoleAssigner
	permissions PermissionResolver
	tx          store.Transactor
	publisher   events.Publisher
	bcryptCost  int
	logger      *slog.Logger
}

func NewService(repo Repository, roles RoleAssigner, permissions PermissionResolver, tx store.Transactor, publisher events.Publisher, bcryptCost int, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		repo:        repo,
		roles:       roles,
		permissions: permissions,
		tx:          tx,
		publisher:   publisher,
		bcryptCost:  bcryptCost,
		logger:      logger,
	}
}

func (s *Service) GetProfile(ctx context.Context, p *auth.Principal) (*Profile, error) {
	if p == nil {
		return nil, internal.ErrUnauthenticated
	}

	u, err := s.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	roles, perms, err := s.permissions.Permissions(ctx, p)
	if err != nil {
		return nil, err
	}

	u.Roles = make([]string, len(roles))
	for i, r := range roles {
		u.Roles[i] = r.Name
	}
	if perms == nil {
		perms = []string{}
	}
	return &Profile{User: u, Permissions: perms}, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list users", "error", err)
		return nil, internal.NewInternalError("failed to list users", err)
	}
	return &ListResult{Users: users, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrap(err, "failed to get user")
	}
	return u, nil
}

// Create hashes the password, writes the user with its customer row and
// assigns the requested roles (customer when none) in one transaction.
// Requesting roles needs role:assign on the actor.
func (s *Service) Create(ctx context.Context, actor *auth.Principal, dto CreateUserDTO) (*User, error) {
	if len(dto.Roles) > 0 {
		if err := s.permissions.CheckPermission(ctx, actor, auth.PermRoleAssign); err != nil {
			return nil, err
		}
	}
	return s.create(ctx, actor, dto)
}

// Provision creates a user without an actor. The seeder uses it for the
// first superadmin, before any principal exists.
func (s *Service) Provision(ctx context.Context, dto CreateUserDTO) (*User, error) {
	return s.create(ctx, nil, dto)
}

func (s *Service) create(ctx context.Context, actor *auth.Principal, dto CreateUserDTO) (*User, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	roles := dto.Roles
	if len(roles) == 0 {
		roles = []string{auth.RoleCustomer}
	}

	u := &User{
		Username:     dto.Username,
		Email:        dto.Email,
		PasswordHash: hash,
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		IsActive:     dto.IsActive == nil || *dto.IsActive,
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkUnique(ctx, u.Username, u.Email, 0); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, u); err != nil {
			return err
		}
		for _, role := range roles {
			if _, err := s.roles.AssignRole(ctx, u.ID, role); err != nil {
				if errors.Is(err, internal.ErrRoleNotFound) {
					return internal.NewValidationFieldError("roles", "unknown role "+role, internal.ErrCodeRoleNotFound)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		if store.IsDuplicateKey(err) {
			return nil, s.uniqueConflict(ctx, u.Username, u.Email, 0)
		}
		return nil, s.wrap(err, "failed to create user")
	}

	u.Roles = roles
	s.logger.InfoContext(ctx, "user created", "user_id", u.ID, "username", u.Username, "by", actorID(actor))
	s.publish(ctx, events.NewUserCreatedEvent(u.ID, u.Username))
	return u, nil
}

func (s *Service) Update(ctx context.Context, actor *auth.Principal, id int64, dto UpdateUserDTO) (*User, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var updated *User
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		u, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		username, email := u.Username, u.Email
		if dto.Username != nil {
			username = *dto.Username
		}
		if dto.Email != nil {
			email = *dto.Email
		}
		if err := s.checkUnique(ctx, username, email, id); err != nil {
			return err
		}

		u.Username, u.Email = username, email
		if dto.FirstName != nil {
			u.FirstName = *dto.FirstName
		}
		if dto.LastName != nil {
			u.LastName = *dto.LastName
		}
		if dto.IsActive != nil {
			u.IsActive = *dto.IsActive
		}
		if dto.Password != nil {
			hash, err := auth.HashPassword(*dto.Password, s.bcryptCost)
			if err != nil {
				return internal.NewInternalError("failed to hash password", err)
			}
			u.PasswordHash = hash
		}

		if err := s.repo.Update(ctx, u); err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		if store.IsDuplicateKey(err) {
			return nil, s.uniqueConflict(ctx, deref(dto.Username), deref(dto.Email), id)
		}
		return nil, s.wrap(err, "failed to update user")
	}

	s.logger.InfoContext(ctx, "user updated", "user_id", id, "by", actorID(actor))
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, actor *auth.Principal, id int64) error {
	if actor != nil && actor.ID == id {
		return internal.ErrCannotDeleteSelf
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return s.wrap(err, "failed to delete user")
	}

	s.logger.InfoContext(ctx, "user deleted", "user_id", id, "by", actorID(actor))
	s.publish(ctx, events.NewUserDeletedEvent(id, actorID(actor)))
	return nil
}

func (s *Service) checkUnique(ctx context.Context, username, email string, excludeID int64) error {
	taken, err := s.repo.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return internal.ErrEmailTaken
	}

	taken, err = s.repo.ExistsByUsername(ctx, username, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return internal.ErrUsernameTaken
	}
	return nil
}

// uniqueConflict names the column a concurrent writer claimed first.
func (s *Service) uniqueConflict(ctx context.Context, username, email string, excludeID int64) error {
	if email != "" {
		if taken, err := s.repo.ExistsByEmail(ctx, email, excludeID); err == nil && taken {
			return internal.ErrEmailTaken
		}
	}
	return internal.ErrUsernameTaken
}

func (s *Service) wrap(err error, msg string) error {
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	s.logger.Error(msg, "error", err)
	return internal.NewInternalError(msg, err)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish event", "event_type", event.EventType(), "error", err)
	}
}

func actorID(p *auth.Principal) int64 {
	if p == nil {
		return 0
	}
	return p.ID
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
