package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/shop-backoffice/internal"
)

// RoleStore loads a user's assigned roles with their permission sets. It
// returns internal.ErrUserNotFound when the user does not exist.
type RoleStore interface {
	GetUserRoles(ctx context.Context, userID int64) ([]Role, error)
}

// Gate decides whether a principal may proceed. Every check reads the store;
// nothing is remembered between calls.
type Gate struct {
	store  RoleStore
	logger *slog.Logger
}

func NewGate(store RoleStore, logger *slog.Logger) *Gate {
	return &Gate{store: store, logger: logger}
}

// CheckRole grants when the principal holds at least one of roles.
func (g *Gate) CheckRole(ctx context.Context, p *Principal, roles ...string) error {
	assigned, err := g.loadRoles(ctx, p)
	if err != nil {
		return err
	}

	for _, r := range assigned {
		if contains(roles, r.Name) {
			return nil
		}
	}

	g.logger.WarnContext(ctx, "access denied: insufficient role",
		"user_id", p.ID,
		"required_roles", roles)
	return internal.ErrInsufficientRole
}

// CheckPermission grants when the union of the principal's role permissions
// contains at least one of permissions.
func (g *Gate) CheckPermission(ctx context.Context, p *Principal, permissions ...string) error {
	assigned, err := g.loadRoles(ctx, p)
	if err != nil {
		return err
	}

	for _, r := range assigned {
		for _, perm := range r.Permissions {
			if contains(permissions, perm) {
				return nil
			}
		}
	}

	g.logger.WarnContext(ctx, "access denied: insufficient permissions",
		"user_id", p.ID,
		"required_permissions", permissions)
	return internal.ErrInsufficientPermission
}

// Permissions returns the de-duplicated union of the principal's role permissions.
func (g *Gate) Permissions(ctx context.Context, p *Principal) ([]Role, []string, error) {
	assigned, err := g.loadRoles(ctx, p)
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[string]struct{})
	var perms []string
	for _, r := range assigned {
		for _, perm := range r.Permissions {
			if _, ok := seen[perm]; ok {
				continue
			}
			seen[perm] = struct{}{}
			perms = append(perms, perm)
		}
	}
	return assigned, perms, nil
}

func (g *Gate) loadRoles(ctx context.Context, p *Principal) ([]Role, error) {
	if p == nil || p.ID <= 0 {
		return nil, internal.ErrUnauthenticated
	}

	roles, err := g.store.GetUserRoles(ctx, p.ID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, internal.ErrUnauthenticated
		}
		g.logger.ErrorContext(ctx, "role lookup failed", "user_id", p.ID, "error", err)
		return nil, internal.NewInternalError("failed to load roles", err)
	}
	return roles, nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
