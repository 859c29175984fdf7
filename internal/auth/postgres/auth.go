package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/frahmantamala/shop-backoffice/internal"
	"github.com/frahmantamala/shop-backoffice/internal/auth"
	roledm "github.com/frahmantamala/shop-backoffice/internal/core/datamodel/role"
	userdm "github.com/frahmantamala/shop-backoffice/internal/core/datamodel/user"
	"github.com/frahmantamala/shop-backoffice/internal/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetCredentials(ctx context.Context, login string) (*auth.Credentials, error) {
	var u userdm.User
	err := store.Conn(ctx, r.db).
		Where("username = ? OR email = ?", login, login).
		First(&u).Error
	if err != nil {
		if store.IsNotFound(err) {
			return nil, internal.ErrUserNotFound
		}
		return nil, fmt.Errorf("get credentials: %w", err)
	}
	return toCredentials(u), nil
}

func (r *Repository) GetCredentialsByID(ctx context.Context, userID int64) (*auth.Credentials, error) {
	var u userdm.User
	if err := store.Conn(ctx, r.db).First(&u, userID).Error; err != nil {
		if store.IsNotFound(err) {
			return nil, internal.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}
	return toCredentials(u), nil
}

func toCredentials(u userdm.User) *auth.Credentials {
	return &auth.Credentials{
		Principal:    auth.Principal{ID: u.ID, Username: u.Username, Email: u.Email},
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
	}
}

// GetUserRoles reads the user's roles through the user_roles join on every
// call. A deactivated user is reported as ErrUserNotFound.
func (r *Repository) GetUserRoles(ctx context.Context, userID int64) ([]auth.Role, error) {
	db := store.Conn(ctx, r.db)

	var count int64
	if err := db.Model(&userdm.User{}).Where("id = ? AND is_active = ?", userID, true).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check user %d: %w", userID, err)
	}
	if count == 0 {
		return nil, internal.ErrUserNotFound
	}

	var rows []roledm.Role
	err := db.Model(&roledm.Role{}).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.name").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load roles for user %d: %w", userID, err)
	}

	return r.withPermissions(db, rows)
}

func (r *Repository) ListRoles(ctx context.Context) ([]auth.Role, error) {
	db := store.Conn(ctx, r.db)

	var rows []roledm.Role
	if err := db.Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return r.withPermissions(db, rows)
}

func (r *Repository) withPermissions(db *gorm.DB, rows []roledm.Role) ([]auth.Role, error) {
	roles := make([]auth.Role, len(rows))
	if len(rows) == 0 {
		return roles, nil
	}

	ids := make([]int64, len(rows))
	index := make(map[int64]int, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
		index[row.ID] = i
		roles[i] = auth.Role{Name: row.Name, Description: row.Description, Permissions: []string{}}
	}

	var perms []roledm.RolePermission
	if err := db.Where("role_id IN ?", ids).Order("permission").Find(&perms).Error; err != nil {
		return nil, fmt.Errorf("load role permissions: %w", err)
	}
	for _, p := range perms {
		i := index[p.RoleID]
		roles[i].Permissions = append(roles[i].Permissions, p.Permission)
	}
	return roles, nil
}

// AssignRole reports whether a new assignment row was written.
func (r *Repository) AssignRole(ctx context.Context, userID int64, roleName string) (bool, error) {
	db := store.Conn(ctx, r.db)

	var count int64
	if err := db.Model(&userdm.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check user %d: %w", userID, err)
	}
	if count == 0 {
		return false, internal.ErrUserNotFound
	}

	role, err := r.findRole(db, roleName)
	if err != nil {
		return false, err
	}

	res := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&roledm.UserRole{UserID: userID, RoleID: role.ID})
	if res.Error != nil {
		return false, fmt.Errorf("assign role %s to user %d: %w", roleName, userID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *Repository) RevokeRole(ctx context.Context, userID int64, roleName string) error {
	db := store.Conn(ctx, r.db)

	role, err := r.findRole(db, roleName)
	if err != nil {
		return err
	}

	res := db.Where("user_id = ? AND role_id = ?", userID, role.ID).Delete(&roledm.UserRole{})
	if res.Error != nil {
		return fmt.Errorf("revoke role %s from user %d: %w", roleName, userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrRoleNotAssigned
	}
	return nil
}

func (r *Repository) findRole(db *gorm.DB, name string) (*roledm.Role, error) {
	var role roledm.Role
	if err := db.Where("name = ?", name).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrRoleNotFound
		}
		return nil, fmt.Errorf("find role %s: %w", name, err)
	}
	return &role, nil
}

// EnsureRoles upserts roles and replaces each role's permission set with the
// given one.
func (r *Repository) EnsureRoles(ctx context.Context, roles []auth.Role) error {
	db := store.Conn(ctx, r.db)

	for _, def := range roles {
		row := roledm.Role{Name: def.Name, Description: def.Description}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"description", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("upsert role %s: %w", def.Name, err)
		}

		stored, err := r.findRole(db, def.Name)
		if err != nil {
			return err
		}

		if err := db.Where("role_id = ?", stored.ID).Delete(&roledm.RolePermission{}).Error; err != nil {
			return fmt.Errorf("clear permissions of %s: %w", def.Name, err)
		}
		if len(def.Permissions) == 0 {
			continue
		}

		perms := make([]roledm.RolePermission, len(def.Permissions))
		for i, p := range def.Permissions {
			perms[i] = roledm.RolePermission{RoleID: stored.ID, Permission: p}
		}
		if err := db.Create(&perms).Error; err != nil {
			return fmt.Errorf("write permissions of %s: %w", def.Name, err)
		}
	}
	return nil
}
