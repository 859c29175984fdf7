package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/frahmantamala/shop-backoffice/internal"
	roledm "github.com/frahmantamala/shop-backoffice/internal/core/datamodel/role"
	userdm "github.com/frahmantamala/shop-backoffice/internal/core/datamodel/user"
	"github.com/frahmantamala/shop-backoffice/internal/store"
	"github.com/frahmantamala/shop-backoffice/internal/user"
	"gorm.io/gorm"
)

// UserRepository implements user.Repository using GORM
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	db := store.Conn(ctx, r.db)

	var row userdm.User
	if err := db.First(&row, id).Error; err != nil {
		if store.IsNotFound(err) {
			return nil, internal.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}

	u := user.FromDataModel(&row)
	roles, err := r.roleNames(db, []int64{id})
	if err != nil {
		return nil, err
	}
	if names, ok := roles[id]; ok {
		u.Roles = names
	}
	return u, nil
}

func (r *UserRepository) List(ctx context.Context, filter user.ListFilter) ([]*user.User, int64, error) {
	db := store.Conn(ctx, r.db)

	q := db.Model(&userdm.User{})
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", like, like, like, like)
	}
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	var rows []userdm.User
	if err := q.Order("id").Limit(filter.Limit).Offset(filter.Offset).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	ids := make([]int64, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	roles, err := r.roleNames(db, ids)
	if err != nil {
		return nil, 0, err
	}

	users := make([]*user.User, len(rows))
	for i := range rows {
		users[i] = user.FromDataModel(&rows[i])
		if names, ok := roles[rows[i].ID]; ok {
			users[i].Roles = names
		}
	}
	return users, total, nil
}

func (r *UserRepository) roleNames(db *gorm.DB, userIDs []int64) (map[int64][]string, error) {
	out := make(map[int64][]string, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		UserID int64
		Name   string
	}
	err := db.Model(&roledm.UserRole{}).
		Select("user_roles.user_id, roles.name").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("user_roles.user_id IN ?", userIDs).
		Order("roles.name").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load user roles: %w", err)
	}

	for _, row := range rows {
		out[row.UserID] = append(out[row.UserID], row.Name)
	}
	return out, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	return r.exists(ctx, "LOWER(email) = LOWER(?)", email, excludeID)
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string, excludeID int64) (bool, error) {
	return r.exists(ctx, "username = ?", username, excludeID)
}

func (r *UserRepository) exists(ctx context.Context, cond string, value string, excludeID int64) (bool, error) {
	var count int64
	q := store.Conn(ctx, r.db).Model(&userdm.User{}).Where(cond, value)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check user uniqueness: %w", err)
	}
	return count > 0, nil
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	db := store.Conn(ctx, r.db)

	row := user.ToDataModel(u)
	if err := db.Create(row).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if err := db.Create(&userdm.Customer{UserID: row.ID}).Error; err != nil {
		return fmt.Errorf("create customer for user %d: %w", row.ID, err)
	}

	u.ID = row.ID
	u.CreatedAt = row.CreatedAt
	u.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	res := store.Conn(ctx, r.db).Model(&userdm.User{}).
		Where("id = ?", u.ID).
		Updates(map[string]interface{}{
			"username":      u.Username,
			"email":         u.Email,
			"password_hash": u.PasswordHash,
			"first_name":    u.FirstName,
			"last_name":     u.LastName,
			"is_active":     u.IsActive,
		})
	if res.Error != nil {
		return fmt.Errorf("update user %d: %w", u.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	db := store.Conn(ctx, r.db)

	if err := db.Where("user_id = ?", id).Delete(&roledm.UserRole{}).Error; err != nil {
		return fmt.Errorf("delete roles of user %d: %w", id, err)
	}
	if err := db.Where("user_id = ?", id).Delete(&userdm.Customer{}).Error; err != nil {
		return fmt.Errorf("delete customer %d: %w", id, err)
	}

	res := db.Delete(&userdm.User{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}
