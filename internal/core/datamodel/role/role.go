package role

import "time"

type Role struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;uniqueIndex;size:64;not null"`
	Description string    `gorm:"column:description;size:255"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Role) TableName() string {
	return "roles"
}

// RolePermission is one member of a role's permission set.
type RolePermission struct {
	RoleID     int64  `gorm:"column:role_id;primaryKey;autoIncrement:false"`
	Permission string `gorm:"column:permission;primaryKey;size:128"`
}

func (RolePermission) TableName() string {
	return "role_permissions"
}

// UserRole is the explicit user<->role join row.
type UserRole struct {
	UserID    int64     `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	RoleID    int64     `gorm:"column:role_id;primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (UserRole) TableName() string {
	return "user_roles"
}
