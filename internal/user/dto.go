package user

import (
	"strings"

	"github.com/frahmantamala/shop-backoffice/internal"
	"github.com/frahmantamala/shop-backoffice/internal/core/common/validation"
)

const minPasswordLength = 8

type CreateUserDTO struct {
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	IsActive  *bool    `json:"is_active,omitempty"`
	Roles     []string `json:"roles,omitempty"`
}

func (d *CreateUserDTO) Normalize() {
	d.Username = strings.TrimSpace(d.Username)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
}

func (d CreateUserDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("username", d.Username).Required().MinLength(3).MaxLength(64)
	v.Field("email", d.Email).Required().MaxLength(255).Email()
	v.Field("password", d.Password).Required().MinLength(minPasswordLength).MaxLength(72)
	v.Field("first_name", d.FirstName).MaxLength(100)
	v.Field("last_name", d.LastName).MaxLength(100)
	v.Field("roles", d.Roles).Custom(nonEmptyNames("roles"))
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// UpdateUserDTO is a partial update; nil fields are left unchanged.
type UpdateUserDTO struct {
	Username  *string `json:"username,omitempty"`
	Email     *string `json:"email,omitempty"`
	Password  *string `json:"password,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

func (d *UpdateUserDTO) Normalize() {
	trim := func(s *string) {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	trim(d.Username)
	trim(d.FirstName)
	trim(d.LastName)
	if d.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*d.Email))
		d.Email = &e
	}
}

func (d UpdateUserDTO) Validate() error {
	v := validation.NewValidator()
	if d.Username != nil {
		v.Field("username", d.Username).Required().MinLength(3).MaxLength(64)
	}
	if d.Email != nil {
		v.Field("email", d.Email).Required().MaxLength(255).Email()
	}
	if d.Password != nil {
		v.Field("password", d.Password).Required().MinLength(minPasswordLength).MaxLength(72)
	}
	v.Field("first_name", d.FirstName).MaxLength(100)
	v.Field("last_name", d.LastName).MaxLength(100)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ListFilter struct {
	Search   string
	IsActive *bool
	Limit    int
	Offset   int
}

type ListResult struct {
	Users  []*User `json:"users"`
	Total  int64   `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

func nonEmptyNames(field string) func(interface{}) *internal.AppError {
	return func(value interface{}) *internal.AppError {
		names, _ := value.([]string)
		for _, n := range names {
			if strings.TrimSpace(n) == "" {
				return internal.NewValidationFieldError(field, field+" must not contain empty names", internal.ErrCodeValidationFailed)
			}
		}
		return nil
	}
}
