package auth

import "github.com/frahmantamala/shop-backoffice/internal/core/common/validation"

// LoginDTO accepts either a username or an email in Login.
type LoginDTO struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// RefreshTokenDTO for refresh token requests
type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

type AssignRoleDTO struct {
	Role string `json:"role"`
}

func (d LoginDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("login", d.Login).Required().MaxLength(255)
	v.Field("password", d.Password).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func (d RefreshTokenDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("refresh_token", d.RefreshToken).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func (d AssignRoleDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("role", d.Role).Required().MaxLength(64)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
