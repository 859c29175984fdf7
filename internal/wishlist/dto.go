package wishlist

import (
	"strings"

	"github.com/frahmantamala/shop-backoffice/internal/core/common/validation"
)

type CreateWishlistDTO struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	IsPublic    bool    `json:"is_public"`
	MakeDefault bool    `json:"make_default"`
}

func (d *CreateWishlistDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
}

func (d CreateWishlistDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(150)
	v.Field("description", d.Description).MaxLength(1000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type UpdateWishlistDTO struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsPublic    *bool   `json:"is_public,omitempty"`
}

func (d UpdateWishlistDTO) Validate() error {
	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", d.Name).Required().MaxLength(150)
	}
	v.Field("description", d.Description).MaxLength(1000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type AddItemDTO struct {
	ProductID int64  `json:"product_id"`
	Notes     string `json:"notes"`
}

func (d AddItemDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("product_id", d.ProductID).Required().MinInt(1)
	v.Field("notes", d.Notes).MaxLength(1000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type UpdateItemDTO struct {
	Notes string `json:"notes"`
}

func (d UpdateItemDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("notes", d.Notes).MaxLength(1000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type MoveItemDTO struct {
	TargetWishlistID int64 `json:"target_wishlist_id"`
}

func (d MoveItemDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("target_wishlist_id", d.TargetWishlistID).Required().MinInt(1)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
