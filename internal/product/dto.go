package product

import (
	"strings"

	"github.com/frahmantamala/shop-backoffice/internal/core/common/validation"
)

type CreateProductDTO struct {
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	SupplierID  *int64 `json:"supplier_id,omitempty"`
}

func (d *CreateProductDTO) Normalize() {
	d.SKU = strings.ToUpper(strings.TrimSpace(d.SKU))
	d.Name = strings.TrimSpace(d.Name)
}

func (d CreateProductDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("sku", d.SKU).Required().MaxLength(64)
	v.Field("name", d.Name).Required().MaxLength(200)
	v.Field("description", d.Description).MaxLength(2000)
	v.Field("price_cents", d.PriceCents).MinInt(0)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// UpdateProductDTO is a partial update; nil fields are left unchanged.
type UpdateProductDTO struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	PriceCents  *int64  `json:"price_cents,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

func (d UpdateProductDTO) Validate() error {
	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", d.Name).Required().MaxLength(200)
	}
	v.Field("description", d.Description).MaxLength(2000)
	if d.PriceCents != nil {
		v.Field("price_cents", *d.PriceCents).MinInt(0)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ListFilter struct {
	Search          string
	IncludeInactive bool
	Limit           int
	Offset          int
}

type ListResult struct {
	Products []*Product `json:"products"`
	Total    int64      `json:"total"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}
