package order

import (
	"fmt"

	"github.com/frahmantamala/shop-backoffice/internal/core/common/validation"
)

// MaxItemQuantity caps the quantity of one product in an order, after
// repeated lines are merged.
const MaxItemQuantity = 10000

type CreateOrderItemDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type CreateOrderDTO struct {
	Items []CreateOrderItemDTO `json:"items"`
}

func (d CreateOrderDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("items", len(d.Items)).MinInt(1)
	for i, it := range d.Items {
		v.Field(fmt.Sprintf("items[%d].product_id", i), it.ProductID).Required().MinInt(1)
		v.Field(fmt.Sprintf("items[%d].quantity", i), it.Quantity).MinInt(1).MaxInt(MaxItemQuantity)
	}
	if err := v.Validate(); err != nil {
		return err
	}

	ids, qty := d.Quantities()
	for _, id := range ids {
		v.Field(fmt.Sprintf("quantity of product %d", id), qty[id]).MaxInt(MaxItemQuantity)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// Quantities merges repeated product lines, keeping first-seen order.
func (d CreateOrderDTO) Quantities() ([]int64, map[int64]int) {
	order := make([]int64, 0, len(d.Items))
	qty := make(map[int64]int, len(d.Items))
	for _, it := range d.Items {
		if _, seen := qty[it.ProductID]; !seen {
			order = append(order, it.ProductID)
		}
		qty[it.ProductID] += it.Quantity
	}
	return order, qty
}

// UpdateStatusDTO changes the fulfilment and/or payment status.
type UpdateStatusDTO struct {
	Status        *string `json:"status,omitempty"`
	PaymentStatus *string `json:"payment_status,omitempty"`
}

func (d UpdateStatusDTO) Validate() error {
	v := validation.NewValidator()
	if d.Status == nil && d.PaymentStatus == nil {
		v.Field("status", "").Required()
	}
	v.Field("status", d.Status).OneOf(Statuses...)
	v.Field("payment_status", d.PaymentStatus).OneOf(PaymentStatuses...)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ListFilter struct {
	CustomerID *int64
	Status     string
	Limit      int
	Offset     int
}

func (f ListFilter) Validate() error {
	v := validation.NewValidator()
	v.Field("status", f.Status).OneOf(Statuses...)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ListResult struct {
	Orders []*Order `json:"orders"`
	Total  int64    `json:"total"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
}
