package order

import (
	"math"
	"time"

	"github.com/frahmantamala/shop-backoffice/internal"
	orderDatamodel "github.com/frahmantamala/shop-backoffice/internal/core/datamodel/order"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"

	PaymentUnpaid   = "unpaid"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

var Statuses = []string{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

var PaymentStatuses = []string{PaymentUnpaid, PaymentPaid, PaymentRefunded}

var statusTransitions = map[string][]string{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
}

var paymentTransitions = map[string][]string{
	PaymentUnpaid: {PaymentPaid},
	PaymentPaid:   {PaymentRefunded},
}

type Order struct {
	ID            int64     `json:"id"`
	CustomerID    int64     `json:"customer_id"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	TotalCents    int64     `json:"total_cents"`
	Items         []*Item   `json:"items,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Item struct {
	ID             int64  `json:"id"`
	OrderID        int64  `json:"order_id"`
	ProductID      int64  `json:"product_id"`
	ProductName    string `json:"product_name,omitempty"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

func (i *Item) SubtotalCents() int64 {
	return i.UnitPriceCents * int64(i.Quantity)
}

// subtotal is SubtotalCents with an overflow check.
func (i *Item) subtotal() (int64, bool) {
	if i.UnitPriceCents < 0 || i.Quantity < 0 {
		return 0, false
	}
	if i.UnitPriceCents != 0 && int64(i.Quantity) > math.MaxInt64/i.UnitPriceCents {
		return 0, false
	}
	return i.SubtotalCents(), true
}

// StatusSummary aggregates orders sharing one status.
type StatusSummary struct {
	Status     string `json:"status" db:"status"`
	Count      int64  `json:"count" db:"order_count"`
	TotalCents int64  `json:"total_cents" db:"total_cents"`
}

// NewOrder builds a pending, unpaid order. A total that does not fit in
// int64 cents is rejected with ErrTotalOverflow.
func NewOrder(customerID int64, items []*Item) (*Order, error) {
	o := &Order{
		CustomerID:    customerID,
		Status:        StatusPending,
		PaymentStatus: PaymentUnpaid,
		Items:         items,
	}
	for _, it := range items {
		sub, ok := it.subtotal()
		if !ok || o.TotalCents > math.MaxInt64-sub {
			return nil, internal.ErrTotalOverflow.WithDetails(map[string]int64{"product_id": it.ProductID})
		}
		o.TotalCents += sub
	}
	return o, nil
}

func (o *Order) CanTransitionTo(status string) bool {
	return allowed(statusTransitions, o.Status, status)
}

func (o *Order) CanSetPayment(status string) bool {
	return allowed(paymentTransitions, o.PaymentStatus, status)
}

// CanBeCancelledByCustomer holds until the order has shipped.
func (o *Order) CanBeCancelledByCustomer() bool {
	return o.CanTransitionTo(StatusCancelled)
}

func allowed(table map[string][]string, from, to string) bool {
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

func ToDataModel(o *Order) *orderDatamodel.Order {
	return &orderDatamodel.Order{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalCents:    o.TotalCents,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func FromDataModel(o *orderDatamodel.Order) *Order {
	return &Order{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalCents:    o.TotalCents,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func ItemToDataModel(orderID int64, i *Item) *orderDatamodel.OrderItem {
	return &orderDatamodel.OrderItem{
		ID:             i.ID,
		OrderID:        orderID,
		ProductID:      i.ProductID,
		Quantity:       i.Quantity,
		UnitPriceCents: i.UnitPriceCents,
	}
}

func ItemFromDataModel(i *orderDatamodel.OrderItem) *Item {
	return &Item{
		ID:             i.ID,
		OrderID:        i.OrderID,
		ProductID:      i.ProductID,
		Quantity:       i.Quantity,
		UnitPriceCents: i.UnitPriceCents,
	}
}
