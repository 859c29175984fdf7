package order

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/shop-backoffice/internal"
	"github.com/frahmantamala/shop-backoffice/internal/auth"
	"github.com/frahmantamala/shop-backoffice/internal/core/events"
	"github.com/frahmantamala/shop-backoffice/internal/store"
)

// ProductPrice is the catalogue state an order line is priced from.
type ProductPrice struct {
	ID         int64
	Name       string
	PriceCents int64
	IsActive   bool
}

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	// GetForUpdate locks the order row for the rest of the transaction.
	GetForUpdate(ctx context.Context, id int64) (*Order, error)
	Items(ctx context.Context, orderID int64) ([]*Item, error)
	List(ctx context.Context, filter ListFilter) ([]*Order, int64, error)
	UpdateStatus(ctx context.Context, o *Order) error
	Delete(ctx context.Context, id int64) error
	Prices(ctx context.Context, productIDs []int64) (map[int64]ProductPrice, error)
	EnsureCustomer(ctx context.Context, userID int64) error
}

// SummaryReader reports per-status counts and revenue.
type SummaryReader interface {
	StatusSummary(ctx context.Context, customerID *int64) ([]StatusSummary, error)
}

type ServiceAPI interface {
	Create(ctx context.Context, p *auth.Principal, dto CreateOrderDTO) (*Order, error)
	ListOwn(ctx context.Context, p *auth.Principal, filter ListFilter) (*ListResult, error)
	GetOwn(ctx context.Context, p *auth.Principal, id int64) (*Order, error)
	CancelOwn(ctx context.Context, p *auth.Principal, id int64) (*Order, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	Get(ctx context.Context, id int64) (*Order, error)
	Summary(ctx context.Context) ([]StatusSummary, error)
	UpdateStatus(ctx context.Context, actor *auth.Principal, id int64, dto UpdateStatusDTO) (*Order, error)
	Delete(ctx context.Context, actor *auth.Principal, id int64) error
}

type Service struct {
	repo      Repository
	summaries SummaryReader
	tx        store.Transactor
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo Repository, summaries SummaryReader, tx store.Transactor, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		repo:      repo,
		summaries: summaries,
		tx:        tx,
		publisher: publisher,
		logger:    logger,
	}
}

// Create prices every line from the catalogue and writes the order with its
// items in one transaction.
func (s *Service) Create(ctx context.Context, p *auth.Principal, dto CreateOrderDTO) (*Order, error) {
	if p == nil {
		return nil, internal.ErrUnauthenticated
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	ids, quantities := dto.Quantities()

	var o *Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		prices, err := s.repo.Prices(ctx, ids)
		if err != nil {
			return err
		}

		items := make([]*Item, 0, len(ids))
		for _, id := range ids {
			price, ok := prices[id]
			if !ok {
				return internal.ErrProductNotFound.WithDetails(map[string]int64{"product_id": id})
			}
			if !price.IsActive {
				return internal.ErrProductInactive.WithDetails(map[string]int64{"product_id": id})
			}
			items = append(items, &Item{
				ProductID:      id,
				ProductName:    price.Name,
				Quantity:       quantities[id],
				UnitPriceCents: price.PriceCents,
			})
		}

		if err := s.repo.EnsureCustomer(ctx, p.ID); err != nil {
			return err
		}
		o, err = NewOrder(p.ID, items)
		if err != nil {
			return err
		}
		return s.repo.Create(ctx, o)
	})
	if err != nil {
		return nil, s.wrap(ctx, err, "failed to create order")
	}

	s.logger.InfoContext(ctx, "order created",
		"order_id", o.ID,
		"customer_id", p.ID,
		"total_cents", o.TotalCents)
	s.publish(ctx, events.NewOrderCreatedEvent(o.ID, p.ID, o.TotalCents))
	return o, nil
}

func (s *Service) ListOwn(ctx context.Context, p *auth.Principal, filter ListFilter) (*ListResult, error) {
	if p == nil {
		return nil, internal.ErrUnauthenticated
	}
	filter.CustomerID = &p.ID
	return s.List(ctx, filter)
}

// GetOwn hides orders of other customers as not found.
func (s *Service) GetOwn(ctx context.Context, p *auth.Principal, id int64) (*Order, error) {
	if p == nil {
		return nil, internal.ErrUnauthenticated
	}
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != p.ID {
		return nil, internal.ErrOrderNotFound
	}
	return o, nil
}

func (s *Service) CancelOwn(ctx context.Context, p *auth.Principal, id int64) (*Order, error) {
	if p == nil {
		return nil, internal.ErrUnauthenticated
	}

	var (
		o    *Order
		from string
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if o, err = s.repo.GetForUpdate(ctx, id); err != nil {
			return err
		}
		if o.CustomerID != p.ID {
			return internal.ErrOrderNotFound
		}
		if !o.CanBeCancelledByCustomer() {
			return internal.ErrInvalidTransition
		}
		from = o.Status
		o.Status = StatusCancelled
		return s.repo.UpdateStatus(ctx, o)
	})
	if err != nil {
		return nil, s.wrap(ctx, err, "failed to cancel order")
	}

	s.logger.InfoContext(ctx, "order cancelled by customer", "order_id", id, "customer_id", p.ID)
	s.publish(ctx, events.NewOrderStatusChangedEvent(id, from, o.Status, o.PaymentStatus, p.ID))
	return o, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, s.wrap(ctx, err, "failed to list orders")
	}
	return &ListResult{Orders: orders, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrap(ctx, err, "failed to get order")
	}
	if o.Items, err = s.repo.Items(ctx, id); err != nil {
		return nil, s.wrap(ctx, err, "failed to get order")
	}
	return o, nil
}

func (s *Service) Summary(ctx context.Context) ([]StatusSummary, error) {
	rows, err := s.summaries.StatusSummary(ctx, nil)
	if err != nil {
		return nil, s.wrap(ctx, err, "failed to summarize orders")
	}
	return rows, nil
}

// UpdateStatus moves the order along the fulfilment and payment state
// machines. Any disallowed step rejects the whole update.
func (s *Service) UpdateStatus(ctx context.Context, actor *auth.Principal, id int64, dto UpdateStatusDTO) (*Order, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var (
		o    *Order
		from string
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if o, err = s.repo.GetForUpdate(ctx, id); err != nil {
			return err
		}
		from = o.Status

		if dto.Status != nil && *dto.Status != o.Status {
			if !o.CanTransitionTo(*dto.Status) {
				return internal.ErrInvalidTransition.WithDetails(map[string]string{"from": o.Status, "to": *dto.Status})
			}
			o.Status = *dto.Status
		}
		if dto.PaymentStatus != nil && *dto.PaymentStatus != o.PaymentStatus {
			if !o.CanSetPayment(*dto.PaymentStatus) {
				return internal.ErrInvalidTransition.WithDetails(map[string]string{"from": o.PaymentStatus, "to": *dto.PaymentStatus})
			}
			o.PaymentStatus = *dto.PaymentStatus
		}
		return s.repo.UpdateStatus(ctx, o)
	})
	if err != nil {
		return nil, s.wrap(ctx, err, "failed to update order status")
	}

	s.logger.InfoContext(ctx, "order status updated",
		"order_id", id,
		"from", from,
		"to", o.Status,
		"payment_status", o.PaymentStatus,
		"actor_id", actorID(actor))
	s.publish(ctx, events.NewOrderStatusChangedEvent(id, from, o.Status, o.PaymentStatus, actorID(actor)))
	return o, nil
}

func (s *Service) Delete(ctx context.Context, actor *auth.Principal, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.wrap(ctx, err, "failed to delete order")
	}
	s.logger.InfoContext(ctx, "order deleted", "order_id", id, "actor_id", actorID(actor))
	return nil
}

func actorID(p *auth.Principal) int64 {
	if p == nil {
		return 0
	}
	return p.ID
}

func (s *Service) wrap(ctx context.Context, err error, msg string) error {
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	s.logger.ErrorContext(ctx, msg, "error", err)
	return internal.NewInternalError(msg, err)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
