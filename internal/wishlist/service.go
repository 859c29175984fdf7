package wishlist

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/shop-backoffice/internal"
	"github.com/frahmantamala/shop-backoffice/internal/auth"
	"github.com/frahmantamala/shop-backoffice/internal/core/events"
	"github.com/frahmantamala/shop-backoffice/internal/store"
)

type Repository interface {
	// EnsureCustomer creates the customer row for a user if it is missing.
	EnsureCustomer(ctx context.Context, userID int64) error
	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)
	GetOwner(ctx context.Context, customerID int64) (*Owner, error)
	// ClaimDefault points the customer's default at wishlistID only while the
	// pointer still equals expected (nil meaning unset). It reports whether
	// the write happened.
	ClaimDefault(ctx context.Context, customerID, wishlistID int64, expected *int64) (bool, error)
	ClearDefault(ctx context.Context, customerID, wishlistID int64) error

	ListByCustomer(ctx context.Context, customerID int64) ([]*Wishlist, error)
	GetByID(ctx context.Context, id int64) (*Wishlist, error)
	// OldestByCustomer returns ErrWishlistNotFound when the customer owns none.
	OldestByCustomer(ctx context.Context, customerID int64) (*Wishlist, error)
	Create(ctx context.Context, w *Wishlist) error
	Update(ctx context.Context, w *Wishlist) error
	// Delete removes the wishlist and its items.
	Delete(ctx context.Context, id int64) error

	ListItems(ctx context.Context, wishlistID int64) ([]*Item, error)
	// GetItemForUpdate locks the item row for the rest of the transaction.
	GetItemForUpdate(ctx context.Context, itemID int64) (*Item, error)
	ItemExists(ctx context.Context, wishlistID, productID int64) (bool, error)
	AddItem(ctx context.Context, item *Item) error
	UpdateItem(ctx context.Context, item *Item) error
	DeleteItem(ctx context.Context, itemID int64) error
	MoveItem(ctx context.Context, itemID, targetWishlistID int64) error
	ProductExists(ctx context.Context, productID int64) (bool, error)
}

type ServiceAPI interface {
	List(ctx context.Context, p *auth.Principal) ([]*Wishlist, error)
	Create(ctx context.Context, p *auth.Principal, dto CreateWishlistDTO) (*Wishlist, error)
	Get(ctx context.Context, p *auth.Principal, id int64) (*Wishlist, error)
	GetShared(ctx context.Context, id int64) (*Wishlist, error)
	Update(ctx context.Context, p *auth.Principal, id int64, dto UpdateWishlistDTO) (*Wishlist, error)
	Delete(ctx context.Context, p *auth.Principal, id int64) error
	GetOrCreateDefault(ctx context.Context, p *auth.Principal) (*Wishlist, error)
	SetDefault(ctx context.Context, p *auth.Principal, id int64) (*Wishlist, error)
	AddItem(ctx context.Context, p *auth.Principal, wishlistID int64, dto AddItemDTO) (*Item, error)
	AddItemToDefault(ctx context.Context, p *auth.Principal, dto AddItemDTO) (*Item, error)
	UpdateItem(ctx context.Context, p *auth.Principal, itemID int64, dto UpdateItemDTO) (*Item, error)
	RemoveItem(ctx context.Context, p *auth.Principal, itemID int64) error
	MoveItem(ctx context.Context, p *auth.Principal, itemID int64, dto MoveItemDTO) (*Item, error)
}

// errLostDefaultRace aborts a get-or-create transaction whose pointer write
// was beaten by a concurrent caller.
var errLostDefaultRace = errors.New("default wishlist claimed concurrently")

// maxDefaultAttempts bounds get-or-create retries after a lost race.
const maxDefaultAttempts = 3

type Service struct {
	repo      Repository
	tx        store.Transactor
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo Repository, tx store.Transactor, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		repo:      repo,
		tx:        tx,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) List(ctx context.Context, p *auth.Principal) ([]*Wishlist, error) {
	if p == nil {
		return nil, internal.ErrUnauthenticated
	}

	lists, err := s.repo.ListByCustomer(ctx, p.ID)
	if err != nil {
		return nil, s.wrap(ctx, err, "failed to list wishlists")
	}

	customer, err := s.customer(ctx, p.ID)
	if err != nil {
		return nil, s.wrap(ctx, err, "failed to list wishlists")
	}
	for _, w := range lists {
		w.IsDefault = isDefault(customer, w.ID)
	}
	return lists, nil
}

func (s *Service) Create(ctx context.Context, p *auth.Principal, dto CreateWishlistDTO) (*Wishlist, error) {
	if p == nil {
		return nil, internal.ErrUnauthenticated
	}
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	w := &Wishlist{
		CustomerID:  p.ID,
		Name:        dto.Name,
		Description: dto.Description,
		IsPublic:    dto.IsPublic,
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.EnsureCustomer(ctx, p.ID); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, w); err != nil {
			return err
		}
		if !dto.MakeDefault {
			return nil
		}
		return s.pointDefaultAt(ctx, p.ID, w.ID)
	})
	if err != nil {
		return nil, s.wrap(ctx, err, "failed to create wishlist")
	}

	w.IsDefault = dto.MakeDefault
	w.Items = []*Item{}
	s.logger.InfoContext(ctx, "wishlist created", "wishlist_id", w.ID, "customer_id", p.ID)
	s.publish(ctx, events.NewWishlistCreatedEvent(w.ID, p.ID, w.IsDefault))
	return w, nil
}

// Get returns an owned wishlist with its items. Wishlists owned by someone
// else are reported as not found.
func (s *Service) Get(ctx context.Context, p *auth.Principal, id int64) (*Wishlist, error) {
	w, err := s.owned(ctx, p, id)
	if err != nil {
		return nil, s.wrap(ctx, err, "failed to get wishlist")
	}
	if err := s.hydrate(ctx, w); err != nil {
		return nil, s.wrap(ctx, err, "failed to get wishlist")
	}
	return w, nil
}

// GetShared returns a public wishlist to any caller; private ones are not found.
func (s *Service) GetShared(ctx context.Context, id int64) (*Wishlist, error) {
	w, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrap(ctx, err, "failed to get wishlist")
	}
	if !w.IsPublic {
		return nil, internal.ErrWishlistNotFound
	}

	items, err := s.repo.ListItems(ctx, w.ID)
	if err != nil {
		return nil, s.wrap(ctx, err, "failed to get wishlist")
	}
	w.Items = items
	return w, nil
}

func (s *Service) Update(ctx context.Context, p *auth.Principal, id int64, dto UpdateWishlistDTO) (*Wishlist, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var updated *Wishlist
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		w, err := s.owned(ctx, p, id)
		if err != nil {
			return err
		}
		if dto.Name != nil {
			w.Name = *dto.Name
		}
		if dto.Description != nil {
			w.Description = dto.Description
		}
		if dto.IsPublic != nil {
			w.IsPublic = *dto.IsPublic
		}
		if err := s.repo.Update(ctx, w); err != nil {
			return err
		}
		updated = w
		return s.hydrate(ctx, w)
	})
	if err != nil {
		return nil, s.wrap(ctx, err, "failed to update wishlist")
	}
	return updated, nil
}

// Delete removes the wishlist with its items and clears the default pointer
// when it targeted this wishlist.
func (s *Service) Delete(ctx context.Context, p *auth.Principal, id int64) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.owned(ctx, p, id); err != nil {
			return err
		}
		if err := s.repo.ClearDefault(ctx, p.ID, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return s.wrap(ctx, err, "failed to delete wishlist")
	}

	s.logger.InfoContext(ctx, "wishlist deleted", "wishlist_id", id, "customer_id", p.ID)
	return nil
}

// GetOrCreateDefault returns the customer's default wishlist, adopting the
// oldest owned wishlist or creating a new one when no default is set. The
// pointer is written with a compare-and-set; a caller that loses the race
// rolls back its own creation and returns the winner's wishlist.
func (s *Service) GetOrCreateDefault(ctx context.Context, p *auth.Principal) (*Wishlist, error) {
	if p == nil {
		return nil, internal.ErrUnauthenticated
	}

	for attempt := 1; attempt <= maxDefaultAttempts; attempt++ {
		var (
			result  *Wishlist
			created bool
		)

		err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := s.repo.EnsureCustomer(ctx, p.ID); err != nil {
				return err
			}
			customer, err := s.repo.GetCustomer(ctx, p.ID)
			if err != nil {
				return err
			}

			if customer.DefaultWishlistID != nil {
				w, err := s.repo.GetByID(ctx, *customer.DefaultWishlistID)
				switch {
				case err == nil && w.CustomerID == p.ID:
					result = w
					return nil
				case err != nil && !errors.Is(err, internal.ErrWishlistNotFound):
					return err
				}
				// dangling pointer, replace it below
			}

			w, err := s.repo.OldestByCustomer(ctx, p.ID)
			if err != nil && !errors.Is(err, internal.ErrWishlistNotFound) {
				return err
			}
			if w == nil {
				owner, err := s.repo.GetOwner(ctx, p.ID)
				if err != nil {
					return err
				}
				w = &Wishlist{CustomerID: p.ID, Name: owner.DefaultName()}
				if err := s.repo.Create(ctx, w); err != nil {
					return err
				}
				created = true
			}

			claimed, err := s.repo.ClaimDefault(ctx, p.ID, w.ID, customer.DefaultWishlistID)
			if err != nil {
				return err
			}
			if !claimed {
				return errLostDefaultRace
			}
			result = w
			return nil
		})

		if errors.Is(err, errLostDefaultRace) {
			s.logger.InfoContext(ctx, "default wishlist claimed concurrently, re-reading",
				"customer_id", p.ID,
				"attempt", attempt)
			continue
		}
		if err != nil {
			return nil, s.wrap(ctx, err, "failed to resolve default wishlist")
		}

		result.IsDefault = true
		if created {
			s.logger.InfoContext(ctx, "default wishlist created", "wishlist_id", result.ID, "customer_id", p.ID)
			s.publish(ctx, events.NewWishlistCreatedEvent(result.ID, p.ID, true))
		}
		if err := s.hydrate(ctx, result); err != nil {
			return nil, s.wrap(ctx, err, "failed to resolve default wishlist")
		}
		return result, nil
	}

	return nil, internal.NewInternalError("failed to resolve default wishlist", errLostDefaultRace)
}

func (s *Service) SetDefault(ctx context.Context, p *auth.Principal, id int64) (*Wishlist, error) {
	var w *Wishlist
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if w, err = s.owned(ctx, p, id); err != nil {
			return err
		}
		if err := s.repo.EnsureCustomer(ctx, p.ID); err != nil {
			return err
		}
		return s.pointDefaultAt(ctx, p.ID, id)
	})
	if err != nil {
		return nil, s.wrap(ctx, err, "failed to set default wishlist")
	}

	w.IsDefault = true
	return w, nil
}

// pointDefaultAt overwrites the pointer unconditionally, still through the
// compare-and-set so a concurrent get-or-create observes a changed value.
func (s *Service) pointDefaultAt(ctx context.Context, customerID, wishlistID int64) error {
	customer, err := s.repo.GetCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	claimed, err := s.repo.ClaimDefault(ctx, customerID, wishlistID, customer.DefaultWishlistID)
	if err != nil {
		return err
	}
	if !claimed {
		return errLostDefaultRace
	}
	return nil
}

func (s *Service) AddItem(ctx context.Context, p *auth.Principal, wishlistID int64, dto AddItemDTO) (*Item, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var item *Item
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.owned(ctx, p, wishlistID); err != nil {
			return err
		}
		var err error
		item, err = s.addItem(ctx, wishlistID, dto)
		return err
	})
	if err != nil {
		return nil, s.wrap(ctx, err, "failed to add wishlist item")
	}

	s.publish(ctx, events.NewWishlistItemAddedEvent(wishlistID, p.ID, dto.ProductID))
	return item, nil
}

// AddItemToDefault adds to the default wishlist, creating it when needed.
func (s *Service) AddItemToDefault(ctx context.Context, p *auth.Principal, dto AddItemDTO) (*Item, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	w, err := s.GetOrCreateDefault(ctx, p)
	if err != nil {
		return nil, err
	}
	return s.AddItem(ctx, p, w.ID, dto)
}

func (s *Service) addItem(ctx context.Context, wishlistID int64, dto AddItemDTO) (*Item, error) {
	ok, err := s.repo.ProductExists(ctx, dto.ProductID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, internal.ErrProductNotFound
	}

	dup, err := s.repo.ItemExists(ctx, wishlistID, dto.ProductID)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, internal.ErrDuplicateItem
	}

	item := &Item{WishlistID: wishlistID, ProductID: dto.ProductID, Notes: dto.Notes}
	if err := s.repo.AddItem(ctx, item); err != nil {
		if store.IsDuplicateKey(err) {
			return nil, internal.ErrDuplicateItem
		}
		return nil, err
	}
	return item, nil
}

func (s *Service) UpdateItem(ctx context.Context, p *auth.Principal, itemID int64, dto UpdateItemDTO) (*Item, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var item *Item
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if item, err = s.ownedItem(ctx, p, itemID); err != nil {
			return err
		}
		item.Notes = dto.Notes
		return s.repo.UpdateItem(ctx, item)
	})
	if err != nil {
		return nil, s.wrap(ctx, err, "failed to update wishlist item")
	}
	return item, nil
}

func (s *Service) RemoveItem(ctx context.Context, p *auth.Principal, itemID int64) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.ownedItem(ctx, p, itemID); err != nil {
			return err
		}
		return s.repo.DeleteItem(ctx, itemID)
	})
	if err != nil {
		return s.wrap(ctx, err, "failed to remove wishlist item")
	}
	return nil
}

// MoveItem re-parents an item between two wishlists of the same owner in a
// single transaction. On any failure the item stays in its source wishlist.
func (s *Service) MoveItem(ctx context.Context, p *auth.Principal, itemID int64, dto MoveItemDTO) (*Item, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var (
		item   *Item
		source int64
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if item, err = s.ownedItem(ctx, p, itemID); err != nil {
			return err
		}
		source = item.WishlistID

		if _, err := s.owned(ctx, p, dto.TargetWishlistID); err != nil {
			return err
		}
		if source == dto.TargetWishlistID {
			return internal.ErrSameWishlist
		}

		dup, err := s.repo.ItemExists(ctx, dto.TargetWishlistID, item.ProductID)
		if err != nil {
			return err
		}
		if dup {
			return internal.ErrDuplicateItem
		}

		if err := s.repo.MoveItem(ctx, itemID, dto.TargetWishlistID); err != nil {
			if store.IsDuplicateKey(err) {
				return internal.ErrDuplicateItem
			}
			return err
		}
		item.WishlistID = dto.TargetWishlistID
		return nil
	})
	if err != nil {
		return nil, s.wrap(ctx, err, "failed to move wishlist item")
	}

	s.logger.InfoContext(ctx, "wishlist item moved",
		"item_id", itemID,
		"from", source,
		"to", dto.TargetWishlistID)
	s.publish(ctx, events.NewWishlistItemMovedEvent(itemID, source, dto.TargetWishlistID, p.ID))
	return item, nil
}

// owned loads a wishlist and hides it unless p owns it.
func (s *Service) owned(ctx context.Context, p *auth.Principal, id int64) (*Wishlist, error) {
	if p == nil {
		return nil, internal.ErrUnauthenticated
	}
	w, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.CustomerID != p.ID {
		return nil, internal.ErrWishlistNotFound
	}
	return w, nil
}

// ownedItem locks an item whose wishlist p owns; anything else is not found.
func (s *Service) ownedItem(ctx context.Context, p *auth.Principal, itemID int64) (*Item, error) {
	if p == nil {
		return nil, internal.ErrUnauthenticated
	}
	item, err := s.repo.GetItemForUpdate(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, p, item.WishlistID); err != nil {
		if errors.Is(err, internal.ErrWishlistNotFound) {
			return nil, internal.ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *Service) hydrate(ctx context.Context, w *Wishlist) error {
	items, err := s.repo.ListItems(ctx, w.ID)
	if err != nil {
		return err
	}
	w.Items = items

	customer, err := s.customer(ctx, w.CustomerID)
	if err != nil {
		return err
	}
	w.IsDefault = isDefault(customer, w.ID)
	return nil
}

// customer tolerates a missing customer row, which only means no default.
func (s *Service) customer(ctx context.Context, id int64) (*Customer, error) {
	c, err := s.repo.GetCustomer(ctx, id)
	if errors.Is(err, internal.ErrUserNotFound) {
		return &Customer{UserID: id}, nil
	}
	return c, err
}

func isDefault(c *Customer, wishlistID int64) bool {
	return c != nil && c.DefaultWishlistID != nil && *c.DefaultWishlistID == wishlistID
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
