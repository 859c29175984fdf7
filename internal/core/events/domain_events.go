package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeUserCreated        = "user.created"
	EventTypeUserDeleted        = "user.deleted"
	EventTypeRoleAssigned       = "role.assigned"
	EventTypeRoleRevoked        = "role.revoked"
	EventTypeWishlistCreated    = "wishlist.created"
	EventTypeWishlistItemAdded  = "wishlist.item_added"
	EventTypeWishlistItemMoved  = "wishlist.item_moved"
	EventTypeOrderCreated       = "order.created"
	EventTypeOrderStatusChanged = "order.status_changed"
)

// AllEventTypes is the set forwarded to external sinks.
var AllEventTypes = []string{
	EventTypeUserCreated,
	EventTypeUserDeleted,
	EventTypeRoleAssigned,
	EventTypeRoleRevoked,
	EventTypeWishlistCreated,
	EventTypeWishlistItemAdded,
	EventTypeWishlistItemMoved,
	EventTypeOrderCreated,
	EventTypeOrderStatusChanged,
}

func newEvent(eventType, key string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Key:       key,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

func NewUserCreatedEvent(userID int64, username string) BaseEvent {
	return newEvent(EventTypeUserCreated, fmt.Sprintf("user:%d", userID), map[string]interface{}{
		"user_id":  userID,
		"username": username,
	})
}

func NewUserDeletedEvent(userID, deletedBy int64) BaseEvent {
	return newEvent(EventTypeUserDeleted, fmt.Sprintf("user:%d", userID), map[string]interface{}{
		"user_id":    userID,
		"deleted_by": deletedBy,
	})
}

func NewRoleAssignedEvent(userID int64, role string, assignedBy int64) BaseEvent {
	return newEvent(EventTypeRoleAssigned, fmt.Sprintf("user:%d", userID), map[string]interface{}{
		"user_id":     userID,
		"role":        role,
		"assigned_by": assignedBy,
	})
}

func NewRoleRevokedEvent(userID int64, role string, revokedBy int64) BaseEvent {
	return newEvent(EventTypeRoleRevoked, fmt.Sprintf("user:%d", userID), map[string]interface{}{
		"user_id":    userID,
		"role":       role,
		"revoked_by": revokedBy,
	})
}

func NewWishlistCreatedEvent(wishlistID, customerID int64, isDefault bool) BaseEvent {
	return newEvent(EventTypeWishlistCreated, fmt.Sprintf("customer:%d", customerID), map[string]interface{}{
		"wishlist_id": wishlistID,
		"customer_id": customerID,
		"is_default":  isDefault,
	})
}

func NewWishlistItemAddedEvent(wishlistID, customerID, productID int64) BaseEvent {
	return newEvent(EventTypeWishlistItemAdded, fmt.Sprintf("customer:%d", customerID), map[string]interface{}{
		"wishlist_id": wishlistID,
		"customer_id": customerID,
		"product_id":  productID,
	})
}

func NewWishlistItemMovedEvent(itemID, fromWishlistID, toWishlistID, customerID int64) BaseEvent {
	return newEvent(EventTypeWishlistItemMoved, fmt.Sprintf("customer:%d", customerID), map[string]interface{}{
		"item_id":          itemID,
		"from_wishlist_id": fromWishlistID,
		"to_wishlist_id":   toWishlistID,
		"customer_id":      customerID,
	})
}

func NewOrderCreatedEvent(orderID, customerID, totalCents int64) BaseEvent {
	return newEvent(EventTypeOrderCreated, fmt.Sprintf("order:%d", orderID), map[string]interface{}{
		"order_id":    orderID,
		"customer_id": customerID,
		"total_cents": totalCents,
	})
}

func NewOrderStatusChangedEvent(orderID int64, from, to, paymentStatus string, changedBy int64) BaseEvent {
	return newEvent(EventTypeOrderStatusChanged, fmt.Sprintf("order:%d", orderID), map[string]interface{}{
		"order_id":       orderID,
		"from_status":    from,
		"to_status":      to,
		"payment_status": paymentStatus,
		"changed_by":     changedBy,
	})
}
