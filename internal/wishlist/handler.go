package wishlist

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/shop-backoffice/internal/auth"
	"github.com/frahmantamala/shop-backoffice/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI, lg *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

func (h *Handler) ListWishlists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.Service.List(r.Context(), auth.PrincipalFromContext(r.Context()))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, lists)
}

func (h *Handler) CreateWishlist(w http.ResponseWriter, r *http.Request) {
	var dto CreateWishlistDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	list, err := h.Service.Create(r.Context(), auth.PrincipalFromContext(r.Context()), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusCreated, list)
}

// GetDefaultWishlist handles GET /wishlists/default, creating it on first use.
func (h *Handler) GetDefaultWishlist(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.GetOrCreateDefault(r.Context(), auth.PrincipalFromContext(r.Context()))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, list)
}

func (h *Handler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	list, err := h.Service.Get(r.Context(), auth.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, list)
}

// GetSharedWishlist handles GET /wishlists/shared/{id} without authentication.
func (h *Handler) GetSharedWishlist(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	list, err := h.Service.GetShared(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, list)
}

func (h *Handler) UpdateWishlist(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	var dto UpdateWishlistDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	list, err := h.Service.Update(r.Context(), auth.PrincipalFromContext(r.Context()), id, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, list)
}

func (h *Handler) DeleteWishlist(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	if err := h.Service.Delete(r.Context(), auth.PrincipalFromContext(r.Context()), id); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SetDefaultWishlist(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	list, err := h.Service.SetDefault(r.Context(), auth.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, list)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	var dto AddItemDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	item, err := h.Service.AddItem(r.Context(), auth.PrincipalFromContext(r.Context()), id, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusCreated, item)
}

// AddItemToDefault handles POST /wishlists/default/items.
func (h *Handler) AddItemToDefault(w http.ResponseWriter, r *http.Request) {
	var dto AddItemDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	item, err := h.Service.AddItemToDefault(r.Context(), auth.PrincipalFromContext(r.Context()), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusCreated, item)
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := h.PathID(r, "itemID")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	var dto UpdateItemDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	item, err := h.Service.UpdateItem(r.Context(), auth.PrincipalFromContext(r.Context()), itemID, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, item)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := h.PathID(r, "itemID")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	if err := h.Service.RemoveItem(r.Context(), auth.PrincipalFromContext(r.Context()), itemID); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveItem handles POST /wishlists/items/{itemID}/move.
func (h *Handler) MoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := h.PathID(r, "itemID")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	var dto MoveItemDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	item, err := h.Service.MoveItem(r.Context(), auth.PrincipalFromContext(r.Context()), itemID, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, item)
}
