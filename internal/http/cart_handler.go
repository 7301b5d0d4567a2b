package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/supplyhub/cart-service/internal/cart"
	"github.com/supplyhub/cart-service/internal/domain"
	"github.com/supplyhub/cart-service/internal/pricing"
	"github.com/supplyhub/cart-service/internal/stock"
)

type CartHandler struct {
	manager *cart.Manager
}

func NewCartHandler(manager *cart.Manager) *CartHandler {
	return &CartHandler{manager: manager}
}

type AddItemRequestDTO struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Stock    *int            `json:"stock,omitempty"`
	ImageURL string          `json:"image_url,omitempty"`
	Brand    string          `json:"brand,omitempty"`
	Category string          `json:"category,omitempty"`
	Tags     []string        `json:"tags,omitempty"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// CartResponse is the full cart view the storefront renders from: state,
// pricing for the whole cart and the selected subset, and stock flags.
type CartResponse struct {
	Items           []domain.CartItem    `json:"items"`
	Selected        []string             `json:"selected"`
	RecentlyDeleted []domain.DeletedItem `json:"recently_deleted,omitempty"`
	Coupon          *domain.Coupon       `json:"coupon,omitempty"`
	LastAdded       *domain.CartItem     `json:"last_added,omitempty"`
	Totals          pricing.Summary      `json:"totals"`
	SelectedTotals  pricing.Summary      `json:"selected_totals"`
	HasOutOfStock   bool                 `json:"has_out_of_stock"`
	HasLowStock     bool                 `json:"has_low_stock"`
	CanCheckout     bool                 `json:"can_checkout"`
}

func cartResponse(st *cart.Store) CartResponse {
	snap := st.Snapshot()
	selected := make([]domain.CartItem, 0, len(snap.Selected))
	selectedSet := make(map[string]struct{}, len(snap.Selected))
	for _, id := range snap.Selected {
		selectedSet[id] = struct{}{}
	}
	for _, it := range snap.Items {
		if _, ok := selectedSet[it.ID]; ok {
			selected = append(selected, it)
		}
	}
	return CartResponse{
		Items:           snap.Items,
		Selected:        snap.Selected,
		RecentlyDeleted: snap.RecentlyDeleted,
		Coupon:          snap.Coupon,
		LastAdded:       snap.LastAdded,
		Totals:          pricing.Summarize(snap.Items, snap.Coupon),
		SelectedTotals:  pricing.Summarize(selected, snap.Coupon),
		HasOutOfStock:   stock.HasOutOfStock(snap.Items),
		HasLowStock:     stock.HasLowStock(snap.Items),
		CanCheckout:     stock.CanCheckout(snap.Items),
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	st := h.manager.Get(r.Context(), getOwnerID(r.Context()))
	respondJSON(w, http.StatusOK, cartResponse(st))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "id must not be empty")
		return
	}
	if req.Price.IsNegative() {
		respondError(w, http.StatusBadRequest, "invalid_price", "price must not be negative")
		return
	}

	st := h.manager.Get(r.Context(), getOwnerID(r.Context()))
	st.AddItem(domain.CartItem{
		ID:       req.ID,
		Name:     req.Name,
		Price:    req.Price,
		Stock:    req.Stock,
		ImageURL: req.ImageURL,
		Brand:    req.Brand,
		Category: req.Category,
		Tags:     req.Tags,
	}, req.Quantity)

	respondJSON(w, http.StatusCreated, cartResponse(st))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	st := h.manager.Get(r.Context(), getOwnerID(r.Context()))
	res := st.UpdateQuantity(id, req.Quantity)
	if !res.Success {
		respondJSON(w, http.StatusUnprocessableEntity, res)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(st))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	st := h.manager.Get(r.Context(), getOwnerID(r.Context()))
	st.RemoveItem(chi.URLParam(r, "id"))
	respondJSON(w, http.StatusOK, cartResponse(st))
}

func (h *CartHandler) RemoveSelectedItems(w http.ResponseWriter, r *http.Request) {
	st := h.manager.Get(r.Context(), getOwnerID(r.Context()))
	st.RemoveSelectedItems()
	respondJSON(w, http.StatusOK, cartResponse(st))
}

// RestoreItem re-inserts a recently deleted item by id. An id that is no
// longer in the undo buffer is a no-op, mirroring the store contract.
func (h *CartHandler) RestoreItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	st := h.manager.Get(r.Context(), getOwnerID(r.Context()))
	for _, snapshot := range st.RecentlyDeleted() {
		if snapshot.ID == id {
			st.RestoreItem(snapshot)
			break
		}
	}
	respondJSON(w, http.StatusOK, cartResponse(st))
}

func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var coupon domain.Coupon
	if err := json.NewDecoder(r.Body).Decode(&coupon); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	switch coupon.Type {
	case domain.CouponPercentage, domain.CouponFixed, domain.CouponShipping:
	default:
		respondError(w, http.StatusBadRequest, "invalid_coupon_type", "type must be percentage, fixed or shipping")
		return
	}

	st := h.manager.Get(r.Context(), getOwnerID(r.Context()))
	res := st.ApplyCoupon(coupon)
	if !res.Success {
		respondJSON(w, http.StatusUnprocessableEntity, res)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *CartHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	st := h.manager.Get(r.Context(), getOwnerID(r.Context()))
	st.RemoveCoupon()
	respondJSON(w, http.StatusOK, cartResponse(st))
}

func (h *CartHandler) ToggleSelectItem(w http.ResponseWriter, r *http.Request) {
	st := h.manager.Get(r.Context(), getOwnerID(r.Context()))
	st.ToggleSelectItem(chi.URLParam(r, "id"))
	respondJSON(w, http.StatusOK, cartResponse(st))
}

func (h *CartHandler) SelectAllItems(w http.ResponseWriter, r *http.Request) {
	st := h.manager.Get(r.Context(), getOwnerID(r.Context()))
	st.SelectAllItems()
	respondJSON(w, http.StatusOK, cartResponse(st))
}

func (h *CartHandler) DeselectAllItems(w http.ResponseWriter, r *http.Request) {
	st := h.manager.Get(r.Context(), getOwnerID(r.Context()))
	st.DeselectAllItems()
	respondJSON(w, http.StatusOK, cartResponse(st))
}

func (h *CartHandler) ToggleSelectAll(w http.ResponseWriter, r *http.Request) {
	st := h.manager.Get(r.Context(), getOwnerID(r.Context()))
	st.ToggleSelectAll()
	respondJSON(w, http.StatusOK, cartResponse(st))
}

func (h *CartHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	st := h.manager.Get(r.Context(), getOwnerID(r.Context()))
	st.Reconcile(r.Context())
	respondJSON(w, http.StatusOK, cartResponse(st))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	st := h.manager.Get(r.Context(), getOwnerID(r.Context()))
	st.ClearCart()
	respondJSON(w, http.StatusOK, cartResponse(st))
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
