package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/supplyhub/cart-service/internal/domain"
	"github.com/supplyhub/cart-service/internal/persist"
	"github.com/supplyhub/cart-service/internal/pricing"
	"github.com/supplyhub/cart-service/internal/recon"
	"github.com/supplyhub/cart-service/internal/stock"
)

const persistTimeout = time.Second

// Store is the single source of truth for one owner's cart. Mutators run to
// completion under the store mutex; every mutation persists the resulting
// snapshot asynchronously, so the caller never waits on the backend.
type Store struct {
	mu      sync.Mutex
	ownerID string
	state   domain.CartState
	undo    *UndoBuffer
	persist persist.Store
	recon   *recon.Service
	logger  zerolog.Logger
}

func NewStore(ownerID string, p persist.Store, r *recon.Service, logger zerolog.Logger) *Store {
	return &Store{
		ownerID: ownerID,
		undo:    NewUndoBuffer(),
		persist: p,
		recon:   r,
		logger:  logger.With().Str("component", "cart").Str("owner_id", ownerID).Logger(),
	}
}

// hydrate loads a persisted snapshot, re-establishing the invariants a
// hand-edited or pre-migration snapshot may have lost: unique item ids,
// quantity >= 1, selection limited to present items.
func (s *Store) hydrate(state *domain.CartState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(state.Items))
	s.state.Items = nil
	for _, it := range state.Items {
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		if it.Quantity < 1 {
			it.Quantity = 1
		}
		s.state.Items = append(s.state.Items, it)
	}

	s.state.Selected = nil
	for _, id := range state.Selected {
		if _, ok := seen[id]; ok {
			s.state.Selected = append(s.state.Selected, id)
		}
	}

	s.undo.Restore(state.RecentlyDeleted)
	if state.Coupon != nil {
		c := *state.Coupon
		s.state.Coupon = &c
	}
	if state.LastAdded != nil {
		li := *state.LastAdded
		s.state.LastAdded = &li
	}
}

// AddItem merges on id: an existing line gains the delta quantity and
// LastAdded records that delta; a new line is appended, auto-selected, and
// LastAdded records the full item. Non-positive quantities are coerced to 1.
// Never fails.
func (s *Store) AddItem(item domain.CartItem, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	if idx := s.indexOf(item.ID); idx >= 0 {
		s.state.Items[idx].Quantity += quantity
		delta := item
		delta.Quantity = quantity
		s.state.LastAdded = &delta
	} else {
		item.Quantity = quantity
		s.state.Items = append(s.state.Items, item)
		s.selectLocked(item.ID)
		added := item
		s.state.LastAdded = &added
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.persistAsync(snap)
}

// RemoveItem deletes the item, drops its selection and snapshots it into the
// undo buffer. Absent ids are a silent no-op.
func (s *Store) RemoveItem(id string) {
	s.mu.Lock()
	var snap *domain.CartState
	if s.removeLocked(id, time.Now()) {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	if snap != nil {
		s.persistAsync(snap)
	}
}

// RemoveSelectedItems bulk-removes every selected item, snapshotting each into
// the bounded undo buffer, and clears the selection.
func (s *Store) RemoveSelectedItems() {
	s.mu.Lock()
	ids := append([]string(nil), s.state.Selected...)
	now := time.Now()
	removed := false
	for _, id := range ids {
		if s.removeLocked(id, now) {
			removed = true
		}
	}
	var snap *domain.CartState
	if removed {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	if snap != nil {
		s.persistAsync(snap)
	}
}

// RestoreItem re-inserts a deleted snapshot, re-selects it and drops it from
// the undo buffer. Restoring a snapshot that is neither buffered nor absent
// from the cart is a no-op.
func (s *Store) RestoreItem(snapshot domain.DeletedItem) {
	s.mu.Lock()
	_, buffered := s.undo.Take(snapshot.ID)
	restored := false
	if s.indexOf(snapshot.ID) < 0 {
		s.state.Items = append(s.state.Items, snapshot.CartItem)
		s.selectLocked(snapshot.ID)
		restored = true
	}
	var snap *domain.CartState
	if buffered || restored {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	if snap != nil {
		s.persistAsync(snap)
	}
}

// UpdateQuantity sets the quantity for an item. A non-positive quantity is
// equivalent to removal. When the last-known stock is lower than the request,
// the state is untouched and the result carries the allowed maximum.
func (s *Store) UpdateQuantity(id string, quantity int) domain.QuantityResult {
	if quantity <= 0 {
		s.RemoveItem(id)
		return domain.QuantityResult{Result: domain.Result{Success: true}}
	}

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return domain.QuantityResult{Result: domain.Result{Success: true}}
	}

	item := s.state.Items[idx]
	if item.Stock != nil && quantity > *item.Stock {
		max := *item.Stock
		s.mu.Unlock()
		return domain.QuantityResult{
			Result:      domain.Result{Success: false, Message: fmt.Sprintf("only %d left in stock", max)},
			MaxQuantity: &max,
		}
	}

	s.state.Items[idx].Quantity = quantity
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.persistAsync(snap)
	return domain.QuantityResult{Result: domain.Result{Success: true}}
}

// ApplyCoupon validates the coupon's minimum purchase against the current
// subtotal and, on success, makes it the single active coupon. The minimum is
// not re-validated on later mutations.
func (s *Store) ApplyCoupon(c domain.Coupon) domain.Result {
	s.mu.Lock()
	subtotal := pricing.Subtotal(s.state.Items)
	if c.MinPurchase != nil && subtotal.LessThan(*c.MinPurchase) {
		s.mu.Unlock()
		return domain.Result{
			Success: false,
			Message: fmt.Sprintf("coupon %s requires a minimum purchase of %s", c.Code, c.MinPurchase.String()),
		}
	}
	s.state.Coupon = &c
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.persistAsync(snap)
	return domain.Result{Success: true, Message: fmt.Sprintf("coupon %s applied", c.Code)}
}

func (s *Store) RemoveCoupon() {
	s.mu.Lock()
	s.state.Coupon = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.persistAsync(snap)
}

// ToggleSelectItem flips the selection of an item; unknown ids are ignored.
func (s *Store) ToggleSelectItem(id string) {
	s.mu.Lock()
	if s.indexOf(id) < 0 {
		s.mu.Unlock()
		return
	}
	if s.isSelectedLocked(id) {
		s.deselectLocked(id)
	} else {
		s.selectLocked(id)
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.persistAsync(snap)
}

func (s *Store) SelectAllItems() {
	s.mu.Lock()
	s.selectAllLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.persistAsync(snap)
}

func (s *Store) DeselectAllItems() {
	s.mu.Lock()
	s.state.Selected = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.persistAsync(snap)
}

// ToggleSelectAll selects every item unless all are already selected, in
// which case it deselects everything.
func (s *Store) ToggleSelectAll() {
	s.mu.Lock()
	if len(s.state.Selected) == len(s.state.Items) && len(s.state.Items) > 0 {
		s.state.Selected = nil
	} else {
		s.selectAllLocked()
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.persistAsync(snap)
}

// ClearCart empties items, selection, undo buffer and coupon, and drops the
// persisted snapshot.
func (s *Store) ClearCart() {
	s.mu.Lock()
	s.state = domain.CartState{}
	s.undo.Clear()
	s.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.persist.Delete(ctx, s.ownerID); err != nil {
			s.logger.Error().Err(err).Msg("clear cart snapshot failed")
		}
	}()
}

// Reconcile cross-checks current items against the catalog and prunes lines
// the catalog no longer knows. The result is applied against whatever items
// exist when the response arrives, filtered by the catalog-valid id set
// (last-applied-wins), and a catalog failure changes nothing.
func (s *Store) Reconcile(ctx context.Context) {
	s.mu.Lock()
	items := append([]domain.CartItem(nil), s.state.Items...)
	s.mu.Unlock()

	outcome := s.recon.Validate(ctx, items)
	if len(outcome.Removed) == 0 {
		return
	}

	s.mu.Lock()
	var kept []domain.CartItem
	pruned := 0
	for _, it := range s.state.Items {
		if _, ok := outcome.ValidIDs[it.ID]; ok {
			kept = append(kept, it)
		} else {
			pruned++
		}
	}
	if pruned == 0 {
		s.mu.Unlock()
		return
	}
	s.state.Items = kept

	var selected []string
	for _, id := range s.state.Selected {
		if s.indexOf(id) >= 0 {
			selected = append(selected, id)
		}
	}
	s.state.Selected = selected
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info().Int("pruned", pruned).Msg("reconciliation pruned stale cart items")
	s.persistAsync(snap)
}

// Snapshot returns a deep copy of the current state, recently-deleted
// included.
func (s *Store) Snapshot() *domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CartItem(nil), s.state.Items...)
}

// SelectedItems returns the selected lines in cart order.
func (s *Store) SelectedItems() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedItemsLocked()
}

func (s *Store) RecentlyDeleted() []domain.DeletedItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.undo.Items()
}

func (s *Store) Coupon() *domain.Coupon {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Coupon == nil {
		return nil
	}
	c := *s.state.Coupon
	return &c
}

func (s *Store) LastAdded() *domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.LastAdded == nil {
		return nil
	}
	li := *s.state.LastAdded
	return &li
}

// ItemCount is the number of lines; TotalQuantity sums quantities across them.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.Items)
}

func (s *Store) TotalQuantity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, it := range s.state.Items {
		total += it.Quantity
	}
	return total
}

// Totals prices the full cart under the active coupon.
func (s *Store) Totals() pricing.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.Summarize(s.state.Items, s.state.Coupon)
}

// SelectedTotals prices only the selected subset, same tiering.
func (s *Store) SelectedTotals() pricing.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.Summarize(s.selectedItemsLocked(), s.state.Coupon)
}

func (s *Store) HasOutOfStockItems() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return stock.HasOutOfStock(s.state.Items)
}

func (s *Store) HasLowStockItems() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return stock.HasLowStock(s.state.Items)
}

func (s *Store) OutOfStockItems() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return stock.OutOfStockItems(s.state.Items)
}

func (s *Store) CanCheckout() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return stock.CanCheckout(s.state.Items)
}

func (s *Store) indexOf(id string) int {
	for i, it := range s.state.Items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) removeLocked(id string, deletedAt time.Time) bool {
	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	item := s.state.Items[idx]
	s.state.Items = append(s.state.Items[:idx], s.state.Items[idx+1:]...)
	s.deselectLocked(id)
	s.undo.Push(item, deletedAt)
	return true
}

func (s *Store) isSelectedLocked(id string) bool {
	for _, sel := range s.state.Selected {
		if sel == id {
			return true
		}
	}
	return false
}

func (s *Store) selectLocked(id string) {
	if !s.isSelectedLocked(id) {
		s.state.Selected = append(s.state.Selected, id)
	}
}

func (s *Store) deselectLocked(id string) {
	for i, sel := range s.state.Selected {
		if sel == id {
			s.state.Selected = append(s.state.Selected[:i], s.state.Selected[i+1:]...)
			return
		}
	}
}

func (s *Store) selectAllLocked() {
	s.state.Selected = nil
	for _, it := range s.state.Items {
		s.state.Selected = append(s.state.Selected, it.ID)
	}
}

func (s *Store) selectedItemsLocked() []domain.CartItem {
	var items []domain.CartItem
	for _, it := range s.state.Items {
		if s.isSelectedLocked(it.ID) {
			items = append(items, it)
		}
	}
	return items
}

func (s *Store) snapshotLocked() *domain.CartState {
	snap := domain.CartState{
		Items:           append([]domain.CartItem(nil), s.state.Items...),
		Selected:        append([]string(nil), s.state.Selected...),
		RecentlyDeleted: s.undo.Items(),
	}
	if s.state.Coupon != nil {
		c := *s.state.Coupon
		snap.Coupon = &c
	}
	if s.state.LastAdded != nil {
		li := *s.state.LastAdded
		snap.LastAdded = &li
	}
	return &snap
}

func (s *Store) persistAsync(snap *domain.CartState) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.persist.Save(ctx, s.ownerID, snap); err != nil {
			s.logger.Error().Err(err).Msg("persist cart snapshot failed")
		}
	}()
}
