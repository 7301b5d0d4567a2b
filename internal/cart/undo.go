package cart

import (
	"time"

	"github.com/supplyhub/cart-service/internal/domain"
)

// undoCapacity bounds the recently-deleted buffer.
const undoCapacity = 5

// UndoBuffer keeps the most recently deleted items, newest first, so a
// deletion can be undone with a single restore. It is not safe for concurrent
// use on its own; the owning Store serializes access.
type UndoBuffer struct {
	entries []domain.DeletedItem
}

func NewUndoBuffer() *UndoBuffer {
	return &UndoBuffer{}
}

// Push records a deletion at the front, evicting the oldest entry beyond
// capacity.
func (b *UndoBuffer) Push(item domain.CartItem, deletedAt time.Time) {
	entry := domain.DeletedItem{CartItem: item, DeletedAt: deletedAt}
	b.entries = append([]domain.DeletedItem{entry}, b.entries...)
	if len(b.entries) > undoCapacity {
		b.entries = b.entries[:undoCapacity]
	}
}

// Take removes and returns the entry with the given id. A second take of the
// same id misses.
func (b *UndoBuffer) Take(id string) (domain.DeletedItem, bool) {
	for i, entry := range b.entries {
		if entry.ID == id {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return entry, true
		}
	}
	return domain.DeletedItem{}, false
}

// Items returns a copy of the buffer, newest first.
func (b *UndoBuffer) Items() []domain.DeletedItem {
	if len(b.entries) == 0 {
		return nil
	}
	return append([]domain.DeletedItem(nil), b.entries...)
}

func (b *UndoBuffer) Len() int {
	return len(b.entries)
}

func (b *UndoBuffer) Clear() {
	b.entries = nil
}

// Restore replaces the buffer contents from a persisted snapshot, truncating
// to capacity.
func (b *UndoBuffer) Restore(entries []domain.DeletedItem) {
	b.entries = append([]domain.DeletedItem(nil), entries...)
	if len(b.entries) > undoCapacity {
		b.entries = b.entries[:undoCapacity]
	}
}
