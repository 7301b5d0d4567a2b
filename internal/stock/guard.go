package stock

import "github.com/supplyhub/cart-service/internal/domain"

// HasOutOfStock reports whether any item's quantity exceeds its last-known
// stock. Items with unknown stock are unconstrained.
func HasOutOfStock(items []domain.CartItem) bool {
	for _, it := range items {
		if it.Stock != nil && it.Quantity > *it.Stock {
			return true
		}
	}
	return false
}

// HasLowStock reports whether any item is partially short: some stock remains
// but less than the requested quantity.
func HasLowStock(items []domain.CartItem) bool {
	for _, it := range items {
		if it.Stock != nil && *it.Stock > 0 && *it.Stock < it.Quantity {
			return true
		}
	}
	return false
}

// OutOfStockItems returns the items whose quantity exceeds known stock.
func OutOfStockItems(items []domain.CartItem) []domain.CartItem {
	var out []domain.CartItem
	for _, it := range items {
		if it.Stock != nil && it.Quantity > *it.Stock {
			out = append(out, it)
		}
	}
	return out
}

// CanCheckout is false for an empty cart or one carrying out-of-stock items.
// Low stock alone does not block checkout.
func CanCheckout(items []domain.CartItem) bool {
	return len(items) > 0 && !HasOutOfStock(items)
}
