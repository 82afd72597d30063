package cart

import (
	"errors"
	"sync"

	"storefront-order-engine/models"
	"storefront-order-engine/money"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	ErrInvalidItem     = errors.New("item needs a product id and a non-negative price")
)

// Cart owns the line items of one shopping session.
// Items keep insertion order for display; totals do not depend on it.
type Cart struct {
	mu    sync.Mutex
	items []models.LineItem
	index map[string]int // productID -> position in items
}

func New() *Cart {
	return &Cart{index: make(map[string]int)}
}

// AddItem inserts item with qty units, or adds qty to an existing line.
func (c *Cart) AddItem(item models.LineItem, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	if item.ProductID == "" || item.UnitPrice.IsNegative() {
		return ErrInvalidItem
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if i, ok := c.index[item.ProductID]; ok {
		c.items[i].Quantity += qty
		return nil
	}

	item.Quantity = qty
	c.index[item.ProductID] = len(c.items)
	c.items = append(c.items, item)
	return nil
}

// RemoveOneUnit decrements a line; the line disappears when it reaches zero.
// Unknown product ids are ignored.
func (c *Cart) RemoveOneUnit(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[productID]
	if !ok {
		return
	}
	c.items[i].Quantity--
	if c.items[i].Quantity <= 0 {
		c.removeAt(i)
	}
}

// ClearItem removes a line regardless of its quantity.
func (c *Cart) ClearItem(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i, ok := c.index[productID]; ok {
		c.removeAt(i)
	}
}

// ClearAll empties the cart.
func (c *Cart) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	c.index = make(map[string]int)
}

// Snapshot recomputes the totals from scratch and returns a copy of the items.
func (c *Cart) Snapshot() models.CartSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := models.CartSnapshot{
		Items:    make([]models.LineItem, len(c.items)),
		Subtotal: money.Zero,
	}
	copy(snap.Items, c.items)

	for _, item := range c.items {
		snap.Subtotal = snap.Subtotal.Add(money.LineTotal(item.UnitPrice, item.Quantity))
		snap.TotalItemCount += item.Quantity
	}
	return snap
}

// Len returns the number of distinct line items.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// removeAt drops items[i] and reindexes the lines after it. Caller holds mu.
func (c *Cart) removeAt(i int) {
	delete(c.index, c.items[i].ProductID)
	c.items = append(c.items[:i], c.items[i+1:]...)
	for j := i; j < len(c.items); j++ {
		c.index[c.items[j].ProductID] = j
	}
}

// restore replaces the contents with items, merging duplicate product ids.
func (c *Cart) restore(items []models.LineItem) error {
	c.ClearAll()
	for _, item := range items {
		if err := c.AddItem(item, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}
