package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// CartItem is one line of a session cart. Key is the stable handle for update and removal.
type CartItem struct {
	Key       string    `json:"key"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// CartState is everything a visitor session carries: cart lines and pending flash errors.
type CartState struct {
	Items  []CartItem `json:"items"`
	Errors []string   `json:"errors,omitempty"`
}

// Count is the number of cart lines.
func (c *CartState) Count() int {
	return len(c.Items)
}

// QuantityOf sums the quantity already in the cart for a product.
func (c *CartState) QuantityOf(productID uuid.UUID) int {
	n := 0
	for _, it := range c.Items {
		if it.ProductID == productID {
			n += it.Quantity
		}
	}
	return n
}

// Add merges qty into the line for productID, or appends a new line keyed newKey.
// It returns the key of the affected line.
func (c *CartState) Add(productID uuid.UUID, qty int, newKey string) string {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += qty
			return c.Items[i].Key
		}
	}
	c.Items = append(c.Items, CartItem{Key: newKey, ProductID: productID, Quantity: qty})
	return newKey
}

// Line returns the line with the given key.
func (c *CartState) Line(key string) (CartItem, bool) {
	for _, it := range c.Items {
		if it.Key == key {
			return it, true
		}
	}
	return CartItem{}, false
}

// SetQuantity overwrites the quantity of the keyed line. Lines at zero are kept.
func (c *CartState) SetQuantity(key string, qty int) bool {
	for i := range c.Items {
		if c.Items[i].Key == key {
			c.Items[i].Quantity = qty
			return true
		}
	}
	return false
}

// Remove drops the keyed line and reports whether one was found.
func (c *CartState) Remove(key string) bool {
	kept := c.Items[:0]
	found := false
	for _, it := range c.Items {
		if it.Key == key {
			found = true
			continue
		}
		kept = append(kept, it)
	}
	c.Items = kept
	return found
}

// AddError queues a flash message for the next page view.
func (c *CartState) AddError(msg string) {
	c.Errors = append(c.Errors, msg)
}

// TakeErrors returns and clears the queued flash messages.
func (c *CartState) TakeErrors() []string {
	errs := c.Errors
	c.Errors = nil
	return errs
}

// Hash digests the session id and every (product, quantity) pair in cart order.
// Format: "<sid>:<pid>*<qty>+<pid>*<qty>", or just "<sid>" for an empty cart.
func (c *CartState) Hash(sessionID string) string {
	var b strings.Builder
	b.WriteString(sessionID)
	for i, it := range c.Items {
		if i == 0 {
			b.WriteByte(':')
		} else {
			b.WriteByte('+')
		}
		b.WriteString(it.ProductID.String())
		b.WriteByte('*')
		b.WriteString(strconv.Itoa(it.Quantity))
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
