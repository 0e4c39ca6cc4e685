// Package cart holds the session shopping bag. A bag lives only for the
// browsing session that owns it; the durable record of its contents is
// the serialized snapshot frozen onto an order at checkout time.
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"knot-art-api/internal/domain"
	"knot-art-api/internal/pricing"
)

// MaxQuantityPerItem caps how many of one product a bag may hold.
// Enforced on the additive path only; direct quantity adjustment is
// treated as a correction and is deliberately uncapped.
const MaxQuantityPerItem = 10

type catalog interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// Store maps session IDs to their bag contents (product ID -> quantity).
type Store struct {
	mu    sync.RWMutex
	carts map[string]map[string]int
}

func NewStore() *Store {
	return &Store{
		carts: make(map[string]map[string]int),
	}
}

// Add increases the quantity of a product in the session's bag, creating
// the bag or the entry as needed. If the resulting quantity would exceed
// MaxQuantityPerItem the bag is left unchanged and a CartCapError is
// returned. Returns the stored quantity after the update.
func (s *Store) Add(sessionID, productID, productName string, qty int) (int, error) {
	if qty <= 0 {
		return 0, fmt.Errorf("quantity must be positive, got %d", qty)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	bag := s.carts[sessionID]
	if bag == nil {
		bag = make(map[string]int)
		s.carts[sessionID] = bag
	}
	current := bag[productID]
	if current+qty > MaxQuantityPerItem {
		return current, &domain.CartCapError{
			ProductName: productName,
			Current:     current,
			Attempted:   qty,
			Cap:         MaxQuantityPerItem,
		}
	}
	bag[productID] += qty
	return bag[productID], nil
}

// SetQuantity overwrites the stored quantity for a product. A quantity
// of zero or less removes the entry entirely.
func (s *Store) SetQuantity(sessionID, productID string, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bag := s.carts[sessionID]
	if qty <= 0 {
		delete(bag, productID)
		return
	}
	if bag == nil {
		bag = make(map[string]int)
		s.carts[sessionID] = bag
	}
	bag[productID] = qty
}

// Remove deletes a product from the bag. Removing an absent product is
// reported as a failure naming the missing key.
func (s *Store) Remove(sessionID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bag := s.carts[sessionID]
	if _, ok := bag[productID]; !ok {
		return fmt.Errorf("remove %s from bag: %w", productID, domain.ErrNotFound)
	}
	delete(bag, productID)
	return nil
}

// Items returns a copy of the session's bag.
func (s *Store) Items(sessionID string) map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]int, len(s.carts[sessionID]))
	for id, qty := range s.carts[sessionID] {
		out[id] = qty
	}
	return out
}

// IsEmpty reports whether the session has no bag or an empty one.
func (s *Store) IsEmpty(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.carts[sessionID]) == 0
}

// Clear drops the session's bag.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
}

// Serialize returns the canonical string form of the bag, used as the
// frozen original_cart snapshot on an order. encoding/json sorts map
// keys, so equal bags always serialize identically.
func (s *Store) Serialize(sessionID string) (string, error) {
	items := s.Items(sessionID)
	raw, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("serialize bag: %w", err)
	}
	return string(raw), nil
}

// SummaryLine is one bag entry resolved against the catalog.
type SummaryLine struct {
	ProductID      string `json:"productId"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	LineTotalCents int64  `json:"lineTotalCents"`
}

// Summary is the bag resolved against live catalog prices, with the
// delivery rule applied.
type Summary struct {
	Lines             []SummaryLine `json:"lines"`
	ItemCount         int           `json:"itemCount"`
	SubtotalCents     int64         `json:"subtotalCents"`
	DeliveryCostCents int64         `json:"deliveryCostCents"`
	GrandTotalCents   int64         `json:"grandTotalCents"`
}

// Summarize resolves the session's bag against the catalog and applies
// the delivery pricing rule. Lines come back in product ID order.
func (s *Store) Summarize(ctx context.Context, sessionID string, products catalog, rule pricing.Rule) (*Summary, error) {
	items := s.Items(sessionID)

	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	summary := &Summary{Lines: make([]SummaryLine, 0, len(ids))}
	for _, id := range ids {
		product, err := products.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("look up product %s: %w", id, err)
		}
		qty := items[id]
		lineTotal := product.PriceCents * int64(qty)
		summary.Lines = append(summary.Lines, SummaryLine{
			ProductID:      id,
			Name:           product.Name,
			Quantity:       qty,
			UnitPriceCents: product.PriceCents,
			LineTotalCents: lineTotal,
		})
		summary.ItemCount += qty
		summary.SubtotalCents += lineTotal
	}

	summary.DeliveryCostCents, summary.GrandTotalCents = rule.Totals(summary.SubtotalCents)
	return summary, nil
}
