// Package pricing holds the delivery pricing rule shared by the live
// cart summary and the stored order totals. Both call the same function
// so the two can never drift.
package pricing

// Rule describes delivery pricing: below the free-delivery threshold
// the charge is a percentage of the subtotal, above it delivery is free.
type Rule struct {
	FreeDeliveryThresholdCents int64
	DeliveryPercentage         int64
}

// DeliveryCost returns the delivery charge in cents for a given
// pre-delivery subtotal.
func (r Rule) DeliveryCost(subtotalCents int64) int64 {
	if subtotalCents <= 0 {
		return 0
	}
	if subtotalCents < r.FreeDeliveryThresholdCents {
		return subtotalCents * r.DeliveryPercentage / 100
	}
	return 0
}

// Totals computes delivery and grand total from a subtotal.
func (r Rule) Totals(subtotalCents int64) (deliveryCents, grandCents int64) {
	deliveryCents = r.DeliveryCost(subtotalCents)
	return deliveryCents, subtotalCents + deliveryCents
}
