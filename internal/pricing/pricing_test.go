package pricing

import "testing"

func TestDeliveryCost(t *testing.T) {
	rule := Rule{FreeDeliveryThresholdCents: 5000, DeliveryPercentage: 10}

	cases := []struct {
		name         string
		subtotal     int64
		wantDelivery int64
		wantGrand    int64
	}{
		{"below threshold", 2500, 250, 2750},
		{"above threshold", 8000, 0, 8000},
		{"at threshold exactly", 5000, 0, 5000},
		{"just under threshold", 4999, 499, 5498},
		{"zero subtotal", 0, 0, 0},
		{"negative subtotal", -100, 0, -100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			delivery, grand := rule.Totals(tc.subtotal)
			if delivery != tc.wantDelivery {
				t.Fatalf("delivery = %d, want %d", delivery, tc.wantDelivery)
			}
			if grand != tc.wantGrand {
				t.Fatalf("grand = %d, want %d", grand, tc.wantGrand)
			}
		})
	}
}

func TestDeliveryCostIntegerTruncation(t *testing.T) {
	rule := Rule{FreeDeliveryThresholdCents: 5000, DeliveryPercentage: 10}
	// 2505 * 10 / 100 truncates to 250, never rounds up.
	if got := rule.DeliveryCost(2505); got != 250 {
		t.Fatalf("delivery = %d, want 250", got)
	}
}
