// internal/listing/payment_test.go

package listing

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func paidListing(rank float64) *Listing {
	l := daytonListing()
	l.CKey = 500
	l.Rank = rank
	return l
}

func TestRegisterPaymentUsesTablePrice(t *testing.T) {
	h := newHarness()
	l := paidListing(2)

	id, err := h.mgr.RegisterPayment(context.Background(), l, PlanRecurring)
	if err != nil {
		t.Fatalf("RegisterPayment: %v", err)
	}
	if id == 0 {
		t.Fatal("payment id = 0")
	}
	if len(h.payments.purged) != 1 || h.payments.purgeDays != unpaidWindowDays {
		t.Errorf("unpaid cleanup: purged=%v days=%d", h.payments.purged, h.payments.purgeDays)
	}

	p := h.payments.inserted[0]
	if p.Type != paymentType || p.Rank != 2 || p.Payplan != PlanRecurring {
		t.Errorf("payment row = %+v", p)
	}
	if !strings.Contains(p.Description, "rank 2.0") {
		t.Errorf("description = %q, want rank mention", p.Description)
	}

	var pb PriceBreakdown
	if err := json.Unmarshal([]byte(p.Price), &pb); err != nil {
		t.Fatalf("price breakdown: %v", err)
	}
	// An undiscounted registration charges the full table price; disc is
	// the amount to charge, so it must never be zero for a paid rank.
	if pb.Price != 275 || pb.Discounted != 275 {
		t.Errorf("breakdown = %+v, want price and charge both 275", pb)
	}
}

func TestRegisterCustomPaymentKeepsDiscountedPrice(t *testing.T) {
	h := newHarness()
	l := paidListing(3.5)

	_, err := h.mgr.RegisterCustomPayment(context.Background(), l, 3.5,
		PriceBreakdown{Price: 500, Discounted: 450}, PlanSingle, "loyalty rate")
	if err != nil {
		t.Fatalf("RegisterCustomPayment: %v", err)
	}

	p := h.payments.inserted[0]
	var pb PriceBreakdown
	if err := json.Unmarshal([]byte(p.Price), &pb); err != nil {
		t.Fatalf("price breakdown: %v", err)
	}
	if pb.Price != 500 || pb.Discounted != 450 {
		t.Errorf("breakdown = %+v, want 500 discounted to 450", pb)
	}
	if p.Notes != "loyalty rate" {
		t.Errorf("notes = %q", p.Notes)
	}
	if !p.Registered.Equal(testClock) {
		t.Errorf("registered = %v, want test clock", p.Registered)
	}
}

func TestRegisterCustomPaymentAtDifferentRank(t *testing.T) {
	h := newHarness()
	l := paidListing(1) // upgrading from rank 1 to 3.5

	_, err := h.mgr.RegisterCustomPayment(context.Background(), l, 3.5,
		PriceBreakdown{Price: 500, Discounted: 500}, PlanRecurring, "")
	if err != nil {
		t.Fatalf("RegisterCustomPayment: %v", err)
	}

	p := h.payments.inserted[0]
	if p.Rank != 3.5 {
		t.Errorf("payment rank = %v, want the requested 3.5, not the listing's", p.Rank)
	}
	if !strings.Contains(p.Description, "rank 3.5") {
		t.Errorf("description = %q, want requested rank", p.Description)
	}
}

func TestShouldRenewAutomatically(t *testing.T) {
	completed := func(daysAgo int) *time.Time {
		ts := testClock.AddDate(0, 0, -daysAgo)
		return &ts
	}

	cases := []struct {
		name   string
		rank   float64
		latest *Payment
		want   bool
	}{
		{"recent recurring", 2, &Payment{Payplan: PlanRecurring, Completed: completed(200)}, true},
		{"too old", 2, &Payment{Payplan: PlanRecurring, Completed: completed(400)}, false},
		{"single plan", 2, &Payment{Payplan: PlanSingle, Completed: completed(200)}, false},
		{"rank zero", 0, &Payment{Payplan: PlanRecurring, Completed: completed(200)}, false},
		{"no payment", 2, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness()
			h.payments.latest = tc.latest
			got, err := h.mgr.ShouldRenewAutomatically(context.Background(), paidListing(tc.rank))
			if err != nil {
				t.Fatalf("ShouldRenewAutomatically: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAddAndSaveYearAtRank(t *testing.T) {
	t.Run("future expiration extends from itself", func(t *testing.T) {
		h := newHarness()
		l := paidListing(1)
		future := testClock.AddDate(0, 4, 0)
		l.Expires = future
		h.store.rows[l.CKey] = l

		if err := h.mgr.AddAndSaveYearAtRank(context.Background(), l, 2.5); err != nil {
			t.Fatalf("AddAndSaveYearAtRank: %v", err)
		}
		if l.Rank != 2.5 {
			t.Errorf("rank = %v", l.Rank)
		}
		if want := future.AddDate(1, 0, 0); !l.Expires.Equal(want) {
			t.Errorf("expires = %v, want %v", l.Expires, want)
		}
		if got := h.audit.last().Comment; got != "Set expiry & rank" {
			t.Errorf("audit comment = %q", got)
		}
	})

	t.Run("past expiration extends from now", func(t *testing.T) {
		h := newHarness()
		l := paidListing(1)
		l.Expires = testClock.AddDate(0, -2, 0)
		h.store.rows[l.CKey] = l

		if err := h.mgr.AddAndSaveYearAtRank(context.Background(), l, 1); err != nil {
			t.Fatalf("AddAndSaveYearAtRank: %v", err)
		}
		if want := testClock.AddDate(1, 0, 0); !l.Expires.Equal(want) {
			t.Errorf("expires = %v, want %v", l.Expires, want)
		}
	})
}
