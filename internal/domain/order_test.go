package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCanTransitionPaymentStatus(t *testing.T) {
	cases := []struct {
		name string
		from PaymentStatus
		to   PaymentStatus
		want bool
	}{
		{name: "pending to completed", from: PaymentStatusPending, to: PaymentStatusCompleted, want: true},
		{name: "pending to failed", from: PaymentStatusPending, to: PaymentStatusFailed, want: true},
		{name: "pending to processing", from: PaymentStatusPending, to: PaymentStatusProcessing, want: true},
		{name: "processing to completed", from: PaymentStatusProcessing, to: PaymentStatusCompleted, want: true},
		{name: "completed is terminal", from: PaymentStatusCompleted, to: PaymentStatusPending, want: false},
		{name: "completed stays completed", from: PaymentStatusCompleted, to: PaymentStatusCompleted, want: false},
		{name: "failed is terminal", from: PaymentStatusFailed, to: PaymentStatusCompleted, want: false},
		{name: "cancelled is terminal", from: PaymentStatusCancelled, to: PaymentStatusPending, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanTransitionPaymentStatus(tc.from, tc.to); got != tc.want {
				t.Fatalf("CanTransitionPaymentStatus(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestCanTransitionOrderStatus(t *testing.T) {
	if !CanTransitionOrderStatus(OrderStatusPending, OrderStatusProcessing) {
		t.Fatalf("expected pending -> processing to be allowed")
	}
	if CanTransitionOrderStatus(OrderStatusCompleted, OrderStatusPending) {
		t.Fatalf("expected completed to be terminal")
	}
	if CanTransitionOrderStatus(OrderStatusCancelled, OrderStatusProcessing) {
		t.Fatalf("expected cancelled to be terminal")
	}
}

func TestCartTotal(t *testing.T) {
	items := []CartItem{
		{Price: decimal.RequireFromString("10.00"), Quantity: 2},
		{Price: decimal.RequireFromString("2.50"), Quantity: 1},
		{Price: decimal.RequireFromString("5.00")}, // missing quantity counts as one
	}

	got := CartTotal(items)
	want := decimal.RequireFromString("27.50")
	if !got.Equal(want) {
		t.Fatalf("CartTotal = %s, want %s", got, want)
	}
}

func TestCartTotalEmpty(t *testing.T) {
	if got := CartTotal(nil); !got.IsZero() {
		t.Fatalf("CartTotal(nil) = %s, want 0", got)
	}
}

func TestMinorUnits(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{in: "10.00", want: 1000},
		{in: "2.50", want: 250},
		{in: "0.015", want: 2},
		{in: "0", want: 0},
	}
	for _, tc := range cases {
		if got := MinorUnits(decimal.RequireFromString(tc.in)); got != tc.want {
			t.Fatalf("MinorUnits(%s) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestMajorUnitsString(t *testing.T) {
	if got := MajorUnitsString(decimal.RequireFromString("7.5")); got != "7.50" {
		t.Fatalf("MajorUnitsString = %q, want %q", got, "7.50")
	}
}
