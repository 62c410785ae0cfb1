package domain

import (
	"testing"
	"time"
)

func TestForward(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusProcessing, StatusReadyToShip, true},
		{StatusShipped, StatusDelivered, true},
		{StatusDelivered, StatusShipped, false},
		{StatusProcessing, StatusProcessing, false},
		{StatusCancelled, StatusDelivered, false},
		{StatusShipped, StatusReturned, false},
	}
	for _, tc := range cases {
		if got := Forward(tc.from, tc.to); got != tc.want {
			t.Errorf("Forward(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCancelBlockReason(t *testing.T) {
	for _, s := range []Status{StatusUnconfirmed, StatusProcessing} {
		o := &Order{Status: s}
		if _, blocked := o.CancelBlockReason(); blocked {
			t.Errorf("status %s must be cancellable", s)
		}
	}
	seen := map[string]Status{}
	for _, s := range []Status{StatusReadyToShip, StatusShipped, StatusOutForDelivery, StatusDelivered, StatusCancelled, StatusReturned} {
		o := &Order{Status: s}
		msg, blocked := o.CancelBlockReason()
		if !blocked || msg == "" {
			t.Errorf("status %s must block cancellation with a message", s)
		}
		if prev, dup := seen[msg]; dup {
			t.Errorf("statuses %s and %s share message %q", prev, s, msg)
		}
		seen[msg] = s
	}
}

func TestHasTrackingEvent(t *testing.T) {
	at := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	o := &Order{Shipping: &ShippingInfo{History: []TrackingEvent{
		{Status: "DELIVERED", Date: at},
	}}}

	if !o.HasTrackingEvent(TrackingEvent{Status: "DELIVERED", Date: at}) {
		t.Fatal("identical event not detected")
	}
	if o.HasTrackingEvent(TrackingEvent{Status: "DELIVERED", Date: at.Add(time.Minute)}) {
		t.Fatal("different timestamp treated as duplicate")
	}
	if (&Order{}).HasTrackingEvent(TrackingEvent{Status: "DELIVERED", Date: at}) {
		t.Fatal("order without shipping reported a duplicate")
	}
}
