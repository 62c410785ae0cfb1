package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domain "github.com/harshbajani/GujaratStore-sub003/internal/entity"
)

func shipmentFixture(carrier *fakeCarrier, vendors *fakeVendorRepo, orders ...*domain.Order) (*CreateShipment, *fakeOrderRepo) {
	repo := newFakeOrderRepo(orders...)
	users := &fakeUserRepo{users: map[string]*domain.User{
		"user-1": {ID: "user-1", Email: "asha@example.com", Addresses: []domain.Address{
			{ID: "addr-1", Name: "Asha", Phone: "9800000000", Line1: "12 Ring Rd", City: "Surat", State: "Gujarat", PinCode: "395003", Country: "India"},
		}},
	}}
	return NewCreateShipment(repo, users, vendors, carrier, "Primary"), repo
}

func okShipment() CarrierShipmentResult {
	return CarrierShipmentResult{
		Success: true, CarrierOrderID: "sr-100", ShipmentID: "shp-100",
		AWBCode: "AWB900", Courier: "Delhivery", RawStatus: "NEW",
	}
}

func TestCreateShipment_UsesVendorCachedPickup(t *testing.T) {
	carrier := &fakeCarrier{shipmentRes: okShipment()}
	vendors := &fakeVendorRepo{vendors: map[string]*domain.Vendor{
		"v1": {ID: "v1", Name: "Gamthi Crafts", PickupLocation: "GamthiCrafts-x1", PickupLocationAdded: true},
	}}
	uc, repo := shipmentFixture(carrier, vendors, paidOrder("ORD-4001"))

	out, err := uc.Execute(context.Background(), CreateShipmentInput{OrderNumber: "ORD-4001"})
	if err != nil || !out.Success {
		t.Fatalf("create shipment: %v %+v", err, out)
	}
	if len(carrier.pickupCalls) != 0 {
		t.Fatal("re-registered an already cached pickup location")
	}
	if got := carrier.shipmentCalls[0].PickupLocation; got != "GamthiCrafts-x1" {
		t.Fatalf("pickup = %q", got)
	}
	if repo.get("ORD-4001").Shipping == nil {
		t.Fatal("shipping block not persisted")
	}
}

func TestCreateShipment_RegistersAndCachesVendorPickup(t *testing.T) {
	carrier := &fakeCarrier{shipmentRes: okShipment()}
	vendors := &fakeVendorRepo{vendors: map[string]*domain.Vendor{
		"v1": {ID: "v1", Name: "Gamthi Crafts", Email: "v@example.com", City: "Surat"},
	}}
	uc, _ := shipmentFixture(carrier, vendors, paidOrder("ORD-4002"))

	out, err := uc.Execute(context.Background(), CreateShipmentInput{OrderNumber: "ORD-4002"})
	if err != nil || !out.Success {
		t.Fatalf("create shipment: %v %+v", err, out)
	}
	if len(carrier.pickupCalls) != 1 {
		t.Fatalf("pickup registrations = %d, want 1", len(carrier.pickupCalls))
	}
	cached, ok := vendors.cached["v1"]
	if !ok {
		t.Fatal("vendor pickup not write-through cached")
	}
	if got := carrier.shipmentCalls[0].PickupLocation; got != cached {
		t.Fatalf("shipment pickup %q != cached %q", got, cached)
	}
}

func TestCreateShipment_FallsBackToDefaultPickup(t *testing.T) {
	// Custom registration fails and the vendor is unknown: the shipment must
	// still be created with the default location.
	carrier := &fakeCarrier{shipmentRes: okShipment(), pickupErr: errors.New("carrier 500")}
	vendors := &fakeVendorRepo{vendors: map[string]*domain.Vendor{}}
	uc, _ := shipmentFixture(carrier, vendors, paidOrder("ORD-4003"))

	out, err := uc.Execute(context.Background(), CreateShipmentInput{
		OrderNumber:  "ORD-4003",
		CustomPickup: &PickupLocationRequest{Name: "Festival Warehouse"},
	})
	if err != nil || !out.Success {
		t.Fatalf("create shipment: %v %+v", err, out)
	}
	if got := carrier.shipmentCalls[0].PickupLocation; got != "Primary" {
		t.Fatalf("pickup = %q, want default", got)
	}
}

func TestCreateShipment_CustomPickupOverride(t *testing.T) {
	carrier := &fakeCarrier{shipmentRes: okShipment()}
	vendors := &fakeVendorRepo{vendors: map[string]*domain.Vendor{
		"v1": {ID: "v1", PickupLocation: "cached-loc", PickupLocationAdded: true},
	}}
	uc, _ := shipmentFixture(carrier, vendors, paidOrder("ORD-4004"))

	out, err := uc.Execute(context.Background(), CreateShipmentInput{
		OrderNumber:  "ORD-4004",
		CustomPickup: &PickupLocationRequest{Name: "Festival Warehouse", City: "Rajkot"},
	})
	if err != nil || !out.Success {
		t.Fatalf("create shipment: %v %+v", err, out)
	}
	got := carrier.shipmentCalls[0].PickupLocation
	if got == "cached-loc" || got == "Primary" {
		t.Fatalf("pickup = %q, want freshly registered override", got)
	}
	if !strings.HasPrefix(got, "Festival-Warehouse") {
		t.Fatalf("pickup name %q not derived from override", got)
	}
}

func TestCreateShipment_CarrierRejectionLeavesOrderUntouched(t *testing.T) {
	carrier := &fakeCarrier{shipmentRes: CarrierShipmentResult{Success: false, Message: "invalid pincode"}}
	vendors := &fakeVendorRepo{vendors: map[string]*domain.Vendor{
		"v1": {ID: "v1", PickupLocation: "loc", PickupLocationAdded: true},
	}}
	uc, repo := shipmentFixture(carrier, vendors, paidOrder("ORD-4005"))

	out, err := uc.Execute(context.Background(), CreateShipmentInput{OrderNumber: "ORD-4005"})
	if err != nil {
		t.Fatalf("rejection must be a structured failure, not an error: %v", err)
	}
	if out.Success {
		t.Fatal("expected failure")
	}
	if out.Message != "invalid pincode" {
		t.Fatalf("message = %q", out.Message)
	}
	if repo.get("ORD-4005").Shipping != nil {
		t.Fatal("order mutated on carrier rejection")
	}
}

func TestCreateShipment_MissingEntities(t *testing.T) {
	carrier := &fakeCarrier{shipmentRes: okShipment()}
	vendors := &fakeVendorRepo{vendors: map[string]*domain.Vendor{}}

	t.Run("order", func(t *testing.T) {
		uc, _ := shipmentFixture(carrier, vendors)
		_, err := uc.Execute(context.Background(), CreateShipmentInput{OrderNumber: "ORD-9999"})
		if !errors.Is(err, ErrOrderNotFound) {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("user", func(t *testing.T) {
		o := paidOrder("ORD-4006")
		o.UserID = "ghost"
		uc, _ := shipmentFixture(carrier, vendors, o)
		_, err := uc.Execute(context.Background(), CreateShipmentInput{OrderNumber: "ORD-4006"})
		if !errors.Is(err, ErrUserNotFound) {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("address", func(t *testing.T) {
		o := paidOrder("ORD-4007")
		o.AddressID = "missing-addr"
		uc, _ := shipmentFixture(carrier, vendors, o)
		_, err := uc.Execute(context.Background(), CreateShipmentInput{OrderNumber: "ORD-4007"})
		if !errors.Is(err, ErrAddressNotFound) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestGeneratePickupName(t *testing.T) {
	at := time.Unix(1756700000, 0)

	got := GeneratePickupName("Gamthi Crafts & Co.", at)
	if len(got) > 36 {
		t.Fatalf("name %q exceeds 36 chars", got)
	}
	if !strings.HasPrefix(got, "Gamthi-Crafts") {
		t.Fatalf("name %q not sanitized as expected", got)
	}

	long := strings.Repeat("VeryLongVendorName", 5)
	got = GeneratePickupName(long, at)
	if len(got) > 36 {
		t.Fatalf("long name %q exceeds 36 chars", got)
	}
	// Deterministic: same input, same instant, same name.
	if again := GeneratePickupName(long, at); again != got {
		t.Fatalf("truncation not deterministic: %q vs %q", got, again)
	}

	if got := GeneratePickupName("!!!", at); !strings.HasPrefix(got, "pickup-") {
		t.Fatalf("empty sanitized base = %q, want pickup-*", got)
	}
}
