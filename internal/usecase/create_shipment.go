package usecase

import (
	"context"
	"strconv"
	"strings"
	"time"

	domain "github.com/harshbajani/GujaratStore-sub003/internal/entity"
	"github.com/harshbajani/GujaratStore-sub003/internal/logging"
)

// maxPickupNameLen is the carrier's limit on pickup-location names.
const maxPickupNameLen = 36

type CreateShipmentInput struct {
	OrderNumber string
	// CustomPickup, when set, is an admin-specified pickup override that is
	// registered fresh with the carrier.
	CustomPickup *PickupLocationRequest
	// SkipVendor skips vendor resolution; only the custom/default chain runs.
	SkipVendor bool
}

type CreateShipmentOutput struct {
	Success  bool
	Message  string
	Shipping *domain.ShippingInfo
}

// CreateShipment translates an order, its owner and vendor into a carrier
// shipment, resolving which registered pickup location to declare.
type CreateShipment struct {
	orders        OrderRepo
	users         UserRepo
	vendors       VendorRepo
	carrier       Carrier
	defaultPickup string
}

func NewCreateShipment(orders OrderRepo, users UserRepo, vendors VendorRepo, carrier Carrier, defaultPickup string) *CreateShipment {
	return &CreateShipment{orders: orders, users: users, vendors: vendors, carrier: carrier, defaultPickup: defaultPickup}
}

func (uc *CreateShipment) Execute(ctx context.Context, in CreateShipmentInput) (CreateShipmentOutput, error) {
	l := logging.FromCtx(ctx).With("order", in.OrderNumber)

	order, err := uc.orders.GetByNumber(ctx, in.OrderNumber)
	if err != nil {
		return CreateShipmentOutput{}, err
	}
	user, err := uc.users.GetByID(ctx, order.UserID)
	if err != nil {
		return CreateShipmentOutput{}, ErrUserNotFound
	}
	addr := user.AddressByID(order.AddressID)
	if addr == nil {
		return CreateShipmentOutput{}, ErrAddressNotFound
	}

	pickup := uc.resolvePickupLocation(ctx, order, in)

	res, err := uc.carrier.CreateShipment(ctx, CarrierShipmentRequest{
		OrderNumber:    order.OrderNumber,
		OrderDate:      order.CreatedAt,
		PickupLocation: pickup,
		BillingName:    addr.Name,
		BillingPhone:   addr.Phone,
		BillingEmail:   user.Email,
		Address:        *addr,
		Items:          order.Items,
		SubTotalCents:  order.AmountCents,
	})
	if err != nil {
		return CreateShipmentOutput{Success: false, Message: err.Error()}, nil
	}
	if !res.Success {
		// Carrier rejection: structured failure, order untouched. Retry is
		// the caller's decision.
		return CreateShipmentOutput{Success: false, Message: res.Message}, nil
	}

	info := &domain.ShippingInfo{
		CarrierOrderID: res.CarrierOrderID,
		ShipmentID:     res.ShipmentID,
		AWBCode:        res.AWBCode,
		Courier:        res.Courier,
		RawStatus:      res.RawStatus,
		LastUpdate:     time.Now().UTC(),
	}
	if err := uc.orders.SetShippingInfo(ctx, in.OrderNumber, info); err != nil {
		l.Error("persist shipping info", "err", err, "carrier_order", res.CarrierOrderID)
		return CreateShipmentOutput{Success: false, Message: "shipment created but could not be recorded"}, err
	}

	l.Info("shipment created", "carrier_order", res.CarrierOrderID, "shipment", res.ShipmentID, "pickup", pickup)
	return CreateShipmentOutput{Success: true, Message: "shipment created", Shipping: info}, nil
}

// resolvePickupLocation walks the priority chain: custom override, vendor
// cache, fresh vendor registration, system default. Registration failures
// fall through; a shipment with the default location beats no shipment.
func (uc *CreateShipment) resolvePickupLocation(ctx context.Context, order *domain.Order, in CreateShipmentInput) string {
	l := logging.FromCtx(ctx).With("order", in.OrderNumber)

	if in.CustomPickup != nil {
		req := *in.CustomPickup
		req.Name = GeneratePickupName(req.Name, time.Now())
		if err := uc.carrier.CreatePickupLocation(ctx, req); err != nil {
			l.Warn("custom pickup registration failed", "err", err)
		} else {
			return req.Name
		}
	}

	if !in.SkipVendor {
		if name, ok := uc.vendorPickup(ctx, order); ok {
			return name
		}
	}

	return uc.defaultPickup
}

func (uc *CreateShipment) vendorPickup(ctx context.Context, order *domain.Order) (string, bool) {
	l := logging.FromCtx(ctx).With("order", order.OrderNumber)

	vendorID := order.PrimaryVendorID()
	if vendorID == "" {
		return "", false
	}
	vendor, err := uc.vendors.GetByID(ctx, vendorID)
	if err != nil {
		l.Warn("vendor lookup failed", "vendor", vendorID, "err", err)
		return "", false
	}
	if vendor.PickupLocationAdded && vendor.PickupLocation != "" {
		return vendor.PickupLocation, true
	}

	name := GeneratePickupName(vendor.Name, time.Now())
	err = uc.carrier.CreatePickupLocation(ctx, PickupLocationRequest{
		Name:    name,
		Contact: vendor.Name,
		Email:   vendor.Email,
		Phone:   vendor.Phone,
		Address: vendor.AddressLine,
		City:    vendor.City,
		State:   vendor.State,
		PinCode: vendor.PinCode,
		Country: vendor.Country,
	})
	if err != nil {
		l.Warn("vendor pickup registration failed", "vendor", vendorID, "err", err)
		return "", false
	}
	// Write-through cache so the next shipment reuses the location.
	if err := uc.vendors.SetPickupLocation(ctx, vendorID, name); err != nil {
		l.Warn("vendor pickup cache write failed", "vendor", vendorID, "err", err)
	}
	return name, true
}

// GeneratePickupName builds a collision-resistant carrier location name from
// a sanitized base plus a time-based suffix, deterministically truncated to
// the carrier's length limit.
func GeneratePickupName(base string, at time.Time) string {
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	s := b.String()
	if s == "" {
		s = "pickup"
	}
	suffix := "-" + strconv.FormatInt(at.UTC().Unix(), 36)
	if len(s)+len(suffix) > maxPickupNameLen {
		s = s[:maxPickupNameLen-len(suffix)]
	}
	return s + suffix
}
