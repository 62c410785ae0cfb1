package usecase

import (
	"context"
	"sort"
	"time"

	domain "github.com/harshbajani/GujaratStore-sub003/internal/entity"
	"github.com/harshbajani/GujaratStore-sub003/internal/logging"
)

type TrackShipmentInput struct {
	// ID is a carrier order id, or a shipment id when ByShipmentID is set.
	ID           string
	ByShipmentID bool
	// SendEmail enables the boundary notification side effect.
	SendEmail bool
}

type TrackShipmentOutput struct {
	OrderNumber string
	Status      domain.Status
	RawStatus   string
	ETA         string
	// History is most-recent-first for display.
	History []domain.TrackingEvent
}

// TrackShipment fetches live tracking from the carrier, folds it into the
// order's shipping history and optionally notifies on boundary crossings.
type TrackShipment struct {
	orders  OrderRepo
	users   UserRepo
	carrier Carrier
	queue   NotificationQueue
	recon   *ReconcileCarrier
}

func NewTrackShipment(orders OrderRepo, users UserRepo, carrier Carrier, queue NotificationQueue, recon *ReconcileCarrier) *TrackShipment {
	return &TrackShipment{orders: orders, users: users, carrier: carrier, queue: queue, recon: recon}
}

func (uc *TrackShipment) Execute(ctx context.Context, in TrackShipmentInput) (TrackShipmentOutput, error) {
	l := logging.FromCtx(ctx).With("id", in.ID)

	carrierOrderID := in.ID
	if in.ByShipmentID {
		// The carrier's tracking endpoint is keyed by order id; recover it.
		id, err := uc.carrier.OrderIDForShipment(ctx, in.ID)
		if err != nil {
			return TrackShipmentOutput{}, err
		}
		carrierOrderID = id
	}

	order, err := uc.orders.GetByCarrierOrderID(ctx, carrierOrderID)
	if err != nil {
		return TrackShipmentOutput{}, err
	}
	if order.Shipping == nil {
		return TrackShipmentOutput{}, ErrOrderNotFound
	}

	tracking, err := uc.carrier.Track(ctx, carrierOrderID)
	if err != nil {
		return TrackShipmentOutput{}, err
	}

	// Previous top-level carrier status, same vocabulary as the one this
	// poll reports. Activity-level labels use a different wording and must
	// not feed this comparison.
	lastRecorded := order.Shipping.RawStatus

	// Store chronologically; the carrier reports most-recent-first.
	acts := make([]CarrierActivity, len(tracking.Activities))
	copy(acts, tracking.Activities)
	sort.Slice(acts, func(i, j int) bool { return acts[i].Date.Before(acts[j].Date) })
	for _, a := range acts {
		ev := domain.TrackingEvent{Status: a.Status, Activity: a.Activity, Location: a.Location, Date: a.Date}
		if !order.HasTrackingEvent(ev) {
			order.Shipping.History = append(order.Shipping.History, ev)
		}
	}
	order.Shipping.RawStatus = tracking.RawStatus
	order.Shipping.ETA = tracking.ETA
	order.Shipping.LastUpdate = time.Now().UTC()
	if err := uc.orders.UpdateShipping(ctx, order.OrderNumber, order.Shipping); err != nil {
		return TrackShipmentOutput{}, err
	}

	mapped, known := MapCarrierStatus(tracking.RawStatus)
	if known {
		if moved := uc.recon.applyStatus(ctx, order, mapped); moved {
			// Repeated polling of an unchanged status stays quiet.
			if in.SendEmail && tracking.RawStatus != lastRecorded {
				uc.recon.notifyBoundary(ctx, order, mapped)
			}
		}
	} else if tracking.RawStatus != "" {
		l.Info("unmapped carrier status from tracking", "raw_status", tracking.RawStatus)
	}

	display := make([]domain.TrackingEvent, len(order.Shipping.History))
	copy(display, order.Shipping.History)
	sort.Slice(display, func(i, j int) bool { return display[i].Date.After(display[j].Date) })

	return TrackShipmentOutput{
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		RawStatus:   tracking.RawStatus,
		ETA:         tracking.ETA,
		History:     display,
	}, nil
}
