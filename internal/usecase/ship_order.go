package usecase

import (
	"context"
	"fmt"
	"time"

	domain "github.com/harshbajani/GujaratStore-sub003/internal/entity"
	"github.com/harshbajani/GujaratStore-sub003/internal/logging"
)

type ShipOrderOutput struct {
	OrderNumber string
	Status      domain.Status
	Shipment    CreateShipmentOutput
	Message     string
}

// ShipOrder advances processing -> ready_to_ship and triggers shipment
// creation. The transition is visible even when shipment creation fails;
// the failure is reported for the vendor to retry.
type ShipOrder struct {
	orders   OrderRepo
	shipment *CreateShipment
	queue    NotificationQueue
	status   StatusPublisher
	cache    OrderCache
}

func NewShipOrder(orders OrderRepo, shipment *CreateShipment, queue NotificationQueue, status StatusPublisher, cache OrderCache) *ShipOrder {
	return &ShipOrder{orders: orders, shipment: shipment, queue: queue, status: status, cache: cache}
}

func (uc *ShipOrder) Execute(ctx context.Context, orderNumber string, customPickup *PickupLocationRequest) (ShipOrderOutput, error) {
	l := logging.FromCtx(ctx).With("order", orderNumber)

	ok, err := uc.orders.UpdateStatusIf(ctx, orderNumber, []domain.Status{domain.StatusProcessing}, domain.StatusReadyToShip)
	if err != nil {
		return ShipOrderOutput{}, err
	}
	if !ok {
		cur, rerr := uc.orders.GetByNumber(ctx, orderNumber)
		if rerr != nil {
			return ShipOrderOutput{}, rerr
		}
		return ShipOrderOutput{}, fmt.Errorf("%w: order is %s, expected %s",
			domain.ErrInvalidTransition, cur.Status, domain.StatusProcessing)
	}

	if uc.cache != nil {
		_ = uc.cache.SetStatus(ctx, orderNumber, string(domain.StatusReadyToShip))
	}
	if uc.status != nil {
		_ = uc.status.PublishStatusChanged(ctx, StatusChangedMsg{
			OrderNumber: orderNumber,
			From:        string(domain.StatusProcessing),
			To:          string(domain.StatusReadyToShip),
			At:          time.Now().UTC().Format(time.RFC3339),
		})
	}

	out := ShipOrderOutput{
		OrderNumber: orderNumber,
		Status:      domain.StatusReadyToShip,
		Message:     "order marked ready to ship",
	}

	shipOut, err := uc.shipment.Execute(ctx, CreateShipmentInput{OrderNumber: orderNumber, CustomPickup: customPickup})
	if err != nil {
		l.Warn("shipment creation failed after transition", "err", err)
		out.Shipment = CreateShipmentOutput{Success: false, Message: err.Error()}
		out.Message += "; shipment creation failed and should be retried"
		return out, nil
	}
	out.Shipment = shipOut
	if !shipOut.Success {
		l.Warn("carrier rejected shipment", "msg", shipOut.Message)
		out.Message += "; shipment creation failed and should be retried"
	}
	return out, nil
}
