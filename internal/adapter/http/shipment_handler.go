package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harshbajani/GujaratStore-sub003/internal/usecase"
)

type ShipmentHandler struct {
	track *usecase.TrackShipment
}

func NewShipmentHandler(track *usecase.TrackShipment) *ShipmentHandler {
	return &ShipmentHandler{track: track}
}

// Track handles GET /v1/shipment/track/:id. The id is a carrier order id by
// default; ?type=shipment switches to shipment-id lookup. ?sendEmail=true
// lets the poll trigger boundary notifications the same way a webhook would.
func (h *ShipmentHandler) Track(c *gin.Context) {
	byShipment := c.Query("type") == "shipment"
	sendEmail, _ := strconv.ParseBool(c.DefaultQuery("sendEmail", "false"))

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	out, err := h.track.Execute(ctx, usecase.TrackShipmentInput{
		ID:           c.Param("id"),
		ByShipmentID: byShipment,
		SendEmail:    sendEmail,
	})
	if err != nil {
		respond(c, statusFor(err), false, err.Error(), nil)
		return
	}

	respond(c, http.StatusOK, true, "ok", gin.H{
		"orderNumber": out.OrderNumber,
		"status":      out.Status,
		"rawStatus":   out.RawStatus,
		"eta":         out.ETA,
		"history":     out.History,
	})
}
