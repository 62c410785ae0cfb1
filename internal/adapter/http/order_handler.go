package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harshbajani/GujaratStore-sub003/internal/adapter/http/middleware"
	domain "github.com/harshbajani/GujaratStore-sub003/internal/entity"
	"github.com/harshbajani/GujaratStore-sub003/internal/logging"
	"github.com/harshbajani/GujaratStore-sub003/internal/usecase"
)

type OrderHandler struct {
	cancel *usecase.CancelOrder
	ship   *usecase.ShipOrder
	verify *usecase.VerifyPayment
	orders usecase.OrderRepo
	cache  usecase.OrderCache
}

func NewOrderHandler(cancel *usecase.CancelOrder, ship *usecase.ShipOrder, verify *usecase.VerifyPayment, orders usecase.OrderRepo, cache usecase.OrderCache) *OrderHandler {
	return &OrderHandler{cancel: cancel, ship: ship, verify: verify, orders: orders, cache: cache}
}

// Every endpoint answers with the same envelope so clients never branch on
// response shape.
func respond(c *gin.Context, status int, success bool, message string, data any) {
	body := gin.H{"success": success, "message": message}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrOrderNotFound),
		errors.Is(err, usecase.ErrUserNotFound),
		errors.Is(err, usecase.ErrAddressNotFound),
		errors.Is(err, usecase.ErrVendorNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, usecase.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrBadSignature):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type cancelOrderReq struct {
	Reason string `json:"reason"`
}

// CancelOrder handles PATCH /v1/order/cancel/:id.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	var req cancelOrderReq
	_ = c.ShouldBindJSON(&req) // reason is optional

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	out, err := h.cancel.Execute(ctx, usecase.CancelOrderInput{
		OrderNumber: c.Param("id"),
		ActorUserID: middleware.Subject(c),
		Reason:      req.Reason,
	})
	if err != nil {
		respond(c, statusFor(err), false, err.Error(), nil)
		return
	}

	respond(c, http.StatusOK, true, out.Message, gin.H{
		"orderNumber": out.OrderNumber,
		"status":      out.Status,
		"refund":      out.RefundInfo,
	})
}

type shipOrderReq struct {
	CustomPickup *struct {
		Name    string `json:"name" binding:"required"`
		Contact string `json:"contact"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Address string `json:"address" binding:"required"`
		City    string `json:"city" binding:"required"`
		State   string `json:"state" binding:"required"`
		PinCode string `json:"pinCode" binding:"required"`
		Country string `json:"country"`
	} `json:"customPickup"`
}

// ShipOrder handles POST /v1/order/ship/:id. A committed transition with a
// failed shipment still answers 200; the message tells the vendor to retry.
func (h *OrderHandler) ShipOrder(c *gin.Context) {
	var req shipOrderReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond(c, http.StatusBadRequest, false, "invalid request body", nil)
			return
		}
	}

	var pickup *usecase.PickupLocationRequest
	if req.CustomPickup != nil {
		p := req.CustomPickup
		pickup = &usecase.PickupLocationRequest{
			Name:    p.Name,
			Contact: p.Contact,
			Email:   p.Email,
			Phone:   p.Phone,
			Address: p.Address,
			City:    p.City,
			State:   p.State,
			PinCode: p.PinCode,
			Country: p.Country,
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	out, err := h.ship.Execute(ctx, c.Param("id"), pickup)
	if err != nil {
		respond(c, statusFor(err), false, err.Error(), nil)
		return
	}

	respond(c, http.StatusOK, true, out.Message, gin.H{
		"orderNumber": out.OrderNumber,
		"status":      out.Status,
		"shipment":    out.Shipment,
	})
}

type verifyPaymentReq struct {
	OrderNumber       string `json:"orderNumber" binding:"required"`
	RazorpayOrderID   string `json:"razorpayOrderId" binding:"required"`
	RazorpayPaymentID string `json:"razorpayPaymentId" binding:"required"`
	RazorpaySignature string `json:"razorpaySignature" binding:"required"`
}

// VerifyPayment handles POST /v1/order/payment/verify, the browser checkout
// callback.
func (h *OrderHandler) VerifyPayment(c *gin.Context) {
	var req verifyPaymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, false, "invalid request body", nil)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	out, err := h.verify.Execute(ctx, usecase.VerifyPaymentInput{
		OrderNumber:      req.OrderNumber,
		ActorUserID:      middleware.Subject(c),
		GatewayOrderID:   req.RazorpayOrderID,
		GatewayPaymentID: req.RazorpayPaymentID,
		Signature:        req.RazorpaySignature,
	})
	if err != nil {
		respond(c, statusFor(err), false, err.Error(), nil)
		return
	}

	respond(c, http.StatusOK, true, out.Message, gin.H{
		"orderNumber": out.OrderNumber,
		"status":      out.Status,
	})
}

// OrderStatus handles GET /v1/order/status/:id. The cache answers the hot
// path; a miss falls through to the database and repopulates it.
func (h *OrderHandler) OrderStatus(c *gin.Context) {
	n := c.Param("id")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if s, err := h.cache.GetStatus(ctx, n); err == nil && s != "" {
		respond(c, http.StatusOK, true, "ok", gin.H{"orderNumber": n, "status": s})
		return
	}

	order, err := h.orders.GetByNumber(ctx, n)
	if err != nil {
		respond(c, statusFor(err), false, err.Error(), nil)
		return
	}
	if err := h.cache.SetStatus(ctx, n, string(order.Status)); err != nil {
		logging.From(c).Warn("status cache refill", "order", n, "err", err)
	}
	respond(c, http.StatusOK, true, "ok", gin.H{"orderNumber": n, "status": order.Status})
}
