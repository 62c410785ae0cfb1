package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harshbajani/GujaratStore-sub003/internal/adapter/http/middleware"
	"github.com/harshbajani/GujaratStore-sub003/internal/logging"
)

func NewRouter(oh *OrderHandler, sh *ShipmentHandler, wh *WebhookHandler, th *TokenHandler, authz *middleware.Authz) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())

	l := logging.New("http")
	r.Use(middleware.Logging(l))

	r.GET("/healthz", func(c *gin.Context) {
		logging.From(c).Info("health check")
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/v1/token", th.IssueToken)

	// Provider callbacks authenticate with their own secrets, not JWTs.
	r.POST("/webhook/razorpay", wh.Razorpay)
	r.POST("/webhook/shiprocket", wh.Shiprocket)

	v1 := r.Group("/v1")
	{
		v1.PATCH("/order/cancel/:id", authz.Require("orders.cancel"), oh.CancelOrder)
		v1.POST("/order/ship/:id", authz.Require("orders.ship"), oh.ShipOrder)
		v1.POST("/order/payment/verify", authz.Require("orders.pay"), oh.VerifyPayment)
		v1.GET("/order/status/:id", authz.Require("orders.read"), oh.OrderStatus)
		v1.GET("/shipment/track/:id", authz.Require("shipments.read"), sh.Track)
	}

	return r
}
