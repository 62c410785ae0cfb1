package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/harshbajani/GujaratStore-sub003/configs"
	"github.com/harshbajani/GujaratStore-sub003/internal/adapter/cache"
	httpadapter "github.com/harshbajani/GujaratStore-sub003/internal/adapter/http"
	"github.com/harshbajani/GujaratStore-sub003/internal/adapter/http/middleware"
	"github.com/harshbajani/GujaratStore-sub003/internal/adapter/kafka"
	"github.com/harshbajani/GujaratStore-sub003/internal/adapter/queue"
	"github.com/harshbajani/GujaratStore-sub003/internal/adapter/razorpay"
	"github.com/harshbajani/GujaratStore-sub003/internal/adapter/repo"
	"github.com/harshbajani/GujaratStore-sub003/internal/adapter/shiprocket"
	"github.com/harshbajani/GujaratStore-sub003/internal/logging"
	"github.com/harshbajani/GujaratStore-sub003/internal/notify"
	"github.com/harshbajani/GujaratStore-sub003/internal/usecase"
)

type App struct {
	Router *gin.Engine
}

func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	logger := logging.Init(cfg.App.Name, cfg.App.LogFile)

	// init database
	dsn, err := repo.WithFoundRows(cfg.MySQL.DSN)
	if err != nil {
		return nil, nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, nil, err
	}
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, nil, err
	}

	logger.Info("order-service: starting up")

	// init redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, nil, err
	}

	// init rabbitmq
	conn, err := amqp091.Dial(cfg.Rabbit.URL)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, err
	}
	producer, err := queue.NewRabbitProducer(ch)
	if err != nil {
		return nil, nil, err
	}

	// repos + caches
	orderRepo := repo.NewMySQLOrderRepo(db)
	userRepo := repo.NewMySQLUserRepo(db)
	vendorRepo := repo.NewMySQLVendorRepo(db)
	outboxRepo := repo.NewMySQLOutboxRepo(db)
	idem := cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL)
	statusCache := cache.NewRedisCache(rdb, cfg.Cache.TTL)

	// durable notification path: broker first, outbox on failure
	appCtx, stop := context.WithCancel(context.Background())
	notifQueue := queue.NewDurableQueue(producer, outboxRepo)
	queue.NewOutboxDrainer(producer, outboxRepo).Start(appCtx)

	// kafka status feed
	statusProducer, err := setupStatusFeed(cfg)
	if err != nil {
		stop()
		return nil, nil, err
	}

	// external providers
	gateway := razorpay.NewClient(razorpay.Config{
		BaseURL:       cfg.Razorpay.BaseURL,
		KeyID:         cfg.Razorpay.KeyID,
		KeySecret:     cfg.Razorpay.KeySecret,
		WebhookSecret: cfg.Razorpay.WebhookSecret,
		Timeout:       cfg.Razorpay.Timeout,
	})
	carrier := shiprocket.NewClient(shiprocket.Config{
		BaseURL:    cfg.Shiprocket.BaseURL,
		Email:      cfg.Shiprocket.Email,
		Password:   cfg.Shiprocket.Password,
		WebhookKey: cfg.Shiprocket.WebhookKey,
		ChannelID:  cfg.Shiprocket.ChannelID,
		Timeout:    cfg.Shiprocket.Timeout,
	})

	// use cases
	refund := usecase.NewRefundEngine(orderRepo, gateway, idem)
	cancelUC := usecase.NewCancelOrder(orderRepo, userRepo, refund, notifQueue, statusProducer, statusCache)
	shipmentUC := usecase.NewCreateShipment(orderRepo, userRepo, vendorRepo, carrier, cfg.Shiprocket.DefaultPickup)
	shipUC := usecase.NewShipOrder(orderRepo, shipmentUC, notifQueue, statusProducer, statusCache)
	verifyUC := usecase.NewVerifyPayment(orderRepo, userRepo, gateway, notifQueue, statusProducer, statusCache)
	reconUC := usecase.NewReconcileCarrier(orderRepo, userRepo, notifQueue, statusProducer, statusCache, idem)
	trackUC := usecase.NewTrackShipment(orderRepo, userRepo, carrier, notifQueue, reconUC)

	// gateway webhooks reconcile payment state captured outside the
	// browser callback
	dispatcher := razorpay.NewDispatcher(gateway, razorpay.WebhookHandlers{
		PaymentCaptured: func(ctx context.Context, p razorpay.PaymentEntity) error {
			return verifyUC.MarkPaidFromGateway(ctx, p.OrderID, p.ID)
		},
		PaymentFailed: func(ctx context.Context, p razorpay.PaymentEntity) error {
			return verifyUC.MarkFailedFromGateway(ctx, p.OrderID)
		},
		OrderPaid: func(ctx context.Context, gatewayOrderID string) error {
			return verifyUC.MarkPaidFromGateway(ctx, gatewayOrderID, "")
		},
	})

	// notification consumer + re-engagement sweep
	mailer := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	if err := setupQueueConsumer(ch, mailer); err != nil {
		stop()
		return nil, nil, err
	}

	reengageIdem := cache.NewRedisIdempotencyStore(rdb, cfg.Reengage.InactiveAfter)
	notify.NewReengager(userRepo, notifQueue, reengageIdem, cfg.Reengage.Interval, cfg.Reengage.InactiveAfter).Start(appCtx)

	// handlers + router + middleware
	oh := httpadapter.NewOrderHandler(cancelUC, shipUC, verifyUC, orderRepo, statusCache)
	sh := httpadapter.NewShipmentHandler(trackUC)
	wh := httpadapter.NewWebhookHandler(dispatcher, carrier, reconUC)
	th := httpadapter.NewTokenHandler(cfg)
	auth := middleware.NewAuthz(cfg)
	router := httpadapter.NewRouter(oh, sh, wh, th, auth)

	cleanup := func() {
		stop()
		_ = statusProducer.Close()
		_ = ch.Close()
		_ = conn.Close()
		_ = rdb.Close()
		_ = db.Close()
	}

	return &App{Router: router}, cleanup, nil
}

func setupStatusFeed(cfg configs.Config) (*kafka.StatusProducer, error) {
	p, err := kafka.NewSyncProducer(cfg.Kafka.Brokers)
	if err != nil {
		return nil, err
	}
	return kafka.NewStatusProducer(p, cfg.Kafka.TopicStatus), nil
}

func setupQueueConsumer(ch *amqp091.Channel, mailer notify.Mailer) error {
	consumer := notify.NewConsumer(mailer)

	router := queue.NewRouter(ch, queue.WithPrefetch(50))
	router.Register(queue.QueueName, queue.JSONHandler[usecase.NotificationEvent]{HandleFunc: consumer.Handle})

	return router.Start()
}
