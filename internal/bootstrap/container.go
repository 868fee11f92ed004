package bootstrap

import (
	"context"
	"log"
	"time"

	"lamdam-be/internal/config"
	"lamdam-be/internal/constant"
	"lamdam-be/internal/controller"
	"lamdam-be/internal/handler"
	"lamdam-be/internal/pkg/logger"
	"lamdam-be/internal/pkg/mailer"
	"lamdam-be/internal/pkg/serverutils"
	"lamdam-be/internal/registry"
	"lamdam-be/internal/repository/implementation"
	"lamdam-be/internal/repository/memory"
	"lamdam-be/internal/repository/unitofwork"
	"lamdam-be/internal/service"
	"lamdam-be/internal/websocket"
	"lamdam-be/pkg/events/domain"
	pktNats "lamdam-be/pkg/nats"
	"lamdam-be/pkg/stats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const oauthStateTTL = 10 * time.Minute

type Container struct {
	// Controllers
	CollectionController controller.ICollectionController
	RecordController     controller.IRecordController
	UserController       controller.IUserController
	OAuthController      controller.IOAuthController

	// Services (the operator CLI uses these directly)
	CollectionService service.ICollectionService
	StatsService      service.IStatsService
	UserService       service.IUserService
	InactivityService service.IInactivityService

	// Background Services (Exposed for main.go to run)
	ConsumerService     service.IConsumerService
	NotificationService *service.NotificationService

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub

	// AuthMiddleware authenticates bearer tokens and reloads the session user.
	AuthMiddleware fiber.Handler
	Logger         *logger.ZapLogger

	natsPub *pktNats.Publisher
	natsSub *pktNats.Subscriber
	rdb     *redis.Client
	pubSub  *gochannel.GoChannel
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	stores := registry.NewStoreRegistry(db, implementation.NewCollectionRepository(db))

	loc, err := time.LoadLocation(cfg.Stats.Timezone)
	if err != nil {
		log.Printf("[WARN] Unknown STATS_TIMEZONE %q, falling back to UTC: %v", cfg.Stats.Timezone, err)
		loc = time.UTC
	}
	aggregator := stats.NewAggregator(loc, cfg.Stats.LegacyMidnightShift)

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
		cfg.App.ClientURL,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS
	var natsPub *pktNats.Publisher
	var natsSub *pktNats.Subscriber
	if cfg.App.NatsURL != "" {
		if natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL); err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
			natsPub = nil
		}
		if natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL); err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
			natsSub = nil
		}
	}

	// Redis
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb = redis.NewClient(opt)
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if _, err := rdb.Ping(pingCtx).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v (realtime fan-out stays local)", err)
			_ = rdb.Close()
			rdb = nil
		}
		cancel()
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.RealtimeLogPath)
	wsHub := websocket.NewHub(rdb, wsLogger)

	// 3. Services
	notifService := service.NewNotificationService(natsSub, wsHub, wsLogger) // Hub implements RealtimeDelivery
	// Without a NATS connection events are dispatched in process.
	eventPublisher := domain.NewNatsPublisher(natsPub, notifService, sysLogger)

	publisherService := service.NewPublisherService(constant.ActivityTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		constant.ActivityTopic,
		uowFactory,
		sysLogger,
	)

	statsService := service.NewStatsService(uowFactory, stores, aggregator)
	userService := service.NewUserService(uowFactory, statsService, eventPublisher, sysLogger)
	collectionService := service.NewCollectionService(uowFactory, stores, eventPublisher, sysLogger)
	recordService := service.NewRecordService(
		uowFactory,
		stores,
		publisherService,
		eventPublisher,
		cfg.Features.ApprovalMode,
		sysLogger,
	)
	inactivityService := service.NewInactivityService(
		uowFactory,
		emailService,
		eventPublisher,
		cfg.Features.InactivityWindow,
		sysLogger,
	)
	oauthService := service.NewOAuthService(
		uowFactory,
		memory.NewOAuthStateRepository(oauthStateTTL),
		cfg.Auth,
		sysLogger,
	)

	// Handler
	notifHandler := handler.NewNotificationHandler(wsHub, userService, cfg.Auth.JWTSecret, wsLogger)

	// 4. Controllers
	return &Container{
		CollectionController: controller.NewCollectionController(collectionService),
		RecordController:     controller.NewRecordController(recordService),
		UserController:       controller.NewUserController(userService, statsService),
		OAuthController:      controller.NewOAuthController(oauthService, cfg.App.ClientURL, sysLogger),

		CollectionService: collectionService,
		StatsService:      statsService,
		UserService:       userService,
		InactivityService: inactivityService,

		ConsumerService:     consumerService,
		NotificationService: notifService,

		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,

		AuthMiddleware: serverutils.NewJwtMiddleware(cfg.Auth.JWTSecret, userService),
		Logger:         sysLogger,

		natsPub: natsPub,
		natsSub: natsSub,
		rdb:     rdb,
		pubSub:  pubSub,
	}
}

// Close releases the broker connections. The database pool belongs to the
// caller.
func (c *Container) Close() {
	if c.natsSub != nil {
		c.natsSub.Close()
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
	if c.pubSub != nil {
		_ = c.pubSub.Close()
	}
	_ = c.Logger.Sync()
}
