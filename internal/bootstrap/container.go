package bootstrap

import (
	"context"
	"encoding/json"
	"log"

	"nexus-chat-be/internal/config"
	"nexus-chat-be/internal/controller"
	"nexus-chat-be/internal/dto"
	"nexus-chat-be/internal/handler"
	"nexus-chat-be/internal/pkg/logger"
	"nexus-chat-be/internal/pkg/mailer"
	"nexus-chat-be/internal/repository/memory"
	"nexus-chat-be/internal/repository/unitofwork"
	"nexus-chat-be/internal/service"
	"nexus-chat-be/internal/websocket"
	"nexus-chat-be/pkg/events"
	"nexus-chat-be/pkg/gemini"
	pktNats "nexus-chat-be/pkg/nats"
	"nexus-chat-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatbotController controller.IChatbotController
	StudioController  controller.IStudioController
	SpeechController  controller.ISpeechController
	AuthController    controller.IAuthController
	UserController    controller.IUserController

	// Background services (exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	StreamHandler *handler.StreamHandler
	WebSocketHub  *websocket.Hub

	// Session store, exposed for tests and diagnostics
	SessionStore *store.Store
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	publisherService := service.NewPublisherService(cfg.Keys.PersistTopic, pubSub)

	// The store notifies under its write lock; publishing must not block or
	// call back into it, hence the goroutine hand-off.
	sessionStore := store.New(func(ev store.Event) {
		payload, err := json.Marshal(dto.PublishSessionEventMessage{
			Kind:      string(ev.Kind),
			SessionId: ev.SessionId,
		})
		if err != nil {
			return
		}
		go func() {
			if err := publisherService.Publish(context.Background(), payload); err != nil {
				log.Printf("[WARN] Failed to publish session event: %v", err)
			}
		}()
	})

	// 3. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket hub
	wsLogger := logger.NewIsolatedLogger("logs/stream.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 4. Services
	gateway := service.NewGeminiGateway(gemini.NewClient(cfg.Keys.GoogleGemini))
	turns := memory.NewTurnRegistry()

	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.PersistTopic,
		uowFactory,
		sessionStore,
	)

	chatService := service.NewChatService(
		sessionStore,
		gateway,
		turns,
		wsHub,
		natsPub,
		sysLogger,
		cfg.Chat.SystemInstruction,
	)
	studioService := service.NewStudioService(sessionStore, gateway, turns, wsHub, natsPub, sysLogger)
	speechService := service.NewSpeechService(sessionStore, gateway, wsHub, sysLogger)

	authService := service.NewAuthService(uowFactory, emailService, natsPub, sysLogger)
	userService := service.NewUserService(uowFactory, sessionStore, sysLogger)

	// Activity trail: mirror domain events into the isolated log.
	if natsSub != nil {
		err := natsSub.Subscribe("events.>", "chat-activity-logger", func(ctx context.Context, evt events.Event) error {
			wsLogger.Info("Activity", evt.EventType(), evt.Payload())
			return nil
		})
		if err != nil {
			log.Printf("[WARN] Failed to subscribe to activity events: %v", err)
		}
	}

	streamHandler := handler.NewStreamHandler(wsHub, wsLogger)

	return &Container{
		ChatbotController: controller.NewChatbotController(chatService),
		StudioController:  controller.NewStudioController(studioService),
		SpeechController:  controller.NewSpeechController(speechService),
		AuthController:    controller.NewAuthController(authService),
		UserController:    controller.NewUserController(userService),

		ConsumerService: consumerService,

		StreamHandler: streamHandler,
		WebSocketHub:  wsHub,

		SessionStore: sessionStore,
	}
}
