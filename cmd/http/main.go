package main

import (
	"context"
	"expvar"
	"log"
	"runtime"

	"github.com/xenitV1/owl-chat/internal/domain"
	"github.com/xenitV1/owl-chat/internal/infrastructure/configs"
	"github.com/xenitV1/owl-chat/internal/infrastructure/events"
	"github.com/xenitV1/owl-chat/internal/infrastructure/logging"
	"github.com/xenitV1/owl-chat/internal/infrastructure/messaging"
	"github.com/xenitV1/owl-chat/internal/infrastructure/profanity"
	"github.com/xenitV1/owl-chat/internal/infrastructure/ratelimiter"
	"github.com/xenitV1/owl-chat/internal/infrastructure/repository"
	"github.com/xenitV1/owl-chat/internal/infrastructure/tracing"
	"github.com/xenitV1/owl-chat/internal/infrastructure/ws"
	"github.com/xenitV1/owl-chat/internal/persistence/db"
	persistencerepo "github.com/xenitV1/owl-chat/internal/persistence/repository"
	"github.com/xenitV1/owl-chat/internal/presentation/api"
	"github.com/xenitV1/owl-chat/internal/presentation/handler/chat"
	"github.com/xenitV1/owl-chat/internal/presentation/handler/health"
	"github.com/xenitV1/owl-chat/internal/presentation/handler/messages"
	"github.com/xenitV1/owl-chat/internal/presentation/handler/rooms"
	"github.com/xenitV1/owl-chat/internal/service"
)

func main() {
	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.NewLogger(logging.Config{
		Logger:   cfg.Logging.Logger,
		Level:    cfg.Logging.Level,
		Encoding: cfg.Logging.Encoding,
		FilePath: cfg.Logging.FilePath,
	})
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Tracing.Enabled {
		sh, err := tracing.InitTracer(tracing.Config{
			ServiceName:  cfg.Tracing.ServiceName,
			Environment:  cfg.Tracing.Environment,
			OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		})
		if err != nil {
			logger.Fatalw("failed to initialize the tracer", "error", err)
		}
		defer sh(ctx)
	}

	roomRepository := repository.NewRoomRepository(cfg.RoomStore.Capacity, cfg.RoomStore.IdleRoomExpiry)
	messageRepository := repository.NewMessageRepository(cfg.MessageStore.Capacity)

	messageService := service.NewMessageService(roomRepository, messageRepository, profanity.NewFilter())

	var auditRepository domain.ChatAuditRepository
	if cfg.Mongo.Enabled {
		mongoCfg := &db.MongoConfig{
			URI:               cfg.Mongo.URI,
			Database:          cfg.Mongo.Database,
			ConnectionTimeout: cfg.Mongo.ConnectionTimeout,
		}
		mongoClient, err := db.NewMongoClient(ctx, mongoCfg)
		if err != nil {
			logger.Fatalw("failed to connect to mongodb", "error", err)
		}
		defer db.DisconnectMongo(ctx, mongoClient)

		auditRepository = persistencerepo.NewChatAuditLogRepository(db.GetDatabase(mongoClient, mongoCfg))
		if err := auditRepository.EnsureIndexes(ctx); err != nil {
			logger.Warnw("failed to ensure audit log indexes", "error", err)
		}
		logger.Infow("audit log enabled", "database", cfg.Mongo.Database)
	}

	registry := ws.NewRegistry()
	presence := ws.NewPresenceTracker()

	var publisher ws.Publisher = ws.NewLocalPublisher(registry)

	if cfg.AMQP.Enabled {
		rabbitmq, err := messaging.NewRabbitMQ(cfg.AMQP.URI)
		if err != nil {
			logger.Fatalw("failed to connect to rabbitmq", "error", err)
		}
		defer rabbitmq.Close()

		bus := events.NewBusPublisher(ws.NewLocalPublisher(registry), rabbitmq, logger)
		go func() {
			if err := bus.Listen(); err != nil {
				logger.Errorw("bus listener stopped", "error", err)
			}
		}()
		publisher = bus

		logger.Infow("broadcast bus enabled")
	}

	core := ws.NewCore(registry, presence, publisher, messageService, auditRepository, logger, ws.Options{
		TypingTimeout:  cfg.Chat.TypingTimeout,
		HistoryReplay:  cfg.Chat.HistoryReplay,
		SendBuffer:     cfg.Chat.SendBufferSize,
		MaxJoinedRooms: cfg.Chat.MaxJoinedRooms,
	})
	go core.Run(ctx)

	chatHandler := chat.NewHandler(core, logger, cfg.Chat.SendBufferSize)
	roomHandler := rooms.NewHandler(roomRepository, messageRepository, logger)
	healthHandler := health.NewHandler()
	messagesHandler := messages.NewHandler(messageService, core, logger)

	rl := ratelimiter.NewFixedWindowRateLimiter(cfg.RateLimiter.RequestsPerTimeFrame, cfg.RateLimiter.TimeFrame)
	defer rl.Close()

	app := api.NewApplication(*cfg, chatHandler, roomHandler, healthHandler, messagesHandler, logger, rl)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	if err := app.Run(app.Mount()); err != nil {
		logger.Fatalw("server exited", "error", err)
	}
}
