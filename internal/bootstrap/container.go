package bootstrap

import (
	"context"
	"log"

	"ai-lawyer-be/internal/config"
	"ai-lawyer-be/internal/controller"
	"ai-lawyer-be/internal/handler"
	"ai-lawyer-be/internal/pkg/logger"
	"ai-lawyer-be/internal/repository/memory"
	"ai-lawyer-be/internal/repository/unitofwork"
	"ai-lawyer-be/internal/service"
	"ai-lawyer-be/internal/websocket"
	"ai-lawyer-be/pkg/embedding"
	"ai-lawyer-be/pkg/llm/factory"
	"ai-lawyer-be/pkg/retrieval/juportal"

	pktNats "ai-lawyer-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController       controller.IChatController
	CollectionController controller.ICollectionController
	DocumentController   controller.IDocumentController
	AgentController      controller.IAgentController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets & Run Events
	EventHandler *handler.EventHandler
	WebSocketHub *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.Provider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmAPIKey := cfg.Keys.OpenAI
	if cfg.Ai.LLMProvider == "mistral" {
		llmAPIKey = cfg.Keys.Mistral
	}
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.LLMBaseURL,
		llmAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// In-memory session state
	sessionRepo := memory.NewSessionRepository()

	// External case-law source
	juportalClient := juportal.NewClient(cfg.Retrieval.JuportalBaseURL, log.Default())

	// 3.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		natsSub = nil
	}

	// Redis
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

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/events.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 4. Services
	publisherService := service.NewPublisherService(cfg.Keys.IndexTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.IndexTopic,
		uowFactory,
		embeddingProvider,
	)

	collectionService := service.NewCollectionService(uowFactory)
	documentService := service.NewDocumentService(uowFactory, publisherService)
	agentService := service.NewAgentService(uowFactory)

	chatService := service.NewChatService(
		uowFactory,
		embeddingProvider,
		llmProvider,
		sessionRepo,
		juportalClient,
		natsPub,
		cfg,
	)

	// 4.5 Run event feed: bus -> websocket
	if natsSub != nil {
		eventFeedService := service.NewEventFeedService(natsSub, wsHub)
		if err := eventFeedService.Start(); err != nil {
			log.Printf("[WARN] Failed to start event feed: %v", err)
		}
	}

	eventHandler := handler.NewEventHandler(wsHub, wsLogger)

	sysLogger.Info("Bootstrap", "Container initialized", map[string]interface{}{
		"llm_provider":       cfg.Ai.LLMProvider,
		"embedding_provider": cfg.Ai.EmbeddingProvider,
	})

	// 5. Controllers
	return &Container{
		ChatController:       controller.NewChatController(chatService),
		CollectionController: controller.NewCollectionController(collectionService),
		DocumentController:   controller.NewDocumentController(documentService),
		AgentController:      controller.NewAgentController(agentService),

		ConsumerService: consumerService,

		EventHandler: eventHandler,
		WebSocketHub: wsHub,
	}
}
