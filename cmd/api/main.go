package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wms-platform/posting-service/internal/api/handlers"
	"github.com/wms-platform/posting-service/internal/application"
	"github.com/wms-platform/posting-service/internal/domain"
	mongoRepo "github.com/wms-platform/posting-service/internal/infrastructure/mongodb"
	"github.com/wms-platform/posting-service/pkg/cloudevents"
	"github.com/wms-platform/posting-service/pkg/kafka"
	"github.com/wms-platform/posting-service/pkg/logging"
	"github.com/wms-platform/posting-service/pkg/metrics"
	"github.com/wms-platform/posting-service/pkg/middleware"
	pkgmongo "github.com/wms-platform/posting-service/pkg/mongodb"
	"github.com/wms-platform/posting-service/pkg/outbox"
	outboxMongo "github.com/wms-platform/posting-service/pkg/outbox/mongodb"
	"github.com/wms-platform/posting-service/pkg/resilience"
	"github.com/wms-platform/posting-service/pkg/tracing"
)

const serviceName = "posting-service"

type mongoClient interface {
	mongoRepo.Transactor
	Database() *mongo.Database
	Close(context.Context) error
	HealthCheck(context.Context) error
}

type kafkaProducer interface {
	outbox.EventProducer
	Close() error
}

type outboxPublisher interface {
	Start(context.Context) error
	Stop() error
}

var newMongoClient = func(ctx context.Context, cfg *pkgmongo.Config, logger *logging.Logger) (mongoClient, error) {
	var client *pkgmongo.Client
	err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() error {
		c, err := pkgmongo.NewClient(ctx, cfg)
		if err != nil {
			logger.WithError(err).Warn("MongoDB not reachable, retrying")
			return err
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

var newKafkaProducer = func(cfg *kafka.Config, m *metrics.Metrics, logger *logging.Logger) kafkaProducer {
	return kafka.NewProductionProducer(cfg, m, logger)
}

var newOutboxPublisher = func(repo outbox.Repository, producer outbox.EventProducer, logger *logging.Logger, m *metrics.Metrics, cfg *outbox.PublisherConfig) outboxPublisher {
	return outbox.NewPublisher(repo, producer, logger, m, cfg)
}

var newOutboxRepository = func(ctx context.Context, db *mongo.Database) (outbox.Repository, error) {
	repo := outboxMongo.NewOutboxRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

var newRepositories = func(db *mongo.Database, inst *pkgmongo.Instrumentation) application.Repositories {
	categories := mongoRepo.NewCategoryRepository(db, inst)
	return application.Repositories{
		Documents:  mongoRepo.NewDocumentRepository(db, inst),
		Products:   mongoRepo.NewProductRepository(db, inst),
		Categories: categories,
		Contacts:   mongoRepo.NewContactCategoryRepository(db, categories, inst),
		Inventory:  mongoRepo.NewInventoryRepository(db, inst),
		Journals:   mongoRepo.NewJournalRepository(db, inst),
	}
}

var newPostingService = application.NewPostingService

var newPostingHandler = handlers.NewPostingHandler

var newMetrics = metrics.New

var initTracing = tracing.Initialize

var startHTTPServer = func(srv *http.Server) error {
	return srv.ListenAndServe()
}

func main() {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	if err := run(context.Background(), signalCh); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, signalCh <-chan os.Signal) error {
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.ParseLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting posting-service API")

	config, err := loadConfig()
	if err != nil {
		logger.WithError(err).Error("Invalid configuration")
		return err
	}

	// Initialize OpenTelemetry tracing
	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = getEnv("TRACING_ENABLED", "true") == "true"

	tracerProvider, err := initTracing(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint)
	}

	m := newMetrics(metrics.DefaultConfig(serviceName))

	client, err := newMongoClient(ctx, config.MongoDB, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		return err
	}
	defer client.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	db := client.Database()
	outboxRepo, err := newOutboxRepository(ctx, db)
	if err != nil {
		logger.WithError(err).Error("Failed to prepare outbox")
		return err
	}

	producer := newKafkaProducer(config.Kafka, m, logger)
	defer producer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	relay := newOutboxPublisher(outboxRepo, producer, logger, m, config.Outbox)
	if err := relay.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start outbox publisher")
		return err
	}
	defer func() {
		if err := relay.Stop(); err != nil {
			logger.WithError(err).Warn("Failed to stop outbox publisher")
		}
	}()
	logger.Info("Outbox publisher started", "topic", config.EventsTopic)

	inst := pkgmongo.NewInstrumentation(config.MongoDB.Database, m, logger)
	postingService := newPostingService(
		newRepositories(db, inst),
		mongoRepo.NewOutboxEventPublisher(outboxRepo, cloudevents.NewEventFactory(cloudevents.SourcePosting), config.EventsTopic),
		mongoRepo.NewTransactionRunner(client),
		domain.NewPostingEngine(config.CostingMethod),
		logger,
		m,
	)
	logger.Info("Posting engine ready", "costingMethod", config.CostingMethod.String())

	postingHandler := newPostingHandler(postingService, logger)

	router := gin.New()
	middlewareConfig := middleware.DefaultConfig(serviceName, logger)
	middlewareConfig.Metrics = m
	middlewareConfig.EnableTracing = tracingConfig.Enabled
	middleware.Setup(router, middlewareConfig)

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, client.HealthCheck))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	postingHandler.RegisterRoutes(router.Group("/api/v1"))

	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := startHTTPServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	<-signalCh
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
	return nil
}

// Config holds application configuration
type Config struct {
	ServerAddr    string
	EventsTopic   string
	CostingMethod domain.CostingMethod
	MongoDB       *pkgmongo.Config
	Kafka         *kafka.Config
	Outbox        *outbox.PublisherConfig
}

func loadConfig() (*Config, error) {
	costingMethod, err := domain.ParseCostingMethod(getEnv("POSTING_COSTING_METHOD", string(domain.DefaultCostingMethod)))
	if err != nil {
		return nil, err
	}

	pollInterval, err := time.ParseDuration(getEnv("OUTBOX_POLL_INTERVAL", "1s"))
	if err != nil {
		return nil, err
	}
	batchSize, err := strconv.Atoi(getEnv("OUTBOX_BATCH_SIZE", "100"))
	if err != nil {
		return nil, err
	}

	mongoConfig := pkgmongo.DefaultConfig()
	mongoConfig.URI = getEnv("MONGODB_URI", mongoConfig.URI)
	mongoConfig.Database = getEnv("MONGODB_DATABASE", mongoConfig.Database)

	kafkaConfig := kafka.DefaultConfig()
	kafkaConfig.Brokers = kafka.ParseBrokers(getEnv("KAFKA_BROKERS", "localhost:9092"))
	kafkaConfig.ClientID = serviceName

	return &Config{
		ServerAddr:    getEnv("SERVER_ADDR", ":8030"),
		EventsTopic:   getEnv("POSTING_EVENTS_TOPIC", kafka.Topics.PostingEvents),
		CostingMethod: costingMethod,
		MongoDB:       mongoConfig,
		Kafka:         kafkaConfig,
		Outbox: &outbox.PublisherConfig{
			PollInterval: pollInterval,
			BatchSize:    batchSize,
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
