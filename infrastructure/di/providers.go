package di

import (
	"context"
	"fmt"
	"time"

	"aura-backend/application/commands/bus"
	commandhandlers "aura-backend/application/commands/handlers"
	"aura-backend/application/ports"
	querybus "aura-backend/application/queries/bus"
	queryhandlers "aura-backend/application/queries/handlers"
	"aura-backend/application/services"
	domainconfig "aura-backend/domain/config"
	"aura-backend/infrastructure/config"
	"aura-backend/infrastructure/messaging"
	"aura-backend/infrastructure/messaging/eventbridge"
	"aura-backend/infrastructure/persistence/dynamodb"
	"aura-backend/infrastructure/persistence/guard"
	"aura-backend/infrastructure/persistence/memory"
	"aura-backend/infrastructure/persistence/sqlite"
	"aura-backend/pkg/observability"
	"aura-backend/pkg/ratelimit"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// serviceName names the service in traces and metrics
const serviceName = "aura-backend"

// Storage bundles the repositories of the configured backend, each wrapped
// in the storage guard
type Storage struct {
	Circles      ports.CircleRepository
	Messages     ports.MessageRepository
	StatusChecks ports.StatusCheckRepository
	Readiness    []func(ctx context.Context) error
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	return zapCfg.Build()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client, honoring a local endpoint
func ProvideDynamoDBClient(awsCfg aws.Config, cfg *config.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	})
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideStorageGuard creates the deadline and circuit breaker shared by all
// repositories
func ProvideStorageGuard(cfg *config.Config, logger *zap.Logger) *guard.Guard {
	guardCfg := guard.DefaultConfig(cfg.StorageBackend)
	guardCfg.Timeout = cfg.StorageTimeout
	return guard.New(guardCfg, logger)
}

// ProvideStorage opens the configured backend. The returned cleanup closes it.
func ProvideStorage(
	cfg *config.Config,
	client *awsdynamodb.Client,
	g *guard.Guard,
	logger *zap.Logger,
) (*Storage, func(), error) {
	var (
		circles  ports.CircleRepository
		messages ports.MessageRepository
		checks   ports.StatusCheckRepository
		cleanup  = func() {}
	)
	readiness := []func(ctx context.Context) error{g.Check}

	switch cfg.StorageBackend {
	case config.BackendMemory:
		circles = memory.NewInMemoryCircleRepository()
		messages = memory.NewInMemoryMessageRepository()
		checks = memory.NewInMemoryStatusCheckRepository()

	case config.BackendSQLite:
		db, err := sqlite.NewDB(cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		circles = sqlite.NewCircleRepository(db, logger)
		messages = sqlite.NewMessageRepository(db, logger)
		checks = sqlite.NewStatusCheckRepository(db)
		readiness = append(readiness, func(ctx context.Context) error {
			return sqlite.Ping(ctx, db)
		})
		cleanup = func() { sqlite.CloseDB(db, logger) }

	case config.BackendDynamoDB:
		circles = dynamodb.NewCircleRepository(client, cfg.CirclesTable, cfg.StatusIndexName, logger)
		messages = dynamodb.NewMessageRepository(client, cfg.MessagesTable, logger)
		checks = dynamodb.NewStatusCheckRepository(client, cfg.StatusTable)

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	logger.Info("Storage initialized",
		zap.String("backend", cfg.StorageBackend),
		zap.Duration("timeout", cfg.StorageTimeout),
	)

	return &Storage{
		Circles:      guard.NewCircleRepository(circles, g),
		Messages:     guard.NewMessageRepository(messages, g),
		StatusChecks: guard.NewStatusCheckRepository(checks, g),
		Readiness:    readiness,
	}, cleanup, nil
}

// ProvideCircleRepository exposes the guarded circle repository
func ProvideCircleRepository(s *Storage) ports.CircleRepository {
	return s.Circles
}

// ProvideMessageRepository exposes the guarded message repository
func ProvideMessageRepository(s *Storage) ports.MessageRepository {
	return s.Messages
}

// ProvideStatusCheckRepository exposes the guarded status check repository
func ProvideStatusCheckRepository(s *Storage) ports.StatusCheckRepository {
	return s.StatusChecks
}

// ProvideEventPublisher publishes to EventBridge when events are enabled and
// logs events otherwise
func ProvideEventPublisher(cfg *config.Config, client *awseventbridge.Client, logger *zap.Logger) ports.EventPublisher {
	if cfg.EnableEvents {
		return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
	}
	return messaging.NewLogPublisher(logger)
}

// ProvideMetrics creates the metrics collector. Inside Lambda, where nothing
// scrapes /metrics, join outcomes are also sent to CloudWatch.
func ProvideMetrics(cfg *config.Config, client *awscloudwatch.Client, logger *zap.Logger) *observability.Collector {
	var cw observability.PutMetricDataAPI
	if cfg.IsLambda && cfg.EnableMetrics {
		cw = client
	}
	return observability.NewCollector("aura", cw, logger)
}

// ProvideBusinessMetrics exposes the collector to the services
func ProvideBusinessMetrics(c *observability.Collector) ports.Metrics {
	return c
}

// ProvideTracer returns a tracer when tracing is enabled, nil otherwise
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	if !cfg.EnableTracing {
		return nil
	}
	return observability.NewTracer(serviceName)
}

// ProvideRateLimiter returns a per-minute client limiter, nil when disabled
func ProvideRateLimiter(cfg *config.Config) *ratelimit.SlidingWindowLimiter {
	if cfg.RateLimitPerMinute <= 0 {
		return nil
	}
	return ratelimit.NewSlidingWindowLimiter(cfg.RateLimitPerMinute, time.Minute)
}

// ProvideDomainConfig derives and validates business rules
func ProvideDomainConfig(cfg *config.Config) (*domainconfig.DomainConfig, error) {
	dc := cfg.DomainConfig()
	if err := dc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid domain configuration: %w", err)
	}
	return dc, nil
}

// ProvideCircleAllocator creates the circle allocator
func ProvideCircleAllocator(
	circles ports.CircleRepository,
	publisher ports.EventPublisher,
	metrics ports.Metrics,
	tracer *observability.Tracer,
	dc *domainconfig.DomainConfig,
	logger *zap.Logger,
) *services.CircleAllocator {
	return services.NewCircleAllocator(circles, publisher, metrics, tracer, dc, logger)
}

// ProvideMessageRecorder creates the message recorder
func ProvideMessageRecorder(
	messages ports.MessageRepository,
	circles ports.CircleRepository,
	publisher ports.EventPublisher,
	metrics ports.Metrics,
	dc *domainconfig.DomainConfig,
	logger *zap.Logger,
) *services.MessageRecorder {
	return services.NewMessageRecorder(messages, circles, publisher, metrics, dc, logger)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	allocator *services.CircleAllocator,
	recorder *services.MessageRecorder,
	checks ports.StatusCheckRepository,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(bus.LoggingMiddleware(logger))

	err := commandhandlers.Register(commandBus,
		commandhandlers.NewJoinCircleHandler(allocator, logger),
		commandhandlers.NewRecordMessageHandler(recorder),
		commandhandlers.NewCreateStatusCheckHandler(checks, logger),
	)
	if err != nil {
		return nil, err
	}
	return commandBus, nil
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	circles ports.CircleRepository,
	messages ports.MessageRepository,
	checks ports.StatusCheckRepository,
	dc *domainconfig.DomainConfig,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(querybus.LoggingMiddleware(logger))

	err := queryhandlers.Register(queryBus,
		queryhandlers.NewCircleQueryHandler(circles, logger),
		queryhandlers.NewMessageQueryHandler(messages, checks, dc, logger),
	)
	if err != nil {
		return nil, err
	}
	return queryBus, nil
}
