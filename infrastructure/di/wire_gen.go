// Injectors mirror the provider set in wire.go. Keep the two in step when
// providers change, or regenerate this file with wire.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package di

import (
	"context"

	"aura-backend/infrastructure/config"
)

// Injectors from wire.go:

// InitializeContainer creates a fully wired container. The cleanup function
// releases the storage backend.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	awsConfig, err := ProvideAWSConfig(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	client := ProvideDynamoDBClient(awsConfig, cfg)
	guardGuard := ProvideStorageGuard(cfg, logger)
	storage, cleanup, err := ProvideStorage(cfg, client, guardGuard, logger)
	if err != nil {
		return nil, nil, err
	}
	eventbridgeClient := ProvideEventBridgeClient(awsConfig)
	eventPublisher := ProvideEventPublisher(cfg, eventbridgeClient, logger)
	cloudwatchClient := ProvideCloudWatchClient(awsConfig)
	collector := ProvideMetrics(cfg, cloudwatchClient, logger)
	tracer := ProvideTracer(cfg)
	slidingWindowLimiter := ProvideRateLimiter(cfg)
	circleRepository := ProvideCircleRepository(storage)
	metrics := ProvideBusinessMetrics(collector)
	domainConfig, err := ProvideDomainConfig(cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	circleAllocator := ProvideCircleAllocator(circleRepository, eventPublisher, metrics, tracer, domainConfig, logger)
	messageRepository := ProvideMessageRepository(storage)
	messageRecorder := ProvideMessageRecorder(messageRepository, circleRepository, eventPublisher, metrics, domainConfig, logger)
	statusCheckRepository := ProvideStatusCheckRepository(storage)
	commandBus, err := ProvideCommandBus(circleAllocator, messageRecorder, statusCheckRepository, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	queryBus, err := ProvideQueryBus(circleRepository, messageRepository, statusCheckRepository, domainConfig, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	container := &Container{
		Config:      cfg,
		Logger:      logger,
		Storage:     storage,
		Publisher:   eventPublisher,
		Metrics:     collector,
		Tracer:      tracer,
		RateLimiter: slidingWindowLimiter,
		Allocator:   circleAllocator,
		Recorder:    messageRecorder,
		CommandBus:  commandBus,
		QueryBus:    queryBus,
	}
	return container, func() {
		cleanup()
	}, nil
}
