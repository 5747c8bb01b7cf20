//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"aura-backend/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideStorageGuard,
	ProvideStorage,
	ProvideCircleRepository,
	ProvideMessageRepository,
	ProvideStatusCheckRepository,
	ProvideEventPublisher,
	ProvideMetrics,
	ProvideBusinessMetrics,
	ProvideTracer,
	ProvideRateLimiter,
	ProvideDomainConfig,
	ProvideCircleAllocator,
	ProvideMessageRecorder,
	ProvideCommandBus,
	ProvideQueryBus,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. The cleanup function
// releases the storage backend.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
