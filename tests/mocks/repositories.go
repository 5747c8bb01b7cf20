package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"aura-backend/application/ports"
	"aura-backend/domain/core/entities"
	"aura-backend/domain/events"
)

// MockCircleRepository is a mock implementation of ports.CircleRepository
type MockCircleRepository struct {
	mock.Mock
}

func (m *MockCircleRepository) FindOne(ctx context.Context, filter ports.CircleFilter) (*entities.Circle, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Circle), args.Error(1)
}

func (m *MockCircleRepository) ConditionalUpdate(ctx context.Context, filter ports.CircleFilter, update ports.CircleUpdate) (bool, error) {
	args := m.Called(ctx, filter, update)
	return args.Bool(0), args.Error(1)
}

func (m *MockCircleRepository) InsertOne(ctx context.Context, circle *entities.Circle) (string, error) {
	args := m.Called(ctx, circle)
	return args.String(0), args.Error(1)
}

// MockMessageRepository is a mock implementation of ports.MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) InsertOne(ctx context.Context, message *entities.Message) (string, error) {
	args := m.Called(ctx, message)
	return args.String(0), args.Error(1)
}

func (m *MockMessageRepository) FindByCircle(ctx context.Context, circleID string, limit int) ([]*entities.Message, error) {
	args := m.Called(ctx, circleID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Message), args.Error(1)
}

// MockStatusCheckRepository is a mock implementation of ports.StatusCheckRepository
type MockStatusCheckRepository struct {
	mock.Mock
}

func (m *MockStatusCheckRepository) InsertOne(ctx context.Context, check *entities.StatusCheck) (string, error) {
	args := m.Called(ctx, check)
	return args.String(0), args.Error(1)
}

func (m *MockStatusCheckRepository) List(ctx context.Context, limit int) ([]*entities.StatusCheck, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.StatusCheck), args.Error(1)
}

// MockEventPublisher is a mock implementation of ports.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

// MockMetrics is a mock implementation of ports.Metrics
type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordJoin(outcome string, attempts int) {
	m.Called(outcome, attempts)
}

func (m *MockMetrics) RecordJoinConflict() {
	m.Called()
}

func (m *MockMetrics) RecordMessage() {
	m.Called()
}
