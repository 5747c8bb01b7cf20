package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"aura-backend/application/commands"
	"aura-backend/application/commands/bus"
	"aura-backend/application/services"
	"aura-backend/domain/config"
	"aura-backend/domain/core/entities"
	"aura-backend/infrastructure/persistence/memory"
	pkgerrors "aura-backend/pkg/errors"
	"aura-backend/tests/mocks"
)

type testEnv struct {
	bus      *bus.CommandBus
	circles  *memory.InMemoryCircleRepository
	messages *memory.InMemoryMessageRepository
	checks   *memory.InMemoryStatusCheckRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	cfg := config.DefaultDomainConfig()
	cfg.JoinRetryBackoff = 0

	env := &testEnv{
		bus:      bus.NewCommandBus(bus.LoggingMiddleware(logger)),
		circles:  memory.NewInMemoryCircleRepository(),
		messages: memory.NewInMemoryMessageRepository(),
		checks:   memory.NewInMemoryStatusCheckRepository(),
	}

	allocator := services.NewCircleAllocator(env.circles, nil, nil, nil, cfg, logger)
	recorder := services.NewMessageRecorder(env.messages, env.circles, nil, nil, cfg, logger)
	err := Register(env.bus,
		NewJoinCircleHandler(allocator, logger),
		NewRecordMessageHandler(recorder),
		NewCreateStatusCheckHandler(env.checks, logger),
	)
	require.NoError(t, err)
	return env
}

func TestRegister_RejectsDuplicateRegistration(t *testing.T) {
	env := newTestEnv(t)
	logger := zap.NewNop()

	err := Register(env.bus,
		NewJoinCircleHandler(nil, logger),
		NewRecordMessageHandler(nil),
		NewCreateStatusCheckHandler(env.checks, logger),
	)

	assert.Error(t, err)
}

func TestJoinCircle_ThroughBus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.bus.Send(ctx, commands.JoinCircleCommand{UserID: "alice"})
	require.NoError(t, err)

	circle, ok := result.(*entities.Circle)
	require.True(t, ok)
	assert.Equal(t, []string{"alice"}, circle.Participants())

	again, err := env.bus.Send(ctx, commands.JoinCircleCommand{UserID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, circle.ID(), again.(*entities.Circle).ID())
	assert.Equal(t, 1, env.circles.Count())
}

func TestJoinCircle_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		userID string
	}{
		{"empty", ""},
		{"whitespace", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.bus.Send(context.Background(), commands.JoinCircleCommand{UserID: tt.userID})

			assert.True(t, pkgerrors.IsValidation(err))
			assert.Equal(t, 0, env.circles.Count())
		})
	}
}

func TestRecordMessage_ThroughBus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.bus.Send(ctx, commands.RecordMessageCommand{
		CircleID:     "c-1",
		AuthorID:     "alice",
		SegmentIndex: 3,
		AudioURL:     "https://cdn.example.com/a.m4a",
		DurationMs:   1500,
	})
	require.NoError(t, err)

	msg := result.(*entities.Message)
	assert.Equal(t, 3, msg.SegmentIndex())

	stored, err := env.messages.FindByCircle(ctx, "c-1", 10)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestRecordMessage_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		cmd   commands.RecordMessageCommand
		field string
	}{
		{"missing circle", commands.RecordMessageCommand{AuthorID: "a"}, "circleId"},
		{"missing author", commands.RecordMessageCommand{CircleID: "c"}, "authorId"},
		{"negative duration", commands.RecordMessageCommand{CircleID: "c", AuthorID: "a", DurationMs: -1}, "durationMs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.bus.Send(context.Background(), tt.cmd)

			require.True(t, pkgerrors.IsValidation(err))
			assert.Contains(t, pkgerrors.GetAppError(err).Details, tt.field)
		})
	}
}

func TestCreateStatusCheck_ThroughBus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.bus.Send(ctx, commands.CreateStatusCheckCommand{ClientName: "ios-app"})
	require.NoError(t, err)

	check := result.(*entities.StatusCheck)
	assert.Equal(t, "ios-app", check.ClientName)
	assert.NotEmpty(t, check.ID)

	listed, err := env.checks.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestCreateStatusCheck_EmptyName(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.bus.Send(context.Background(), commands.CreateStatusCheckCommand{})

	assert.True(t, pkgerrors.IsValidation(err))
}

func TestCreateStatusCheck_StorageFailure(t *testing.T) {
	repo := new(mocks.MockStatusCheckRepository)
	repo.On("InsertOne", mock.Anything, mock.Anything).Return("", errors.New("disk full"))
	handler := NewCreateStatusCheckHandler(repo, zap.NewNop())

	_, err := handler.Handle(context.Background(), commands.CreateStatusCheckCommand{ClientName: "web"})

	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))
	repo.AssertExpectations(t)
}
