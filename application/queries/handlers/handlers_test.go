package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"aura-backend/application/queries"
	"aura-backend/application/queries/bus"
	"aura-backend/domain/config"
	"aura-backend/domain/core/entities"
	"aura-backend/infrastructure/persistence/memory"
	pkgerrors "aura-backend/pkg/errors"
	"aura-backend/tests/fixtures"
	"aura-backend/tests/mocks"
)

type testEnv struct {
	bus      *bus.QueryBus
	circles  *memory.InMemoryCircleRepository
	messages *memory.InMemoryMessageRepository
	checks   *memory.InMemoryStatusCheckRepository
}

func newTestEnv(t *testing.T, cfg *config.DomainConfig) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	env := &testEnv{
		bus:      bus.NewQueryBus(bus.LoggingMiddleware(logger)),
		circles:  memory.NewInMemoryCircleRepository(),
		messages: memory.NewInMemoryMessageRepository(),
		checks:   memory.NewInMemoryStatusCheckRepository(),
	}
	err := Register(env.bus,
		NewCircleQueryHandler(env.circles, logger),
		NewMessageQueryHandler(env.messages, env.checks, cfg, logger),
	)
	require.NoError(t, err)
	return env
}

func TestGetCircle(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	circle := fixtures.NewCircleBuilder().WithParticipants("alice", "bob").MustBuild()
	_, err := env.circles.InsertOne(ctx, circle)
	require.NoError(t, err)

	result, err := env.bus.Ask(ctx, queries.GetCircleQuery{CircleID: circle.ID().String()})
	require.NoError(t, err)

	view := result.(*queries.CircleView)
	assert.Equal(t, circle.ID().String(), view.CircleID)
	assert.Equal(t, []string{"alice", "bob"}, view.Participants)
	assert.Equal(t, "active", view.Status)
	assert.Equal(t, config.CircleCapacity, view.MaxParticipants)
	assert.Equal(t, 1, view.Day)
}

func TestGetCircle_NotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.bus.Ask(context.Background(), queries.GetCircleQuery{CircleID: "does-not-exist"})

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestGetCircle_EmptyID(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.bus.Ask(context.Background(), queries.GetCircleQuery{CircleID: " "})

	assert.True(t, pkgerrors.IsValidation(err))
}

func TestGetCircle_StorageFailure(t *testing.T) {
	repo := new(mocks.MockCircleRepository)
	repo.On("FindOne", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))
	handler := NewCircleQueryHandler(repo, zap.NewNop())

	_, err := handler.GetCircle(context.Background(), queries.GetCircleQuery{CircleID: "c-1"})

	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))
	repo.AssertExpectations(t)
}

func TestGetCircleMembers(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	circle := fixtures.NewCircleBuilder().WithParticipantCount(4).MustBuild()
	_, err := env.circles.InsertOne(ctx, circle)
	require.NoError(t, err)

	result, err := env.bus.Ask(ctx, queries.GetCircleMembersQuery{CircleID: circle.ID().String()})
	require.NoError(t, err)

	view := result.(*queries.MembersView)
	assert.Equal(t, 4, view.Count)
	assert.Equal(t, circle.Participants(), view.Participants)
}

func TestGetCircleMembers_NotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.bus.Ask(context.Background(), queries.GetCircleMembersQuery{CircleID: "missing"})

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestListMessages_InsertionOrder(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	for _, seg := range []int{2, 0, 1} {
		msg := fixtures.NewMessageBuilder().WithCircleID("c-1").WithSegmentIndex(seg).MustBuild()
		_, err := env.messages.InsertOne(ctx, msg)
		require.NoError(t, err)
	}

	result, err := env.bus.Ask(ctx, queries.ListMessagesQuery{CircleID: "c-1"})
	require.NoError(t, err)

	views := result.([]queries.MessageView)
	require.Len(t, views, 3)
	assert.Equal(t, 2, views[0].SegmentIndex)
	assert.Equal(t, 0, views[1].SegmentIndex)
	assert.Equal(t, 1, views[2].SegmentIndex)
}

func TestListMessages_UnknownCircleIsEmpty(t *testing.T) {
	env := newTestEnv(t, nil)

	result, err := env.bus.Ask(context.Background(), queries.ListMessagesQuery{CircleID: "nobody"})
	require.NoError(t, err)

	views := result.([]queries.MessageView)
	assert.NotNil(t, views)
	assert.Empty(t, views)
}

func TestListMessages_Capped(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.MaxMessagesPerQuery = 2
	env := newTestEnv(t, cfg)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := env.messages.InsertOne(ctx, fixtures.NewMessageBuilder().WithCircleID("c-1").WithSegmentIndex(i).MustBuild())
		require.NoError(t, err)
	}

	result, err := env.bus.Ask(ctx, queries.ListMessagesQuery{CircleID: "c-1"})
	require.NoError(t, err)

	views := result.([]queries.MessageView)
	require.Len(t, views, 2)
	assert.Equal(t, 0, views[0].SegmentIndex)
}

func TestListStatusChecks(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	for _, name := range []string{"web", "ios"} {
		check, err := entities.NewStatusCheck(name)
		require.NoError(t, err)
		_, err = env.checks.InsertOne(ctx, check)
		require.NoError(t, err)
	}

	result, err := env.bus.Ask(ctx, queries.ListStatusChecksQuery{})
	require.NoError(t, err)

	views := result.([]queries.StatusCheckView)
	require.Len(t, views, 2)
	assert.Equal(t, "web", views[0].ClientName)
	assert.Equal(t, "ios", views[1].ClientName)
}

func TestMessageView_JSONShape(t *testing.T) {
	transcript := "hello"
	msg, err := entities.ReconstructMessage(
		"5f0c3c1e-8d7a-4c2b-9a34-2f1e6d8b7a10", "c-1", "alice", 0, "https://a", 10,
		time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), &transcript, map[string]interface{}{"calm": "high"},
	)
	require.NoError(t, err)

	data, err := json.Marshal(queries.NewMessageView(msg))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{"messageId", "circleId", "authorId", "segmentIndex", "audioUrl", "durationMs", "createdAt", "transcript", "emotionalTags"} {
		assert.Contains(t, decoded, key)
	}
	assert.Equal(t, "hello", decoded["transcript"])
}
