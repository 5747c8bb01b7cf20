package eventbridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"aura-backend/domain/core/valueobjects"
	"aura-backend/domain/events"
)

type fakePutEvents struct {
	calls  []*eventbridge.PutEventsInput
	output *eventbridge.PutEventsOutput
	err    error
}

func (f *fakePutEvents) PutEvents(_ context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.calls = append(f.calls, in)
	if f.err != nil {
		return nil, f.err
	}
	if f.output != nil {
		return f.output, nil
	}
	return &eventbridge.PutEventsOutput{}, nil
}

func joinedEvents(n int) []events.DomainEvent {
	circleID := valueobjects.NewCircleID()
	out := make([]events.DomainEvent, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, events.NewParticipantJoined(circleID, "user", i+1, time.Now()))
	}
	return out
}

func TestPublisher_PublishBatch_ChunksByTen(t *testing.T) {
	client := &fakePutEvents{}
	publisher := NewPublisher(client, "aura-bus", zap.NewNop())

	err := publisher.PublishBatch(context.Background(), joinedEvents(23))

	require.NoError(t, err)
	require.Len(t, client.calls, 3)
	assert.Len(t, client.calls[0].Entries, 10)
	assert.Len(t, client.calls[2].Entries, 3)

	entry := client.calls[0].Entries[0]
	assert.Equal(t, "aura-bus", aws.ToString(entry.EventBusName))
	assert.Equal(t, events.SourceBackend, aws.ToString(entry.Source))
	assert.Equal(t, events.TypeParticipantJoined, aws.ToString(entry.DetailType))
	assert.Contains(t, aws.ToString(entry.Detail), `"user_id":"user"`)
}

func TestPublisher_PublishBatch_Empty(t *testing.T) {
	client := &fakePutEvents{}
	publisher := NewPublisher(client, "aura-bus", zap.NewNop())

	assert.NoError(t, publisher.PublishBatch(context.Background(), nil))
	assert.Empty(t, client.calls)
}

func TestPublisher_Publish_Errors(t *testing.T) {
	client := &fakePutEvents{err: errors.New("access denied")}
	publisher := NewPublisher(client, "aura-bus", zap.NewNop())

	err := publisher.Publish(context.Background(), joinedEvents(1)[0])
	assert.ErrorContains(t, err, "access denied")

	client.err = nil
	client.output = &eventbridge.PutEventsOutput{
		FailedEntryCount: 1,
		Entries:          []types.PutEventsResultEntry{{ErrorCode: aws.String("InternalFailure")}},
	}
	err = publisher.Publish(context.Background(), joinedEvents(1)[0])
	assert.EqualError(t, err, "1 events failed to publish")
}
