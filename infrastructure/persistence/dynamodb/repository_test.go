package dynamodb

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"aura-backend/application/ports"
	"aura-backend/domain/core/entities"
	pkgerrors "aura-backend/pkg/errors"
	"aura-backend/tests/fixtures"
)

// fakeAPI records requests and replays canned responses
type fakeAPI struct {
	getItem    func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	putItem    func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error)
	updateItem func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error)
	deleteItem func(*dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error)
	query      func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error)
	scan       func(*dynamodb.ScanInput) (*dynamodb.ScanOutput, error)
}

func (f *fakeAPI) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return f.getItem(in)
}

func (f *fakeAPI) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return f.putItem(in)
}

func (f *fakeAPI) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return f.updateItem(in)
}

func (f *fakeAPI) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	return f.deleteItem(in)
}

func (f *fakeAPI) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return f.query(in)
}

func (f *fakeAPI) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return f.scan(in)
}

func partitionOf(item map[string]types.AttributeValue) string {
	if pk, ok := item[attrPK].(*types.AttributeValueMemberS); ok {
		return pk.Value
	}
	return ""
}

func marshalCircle(t *testing.T, c *entities.Circle) map[string]types.AttributeValue {
	t.Helper()
	item, err := attributevalue.MarshalMap(toCircleItem(c))
	require.NoError(t, err)
	return item
}

func TestBuildCondition(t *testing.T) {
	_, ok := buildCondition(ports.CircleFilter{})
	assert.False(t, ok)

	cond, ok := buildCondition(ports.CircleFilter{
		CircleID:          "c1",
		Status:            entities.CircleStatusActive,
		ParticipantsBelow: 7,
		NotParticipant:    "u1",
	})
	require.True(t, ok)

	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	require.NoError(t, err)

	condition := aws.ToString(expr.Condition())
	assert.Contains(t, condition, "size (")
	assert.Contains(t, condition, "NOT (contains (")
	assert.Equal(t, 3, strings.Count(condition, "AND"))

	names := make([]string, 0, len(expr.Names()))
	for _, n := range expr.Names() {
		names = append(names, n)
	}
	assert.ElementsMatch(t, []string{"CircleID", "Status", "Participants"}, names)
}

func TestBuildCondition_ExcludeIDs(t *testing.T) {
	cond, ok := buildCondition(ports.CircleFilter{ExcludeIDs: []string{"c1", "c2"}})
	require.True(t, ok)

	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	require.NoError(t, err)

	condition := aws.ToString(expr.Condition())
	assert.Contains(t, condition, "NOT (")
	assert.Contains(t, condition, " IN (")

	var values []string
	for _, v := range expr.Values() {
		values = append(values, v.(*types.AttributeValueMemberS).Value)
	}
	assert.ElementsMatch(t, []string{"c1", "c2"}, values)
}

func TestCircleItem_RoundTrip(t *testing.T) {
	createdAt := time.Date(2025, 6, 1, 8, 0, 0, 42, time.UTC)
	circle := fixtures.NewCircleBuilder().WithParticipants("a", "b").WithCreatedAt(createdAt).MustBuild()

	item := toCircleItem(circle)
	assert.Equal(t, "CIRCLE#"+circle.ID().String(), item.PK)
	assert.Equal(t, "CIRCLE_STATUS#active", item.GSI1PK)
	assert.True(t, strings.HasSuffix(item.GSI1SK, "#"+circle.ID().String()))

	got, err := item.toEntity()
	require.NoError(t, err)
	assert.Equal(t, circle.ID(), got.ID())
	assert.Equal(t, []string{"a", "b"}, got.Participants())
	assert.True(t, createdAt.Equal(got.CreatedAt()))
}

func TestCircleRepository_FindOne_ByID(t *testing.T) {
	circle := fixtures.NewCircleBuilder().WithParticipants("a").MustBuild()
	api := &fakeAPI{
		getItem: func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			assert.True(t, aws.ToBool(in.ConsistentRead))
			return &dynamodb.GetItemOutput{Item: marshalCircle(t, circle)}, nil
		},
	}
	repo := NewCircleRepository(api, "circles", "GSI1", zap.NewNop())

	got, err := repo.FindOne(context.Background(), ports.CircleFilter{CircleID: circle.ID().String()})
	require.NoError(t, err)
	assert.Equal(t, circle.ID(), got.ID())

	_, err = repo.FindOne(context.Background(), ports.CircleFilter{CircleID: circle.ID().String(), Participant: "z"})
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestCircleRepository_FindOne_MissingItem(t *testing.T) {
	api := &fakeAPI{
		getItem: func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{}, nil
		},
	}
	repo := NewCircleRepository(api, "circles", "GSI1", zap.NewNop())

	_, err := repo.FindOne(context.Background(), ports.CircleFilter{CircleID: uuid.NewString()})
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestCircleRepository_FindOne_ByStatusUsesIndexInCreationOrder(t *testing.T) {
	first := fixtures.NewCircleBuilder().WithParticipants("a").MustBuild()
	calls := 0
	api := &fakeAPI{
		query: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			calls++
			assert.Equal(t, "GSI1", aws.ToString(in.IndexName))
			assert.True(t, aws.ToBool(in.ScanIndexForward))
			assert.NotNil(t, in.FilterExpression)
			if calls == 1 {
				// Every item on the first page was filtered out
				return &dynamodb.QueryOutput{
					LastEvaluatedKey: map[string]types.AttributeValue{"PK": &types.AttributeValueMemberS{Value: "x"}},
				}, nil
			}
			return &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{marshalCircle(t, first)}}, nil
		},
	}
	repo := NewCircleRepository(api, "circles", "GSI1", zap.NewNop())

	got, err := repo.FindOne(context.Background(), ports.CircleFilter{Status: entities.CircleStatusActive, ParticipantsBelow: 7})
	require.NoError(t, err)
	assert.Equal(t, first.ID(), got.ID())
	assert.Equal(t, 2, calls)
}

func TestCircleRepository_ConditionalUpdate(t *testing.T) {
	var lastInput *dynamodb.UpdateItemInput
	var released []string
	claims := map[string]string{}
	reject := false
	api := &fakeAPI{
		putItem: func(in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
			pk := partitionOf(in.Item)
			require.True(t, strings.HasPrefix(pk, "USER#"))
			assert.Equal(t, "attribute_not_exists(PK)", aws.ToString(in.ConditionExpression))
			if _, taken := claims[pk]; taken {
				return nil, &types.ConditionalCheckFailedException{}
			}
			claims[pk] = in.Item["CircleID"].(*types.AttributeValueMemberS).Value
			return &dynamodb.PutItemOutput{}, nil
		},
		getItem: func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			assert.True(t, aws.ToBool(in.ConsistentRead))
			pk := partitionOf(in.Key)
			circleID, ok := claims[pk]
			if !ok {
				return &dynamodb.GetItemOutput{}, nil
			}
			item, err := attributevalue.MarshalMap(membershipItem{PK: pk, SK: "MEMBERSHIP", CircleID: circleID})
			require.NoError(t, err)
			return &dynamodb.GetItemOutput{Item: item}, nil
		},
		deleteItem: func(in *dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error) {
			pk := partitionOf(in.Key)
			released = append(released, pk)
			delete(claims, pk)
			return &dynamodb.DeleteItemOutput{}, nil
		},
		updateItem: func(in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
			lastInput = in
			if reject {
				return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
			}
			return &dynamodb.UpdateItemOutput{}, nil
		},
	}
	repo := NewCircleRepository(api, "circles", "GSI1", zap.NewNop())
	filter := ports.CircleFilter{CircleID: "c1", Status: entities.CircleStatusActive, ParticipantsBelow: 7, NotParticipant: "u1"}

	applied, err := repo.ConditionalUpdate(context.Background(), filter, ports.CircleUpdate{AppendParticipant: "u1"})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Contains(t, aws.ToString(lastInput.UpdateExpression), "list_append")
	assert.Contains(t, aws.ToString(lastInput.ConditionExpression), "attribute_exists")
	assert.Equal(t, "c1", claims["USER#u1"])

	// A user claimed by c1 cannot be appended to c2
	lastInput = nil
	other := filter
	other.CircleID = "c2"
	applied, err = repo.ConditionalUpdate(context.Background(), other, ports.CircleUpdate{AppendParticipant: "u1"})
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Nil(t, lastInput)

	// A rejected append releases the claim it wrote, never someone else's
	reject = true
	applied, err = repo.ConditionalUpdate(context.Background(), filter, ports.CircleUpdate{AppendParticipant: "u2"})
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, []string{"USER#u2"}, released)

	applied, err = repo.ConditionalUpdate(context.Background(), filter, ports.CircleUpdate{AppendParticipant: "u1"})
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, []string{"USER#u2"}, released)
	assert.Equal(t, "c1", claims["USER#u1"])

	_, err = repo.ConditionalUpdate(context.Background(), ports.CircleFilter{}, ports.CircleUpdate{AppendParticipant: "u1"})
	assert.Error(t, err)
}

func TestCircleRepository_InsertOne(t *testing.T) {
	circle := fixtures.NewCircleBuilder().WithParticipants("founder").MustBuild()
	exists := false
	claimed := false
	var released []string
	api := &fakeAPI{
		putItem: func(in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
			assert.Equal(t, "attribute_not_exists(PK)", aws.ToString(in.ConditionExpression))
			switch pk := partitionOf(in.Item); {
			case pk == "USER#founder":
				if claimed {
					return nil, &types.ConditionalCheckFailedException{}
				}
				return &dynamodb.PutItemOutput{}, nil
			case strings.HasPrefix(pk, "CIRCLE#") && exists:
				return nil, &types.ConditionalCheckFailedException{}
			}
			return &dynamodb.PutItemOutput{}, nil
		},
		getItem: func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			item, err := attributevalue.MarshalMap(membershipItem{PK: "USER#founder", SK: "MEMBERSHIP", CircleID: "elsewhere"})
			require.NoError(t, err)
			return &dynamodb.GetItemOutput{Item: item}, nil
		},
		deleteItem: func(in *dynamodb.DeleteItemInput) (*dynamodb.DeleteItemOutput, error) {
			released = append(released, partitionOf(in.Key))
			return &dynamodb.DeleteItemOutput{}, nil
		},
	}
	repo := NewCircleRepository(api, "circles", "GSI1", zap.NewNop())

	id, err := repo.InsertOne(context.Background(), circle)
	require.NoError(t, err)
	assert.Equal(t, circle.ID().String(), id)
	assert.Empty(t, released)

	// The circle already exists: the fresh claim is rolled back
	exists = true
	_, err = repo.InsertOne(context.Background(), circle)
	assert.True(t, pkgerrors.IsConflict(err))
	assert.Equal(t, []string{"USER#founder"}, released)

	// The founder already belongs to another circle
	exists = false
	claimed = true
	_, err = repo.InsertOne(context.Background(), fixtures.NewCircleBuilder().WithParticipants("founder").MustBuild())
	assert.True(t, pkgerrors.IsConflict(err))
	assert.Contains(t, err.Error(), "already belongs")
}

func TestCircleRepository_InsertOne_InactiveCircleClaimsNobody(t *testing.T) {
	circle := fixtures.NewCircleBuilder().WithStatus(entities.CircleStatusInactive).WithParticipants("a", "b").MustBuild()
	var partitions []string
	api := &fakeAPI{
		putItem: func(in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
			partitions = append(partitions, partitionOf(in.Item))
			return &dynamodb.PutItemOutput{}, nil
		},
	}
	repo := NewCircleRepository(api, "circles", "GSI1", zap.NewNop())

	_, err := repo.InsertOne(context.Background(), circle)
	require.NoError(t, err)
	assert.Equal(t, []string{"CIRCLE#" + circle.ID().String()}, partitions)
}

func TestClassify(t *testing.T) {
	throttled := classify("put circle", &smithy.GenericAPIError{Code: "ProvisionedThroughputExceededException"})
	assert.True(t, pkgerrors.IsType(throttled, pkgerrors.ErrorTypeUnavailable))

	other := classify("put circle", errors.New("boom"))
	assert.False(t, pkgerrors.IsAppError(other))
	assert.Contains(t, other.Error(), "failed to put circle")
}

func TestMessageRepository_FindByCircle(t *testing.T) {
	circleID := uuid.NewString()
	var items []map[string]types.AttributeValue
	for _, seg := range []int{4, 2, 9} {
		msg := fixtures.NewMessageBuilder().WithCircleID(circleID).WithSegmentIndex(seg).MustBuild()
		item, err := attributevalue.MarshalMap(toMessageItem(msg))
		require.NoError(t, err)
		items = append(items, item)
	}

	api := &fakeAPI{
		query: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			assert.True(t, aws.ToBool(in.ScanIndexForward))
			assert.Equal(t, int32(2), aws.ToInt32(in.Limit))
			return &dynamodb.QueryOutput{Items: items}, nil
		},
	}
	repo := NewMessageRepository(api, "messages", zap.NewNop())

	msgs, err := repo.FindByCircle(context.Background(), circleID, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, 4, msgs[0].SegmentIndex())
	assert.Equal(t, 2, msgs[1].SegmentIndex())
}

func TestMessageItem_OptionalFields(t *testing.T) {
	transcript := "hi"
	msg, err := entities.ReconstructMessage(uuid.NewString(), uuid.NewString(), "a", 0, "u", 5,
		time.Now().UTC(), &transcript, map[string]interface{}{"mood": "warm", "intensity": 0.5})
	require.NoError(t, err)

	av, err := attributevalue.MarshalMap(toMessageItem(msg))
	require.NoError(t, err)

	var item messageItem
	require.NoError(t, attributevalue.UnmarshalMap(av, &item))
	got, err := item.toEntity()
	require.NoError(t, err)
	assert.Equal(t, "hi", *got.Transcript())
	assert.Equal(t, map[string]interface{}{"mood": "warm", "intensity": 0.5}, got.EmotionalTags())

	bare := fixtures.NewMessageBuilder().MustBuild()
	av, err = attributevalue.MarshalMap(toMessageItem(bare))
	require.NoError(t, err)
	assert.NotContains(t, av, "Transcript")
	assert.NotContains(t, av, "EmotionalTags")
}
