package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"aura-backend/domain/core/entities"
	pkgerrors "aura-backend/pkg/errors"
)

// messageItem represents the DynamoDB item structure for a message.
// Messages of a circle share a partition; the sort key orders them by arrival.
type messageItem struct {
	PK            string                 `dynamodbav:"PK"` // CIRCLE#<circleID>
	SK            string                 `dynamodbav:"SK"` // MSG#<unix nano>#<messageID>
	MessageID     string                 `dynamodbav:"MessageID"`
	CircleID      string                 `dynamodbav:"CircleID"`
	AuthorID      string                 `dynamodbav:"AuthorID"`
	SegmentIndex  int                    `dynamodbav:"SegmentIndex"`
	AudioURL      string                 `dynamodbav:"AudioURL"`
	DurationMs    int64                  `dynamodbav:"DurationMs"`
	CreatedAt     string                 `dynamodbav:"CreatedAt"`
	Transcript    *string                `dynamodbav:"Transcript,omitempty"`
	EmotionalTags map[string]interface{} `dynamodbav:"EmotionalTags,omitempty"`
}

func messagePartition(circleID string) string {
	return "CIRCLE#" + circleID
}

func toMessageItem(m *entities.Message) messageItem {
	id := m.ID().String()
	return messageItem{
		PK:            messagePartition(m.CircleID()),
		SK:            fmt.Sprintf("MSG#%019d#%s", m.CreatedAt().UnixNano(), id),
		MessageID:     id,
		CircleID:      m.CircleID(),
		AuthorID:      m.AuthorID(),
		SegmentIndex:  m.SegmentIndex(),
		AudioURL:      m.AudioURL(),
		DurationMs:    m.DurationMs(),
		CreatedAt:     m.CreatedAt().UTC().Format(time.RFC3339Nano),
		Transcript:    m.Transcript(),
		EmotionalTags: m.EmotionalTags(),
	}
}

func (item messageItem) toEntity() (*entities.Message, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid CreatedAt on message %s: %w", item.MessageID, err)
	}
	return entities.ReconstructMessage(
		item.MessageID,
		item.CircleID,
		item.AuthorID,
		item.SegmentIndex,
		item.AudioURL,
		item.DurationMs,
		createdAt,
		item.Transcript,
		item.EmotionalTags,
	)
}

// MessageRepository implements ports.MessageRepository using DynamoDB
type MessageRepository struct {
	client    API
	tableName string
	logger    *zap.Logger
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(client API, tableName string, logger *zap.Logger) *MessageRepository {
	return &MessageRepository{client: client, tableName: tableName, logger: logger}
}

// InsertOne stores a message
func (r *MessageRepository) InsertOne(ctx context.Context, message *entities.Message) (string, error) {
	if message == nil {
		return "", fmt.Errorf("invalid message")
	}

	item, err := attributevalue.MarshalMap(toMessageItem(message))
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	id := message.ID().String()
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return "", pkgerrors.NewConflictError(fmt.Sprintf("message %s already exists", id))
		}
		return "", classify("put message", err)
	}
	return id, nil
}

// FindByCircle returns up to limit messages of a circle in arrival order
func (r *MessageRepository) FindByCircle(ctx context.Context, circleID string, limit int) ([]*entities.Message, error) {
	keyCond := expression.Key(attrPK).Equal(expression.Value(messagePartition(circleID))).
		And(expression.Key(attrSK).BeginsWith("MSG#"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
		ConsistentRead:            aws.Bool(true),
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	messages := make([]*entities.Message, 0)
	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() && (limit <= 0 || len(messages) < limit) {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify("query messages", err)
		}

		var items []messageItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
		}
		for _, item := range items {
			if limit > 0 && len(messages) >= limit {
				break
			}
			msg, err := item.toEntity()
			if err != nil {
				return nil, err
			}
			messages = append(messages, msg)
		}
	}

	return messages, nil
}
