package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"aura-backend/domain/core/entities"
)

const statusPartitionKey = "STATUS_CHECK"

type statusCheckItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"` // <unix nano>#<id>
	ID         string `dynamodbav:"ID"`
	ClientName string `dynamodbav:"ClientName"`
	Timestamp  string `dynamodbav:"Timestamp"`
}

// StatusCheckRepository implements ports.StatusCheckRepository using DynamoDB
type StatusCheckRepository struct {
	client    API
	tableName string
}

// NewStatusCheckRepository creates a new StatusCheckRepository
func NewStatusCheckRepository(client API, tableName string) *StatusCheckRepository {
	return &StatusCheckRepository{client: client, tableName: tableName}
}

func (r *StatusCheckRepository) InsertOne(ctx context.Context, check *entities.StatusCheck) (string, error) {
	if check == nil {
		return "", fmt.Errorf("invalid status check")
	}

	item, err := attributevalue.MarshalMap(statusCheckItem{
		PK:         statusPartitionKey,
		SK:         fmt.Sprintf("%019d#%s", check.Timestamp.UnixNano(), check.ID),
		ID:         check.ID,
		ClientName: check.ClientName,
		Timestamp:  check.Timestamp.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal status check: %w", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	}); err != nil {
		return "", classify("put status check", err)
	}
	return check.ID, nil
}

func (r *StatusCheckRepository) List(ctx context.Context, limit int) ([]*entities.StatusCheck, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key(attrPK).Equal(expression.Value(statusPartitionKey))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, classify("query status checks", err)
	}

	var items []statusCheckItem
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status checks: %w", err)
	}

	checks := make([]*entities.StatusCheck, 0, len(items))
	for _, item := range items {
		ts, err := time.Parse(time.RFC3339Nano, item.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("invalid Timestamp on status check %s: %w", item.ID, err)
		}
		checks = append(checks, &entities.StatusCheck{ID: item.ID, ClientName: item.ClientName, Timestamp: ts})
	}
	return checks, nil
}
