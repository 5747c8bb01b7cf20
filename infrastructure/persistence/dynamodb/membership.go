package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// DefaultClaimTTL is how long a membership claim may point at a circle that
// does not list the user before it is treated as abandoned
const DefaultClaimTTL = 30 * time.Second

// membershipItem records the active circle a user was written into. It lives
// in the circles table next to the circle items and is never projected into
// the status index.
type membershipItem struct {
	PK        string `dynamodbav:"PK"` // USER#<userID>
	SK        string `dynamodbav:"SK"` // MEMBERSHIP
	UserID    string `dynamodbav:"UserID"`
	CircleID  string `dynamodbav:"CircleID"`
	ClaimedAt string `dynamodbav:"ClaimedAt"`
}

func membershipKey(userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: "USER#" + userID},
		attrSK: &types.AttributeValueMemberS{Value: "MEMBERSHIP"},
	}
}

// getClaim reads a user's membership with a strongly consistent read.
// It returns nil when the user holds no claim.
func (r *CircleRepository) getClaim(ctx context.Context, userID string) (*membershipItem, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            membershipKey(userID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, classify("get membership", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item membershipItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal membership: %w", err)
	}
	return &item, nil
}

// claim writes the user's membership for circleID unless the user already
// holds one. A claim already pointing at circleID is adopted. created is true
// only when this call wrote the item.
func (r *CircleRepository) claim(ctx context.Context, userID, circleID string) (ok, created bool, err error) {
	item, err := attributevalue.MarshalMap(membershipItem{
		PK:        "USER#" + userID,
		SK:        "MEMBERSHIP",
		UserID:    userID,
		CircleID:  circleID,
		ClaimedAt: r.now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return false, false, fmt.Errorf("failed to marshal membership: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err == nil {
		return true, true, nil
	}
	if !isConditionalCheckFailed(err) {
		return false, false, classify("put membership", err)
	}

	existing, err := r.getClaim(ctx, userID)
	if err != nil {
		return false, false, err
	}
	if existing != nil && existing.CircleID == circleID {
		return true, false, nil
	}
	return false, false, nil
}

// release deletes a claim this repository wrote, provided it still points at
// circleID. Failures are logged; an abandoned claim expires after the TTL.
func (r *CircleRepository) release(ctx context.Context, userID, circleID string) {
	cond := expression.Name("CircleID").Equal(expression.Value(circleID))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		r.logger.Warn("Failed to build membership release condition", zap.Error(err))
		return
	}

	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       membershipKey(userID),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil && !isConditionalCheckFailed(err) {
		r.logger.Warn("Failed to release membership claim",
			zap.String("userID", userID),
			zap.String("circleID", circleID),
			zap.Error(err),
		)
	}
}

// expired reports whether a claim is old enough to be abandoned
func (r *CircleRepository) expired(claim *membershipItem) bool {
	claimedAt, err := time.Parse(time.RFC3339Nano, claim.ClaimedAt)
	if err != nil {
		return true
	}
	return r.now().Sub(claimedAt) > r.claimTTL
}
