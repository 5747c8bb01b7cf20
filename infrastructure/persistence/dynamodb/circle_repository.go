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

	"aura-backend/application/ports"
	"aura-backend/domain/core/entities"
	pkgerrors "aura-backend/pkg/errors"
)

// sortableTime renders timestamps so lexical order equals time order
const sortableTime = "2006-01-02T15:04:05.000000000Z"

// circleItem represents the DynamoDB item structure for a circle
type circleItem struct {
	PK              string   `dynamodbav:"PK"`
	SK              string   `dynamodbav:"SK"`
	GSI1PK          string   `dynamodbav:"GSI1PK"` // CIRCLE_STATUS#<status>
	GSI1SK          string   `dynamodbav:"GSI1SK"` // <createdAt>#<circleID>
	CircleID        string   `dynamodbav:"CircleID"`
	Day             int      `dynamodbav:"Day"`
	Status          string   `dynamodbav:"Status"`
	Participants    []string `dynamodbav:"Participants"`
	MaxParticipants int      `dynamodbav:"MaxParticipants"`
	CreatedAt       string   `dynamodbav:"CreatedAt"`
}

func circleKey(circleID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: "CIRCLE#" + circleID},
		attrSK: &types.AttributeValueMemberS{Value: "METADATA"},
	}
}

func statusPartition(status entities.CircleStatus) string {
	return "CIRCLE_STATUS#" + string(status)
}

func toCircleItem(c *entities.Circle) circleItem {
	id := c.ID().String()
	createdAt := c.CreatedAt().UTC().Format(sortableTime)
	return circleItem{
		PK:              "CIRCLE#" + id,
		SK:              "METADATA",
		GSI1PK:          statusPartition(c.Status()),
		GSI1SK:          createdAt + "#" + id,
		CircleID:        id,
		Day:             c.Day(),
		Status:          string(c.Status()),
		Participants:    c.Participants(),
		MaxParticipants: c.MaxParticipants(),
		CreatedAt:       createdAt,
	}
}

func (item circleItem) toEntity() (*entities.Circle, error) {
	createdAt, err := time.Parse(sortableTime, item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid CreatedAt on circle %s: %w", item.CircleID, err)
	}
	return entities.ReconstructCircle(
		item.CircleID,
		item.Day,
		entities.CircleStatus(item.Status),
		item.Participants,
		item.MaxParticipants,
		createdAt,
	)
}

// CircleRepository implements ports.CircleRepository using DynamoDB.
//
// The status index is eventually consistent, so it only serves capacity
// selection. Membership is tracked in a per-user item that is claimed with
// attribute_not_exists before a user is written into a circle and read with
// ConsistentRead.
type CircleRepository struct {
	client    API
	tableName string
	indexName string
	claimTTL  time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// NewCircleRepository creates a new CircleRepository. indexName is the GSI
// keyed by GSI1PK/GSI1SK.
func NewCircleRepository(client API, tableName, indexName string, logger *zap.Logger) *CircleRepository {
	return &CircleRepository{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		claimTTL:  DefaultClaimTTL,
		now:       time.Now,
		logger:    logger,
	}
}

// buildCondition translates a filter into a condition expression.
// It reports false when the filter has no predicates.
func buildCondition(filter ports.CircleFilter) (expression.ConditionBuilder, bool) {
	var conds []expression.ConditionBuilder

	if filter.CircleID != "" {
		conds = append(conds, expression.Name("CircleID").Equal(expression.Value(filter.CircleID)))
	}
	if filter.Status != "" {
		conds = append(conds, expression.Name("Status").Equal(expression.Value(string(filter.Status))))
	}
	if filter.Participant != "" {
		conds = append(conds, expression.Contains(expression.Name("Participants"), filter.Participant))
	}
	if filter.NotParticipant != "" {
		conds = append(conds, expression.Not(expression.Contains(expression.Name("Participants"), filter.NotParticipant)))
	}
	if filter.ParticipantsBelow > 0 {
		conds = append(conds, expression.Name("Participants").Size().LessThan(expression.Value(filter.ParticipantsBelow)))
	}
	if len(filter.ExcludeIDs) > 0 {
		others := make([]expression.OperandBuilder, 0, len(filter.ExcludeIDs)-1)
		for _, id := range filter.ExcludeIDs[1:] {
			others = append(others, expression.Value(id))
		}
		conds = append(conds, expression.Not(expression.Name("CircleID").In(expression.Value(filter.ExcludeIDs[0]), others...)))
	}

	switch len(conds) {
	case 0:
		return expression.ConditionBuilder{}, false
	case 1:
		return conds[0], true
	default:
		return expression.And(conds[0], conds[1], conds[2:]...), true
	}
}

// FindOne returns the earliest created circle matching filter
func (r *CircleRepository) FindOne(ctx context.Context, filter ports.CircleFilter) (*entities.Circle, error) {
	switch {
	case filter.Participant != "" && filter.Status == entities.CircleStatusActive:
		return r.findByParticipant(ctx, filter)
	case filter.CircleID != "":
		return r.findByID(ctx, filter)
	case filter.Status != "":
		return r.findByStatus(ctx, filter)
	default:
		return r.findByScan(ctx, filter)
	}
}

func (r *CircleRepository) findByID(ctx context.Context, filter ports.CircleFilter) (*entities.Circle, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            circleKey(filter.CircleID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, classify("get circle", err)
	}
	if result.Item == nil {
		return nil, pkgerrors.NewNotFoundError("circle")
	}

	var item circleItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal circle: %w", err)
	}
	circle, err := item.toEntity()
	if err != nil {
		return nil, err
	}

	// Remaining predicates are cheap to check on the fetched document
	if !filter.Matches(circle) {
		return nil, pkgerrors.NewNotFoundError("circle")
	}
	return circle, nil
}

// findByParticipant resolves the user's membership item, then reads the
// circle it names. Both reads are strongly consistent.
func (r *CircleRepository) findByParticipant(ctx context.Context, filter ports.CircleFilter) (*entities.Circle, error) {
	claim, err := r.getClaim(ctx, filter.Participant)
	if err != nil {
		return nil, err
	}
	if claim == nil || (filter.CircleID != "" && filter.CircleID != claim.CircleID) {
		return nil, pkgerrors.NewNotFoundError("circle")
	}

	circle, err := r.findByID(ctx, ports.CircleFilter{CircleID: claim.CircleID})
	if err != nil && !pkgerrors.IsNotFound(err) {
		return nil, err
	}

	if err == nil && circle.HasParticipant(filter.Participant) {
		if !circle.IsActive() {
			// Only active memberships hold a claim
			r.release(ctx, filter.Participant, claim.CircleID)
			return nil, pkgerrors.NewNotFoundError("circle")
		}
		if !filter.Matches(circle) {
			return nil, pkgerrors.NewNotFoundError("circle")
		}
		return circle, nil
	}

	// The claim is ahead of its circle: a join is in flight or was abandoned
	if r.expired(claim) {
		r.logger.Info("Releasing abandoned membership claim",
			zap.String("userID", filter.Participant),
			zap.String("circleID", claim.CircleID),
		)
		r.release(ctx, filter.Participant, claim.CircleID)
	}
	return nil, pkgerrors.NewNotFoundError("circle")
}

// findByStatus walks the status index in creation order and returns the
// first item passing the filter expression.
func (r *CircleRepository) findByStatus(ctx context.Context, filter ports.CircleFilter) (*entities.Circle, error) {
	keyCond := expression.Key(attrGSI1PK).Equal(expression.Value(statusPartition(filter.Status)))
	builder := expression.NewBuilder().WithKeyCondition(keyCond)

	rest := filter
	rest.Status = ""
	if cond, ok := buildCondition(rest); ok {
		builder = builder.WithFilter(cond)
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}

	paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true), // earliest createdAt, then circle ID
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify("query circles by status", err)
		}
		if len(page.Items) == 0 {
			continue
		}

		var item circleItem
		if err := attributevalue.UnmarshalMap(page.Items[0], &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal circle: %w", err)
		}
		return item.toEntity()
	}

	return nil, pkgerrors.NewNotFoundError("circle")
}

// findByScan serves filters without a status; it reads the whole table
func (r *CircleRepository) findByScan(ctx context.Context, filter ports.CircleFilter) (*entities.Circle, error) {
	cond := expression.Name(attrPK).BeginsWith("CIRCLE#")
	if extra, ok := buildCondition(filter); ok {
		cond = expression.And(cond, extra)
	}
	expr, err := expression.NewBuilder().WithFilter(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build scan expression: %w", err)
	}
	input := &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	var best *entities.Circle
	paginator := dynamodb.NewScanPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify("scan circles", err)
		}

		var items []circleItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal circles: %w", err)
		}
		for _, item := range items {
			circle, err := item.toEntity()
			if err != nil {
				return nil, err
			}
			if best == nil || circle.CreatedAt().Before(best.CreatedAt()) ||
				(circle.CreatedAt().Equal(best.CreatedAt()) && circle.ID().String() < best.ID().String()) {
				best = circle
			}
		}
	}

	if best == nil {
		return nil, pkgerrors.NewNotFoundError("circle")
	}
	return best, nil
}

// ConditionalUpdate claims the user's membership for the circle, then appends
// the participant with a single UpdateItem whose condition expression is the
// filter. A rejected append releases the claim it wrote.
func (r *CircleRepository) ConditionalUpdate(ctx context.Context, filter ports.CircleFilter, update ports.CircleUpdate) (bool, error) {
	if filter.CircleID == "" {
		return false, fmt.Errorf("conditional update requires a circle ID")
	}
	if update.IsEmpty() {
		return false, fmt.Errorf("conditional update has nothing to apply")
	}

	userID := update.AppendParticipant
	claimed, created, err := r.claim(ctx, userID, filter.CircleID)
	if err != nil {
		return false, err
	}
	if !claimed {
		r.logger.Debug("User already claimed by another circle",
			zap.String("circleID", filter.CircleID),
			zap.String("userID", userID),
		)
		return false, nil
	}

	cond := expression.AttributeExists(expression.Name(attrPK))
	if extra, ok := buildCondition(filter); ok {
		cond = expression.And(cond, extra)
	}
	upd := expression.Set(
		expression.Name("Participants"),
		expression.ListAppend(expression.Name("Participants"), expression.Value([]string{update.AppendParticipant})),
	)

	expr, err := expression.NewBuilder().WithCondition(cond).WithUpdate(upd).Build()
	if err != nil {
		return false, fmt.Errorf("failed to build update expression: %w", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       circleKey(filter.CircleID),
		ConditionExpression:       expr.Condition(),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			r.logger.Debug("Conditional append rejected",
				zap.String("circleID", filter.CircleID),
				zap.String("userID", userID),
			)
			if created {
				r.release(ctx, userID, filter.CircleID)
			}
			return false, nil
		}
		// The append may have applied; the claim stays
		return false, classify("append participant", err)
	}
	return true, nil
}

// InsertOne claims the participants of an active circle and stores the
// circle, refusing to overwrite an existing one
func (r *CircleRepository) InsertOne(ctx context.Context, circle *entities.Circle) (string, error) {
	if circle == nil {
		return "", fmt.Errorf("invalid circle")
	}

	item, err := attributevalue.MarshalMap(toCircleItem(circle))
	if err != nil {
		return "", fmt.Errorf("failed to marshal circle: %w", err)
	}

	id := circle.ID().String()
	var written []string
	releaseAll := func() {
		for _, userID := range written {
			r.release(ctx, userID, id)
		}
	}

	if circle.IsActive() {
		for _, userID := range circle.Participants() {
			claimed, created, err := r.claim(ctx, userID, id)
			if err != nil {
				releaseAll()
				return "", err
			}
			if created {
				written = append(written, userID)
			}
			if !claimed {
				releaseAll()
				return "", pkgerrors.NewConflictError(fmt.Sprintf("user %s already belongs to a circle", userID))
			}
		}
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			releaseAll()
			return "", pkgerrors.NewConflictError(fmt.Sprintf("circle %s already exists", id))
		}
		// The circle may have been written; its claims stay
		return "", classify("put circle", err)
	}

	r.logger.Debug("Circle stored", zap.String("circleID", id))
	return id, nil
}
