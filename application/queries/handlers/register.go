package handlers

import (
	"context"
	"fmt"

	"aura-backend/application/queries"
	"aura-backend/application/queries/bus"
)

// Register binds the query handlers to the bus
func Register(b *bus.QueryBus, circles *CircleQueryHandler, messages *MessageQueryHandler) error {
	registrations := []struct {
		query   bus.Query
		handler bus.QueryHandlerFunc
	}{
		{queries.GetCircleQuery{}, func(ctx context.Context, q bus.Query) (interface{}, error) {
			return circles.GetCircle(ctx, q.(queries.GetCircleQuery))
		}},
		{queries.GetCircleMembersQuery{}, func(ctx context.Context, q bus.Query) (interface{}, error) {
			return circles.GetMembers(ctx, q.(queries.GetCircleMembersQuery))
		}},
		{queries.ListMessagesQuery{}, func(ctx context.Context, q bus.Query) (interface{}, error) {
			return messages.ListMessages(ctx, q.(queries.ListMessagesQuery))
		}},
		{queries.ListStatusChecksQuery{}, func(ctx context.Context, q bus.Query) (interface{}, error) {
			return messages.ListStatusChecks(ctx, q.(queries.ListStatusChecksQuery))
		}},
	}

	for _, r := range registrations {
		if err := b.Register(r.query, r.handler); err != nil {
			return fmt.Errorf("register %T: %w", r.query, err)
		}
	}
	return nil
}
