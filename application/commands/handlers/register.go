package handlers

import (
	"context"
	"fmt"

	"aura-backend/application/commands"
	"aura-backend/application/commands/bus"
)

// Register binds the command handlers to the bus
func Register(
	b *bus.CommandBus,
	join *JoinCircleHandler,
	record *RecordMessageHandler,
	status *CreateStatusCheckHandler,
) error {
	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandlerFunc
	}{
		{commands.JoinCircleCommand{}, func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			return join.Handle(ctx, cmd.(commands.JoinCircleCommand))
		}},
		{commands.RecordMessageCommand{}, func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			return record.Handle(ctx, cmd.(commands.RecordMessageCommand))
		}},
		{commands.CreateStatusCheckCommand{}, func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			return status.Handle(ctx, cmd.(commands.CreateStatusCheckCommand))
		}},
	}

	for _, r := range registrations {
		if err := b.Register(r.cmd, r.handler); err != nil {
			return fmt.Errorf("register %T: %w", r.cmd, err)
		}
	}
	return nil
}
