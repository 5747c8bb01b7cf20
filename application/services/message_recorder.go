package services

import (
	"context"

	"aura-backend/application/ports"
	"aura-backend/domain/config"
	"aura-backend/domain/core/entities"
	pkgerrors "aura-backend/pkg/errors"

	"go.uber.org/zap"
)

// RecordInput carries the fields of a new voice message
type RecordInput struct {
	CircleID     string
	AuthorID     string
	SegmentIndex int
	AudioURL     string
	DurationMs   int64
}

// MessageRecorder appends voice-message records to a circle's log.
// It does not check segment uniqueness; membership is only checked when
// DomainConfig.RequireMembership is set.
type MessageRecorder struct {
	messages  ports.MessageRepository
	circles   ports.CircleRepository
	publisher ports.EventPublisher
	metrics   ports.Metrics
	cfg       *config.DomainConfig
	logger    *zap.Logger
}

// NewMessageRecorder creates a new recorder. circles is only consulted when
// membership is required; metrics may be nil.
func NewMessageRecorder(
	messages ports.MessageRepository,
	circles ports.CircleRepository,
	publisher ports.EventPublisher,
	metrics ports.Metrics,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *MessageRecorder {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &MessageRecorder{
		messages:  messages,
		circles:   circles,
		publisher: publisher,
		metrics:   metrics,
		cfg:       cfg,
		logger:    logger,
	}
}

// Record persists a new immutable message and returns it
func (r *MessageRecorder) Record(ctx context.Context, in RecordInput) (*entities.Message, error) {
	msg, err := entities.NewMessage(in.CircleID, in.AuthorID, in.SegmentIndex, in.AudioURL, in.DurationMs)
	if err != nil {
		return nil, err
	}

	if r.cfg.RequireMembership {
		if err := r.checkMembership(ctx, in.CircleID, in.AuthorID); err != nil {
			return nil, err
		}
	}

	if _, err := r.messages.InsertOne(ctx, msg); err != nil {
		r.logger.Error("Failed to store message",
			zap.String("circleID", in.CircleID),
			zap.String("authorID", in.AuthorID),
			zap.Error(err),
		)
		return nil, storageError("insert message", err)
	}

	if r.metrics != nil {
		r.metrics.RecordMessage()
	}

	if r.publisher != nil {
		if err := r.publisher.PublishBatch(ctx, msg.GetUncommittedEvents()); err != nil {
			r.logger.Warn("Failed to publish message events",
				zap.String("messageID", msg.ID().String()),
				zap.Error(err),
			)
		}
	}
	msg.MarkEventsAsCommitted()

	r.logger.Debug("Message recorded",
		zap.String("messageID", msg.ID().String()),
		zap.String("circleID", in.CircleID),
		zap.Int("segmentIndex", in.SegmentIndex),
	)
	return msg, nil
}

func (r *MessageRecorder) checkMembership(ctx context.Context, circleID, authorID string) error {
	circle, err := r.circles.FindOne(ctx, ports.CircleFilter{CircleID: circleID})
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return pkgerrors.NewNotFoundError("circle")
		}
		return storageError("find circle", err)
	}
	if !circle.HasParticipant(authorID) {
		return pkgerrors.NewForbiddenError("author is not a participant of this circle")
	}
	return nil
}
