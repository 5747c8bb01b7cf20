package services

import (
	"context"
	"time"

	"aura-backend/application/ports"
	"aura-backend/domain/config"
	"aura-backend/domain/core/entities"
	pkgerrors "aura-backend/pkg/errors"
	"aura-backend/pkg/observability"

	"go.uber.org/zap"
)

// Join outcomes, also used as metric labels
const (
	JoinOutcomeReused     = "reused"
	JoinOutcomeJoined     = "joined"
	JoinOutcomeCreated    = "created"
	JoinOutcomeContention = "contention"
	JoinOutcomeFailed     = "failed"
)

// CircleAllocator resolves a join request to exactly one active circle.
//
// It holds no lock of its own. Capacity is protected by the conditioned append
// that storage evaluates atomically per document, and one active circle per
// user by the repository's membership claim, so any number of allocator
// instances may share one backend.
type CircleAllocator struct {
	circles   ports.CircleRepository
	publisher ports.EventPublisher
	metrics   ports.Metrics
	tracer    *observability.Tracer
	cfg       *config.DomainConfig
	logger    *zap.Logger
}

// NewCircleAllocator creates a new allocator. metrics and tracer may be nil.
func NewCircleAllocator(
	circles ports.CircleRepository,
	publisher ports.EventPublisher,
	metrics ports.Metrics,
	tracer *observability.Tracer,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *CircleAllocator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &CircleAllocator{
		circles:   circles,
		publisher: publisher,
		metrics:   metrics,
		tracer:    tracer,
		cfg:       cfg,
		logger:    logger,
	}
}

// Join returns the active circle userID belongs to, placing the user into the
// earliest created circle with room or opening a new one when none has room.
// Repeated calls for the same user return the same circle.
func (a *CircleAllocator) Join(ctx context.Context, userID string) (*entities.Circle, error) {
	if userID == "" {
		return nil, pkgerrors.NewValidationError("userId is required")
	}

	if a.tracer == nil {
		return a.join(ctx, userID)
	}

	var circle *entities.Circle
	err := a.tracer.TraceFunction(ctx, "CircleAllocator.Join", func(ctx context.Context) error {
		var joinErr error
		circle, joinErr = a.join(ctx, userID)
		return joinErr
	})
	return circle, err
}

func (a *CircleAllocator) join(ctx context.Context, userID string) (*entities.Circle, error) {
	backoff := a.cfg.JoinRetryBackoff
	var full []string

	for attempt := 1; attempt <= a.cfg.JoinMaxAttempts; attempt++ {
		circle, outcome, err := a.attempt(ctx, userID, &full)
		if err != nil {
			a.recordJoin(JoinOutcomeFailed, attempt)
			a.logger.Error("Join circle failed",
				zap.String("userID", userID),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return nil, err
		}

		if circle != nil {
			a.recordJoin(outcome, attempt)
			a.publishEvents(ctx, circle)
			a.logger.Info("User joined circle",
				zap.String("userID", userID),
				zap.String("circleID", circle.ID().String()),
				zap.String("outcome", outcome),
				zap.Int("participants", circle.ParticipantCount()),
				zap.Int("attempt", attempt),
			)
			return circle, nil
		}

		// Another request took the slot or claimed this user first;
		// start over from the membership lookup.
		if a.metrics != nil {
			a.metrics.RecordJoinConflict()
		}
		a.logger.Debug("Join lost a race, retrying",
			zap.String("userID", userID),
			zap.Int("attempt", attempt),
			zap.Int("fullCircles", len(full)),
		)

		if attempt < a.cfg.JoinMaxAttempts {
			if err := sleepContext(ctx, backoff); err != nil {
				a.recordJoin(JoinOutcomeFailed, attempt)
				return nil, pkgerrors.NewTimeoutError("join circle").WithCause(err)
			}
			backoff = backoff * 3 / 2
		}
	}

	a.recordJoin(JoinOutcomeContention, a.cfg.JoinMaxAttempts)
	a.logger.Warn("Join circle retry budget exhausted",
		zap.String("userID", userID),
		zap.Int("attempts", a.cfg.JoinMaxAttempts),
	)
	return nil, pkgerrors.NewContentionError("join circle", a.cfg.JoinMaxAttempts)
}

// attempt runs one pass of the allocation algorithm. A nil circle with a nil
// error means a write lost a race and the caller should retry. Circles found
// full on a strongly consistent read are added to full and skipped by later
// selections, since a lagging index may keep offering them.
func (a *CircleAllocator) attempt(ctx context.Context, userID string, full *[]string) (*entities.Circle, string, error) {
	// 1. Membership reuse
	existing, err := a.circles.FindOne(ctx, ports.CircleFilter{
		Status:      entities.CircleStatusActive,
		Participant: userID,
	})
	if err == nil {
		return existing, JoinOutcomeReused, nil
	}
	if !pkgerrors.IsNotFound(err) {
		return nil, "", storageError("find membership", err)
	}

	// 2. Capacity-available selection
	candidate, err := a.circles.FindOne(ctx, ports.CircleFilter{
		Status:            entities.CircleStatusActive,
		ParticipantsBelow: a.cfg.MaxParticipants,
		ExcludeIDs:        *full,
	})
	if err != nil && !pkgerrors.IsNotFound(err) {
		return nil, "", storageError("find available circle", err)
	}

	// 3. Creation
	if err != nil {
		return a.create(ctx, userID)
	}

	candidateID := candidate.ID().String()
	applied, err := a.circles.ConditionalUpdate(ctx,
		ports.CircleFilter{
			CircleID:          candidateID,
			Status:            entities.CircleStatusActive,
			ParticipantsBelow: candidate.MaxParticipants(),
			NotParticipant:    userID,
		},
		ports.CircleUpdate{AppendParticipant: userID},
	)
	if err != nil {
		return nil, "", storageError("append participant", err)
	}
	if !applied {
		if err := a.excludeIfFull(ctx, candidateID, full); err != nil {
			return nil, "", err
		}
		return nil, "", nil
	}

	// The snapshot can only lag storage, so the same predicate holds locally.
	if err := candidate.AddParticipant(userID); err != nil {
		a.logger.Warn("Snapshot diverged from stored circle, reloading",
			zap.String("circleID", candidateID),
			zap.Error(err),
		)
		reloaded, err := a.circles.FindOne(ctx, ports.CircleFilter{CircleID: candidateID})
		if err != nil {
			return nil, "", storageError("reload circle", err)
		}
		return reloaded, JoinOutcomeJoined, nil
	}

	return candidate, JoinOutcomeJoined, nil
}

// excludeIfFull re-reads a circle whose append was rejected and remembers it
// when it can no longer admit anyone
func (a *CircleAllocator) excludeIfFull(ctx context.Context, circleID string, full *[]string) error {
	current, err := a.circles.FindOne(ctx, ports.CircleFilter{CircleID: circleID})
	if err != nil && !pkgerrors.IsNotFound(err) {
		return storageError("reload circle", err)
	}
	if err != nil || !current.IsActive() || !current.HasRoom() {
		*full = append(*full, circleID)
	}
	return nil
}

func (a *CircleAllocator) create(ctx context.Context, userID string) (*entities.Circle, string, error) {
	circle, err := entities.NewCircle(userID, a.cfg.DefaultDay, a.cfg.MaxParticipants)
	if err != nil {
		return nil, "", err
	}

	if _, err := a.circles.InsertOne(ctx, circle); err != nil {
		if pkgerrors.IsConflict(err) {
			// A concurrent join for the same user claimed them first
			return nil, "", nil
		}
		return nil, "", storageError("insert circle", err)
	}
	return circle, JoinOutcomeCreated, nil
}

func (a *CircleAllocator) publishEvents(ctx context.Context, circle *entities.Circle) {
	pending := circle.GetUncommittedEvents()
	if len(pending) == 0 || a.publisher == nil {
		circle.MarkEventsAsCommitted()
		return
	}

	if err := a.publisher.PublishBatch(ctx, pending); err != nil {
		// The join already committed; events are best effort
		a.logger.Warn("Failed to publish circle events",
			zap.String("circleID", circle.ID().String()),
			zap.Int("events", len(pending)),
			zap.Error(err),
		)
	}
	circle.MarkEventsAsCommitted()
}

func (a *CircleAllocator) recordJoin(outcome string, attempts int) {
	if a.metrics != nil {
		a.metrics.RecordJoin(outcome, attempts)
	}
}

// storageError keeps typed errors from the storage layer and classifies
// anything else as a transient database failure.
func storageError(operation string, err error) error {
	if pkgerrors.IsAppError(err) {
		return err
	}
	return pkgerrors.NewDatabaseError(operation, err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
