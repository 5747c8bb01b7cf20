package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"aura-backend/application/ports"
	"aura-backend/domain/core/entities"
	pkgerrors "aura-backend/pkg/errors"
)

// circleDoc is the stored shape of a circle. Each document carries its own
// lock so a conditional update is atomic relative to its filter evaluation
// without serializing unrelated circles.
type circleDoc struct {
	mu              sync.Mutex
	id              string
	day             int
	status          entities.CircleStatus
	participants    []string
	maxParticipants int
	createdAt       time.Time
}

func (d *circleDoc) toEntity() (*entities.Circle, error) {
	return entities.ReconstructCircle(d.id, d.day, d.status, d.participants, d.maxParticipants, d.createdAt)
}

// InMemoryCircleRepository provides an in-memory implementation of
// CircleRepository. members maps each user to the active circle holding them.
type InMemoryCircleRepository struct {
	mu      sync.RWMutex
	docs    map[string]*circleDoc
	members map[string]string
}

// NewInMemoryCircleRepository creates a new in-memory circle repository
func NewInMemoryCircleRepository() *InMemoryCircleRepository {
	return &InMemoryCircleRepository{
		docs:    make(map[string]*circleDoc),
		members: make(map[string]string),
	}
}

// FindOne returns the earliest created circle matching filter
func (r *InMemoryCircleRepository) FindOne(ctx context.Context, filter ports.CircleFilter) (*entities.Circle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	circleID := filter.CircleID
	if filter.Participant != "" && filter.Status == entities.CircleStatusActive {
		r.mu.RLock()
		owner, ok := r.members[filter.Participant]
		r.mu.RUnlock()
		if !ok || (circleID != "" && circleID != owner) {
			return nil, pkgerrors.NewNotFoundError("circle")
		}
		circleID = owner
	}

	var best *entities.Circle
	for _, doc := range r.candidates(circleID) {
		doc.mu.Lock()
		circle, err := doc.toEntity()
		doc.mu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("failed to reconstruct circle %s: %w", doc.id, err)
		}

		if !filter.Matches(circle) {
			continue
		}
		if best == nil || earlier(circle, best) {
			best = circle
		}
	}

	if best == nil {
		return nil, pkgerrors.NewNotFoundError("circle")
	}
	return best, nil
}

// ConditionalUpdate appends a participant if the filter still holds and the
// user is not claimed by another circle. The store lock covers the claim and
// the append together.
func (r *InMemoryCircleRepository) ConditionalUpdate(ctx context.Context, filter ports.CircleFilter, update ports.CircleUpdate) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if filter.CircleID == "" {
		return false, fmt.Errorf("conditional update requires a circle ID")
	}
	if update.IsEmpty() {
		return false, fmt.Errorf("conditional update has nothing to apply")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[filter.CircleID]
	if !ok {
		return false, nil
	}

	doc.mu.Lock()
	defer doc.mu.Unlock()

	circle, err := doc.toEntity()
	if err != nil {
		return false, fmt.Errorf("failed to reconstruct circle %s: %w", doc.id, err)
	}
	if !filter.Matches(circle) {
		return false, nil
	}
	if _, claimed := r.members[update.AppendParticipant]; claimed && circle.IsActive() {
		return false, nil
	}

	doc.participants = append(doc.participants, update.AppendParticipant)
	if circle.IsActive() {
		r.members[update.AppendParticipant] = doc.id
	}
	return true, nil
}

// InsertOne stores a new circle and claims its participants
func (r *InMemoryCircleRepository) InsertOne(ctx context.Context, circle *entities.Circle) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if circle == nil {
		return "", fmt.Errorf("invalid circle")
	}

	id := circle.ID().String()
	doc := &circleDoc{
		id:              id,
		day:             circle.Day(),
		status:          circle.Status(),
		participants:    circle.Participants(),
		maxParticipants: circle.MaxParticipants(),
		createdAt:       circle.CreatedAt(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.docs[id]; exists {
		return "", pkgerrors.NewConflictError(fmt.Sprintf("circle %s already exists", id))
	}
	active := circle.IsActive()
	if active {
		for _, userID := range doc.participants {
			if _, claimed := r.members[userID]; claimed {
				return "", pkgerrors.NewConflictError(fmt.Sprintf("user %s already belongs to a circle", userID))
			}
		}
	}

	r.docs[id] = doc
	if active {
		for _, userID := range doc.participants {
			r.members[userID] = id
		}
	}
	return id, nil
}

// Count returns the number of stored circles
func (r *InMemoryCircleRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}

func (r *InMemoryCircleRepository) candidates(circleID string) []*circleDoc {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if circleID != "" {
		if doc, ok := r.docs[circleID]; ok {
			return []*circleDoc{doc}
		}
		return nil
	}

	docs := make([]*circleDoc, 0, len(r.docs))
	for _, doc := range r.docs {
		docs = append(docs, doc)
	}
	return docs
}

// earlier orders circles by creation time, then ID
func earlier(a, b *entities.Circle) bool {
	if !a.CreatedAt().Equal(b.CreatedAt()) {
		return a.CreatedAt().Before(b.CreatedAt())
	}
	return a.ID().String() < b.ID().String()
}
