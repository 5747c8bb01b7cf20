package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"aura-backend/application/ports"
	"aura-backend/domain/core/entities"
	pkgerrors "aura-backend/pkg/errors"
)

type circleRow struct {
	ID              string `db:"id"`
	Day             int    `db:"day"`
	Status          string `db:"status"`
	MaxParticipants int    `db:"max_participants"`
	CreatedAt       int64  `db:"created_at"`
}

// CircleRepository implements ports.CircleRepository on SQLite
type CircleRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewCircleRepository creates a new SQLite circle repository
func NewCircleRepository(db *sqlx.DB, logger *zap.Logger) *CircleRepository {
	return &CircleRepository{db: db, logger: logger}
}

// whereClause renders filter as predicates over the circles table aliased c
func whereClause(filter ports.CircleFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)

	if filter.CircleID != "" {
		conds = append(conds, "c.id = ?")
		args = append(args, filter.CircleID)
	}
	if filter.Status != "" {
		conds = append(conds, "c.status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Participant != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM circle_participants p WHERE p.circle_id = c.id AND p.user_id = ?)")
		args = append(args, filter.Participant)
	}
	if filter.NotParticipant != "" {
		conds = append(conds, "NOT EXISTS (SELECT 1 FROM circle_participants p WHERE p.circle_id = c.id AND p.user_id = ?)")
		args = append(args, filter.NotParticipant)
	}
	if filter.ParticipantsBelow > 0 {
		conds = append(conds, "(SELECT COUNT(*) FROM circle_participants p WHERE p.circle_id = c.id) < ?")
		args = append(args, filter.ParticipantsBelow)
	}
	if len(filter.ExcludeIDs) > 0 {
		conds = append(conds, "c.id NOT IN (?"+strings.Repeat(", ?", len(filter.ExcludeIDs)-1)+")")
		for _, id := range filter.ExcludeIDs {
			args = append(args, id)
		}
	}

	if len(conds) == 0 {
		return "1 = 1", nil
	}
	return strings.Join(conds, " AND "), args
}

// FindOne returns the earliest created circle matching filter
func (r *CircleRepository) FindOne(ctx context.Context, filter ports.CircleFilter) (*entities.Circle, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin read transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			r.logger.Warn("Error rolling back read transaction", zap.Error(rbErr))
		}
	}()

	where, args := whereClause(filter)
	query := `
		SELECT c.id, c.day, c.status, c.max_participants, c.created_at
		FROM circles c
		WHERE ` + where + `
		ORDER BY c.created_at ASC, c.id ASC
		LIMIT 1`

	var row circleRow
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pkgerrors.NewNotFoundError("circle")
		}
		return nil, fmt.Errorf("failed to find circle: %w", err)
	}

	var participants []string
	if err := tx.SelectContext(ctx, &participants,
		`SELECT user_id FROM circle_participants WHERE circle_id = ? ORDER BY position ASC`, row.ID); err != nil {
		return nil, fmt.Errorf("failed to load participants of circle %s: %w", row.ID, err)
	}

	return entities.ReconstructCircle(
		row.ID,
		row.Day,
		entities.CircleStatus(row.Status),
		participants,
		row.MaxParticipants,
		fromUnixNano(row.CreatedAt),
	)
}

// ConditionalUpdate appends a participant in a single INSERT ... SELECT whose
// WHERE clause is the filter, so the check and the write cannot interleave
// with another writer. The unique index on active memberships rejects a user
// already seated in another active circle.
func (r *CircleRepository) ConditionalUpdate(ctx context.Context, filter ports.CircleFilter, update ports.CircleUpdate) (bool, error) {
	if filter.CircleID == "" {
		return false, fmt.Errorf("conditional update requires a circle ID")
	}
	if update.IsEmpty() {
		return false, fmt.Errorf("conditional update has nothing to apply")
	}

	where, whereArgs := whereClause(filter)
	query := `
		INSERT INTO circle_participants (circle_id, user_id, position, active)
		SELECT c.id, ?, (SELECT COUNT(*) FROM circle_participants p WHERE p.circle_id = c.id),
			CASE WHEN c.status = 'active' THEN 1 ELSE 0 END
		FROM circles c
		WHERE ` + where

	args := append([]interface{}{update.AppendParticipant}, whereArgs...)
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isConstraintViolation(err) {
			// Participant already present here or in another active circle
			return false, nil
		}
		return false, fmt.Errorf("failed to append participant to circle %s: %w", filter.CircleID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected == 1, nil
}

// InsertOne stores a new circle and its participants
func (r *CircleRepository) InsertOne(ctx context.Context, circle *entities.Circle) (string, error) {
	if circle == nil {
		return "", fmt.Errorf("invalid circle")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			r.logger.Warn("Error rolling back transaction", zap.Error(rbErr))
		}
	}()

	id := circle.ID().String()
	row := circleRow{
		ID:              id,
		Day:             circle.Day(),
		Status:          string(circle.Status()),
		MaxParticipants: circle.MaxParticipants(),
		CreatedAt:       toUnixNano(circle.CreatedAt()),
	}

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO circles (id, day, status, max_participants, created_at)
		VALUES (:id, :day, :status, :max_participants, :created_at)`, row); err != nil {
		if isConstraintViolation(err) {
			return "", pkgerrors.NewConflictError(fmt.Sprintf("circle %s already exists", id))
		}
		return "", fmt.Errorf("failed to insert circle %s: %w", id, err)
	}

	active := 0
	if circle.IsActive() {
		active = 1
	}
	for position, userID := range circle.Participants() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO circle_participants (circle_id, user_id, position, active) VALUES (?, ?, ?, ?)`,
			id, userID, position, active); err != nil {
			if isConstraintViolation(err) {
				return "", pkgerrors.NewConflictError(fmt.Sprintf("user %s already belongs to a circle", userID))
			}
			return "", fmt.Errorf("failed to insert participant of circle %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit circle %s: %w", id, err)
	}
	return id, nil
}
