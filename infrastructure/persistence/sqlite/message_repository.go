package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"aura-backend/domain/core/entities"
	pkgerrors "aura-backend/pkg/errors"
)

type messageRow struct {
	ID            string         `db:"id"`
	CircleID      string         `db:"circle_id"`
	AuthorID      string         `db:"author_id"`
	SegmentIndex  int            `db:"segment_index"`
	AudioURL      string         `db:"audio_url"`
	DurationMs    int64          `db:"duration_ms"`
	CreatedAt     int64          `db:"created_at"`
	Transcript    sql.NullString `db:"transcript"`
	EmotionalTags sql.NullString `db:"emotional_tags"`
}

// MessageRepository implements ports.MessageRepository on SQLite
type MessageRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewMessageRepository creates a new SQLite message repository
func NewMessageRepository(db *sqlx.DB, logger *zap.Logger) *MessageRepository {
	return &MessageRepository{db: db, logger: logger}
}

// InsertOne appends a message; the autoincrement seq column fixes its order
func (r *MessageRepository) InsertOne(ctx context.Context, message *entities.Message) (string, error) {
	if message == nil {
		return "", fmt.Errorf("invalid message")
	}

	row := messageRow{
		ID:           message.ID().String(),
		CircleID:     message.CircleID(),
		AuthorID:     message.AuthorID(),
		SegmentIndex: message.SegmentIndex(),
		AudioURL:     message.AudioURL(),
		DurationMs:   message.DurationMs(),
		CreatedAt:    toUnixNano(message.CreatedAt()),
	}
	if t := message.Transcript(); t != nil {
		row.Transcript = sql.NullString{String: *t, Valid: true}
	}
	if tags := message.EmotionalTags(); tags != nil {
		encoded, err := json.Marshal(tags)
		if err != nil {
			return "", fmt.Errorf("failed to encode emotional tags: %w", err)
		}
		row.EmotionalTags = sql.NullString{String: string(encoded), Valid: true}
	}

	if _, err := r.db.NamedExecContext(ctx, `
		INSERT INTO messages (id, circle_id, author_id, segment_index, audio_url, duration_ms, created_at, transcript, emotional_tags)
		VALUES (:id, :circle_id, :author_id, :segment_index, :audio_url, :duration_ms, :created_at, :transcript, :emotional_tags)`, row); err != nil {
		if isConstraintViolation(err) {
			return "", pkgerrors.NewConflictError(fmt.Sprintf("message %s already exists", row.ID))
		}
		return "", fmt.Errorf("failed to insert message %s: %w", row.ID, err)
	}
	return row.ID, nil
}

// FindByCircle returns up to limit messages of a circle in insertion order
func (r *MessageRepository) FindByCircle(ctx context.Context, circleID string, limit int) ([]*entities.Message, error) {
	if limit <= 0 {
		limit = -1
	}

	var rows []messageRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT id, circle_id, author_id, segment_index, audio_url, duration_ms, created_at, transcript, emotional_tags
		FROM messages
		WHERE circle_id = ?
		ORDER BY seq ASC
		LIMIT ?`, circleID, limit); err != nil {
		return nil, fmt.Errorf("failed to list messages of circle %s: %w", circleID, err)
	}

	messages := make([]*entities.Message, 0, len(rows))
	for _, row := range rows {
		msg, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (row messageRow) toEntity() (*entities.Message, error) {
	var transcript *string
	if row.Transcript.Valid {
		t := row.Transcript.String
		transcript = &t
	}

	var tags map[string]interface{}
	if row.EmotionalTags.Valid {
		if err := json.Unmarshal([]byte(row.EmotionalTags.String), &tags); err != nil {
			return nil, fmt.Errorf("failed to decode emotional tags of message %s: %w", row.ID, err)
		}
	}

	return entities.ReconstructMessage(
		row.ID,
		row.CircleID,
		row.AuthorID,
		row.SegmentIndex,
		row.AudioURL,
		row.DurationMs,
		fromUnixNano(row.CreatedAt),
		transcript,
		tags,
	)
}
