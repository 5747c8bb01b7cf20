package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"aura-backend/domain/core/entities"
)

type statusCheckRow struct {
	ID         string `db:"id"`
	ClientName string `db:"client_name"`
	Timestamp  int64  `db:"timestamp"`
}

// StatusCheckRepository implements ports.StatusCheckRepository on SQLite
type StatusCheckRepository struct {
	db *sqlx.DB
}

// NewStatusCheckRepository creates a new SQLite status check repository
func NewStatusCheckRepository(db *sqlx.DB) *StatusCheckRepository {
	return &StatusCheckRepository{db: db}
}

func (r *StatusCheckRepository) InsertOne(ctx context.Context, check *entities.StatusCheck) (string, error) {
	if check == nil {
		return "", fmt.Errorf("invalid status check")
	}

	row := statusCheckRow{
		ID:         check.ID,
		ClientName: check.ClientName,
		Timestamp:  toUnixNano(check.Timestamp),
	}
	if _, err := r.db.NamedExecContext(ctx,
		`INSERT INTO status_checks (id, client_name, timestamp) VALUES (:id, :client_name, :timestamp)`, row); err != nil {
		return "", fmt.Errorf("failed to insert status check: %w", err)
	}
	return check.ID, nil
}

func (r *StatusCheckRepository) List(ctx context.Context, limit int) ([]*entities.StatusCheck, error) {
	if limit <= 0 {
		limit = -1
	}

	var rows []statusCheckRow
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT id, client_name, timestamp FROM status_checks ORDER BY seq ASC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("failed to list status checks: %w", err)
	}

	checks := make([]*entities.StatusCheck, 0, len(rows))
	for _, row := range rows {
		checks = append(checks, &entities.StatusCheck{
			ID:         row.ID,
			ClientName: row.ClientName,
			Timestamp:  fromUnixNano(row.Timestamp),
		})
	}
	return checks, nil
}
