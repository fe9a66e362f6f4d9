package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "orfin/pkg/domain"
)

// PostgresStore persists events in the audit_events table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed event store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	const query = `
		INSERT INTO audit_events (id, user_id, action, entity_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID.String(), event.UserID.String(), string(event.Action),
		event.EntityID, event.Detail, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]Event, error) {
	const query = `
		SELECT id, user_id, action, entity_id, detail, created_at
		FROM audit_events WHERE user_id = $1 ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e              Event
			rawID, rawUser string
			action         string
		)
		if err := rows.Scan(&rawID, &rawUser, &action, &e.EntityID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if e.ID, err = uuid.Parse(rawID); err != nil {
			return nil, fmt.Errorf("scan audit event id: %w", err)
		}
		if e.UserID, err = id.ParseUserID(rawUser); err != nil {
			return nil, fmt.Errorf("scan audit event user id: %w", err)
		}
		e.Action = Action(action)
		out = append(out, e)
	}
	return out, rows.Err()
}
