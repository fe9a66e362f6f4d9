package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	platformpg "orfin/internal/platform/postgres"
	"orfin/internal/profile/models"
	id "orfin/pkg/domain"
	"orfin/pkg/platform/sentinel"
)

// Postgres persists profiles in PostgreSQL. The (user_id, name) unique
// constraint is the last line of defense against concurrent duplicate
// creation.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed profile store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Create inserts the profile inside a transaction that locks the owning
// user row, so the per-user cap count and the insert are serialized against
// concurrent creates for the same user.
func (s *Postgres) Create(ctx context.Context, p *models.Profile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var userRow string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM users WHERE id = $1 FOR UPDATE`, p.UserID.String()).Scan(&userRow)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lock user: %w", err)
	}

	var count int
	err = tx.QueryRowContext(ctx,
		`SELECT count(*) FROM profiles WHERE user_id = $1`, p.UserID.String()).Scan(&count)
	if err != nil {
		return fmt.Errorf("count profiles: %w", err)
	}
	if count >= models.MaxPerUser {
		return sentinel.ErrLimitExceeded
	}

	const query = `
		INSERT INTO profiles (id, user_id, name, image_num, is_archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = tx.ExecContext(ctx, query,
		p.ID.String(), p.UserID.String(), p.Name, p.ImageNum, p.Archived, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if platformpg.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create profile: %w", err)
	}
	return tx.Commit()
}

func (s *Postgres) FindByID(ctx context.Context, userID id.UserID, profileID id.ProfileID) (*models.Profile, error) {
	return scanProfile(s.db.QueryRowContext(ctx,
		selectProfile+` WHERE id = $1 AND user_id = $2`, profileID.String(), userID.String()))
}

// Execute locks the row with FOR UPDATE so validate and mutate observe and
// write a consistent state.
func (s *Postgres) Execute(ctx context.Context, userID id.UserID, profileID id.ProfileID,
	validate func(*models.Profile) error, mutate func(*models.Profile)) (*models.Profile, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	p, err := scanProfile(tx.QueryRowContext(ctx,
		selectProfile+` WHERE id = $1 AND user_id = $2 FOR UPDATE`, profileID.String(), userID.String()))
	if err != nil {
		return nil, err
	}
	if err := validate(p); err != nil {
		return nil, err
	}
	mutate(p)

	_, err = tx.ExecContext(ctx,
		`UPDATE profiles SET name = $2, image_num = $3, is_archived = $4, updated_at = $5 WHERE id = $1`,
		p.ID.String(), p.Name, p.ImageNum, p.Archived, p.UpdatedAt)
	if err != nil {
		if platformpg.IsUniqueViolation(err) {
			return nil, sentinel.ErrAlreadyUsed
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

func (s *Postgres) List(ctx context.Context, userID id.UserID, filter models.ListFilter) ([]*models.Profile, error) {
	query := selectProfile + ` WHERE user_id = $1 AND is_archived = $2`
	args := []any{userID.String(), filter.OnlyArchived}
	if filter.Name != "" {
		query += ` AND name ILIKE '%' || $3 || '%'`
		args = append(args, filter.Name)
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []*models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const selectProfile = `SELECT id, user_id, name, image_num, is_archived, created_at, updated_at FROM profiles`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	var (
		p              models.Profile
		rawID, rawUser string
		imageNum       sql.NullInt64
	)
	err := row.Scan(&rawID, &rawUser, &p.Name, &imageNum, &p.Archived, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	if p.ID, err = id.ParseProfileID(rawID); err != nil {
		return nil, fmt.Errorf("scan profile id: %w", err)
	}
	if p.UserID, err = id.ParseUserID(rawUser); err != nil {
		return nil, fmt.Errorf("scan profile user id: %w", err)
	}
	if imageNum.Valid {
		n := int(imageNum.Int64)
		p.ImageNum = &n
	}
	return &p, nil
}
