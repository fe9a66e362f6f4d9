package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"orfin/internal/user/models"
	platformpg "orfin/internal/platform/postgres"
	id "orfin/pkg/domain"
	"orfin/pkg/platform/sentinel"
)

// Postgres persists users in PostgreSQL. The email and cpf unique
// constraints back the uniqueness invariants against concurrent writers.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, u *models.User) error {
	const query = `
		INSERT INTO users (id, email, cpf, first_name, social_name, last_name, phone,
		                   password_hash, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		u.ID.String(), u.Email, u.CPF, u.FirstName, u.SocialName, u.LastName, u.Phone,
		u.PasswordHash, u.Active, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if platformpg.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, selectUser+` WHERE id = $1`, userID.String()))
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, selectUser+` WHERE email = $1`, email))
}

func (s *Postgres) FindByCPF(ctx context.Context, cpf string) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, selectUser+` WHERE cpf = $1`, cpf))
}

// Update rewrites the mutable columns. Email and cpf are deliberately absent
// from the SET list.
func (s *Postgres) Update(ctx context.Context, u *models.User) error {
	const query = `
		UPDATE users
		SET first_name = $2, social_name = $3, last_name = $4, phone = $5,
		    is_active = $6, updated_at = $7
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		u.ID.String(), u.FirstName, u.SocialName, u.LastName, u.Phone, u.Active, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

const selectUser = `SELECT id, email, cpf, first_name, social_name, last_name, phone,
       password_hash, is_active, created_at, updated_at FROM users`

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		u     models.User
		rawID string
		phone sql.NullString
	)
	err := row.Scan(&rawID, &u.Email, &u.CPF, &u.FirstName, &u.SocialName, &u.LastName, &phone,
		&u.PasswordHash, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if u.ID, err = id.ParseUserID(rawID); err != nil {
		return nil, fmt.Errorf("scan user id: %w", err)
	}
	if phone.Valid {
		u.Phone = phone.String
	}
	return &u, nil
}
