package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"orfin/internal/account/models"
	platformpg "orfin/internal/platform/postgres"
	"orfin/internal/tenant"
	id "orfin/pkg/domain"
	"orfin/pkg/platform/sentinel"
)

// Postgres persists accounts in PostgreSQL. The (user_id, profile_id, name)
// unique constraint backs name uniqueness against concurrent writers.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed account store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, a *models.Account) error {
	const query = `
		INSERT INTO accounts (id, user_id, profile_id, bank_name, name, description, account_type,
		                      color, include_calc, balance, is_archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID.String(), a.Tenant.UserID.String(), a.Tenant.ProfileID.String(),
		a.BankName, a.Name, a.Description, string(a.Type),
		a.Color, a.IncludeCalc, a.Balance.StringFixed(2), a.Archived, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if platformpg.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *Postgres) FindByTenantAndID(ctx context.Context, key tenant.Key, accountID id.AccountID) (*models.Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx,
		selectAccount+` WHERE id = $1 AND user_id = $2 AND profile_id = $3`,
		accountID.String(), key.UserID.String(), key.ProfileID.String()))
}

func (s *Postgres) FindByUserAndID(ctx context.Context, userID id.UserID, accountID id.AccountID) (*models.Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx,
		selectAccount+` WHERE id = $1 AND user_id = $2`,
		accountID.String(), userID.String()))
}

// Update rewrites the mutable columns. Balance is deliberately absent from
// the SET list: the column is immutable after insert.
func (s *Postgres) Update(ctx context.Context, a *models.Account) error {
	const query = `
		UPDATE accounts
		SET bank_name = $2, name = $3, description = $4, account_type = $5,
		    color = $6, include_calc = $7, is_archived = $8, updated_at = $9
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		a.ID.String(), a.BankName, a.Name, a.Description, string(a.Type),
		a.Color, a.IncludeCalc, a.Archived, a.UpdatedAt)
	if err != nil {
		if platformpg.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("update account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) List(ctx context.Context, key tenant.Key, filter models.ListFilter) ([]*models.Account, error) {
	query := selectAccount + ` WHERE user_id = $1 AND profile_id = $2 AND is_archived = $3`
	args := []any{key.UserID.String(), key.ProfileID.String(), filter.OnlyArchived}
	if filter.Name != "" {
		query += ` AND name ILIKE '%' || $4 || '%'`
		args = append(args, filter.Name)
	}
	query += ` ORDER BY name`
	return s.queryAccounts(ctx, query, args...)
}

// ListByUser returns matching accounts across all of the user's profiles.
func (s *Postgres) ListByUser(ctx context.Context, userID id.UserID, filter models.ListFilter) ([]*models.Account, error) {
	query := selectAccount + ` WHERE user_id = $1 AND is_archived = $2`
	args := []any{userID.String(), filter.OnlyArchived}
	if filter.Name != "" {
		query += ` AND name ILIKE '%' || $3 || '%'`
		args = append(args, filter.Name)
	}
	query += ` ORDER BY name`
	return s.queryAccounts(ctx, query, args...)
}

func (s *Postgres) queryAccounts(ctx context.Context, query string, args ...any) ([]*models.Account, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

const selectAccount = `SELECT id, user_id, profile_id, bank_name, name, description, account_type,
       color, include_calc, balance, is_archived, created_at, updated_at FROM accounts`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		a                       models.Account
		rawID, rawUser, rawProf string
		rawType, rawBalance     string
		description             sql.NullString
	)
	err := row.Scan(&rawID, &rawUser, &rawProf, &a.BankName, &a.Name, &description, &rawType,
		&a.Color, &a.IncludeCalc, &rawBalance, &a.Archived, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	if a.ID, err = id.ParseAccountID(rawID); err != nil {
		return nil, fmt.Errorf("scan account id: %w", err)
	}
	if a.Tenant.UserID, err = id.ParseUserID(rawUser); err != nil {
		return nil, fmt.Errorf("scan account user id: %w", err)
	}
	if a.Tenant.ProfileID, err = id.ParseProfileID(rawProf); err != nil {
		return nil, fmt.Errorf("scan account profile id: %w", err)
	}
	if description.Valid {
		a.Description = description.String
	}
	a.Type = models.Type(rawType)
	if a.Balance, err = decimal.NewFromString(rawBalance); err != nil {
		return nil, fmt.Errorf("scan account balance: %w", err)
	}
	return &a, nil
}
