package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"orfin/internal/category/models"
	platformpg "orfin/internal/platform/postgres"
	"orfin/internal/tenant"
	id "orfin/pkg/domain"
	"orfin/pkg/platform/sentinel"
)

// Postgres persists categories in PostgreSQL. Partial unique indexes on
// (user_id, profile_id, name, parent_id) back the uniqueness tuple against
// concurrent writers.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed category store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, c *models.Category) error {
	const query = `
		INSERT INTO categories (id, user_id, profile_id, name, color, icon, parent_id, is_archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		c.ID.String(), c.Tenant.UserID.String(), c.Tenant.ProfileID.String(),
		c.Name, c.Color, c.Icon, parentArg(c.ParentID), c.Archived, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if platformpg.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, categoryID id.CategoryID) (*models.Category, error) {
	return scanCategory(s.db.QueryRowContext(ctx,
		selectCategory+` WHERE id = $1`, categoryID.String()))
}

func (s *Postgres) FindByTenantAndID(ctx context.Context, key tenant.Key, categoryID id.CategoryID) (*models.Category, error) {
	return scanCategory(s.db.QueryRowContext(ctx,
		selectCategory+` WHERE id = $1 AND user_id = $2 AND profile_id = $3`,
		categoryID.String(), key.UserID.String(), key.ProfileID.String()))
}

func (s *Postgres) FindByUserAndID(ctx context.Context, userID id.UserID, categoryID id.CategoryID) (*models.Category, error) {
	return scanCategory(s.db.QueryRowContext(ctx,
		selectCategory+` WHERE id = $1 AND user_id = $2`,
		categoryID.String(), userID.String()))
}

func (s *Postgres) Exists(ctx context.Context, key tenant.Key, name string, parentID *id.CategoryID, exclude id.CategoryID) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM categories
			WHERE user_id = $1 AND profile_id = $2 AND name = $3
			  AND parent_id IS NOT DISTINCT FROM $4
			  AND id <> $5
		)
	`
	var exists bool
	err := s.db.QueryRowContext(ctx, query,
		key.UserID.String(), key.ProfileID.String(), name, parentArg(parentID), exclude.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check category uniqueness: %w", err)
	}
	return exists, nil
}

func (s *Postgres) Update(ctx context.Context, c *models.Category) error {
	const query = `
		UPDATE categories
		SET name = $2, color = $3, icon = $4, parent_id = $5, is_archived = $6, updated_at = $7
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		c.ID.String(), c.Name, c.Color, c.Icon, parentArg(c.ParentID), c.Archived, c.UpdatedAt)
	if err != nil {
		if platformpg.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("update category: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// ArchiveCascade archives the category and its direct children in one
// transaction so the parent never becomes archived while a concurrent
// reader still sees an active child.
func (s *Postgres) ArchiveCascade(ctx context.Context, key tenant.Key, categoryID id.CategoryID) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE categories SET is_archived = TRUE, updated_at = now()
		WHERE id = $1 AND user_id = $2 AND profile_id = $3
	`, categoryID.String(), key.UserID.String(), key.ProfileID.String())
	if err != nil {
		return 0, fmt.Errorf("archive category: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("archive category: %w", err)
	}
	if affected == 0 {
		return 0, sentinel.ErrNotFound
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE categories SET is_archived = TRUE, updated_at = now()
		WHERE parent_id = $1 AND user_id = $2 AND profile_id = $3
	`, categoryID.String(), key.UserID.String(), key.ProfileID.String())
	if err != nil {
		return 0, fmt.Errorf("archive subcategories: %w", err)
	}
	children, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("archive subcategories: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return int(children), nil
}

func (s *Postgres) List(ctx context.Context, key tenant.Key, filter models.ListFilter) ([]*models.Category, error) {
	query := selectCategory + ` WHERE user_id = $1 AND profile_id = $2 AND is_archived = $3`
	args := []any{key.UserID.String(), key.ProfileID.String(), filter.OnlyArchived}
	if filter.Name != "" {
		query += ` AND name ILIKE '%' || $4 || '%'`
		args = append(args, filter.Name)
	}
	query += ` ORDER BY name`
	return s.queryCategories(ctx, query, args...)
}

// ListByUser returns matching categories across all of the user's profiles.
func (s *Postgres) ListByUser(ctx context.Context, userID id.UserID, filter models.ListFilter) ([]*models.Category, error) {
	query := selectCategory + ` WHERE user_id = $1 AND is_archived = $2`
	args := []any{userID.String(), filter.OnlyArchived}
	if filter.Name != "" {
		query += ` AND name ILIKE '%' || $3 || '%'`
		args = append(args, filter.Name)
	}
	query += ` ORDER BY name`
	return s.queryCategories(ctx, query, args...)
}

func (s *Postgres) queryCategories(ctx context.Context, query string, args ...any) ([]*models.Category, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []*models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const selectCategory = `SELECT id, user_id, profile_id, name, color, icon, parent_id, is_archived, created_at, updated_at FROM categories`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (*models.Category, error) {
	var (
		c                       models.Category
		rawID, rawUser, rawProf string
		rawParent               sql.NullString
	)
	err := row.Scan(&rawID, &rawUser, &rawProf, &c.Name, &c.Color, &c.Icon, &rawParent, &c.Archived, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan category: %w", err)
	}
	if c.ID, err = id.ParseCategoryID(rawID); err != nil {
		return nil, fmt.Errorf("scan category id: %w", err)
	}
	if c.Tenant.UserID, err = id.ParseUserID(rawUser); err != nil {
		return nil, fmt.Errorf("scan category user id: %w", err)
	}
	if c.Tenant.ProfileID, err = id.ParseProfileID(rawProf); err != nil {
		return nil, fmt.Errorf("scan category profile id: %w", err)
	}
	if rawParent.Valid {
		parentID, err := id.ParseCategoryID(rawParent.String)
		if err != nil {
			return nil, fmt.Errorf("scan category parent id: %w", err)
		}
		c.ParentID = &parentID
	}
	return &c, nil
}

func parentArg(parentID *id.CategoryID) any {
	if parentID == nil {
		return nil
	}
	return parentID.String()
}
