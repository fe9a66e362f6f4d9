// Package service implements the category hierarchy rules: tenant scoping,
// the two-level depth cap, uniqueness of (tenant, name, parent), and the
// one-level archival cascade.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"orfin/internal/audit"
	"orfin/internal/category/models"
	"orfin/internal/platform/metrics"
	"orfin/internal/tenant"
	id "orfin/pkg/domain"
	dErrors "orfin/pkg/domain-errors"
	"orfin/pkg/platform/sentinel"
	"orfin/pkg/requestcontext"
)

// Store is the persistence contract for categories. Create and Update must
// reject a duplicate (tenant, name, parent) tuple with
// sentinel.ErrAlreadyUsed; archived rows still occupy the tuple.
type Store interface {
	Create(ctx context.Context, category *models.Category) error
	// FindByID looks a category up without tenant scoping so the service
	// can distinguish a missing parent from a cross-tenant one.
	FindByID(ctx context.Context, categoryID id.CategoryID) (*models.Category, error)
	FindByTenantAndID(ctx context.Context, key tenant.Key, categoryID id.CategoryID) (*models.Category, error)
	Exists(ctx context.Context, key tenant.Key, name string, parentID *id.CategoryID, exclude id.CategoryID) (bool, error)
	Update(ctx context.Context, category *models.Category) error
	// ArchiveCascade atomically archives the category and every direct
	// child sharing its tenant, returning how many children were swept.
	ArchiveCascade(ctx context.Context, key tenant.Key, categoryID id.CategoryID) (int, error)
	FindByUserAndID(ctx context.Context, userID id.UserID, categoryID id.CategoryID) (*models.Category, error)
	List(ctx context.Context, key tenant.Key, filter models.ListFilter) ([]*models.Category, error)
	ListByUser(ctx context.Context, userID id.UserID, filter models.ListFilter) ([]*models.Category, error)
}

// CreateInput carries the caller-supplied fields for a new category.
type CreateInput struct {
	Name     string
	Color    string
	Icon     string
	ParentID *id.CategoryID
}

// UpdateInput carries the full replacement state for an update. Every
// create-time invariant is re-validated against these values.
type UpdateInput struct {
	Name     string
	Color    string
	Icon     string
	ParentID *id.CategoryID
	Archived bool
}

// Service orchestrates category lifecycle operations.
type Service struct {
	categories Store
	logger     *slog.Logger
	metrics    *metrics.Metrics
	audit      *audit.Publisher
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics attaches lifecycle counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAudit attaches the lifecycle event publisher.
func WithAudit(p *audit.Publisher) Option {
	return func(s *Service) { s.audit = p }
}

// New constructs a Service.
func New(categories Store, opts ...Option) *Service {
	s := &Service{categories: categories}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates and persists a category under the tenant.
func (s *Service) Create(ctx context.Context, key tenant.Key, in CreateInput) (*models.Category, error) {
	category, err := models.NewCategory(id.NewCategoryID(), key, in.Name, in.Color, in.Icon, in.ParentID, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.checkUniqueness(ctx, key, category.Name, in.ParentID, id.CategoryID{}); err != nil {
		return nil, err
	}
	if err := s.checkParent(ctx, key, in.ParentID); err != nil {
		return nil, err
	}

	if err := s.categories.Create(ctx, category); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, duplicateCategory()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create category")
	}

	s.log(ctx, "category created", "category_id", category.ID.String())
	if s.metrics != nil {
		s.metrics.CategoryCreated.Inc()
	}
	return category, nil
}

// Update replaces the category's fields, re-running every create-time
// invariant and additionally rejecting a category becoming its own parent.
func (s *Service) Update(ctx context.Context, key tenant.Key, categoryID id.CategoryID, in UpdateInput) (*models.Category, error) {
	category, err := s.get(ctx, key, categoryID)
	if err != nil {
		return nil, err
	}

	if in.ParentID != nil && *in.ParentID == categoryID {
		return nil, dErrors.NewField(dErrors.CodeReference, "parent_id", "a category cannot be its own parent")
	}
	if err := category.ApplyUpdate(in.Name, in.Color, in.Icon, in.ParentID, in.Archived, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.checkUniqueness(ctx, key, category.Name, in.ParentID, categoryID); err != nil {
		return nil, err
	}
	if err := s.checkParent(ctx, key, in.ParentID); err != nil {
		return nil, err
	}

	if err := s.categories.Update(ctx, category); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, duplicateCategory()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update category")
	}
	s.log(ctx, "category updated", "category_id", categoryID.String())
	return category, nil
}

// Get returns a category scoped to the tenant.
func (s *Service) Get(ctx context.Context, key tenant.Key, categoryID id.CategoryID) (*models.Category, error) {
	return s.get(ctx, key, categoryID)
}

// GetByUser returns a category owned by any of the user's profiles. Reads
// need not be pinned to a single profile; writes always are.
func (s *Service) GetByUser(ctx context.Context, userID id.UserID, categoryID id.CategoryID) (*models.Category, error) {
	category, err := s.categories.FindByUserAndID(ctx, userID, categoryID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "category not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load category")
	}
	return category, nil
}

// List returns the tenant's categories honoring the archived/name filters.
func (s *Service) List(ctx context.Context, key tenant.Key, filter models.ListFilter) ([]*models.Category, error) {
	categories, err := s.categories.List(ctx, key, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list categories")
	}
	return categories, nil
}

// ListByUser returns categories across all of the user's profiles.
func (s *Service) ListByUser(ctx context.Context, userID id.UserID, filter models.ListFilter) ([]*models.Category, error) {
	categories, err := s.categories.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list categories")
	}
	return categories, nil
}

// Archive marks the category archived and cascades to its direct children
// under the same tenant. It returns how many children were archived so the
// caller can phrase its message; the cascade never goes deeper than one
// level because grandchildren cannot exist.
func (s *Service) Archive(ctx context.Context, key tenant.Key, categoryID id.CategoryID) (int, error) {
	archived, err := s.categories.ArchiveCascade(ctx, key, categoryID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, dErrors.New(dErrors.CodeNotFound, "category not found")
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to archive category")
	}
	s.log(ctx, "category archived", "category_id", categoryID.String(), "children_archived", archived)
	if s.metrics != nil {
		s.metrics.CategoryArchived.Add(float64(1 + archived))
		s.metrics.CascadeArchived.Observe(float64(archived))
	}
	s.audit.Record(ctx, key.UserID, audit.ActionCategoryArchived, categoryID.String(),
		fmt.Sprintf("children_archived=%d", archived))
	return archived, nil
}

// Delete always fails: categories are never physically removed.
func (s *Service) Delete(context.Context, tenant.Key, id.CategoryID) error {
	return dErrors.HardDeleteForbidden("categories")
}

func (s *Service) get(ctx context.Context, key tenant.Key, categoryID id.CategoryID) (*models.Category, error) {
	category, err := s.categories.FindByTenantAndID(ctx, key, categoryID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "category not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load category")
	}
	return category, nil
}

func (s *Service) checkUniqueness(ctx context.Context, key tenant.Key, name string, parentID *id.CategoryID, exclude id.CategoryID) error {
	exists, err := s.categories.Exists(ctx, key, name, parentID, exclude)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check category uniqueness")
	}
	if exists {
		return duplicateCategory()
	}
	return nil
}

// checkParent enforces the relationship invariants for an optional parent:
// existence, same tenant, and the two-level depth cap. The depth check
// walks exactly one hop because a valid parent can never itself have a
// parent with a parent.
func (s *Service) checkParent(ctx context.Context, key tenant.Key, parentID *id.CategoryID) error {
	if parentID == nil {
		return nil
	}
	parent, err := s.categories.FindByID(ctx, *parentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.NewField(dErrors.CodeReference, "parent_id", "parent category not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load parent category")
	}
	if parent.Tenant != key {
		return dErrors.NewField(dErrors.CodeReference, "parent_id", "parent category must belong to the same user and profile")
	}
	if parent.ParentID != nil {
		return dErrors.NewField(dErrors.CodeReference, "parent_id", "only one level of subcategories is allowed")
	}
	return nil
}

func duplicateCategory() error {
	return dErrors.NewField(dErrors.CodeConflict, "name",
		"a category with this name already exists under the same parent")
}

func (s *Service) log(ctx context.Context, msg string, args ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	s.logger.InfoContext(ctx, msg, args...)
}
