// Package service implements the profile lifecycle: creation under the
// per-user cap, archival, and unarchival. Profiles are soft-delete only.
package service

import (
	"context"
	"errors"
	"log/slog"

	"orfin/internal/audit"
	"orfin/internal/platform/metrics"
	"orfin/internal/profile/models"
	id "orfin/pkg/domain"
	dErrors "orfin/pkg/domain-errors"
	"orfin/pkg/platform/sentinel"
	"orfin/pkg/requestcontext"
)

// Store is the persistence contract for profiles. Create must reject a
// duplicate (user, name) pair with sentinel.ErrAlreadyUsed and a full
// per-user cap with sentinel.ErrLimitExceeded, both decided inside the
// store's critical section; archived profiles occupy the name slot and the
// cap alike.
type Store interface {
	Create(ctx context.Context, profile *models.Profile) error
	FindByID(ctx context.Context, userID id.UserID, profileID id.ProfileID) (*models.Profile, error)
	// Execute atomically runs validate then mutate against the stored
	// profile, holding the store's lock (mutex or row lock) across both.
	Execute(ctx context.Context, userID id.UserID, profileID id.ProfileID,
		validate func(*models.Profile) error, mutate func(*models.Profile)) (*models.Profile, error)
	List(ctx context.Context, userID id.UserID, filter models.ListFilter) ([]*models.Profile, error)
}

// Service orchestrates profile lifecycle operations.
type Service struct {
	profiles Store
	logger   *slog.Logger
	metrics  *metrics.Metrics
	audit    *audit.Publisher
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
func New(profiles Store, opts ...Option) *Service {
	s := &Service{profiles: profiles}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create persists a new active profile for the user. It fails with a
// conflict when the user already holds models.MaxPerUser profiles (archived
// ones count) or when the name is already taken among the user's profiles.
func (s *Service) Create(ctx context.Context, userID id.UserID, name string, imageNum *int) (*models.Profile, error) {
	profile, err := models.NewProfile(id.NewProfileID(), userID, name, imageNum, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.profiles.Create(ctx, profile); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.NewField(dErrors.CodeConflict, "name", "a profile with this name already exists")
		}
		if errors.Is(err, sentinel.ErrLimitExceeded) {
			return nil, dErrors.New(dErrors.CodeConflict, "user already holds the maximum of 3 profiles")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create profile")
	}

	s.log(ctx, "profile created", "profile_id", profile.ID.String(), "user_id", userID.String())
	if s.metrics != nil {
		s.metrics.ProfileCreated.Inc()
	}
	return profile, nil
}

// Get returns a profile owned by the user.
func (s *Service) Get(ctx context.Context, userID id.UserID, profileID id.ProfileID) (*models.Profile, error) {
	profile, err := s.profiles.FindByID(ctx, userID, profileID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	return profile, nil
}

// List returns the user's profiles honoring the archived/name filters.
func (s *Service) List(ctx context.Context, userID id.UserID, filter models.ListFilter) ([]*models.Profile, error) {
	profiles, err := s.profiles.List(ctx, userID, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list profiles")
	}
	return profiles, nil
}

// Update renames the profile or changes its image index. The unique
// (user, name) constraint backs renames onto an existing name.
func (s *Service) Update(ctx context.Context, userID id.UserID, profileID id.ProfileID, name string, imageNum *int) (*models.Profile, error) {
	now := requestcontext.Now(ctx)
	profile, err := s.profiles.Execute(ctx, userID, profileID,
		func(p *models.Profile) error {
			scratch := *p
			return scratch.ApplyRename(name, imageNum, now)
		},
		func(p *models.Profile) { _ = p.ApplyRename(name, imageNum, now) },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.NewField(dErrors.CodeConflict, "name", "a profile with this name already exists")
		}
		return nil, wrapProfileErr(err)
	}
	s.log(ctx, "profile updated", "profile_id", profileID.String(), "user_id", userID.String())
	return profile, nil
}

// Archive marks the profile archived. It does not check the current state:
// archiving twice is a state no-op, never an error.
func (s *Service) Archive(ctx context.Context, userID id.UserID, profileID id.ProfileID) (*models.Profile, error) {
	now := requestcontext.Now(ctx)
	profile, err := s.profiles.Execute(ctx, userID, profileID,
		func(*models.Profile) error { return nil },
		func(p *models.Profile) { p.ApplyArchive(now) },
	)
	if err != nil {
		return nil, wrapProfileErr(err)
	}
	s.log(ctx, "profile archived", "profile_id", profileID.String(), "user_id", userID.String())
	if s.metrics != nil {
		s.metrics.ProfileArchived.Inc()
	}
	s.audit.Record(ctx, userID, audit.ActionProfileArchived, profileID.String(), "")
	return profile, nil
}

// Unarchive clears the archived flag, failing with a conflict when the
// profile is already active.
func (s *Service) Unarchive(ctx context.Context, userID id.UserID, profileID id.ProfileID) (*models.Profile, error) {
	now := requestcontext.Now(ctx)
	profile, err := s.profiles.Execute(ctx, userID, profileID,
		func(p *models.Profile) error { return p.CanUnarchive() },
		func(p *models.Profile) { p.ApplyUnarchive(now) },
	)
	if err != nil {
		return nil, wrapProfileErr(err)
	}
	s.log(ctx, "profile unarchived", "profile_id", profileID.String(), "user_id", userID.String())
	s.audit.Record(ctx, userID, audit.ActionProfileUnarchived, profileID.String(), "")
	return profile, nil
}

// Delete always fails: profiles are never physically removed.
func (s *Service) Delete(context.Context, id.UserID, id.ProfileID) error {
	return dErrors.HardDeleteForbidden("profiles")
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

func wrapProfileErr(err error) error {
	var de *dErrors.Error
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "profile not found")
	case errors.As(err, &de):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "profile operation failed")
	}
}
