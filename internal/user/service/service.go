// Package service implements user registration, authentication and contact
// maintenance. Users are never hard-deleted; deactivation flips the active
// flag and keeps the row.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"orfin/internal/audit"
	"orfin/internal/platform/metrics"
	"orfin/internal/user/models"
	id "orfin/pkg/domain"
	dErrors "orfin/pkg/domain-errors"
	"orfin/pkg/platform/sentinel"
	"orfin/pkg/requestcontext"
	"orfin/pkg/secrets"
)

// Store is the persistence contract for users. Create must reject duplicate
// email or cpf with sentinel.ErrAlreadyUsed; the service pre-checks both to
// produce field-specific conflicts, leaving the constraint as the race
// backstop.
type Store interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByCPF(ctx context.Context, cpf string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// Service orchestrates user identity operations.
type Service struct {
	users   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   *audit.Publisher
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
func New(users Store, opts ...Option) *Service {
	s := &Service{users: users}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInput carries the registration fields. Email and CPF become
// immutable once the user exists.
type RegisterInput struct {
	Email    string
	CPF      string
	Password string
	Contact  models.ContactFields
}

// Register validates the input, hashes the password and persists a new
// active user. Email is lowercased before the uniqueness checks.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	passwordHash, err := secrets.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user, err := models.NewUser(id.NewUserID(), in.Email, in.CPF, in.Contact, passwordHash, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, user.Email); err == nil {
		return nil, dErrors.NewField(dErrors.CodeConflict, "email", "a user with this email already exists")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email")
	}
	if _, err := s.users.FindByCPF(ctx, user.CPF); err == nil {
		return nil, dErrors.NewField(dErrors.CodeConflict, "cpf", "a user with this cpf already exists")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check cpf")
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "a user with this email or cpf already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.log(ctx, "user registered", "user_id", user.ID.String())
	if s.metrics != nil {
		s.metrics.UserRegistered.Inc()
	}
	s.audit.Record(ctx, user.ID, audit.ActionUserRegistered, user.ID.String(), "")
	return user, nil
}

// Authenticate checks the email and password pair. Deactivated users cannot
// authenticate. A missing user and a wrong password produce the same
// unauthorized failure.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if !user.Active {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	if err := secrets.Verify(password, user.PasswordHash); err != nil {
		return nil, err
	}
	return user, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, userID id.UserID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}

// UpdateContact replaces the user's name and phone fields. Email and CPF
// cannot be changed through any operation.
func (s *Service) UpdateContact(ctx context.Context, userID id.UserID, contact models.ContactFields) (*models.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := user.ApplyContact(contact, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user")
	}
	s.log(ctx, "user contact updated", "user_id", userID.String())
	return user, nil
}

// Deactivate flips the user inactive. Calling it on an already inactive
// user is a state no-op.
func (s *Service) Deactivate(ctx context.Context, userID id.UserID) (*models.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.ApplyDeactivate(requestcontext.Now(ctx))
	if err := s.users.Update(ctx, user); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to deactivate user")
	}
	s.log(ctx, "user deactivated", "user_id", userID.String())
	if s.metrics != nil {
		s.metrics.UserDeactivated.Inc()
	}
	s.audit.Record(ctx, userID, audit.ActionUserDeactivated, userID.String(), "")
	return user, nil
}

// Delete always fails: users are never physically removed.
func (s *Service) Delete(context.Context, id.UserID) error {
	return dErrors.HardDeleteForbidden("users")
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

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
