// Package service implements the account ledger guard: per-tenant name
// uniqueness, balance immutability after creation, and the archived ->
// include_calc=false coupling.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"orfin/internal/account/models"
	"orfin/internal/audit"
	"orfin/internal/platform/metrics"
	"orfin/internal/tenant"
	id "orfin/pkg/domain"
	dErrors "orfin/pkg/domain-errors"
	"orfin/pkg/platform/sentinel"
	"orfin/pkg/requestcontext"
)

// Store is the persistence contract for accounts. Create and Update must
// reject a duplicate (tenant, name) pair with sentinel.ErrAlreadyUsed;
// archived rows still occupy the name slot.
type Store interface {
	Create(ctx context.Context, account *models.Account) error
	FindByTenantAndID(ctx context.Context, key tenant.Key, accountID id.AccountID) (*models.Account, error)
	FindByUserAndID(ctx context.Context, userID id.UserID, accountID id.AccountID) (*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
	List(ctx context.Context, key tenant.Key, filter models.ListFilter) ([]*models.Account, error)
	ListByUser(ctx context.Context, userID id.UserID, filter models.ListFilter) ([]*models.Account, error)
}

// UpdateInput is the full replacement state for an account update. Balance
// is a pointer: nil means "omitted", which always passes the immutability
// check.
type UpdateInput struct {
	Fields  models.Fields
	Balance *decimal.Decimal
}

// Service orchestrates account lifecycle operations.
type Service struct {
	accounts Store
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
func New(accounts Store, opts ...Option) *Service {
	s := &Service{accounts: accounts}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create persists a new account. This is the only operation allowed to set
// the balance. The contradictory input archived=true + include_calc=true is
// rejected; archived=true alone stores include_calc=false.
func (s *Service) Create(ctx context.Context, key tenant.Key, f models.Fields) (*models.Account, error) {
	if err := models.ValidateCalcFlag(f.Archived, f.IncludeCalc); err != nil {
		return nil, err
	}
	account, err := models.NewAccount(id.NewAccountID(), key, f, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, duplicateName()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}
	s.log(ctx, "account created", "account_id", account.ID.String())
	if s.metrics != nil {
		s.metrics.AccountCreated.Inc()
	}
	return account, nil
}

// Update replaces the account's mutable fields. A submitted balance that
// differs from the stored one fails regardless of the other fields; the
// stored include_calc is re-derived from the final archived value.
func (s *Service) Update(ctx context.Context, key tenant.Key, accountID id.AccountID, in UpdateInput) (*models.Account, error) {
	account, err := s.get(ctx, key, accountID)
	if err != nil {
		return nil, err
	}

	if in.Balance != nil && !in.Balance.Equal(account.Balance) {
		return nil, dErrors.NewField(dErrors.CodeValidation, "balance", "account balance cannot be changed")
	}
	if err := models.ValidateCalcFlag(in.Fields.Archived, in.Fields.IncludeCalc); err != nil {
		return nil, err
	}
	if err := account.ApplyUpdate(in.Fields, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}

	if err := s.accounts.Update(ctx, account); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, duplicateName()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update account")
	}
	s.log(ctx, "account updated", "account_id", accountID.String())
	return account, nil
}

// Archive retires the account. It is the only legal way to stop counting an
// account in totals: archived forces include_calc off.
func (s *Service) Archive(ctx context.Context, key tenant.Key, accountID id.AccountID) (*models.Account, error) {
	account, err := s.get(ctx, key, accountID)
	if err != nil {
		return nil, err
	}
	account.Archived = true
	account.IncludeCalc = models.DeriveIncludeCalc(true, account.IncludeCalc)
	account.UpdatedAt = requestcontext.Now(ctx)

	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to archive account")
	}
	s.log(ctx, "account archived", "account_id", accountID.String())
	if s.metrics != nil {
		s.metrics.AccountArchived.Inc()
	}
	s.audit.Record(ctx, key.UserID, audit.ActionAccountArchived, accountID.String(), "")
	return account, nil
}

// Get returns an account scoped to the tenant.
func (s *Service) Get(ctx context.Context, key tenant.Key, accountID id.AccountID) (*models.Account, error) {
	return s.get(ctx, key, accountID)
}

// GetByUser returns an account owned by any of the user's profiles. Reads
// need not be pinned to a single profile; writes always are.
func (s *Service) GetByUser(ctx context.Context, userID id.UserID, accountID id.AccountID) (*models.Account, error) {
	account, err := s.accounts.FindByUserAndID(ctx, userID, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return account, nil
}

// List returns the tenant's accounts honoring the archived/name filters.
func (s *Service) List(ctx context.Context, key tenant.Key, filter models.ListFilter) ([]*models.Account, error) {
	accounts, err := s.accounts.List(ctx, key, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list accounts")
	}
	return accounts, nil
}

// ListByUser returns accounts across all of the user's profiles.
func (s *Service) ListByUser(ctx context.Context, userID id.UserID, filter models.ListFilter) ([]*models.Account, error) {
	accounts, err := s.accounts.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list accounts")
	}
	return accounts, nil
}

// Delete always fails: accounts are never physically removed.
func (s *Service) Delete(context.Context, tenant.Key, id.AccountID) error {
	return dErrors.HardDeleteForbidden("accounts")
}

func (s *Service) get(ctx context.Context, key tenant.Key, accountID id.AccountID) (*models.Account, error) {
	account, err := s.accounts.FindByTenantAndID(ctx, key, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return account, nil
}

func duplicateName() error {
	return dErrors.NewField(dErrors.CodeConflict, "name", "an account with this name already exists")
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
