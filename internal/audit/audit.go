// Package audit records lifecycle events: registrations, archivals and
// deactivations. Events are append-only and carry the acting tenant so an
// operator can reconstruct who retired what and when.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	id "orfin/pkg/domain"
	"orfin/pkg/requestcontext"
)

// Action names what happened to an entity.
type Action string

const (
	ActionUserRegistered    Action = "user.registered"
	ActionUserDeactivated   Action = "user.deactivated"
	ActionProfileArchived   Action = "profile.archived"
	ActionProfileUnarchived Action = "profile.unarchived"
	ActionCategoryArchived  Action = "category.archived"
	ActionAccountArchived   Action = "account.archived"
)

// Event is one recorded lifecycle change. EntityID is the id of the entity
// acted upon; Detail holds action-specific context such as cascade counts.
type Event struct {
	ID        uuid.UUID
	UserID    id.UserID
	Action    Action
	EntityID  string
	Detail    string
	CreatedAt time.Time
}

// Store persists events. Append must not fail the caller's operation; the
// publisher logs and swallows storage errors.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
}

// Publisher builds and stores events. A nil *Publisher is safe to call,
// which lets services treat auditing as optional.
type Publisher struct {
	store  Store
	logger *slog.Logger
}

// NewPublisher constructs a Publisher over the given store.
func NewPublisher(store Store, logger *slog.Logger) *Publisher {
	return &Publisher{store: store, logger: logger}
}

// Record appends one event. Failures are logged, never propagated: the
// domain operation already committed and must not be rolled back for a
// missing audit row.
func (p *Publisher) Record(ctx context.Context, userID id.UserID, action Action, entityID, detail string) {
	if p == nil || p.store == nil {
		return
	}
	event := Event{
		ID:        uuid.New(),
		UserID:    userID,
		Action:    action,
		EntityID:  entityID,
		Detail:    detail,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := p.store.Append(ctx, event); err != nil && p.logger != nil {
		p.logger.ErrorContext(ctx, "failed to record audit event",
			"action", string(action), "entity_id", entityID, "error", err)
	}
}
