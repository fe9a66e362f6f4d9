// Package tenant defines the (user, profile) pair that scopes every
// category and account, and the single choke point that proves the profile
// belongs to the user.
package tenant

import (
	"context"
	"errors"

	profilemodels "orfin/internal/profile/models"
	id "orfin/pkg/domain"
	dErrors "orfin/pkg/domain-errors"
	"orfin/pkg/platform/sentinel"
)

// Key is the immutable tenant identity. Every category and account row is
// scoped by exactly one Key.
type Key struct {
	UserID    id.UserID
	ProfileID id.ProfileID
}

// ProfileFinder is the slice of the profile store the resolver needs.
type ProfileFinder interface {
	FindByID(ctx context.Context, userID id.UserID, profileID id.ProfileID) (*profilemodels.Profile, error)
}

// Resolver builds tenant keys, rejecting profile ids the user does not own.
type Resolver struct {
	profiles ProfileFinder
}

// NewResolver constructs a Resolver over the profile store.
func NewResolver(profiles ProfileFinder) *Resolver {
	return &Resolver{profiles: profiles}
}

// Resolve validates that profileID references a profile owned by userID and
// returns the tenant key. An archived profile still resolves: its existing
// categories and accounts stay addressable.
func (r *Resolver) Resolve(ctx context.Context, userID id.UserID, profileID id.ProfileID) (Key, error) {
	if profileID.IsNil() {
		return Key{}, dErrors.NewField(dErrors.CodeValidation, "profile_id", "profile id is required")
	}
	if _, err := r.profiles.FindByID(ctx, userID, profileID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Key{}, dErrors.NewField(dErrors.CodeReference, "profile_id",
				"profile not found or does not belong to the user")
		}
		return Key{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve profile")
	}
	return Key{UserID: userID, ProfileID: profileID}, nil
}
