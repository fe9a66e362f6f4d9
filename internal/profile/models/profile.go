package models

import (
	"strings"
	"time"

	id "orfin/pkg/domain"
	dErrors "orfin/pkg/domain-errors"
)

// MaxPerUser caps how many profiles a user may hold. Archived profiles
// count toward the cap: archival frees nothing.
const MaxPerUser = 3

const maxNameLength = 30

// Profile is a named sub-identity ("relative") under a user. Categories and
// accounts are partitioned per profile.
//
// Invariants:
//   - Name is non-empty, trimmed, at most 30 characters
//   - (UserID, Name) is unique across the user's profiles, archived included
//   - A user holds at most MaxPerUser profiles, archived included
//   - Profiles are never physically deleted; Archived flags retirement
type Profile struct {
	ID        id.ProfileID `json:"id"`
	UserID    id.UserID    `json:"user_id"`
	Name      string       `json:"name"`
	ImageNum  *int         `json:"image_num,omitempty"`
	Archived  bool         `json:"is_archived"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewProfile validates field invariants and constructs an active profile.
func NewProfile(profileID id.ProfileID, userID id.UserID, name string, imageNum *int, now time.Time) (*Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.NewField(dErrors.CodeValidation, "name", "profile name is required")
	}
	if len(name) > maxNameLength {
		return nil, dErrors.NewField(dErrors.CodeValidation, "name", "profile name must be 30 characters or less")
	}
	return &Profile{
		ID:        profileID,
		UserID:    userID,
		Name:      name,
		ImageNum:  imageNum,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ApplyArchive marks the profile archived. Archiving an already archived
// profile is a state no-op, matching the soft-delete semantics.
func (p *Profile) ApplyArchive(now time.Time) {
	p.Archived = true
	p.UpdatedAt = now
}

// ApplyRename replaces the display name and image after validating them.
func (p *Profile) ApplyRename(name string, imageNum *int, now time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return dErrors.NewField(dErrors.CodeValidation, "name", "profile name is required")
	}
	if len(name) > maxNameLength {
		return dErrors.NewField(dErrors.CodeValidation, "name", "profile name must be 30 characters or less")
	}
	p.Name = name
	p.ImageNum = imageNum
	p.UpdatedAt = now
	return nil
}

// CanUnarchive checks the Archived -> Active transition.
func (p *Profile) CanUnarchive() error {
	if !p.Archived {
		return dErrors.New(dErrors.CodeConflict, "profile is already active")
	}
	return nil
}

// ApplyUnarchive clears the archived flag. Call CanUnarchive first.
func (p *Profile) ApplyUnarchive(now time.Time) {
	p.Archived = false
	p.UpdatedAt = now
}
